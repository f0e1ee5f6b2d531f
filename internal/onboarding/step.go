package onboarding

import (
	"slices"
	"strings"
)

// Step is a position in the fixed onboarding sequence.
type Step string

const (
	StepWelcome   Step = "welcome"
	StepName      Step = "name"
	StepBasics    Step = "basics"
	StepPhotos    Step = "photos"
	StepAuth      Step = "auth"
	StepInterests Step = "interests"
	StepReview    Step = "review"
	StepDone      Step = "done"
)

// Steps is the onboarding sequence in order.
var Steps = []Step{
	StepWelcome, StepName, StepBasics, StepPhotos,
	StepAuth, StepInterests, StepReview, StepDone,
}

var screens = map[Step]string{
	StepWelcome:   "Welcome",
	StepName:      "NameBirthday",
	StepBasics:    "Gender",
	StepPhotos:    "OnboardingPhotos",
	StepAuth:      "AuthEmail",
	StepInterests: "Interests",
	StepReview:    "Review",
	StepDone:      "Main",
}

// ParseStep returns the step named s.
func ParseStep(s string) (Step, bool) {
	step := Step(s)
	return step, slices.Contains(Steps, step)
}

// Screen is the client screen that renders the step.
func (s Step) Screen() string {
	return screens[s]
}

// Next returns the step after s. Done is terminal.
func (s Step) Next() Step {
	i := slices.Index(Steps, s)
	if i < 0 || i == len(Steps)-1 {
		return s
	}
	return Steps[i+1]
}

// Prev returns the step before s. Welcome has no predecessor and done is
// never left.
func (s Step) Prev() Step {
	i := slices.Index(Steps, s)
	if i <= 0 || s == StepDone {
		return s
	}
	return Steps[i-1]
}

// CanAdvance reports whether d satisfies the exit condition of step.
func CanAdvance(step Step, d Draft, rules Rules) bool {
	switch step {
	case StepWelcome, StepAuth, StepReview:
		return true
	case StepName:
		return strings.TrimSpace(d.FirstName) != "" && strings.TrimSpace(d.LastName) != ""
	case StepBasics:
		return !d.Birthdate.IsZero() && d.Gender != ""
	case StepPhotos:
		return len(d.Photos) > 0
	case StepInterests:
		return len(d.Interests) >= rules.MinInterests
	default:
		return false
	}
}
