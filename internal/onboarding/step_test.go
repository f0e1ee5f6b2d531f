package onboarding

import (
	"testing"
)

func TestStepSequence(t *testing.T) {
	for i, s := range Steps[:len(Steps)-1] {
		if got := s.Next(); got != Steps[i+1] {
			t.Errorf("%s.Next() = %s, want %s", s, got, Steps[i+1])
		}
	}
	if StepDone.Next() != StepDone {
		t.Error("done must be terminal")
	}
}

func TestStepPrev(t *testing.T) {
	tests := []struct {
		step, want Step
	}{
		{StepWelcome, StepWelcome},
		{StepName, StepWelcome},
		{StepInterests, StepAuth},
		{StepReview, StepInterests},
		{StepDone, StepDone},
	}
	for _, tt := range tests {
		if got := tt.step.Prev(); got != tt.want {
			t.Errorf("%s.Prev() = %s, want %s", tt.step, got, tt.want)
		}
	}
}

func TestParseStep(t *testing.T) {
	for _, s := range Steps {
		if got, ok := ParseStep(string(s)); !ok || got != s {
			t.Errorf("ParseStep(%q) = %q, %v", s, got, ok)
		}
	}
	if _, ok := ParseStep("checkout"); ok {
		t.Error("expected unknown step rejected")
	}
}

func TestStepScreens(t *testing.T) {
	want := map[Step]string{
		StepWelcome:   "Welcome",
		StepName:      "NameBirthday",
		StepBasics:    "Gender",
		StepPhotos:    "OnboardingPhotos",
		StepAuth:      "AuthEmail",
		StepInterests: "Interests",
		StepReview:    "Review",
		StepDone:      "Main",
	}
	for step, screen := range want {
		if got := step.Screen(); got != screen {
			t.Errorf("%s.Screen() = %q, want %q", step, got, screen)
		}
	}
}

func TestCanAdvance(t *testing.T) {
	rules := DefaultRules()
	empty := NewDraft()

	named := NewDraft()
	named.FirstName, named.LastName = "Ada", "Lovelace"

	blank := NewDraft()
	blank.FirstName, blank.LastName = "  ", "Lovelace"

	withGender := NewDraft()
	withGender.Gender = "woman"

	withPhoto := NewDraft()
	withPhoto.Photos = []string{"file:///photo.jpg"}

	two := NewDraft()
	two.Interests = []string{"Travel", "Music"}
	three := NewDraft()
	three.Interests = []string{"Travel", "Music", "Art"}

	tests := []struct {
		name  string
		step  Step
		draft Draft
		want  bool
	}{
		{"welcome always", StepWelcome, empty, true},
		{"name empty", StepName, empty, false},
		{"name whitespace", StepName, blank, false},
		{"name set", StepName, named, true},
		{"basics without gender", StepBasics, empty, false},
		{"basics with default birthdate and gender", StepBasics, withGender, true},
		{"photos none", StepPhotos, empty, false},
		{"photos device reference", StepPhotos, withPhoto, true},
		{"auth always", StepAuth, empty, true},
		{"interests two", StepInterests, two, false},
		{"interests three", StepInterests, three, true},
		{"review always", StepReview, empty, true},
		{"done never", StepDone, three, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAdvance(tt.step, tt.draft, rules); got != tt.want {
				t.Fatalf("CanAdvance(%s) = %v, want %v", tt.step, got, tt.want)
			}
		})
	}
}

func TestCanAdvanceIgnoresAge(t *testing.T) {
	d := NewDraft()
	d.Birthdate.Time = date(2015, 1, 1)
	d.Gender = "man"
	if !CanAdvance(StepBasics, d, DefaultRules()) {
		t.Fatal("age must not gate step advancement")
	}
}

func TestCanAdvanceMonotonic(t *testing.T) {
	rules := DefaultRules()
	d := NewDraft()
	for _, tag := range Interests[:rules.MaxInterests] {
		before := CanAdvance(StepInterests, d, rules)
		d.Interests = append(d.Interests, tag)
		if before && !CanAdvance(StepInterests, d, rules) {
			t.Fatalf("adding %q made interests ineligible", tag)
		}
	}

	d = NewDraft()
	for i := range rules.MaxPhotos {
		before := CanAdvance(StepPhotos, d, rules)
		d.Photos = append(d.Photos, "file:///p"+string(rune('0'+i)))
		if before && !CanAdvance(StepPhotos, d, rules) {
			t.Fatal("adding a photo made photos ineligible")
		}
	}

	d = NewDraft()
	d.FirstName, d.LastName = "Ada", "Lovelace"
	d.Gender = "woman"
	d.Photos = []string{"https://cdn.example.com/a.jpg"}
	for _, step := range []Step{StepName, StepBasics, StepPhotos} {
		if !CanAdvance(step, d, rules) {
			t.Fatalf("expected %s eligible", step)
		}
	}
	d.ShowGender = false
	d.Interests = []string{"Travel"}
	for _, step := range []Step{StepName, StepBasics, StepPhotos} {
		if !CanAdvance(step, d, rules) {
			t.Fatalf("%s became ineligible after unrelated data was added", step)
		}
	}
}
