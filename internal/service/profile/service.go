package profile

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
)

// Service errors
var (
	ErrNotFound   = errors.New("profile not found")
	ErrIncomplete = errors.New("profile is missing required fields")
)

// Gender is the closed set of gender identities a profile can carry.
type Gender string

const (
	GenderWoman     Gender = "woman"
	GenderMan       Gender = "man"
	GenderNonbinary Gender = "nonbinary"
	GenderOther     Gender = "other"
)

// Genders lists the accepted values in display order.
var Genders = []Gender{GenderWoman, GenderMan, GenderNonbinary, GenderOther}

// Valid reports whether g is one of Genders.
func (g Gender) Valid() bool {
	return slices.Contains(Genders, g)
}

// Record is the authoritative server-side profile keyed by user id.
type Record struct {
	UserID              string
	FirstName           string
	LastName            string
	BirthDate           *time.Time
	Gender              Gender
	ShowGender          bool
	Photos              []string
	Interests           []string
	OnboardingCompleted bool
	UpdatedAt           time.Time
}

// HasName reports whether both name parts are non-blank.
func (r *Record) HasName() bool {
	return strings.TrimSpace(r.FirstName) != "" && strings.TrimSpace(r.LastName) != ""
}

// HasBasics reports whether birth date and gender are stored.
func (r *Record) HasBasics() bool {
	return r.BirthDate != nil && r.Gender != ""
}

// IsComplete reports whether every field required for a finished profile is
// populated.
func (r *Record) IsComplete(minInterests int) bool {
	return r.HasName() && r.HasBasics() && len(r.Photos) > 0 && len(r.Interests) >= minInterests
}

// Service persists profile records.
//
// Every write recomputes OnboardingCompleted: a record stays completed only
// while IsComplete holds, so a group write that empties a required field
// also clears the flag.
type Service interface {
	Get(ctx context.Context, userID string) (*Record, error)
	// UpsertGroup writes one field group, creating the record when absent.
	UpsertGroup(ctx context.Context, userID string, group Group) (*Record, error)
	// Complete writes every field group and sets the completion flag.
	// It returns ErrIncomplete without writing when rec is not complete.
	Complete(ctx context.Context, userID string, rec Record) (*Record, error)
}

// finish recomputes derived fields after a write was applied to r.
func finish(r *Record, userID string, completed bool, minInterests int, now time.Time) {
	r.UserID = userID
	r.OnboardingCompleted = completed && r.IsComplete(minInterests)
	r.UpdatedAt = now
}

// categorizeError converts errors to audit-safe categories.
func categorizeError(err error) string {
	switch {
	case errors.Is(err, ErrIncomplete):
		return "incomplete"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal_error"
	}
}
