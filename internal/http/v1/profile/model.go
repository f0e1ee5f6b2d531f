package profile

import (
	"github.com/janisto/dating-onboarding/internal/platform/timeutil"
)

// Profile represents a stored dating profile.
type Profile struct {
	ID                  string        `json:"id"                  doc:"User id"                         example:"user-123"`
	FirstName           string        `json:"firstName"           doc:"Given name"                      example:"Ada"`
	LastName            string        `json:"lastName"            doc:"Family name"                     example:"Lovelace"`
	BirthDate           *string       `json:"birthDate,omitempty" doc:"Birth date"                      example:"1995-03-14" format:"date"`
	Gender              string        `json:"gender,omitempty"    doc:"Gender identity"                 example:"woman"`
	ShowGender          bool          `json:"showGender"          doc:"Show gender on profile"          example:"true"`
	Photos              []string      `json:"photos"              doc:"Photo URLs in display order"`
	Interests           []string      `json:"interests"           doc:"Selected interests"`
	OnboardingCompleted bool          `json:"onboardingCompleted" doc:"Whether onboarding was finished" example:"true"`
	UpdatedAt           timeutil.Time `json:"updatedAt"           doc:"Last update timestamp"           example:"2024-01-15T10:30:00.000Z"`
}
