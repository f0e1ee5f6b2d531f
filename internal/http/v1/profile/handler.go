package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/dating-onboarding/internal/platform/auth"
	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
	"github.com/janisto/dating-onboarding/internal/platform/timeutil"
	profilesvc "github.com/janisto/dating-onboarding/internal/service/profile"
)

// Register registers profile endpoints.
func Register(api huma.API, svc profilesvc.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/profile",
		Summary:     "Get current user's profile",
		Description: "Retrieves the stored profile of the authenticated user, including whether onboarding was finished.",
		Tags:        []string{"Profile"},
		Security:    auth.Required,
	}, func(ctx context.Context, _ *ProfileGetInput) (*ProfileGetOutput, error) {
		user := auth.UserFromContext(ctx)

		rec, err := svc.Get(ctx, user.UID)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &ProfileGetOutput{
			Body: toHTTPProfile(rec),
		}, nil
	})
}

func mapServiceError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, profilesvc.ErrNotFound):
		return huma.Error404NotFound("profile not found")
	default:
		applog.LogError(ctx, "profile read failed", err)
		return huma.Error500InternalServerError("internal error")
	}
}

func toHTTPProfile(r *profilesvc.Record) Profile {
	p := Profile{
		ID:                  r.UserID,
		FirstName:           r.FirstName,
		LastName:            r.LastName,
		Gender:              string(r.Gender),
		ShowGender:          r.ShowGender,
		Photos:              r.Photos,
		Interests:           r.Interests,
		OnboardingCompleted: r.OnboardingCompleted,
		UpdatedAt:           timeutil.Time{Time: r.UpdatedAt},
	}
	if p.Photos == nil {
		p.Photos = []string{}
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
	if r.BirthDate != nil {
		d := r.BirthDate.Format(timeutil.DateOnly)
		p.BirthDate = &d
	}
	return p
}
