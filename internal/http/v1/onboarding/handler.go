package onboarding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/dating-onboarding/internal/onboarding"
	"github.com/janisto/dating-onboarding/internal/platform/auth"
	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
	"github.com/janisto/dating-onboarding/internal/platform/timeutil"
	"github.com/janisto/dating-onboarding/internal/service/photo"
	"github.com/janisto/dating-onboarding/internal/service/profile"
)

// Uploader stores an uploaded photo and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

var _ Uploader = (*photo.Uploader)(nil)

// MaxPhotoBytes caps the size of one photo upload request.
const MaxPhotoBytes = 10 << 20

// Register registers onboarding endpoints.
func Register(api huma.API, mgr *onboarding.Manager, uploader Uploader) {
	h := &handler{mgr: mgr, uploader: uploader}

	huma.Register(api, huma.Operation{
		OperationID: "get-onboarding",
		Method:      http.MethodGet,
		Path:        "/onboarding",
		Summary:     "Get onboarding state",
		Description: "Returns the current step, its screen, the draft and whether the step can be left. " +
			"Signed-in callers resume from their stored profile.",
		Tags:     []string{"Onboarding"},
		Security: auth.Optional,
	}, func(ctx context.Context, input *StateGetInput) (*StateOutput, error) {
		var st onboarding.State
		err := h.withSession(ctx, input.DeviceID, func(s *onboarding.Session) (err error) {
			st, err = s.State()
			return err
		})
		if err != nil {
			return nil, mapError(ctx, err)
		}
		return &StateOutput{Body: toHTTPState(st)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-onboarding-draft",
		Method:      http.MethodPatch,
		Path:        "/onboarding/draft",
		Summary:     "Update onboarding answers",
		Description: "Updates the given draft fields. Only provided fields change. " +
			"Signed-in callers have the affected field groups saved to their profile.",
		Tags:     []string{"Onboarding"},
		Security: auth.Optional,
	}, func(ctx context.Context, input *DraftUpdateInput) (*StateOutput, error) {
		patch, err := toPatch(input)
		if err != nil {
			return nil, err
		}
		var st onboarding.State
		err = h.withSession(ctx, input.DeviceID, func(s *onboarding.Session) (err error) {
			st, err = s.Update(ctx, patch)
			return err
		})
		if err != nil {
			return nil, mapError(ctx, err)
		}
		return &StateOutput{Body: toHTTPState(st)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-onboarding-interest",
		Method:      http.MethodPost,
		Path:        "/onboarding/interests/toggle",
		Summary:     "Toggle an interest",
		Description: "Selects the interest when it is not selected and deselects it otherwise.",
		Tags:        []string{"Onboarding"},
		Security:    auth.Optional,
	}, func(ctx context.Context, input *InterestToggleInput) (*InterestToggleOutput, error) {
		var (
			st       onboarding.State
			selected bool
		)
		err := h.withSession(ctx, input.DeviceID, func(s *onboarding.Session) (err error) {
			st, selected, err = s.ToggleInterest(ctx, input.Body.Interest)
			return err
		})
		if err != nil {
			return nil, mapError(ctx, err)
		}
		out := &InterestToggleOutput{}
		out.Body.Selected = selected
		out.Body.State = toHTTPState(st)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-onboarding-interests",
		Method:      http.MethodGet,
		Path:        "/onboarding/interests",
		Summary:     "List selectable values",
		Description: "Returns the interest catalogue, gender options and draft bounds.",
		Tags:        []string{"Onboarding"},
	}, func(_ context.Context, _ *InterestsGetInput) (*CatalogueOutput, error) {
		rules := mgr.Rules()
		genders := make([]string, 0, len(profile.Genders))
		for _, g := range profile.Genders {
			genders = append(genders, string(g))
		}
		return &CatalogueOutput{Body: Catalogue{
			Interests:    onboarding.Interests,
			Genders:      genders,
			MinInterests: rules.MinInterests,
			MaxInterests: rules.MaxInterests,
			MaxPhotos:    rules.MaxPhotos,
			MinAge:       rules.MinAge,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "upload-onboarding-photo",
		Method:      http.MethodPut,
		Path:        "/onboarding/photos/{slot}",
		Summary:     "Upload a photo",
		Description: "Normalises the image, stores it and places its URL into the slot. " +
			"The next free slot appends.",
		Tags:         []string{"Onboarding"},
		Security:     auth.Optional,
		MaxBodyBytes: MaxPhotoBytes,
	}, func(ctx context.Context, input *PhotoUploadInput) (*StateOutput, error) {
		form := input.RawBody.Data()
		if !form.Photo.IsSet {
			return nil, huma.Error422UnprocessableEntity("photo is required")
		}
		defer form.Photo.Close()

		var st onboarding.State
		err := h.withSession(ctx, input.DeviceID, func(s *onboarding.Session) error {
			if err := s.CheckPhotoSlot(input.Slot); err != nil {
				return err
			}
			url, err := h.uploader.Upload(ctx, form.Photo.Filename, form.Photo)
			if err != nil {
				return err
			}
			st, err = s.SetPhoto(ctx, input.Slot, url)
			return err
		})
		if err != nil {
			return nil, mapError(ctx, err)
		}
		return &StateOutput{Body: toHTTPState(st)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-onboarding-photo-reference",
		Method:      http.MethodPut,
		Path:        "/onboarding/photos/{slot}/reference",
		Summary:     "Place a device photo reference",
		Description: "Places a photo that has not been uploaded yet into the slot. " +
			"Device references are kept out of the stored profile.",
		Tags:     []string{"Onboarding"},
		Security: auth.Optional,
	}, func(ctx context.Context, input *PhotoReferenceInput) (*StateOutput, error) {
		var st onboarding.State
		err := h.withSession(ctx, input.DeviceID, func(s *onboarding.Session) (err error) {
			st, err = s.SetDeviceReference(ctx, input.Slot, input.Body.URI)
			return err
		})
		if err != nil {
			return nil, mapError(ctx, err)
		}
		return &StateOutput{Body: toHTTPState(st)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-onboarding-photo",
		Method:      http.MethodDelete,
		Path:        "/onboarding/photos/{slot}",
		Summary:     "Remove a photo",
		Description: "Removes the photo in the slot; later photos move up.",
		Tags:        []string{"Onboarding"},
		Security:    auth.Optional,
	}, func(ctx context.Context, input *PhotoDeleteInput) (*StateOutput, error) {
		var st onboarding.State
		err := h.withSession(ctx, input.DeviceID, func(s *onboarding.Session) (err error) {
			st, err = s.RemovePhoto(ctx, input.Slot)
			return err
		})
		if err != nil {
			return nil, mapError(ctx, err)
		}
		return &StateOutput{Body: toHTTPState(st)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "advance-onboarding",
		Method:      http.MethodPost,
		Path:        "/onboarding/advance",
		Summary:     "Go to the next step",
		Description: "Moves forward when the current step is satisfied. `moved` is false otherwise.",
		Tags:        []string{"Onboarding"},
		Security:    auth.Optional,
	}, func(ctx context.Context, input *StepInput) (*StepOutput, error) {
		return h.move(ctx, input.DeviceID, (*onboarding.Session).Advance)
	})

	huma.Register(api, huma.Operation{
		OperationID: "back-onboarding",
		Method:      http.MethodPost,
		Path:        "/onboarding/back",
		Summary:     "Go to the previous step",
		Description: "Moves back one step. Has no effect on the first and the final step.",
		Tags:        []string{"Onboarding"},
		Security:    auth.Optional,
	}, func(ctx context.Context, input *StepInput) (*StepOutput, error) {
		return h.move(ctx, input.DeviceID, (*onboarding.Session).Back)
	})

	huma.Register(api, huma.Operation{
		OperationID: "finalize-onboarding",
		Method:      http.MethodPost,
		Path:        "/onboarding/finalize",
		Summary:     "Finish onboarding",
		Description: "Saves the draft as a completed profile, clears the device draft and moves to the final step.",
		Tags:        []string{"Onboarding"},
		Security:    auth.Required,
	}, func(ctx context.Context, input *FinalizeInput) (*StateOutput, error) {
		var st onboarding.State
		err := h.withSession(ctx, input.DeviceID, func(s *onboarding.Session) (err error) {
			st, err = s.Finalize(ctx)
			return err
		})
		if err != nil {
			return nil, mapError(ctx, err)
		}
		applog.LogInfo(ctx, "onboarding finalized")
		return &StateOutput{Body: toHTTPState(st)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reset-onboarding",
		Method:      http.MethodDelete,
		Path:        "/onboarding",
		Summary:     "Start over",
		Description: "Discards the device draft and step marker and returns to the first step.",
		Tags:        []string{"Onboarding"},
		Security:    auth.Optional,
	}, func(ctx context.Context, input *ResetInput) (*StateOutput, error) {
		var st onboarding.State
		err := h.withSession(ctx, input.DeviceID, func(s *onboarding.Session) (err error) {
			st, err = s.Reset(ctx)
			return err
		})
		if err != nil {
			return nil, mapError(ctx, err)
		}
		return &StateOutput{Body: toHTTPState(st)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "end-onboarding-session",
		Method:        http.MethodDelete,
		Path:          "/onboarding/session",
		Summary:       "End the onboarding session",
		Description:   "Drops the server-side session of the device on sign-out. The device draft is kept.",
		Tags:          []string{"Onboarding"},
		DefaultStatus: http.StatusNoContent,
		Security:      auth.Optional,
	}, func(_ context.Context, input *SignOutInput) (*struct{}, error) {
		mgr.SignOut(input.DeviceID)
		return nil, nil
	})
}

type handler struct {
	mgr      *onboarding.Manager
	uploader Uploader
}

// withSession runs fn on the caller's session. A session discarded by a
// concurrent identity change is reopened once.
func (h *handler) withSession(ctx context.Context, device string, fn func(*onboarding.Session) error) error {
	userID := auth.UserIDFromContext(ctx)
	var err error
	for range 2 {
		var s *onboarding.Session
		s, err = h.mgr.Open(ctx, device, userID)
		if err != nil {
			return err
		}
		err = fn(s)
		if !errors.Is(err, onboarding.ErrSessionClosed) {
			return err
		}
	}
	return err
}

func (h *handler) move(
	ctx context.Context,
	device string,
	step func(*onboarding.Session, context.Context) (onboarding.State, bool, error),
) (*StepOutput, error) {
	var (
		st    onboarding.State
		moved bool
	)
	err := h.withSession(ctx, device, func(s *onboarding.Session) (err error) {
		st, moved, err = step(s, ctx)
		return err
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	out := &StepOutput{}
	out.Body.Moved = moved
	out.Body.State = toHTTPState(st)
	return out, nil
}

func toPatch(input *DraftUpdateInput) (onboarding.Patch, error) {
	b := input.Body
	p := onboarding.Patch{
		FirstName:  b.FirstName,
		LastName:   b.LastName,
		ShowGender: b.ShowGender,
		Interests:  b.Interests,
	}
	if b.Birthdate != nil {
		t, err := time.Parse(timeutil.DateOnly, *b.Birthdate)
		if err != nil {
			return p, huma.Error422UnprocessableEntity("validation failed", &huma.ErrorDetail{
				Message:  "expected a date in YYYY-MM-DD form",
				Location: "body.birthdate",
				Value:    *b.Birthdate,
			})
		}
		p.Birthdate = &t
	}
	if b.Gender != nil {
		g := profile.Gender(*b.Gender)
		p.Gender = &g
	}
	return p, nil
}

func mapError(ctx context.Context, err error) error {
	var fe *onboarding.FieldError
	switch {
	case errors.As(err, &fe):
		return huma.Error422UnprocessableEntity("validation failed", &huma.ErrorDetail{
			Message:  fe.Err.Error(),
			Location: fieldLocation(fe.Field),
			Value:    fe.Value,
		})
	case errors.Is(err, photo.ErrUnsupportedImage):
		return huma.Error422UnprocessableEntity("photo could not be decoded")
	case errors.Is(err, onboarding.ErrNoIdentity):
		return huma.Error401Unauthorized("sign-in required")
	case errors.Is(err, onboarding.ErrIncomplete):
		return huma.Error422UnprocessableEntity("onboarding answers incomplete")
	case errors.Is(err, onboarding.ErrPhotosPending):
		return huma.Error422UnprocessableEntity("photos are still uploading")
	case errors.Is(err, onboarding.ErrSessionClosed):
		return huma.Error409Conflict("session was replaced, retry")
	case errors.Is(err, onboarding.ErrFinalize):
		return huma.Error503ServiceUnavailable("profile could not be saved, retry later")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return huma.Error503ServiceUnavailable("request cancelled")
	default:
		applog.LogError(ctx, "onboarding request failed", err, zap.String("error_type", fmt.Sprintf("%T", err)))
		return huma.Error500InternalServerError("internal error")
	}
}

func fieldLocation(field string) string {
	if field == "slot" {
		return "path.slot"
	}
	return "body." + field
}
