package onboarding

import (
	"context"
	"strings"

	"go.uber.org/zap"

	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
	"github.com/janisto/dating-onboarding/internal/platform/metrics"
	"github.com/janisto/dating-onboarding/internal/service/profile"
)

// Field identifies one draft field.
type Field uint8

const (
	FieldFirstName Field = 1 << iota
	FieldLastName
	FieldBirthdate
	FieldGender
	FieldShowGender
	FieldPhotos
	FieldInterests
)

// FieldSet is a set of Fields.
type FieldSet = Field

const (
	nameFields   = FieldFirstName | FieldLastName
	basicsFields = FieldBirthdate | FieldGender | FieldShowGender
)

// Has reports whether s contains any of f.
func (s FieldSet) Has(f Field) bool { return s&f != 0 }

// groupsFor returns one field group per group touched by changed, in
// sequence order.
func groupsFor(changed FieldSet, d Draft) []profile.Group {
	var groups []profile.Group
	if changed.Has(nameFields) {
		groups = append(groups, profile.NameGroup{
			FirstName: strings.TrimSpace(d.FirstName),
			LastName:  strings.TrimSpace(d.LastName),
		})
	}
	if changed.Has(basicsFields) {
		groups = append(groups, profile.BasicsGroup{
			BirthDate:  d.Birthdate.Time,
			Gender:     d.Gender,
			ShowGender: d.ShowGender,
		})
	}
	if changed.Has(FieldPhotos) {
		groups = append(groups, profile.PhotosGroup{Photos: d.Photos})
	}
	if changed.Has(FieldInterests) {
		groups = append(groups, profile.InterestsGroup{Interests: d.Interests})
	}
	return groups
}

// populated returns the fields of d that carry user input.
func populated(d Draft) FieldSet {
	var s FieldSet
	if strings.TrimSpace(d.FirstName) != "" || strings.TrimSpace(d.LastName) != "" {
		s |= nameFields
	}
	if d.Gender != "" {
		s |= basicsFields
	}
	if len(d.Photos) > 0 {
		s |= FieldPhotos
	}
	if len(d.Interests) > 0 {
		s |= FieldInterests
	}
	return s
}

// Syncer pushes draft field groups to the remote profile.
type Syncer struct {
	profiles profile.Service
}

// NewSyncer creates a Syncer writing to profiles.
func NewSyncer(profiles profile.Service) *Syncer {
	return &Syncer{profiles: profiles}
}

// SyncFields upserts every group touched by changed, one write per group.
// The current values of d are always re-sent, so a group that failed is
// repaired by the next change to it. Failures are logged and dropped.
// Photos are held back until every slot holds an uploaded URL.
func (s *Syncer) SyncFields(ctx context.Context, userID string, changed FieldSet, d Draft) {
	if userID == "" || changed == 0 {
		return
	}
	for _, g := range groupsFor(changed, d) {
		if g.Name() == profile.GroupPhotos && !d.PhotosUploaded() {
			metrics.RecordGroupSync(g.Name(), metrics.ResultSkipped)
			applog.LogInfo(ctx, "photo sync deferred until uploads finish")
			continue
		}
		if _, err := s.profiles.UpsertGroup(ctx, userID, g); err != nil {
			metrics.RecordGroupSync(g.Name(), metrics.ResultFailure)
			applog.LogWarn(ctx, "profile group sync failed",
				zap.String("group", g.Name()), zap.Error(err))
			continue
		}
		metrics.RecordGroupSync(g.Name(), metrics.ResultSuccess)
	}
}
