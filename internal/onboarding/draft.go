package onboarding

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/janisto/dating-onboarding/internal/platform/timeutil"
	"github.com/janisto/dating-onboarding/internal/service/profile"
)

// Validation errors. They are returned wrapped in a *FieldError.
var (
	ErrUnderage         = errors.New("below minimum age")
	ErrInvalidGender    = errors.New("unknown gender")
	ErrUnknownInterest  = errors.New("unknown interest")
	ErrTooManyInterests = errors.New("interest limit reached")
	ErrInvalidSlot      = errors.New("photo slot out of range")
	ErrEmptyPhoto       = errors.New("photo reference is empty")
	ErrNotOnDevice      = errors.New("photo reference must point at the device, upload remote photos instead")
)

// FieldError reports which draft field failed validation.
type FieldError struct {
	Field string
	Value any
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// DefaultBirthdate is the birth date of a fresh draft.
var DefaultBirthdate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Interests is the catalogue users pick from.
var Interests = []string{
	"Travel", "Fitness", "Music", "Reading", "Cooking", "Photography",
	"Hiking", "Movies", "Art", "Dancing", "Gaming", "Yoga",
	"Coffee", "Wine", "Foodie", "Outdoors", "Tech", "Fashion",
	"Sports", "Concerts", "Pets", "Meditation", "Cycling", "Running",
	"Baking", "Painting", "Writing", "Volunteering", "Languages", "Podcasts",
	"Brunch", "Karaoke", "Festivals", "Beach", "Camping", "Comedy",
}

// Rules holds the configurable bounds of a draft.
type Rules struct {
	MinInterests int
	MaxInterests int
	MaxPhotos    int
	MinAge       int
}

// DefaultRules returns the production bounds.
func DefaultRules() Rules {
	return Rules{MinInterests: 3, MaxInterests: 10, MaxPhotos: 6, MinAge: 18}
}

// OldEnough is the single age gate. It is applied when a birth date is
// entered and again before a profile is finalized.
func (r Rules) OldEnough(birthdate, now time.Time) bool {
	return !birthdate.After(now) && timeutil.FullYears(birthdate, now) >= r.MinAge
}

// Draft is the in-progress onboarding answer set. The JSON form is the
// persisted snapshot.
type Draft struct {
	FirstName  string         `json:"firstName"`
	LastName   string         `json:"lastName"`
	Birthdate  timeutil.Time  `json:"birthdate"`
	Gender     profile.Gender `json:"gender"`
	ShowGender bool           `json:"showGender"`
	Photos     []string       `json:"photos"`
	Interests  []string       `json:"interests"`
}

// NewDraft returns an empty draft with the default birth date.
func NewDraft() Draft {
	return Draft{
		Birthdate:  timeutil.NewTime(DefaultBirthdate),
		ShowGender: true,
		Photos:     []string{},
		Interests:  []string{},
	}
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	d.Photos = slices.Clone(d.Photos)
	d.Interests = slices.Clone(d.Interests)
	return d
}

// IsRemote reports whether a photo reference is an uploaded URL rather than a
// device-local reference.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}

// PhotosUploaded reports whether every photo slot holds a remote URL.
func (d Draft) PhotosUploaded() bool {
	for _, p := range d.Photos {
		if !IsRemote(p) {
			return false
		}
	}
	return true
}

// Record converts the draft into a profile record for userID.
func (d Draft) Record(userID string) profile.Record {
	b := timeutil.TruncateDay(d.Birthdate.Time)
	return profile.Record{
		UserID:     userID,
		FirstName:  strings.TrimSpace(d.FirstName),
		LastName:   strings.TrimSpace(d.LastName),
		BirthDate:  &b,
		Gender:     d.Gender,
		ShowGender: d.ShowGender,
		Photos:     slices.Clone(d.Photos),
		Interests:  slices.Clone(d.Interests),
	}
}

// Patch is a partial draft update. Nil fields are left unchanged.
type Patch struct {
	FirstName  *string
	LastName   *string
	Birthdate  *time.Time
	Gender     *profile.Gender
	ShowGender *bool
	Interests  []string
}

// apply validates p against d and returns the patched draft with the set of
// fields whose value changed. On error d is returned unmodified.
func (p Patch) apply(d Draft, rules Rules, now time.Time) (Draft, FieldSet, error) {
	if p.Birthdate != nil && !rules.OldEnough(*p.Birthdate, now) {
		return d, 0, &FieldError{Field: "birthdate", Value: p.Birthdate.Format(timeutil.DateOnly), Err: ErrUnderage}
	}
	if p.Gender != nil && *p.Gender != "" && !p.Gender.Valid() {
		return d, 0, &FieldError{Field: "gender", Value: string(*p.Gender), Err: ErrInvalidGender}
	}
	var interests []string
	if p.Interests != nil {
		interests = make([]string, 0, len(p.Interests))
		for _, tag := range p.Interests {
			if !slices.Contains(Interests, tag) {
				return d, 0, &FieldError{Field: "interests", Value: tag, Err: ErrUnknownInterest}
			}
			if !slices.Contains(interests, tag) {
				interests = append(interests, tag)
			}
		}
		if len(interests) > rules.MaxInterests {
			return d, 0, &FieldError{Field: "interests", Value: len(interests), Err: ErrTooManyInterests}
		}
	}

	next := d.Clone()
	var changed FieldSet
	if p.FirstName != nil && *p.FirstName != next.FirstName {
		next.FirstName = *p.FirstName
		changed |= FieldFirstName
	}
	if p.LastName != nil && *p.LastName != next.LastName {
		next.LastName = *p.LastName
		changed |= FieldLastName
	}
	if p.Birthdate != nil && !p.Birthdate.Equal(next.Birthdate.Time) {
		next.Birthdate = timeutil.NewTime(p.Birthdate.UTC())
		changed |= FieldBirthdate
	}
	if p.Gender != nil && *p.Gender != next.Gender {
		next.Gender = *p.Gender
		changed |= FieldGender
	}
	if p.ShowGender != nil && *p.ShowGender != next.ShowGender {
		next.ShowGender = *p.ShowGender
		changed |= FieldShowGender
	}
	if interests != nil && !slices.Equal(interests, next.Interests) {
		next.Interests = interests
		changed |= FieldInterests
	}
	return next, changed, nil
}

// toggleInterest selects or deselects tag. Selecting beyond the maximum is
// rejected and leaves d unchanged.
func (d *Draft) toggleInterest(tag string, rules Rules) (bool, error) {
	if !slices.Contains(Interests, tag) {
		return false, &FieldError{Field: "interest", Value: tag, Err: ErrUnknownInterest}
	}
	if i := slices.Index(d.Interests, tag); i >= 0 {
		d.Interests = slices.Delete(slices.Clone(d.Interests), i, i+1)
		return false, nil
	}
	if len(d.Interests) >= rules.MaxInterests {
		return false, &FieldError{Field: "interest", Value: tag, Err: ErrTooManyInterests}
	}
	d.Interests = append(slices.Clone(d.Interests), tag)
	return true, nil
}

// checkPhotoSlot validates a slot for setting. slot == len(Photos) appends.
func (d *Draft) checkPhotoSlot(slot int, rules Rules) error {
	if slot < 0 || slot > len(d.Photos) || slot >= rules.MaxPhotos {
		return &FieldError{Field: "slot", Value: slot, Err: ErrInvalidSlot}
	}
	return nil
}

// setPhoto places ref into slot, replacing whatever the slot held.
func (d *Draft) setPhoto(slot int, ref string, rules Rules) error {
	if strings.TrimSpace(ref) == "" {
		return &FieldError{Field: "uri", Value: ref, Err: ErrEmptyPhoto}
	}
	if err := d.checkPhotoSlot(slot, rules); err != nil {
		return err
	}
	photos := slices.Clone(d.Photos)
	if slot == len(photos) {
		photos = append(photos, ref)
	} else {
		photos[slot] = ref
	}
	d.Photos = photos
	return nil
}

// removePhoto deletes slot and shifts later photos down.
func (d *Draft) removePhoto(slot int) error {
	if slot < 0 || slot >= len(d.Photos) {
		return &FieldError{Field: "slot", Value: slot, Err: ErrInvalidSlot}
	}
	d.Photos = slices.Delete(slices.Clone(d.Photos), slot, slot+1)
	return nil
}

// normalize repairs a snapshot read from storage.
func (d *Draft) normalize(rules Rules) {
	if d.Photos == nil {
		d.Photos = []string{}
	}
	if d.Interests == nil {
		d.Interests = []string{}
	}
	if d.Birthdate.IsZero() {
		d.Birthdate = timeutil.NewTime(DefaultBirthdate)
	}
	if d.Gender != "" && !d.Gender.Valid() {
		d.Gender = ""
	}
	if rules.MaxInterests > 0 && len(d.Interests) > rules.MaxInterests {
		d.Interests = d.Interests[:rules.MaxInterests]
	}
	if rules.MaxPhotos > 0 && len(d.Photos) > rules.MaxPhotos {
		d.Photos = d.Photos[:rules.MaxPhotos]
	}
}
