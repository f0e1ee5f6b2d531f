package profile

import (
	"slices"
	"time"
)

// Group names used in logs, metrics and audit events.
const (
	GroupName      = "name"
	GroupBasics    = "basics"
	GroupPhotos    = "photos"
	GroupInterests = "interests"
)

// Group is an independently synchronised subset of profile fields. The set of
// implementations is closed: NameGroup, BasicsGroup, PhotosGroup and
// InterestsGroup.
type Group interface {
	Name() string
	apply(r *Record)
}

// NameGroup carries the given and family name.
type NameGroup struct {
	FirstName string
	LastName  string
}

func (NameGroup) Name() string { return GroupName }

func (g NameGroup) apply(r *Record) {
	r.FirstName = g.FirstName
	r.LastName = g.LastName
}

// BasicsGroup carries birth date, gender and gender visibility.
type BasicsGroup struct {
	BirthDate  time.Time
	Gender     Gender
	ShowGender bool
}

func (BasicsGroup) Name() string { return GroupBasics }

func (g BasicsGroup) apply(r *Record) {
	d := g.BirthDate.UTC()
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	r.BirthDate = &d
	r.Gender = g.Gender
	r.ShowGender = g.ShowGender
}

// PhotosGroup carries the ordered remote photo URLs.
type PhotosGroup struct {
	Photos []string
}

func (PhotosGroup) Name() string { return GroupPhotos }

func (g PhotosGroup) apply(r *Record) {
	r.Photos = slices.Clone(g.Photos)
	if r.Photos == nil {
		r.Photos = []string{}
	}
}

// InterestsGroup carries the selected interest tags.
type InterestsGroup struct {
	Interests []string
}

func (InterestsGroup) Name() string { return GroupInterests }

func (g InterestsGroup) apply(r *Record) {
	r.Interests = slices.Clone(g.Interests)
	if r.Interests == nil {
		r.Interests = []string{}
	}
}

// Groups splits rec into its four field groups. A record without a birth
// date yields no BasicsGroup.
func Groups(rec Record) []Group {
	groups := []Group{
		NameGroup{FirstName: rec.FirstName, LastName: rec.LastName},
	}
	if rec.BirthDate != nil {
		groups = append(groups, BasicsGroup{BirthDate: *rec.BirthDate, Gender: rec.Gender, ShowGender: rec.ShowGender})
	}
	return append(groups,
		PhotosGroup{Photos: rec.Photos},
		InterestsGroup{Interests: rec.Interests},
	)
}

// Apply returns a copy of rec with group written over it.
func Apply(rec Record, group Group) Record {
	rec.Photos = slices.Clone(rec.Photos)
	rec.Interests = slices.Clone(rec.Interests)
	group.apply(&rec)
	return rec
}

var (
	_ Group = NameGroup{}
	_ Group = BasicsGroup{}
	_ Group = PhotosGroup{}
	_ Group = InterestsGroup{}
)
