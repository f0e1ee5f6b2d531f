package profile

import (
	"testing"
	"time"
)

func TestGenderValid(t *testing.T) {
	for _, g := range Genders {
		if !g.Valid() {
			t.Errorf("expected %q valid", g)
		}
	}
	for _, g := range []Gender{"", "Woman", "robot"} {
		if g.Valid() {
			t.Errorf("expected %q invalid", g)
		}
	}
}

func TestGroupsSplitsRecord(t *testing.T) {
	groups := Groups(completeRecord())
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name())
	}
	want := []string{GroupName, GroupBasics, GroupPhotos, GroupInterests}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestGroupsOmitsBasicsWithoutBirthDate(t *testing.T) {
	rec := completeRecord()
	rec.BirthDate = nil
	for _, g := range Groups(rec) {
		if g.Name() == GroupBasics {
			t.Fatal("expected no basics group")
		}
	}
}

func TestBasicsGroupTruncatesToDate(t *testing.T) {
	rec := Apply(Record{}, BasicsGroup{
		BirthDate: time.Date(1990, time.June, 2, 23, 30, 0, 0, time.UTC),
		Gender:    GenderMan,
	})
	if !rec.BirthDate.Equal(birth(1990, time.June, 2)) {
		t.Fatalf("expected date only, got %v", rec.BirthDate)
	}
	if rec.ShowGender {
		t.Fatal("expected show gender copied from group")
	}
}

func TestApplyDoesNotAliasInput(t *testing.T) {
	src := []string{"Travel"}
	rec := Apply(Record{}, InterestsGroup{Interests: src})
	src[0] = "Changed"
	if rec.Interests[0] != "Travel" {
		t.Fatal("record aliases group slice")
	}
}

func TestEmptyCollectionsStayNonNil(t *testing.T) {
	rec := Apply(Record{}, PhotosGroup{})
	if rec.Photos == nil {
		t.Fatal("expected empty, non-nil photos")
	}
}

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Record)
		want   bool
	}{
		{"complete", func(*Record) {}, true},
		{"blank first name", func(r *Record) { r.FirstName = "  " }, false},
		{"no birth date", func(r *Record) { r.BirthDate = nil }, false},
		{"no gender", func(r *Record) { r.Gender = "" }, false},
		{"no photos", func(r *Record) { r.Photos = nil }, false},
		{"two interests", func(r *Record) { r.Interests = r.Interests[:2] }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := completeRecord()
			tt.mutate(&rec)
			if got := rec.IsComplete(3); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
