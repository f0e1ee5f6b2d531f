package onboarding

import (
	"github.com/janisto/dating-onboarding/internal/onboarding"
	"github.com/janisto/dating-onboarding/internal/platform/timeutil"
)

// Draft is the in-progress answer set.
type Draft struct {
	FirstName  string        `json:"firstName"  doc:"Given name"             example:"Ada"`
	LastName   string        `json:"lastName"   doc:"Family name"            example:"Lovelace"`
	Birthdate  timeutil.Time `json:"birthdate"  doc:"Birth date"             example:"1995-03-14T00:00:00.000Z"`
	Gender     string        `json:"gender"     doc:"Gender identity"        example:"woman"`
	ShowGender bool          `json:"showGender" doc:"Show gender on profile" example:"true"`
	Photos     []string      `json:"photos"     doc:"Photo references in slot order"`
	Interests  []string      `json:"interests"  doc:"Selected interests"`
}

// State describes where a device is in onboarding.
type State struct {
	Step          string `json:"step"          enum:"welcome,name,basics,photos,auth,interests,review,done" doc:"Current step"          example:"name"`
	Screen        string `json:"screen"        doc:"Screen that renders the step"                                        example:"NameBirthday"`
	CanAdvance    bool   `json:"canAdvance"    doc:"Whether the current step is satisfied"                               example:"false"`
	Authenticated bool   `json:"authenticated" doc:"Whether a signed-in user is bound to the session"                   example:"false"`
	Draft         Draft  `json:"draft"`
}

// Catalogue lists selectable values and bounds.
type Catalogue struct {
	Interests    []string `json:"interests"    doc:"Selectable interests"`
	Genders      []string `json:"genders"      doc:"Selectable gender identities"`
	MinInterests int      `json:"minInterests" doc:"Interests needed to continue" example:"3"`
	MaxInterests int      `json:"maxInterests" doc:"Most interests selectable"    example:"10"`
	MaxPhotos    int      `json:"maxPhotos"    doc:"Most photos per profile"      example:"6"`
	MinAge       int      `json:"minAge"       doc:"Minimum age in years"         example:"18"`
}

func toHTTPState(st onboarding.State) State {
	d := st.Draft
	return State{
		Step:          string(st.Step),
		Screen:        st.Step.Screen(),
		CanAdvance:    st.CanAdvance,
		Authenticated: st.UserID != "",
		Draft: Draft{
			FirstName:  d.FirstName,
			LastName:   d.LastName,
			Birthdate:  d.Birthdate,
			Gender:     string(d.Gender),
			ShowGender: d.ShowGender,
			Photos:     d.Photos,
			Interests:  d.Interests,
		},
	}
}
