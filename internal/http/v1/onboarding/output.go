package onboarding

// StateOutput returns the session state.
type StateOutput struct {
	Body State
}

// StepOutput for POST /onboarding/advance and /onboarding/back
type StepOutput struct {
	Body struct {
		Moved bool  `json:"moved" doc:"Whether the step changed" example:"true"`
		State State `json:"state"`
	}
}

// InterestToggleOutput for POST /onboarding/interests/toggle
type InterestToggleOutput struct {
	Body struct {
		Selected bool  `json:"selected" doc:"Whether the interest is now selected" example:"true"`
		State    State `json:"state"`
	}
}

// CatalogueOutput for GET /onboarding/interests
type CatalogueOutput struct {
	Body Catalogue
}
