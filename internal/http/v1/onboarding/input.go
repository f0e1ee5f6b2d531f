package onboarding

import (
	"github.com/danielgtaylor/huma/v2"
)

// DeviceInput identifies the calling device.
type DeviceInput struct {
	DeviceID string `header:"X-Device-Id" required:"true" minLength:"1" maxLength:"128" pattern:"^[A-Za-z0-9._:-]+$" doc:"Stable id of the client installation" example:"5f0c7a2e-device"`
}

// StateGetInput for GET /onboarding
type StateGetInput struct {
	DeviceInput
}

// DraftUpdateInput for PATCH /onboarding/draft
type DraftUpdateInput struct {
	DeviceInput
	Body struct {
		FirstName  *string  `json:"firstName,omitempty"  maxLength:"100"                         doc:"Given name"         example:"Ada"`
		LastName   *string  `json:"lastName,omitempty"   maxLength:"100"                         doc:"Family name"        example:"Lovelace"`
		Birthdate  *string  `json:"birthdate,omitempty"  format:"date"                           doc:"Birth date"         example:"1995-03-14"`
		Gender     *string  `json:"gender,omitempty"     enum:"woman,man,nonbinary,other"        doc:"Gender identity"    example:"woman"`
		ShowGender *bool    `json:"showGender,omitempty"                                         doc:"Show gender on profile" example:"true"`
		Interests  []string `json:"interests,omitempty"  maxItems:"50"                           doc:"Replace the selected interests"`
	}
}

// InterestToggleInput for POST /onboarding/interests/toggle
type InterestToggleInput struct {
	DeviceInput
	Body struct {
		Interest string `json:"interest" required:"true" minLength:"1" doc:"Interest from the catalogue" example:"Travel"`
	}
}

// InterestsGetInput for GET /onboarding/interests (no parameters)
type InterestsGetInput struct{}

// PhotoForm is the multipart body of a photo upload.
type PhotoForm struct {
	Photo huma.FormFile `form:"photo" contentType:"image/jpeg,image/png,image/webp" required:"true" doc:"Photo to upload"`
}

// PhotoUploadInput for PUT /onboarding/photos/{slot}
type PhotoUploadInput struct {
	DeviceInput
	Slot    int `path:"slot" minimum:"0" doc:"Photo slot; the next free slot appends"`
	RawBody huma.MultipartFormFiles[PhotoForm]
}

// PhotoReferenceInput for PUT /onboarding/photos/{slot}/reference
type PhotoReferenceInput struct {
	DeviceInput
	Slot int `path:"slot" minimum:"0" doc:"Photo slot; the next free slot appends"`
	Body struct {
		URI string `json:"uri" required:"true" minLength:"1" maxLength:"2048" doc:"Device-local photo reference" example:"file:///DCIM/IMG_0042.jpg"`
	}
}

// PhotoDeleteInput for DELETE /onboarding/photos/{slot}
type PhotoDeleteInput struct {
	DeviceInput
	Slot int `path:"slot" minimum:"0" doc:"Photo slot"`
}

// StepInput for POST /onboarding/advance and /onboarding/back
type StepInput struct {
	DeviceInput
}

// FinalizeInput for POST /onboarding/finalize
type FinalizeInput struct {
	DeviceInput
}

// ResetInput for DELETE /onboarding
type ResetInput struct {
	DeviceInput
}

// SignOutInput for DELETE /onboarding/session
type SignOutInput struct {
	DeviceInput
}
