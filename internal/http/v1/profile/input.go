package profile

// ProfileGetInput for GET /profile (no body needed)
type ProfileGetInput struct{}
