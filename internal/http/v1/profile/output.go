package profile

// ProfileGetOutput for GET /profile
type ProfileGetOutput struct {
	Body Profile
}
