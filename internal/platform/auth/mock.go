package auth

import (
	"context"
)

// MockVerifier provides fake token verification for tests.
// When Users is set, tokens are looked up in it and unknown tokens are invalid;
// otherwise every token resolves to User.
type MockVerifier struct {
	User  *FirebaseUser
	Users map[string]*FirebaseUser
	Error error
}

// Verify returns the configured user or error.
func (m *MockVerifier) Verify(_ context.Context, token string) (*FirebaseUser, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	if m.Users != nil {
		user, ok := m.Users[token]
		if !ok {
			return nil, ErrInvalidToken
		}
		return user, nil
	}
	return m.User, nil
}

// TestUser returns a standard test user.
func TestUser() *FirebaseUser {
	return &FirebaseUser{
		UID:           "test-user-123",
		Email:         "test@example.com",
		EmailVerified: true,
	}
}

// Compile-time interface check
var _ Verifier = (*MockVerifier)(nil)
