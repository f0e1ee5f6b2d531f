package auth

import (
	"errors"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
)

func TestExtractBearerTokenValid(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{
			name:   "lowercase bearer",
			header: "bearer token123",
			want:   "token123",
		},
		{
			name:   "uppercase Bearer",
			header: "Bearer token123",
			want:   "token123",
		},
		{
			name:   "mixed case BEARER",
			header: "BEARER token123",
			want:   "token123",
		},
		{
			name:   "token with dots (JWT-like)",
			header: "Bearer eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig",
			want:   "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractBearerToken(tt.header)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractBearerTokenEmpty(t *testing.T) {
	_, err := ExtractBearerToken("")
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestExtractBearerTokenInvalid(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{
			name:   "missing scheme",
			header: "token123",
		},
		{
			name:   "wrong scheme",
			header: "Basic token123",
		},
		{
			name:   "basic auth format",
			header: "Basic dXNlcjpwYXNz",
		},
		{
			name:   "bearer without token",
			header: "Bearer",
		},
		{
			name:   "only spaces",
			header: "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractBearerToken(tt.header)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestUserFromToken(t *testing.T) {
	token := &fbauth.Token{
		UID: "uid-1",
		Claims: map[string]any{
			"email":          "ada@example.com",
			"email_verified": true,
		},
	}
	token.Firebase.SignInProvider = "password"

	user := userFromToken(token)
	if user.UID != "uid-1" || user.Email != "ada@example.com" || !user.EmailVerified {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.Anonymous() {
		t.Fatal("password user reported as anonymous")
	}
}

func TestUserFromTokenGuest(t *testing.T) {
	token := &fbauth.Token{UID: "guest-1", Claims: map[string]any{}}
	token.Firebase.SignInProvider = ProviderAnonymous

	user := userFromToken(token)
	if !user.Anonymous() {
		t.Fatal("expected guest account")
	}
	if user.Email != "" || user.EmailVerified {
		t.Fatalf("guest should carry no email, got %+v", user)
	}
}
