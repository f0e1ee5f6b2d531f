// Package chat issues credentials for the hosted chat service.
package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotConfigured is returned when the chat API key or secret is missing.
var ErrNotConfigured = errors.New("chat service not configured")

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 24 * time.Hour

// Claims is the payload of a chat user token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Credential is what a client needs to connect to the chat service.
type Credential struct {
	Token     string
	UserID    string
	APIKey    string
	ExpiresAt time.Time
}

// Issuer signs HS256 user tokens with the chat API secret.
type Issuer struct {
	apiKey string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. A zero ttl means DefaultTTL.
func NewIssuer(apiKey, secret string, ttl time.Duration) *Issuer {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Issuer{apiKey: apiKey, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Configured reports whether both the API key and secret are set.
func (i *Issuer) Configured() bool {
	return i != nil && i.apiKey != "" && len(i.secret) > 0
}

// Issue signs a token for userID.
func (i *Issuer) Issue(userID string) (*Credential, error) {
	if !i.Configured() {
		return nil, ErrNotConfigured
	}
	if userID == "" {
		return nil, errors.New("user id is required")
	}

	now := i.now().UTC().Truncate(time.Second)
	exp := now.Add(i.ttl)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign chat token: %w", err)
	}
	return &Credential{Token: signed, UserID: userID, APIKey: i.apiKey, ExpiresAt: exp}, nil
}

// Verify parses a token issued by i and returns its claims.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("verify chat token: %w", err)
	}
	return claims, nil
}
