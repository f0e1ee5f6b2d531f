package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
)

// userContextKey is the context key for the authenticated user.
type userContextKey struct{}

// Security requirement sets used by operations.
var (
	// Required demands a valid bearer token.
	Required = []map[string][]string{{"bearerAuth": {}}}

	// Optional admits anonymous callers; a token, when sent, must be valid.
	// The empty requirement is the OpenAPI spelling of "no auth needed".
	Optional = []map[string][]string{{"bearerAuth": {}}, {}}
)

// NewAuthMiddleware creates Huma middleware for Firebase authentication.
// It checks the operation's Security requirements and validates tokens.
// Operations whose requirements include an empty entry accept anonymous
// callers; a present but invalid token is still rejected.
func NewAuthMiddleware(api huma.API, verifier Verifier) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		security := ctx.Operation().Security
		if len(security) == 0 {
			next(ctx)
			return
		}

		header := ctx.Header("Authorization")
		if header == "" && allowsAnonymous(security) {
			next(ctx)
			return
		}

		token, err := ExtractBearerToken(header)
		if err != nil {
			applog.LogWarn(ctx.Context(), "auth failed: missing or invalid header",
				zap.String("reason", "no_token"))
			ctx.SetHeader("WWW-Authenticate", "Bearer")
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}

		user, err := verifier.Verify(ctx.Context(), token)
		if err != nil {
			reason := categorizeAuthError(err)
			applog.LogWarn(ctx.Context(), "auth failed: token verification failed",
				zap.String("reason", reason))

			if errors.Is(err, ErrCertificateFetch) {
				ctx.SetHeader("Retry-After", "30")
				_ = huma.WriteErr(api, ctx, http.StatusServiceUnavailable,
					"authentication service temporarily unavailable")
				return
			}
			ctx.SetHeader("WWW-Authenticate", "Bearer")
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx = huma.WithValue(ctx, userContextKey{}, user)
		next(ctx)
	}
}

func allowsAnonymous(security []map[string][]string) bool {
	for _, req := range security {
		if len(req) == 0 {
			return true
		}
	}
	return false
}

// categorizeAuthError returns a safe category string for logging.
func categorizeAuthError(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, ErrTokenRevoked):
		return "token_revoked"
	case errors.Is(err, ErrUserDisabled):
		return "user_disabled"
	case errors.Is(err, ErrCertificateFetch):
		return "certificate_fetch_failed"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "unknown"
	}
}

// UserFromContext retrieves the authenticated user from context.
// Returns nil if no user is authenticated.
func UserFromContext(ctx context.Context) *FirebaseUser {
	user, _ := ctx.Value(userContextKey{}).(*FirebaseUser)
	return user
}

// UserIDFromContext returns the UID of the account behind the request, or ""
// when the caller has no token or signed in as a Firebase guest.
func UserIDFromContext(ctx context.Context) string {
	if user := UserFromContext(ctx); user != nil && !user.Anonymous() {
		return user.UID
	}
	return ""
}

// ContextWithUser attaches user to ctx. Used by non-Huma entry points that
// verify tokens themselves.
func ContextWithUser(ctx context.Context, user *FirebaseUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}
