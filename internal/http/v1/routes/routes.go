package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/dating-onboarding/internal/http/v1/chat"
	"github.com/janisto/dating-onboarding/internal/http/v1/onboarding"
	"github.com/janisto/dating-onboarding/internal/http/v1/profile"
	onboardingsvc "github.com/janisto/dating-onboarding/internal/onboarding"
	"github.com/janisto/dating-onboarding/internal/platform/auth"
	"github.com/janisto/dating-onboarding/internal/platform/ratelimit"
	chatsvc "github.com/janisto/dating-onboarding/internal/service/chat"
	profilesvc "github.com/janisto/dating-onboarding/internal/service/profile"
)

// Deps holds what the v1 handlers need.
type Deps struct {
	Verifier auth.Verifier
	Limiter  ratelimit.Limiter
	Manager  *onboardingsvc.Manager
	Uploader onboarding.Uploader
	Profiles profilesvc.Service
	Issuer   *chatsvc.Issuer
}

// Register wires all HTTP routes into the provided API router.
func Register(api huma.API, deps Deps) {
	// Rate limiting runs before auth so rejected tokens are counted too.
	api.UseMiddleware(ratelimit.NewMiddleware(api, deps.Limiter))
	api.UseMiddleware(auth.NewAuthMiddleware(api, deps.Verifier))

	onboarding.Register(api, deps.Manager, deps.Uploader)
	profile.Register(api, deps.Profiles)
	chat.Register(api, deps.Issuer)
}
