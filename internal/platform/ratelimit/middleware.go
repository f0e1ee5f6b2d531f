package ratelimit

import (
	"net"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
	"github.com/janisto/dating-onboarding/internal/platform/metrics"
)

// MetadataKey marks an operation as rate limited:
//
//	Metadata: map[string]any{ratelimit.MetadataKey: true}
const MetadataKey = "rateLimited"

// NewMiddleware creates Huma middleware that limits marked operations per
// client IP. Only requests that carry an Authorization header are counted.
// Limiter errors let the request through.
func NewMiddleware(api huma.API, limiter Limiter) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if on, _ := ctx.Operation().Metadata[MetadataKey].(bool); !on || ctx.Header("Authorization") == "" {
			next(ctx)
			return
		}

		ip := ClientIP(ctx.RemoteAddr())
		d, err := limiter.Allow(ctx.Context(), ip)
		if err != nil {
			applog.LogWarn(ctx.Context(), "rate limiter unavailable", zap.Error(err))
			next(ctx)
			return
		}
		if !d.Allowed {
			metrics.RecordRateLimited()
			applog.LogWarn(ctx.Context(), "rate limit exceeded",
				zap.String("operation", ctx.Operation().OperationID))
			ctx.SetHeader("Retry-After", strconv.Itoa(d.RetryAfterSeconds()))
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}
		next(ctx)
	}
}

// ClientIP strips the port from a RemoteAddr value.
func ClientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	if remoteAddr == "" {
		return "unknown"
	}
	return remoteAddr
}
