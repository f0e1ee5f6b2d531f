package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns a middleware that applies permissive defaults suitable for the
// mobile client and its web preview. Device and auth headers are allowed,
// rate-limit and request-id headers are exposed.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Device-Id",
			"X-Request-Id",
		},
		ExposedHeaders: []string{"Location", "Retry-After", "X-Request-Id"},
		MaxAge:         300,
	})
}
