package middleware

import (
	"net/http"
	"strings"
)

// securityHeaders are the response headers applied to every API response.
// Draft state and profile data are per-user, so nothing is cacheable or framable.
var securityHeaders = [...][2]string{
	{"Cache-Control", "no-store"},
	{"Content-Security-Policy", "frame-ancestors 'none'"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
	{"Permissions-Policy", "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
}

// Security sets securityHeaders on responses whose path does not start with
// one of skipPrefixes (the API docs page needs its own policy).
func Security(skipPrefixes ...string) func(http.Handler) http.Handler {
	skipped := func(path string) bool {
		for _, p := range skipPrefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !skipped(r.URL.Path) {
				h := w.Header()
				for _, kv := range securityHeaders {
					h.Set(kv[0], kv[1])
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
