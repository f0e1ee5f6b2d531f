package health

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"

	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
)

// Status values.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// CheckTimeout bounds each dependency check.
const CheckTimeout = 2 * time.Second

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// Response is the payload for the health endpoint.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler is a plain HTTP handler that reports healthy without probing
// dependencies.
func Handler(w http.ResponseWriter, r *http.Request) {
	NewHandler(nil).ServeHTTP(w, r)
}

// NewHandler returns a health handler that runs checks in name order. Any
// failing check turns the response into 503 degraded.
func NewHandler(checks map[string]Check) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	slices.Sort(names)

	return func(w http.ResponseWriter, r *http.Request) {
		resp := Response{Status: StatusHealthy}
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), CheckTimeout)
			err := checks[name](ctx)
			cancel()
			if err != nil {
				applog.LogWarn(r.Context(), "health check failed", zap.String("dependency", name), zap.Error(err))
				resp.Status = StatusDegraded
				resp.Checks[name] = "unavailable"
				continue
			}
			resp.Checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != StatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
