package logging

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"go.uber.org/zap"
)

const traceparentHeader = "traceparent"

// W3C Trace Context: {version}-{trace-id}-{parent-id}-{trace-flags},
// e.g. 00-ab42124a3c573678d4d8b21ba52df3bf-d21f7bc17caa5aba-01
var traceHeaderRe = regexp.MustCompile(`^([0-9a-fA-F]{2})-([0-9a-fA-F]{32})-([0-9a-fA-F]{16})-([0-9a-fA-F]{2})$`)

var (
	projectIDOnce   sync.Once
	cachedProjectID string
)

// cloudTrace is a traceparent header resolved against a Cloud project.
type cloudTrace struct {
	resource string
	spanID   string
	sampled  bool
}

func parseTraceparent(header, projectID string) (cloudTrace, bool) {
	if projectID == "" {
		return cloudTrace{}, false
	}
	m := traceHeaderRe.FindStringSubmatch(header)
	if m == nil {
		return cloudTrace{}, false
	}
	return cloudTrace{
		resource: fmt.Sprintf("projects/%s/traces/%s", projectID, m[2]),
		spanID:   m[3],
		sampled:  m[4] == "01",
	}, true
}

func loggerWithTrace(base *zap.Logger, header, projectID, requestID string) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	fields := traceFields(header, projectID)
	if requestID != "" {
		fields = append(fields, zap.String("requestId", requestID))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// traceFields returns the Cloud Logging fields that tie an entry to its trace.
func traceFields(header, projectID string) []zap.Field {
	tc, ok := parseTraceparent(header, projectID)
	if !ok {
		return nil
	}
	return []zap.Field{
		zap.String("logging.googleapis.com/trace", tc.resource),
		zap.String("logging.googleapis.com/spanId", tc.spanID),
		zap.Bool("logging.googleapis.com/trace_sampled", tc.sampled),
	}
}

func traceResource(header, projectID string) string {
	tc, _ := parseTraceparent(header, projectID)
	return tc.resource
}

// resolveProjectID reads the project once, in the same precedence order the
// service configuration uses.
func resolveProjectID() string {
	projectIDOnce.Do(func() {
		for _, key := range []string{
			"FIREBASE_PROJECT_ID",
			"GOOGLE_CLOUD_PROJECT",
			"GCP_PROJECT",
			"GCLOUD_PROJECT",
			"PROJECT_ID",
		} {
			if v := os.Getenv(key); v != "" {
				cachedProjectID = v
				return
			}
		}
	})
	return cachedProjectID
}
