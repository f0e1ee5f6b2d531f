package logging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]zap.Field {
	fields := map[string]zap.Field{}
	for _, f := range entry.Context {
		fields[f.Key] = f
	}
	return fields
}

func TestTraceIDFromContext(t *testing.T) {
	if got, ok := TraceIDFromContext(context.Background()); ok {
		t.Fatalf("expected no trace ID, got %q", got)
	}
	ctx := withTraceID(context.Background(), "trace-abc")
	if got, ok := TraceIDFromContext(ctx); !ok || got != "trace-abc" {
		t.Fatalf("expected trace-abc, got %q", got)
	}
	if same := withTraceID(ctx, ""); same != ctx {
		t.Fatal("empty trace ID should return the original context")
	}
}

func TestLogErrorAppendsErrorField(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	LogError(ctx, "sync failed", errors.New("boom"), zap.String("group", "photos"))

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := fieldMap(entries[0])
	if f, ok := fields["group"]; !ok || f.String != "photos" {
		t.Fatalf("expected group field, got %+v", fields)
	}
	if f, ok := fields["error"]; !ok || f.Type != zapcore.ErrorType {
		t.Fatalf("expected error field, got %+v", fields)
	}
}

func TestLogErrorNilError(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	LogError(ctx, "no error attached", nil)

	if _, ok := fieldMap(recorded.All()[0])["error"]; ok {
		t.Fatal("did not expect error field for nil error")
	}
}

func TestLoggerFromContextFallsBack(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	if LoggerFromContext(nil) == nil {
		t.Fatal("expected global logger for nil context")
	}
	ctx := context.WithValue(context.Background(), loggerKey{}, (*zap.Logger)(nil))
	if LoggerFromContext(ctx) != Logger() {
		t.Fatal("expected global logger when stored logger is nil")
	}
}

func TestLogAuditEvent(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	LogAuditEvent(ctx, "finalize", "user-1", "profile", "user-1", AuditFailure,
		map[string]any{"error": "unavailable"})
	LogAuditEvent(ctx, "sync.name", "user-1", "profile", "user-1", AuditSuccess, nil)

	entries := recorded.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	first := fieldMap(entries[0])
	if first["audit.action"].String != "finalize" || first["audit.result"].String != AuditFailure {
		t.Fatalf("unexpected audit fields: %+v", first)
	}
	if _, ok := first["audit.details"]; !ok {
		t.Fatal("expected audit.details on failure event")
	}
	if _, ok := fieldMap(entries[1])["audit.details"]; ok {
		t.Fatal("did not expect audit.details without details")
	}
}

func TestRequestLoggerInjectsRequestScopedLogger(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "")
	var gotTrace string
	handler := chimiddleware.RequestID(RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTrace, _ = TraceIDFromContext(r.Context())
		if LoggerFromContext(r.Context()) == nil {
			t.Error("expected logger in context")
		}
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/onboarding", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "req-123")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if gotTrace != "req-123" {
		t.Fatal("expected request ID to be used as trace ID")
	}
}

func TestTraceFieldsParsesTraceparent(t *testing.T) {
	header := "00-ab42124a3c573678d4d8b21ba52df3bf-d21f7bc17caa5aba-01"
	fields := traceFields(header, "demo-project")
	if len(fields) != 3 {
		t.Fatalf("expected 3 trace fields, got %d", len(fields))
	}
	if fields[0].String != "projects/demo-project/traces/ab42124a3c573678d4d8b21ba52df3bf" {
		t.Fatalf("unexpected trace resource: %s", fields[0].String)
	}
	if traceFields("garbage", "demo-project") != nil {
		t.Fatal("expected nil fields for malformed header")
	}
	if traceResource(header, "") != "" {
		t.Fatal("expected empty resource without project")
	}
}
