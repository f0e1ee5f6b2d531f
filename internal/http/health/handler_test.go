package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	Handler(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.Code)
	}

	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	var h Response
	if err := json.Unmarshal(resp.Body.Bytes(), &h); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if h.Status != StatusHealthy {
		t.Fatalf("expected status 'healthy', got %s", h.Status)
	}
	if h.Checks != nil {
		t.Fatalf("expected no checks, got %v", h.Checks)
	}
}

func TestHealthHandlerChecks(t *testing.T) {
	handler := NewHandler(map[string]Check{
		"redis":    func(context.Context) error { return nil },
		"postgres": func(context.Context) error { return nil },
	})

	resp := httptest.NewRecorder()
	handler(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.Code)
	}
	var h Response
	if err := json.Unmarshal(resp.Body.Bytes(), &h); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if h.Checks["redis"] != "ok" || h.Checks["postgres"] != "ok" {
		t.Fatalf("unexpected checks %v", h.Checks)
	}
}

func TestHealthHandlerDegraded(t *testing.T) {
	handler := NewHandler(map[string]Check{
		"redis": func(context.Context) error { return errors.New("connection refused") },
		"nats":  func(context.Context) error { return nil },
	})

	resp := httptest.NewRecorder()
	handler(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	var h Response
	if err := json.Unmarshal(resp.Body.Bytes(), &h); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if h.Status != StatusDegraded || h.Checks["redis"] != "unavailable" || h.Checks["nats"] != "ok" {
		t.Fatalf("unexpected response %+v", h)
	}
}

func TestHealthCheckHasDeadline(t *testing.T) {
	handler := NewHandler(map[string]Check{
		"slow": func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("no deadline")
			}
			return nil
		},
	})

	resp := httptest.NewRecorder()
	handler(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
