package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSPreflightAllowsDeviceHeader(t *testing.T) {
	h := CORS()(okHandler)
	req := httptest.NewRequest(http.MethodOptions, "/onboarding/draft", nil)
	req.Header.Set("Origin", "http://localhost:19006")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	req.Header.Set("Access-Control-Request-Headers", "X-Device-Id, Authorization")
	resp := httptest.NewRecorder()

	h.ServeHTTP(resp, req)

	allowed := strings.ToLower(resp.Header().Get("Access-Control-Allow-Headers"))
	if !strings.Contains(allowed, "x-device-id") || !strings.Contains(allowed, "authorization") {
		t.Fatalf("expected device and auth headers to be allowed, got %q", allowed)
	}
}

func TestCORSExposesRetryAfter(t *testing.T) {
	h := CORS()(okHandler)
	req := httptest.NewRequest(http.MethodPost, "/chat/token", nil)
	req.Header.Set("Origin", "http://example.com")
	resp := httptest.NewRecorder()

	h.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
	if exposed := resp.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(exposed, "Retry-After") {
		t.Fatalf("expected Retry-After to be exposed, got %q", exposed)
	}
}

func TestRequestIDReusesValidHeader(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = chimiddleware.GetReqID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "client-req-1")
	resp := httptest.NewRecorder()

	h.ServeHTTP(resp, req)

	if seen != "client-req-1" {
		t.Fatalf("expected reused request ID, got %q", seen)
	}
	if resp.Header().Get(chimiddleware.RequestIDHeader) != "client-req-1" {
		t.Fatal("expected request ID echoed in response header")
	}
}

func TestRequestIDReplacesInvalidHeader(t *testing.T) {
	tests := map[string]string{
		"empty":   "",
		"control": "abc\ndef",
		"long":    strings.Repeat("a", maxRequestIDLength+1),
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			h := RequestID()(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(chimiddleware.RequestIDHeader, header)
			resp := httptest.NewRecorder()

			h.ServeHTTP(resp, req)

			got := resp.Header().Get(chimiddleware.RequestIDHeader)
			if got == header || len(got) != 36 {
				t.Fatalf("expected generated UUID, got %q", got)
			}
		})
	}
}

func TestVaryAddsAccept(t *testing.T) {
	h := Vary()(okHandler)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := resp.Header().Get("Vary"); got != "Accept" {
		t.Fatalf("expected Vary: Accept, got %q", got)
	}
}

func TestSecurityHeadersAndSkipPaths(t *testing.T) {
	h := Security("/api-docs")(okHandler)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/onboarding", nil))
	if resp.Header().Get("Cache-Control") != "no-store" {
		t.Fatal("expected Cache-Control no-store")
	}
	if resp.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("expected X-Frame-Options DENY")
	}

	docs := httptest.NewRecorder()
	h.ServeHTTP(docs, httptest.NewRequest(http.MethodGet, "/api-docs", nil))
	if docs.Header().Get("Cache-Control") != "" {
		t.Fatal("expected docs path to skip security headers")
	}
}
