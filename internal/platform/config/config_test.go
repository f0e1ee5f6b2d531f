package config

import (
	"strings"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookupDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.ProfileBackend != BackendFirestore {
		t.Errorf("expected firestore backend, got %s", cfg.ProfileBackend)
	}
	if cfg.TokenRateLimit != 10 || cfg.TokenRateWindow != time.Minute {
		t.Errorf("unexpected rate limit %d/%s", cfg.TokenRateLimit, cfg.TokenRateWindow)
	}
	if cfg.ChatTokenTTL != 24*time.Hour {
		t.Errorf("expected 24h token TTL, got %s", cfg.ChatTokenTTL)
	}
	if cfg.MinInterests != 3 || cfg.MaxInterests != 10 || cfg.MaxPhotos != 6 || cfg.MinAge != 18 {
		t.Errorf("unexpected onboarding rules: %+v", cfg)
	}
}

func TestFromLookupOverrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"PORT":            "9090",
		"PROFILE_BACKEND": "Postgres",
		"DATABASE_URL":    "postgres://localhost/dating",
		"DRAFT_TTL":       "72h",
		"GCLOUD_PROJECT":  "demo-project",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.ProfileBackend != BackendPostgres || cfg.DraftTTL != 72*time.Hour {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.FirebaseProjectID != "demo-project" {
		t.Fatalf("expected project fallback, got %q", cfg.FirebaseProjectID)
	}
}

func TestFromLookupRejectsInvalidValues(t *testing.T) {
	tests := map[string]map[string]string{
		"bad int":          {"MAX_PHOTOS": "six"},
		"bad duration":     {"DRAFT_TTL": "forever"},
		"postgres no url":  {"PROFILE_BACKEND": "postgres"},
		"unknown backend":  {"PROFILE_BACKEND": "mongo"},
		"inverted bounds":  {"MIN_INTERESTS": "5", "MAX_INTERESTS": "2"},
		"zero rate window": {"TOKEN_RATE_WINDOW": "0s"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := FromLookup(lookupFrom(env)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("PROFILE_BACKEND", "memory")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("expected 7070, got %s", cfg.Port)
	}
	if !strings.EqualFold(cfg.ProfileBackend, BackendMemory) {
		t.Fatalf("expected memory backend, got %s", cfg.ProfileBackend)
	}
}
