// Package config loads service configuration from the environment.
// A .env file in the working directory is read first when present; real
// environment variables always win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Profile backends.
const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendMemory    = "memory"
)

// Config is the fully resolved service configuration.
type Config struct {
	Port string

	FirebaseProjectID            string
	GoogleApplicationCredentials string
	StorageBucket                string

	ProfileBackend string
	DatabaseURL    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DraftTTL      time.Duration

	NATSURL           string
	CompletionSubject string

	StreamAPIKey    string
	StreamAPISecret string
	ChatTokenTTL    time.Duration
	TokenRateLimit  int
	TokenRateWindow time.Duration

	MinInterests int
	MaxInterests int
	MaxPhotos    int
	MinAge       int

	SessionIdleTTL time.Duration
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary variable source.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	r := reader{lookup: lookup}
	cfg := &Config{
		Port: r.str("PORT", "8080"),

		FirebaseProjectID:            r.first("FIREBASE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT", "GCLOUD_PROJECT"),
		GoogleApplicationCredentials: r.str("GOOGLE_APPLICATION_CREDENTIALS", ""),
		StorageBucket:                r.str("STORAGE_BUCKET", ""),

		ProfileBackend: strings.ToLower(r.str("PROFILE_BACKEND", BackendFirestore)),
		DatabaseURL:    r.str("DATABASE_URL", ""),

		RedisAddr:     r.str("REDIS_ADDR", ""),
		RedisPassword: r.str("REDIS_PASSWORD", ""),
		RedisDB:       r.int("REDIS_DB", 0),
		DraftTTL:      r.duration("DRAFT_TTL", 30*24*time.Hour),

		NATSURL:           r.str("NATS_URL", ""),
		CompletionSubject: r.str("COMPLETION_SUBJECT", "onboarding.completed"),

		StreamAPIKey:    r.str("STREAM_CHAT_API_KEY", ""),
		StreamAPISecret: r.str("STREAM_CHAT_API_SECRET", ""),
		ChatTokenTTL:    r.duration("CHAT_TOKEN_TTL", 24*time.Hour),
		TokenRateLimit:  r.int("TOKEN_RATE_LIMIT", 10),
		TokenRateWindow: r.duration("TOKEN_RATE_WINDOW", time.Minute),

		MinInterests: r.int("MIN_INTERESTS", 3),
		MaxInterests: r.int("MAX_INTERESTS", 10),
		MaxPhotos:    r.int("MAX_PHOTOS", 6),
		MinAge:       r.int("MIN_AGE", 18),

		SessionIdleTTL: r.duration("SESSION_IDLE_TTL", 30*time.Minute),
	}
	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	switch c.ProfileBackend {
	case BackendFirestore, BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres profile backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PROFILE_BACKEND %q", c.ProfileBackend))
	}
	if c.MinInterests < 0 || c.MaxInterests < c.MinInterests {
		errs = append(errs, fmt.Errorf("interest bounds invalid: min %d max %d", c.MinInterests, c.MaxInterests))
	}
	if c.MaxPhotos < 1 {
		errs = append(errs, errors.New("MAX_PHOTOS must be at least 1"))
	}
	if c.TokenRateLimit < 1 || c.TokenRateWindow <= 0 {
		errs = append(errs, errors.New("token rate limit and window must be positive"))
	}
	return errors.Join(errs...)
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v, ok := r.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) first(keys ...string) string {
	for _, k := range keys {
		if v := r.str(k, ""); v != "" {
			return v
		}
	}
	return ""
}

func (r *reader) int(key string, def int) int {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	raw := r.str(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
