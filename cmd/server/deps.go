package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/janisto/dating-onboarding/internal/http/health"
	"github.com/janisto/dating-onboarding/internal/http/v1/routes"
	"github.com/janisto/dating-onboarding/internal/onboarding"
	"github.com/janisto/dating-onboarding/internal/platform/auth"
	"github.com/janisto/dating-onboarding/internal/platform/config"
	"github.com/janisto/dating-onboarding/internal/platform/firebase"
	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
	"github.com/janisto/dating-onboarding/internal/platform/ratelimit"
	"github.com/janisto/dating-onboarding/internal/service/chat"
	"github.com/janisto/dating-onboarding/internal/service/events"
	"github.com/janisto/dating-onboarding/internal/service/photo"
	"github.com/janisto/dating-onboarding/internal/service/profile"
)

// devPhotoPath is where in-memory photos are served when no Storage bucket
// is configured.
const devPhotoPath = "/photos"

func devPhotoBaseURL(port string) string {
	return "http://localhost:" + port + devPhotoPath
}

type deps struct {
	routes routes.Deps
	health map[string]health.Check
	// photos serves uploaded photos under devPhotoPath; nil with a bucket.
	photos http.Handler
}

func rulesFrom(cfg *config.Config) onboarding.Rules {
	return onboarding.Rules{
		MinInterests: cfg.MinInterests,
		MaxInterests: cfg.MaxInterests,
		MaxPhotos:    cfg.MaxPhotos,
		MinAge:       cfg.MinAge,
	}
}

// buildDeps connects every backend cfg asks for. The returned func closes
// them in reverse order.
func buildDeps(ctx context.Context, cfg *config.Config) (*deps, func(), error) {
	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				applog.LogWarn(ctx, "close failed", zap.Error(err))
			}
		}
		closers = nil
	}
	fail := func(err error) (*deps, func(), error) {
		closeAll()
		return nil, nil, err
	}

	d := &deps{health: map[string]health.Check{}}
	rules := rulesFrom(cfg)

	fb, err := firebase.InitializeClients(ctx, firebase.Config{
		ProjectID:                    cfg.FirebaseProjectID,
		GoogleApplicationCredentials: cfg.GoogleApplicationCredentials,
		StorageBucket:                cfg.StorageBucket,
		Firestore:                    cfg.ProfileBackend == config.BackendFirestore,
	})
	if err != nil {
		return fail(fmt.Errorf("firebase: %w", err))
	}
	closers = append(closers, fb.Close)
	d.routes.Verifier = auth.NewFirebaseVerifier(fb.Auth)

	switch cfg.ProfileBackend {
	case config.BackendFirestore:
		d.routes.Profiles = profile.NewFirestoreStore(fb.Firestore, rules.MinInterests)
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(fmt.Errorf("postgres: %w", err))
		}
		closers = append(closers, func() error { pool.Close(); return nil })
		store := profile.NewPostgresStore(pool, rules.MinInterests)
		if err := store.Migrate(ctx); err != nil {
			return fail(fmt.Errorf("postgres migrate: %w", err))
		}
		d.routes.Profiles = store
		d.health["postgres"] = pool.Ping
	default:
		applog.LogWarn(ctx, "profiles are kept in memory and lost on restart")
		d.routes.Profiles = profile.NewMockStore(rules.MinInterests)
	}

	var kv onboarding.KV
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		closers = append(closers, rdb.Close)
		kv = onboarding.NewRedisKV(rdb)
		d.routes.Limiter = ratelimit.NewRedisWindow(rdb, "chat_token", cfg.TokenRateLimit, cfg.TokenRateWindow)
		d.health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		kv = onboarding.NewMemoryKV()
		d.routes.Limiter = ratelimit.NewFixedWindow(cfg.TokenRateLimit, cfg.TokenRateWindow)
	}

	var notifier onboarding.Notifier
	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() error { nc.Close(); return nil })
		notifier = events.NewNATSPublisher(nc, cfg.CompletionSubject)
		d.health["nats"] = func(context.Context) error {
			if nc.Status() != nats.CONNECTED {
				return errors.New(nc.Status().String())
			}
			return nil
		}
	}

	var photos photo.Store
	if fb.Bucket != nil {
		photos = photo.NewBucketStore(fb.Bucket, fb.BucketName())
	} else {
		applog.LogWarn(ctx, "no storage bucket configured, photos are kept in memory")
		mem := photo.NewMemoryStore(devPhotoBaseURL(cfg.Port))
		d.photos = mem
		photos = mem
	}
	d.routes.Uploader = photo.NewUploader(photos)

	d.routes.Manager = onboarding.NewManager(onboarding.Options{
		Store:    onboarding.NewDraftStore(kv, cfg.DraftTTL, rules),
		Profiles: d.routes.Profiles,
		Notifier: notifier,
		Rules:    rules,
		IdleTTL:  cfg.SessionIdleTTL,
	})

	d.routes.Issuer = chat.NewIssuer(cfg.StreamAPIKey, cfg.StreamAPISecret, cfg.ChatTokenTTL)
	if !d.routes.Issuer.Configured() {
		applog.LogWarn(ctx, "chat API key or secret missing, token requests will fail")
	}

	return d, closeAll, nil
}
