// Package chattoken provides the chat token HTTP Cloud Function.
package chattoken

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"go.uber.org/zap"

	"github.com/janisto/dating-onboarding/internal/platform/auth"
	"github.com/janisto/dating-onboarding/internal/platform/config"
	"github.com/janisto/dating-onboarding/internal/platform/firebase"
	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
	"github.com/janisto/dating-onboarding/internal/platform/metrics"
	"github.com/janisto/dating-onboarding/internal/platform/ratelimit"
	"github.com/janisto/dating-onboarding/internal/platform/respond"
	"github.com/janisto/dating-onboarding/internal/platform/timeutil"
	"github.com/janisto/dating-onboarding/internal/service/chat"
)

func init() {
	functions.HTTP("ChatToken", serve)
}

var (
	setupOnce sync.Once
	handler   http.Handler
	setupErr  error
)

// serve builds the handler on the first request so a cold start without
// credentials still answers with a problem body.
func serve(w http.ResponseWriter, r *http.Request) {
	setupOnce.Do(func() {
		handler, setupErr = setup(context.Background())
	})
	if setupErr != nil {
		applog.LogError(r.Context(), "chat token function setup failed", setupErr)
		respond.WriteProblem(w, r, http.StatusInternalServerError, "chat service not configured")
		return
	}
	handler.ServeHTTP(w, r)
}

func setup(ctx context.Context) (http.Handler, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	fb, err := firebase.InitializeClients(ctx, firebase.Config{
		ProjectID:                    cfg.FirebaseProjectID,
		GoogleApplicationCredentials: cfg.GoogleApplicationCredentials,
	})
	if err != nil {
		return nil, err
	}
	return New(
		auth.NewFirebaseVerifier(fb.Auth),
		ratelimit.NewFixedWindow(cfg.TokenRateLimit, cfg.TokenRateWindow),
		chat.NewIssuer(cfg.StreamAPIKey, cfg.StreamAPISecret, cfg.ChatTokenTTL),
	), nil
}

// Request is the optional request body.
type Request struct {
	UserID string `json:"user_id"`
}

// Response is the issued credential.
type Response struct {
	Token     string        `json:"token"`
	UserID    string        `json:"userId"`
	APIKey    string        `json:"apiKey"`
	ExpiresAt timeutil.Time `json:"expiresAt"`
}

// New returns the token handler. Checks run in this order: credentials
// present, per-IP rate limit, token valid, body user matches, issue.
func New(verifier auth.Verifier, limiter ratelimit.Limiter, issuer *chat.Issuer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "OPTIONS, POST")
			respond.WriteProblem(w, r, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		ctx := r.Context()

		header := r.Header.Get("Authorization")
		if header == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respond.WriteProblem(w, r, http.StatusUnauthorized, "missing authorization header")
			return
		}

		d, err := limiter.Allow(ctx, clientIP(r))
		if err != nil {
			applog.LogWarn(ctx, "rate limiter unavailable", zap.Error(err))
		} else if !d.Allowed {
			metrics.RecordRateLimited()
			w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds()))
			respond.WriteProblem(w, r, http.StatusTooManyRequests, "too many requests, try again later")
			return
		}

		token, err := auth.ExtractBearerToken(header)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respond.WriteProblem(w, r, http.StatusUnauthorized, "missing or invalid authorization header")
			return
		}
		user, err := verifier.Verify(ctx, token)
		if err != nil {
			applog.LogWarn(ctx, "chat token auth failed", zap.Error(err))
			w.Header().Set("WWW-Authenticate", "Bearer")
			respond.WriteProblem(w, r, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx = auth.ContextWithUser(ctx, user)

		var req Request
		if r.Body != nil && r.ContentLength != 0 {
			err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req)
			if err != nil && !errors.Is(err, io.EOF) {
				respond.WriteProblem(w, r, http.StatusBadRequest, "invalid request body")
				return
			}
		}
		if req.UserID != "" && req.UserID != user.UID {
			metrics.RecordChatToken(metrics.ResultSkipped)
			respond.WriteProblem(w, r, http.StatusForbidden, "user id does not match the authenticated user")
			return
		}

		cred, err := issuer.Issue(user.UID)
		if err != nil {
			metrics.RecordChatToken(metrics.ResultFailure)
			applog.LogAuditEvent(ctx, "chat_token", user.UID, "chat_token", user.UID, applog.AuditFailure, nil)
			detail := "internal error"
			if errors.Is(err, chat.ErrNotConfigured) {
				detail = "chat service not configured"
			}
			applog.LogError(ctx, "chat token not issued", err)
			respond.WriteProblem(w, r, http.StatusInternalServerError, detail)
			return
		}

		metrics.RecordChatToken(metrics.ResultSuccess)
		applog.LogAuditEvent(ctx, "chat_token", user.UID, "chat_token", user.UID, applog.AuditSuccess, nil)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Response{
			Token:     cred.Token,
			UserID:    cred.UserID,
			APIKey:    cred.APIKey,
			ExpiresAt: timeutil.NewTime(cred.ExpiresAt),
		})
	})
}

func setCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}

// clientIP prefers the first X-Forwarded-For entry set by the Cloud
// Functions front end.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return ratelimit.ClientIP(r.RemoteAddr)
}
