// Package chat serves chat service credentials.
package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/dating-onboarding/internal/platform/auth"
	applog "github.com/janisto/dating-onboarding/internal/platform/logging"
	"github.com/janisto/dating-onboarding/internal/platform/metrics"
	"github.com/janisto/dating-onboarding/internal/platform/ratelimit"
	"github.com/janisto/dating-onboarding/internal/platform/timeutil"
	chatsvc "github.com/janisto/dating-onboarding/internal/service/chat"
)

// TokenInput for POST /chat/token
type TokenInput struct {
	Body *struct {
		UserID string `json:"user_id,omitempty" maxLength:"128" doc:"Must match the caller when sent" example:"test-user-123"`
	} `required:"false"`
}

// Token is a chat credential.
type Token struct {
	Token     string        `json:"token"     doc:"Signed user token"                example:"eyJhbGciOiJIUzI1NiIs..."`
	UserID    string        `json:"userId"    doc:"Chat user id"                     example:"test-user-123"`
	APIKey    string        `json:"apiKey"    doc:"Public API key of the chat service" example:"mz3k7xq2bd9w"`
	ExpiresAt timeutil.Time `json:"expiresAt" doc:"Token expiry"                     example:"2026-06-02T12:00:00.000Z"`
}

// TokenOutput for POST /chat/token
type TokenOutput struct {
	Body Token
}

// Register registers chat endpoints.
func Register(api huma.API, issuer *chatsvc.Issuer) {
	huma.Register(api, huma.Operation{
		OperationID: "create-chat-token",
		Method:      http.MethodPost,
		Path:        "/chat/token",
		Summary:     "Issue a chat token",
		Description: "Issues a 24 hour chat token for the authenticated user. " +
			"Limited to 10 requests per minute per client address.",
		Tags:     []string{"Chat"},
		Security: auth.Required,
		Metadata: map[string]any{ratelimit.MetadataKey: true},
	}, func(ctx context.Context, input *TokenInput) (*TokenOutput, error) {
		userID := auth.UserFromContext(ctx).UID

		if input.Body != nil && input.Body.UserID != "" && input.Body.UserID != userID {
			metrics.RecordChatToken(metrics.ResultSkipped)
			applog.LogWarn(ctx, "chat token requested for another user")
			return nil, huma.Error403Forbidden("user id does not match the authenticated user")
		}

		cred, err := issuer.Issue(userID)
		if err != nil {
			metrics.RecordChatToken(metrics.ResultFailure)
			applog.LogAuditEvent(ctx, "chat_token", userID, "chat_token", userID, applog.AuditFailure, nil)
			if errors.Is(err, chatsvc.ErrNotConfigured) {
				applog.LogError(ctx, "chat token issuer not configured", err)
				return nil, huma.Error500InternalServerError("chat service not configured")
			}
			applog.LogError(ctx, "chat token signing failed", err, zap.String("user_id", userID))
			return nil, huma.Error500InternalServerError("internal error")
		}

		metrics.RecordChatToken(metrics.ResultSuccess)
		applog.LogAuditEvent(ctx, "chat_token", userID, "chat_token", userID, applog.AuditSuccess, nil)
		return &TokenOutput{Body: Token{
			Token:     cred.Token,
			UserID:    cred.UserID,
			APIKey:    cred.APIKey,
			ExpiresAt: timeutil.Time{Time: cred.ExpiresAt},
		}}, nil
	})
}
