package logging

import (
	"context"

	"go.uber.org/zap"
)

// Audit results.
const (
	AuditSuccess = "success"
	AuditFailure = "failure"
)

// LogAuditEvent logs a structured audit event for writes that touch a
// user's remote profile or credentials.
//
// Args:
//   - action: what happened (e.g., "sync.name", "finalize", "chat_token")
//   - userID: the user performing the action
//   - resourceType: the type of resource (e.g., "profile")
//   - resourceID: the ID of the resource
//   - result: AuditSuccess or AuditFailure
//   - details: optional additional details; never include field values
func LogAuditEvent(
	ctx context.Context,
	action, userID, resourceType, resourceID, result string,
	details map[string]any,
) {
	fields := []zap.Field{
		zap.String("audit.action", action),
		zap.String("audit.user_id", userID),
		zap.String("audit.resource_type", resourceType),
		zap.String("audit.resource_id", resourceID),
		zap.String("audit.result", result),
	}
	if len(details) > 0 {
		fields = append(fields, zap.Any("audit.details", details))
	}
	LoggerFromContext(ctx).Info("Audit event", fields...)
}
