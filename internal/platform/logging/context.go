package logging

import (
	"context"

	"go.uber.org/zap"
)

type (
	loggerKey  struct{}
	traceIDKey struct{}
)

// LoggerFromContext returns the request-scoped logger, or the process logger
// when ctx carries none.
func LoggerFromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return Logger()
}

// TraceIDFromContext returns the correlation id of the request: the Cloud
// Trace resource when a traceparent was sent, the request id otherwise.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(traceIDKey{}).(string)
	return id, ok && id != ""
}

// WithLogger returns a copy of ctx carrying logger. Background jobs such as
// the session sweeper and tests use it to route output to a specific core.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

func withTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func withErr(fields []zap.Field, err error) []zap.Field {
	if err == nil {
		return fields
	}
	return append(fields, zap.Error(err))
}

// LogInfo writes msg at info level with the request-scoped logger.
func LogInfo(ctx context.Context, msg string, fields ...zap.Field) {
	LoggerFromContext(ctx).Info(msg, fields...)
}

// LogWarn writes msg at warning level with the request-scoped logger.
func LogWarn(ctx context.Context, msg string, fields ...zap.Field) {
	LoggerFromContext(ctx).Warn(msg, fields...)
}

// LogError writes msg at error level, attaching err when non-nil.
func LogError(ctx context.Context, msg string, err error, fields ...zap.Field) {
	LoggerFromContext(ctx).Error(msg, withErr(fields, err)...)
}

// LogFatal logs at fatal level and exits the process.
func LogFatal(ctx context.Context, msg string, err error, fields ...zap.Field) {
	LoggerFromContext(ctx).Fatal(msg, withErr(fields, err)...)
}
