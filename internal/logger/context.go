package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
	branchIDKey  contextKey = "branch_id"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, returns a no-op logger if not found
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores a request ID for correlation with backend logs
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithUserID stores the signed-in user's ID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// WithBranchID stores the selected branch
func WithBranchID(ctx context.Context, branchID string) context.Context {
	return context.WithValue(ctx, branchIDKey, branchID)
}

// RequestID retrieves request ID from context
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// UserID retrieves user ID from context
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// BranchID retrieves branch ID from context
func BranchID(ctx context.Context) string {
	id, _ := ctx.Value(branchIDKey).(string)
	return id
}

// Has reports whether ctx carries a logger
func Has(ctx context.Context) bool {
	_, ok := ctx.Value(loggerKey).(*zap.Logger)
	return ok
}

// L returns the context logger enriched with trace, request, user and branch fields.
// Usage: logger.L(ctx).Info("top-up requested", zap.Int64("amount", amount))
func L(ctx context.Context) *zap.Logger {
	return Enrich(ctx, FromContext(ctx))
}

// Enrich adds the trace, request, user and branch fields found in ctx to l
func Enrich(ctx context.Context, l *zap.Logger) *zap.Logger {
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		l = l.With(
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if id := RequestID(ctx); id != "" {
		l = l.With(zap.String("request_id", id))
	}
	if id := UserID(ctx); id != "" {
		l = l.With(zap.String("user_id", id))
	}
	if id := BranchID(ctx); id != "" {
		l = l.With(zap.String("branch_id", id))
	}
	return l
}
