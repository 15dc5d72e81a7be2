package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is a type for context keys used by the logger package
type contextKey string

// RunIDKey is the context key for the run identifier
const RunIDKey contextKey = "run_id"

// WithRunID adds the run identifier to the context and returns an enriched logger.
// Every log entry written through the returned logger carries the run_id field,
// and database statement logging picks it up from the context.
func WithRunID(ctx context.Context, logger *zap.Logger, runID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RunIDKey, runID)
	enriched := logger.With(zap.String("run_id", runID))
	return ctx, enriched
}

// GetRunID retrieves the run identifier from context
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}
