package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithRunID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	zapLogger := zap.New(core)

	ctx, enriched := WithRunID(context.Background(), zapLogger, "run-abc")

	assert.Equal(t, "run-abc", GetRunID(ctx))

	enriched.Info("processing")

	logs := recorded.All()
	require.Len(t, logs, 1)

	hasRunID := false
	for _, field := range logs[0].Context {
		if field.Key == "run_id" {
			hasRunID = true
			assert.Equal(t, "run-abc", field.String)
		}
	}
	assert.True(t, hasRunID, "run_id should be attached to every entry")
}

func TestGetRunID_Missing(t *testing.T) {
	assert.Equal(t, "", GetRunID(context.Background()))
}

func TestGetRunID_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), RunIDKey, 42)
	assert.Equal(t, "", GetRunID(ctx))
}
