package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sagentic-ai/sagentic-af/telemetry"
)

func TestNoopLogger_NeverPanics(t *testing.T) {
	ctx := context.Background()
	logger := telemetry.NewNoopLogger()

	require.NotPanics(t, func() {
		logger.Debug(ctx, "debug", "key", "value")
		logger.Info(ctx, "info", "key", "value")
		logger.Warn(ctx, "warn", "key", "value")
		logger.Error(ctx, "error", "key", "value")
		logger.With("key", "value").Info(ctx, "info after with")
	})
}
