package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bjrfx/mediacore/internal/observability/logger"
)

func TestLog_WritesNamedEvent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core))

	Log(ctx, EventAPIKeyCreated, Actor("u-1"), logger.APIKeyID("k-1"))

	entries := logs.All()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "audit", e.LoggerName)
	assert.Equal(t, "audit event", e.Message)

	fields := e.ContextMap()
	assert.Equal(t, EventAPIKeyCreated, fields["event"])
	assert.Equal(t, "u-1", fields["actor"])
	assert.Equal(t, "k-1", fields["api_key_id"])
}
