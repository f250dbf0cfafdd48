package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldsReachCore(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := L()
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })

	Info("message_sent", map[string]any{"listing_id": "L1", "attempt": 2})
	Debug("hidden", nil)
	Error("generation_failed", map[string]any{"error": "boom"})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "message_sent", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "L1", ctx["listing_id"])
	assert.EqualValues(t, 2, ctx["attempt"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestInitUnknownLevel(t *testing.T) {
	prev := L()
	t.Cleanup(func() { SetLogger(prev) })
	Init("chatty", false)
	assert.True(t, L().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, L().Core().Enabled(zapcore.DebugLevel))
}
