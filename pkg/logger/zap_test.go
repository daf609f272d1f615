package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &ZapLogger{logger: zap.New(core).Sugar()}, logs
}

func TestZapLogger_WithCarriesFields(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	child := l.With("service", "world")
	child.Info("tile fetched", "tile", "17/67926/42563")
	l.Info("plain")

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "tile fetched", entries[0].Message)
	assert.Equal(t, map[string]any{"service": "world", "tile": "17/67926/42563"}, entries[0].ContextMap())
	assert.Empty(t, entries[1].ContextMap(), "parent logger is not modified")
}

func TestZapLogger_Level(t *testing.T) {
	l, logs := newObservedLogger(zapcore.WarnLevel)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown")

	assert.Equal(t, 2, logs.Len())
}

func TestToZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, toZapLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, toZapLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, toZapLevel("nonsense"))
}
