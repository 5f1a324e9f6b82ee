package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(NewDefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.NotNil(t, logger.zap)
}

func TestNewLogger_NilConfigUsesDefaults(t *testing.T) {
	logger, err := NewLogger(nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Equal(t, "info", logger.config.Level)
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	_, err := NewLogger(&Config{Level: "info", Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func observedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, observed := observer.New(level)
	return &Logger{zap: zap.New(core), config: NewDefaultConfig()}, observed
}

func TestLogger_Levels(t *testing.T) {
	logger, observed := observedLogger(zapcore.DebugLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message", zap.String("key", "val"))

	entries := observed.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "info message", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "val", entries[3].ContextMap()["key"])
}

func TestLogger_With(t *testing.T) {
	logger, observed := observedLogger(zapcore.InfoLevel)

	child := logger.With(zap.String("session_id", "abc"))
	child.Info("decided")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0].ContextMap()["session_id"])
}

func TestLogger_Named(t *testing.T) {
	logger, observed := observedLogger(zapcore.InfoLevel)

	logger.Named("supervisor").Info("routing")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "supervisor", entries[0].LoggerName)
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	require.NotNil(t, logger)
	logger.Info("discarded")
	assert.NoError(t, logger.Sync())
}
