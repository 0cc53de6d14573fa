package observability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/AmirZhou/hodos-sub001/internal/config"
	"github.com/AmirZhou/hodos-sub001/internal/observability"
)

func TestNewLogger_JSON(t *testing.T) {
	logger, err := observability.NewLogger(config.LoggingConfig{Level: "info", Format: "json"}, "engine")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_Console(t *testing.T) {
	logger, err := observability.NewLogger(config.LoggingConfig{Level: "debug", Format: "console"}, "")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := observability.NewLogger(config.LoggingConfig{Level: "trace", Format: "json"}, "engine")
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	_, err := observability.NewLogger(config.LoggingConfig{Level: "info", Format: "xml"}, "engine")
	assert.Error(t, err)
}

func TestNewLogger_LevelGatesOutput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		levels := []string{"debug", "info", "warn", "error"}
		idx := rapid.IntRange(0, len(levels)-1).Draw(t, "level")
		logger, err := observability.NewLogger(config.LoggingConfig{Level: levels[idx], Format: "json"}, "engine")
		if err != nil {
			t.Fatalf("level %q rejected: %v", levels[idx], err)
		}
		want, _ := zapcore.ParseLevel(levels[idx])
		if !logger.Core().Enabled(want) {
			t.Fatalf("level %q not enabled", levels[idx])
		}
		if want > zapcore.DebugLevel && logger.Core().Enabled(want-1) {
			t.Fatalf("level below %q enabled", levels[idx])
		}
	})
}

func TestComponent_NamesLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	observability.Component(zap.New(core), "content").Info("loaded")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "content", logs.All()[0].LoggerName)
}
