package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantLevel zapcore.Level
		offLevel  zapcore.Level
	}{
		{
			name:      "development debug",
			config:    Config{Level: "debug", Environment: "development", ServiceName: "gamecrypt"},
			wantLevel: zapcore.DebugLevel,
		},
		{
			name:      "production info",
			config:    Config{Level: "info", Environment: "production", ServiceName: "gamecrypt"},
			wantLevel: zapcore.InfoLevel,
			offLevel:  zapcore.DebugLevel,
		},
		{
			name:      "invalid level defaults to info",
			config:    Config{Level: "loud", Environment: "development"},
			wantLevel: zapcore.InfoLevel,
			offLevel:  zapcore.DebugLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			require.NoError(t, err)
			assert.True(t, l.zap.Core().Enabled(tt.wantLevel))
			if tt.offLevel != tt.wantLevel {
				assert.False(t, l.zap.Core().Enabled(tt.offLevel))
			}
		})
	}
}

func TestLoggerOutput(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := FromZap(zap.New(core))

	l.Info("players loaded", zap.Int("count", 3))
	require.Equal(t, 1, observed.Len())
	entry := observed.All()[0]
	assert.Equal(t, "players loaded", entry.Message)
	assert.EqualValues(t, 3, entry.ContextMap()["count"])

	observed.TakeAll()
	l.Error("gateway write failed", errors.New("revert"))
	require.Equal(t, 1, observed.Len())
	assert.Equal(t, "revert", observed.All()[0].ContextMap()["error"])

	observed.TakeAll()
	l.Debug("hidden")
	assert.Equal(t, 0, observed.Len())
}

func TestWithAndNamed(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	l := FromZap(zap.New(core))

	l.Named("gateway").With(zap.String("backend", "memory")).Warn("slow read")

	require.Equal(t, 1, observed.Len())
	entry := observed.All()[0]
	assert.Equal(t, "gateway", entry.LoggerName)
	assert.Equal(t, "memory", entry.ContextMap()["backend"])
}

func TestNop(t *testing.T) {
	l := NewNop()
	l.Info("nothing")
	assert.NoError(t, l.Sync())
}
