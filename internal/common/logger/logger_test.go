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

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestZapWrapper_FieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).With(map[string]interface{}{"component": "test"})

	log.Debug("debug message", nil)
	log.Info("info message", map[string]interface{}{"scenario": "pricing"})
	log.WithError(errors.New("boom")).Warn("warn message", nil)
	log.Error("error message", map[string]interface{}{"error": errors.New("bad")})

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "test", entries[0].ContextMap()["component"])

	assert.Equal(t, "pricing", entries[1].ContextMap()["scenario"])
	assert.Equal(t, "boom", entries[2].ContextMap()["error"])
	assert.Equal(t, "bad", entries[3].ContextMap()["error"])
}

func TestNew_FallsBackOnFormat(t *testing.T) {
	assert.NotNil(t, New("debug", "json"))
	assert.NotNil(t, New("info", "console"))
	assert.NotNil(t, NewStructured("warn", "json"))
}

func TestTestAndNoOpLoggers(t *testing.T) {
	NewTestLogger(t).Info("visible in test output", map[string]interface{}{"k": 1})
	NewNoOpLogger().WithFields(map[string]interface{}{"k": 2}).Error("discarded", nil)
}
