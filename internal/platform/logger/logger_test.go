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
	cases := map[string]Level{
		"debug":   Debug,
		"":        Info,
		"INFO":    Info,
		"warning": Warn,
		"error":   Error,
		"nope":    Info,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat(" JSON "))
	assert.Equal(t, FormatText, ParseFormat("logfmt"))
}

func TestZapLogger_WithMergesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZap(zap.New(core))

	l.With(map[string]any{"request_id": "r-1"}).Info("hola", map[string]any{
		"status": 201,
		"err":    errors.New("boom"),
		"  ":     "ignored",
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "hola", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "r-1", ctx["request_id"])
	assert.EqualValues(t, 201, ctx["status"])
	assert.Equal(t, "boom", ctx["err"])
	_, hasBlank := ctx["  "]
	assert.False(t, hasBlank)
}

func TestZapLogger_RespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	l := NewZap(zap.New(core))

	l.Debug("debug", nil)
	l.Info("info", nil)
	l.Warn("warn", nil)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "warn", logs.All()[0].Message)
}
