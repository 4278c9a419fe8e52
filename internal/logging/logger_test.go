package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)

	log.Info().Str("tool", "send_email").Msg("tool invoked")
	out := buf.String()
	assert.Contains(t, out, `"message":"tool invoked"`)
	assert.Contains(t, out, `"tool":"send_email"`)
}

func TestNewDefaultWriter(t *testing.T) {
	require.NotNil(t, New(nil, "info"))
}

func TestNewStyled(t *testing.T) {
	for _, style := range []string{"pretty", "compact", "json", ""} {
		require.NotNil(t, NewStyled("info", style), style)
	}
}

func TestSubAndWith(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug").Sub("agent").With("session", "s-1")

	log.Debug().Msg("hop started")
	out := buf.String()
	assert.Contains(t, out, `"subsystem":"agent"`)
	assert.Contains(t, out, `"session":"s-1"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug().Msg("debug msg")
	log.Info().Msg("info msg")
	assert.Empty(t, buf.String())

	log.Warn().Msg("warn msg")
	assert.Contains(t, buf.String(), "warn msg")
}

func TestSilentAndNop(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "silent").Error().Msg("hidden")
	assert.Empty(t, buf.String())

	// Nop must be usable without a writer.
	Nop().Sub("x").Error().Msg("hidden")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"fatal":   zerolog.FatalLevel,
		"silent":  zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"INFO":    zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
