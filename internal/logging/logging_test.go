package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetup_VerboseWritesDebug(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.Disabled) })

	var buf bytes.Buffer
	require.NoError(t, Setup(&buf, "error", true))
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	log.Debug().Msg("hello from debug")
	assert.Contains(t, buf.String(), "hello from debug")
}

func TestSetup_LevelFilters(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.Disabled) })

	var buf bytes.Buffer
	require.NoError(t, Setup(&buf, "warn", false))
	log.Info().Msg("quiet")
	assert.NotContains(t, buf.String(), "quiet")

	assert.Error(t, Setup(&buf, "nope", false))
}

func TestSetup_NoColorOffTerminal(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.Disabled) })

	var buf bytes.Buffer
	require.NoError(t, Setup(&buf, "info", false))
	log.Error().Msg("plain")
	assert.Contains(t, buf.String(), "ERR")
	assert.NotContains(t, buf.String(), "\x1b[")

	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f), "regular file is not a terminal")
}
