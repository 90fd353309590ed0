package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf, false)
	require.NoError(t, err)

	logger.Info("index loaded", "chunks", 3)
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, `"msg":"index loaded"`)
	assert.Contains(t, out, `"chunks":3`)
	assert.NotContains(t, out, "hidden")
}

func TestNew_VerboseForcesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "error"}, &buf, true)
	require.NoError(t, err)

	logger.Debug("embedding batch", "size", 2)
	assert.Contains(t, buf.String(), "embedding batch")
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New(config.LoggingConfig{Format: "xml"}, &bytes.Buffer{}, false)
	assert.Error(t, err)
}
