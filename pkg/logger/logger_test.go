package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/aboxlink/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, logger.ParseLevel(in), in)
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(logger.Config{Level: slog.LevelInfo, Format: logger.FormatJSON, Writer: &buf})

	log.Debug("hidden")
	log.Info("batch linked", "total", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "batch linked", rec["msg"])
	assert.Equal(t, float64(3), rec["total"])
}

func TestColorHandler(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	log := logger.NewLogger(logger.Config{Level: slog.LevelDebug, Writer: &buf})

	log.With("run", "r1").WithGroup("link").Info("linked", "mention", "the tunnel", "score", 0.9)
	out := buf.String()
	assert.Contains(t, out, "INFO  linked")
	assert.Contains(t, out, "run=r1")
	assert.Contains(t, out, `link.mention="the tunnel"`)
	assert.Contains(t, out, "link.score=0.9")
	assert.NotContains(t, out, "link.run")
}

func TestColorHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(logger.NewColorHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	log.Info("quiet")
	assert.Empty(t, buf.String())
	log.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}
