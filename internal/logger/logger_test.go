package logger

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultLogger(t *testing.T) {
	cfg := config.NewDefaultLogConfig()
	_, err := New(cfg, nil)
	require.NoError(t, err)
}

func TestBuild_NoWriters(t *testing.T) {
	_, err := NewLoggerBuilder().WithConsole(false).Build()
	assert.Error(t, err)
}

func TestLogBuffer_CapturesEvents(t *testing.T) {
	buf := NewLogBuffer()
	log, err := NewLoggerBuilder().
		WithConfig(config.NewDefaultLogConfig()).
		WithConsole(false).
		WithLogBuffer(buf).
		Build()
	require.NoError(t, err)

	log.Info().Str("module", "UpdateService").Msg("found 2 new files")
	log.Warn().Msg("no new files")
	log.Info().Int("count", 3).Send()

	text := buf.String()
	assert.Contains(t, text, "found 2 new files")
	assert.Contains(t, text, "module=UpdateService")
	assert.Contains(t, text, "WRN")
	assert.Equal(t, "no new files", buf.LastMessage(), "events without a message keep the previous one")
	assert.Equal(t, 3, buf.Events())
}

func TestLogBuffer_IsScopedPerInstance(t *testing.T) {
	first := NewLogBuffer()
	second := NewLogBuffer()

	l := zerolog.New(first)
	l.Info().Msg("first run")

	assert.Contains(t, first.String(), "first run")
	assert.Empty(t, second.String())
	assert.Empty(t, second.LastMessage())
}

func TestBuild_LevelFiltering(t *testing.T) {
	var raw bytes.Buffer
	cfg := config.NewDefaultLogConfig()
	cfg.LogLevel = "warn"

	log, err := NewLoggerBuilder().WithConfig(cfg).WithConsole(false).WithWriter(&raw).Build()
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Error().Msg("shown")

	assert.NotContains(t, raw.String(), "hidden")
	assert.Contains(t, raw.String(), "shown")
}

func TestBuild_FileWriter(t *testing.T) {
	cfg := config.NewDefaultLogConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "releasewatch.log")

	converted := ConvertConfig(cfg)
	assert.True(t, converted.EnableFile)
	assert.Equal(t, cfg.LogFile, converted.FilePath)

	_, err := NewLoggerBuilder().WithConfig(cfg).WithConsole(false).Build()
	require.NoError(t, err)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatConsole, ParseFormat("whatever"))
}
