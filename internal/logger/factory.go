package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TimeFormat is used by every human-readable writer.
const TimeFormat = "2006-01-02 15:04:05"

// WriterStrategy wraps a destination with a format-specific writer
type WriterStrategy interface {
	CreateWriter(out io.Writer) io.Writer
}

// JSONWriterStrategy writes zerolog's native JSON lines
type JSONWriterStrategy struct{}

// CreateWriter implements WriterStrategy
func (JSONWriterStrategy) CreateWriter(out io.Writer) io.Writer {
	return out
}

// ConsoleWriterStrategy writes colorized human-readable lines
type ConsoleWriterStrategy struct {
	NoColor bool
}

// CreateWriter implements WriterStrategy
func (s ConsoleWriterStrategy) CreateWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: out, NoColor: s.NoColor, TimeFormat: TimeFormat}
}

// TextWriterStrategy writes plain human-readable lines
type TextWriterStrategy struct{}

// CreateWriter implements WriterStrategy
func (TextWriterStrategy) CreateWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: TimeFormat}
}

// WriterFactory creates writers based on format
type WriterFactory struct {
	strategies map[LogFormat]WriterStrategy
}

// NewWriterFactory creates a new writer factory
func NewWriterFactory() *WriterFactory {
	return &WriterFactory{
		strategies: map[LogFormat]WriterStrategy{
			FormatJSON:    JSONWriterStrategy{},
			FormatConsole: ConsoleWriterStrategy{NoColor: false},
			FormatText:    TextWriterStrategy{},
		},
	}
}

// CreateConsoleWriter creates a console writer on stderr
func (wf *WriterFactory) CreateConsoleWriter(format LogFormat) io.Writer {
	strategy, exists := wf.strategies[format]
	if !exists {
		strategy = ConsoleWriterStrategy{NoColor: false}
	}
	return strategy.CreateWriter(os.Stderr)
}

// CreateFileWriter creates a rotating file writer. Console format is written
// without color codes.
func (wf *WriterFactory) CreateFileWriter(config LoggerConfig) io.Writer {
	if dir := filepath.Dir(config.FilePath); dir != "" {
		_ = os.MkdirAll(dir, 0755)
	}

	lumberjackLogger := &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSizeMB,
		LocalTime:  true,
		MaxBackups: config.MaxBackups,
	}

	if config.Format == FormatConsole {
		return ConsoleWriterStrategy{NoColor: true}.CreateWriter(lumberjackLogger)
	}

	strategy, exists := wf.strategies[config.Format]
	if !exists {
		strategy = JSONWriterStrategy{}
	}
	return strategy.CreateWriter(lumberjackLogger)
}
