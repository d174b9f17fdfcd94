package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// New builds the run logger: a console writer, plus a log file when logFile
// is non-empty. The returned close function flushes and releases the file
// handle and must be called at run end; components receive the logger by
// value and never reach for a package-level instance.
func New(logFile string) (zerolog.Logger, func() error, error) {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	if logFile == "" {
		logger := zerolog.New(console).With().Timestamp().Logger()
		return logger, func() error { return nil }, nil
	}

	if dir := filepath.Dir(logFile); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
	}

	logger := zerolog.New(io.MultiWriter(console, f)).With().Timestamp().Logger()
	return logger, f.Close, nil
}
