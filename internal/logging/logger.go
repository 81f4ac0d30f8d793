// Package logging provides a charmbracelet logger configured from the
// environment, optionally writing to a timestamped file.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Environment variables read by NewLogger.
const (
	EnvLevel  = "ARCHSTONE_LOG_LEVEL"
	EnvPrefix = "ARCHSTONE_LOG_PREFIX"
	EnvToFile = "ARCHSTONE_LOG_TO_FILE"
)

// LoggerCloser wraps a logger and closes its writer.
type LoggerCloser struct {
	*log.Logger
	closer io.Closer
}

// Close closes the underlying writer if it's closeable.
func (lc *LoggerCloser) Close() error {
	if lc.closer != nil {
		return lc.closer.Close()
	}
	return nil
}

// Level maps the ARCHSTONE_LOG_LEVEL value to a log level; unknown values
// are info.
func Level(s string) log.Level {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	}
	return log.InfoLevel
}

// NewLoggerWithWriter creates a logger writing to w.
func NewLoggerWithWriter(w io.Writer) *LoggerCloser {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	lg.SetLevel(Level(os.Getenv(EnvLevel)))

	prefix := os.Getenv(EnvPrefix)
	if prefix == "" {
		prefix = "archstone "
	}

	var closer io.Closer
	if c, ok := w.(io.Closer); ok && w != os.Stderr {
		closer = c
	}

	return &LoggerCloser{
		Logger: lg.WithPrefix(prefix),
		closer: closer,
	}
}

// NewLogger creates a logger from the environment:
// ARCHSTONE_LOG_LEVEL: debug, info, warn, error (default: info)
// ARCHSTONE_LOG_PREFIX: prefix for log messages (default: "archstone ")
// ARCHSTONE_LOG_TO_FILE: "1" logs to archstone-<timestamp>-debug.log instead of stderr
func NewLogger() *LoggerCloser {
	output := io.Writer(os.Stderr)

	if os.Getenv(EnvToFile) == "1" {
		timestamp := time.Now().Format("20060102-150405")
		logFile := fmt.Sprintf("archstone-%s-debug.log", timestamp)

		// Fall back to stderr when the file cannot be created.
		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err == nil {
			output = f
		}
	}

	return NewLoggerWithWriter(output)
}

// IsDebug reports whether debug logging is enabled.
func IsDebug() bool {
	return Level(os.Getenv(EnvLevel)) == log.DebugLevel
}
