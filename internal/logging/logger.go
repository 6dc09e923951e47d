// Package logging wraps charmbracelet/log. The TUI owns the terminal, so
// log output goes to a file or is discarded.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is the global logger instance
	Logger = log.NewWithOptions(io.Discard, log.Options{})

	logFile *os.File
)

// Init opens path for appending and routes all logging there. An empty path
// keeps logging discarded.
func Init(path, level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	if path == "" {
		Logger.SetLevel(lvl)
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	Logger = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
		Prefix:          "race",
	})
	return nil
}

// SetOutput replaces the destination, e.g. stderr for export mode.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// Close closes the log file
func Close() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func Debug(msg string, keyvals ...interface{}) { Logger.Debug(msg, keyvals...) }
func Info(msg string, keyvals ...interface{})  { Logger.Info(msg, keyvals...) }
func Warn(msg string, keyvals ...interface{})  { Logger.Warn(msg, keyvals...) }
func Error(msg string, keyvals ...interface{}) { Logger.Error(msg, keyvals...) }

// Fatal logs to stderr as well as the log file and exits.
func Fatal(msg string, keyvals ...interface{}) {
	if logFile != nil {
		Logger.Error(msg, keyvals...)
	}
	log.NewWithOptions(os.Stderr, log.Options{}).Fatal(msg, keyvals...)
}
