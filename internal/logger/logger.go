// Package logger configures the process-wide slog logger from LOG_LEVEL and LOG_FORMAT
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// Setup builds the default logger writing to stderr
func Setup() *slog.Logger {
	return SetupWriter(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// SetupWriter builds the default logger for an explicit writer, level and format
func SetupWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	l := slog.New(h)

	mu.Lock()
	defaultLogger = l
	mu.Unlock()

	slog.SetDefault(l)
	return l
}

// ParseLevel maps debug|info|warn|error to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// L returns the default logger, setting it up on first use
func L() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()

	if l == nil {
		return Setup()
	}
	return l
}
