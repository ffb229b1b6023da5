// Package telemetry wires Sentry error reporting
package telemetry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryConfig configures error reporting; an empty DSN disables it
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
}

var enabled bool

// InitSentry initializes the Sentry client.
func InitSentry(cfg SentryConfig, logger *slog.Logger) error {
	if cfg.DSN == "" {
		logger.Warn("sentry_disabled", "reason", "SENTRY_DSN not configured")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			// Never ship the consent cookie or client positions
			if event.Request != nil {
				delete(event.Request.Headers, "Cookie")
				delete(event.Request.Headers, "Authorization")
				event.Request.Cookies = ""
				event.Request.Data = ""
				event.Request.QueryString = ""
			}
			return event
		},
	})
	if err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}

	enabled = true
	logger.Info("sentry_initialized", "environment", cfg.Environment)
	return nil
}

// CaptureException reports err with string tags
func CaptureException(err error, tags map[string]string) {
	if !enabled || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// CaptureMessage reports a warning-level message with string tags
func CaptureMessage(msg string, tags map[string]string) {
	if !enabled {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelWarning)
		scope.SetTags(tags)
		sentry.CaptureMessage(msg)
	})
}

// Flush waits for buffered events to be delivered
func Flush(timeout time.Duration) {
	if enabled {
		sentry.Flush(timeout)
	}
}

// ReportFatal captures err and blocks until it is delivered or timeout
// passes. Call it before os.Exit, which skips deferred flushes.
func ReportFatal(err error, tags map[string]string, timeout time.Duration) {
	CaptureException(err, tags)
	Flush(timeout)
}
