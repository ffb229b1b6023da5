// Package main is the entry point for the umnpray server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/umnpray/umnpray/internal/api"
	"github.com/umnpray/umnpray/internal/app"
	"github.com/umnpray/umnpray/internal/config"
	"github.com/umnpray/umnpray/internal/logger"
	"github.com/umnpray/umnpray/internal/session"
	"github.com/umnpray/umnpray/internal/telemetry"
)

var version = "dev"

func main() {
	log := logger.Setup()
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		log.Error("config_invalid", "err", err)
		os.Exit(1)
	}

	if err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Env,
		Release:     "umnpray@" + version,
	}, log); err != nil {
		log.Warn("sentry_init_failed", "err", err)
	}
	defer telemetry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("startup_failed", "err", err)
		telemetry.ReportFatal(err, map[string]string{"stage": "startup"}, 2*time.Second)
		os.Exit(1)
	}
	defer stack.Close()

	registry := session.NewRegistry(stack.Content, stack.Geocoder, stack.Resolver, session.Options{
		TTL:                cfg.SessionTTL,
		PageSizeNarrow:     cfg.PageSizeNarrow,
		PageSizeWide:       cfg.PageSizeWide,
		GeocodeConcurrency: cfg.GeocodeConcurrency,
		CookieSecure:       cfg.CookieSecure,
	})
	defer registry.Close()

	router := api.NewRouter(cfg, api.Services{
		Spaces:    stack.Content,
		Geocoder:  stack.Geocoder,
		Distances: stack.Resolver,
		Content:   stack.Content,
		Sessions:  registry,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	fmt.Printf("🕌 umnpray server starting on port %s\n", cfg.Port)
	fmt.Printf("📍 Environment: %s\n", cfg.Env)
	fmt.Printf("🗺️  Google Maps: %v\n", cfg.HasMapsKey())
	fmt.Printf("🔗 http://localhost:%s\n", cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server_failed", "err", err)
			telemetry.ReportFatal(err, map[string]string{"stage": "serve"}, 2*time.Second)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	log.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown_failed", "err", err)
	}
}
