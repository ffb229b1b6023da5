// Package app assembles the content, geocoding and distance stack from config
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/umnpray/umnpray/internal/config"
	"github.com/umnpray/umnpray/internal/content"
	"github.com/umnpray/umnpray/internal/distance"
	"github.com/umnpray/umnpray/internal/geocode"
	"github.com/umnpray/umnpray/internal/maps"
)

// Stack is everything that talks to content storage or the maps provider
type Stack struct {
	Content  *content.Cached
	Maps     *maps.Client
	Geocoder *geocode.Geocoder
	Resolver *distance.Resolver

	closers []func()
}

// Build opens the content store and wires the maps client. Content is
// loaded eagerly so a bad file or DSN fails at startup.
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Stack, error) {
	s := &Stack{}

	store, err := s.openContent(ctx, cfg, log)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Content = content.NewCached(store, cfg.CacheTTL)
	s.closers = append(s.closers, s.Content.Close)

	s.Maps = maps.NewClient(cfg.GoogleMapsAPIKey,
		maps.WithBaseURL(cfg.MapsBaseURL),
		maps.WithTimeout(cfg.HTTPTimeout),
	)
	if !s.Maps.HasAPIKey() {
		log.Warn("maps_key_missing", "effect", "geocoding and walking distances unavailable")
	}

	s.Geocoder = geocode.New(s.Maps, s.geocodeCache(ctx, cfg, log))
	s.Resolver = distance.NewResolver(s.Maps)
	return s, nil
}

func (s *Stack) openContent(ctx context.Context, cfg *config.Config, log *slog.Logger) (content.Store, error) {
	switch cfg.ContentSource {
	case config.SourcePostgres:
		db, err := content.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		s.closers = append(s.closers, func() { db.Close() })
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		log.Info("content_source", "source", "postgres")
		return content.NewPostgresStore(db), nil

	default:
		fs := content.NewFileStore()
		if err := fs.Load(cfg.SpacesFile); err != nil {
			return nil, fmt.Errorf("loading spaces: %w", err)
		}
		log.Info("content_source", "source", "file", "path", cfg.SpacesFile, "spaces", fs.Count())
		return fs, nil
	}
}

// geocodeCache prefers redis and falls back to memory when redis is unset
// or unreachable.
func (s *Stack) geocodeCache(ctx context.Context, cfg *config.Config, log *slog.Logger) geocode.Cache {
	if rdb := geocode.OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); rdb != nil {
		err := rdb.Ping(ctx).Err()
		if err == nil {
			s.closers = append(s.closers, func() { rdb.Close() })
			log.Info("geocode_cache", "backend", "redis", "addr", cfg.RedisAddr)
			return geocode.NewRedisCache(rdb, cfg.GeocodeCacheTTL)
		}
		rdb.Close()
		log.Warn("geocode_cache_redis_unavailable", "addr", cfg.RedisAddr, "err", err)
	}

	mem := geocode.NewMemoryCache(cfg.GeocodeCacheTTL)
	s.closers = append(s.closers, mem.Close)
	log.Info("geocode_cache", "backend", "memory")
	return mem
}

// Close releases everything Build opened, newest first
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
