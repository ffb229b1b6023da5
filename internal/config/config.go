// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Content sources
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Port string
	Env  string

	GoogleMapsAPIKey   string
	MapsBaseURL        string
	HTTPTimeout        time.Duration
	GeocodeCacheTTL    time.Duration
	GeocodeConcurrency int

	ContentSource string
	SpacesFile    string
	DatabaseURL   string
	CacheTTL      time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionTTL     time.Duration
	PageSizeNarrow int
	PageSizeWide   int
	CookieSecure   bool

	WebhookSecret string
	SentryDSN     string
}

// Load reads configuration from .env and environment variables with sensible defaults.
func Load() *Config {
	return LoadWith(viper.New())
}

// LoadWith reads configuration through v, so callers can bind command-line
// flags over the environment first.
func LoadWith(v *viper.Viper) *Config {
	_ = godotenv.Load()

	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		Port:               v.GetString("PORT"),
		Env:                v.GetString("ENV"),
		GoogleMapsAPIKey:   v.GetString("GOOGLE_MAPS_API_KEY"),
		MapsBaseURL:        v.GetString("MAPS_BASE_URL"),
		HTTPTimeout:        seconds(v, "HTTP_TIMEOUT_SECONDS"),
		GeocodeCacheTTL:    seconds(v, "GEOCODE_CACHE_TTL_SECONDS"),
		GeocodeConcurrency: v.GetInt("GEOCODE_CONCURRENCY"),
		ContentSource:      v.GetString("CONTENT_SOURCE"),
		SpacesFile:         v.GetString("SPACES_FILE"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		CacheTTL:           seconds(v, "CACHE_TTL_SECONDS"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		SessionTTL:         seconds(v, "SESSION_TTL_SECONDS"),
		PageSizeNarrow:     v.GetInt("PAGE_SIZE_NARROW"),
		PageSizeWide:       v.GetInt("PAGE_SIZE_WIDE"),
		CookieSecure:       v.GetBool("COOKIE_SECURE"),
		WebhookSecret:      v.GetString("SANITY_WEBHOOK_SECRET"),
		SentryDSN:          v.GetString("SENTRY_DSN"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("MAPS_BASE_URL", "https://maps.googleapis.com")
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 10)
	v.SetDefault("GEOCODE_CACHE_TTL_SECONDS", 86400)
	v.SetDefault("GEOCODE_CONCURRENCY", 8)
	v.SetDefault("CONTENT_SOURCE", SourceFile)
	v.SetDefault("SPACES_FILE", "data/spaces.json")
	v.SetDefault("CACHE_TTL_SECONDS", 300)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL_SECONDS", 1800)
	v.SetDefault("PAGE_SIZE_NARROW", 6)
	v.SetDefault("PAGE_SIZE_WIDE", 9)
	v.SetDefault("COOKIE_SECURE", false)
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Second
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// HasMapsKey returns true if a Google Maps API key is configured.
func (c *Config) HasMapsKey() bool {
	return c.GoogleMapsAPIKey != ""
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	var errs []error

	switch c.ContentSource {
	case SourceFile:
		if c.SpacesFile == "" {
			errs = append(errs, errors.New("SPACES_FILE is required when CONTENT_SOURCE=file"))
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when CONTENT_SOURCE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CONTENT_SOURCE %q", c.ContentSource))
	}

	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT_SECONDS must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL_SECONDS must be positive"))
	}
	if c.GeocodeConcurrency < 1 {
		errs = append(errs, errors.New("GEOCODE_CONCURRENCY must be at least 1"))
	}
	if c.PageSizeNarrow < 1 || c.PageSizeWide < 1 {
		errs = append(errs, errors.New("page sizes must be at least 1"))
	}

	return errors.Join(errs...)
}
