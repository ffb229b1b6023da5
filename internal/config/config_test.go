package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "ENV", "CONTENT_SOURCE", "HTTP_TIMEOUT_SECONDS", "SESSION_TTL_SECONDS", "PAGE_SIZE_NARROW", "PAGE_SIZE_WIDE", "GEOCODE_CONCURRENCY"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, SourceFile, cfg.ContentSource)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 6, cfg.PageSizeNarrow)
	assert.Equal(t, 9, cfg.PageSizeWide)
	assert.True(t, cfg.IsDevelopment())
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "8080")
	t.Setenv("GOOGLE_MAPS_API_KEY", "k")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("PAGE_SIZE_WIDE", "12")
	t.Setenv("ENV", "production")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.HasMapsKey())
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 12, cfg.PageSizeWide)
	assert.False(t, cfg.IsDevelopment())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			ContentSource:      SourceFile,
			SpacesFile:         "data/spaces.json",
			HTTPTimeout:        time.Second,
			SessionTTL:         time.Minute,
			GeocodeConcurrency: 1,
			PageSizeNarrow:     6,
			PageSizeWide:       9,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"postgres without dsn", func(c *Config) { c.ContentSource = SourcePostgres }, "DATABASE_URL"},
		{"unknown source", func(c *Config) { c.ContentSource = "sanity" }, "unknown CONTENT_SOURCE"},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }, "HTTP_TIMEOUT_SECONDS"},
		{"zero concurrency", func(c *Config) { c.GeocodeConcurrency = 0 }, "GEOCODE_CONCURRENCY"},
		{"zero page size", func(c *Config) { c.PageSizeNarrow = 0 }, "page sizes"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadWithOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPACES_FILE", "from-env.json")

	v := viper.New()
	v.Set("SPACES_FILE", "from-flag.json")

	cfg := LoadWith(v)
	assert.Equal(t, "from-flag.json", cfg.SpacesFile)
}
