// Package geocode resolves space addresses to coordinates, with campus
// context added and failures reduced to an absent result.
package geocode

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/umnpray/umnpray/internal/logger"
	"github.com/umnpray/umnpray/internal/maps"
	"github.com/umnpray/umnpray/internal/metrics"
	"github.com/umnpray/umnpray/internal/models"
)

// CampusContext disambiguates bare building names
const CampusContext = "University of Minnesota, Minneapolis, MN"

// Lookup is the single-address geocoding capability of the mapping provider
type Lookup interface {
	Geocode(ctx context.Context, address string) (*maps.GeocodeResult, error)
}

// Cache stores successful lookups keyed by the contextualized address
type Cache interface {
	Get(ctx context.Context, key string) (models.Coordinates, bool, error)
	Set(ctx context.Context, key string, c models.Coordinates) error
}

// Geocoder is the Geocoding Adapter
type Geocoder struct {
	lookup Lookup
	cache  Cache
	log    *slog.Logger
}

// New creates a geocoder; cache may be nil
func New(lookup Lookup, cache Cache) *Geocoder {
	return &Geocoder{lookup: lookup, cache: cache, log: logger.L()}
}

// WithContext appends the campus context unless the address already names Minneapolis
func WithContext(address string) string {
	if strings.Contains(strings.ToLower(address), "minneapolis") {
		return address
	}
	return address + ", " + CampusContext
}

// Resolve returns the coordinates for address, or nil when it cannot be
// resolved. Failures are logged, never returned. No retry.
func (g *Geocoder) Resolve(ctx context.Context, address string) *models.Coordinates {
	query := WithContext(address)
	key := cacheKey(query)

	if g.cache != nil {
		c, ok, err := g.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.GeocodeCacheTotal.WithLabelValues("error").Inc()
			g.log.Warn("geocode_cache_error", "err", err)
		case ok:
			metrics.GeocodeCacheTotal.WithLabelValues("hit").Inc()
			return &c
		default:
			metrics.GeocodeCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	res, err := g.lookup.Geocode(ctx, query)
	if err != nil {
		g.logFailure(address, err)
		return nil
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, key, res.Location); err != nil {
			g.log.Warn("geocode_cache_error", "err", err)
		}
	}

	c := res.Location
	return &c
}

func (g *Geocoder) logFailure(address string, err error) {
	var apiErr *maps.Error
	switch {
	case errors.Is(err, maps.ErrMissingKey):
		g.log.Error("geocode_failed", "address", address, "reason", "missing_key")
	case errors.As(err, &apiErr) && apiErr.Status != "":
		g.log.Warn("geocode_failed", "address", address, "status", apiErr.Status)
	default:
		g.log.Warn("geocode_failed", "address", address, "err", err)
	}
}

func cacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
