package handlers

import (
	"context"

	"github.com/umnpray/umnpray/internal/models"
)

// SpaceProvider abstracts the content store for testability.
type SpaceProvider interface {
	All(ctx context.Context) ([]models.Space, error)
	Get(ctx context.Context, key string) (models.Space, error)
}

// GeocodeProvider resolves addresses for spaces without coordinates.
type GeocodeProvider interface {
	Resolve(ctx context.Context, address string) *models.Coordinates
}

// DistanceProvider resolves walking distances in one batch. Per-destination
// failures are nil entries; the error reports a failure of the whole batch.
type DistanceProvider interface {
	Resolve(ctx context.Context, origin models.Coordinates, destinations []models.Coordinates) ([]*models.ResolvedDistance, error)
	ResolveBatch(ctx context.Context, origin models.Coordinates, destinations []models.Coordinates) []*models.ResolvedDistance
}

// CacheInvalidator drops cached content.
type CacheInvalidator interface {
	Invalidate()
}
