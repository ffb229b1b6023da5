// Package content serves the prayer-space records, in their curated order.
package content

import (
	"context"
	"errors"

	"github.com/umnpray/umnpray/internal/models"
)

// ErrNotFound is returned by Get for an unknown slug or ID
var ErrNotFound = errors.New("space not found")

// Store is a read-only source of spaces
type Store interface {
	// All returns every space in source order
	All(ctx context.Context) ([]models.Space, error)
	// Get finds a space by slug or ID
	Get(ctx context.Context, key string) (models.Space, error)
}

// find looks a key up by slug first, then by ID
func find(spaces []models.Space, key string) (models.Space, error) {
	for _, s := range spaces {
		if s.Slug == key {
			return s, nil
		}
	}
	for _, s := range spaces {
		if s.ID == key {
			return s, nil
		}
	}
	return models.Space{}, ErrNotFound
}
