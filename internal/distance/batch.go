// Package distance resolves walking distances from one origin to many
// destinations, mapping provider failures to per-destination nils.
package distance

import (
	"context"
	"errors"
	"log/slog"

	"github.com/umnpray/umnpray/internal/location"
	"github.com/umnpray/umnpray/internal/logger"
	"github.com/umnpray/umnpray/internal/maps"
	"github.com/umnpray/umnpray/internal/models"
)

// BatchResolver returns one entry per destination, in order; nil marks an
// unresolved destination. It never fails as a whole.
type BatchResolver interface {
	ResolveBatch(ctx context.Context, origin models.Coordinates, destinations []models.Coordinates) []*models.ResolvedDistance
}

// MatrixLookup is the distance-matrix capability of the mapping provider
type MatrixLookup interface {
	WalkingMatrix(ctx context.Context, origin models.Coordinates, destinations []models.Coordinates) ([]maps.Element, error)
}

// Resolver is the Batch Walking-Distance Adapter backed by the provider directly
type Resolver struct {
	matrix    MatrixLookup
	chunkSize int
	log       *slog.Logger
}

// NewResolver creates a resolver issuing at most maps.MaxDestinations per call
func NewResolver(matrix MatrixLookup) *Resolver {
	return &Resolver{matrix: matrix, chunkSize: maps.MaxDestinations, log: logger.L()}
}

// ResolveBatch looks up every destination, logging and absorbing failures
func (r *Resolver) ResolveBatch(ctx context.Context, origin models.Coordinates, destinations []models.Coordinates) []*models.ResolvedDistance {
	results, _ := r.Resolve(ctx, origin, destinations)
	return results
}

// Resolve looks up every destination. Batches larger than the provider
// limit are split into sequential chunks; a failed chunk only blanks its
// span. The error is non-nil only when every chunk failed.
func (r *Resolver) Resolve(ctx context.Context, origin models.Coordinates, destinations []models.Coordinates) ([]*models.ResolvedDistance, error) {
	results := make([]*models.ResolvedDistance, len(destinations))

	var errs []error
	chunks := 0
	for start := 0; start < len(destinations); start += r.chunkSize {
		end := min(start+r.chunkSize, len(destinations))
		chunks++
		if err := r.resolveChunk(ctx, origin, destinations[start:end], results[start:end]); err != nil {
			errs = append(errs, err)
		}
	}

	if chunks > 0 && len(errs) == chunks {
		return results, errs[0]
	}
	return results, nil
}

func (r *Resolver) resolveChunk(ctx context.Context, origin models.Coordinates, dests []models.Coordinates, out []*models.ResolvedDistance) error {
	elements, err := r.matrix.WalkingMatrix(ctx, origin, dests)
	if err != nil {
		r.logFailure(len(dests), err)
		return err
	}

	for i, el := range elements {
		if i >= len(out) || !el.OK() {
			continue
		}
		out[i] = &models.ResolvedDistance{
			Miles:   location.MetersToMiles(el.Meters),
			Minutes: location.SecondsToMinutes(el.Seconds),
		}
	}
	return nil
}

func (r *Resolver) logFailure(n int, err error) {
	var apiErr *maps.Error
	switch {
	case errors.Is(err, maps.ErrMissingKey):
		r.log.Error("distance_matrix_failed", "destinations", n, "reason", "missing_key")
	case errors.As(err, &apiErr) && apiErr.Status != "":
		r.log.Error("distance_matrix_failed", "destinations", n, "status", apiErr.Status)
	default:
		r.log.Error("distance_matrix_failed", "destinations", n, "err", err)
	}
}

// FailureMessage is the client-facing text for a whole-batch failure
func FailureMessage(err error) string {
	var apiErr *maps.Error
	switch {
	case errors.Is(err, maps.ErrMissingKey):
		return "Google Maps API key not configured"
	case errors.As(err, &apiErr) && apiErr.Status != "":
		return "Distance Matrix API error: " + apiErr.Status
	case errors.As(err, &apiErr) && apiErr.StatusCode != 0:
		return "Distance Matrix API request failed"
	default:
		return "Internal server error"
	}
}
