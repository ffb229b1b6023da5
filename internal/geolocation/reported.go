package geolocation

import (
	"context"
	"time"

	"github.com/umnpray/umnpray/internal/models"
)

// ReportedPosition is a position the client obtained itself and sent along
// with its request, or the error it got instead.
type ReportedPosition struct {
	Coordinates *models.Coordinates
	Timestamp   time.Time
	Failure     *Code
}

// Position implements Capability
func (r ReportedPosition) Position(_ context.Context, _ Options) (Position, error) {
	if r.Failure != nil {
		return Position{}, &Error{Code: *r.Failure}
	}
	if r.Coordinates == nil {
		return Position{}, &Error{Code: PositionUnavailable}
	}
	return Position{Coordinates: *r.Coordinates, Timestamp: r.Timestamp}, nil
}

// Fixed always reports the same coordinates, as taken now
type Fixed models.Coordinates

// Position implements Capability
func (f Fixed) Position(context.Context, Options) (Position, error) {
	return Position{Coordinates: models.Coordinates(f), Timestamp: time.Now()}, nil
}
