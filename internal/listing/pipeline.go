package listing

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/umnpray/umnpray/internal/geolocation"
	"github.com/umnpray/umnpray/internal/metrics"
	"github.com/umnpray/umnpray/internal/models"
	"github.com/umnpray/umnpray/internal/telemetry"
)

var (
	// ErrSuperseded is returned by an activation overtaken by a newer request
	ErrSuperseded = errors.New("distance sort superseded by a newer request")

	// ErrNoDistances means no space could be given a walking distance
	ErrNoDistances = errors.New("no walking distances could be resolved")

	// ErrAwaitingPosition means auto-activation is warranted but the
	// locator has no position yet. Nothing was attempted and consent is kept.
	ErrAwaitingPosition = errors.New("distance sort awaiting a position")
)

// Stage is the pipeline step an activation failed at
type Stage string

const (
	StageLocation  Stage = "location"
	StageDistances Stage = "distances"
)

// ActivationError is a failure the user should be told about
type ActivationError struct {
	Stage Stage
	Err   error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("distance sort failed at %s: %v", e.Stage, e.Err)
}

func (e *ActivationError) Unwrap() error { return e.Err }

// Message is the user-visible notification text
func (e *ActivationError) Message() string {
	var gerr *geolocation.Error
	if errors.As(e.Err, &gerr) {
		return gerr.Message()
	}
	if e.Stage == StageLocation {
		return "Unable to get your location"
	}
	return "Unable to calculate walking distances. Please try again."
}

// ActivateDistanceSort sorts the listing by walking distance from the
// user. Geolocation failure leaves the view state untouched and forgets
// consent. Once located the sort is marked active, spaces without
// coordinates are geocoded concurrently, distances are resolved in one
// batch and consent is remembered. If no distance at all resolves the
// sort is reverted and consent cleared. Individual unresolved spaces
// simply sort last.
func (vm *ViewModel) ActivateDistanceSort(ctx context.Context) error {
	vm.mu.Lock()
	vm.generation++
	gen := vm.generation
	source := vm.source
	vm.mu.Unlock()

	origin, err := vm.locate(ctx)
	if err != nil {
		vm.mu.Lock()
		// An overtaken activation may have marked the sort active before
		// resolving anything; nothing will complete it now.
		if gen == vm.generation && vm.state.DistanceSort && vm.distances == nil {
			vm.clearSortLocked()
			vm.applyLocked(SetDistanceSort{Active: false})
		}
		vm.mu.Unlock()

		vm.setConsent(false)
		metrics.DistanceSortTotal.WithLabelValues("location_error").Inc()
		vm.log.Warn("distance_sort_location_failed", "err", err)
		return &ActivationError{Stage: StageLocation, Err: err}
	}

	vm.mu.Lock()
	if gen != vm.generation {
		vm.mu.Unlock()
		metrics.DistanceSortTotal.WithLabelValues("superseded").Inc()
		return ErrSuperseded
	}
	vm.applyLocked(SetDistanceSort{Active: true})
	vm.origin = &origin
	vm.distances = nil
	vm.mu.Unlock()

	distances, resolved := vm.resolveDistances(ctx, origin, source)

	vm.mu.Lock()
	defer vm.mu.Unlock()

	if gen != vm.generation {
		metrics.DistanceSortTotal.WithLabelValues("superseded").Inc()
		return ErrSuperseded
	}

	if resolved == 0 && len(source) > 0 {
		vm.clearSortLocked()
		vm.applyLocked(SetDistanceSort{Active: false})
		vm.setConsent(false)

		metrics.DistanceSortTotal.WithLabelValues("failed").Inc()
		vm.log.Error("distance_sort_failed", "spaces", len(source))
		telemetry.CaptureMessage("distance sort resolved no distances", map[string]string{
			"spaces": fmt.Sprint(len(source)),
		})
		return &ActivationError{Stage: StageDistances, Err: ErrNoDistances}
	}

	vm.distances = distances
	vm.setConsent(true)

	unresolved := len(source) - resolved
	metrics.DistanceSortTotal.WithLabelValues("activated").Inc()
	metrics.UnresolvedDistancesTotal.Add(float64(unresolved))
	vm.log.Info("distance_sort_activated", "spaces", len(source), "unresolved", unresolved)
	return nil
}

// AutoActivate runs once per session before any user gesture. A granted
// permission activates the sort; when the runtime cannot say, remembered
// consent does. It reports whether an activation was attempted. When the
// locator is still waiting on a position it returns ErrAwaitingPosition
// without attempting.
func (vm *ViewModel) AutoActivate(ctx context.Context) (bool, error) {
	vm.mu.Lock()
	if vm.autoRan {
		vm.mu.Unlock()
		return false, nil
	}
	vm.autoRan = true
	vm.mu.Unlock()

	if !vm.shouldAutoActivate(ctx) {
		return false, nil
	}
	if p, ok := vm.deps.Locator.(PendingLocator); ok && p.AwaitingPosition() {
		metrics.DistanceSortTotal.WithLabelValues("awaiting_position").Inc()
		return false, ErrAwaitingPosition
	}
	return true, vm.ActivateDistanceSort(ctx)
}

func (vm *ViewModel) shouldAutoActivate(ctx context.Context) bool {
	if vm.deps.Permissions != nil {
		p, err := vm.deps.Permissions.QueryGeolocation(ctx)
		if err == nil {
			switch p {
			case PermissionGranted:
				return true
			case PermissionDenied:
				return false
			}
		}
	}
	// Some runtimes report "prompt" even after a grant, or nothing at all.
	return vm.deps.Consent != nil && vm.deps.Consent.Get()
}

func (vm *ViewModel) locate(ctx context.Context) (models.Coordinates, error) {
	if vm.deps.Locator == nil {
		return models.Coordinates{}, &geolocation.Error{Code: geolocation.Unsupported}
	}
	return vm.deps.Locator.CurrentPosition(ctx)
}

// resolveDistances geocodes spaces lacking coordinates, then asks for the
// walking distance to every space that has a position. The returned map
// holds only resolved entries.
func (vm *ViewModel) resolveDistances(ctx context.Context, origin models.Coordinates, source []models.Space) (map[string]*models.ResolvedDistance, int) {
	positions := Positions(ctx, source, vm.deps.Geocoder, vm.deps.GeocodeConcurrency)

	ids := make([]string, 0, len(source))
	dests := make([]models.Coordinates, 0, len(source))
	for i, s := range source {
		if positions[i] == nil {
			continue
		}
		ids = append(ids, s.ID)
		dests = append(dests, *positions[i])
	}

	out := make(map[string]*models.ResolvedDistance, len(ids))
	if len(dests) == 0 || vm.deps.Distances == nil {
		return out, 0
	}

	for i, d := range vm.deps.Distances.ResolveBatch(ctx, origin, dests) {
		if d != nil && i < len(ids) {
			out[ids[i]] = d
		}
	}
	return out, len(out)
}

// Positions returns known or geocoded coordinates per space, nil where
// neither is available. At most limit lookups run at once; all finish
// before it returns.
func Positions(ctx context.Context, source []models.Space, geocoder Geocoder, limit int) []*models.Coordinates {
	out := make([]*models.Coordinates, len(source))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, s := range source {
		if c, ok := s.Coordinates(); ok {
			out[i] = &c
			continue
		}
		if geocoder == nil || s.Address == "" {
			continue
		}
		g.Go(func() error {
			out[i] = geocoder.Resolve(ctx, s.Address)
			return nil
		})
	}
	_ = g.Wait()

	return out
}
