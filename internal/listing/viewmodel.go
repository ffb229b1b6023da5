package listing

import (
	"log/slog"
	"net/url"
	"sync"

	"github.com/umnpray/umnpray/internal/consent"
	"github.com/umnpray/umnpray/internal/distance"
	"github.com/umnpray/umnpray/internal/logger"
	"github.com/umnpray/umnpray/internal/models"
)

const defaultGeocodeConcurrency = 8

// Deps are the collaborators a ViewModel works through. Any of them may be
// nil: a nil Locator behaves as unsupported geolocation, a nil Geocoder
// skips address lookups, a nil Consent store remembers nothing.
type Deps struct {
	Locator            Locator
	Geocoder           Geocoder
	Distances          distance.BatchResolver
	Consent            consent.Store
	Navigator          Navigator
	Permissions        PermissionQuerier
	PageSize           int
	GeocodeConcurrency int
}

// ViewModel is the listing state for one page session
type ViewModel struct {
	mu sync.Mutex

	deps   Deps
	source []models.Space
	state  ViewState

	origin    *models.Coordinates
	distances map[string]*models.ResolvedDistance

	// generation increments whenever a sort is requested or abandoned;
	// activation results carrying an older value are dropped.
	generation uint64
	autoRan    bool

	log *slog.Logger
}

// New creates a view model over source, starting from the decoded query
func New(source []models.Space, query url.Values, deps Deps) *ViewModel {
	if deps.GeocodeConcurrency <= 0 {
		deps.GeocodeConcurrency = defaultGeocodeConcurrency
	}
	return &ViewModel{
		deps:   deps,
		source: source,
		state:  Decode(query),
		log:    logger.L(),
	}
}

// Snapshot is a consistent read of the model
type Snapshot struct {
	State  ViewState
	Query  string
	Page   Page
	Origin *models.Coordinates

	// GeocodeLimit bounds concurrent lookups when rendering needs positions
	GeocodeLimit int
}

// Snapshot returns the current state and what it displays
func (vm *ViewModel) Snapshot() Snapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return Snapshot{
		State:  vm.state,
		Query:  QueryString(vm.state),
		Page:   Derive(vm.source, vm.distances, vm.state, vm.deps.PageSize),
		Origin: vm.origin,

		GeocodeLimit: vm.deps.GeocodeConcurrency,
	}
}

// State returns the current view state
func (vm *ViewModel) State() ViewState {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// DisplayedItems is the filtered, sorted and paginated sequence
func (vm *ViewModel) DisplayedItems() []models.DisplayItem {
	return vm.Snapshot().Page.Items
}

// SetCampusFilter changes the campus filter, ending any distance sort
func (vm *ViewModel) SetCampusFilter(f CampusFilter) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.generation++
	vm.clearSortLocked()
	vm.applyLocked(SetCampus{Campus: f})
}

// ToggleViewMode flips between list and map
func (vm *ViewModel) ToggleViewMode() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.applyLocked(ToggleView{})
}

// ToggleShowAll expands or collapses the list. On expand it returns the
// index of the first newly revealed item for a staggered reveal, or -1
// when nothing new is shown.
func (vm *ViewModel) ToggleShowAll() (revealFrom int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	before := Derive(vm.source, vm.distances, vm.state, vm.deps.PageSize)
	vm.applyLocked(ToggleShowAll{})

	if !vm.state.ShowAll || vm.state.View == MapView || !before.HasMore {
		return -1
	}
	return len(before.Items)
}

// DeactivateDistanceSort restores source order and forgets consent.
// When no sort is active it changes nothing.
func (vm *ViewModel) DeactivateDistanceSort() {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.generation++
	if !vm.state.DistanceSort {
		return
	}
	vm.clearSortLocked()
	vm.applyLocked(SetDistanceSort{Active: false})
	vm.setConsent(false)
}

// Restore applies a state decoded from a navigated URL as is, without
// collapsing ShowAll. The distance sort is left alone.
func (vm *ViewModel) Restore(query url.Values) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.state = Reduce(vm.state, Restore{State: Decode(query)})
}

// applyLocked reduces a and writes the URL if its visible part changed
func (vm *ViewModel) applyLocked(a Action) {
	prev := vm.state
	vm.state = Reduce(prev, a)
	if vm.deps.Navigator != nil && vm.state.URLState() != prev.URLState() {
		vm.deps.Navigator.Replace(Encode(vm.state))
	}
}

func (vm *ViewModel) clearSortLocked() {
	vm.origin = nil
	vm.distances = nil
}

func (vm *ViewModel) setConsent(granted bool) {
	if vm.deps.Consent != nil {
		vm.deps.Consent.Set(granted)
	}
}
