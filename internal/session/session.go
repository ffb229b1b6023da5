// Package session keeps one listing view model per page session, held
// server-side and addressed by an opaque ID.
package session

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/umnpray/umnpray/internal/cache"
	"github.com/umnpray/umnpray/internal/consent"
	"github.com/umnpray/umnpray/internal/content"
	"github.com/umnpray/umnpray/internal/distance"
	"github.com/umnpray/umnpray/internal/geolocation"
	"github.com/umnpray/umnpray/internal/listing"
	"github.com/umnpray/umnpray/internal/logger"
	"github.com/umnpray/umnpray/internal/metrics"
	"github.com/umnpray/umnpray/internal/models"
)

// Viewport hints which page size a session uses
type Viewport string

const (
	Narrow Viewport = "narrow"
	Wide   Viewport = "wide"
)

// ParseViewport defaults to Wide
func ParseViewport(s string) Viewport {
	if Viewport(s) == Narrow {
		return Narrow
	}
	return Wide
}

// Session is one page session. Requests on a session are applied one at
// a time so each sees its own consent cookie and reported position.
type Session struct {
	ID       string
	Viewport Viewport
	Created  time.Time

	VM      *listing.ViewModel
	URL     *listing.URLRecorder
	Consent *consent.CookieStore

	mu      sync.Mutex
	locator *reportedLocator
}

// Apply binds the request's consent cookie and reported position, runs fn
// and writes any consent change onto w. Call it before writing the body.
// A nil report means the client offered no position.
func (s *Session) Apply(w http.ResponseWriter, r *http.Request, report *geolocation.ReportedPosition, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Consent.Load(r)
	s.locator.set(report)
	fn()
	s.Consent.Flush(w)
}

// reportedLocator answers with whatever position the current request carried
type reportedLocator struct {
	mu     sync.Mutex
	report *geolocation.ReportedPosition
}

func (l *reportedLocator) set(report *geolocation.ReportedPosition) {
	l.mu.Lock()
	l.report = report
	l.mu.Unlock()
}

// AwaitingPosition is true when the request carried no report at all
func (l *reportedLocator) AwaitingPosition() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.report == nil
}

func (l *reportedLocator) CurrentPosition(ctx context.Context) (models.Coordinates, error) {
	l.mu.Lock()
	report := l.report
	l.mu.Unlock()

	if report == nil {
		return geolocation.NewLocator(nil).CurrentPosition(ctx)
	}
	return geolocation.NewLocator(*report).CurrentPosition(ctx)
}

// Options configure a Registry
type Options struct {
	TTL                time.Duration
	PageSizeNarrow     int
	PageSizeWide       int
	GeocodeConcurrency int
	CookieSecure       bool
}

// Registry creates and tracks sessions, expiring idle ones
type Registry struct {
	store     content.Store
	geocoder  listing.Geocoder
	distances distance.BatchResolver
	opts      Options
	sessions  *cache.Cache[*Session]
}

// NewRegistry creates a registry whose sessions read spaces from store
func NewRegistry(store content.Store, geocoder listing.Geocoder, distances distance.BatchResolver, opts Options) *Registry {
	log := logger.L()
	return &Registry{
		store:     store,
		geocoder:  geocoder,
		distances: distances,
		opts:      opts,
		sessions: cache.New[*Session](opts.TTL, cache.WithEvictHook(func(id string, _ *Session) {
			metrics.SessionsActive.Dec()
			log.Debug("session_expired", "session_id", id)
		})),
	}
}

// Create starts a session from the page's initial query
func (r *Registry) Create(ctx context.Context, query url.Values, viewport Viewport, permission listing.StaticPermission) (*Session, error) {
	spaces, err := r.store.All(ctx)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:       uuid.NewString(),
		Viewport: viewport,
		Created:  time.Now(),
		URL:      listing.NewURLRecorder(listing.Encode(listing.Decode(query))),
		Consent:  consent.NewCookieStore(r.opts.CookieSecure),
		locator:  &reportedLocator{},
	}
	s.VM = listing.New(spaces, query, listing.Deps{
		Locator:            s.locator,
		Geocoder:           r.geocoder,
		Distances:          r.distances,
		Consent:            s.Consent,
		Navigator:          s.URL,
		Permissions:        permission,
		PageSize:           r.PageSize(viewport),
		GeocodeConcurrency: r.opts.GeocodeConcurrency,
	})

	r.sessions.Set(s.ID, s)
	metrics.SessionsActive.Inc()
	return s, nil
}

// Get returns a live session and extends its lifetime
func (r *Registry) Get(id string) (*Session, bool) {
	return r.sessions.Touch(id)
}

// Delete ends a session
func (r *Registry) Delete(id string) {
	r.sessions.Delete(id)
}

// Count returns the number of tracked sessions
func (r *Registry) Count() int {
	return r.sessions.Size()
}

// PageSize picks the configured page size for a viewport
func (r *Registry) PageSize(v Viewport) int {
	if v == Narrow {
		return r.opts.PageSizeNarrow
	}
	return r.opts.PageSizeWide
}

// Close stops the expiry sweeper
func (r *Registry) Close() {
	r.sessions.Close()
}
