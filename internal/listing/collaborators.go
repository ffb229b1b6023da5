package listing

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/umnpray/umnpray/internal/models"
)

// Navigator receives the canonical query whenever the URL-visible state changes
type Navigator interface {
	Replace(query url.Values)
}

// Locator yields the user's position
type Locator interface {
	CurrentPosition(ctx context.Context) (models.Coordinates, error)
}

// PendingLocator is a Locator that can tell it has no position to offer
// yet, such as one fed by a client that has not reported one
type PendingLocator interface {
	Locator
	AwaitingPosition() bool
}

// Geocoder resolves an address, returning nil when it cannot
type Geocoder interface {
	Resolve(ctx context.Context, address string) *models.Coordinates
}

// Permission is the runtime's answer to a geolocation permission query
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionPrompt  Permission = "prompt"
)

// ErrPermissionUnknown means the runtime cannot report permission state
var ErrPermissionUnknown = errors.New("geolocation permission state unavailable")

// PermissionQuerier probes the runtime's permission state
type PermissionQuerier interface {
	QueryGeolocation(ctx context.Context) (Permission, error)
}

// StaticPermission answers with a fixed, previously reported state.
// The empty value answers ErrPermissionUnknown.
type StaticPermission Permission

// ParsePermission reads a reported state; unrecognized input is unknown
func ParsePermission(s string) StaticPermission {
	switch p := Permission(strings.ToLower(strings.TrimSpace(s))); p {
	case PermissionGranted, PermissionDenied, PermissionPrompt:
		return StaticPermission(p)
	}
	return ""
}

func (p StaticPermission) QueryGeolocation(context.Context) (Permission, error) {
	if p == "" {
		return "", ErrPermissionUnknown
	}
	return Permission(p), nil
}

// URLRecorder is a Navigator that remembers the latest query
type URLRecorder struct {
	mu    sync.RWMutex
	query url.Values
}

// NewURLRecorder starts at the given query
func NewURLRecorder(initial url.Values) *URLRecorder {
	return &URLRecorder{query: initial}
}

func (r *URLRecorder) Replace(query url.Values) {
	r.mu.Lock()
	r.query = query
	r.mu.Unlock()
}

// Query returns the encoded query, without the leading "?"
func (r *URLRecorder) Query() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.query.Encode()
}
