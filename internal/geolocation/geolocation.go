// Package geolocation obtains the user's current position from whatever
// capability the runtime offers, with timeout and staleness limits.
package geolocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/umnpray/umnpray/internal/models"
)

// Code classifies a geolocation failure
type Code int

const (
	Unsupported Code = iota
	PermissionDenied
	PositionUnavailable
	Timeout
)

func (c Code) String() string {
	switch c {
	case Unsupported:
		return "unsupported"
	case PermissionDenied:
		return "permission_denied"
	case PositionUnavailable:
		return "position_unavailable"
	case Timeout:
		return "timeout"
	default:
		return "code_" + strconv.Itoa(int(c))
	}
}

// ParseCode accepts the names above or the numeric codes browsers report
// (1 denied, 2 unavailable, 3 timeout).
func ParseCode(s string) (Code, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unsupported":
		return Unsupported, true
	case "permission_denied", "1":
		return PermissionDenied, true
	case "position_unavailable", "2":
		return PositionUnavailable, true
	case "timeout", "3":
		return Timeout, true
	}
	return 0, false
}

// Error is the typed failure returned by Locator
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geolocation %s: %v", e.Code, e.Err)
	}
	return "geolocation " + e.Code.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Message is the user-facing text for a failure
func (e *Error) Message() string {
	switch e.Code {
	case Unsupported:
		return "Geolocation is not supported by your browser"
	case PermissionDenied:
		return "Location access was denied. Allow location access to sort by distance."
	case Timeout:
		return "Timed out while getting your location"
	default:
		return "Unable to get your location"
	}
}

var (
	ErrUnsupported         = &Error{Code: Unsupported}
	ErrPermissionDenied    = &Error{Code: PermissionDenied}
	ErrPositionUnavailable = &Error{Code: PositionUnavailable}
	ErrTimeout             = &Error{Code: Timeout}
)

// Options mirror the position request options of the browser API
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// DefaultOptions requests a high-accuracy fix within 10s, accepting one up to 5 minutes old
func DefaultOptions() Options {
	return Options{
		HighAccuracy: true,
		Timeout:      10 * time.Second,
		MaximumAge:   5 * time.Minute,
	}
}

// Position is a fix and the time it was taken
type Position struct {
	Coordinates models.Coordinates
	Timestamp   time.Time
}

// Capability is the runtime's position source
type Capability interface {
	Position(ctx context.Context, opts Options) (Position, error)
}

// Locator wraps a capability with the configured options
type Locator struct {
	capability Capability
	opts       Options
	now        func() time.Time
}

// Option configures a Locator
type Option func(*Locator)

// WithOptions overrides DefaultOptions
func WithOptions(opts Options) Option {
	return func(l *Locator) { l.opts = opts }
}

// WithClock sets the time source used for staleness checks
func WithClock(now func() time.Time) Option {
	return func(l *Locator) { l.now = now }
}

// NewLocator creates a locator; a nil capability reports Unsupported
func NewLocator(c Capability, opts ...Option) *Locator {
	l := &Locator{capability: c, opts: DefaultOptions(), now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type result struct {
	pos Position
	err error
}

// CurrentPosition returns the user's position or a *Error
func (l *Locator) CurrentPosition(ctx context.Context) (models.Coordinates, error) {
	if l == nil || l.capability == nil {
		return models.Coordinates{}, &Error{Code: Unsupported}
	}

	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}

	done := make(chan result, 1)
	go func() {
		pos, err := l.capability.Position(ctx, l.opts)
		done <- result{pos, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return models.Coordinates{}, &Error{Code: Timeout, Err: ctx.Err()}
	case res = <-done:
	}

	if res.err != nil {
		var gerr *Error
		if errors.As(res.err, &gerr) {
			return models.Coordinates{}, gerr
		}
		if errors.Is(res.err, context.DeadlineExceeded) {
			return models.Coordinates{}, &Error{Code: Timeout, Err: res.err}
		}
		return models.Coordinates{}, &Error{Code: PositionUnavailable, Err: res.err}
	}

	if l.opts.MaximumAge > 0 && !res.pos.Timestamp.IsZero() {
		if age := l.now().Sub(res.pos.Timestamp); age > l.opts.MaximumAge {
			return models.Coordinates{}, &Error{
				Code: PositionUnavailable,
				Err:  fmt.Errorf("cached position is %s old", age.Round(time.Second)),
			}
		}
	}

	return res.pos.Coordinates, nil
}
