// Package listing owns the filter, sort, pagination and view-mode state of
// the space directory, keeps it in step with the navigable URL and drives
// the distance-sort pipeline.
package listing

import (
	"github.com/umnpray/umnpray/internal/models"
)

// CampusFilter is All or one campus
type CampusFilter string

// FilterAll shows every campus
const FilterAll CampusFilter = "All"

// FilterFor restricts the listing to one campus
func FilterFor(c models.Campus) CampusFilter {
	return CampusFilter(c)
}

// ParseCampusFilter reads a filter; anything unrecognized is All
func ParseCampusFilter(s string) CampusFilter {
	if c, ok := models.ParseCampus(s); ok {
		return FilterFor(c)
	}
	return FilterAll
}

// Campus returns the campus filtered on, false for All
func (f CampusFilter) Campus() (models.Campus, bool) {
	c := models.Campus(f)
	return c, c.Valid()
}

// Label is the filter button text
func (f CampusFilter) Label() string {
	if c, ok := f.Campus(); ok {
		return c.Label()
	}
	return string(FilterAll)
}

// Matches reports whether s passes the filter
func (f CampusFilter) Matches(s models.Space) bool {
	c, ok := f.Campus()
	return !ok || s.Campus == c
}

// ViewMode selects list or map presentation
type ViewMode string

const (
	ListView ViewMode = "list"
	MapView  ViewMode = "map"
)

// Toggle returns the other mode
func (m ViewMode) Toggle() ViewMode {
	if m == MapView {
		return ListView
	}
	return MapView
}

// ViewState is everything that determines what the listing shows.
// DistanceSort is session-local and never written to the URL.
type ViewState struct {
	Campus       CampusFilter `json:"campus"`
	View         ViewMode     `json:"view"`
	ShowAll      bool         `json:"show_all"`
	DistanceSort bool         `json:"distance_sort"`
}

// DefaultState is what an empty query decodes to
func DefaultState() ViewState {
	return ViewState{Campus: FilterAll, View: ListView}
}

// URLState drops the session-local part
func (s ViewState) URLState() ViewState {
	s.DistanceSort = false
	return s
}
