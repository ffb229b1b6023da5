package listing

import (
	"net/url"
	"strings"
)

// Query parameter names
const (
	ParamCampus  = "campus"
	ParamView    = "view"
	ParamShowAll = "showAll"
)

// Encode writes the URL-representable part of s. Defaults are omitted, so
// the default state encodes to an empty query.
func Encode(s ViewState) url.Values {
	q := url.Values{}
	if c, ok := s.Campus.Campus(); ok {
		q.Set(ParamCampus, string(c))
	}
	if s.View == MapView {
		q.Set(ParamView, string(MapView))
	}
	if s.ShowAll {
		q.Set(ParamShowAll, "true")
	}
	return q
}

// Decode reads a state from query parameters. Missing or malformed values
// fall back to their defaults; DistanceSort is always false.
func Decode(q url.Values) ViewState {
	s := DefaultState()
	s.Campus = ParseCampusFilter(q.Get(ParamCampus))
	if strings.EqualFold(q.Get(ParamView), string(MapView)) {
		s.View = MapView
	}
	s.ShowAll = q.Get(ParamShowAll) == "true"
	return s
}

// QueryString is the canonical "?..." suffix for s, empty for the default state.
// url.Values.Encode sorts keys, so the parameter order is fixed.
func QueryString(s ViewState) string {
	if enc := Encode(s).Encode(); enc != "" {
		return "?" + enc
	}
	return ""
}

// ParseURL decodes the state from a full URL, a path with a query, or a bare query
func ParseURL(raw string) ViewState {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	} else if strings.Contains(raw, "/") {
		return DefaultState()
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	q, err := url.ParseQuery(raw)
	if err != nil && len(q) == 0 {
		return DefaultState()
	}
	return Decode(q)
}
