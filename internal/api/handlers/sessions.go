package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/umnpray/umnpray/internal/geolocation"
	"github.com/umnpray/umnpray/internal/listing"
	"github.com/umnpray/umnpray/internal/logger"
	"github.com/umnpray/umnpray/internal/models"
	"github.com/umnpray/umnpray/internal/render"
	"github.com/umnpray/umnpray/internal/session"
)

// PermissionHeader carries the client's geolocation permission state
const PermissionHeader = "X-Geolocation-Permission"

// positionReport is what a client sends after asking its own runtime for a
// position: coordinates, or the error code it got instead.
type positionReport struct {
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Timestamp *int64   `json:"timestamp"` // ms since epoch
	Error     string   `json:"error"`
}

// reported converts the report. A report with neither coordinates nor an
// error means the client has no geolocation and yields nil.
func (p positionReport) reported() (*geolocation.ReportedPosition, error) {
	if p.Error != "" {
		code, ok := geolocation.ParseCode(p.Error)
		if !ok {
			return nil, fmt.Errorf("unknown geolocation error %q", p.Error)
		}
		return &geolocation.ReportedPosition{Failure: &code}, nil
	}
	if p.Lat == nil && p.Lng == nil {
		return nil, nil
	}
	if p.Lat == nil || p.Lng == nil {
		return nil, errors.New("lat and lng are required together")
	}
	if *p.Lat < -90 || *p.Lat > 90 || *p.Lng < -180 || *p.Lng > 180 {
		return nil, errors.New("coordinates out of range")
	}

	rp := &geolocation.ReportedPosition{Coordinates: &models.Coordinates{Lat: *p.Lat, Lng: *p.Lng}}
	if p.Timestamp != nil {
		rp.Timestamp = time.UnixMilli(*p.Timestamp)
	}
	return rp, nil
}

// SessionsHandler drives server-held page sessions
type SessionsHandler struct {
	registry *session.Registry
	geocoder GeocodeProvider
	log      *slog.Logger
}

func NewSessionsHandler(registry *session.Registry, geocoder GeocodeProvider) *SessionsHandler {
	return &SessionsHandler{
		registry: registry,
		geocoder: geocoder,
		log:      logger.L().With("handler", "sessions"),
	}
}

type createRequest struct {
	URL      string `json:"url"`
	Viewport string `json:"viewport"`
	positionReport
}

// Create opens a session from the page URL and runs auto-activation
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
		return
	}
	report, err := body.reported()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	query := r.URL.Query()
	if body.URL != "" {
		query = pageQuery(body.URL)
	}
	viewport := body.Viewport
	if viewport == "" {
		viewport = r.URL.Query().Get("viewport")
	}

	s, err := h.registry.Create(r.Context(), query, session.ParseViewport(viewport), listing.ParsePermission(r.Header.Get(PermissionHeader)))
	if err != nil {
		h.log.Error("session_create_failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to load prayer spaces"})
		return
	}
	h.log.Debug("session_created", "session_id", s.ID, "viewport", s.Viewport)

	extra := map[string]any{}
	s.Apply(w, r, report, func() {
		if _, err := s.VM.AutoActivate(r.Context()); err != nil {
			h.notify(extra, err)
		}
	})
	h.respond(w, r, s, http.StatusCreated, extra)
}

// Get renders the session's current view
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, r, s, http.StatusOK, nil)
}

// Delete ends the session
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.registry.Delete(s.ID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "session_id": s.ID})
}

// SetCampus applies a campus filter
func (h *SessionsHandler) SetCampus(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var body struct {
		Campus string `json:"campus"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
		return
	}
	filter, err := campusFilter(body.Campus)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	s.Apply(w, r, nil, func() { s.VM.SetCampusFilter(filter) })
	h.respond(w, r, s, http.StatusOK, nil)
}

// ToggleView flips between list and map
func (h *SessionsHandler) ToggleView(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Apply(w, r, nil, s.VM.ToggleViewMode)
	h.respond(w, r, s, http.StatusOK, nil)
}

// ToggleShowAll expands or collapses the list
func (h *SessionsHandler) ToggleShowAll(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	extra := map[string]any{}
	s.Apply(w, r, nil, func() {
		if from := s.VM.ToggleShowAll(); from >= 0 {
			extra["reveal_from"] = from
		}
	})
	h.respond(w, r, s, http.StatusOK, extra)
}

// ActivateDistanceSort sorts by walking distance from the reported position
func (h *SessionsHandler) ActivateDistanceSort(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var body positionReport
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
		return
	}
	report, err := body.reported()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	extra := map[string]any{}
	s.Apply(w, r, report, func() {
		if err := s.VM.ActivateDistanceSort(r.Context()); err != nil {
			h.notify(extra, err)
		}
	})
	h.respond(w, r, s, http.StatusOK, extra)
}

// DeactivateDistanceSort restores source order
func (h *SessionsHandler) DeactivateDistanceSort(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Apply(w, r, nil, s.VM.DeactivateDistanceSort)
	h.respond(w, r, s, http.StatusOK, nil)
}

// Navigate restores state from a URL the user navigated to
func (h *SessionsHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var body struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request body"})
		return
	}

	query := pageQuery(body.URL)
	s.Apply(w, r, nil, func() {
		s.VM.Restore(query)
		s.URL.Replace(query)
	})
	h.respond(w, r, s, http.StatusOK, nil)
}

func (h *SessionsHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := r.PathValue("id")
	s, ok := h.registry.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":      "Session not found",
			"session_id": id,
		})
		return nil, false
	}
	return s, true
}

// notify records a user-visible failure; superseded activations are
// silent. A consented auto-activation without a position asks the client
// to report one.
func (h *SessionsHandler) notify(extra map[string]any, err error) {
	switch {
	case errors.Is(err, listing.ErrSuperseded):
	case errors.Is(err, listing.ErrAwaitingPosition):
		extra["auto_activate"] = true
	default:
		extra["error"] = activationMessage(err)
	}
}

func (h *SessionsHandler) respond(w http.ResponseWriter, r *http.Request, s *session.Session, status int, extra map[string]any) {
	var geocoder render.Geocoder
	if h.geocoder != nil {
		geocoder = h.geocoder
	}

	resp := map[string]any{
		"success":    true,
		"session_id": s.ID,
		"url":        s.URL.Query(),
		"view":       render.Build(r.Context(), s.VM.Snapshot(), geocoder),
	}
	for k, v := range extra {
		resp[k] = v
	}
	writeJSON(w, status, resp)
}

// pageQuery is the canonical query of a page URL
func pageQuery(raw string) url.Values {
	return listing.Encode(listing.ParseURL(raw))
}

func campusFilter(s string) (listing.CampusFilter, error) {
	if s == "" || strings.EqualFold(s, string(listing.FilterAll)) {
		return listing.FilterAll, nil
	}
	c, ok := models.ParseCampus(s)
	if !ok {
		return "", fmt.Errorf("unknown campus %q", s)
	}
	return listing.FilterFor(c), nil
}
