// Package handlers contains HTTP request handlers
package handlers

import (
	"net/http"
	"time"
)

// Counter reports a size for the health check
type Counter interface {
	Count() int
}

type HealthHandler struct {
	startTime      time.Time
	mapsConfigured bool
	spaces         SpaceProvider
	sessions       Counter
}

func NewHealthHandler(spaces SpaceProvider, sessions Counter, mapsConfigured bool) *HealthHandler {
	return &HealthHandler{
		startTime:      time.Now(),
		mapsConfigured: mapsConfigured,
		spaces:         spaces,
		sessions:       sessions,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":          "OK",
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"version":         "1.0.0",
		"uptime":          time.Since(h.startTime).String(),
		"maps_configured": h.mapsConfigured,
	}

	if h.spaces != nil {
		spaces, err := h.spaces.All(r.Context())
		if err != nil {
			resp["status"] = "DEGRADED"
			resp["content_error"] = err.Error()
		} else {
			resp["spaces_loaded"] = len(spaces)
		}
	}
	if h.sessions != nil {
		resp["sessions"] = h.sessions.Count()
	}

	writeJSON(w, http.StatusOK, resp)
}
