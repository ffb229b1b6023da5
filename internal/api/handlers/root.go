package handlers

import (
	"net/http"
)

type RootHandler struct{}

func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

func (h *RootHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "umnpray",
		"description": "Prayer spaces at the University of Minnesota, sorted by walking distance",
		"version":     "1.0.0",
		"endpoints": map[string]string{
			"GET /":                                   "API information",
			"GET /health":                             "Health check",
			"GET /metrics":                            "Prometheus metrics",
			"GET /api/spaces":                         "Listing for ?campus=&view=&showAll= (add lat/lng to sort by walking distance)",
			"GET /api/spaces/{slug}":                  "One prayer space by slug or ID",
			"POST /api/sessions":                      "Open a page session",
			"GET /api/sessions/{id}":                  "Current session view",
			"DELETE /api/sessions/{id}":               "End a session",
			"POST /api/sessions/{id}/campus":          "Filter by campus",
			"POST /api/sessions/{id}/view":            "Toggle list/map",
			"POST /api/sessions/{id}/show-all":        "Toggle show all",
			"POST /api/sessions/{id}/distance-sort":   "Sort by walking distance",
			"DELETE /api/sessions/{id}/distance-sort": "Restore default order",
			"POST /api/sessions/{id}/navigate":        "Restore state from a URL",
			"POST /api/walking-distances":             "Batch walking distances",
			"POST /api/revalidate":                    "Content cache webhook",
		},
	})
}

func (h *RootHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":   "Route not found",
		"message": "Check the root endpoint (/) for available routes",
	})
}
