package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/umnpray/umnpray/internal/content"
	"github.com/umnpray/umnpray/internal/geolocation"
	"github.com/umnpray/umnpray/internal/listing"
	"github.com/umnpray/umnpray/internal/logger"
	"github.com/umnpray/umnpray/internal/render"
)

// SpacesHandler serves stateless listing views and single-space lookups
type SpacesHandler struct {
	spaces    SpaceProvider
	geocoder  GeocodeProvider
	distances DistanceProvider
	pageSize  int
	log       *slog.Logger
}

func NewSpacesHandler(spaces SpaceProvider, geocoder GeocodeProvider, distances DistanceProvider, pageSize int) *SpacesHandler {
	return &SpacesHandler{
		spaces:    spaces,
		geocoder:  geocoder,
		distances: distances,
		pageSize:  pageSize,
		log:       logger.L().With("handler", "spaces"),
	}
}

// List renders the listing for the request query. With lat/lng present
// the listing is sorted by walking distance from that point.
func (h *SpacesHandler) List(w http.ResponseWriter, r *http.Request) {
	origin, hasOrigin, err := parseCoordsParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	spaces, err := h.spaces.All(r.Context())
	if err != nil {
		h.log.Error("spaces_load_failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to load prayer spaces"})
		return
	}

	deps := listing.Deps{PageSize: h.pageSize}
	if h.geocoder != nil {
		deps.Geocoder = h.geocoder
	}
	if h.distances != nil {
		deps.Distances = h.distances
	}
	if hasOrigin {
		deps.Locator = geolocation.NewLocator(geolocation.Fixed(origin))
	}
	vm := listing.New(spaces, r.URL.Query(), deps)

	resp := map[string]any{"success": true}
	if hasOrigin {
		if err := vm.ActivateDistanceSort(r.Context()); err != nil {
			resp["error"] = activationMessage(err)
		}
	}

	resp["view"] = render.Build(r.Context(), vm.Snapshot(), h.renderGeocoder())
	writeJSON(w, http.StatusOK, resp)
}

// Get looks up one space by slug or ID
func (h *SpacesHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	space, err := h.spaces.Get(r.Context(), slug)
	if errors.Is(err, content.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "Prayer space not found",
			"slug":  slug,
		})
		return
	}
	if err != nil {
		h.log.Error("space_lookup_failed", "slug", slug, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to load prayer space"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"space":   space,
		"tags":    render.CardTags(space),
	})
}

func (h *SpacesHandler) renderGeocoder() render.Geocoder {
	if h.geocoder == nil {
		return nil
	}
	return h.geocoder
}

// activationMessage is the notification text for a failed distance sort
func activationMessage(err error) string {
	var aerr *listing.ActivationError
	if errors.As(err, &aerr) {
		return aerr.Message()
	}
	var gerr *geolocation.Error
	if errors.As(err, &gerr) {
		return gerr.Message()
	}
	return "Unable to calculate walking distances. Please try again."
}
