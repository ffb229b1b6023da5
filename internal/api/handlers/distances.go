package handlers

import (
	"log/slog"
	"net/http"

	"github.com/umnpray/umnpray/internal/distance"
	"github.com/umnpray/umnpray/internal/logger"
	"github.com/umnpray/umnpray/internal/maps"
	"github.com/umnpray/umnpray/internal/models"
)

// DistancesHandler exposes batch walking-distance resolution
type DistancesHandler struct {
	distances DistanceProvider
	log       *slog.Logger
}

func NewDistancesHandler(distances DistanceProvider) *DistancesHandler {
	return &DistancesHandler{
		distances: distances,
		log:       logger.L().With("handler", "distances"),
	}
}

type walkingRequest struct {
	Origin       *models.Coordinates  `json:"origin"`
	Destinations []models.Coordinates `json:"destinations"`
}

// WalkingDistances resolves origin to every destination. Results line up
// with destinations; unresolved entries are null.
func (h *DistancesHandler) WalkingDistances(w http.ResponseWriter, r *http.Request) {
	var body walkingRequest
	if err := decodeJSON(w, r, &body); err != nil || body.Origin == nil || body.Destinations == nil {
		writeJSON(w, http.StatusBadRequest, distance.Response{Error: "Invalid request body"})
		return
	}

	if len(body.Destinations) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"results": []*distance.Result{}})
		return
	}

	if h.distances == nil {
		writeJSON(w, http.StatusInternalServerError, distance.Response{Error: distance.FailureMessage(maps.ErrMissingKey)})
		return
	}

	resolved, err := h.distances.Resolve(r.Context(), *body.Origin, body.Destinations)
	if err != nil {
		h.log.Error("walking_distances_failed", "destinations", len(body.Destinations), "err", err)
		writeJSON(w, http.StatusInternalServerError, distance.Response{Error: distance.FailureMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, distance.Response{Results: distance.ToResults(resolved)})
}
