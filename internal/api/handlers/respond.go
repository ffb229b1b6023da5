package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/umnpray/umnpray/internal/logger"
	"github.com/umnpray/umnpray/internal/models"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.L().Error("encode_response_failed", "err", err)
	}
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return err
	}
	return nil
}

// parseCoordsParam reads lat/lng query parameters. ok is false when both
// are absent; err is set when either is missing or malformed.
func parseCoordsParam(r *http.Request) (c models.Coordinates, ok bool, err error) {
	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")
	if latStr == "" && lngStr == "" {
		return c, false, nil
	}
	if latStr == "" || lngStr == "" {
		return c, false, errors.New("lat and lng query parameters are required together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return c, false, errors.New("invalid lat parameter")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		return c, false, errors.New("invalid lng parameter")
	}
	return models.Coordinates{Lat: lat, Lng: lng}, true, nil
}
