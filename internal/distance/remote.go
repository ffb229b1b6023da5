package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/umnpray/umnpray/internal/logger"
	"github.com/umnpray/umnpray/internal/models"
)

// WalkingDistancesPath is where the server exposes the batch endpoint
const WalkingDistancesPath = "/api/walking-distances"

// Request is the walking-distances request body
type Request struct {
	Origin       models.Coordinates   `json:"origin"`
	Destinations []models.Coordinates `json:"destinations"`
}

// Result is one resolved destination; a failed destination is encoded as null
type Result struct {
	Distance *float64 `json:"distance"`
	Duration *int     `json:"duration"`
}

// Response is the walking-distances response body
type Response struct {
	Results []*Result `json:"results,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// ToResults converts resolved distances to the wire form
func ToResults(resolved []*models.ResolvedDistance) []*Result {
	out := make([]*Result, len(resolved))
	for i, r := range resolved {
		if r == nil {
			continue
		}
		miles, minutes := r.Miles, r.Minutes
		out[i] = &Result{Distance: &miles, Duration: &minutes}
	}
	return out
}

// RemoteResolver calls a umnpray server's walking-distances endpoint
type RemoteResolver struct {
	client  *http.Client
	baseURL string
	log     *slog.Logger
}

// NewRemoteResolver creates a resolver for the server at baseURL
func NewRemoteResolver(baseURL string, timeout time.Duration) *RemoteResolver {
	return &RemoteResolver{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.L(),
	}
}

// ResolveBatch posts all destinations in one request
func (r *RemoteResolver) ResolveBatch(ctx context.Context, origin models.Coordinates, destinations []models.Coordinates) []*models.ResolvedDistance {
	results := make([]*models.ResolvedDistance, len(destinations))
	if len(destinations) == 0 {
		return results
	}

	resp, err := r.post(ctx, Request{Origin: origin, Destinations: destinations})
	if err != nil {
		r.log.Error("distance_matrix_failed", "destinations", len(destinations), "err", err)
		return results
	}

	for i, res := range resp.Results {
		if i >= len(results) || res == nil || res.Distance == nil || res.Duration == nil {
			continue
		}
		results[i] = &models.ResolvedDistance{Miles: *res.Distance, Minutes: *res.Duration}
	}
	return results
}

func (r *RemoteResolver) post(ctx context.Context, body Request) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+WalkingDistancesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parsing response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("walking distances returned HTTP %d: %s", resp.StatusCode, out.Error)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("walking distances: %s", out.Error)
	}
	return &out, nil
}
