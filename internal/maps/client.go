// Package maps provides a client for the Google Maps Geocoding and Distance Matrix REST APIs.
package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/umnpray/umnpray/internal/logger"
	"github.com/umnpray/umnpray/internal/metrics"
	"github.com/umnpray/umnpray/internal/models"
)

const (
	defaultBaseURL = "https://maps.googleapis.com"
	defaultTimeout = 10 * time.Second

	// StatusOK is the provider's success status, both top-level and per element
	StatusOK = "OK"

	// MaxDestinations is the Distance Matrix per-request destination limit
	MaxDestinations = 25
)

// ErrMissingKey is returned when no API key is configured
var ErrMissingKey = errors.New("google maps API key not configured")

// Client talks to the Google Maps web service APIs
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// WithBaseURL sets a custom API host, used by tests
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets a custom timeout for HTTP requests
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new API client with the given key and options
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasAPIKey returns true if the client has an API key configured
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Error is a structured failure from a Maps API call
type Error struct {
	API        string
	StatusCode int    // HTTP status, when the call got a response
	Status     string // provider status such as ZERO_RESULTS or REQUEST_DENIED
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.API, e.Err)
	case e.Status != "" && e.Message != "":
		return fmt.Sprintf("%s: status %s: %s", e.API, e.Status, e.Message)
	case e.Status != "":
		return fmt.Sprintf("%s: status %s", e.API, e.Status)
	default:
		return fmt.Sprintf("%s: HTTP %d", e.API, e.StatusCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// GeocodeResult is the first match returned for an address
type GeocodeResult struct {
	Location         models.Coordinates
	FormattedAddress string
}

// Geocode resolves a free-text address to coordinates. The address is sent as given.
func (c *Client) Geocode(ctx context.Context, address string) (*GeocodeResult, error) {
	const api = "geocode"
	if c.apiKey == "" {
		return nil, &Error{API: api, Err: ErrMissingKey}
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)

	var body geocodeResponse
	if err := c.get(ctx, api, "/maps/api/geocode/json?"+params.Encode(), &body); err != nil {
		return nil, err
	}

	if body.Status != StatusOK || len(body.Results) == 0 {
		metrics.MapsRequestsTotal.WithLabelValues(api, "provider_error").Inc()
		status := body.Status
		if status == StatusOK {
			status = "ZERO_RESULTS"
		}
		return nil, &Error{API: api, StatusCode: http.StatusOK, Status: status, Message: body.ErrorMessage}
	}

	metrics.MapsRequestsTotal.WithLabelValues(api, "ok").Inc()
	first := body.Results[0]
	return &GeocodeResult{
		Location:         models.Coordinates{Lat: first.Geometry.Location.Lat, Lng: first.Geometry.Location.Lng},
		FormattedAddress: first.FormattedAddress,
	}, nil
}

// Element is one origin→destination cell of a distance matrix
type Element struct {
	Status  string
	Meters  float64
	Seconds float64
}

// OK reports whether the provider resolved this element
func (e Element) OK() bool {
	return e.Status == StatusOK
}

// WalkingMatrix requests walking distances from origin to each destination
// in a single call. The returned elements align with destinations.
func (c *Client) WalkingMatrix(ctx context.Context, origin models.Coordinates, destinations []models.Coordinates) ([]Element, error) {
	const api = "distancematrix"
	if c.apiKey == "" {
		return nil, &Error{API: api, Err: ErrMissingKey}
	}
	if len(destinations) > MaxDestinations {
		return nil, &Error{API: api, Err: fmt.Errorf("%d destinations exceeds limit of %d", len(destinations), MaxDestinations)}
	}

	dests := make([]string, len(destinations))
	for i, d := range destinations {
		dests[i] = formatLatLng(d)
	}

	params := url.Values{}
	params.Set("origins", formatLatLng(origin))
	params.Set("destinations", strings.Join(dests, "|"))
	params.Set("mode", "walking")
	params.Set("units", "imperial")
	params.Set("key", c.apiKey)

	var body matrixResponse
	if err := c.get(ctx, api, "/maps/api/distancematrix/json?"+params.Encode(), &body); err != nil {
		return nil, err
	}

	if body.Status != StatusOK {
		metrics.MapsRequestsTotal.WithLabelValues(api, "provider_error").Inc()
		return nil, &Error{API: api, StatusCode: http.StatusOK, Status: body.Status, Message: body.ErrorMessage}
	}
	metrics.MapsRequestsTotal.WithLabelValues(api, "ok").Inc()

	elements := make([]Element, len(destinations))
	var row []matrixElement
	if len(body.Rows) > 0 {
		row = body.Rows[0].Elements
	}
	for i := range elements {
		if i >= len(row) {
			elements[i] = Element{Status: "NOT_FOUND"}
			continue
		}
		elements[i] = Element{
			Status:  row[i].Status,
			Meters:  row[i].Distance.Value,
			Seconds: row[i].Duration.Value,
		}
	}
	return elements, nil
}

func (c *Client) get(ctx context.Context, api, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &Error{API: api, Err: fmt.Errorf("creating request: %w", err)}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.MapsDurationMs.WithLabelValues(api).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.MapsRequestsTotal.WithLabelValues(api, "http_error").Inc()
		return &Error{API: api, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.MapsRequestsTotal.WithLabelValues(api, "http_error").Inc()
		return &Error{API: api, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.MapsRequestsTotal.WithLabelValues(api, "decode_error").Inc()
		return &Error{API: api, StatusCode: resp.StatusCode, Err: fmt.Errorf("parsing response: %w", err)}
	}

	logger.L().Debug("maps_response", "api", api, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func formatLatLng(c models.Coordinates) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// API response structures
type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type matrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []matrixElement `json:"elements"`
	} `json:"rows"`
}

type matrixElement struct {
	Status   string `json:"status"`
	Distance struct {
		Value float64 `json:"value"`
	} `json:"distance"`
	Duration struct {
		Value float64 `json:"value"`
	} `json:"duration"`
}
