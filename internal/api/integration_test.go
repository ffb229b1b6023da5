package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/umnpray/umnpray/internal/api"
	"github.com/umnpray/umnpray/internal/config"
	"github.com/umnpray/umnpray/internal/consent"
	"github.com/umnpray/umnpray/internal/content"
	"github.com/umnpray/umnpray/internal/location"
	"github.com/umnpray/umnpray/internal/maps"
	"github.com/umnpray/umnpray/internal/models"
	"github.com/umnpray/umnpray/internal/session"
)

// ---------------------------------------------------------------------------
// Mock providers
// ---------------------------------------------------------------------------

// mockGeocoder knows a fixed set of addresses
type mockGeocoder struct {
	known map[string]models.Coordinates
}

func (m *mockGeocoder) Resolve(_ context.Context, address string) *models.Coordinates {
	c, ok := m.known[address]
	if !ok {
		return nil
	}
	return &c
}

// mockDistances walks at 1.4 m/s in a straight line. With gate set, lookups
// signal entered and hold until gate closes.
type mockDistances struct {
	err error

	once    sync.Once
	entered chan struct{}
	gate    chan struct{}
}

func (m *mockDistances) Resolve(_ context.Context, origin models.Coordinates, dests []models.Coordinates) ([]*models.ResolvedDistance, error) {
	if m.gate != nil {
		m.once.Do(func() { close(m.entered) })
		<-m.gate
	}
	out := make([]*models.ResolvedDistance, len(dests))
	if m.err != nil {
		return out, m.err
	}
	for i, d := range dests {
		miles := location.Distance(origin, d)
		out[i] = &models.ResolvedDistance{
			Miles:   miles,
			Minutes: location.SecondsToMinutes(miles * 1609.34 / 1.4),
		}
	}
	return out, nil
}

func (m *mockDistances) ResolveBatch(ctx context.Context, origin models.Coordinates, dests []models.Coordinates) []*models.ResolvedDistance {
	out, _ := m.Resolve(ctx, origin, dests)
	return out
}

type countingInvalidator struct {
	calls atomic.Int32
}

func (c *countingInvalidator) Invalidate() { c.calls.Add(1) }

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

const webhookSecret = "s3cret"

// Near Wilson Library on the West Bank
var westBankOrigin = models.Coordinates{Lat: 44.9716, Lng: -93.2437}

func dataDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	return filepath.Join(filepath.Dir(file), "../../data")
}

type testServer struct {
	*httptest.Server
	invalidator *countingInvalidator
}

func newTestServer(t *testing.T, distances *mockDistances) *testServer {
	t.Helper()

	store := content.NewFileStore()
	if err := store.Load(filepath.Join(dataDir(t), "spaces.json")); err != nil {
		t.Fatalf("load spaces: %v", err)
	}

	geocoder := &mockGeocoder{known: map[string]models.Coordinates{
		"Lind Hall": {Lat: 44.9747, Lng: -93.2322},
	}}

	cfg := &config.Config{
		HTTPTimeout:    5 * time.Second,
		PageSizeNarrow: 2,
		PageSizeWide:   4,
		WebhookSecret:  webhookSecret,
	}
	registry := session.NewRegistry(store, geocoder, distances, session.Options{
		TTL:            time.Hour,
		PageSizeNarrow: cfg.PageSizeNarrow,
		PageSizeWide:   cfg.PageSizeWide,
	})
	t.Cleanup(registry.Close)

	inv := &countingInvalidator{}
	router := api.NewRouter(cfg, api.Services{
		Spaces:    store,
		Geocoder:  geocoder,
		Distances: distances,
		Content:   inv,
		Sessions:  registry,
	})
	return &testServer{Server: httptest.NewServer(router), invalidator: inv}
}

func get(t *testing.T, server *testServer, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func send(t *testing.T, server *testServer, method, path string, body any, header http.Header, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return m
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Errorf("status = %d, want %d", resp.StatusCode, want)
	}
}

func assertSuccess(t *testing.T, body map[string]any) {
	t.Helper()
	if body["success"] != true {
		t.Errorf("expected success=true, body: %v", body)
	}
}

func assertField(t *testing.T, body map[string]any, field string) {
	t.Helper()
	if _, ok := body[field]; !ok {
		t.Errorf("missing field %q in response: %v", field, body)
	}
}

func viewOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	view, ok := body["view"].(map[string]any)
	if !ok {
		t.Fatalf("expected view object, body: %v", body)
	}
	return view
}

func stateOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	state, ok := viewOf(t, body)["state"].(map[string]any)
	if !ok {
		t.Fatalf("expected view.state object, body: %v", body)
	}
	return state
}

func cardIDs(t *testing.T, body map[string]any) []string {
	t.Helper()
	cards, _ := viewOf(t, body)["cards"].([]any)
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i], _ = c.(map[string]any)["id"].(string)
	}
	return ids
}

func consentCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == consent.Key {
			return c
		}
	}
	return nil
}

func createSession(t *testing.T, srv *testServer, body map[string]any) (string, map[string]any) {
	t.Helper()
	resp := send(t, srv, http.MethodPost, "/api/sessions", body, nil)
	assertStatus(t, resp, http.StatusCreated)
	out := decodeBody(t, resp)
	id, _ := out["session_id"].(string)
	if id == "" {
		t.Fatalf("missing session_id: %v", out)
	}
	return id, out
}

// ---------------------------------------------------------------------------
// Health & root
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	resp := get(t, srv, "/health")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertField(t, body, "status")
	assertField(t, body, "uptime")
	assertField(t, body, "sessions")

	if body["status"] != "OK" {
		t.Errorf("status = %v, want OK", body["status"])
	}
	if body["spaces_loaded"] != float64(8) {
		t.Errorf("spaces_loaded = %v, want 8", body["spaces_loaded"])
	}
}

func TestAPIRoot(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	for _, path := range []string{"/", "/api"} {
		resp := get(t, srv, path)
		assertStatus(t, resp, http.StatusOK)
		assertField(t, decodeBody(t, resp), "endpoints")
	}
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	resp := get(t, srv, "/transit/subway/near/10001")
	assertStatus(t, resp, http.StatusNotFound)
	assertField(t, decodeBody(t, resp), "error")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	get(t, srv, "/health").Body.Close()

	resp := get(t, srv, "/metrics")
	assertStatus(t, resp, http.StatusOK)
	defer resp.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `umnpray_http_requests_total{route="GET /health",status="200"}`) {
		t.Error("expected request counter for GET /health")
	}
}

// ---------------------------------------------------------------------------
// Stateless listing
// ---------------------------------------------------------------------------

func TestListSpacesDefault(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	resp := get(t, srv, "/api/spaces")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	assertSuccess(t, body)

	view := viewOf(t, body)
	if view["total"] != float64(8) {
		t.Errorf("total = %v, want 8", view["total"])
	}
	if view["has_more"] != true {
		t.Error("expected has_more with 8 spaces and a page of 4")
	}
	ids := cardIDs(t, body)
	if len(ids) != 4 || ids[0] != "0b1f7c2e-coffman" {
		t.Errorf("cards = %v, want first page in source order", ids)
	}
	if view["query"] != "" {
		t.Errorf("query = %v, want empty for default state", view["query"])
	}
}

func TestListSpacesQuery(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	tests := []struct {
		name    string
		path    string
		total   float64
		query   string
		hasMore bool
	}{
		{"west bank", "/api/spaces?campus=WestBank", 3, "?campus=WestBank", false},
		{"st paul label form", "/api/spaces?campus=StPaul", 2, "?campus=StPaul", false},
		{"show all", "/api/spaces?showAll=true", 8, "?showAll=true", false},
		{"malformed falls back", "/api/spaces?campus=Mars&view=globe&showAll=yes", 8, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := get(t, srv, tc.path)
			assertStatus(t, resp, http.StatusOK)

			view := viewOf(t, decodeBody(t, resp))
			if view["total"] != tc.total {
				t.Errorf("total = %v, want %v", view["total"], tc.total)
			}
			if view["query"] != tc.query {
				t.Errorf("query = %v, want %q", view["query"], tc.query)
			}
			if view["has_more"] != tc.hasMore {
				t.Errorf("has_more = %v, want %v", view["has_more"], tc.hasMore)
			}
		})
	}
}

func TestListSpacesMapSkipsUnplaceable(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	resp := get(t, srv, "/api/spaces?campus=StPaul&view=map")
	body := decodeBody(t, resp)
	view := viewOf(t, body)

	markers, _ := view["markers"].([]any)
	// Magrath has no coordinates and an address the geocoder does not know
	if len(markers) != 1 {
		t.Errorf("markers = %d, want 1", len(markers))
	}
	if _, ok := view["empty_message"]; ok {
		t.Error("non-empty campus should have no empty message")
	}
}

func TestListSpacesMapView(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	resp := get(t, srv, "/api/spaces?view=map")
	body := decodeBody(t, resp)
	view := viewOf(t, body)

	if view["has_more"] != false {
		t.Error("map view is never paginated")
	}
	markers, _ := view["markers"].([]any)
	// five spaces carry coordinates, Lind Hall is geocoded
	if len(markers) != 6 {
		t.Errorf("markers = %d, want 6", len(markers))
	}
	if _, ok := view["cards"]; ok {
		t.Error("map view should not render cards")
	}
}

func TestListSpacesDistanceSort(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	resp := get(t, srv, "/api/spaces?campus=WestBank&lat=44.9716&lng=-93.2437")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	if _, ok := body["error"]; ok {
		t.Fatalf("unexpected error: %v", body["error"])
	}

	want := []string{"7a4450fe-wilson", "a2d8e915-carlson", "8f61c0b3-blegen"}
	if got := cardIDs(t, body); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v (unresolved last)", got, want)
	}
	if stateOf(t, body)["distance_sort"] != true {
		t.Error("expected distance_sort active")
	}
	assertField(t, viewOf(t, body), "user_location")
}

func TestListSpacesDistanceFailure(t *testing.T) {
	srv := newTestServer(t, &mockDistances{err: &maps.Error{API: "distancematrix", Status: "REQUEST_DENIED"}})
	defer srv.Close()

	resp := get(t, srv, "/api/spaces?lat=44.9716&lng=-93.2437")
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	if body["error"] != "Unable to calculate walking distances. Please try again." {
		t.Errorf("error = %v", body["error"])
	}
	if stateOf(t, body)["distance_sort"] != false {
		t.Error("total failure should revert the sort")
	}
}

func TestListSpacesBadCoordinates(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	tests := []struct {
		name string
		path string
	}{
		{"lat only", "/api/spaces?lat=44.97"},
		{"bad lat", "/api/spaces?lat=abc&lng=-93.2"},
		{"out of range", "/api/spaces?lat=44.97&lng=-193.2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := get(t, srv, tc.path)
			assertStatus(t, resp, http.StatusBadRequest)
			assertField(t, decodeBody(t, resp), "error")
		})
	}
}

func TestGetSpace(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"by slug", "/api/spaces/amcc", http.StatusOK},
		{"by id", "/api/spaces/7a4450fe-wilson", http.StatusOK},
		{"unknown", "/api/spaces/nowhere", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := get(t, srv, tc.path)
			assertStatus(t, resp, tc.status)
			body := decodeBody(t, resp)
			if tc.status == http.StatusOK {
				assertSuccess(t, body)
				assertField(t, body, "space")
				assertField(t, body, "tags")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

func TestSessionFilterAndBackNavigation(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	id, body := createSession(t, srv, map[string]any{"url": "https://example.edu/?campus=WestBank&showAll=true"})
	if body["url"] != "campus=WestBank&showAll=true" {
		t.Errorf("url = %v", body["url"])
	}

	resp := send(t, srv, http.MethodPost, "/api/sessions/"+id+"/campus", map[string]string{"campus": "East Bank"}, nil)
	assertStatus(t, resp, http.StatusOK)
	body = decodeBody(t, resp)
	if body["url"] != "campus=EastBank" {
		t.Errorf("campus change should clear showAll, url = %v", body["url"])
	}
	if stateOf(t, body)["show_all"] != false {
		t.Error("expected show_all reset")
	}

	resp = send(t, srv, http.MethodPost, "/api/sessions/"+id+"/navigate", map[string]string{"url": "?campus=WestBank&showAll=true"}, nil)
	assertStatus(t, resp, http.StatusOK)
	body = decodeBody(t, resp)
	state := stateOf(t, body)
	if state["campus"] != "WestBank" || state["show_all"] != true {
		t.Errorf("restored state = %v", state)
	}
}

func TestSessionRejectsUnknownCampus(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	id, _ := createSession(t, srv, nil)
	resp := send(t, srv, http.MethodPost, "/api/sessions/"+id+"/campus", map[string]string{"campus": "Duluth"}, nil)
	assertStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestSessionShowAllRevealFrom(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	id, _ := createSession(t, srv, map[string]any{"viewport": "narrow"})

	resp := send(t, srv, http.MethodPost, "/api/sessions/"+id+"/show-all", nil, nil)
	body := decodeBody(t, resp)
	if body["reveal_from"] != float64(2) {
		t.Errorf("reveal_from = %v, want 2", body["reveal_from"])
	}
	if len(cardIDs(t, body)) != 8 {
		t.Errorf("expected all 8 cards after expanding")
	}

	resp = send(t, srv, http.MethodPost, "/api/sessions/"+id+"/show-all", nil, nil)
	body = decodeBody(t, resp)
	if _, ok := body["reveal_from"]; ok {
		t.Error("collapsing reveals nothing")
	}
}

func TestSessionToggleView(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	id, _ := createSession(t, srv, nil)
	resp := send(t, srv, http.MethodPost, "/api/sessions/"+id+"/view", nil, nil)
	body := decodeBody(t, resp)
	if body["url"] != "view=map" {
		t.Errorf("url = %v, want view=map", body["url"])
	}
	assertField(t, viewOf(t, body), "markers")
}

func TestSessionDistanceSortConsentCookie(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	id, _ := createSession(t, srv, map[string]any{"url": "?campus=WestBank"})

	resp := send(t, srv, http.MethodPost, "/api/sessions/"+id+"/distance-sort", map[string]any{
		"lat":       westBankOrigin.Lat,
		"lng":       westBankOrigin.Lng,
		"timestamp": time.Now().UnixMilli(),
	}, nil)
	assertStatus(t, resp, http.StatusOK)

	granted := consentCookie(resp)
	body := decodeBody(t, resp)
	if granted == nil || granted.Value != "true" {
		t.Fatalf("expected consent cookie set, got %v", granted)
	}
	if got := cardIDs(t, body); len(got) == 0 || got[0] != "7a4450fe-wilson" {
		t.Errorf("nearest first, got %v", got)
	}

	resp = send(t, srv, http.MethodDelete, "/api/sessions/"+id+"/distance-sort", nil, nil, granted)
	assertStatus(t, resp, http.StatusOK)
	cleared := consentCookie(resp)
	body = decodeBody(t, resp)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Errorf("expected consent cookie cleared, got %v", cleared)
	}
	if stateOf(t, body)["distance_sort"] != false {
		t.Error("expected distance sort off")
	}

	// deactivating again changes nothing
	resp = send(t, srv, http.MethodDelete, "/api/sessions/"+id+"/distance-sort", nil, nil)
	if consentCookie(resp) != nil {
		t.Error("idempotent deactivate should not touch consent")
	}
	resp.Body.Close()
}

func TestSessionDistanceSortPermissionDenied(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	id, _ := createSession(t, srv, nil)

	resp := send(t, srv, http.MethodPost, "/api/sessions/"+id+"/distance-sort", map[string]any{"error": "PERMISSION_DENIED"}, nil)
	assertStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)

	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "denied") {
		t.Errorf("error = %q, want a permission denied message", msg)
	}
	if stateOf(t, body)["distance_sort"] != false {
		t.Error("view state must be untouched on location failure")
	}
}

func TestSessionDistanceSortBadBody(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	id, _ := createSession(t, srv, nil)

	for _, body := range []map[string]any{
		{"lat": 44.97},
		{"error": "EXPLODED"},
	} {
		resp := send(t, srv, http.MethodPost, "/api/sessions/"+id+"/distance-sort", body, nil)
		assertStatus(t, resp, http.StatusBadRequest)
		resp.Body.Close()
	}
}

func TestSessionAutoActivation(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	position := map[string]any{"lat": westBankOrigin.Lat, "lng": westBankOrigin.Lng}
	remembered := &http.Cookie{Name: consent.Key, Value: "true"}

	tests := []struct {
		name       string
		permission string
		cookie     *http.Cookie
		want       bool
	}{
		{"granted", "granted", nil, true},
		{"denied ignores consent", "denied", remembered, false},
		{"prompt falls back to consent", "prompt", remembered, true},
		{"unknown without consent", "", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			if tc.permission != "" {
				header.Set("X-Geolocation-Permission", tc.permission)
			}
			var cookies []*http.Cookie
			if tc.cookie != nil {
				cookies = append(cookies, tc.cookie)
			}

			resp := send(t, srv, http.MethodPost, "/api/sessions", position, header, cookies...)
			assertStatus(t, resp, http.StatusCreated)
			body := decodeBody(t, resp)
			if got := stateOf(t, body)["distance_sort"]; got != tc.want {
				t.Errorf("distance_sort = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSessionRememberedConsentWithoutPosition(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	remembered := &http.Cookie{Name: consent.Key, Value: "true"}

	resp := send(t, srv, http.MethodPost, "/api/sessions", map[string]any{"url": "/?campus=WestBank"}, nil, remembered)
	assertStatus(t, resp, http.StatusCreated)
	if c := consentCookie(resp); c != nil {
		t.Errorf("remembered consent must survive a plain page load, got %v", c)
	}
	body := decodeBody(t, resp)
	if msg, ok := body["error"]; ok {
		t.Errorf("unexpected error: %v", msg)
	}
	if body["auto_activate"] != true {
		t.Errorf("auto_activate = %v, want true", body["auto_activate"])
	}
	if stateOf(t, body)["distance_sort"] != false {
		t.Error("nothing activates until a position is reported")
	}

	id, _ := body["session_id"].(string)
	resp = send(t, srv, http.MethodPost, "/api/sessions/"+id+"/distance-sort", map[string]any{
		"lat": westBankOrigin.Lat,
		"lng": westBankOrigin.Lng,
	}, nil, remembered)
	assertStatus(t, resp, http.StatusOK)
	if c := consentCookie(resp); c != nil {
		t.Errorf("consent already remembered, got rewrite %v", c)
	}
	body = decodeBody(t, resp)
	if stateOf(t, body)["distance_sort"] != true {
		t.Error("expected distance sort active")
	}
	if got := cardIDs(t, body); len(got) == 0 || got[0] != "7a4450fe-wilson" {
		t.Errorf("nearest first, got %v", got)
	}
}

func postJSON(url string, body any) (map[string]any, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out map[string]any
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out, err
}

func TestSessionOverlappingActivationNewerFails(t *testing.T) {
	distances := &mockDistances{entered: make(chan struct{}), gate: make(chan struct{})}
	srv := newTestServer(t, distances)
	defer srv.Close()

	id, _ := createSession(t, srv, map[string]any{"url": "/?campus=WestBank"})
	path := srv.URL + "/api/sessions/" + id + "/distance-sort"

	type result struct {
		body map[string]any
		err  error
	}
	first, second := make(chan result, 1), make(chan result, 1)

	go func() {
		body, err := postJSON(path, map[string]any{"lat": westBankOrigin.Lat, "lng": westBankOrigin.Lng})
		first <- result{body, err}
	}()
	<-distances.entered

	go func() {
		body, err := postJSON(path, map[string]any{"error": "POSITION_UNAVAILABLE"})
		second <- result{body, err}
	}()
	time.Sleep(20 * time.Millisecond)
	close(distances.gate)

	r1, r2 := <-first, <-second
	if r1.err != nil || r2.err != nil {
		t.Fatalf("requests failed: %v, %v", r1.err, r2.err)
	}
	if _, ok := r2.body["error"]; !ok {
		t.Error("the failed request reports its error")
	}

	resp := get(t, srv, "/api/sessions/"+id)
	assertStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	if stateOf(t, body)["distance_sort"] != true {
		t.Fatal("the completed activation stays in effect")
	}
	cards, _ := viewOf(t, body)["cards"].([]any)
	if len(cards) == 0 {
		t.Fatal("expected cards")
	}
	if _, ok := cards[0].(map[string]any)["distance_miles"]; !ok {
		t.Error("an active distance sort must carry distances")
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	id, _ := createSession(t, srv, nil)

	resp := get(t, srv, "/api/sessions/"+id)
	assertStatus(t, resp, http.StatusOK)
	assertSuccess(t, decodeBody(t, resp))

	resp = send(t, srv, http.MethodDelete, "/api/sessions/"+id, nil, nil)
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = get(t, srv, "/api/sessions/"+id)
	assertStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

// ---------------------------------------------------------------------------
// Walking distances
// ---------------------------------------------------------------------------

func TestWalkingDistances(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	resp := send(t, srv, http.MethodPost, "/api/walking-distances", map[string]any{
		"origin": westBankOrigin,
		"destinations": []models.Coordinates{
			{Lat: 44.9703, Lng: -93.2447},
			{Lat: 44.9847, Lng: -93.1866},
		},
	}, nil)
	assertStatus(t, resp, http.StatusOK)

	body := decodeBody(t, resp)
	results, ok := body["results"].([]any)
	if !ok || len(results) != 2 {
		t.Fatalf("results = %v, want 2 entries", body["results"])
	}
	first, _ := results[0].(map[string]any)
	assertField(t, first, "distance")
	assertField(t, first, "duration")
}

func TestWalkingDistancesRequests(t *testing.T) {
	tests := []struct {
		name      string
		distances *mockDistances
		body      any
		status    int
		wantError string
	}{
		{"missing origin", &mockDistances{}, map[string]any{"destinations": []any{}}, http.StatusBadRequest, "Invalid request body"},
		{"destinations not array", &mockDistances{}, map[string]any{"origin": westBankOrigin, "destinations": "x"}, http.StatusBadRequest, "Invalid request body"},
		{"empty destinations", &mockDistances{}, map[string]any{"origin": westBankOrigin, "destinations": []any{}}, http.StatusOK, ""},
		{
			"whole failure",
			&mockDistances{err: &maps.Error{API: "distancematrix", Status: "OVER_QUERY_LIMIT"}},
			map[string]any{"origin": westBankOrigin, "destinations": []models.Coordinates{westBankOrigin}},
			http.StatusInternalServerError,
			"Distance Matrix API error: OVER_QUERY_LIMIT",
		},
		{
			"missing key",
			&mockDistances{err: &maps.Error{API: "distancematrix", Err: maps.ErrMissingKey}},
			map[string]any{"origin": westBankOrigin, "destinations": []models.Coordinates{westBankOrigin}},
			http.StatusInternalServerError,
			"Google Maps API key not configured",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, tc.distances)
			defer srv.Close()

			resp := send(t, srv, http.MethodPost, "/api/walking-distances", tc.body, nil)
			assertStatus(t, resp, tc.status)
			body := decodeBody(t, resp)
			if tc.wantError != "" && body["error"] != tc.wantError {
				t.Errorf("error = %v, want %q", body["error"], tc.wantError)
			}
			if tc.status == http.StatusOK {
				if results, ok := body["results"].([]any); !ok || len(results) != 0 {
					t.Errorf("results = %v, want []", body["results"])
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Content webhook
// ---------------------------------------------------------------------------

func TestRevalidate(t *testing.T) {
	srv := newTestServer(t, &mockDistances{})
	defer srv.Close()

	resp := send(t, srv, http.MethodPost, "/api/revalidate", nil, http.Header{"Sanity-Webhook-Secret": {"wrong"}})
	assertStatus(t, resp, http.StatusUnauthorized)
	if body := decodeBody(t, resp); body["message"] != "Invalid secret" {
		t.Errorf("message = %v", body["message"])
	}
	if srv.invalidator.calls.Load() != 0 {
		t.Error("cache must not be cleared on a bad secret")
	}

	resp = send(t, srv, http.MethodPost, "/api/revalidate", nil, http.Header{"Sanity-Webhook-Secret": {webhookSecret}})
	assertStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	if body["revalidated"] != true {
		t.Errorf("body = %v", body)
	}
	if srv.invalidator.calls.Load() != 1 {
		t.Errorf("invalidations = %d, want 1", srv.invalidator.calls.Load())
	}
}

func TestSessionDistanceSortTotalFailure(t *testing.T) {
	srv := newTestServer(t, &mockDistances{err: errors.New("boom")})
	defer srv.Close()

	id, _ := createSession(t, srv, nil)
	remembered := &http.Cookie{Name: consent.Key, Value: "true"}
	resp := send(t, srv, http.MethodPost, "/api/sessions/"+id+"/distance-sort", map[string]any{"lat": 44.97, "lng": -93.23}, nil, remembered)
	assertStatus(t, resp, http.StatusOK)
	if c := consentCookie(resp); c == nil || c.MaxAge >= 0 {
		t.Errorf("failed activation should clear consent, got %v", c)
	}
	assertField(t, decodeBody(t, resp), "error")
}
