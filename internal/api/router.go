package api

import (
	"net/http"
	"time"

	"github.com/umnpray/umnpray/internal/api/handlers"
	"github.com/umnpray/umnpray/internal/config"
	"github.com/umnpray/umnpray/internal/metrics"
	"github.com/umnpray/umnpray/internal/session"
)

// Services are the collaborators the handlers are built from
type Services struct {
	Spaces    handlers.SpaceProvider
	Geocoder  handlers.GeocodeProvider
	Distances handlers.DistanceProvider
	Content   handlers.CacheInvalidator
	Sessions  *session.Registry
}

// NewRouter creates and configures the HTTP router with all routes and middleware
func NewRouter(cfg *config.Config, svc Services) http.Handler {
	mux := http.NewServeMux()

	var sessions handlers.Counter
	if svc.Sessions != nil {
		sessions = svc.Sessions
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(svc.Spaces, sessions, cfg.HasMapsKey())
	rootHandler := handlers.NewRootHandler()
	spacesHandler := handlers.NewSpacesHandler(svc.Spaces, svc.Geocoder, svc.Distances, cfg.PageSizeWide)
	sessionsHandler := handlers.NewSessionsHandler(svc.Sessions, svc.Geocoder)
	distancesHandler := handlers.NewDistancesHandler(svc.Distances)
	revalidateHandler := handlers.NewRevalidateHandler(svc.Content, cfg.WebhookSecret)

	// Core routes
	mux.HandleFunc("GET /{$}", rootHandler.Index)
	mux.HandleFunc("GET /api", rootHandler.Index)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("/", rootHandler.NotFound)

	// Listing
	mux.HandleFunc("GET /api/spaces", spacesHandler.List)
	mux.HandleFunc("GET /api/spaces/{slug}", spacesHandler.Get)

	// Page sessions
	mux.HandleFunc("POST /api/sessions", sessionsHandler.Create)
	mux.HandleFunc("GET /api/sessions/{id}", sessionsHandler.Get)
	mux.HandleFunc("DELETE /api/sessions/{id}", sessionsHandler.Delete)
	mux.HandleFunc("POST /api/sessions/{id}/campus", sessionsHandler.SetCampus)
	mux.HandleFunc("POST /api/sessions/{id}/view", sessionsHandler.ToggleView)
	mux.HandleFunc("POST /api/sessions/{id}/show-all", sessionsHandler.ToggleShowAll)
	mux.HandleFunc("POST /api/sessions/{id}/distance-sort", sessionsHandler.ActivateDistanceSort)
	mux.HandleFunc("DELETE /api/sessions/{id}/distance-sort", sessionsHandler.DeactivateDistanceSort)
	mux.HandleFunc("POST /api/sessions/{id}/navigate", sessionsHandler.Navigate)

	// Distance matrix and content webhook
	mux.HandleFunc("POST /api/walking-distances", distancesHandler.WalkingDistances)
	mux.HandleFunc("POST /api/revalidate", revalidateHandler.Revalidate)

	// Apply middleware stack
	handler := Chain(mux,
		Recovery,
		Logging,
		CORS,
		Timeout(30*time.Second),
		Metrics,
	)

	return handler
}
