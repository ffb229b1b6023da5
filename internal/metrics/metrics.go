// Package metrics holds the prometheus collectors exported on /metrics
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000}

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "umnpray_http_requests_total",
		Help: "HTTP requests by route pattern and status code",
	}, []string{"route", "status"})
	HTTPDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "umnpray_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"route"})

	MapsRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "umnpray_maps_requests_total",
		Help: "Google Maps API requests by API and outcome",
	}, []string{"api", "outcome"})
	MapsDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "umnpray_maps_duration_ms",
		Help:    "Google Maps API call duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"api"})

	GeocodeCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "umnpray_geocode_cache_total",
		Help: "Geocode cache lookups by result (hit, miss, error)",
	}, []string{"result"})

	DistanceSortTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "umnpray_distance_sort_total",
		Help: "Distance sort activations by outcome",
	}, []string{"outcome"})
	UnresolvedDistancesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "umnpray_unresolved_distances_total",
		Help: "Spaces left without a distance after a distance sort",
	})

	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "umnpray_sessions_active",
		Help: "Live page sessions",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPDurationMs,
		MapsRequestsTotal,
		MapsDurationMs,
		GeocodeCacheTotal,
		DistanceSortTotal,
		UnresolvedDistancesTotal,
		SessionsActive,
	)
}

// Handler exposes the default registry for scraping
func Handler() http.Handler { return promhttp.Handler() }
