// Package metrics holds the Prometheus instruments for sampling, storage,
// density computation and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fix outcomes
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
)

var (
	// Sampling
	FixRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackheat_fix_requests_total",
			Help: "Location fix requests by outcome",
		},
		[]string{"outcome"},
	)

	FixLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trackheat_fix_duration_seconds",
			Help:    "Time spent waiting for a location fix",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	SamplesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trackheat_samples_persisted_total",
			Help: "Location samples written to the point store",
		},
	)

	StoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trackheat_store_errors_total",
			Help: "Failed point store inserts",
		},
	)

	SamplerRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackheat_sampler_running",
			Help: "1 while a sampling loop is active",
		},
	)

	// Density
	DensityDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trackheat_density_duration_seconds",
			Help:    "Time to compute a heatmap",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	DensityPoints = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trackheat_density_points",
			Help: "Samples in the most recent heatmap computation",
		},
	)

	// API
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackheat_api_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trackheat_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trackheat_api_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// RecordFix records one fix request.
func RecordFix(outcome string, d time.Duration) {
	FixRequests.WithLabelValues(outcome).Inc()
	FixLatency.Observe(d.Seconds())
}

// RecordDensity records one heatmap computation
func RecordDensity(mode string, points int, d time.Duration) {
	DensityDuration.WithLabelValues(mode).Observe(d.Seconds())
	DensityPoints.Set(float64(points))
}

// RecordAPIRequest records one served request.
func RecordAPIRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
