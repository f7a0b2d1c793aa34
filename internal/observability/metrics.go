package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/liam996405/uv-index-service/internal/traffic"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// ARPANSA feed fetch attempts by outcome. Watch for: error vs success ratio.
	UpstreamCallsTotal *prometheus.CounterVec

	// ARPANSA feed latency per attempt.
	UpstreamDuration *prometheus.HistogramVec

	// Retry attempts against the feed. High retries = unstable upstream.
	UpstreamRetriesTotal prometheus.Counter

	// Failed refreshes by error category (see client.CategorizeError).
	UpstreamErrorsTotal *prometheus.CounterVec

	// Circuit breaker state: 0 closed, 1 half-open, 2 open.
	CircuitBreakerState prometheus.Gauge

	// Circuit breaker transitions by from/to state.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec

	// Feeds served by source (fresh, live, stale, fallback). Watch for: fallback > 0.
	FeedServedTotal *prometheus.CounterVec

	// Age of the feed in seconds at the time it was last served.
	FeedAgeSeconds prometheus.Gauge

	// Station entries dropped during parsing.
	FeedStationsSkippedTotal prometheus.Counter

	// Snapshot store failures by operation (get, set). Store errors never fail a request.
	SnapshotStoreErrorsTotal *prometheus.CounterVec

	// Location resolutions by method (name, coordinates, postcode) and outcome.
	ResolutionsTotal *prometheus.CounterVec

	// Total UV lookups.
	UVQueriesTotal prometheus.Counter

	// Per-city query count (allow-list; others go to "other").
	UVQueriesByCityTotal *prometheus.CounterVec

	// Scheduled feed warm-ups by result.
	FeedWarmingTotal *prometheus.CounterVec

	// Rate limit denials.
	RateLimitDeniedTotal prometheus.Counter

	// Recovered handler panics.
	PanicsRecoveredTotal prometheus.Counter

	trackedCitiesMu sync.RWMutex
	trackedCities   map[string]struct{}

	rateLimitGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvFeedCallsTotal",
			Help: "Total number of ARPANSA feed requests",
		},
		[]string{"status"},
	)
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uvFeedDurationSeconds",
			Help:    "ARPANSA feed latency in seconds (per attempt)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	UpstreamRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "uvFeedRetriesTotal",
			Help: "Total number of retry attempts for ARPANSA feed requests",
		},
	)
	UpstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvFeedErrorsTotal",
			Help: "Failed feed refreshes by error category",
		},
		[]string{"category"},
	)
	CircuitBreakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "uvFeedCircuitBreakerState",
			Help: "Feed circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvFeedCircuitBreakerTransitionsTotal",
			Help: "Feed circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)
	FeedServedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvFeedServedTotal",
			Help: "Feeds handed to callers by source (fresh, live, stale, fallback)",
		},
		[]string{"source"},
	)
	FeedAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "uvFeedAgeSeconds",
			Help: "Age of the most recently served feed in seconds",
		},
	)
	FeedStationsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "uvFeedStationsSkippedTotal",
			Help: "Station entries dropped while parsing the feed",
		},
	)
	SnapshotStoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvSnapshotStoreErrorsTotal",
			Help: "Feed snapshot store failures by operation",
		},
		[]string{"op"},
	)
	ResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvResolutionsTotal",
			Help: "Location resolutions by method and outcome",
		},
		[]string{"method", "outcome"},
	)
	UVQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "uvQueriesTotal",
			Help: "Total number of UV index lookups",
		},
	)
	UVQueriesByCityTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvQueriesByCityTotal",
			Help: "UV lookups by resolved city (allow-list; others use city=other)",
		},
		[]string{"city"},
	)
	FeedWarmingTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uvFeedWarmingTotal",
			Help: "Scheduled feed warm-ups by result",
		},
		[]string{"result"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	PanicsRecoveredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "panicsRecoveredTotal",
			Help: "Handler panics converted to 500 responses",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		UpstreamCallsTotal, UpstreamDuration, UpstreamRetriesTotal, UpstreamErrorsTotal,
		CircuitBreakerState, CircuitBreakerTransitionsTotal,
		FeedServedTotal, FeedAgeSeconds, FeedStationsSkippedTotal, SnapshotStoreErrorsTotal,
		ResolutionsTotal, UVQueriesTotal, UVQueriesByCityTotal,
		FeedWarmingTotal,
		RateLimitDeniedTotal, PanicsRecoveredTotal,
	)
}

// RegisterRateLimitGauges registers load and rejects gauges for the rate-limited path.
// Call from main after config load with the traffic window.
func RegisterRateLimitGauges(window time.Duration) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting rate-limited path in sliding window",
				},
				func() float64 { return float64(traffic.API.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window",
				},
				func() float64 { return float64(traffic.API.DenialCount(window)) },
			),
		)
	})
}

// SetTrackedCities sets the allow-list for per-city metrics. Other cities increment "other".
func SetTrackedCities(cities []string) {
	trackedCitiesMu.Lock()
	defer trackedCitiesMu.Unlock()
	trackedCities = make(map[string]struct{}, len(cities))
	for _, c := range cities {
		trackedCities[normalizeCityForMetrics(c)] = struct{}{}
	}
}

// RecordUVQuery records a UV lookup that resolved to the given city.
func RecordUVQuery(city string) {
	UVQueriesTotal.Inc()
	c := normalizeCityForMetrics(city)
	trackedCitiesMu.RLock()
	_, ok := trackedCities[c]
	trackedCitiesMu.RUnlock()
	if ok {
		UVQueriesByCityTotal.WithLabelValues(c).Inc()
	} else {
		UVQueriesByCityTotal.WithLabelValues("other").Inc()
	}
}

// RecordResolution records the outcome of a location resolution.
func RecordResolution(method, outcome string) {
	ResolutionsTotal.WithLabelValues(method, outcome).Inc()
}

// RecordFeedServed records the source and age of a served feed.
func RecordFeedServed(source string, age time.Duration) {
	FeedServedTotal.WithLabelValues(source).Inc()
	FeedAgeSeconds.Set(age.Seconds())
}

func normalizeCityForMetrics(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return s
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
