package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	presenceEventsTotal *prometheus.CounterVec
	xpAwardsTotal       *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campus_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		presenceEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_presence_events_total",
			Help: "Total number of presence events recorded, by kind.",
		}, []string{"kind"})

		xpAwardsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_xp_awards_total",
			Help: "Total number of XP ledger entries written, by direction.",
		}, []string{"direction"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, httpErrorsTotal, presenceEventsTotal, xpAwardsTotal)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// PresenceEvents exposes the counter for recorded presence events.
func PresenceEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return presenceEventsTotal
}

// XPAwards exposes the counter for XP ledger writes.
func XPAwards() *prometheus.CounterVec {
	RegisterMetrics()
	return xpAwardsTotal
}
