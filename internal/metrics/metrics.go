package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	// Auth operations
	AuthEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Auth operations by outcome",
		},
		[]string{"operation", "outcome"}, // register|login|logout|whoami
	)
	SessionsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_sessions_swept_total",
			Help: "Expired server-side sessions removed by the sweeper",
		},
	)

	initOnce sync.Once
)

// /metrics endpoint handler
var Handler = promhttp.Handler

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(RequestLatency)
		prometheus.MustRegister(AuthEvents)
		prometheus.MustRegister(SessionsSwept)
	})
}

// RegisterActiveSessions exposes the live session count of a stateful deployment.
func RegisterActiveSessions(count func() int) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "auth_active_sessions",
			Help: "Server-side sessions currently held in memory",
		},
		func() float64 { return float64(count()) },
	))
}
