package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IdentityOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletauth",
			Name:      "identity_operations_total",
			Help:      "Identity operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)
	EmailDispatch = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletauth",
			Name:      "email_dispatch_total",
			Help:      "Verification emails by delivery result.",
		},
		[]string{"result"},
	)
	SweptRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletauth",
			Name:      "swept_records_total",
			Help:      "Expired tokens and challenges removed by the sweeper.",
		},
		[]string{"kind"},
	)
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletauth",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "walletauth",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// NewRegistry returns a registry holding the process and Go collectors plus
// every walletauth metric.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		IdentityOperations,
		EmailDispatch,
		SweptRecords,
		RequestCount,
		RequestDuration,
	)
	return registry
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
