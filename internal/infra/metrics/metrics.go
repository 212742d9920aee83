package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Duration of network round-trips",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Number of network round-trips",
	}, []string{"component", "operation", "target", "status"})

	FeedRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feed_requests_total",
		Help: "Number of feed page requests",
	})

	FeedAssemblySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feed_assembly_seconds",
		Help:    "Time spent assembling a feed page",
		Buckets: prometheus.DefBuckets,
	})

	BroadcastResolutionFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broadcast_resolution_failures_total",
		Help: "Failed broadcast target resolution passes",
	})
)

// MustRegister registers all collectors.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		NetworkRequestDuration,
		NetworkRequestTotal,
		FeedRequestsTotal,
		FeedAssemblySeconds,
		BroadcastResolutionFailures,
	)
}

// ObserveNetworkRequest records the duration and status of one round-trip.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}
