package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Labels to use for partitioning requests.
	requestLabels = []string{"endpoint", "status"}

	// Labels to use for partitioning request latencies.
	requestLatencyLabels = []string{"endpoint"}
)

// RequestMetrics instruments the HTTP endpoints of the reporter.
type RequestMetrics struct {
	// Counts of requests made to each endpoint.
	RequestCounts *prometheus.CounterVec

	// Latencies of serving incoming requests.
	RequestLatencies *prometheus.HistogramVec
}

// NewDefaultRequestMetrics creates request counters and latency histograms
// named after pkg. Creating the same metrics twice reuses the registered
// collectors.
func NewDefaultRequestMetrics(pkg string) RequestMetrics {
	return RequestMetrics{
		RequestCounts: register(prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: fmt.Sprintf("%s_requests", pkg),
				Help: "How many requests were served, partitioned by endpoint and status.",
			},
			requestLabels,
		)).(*prometheus.CounterVec),
		RequestLatencies: register(prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: fmt.Sprintf("%s_request_latencies", pkg),
				Help: "How long requests take to process, partitioned by endpoint.",
			},
			requestLatencyLabels,
		)).(*prometheus.HistogramVec),
	}
}

// RequestCounter returns the counter for the given endpoint and status.
func (m *RequestMetrics) RequestCounter(labels ...string) prometheus.Counter {
	return m.RequestCounts.WithLabelValues(padLabels(labels, len(requestLabels))...)
}

// RequestTimer starts a latency timer for the given endpoint.
func (m *RequestMetrics) RequestTimer(labels ...string) *prometheus.Timer {
	return prometheus.NewTimer(m.RequestLatencies.WithLabelValues(padLabels(labels, len(requestLatencyLabels))...))
}

func padLabels(labels []string, n int) []string {
	if len(labels) > n {
		return labels[:n]
	}
	return append(labels, make([]string, n-len(labels))...)
}

// register adds c to the default registry and returns the collector that
// ends up registered.
func register(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}
