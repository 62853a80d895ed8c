package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRequestMetrics(t *testing.T) {
	m := NewDefaultRequestMetrics("test_reporter")
	again := NewDefaultRequestMetrics("test_reporter")
	assert.Same(t, m.RequestCounts, again.RequestCounts)

	m.RequestCounter("/hello", "200").Inc()
	again.RequestCounter("/hello", "200", "ignored").Inc()
	assert.Equal(t, float64(2), testutil.ToFloat64(m.RequestCounts.WithLabelValues("/hello", "200")))

	m.RequestCounter("/vault").Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestCounts.WithLabelValues("/vault", "")))

	timer := m.RequestTimer("/hello")
	timer.ObserveDuration()
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestLatencies))
}
