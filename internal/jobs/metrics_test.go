package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsRuns(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, metrics.Track("payments:overdue_scan").End(nil))

	boom := errors.New("boom")
	require.Same(t, boom, metrics.Track("payments:overdue_scan").End(boom))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("payments:overdue_scan", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.runs.WithLabelValues("payments:overdue_scan", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("payments:overdue_scan")))
}

func TestAddOverdue(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.AddOverdue(3)
	metrics.AddOverdue(0)
	metrics.AddOverdue(-1)

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.overdue))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics

	boom := errors.New("boom")
	require.Same(t, boom, metrics.Track("anything").End(boom))
	metrics.AddOverdue(5)
}
