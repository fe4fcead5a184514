package prometheus_test

import (
	"testing"

	"github.com/absmach/fedround/pkg/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gathered(t *testing.T) map[string]int {
	t.Helper()

	families, err := stdprometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	out := make(map[string]int, len(families))
	for _, f := range families {
		out[f.GetName()] = len(f.GetMetric())
	}

	return out
}

func TestMakeRoundMetrics(t *testing.T) {
	m := prometheus.MakeRoundMetrics("fedround_test")

	m.Rounds.With("phase", "fit", "status", "completed").Add(1)
	m.Rounds.With("phase", "evaluate", "status", "no_contributors").Add(1)
	m.Duration.With("phase", "fit").Observe(0.5)
	m.Contributors.With("phase", "fit").Set(3)
	m.Loss.Set(0.25)

	got := gathered(t)
	assert.Equal(t, 2, got["fedround_test_rounds_total"])
	assert.Equal(t, 1, got["fedround_test_rounds_duration_seconds"])
	assert.Equal(t, 1, got["fedround_test_rounds_contributors"])
	assert.Equal(t, 1, got["fedround_test_rounds_evaluate_loss"])
}

func TestMakeMetrics(t *testing.T) {
	counter, latency := prometheus.MakeMetrics("fedround_test", "api")

	counter.With("method", "start_run").Add(1)
	latency.With("method", "start_run").Observe(12)

	got := gathered(t)
	assert.Equal(t, 1, got["fedround_test_api_request_count"])
	assert.Equal(t, 1, got["fedround_test_api_request_latency_microseconds"])
}
