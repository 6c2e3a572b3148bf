package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/rankup/pkg/rankup/correct"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder()
	require.NoError(t, r.Register(reg))
	assert.Error(t, NewRecorder().Register(reg), "duplicate registration")

	r.ObserveRun("textrank", correct.Outcome{State: correct.Converged, Iterations: 3}, time.Millisecond)
	r.ObserveFailure("rake")

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		MetricDocumentsTotal,
		MetricDocumentFailures,
		MetricCorrectionIterations,
		MetricCorrectionStatistic,
		MetricProcessDuration,
	} {
		assert.True(t, names[want], want)
	}
	assert.False(t, names[MetricRevertsTotal], "no revert observed yet")
}

func TestObserveRun(t *testing.T) {
	r := NewRecorder()

	r.ObserveRun("textrank", correct.Outcome{State: correct.Converged, Iterations: 4, Statistic: 0.001}, 10*time.Millisecond)
	r.ObserveRun("textrank", correct.Outcome{State: correct.Diverged, Iterations: 2, Statistic: 0.5, Reverted: true}, 10*time.Millisecond)
	r.ObserveRun("rake", correct.Outcome{State: correct.Converged}, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.documents.WithLabelValues("textrank", "CONVERGED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.documents.WithLabelValues("textrank", "DIVERGED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.documents.WithLabelValues("rake", "CONVERGED")))
	assert.Equal(t, 0.5, testutil.ToFloat64(r.statistic.WithLabelValues("textrank")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.reverts.WithLabelValues("textrank")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.iterations))
}

func TestObserveFailure(t *testing.T) {
	r := NewRecorder()
	r.ObserveFailure("rake")
	r.ObserveFailure("rake")
	assert.Equal(t, 2.0, testutil.ToFloat64(r.failures.WithLabelValues("rake")))
}
