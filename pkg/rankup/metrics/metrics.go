// Package metrics exports Prometheus metrics for keyphrase extraction and
// error correction runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cognicore/rankup/pkg/rankup/correct"
)

// Metric names.
const (
	MetricDocumentsTotal       = "rankup_documents_total"
	MetricDocumentFailures     = "rankup_document_failures_total"
	MetricCorrectionIterations = "rankup_correction_iterations"
	MetricCorrectionStatistic  = "rankup_correction_final_statistic"
	MetricProcessDuration      = "rankup_process_duration_seconds"
	MetricRevertsTotal         = "rankup_correction_reverts_total"
)

// Recorder holds the collectors. All methods are safe for concurrent use.
type Recorder struct {
	documents  *prometheus.CounterVec
	failures   *prometheus.CounterVec
	iterations *prometheus.HistogramVec
	statistic  *prometheus.GaugeVec
	duration   *prometheus.HistogramVec
	reverts    *prometheus.CounterVec
}

// NewRecorder creates a recorder. Its collectors are not registered; call
// Register.
func NewRecorder() *Recorder {
	return &Recorder{
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricDocumentsTotal,
				Help: "Documents processed by back-end and terminal correction state",
			},
			[]string{"backend", "state"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricDocumentFailures,
				Help: "Documents that failed by back-end",
			},
			[]string{"backend"},
		),
		iterations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricCorrectionIterations,
				Help:    "Correction iterations per document",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"backend"},
		),
		statistic: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: MetricCorrectionStatistic,
				Help: "Convergence statistic of the last processed document",
			},
			[]string{"backend"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricProcessDuration,
				Help:    "Time spent processing one document",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
		reverts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRevertsTotal,
				Help: "Correction runs whose last iteration was rolled back",
			},
			[]string{"backend"},
		),
	}
}

// Register registers every collector with reg.
func (r *Recorder) Register(reg prometheus.Registerer) error {
	for _, c := range r.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all collectors.
func (r *Recorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		r.documents,
		r.failures,
		r.iterations,
		r.statistic,
		r.duration,
		r.reverts,
	}
}

// ObserveRun records a finished correction run.
func (r *Recorder) ObserveRun(backend string, out correct.Outcome, elapsed time.Duration) {
	r.documents.WithLabelValues(backend, out.State.String()).Inc()
	r.iterations.WithLabelValues(backend).Observe(float64(out.Iterations))
	r.statistic.WithLabelValues(backend).Set(out.Statistic)
	r.duration.WithLabelValues(backend).Observe(elapsed.Seconds())
	if out.Reverted {
		r.reverts.WithLabelValues(backend).Inc()
	}
}

// ObserveFailure records a document that could not be processed.
func (r *Recorder) ObserveFailure(backend string) {
	r.failures.WithLabelValues(backend).Inc()
}
