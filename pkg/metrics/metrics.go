// Package metrics exposes corpus comparison counters as Prometheus metrics.
// A run owns its registry; the collected values can be exported to a
// node_exporter textfile once the run completes.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sdejongh/imdidiff/pkg/models"
)

const namespace = "imdidiff"

// Metrics records the outcome of every file pair of a run
type Metrics struct {
	registry *prometheus.Registry

	filesCompared  prometheus.Counter
	filesMissing   prometheus.Counter
	filesSkipped   prometheus.Counter
	filesErrored   *prometheus.CounterVec
	differences    *prometheus.CounterVec
	divergentKinds *prometheus.CounterVec
	pairDuration   prometheus.Histogram
	bytesRead      prometheus.Counter
}

// New creates the metrics of one run on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		filesCompared: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_compared_total",
			Help:      "File pairs fully compared",
		}),
		filesMissing: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_missing_target_total",
			Help:      "Source files without a target counterpart",
		}),
		filesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_skipped_total",
			Help:      "Source files excluded from comparison",
		}),
		filesErrored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_errored_total",
			Help:      "File pairs that could not be compared, by failing stage",
		}, []string{"stage"}),
		differences: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "differences_total",
			Help:      "Differences found, by classification",
		}, []string{"classification"}),
		divergentKinds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "divergent_differences_total",
			Help:      "Divergent differences, by difference code",
		}, []string{"code"}),
		pairDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pair_duration_seconds",
			Help:      "Duration of a file pair comparison",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		bytesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_read_total",
			Help:      "Raw bytes read from both trees",
		}),
	}

	// every code is exported, at zero when the run found none
	for _, kind := range models.Kinds() {
		m.divergentKinds.WithLabelValues(kind.Code())
	}
	return m
}

// Registry returns the registry holding the run metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// FileCompared records a completed pair
func (m *Metrics) FileCompared(r *models.FileResult) {
	m.filesCompared.Inc()
	m.pairDuration.Observe(r.Duration.Seconds())
	m.bytesRead.Add(float64(r.BytesRead))

	m.differences.WithLabelValues(string(models.Divergent)).Add(float64(len(r.Divergent)))
	m.differences.WithLabelValues(string(models.Recoverable)).Add(float64(r.RecoverableCount))
	m.differences.WithLabelValues(string(models.Suppressed)).Add(float64(r.SuppressedCount))
	for _, d := range r.Divergent {
		m.divergentKinds.WithLabelValues(d.Code()).Inc()
	}
}

// FileMissingTarget records a source file without counterpart
func (m *Metrics) FileMissingTarget() {
	m.filesMissing.Inc()
}

// FileSkipped records an excluded source file
func (m *Metrics) FileSkipped() {
	m.filesSkipped.Inc()
}

// FileErrored records a pair failure at stage
func (m *Metrics) FileErrored(stage string) {
	m.filesErrored.WithLabelValues(stage).Inc()
}

// WriteTextfile exports the metrics in the text exposition format, for the
// node_exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
