// Package observability holds the Prometheus metrics daybook records. Metrics
// live on a private registry so nothing is exported globally; the CLI dumps
// them in text exposition format on request.
package observability

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "daybook"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	backendSelected *prometheus.CounterVec
	migrationRuns   *prometheus.CounterVec
	migratedRecords *prometheus.CounterVec
	storeErrors     *prometheus.CounterVec
	viewFailures    *prometheus.CounterVec
	autoSaveRuns    *prometheus.CounterVec
	lastSaved       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on a new registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		backendSelected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "backend_selected_total",
			Help:      "Number of times each backend was selected at open.",
		}, []string{"backend"}),
		migrationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "migration_runs_total",
			Help:      "Fallback-to-embedded migration runs grouped by result.",
		}, []string{"result"}),
		migratedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "migrated_records_total",
			Help:      "Records copied from the fallback store grouped by kind.",
		}, []string{"kind"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Store operation failures grouped by operation.",
		}, []string{"op"}),
		viewFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "views",
			Name:      "recompute_failures_total",
			Help:      "View recomputation failures grouped by view.",
		}, []string{"view"}),
		autoSaveRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "autosave",
			Name:      "runs_total",
			Help:      "Auto-save exports grouped by result.",
		}, []string{"result"}),
		lastSaved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "autosave",
			Name:      "last_saved_timestamp_seconds",
			Help:      "Unix timestamp of the most recent successful export to file.",
		}),
	}
	m.registry.MustRegister(
		m.backendSelected,
		m.migrationRuns,
		m.migratedRecords,
		m.storeErrors,
		m.viewFailures,
		m.autoSaveRuns,
		m.lastSaved,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// BackendSelected counts the backend chosen by store.Open.
func (m *Metrics) BackendSelected(backend string) {
	if m == nil {
		return
	}
	m.backendSelected.WithLabelValues(backend).Inc()
}

// Migration result labels.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// MigrationRun counts a migration attempt.
func (m *Metrics) MigrationRun(result string) {
	if m == nil {
		return
	}
	m.migrationRuns.WithLabelValues(result).Inc()
}

// RecordsMigrated adds n copied records of kind ("activity" or "category").
func (m *Metrics) RecordsMigrated(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.migratedRecords.WithLabelValues(kind).Add(float64(n))
}

// StoreError counts a failed store operation.
func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// ViewFailure counts a failed view recomputation.
func (m *Metrics) ViewFailure(view string) {
	if m == nil {
		return
	}
	m.viewFailures.WithLabelValues(view).Inc()
}

// AutoSave counts an auto-save export and, on success, records when it ran.
func (m *Metrics) AutoSave(result string, unixSeconds int64) {
	if m == nil {
		return
	}
	m.autoSaveRuns.WithLabelValues(result).Inc()
	if result == ResultOK {
		m.lastSaved.Set(float64(unixSeconds))
	}
}

// WriteText writes every metric family in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
