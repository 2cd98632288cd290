// Package observability exposes the engine's Prometheus metrics.
// All methods are nil-receiver safe so instrumentation stays optional.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's instrument set.
type Metrics struct {
	renders         prometheus.Counter
	unknownElements prometheus.Counter
	importFailures  prometheus.Counter
	publishes       *prometheus.CounterVec
	actionDuration  prometheus.Histogram
}

// New registers the engine metrics on reg and returns the set.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		renders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hypernote_renders_total",
			Help: "Number of document render passes.",
		}),
		unknownElements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hypernote_unknown_elements_total",
			Help: "Number of element names that fell through to the unknown placeholder.",
		}),
		importFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hypernote_import_failures_total",
			Help: "Number of component import entries that failed to resolve.",
		}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hypernote_publishes_total",
			Help: "Number of action publishes by result.",
		}, []string{"result"}),
		actionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hypernote_action_duration_seconds",
			Help:    "Wall time of action execution including sign and publish.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.renders, m.unknownElements, m.importFailures, m.publishes, m.actionDuration)
	return m
}

// IncRender counts one render pass.
func (m *Metrics) IncRender() {
	if m == nil {
		return
	}
	m.renders.Inc()
}

// IncUnknownElement counts one unknown-element fallthrough.
func (m *Metrics) IncUnknownElement() {
	if m == nil {
		return
	}
	m.unknownElements.Inc()
}

// IncImportFailure counts one unresolved import entry.
func (m *Metrics) IncImportFailure() {
	if m == nil {
		return
	}
	m.importFailures.Inc()
}

// ObserveAction records one action execution outcome.
func (m *Metrics) ObserveAction(start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.publishes.WithLabelValues(result).Inc()
	m.actionDuration.Observe(time.Since(start).Seconds())
}
