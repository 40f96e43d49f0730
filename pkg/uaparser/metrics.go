package uaparser

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "uaparser"

// Metrics holds the classifier's Prometheus collectors.
type Metrics struct {
	// parsesTotal counts parse calls by outcome (ok, timeout, canceled).
	parsesTotal *prometheus.CounterVec

	// matchesTotal counts per-category results by whether a rule matched.
	// Labels: category (ua, os, device), result (matched, default)
	matchesTotal *prometheus.CounterVec

	// parseDuration measures the wall time of a full three-category parse.
	parseDuration prometheus.Histogram

	// reloadsTotal counts rule set swaps by result (ok, error).
	reloadsTotal *prometheus.CounterVec

	// rules reports the size of the active rule set per category.
	rules *prometheus.GaugeVec

	// truncatedTotal counts inputs cut to the configured maximum length.
	truncatedTotal prometheus.Counter
}

// NewMetrics registers the collectors with reg. A nil reg registers with the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		parsesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "parser",
			Name:      "parses_total",
			Help:      "Total parse calls by outcome",
		}, []string{"outcome"}),
		matchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "parser",
			Name:      "classifications_total",
			Help:      "Per-category classifications by whether a rule matched",
		}, []string{"category", "result"}),
		parseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "parser",
			Name:      "parse_duration_seconds",
			Help:      "Wall time of a full parse",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		reloadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rules",
			Name:      "reloads_total",
			Help:      "Rule set reloads by result",
		}, []string{"result"}),
		rules: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "rules",
			Name:      "active",
			Help:      "Rules in the active rule set by category",
		}, []string{"category"}),
		truncatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "parser",
			Name:      "truncated_inputs_total",
			Help:      "Inputs truncated to the maximum input length",
		}),
	}
}

func (m *Metrics) observeParse(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.parsesTotal.WithLabelValues(outcome).Inc()
	m.parseDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeClassification(c Category, matched bool) {
	if m == nil {
		return
	}
	result := "default"
	if matched {
		result = "matched"
	}
	m.matchesTotal.WithLabelValues(c.String(), result).Inc()
}

func (m *Metrics) observeTruncation() {
	if m == nil {
		return
	}
	m.truncatedTotal.Inc()
}

// ObserveReload records a reload attempt. rs is the active set after the
// attempt and may be nil on failure.
func (m *Metrics) ObserveReload(rs *RuleSet, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.reloadsTotal.WithLabelValues("error").Inc()
		return
	}
	m.reloadsTotal.WithLabelValues("ok").Inc()
	m.setActive(rs)
}

func (m *Metrics) setActive(rs *RuleSet) {
	if m == nil || rs == nil {
		return
	}
	for _, c := range Categories {
		m.rules.WithLabelValues(c.String()).Set(float64(rs.Len(c)))
	}
}
