// Package metrics provides Prometheus instrumentation for form evaluation,
// sessions and submissions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dynform"

// Fault kinds recorded by SchemaFaults.
const (
	FaultPredicate   = "predicate"
	FaultExpression  = "expression"
	FaultOptions     = "options"
	FaultUnknownType = "unknown_type"
)

// Submission outcomes recorded by Submissions.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeInvalid   = "invalid"
	OutcomeRejected  = "rejected"
)

// Schema reload results recorded by SchemaReloads.
const (
	ReloadSucceeded = "succeeded"
	ReloadFailed    = "failed"
)

// Collector holds all metrics. Each collector owns its registry so several
// can coexist (tests, multiple servers in one process).
type Collector struct {
	registry *prometheus.Registry

	Evaluations         prometheus.Counter
	EvaluationDuration  prometheus.Histogram
	SchemaFaults        *prometheus.CounterVec
	ValidationErrors    prometheus.Histogram
	Submissions         *prometheus.CounterVec
	SubmissionsInFlight prometheus.Gauge
	Sessions            prometheus.Gauge
	SchemaReloads       *prometheus.CounterVec
}

// New creates a collector with every metric registered on a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		Evaluations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total number of form evaluation passes",
		}),
		EvaluationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of a full visibility and validation pass",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}),
		SchemaFaults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_faults_total",
			Help:      "Faulting custom predicates, expressions and option providers",
		}, []string{"kind"}),
		ValidationErrors: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_errors",
			Help:      "Number of field errors produced per evaluation",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Submission attempts by outcome",
		}, []string{"outcome"}),
		SubmissionsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "submissions_in_flight",
			Help:      "Submissions currently waiting on the submit callback",
		}),
		Sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Live form sessions held by the server",
		}),
		SchemaReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_reloads_total",
			Help:      "Default schema reloads by result",
		}, []string{"result"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Fault increments the schema fault counter. Safe on a nil collector.
func (c *Collector) Fault(kind string) {
	if c == nil {
		return
	}
	c.SchemaFaults.WithLabelValues(kind).Inc()
}

// Submission increments the submission counter. Safe on a nil collector.
func (c *Collector) Submission(outcome string) {
	if c == nil {
		return
	}
	c.Submissions.WithLabelValues(outcome).Inc()
}

// SchemaReload increments the reload counter. Safe on a nil collector.
func (c *Collector) SchemaReload(result string) {
	if c == nil {
		return
	}
	c.SchemaReloads.WithLabelValues(result).Inc()
}

// SetSessions reports the number of live sessions. Safe on a nil collector.
func (c *Collector) SetSessions(n int) {
	if c == nil {
		return
	}
	c.Sessions.Set(float64(n))
}
