// Package metrics wraps prometheus/client_golang counters and a
// histogram around the Inference Driver's per-pass Stats and the Query
// Engine's per-call latency, supplementing spec §7's "record diagnostics
// on a per-reasoner event log" with the quantitative half of that
// diagnostic surface (SPEC_FULL.md "Metrics & Event Log").
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nodeadmin/owlrl-reasoner/driver"
)

// Collector is one reasoner's metrics surface, registered against its own
// prometheus.Registry so that multiple Reasoner instances in the same
// process (e.g. one per test case) never collide on metric names.
type Collector struct {
	registry *prometheus.Registry

	factsAsserted   prometheus.Counter
	factsRetracted  prometheus.Counter
	factsDerived    prometheus.Counter
	productionsFired prometheus.Counter
	inconsistencies prometheus.Counter
	reasonDuration  prometheus.Histogram
	queryDuration   *prometheus.HistogramVec
}

// New builds a Collector with its own registry, mirroring the teacher
// pack's convention (nomad's client usage) of registering metrics
// per-component rather than only against the global default registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		factsAsserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "owlrl_facts_asserted_total",
			Help: "Triples asserted directly by a host (not derived).",
		}),
		factsRetracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "owlrl_facts_retracted_total",
			Help: "Triples torn down by a source retraction.",
		}),
		factsDerived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "owlrl_facts_derived_total",
			Help: "Production firings, counted as derivations (includes firings whose triple already existed).",
		}),
		productionsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "owlrl_productions_fired_total",
			Help: "Terminal node firings across all Reason() passes.",
		}),
		inconsistencies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "owlrl_inconsistency_events_total",
			Help: "InconsistentOntology events appended to the event log.",
		}),
		reasonDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "owlrl_reason_duration_seconds",
			Help:    "Wall time of each Reason() pass that did any work.",
			Buckets: prometheus.DefBuckets,
		}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "owlrl_query_duration_seconds",
			Help:    "Wall time of select/ask/describe evaluations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	reg.MustRegister(
		c.factsAsserted, c.factsRetracted, c.factsDerived,
		c.productionsFired, c.inconsistencies,
		c.reasonDuration, c.queryDuration,
	)
	return c
}

// Registry exposes the underlying prometheus.Registry for a host to
// scrape.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveAssert records one direct host-level fact assertion.
func (c *Collector) ObserveAssert() { c.factsAsserted.Inc() }

// ObserveReason folds one driver.Stats pass into the counters and
// histogram; a zero-value Stats (Reason's documented no-op return) is
// still safe to pass -- it adds zero to every counter, and no duration
// is observed for a pass that processed no deltas. ProductionsFired
// doubles as the derived-facts counter: it counts every terminal-node
// firing, including firings whose triple already existed and
// inconsistency firings, so it is not an exact count of new triples.
func (c *Collector) ObserveReason(s driver.Stats) {
	if s.ProductionsFired > 0 {
		c.productionsFired.Add(float64(s.ProductionsFired))
		c.factsDerived.Add(float64(s.ProductionsFired))
	}
	if s.DeltasProcessed > 0 {
		c.reasonDuration.Observe(s.Duration.Seconds())
	}
}

// ObserveRetract records n triples torn down by a source retraction.
func (c *Collector) ObserveRetract(n int) {
	if n > 0 {
		c.factsRetracted.Add(float64(n))
	}
}

// ObserveInconsistency records one InconsistentOntology event.
func (c *Collector) ObserveInconsistency() { c.inconsistencies.Inc() }

// Timer returns a function that, when called, records the elapsed time
// since Timer was invoked under the given query kind label ("select",
// "ask", "describe").
func (c *Collector) Timer(kind string) func() {
	start := time.Now()
	return func() {
		c.queryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}
}
