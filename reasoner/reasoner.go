package reasoner

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	uuid "github.com/hashicorp/go-uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nodeadmin/owlrl-reasoner/axiom"
	"github.com/nodeadmin/owlrl-reasoner/dlir"
	"github.com/nodeadmin/owlrl-reasoner/driver"
	"github.com/nodeadmin/owlrl-reasoner/fact"
	"github.com/nodeadmin/owlrl-reasoner/metrics"
	"github.com/nodeadmin/owlrl-reasoner/query"
	"github.com/nodeadmin/owlrl-reasoner/rete"
	"github.com/nodeadmin/owlrl-reasoner/term"
)

// Reasoner is the assembled, host-facing OWL 2 RL incremental reasoner of
// spec §6.3: one Term Store, one Fact Store, one RETE Network, one Axiom
// Compiler, one Inference Driver, and one Query Engine, sharing the
// single global write mutex of spec §5.
type Reasoner struct {
	log     hclog.Logger
	opts    Options
	events  *EventLog
	metrics *metrics.Collector

	terms    *term.Store
	store    *fact.Store
	network  *rete.Network
	compiler *axiom.Compiler
	drv      *driver.Driver
	engine   *query.Engine
}

// New assembles a Reasoner. log may be nil (a null logger is used,
// matching every inner package's own nil-log convention).
func New(opts Options, log hclog.Logger) *Reasoner {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	opts = opts.resolve()

	r := &Reasoner{
		log:     log.Named("reasoner"),
		opts:    opts,
		events:  newEventLog(opts.EventLogCapacity),
		metrics: metrics.New(),
		terms:   term.New(),
	}

	r.store = fact.New(r.log, func(kind, detail string) { r.recordEvent(kind, detail) })
	r.network = rete.New(r.store, r.terms, r.log)
	r.network.OnEvent = func(kind, detail string) { r.recordEvent(kind, detail) }
	r.compiler = axiom.New(r.terms, r.network, r.store, r.log)
	r.drv = driver.New(r.store, r.network, r.log)
	r.engine = query.New(r.store, r.terms, opts.QueryCacheSize)
	return r
}

func (r *Reasoner) recordEvent(kind, detail string) {
	r.events.append(EventKind(kind), detail)
	if EventKind(kind) == EventInconsistentOntology {
		r.metrics.ObserveInconsistency()
	}
}

// EventLog returns the reasoner's diagnostic ring buffer.
func (r *Reasoner) EventLog() *EventLog { return r.events }

// Metrics returns the reasoner's prometheus collector.
func (r *Reasoner) Metrics() *metrics.Collector { return r.metrics }

// NewSourceTag generates an opaque source tag for a caller that doesn't
// want to name its own (spec §6.1 SourceTag "opaque retraction label").
func NewSourceTag() (dlir.SourceTag, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", fmt.Errorf("generating source tag: %w", err)
	}
	return dlir.SourceTag(id), nil
}

// LoadAxioms compiles axioms into the reasoner (spec §6.3 load_axioms).
// It holds the write mutex for the whole call, matching the
// single-writer model of spec §5. NonRLAxiomWarnings are routed to the
// event log, not returned; any other compile error is aggregated into
// the returned multierror, mirroring axiom.Compiler.LoadAxioms's own
// aggregation but splitting the two kinds the way a host needs to: a
// warning is not something a caller should treat as "the batch failed."
func (r *Reasoner) LoadAxioms(axioms []dlir.Axiom) error {
	r.store.Mu.Lock()
	defer r.store.Mu.Unlock()

	err := r.compiler.LoadAxioms(axioms)
	if err == nil {
		return nil
	}

	var hard *multierror.Error
	if merr, ok := err.(*multierror.Error); ok {
		for _, e := range merr.Errors {
			if w, ok := e.(axiom.NonRLAxiomWarning); ok {
				r.events.append(EventNonRLAxiom, w.Error())
				continue
			}
			hard = multierror.Append(hard, e)
		}
	} else if w, ok := err.(axiom.NonRLAxiomWarning); ok {
		r.events.append(EventNonRLAxiom, w.Error())
	} else {
		hard = multierror.Append(hard, err)
	}
	return hard.ErrorOrNil()
}

// Reason drains the worklist to quiescence (spec §6.3 reason()); a
// no-op call returns a zero driver.Stats and is not recorded in the
// reason-duration histogram, matching driver.Driver.Reason's own
// documented no-op behaviour.
func (r *Reasoner) Reason(ctx context.Context) driver.Stats {
	r.store.Mu.Lock()
	defer r.store.Mu.Unlock()
	stats := r.drv.Reason(ctx)
	r.metrics.ObserveReason(stats)
	return stats
}

// RetractSource removes tag from every triple's source tags, enqueues
// the resulting -deltas, and pumps the network to quiescence (spec §6.3
// retract_source). Retracting a tag the store never saw is a documented
// no-op (spec §7 RetractionUnknownTag) recorded to the event log, not
// returned as an error.
func (r *Reasoner) RetractSource(ctx context.Context, tag dlir.SourceTag) (fact.RetractReport, driver.Stats) {
	r.store.Mu.Lock()
	defer r.store.Mu.Unlock()
	report, stats := r.drv.RetractSource(ctx, fact.SourceId(tag))
	if !report.TagKnown {
		r.events.append(EventRetractionUnknownTag, string(tag))
	}
	r.metrics.ObserveReason(stats)
	r.metrics.ObserveRetract(len(report.Removed))
	return report, stats
}

// Snapshot returns a read-only, copy-on-write handle on the Fact Store's
// current state (spec §6.3 snapshot()). Safe to call concurrently with
// any other Reasoner method; readers never block writers and vice versa
// (spec §5).
func (r *Reasoner) Snapshot() *fact.SnapshotHandle { return r.store.Snapshot() }

// AssertFact asserts t directly into the Fact Store under tag, bypassing
// the Axiom Compiler, and seeds the driver's worklist with its first
// propagation hop -- for hosts building facts themselves rather than
// going through load_axioms (driver.Driver.EnqueueAssert's documented use
// case). The caller still calls Reason to pump the resulting deltas to
// quiescence.
func (r *Reasoner) AssertFact(t fact.Triple, tag dlir.SourceTag) {
	r.store.Mu.Lock()
	defer r.store.Mu.Unlock()
	res := r.store.Assert(t, fact.SourceId(tag))
	r.metrics.ObserveAssert()
	if res.Added {
		r.drv.EnqueueAssert(r.store.TripleID(t), t)
	}
}

// Select runs q against a fresh snapshot (spec §6.3 select(query) →
// Table).
func (r *Reasoner) Select(q dlir.Query) (query.Table, error) {
	defer r.metrics.Timer("select")()
	return r.engine.Select(r.Snapshot(), q)
}

// Ask runs q against a fresh snapshot (spec §6.3 ask(query) → bool).
func (r *Reasoner) Ask(q dlir.Query) (bool, error) {
	defer r.metrics.Timer("ask")()
	return r.engine.Ask(r.Snapshot(), q)
}

// Describe resolves termName to its interned id and returns its
// subject-and-object neighbourhood (spec §6.3 describe(term) → Table).
// An unresolved name yields an empty Table, matching spec §7's
// UnknownTerm policy.
func (r *Reasoner) Describe(termName string) query.Table {
	defer r.metrics.Timer("describe")()
	id, ok := r.terms.LookupName(termName)
	if !ok {
		return query.Table{Vars: []string{"s", "p", "o"}}
	}
	return r.engine.DescribeTerm(r.Snapshot(), id)
}

// InstancesOf returns every individual asserted or derived to be of type
// className (spec §6.3 instances_of(C) → Table), as a one-column Table.
func (r *Reasoner) InstancesOf(className string) query.Table {
	h := r.Snapshot()
	classID, ok := r.terms.LookupName(className)
	if !ok {
		return query.Table{Vars: []string{"individual"}}
	}
	typePred := term.ReservedType
	out := query.Table{Vars: []string{"individual"}}
	for _, tr := range h.Select(nil, &typePred, &classID, false) {
		out.Rows = append(out.Rows, query.Row{"individual": tr.S})
	}
	return out
}

// SubsumersOf returns every class className is a (direct or transitive)
// subclass of (spec §6.3 subsumers_of(C) → list<TermId>), read directly
// off the ReservedSubClassOf facts the Axiom Compiler materialises for
// every atomic SubClassOf/EquivClasses axiom and closes under
// transitivity.
func (r *Reasoner) SubsumersOf(className string) []term.Id {
	return r.subClassEdges(className, true)
}

// SubsumedBy returns every class that is a (direct or transitive)
// subclass of className (spec §6.3 subsumed_by(C) → list<TermId>).
func (r *Reasoner) SubsumedBy(className string) []term.Id {
	return r.subClassEdges(className, false)
}

func (r *Reasoner) subClassEdges(className string, upward bool) []term.Id {
	classID, ok := r.terms.LookupName(className)
	if !ok {
		return nil
	}
	h := r.Snapshot()
	pred := term.ReservedSubClassOf
	var triples []fact.Triple
	if upward {
		triples = h.Select(&classID, &pred, nil, false)
	} else {
		triples = h.Select(nil, &pred, &classID, false)
	}
	out := make([]term.Id, 0, len(triples))
	for _, tr := range triples {
		if upward {
			out = append(out, tr.O)
		} else {
			out = append(out, tr.S)
		}
	}
	return out
}

// RoleAssertions returns every triple matching the given role/subject/
// object, any of which may be left empty ("") to act as a wildcard
// (spec §6.3 role_assertions(role?, subj?, obj?) → Table). Names that
// fail to resolve yield an empty Table rather than an error (spec §7
// UnknownTerm).
func (r *Reasoner) RoleAssertions(role, subj, obj string) query.Table {
	h := r.Snapshot()
	var rp, sp, op *term.Id
	if role != "" {
		id, ok := r.terms.LookupName(role)
		if !ok {
			return query.Table{Vars: []string{"s", "p", "o"}}
		}
		rp = &id
	}
	if subj != "" {
		id, ok := r.terms.LookupName(subj)
		if !ok {
			return query.Table{Vars: []string{"s", "p", "o"}}
		}
		sp = &id
	}
	if obj != "" {
		id, ok := r.terms.LookupName(obj)
		if !ok {
			return query.Table{Vars: []string{"s", "p", "o"}}
		}
		op = &id
	}
	out := query.Table{Vars: []string{"s", "p", "o"}}
	for _, tr := range h.Select(sp, rp, op, true) {
		out.Rows = append(out.Rows, query.Row{"s": tr.S, "p": tr.P, "o": tr.O})
	}
	return out
}

// SelectMany runs every query in qs concurrently, each through Select
// against its own snapshot (each Snapshot call advances the epoch, so the
// snapshots carry different epochs), using golang.org/x/sync/errgroup the
// way spec §5 anticipates hosts using multiple goroutines against
// independent snapshots. Running queries are not cancelled on error:
// every goroutine runs to completion and the first error is returned;
// otherwise results are returned in the same order as qs.
func (r *Reasoner) SelectMany(ctx context.Context, qs []dlir.Query) ([]query.Table, error) {
	out := make([]query.Table, len(qs))
	g, _ := errgroup.WithContext(ctx)
	for i, q := range qs {
		i, q := i, q
		g.Go(func() error {
			t, err := r.Select(q)
			if err != nil {
				return err
			}
			out[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
