// Package driver implements the Inference Driver (spec §4.5): the
// worklist pump that drains RETE deltas to quiescence, and the
// source-retraction orchestration that feeds justification-invalidation
// -deltas back through the same pump.
package driver

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/nodeadmin/owlrl-reasoner/fact"
	"github.com/nodeadmin/owlrl-reasoner/rete"
)

// Stats reports one Reason() pass's activity, fed to the metrics
// collector and event log by the top-level reasoner (spec §4.5 "(new)
// The driver exposes Reason(ctx) Stats").
type Stats struct {
	AlphaActivations int
	BetaJoins        int
	ProductionsFired int
	DeltasProcessed  int
	Duration         time.Duration
}

type pendingDelta struct {
	tid  fact.TripleId
	tr   fact.Triple
	sign int
}

// Driver owns the delta worklist between the Fact Store/RETE Network and
// the host-facing reasoner. It is not safe for concurrent use by more
// than one goroutine; the caller holds Store.Mu for the duration of
// Reason/RetractSource, matching the single-writer discipline of spec §5.
type Driver struct {
	log   hclog.Logger
	store *fact.Store
	net   *rete.Network

	worklist []pendingDelta
}

// New wires net.Enqueue to push new/removed derived triples onto the
// driver's own worklist, so a production firing during propagation is
// itself fed back through the network as a further delta (spec §4.5
// "the driver pumps deltas breadth-first through joins until no node has
// pending work").
func New(store *fact.Store, net *rete.Network, log hclog.Logger) *Driver {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	d := &Driver{log: log.Named("driver"), store: store, net: net}
	net.Enqueue = func(tid fact.TripleId, tr fact.Triple, sign int) {
		d.worklist = append(d.worklist, pendingDelta{tid: tid, tr: tr, sign: sign})
	}
	return d
}

// EnqueueAssert seeds the worklist with a +delta for a triple the caller
// has just asserted into the Fact Store (load_axioms' ground assertions
// already fan out their first hop themselves -- see axiom.Compiler.assertGround
// -- so this is for hosts asserting facts directly against the store
// without going through the Axiom Compiler).
func (d *Driver) EnqueueAssert(tid fact.TripleId, tr fact.Triple) {
	d.worklist = append(d.worklist, pendingDelta{tid: tid, tr: tr, sign: +1})
}

// Reason drains the worklist to quiescence (spec §4.5). It is a no-op,
// returning a zero Stats, when the worklist is already empty (spec §6.3
// "reason() (noop if already quiescent)") -- it does not even reset the
// network's activity counters in that case, so repeated no-op calls
// don't erase a caller's unread Stats from the pass before.
func (d *Driver) Reason(ctx context.Context) Stats {
	if len(d.worklist) == 0 {
		return Stats{}
	}

	start := time.Now()
	d.net.ResetStats()
	processed := 0

	// Breadth-first: pop from the front so a delta enqueued by this
	// iteration's propagation is processed only after every delta already
	// queued ahead of it.
	for len(d.worklist) > 0 {
		if processed%256 == 0 {
			select {
			case <-ctx.Done():
				d.log.Warn("reason canceled", "processed", processed, "remaining", len(d.worklist))
				return d.finish(start, processed)
			default:
			}
		}

		item := d.worklist[0]
		d.worklist = d.worklist[1:]
		processed++

		if item.sign > 0 {
			d.net.AssertDelta(item.tid, item.tr)
		} else {
			d.net.RetractDelta(item.tid, item.tr)
		}
	}

	return d.finish(start, processed)
}

func (d *Driver) finish(start time.Time, processed int) Stats {
	ns := d.net.Stats()
	return Stats{
		AlphaActivations: ns.AlphaActivations,
		BetaJoins:        ns.BetaJoins,
		ProductionsFired: ns.ProductionsFired,
		DeltasProcessed:  processed,
		Duration:         time.Since(start),
	}
}

// RetractSource implements spec §4.5's source-retraction procedure: drop
// tag from every triple's source_tags, enqueue a -delta for every triple
// that consequently has neither assertions nor justifications left, then
// iterate the network to quiescence so dependent derivations unravel too
// (steps 1-5). Retracting an unknown tag is a no-op, matching
// fact.Store.RetractSource and spec §7's RetractionUnknownTag.
func (d *Driver) RetractSource(ctx context.Context, tag fact.SourceId) (fact.RetractReport, Stats) {
	report := d.store.RetractSource(tag)
	for _, removed := range report.Removed {
		d.worklist = append(d.worklist, pendingDelta{tid: removed.ID, tr: removed.Triple, sign: -1})
	}
	stats := d.Reason(ctx)
	return report, stats
}

// Pending reports the current worklist depth, used by callers (and tests)
// to confirm Reason would not be a no-op.
func (d *Driver) Pending() int { return len(d.worklist) }
