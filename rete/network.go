package rete

import (
	"github.com/hashicorp/go-hclog"

	"github.com/nodeadmin/owlrl-reasoner/fact"
	"github.com/nodeadmin/owlrl-reasoner/term"
)

// EnqueueFunc lets the Inference Driver observe new/removed derived
// triples produced by a terminal node firing, so it can schedule them
// for further propagation (spec §4.5).
type EnqueueFunc func(tid fact.TripleId, t fact.Triple, sign int)

// EventFunc reports a diagnostic the core itself must never raise as an
// error (spec §7): NonRLAxiom, InconsistentOntology, RetractionUnknownTag.
type EventFunc func(kind, detail string)

// Network is the RETE discrimination network: a shared pool of alpha
// nodes plus one left-deep beta/builtin/terminal chain per compiled
// production (spec §4.4).
type Network struct {
	log hclog.Logger

	store *fact.Store
	terms *term.Store

	alphaByFingerprint map[string]*AlphaNode
	alphaByPredicate   map[term.Id][]*AlphaNode
	alphaWildcardPred  []*AlphaNode

	productions []*Production

	nextNodeID int

	Enqueue EnqueueFunc
	OnEvent EventFunc

	stats NetworkStats
}

// NetworkStats are activity counters accumulated since the last
// ResetStats call, read by the Inference Driver to build its own
// driver.Stats report for one Reason() pass (spec §4.5 "(new)").
type NetworkStats struct {
	AlphaActivations int
	BetaJoins        int
	ProductionsFired int
}

// Stats returns the counters accumulated since the last ResetStats.
func (n *Network) Stats() NetworkStats { return n.stats }

// ResetStats zeroes the activity counters; the driver calls this at the
// start of each Reason() pass so Stats reflects that pass alone.
func (n *Network) ResetStats() { n.stats = NetworkStats{} }

// Production is the compiled form of one axiom/SWRL rule: a chain of
// alpha nodes joined left-deep through beta nodes, with builtin nodes
// interleaved, terminating at a TerminalNode (spec §3 "Productions are
// append-only after compilation; they are not mutated during
// reasoning.").
type Production struct {
	ID       int
	Terminal *TerminalNode
}

func New(store *fact.Store, terms *term.Store, log hclog.Logger) *Network {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Network{
		log:                log.Named("rete"),
		store:              store,
		terms:              terms,
		alphaByFingerprint: make(map[string]*AlphaNode),
		alphaByPredicate:   make(map[term.Id][]*AlphaNode),
		OnEvent:            func(string, string) {},
		Enqueue:            func(fact.TripleId, fact.Triple, int) {},
	}
}

func (n *Network) nextID() int {
	n.nextNodeID++
	return n.nextNodeID
}

// getOrCreateAlpha returns the shared alpha node for p, creating it (and
// indexing it by its constant predicate, if any) if this is the first
// production to reference this exact pattern shape (spec §4.4 alpha
// sharing). A freshly created alpha is seeded from the triples already
// live in the Fact Store, so a production compiled after the facts it
// should match already exist still classifies them -- axioms and ground
// facts can arrive in either order within or across load_axioms batches
// (spec §3 determinism: closure must not depend on batching order).
func (n *Network) getOrCreateAlpha(p Pattern) *AlphaNode {
	fp := p.Fingerprint(true)
	if a, ok := n.alphaByFingerprint[fp]; ok {
		return a
	}
	a := newAlphaNode(n.nextID(), p)
	n.seedAlpha(a)
	n.alphaByFingerprint[fp] = a
	if p.P.Kind == SlotConst {
		n.alphaByPredicate[p.P.Const] = append(n.alphaByPredicate[p.P.Const], a)
	} else {
		n.alphaWildcardPred = append(n.alphaWildcardPred, a)
	}
	return a
}

// seedAlpha populates a's matched set from whatever already satisfies its
// pattern in the store, using the pattern's constant slots (if any) to
// narrow the scan to the most selective index permutation available.
// AddEdge already knows how to replay a.matched into a newly wired edge;
// seeding here is what gives it historical facts to replay in the first
// place.
func (n *Network) seedAlpha(a *AlphaNode) {
	var sPtr, pPtr, oPtr *term.Id
	if a.Pattern.S.Kind == SlotConst {
		v := a.Pattern.S.Const
		sPtr = &v
	}
	if a.Pattern.P.Kind == SlotConst {
		v := a.Pattern.P.Const
		pPtr = &v
	}
	if a.Pattern.O.Kind == SlotConst {
		v := a.Pattern.O.Const
		oPtr = &v
	}
	for _, t := range n.store.LiveView().Select(sPtr, pPtr, oPtr, false) {
		if _, ok := a.Pattern.Match(t); !ok {
			continue // repeated variable in the same pattern, e.g. Match(x,p,x)
		}
		a.onTriple(n, n.store.TripleID(t), t, +1)
	}
}

// CompileProduction wires one production's LHS patterns (already in the
// compiler's chosen join order, each using the production's own global
// variable numbering), builtin calls, and RHS templates into the
// network, sharing alpha nodes where possible (spec §4.4).
func (n *Network) CompileProduction(lhs []Pattern, builtins []BuiltinCall, rhs []TripleTemplate) *Production {
	terminal := &TerminalNode{ID: n.nextID(), ProductionID: len(n.productions), Templates: rhs}

	if len(lhs) == 0 {
		n.productions = append(n.productions, &Production{ID: terminal.ProductionID, Terminal: terminal})
		return n.productions[len(n.productions)-1]
	}

	// Left-deep beta chain: pattern 0 feeds the "left" accumulator
	// directly; each subsequent pattern joins in as the "right" input of
	// a new beta node (spec §4.4 "Beta nodes are built as a left-deep
	// chain in the order of LHS patterns supplied by the compiler").
	first := n.getOrCreateAlpha(lhs[0])

	varsSoFar := map[int]bool{}
	for _, v := range lhs[0].Vars() {
		varsSoFar[v] = true
	}

	if len(lhs) == 1 {
		out := terminalOrBuiltins(n, terminal, builtins)
		first.AddEdge(n, out, identityVarMap(lhs[0]))
	} else {
		// Build every beta node and resolve every alpha node first, with
		// no AddEdge call yet. AddEdge replays an alpha's (or a beta's
		// historical join's) matches immediately, so if a later beta's
		// successor link isn't wired yet when an earlier AddEdge fires,
		// the replayed token is emitted into an empty successor list and
		// silently lost -- wiring the whole chain before any replay runs
		// is what makes the historical join complete, not just the
		// per-alpha replay.
		betas := make([]*BetaNode, len(lhs)-1)
		alphas := make([]*AlphaNode, len(lhs)-1)
		for i := 1; i < len(lhs); i++ {
			shared := intersectVars(varsSoFar, lhs[i].Vars())
			betas[i-1] = newBetaNode(n.nextID(), shared)
			alphas[i-1] = n.getOrCreateAlpha(lhs[i])
			for _, v := range lhs[i].Vars() {
				varsSoFar[v] = true
			}
		}

		for i := 1; i < len(betas); i++ {
			betas[i-1].AddSuccessor(leftAdapter{n: betas[i]})
		}
		out := terminalOrBuiltins(n, terminal, builtins)
		betas[len(betas)-1].AddSuccessor(out)

		first.AddEdge(n, leftAdapter{n: betas[0]}, identityVarMap(lhs[0]))
		for i, alpha := range alphas {
			alpha.AddEdge(n, rightAdapter{n: betas[i]}, identityVarMap(lhs[i+1]))
		}
	}

	p := &Production{ID: terminal.ProductionID, Terminal: terminal}
	n.productions = append(n.productions, p)
	return p
}

// terminalOrBuiltins interleaves the production's builtin calls (each a
// filter/binder) between the join chain and the terminal node.
func terminalOrBuiltins(n *Network, terminal *TerminalNode, calls []BuiltinCall) Receiver {
	if len(calls) == 0 {
		return terminal
	}
	var first *BuiltinNode
	var prev *BuiltinNode
	for _, c := range calls {
		bn := &BuiltinNode{ID: n.nextID(), Call: c, Store: n.terms}
		if first == nil {
			first = bn
		} else {
			prev.AddSuccessor(bn)
		}
		prev = bn
	}
	prev.AddSuccessor(terminal)
	return first
}

// identityVarMap maps a pattern's local variable numbering onto itself;
// the compiler is responsible for numbering every pattern in a
// production with the *same* global scheme up front, so alpha nodes
// compiled for one production's pattern already use global numbers. An
// alpha node is shared only between patterns with the same
// Fingerprint(true), which includes the variable numbers, so every
// production wired to a shared alpha uses the same numbering and the
// identity map is always the right one.
func identityVarMap(p Pattern) map[int]int {
	m := map[int]int{}
	for _, v := range p.Vars() {
		m[v] = v
	}
	return m
}

func intersectVars(seen map[int]bool, vars []int) []int {
	var out []int
	for _, v := range vars {
		if seen[v] {
			out = append(out, v)
		}
	}
	return out
}

// AssertDelta feeds a newly stored (asserted or derived) triple into
// every alpha node whose predicate slot could match it (spec §4.4 "index
// pins"): nodes keyed on that exact predicate constant, plus any
// wildcard-predicate alpha nodes.
func (n *Network) AssertDelta(tid fact.TripleId, t fact.Triple) {
	n.fanOut(tid, t, +1)
}

// RetractDelta propagates a -delta for a triple that has just lost its
// last justification/assertion (spec §4.5 step 3).
func (n *Network) RetractDelta(tid fact.TripleId, t fact.Triple) {
	n.fanOut(tid, t, -1)
}

func (n *Network) fanOut(tid fact.TripleId, t fact.Triple, sign int) {
	for _, a := range n.alphaByPredicate[t.P] {
		a.onTriple(n, tid, t, sign)
	}
	for _, a := range n.alphaWildcardPred {
		a.onTriple(n, tid, t, sign)
	}
}

func (n *Network) deriveFromProduction(tr fact.Triple, justification []fact.TripleId) {
	j := fact.Justification(append([]fact.TripleId(nil), justification...))
	res := n.store.Derive(tr, j)
	if res.Added {
		n.log.Trace("production fired", "triple", tr)
		n.Enqueue(n.store.TripleID(tr), tr, +1)
	}
}

func (n *Network) retractProduction(term_ *TerminalNode, tok Token) {
	for _, tmpl := range term_.Templates {
		tr, ok := instantiate(tmpl, tok.Bindings)
		if !ok {
			continue
		}
		idx, ok := n.store.FindJustificationIndex(tr, fact.Justification(tok.Justification))
		if !ok {
			continue
		}
		// Capture the id before UndoJustification can tombstone the entry.
		tid := n.store.TripleID(tr)
		removed := n.store.UndoJustification(tr, idx)
		if removed {
			n.Enqueue(tid, tr, -1)
		}
	}
}

func (n *Network) reportInconsistency(term_ *TerminalNode, tok Token) {
	n.OnEvent("InconsistentOntology", term_.InconsistencyDetail)
}
