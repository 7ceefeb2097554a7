package rete_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/owlrl-reasoner/fact"
	"github.com/nodeadmin/owlrl-reasoner/rete"
	"github.com/nodeadmin/owlrl-reasoner/term"
)

// pumpOnce feeds store deltas straight into the network, bypassing the
// driver's worklist loop -- enough to test single-hop and chained
// production firing without depending on the (separately tested)
// Inference Driver.
func pumpOnce(t *testing.T, terms *term.Store, store *fact.Store, net *rete.Network, triples []fact.Triple, src fact.SourceId) {
	t.Helper()
	for _, tr := range triples {
		res := store.Assert(tr, src)
		if res.Added {
			net.AssertDelta(store.TripleID(tr), tr)
		}
	}
}

func TestNetwork_SingleHopSubsumption(t *testing.T) {
	terms := term.New()
	store := fact.New(nil, nil)
	net := rete.New(store, terms, nil)

	var derived []fact.Triple
	net.Enqueue = func(tid fact.TripleId, tr fact.Triple, sign int) {
		if sign > 0 {
			derived = append(derived, tr)
		}
	}

	person := terms.InternName("Person")
	animal := terms.InternName("Animal")
	x := 0
	net.CompileProduction(
		[]rete.Pattern{{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(person)}},
		nil,
		[]rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(term.ReservedType), O: rete.TConst(animal)}},
	)

	john := terms.InternName("john")
	pumpOnce(t, terms, store, net, []fact.Triple{{S: john, P: term.ReservedType, O: person}}, "s1")

	require.True(t, store.IsAlive(fact.Triple{S: john, P: term.ReservedType, O: animal}))
	require.Len(t, derived, 1)
}

func TestNetwork_SeedsNewProductionFromExistingFacts(t *testing.T) {
	terms := term.New()
	store := fact.New(nil, nil)
	net := rete.New(store, terms, nil)

	person := terms.InternName("Person")
	animal := terms.InternName("Animal")
	john := terms.InternName("john")

	pumpOnce(t, terms, store, net, []fact.Triple{{S: john, P: term.ReservedType, O: person}}, "s1")

	// Compile the production *after* the fact already exists -- it must
	// still fire via alpha-node replay (spec §4.5 forward chaining should
	// not depend on axiom/fact arrival order within one load).
	x := 0
	net.CompileProduction(
		[]rete.Pattern{{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(person)}},
		nil,
		[]rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(term.ReservedType), O: rete.TConst(animal)}},
	)

	require.True(t, store.IsAlive(fact.Triple{S: john, P: term.ReservedType, O: animal}))
}

func TestNetwork_TwoHopJoin_PropertyChain(t *testing.T) {
	terms := term.New()
	store := fact.New(nil, nil)
	net := rete.New(store, terms, nil)

	hasParent := terms.InternName("hasParent")
	hasGrandparent := terms.InternName("hasGrandparent")
	x, y, z := 0, 1, 2
	net.CompileProduction(
		[]rete.Pattern{
			{S: rete.Var(x), P: rete.Const(hasParent), O: rete.Var(y)},
			{S: rete.Var(y), P: rete.Const(hasParent), O: rete.Var(z)},
		},
		nil,
		[]rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(hasGrandparent), O: rete.TVar(z)}},
	)

	a := terms.InternName("a")
	b := terms.InternName("b")
	cc := terms.InternName("c")

	pumpOnce(t, terms, store, net, []fact.Triple{{S: a, P: hasParent, O: b}}, "s-ab")
	require.False(t, store.IsAlive(fact.Triple{S: a, P: hasGrandparent, O: cc}))

	pumpOnce(t, terms, store, net, []fact.Triple{{S: b, P: hasParent, O: cc}}, "s-bc")
	require.True(t, store.IsAlive(fact.Triple{S: a, P: hasGrandparent, O: cc}))
}

func TestNetwork_SeedsMultiPatternProductionFromExistingFacts(t *testing.T) {
	terms := term.New()
	store := fact.New(nil, nil)
	net := rete.New(store, terms, nil)

	hasParent := terms.InternName("hasParent")
	hasGrandparent := terms.InternName("hasGrandparent")
	a := terms.InternName("a")
	b := terms.InternName("b")
	cc := terms.InternName("c")

	// Both facts already exist before the join production is compiled --
	// the historical join must still fire, not just the per-pattern
	// replay (the successor chain has to be wired before either alpha's
	// AddEdge replay runs).
	pumpOnce(t, terms, store, net, []fact.Triple{
		{S: a, P: hasParent, O: b},
		{S: b, P: hasParent, O: cc},
	}, "s1")

	x, y, z := 0, 1, 2
	net.CompileProduction(
		[]rete.Pattern{
			{S: rete.Var(x), P: rete.Const(hasParent), O: rete.Var(y)},
			{S: rete.Var(y), P: rete.Const(hasParent), O: rete.Var(z)},
		},
		nil,
		[]rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(hasGrandparent), O: rete.TVar(z)}},
	)

	require.True(t, store.IsAlive(fact.Triple{S: a, P: hasGrandparent, O: cc}))
}

func TestNetwork_SharesAlphaNodeAcrossProductions(t *testing.T) {
	terms := term.New()
	store := fact.New(nil, nil)
	net := rete.New(store, terms, nil)

	person := terms.InternName("Person")
	animal := terms.InternName("Animal")
	mortal := terms.InternName("Mortal")
	x := 0

	net.CompileProduction(
		[]rete.Pattern{{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(person)}},
		nil,
		[]rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(term.ReservedType), O: rete.TConst(animal)}},
	)
	net.CompileProduction(
		[]rete.Pattern{{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(person)}},
		nil,
		[]rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(term.ReservedType), O: rete.TConst(mortal)}},
	)

	john := terms.InternName("john")
	pumpOnce(t, terms, store, net, []fact.Triple{{S: john, P: term.ReservedType, O: person}}, "s1")

	require.True(t, store.IsAlive(fact.Triple{S: john, P: term.ReservedType, O: animal}))
	require.True(t, store.IsAlive(fact.Triple{S: john, P: term.ReservedType, O: mortal}))
}

func TestNetwork_DisjointClassesReportsInconsistency(t *testing.T) {
	terms := term.New()
	store := fact.New(nil, nil)
	net := rete.New(store, terms, nil)

	var events []string
	net.OnEvent = func(kind, detail string) { events = append(events, kind) }

	cat := terms.InternName("Cat")
	dog := terms.InternName("Dog")
	x := 0
	p := net.CompileProduction(
		[]rete.Pattern{
			{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(cat)},
			{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(dog)},
		},
		nil, nil,
	)
	p.Terminal.Inconsistency = true
	p.Terminal.InconsistencyDetail = "Cat/Dog disjoint"

	rex := terms.InternName("rex")
	pumpOnce(t, terms, store, net, []fact.Triple{
		{S: rex, P: term.ReservedType, O: cat},
		{S: rex, P: term.ReservedType, O: dog},
	}, "s1")

	require.Contains(t, events, "InconsistentOntology")
}

func TestNetwork_RetractDeltaRemovesDerivedTriple(t *testing.T) {
	terms := term.New()
	store := fact.New(nil, nil)
	net := rete.New(store, terms, nil)

	var retracted []fact.Triple
	net.Enqueue = func(tid fact.TripleId, tr fact.Triple, sign int) {
		if sign < 0 {
			retracted = append(retracted, tr)
		}
	}

	person := terms.InternName("Person")
	animal := terms.InternName("Animal")
	x := 0
	net.CompileProduction(
		[]rete.Pattern{{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(person)}},
		nil,
		[]rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(term.ReservedType), O: rete.TConst(animal)}},
	)

	john := terms.InternName("john")
	fact1 := fact.Triple{S: john, P: term.ReservedType, O: person}
	pumpOnce(t, terms, store, net, []fact.Triple{fact1}, "s1")
	require.True(t, store.IsAlive(fact.Triple{S: john, P: term.ReservedType, O: animal}))

	report := store.RetractSource("s1")
	require.True(t, report.TagKnown)
	for _, removed := range report.Removed {
		net.RetractDelta(removed.ID, removed.Triple)
	}

	require.False(t, store.IsAlive(fact.Triple{S: john, P: term.ReservedType, O: animal}))
	require.Len(t, retracted, 1)
}
