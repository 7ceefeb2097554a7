package driver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/owlrl-reasoner/driver"
	"github.com/nodeadmin/owlrl-reasoner/fact"
	"github.com/nodeadmin/owlrl-reasoner/rete"
	"github.com/nodeadmin/owlrl-reasoner/term"
)

func assertAndEnqueue(d *driver.Driver, store *fact.Store, tr fact.Triple, src fact.SourceId) {
	res := store.Assert(tr, src)
	if res.Added {
		d.EnqueueAssert(store.TripleID(tr), tr)
	}
}

func TestDriver_ReasonDrainsSingleHopProduction(t *testing.T) {
	terms := term.New()
	store := fact.New(nil, nil)
	net := rete.New(store, terms, nil)
	d := driver.New(store, net, nil)

	person := terms.InternName("Person")
	animal := terms.InternName("Animal")
	x := 0
	net.CompileProduction(
		[]rete.Pattern{{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(person)}},
		nil,
		[]rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(term.ReservedType), O: rete.TConst(animal)}},
	)

	john := terms.InternName("john")
	assertAndEnqueue(d, store, fact.Triple{S: john, P: term.ReservedType, O: person}, "s1")

	stats := d.Reason(context.Background())
	// The asserted triple, then the derived (john type Animal) the
	// production enqueued back onto the worklist.
	require.Equal(t, 2, stats.DeltasProcessed)
	require.Equal(t, 1, stats.ProductionsFired)
	require.True(t, store.IsAlive(fact.Triple{S: john, P: term.ReservedType, O: animal}))
}

func TestDriver_ReasonNoopWhenQuiescent(t *testing.T) {
	terms := term.New()
	store := fact.New(nil, nil)
	net := rete.New(store, terms, nil)
	d := driver.New(store, net, nil)

	require.Equal(t, 0, d.Pending())
	stats := d.Reason(context.Background())
	require.Equal(t, driver.Stats{}, stats)
}

func TestDriver_ReasonDrivesTwoHopChainAcrossTwoAsserts(t *testing.T) {
	terms := term.New()
	store := fact.New(nil, nil)
	net := rete.New(store, terms, nil)
	d := driver.New(store, net, nil)

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

	assertAndEnqueue(d, store, fact.Triple{S: a, P: hasParent, O: b}, "s-ab")
	d.Reason(context.Background())
	require.False(t, store.IsAlive(fact.Triple{S: a, P: hasGrandparent, O: cc}))

	assertAndEnqueue(d, store, fact.Triple{S: b, P: hasParent, O: cc}, "s-bc")
	d.Reason(context.Background())
	require.True(t, store.IsAlive(fact.Triple{S: a, P: hasGrandparent, O: cc}))
}

func TestDriver_RetractSourceRoundTripRestoresPriorState(t *testing.T) {
	terms := term.New()
	store := fact.New(nil, nil)
	net := rete.New(store, terms, nil)
	d := driver.New(store, net, nil)

	person := terms.InternName("Person")
	animal := terms.InternName("Animal")
	x := 0
	net.CompileProduction(
		[]rete.Pattern{{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(person)}},
		nil,
		[]rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(term.ReservedType), O: rete.TConst(animal)}},
	)

	john := terms.InternName("john")
	assertAndEnqueue(d, store, fact.Triple{S: john, P: term.ReservedType, O: person}, "s1")
	d.Reason(context.Background())
	require.True(t, store.IsAlive(fact.Triple{S: john, P: term.ReservedType, O: person}))
	require.True(t, store.IsAlive(fact.Triple{S: john, P: term.ReservedType, O: animal}))

	report, _ := d.RetractSource(context.Background(), "s1")
	require.True(t, report.TagKnown)

	require.False(t, store.IsAlive(fact.Triple{S: john, P: term.ReservedType, O: person}))
	require.False(t, store.IsAlive(fact.Triple{S: john, P: term.ReservedType, O: animal}))
}

func TestDriver_RetractUnknownTagIsNoop(t *testing.T) {
	terms := term.New()
	store := fact.New(nil, nil)
	net := rete.New(store, terms, nil)
	d := driver.New(store, net, nil)

	report, stats := d.RetractSource(context.Background(), "never-seen")
	require.False(t, report.TagKnown)
	require.Equal(t, 0, stats.DeltasProcessed)
}
