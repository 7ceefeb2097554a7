package reasoner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/owlrl-reasoner/dlir"
	"github.com/nodeadmin/owlrl-reasoner/reasoner"
)

func concept(name string) *dlir.Concept { return &dlir.Concept{Kind: dlir.CAtomic, Atomic: name} }

// TestReasoner_S1_SubClassOfAndRetraction exercises spec §8 S1: the
// basic classification closure, and that retracting the backing source
// tears the derived facts down again.
func TestReasoner_S1_SubClassOfAndRetraction(t *testing.T) {
	r := reasoner.New(reasoner.Options{}, nil)
	ctx := context.Background()

	require.NoError(t, r.LoadAxioms([]dlir.Axiom{
		{Kind: dlir.SubClassOf, Tag: "s1", Sub: concept("Person"), Sup: concept("Animal")},
		{Kind: dlir.ClassAssertion, Tag: "s1", Individual: "john", Class: concept("Person")},
	}))
	r.Reason(ctx)

	tbl := r.InstancesOf("Animal")
	require.Equal(t, 1, tbl.Len())

	report, _ := r.RetractSource(ctx, "s1")
	require.True(t, report.TagKnown)

	tbl = r.InstancesOf("Animal")
	require.Equal(t, 0, tbl.Len())
}

// TestReasoner_S1_SchemaAfterData exercises the same closure as S1 but
// with the two axiom batches in the opposite order: the ClassAssertion
// loads and reasons to quiescence before the SubClassOf schema axiom
// even exists. Closure must not depend on which batch arrives first
// (spec §3 determinism).
func TestReasoner_S1_SchemaAfterData(t *testing.T) {
	r := reasoner.New(reasoner.Options{}, nil)
	ctx := context.Background()

	require.NoError(t, r.LoadAxioms([]dlir.Axiom{
		{Kind: dlir.ClassAssertion, Tag: "data", Individual: "john", Class: concept("Person")},
	}))
	r.Reason(ctx)

	require.NoError(t, r.LoadAxioms([]dlir.Axiom{
		{Kind: dlir.SubClassOf, Tag: "schema", Sub: concept("Person"), Sup: concept("Animal")},
	}))
	r.Reason(ctx)

	tbl := r.InstancesOf("Animal")
	require.Equal(t, 1, tbl.Len())
}

// TestReasoner_S2_PropertyChainRetraction exercises spec §8 S2: a
// derived role assertion via a property chain disappears when one of its
// two justifying role assertions is retracted.
func TestReasoner_S2_PropertyChainRetraction(t *testing.T) {
	r := reasoner.New(reasoner.Options{}, nil)
	ctx := context.Background()

	require.NoError(t, r.LoadAxioms([]dlir.Axiom{
		{Kind: dlir.RoleChain, Tag: "schema", RoleLeft1: "hasParent", RoleLeft2: "hasParent", RoleSup: "hasGrandparent"},
		{Kind: dlir.RoleAssertion, Tag: "fact-ab", Subject: "a", Property: "hasParent", Object: "b"},
		{Kind: dlir.RoleAssertion, Tag: "fact-bc", Subject: "b", Property: "hasParent", Object: "c"},
	}))
	r.Reason(ctx)

	ask, err := r.Ask(dlir.Query{Select: dlir.SelectAsk, Body: []dlir.Group{
		{Kind: dlir.GroupBasic, Patterns: []dlir.TriplePattern{{S: dlir.QConst("a"), P: dlir.QConst("hasGrandparent"), O: dlir.QConst("c")}}},
	}})
	require.NoError(t, err)
	require.True(t, ask)

	r.RetractSource(ctx, "fact-bc")

	ask, err = r.Ask(dlir.Query{Select: dlir.SelectAsk, Body: []dlir.Group{
		{Kind: dlir.GroupBasic, Patterns: []dlir.TriplePattern{{S: dlir.QConst("a"), P: dlir.QConst("hasGrandparent"), O: dlir.QConst("c")}}},
	}})
	require.NoError(t, err)
	require.False(t, ask)
}

// TestReasoner_S4_FunctionalRoleSameAs exercises spec §8 S4: a functional
// role forces its two fillers to be sameAs, and the canonicalised Fact
// Store answers queries against either name identically.
func TestReasoner_S4_FunctionalRoleSameAs(t *testing.T) {
	r := reasoner.New(reasoner.Options{}, nil)
	ctx := context.Background()

	require.NoError(t, r.LoadAxioms([]dlir.Axiom{
		{Kind: dlir.FunctionalRole, Tag: "schema", Property: "hasFather"},
		{Kind: dlir.RoleAssertion, Tag: "f1", Subject: "a", Property: "hasFather", Object: "b"},
		{Kind: dlir.RoleAssertion, Tag: "f2", Subject: "a", Property: "hasFather", Object: "cc"},
	}))
	r.Reason(ctx)

	ask, err := r.Ask(dlir.Query{Select: dlir.SelectAsk, Body: []dlir.Group{
		{Kind: dlir.GroupBasic, Patterns: []dlir.TriplePattern{{S: dlir.QConst("b"), P: dlir.QConst("owl:sameAs"), O: dlir.QConst("cc")}}},
	}})
	require.NoError(t, err)
	require.True(t, ask)
}

// TestReasoner_LoadAxioms_SplitsWarningsFromErrors confirms a rejected
// non-RL axiom is recorded to the event log rather than returned as a
// hard error, while a structurally malformed axiom still surfaces.
func TestReasoner_LoadAxioms_SplitsWarningsFromErrors(t *testing.T) {
	r := reasoner.New(reasoner.Options{}, nil)

	err := r.LoadAxioms([]dlir.Axiom{
		{Kind: dlir.HasKey, Tag: "bad-key", KeyClass: "Person", KeyRoles: nil},
	})
	require.Error(t, err)

	events := r.EventLog().Entries()
	require.Empty(t, events)

	err = r.LoadAxioms([]dlir.Axiom{
		{Kind: dlir.SubClassOf, Tag: "non-rl", Sub: concept("Person"),
			Sup: &dlir.Concept{Kind: dlir.CSome, Role: "hasChild", Fill: concept("Parent")}},
	})
	require.NoError(t, err)

	events = r.EventLog().Entries()
	require.Len(t, events, 1)
	require.Equal(t, reasoner.EventNonRLAxiom, events[0].Kind)
}

func TestReasoner_SubsumersOf(t *testing.T) {
	r := reasoner.New(reasoner.Options{}, nil)
	ctx := context.Background()

	require.NoError(t, r.LoadAxioms([]dlir.Axiom{
		{Kind: dlir.SubClassOf, Tag: "s1", Sub: concept("Dog"), Sup: concept("Mammal")},
		{Kind: dlir.SubClassOf, Tag: "s2", Sub: concept("Mammal"), Sup: concept("Animal")},
	}))
	r.Reason(ctx)

	ids := r.SubsumersOf("Dog")
	require.Len(t, ids, 2)
}

func TestReasoner_SelectMany(t *testing.T) {
	r := reasoner.New(reasoner.Options{}, nil)
	ctx := context.Background()

	require.NoError(t, r.LoadAxioms([]dlir.Axiom{
		{Kind: dlir.RoleAssertion, Tag: "t1", Subject: "a", Property: "knows", Object: "b"},
		{Kind: dlir.RoleAssertion, Tag: "t2", Subject: "a", Property: "knows", Object: "cc"},
	}))
	r.Reason(ctx)

	q := dlir.Query{Select: dlir.SelectVars, Vars: []string{"y"}, Body: []dlir.Group{
		{Kind: dlir.GroupBasic, Patterns: []dlir.TriplePattern{{S: dlir.QConst("a"), P: dlir.QConst("knows"), O: dlir.QVar("y")}}},
	}}
	tbls, err := r.SelectMany(ctx, []dlir.Query{q, q})
	require.NoError(t, err)
	require.Len(t, tbls, 2)
	require.Equal(t, 2, tbls[0].Len())
	require.Equal(t, 2, tbls[1].Len())
}
