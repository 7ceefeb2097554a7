package axiom_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/owlrl-reasoner/axiom"
	"github.com/nodeadmin/owlrl-reasoner/dlir"
	"github.com/nodeadmin/owlrl-reasoner/fact"
	"github.com/nodeadmin/owlrl-reasoner/rete"
	"github.com/nodeadmin/owlrl-reasoner/term"
)

func newHarness() (*term.Store, *fact.Store, *rete.Network, *axiom.Compiler) {
	terms := term.New()
	store := fact.New(nil, nil)
	net := rete.New(store, terms, nil)
	c := axiom.New(terms, net, store, nil)
	return terms, store, net, c
}

func TestCompiler_SubClassOfAtomic(t *testing.T) {
	terms, store, _, c := newHarness()

	require.NoError(t, c.LoadAxioms([]dlir.Axiom{
		{Kind: dlir.SubClassOf, Tag: "t1", Sub: &dlir.Concept{Kind: dlir.CAtomic, Atomic: "Person"}, Sup: &dlir.Concept{Kind: dlir.CAtomic, Atomic: "Animal"}},
		{Kind: dlir.ClassAssertion, Tag: "t2", Individual: "john", Class: &dlir.Concept{Kind: dlir.CAtomic, Atomic: "Person"}},
	}))

	john := terms.InternName("john")
	animal := terms.InternName("Animal")
	require.True(t, store.IsAlive(fact.Triple{S: john, P: term.ReservedType, O: animal}))
}

func TestCompiler_PropertyChain(t *testing.T) {
	terms, store, _, c := newHarness()

	require.NoError(t, c.LoadAxioms([]dlir.Axiom{
		{Kind: dlir.RoleChain, Tag: "t1", RoleLeft1: "hasParent", RoleLeft2: "hasParent", RoleSup: "hasGrandparent"},
		{Kind: dlir.RoleAssertion, Tag: "t2", Subject: "a", Property: "hasParent", Object: "b"},
	}))

	a := terms.InternName("a")
	cc := terms.InternName("c")
	hasGrandparent := terms.InternName("hasGrandparent")

	// Second hop only arrives after the second RoleAssertion is compiled.
	require.NoError(t, c.Compile(dlir.Axiom{Kind: dlir.RoleAssertion, Tag: "t3", Subject: "b", Property: "hasParent", Object: "c"}))

	require.True(t, store.IsAlive(fact.Triple{S: a, P: hasGrandparent, O: cc}))
}

func TestCompiler_FunctionalRoleProducesSameAs(t *testing.T) {
	terms, store, _, c := newHarness()

	require.NoError(t, c.LoadAxioms([]dlir.Axiom{
		{Kind: dlir.FunctionalRole, Tag: "t1", Property: "hasFather"},
		{Kind: dlir.RoleAssertion, Tag: "t2", Subject: "a", Property: "hasFather", Object: "b"},
		{Kind: dlir.RoleAssertion, Tag: "t3", Subject: "a", Property: "hasFather", Object: "cc"},
	}))

	b := terms.InternName("b")
	cc := terms.InternName("cc")
	require.True(t, store.IsAlive(fact.Triple{S: b, P: term.ReservedSameAs, O: cc}) ||
		store.IsAlive(fact.Triple{S: cc, P: term.ReservedSameAs, O: b}))
}

func TestCompiler_DisjointClassesRaisesInconsistency(t *testing.T) {
	terms, store, net, c := newHarness()

	var events []string
	net.OnEvent = func(kind, detail string) { events = append(events, kind) }

	require.NoError(t, c.LoadAxioms([]dlir.Axiom{
		{Kind: dlir.DisjointClasses, Tag: "t1", Sub: &dlir.Concept{Kind: dlir.CAtomic, Atomic: "Cat"}, Sup: &dlir.Concept{Kind: dlir.CAtomic, Atomic: "Dog"}},
		{Kind: dlir.ClassAssertion, Tag: "t2", Individual: "rex", Class: &dlir.Concept{Kind: dlir.CAtomic, Atomic: "Cat"}},
		{Kind: dlir.ClassAssertion, Tag: "t3", Individual: "rex", Class: &dlir.Concept{Kind: dlir.CAtomic, Atomic: "Dog"}},
	}))

	require.Contains(t, events, "InconsistentOntology")
	_ = terms
	_ = store
}

func TestCompiler_NonRLAxiomRejectsExistentialOnRHS(t *testing.T) {
	_, _, _, c := newHarness()

	err := c.Compile(dlir.Axiom{
		Kind: dlir.SubClassOf,
		Tag:  "bad",
		Sub:  &dlir.Concept{Kind: dlir.CAtomic, Atomic: "Person"},
		Sup:  &dlir.Concept{Kind: dlir.CSome, Role: "hasChild", Fill: &dlir.Concept{Kind: dlir.CAtomic, Atomic: "Parent"}},
	})
	require.Error(t, err)

	var warn axiom.NonRLAxiomWarning
	require.ErrorAs(t, err, &warn)
}

func TestCompiler_HasKeyProducesSameAs(t *testing.T) {
	terms, store, _, c := newHarness()

	require.NoError(t, c.LoadAxioms([]dlir.Axiom{
		{Kind: dlir.HasKey, Tag: "t1", KeyClass: "Person", KeyRoles: []string{"ssn"}},
		{Kind: dlir.ClassAssertion, Tag: "t2", Individual: "p1", Class: &dlir.Concept{Kind: dlir.CAtomic, Atomic: "Person"}},
		{Kind: dlir.ClassAssertion, Tag: "t3", Individual: "p2", Class: &dlir.Concept{Kind: dlir.CAtomic, Atomic: "Person"}},
		{Kind: dlir.DataAssertion, Tag: "t4", Individual: "p1", Property: "ssn", Value: dlir.Lit("123-45-6789", "xsd:string")},
		{Kind: dlir.DataAssertion, Tag: "t5", Individual: "p2", Property: "ssn", Value: dlir.Lit("123-45-6789", "xsd:string")},
	}))

	p1 := terms.InternName("p1")
	p2 := terms.InternName("p2")
	require.True(t, store.IsAlive(fact.Triple{S: p1, P: term.ReservedSameAs, O: p2}) ||
		store.IsAlive(fact.Triple{S: p2, P: term.ReservedSameAs, O: p1}))
}

func TestCompiler_SwrlRuleWithBuiltin(t *testing.T) {
	terms, store, _, c := newHarness()

	require.NoError(t, c.LoadAxioms([]dlir.Axiom{
		{
			Kind: dlir.SwrlRule,
			Tag:  "adult-rule",
			Body: []dlir.Atom{
				{Class: "Person", Args: []dlir.Term{dlir.Var("x")}},
				{Role: "age", Args: []dlir.Term{dlir.Var("x"), dlir.Var("a")}},
				{Builtin: "swrlb:greaterThanOrEqual", Args: []dlir.Term{dlir.Var("a"), dlir.Lit("18", "xsd:integer")}},
			},
			Head: []dlir.Atom{
				{Class: "Adult", Args: []dlir.Term{dlir.Var("x")}},
			},
		},
		{Kind: dlir.ClassAssertion, Tag: "s-person", Individual: "alice", Class: &dlir.Concept{Kind: dlir.CAtomic, Atomic: "Person"}},
		{Kind: dlir.DataAssertion, Tag: "s-age-17", Individual: "alice", Property: "age", Value: dlir.Lit("17", "xsd:integer")},
	}))

	alice := terms.InternName("alice")
	adult := terms.InternName("Adult")
	require.False(t, store.IsAlive(fact.Triple{S: alice, P: term.ReservedType, O: adult}))

	require.NoError(t, c.Compile(dlir.Axiom{Kind: dlir.DataAssertion, Tag: "s-age-18", Individual: "alice", Property: "age", Value: dlir.Lit("18", "xsd:integer")}))
	require.True(t, store.IsAlive(fact.Triple{S: alice, P: term.ReservedType, O: adult}))
}
