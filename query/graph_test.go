package query_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/owlrl-reasoner/fact"
	"github.com/nodeadmin/owlrl-reasoner/query"
	"github.com/nodeadmin/owlrl-reasoner/term"
)

// TestSubgraph_ReachableOnly exercises spec §8 scenario S6 (§9 BUG-002): a
// prior version of this operator returned every edge in the input set
// regardless of reachability from root; the correct behaviour keeps only
// edges reached within max_depth hops.
func TestSubgraph_ReachableOnly(t *testing.T) {
	terms := term.New()
	a := terms.InternName("A")
	b := terms.InternName("B")
	c := terms.InternName("C")
	d := terms.InternName("D")
	e := terms.InternName("E")
	f := terms.InternName("F")
	g := terms.InternName("G")
	edgePred := terms.InternName("edge")

	edges := []fact.Triple{
		{S: a, P: edgePred, O: b},
		{S: b, P: edgePred, O: c},
		{S: b, P: edgePred, O: d},
		{S: e, P: edgePred, O: f},
		{S: f, P: edgePred, O: g},
	}

	got := query.Subgraph(edges, a, 2)
	require.ElementsMatch(t, []fact.Triple{
		{S: a, P: edgePred, O: b},
		{S: b, P: edgePred, O: c},
		{S: b, P: edgePred, O: d},
	}, got)
}

func TestSubgraph_UnknownRoot(t *testing.T) {
	terms := term.New()
	a := terms.InternName("A")
	b := terms.InternName("B")
	edgePred := terms.InternName("edge")
	missing := terms.InternName("NONEXISTENT")

	edges := []fact.Triple{{S: a, P: edgePred, O: b}}
	require.Empty(t, query.Subgraph(edges, missing, 2))
}

func TestSubgraph_ZeroDepth(t *testing.T) {
	terms := term.New()
	a := terms.InternName("A")
	b := terms.InternName("B")
	edgePred := terms.InternName("edge")

	edges := []fact.Triple{{S: a, P: edgePred, O: b}}
	require.Empty(t, query.Subgraph(edges, a, 0))
}
