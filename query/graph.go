package query

import (
	"github.com/nodeadmin/owlrl-reasoner/fact"
	"github.com/nodeadmin/owlrl-reasoner/term"
)

// Subgraph performs a breadth-first walk from root over edges (directed
// S->O, depth counted in edge hops) and returns only the edges whose
// source lies fewer than maxDepth hops from root (so at most maxDepth
// edges along any path), i.e. the reachable subgraph
// rather than every edge in the input set (spec §4.6 "graph-traversal
// operator", §9 BUG-002: a prior version returned the whole edge set
// regardless of reachability). maxDepth <= 0 or a root that never
// appears as an edge source/target yields no edges.
func Subgraph(edges []fact.Triple, root term.Id, maxDepth int) []fact.Triple {
	if maxDepth <= 0 {
		return nil
	}
	adj := make(map[term.Id][]fact.Triple, len(edges))
	for _, e := range edges {
		adj[e.S] = append(adj[e.S], e)
	}

	depth := map[term.Id]int{root: 0}
	queue := []term.Id{root}
	var out []fact.Triple

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := depth[cur]
		if d >= maxDepth {
			continue
		}
		for _, e := range adj[cur] {
			out = append(out, e)
			if _, seen := depth[e.O]; !seen {
				depth[e.O] = d + 1
				queue = append(queue, e.O)
			}
		}
	}
	return out
}
