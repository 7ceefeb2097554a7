// Package query implements the Query Engine (spec §4.6): compiling a
// conjunctive query into an index-driven join plan against the Fact
// Store, cached by structural fingerprint, and executing it against a
// SnapshotHandle.
package query

import (
	"strings"

	"github.com/nodeadmin/owlrl-reasoner/dlir"
	"github.com/nodeadmin/owlrl-reasoner/fact"
	"github.com/nodeadmin/owlrl-reasoner/rete"
	"github.com/nodeadmin/owlrl-reasoner/term"
)

// Engine compiles and executes queries against one reasoner's Fact Store
// and Term Store.
type Engine struct {
	store *fact.Store
	terms *term.Store
	cache *planCache
}

// New builds an Engine with a plan cache of the given size (0 uses a
// sensible default), matching the teacher's constructor style of taking
// its dependencies explicitly rather than reaching for globals.
func New(store *fact.Store, terms *term.Store, cacheSize int) *Engine {
	return &Engine{store: store, terms: terms, cache: newPlanCache(cacheSize)}
}

// varTable assigns dense local variable numbers to one basic group's
// variable names in first-occurrence order, the same idiom as the Axiom
// Compiler's per-axiom varAlloc (axiom/compiler.go), scoped here to one
// GroupBasic instead of one axiom.
type varTable struct {
	byName map[string]int
	names  []string
}

func newVarTable() *varTable { return &varTable{byName: map[string]int{}} }

func (vt *varTable) localVar(name string) int {
	if i, ok := vt.byName[name]; ok {
		return i
	}
	i := len(vt.names)
	vt.byName[name] = i
	vt.names = append(vt.names, name)
	return i
}

func (vt *varTable) nameOf(i int) string { return vt.names[i] }

// compiledBasic is one GroupBasic resolved against the Term Store: its
// patterns in rete.Pattern form, so the plan cache keys on rete's
// Pattern.Fingerprint (row extension does its own matching, not
// Pattern.Match) -- plus its variable table, its filters, and the chosen
// join order.
type compiledBasic struct {
	patterns     []rete.Pattern
	neverMatches bool
	vars         *varTable
	filters      []dlir.FilterExpr
	order        []int
}

func compileSlot(tv dlir.TermOrVar, terms *term.Store, vt *varTable) (rete.Slot, bool) {
	if tv.IsVar {
		return rete.Var(vt.localVar(tv.Name)), true
	}
	return compileConstSlot(tv, terms)
}

func compileConstSlot(tv dlir.TermOrVar, terms *term.Store) (rete.Slot, bool) {
	if tv.Datatype != "" {
		id, ok := terms.LookupLiteral(tv.Literal, term.DatatypeFromIRI(tv.Datatype))
		if !ok {
			return rete.Slot{}, false
		}
		return rete.Const(id), true
	}
	id, ok := terms.LookupName(tv.Name)
	if !ok {
		return rete.Slot{}, false
	}
	return rete.Const(id), true
}

func compileTriplePattern(tp dlir.TriplePattern, terms *term.Store, vt *varTable) (rete.Pattern, bool) {
	s, ok1 := compileSlot(tp.S, terms, vt)
	p, ok2 := compileSlot(tp.P, terms, vt)
	o, ok3 := compileSlot(tp.O, terms, vt)
	return rete.Pattern{S: s, P: p, O: o}, ok1 && ok2 && ok3
}

// shapeFingerprint ignores actual constant values but keeps the
// var/const shape and first-occurrence variable positions, giving a plan
// cache hit across queries with the same pattern shape but different
// constant bindings (spec §4.6).
func shapeFingerprint(patterns []rete.Pattern) string {
	var b strings.Builder
	for i, p := range patterns {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(p.Fingerprint(false))
	}
	return b.String()
}

// compileBasic resolves g's patterns against the Term Store and either
// reuses a cached join order for this shape or computes (and caches) a
// fresh one. Resolution failures (an unknown constant -- spec §7
// UnknownTerm) are recorded on the result rather than raised: the group
// simply matches nothing.
func (e *Engine) compileBasic(g dlir.Group) *compiledBasic {
	vt := newVarTable()
	patterns := make([]rete.Pattern, len(g.Patterns))
	ok := true
	for i, tp := range g.Patterns {
		pat, good := compileTriplePattern(tp, e.terms, vt)
		patterns[i] = pat
		if !good {
			ok = false
		}
	}
	cb := &compiledBasic{patterns: patterns, neverMatches: !ok, vars: vt, filters: g.Filters}
	if !ok || len(patterns) == 0 {
		return cb
	}

	fp := shapeFingerprint(patterns)
	if order, hit := e.cache.get(fp); hit {
		cb.order = order
		return cb
	}
	order := e.chooseOrder(patterns)
	e.cache.put(fp, order)
	cb.order = order
	return cb
}

// chooseOrder implements spec §4.6 step 2: smallest expected cardinality
// first, preferring patterns that share a variable with the accumulated
// binding set once one pattern has already been placed.
func (e *Engine) chooseOrder(patterns []rete.Pattern) []int {
	remaining := make([]int, len(patterns))
	for i := range remaining {
		remaining[i] = i
	}

	var order []int
	bound := map[int]bool{}

	for len(remaining) > 0 {
		bestPos := 0
		bestIdx := remaining[0]
		bestScore := orderScore(patterns[bestIdx], bound, len(order) > 0, e.store)

		for pos := 1; pos < len(remaining); pos++ {
			idx := remaining[pos]
			score := orderScore(patterns[idx], bound, len(order) > 0, e.store)
			if score.better(bestScore) {
				bestPos, bestIdx, bestScore = pos, idx, score
			}
		}

		order = append(order, bestIdx)
		for _, v := range patterns[bestIdx].Vars() {
			bound[v] = true
		}
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}
	return order
}

type patternScore struct {
	sharesBound bool
	boundSlots  int
	cardinality int
}

func (a patternScore) better(b patternScore) bool {
	if a.sharesBound != b.sharesBound {
		return a.sharesBound
	}
	if a.boundSlots != b.boundSlots {
		return a.boundSlots > b.boundSlots
	}
	return a.cardinality < b.cardinality
}

func orderScore(p rete.Pattern, bound map[int]bool, somethingPlaced bool, store *fact.Store) patternScore {
	shares := false
	if somethingPlaced {
		for _, v := range p.Vars() {
			if bound[v] {
				shares = true
				break
			}
		}
	}
	return patternScore{
		sharesBound: shares,
		boundSlots:  boundSlotCount(p),
		cardinality: estimateCardinality(p, store),
	}
}

func boundSlotCount(p rete.Pattern) int {
	n := 0
	for _, s := range []rete.Slot{p.S, p.P, p.O} {
		if s.Kind == rete.SlotConst {
			n++
		}
	}
	return n
}

// estimateCardinality uses the Fact Store's predicate cardinality counter
// (spec §4.6 "ties broken by pre-computed predicate cardinality") when
// the pattern pins a predicate; a variable predicate has no cheap
// estimate, so it is treated as maximally unselective.
func estimateCardinality(p rete.Pattern, store *fact.Store) int {
	if p.P.Kind == rete.SlotConst {
		return store.PredicateCardinality(p.P.Const)
	}
	return 1 << 30
}
