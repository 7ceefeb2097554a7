// Package rete implements the RETE-style discrimination network (spec
// §4.4): alpha nodes (single-pattern filters), beta nodes (two-input
// hash joins), builtin nodes (datatype comparisons/arithmetic) and
// terminal production nodes that assert consequent triples back into the
// Fact Store.
package rete

import (
	"fmt"

	"github.com/nodeadmin/owlrl-reasoner/fact"
	"github.com/nodeadmin/owlrl-reasoner/term"
)

// SlotKind distinguishes a constant slot from a variable slot in a
// Pattern (spec §3 "A Pattern is a triple with each slot being
// Constant(TermId) or Var(slot_index)").
type SlotKind uint8

const (
	SlotConst SlotKind = iota
	SlotVar
)

// Slot is one position (S, P or O) of a Pattern.
type Slot struct {
	Kind  SlotKind
	Const term.Id
	// Var is the pattern-local variable number: slots sharing the same
	// Var within one Pattern must bind to equal values (spec "shared
	// variable" join constraint, applied within a single triple here).
	Var int
}

func Const(id term.Id) Slot { return Slot{Kind: SlotConst, Const: id} }
func Var(n int) Slot        { return Slot{Kind: SlotVar, Var: n} }

// Pattern is one LHS triple pattern. Its variable numbers are the owning
// production's global numbering, shared by all of that production's
// patterns, and the network wires it with an identity variable map; the
// join order is the compiler's responsibility (spec §4.4: "reordering is
// the compiler's responsibility -- the RETE layer does not re-plan").
type Pattern struct {
	S, P, O Slot
}

// Fingerprint returns a canonical string key for Pattern, used both for
// alpha-node sharing (spec §4.4 "Alpha nodes with identical patterns are
// shared") and for the Query Engine's structural query-plan cache (spec
// §4.6), since both need "same shape, different constant bindings ->
// same cache entry" semantics when the caller asks for it, and "exact
// same pattern including constants -> same alpha node" when it doesn't.
// exact=true fingerprints constants by value (alpha sharing: two patterns
// are the same node only if their constants also match); exact=false
// fingerprints only the var/const shape (query plan cache: reused across
// different constant bindings).
func (p Pattern) Fingerprint(exact bool) string {
	return fmt.Sprintf("%s|%s|%s", slotFP(p.S, exact), slotFP(p.P, exact), slotFP(p.O, exact))
}

func slotFP(s Slot, exact bool) string {
	if s.Kind == SlotVar {
		return fmt.Sprintf("v%d", s.Var)
	}
	if exact {
		return fmt.Sprintf("c%d", uint32(s.Const))
	}
	return "c"
}

// Match unifies triple t against p, returning the pattern-local variable
// bindings if it matches (repeated variables must bind to equal values)
// and whether it matched at all.
func (p Pattern) Match(t fact.Triple) (map[int]term.Id, bool) {
	bindings := make(map[int]term.Id, 3)
	if !matchSlot(p.S, t.S, bindings) {
		return nil, false
	}
	if !matchSlot(p.P, t.P, bindings) {
		return nil, false
	}
	if !matchSlot(p.O, t.O, bindings) {
		return nil, false
	}
	return bindings, true
}

func matchSlot(s Slot, v term.Id, bindings map[int]term.Id) bool {
	if s.Kind == SlotConst {
		return s.Const == v
	}
	if existing, ok := bindings[s.Var]; ok {
		return existing == v
	}
	bindings[s.Var] = v
	return true
}

// Vars returns the distinct local variable numbers referenced by p, in
// ascending order.
func (p Pattern) Vars() []int {
	seen := map[int]bool{}
	var out []int
	for _, s := range []Slot{p.S, p.P, p.O} {
		if s.Kind == SlotVar && !seen[s.Var] {
			seen[s.Var] = true
			out = append(out, s.Var)
		}
	}
	return out
}
