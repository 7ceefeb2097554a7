package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nodeadmin/owlrl-reasoner/dlir"
	"github.com/nodeadmin/owlrl-reasoner/fact"
	"github.com/nodeadmin/owlrl-reasoner/rete"
	"github.com/nodeadmin/owlrl-reasoner/term"
)

// Relation is an intermediate result: a set of bindings over a declared
// (but not necessarily uniformly-populated -- see Row) set of variable
// names, produced while evaluating one Group of a query body (spec
// §4.6).
type Relation struct {
	Vars []string
	Rows []Row
}

// execBasic runs one GroupBasic's join plan against h: iterative
// binding-set expansion in the chosen pattern order (spec §4.6 steps
// 1-2), pushing FILTER evaluation down to the first step at which all of
// its variables are bound (step 4).
func (e *Engine) execBasic(h *fact.SnapshotHandle, cb *compiledBasic) Relation {
	if cb.neverMatches {
		return Relation{}
	}
	if len(cb.patterns) == 0 {
		return Relation{Rows: []Row{{}}}
	}

	rows := []Row{{}}
	boundNames := map[string]bool{}
	applied := make([]bool, len(cb.filters))

	for _, idx := range cb.order {
		pat := cb.patterns[idx]
		rows = e.joinPattern(h, rows, pat, cb.vars)

		for _, v := range pat.Vars() {
			boundNames[cb.vars.nameOf(v)] = true
		}
		for fi, f := range cb.filters {
			if applied[fi] {
				continue
			}
			if !varsSubset(filterVars(&f), boundNames) {
				continue
			}
			applied[fi] = true
			rows = e.keepMatching(rows, &f)
		}
	}

	for fi, f := range cb.filters {
		if applied[fi] {
			continue
		}
		rows = e.keepMatching(rows, &f)
	}

	return Relation{Vars: append([]string(nil), cb.vars.names...), Rows: rows}
}

func varsSubset(vars []string, bound map[string]bool) bool {
	for _, v := range vars {
		if !bound[v] {
			return false
		}
	}
	return true
}

func (e *Engine) keepMatching(rows []Row, f *dlir.FilterExpr) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if e.evalFilter(f, r) {
			out = append(out, r)
		}
	}
	return out
}

// joinPattern extends every row in rows by matching pat against h,
// binding s/p/o slots already present in a row as constants before
// selecting (so the Fact Store index does the filtering), then folding
// any newly-introduced variables into the row.
func (e *Engine) joinPattern(h *fact.SnapshotHandle, rows []Row, pat rete.Pattern, vars *varTable) []Row {
	var out []Row
	for _, r := range rows {
		sv, sBound := resolveSlot(pat.S, r, vars)
		pv, pBound := resolveSlot(pat.P, r, vars)
		ov, oBound := resolveSlot(pat.O, r, vars)

		var sp, pp, op *term.Id
		if sBound {
			sp = &sv
		}
		if pBound {
			pp = &pv
		}
		if oBound {
			op = &ov
		}

		for _, tr := range h.Select(sp, pp, op, false) {
			nr, ok := extendRow(r, pat, tr, vars)
			if ok {
				out = append(out, nr)
			}
		}
	}
	return out
}

func resolveSlot(s rete.Slot, r Row, vars *varTable) (term.Id, bool) {
	if s.Kind == rete.SlotConst {
		return s.Const, true
	}
	v, ok := r[vars.nameOf(s.Var)]
	return v, ok
}

func extendRow(r Row, pat rete.Pattern, tr fact.Triple, vars *varTable) (Row, bool) {
	nr := make(Row, len(r)+3)
	for k, v := range r {
		nr[k] = v
	}
	bind := func(s rete.Slot, val term.Id) bool {
		if s.Kind == rete.SlotConst {
			return s.Const == val
		}
		name := vars.nameOf(s.Var)
		if existing, ok := nr[name]; ok {
			return existing == val
		}
		nr[name] = val
		return true
	}
	if !bind(pat.S, tr.S) || !bind(pat.P, tr.P) || !bind(pat.O, tr.O) {
		return nil, false
	}
	return nr, true
}

// evaluateGroup dispatches one body Group to its evaluation strategy
// (spec §4.6 / §9 "two UNION blocks composed with outer patterns"):
// GroupBasic executes its join plan; GroupUnion evaluates every branch
// independently and concatenates, aligning columns by variable name (no
// short-circuit on the first branch); a bare GroupMinus evaluates its
// inner group (top-level MINUS handling lives in evaluateBody, which
// needs the surrounding conjunction to anti-join against).
func (e *Engine) evaluateGroup(h *fact.SnapshotHandle, g dlir.Group) Relation {
	switch g.Kind {
	case dlir.GroupBasic:
		cb := e.compileBasic(g)
		return e.execBasic(h, cb)
	case dlir.GroupUnion:
		var rows []Row
		varSet := map[string]bool{}
		for _, br := range g.Branches {
			r := e.evaluateGroup(h, br)
			rows = append(rows, r.Rows...)
			for _, v := range r.Vars {
				varSet[v] = true
			}
		}
		vars := make([]string, 0, len(varSet))
		for v := range varSet {
			vars = append(vars, v)
		}
		sort.Strings(vars)
		return Relation{Vars: vars, Rows: rows}
	case dlir.GroupMinus:
		if g.Minus == nil {
			return Relation{}
		}
		return e.evaluateGroup(h, *g.Minus)
	default:
		return Relation{}
	}
}

// evaluateBody joins every non-MINUS top-level group's relation together
// by shared variable name, then anti-joins each MINUS group against the
// accumulated result (spec §4.6 steps 3 and 6). Two UNION blocks at the
// top level are each evaluated into their own relation first and then
// joined with each other and with any outer basic patterns here -- the
// mandated fix for the double-UNION bug the spec calls out (§9
// BUG-001): nothing here short-circuits on the first UNION block.
func (e *Engine) evaluateBody(h *fact.SnapshotHandle, body []dlir.Group) Relation {
	var main Relation
	haveMain := false
	var minusGroups []dlir.Group

	for _, g := range body {
		if g.Kind == dlir.GroupMinus {
			minusGroups = append(minusGroups, g)
			continue
		}
		rel := e.evaluateGroup(h, g)
		if !haveMain {
			main = rel
			haveMain = true
			continue
		}
		main = joinRelations(main, rel)
	}
	if !haveMain {
		main = Relation{Rows: []Row{{}}}
	}

	for _, mg := range minusGroups {
		minusRel := e.evaluateGroup(h, mg)
		main = antiJoin(main, minusRel)
	}
	return main
}

func sharedVars(a, b []string) []string {
	bset := make(map[string]bool, len(b))
	for _, v := range b {
		bset[v] = true
	}
	var out []string
	for _, v := range a {
		if bset[v] {
			out = append(out, v)
		}
	}
	return out
}

func unionVars(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, v := range a {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func rowKey(r Row, vars []string) (string, bool) {
	var b strings.Builder
	for _, v := range vars {
		val, ok := r[v]
		if !ok {
			return "", false
		}
		fmt.Fprintf(&b, "|%d", uint32(val))
	}
	return b.String(), true
}

func mergeRows(a, b Row) Row {
	out := make(Row, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// joinRelations performs the natural (hash) join of a and b on their
// shared variable names; an empty shared-variable set is an explicit
// cross product (spec §4.4/§4.6 "missing shared variable ⇒ cross
// product (explicit)").
func joinRelations(a, b Relation) Relation {
	shared := sharedVars(a.Vars, b.Vars)
	out := Relation{Vars: unionVars(a.Vars, b.Vars)}
	if len(shared) == 0 {
		for _, ra := range a.Rows {
			for _, rb := range b.Rows {
				out.Rows = append(out.Rows, mergeRows(ra, rb))
			}
		}
		return out
	}

	index := make(map[string][]Row, len(b.Rows))
	for _, rb := range b.Rows {
		k, ok := rowKey(rb, shared)
		if !ok {
			continue
		}
		index[k] = append(index[k], rb)
	}
	for _, ra := range a.Rows {
		k, ok := rowKey(ra, shared)
		if !ok {
			continue
		}
		for _, rb := range index[k] {
			out.Rows = append(out.Rows, mergeRows(ra, rb))
		}
	}
	return out
}

// antiJoin implements MINUS (spec §4.6 step 6, §8 property 7): a main
// row survives iff no row in minus agrees with it on every variable they
// share. Variables that exist only in minus never constrain the result;
// when main and minus share no variables at all, compatibility is
// vacuously true for any main row, so a non-empty minus side removes
// everything (standard SPARQL MINUS semantics).
func antiJoin(main, minus Relation) Relation {
	out := Relation{Vars: main.Vars}
	if len(minus.Rows) == 0 {
		out.Rows = main.Rows
		return out
	}
	shared := sharedVars(main.Vars, minus.Vars)
	if len(shared) == 0 {
		return out
	}
	present := make(map[string]bool, len(minus.Rows))
	for _, r := range minus.Rows {
		if k, ok := rowKey(r, shared); ok {
			present[k] = true
		}
	}
	for _, r := range main.Rows {
		k, ok := rowKey(r, shared)
		if !ok || !present[k] {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}
