package query

import (
	"fmt"
	"sort"

	"github.com/nodeadmin/owlrl-reasoner/dlir"
	"github.com/nodeadmin/owlrl-reasoner/fact"
	"github.com/nodeadmin/owlrl-reasoner/term"
)

// collectBodyVars gathers every variable name bound by a non-MINUS group
// in body, recursing through UNION branches. Used by validateQuery to
// catch the InvalidQuery shape spec §7 calls out by name: "a variable
// appears only in MINUS" (MINUS groups are deliberately excluded here).
func collectBodyVars(body []dlir.Group) map[string]bool {
	out := map[string]bool{}
	for _, g := range body {
		if g.Kind == dlir.GroupMinus {
			continue
		}
		collectGroupVars(g, out)
	}
	return out
}

func collectGroupVars(g dlir.Group, out map[string]bool) {
	switch g.Kind {
	case dlir.GroupBasic:
		for _, p := range g.Patterns {
			for _, tv := range [...]dlir.TermOrVar{p.S, p.P, p.O} {
				if tv.IsVar {
					out[tv.Name] = true
				}
			}
		}
	case dlir.GroupUnion:
		for _, br := range g.Branches {
			collectGroupVars(br, out)
		}
	}
}

func validateQuery(q dlir.Query) error {
	if q.Select == dlir.SelectAsk {
		if q.Distinct || len(q.OrderBy) > 0 || q.Limit != nil || q.Offset != nil {
			return InvalidQueryError{Reason: "ASK query must not carry DISTINCT/ORDER BY/LIMIT/OFFSET modifiers"}
		}
		return nil
	}
	mainVars := collectBodyVars(q.Body)
	if q.Select == dlir.SelectDescribe {
		if len(q.Body) > 0 && q.DescribeVar != "" && !mainVars[q.DescribeVar] {
			return InvalidQueryError{Reason: fmt.Sprintf("DESCRIBE variable %q is never bound outside a MINUS group", q.DescribeVar)}
		}
		return nil
	}
	for _, v := range q.Vars {
		if !mainVars[v] {
			return InvalidQueryError{Reason: fmt.Sprintf("select variable %q is never bound outside a MINUS group", v)}
		}
	}
	return nil
}

// Select executes a SelectVars/SelectDescribe query against h, returning
// a Table projected to the query's select list (or, for DESCRIBE, the
// triple-shaped expansion of every distinct binding of the describe
// variable) after DISTINCT, ORDER BY, OFFSET and LIMIT have been applied
// (spec §4.6 step 7). The sort runs on the unprojected rows, before
// DISTINCT; since DISTINCT keeps the first row of each group, the result
// is the one DISTINCT-then-ORDER BY gives whenever the ORDER BY
// variables are all selected.
func (e *Engine) Select(h *fact.SnapshotHandle, q dlir.Query) (Table, error) {
	if q.Select == dlir.SelectAsk {
		return Table{}, InvalidQueryError{Reason: "Select called with an ASK query; use Engine.Ask"}
	}
	if err := validateQuery(q); err != nil {
		return Table{}, err
	}

	rel := e.evaluateBody(h, q.Body)

	if q.Select == dlir.SelectDescribe {
		return e.describeFromRelation(h, rel, q.DescribeVar), nil
	}

	// ORDER BY keys may name variables outside the select list, so the
	// full solution rows are sorted before projection. distinctRows keeps
	// the first row of each group, so the order survives DISTINCT.
	if len(q.OrderBy) > 0 {
		sortRows(rel.Rows, q.OrderBy, e.terms)
	}
	rows := projectRows(rel.Rows, q.Vars)
	if q.Distinct {
		rows = distinctRows(rows, q.Vars)
	}
	rows = applyOffsetLimit(rows, q.Offset, q.Limit)
	return Table{Vars: q.Vars, Rows: rows}, nil
}

// Ask evaluates a SelectAsk query's body and reports whether it has at
// least one solution (spec §6.2 Ask). The whole body is evaluated; there
// is no early exit on the first solution.
func (e *Engine) Ask(h *fact.SnapshotHandle, q dlir.Query) (bool, error) {
	if q.Select != dlir.SelectAsk {
		return false, InvalidQueryError{Reason: "Ask called with a non-ASK query"}
	}
	if err := validateQuery(q); err != nil {
		return false, err
	}
	rel := e.evaluateBody(h, q.Body)
	return len(rel.Rows) > 0, nil
}

// DescribeTerm implements the host-facing describe(term) → Table
// operation (spec §6.3): every triple with t as subject, unioned with
// every triple with t as object (spec SPEC_FULL.md's documented DESCRIBE
// choice).
func (e *Engine) DescribeTerm(h *fact.SnapshotHandle, t term.Id) Table {
	out := Table{Vars: []string{"s", "p", "o"}}
	for _, tr := range h.Select(&t, nil, nil, false) {
		out.Rows = append(out.Rows, Row{"s": tr.S, "p": tr.P, "o": tr.O})
	}
	for _, tr := range h.Select(nil, nil, &t, false) {
		out.Rows = append(out.Rows, Row{"s": tr.S, "p": tr.P, "o": tr.O})
	}
	return out
}

func (e *Engine) describeFromRelation(h *fact.SnapshotHandle, rel Relation, varName string) Table {
	out := Table{Vars: []string{"s", "p", "o"}}
	seen := map[term.Id]bool{}
	for _, r := range rel.Rows {
		v, ok := r[varName]
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		sub := e.DescribeTerm(h, v)
		out.Rows = append(out.Rows, sub.Rows...)
	}
	return out
}

func projectRows(rows []Row, vars []string) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		nr := make(Row, len(vars))
		for _, v := range vars {
			if val, ok := r[v]; ok {
				nr[v] = val
			}
		}
		out = append(out, nr)
	}
	return out
}

func rowSig(r Row, vars []string) string {
	var sig string
	for _, v := range vars {
		val, ok := r[v]
		if ok {
			sig += fmt.Sprintf("|%d", uint32(val))
		} else {
			sig += "|_"
		}
	}
	return sig
}

func distinctRows(rows []Row, vars []string) []Row {
	seen := make(map[string]bool, len(rows))
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		sig := rowSig(r, vars)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, r)
	}
	return out
}

func sortRows(rows []Row, orderBy []dlir.OrderKey, terms *term.Store) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range orderBy {
			a, aok := rows[i][key.Var]
			b, bok := rows[j][key.Var]
			if !aok && !bok {
				continue
			}
			if aok != bok {
				// Unbound sorts before bound, regardless of direction,
				// so ORDER BY is still a total and deterministic order.
				return !aok
			}
			cmp := compareTerms(a, b, terms)
			if cmp == 0 {
				continue
			}
			if key.Direction == dlir.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareTerms(a, b term.Id, terms *term.Store) int {
	if a == b {
		return 0
	}
	if term.IsLiteral(a) && term.IsLiteral(b) {
		switch terms.CmpLiteral(a, b) {
		case term.Less:
			return -1
		case term.Greater:
			return 1
		default:
			return 0
		}
	}
	ta, _ := terms.Lookup(a)
	tb, _ := terms.Lookup(b)
	as, bs := ta.Name, tb.Name
	if as == "" {
		as = ta.Literal.Lexical
	}
	if bs == "" {
		bs = tb.Literal.Lexical
	}
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func applyOffsetLimit(rows []Row, offset, limit *int) []Row {
	if offset != nil {
		o := *offset
		if o >= len(rows) {
			return nil
		}
		if o > 0 {
			rows = rows[o:]
		}
	}
	if limit != nil {
		if l := *limit; l < len(rows) {
			rows = rows[:l]
		}
	}
	return rows
}
