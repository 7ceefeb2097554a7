package query

import (
	"regexp"

	"github.com/nodeadmin/owlrl-reasoner/dlir"
	"github.com/nodeadmin/owlrl-reasoner/term"
)

// filterVars returns the distinct variable names a FILTER expression
// references, used by execBasic to push a filter down to the join step
// where all of its variables first become bound (spec §4.6 step 4).
func filterVars(expr *dlir.FilterExpr) []string {
	if expr == nil {
		return nil
	}
	if expr.IsLeaf {
		if expr.Var != "" {
			return []string{expr.Var}
		}
		return nil
	}
	out := filterVars(expr.Left)
	out = append(out, filterVars(expr.Right)...)
	return out
}

// evalValue resolves a leaf FilterExpr (a Var reference or a ground
// Const) to a term id against one row. An unresolved variable or a
// constant that was never interned both report ok=false, which the
// comparison operators below treat as "drop this row" -- consistent
// with spec §7's UnknownTerm ("query references a constant not interned
// ... returns an empty result, not an error").
func (e *Engine) evalValue(expr *dlir.FilterExpr, row Row) (term.Id, bool) {
	if expr.Var != "" {
		v, ok := row[expr.Var]
		return v, ok
	}
	return compileConstSlotValue(expr.Const, e.terms)
}

func compileConstSlotValue(tv dlir.TermOrVar, terms *term.Store) (term.Id, bool) {
	if tv.Datatype != "" || tv.Literal != "" {
		return terms.LookupLiteral(tv.Literal, term.DatatypeFromIRI(tv.Datatype))
	}
	return terms.LookupName(tv.Name)
}

// evalFilter evaluates a FILTER expression tree against one fully (or
// partially) bound row (spec §6.2). A comparison whose operands are
// incomparable literal types (spec §7 LiteralTypeError) or whose
// variables aren't yet bound evaluates to false -- dropping the row
// silently, never raising an error, matching the builtin node's
// treatment of the same condition in rete.BuiltinNode.
func (e *Engine) evalFilter(expr *dlir.FilterExpr, row Row) bool {
	if expr == nil {
		return true
	}
	switch expr.Op {
	case dlir.OpAnd:
		return e.evalFilter(expr.Left, row) && e.evalFilter(expr.Right, row)
	case dlir.OpOr:
		return e.evalFilter(expr.Left, row) || e.evalFilter(expr.Right, row)
	case dlir.OpNot:
		return !e.evalFilter(expr.Left, row)
	case dlir.OpBound:
		if expr.Left == nil {
			return false
		}
		_, ok := row[expr.Left.Var]
		return ok
	case dlir.OpRegex:
		lv, lok := e.evalValue(expr.Left, row)
		rv, rok := e.evalValue(expr.Right, row)
		if !lok || !rok || !term.IsLiteral(lv) || !term.IsLiteral(rv) {
			return false
		}
		lt, _ := e.terms.Lookup(lv)
		rt, _ := e.terms.Lookup(rv)
		re, err := regexp.Compile(rt.Literal.Lexical)
		if err != nil {
			return false
		}
		return re.MatchString(lt.Literal.Lexical)
	default:
		return e.evalComparison(expr, row)
	}
}

func (e *Engine) evalComparison(expr *dlir.FilterExpr, row Row) bool {
	lv, lok := e.evalValue(expr.Left, row)
	rv, rok := e.evalValue(expr.Right, row)
	if !lok || !rok {
		return false
	}
	if expr.Op == dlir.OpEq {
		if lv == rv {
			return true
		}
		return e.terms.CmpLiteral(lv, rv) == term.Equal
	}
	if expr.Op == dlir.OpNeq {
		if lv == rv {
			return false
		}
		return e.terms.CmpLiteral(lv, rv) != term.Equal
	}
	o := e.terms.CmpLiteral(lv, rv)
	if o == term.Incomparable {
		return false
	}
	switch expr.Op {
	case dlir.OpLt:
		return o == term.Less
	case dlir.OpLte:
		return o == term.Less || o == term.Equal
	case dlir.OpGt:
		return o == term.Greater
	case dlir.OpGte:
		return o == term.Greater || o == term.Equal
	default:
		return false
	}
}
