package rete

import (
	"regexp"
	"strings"

	"github.com/nodeadmin/owlrl-reasoner/term"
)

// builtinFunc evaluates one builtin call against its already-resolved
// argument term ids. ok=false reports a LiteralTypeError (incomparable/
// non-numeric arguments, or a malformed call) -- spec §7 says it is
// silent, never raised; result=false with ok=true is an ordinary
// predicate failure. The BuiltinNode drops the token identically in
// either case. result is the filter's truth value for comparison/regex
// builtins and always true for binder builtins; bound is the produced
// literal id for binder builtins (arithmetic, string), unused otherwise.
type builtinFunc func(store *term.Store, args []term.Id) (result bool, bound term.Id, ok bool)

// builtins is the registry of SWRL builtin:// functions the RETE layer
// can evaluate inside a BuiltinNode (spec §4.3 "builtin atoms compile to
// BuiltinNodes"). Names match the SWRL builtin library's local names; the
// swrlb: prefix is stripped by the axiom compiler before it builds a
// BuiltinCall.
var builtins = map[string]builtinFunc{
	"equal":              cmpBuiltin(func(o term.Ordering) bool { return o == term.Equal }),
	"notEqual":           cmpBuiltin(func(o term.Ordering) bool { return o != term.Equal && o != term.Incomparable }),
	"lessThan":           cmpBuiltin(func(o term.Ordering) bool { return o == term.Less }),
	"lessThanOrEqual":    cmpBuiltin(func(o term.Ordering) bool { return o == term.Less || o == term.Equal }),
	"greaterThan":        cmpBuiltin(func(o term.Ordering) bool { return o == term.Greater }),
	"greaterThanOrEqual": cmpBuiltin(func(o term.Ordering) bool { return o == term.Greater || o == term.Equal }),

	"add":      arithBuiltin(func(a, b float64) float64 { return a + b }),
	"subtract": arithBuiltin(func(a, b float64) float64 { return a - b }),
	"multiply": arithBuiltin(func(a, b float64) float64 { return a * b }),
	"divide": func(store *term.Store, args []term.Id) (bool, term.Id, bool) {
		if len(args) != 2 {
			return false, 0, false
		}
		a, aok := numericValue(store, args[0])
		b, bok := numericValue(store, args[1])
		if !aok || !bok || b == 0 {
			return false, 0, false
		}
		return true, internDouble(store, a/b), true
	},

	"stringLength": func(store *term.Store, args []term.Id) (bool, term.Id, bool) {
		if len(args) != 1 {
			return false, 0, false
		}
		t, ok := store.Lookup(args[0])
		if !ok || !term.IsLiteral(args[0]) {
			return false, 0, false
		}
		n := float64(len([]rune(t.Literal.Lexical)))
		return true, store.InternLiteral(formatFloat(n), term.XSDInteger), true
	},

	"stringConcat": func(store *term.Store, args []term.Id) (bool, term.Id, bool) {
		var b strings.Builder
		for _, a := range args {
			t, ok := store.Lookup(a)
			if !ok || !term.IsLiteral(a) {
				return false, 0, false
			}
			b.WriteString(t.Literal.Lexical)
		}
		return true, store.InternLiteral(b.String(), term.XSDString), true
	},

	"matches": func(store *term.Store, args []term.Id) (bool, term.Id, bool) {
		if len(args) != 2 {
			return false, 0, false
		}
		subj, ok1 := store.Lookup(args[0])
		pat, ok2 := store.Lookup(args[1])
		if !ok1 || !ok2 || !term.IsLiteral(args[0]) || !term.IsLiteral(args[1]) {
			return false, 0, false
		}
		re, err := regexp.Compile(pat.Literal.Lexical)
		if err != nil {
			return false, 0, false
		}
		return re.MatchString(subj.Literal.Lexical), 0, true
	},
}

func cmpBuiltin(pred func(term.Ordering) bool) builtinFunc {
	return func(store *term.Store, args []term.Id) (bool, term.Id, bool) {
		if len(args) != 2 {
			return false, 0, false
		}
		o := store.CmpLiteral(args[0], args[1])
		if o == term.Incomparable {
			return false, 0, false
		}
		return pred(o), 0, true
	}
}

func arithBuiltin(op func(a, b float64) float64) builtinFunc {
	return func(store *term.Store, args []term.Id) (bool, term.Id, bool) {
		if len(args) != 2 {
			return false, 0, false
		}
		a, aok := numericValue(store, args[0])
		b, bok := numericValue(store, args[1])
		if !aok || !bok {
			return false, 0, false
		}
		return true, internDouble(store, op(a, b)), true
	}
}

func internDouble(store *term.Store, v float64) term.Id {
	return store.InternLiteral(formatFloat(v), term.XSDDouble)
}

// numericValue extracts a float64 out of an interned integer/decimal/
// double literal, failing for any other datatype.
func numericValue(store *term.Store, id term.Id) (float64, bool) {
	if !term.IsLiteral(id) {
		return 0, false
	}
	t, ok := store.Lookup(id)
	if !ok {
		return 0, false
	}
	switch t.Literal.Datatype {
	case term.XSDInteger:
		v, ok := t.Literal.Parsed.(int64)
		if !ok {
			return 0, false
		}
		return float64(v), true
	case term.XSDDecimal, term.XSDDouble:
		v, ok := t.Literal.Parsed.(float64)
		if !ok {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return itoa64(int64(f))
	}
	return strings.TrimRight(strings.TrimRight(formatDecimal(f), "0"), ".")
}

func itoa64(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// formatDecimal renders a fixed-precision lexical form, avoiding
// strconv.FormatFloat's exponential notation, which is not a valid
// xsd:double/xsd:decimal lexical form under the profile's
// canonicalization rules.
func formatDecimal(f float64) string {
	neg := f < 0
	if neg {
		f = -f
	}
	whole := int64(f)
	frac := f - float64(whole)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(itoa64(whole))
	b.WriteByte('.')
	for i := 0; i < 6; i++ {
		frac *= 10
		d := int64(frac)
		b.WriteByte(byte('0' + d))
		frac -= float64(d)
	}
	return b.String()
}
