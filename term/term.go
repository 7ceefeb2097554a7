// Package term implements the reasoner's Term Store: interning of names and
// typed literals into dense 32-bit ids, and literal comparison.
package term

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Id identifies an interned term. The top bit distinguishes the two id
// spaces the spec calls NamedTermId and LiteralId; both share the
// remaining 31 bits of the range and are assigned independently and
// monotonically, so a NamedTermId and a LiteralId can coincide in their
// low bits without colliding.
type Id uint32

const literalBit Id = 1 << 31

// NamedId and LiteralId are documentation aliases for Id used at the two
// call sites that only ever produce one kind of id.
type NamedId = Id
type LiteralId = Id

// IsLiteral reports whether id was produced by InternLiteral.
func IsLiteral(id Id) bool { return id&literalBit != 0 }

// Reserved term ids every reasoner predefines. ReservedType is the
// predicate used to encode class assertions as (individual, type, Class)
// triples (spec §3).
const (
	Thing NamedId = iota
	Nothing
	ReservedType
	ReservedSameAs
	ReservedDifferentFrom
	// ReservedSubClassOf is a synthetic predicate the Axiom Compiler uses
	// to materialise the class hierarchy itself (as opposed to instance
	// membership): every atomic SubClassOf/EquivClasses axiom asserts
	// (sub, ReservedSubClassOf, sup) as a ground fact, and one global
	// transitivity production closes it, so subsumers_of/subsumed_by
	// (spec §6.3) can be answered with a single indexed Select instead of
	// re-walking productions.
	ReservedSubClassOf
	firstDynamicNamed
)

var reservedNames = map[string]NamedId{
	"owl:Thing":          Thing,
	"owl:Nothing":        Nothing,
	"rdf:type":           ReservedType,
	"owl:sameAs":         ReservedSameAs,
	"owl:differentFrom":  ReservedDifferentFrom,
	"rdfs:subClassOf":    ReservedSubClassOf,
}

// Datatype is a closed set of literal datatype tags the store understands
// natively. An IRI that does not map to one of these is interned under
// Opaque, per spec §4.1 ("unknown datatype ⇒ treated as opaque string").
type Datatype uint8

const (
	XSDString Datatype = iota
	XSDInteger
	XSDDecimal
	XSDDouble
	XSDBoolean
	XSDDateTime
	XSDDate
	XSDDuration
	Opaque
)

var datatypeIRIs = map[string]Datatype{
	"xsd:string":   XSDString,
	"xsd:integer":  XSDInteger,
	"xsd:int":      XSDInteger,
	"xsd:long":     XSDInteger,
	"xsd:decimal":  XSDDecimal,
	"xsd:double":   XSDDouble,
	"xsd:float":    XSDDouble,
	"xsd:boolean":  XSDBoolean,
	"xsd:dateTime": XSDDateTime,
	"xsd:date":     XSDDate,
	"xsd:duration": XSDDuration,
}

// DatatypeFromIRI resolves a surface datatype IRI (or short name) to a tag,
// falling back to Opaque for anything the store does not model natively.
func DatatypeFromIRI(iri string) Datatype {
	if dt, ok := datatypeIRIs[iri]; ok {
		return dt
	}
	return Opaque
}

// Literal is the typed literal representation: the original lexical form,
// its datatype tag, and a parsed value used for comparison.
type Literal struct {
	Lexical  string
	Datatype Datatype
	Parsed   any // int64, float64, bool, time.Time, time.Duration or string
}

// Ordering is the result of comparing two literals.
type Ordering int

const (
	Less Ordering = -1
	Equal Ordering = 0
	Greater Ordering = 1
	// Incomparable is returned instead of an error when two literals
	// cannot be meaningfully ordered (spec §4.1).
	Incomparable Ordering = 2
)

// Term is what Lookup returns: either a named term (Name set, Literal
// zero) or a literal term (Literal set, Name empty).
type Term struct {
	Name    string
	Literal Literal
}

func canonicalLiteralKey(lex string, dt Datatype) (string, any, error) {
	switch dt {
	case XSDInteger:
		v, err := strconv.ParseInt(strings.TrimSpace(lex), 10, 64)
		if err != nil {
			return "", nil, err
		}
		return strconv.FormatInt(v, 10), v, nil
	case XSDDecimal, XSDDouble:
		v, err := strconv.ParseFloat(strings.TrimSpace(lex), 64)
		if err != nil {
			return "", nil, err
		}
		// Canonical form collapses "1.0" and "1.00" to the same key.
		return strconv.FormatFloat(v, 'g', -1, 64), v, nil
	case XSDBoolean:
		v, err := strconv.ParseBool(strings.TrimSpace(lex))
		if err != nil {
			return "", nil, err
		}
		return strconv.FormatBool(v), v, nil
	case XSDDateTime, XSDDate:
		layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}
		var v time.Time
		var err error
		for _, layout := range layouts {
			v, err = time.Parse(layout, lex)
			if err == nil {
				break
			}
		}
		if err != nil {
			return "", nil, err
		}
		canon := v.UTC().Format(time.RFC3339)
		return canon, v, nil
	case XSDDuration:
		v, err := time.ParseDuration(lex)
		if err != nil {
			// ISO-8601 durations ("P1D") aren't parsed by time.ParseDuration;
			// fall back to treating the lexical form as opaque but still
			// canonicalize on the trimmed text.
			trimmed := strings.TrimSpace(lex)
			return trimmed, trimmed, nil
		}
		return v.String(), v, nil
	default: // XSDString, Opaque
		return lex, lex, nil
	}
}

type literalKey struct {
	canon string
	dt    Datatype
}

// Store is the reasoner's Term Store. Two calls with byte-equal inputs
// return the same id; ids are never recycled within the Store's lifetime
// (spec §4.1 Determinism).
type Store struct {
	namedByText map[string]NamedId
	namedByID   []string
	nextNamed   NamedId

	literalByKey map[literalKey]LiteralId
	literalByID  []Literal
	nextLiteral  LiteralId
}

// New creates a Store preloaded with the reserved terms every reasoner
// requires (owl:Thing, owl:Nothing, rdf:type, owl:sameAs,
// owl:differentFrom, rdfs:subClassOf).
func New() *Store {
	s := &Store{
		namedByText:  make(map[string]NamedId, 1024),
		namedByID:    make([]string, firstDynamicNamed),
		nextNamed:    firstDynamicNamed,
		literalByKey: make(map[literalKey]LiteralId, 256),
	}
	for name, id := range reservedNames {
		s.namedByText[name] = id
		s.namedByID[id] = name
	}
	return s
}

// InternName returns the NamedId for text, creating one if this is the
// first time it has been seen.
func (s *Store) InternName(text string) NamedId {
	if id, ok := s.namedByText[text]; ok {
		return id
	}
	id := s.nextNamed
	s.nextNamed++
	s.namedByText[text] = id
	s.namedByID = append(s.namedByID, text)
	return id
}

// LookupName resolves text to its NamedId without interning it, for
// read-only callers (the Query Engine compiling a query's constant terms)
// that must not mutate the Term Store just to evaluate a query against a
// name nobody has ever asserted.
func (s *Store) LookupName(text string) (NamedId, bool) {
	id, ok := s.namedByText[text]
	return id, ok
}

// LookupLiteral resolves (lexical, datatype) to its LiteralId without
// interning it, the read-only counterpart to InternLiteral.
func (s *Store) LookupLiteral(lexical string, dt Datatype) (LiteralId, bool) {
	canon, _, err := canonicalLiteralKey(lexical, dt)
	if err != nil {
		canon, _, _ = canonicalLiteralKey(lexical, Opaque)
		dt = Opaque
	}
	id, ok := s.literalByKey[literalKey{canon: canon, dt: dt}]
	return id, ok
}

// InternLiteral returns the LiteralId for (lexical, datatype), normalising
// the lexical form first so that "1.0" and "1.00" (for example) collapse
// to the same id.
func (s *Store) InternLiteral(lexical string, dt Datatype) LiteralId {
	canon, parsed, err := canonicalLiteralKey(lexical, dt)
	if err != nil {
		// Unparseable value under its declared datatype: fall back to an
		// opaque-string identity so interning stays total.
		canon, parsed, _ = canonicalLiteralKey(lexical, Opaque)
		dt = Opaque
	}
	key := literalKey{canon: canon, dt: dt}
	if id, ok := s.literalByKey[key]; ok {
		return id
	}
	id := s.nextLiteral | literalBit
	s.nextLiteral++
	s.literalByKey[key] = id
	s.literalByID = append(s.literalByID, Literal{Lexical: lexical, Datatype: dt, Parsed: parsed})
	return id
}

// Lookup returns the Term for id.
func (s *Store) Lookup(id Id) (Term, bool) {
	if IsLiteral(id) {
		idx := id &^ literalBit
		if int(idx) >= len(s.literalByID) {
			return Term{}, false
		}
		return Term{Literal: s.literalByID[idx]}, true
	}
	if int(id) >= len(s.namedByID) {
		return Term{}, false
	}
	return Term{Name: s.namedByID[id]}, true
}

// IsLiteral reports whether id was produced by InternLiteral.
func (s *Store) IsLiteral(id Id) bool { return IsLiteral(id) }

func literalCategory(dt Datatype) int {
	switch dt {
	case XSDInteger, XSDDecimal, XSDDouble:
		return 1 // numeric
	case XSDDateTime, XSDDate:
		return 2 // temporal
	case XSDDuration:
		return 3
	case XSDBoolean:
		return 4
	default:
		return 5 // textual / opaque
	}
}

// CmpLiteral compares two literals by id. Cross-category comparisons
// (e.g. a string against a dateTime) return Incomparable rather than an
// error; numeric datatypes compare by magnitude regardless of which exact
// numeric tag each side carries.
func (s *Store) CmpLiteral(a, b LiteralId) Ordering {
	ta, ok1 := s.Lookup(a)
	tb, ok2 := s.Lookup(b)
	if !ok1 || !ok2 || !IsLiteral(a) || !IsLiteral(b) {
		return Incomparable
	}
	la, lb := ta.Literal, tb.Literal
	ca, cb := literalCategory(la.Datatype), literalCategory(lb.Datatype)
	if ca != cb {
		return Incomparable
	}
	switch ca {
	case 1:
		fa, fb := toFloat(la.Parsed), toFloat(lb.Parsed)
		return cmpFloat(fa, fb)
	case 2:
		ta2, _ := la.Parsed.(time.Time)
		tb2, _ := lb.Parsed.(time.Time)
		switch {
		case ta2.Before(tb2):
			return Less
		case ta2.After(tb2):
			return Greater
		default:
			return Equal
		}
	case 3:
		da, _ := la.Parsed.(time.Duration)
		db, _ := lb.Parsed.(time.Duration)
		switch {
		case da < db:
			return Less
		case da > db:
			return Greater
		default:
			return Equal
		}
	case 4:
		ba, _ := la.Parsed.(bool)
		bb, _ := lb.Parsed.(bool)
		if ba == bb {
			return Equal
		}
		if !ba && bb {
			return Less
		}
		return Greater
	default:
		sa := fmt.Sprint(la.Parsed)
		sb := fmt.Sprint(lb.Parsed)
		return cmpString(sa, sb)
	}
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	default:
		return math.NaN()
	}
}

func cmpFloat(a, b float64) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	case a == b:
		return Equal
	default:
		return Incomparable // NaN
	}
}

func cmpString(a, b string) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}

// PackKey packs a triple's three term ids into a fixed-width big-endian
// byte key, used by the Fact Store to key its radix-tree index
// permutations. Packing preserves lexicographic key order matching
// numeric id order, which is what makes radix-tree prefix iteration
// double as wildcard index lookup.
func PackKey(a, b, c Id) [12]byte {
	var k [12]byte
	putID(k[0:4], a)
	putID(k[4:8], b)
	putID(k[8:12], c)
	return k
}

func putID(dst []byte, id Id) {
	dst[0] = byte(id >> 24)
	dst[1] = byte(id >> 16)
	dst[2] = byte(id >> 8)
	dst[3] = byte(id)
}

// UnpackKey is the inverse of PackKey.
func UnpackKey(k [12]byte) (a, b, c Id) {
	a = getID(k[0:4])
	b = getID(k[4:8])
	c = getID(k[8:12])
	return
}

func getID(src []byte) Id {
	return Id(src[0])<<24 | Id(src[1])<<16 | Id(src[2])<<8 | Id(src[3])
}
