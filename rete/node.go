package rete

import (
	"sort"
	"strings"

	"github.com/nodeadmin/owlrl-reasoner/fact"
	"github.com/nodeadmin/owlrl-reasoner/term"
)

// Token is a partial (or complete) variable binding flowing through the
// network, tagged with the triple ids that justify it so a terminal node
// can record a full justification list (spec §3 Derivation record).
type Token struct {
	Bindings      map[int]term.Id
	Justification []fact.TripleId
}

func (t Token) clone() Token {
	b := make(map[int]term.Id, len(t.Bindings))
	for k, v := range t.Bindings {
		b[k] = v
	}
	j := make([]fact.TripleId, len(t.Justification))
	copy(j, t.Justification)
	return Token{Bindings: b, Justification: j}
}

// joinKey encodes a token's values at a fixed set of variable numbers
// into a string, used as the shared-variable hash index key in beta
// joins and in builtin-node memoization-free lookups.
func joinKey(vars []int, t Token) (string, bool) {
	var b strings.Builder
	for _, v := range vars {
		val, ok := t.Bindings[v]
		if !ok {
			return "", false
		}
		b.WriteString(","); b.WriteString(itoa(uint32(val)))
	}
	return b.String(), true
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Delta is a signed token flowing through the network: +1 when a
// matching triple/combination newly appeared, -1 when it has gone away
// (spec §4.5 "+delta"/"-delta").
type Delta struct {
	Sign int
	Tok  Token
}

// Receiver is anything that can consume a Delta: a BetaNode (via its
// left/right adapters), a BuiltinNode, or a TerminalNode.
type Receiver interface {
	Receive(net *Network, d Delta)
}

// ---- Alpha node ----

// AlphaNode filters triples matching Pattern against the Fact Store.
// Per spec §4.4 it "maintains a set of matching triples": matched is the
// set AddEdge replays to seed a newly wired successor, so it is
// load-bearing for productions compiled after their facts exist.
// onTriple does no duplicate-delta suppression of its own; it relies on
// the Fact Store emitting a +delta only for a newly added triple.
type AlphaNode struct {
	ID      int
	Pattern Pattern
	// matched caches the binding produced for every currently-live triple
	// id this alpha has matched, so a production wired in *after* facts
	// already exist can be seeded with historical matches instead of only
	// ever seeing future deltas (spec §4.5 forward chaining assumes the
	// network existed before the facts; the compiler does not, since
	// axioms and ground facts can arrive in either order within one
	// load_axioms batch).
	matched map[fact.TripleId]map[int]term.Id
	edges   []alphaEdge
}

type alphaEdge struct {
	target Receiver
	// varMap remaps this alpha's pattern-local variable numbers to the
	// consuming production's global variable numbers.
	varMap map[int]int
}

func newAlphaNode(id int, p Pattern) *AlphaNode {
	return &AlphaNode{ID: id, Pattern: p, matched: make(map[fact.TripleId]map[int]term.Id)}
}

// AddEdge wires this alpha node's output to a successor, remapping local
// variable numbers to the successor production's global numbering, then
// replays every currently-matched triple through the new edge only, so
// the new production sees facts asserted before it was compiled.
func (a *AlphaNode) AddEdge(net *Network, target Receiver, varMap map[int]int) {
	edge := alphaEdge{target: target, varMap: varMap}
	a.edges = append(a.edges, edge)
	for tid, bindings := range a.matched {
		tok := Token{Bindings: remapBindings(bindings, varMap), Justification: []fact.TripleId{tid}}
		target.Receive(net, Delta{Sign: +1, Tok: tok})
	}
}

func remapBindings(bindings map[int]term.Id, varMap map[int]int) map[int]term.Id {
	global := make(map[int]term.Id, len(bindings))
	for local, v := range bindings {
		if g, ok := varMap[local]; ok {
			global[g] = v
		}
	}
	return global
}

// onTriple reacts to one triple delta (sign +1/-1) from the Fact Store.
func (a *AlphaNode) onTriple(net *Network, tid fact.TripleId, t fact.Triple, sign int) {
	bindings, ok := a.Pattern.Match(t)
	if !ok {
		return
	}
	net.stats.AlphaActivations++
	if sign > 0 {
		a.matched[tid] = bindings
	} else {
		delete(a.matched, tid)
	}

	for _, e := range a.edges {
		tok := Token{Bindings: remapBindings(bindings, e.varMap), Justification: []fact.TripleId{tid}}
		e.target.Receive(net, Delta{Sign: sign, Tok: tok})
	}
}

// ---- Beta node ----

// BetaNode is a two-input hash join on the variables shared between its
// left and right inputs (spec §4.4). Joins are set-semantics: the same
// combination can be produced by distinct (left,right) pairs, and each
// survives independently -- necessary for the counting-based
// invalidation of spec §4.5/§8.
type BetaNode struct {
	ID         int
	SharedVars []int

	leftIndex  map[string][]Token
	rightIndex map[string][]Token

	successors []Receiver
}

func newBetaNode(id int, shared []int) *BetaNode {
	shared = append([]int(nil), shared...)
	sort.Ints(shared)
	return &BetaNode{
		ID: id, SharedVars: shared,
		leftIndex:  make(map[string][]Token),
		rightIndex: make(map[string][]Token),
	}
}

func (b *BetaNode) AddSuccessor(r Receiver) { b.successors = append(b.successors, r) }

type leftAdapter struct{ n *BetaNode }
type rightAdapter struct{ n *BetaNode }

func (a leftAdapter) Receive(net *Network, d Delta)  { a.n.receiveLeft(net, d) }
func (a rightAdapter) Receive(net *Network, d Delta) { a.n.receiveRight(net, d) }

func mergeTokens(left, right Token) Token {
	out := left.clone()
	for k, v := range right.Bindings {
		out.Bindings[k] = v
	}
	out.Justification = append(out.Justification, right.Justification...)
	return out
}

func (b *BetaNode) receiveLeft(net *Network, d Delta) {
	key, ok := joinKey(b.SharedVars, d.Tok)
	if !ok {
		key = "" // no shared vars: every right tuple is a cross-product match
	}
	if d.Sign > 0 {
		b.leftIndex[key] = append(b.leftIndex[key], d.Tok)
	} else {
		b.leftIndex[key] = removeToken(b.leftIndex[key], d.Tok)
	}
	for _, rt := range b.rightIndex[key] {
		combined := mergeTokens(d.Tok, rt)
		net.stats.BetaJoins++
		b.emit(net, Delta{Sign: d.Sign, Tok: combined})
	}
}

func (b *BetaNode) receiveRight(net *Network, d Delta) {
	key, ok := joinKey(b.SharedVars, d.Tok)
	if !ok {
		key = ""
	}
	if d.Sign > 0 {
		b.rightIndex[key] = append(b.rightIndex[key], d.Tok)
	} else {
		b.rightIndex[key] = removeToken(b.rightIndex[key], d.Tok)
	}
	for _, lt := range b.leftIndex[key] {
		combined := mergeTokens(lt, d.Tok)
		net.stats.BetaJoins++
		b.emit(net, Delta{Sign: d.Sign, Tok: combined})
	}
}

func (b *BetaNode) emit(net *Network, d Delta) {
	for _, s := range b.successors {
		s.Receive(net, d)
	}
}

func removeToken(list []Token, tok Token) []Token {
	for i, t := range list {
		if sameBindings(t, tok) {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func sameBindings(a, b Token) bool {
	if len(a.Bindings) != len(b.Bindings) {
		return false
	}
	for k, v := range a.Bindings {
		if bv, ok := b.Bindings[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// ---- Builtin node ----

// BuiltinCall is one builtin invocation within a production's LHS (spec
// §4.3/§4.4): arguments reference global variable numbers (Var) or
// ground literals (Const); a successful call may bind a new variable
// (BindsVar >= 0) for arithmetic builtins.
type BuiltinCall struct {
	Name    string
	Args    []BuiltinArg
	BindsVar int // -1 if this builtin only filters, doesn't bind
}

type BuiltinArg struct {
	IsVar bool
	Var   int
	Const term.Id
}

// BuiltinNode evaluates one pure builtin function per token. Failing the
// predicate drops the token (spec §4.4); a LiteralTypeError (incomparable
// literal types) is treated the same way, silently, per spec §7.
type BuiltinNode struct {
	ID         int
	Call       BuiltinCall
	Store      *term.Store
	successors []Receiver
}

func (n *BuiltinNode) AddSuccessor(r Receiver) { n.successors = append(n.successors, r) }

func (n *BuiltinNode) Receive(net *Network, d Delta) {
	fn, ok := builtins[n.Call.Name]
	if !ok {
		return
	}
	args := make([]term.Id, len(n.Call.Args))
	for i, a := range n.Call.Args {
		if a.IsVar {
			v, ok := d.Tok.Bindings[a.Var]
			if !ok {
				return
			}
			args[i] = v
		} else {
			args[i] = a.Const
		}
	}
	result, bound, ok := fn(n.Store, args)
	if !ok || !result {
		return // predicate failed, or LiteralTypeError -- drop silently
	}
	out := d.Tok.clone()
	if n.Call.BindsVar >= 0 {
		out.Bindings[n.Call.BindsVar] = bound
	}
	for _, s := range n.successors {
		s.Receive(net, Delta{Sign: d.Sign, Tok: out})
	}
}

// ---- Terminal (production) node ----

// TripleTemplate is one RHS consequent triple (spec §3 "Production is
// (id, lhs, builtins, rhs: list<TripleTemplate>)"). Each slot is either a
// ground constant or a reference to a global production variable.
type TripleTemplate struct {
	S, P, O TemplateSlot
}

type TemplateSlot struct {
	IsVar bool
	Var   int
	Const term.Id
}

func TConst(id term.Id) TemplateSlot { return TemplateSlot{Const: id} }
func TVar(n int) TemplateSlot        { return TemplateSlot{IsVar: true, Var: n} }

// TerminalNode fires a production's RHS for every complete binding that
// reaches it, calling Fact Store.Derive with the token's accumulated
// justification (spec §4.4 "Production (terminal) node").
type TerminalNode struct {
	ID         int
	ProductionID int
	Templates  []TripleTemplate
	// Inconsistency, when true, means this production's firing represents
	// an axiom like DisjointClasses whose "consequence" is an
	// InconsistentOntology event rather than a derived triple.
	Inconsistency bool
	InconsistencyDetail string
}

func (n *TerminalNode) Receive(net *Network, d Delta) {
	if d.Sign < 0 {
		net.retractProduction(n, d.Tok)
		return
	}
	net.stats.ProductionsFired++
	if n.Inconsistency {
		net.reportInconsistency(n, d.Tok)
		return
	}
	for _, tmpl := range n.Templates {
		tr, ok := instantiate(tmpl, d.Tok.Bindings)
		if !ok {
			continue
		}
		net.deriveFromProduction(tr, d.Tok.Justification)
	}
}

func instantiate(tmpl TripleTemplate, bindings map[int]term.Id) (fact.Triple, bool) {
	s, ok1 := resolveSlot(tmpl.S, bindings)
	p, ok2 := resolveSlot(tmpl.P, bindings)
	o, ok3 := resolveSlot(tmpl.O, bindings)
	if !ok1 || !ok2 || !ok3 {
		return fact.Triple{}, false
	}
	return fact.Triple{S: s, P: p, O: o}, true
}

func resolveSlot(s TemplateSlot, bindings map[int]term.Id) (term.Id, bool) {
	if !s.IsVar {
		return s.Const, true
	}
	v, ok := bindings[s.Var]
	return v, ok
}
