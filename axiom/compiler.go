// Package axiom translates the abstract axiom IR (dlir.Axiom) into RETE
// productions and direct Fact Store assertions, following the OWL 2 RL
// rule templates of spec §4.3.
package axiom

import (
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/nodeadmin/owlrl-reasoner/dlir"
	"github.com/nodeadmin/owlrl-reasoner/fact"
	"github.com/nodeadmin/owlrl-reasoner/rete"
	"github.com/nodeadmin/owlrl-reasoner/term"
)

// Compiler owns the Term Store and RETE Network it compiles axioms
// against, plus the Fact Store it asserts ground facts into directly.
type Compiler struct {
	log     hclog.Logger
	terms   *term.Store
	network *rete.Network
	store   *fact.Store
}

func New(terms *term.Store, network *rete.Network, store *fact.Store, log hclog.Logger) *Compiler {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	c := &Compiler{log: log.Named("axiom"), terms: terms, network: network, store: store}
	c.compileSubClassOfTransitivity()
	return c
}

// compileSubClassOfTransitivity wires the one global production that
// closes ReservedSubClassOf under transitivity, so the class-hierarchy
// facts compileSubClassOf materialises below compose the same way
// SubClassOf itself does (C ⊑ D ⊑ E ⇒ C ⊑ E). Installed once per
// Compiler, never per axiom.
func (c *Compiler) compileSubClassOfTransitivity() {
	x, y, z := 0, 1, 2
	lhs := []rete.Pattern{
		{S: rete.Var(x), P: rete.Const(term.ReservedSubClassOf), O: rete.Var(y)},
		{S: rete.Var(y), P: rete.Const(term.ReservedSubClassOf), O: rete.Var(z)},
	}
	rhs := []rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(term.ReservedSubClassOf), O: rete.TVar(z)}}
	c.network.CompileProduction(lhs, nil, rhs)
}

// LoadAxioms compiles every axiom in axioms, aggregating NonRLAxiomWarning
// and CompileError values with go-multierror rather than stopping at the
// first bad axiom (spec AMBIENT STACK: "load_axioms aggregates them").
// Axioms that compiled successfully still take effect even if a later
// axiom in the batch is rejected.
func (c *Compiler) LoadAxioms(axioms []dlir.Axiom) error {
	var result *multierror.Error
	for _, ax := range axioms {
		if err := c.Compile(ax); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Compile dispatches a single axiom to its OWL 2 RL rule template,
// either asserting ground triples directly into the Fact Store or
// building one or more RETE productions (spec §4.3 table).
func (c *Compiler) Compile(ax dlir.Axiom) error {
	src := fact.SourceId(ax.Tag)
	switch ax.Kind {
	case dlir.ClassAssertion:
		return c.compileClassAssertion(ax, src)
	case dlir.RoleAssertion:
		s := c.terms.InternName(ax.Subject)
		p := c.terms.InternName(ax.Property)
		o := c.terms.InternName(ax.Object)
		c.assertGround(fact.Triple{S: s, P: p, O: o}, src)
		return nil
	case dlir.DataAssertion:
		s := c.terms.InternName(ax.Individual)
		p := c.terms.InternName(ax.Property)
		o := c.internTerm(ax.Value)
		c.assertGround(fact.Triple{S: s, P: p, O: o}, src)
		return nil
	case dlir.SameAs:
		s := c.terms.InternName(ax.Subject)
		o := c.terms.InternName(ax.Object)
		c.assertGround(fact.Triple{S: s, P: term.ReservedSameAs, O: o}, src)
		return nil
	case dlir.DifferentFrom:
		s := c.terms.InternName(ax.Subject)
		o := c.terms.InternName(ax.Object)
		c.assertGround(fact.Triple{S: s, P: term.ReservedDifferentFrom, O: o}, src)
		return nil
	case dlir.SubClassOf:
		return c.compileSubClassOf(ax.Sub, ax.Sup, ax.Tag)
	case dlir.EquivClasses:
		if err := c.compileSubClassOf(ax.Sub, ax.Sup, ax.Tag); err != nil {
			return err
		}
		return c.compileSubClassOf(ax.Sup, ax.Sub, ax.Tag)
	case dlir.DisjointClasses:
		return c.compileDisjointClasses(ax)
	case dlir.SubRole:
		return c.compileRoleInclusion(ax.RoleSub, ax.RoleSup, ax.Tag)
	case dlir.EquivRoles:
		if err := c.compileRoleInclusion(ax.RoleSub, ax.RoleSup, ax.Tag); err != nil {
			return err
		}
		return c.compileRoleInclusion(ax.RoleSup, ax.RoleSub, ax.Tag)
	case dlir.DisjointRoles:
		return c.compileDisjointRoles(ax)
	case dlir.InverseRoles:
		if err := c.compileInverse(ax.RoleSub, ax.RoleSup, ax.Tag); err != nil {
			return err
		}
		return c.compileInverse(ax.RoleSup, ax.RoleSub, ax.Tag)
	case dlir.RoleChain:
		return c.compileRoleChain(ax)
	case dlir.FunctionalRole:
		return c.compileFunctional(ax.Property, ax.Tag, false)
	case dlir.InverseFunctionalRole:
		return c.compileFunctional(ax.Property, ax.Tag, true)
	case dlir.TransitiveRole:
		return c.compileTransitive(ax.Property, ax.Tag)
	case dlir.SymmetricRole:
		return c.compileInverse(ax.Property, ax.Property, ax.Tag)
	case dlir.AsymmetricRole:
		return c.compileAsymmetric(ax.Property, ax.Tag)
	case dlir.ReflexiveRole:
		return c.compileReflexive(ax.Property, ax.Tag)
	case dlir.IrreflexiveRole:
		return c.compileIrreflexive(ax.Property, ax.Tag)
	case dlir.HasKey:
		return c.compileHasKey(ax)
	case dlir.DatatypeDefinition:
		// Custom datatype facets are outside the OWL 2 RL polynomial
		// fragment this core targets (spec Non-goals); recording the
		// definition has no effect on cmp_literal, so there is nothing to
		// compile. Not a warning: the axiom is accepted, just inert.
		return nil
	case dlir.SwrlRule:
		return c.compileSwrlRule(ax)
	default:
		return CompileError{Tag: string(ax.Tag), Reason: "unknown axiom kind"}
	}
}

// assertGround stores a ground triple and, if newly added, immediately
// fans it out across the network's alpha nodes -- mirroring the host
// contract's assert() ("Assertions enqueue a +delta on the relevant
// alpha nodes", spec §4.5). It does not drain the resulting worklist to
// quiescence; that is reason()'s job (§6.3), run by the Inference
// Driver after a load_axioms batch.
func (c *Compiler) assertGround(t fact.Triple, src fact.SourceId) {
	res := c.store.Assert(t, src)
	if res.Added {
		c.network.AssertDelta(c.store.TripleID(t), t)
	}
}

func (c *Compiler) internTerm(t dlir.Term) term.Id {
	if t.Literal != "" || t.Datatype != "" {
		return c.terms.InternLiteral(t.Literal, term.DatatypeFromIRI(t.Datatype))
	}
	return c.terms.InternName(t.Name)
}

func (c *Compiler) compileClassAssertion(ax dlir.Axiom, src fact.SourceId) error {
	ind := c.terms.InternName(ax.Individual)
	// Every named individual carries (i, type, Thing) per spec I3.
	c.assertGround(fact.Triple{S: ind, P: term.ReservedType, O: term.Thing}, src)
	if ax.Class == nil {
		return nil
	}
	return c.assertClassMembership(ind, ax.Class, src)
}

// assertClassMembership handles ground class assertions, including the
// non-atomic concept shapes that reduce to a finite set of ground
// triples (And, HasValue, HasSelf); anything requiring an unnamed
// individual is refused.
func (c *Compiler) assertClassMembership(ind term.Id, concept *dlir.Concept, src fact.SourceId) error {
	switch concept.Kind {
	case dlir.CAtomic:
		cls := c.terms.InternName(concept.Atomic)
		c.assertGround(fact.Triple{S: ind, P: term.ReservedType, O: cls}, src)
		return nil
	case dlir.CAnd:
		if err := c.assertClassMembership(ind, concept.Left, src); err != nil {
			return err
		}
		return c.assertClassMembership(ind, concept.Right, src)
	case dlir.CHasValue:
		role := c.terms.InternName(concept.Role)
		val := c.terms.InternName(concept.Value)
		c.assertGround(fact.Triple{S: ind, P: role, O: val}, src)
		return nil
	case dlir.CHasSelf:
		role := c.terms.InternName(concept.Role)
		c.assertGround(fact.Triple{S: ind, P: role, O: ind}, src)
		return nil
	default:
		return NonRLAxiomWarning{Tag: string(src), Reason: "class assertion against a non-ground concept expression"}
	}
}

// --- TBox: SubClassOf / EquivClasses ---

// varAlloc hands out fresh pattern-local variable numbers for one
// compiled axiom.
type varAlloc struct{ next int }

func (v *varAlloc) fresh() int { n := v.next; v.next++; return n }

// compileSubClassOf builds zero or more productions implementing
// sub ⊑ sup, recursing through the RL-safe concept constructors of spec
// §6.1's Concept grammar and refusing (NonRLAxiomWarning) anything that
// would require a fresh existential on the consequent side.
func (c *Compiler) compileSubClassOf(sub, sup *dlir.Concept, tag dlir.SourceTag) error {
	if sub == nil || sup == nil {
		return CompileError{Tag: string(tag), Reason: "SubClassOf with a nil concept"}
	}

	// Disjunction on the left distributes: (C1 ⊔ C2) ⊑ D splits into
	// C1 ⊑ D and C2 ⊑ D, each independently RL-safe.
	if sub.Kind == dlir.COr {
		if err := c.compileSubClassOf(sub.Left, sup, tag); err != nil {
			return err
		}
		return c.compileSubClassOf(sub.Right, sup, tag)
	}
	// Conjunction on the right: C ⊑ (D1 ⊓ D2) splits into C ⊑ D1, C ⊑ D2.
	if sup.Kind == dlir.CAnd {
		if err := c.compileSubClassOf(sub, sup.Left, tag); err != nil {
			return err
		}
		return c.compileSubClassOf(sub, sup.Right, tag)
	}

	// Atomic ⊑ atomic additionally materialises a ground class-hierarchy
	// fact, independent of the instance-level production built below, so
	// subsumers_of/subsumed_by (spec §6.3) can answer from the Fact Store
	// directly instead of re-deriving from individuals.
	if sub.Kind == dlir.CAtomic && sup.Kind == dlir.CAtomic {
		a := c.terms.InternName(sub.Atomic)
		b := c.terms.InternName(sup.Atomic)
		c.assertGround(fact.Triple{S: a, P: term.ReservedSubClassOf, O: b}, fact.SourceId(tag))
	}

	va := &varAlloc{}
	x := va.fresh()
	lhs, err := c.compileLeftConcept(sub, x, va)
	if err != nil {
		return err
	}

	rhs, extraLHS, err := c.compileRightConcept(sup, x, va)
	if err != nil {
		return err
	}
	lhs = append(lhs, extraLHS...)

	c.network.CompileProduction(lhs, nil, rhs)
	return nil
}

// compileLeftConcept returns the LHS patterns that bind x to an
// individual satisfying concept, introducing fresh variables via va as
// needed (NF2 conjunction, NF4 existential-on-left).
func (c *Compiler) compileLeftConcept(concept *dlir.Concept, x int, va *varAlloc) ([]rete.Pattern, error) {
	switch concept.Kind {
	case dlir.CTop:
		// owl:Thing matches every known individual (spec I3): ground this
		// in the universal membership triple rather than leaving x
		// unconstrained, which would give the production zero LHS patterns
		// and so never fire.
		return []rete.Pattern{{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(term.Thing)}}, nil
	case dlir.CAtomic:
		cls := c.terms.InternName(concept.Atomic)
		return []rete.Pattern{{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(cls)}}, nil
	case dlir.CAnd:
		left, err := c.compileLeftConcept(concept.Left, x, va)
		if err != nil {
			return nil, err
		}
		right, err := c.compileLeftConcept(concept.Right, x, va)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	case dlir.CSome:
		role := c.terms.InternName(concept.Role)
		y := va.fresh()
		filler, err := c.compileLeftConcept(concept.Fill, y, va)
		if err != nil {
			return nil, err
		}
		pats := []rete.Pattern{{S: rete.Var(x), P: rete.Const(role), O: rete.Var(y)}}
		return append(pats, filler...), nil
	case dlir.CHasValue:
		role := c.terms.InternName(concept.Role)
		val := c.terms.InternName(concept.Value)
		return []rete.Pattern{{S: rete.Var(x), P: rete.Const(role), O: rete.Const(val)}}, nil
	case dlir.CHasSelf:
		role := c.terms.InternName(concept.Role)
		return []rete.Pattern{{S: rete.Var(x), P: rete.Const(role), O: rete.Var(x)}}, nil
	default:
		return nil, NonRLAxiomWarning{Reason: "concept constructor not supported on the LHS of an inclusion"}
	}
}

// compileRightConcept returns the RHS templates for concept appearing
// on the right of an inclusion, plus any additional LHS patterns needed
// to ground a role variable first (e.g. ∀R.D needs "x R y" on the LHS
// before "y type D" can be asserted).
func (c *Compiler) compileRightConcept(concept *dlir.Concept, x int, va *varAlloc) ([]rete.TripleTemplate, []rete.Pattern, error) {
	switch concept.Kind {
	case dlir.CTop:
		return nil, nil, nil
	case dlir.CAtomic:
		cls := c.terms.InternName(concept.Atomic)
		return []rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(term.ReservedType), O: rete.TConst(cls)}}, nil, nil
	case dlir.COnly:
		role := c.terms.InternName(concept.Role)
		y := va.fresh()
		extraLHS := []rete.Pattern{{S: rete.Var(x), P: rete.Const(role), O: rete.Var(y)}}
		rhs, moreLHS, err := c.compileRightConcept(concept.Fill, y, va)
		if err != nil {
			return nil, nil, err
		}
		return rhs, append(extraLHS, moreLHS...), nil
	case dlir.CHasValue:
		role := c.terms.InternName(concept.Role)
		val := c.terms.InternName(concept.Value)
		return []rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(role), O: rete.TConst(val)}}, nil, nil
	case dlir.CHasSelf:
		role := c.terms.InternName(concept.Role)
		return []rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(role), O: rete.TVar(x)}}, nil, nil
	default:
		return nil, nil, NonRLAxiomWarning{Reason: "concept constructor would require a fresh existential on the RHS of an inclusion, which OWL 2 RL forbids"}
	}
}

func (c *Compiler) compileDisjointClasses(ax dlir.Axiom) error {
	if ax.Sub == nil || ax.Sup == nil || ax.Sub.Kind != dlir.CAtomic || ax.Sup.Kind != dlir.CAtomic {
		return NonRLAxiomWarning{Tag: string(ax.Tag), Reason: "DisjointClasses only supported between atomic classes"}
	}
	cx := c.terms.InternName(ax.Sub.Atomic)
	cy := c.terms.InternName(ax.Sup.Atomic)
	x := 0
	lhs := []rete.Pattern{
		{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(cx)},
		{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(cy)},
	}
	p := c.network.CompileProduction(lhs, nil, nil)
	p.Terminal.Inconsistency = true
	p.Terminal.InconsistencyDetail = "DisjointClasses violated: " + ax.Sub.Atomic + " / " + ax.Sup.Atomic
	return nil
}

// --- RBox ---

func (c *Compiler) compileRoleInclusion(sub, sup string, tag dlir.SourceTag) error {
	r := c.terms.InternName(sub)
	s := c.terms.InternName(sup)
	x, y := 0, 1
	lhs := []rete.Pattern{{S: rete.Var(x), P: rete.Const(r), O: rete.Var(y)}}
	rhs := []rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(s), O: rete.TVar(y)}}
	c.network.CompileProduction(lhs, nil, rhs)
	return nil
}

func (c *Compiler) compileDisjointRoles(ax dlir.Axiom) error {
	r := c.terms.InternName(ax.RoleSub)
	s := c.terms.InternName(ax.RoleSup)
	x, y := 0, 1
	lhs := []rete.Pattern{
		{S: rete.Var(x), P: rete.Const(r), O: rete.Var(y)},
		{S: rete.Var(x), P: rete.Const(s), O: rete.Var(y)},
	}
	p := c.network.CompileProduction(lhs, nil, nil)
	p.Terminal.Inconsistency = true
	p.Terminal.InconsistencyDetail = "DisjointRoles violated: " + ax.RoleSub + " / " + ax.RoleSup
	return nil
}

func (c *Compiler) compileInverse(r1, r2 string, tag dlir.SourceTag) error {
	a := c.terms.InternName(r1)
	b := c.terms.InternName(r2)
	x, y := 0, 1
	lhs := []rete.Pattern{{S: rete.Var(x), P: rete.Const(a), O: rete.Var(y)}}
	rhs := []rete.TripleTemplate{{S: rete.TVar(y), P: rete.TConst(b), O: rete.TVar(x)}}
	c.network.CompileProduction(lhs, nil, rhs)
	return nil
}

func (c *Compiler) compileRoleChain(ax dlir.Axiom) error {
	r1 := c.terms.InternName(ax.RoleLeft1)
	r2 := c.terms.InternName(ax.RoleLeft2)
	s := c.terms.InternName(ax.RoleSup)
	x, y, z := 0, 1, 2
	lhs := []rete.Pattern{
		{S: rete.Var(x), P: rete.Const(r1), O: rete.Var(y)},
		{S: rete.Var(y), P: rete.Const(r2), O: rete.Var(z)},
	}
	rhs := []rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(s), O: rete.TVar(z)}}
	c.network.CompileProduction(lhs, nil, rhs)
	return nil
}

func (c *Compiler) compileFunctional(role string, tag dlir.SourceTag, inverse bool) error {
	r := c.terms.InternName(role)
	x, y, z := 0, 1, 2
	var lhs []rete.Pattern
	var rhs []rete.TripleTemplate
	if !inverse {
		lhs = []rete.Pattern{
			{S: rete.Var(x), P: rete.Const(r), O: rete.Var(y)},
			{S: rete.Var(x), P: rete.Const(r), O: rete.Var(z)},
		}
		rhs = []rete.TripleTemplate{{S: rete.TVar(y), P: rete.TConst(term.ReservedSameAs), O: rete.TVar(z)}}
	} else {
		lhs = []rete.Pattern{
			{S: rete.Var(x), P: rete.Const(r), O: rete.Var(y)},
			{S: rete.Var(z), P: rete.Const(r), O: rete.Var(y)},
		}
		rhs = []rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(term.ReservedSameAs), O: rete.TVar(z)}}
	}
	c.network.CompileProduction(lhs, nil, rhs)
	return nil
}

func (c *Compiler) compileTransitive(role string, tag dlir.SourceTag) error {
	r := c.terms.InternName(role)
	x, y, z := 0, 1, 2
	lhs := []rete.Pattern{
		{S: rete.Var(x), P: rete.Const(r), O: rete.Var(y)},
		{S: rete.Var(y), P: rete.Const(r), O: rete.Var(z)},
	}
	rhs := []rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(r), O: rete.TVar(z)}}
	c.network.CompileProduction(lhs, nil, rhs)
	return nil
}

func (c *Compiler) compileAsymmetric(role string, tag dlir.SourceTag) error {
	r := c.terms.InternName(role)
	x, y := 0, 1
	lhs := []rete.Pattern{
		{S: rete.Var(x), P: rete.Const(r), O: rete.Var(y)},
		{S: rete.Var(y), P: rete.Const(r), O: rete.Var(x)},
	}
	p := c.network.CompileProduction(lhs, nil, nil)
	p.Terminal.Inconsistency = true
	p.Terminal.InconsistencyDetail = "AsymmetricRole violated: " + role
	return nil
}

func (c *Compiler) compileIrreflexive(role string, tag dlir.SourceTag) error {
	r := c.terms.InternName(role)
	x := 0
	lhs := []rete.Pattern{{S: rete.Var(x), P: rete.Const(r), O: rete.Var(x)}}
	p := c.network.CompileProduction(lhs, nil, nil)
	p.Terminal.Inconsistency = true
	p.Terminal.InconsistencyDetail = "IrreflexiveRole violated: " + role
	return nil
}

// compileReflexive implements OWL 2 RL rule prp-refl: every individual
// known to be a Thing also stands in role to itself. No fresh individual
// is created -- the rule only fires for individuals already present.
func (c *Compiler) compileReflexive(role string, tag dlir.SourceTag) error {
	r := c.terms.InternName(role)
	x := 0
	lhs := []rete.Pattern{{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(term.Thing)}}
	rhs := []rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(r), O: rete.TVar(x)}}
	c.network.CompileProduction(lhs, nil, rhs)
	return nil
}

// compileHasKey builds a single n-way-join production covering every key
// property: any two individuals of type C agreeing on every key value
// are declared sameAs (spec §4.3 table, SPEC_FULL.md Axiom Compiler
// detail). x and y may bind the same individual, which derives a
// reflexive sameAs triple.
func (c *Compiler) compileHasKey(ax dlir.Axiom) error {
	if len(ax.KeyRoles) == 0 {
		return CompileError{Tag: string(ax.Tag), Reason: "HasKey with an empty key list"}
	}
	cls := c.terms.InternName(ax.KeyClass)
	va := &varAlloc{}
	x := va.fresh()
	y := va.fresh()
	lhs := []rete.Pattern{
		{S: rete.Var(x), P: rete.Const(term.ReservedType), O: rete.Const(cls)},
		{S: rete.Var(y), P: rete.Const(term.ReservedType), O: rete.Const(cls)},
	}
	for _, role := range ax.KeyRoles {
		r := c.terms.InternName(role)
		k := va.fresh()
		lhs = append(lhs,
			rete.Pattern{S: rete.Var(x), P: rete.Const(r), O: rete.Var(k)},
			rete.Pattern{S: rete.Var(y), P: rete.Const(r), O: rete.Var(k)},
		)
	}
	rhs := []rete.TripleTemplate{{S: rete.TVar(x), P: rete.TConst(term.ReservedSameAs), O: rete.TVar(y)}}
	c.network.CompileProduction(lhs, nil, rhs)
	return nil
}

// --- SWRL ---

// compileSwrlRule translates a rule's body atoms into LHS patterns and
// builtin calls, and its head atoms into RHS templates, per spec §4.3's
// "SWRL | direct translation of atoms to patterns; builtins become
// builtin nodes."
func (c *Compiler) compileSwrlRule(ax dlir.Axiom) error {
	names := map[string]int{}
	va := &varAlloc{}
	localVar := func(name string) int {
		if v, ok := names[name]; ok {
			return v
		}
		v := va.fresh()
		names[name] = v
		return v
	}

	var lhs []rete.Pattern
	var builtins []rete.BuiltinCall
	for _, atom := range ax.Body {
		switch {
		case atom.Builtin != "":
			call := rete.BuiltinCall{Name: stripBuiltinPrefix(atom.Builtin), BindsVar: -1}
			for _, a := range atom.Args {
				call.Args = append(call.Args, c.swrlArg(a, localVar))
			}
			builtins = append(builtins, call)
		case atom.Class != "":
			cls := c.terms.InternName(atom.Class)
			v := localVar(atom.Args[0].Name)
			lhs = append(lhs, rete.Pattern{S: rete.Var(v), P: rete.Const(term.ReservedType), O: rete.Const(cls)})
		case atom.Role != "":
			r := c.terms.InternName(atom.Role)
			lhs = append(lhs, rete.Pattern{
				S: c.swrlSlot(atom.Args[0], localVar),
				P: rete.Const(r),
				O: c.swrlSlot(atom.Args[1], localVar),
			})
		default:
			return CompileError{Tag: string(ax.Tag), Reason: "SWRL body atom with neither Class, Role, nor Builtin set"}
		}
	}

	var rhs []rete.TripleTemplate
	for _, atom := range ax.Head {
		switch {
		case atom.Class != "":
			cls := c.terms.InternName(atom.Class)
			v := localVar(atom.Args[0].Name)
			rhs = append(rhs, rete.TripleTemplate{S: rete.TVar(v), P: rete.TConst(term.ReservedType), O: rete.TConst(cls)})
		case atom.Role != "":
			r := c.terms.InternName(atom.Role)
			rhs = append(rhs, rete.TripleTemplate{
				S: c.swrlTemplateSlot(atom.Args[0], localVar),
				P: rete.TConst(r),
				O: c.swrlTemplateSlot(atom.Args[1], localVar),
			})
		default:
			return CompileError{Tag: string(ax.Tag), Reason: "SWRL head atom with neither Class nor Role set"}
		}
	}

	c.network.CompileProduction(lhs, builtins, rhs)
	return nil
}

func stripBuiltinPrefix(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == ':' {
			return name[i+1:]
		}
	}
	return name
}

func (c *Compiler) swrlSlot(t dlir.Term, localVar func(string) int) rete.Slot {
	if t.IsVar {
		return rete.Var(localVar(t.Name))
	}
	return rete.Const(c.internTerm(dlir.Term{Name: t.Name, Literal: t.Literal, Datatype: t.Datatype}))
}

func (c *Compiler) swrlTemplateSlot(t dlir.Term, localVar func(string) int) rete.TemplateSlot {
	if t.IsVar {
		return rete.TVar(localVar(t.Name))
	}
	return rete.TConst(c.internTerm(dlir.Term{Name: t.Name, Literal: t.Literal, Datatype: t.Datatype}))
}

func (c *Compiler) swrlArg(t dlir.Term, localVar func(string) int) rete.BuiltinArg {
	if t.IsVar {
		return rete.BuiltinArg{IsVar: true, Var: localVar(t.Name)}
	}
	return rete.BuiltinArg{Const: c.internTerm(dlir.Term{Name: t.Name, Literal: t.Literal, Datatype: t.Datatype})}
}
