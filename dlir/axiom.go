// Package dlir defines the abstract axiom IR (spec §6.1) and the query IR
// (spec §6.2) -- the only input shapes the reasoning core accepts.
// Surface syntax parsing (DL, SWRL, REQL, source-code extractors) is an
// external collaborator per spec §1; it only needs to know how to build
// these trees.
package dlir

// ConceptKind tags the recursive concept expression variants of spec
// §6.1. Modelled as a tagged sum (Kind + flat fields) rather than an
// interface hierarchy, per the spec's "dynamic dispatch -> tagged
// variants" design note (§9): no vtables, exhaustive switch in the
// compiler.
type ConceptKind uint8

const (
	CAtomic ConceptKind = iota
	CTop
	CBottom
	CAnd
	COr
	CNot
	CSome   // ∃R.C
	COnly   // ∀R.C
	CHasValue
	CHasSelf
	CMinCard
	CMaxCard
	CExactCard
	COneOf
)

// Concept is a recursive concept expression. Only the fields relevant to
// Kind are populated; Role/Left/Right/Card are zero-value otherwise.
type Concept struct {
	Kind ConceptKind

	Atomic string // CAtomic: concept name

	Left  *Concept // CAnd, COr, CNot (uses Left only)
	Right *Concept // CAnd, COr

	Role string // CSome, COnly, CHasValue, CHasSelf, CMinCard, CMaxCard, CExactCard
	Fill *Concept // CSome, COnly: the filler concept
	Value string  // CHasValue: the individual name

	Card int // CMinCard, CMaxCard, CExactCard

	Individuals []string // COneOf
}

// AxiomKind tags the top-level axiom variants of spec §6.1.
type AxiomKind uint8

const (
	ClassAssertion AxiomKind = iota
	RoleAssertion
	DataAssertion
	SubClassOf
	EquivClasses
	DisjointClasses
	SubRole
	EquivRoles
	DisjointRoles
	InverseRoles
	RoleChain
	FunctionalRole
	InverseFunctionalRole
	TransitiveRole
	SymmetricRole
	AsymmetricRole
	ReflexiveRole
	IrreflexiveRole
	SameAs
	DifferentFrom
	HasKey
	DatatypeDefinition
	SwrlRule
)

// SourceTag is the opaque retraction label every axiom optionally
// carries (spec §6.1).
type SourceTag string

// Atom is one conjunct of a SWRL rule body or head: a class atom
// (Class(Var)), a role atom (Role(Var,Var)), a data atom
// (Property(Var,Literal)), or a builtin call.
type Atom struct {
	Class   string // class atoms
	Role    string // role/data atoms
	Builtin string // builtin atoms, e.g. "swrlb:greaterThanOrEqual"
	Args    []Term // variables / constants the atom applies to
}

// Term is a SWRL-rule term: either a variable (by name) or a ground
// constant (name or literal lexical form, resolved by the compiler).
type Term struct {
	IsVar    bool
	Name     string // variable name, or named-term IRI
	Literal  string // literal lexical form, set when IsVar is false
	Datatype string // literal's datatype IRI, paired with Literal
}

func Var(name string) Term  { return Term{IsVar: true, Name: name} }
func Named(name string) Term { return Term{Name: name} }
func Lit(lexical, datatype string) Term { return Term{Literal: lexical, Datatype: datatype} }

// Axiom is a single entry in the axiom IR stream the compiler consumes.
type Axiom struct {
	Kind AxiomKind
	Tag  SourceTag

	// ClassAssertion, DataAssertion
	Individual string
	Class      *Concept // ClassAssertion
	Property   string   // DataAssertion, RoleAssertion
	Value      Term     // DataAssertion

	// RoleAssertion, SameAs, DifferentFrom, FunctionalRole, ... (binary)
	Subject string
	Object  string

	// SubClassOf, EquivClasses, DisjointClasses
	Sub *Concept
	Sup *Concept

	// SubRole, EquivRoles, DisjointRoles, InverseRoles
	RoleSub string
	RoleSup string

	// RoleChain: RoleLeft1 ∘ RoleLeft2 ⊑ RoleSup
	RoleLeft1 string
	RoleLeft2 string

	// HasKey
	KeyClass string
	KeyRoles []string

	// DatatypeDefinition
	DatatypeName string

	// SwrlRule
	Body []Atom
	Head []Atom
}
