package fact

import "github.com/nodeadmin/owlrl-reasoner/term"

// Triple is a single (subject, predicate, object) fact. Class assertions
// are encoded as (individual, term.ReservedType, Class) per spec §3.
type Triple struct {
	S, P, O term.Id
}

// TripleId is a dense id assigned to a triple the first time it is
// asserted or derived, used to reference it compactly inside
// justification lists.
type TripleId uint64

// SourceId is an opaque label attached to asserted triples for bulk
// retraction (spec §3, §4.2). Source tags are supplied by the caller, not
// interned by the Term Store -- they are metadata about provenance, not
// ontology vocabulary.
type SourceId string

// Justification is the ordered list of triple ids whose conjunction, under
// one production firing, derived a triple.
type Justification []TripleId

// Derivation is the provenance record the spec requires every stored
// triple to carry (spec §3 Invariants I1).
type Derivation struct {
	IsAsserted     bool
	SourceTags     map[SourceId]struct{}
	Justifications []Justification
}

func newDerivation() Derivation {
	return Derivation{SourceTags: make(map[SourceId]struct{})}
}

// factEntry is the value stored at a triple's key in every one of the
// five index permutations; all five trees point at the same *factEntry,
// so a derivation update made in place on the entry is seen through
// every index without touching the trees.
type factEntry struct {
	id      TripleId
	triple  Triple
	der     Derivation
	birth   uint64
	death   uint64 // 0 means "still alive"
}

func (e *factEntry) alive() bool { return e.death == 0 }

func (e *factEntry) visibleAt(epoch uint64) bool {
	if e.birth > epoch {
		return false
	}
	return e.death == 0 || e.death > epoch
}

// AssertResult reports the outcome of Store.Assert.
type AssertResult struct {
	Added bool
	Delta []Triple
}

// DeriveResult reports the outcome of Store.Derive.
type DeriveResult struct {
	Added bool
	Delta []Triple
}

// RetractReport summarises a Store.RetractSource call.
type RetractReport struct {
	// TagKnown is false when the tag was never seen; per spec §7
	// RetractionUnknownTag is a no-op, not an error.
	TagKnown bool
	// Demoted lists triples that lost the last source tag referencing
	// them but survive on justifications alone.
	Demoted []Triple
	// Removed lists triples that had neither assertions nor
	// justifications left and were torn down, paired with the id they
	// held before tombstoning (a caller can no longer resolve it via
	// TripleID once the triple is gone from the indices).
	Removed []RemovedFact
}

// RemovedFact pairs a torn-down triple with the TripleId it held, for the
// Inference Driver to enqueue a -delta against the RETE network (spec
// §4.5 step 3).
type RemovedFact struct {
	ID     TripleId
	Triple Triple
}
