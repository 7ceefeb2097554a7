package fact

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/owlrl-reasoner/term"
)

func TestAssertIdempotentMergesSourceTags(t *testing.T) {
	ts := term.New()
	s := New(nil, nil)

	john := ts.InternName("john")
	typ := term.ReservedType
	person := ts.InternName("Person")
	tr := Triple{S: john, P: typ, O: person}

	r1 := s.Assert(tr, "file1.dl")
	require.True(t, r1.Added)

	r2 := s.Assert(tr, "file2.dl")
	require.False(t, r2.Added)

	h := s.Snapshot()
	der, ok := h.Derivation(tr)
	require.True(t, ok)
	require.Len(t, der.SourceTags, 2)
}

func TestDeriveDuplicateAppendsJustificationNoDelta(t *testing.T) {
	ts := term.New()
	s := New(nil, nil)

	a := ts.InternName("a")
	p := ts.InternName("p")
	b := ts.InternName("b")
	tr := Triple{S: a, P: p, O: b}

	r1 := s.Derive(tr, Justification{1})
	require.True(t, r1.Added)

	r2 := s.Derive(tr, Justification{2})
	require.False(t, r2.Added)
	require.Empty(t, r2.Delta)

	h := s.Snapshot()
	der, _ := h.Derivation(tr)
	require.Len(t, der.Justifications, 2)
}

func TestSnapshotIsolation(t *testing.T) {
	ts := term.New()
	s := New(nil, nil)

	a := ts.InternName("a")
	p := ts.InternName("p")
	b := ts.InternName("b")
	tr := Triple{S: a, P: p, O: b}

	before := s.Snapshot()
	s.Assert(tr, "tag")
	after := s.Snapshot()

	rowsBefore := before.Select(&a, nil, nil, false)
	require.Empty(t, rowsBefore)

	rowsAfter := after.Select(&a, nil, nil, false)
	require.Len(t, rowsAfter, 1)
}

func TestSelectByEachBoundCombination(t *testing.T) {
	ts := term.New()
	s := New(nil, nil)

	a := ts.InternName("a")
	p := ts.InternName("knows")
	b := ts.InternName("b")
	s.Assert(Triple{S: a, P: p, O: b}, "t")

	h := s.Snapshot()
	require.Len(t, h.Select(&a, nil, nil, false), 1)
	require.Len(t, h.Select(nil, &p, nil, false), 1)
	require.Len(t, h.Select(nil, nil, &b, false), 1)
	require.Len(t, h.Select(&a, &p, nil, false), 1)
	require.Len(t, h.Select(nil, &p, &b, false), 1)
	require.Len(t, h.Select(&a, nil, &b, false), 1)
	require.Len(t, h.Select(&a, &p, &b, false), 1)
	require.Len(t, h.Select(nil, nil, nil, false), 1)
}

func TestRetractSourceRemovesUnjustifiedTriple(t *testing.T) {
	ts := term.New()
	s := New(nil, nil)

	a := ts.InternName("a")
	p := ts.InternName("p")
	b := ts.InternName("b")
	tr := Triple{S: a, P: p, O: b}

	s.Assert(tr, "tag1")
	report := s.RetractSource("tag1")
	require.True(t, report.TagKnown)
	require.Len(t, report.Removed, 1)

	h := s.Snapshot()
	require.Empty(t, h.Select(&a, &p, &b, false))
}

func TestRetractSourceDemotesWhenJustified(t *testing.T) {
	ts := term.New()
	s := New(nil, nil)

	a := ts.InternName("a")
	p := ts.InternName("p")
	b := ts.InternName("b")
	tr := Triple{S: a, P: p, O: b}

	s.Assert(tr, "tag1")
	s.Derive(tr, Justification{42})

	report := s.RetractSource("tag1")
	require.Len(t, report.Demoted, 1)
	require.True(t, s.IsAlive(tr))
}

func TestRetractUnknownTagIsNoOp(t *testing.T) {
	s := New(nil, nil)
	report := s.RetractSource("never-seen")
	require.False(t, report.TagKnown)
	require.Empty(t, report.Removed)
}

func TestSameAsCanonicalizesTriples(t *testing.T) {
	ts := term.New()
	s := New(nil, nil)

	a := ts.InternName("a")
	b := ts.InternName("b")
	hasFather := ts.InternName("hasFather")
	father := ts.InternName("father")

	s.Assert(Triple{S: a, P: hasFather, O: father}, "t1")
	s.Assert(Triple{S: b, P: hasFather, O: father}, "t2")

	// a sameAs b: canonical representative is whichever id is smaller.
	s.Derive(Triple{S: a, P: term.ReservedSameAs, O: b}, Justification{1})

	canon := a
	if b < a {
		canon = b
	}

	h := s.Snapshot()
	rows := h.Select(nil, &hasFather, &father, false)
	// Both original triples should have collapsed onto the canonical
	// subject, leaving one row instead of two.
	require.Len(t, rows, 1)
	require.Equal(t, canon, rows[0].S)
}
