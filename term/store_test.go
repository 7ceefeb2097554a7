package term

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternNameDeterministic(t *testing.T) {
	s := New()
	a := s.InternName("http://example.org/Person")
	b := s.InternName("http://example.org/Person")
	require.Equal(t, a, b)

	c := s.InternName("http://example.org/Animal")
	require.NotEqual(t, a, c)
}

func TestInternLiteralCanonicalizesDecimals(t *testing.T) {
	s := New()
	a := s.InternLiteral("1.0", XSDDecimal)
	b := s.InternLiteral("1.00", XSDDecimal)
	require.Equal(t, a, b)
	require.True(t, IsLiteral(a))
}

func TestInternLiteralDifferentDatatypesDoNotCollide(t *testing.T) {
	s := New()
	a := s.InternLiteral("1", XSDInteger)
	b := s.InternLiteral("1", XSDString)
	require.NotEqual(t, a, b)
}

func TestUnknownDatatypeIsOpaque(t *testing.T) {
	s := New()
	id := s.InternLiteral("whatever", DatatypeFromIRI("http://example.org/weirdType"))
	term, ok := s.Lookup(id)
	require.True(t, ok)
	require.Equal(t, Opaque, term.Literal.Datatype)
}

func TestCmpLiteralNumericAcrossTags(t *testing.T) {
	s := New()
	a := s.InternLiteral("2", XSDInteger)
	b := s.InternLiteral("2.0", XSDDouble)
	require.Equal(t, Equal, s.CmpLiteral(a, b))
}

func TestCmpLiteralIncomparableAcrossCategories(t *testing.T) {
	s := New()
	a := s.InternLiteral("2", XSDInteger)
	b := s.InternLiteral("hello", XSDString)
	require.Equal(t, Incomparable, s.CmpLiteral(a, b))
}

func TestCmpLiteralStrings(t *testing.T) {
	s := New()
	a := s.InternLiteral("apple", XSDString)
	b := s.InternLiteral("banana", XSDString)
	require.Equal(t, Less, s.CmpLiteral(a, b))
}

func TestPackUnpackKeyRoundTrips(t *testing.T) {
	k := PackKey(7, 9, 11)
	a, b, c := UnpackKey(k)
	require.Equal(t, Id(7), a)
	require.Equal(t, Id(9), b)
	require.Equal(t, Id(11), c)
}

func TestReservedTermsPreloaded(t *testing.T) {
	s := New()
	thing, ok := s.Lookup(Thing)
	require.True(t, ok)
	require.Equal(t, "owl:Thing", thing.Name)
}
