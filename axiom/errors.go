package axiom

import "fmt"

// NonRLAxiomWarning records an axiom the compiler refused because it
// would require a fresh existential generator or another non-RL
// construct (spec §4.3, §7). It is not a fatal error: the offending
// axiom is simply dropped and the caller is told why.
type NonRLAxiomWarning struct {
	Tag    string
	Reason string
}

func (w NonRLAxiomWarning) Error() string {
	return fmt.Sprintf("axiom %q rejected: not expressible in OWL 2 RL: %s", w.Tag, w.Reason)
}

// CompileError is a structural error in an axiom IR node -- malformed,
// not merely non-RL (e.g. HasKey with an empty key list). Surfaced to
// the caller per spec §7 ("The Axiom Compiler and Query Engine raise
// structured errors to the caller for malformed input").
type CompileError struct {
	Tag    string
	Reason string
}

func (e CompileError) Error() string {
	return fmt.Sprintf("axiom %q malformed: %s", e.Tag, e.Reason)
}
