package query

import "github.com/nodeadmin/owlrl-reasoner/term"

// Row is one solution binding, keyed by variable name. Missing keys mean
// the variable was never bound in that row (e.g. a UNION branch that
// doesn't mention it), not that it is bound to some zero value.
type Row map[string]term.Id

// Table is the snapshot result of select()/ask()/describe() and friends
// (spec §6.3): a column list plus the rows, in whatever order the query
// plan produced them after DISTINCT/ORDER BY/OFFSET/LIMIT have been
// applied. Triple-shaped results (DESCRIBE, role_assertions,
// instances_of) use the fixed column names "s", "p", "o".
type Table struct {
	Vars []string
	Rows []Row
}

// Len reports the row count.
func (t Table) Len() int { return len(t.Rows) }
