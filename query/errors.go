package query

// InvalidQueryError is the structural query error of spec §7
// (InvalidQuery): an ASK query carrying modifiers, a select or DESCRIBE
// variable bound only inside MINUS, or a query handed to the wrong
// entry point (Select vs Ask). Unlike
// an unresolved constant (which spec §7 says must yield an empty result,
// not an error), a structural problem is always surfaced to the caller.
type InvalidQueryError struct {
	Reason string
}

func (e InvalidQueryError) Error() string { return "InvalidQuery: " + e.Reason }
