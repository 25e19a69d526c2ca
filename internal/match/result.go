package match

import "slatelink/internal/tabular"

// Method records how a row was matched.
type Method string

const (
	MethodExact Method = "exact"
	MethodFuzzy Method = "fuzzy"
)

// Outcome classifies a match attempt.
type Outcome int

const (
	// OutcomeUnmatched means no row satisfied the matching policy.
	OutcomeUnmatched Outcome = iota
	// OutcomeMatched means exactly one row was selected.
	OutcomeMatched
	// OutcomeAmbiguous means multiple rows matched exactly. Never silently
	// resolved; it blocks export.
	OutcomeAmbiguous
)

// Result describes the outcome of matching one image identity against a
// table. It is consumed immediately by resolution and never persisted.
type Result struct {
	Outcome    Outcome
	JoinKey    string
	RowIndex   int // valid when Matched
	Row        tabular.Row
	Confidence float64 // in [0,1]; 1.0 for exact matches
	Method     Method
	Reason     string // populated when Unmatched
	Candidates []int  // 0-based row indexes when Ambiguous
}
