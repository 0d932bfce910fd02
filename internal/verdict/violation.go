// Package verdict resolves the union of refinement and contract
// violations produced by a run into a single deterministic verdict and
// witness.
package verdict

// Class is the failure taxonomy a violation belongs to. Ordering
// matters: it is the primary tie-break key when two violations share
// a witness index.
type Class string

const (
	ClassRefinement Class = "REFINEMENT"
	ClassContract   Class = "CONTRACT"
	ClassTooling    Class = "TOOLING"
)

// classRank gives REFINEMENT < CONTRACT < TOOLING precedence when
// resolving a tie at the same witness index.
var classRank = map[Class]int{
	ClassRefinement: 0,
	ClassContract:   1,
	ClassTooling:    2,
}

// Violation is one failure observed at (or anchored to) a specific
// event in the candidate trace. EventIndex is the event's 1-based
// seq, not a slice position.
type Violation struct {
	Class      Class
	Code       string
	EventIndex int
	Message    string
	Hint       string
	Detail     string
}
