package fixture

import (
	"fmt"

	"github.com/trajectly/trajectly/internal/specconfig"
	"github.com/trajectly/trajectly/internal/verdict"
)

// CodeFixtureExhausted and CodeNormalizerVersionMismatch are the two
// TOOLING-class failure codes the fixture store can raise.
const (
	CodeFixtureExhausted          = "FIXTURE_EXHAUSTED"
	CodeNormalizerVersionMismatch = "NORMALIZER_VERSION_MISMATCH"
)

// ExhaustedError reports that no recorded entry matched a request
// during replay.
type ExhaustedError struct {
	Kind      Kind
	Signature string
	Mode      specconfig.MatchMode
}

func (e ExhaustedError) Error() string {
	return fmt.Sprintf("fixture: exhausted for %s call (mode=%s, signature=%s)", e.Kind, e.Mode, e.Signature)
}

// NormalizerMismatchError reports that a matched entry's recorded
// normalizer version disagrees with the current build's.
type NormalizerMismatchError struct {
	Kind     Kind
	Recorded string
	Current  string
}

func (e NormalizerMismatchError) Error() string {
	return fmt.Sprintf("fixture: normalizer version mismatch for %s call (recorded=%s, current=%s)", e.Kind, e.Recorded, e.Current)
}

// Violation translates a lookup failure into the TOOLING violation the
// orchestrator attaches to the replay's verdict, anchored at the event
// index of the request that triggered the lookup.
func Violation(err error, eventIndex int, requestCanon string) (verdict.Violation, bool) {
	switch e := err.(type) {
	case ExhaustedError:
		return verdict.Violation{
			Class:      verdict.ClassTooling,
			Code:       CodeFixtureExhausted,
			EventIndex: eventIndex,
			Message:    e.Error(),
			Detail:     fmt.Sprintf("kind=%s request_canon=%s", e.Kind, requestCanon),
		}, true
	case NormalizerMismatchError:
		return verdict.Violation{
			Class:      verdict.ClassTooling,
			Code:       CodeNormalizerVersionMismatch,
			EventIndex: eventIndex,
			Message:    e.Error(),
			Detail:     fmt.Sprintf("recorded_version=%s current_version=%s", e.Recorded, e.Current),
		}, true
	default:
		return verdict.Violation{}, false
	}
}
