// Package event implements the canonical trajectory event model: the
// envelope shape, kind derivation, volatile-field stripping and the
// deterministic hashing that every other Trajectly component builds on.
//
// This package is a dependency-free island by design: it must stay pure
// and total so that two independent processes hashing the same event
// always agree, so it imports nothing beyond the standard library.
package event

import "fmt"

// SchemaVersion is the only wire schema version this build understands.
const SchemaVersion = "v1"

// Type enumerates the seven canonical event types a trajectory JSONL
// file may contain.
type Type string

const (
	TypeRunStarted   Type = "run_started"
	TypeAgentStep    Type = "agent_step"
	TypeLLMCalled    Type = "llm_called"
	TypeLLMReturned  Type = "llm_returned"
	TypeToolCalled   Type = "tool_called"
	TypeToolReturned Type = "tool_returned"
	TypeRunFinished  Type = "run_finished"
)

func (t Type) valid() bool {
	switch t {
	case TypeRunStarted, TypeAgentStep, TypeLLMCalled, TypeLLMReturned,
		TypeToolCalled, TypeToolReturned, TypeRunFinished:
		return true
	default:
		return false
	}
}

// Kind is the coarse classification used by the abstraction and
// contract layers; several event Types can map onto ERROR depending on
// their payload.
type Kind string

const (
	KindToolCall    Kind = "TOOL_CALL"
	KindToolResult  Kind = "TOOL_RESULT"
	KindLLMRequest  Kind = "LLM_REQUEST"
	KindLLMResponse Kind = "LLM_RESPONSE"
	KindMessage     Kind = "MESSAGE"
	KindObservation Kind = "OBSERVATION"
	KindError       Kind = "ERROR"
)

// Event is the decoded, typed form of one line of a trajectory JSONL
// file. Payload and Meta retain their original decoded
// shape (map[string]any / []any / string / json.Number / bool / nil) so
// that canonicalization can re-encode them deterministically without
// losing precision.
type Event struct {
	SchemaVersion string
	EventType     Type
	Seq           int
	RunID         string
	RelMS         float64
	Payload       map[string]any
	Meta          map[string]any
}

// Normalized is an Event augmented with its derived Kind and the
// stable hash computed over its volatile-stripped, redacted canonical
// form. EventID and StableHash both hold that same hash, which does not
// cover RunID or RelMS; StableHash is the name cross-run trajectory
// comparison reads. RedactedPayload is the same
// volatile-stripped, redacted view of Payload that feeds the hash,
// exposed so that predicate extraction and contract scanning of
// outbound strings see redacted content rather than Payload's raw form.
type Normalized struct {
	Event
	Kind            Kind
	EventID         string
	StableHash      string
	RedactedPayload map[string]any
}

// ShapeError reports a malformed event envelope or payload
// (INVALID_EVENT_SHAPE). SchemaError reports an unsupported
// schema_version (SCHEMA_VERSION_UNSUPPORTED).
type ShapeError struct {
	Field  string
	Reason string
	Value  any
}

func (e *ShapeError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("invalid event shape: field=%s reason=%s value=%v", e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("invalid event shape: field=%s reason=%s", e.Field, e.Reason)
}

type SchemaError struct {
	Got string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema version unsupported: got=%q want=%q", e.Got, SchemaVersion)
}
