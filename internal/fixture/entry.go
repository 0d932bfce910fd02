// Package fixture implements the fixture bundle: the recorded set of
// LLM and tool responses a replay consumes instead of calling live
// providers. Recording appends one entry per call in emission order;
// replay looks up and consumes entries against the live call stream so
// that a replay of the same trajectory returns exactly what recording
// saw.
package fixture

import "encoding/json"

// Kind names which call class an entry belongs to. Emission order
// indices are tracked separately per kind.
type Kind string

const (
	KindLLM  Kind = "LLM"
	KindTool Kind = "TOOL"
)

// Entry is one recorded call: its kind, the signature of the request
// that produced it, its 1-based position in the kind-restricted
// emission order, and the value to replay back.
type Entry struct {
	Kind              Kind            `json:"kind"`
	Signature         string          `json:"signature"`
	Index             int             `json:"index"`
	Value             json.RawMessage `json:"value"`
	NormalizerVersion string          `json:"normalizer_version"`
}
