package event

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseLine decodes one JSONL line into a raw, order-preserving-numbers
// map. Numbers are kept as json.Number so canonical re-encoding can
// choose the shortest round-tripping representation itself instead of
// inheriting float64's lossy default formatting.
func ParseLine(line []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &ShapeError{Field: "$", Reason: "not a JSON object", Value: err.Error()}
	}
	if dec.More() {
		return nil, &ShapeError{Field: "$", Reason: "trailing data after JSON object"}
	}
	return raw, nil
}

// FromRaw validates and constructs a typed Event from a decoded JSON
// object as produced by ParseLine.
func FromRaw(raw map[string]any) (Event, error) {
	var ev Event

	schemaVersion, ok := raw["schema_version"]
	if !ok {
		ev.SchemaVersion = SchemaVersion
	} else {
		s, ok := schemaVersion.(string)
		if !ok {
			return ev, &ShapeError{Field: "schema_version", Reason: "must be a string", Value: schemaVersion}
		}
		if s != SchemaVersion {
			return ev, &SchemaError{Got: s}
		}
		ev.SchemaVersion = s
	}

	rawType, ok := raw["event_type"]
	if !ok {
		return ev, &ShapeError{Field: "event_type", Reason: "required"}
	}
	typeStr, ok := rawType.(string)
	if !ok {
		return ev, &ShapeError{Field: "event_type", Reason: "must be a string", Value: rawType}
	}
	ev.EventType = Type(typeStr)
	if !ev.EventType.valid() {
		return ev, &ShapeError{Field: "event_type", Reason: "unknown event type", Value: typeStr}
	}

	seq, err := requireInt(raw, "seq")
	if err != nil {
		return ev, err
	}
	if seq <= 0 {
		return ev, &ShapeError{Field: "seq", Reason: "must be positive", Value: seq}
	}
	ev.Seq = seq

	runID, ok := raw["run_id"]
	if !ok {
		return ev, &ShapeError{Field: "run_id", Reason: "required"}
	}
	runIDStr, ok := runID.(string)
	if !ok || runIDStr == "" {
		return ev, &ShapeError{Field: "run_id", Reason: "must be a non-empty string", Value: runID}
	}
	ev.RunID = runIDStr

	if relMS, ok := raw["rel_ms"]; ok {
		f, err := asFloat(relMS)
		if err != nil {
			return ev, &ShapeError{Field: "rel_ms", Reason: "must be a number", Value: relMS}
		}
		ev.RelMS = f
	}

	payload, ok := raw["payload"]
	if !ok {
		return ev, &ShapeError{Field: "payload", Reason: "required"}
	}
	payloadMap, ok := payload.(map[string]any)
	if !ok {
		return ev, &ShapeError{Field: "payload", Reason: "must be an object", Value: payload}
	}
	ev.Payload = payloadMap

	if meta, ok := raw["meta"]; ok {
		metaMap, ok := meta.(map[string]any)
		if !ok {
			return ev, &ShapeError{Field: "meta", Reason: "must be an object", Value: meta}
		}
		ev.Meta = metaMap
	}

	if err := validatePayload(ev.EventType, ev.Payload); err != nil {
		return ev, err
	}

	return ev, nil
}

// validatePayload enforces the minimum required fields per event type.
func validatePayload(t Type, p map[string]any) error {
	require := func(field string) error {
		if _, ok := p[field]; !ok {
			return &ShapeError{Field: fmt.Sprintf("payload.%s", field), Reason: "required for event_type=" + string(t)}
		}
		return nil
	}

	switch t {
	case TypeRunStarted:
		return require("spec_name")
	case TypeAgentStep:
		return require("name")
	case TypeLLMCalled:
		if err := require("provider"); err != nil {
			return err
		}
		if err := require("model"); err != nil {
			return err
		}
		_, hasMessages := p["messages"]
		_, hasPrompt := p["prompt"]
		if !hasMessages && !hasPrompt {
			return &ShapeError{Field: "payload.messages", Reason: "one of messages or prompt is required for event_type=llm_called"}
		}
		return nil
	case TypeLLMReturned:
		if err := require("provider"); err != nil {
			return err
		}
		if err := require("model"); err != nil {
			return err
		}
		return require("output")
	case TypeToolCalled:
		if err := require("tool_name"); err != nil {
			return err
		}
		return require("input")
	case TypeToolReturned:
		if err := require("tool_name"); err != nil {
			return err
		}
		return require("output")
	case TypeRunFinished:
		status, ok := p["status"]
		if !ok {
			return &ShapeError{Field: "payload.status", Reason: "required for event_type=run_finished"}
		}
		s, ok := status.(string)
		if !ok || (s != "ok" && s != "error") {
			return &ShapeError{Field: "payload.status", Reason: "must be one of ok, error", Value: status}
		}
		return nil
	default:
		return &ShapeError{Field: "event_type", Reason: "unknown event type", Value: t}
	}
}

func requireInt(raw map[string]any, field string) (int, error) {
	v, ok := raw[field]
	if !ok {
		return 0, &ShapeError{Field: field, Reason: "required"}
	}
	num, ok := v.(json.Number)
	if !ok {
		return 0, &ShapeError{Field: field, Reason: "must be an integer", Value: v}
	}
	i, err := num.Int64()
	if err != nil {
		return 0, &ShapeError{Field: field, Reason: "must be an integer", Value: v}
	}
	return int(i), nil
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
