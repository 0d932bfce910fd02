package event

// DeriveKind maps an event's Type and Payload onto its coarse Kind.
// tool_returned and run_finished can additionally resolve to ERROR
// depending on payload content, since the wire format does not carry a
// separate error event type.
func DeriveKind(t Type, payload map[string]any) Kind {
	switch t {
	case TypeRunStarted:
		return KindObservation
	case TypeAgentStep:
		return KindMessage
	case TypeLLMCalled:
		return KindLLMRequest
	case TypeLLMReturned:
		return KindLLMResponse
	case TypeToolCalled:
		return KindToolCall
	case TypeToolReturned:
		if payloadHasError(payload) {
			return KindError
		}
		return KindToolResult
	case TypeRunFinished:
		if status, _ := payload["status"].(string); status == "error" {
			return KindError
		}
		return KindObservation
	default:
		return KindObservation
	}
}

func payloadHasError(payload map[string]any) bool {
	v, ok := payload["error"]
	if !ok {
		return false
	}
	switch e := v.(type) {
	case nil:
		return false
	case string:
		return e != ""
	case bool:
		return e
	default:
		return true
	}
}
