package abstraction

import (
	"fmt"

	"github.com/trajectly/trajectly/internal/event"
)

// Token is one event reduced to its abstracted label: CALL(name),
// RESULT(name), LLM_REQUEST(model), LLM_RESPONSE(model), or the bare
// kind name for events that carry no identifying name.
type Token struct {
	EventIndex int
	Label      string
}

// Tokens builds the per-event token stream for a normalized trace.
func Tokens(trace []event.Normalized) []Token {
	out := make([]Token, len(trace))
	for i, ev := range trace {
		out[i] = Token{EventIndex: ev.Seq, Label: tokenLabel(ev)}
	}
	return out
}

func tokenLabel(ev event.Normalized) string {
	switch ev.Kind {
	case event.KindToolCall:
		return fmt.Sprintf("CALL(%s)", stringField(ev.Payload, "tool_name"))
	case event.KindToolResult:
		return fmt.Sprintf("RESULT(%s)", stringField(ev.Payload, "tool_name"))
	case event.KindLLMRequest:
		return fmt.Sprintf("LLM_REQUEST(%s)", stringField(ev.Payload, "model"))
	case event.KindLLMResponse:
		return fmt.Sprintf("LLM_RESPONSE(%s)", stringField(ev.Payload, "model"))
	default:
		return string(ev.Kind)
	}
}

func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}
