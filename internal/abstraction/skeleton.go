// Package abstraction implements α, the pure mapping from a
// normalized trajectory to a token stream, a call skeleton, and a set
// of derived predicates.
package abstraction

import "github.com/trajectly/trajectly/internal/event"

// SkeletonEntry is one tool_called event surfaced in a skeleton: its
// tool name and the seq of the event it came from.
type SkeletonEntry struct {
	Name       string
	EventIndex int
}

// Skeleton is the ordered list of tool names extracted from
// tool_called events, after removing any name in ignore.
type Skeleton []SkeletonEntry

// Extract builds the Skeleton for a normalized trace, dropping any
// tool_called event whose tool_name is in ignore. Names are read from
// each event's redacted payload view, the same one Compute reads, so
// the skeleton never carries content redaction was meant to strip.
func Extract(trace []event.Normalized, ignore []string) Skeleton {
	ignored := toSet(ignore)
	skel := make(Skeleton, 0, len(trace))
	for _, ev := range trace {
		if ev.Kind != event.KindToolCall {
			continue
		}
		name, _ := redactedView(ev)["tool_name"].(string)
		if ignored[name] {
			continue
		}
		skel = append(skel, SkeletonEntry{Name: name, EventIndex: ev.Seq})
	}
	return skel
}

// Names returns the skeleton's tool names, in order.
func (s Skeleton) Names() []string {
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = e.Name
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}
