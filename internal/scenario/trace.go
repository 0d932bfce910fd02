// Package scenario synthesizes baseline/candidate trajectory pairs
// entirely in memory and runs them through the refinement checker, the
// contract monitor, and the verdict resolver — the same pipeline the
// orchestrator drives against persisted traces, minus the filesystem.
package scenario

import (
	"fmt"

	"github.com/trajectly/trajectly/internal/event"
)

// Step describes one tool call to synthesize into a trajectory.
type Step struct {
	Tool   string
	Kwargs map[string]any
}

// BuildTrace synthesizes a normalized trajectory for runID: a
// run_started envelope, a tool_called/tool_returned pair per step in
// order (seq starting at 1), and a run_finished with status "ok".
func BuildTrace(runID string, steps []Step) ([]event.Normalized, error) {
	out := make([]event.Normalized, 0, 2+2*len(steps))
	seq := 1

	push := func(t event.Type, payload map[string]any) error {
		ev := event.Event{
			SchemaVersion: event.SchemaVersion,
			EventType:     t,
			Seq:           seq,
			RunID:         runID,
			Payload:       payload,
		}
		n, err := event.Normalize(ev, nil)
		if err != nil {
			return fmt.Errorf("scenario: normalize %s#%d: %w", t, seq, err)
		}
		out = append(out, n)
		seq++
		return nil
	}

	if err := push(event.TypeRunStarted, map[string]any{"spec_name": runID}); err != nil {
		return nil, err
	}

	for _, s := range steps {
		kwargs := s.Kwargs
		if kwargs == nil {
			kwargs = map[string]any{}
		}
		if err := push(event.TypeToolCalled, map[string]any{
			"tool_name": s.Tool,
			"input":     map[string]any{"args": []any{}, "kwargs": kwargs},
		}); err != nil {
			return nil, err
		}
		if err := push(event.TypeToolReturned, map[string]any{
			"tool_name": s.Tool,
			"output":    map[string]any{},
		}); err != nil {
			return nil, err
		}
	}

	if err := push(event.TypeRunFinished, map[string]any{"status": "ok"}); err != nil {
		return nil, err
	}

	return out, nil
}

// runFinishedSeq returns the seq BuildTrace assigns to the trailing
// run_finished event for a trace synthesized from n steps.
func runFinishedSeq(n int) int {
	return 2*n + 2
}

// toolCallSeq returns the seq BuildTrace assigns to the tool_called
// event for the first step named tool, if any.
func toolCallSeq(steps []Step, tool string) (int, bool) {
	for i, s := range steps {
		if s.Tool == tool {
			return 2 + 2*i, true
		}
	}
	return 0, false
}
