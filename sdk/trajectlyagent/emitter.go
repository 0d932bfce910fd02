package trajectlyagent

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/trajectly/trajectly/internal/event"
)

// Emitter writes canonical trajectory event lines to an output stream
// (stdout, for a subprocess the orchestrator is capturing), assigning
// each event the next sequence number and its elapsed time since the
// emitter was created.
type Emitter struct {
	mu      sync.Mutex
	w       *json.Encoder
	runID   string
	start   time.Time
	nextSeq int
}

// NewEmitter builds an Emitter that writes to os.Stdout. Trajectory
// event lines and sideband violation lines share stdout: the
// orchestrator's decoder tells them apart by which marker key each
// line carries.
func NewEmitter(runID string) *Emitter {
	return &Emitter{
		w:       json.NewEncoder(os.Stdout),
		runID:   runID,
		start:   time.Now(),
		nextSeq: 1,
	}
}

// Emit writes one trajectory event line for eventType with payload,
// returning the 1-based sequence number it was assigned so a caller
// can anchor a later sideband violation at this event's index.
func (e *Emitter) Emit(eventType event.Type, payload map[string]any) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seq := e.nextSeq
	e.nextSeq++

	line := map[string]any{
		"schema_version": event.SchemaVersion,
		"event_type":     string(eventType),
		"seq":            seq,
		"run_id":         e.runID,
		"rel_ms":         float64(time.Since(e.start).Microseconds()) / 1000,
		"payload":        payload,
	}
	if err := e.w.Encode(line); err != nil {
		return 0, fmt.Errorf("trajectlyagent: emit %s event: %w", eventType, err)
	}
	return seq, nil
}

// EmitViolation writes a sideband violation line, the wire shape
// internal/orchestrator's decodeTrajectory recognizes by its
// trajectly_violation marker key and folds into the run's verdict.
// eventIndex anchors the violation at the trajectory event (usually
// the tool_called/llm_called line just emitted) whose lookup failed.
func (e *Emitter) EmitViolation(class, code string, eventIndex int, message, hint, detail string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	line := map[string]any{
		"trajectly_violation": code,
		"class":               class,
		"code":                code,
		"event_index":         eventIndex,
		"message":             message,
		"hint":                hint,
		"detail":              detail,
	}
	if err := e.w.Encode(line); err != nil {
		return fmt.Errorf("trajectlyagent: emit sideband violation: %w", err)
	}
	return nil
}
