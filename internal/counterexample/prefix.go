// Package counterexample persists the failing prefix of a candidate
// trajectory and shrinks it, dropping events from anywhere in the
// trace (not only the end), to a smaller trace that still fails with
// the same failure class and primary code.
package counterexample

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/trajectly/trajectly/internal/event"
)

// Prefix returns the candidate events with Seq <= witnessIndex, in
// their original order. It never mutates trace.
func Prefix(trace []event.Normalized, witnessIndex int) []event.Normalized {
	var out []event.Normalized
	for _, ev := range trace {
		if ev.Seq <= witnessIndex {
			out = append(out, ev)
		}
	}
	return out
}

// WritePrefix writes trace to path as JSONL in the wire schema, one
// event per line, creating parent directories as needed.
func WritePrefix(path string, trace []event.Normalized) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("counterexample: create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("counterexample: create file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, ev := range trace {
		line, err := toWireLine(ev)
		if err != nil {
			return fmt.Errorf("counterexample: encode event seq=%d: %w", ev.Seq, err)
		}
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("counterexample: write event seq=%d: %w", ev.Seq, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("counterexample: write event seq=%d: %w", ev.Seq, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("counterexample: flush: %w", err)
	}
	return f.Sync()
}

// toWireLine re-serializes a Normalized event back to the raw wire
// object it was parsed from, so a prefix file round-trips through
// event.ParseLine/FromRaw the same way a recorded trajectory does.
func toWireLine(ev event.Normalized) ([]byte, error) {
	raw := map[string]any{
		"schema_version": ev.SchemaVersion,
		"event_type":     string(ev.EventType),
		"seq":            ev.Seq,
		"run_id":         ev.RunID,
		"rel_ms":         ev.RelMS,
		"payload":        ev.Payload,
	}
	if ev.Meta != nil {
		raw["meta"] = ev.Meta
	}
	return json.Marshal(raw)
}

// LoadPrefix reads a prefix file written by WritePrefix back into
// typed, normalized events.
func LoadPrefix(path string, redact []*regexp.Regexp) ([]event.Normalized, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("counterexample: open file: %w", err)
	}
	defer f.Close()

	var out []event.Normalized
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		raw, err := event.ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("counterexample: parse line: %w", err)
		}
		ev, err := event.FromRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("counterexample: decode event: %w", err)
		}
		norm, err := event.Normalize(ev, redact)
		if err != nil {
			return nil, fmt.Errorf("counterexample: normalize event: %w", err)
		}
		out = append(out, norm)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("counterexample: scan file: %w", err)
	}
	return out, nil
}
