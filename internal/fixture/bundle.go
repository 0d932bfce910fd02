package fixture

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// Bundle is the full set of recorded entries loaded into memory for
// replay, in the emission order they were written.
type Bundle struct {
	Entries []Entry
}

// Load reads a fixture bundle written by a Recorder.
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: open %s: %w", path, err)
	}
	defer f.Close()

	var b Bundle
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("fixture: parse entry: %w", err)
		}
		b.Entries = append(b.Entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", path, err)
	}
	return &b, nil
}

// byKind returns the entries of the given kind, in emission order.
func (b *Bundle) byKind(kind Kind) []Entry {
	out := make([]Entry, 0, len(b.Entries))
	for _, e := range b.Entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
