package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Recorder is an append-only JSONL fixture writer, one entry per LLM
// or tool call observed during recording. A single recorder is used
// by a single writer for the lifetime of one run, matching the
// contract's single-writer-during-record concurrency model.
type Recorder struct {
	mu        sync.Mutex
	file      *os.File
	llmIndex  int
	toolIndex int
}

// Create opens path for appending, creating parent directories and
// the file itself if absent. An existing file is truncated: a
// recording run always starts a fresh bundle.
func Create(path string) (*Recorder, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("fixture: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("fixture: open %s: %w", path, err)
	}
	return &Recorder{file: f}, nil
}

// RecordLLM appends an LLM entry, assigning it the next LLM emission
// index.
func (r *Recorder) RecordLLM(signature string, value any, normalizerVersion string) error {
	return r.record(KindLLM, signature, value, normalizerVersion)
}

// RecordTool appends a tool entry, assigning it the next tool
// emission index.
func (r *Recorder) RecordTool(signature string, value any, normalizerVersion string) error {
	return r.record(KindTool, signature, value, normalizerVersion)
}

func (r *Recorder) record(kind Kind, signature string, value any, normalizerVersion string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("fixture: marshal %s value: %w", kind, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var index int
	switch kind {
	case KindLLM:
		r.llmIndex++
		index = r.llmIndex
	case KindTool:
		r.toolIndex++
		index = r.toolIndex
	}

	entry := Entry{
		Kind:              kind,
		Signature:         signature,
		Index:             index,
		Value:             raw,
		NormalizerVersion: normalizerVersion,
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("fixture: marshal entry: %w", err)
	}
	line = append(line, '\n')
	if _, err := r.file.Write(line); err != nil {
		return fmt.Errorf("fixture: write entry: %w", err)
	}
	return r.file.Sync()
}

// Close flushes and closes the underlying file.
func (r *Recorder) Close() error {
	return r.file.Close()
}
