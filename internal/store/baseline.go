package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/trajectly/trajectly/internal/event"
)

// Baseline is the recorded trace/fixture pair a spec's replays are
// compared against: the normalized trace itself (for refinement),
// the fixture bundle path (for offline replay), and the normalizer
// version the trace was recorded under.
type Baseline struct {
	SpecName          string            `json:"spec_name"`
	Trace             []event.Normalized `json:"trace"`
	FixturePath       string            `json:"fixture_path"`
	NormalizerVersion string            `json:"normalizer_version"`
}

// BaselineStore resolves and persists a spec's recorded baseline.
// Resolve/Write/List match the engine's dependency-narrow interface;
// the default implementation stores one JSON file per spec name under
// <root>/baselines and copies fixture bundles under <root>/fixtures.
type BaselineStore struct {
	layout *Layout
}

func NewBaselineStore(layout *Layout) *BaselineStore {
	return &BaselineStore{layout: layout}
}

func (s *BaselineStore) baselinePath(specName string) string {
	return filepath.Join(s.layout.dir("baselines"), specName+".json")
}

func (s *BaselineStore) fixturePath(specName string) string {
	return filepath.Join(s.layout.dir("fixtures"), specName+".jsonl")
}

// Resolve loads the recorded baseline for specName.
func (s *BaselineStore) Resolve(specName string) (*Baseline, error) {
	if err := validateName("spec", specName); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.baselinePath(specName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("store: baseline %q: %w", specName, ErrNotFound)
		}
		return nil, fmt.Errorf("store: read baseline %q: %w", specName, err)
	}
	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("store: decode baseline %q: %w", specName, err)
	}
	return &b, nil
}

// Write atomically replaces specName's baseline record and, if
// fixtureSrcPath is non-empty, copies that fixture bundle into the
// store's fixtures/ directory as the baseline's fixture bundle.
func (s *BaselineStore) Write(specName string, trace []event.Normalized, fixtureSrcPath string, normalizerVersion string) error {
	if err := validateName("spec", specName); err != nil {
		return err
	}

	b := Baseline{
		SpecName:          specName,
		Trace:             trace,
		NormalizerVersion: normalizerVersion,
	}
	if fixtureSrcPath != "" {
		dest := s.fixturePath(specName)
		if err := writeAtomicFile(dest, fixtureSrcPath); err != nil {
			return fmt.Errorf("store: copy fixture bundle for %q: %w", specName, err)
		}
		b.FixturePath = dest
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode baseline %q: %w", specName, err)
	}
	return writeAtomic(s.baselinePath(specName), data)
}

// List returns the names of every spec with a recorded baseline, in
// sorted order.
func (s *BaselineStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.layout.dir("baselines"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: list baselines: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
