package fixture

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/trajectly/trajectly/internal/specconfig"
)

// Player is a lookup-plus-consume fixture reader for one replay. A
// single player is used by a single reader for the lifetime of one
// run, matching the contract's single-reader-during-replay
// concurrency model.
type Player struct {
	mu sync.Mutex

	llm          []Entry
	tool         []Entry
	llmConsumed  []bool
	toolConsumed []bool
	nextLLMIndex int
	nextToolIndex int

	normalizerVersion string
	strictSequence    bool
}

// NewPlayer builds a Player over b. normalizerVersion is the current
// build's normalizer version, checked against each entry's recorded
// version before it is returned.
func NewPlayer(b *Bundle, normalizerVersion string, strictSequence bool) *Player {
	llm := b.byKind(KindLLM)
	tool := b.byKind(KindTool)
	return &Player{
		llm:               llm,
		tool:              tool,
		llmConsumed:       make([]bool, len(llm)),
		toolConsumed:      make([]bool, len(tool)),
		nextLLMIndex:      1,
		nextToolIndex:     1,
		normalizerVersion: normalizerVersion,
		strictSequence:    strictSequence,
	}
}

// LookupLLM resolves an LLM call against the bundle and consumes the
// matching entry, if any.
func (p *Player) LookupLLM(mode specconfig.MatchMode, signature string) (json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lookup(p.llm, p.llmConsumed, &p.nextLLMIndex, mode, signature, p.strictSequence, p.normalizerVersion, KindLLM)
}

// LookupTool resolves a tool call against the bundle and consumes the
// matching entry, if any.
func (p *Player) LookupTool(mode specconfig.MatchMode, signature string) (json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return lookup(p.tool, p.toolConsumed, &p.nextToolIndex, mode, signature, p.strictSequence, p.normalizerVersion, KindTool)
}

func lookup(entries []Entry, consumed []bool, nextIndex *int, mode specconfig.MatchMode, signature string, strictSequence bool, normalizerVersion string, kind Kind) (json.RawMessage, error) {
	i, err := selectEntry(entries, consumed, *nextIndex, mode, signature, strictSequence)
	if err != nil {
		return nil, err
	}
	if i < 0 {
		return nil, ExhaustedError{Kind: kind, Signature: signature, Mode: mode}
	}

	e := entries[i]
	if e.NormalizerVersion != "" && normalizerVersion != "" && e.NormalizerVersion != normalizerVersion {
		return nil, NormalizerMismatchError{Kind: kind, Recorded: e.NormalizerVersion, Current: normalizerVersion}
	}

	consumed[i] = true
	*nextIndex++
	return e.Value, nil
}

// selectEntry returns the index of the first unconsumed entry
// matching mode, or -1 if none match. It does not itself distinguish
// a normalizer mismatch from no match; the caller checks the version
// of whatever selectEntry returns.
func selectEntry(entries []Entry, consumed []bool, nextIndex int, mode specconfig.MatchMode, signature string, strictSequence bool) (int, error) {
	switch mode {
	case specconfig.MatchSequence:
		for i := range entries {
			if consumed[i] {
				continue
			}
			return i, nil
		}
		return -1, nil

	case specconfig.MatchSignature, specconfig.MatchArgsSignature:
		for i, e := range entries {
			if consumed[i] || e.Signature != signature {
				continue
			}
			if strictSequence && e.Index != nextIndex {
				continue
			}
			return i, nil
		}
		return -1, nil

	default:
		return -1, fmt.Errorf("fixture: unknown match mode %q", mode)
	}
}
