package specconfig

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/trajectly/trajectly/internal/denylist"
)

// Resolved wraps a Spec with the pieces the core needs precompiled:
// redact patterns, a loaded denylist, and a stable hash over the
// spec's contract-relevant fields, used as the verdict metadata's
// policy_hash.
type Resolved struct {
	*Spec
	RedactRegexps []*regexp.Regexp
	Denylist      *denylist.Denylist
	PolicyHash    string
}

// Resolve compiles s's redact patterns, loads its denylist when
// contracts.denylist.enabled opts in, and computes its policy hash.
func Resolve(s *Spec) (*Resolved, error) {
	regexps := make([]*regexp.Regexp, 0, len(s.Redact))
	for _, p := range s.Redact {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("specconfig: invalid redact entry %q: %w", p, err)
		}
		regexps = append(regexps, re)
	}

	var dl *denylist.Denylist
	if s.Contracts.Denylist.Enabled {
		var err error
		dl, err = denylist.Load(s.Contracts.Denylist.Path)
		if err != nil {
			return nil, fmt.Errorf("specconfig: loading denylist: %w", err)
		}
	}

	return &Resolved{
		Spec:          s,
		RedactRegexps: regexps,
		Denylist:      dl,
		PolicyHash:    policyHash(s),
	}, nil
}

// policyHash hashes every field that affects contract or refinement
// evaluation, so a report consumer can compare two runs' policy_hash
// without re-diffing the whole spec file.
func policyHash(s *Spec) string {
	h := sha256.New()
	fmt.Fprintf(h, "refinement=%+v\n", s.Refinement)
	fmt.Fprintf(h, "contracts.tools=%+v\n", s.Contracts.Tools)
	fmt.Fprintf(h, "contracts.sequence=%+v\n", s.Contracts.Sequence)
	fmt.Fprintf(h, "contracts.side_effects=%+v\n", s.Contracts.SideEffects)
	fmt.Fprintf(h, "contracts.network=%+v\n", s.Contracts.Network)
	fmt.Fprintf(h, "contracts.data_leak=%+v\n", s.Contracts.DataLeak)
	fmt.Fprintf(h, "contracts.args=%+v\n", s.Contracts.Args)
	fmt.Fprintf(h, "contracts.denylist=%+v\n", s.Contracts.Denylist)
	fmt.Fprintf(h, "budget_thresholds=%+v\n", s.BudgetThresholds)
	fmt.Fprintf(h, "fixture_policy=%s\n", s.FixturePolicy)
	fmt.Fprintf(h, "replay=%+v\n", s.Replay)
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}
