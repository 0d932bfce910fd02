// Package refinement implements the S_b ⊑ S_n refinement relation: is
// the baseline trajectory's abstracted skeleton embeddable, in order,
// inside the candidate's skeleton, under the spec's configured mode.
package refinement

import (
	"fmt"

	"github.com/trajectly/trajectly/internal/abstraction"
	"github.com/trajectly/trajectly/internal/event"
	"github.com/trajectly/trajectly/internal/specconfig"
	"github.com/trajectly/trajectly/internal/verdict"
)

const (
	CodeBaselineCallMissing  = "REFINEMENT_BASELINE_CALL_MISSING"
	CodeExtraToolCall        = "REFINEMENT_EXTRA_TOOL_CALL"
	CodeNewToolNameForbidden = "REFINEMENT_NEW_TOOL_NAME_FORBIDDEN"
)

// Result is the outcome of one Check call. Vacuous records whether
// the baseline skeleton was empty, in which case refinement is
// trivially satisfied and Violations is always empty.
type Result struct {
	Violations []verdict.Violation
	Vacuous    bool
}

// Check decides S_b ⊑ S_n: it computes both skeletons (after
// ignore_call_tools filtering), finds the leftmost greedy embedding of
// the baseline into the candidate, and reports a violation for every
// missing baseline call, disallowed extra call, and forbidden new
// tool name.
func Check(baseline, candidate []event.Normalized, cfg specconfig.RefinementConfig) Result {
	if cfg.Mode == specconfig.RefinementNone {
		return Result{}
	}

	bSkel := abstraction.Extract(baseline, cfg.IgnoreCallTools)
	cSkel := abstraction.Extract(candidate, cfg.IgnoreCallTools)

	if len(bSkel) == 0 {
		return Result{Vacuous: true}
	}

	extraAllowed := toSet(cfg.AllowExtraTools)
	extraSideEffectAllowed := toSet(cfg.AllowExtraSideEffectTools)
	baselineNames := toSet(bSkel.Names())

	matched := make([]int, len(bSkel))
	for i := range matched {
		matched[i] = -1
	}

	var out []verdict.Violation
	cursor := 0
	for i, be := range bSkel {
		found := -1
		for k := cursor; k < len(cSkel); k++ {
			if cSkel[k].Name == be.Name {
				found = k
				break
			}
		}

		if found == -1 {
			out = append(out, verdict.Violation{
				Class:      verdict.ClassRefinement,
				Code:       CodeBaselineCallMissing,
				EventIndex: missingAnchor(cSkel, candidate, cursor),
				Message:    fmt.Sprintf("baseline call %q has no match in the candidate", be.Name),
			})
			continue
		}

		matched[i] = found
		cursor = found + 1
	}

	consumed := make(map[int]bool, len(matched))
	for _, idx := range matched {
		if idx >= 0 {
			consumed[idx] = true
		}
	}

	for k, ce := range cSkel {
		isExtra := !consumed[k]
		isNewName := !baselineNames[ce.Name] && !extraAllowed[ce.Name] && !extraSideEffectAllowed[ce.Name]

		if !cfg.AllowNewToolNames && isNewName {
			out = append(out, verdict.Violation{
				Class:      verdict.ClassRefinement,
				Code:       CodeNewToolNameForbidden,
				EventIndex: ce.EventIndex,
				Message:    fmt.Sprintf("tool name %q does not appear in the baseline and is not allowlisted", ce.Name),
			})
			continue
		}

		if !isExtra {
			continue
		}

		if cfg.Mode == specconfig.RefinementStrict {
			out = append(out, verdict.Violation{
				Class:      verdict.ClassRefinement,
				Code:       CodeExtraToolCall,
				EventIndex: ce.EventIndex,
				Message:    fmt.Sprintf("extra call to %q is not permitted under strict refinement", ce.Name),
			})
			continue
		}

		if extraAllowed[ce.Name] || extraSideEffectAllowed[ce.Name] {
			continue
		}
		out = append(out, verdict.Violation{
			Class:      verdict.ClassRefinement,
			Code:       CodeExtraToolCall,
			EventIndex: ce.EventIndex,
			Message:    fmt.Sprintf("extra call to %q is not on either extra-tools allowlist", ce.Name),
		})
	}

	return Result{Violations: out}
}

// missingAnchor resolves the anchoring rule for
// REFINEMENT_BASELINE_CALL_MISSING: the first S_n position past the
// last matched baseline index, or run_finished if none remain.
func missingAnchor(cSkel abstraction.Skeleton, candidate []event.Normalized, cursor int) int {
	if cursor < len(cSkel) {
		return cSkel[cursor].EventIndex
	}
	for _, ev := range candidate {
		if ev.EventType == event.TypeRunFinished {
			return ev.Seq
		}
	}
	if len(candidate) > 0 {
		return candidate[len(candidate)-1].Seq
	}
	return 0
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}
