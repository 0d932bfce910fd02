// Package certify holds the built-in end-to-end regression suite for
// the trajectory refinement engine itself: concrete baseline/candidate
// pairs that pin down the contract monitor's and refinement checker's
// pass/fail boundaries, run through the real evaluation pipeline in
// internal/scenario.
package certify

import (
	"github.com/trajectly/trajectly/internal/scenario"
	"github.com/trajectly/trajectly/internal/specconfig"
	"github.com/trajectly/trajectly/internal/verdict"
)

// Suite returns the built-in regression cases.
func Suite() []scenario.Case {
	return []scenario.Case{
		toolDeniedWithNewNameForbidden(),
		requiredBeforeViolated(),
		extraAllowedToolPasses(),
		extraDisallowedToolFails(),
	}
}

// toolDeniedWithNewNameForbidden pins a call that is both denied by
// the tool policy and absent from the baseline: the contract monitor
// flags CONTRACT_TOOL_DENIED, but refinement's name check wins the
// primary tie-break since REFINEMENT outranks CONTRACT at a shared
// witness index. The baseline is a strict prefix of the candidate so
// the embedding leaves nothing missing, isolating this tie-break from
// the separate missing-baseline-call anchoring question.
func toolDeniedWithNewNameForbidden() scenario.Case {
	return scenario.Case{
		Name:      "tool_denied_with_new_name_forbidden",
		Baseline:  []scenario.Step{{Tool: "fetch_ticket"}},
		Candidate: []scenario.Step{{Tool: "fetch_ticket"}, {Tool: "unsafe_export"}},
		Spec: specconfig.Spec{
			Contracts: specconfig.ContractsConfig{
				Tools: specconfig.ToolsConfig{
					Allow: []string{"fetch_ticket"},
					Deny:  []string{"unsafe_export"},
				},
			},
			Refinement: specconfig.RefinementConfig{
				Mode:              specconfig.RefinementSkeleton,
				AllowNewToolNames: false,
			},
		},
		ExpectStatus:      verdict.StatusFail,
		ExpectPrimary:     "REFINEMENT_NEW_TOOL_NAME_FORBIDDEN",
		ExpectWitnessTool: "unsafe_export",
	}
}

// requiredBeforeViolated pins a require_before precedence pair whose
// "before" tool is skipped entirely.
func requiredBeforeViolated() scenario.Case {
	return scenario.Case{
		Name:      "required_before_violated",
		Baseline:  []scenario.Step{{Tool: "fetch_pr"}, {Tool: "lint_code"}, {Tool: "post_review"}},
		Candidate: []scenario.Step{{Tool: "fetch_pr"}, {Tool: "post_review"}},
		Spec: specconfig.Spec{
			Contracts: specconfig.ContractsConfig{
				Sequence: specconfig.SequenceConfig{
					RequireBefore: []specconfig.PrecedencePair{
						{Before: "lint_code", After: "post_review"},
					},
				},
			},
			Refinement: specconfig.RefinementConfig{Mode: specconfig.RefinementNone},
		},
		ExpectStatus:      verdict.StatusFail,
		ExpectPrimary:     "SEQUENCE_REQUIRE_BEFORE",
		ExpectWitnessTool: "post_review",
	}
}

// extraAllowedToolPasses pins a call absent from the baseline but
// present on allow_extra_tools: skeleton refinement tolerates it.
func extraAllowedToolPasses() scenario.Case {
	return scenario.Case{
		Name:      "extra_allowed_tool_passes",
		Baseline:  []scenario.Step{{Tool: "fetch_ticket"}, {Tool: "store_triage"}},
		Candidate: []scenario.Step{{Tool: "fetch_ticket"}, {Tool: "log_event"}, {Tool: "store_triage"}},
		Spec: specconfig.Spec{
			Refinement: specconfig.RefinementConfig{
				Mode:            specconfig.RefinementSkeleton,
				AllowExtraTools: []string{"log_event"},
			},
		},
		ExpectStatus: verdict.StatusPass,
	}
}

// extraDisallowedToolFails pins the same shape without an allowlist
// entry. AllowNewToolNames is set true here specifically to isolate
// the extra-call check from the new-tool-name check documented as an
// open decision in the design ledger; both checks would otherwise fire
// on the same event.
func extraDisallowedToolFails() scenario.Case {
	return scenario.Case{
		Name:      "extra_disallowed_tool_fails",
		Baseline:  []scenario.Step{{Tool: "fetch_ticket"}, {Tool: "store_triage"}},
		Candidate: []scenario.Step{{Tool: "fetch_ticket"}, {Tool: "log_event"}, {Tool: "store_triage"}},
		Spec: specconfig.Spec{
			Refinement: specconfig.RefinementConfig{
				Mode:              specconfig.RefinementSkeleton,
				AllowNewToolNames: true,
			},
		},
		ExpectStatus:      verdict.StatusFail,
		ExpectPrimary:     "REFINEMENT_EXTRA_TOOL_CALL",
		ExpectWitnessTool: "log_event",
	}
}
