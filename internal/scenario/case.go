package scenario

import (
	"fmt"

	"github.com/trajectly/trajectly/internal/contract"
	"github.com/trajectly/trajectly/internal/refinement"
	"github.com/trajectly/trajectly/internal/specconfig"
	"github.com/trajectly/trajectly/internal/verdict"
)

// witnessRunFinished, used as ExpectWitnessTool, asserts the witness is
// anchored at the trailing run_finished event rather than at a
// particular tool call.
const witnessRunFinished = "\x00run_finished"

// WitnessAtRunFinished is the ExpectWitnessTool value asserting the
// resolved verdict's witness is anchored at the candidate's trailing
// run_finished event.
const WitnessAtRunFinished = witnessRunFinished

// Case is one end-to-end engine scenario: a baseline/candidate step
// pair evaluated against an inline spec, with the expected verdict
// outcome.
type Case struct {
	Name string

	Spec      specconfig.Spec
	Baseline  []Step
	Candidate []Step

	ExpectStatus verdict.Status
	// ExpectPrimary, when set, asserts the resolved verdict's primary
	// code. Ignored when ExpectStatus is StatusPass.
	ExpectPrimary string
	// ExpectWitnessTool, when set, asserts the witness event index
	// equals the seq of the candidate's tool_called event for this
	// tool name, or use WitnessAtRunFinished to anchor at run_finished.
	ExpectWitnessTool string
}

// Result is the outcome of evaluating one Case.
type Result struct {
	Name    string
	Passed  bool
	Verdict verdict.Verdict
	// Reason explains a failed match; empty when Passed is true.
	Reason string
}

// Run evaluates one case: it builds both trajectories, resolves the
// spec, runs refinement then the contract monitor over the candidate,
// folds the result through the verdict resolver, and checks the
// outcome against the case's expectations.
func Run(c Case) (Result, error) {
	baseline, err := BuildTrace(c.Name+"-baseline", c.Baseline)
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: build baseline: %w", c.Name, err)
	}
	candidate, err := BuildTrace(c.Name+"-candidate", c.Candidate)
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: build candidate: %w", c.Name, err)
	}

	spec := c.Spec
	resolved, err := specconfig.Resolve(&spec)
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: resolve spec: %w", c.Name, err)
	}

	var violations []verdict.Violation
	violations = append(violations, refinement.Check(baseline, candidate, resolved.Refinement).Violations...)
	violations = append(violations, contract.New(resolved).Evaluate(candidate)...)

	v := verdict.Resolve(violations)
	passed, reason := c.matches(v)

	return Result{Name: c.Name, Passed: passed, Verdict: v, Reason: reason}, nil
}

func (c Case) matches(v verdict.Verdict) (bool, string) {
	if v.Status != c.ExpectStatus {
		return false, fmt.Sprintf("status = %s, want %s (primary %s)", v.Status, c.ExpectStatus, v.PrimaryCode)
	}
	if c.ExpectStatus == verdict.StatusPass {
		return true, ""
	}
	if c.ExpectPrimary != "" && v.PrimaryCode != c.ExpectPrimary {
		return false, fmt.Sprintf("primary code = %s, want %s", v.PrimaryCode, c.ExpectPrimary)
	}
	if c.ExpectWitnessTool != "" {
		want, ok := c.witnessSeq()
		if ok && v.WitnessIndex != want {
			return false, fmt.Sprintf("witness index = %d, want %d", v.WitnessIndex, want)
		}
	}
	return true, ""
}

func (c Case) witnessSeq() (int, bool) {
	if c.ExpectWitnessTool == witnessRunFinished {
		return runFinishedSeq(len(c.Candidate)), true
	}
	return toolCallSeq(c.Candidate, c.ExpectWitnessTool)
}
