package certify

import (
	"fmt"
	"reflect"

	"github.com/trajectly/trajectly/internal/scenario"
)

// Report holds the outcome of running the whole built-in suite,
// including the determinism check run alongside it.
type Report struct {
	Cases       []scenario.Result
	Determinism scenario.Result
}

// Passed reports whether every case in the report, including the
// determinism check, passed.
func (r Report) Passed() bool {
	if !r.Determinism.Passed {
		return false
	}
	for _, c := range r.Cases {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Run evaluates the built-in suite and the determinism check, and
// returns their combined results.
func Run() (Report, error) {
	var report Report

	for _, c := range Suite() {
		r, err := scenario.Run(c)
		if err != nil {
			return Report{}, fmt.Errorf("certify: case %s: %w", c.Name, err)
		}
		report.Cases = append(report.Cases, r)
	}

	det, err := runDeterminism()
	if err != nil {
		return Report{}, err
	}
	report.Determinism = det

	return report, nil
}

// runDeterminism re-runs the first suite case twice and asserts the
// two resolved verdicts are field-for-field identical, covering the
// determinism-of-verdict invariant the rest of the suite does not
// exercise directly.
func runDeterminism() (scenario.Result, error) {
	c := toolDeniedWithNewNameForbidden()

	first, err := scenario.Run(c)
	if err != nil {
		return scenario.Result{}, fmt.Errorf("certify: determinism first run: %w", err)
	}
	second, err := scenario.Run(c)
	if err != nil {
		return scenario.Result{}, fmt.Errorf("certify: determinism second run: %w", err)
	}

	name := "determinism_of_verdict"
	if !reflect.DeepEqual(first.Verdict, second.Verdict) {
		return scenario.Result{
			Name:   name,
			Passed: false,
			Reason: "two runs of the same case produced different verdicts",
		}, nil
	}

	return scenario.Result{Name: name, Passed: true, Verdict: first.Verdict}, nil
}
