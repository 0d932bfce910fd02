package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/trajectly/trajectly/internal/verdict"
)

// Report is the persisted, external-facing shape of one run's
// outcome: everything a CI consumer or the httpapi needs without
// re-running the pipeline. It is deliberately flatter than
// verdict.Verdict, since a report is read by humans and other tools,
// not fed back into the engine.
type Report struct {
	SpecName             string               `json:"spec_name"`
	TraceID              string               `json:"trace_id"`
	TRTStatus            verdict.Status       `json:"trt_status"`
	WitnessIndex         int                  `json:"witness_index,omitempty"`
	PrimaryViolation     *verdict.Violation   `json:"primary_violation,omitempty"`
	Violations           []verdict.Violation  `json:"violations"`
	AllViolationsAtIndex []verdict.Violation  `json:"all_violations_at_witness,omitempty"`
	CounterexamplePaths  *CounterexamplePaths `json:"counterexample_paths,omitempty"`
	ReproCommand         string               `json:"repro_command"`
	Metadata             ReportMetadata       `json:"metadata"`
}

// CounterexamplePaths names the on-disk artifacts a FAIL verdict
// produced, so a consumer can fetch the exact prefix that reproduces
// the failure without recomputing the witness index itself.
type CounterexamplePaths struct {
	Prefix string `json:"prefix"`
}

// ReportMetadata carries the bookkeeping fields that don't belong in
// the violation set itself: whether refinement was vacuously
// satisfied (an empty baseline skeleton trivially refines), the
// normalizer version the trace was built under, and the spec's
// content hash for drift detection between runs.
type ReportMetadata struct {
	RefinementSkeletonVacuous bool   `json:"refinement_skeleton_vacuous"`
	NormalizerVersion         string `json:"normalizer_version"`
	PolicyHash                string `json:"policy_hash"`
}

// BuildReport assembles a Report from a resolved verdict.
// counterexampleKey is the counterexample prefix artifact key, empty
// when the run passed.
func BuildReport(specName, traceID, reproCommand, normalizerVersion string, v verdict.Verdict, vacuous bool, policyHash string, counterexampleKey string) *Report {
	r := &Report{
		SpecName:     specName,
		TraceID:      traceID,
		TRTStatus:    v.Status,
		WitnessIndex: v.WitnessIndex,
		Violations:   v.Violations,
		ReproCommand: reproCommand,
		Metadata: ReportMetadata{
			RefinementSkeletonVacuous: vacuous,
			NormalizerVersion:         normalizerVersion,
			PolicyHash:                policyHash,
		},
	}
	if v.Status == verdict.StatusFail {
		r.PrimaryViolation = v.Witness
		r.AllViolationsAtIndex = v.ViolationsAtWitness()
		if counterexampleKey != "" {
			r.CounterexamplePaths = &CounterexamplePaths{Prefix: counterexampleKey}
		}
	}
	return r
}

// JSON returns r's canonical persisted form.
func (r *Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("orchestrator: marshal report: %w", err)
	}
	return data, nil
}

// Markdown renders r as a short human-readable summary, the shape
// written to latest.md alongside the JSON report.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n\n", r.SpecName, strings.ToUpper(string(r.TRTStatus)))
	fmt.Fprintf(&b, "trace: %s\n\n", r.TraceID)
	if r.TRTStatus == verdict.StatusPass {
		b.WriteString("No violations.\n")
		return b.String()
	}
	if r.PrimaryViolation != nil {
		fmt.Fprintf(&b, "primary: [%s] %s at event %d\n\n%s\n\n",
			r.PrimaryViolation.Class, r.PrimaryViolation.Code, r.PrimaryViolation.EventIndex, r.PrimaryViolation.Message)
	}
	if len(r.AllViolationsAtIndex) > 1 {
		b.WriteString("also at witness:\n")
		for _, v := range r.AllViolationsAtIndex {
			if r.PrimaryViolation != nil && v.Code == r.PrimaryViolation.Code && v.Class == r.PrimaryViolation.Class {
				continue
			}
			fmt.Fprintf(&b, "- [%s] %s: %s\n", v.Class, v.Code, v.Message)
		}
	}
	if r.CounterexamplePaths != nil {
		fmt.Fprintf(&b, "\nrepro: %s\n", r.ReproCommand)
	}
	return b.String()
}
