package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/trajectly/trajectly/internal/contract"
	"github.com/trajectly/trajectly/internal/counterexample"
	"github.com/trajectly/trajectly/internal/event"
	"github.com/trajectly/trajectly/internal/refinement"
	"github.com/trajectly/trajectly/internal/specconfig"
	"github.com/trajectly/trajectly/internal/store"
	"github.com/trajectly/trajectly/internal/verdict"
)

// RunOptions configures a Run call.
type RunOptions struct {
	Timeout       time.Duration
	Attempts      uint
	ShrinkBudget  counterexample.Budget
	DisableShrink bool
}

// RunResult is what a caller (the CLI, an httpapi trigger) needs after
// a run: the resolved verdict, the persisted report, and the exit
// code the process should return.
type RunResult struct {
	Verdict  verdict.Verdict
	Report   *Report
	ExitCode int
}

// Run resolves spec's baseline, replays the agent against it with the
// fixture store in read mode and the replay guard active, and drives
// the refinement and contract pipeline over the captured trajectory.
// It persists the verdict's report and, on FAIL, a shrunk
// counterexample prefix, and returns the process exit code the spec's
// evaluation earned.
func (o *Orchestrator) Run(ctx context.Context, spec *specconfig.Resolved, opts RunOptions) (*RunResult, error) {
	traceID := newTraceID()
	logger := o.Logger.With(zap.String("spec", spec.Name), zap.String("trace_id", traceID), zap.String("mode", ModeReplay))
	o.Metrics.RunsTotal.WithLabelValues(spec.Name, ModeReplay).Inc()

	start := time.Now()
	defer func() { o.Metrics.RunDuration.WithLabelValues(spec.Name).Observe(time.Since(start).Seconds()) }()

	var v verdict.Verdict
	var vacuous bool
	var candidate, baselineTrace []event.Normalized

	baseline, err := o.Baselines.Resolve(spec.Name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		v = toolingVerdict(&ToolingError{
			Code:    CodeBaselineMissing,
			Message: fmt.Sprintf("no recorded baseline for spec %q; run record first", spec.Name),
		})
	case err != nil:
		return nil, fmt.Errorf("orchestrator: resolve baseline: %w", err)
	case baseline.NormalizerVersion != NormalizerVersion:
		v = toolingVerdict(&ToolingError{
			Code: CodeNormalizerMismatch,
			Message: fmt.Sprintf("baseline for %q was recorded under normalizer %s, this build uses %s",
				spec.Name, baseline.NormalizerVersion, NormalizerVersion),
		})
	default:
		baselineTrace = baseline.Trace
		var sideband []verdict.Violation
		candidate, sideband, err = spawnAndCapture(ctx, logger, spec, spawnConfig{
			mode:              ModeReplay,
			runID:             traceID,
			specName:          spec.Name,
			fixturePath:       baseline.FixturePath,
			replay:            spec.Replay,
			allowDomains:      spec.Contracts.Network.AllowDomains,
			normalizerVersion: NormalizerVersion,
			timeout:           opts.Timeout,
			attempts:          firstNonZero(opts.Attempts, 1),
		})
		if err != nil {
			logger.Error("replay subprocess failed", zap.Error(err))
			v = toolingVerdict(toToolingError(err))
		} else {
			var violations []verdict.Violation
			violations, vacuous = o.evaluate(baselineTrace, candidate, spec)
			violations = append(violations, sideband...)
			v = verdict.Resolve(violations)
		}
	}

	if v.Witness != nil && v.Witness.Class == verdict.ClassTooling {
		logger.Warn("tooling error", zap.String("code", v.PrimaryCode), zap.String("message", v.Witness.Message))
	}

	var counterexampleKey string
	if v.Status == verdict.StatusFail && !opts.DisableShrink && len(candidate) > 0 {
		counterexampleKey, err = o.persistCounterexample(spec, baselineTrace, candidate, v, opts.ShrinkBudget)
		if err != nil {
			logger.Warn("persist counterexample", zap.Error(err))
		}
	}

	reproCommand := fmt.Sprintf("trajectly run %s.spec.yaml", spec.Name)
	report := BuildReport(spec.Name, traceID, reproCommand, NormalizerVersion, v, vacuous, spec.PolicyHash, counterexampleKey)

	if err := o.persistReport(spec.Name, report); err != nil {
		logger.Error("persist report", zap.Error(err))
	}

	if err := o.appendAudit(traceID, spec, string(v.Status), v.PrimaryCode, v.WitnessIndex); err != nil {
		logger.Warn("append audit entry", zap.Error(err))
	}

	class := ""
	if v.Witness != nil {
		class = string(v.Witness.Class)
	}
	o.Metrics.VerdictsTotal.WithLabelValues(spec.Name, string(v.Status), class).Inc()

	exit := ExitPass
	switch {
	case v.Witness != nil && v.Witness.Class == verdict.ClassTooling:
		exit = ExitTooling
	case v.Status == verdict.StatusFail:
		exit = ExitFail
	}
	logger.Info("run complete", zap.String("status", string(v.Status)), zap.String("primary_code", v.PrimaryCode))

	return &RunResult{Verdict: v, Report: report, ExitCode: exit}, nil
}

// evaluate runs the refinement check and contract monitor over the
// candidate trace and returns their combined violation set.
func (o *Orchestrator) evaluate(baseline, candidate []event.Normalized, spec *specconfig.Resolved) ([]verdict.Violation, bool) {
	refResult := refinement.Check(baseline, candidate, spec.Refinement)
	monitor := contract.New(spec)
	contractViolations := monitor.Evaluate(candidate)

	all := make([]verdict.Violation, 0, len(refResult.Violations)+len(contractViolations))
	all = append(all, refResult.Violations...)
	all = append(all, contractViolations...)
	return all, refResult.Vacuous
}

// toolingVerdict wraps a ToolingError as a single-violation FAIL
// verdict, so a run that never reached a candidate trace still
// produces the same report/audit shape as an ordinary refinement or
// contract failure.
func toolingVerdict(te *ToolingError) verdict.Verdict {
	v := verdict.Verdict{
		Status: verdict.StatusFail,
		Violations: []verdict.Violation{{
			Class:   verdict.ClassTooling,
			Code:    te.Code,
			Message: te.Message,
		}},
		PrimaryCode: te.Code,
	}
	v.Witness = &v.Violations[0]
	return v
}

// persistCounterexample shrinks the candidate trace's failing prefix
// down to a minimal reproduction and writes it to the repros
// directory, returning the artifact key BuildReport should cite.
func (o *Orchestrator) persistCounterexample(spec *specconfig.Resolved, baseline, candidate []event.Normalized, v verdict.Verdict, budget counterexample.Budget) (string, error) {
	prefix := counterexample.Prefix(candidate, v.WitnessIndex)

	reverify := func(trace []event.Normalized) verdict.Verdict {
		violations, _ := o.evaluate(baseline, trace, spec)
		return verdict.Resolve(violations)
	}
	result := counterexample.Shrink(prefix, v.Witness.Class, v.PrimaryCode, reverify, budget)

	reproPath := filepath.Join(o.Layout.Dir("repros"), spec.Name+".counterexample.prefix.jsonl")
	if err := counterexample.WritePrefix(reproPath, result.Trace); err != nil {
		return "", fmt.Errorf("orchestrator: write counterexample prefix: %w", err)
	}

	key := fmt.Sprintf("repros/%s.counterexample.prefix.jsonl", spec.Name)
	if err := o.Artifacts.PutFile(key, reproPath); err != nil {
		return "", fmt.Errorf("orchestrator: persist counterexample artifact: %w", err)
	}
	return key, nil
}

func (o *Orchestrator) persistReport(specName string, report *Report) error {
	data, err := report.JSON()
	if err != nil {
		return err
	}
	if err := o.Artifacts.PutBytes(fmt.Sprintf("reports/%s.json", specName), data); err != nil {
		return err
	}
	if err := o.Artifacts.PutBytes("reports/latest.json", data); err != nil {
		return err
	}
	return o.Artifacts.PutBytes("reports/latest.md", []byte(report.Markdown()))
}
