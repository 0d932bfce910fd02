package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/trajectly/trajectly/internal/audit"
	"github.com/trajectly/trajectly/internal/specconfig"
)

// ToolingError is a run outcome that never reached a verdict: the
// baseline was missing, the CI-write guard fired, the subprocess
// timed out or failed to start. Code is one of the Code* constants in
// this package, or one originated by internal/fixture or
// internal/replayguard.
type ToolingError struct {
	Code    string
	Message string
}

func (e *ToolingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// RecordOptions configures a Record call.
type RecordOptions struct {
	// AllowCIWrite overrides the CI-write guard. It is the Go
	// equivalent of the CLI's --allow-ci-write flag: an explicit,
	// per-invocation opt-in, never a config-file default.
	AllowCIWrite bool
	Timeout      time.Duration
	Attempts     uint
}

// ciWriteBlocked reports whether spec is a baseline write attempted
// under CI without an explicit override. TRAJECTLY_CI mirrors the
// environment variable this project's CLI has always used to guard
// against a flaky agent silently overwriting a trusted baseline
// during a pull request build.
func ciWriteBlocked(opts RecordOptions) bool {
	return os.Getenv("TRAJECTLY_CI") == "1" && !opts.AllowCIWrite
}

// Record executes spec's command with the fixture store in write mode
// and no replay guard, then persists the resulting trace and fixture
// bundle as spec's baseline. It never compares the recording against
// anything: recording defines the baseline, it does not verify one.
func (o *Orchestrator) Record(ctx context.Context, spec *specconfig.Resolved, opts RecordOptions) error {
	if ciWriteBlocked(opts) {
		return &ToolingError{
			Code: CodeCIBaselineWriteDenied,
			Message: "baseline writes are blocked when TRAJECTLY_CI=1; " +
				"pass an explicit allow-ci-write override to update a baseline from CI",
		}
	}

	traceID := newTraceID()
	logger := o.Logger.With(zap.String("spec", spec.Name), zap.String("trace_id", traceID), zap.String("mode", ModeRecord))
	o.Metrics.RunsTotal.WithLabelValues(spec.Name, ModeRecord).Inc()

	start := time.Now()
	defer func() { o.Metrics.RunDuration.WithLabelValues(spec.Name).Observe(time.Since(start).Seconds()) }()

	fixtureTmpPath := filepath.Join(o.Layout.Dir("tmp"), spec.Name+".record.jsonl")
	if err := os.MkdirAll(filepath.Dir(fixtureTmpPath), 0o755); err != nil {
		return fmt.Errorf("orchestrator: prepare fixture staging: %w", err)
	}
	defer os.Remove(fixtureTmpPath)

	trace, _, err := spawnAndCapture(ctx, logger, spec, spawnConfig{
		mode:              ModeRecord,
		runID:             traceID,
		specName:          spec.Name,
		fixturePath:       fixtureTmpPath,
		replay:            specconfig.ReplayConfig{Mode: specconfig.ReplayOffline},
		normalizerVersion: NormalizerVersion,
		timeout:           opts.Timeout,
		attempts:          firstNonZero(opts.Attempts, 1),
	})
	if err != nil {
		logger.Error("record subprocess failed", zap.Error(err))
		return toToolingError(err)
	}
	if len(trace) == 0 {
		return &ToolingError{Code: CodeSubprocessFailed, Message: "agent subprocess produced no trajectory events"}
	}

	if err := o.Baselines.Write(spec.Name, trace, fixtureTmpPath, NormalizerVersion); err != nil {
		return fmt.Errorf("orchestrator: persist baseline: %w", err)
	}

	if err := o.appendAudit(traceID, spec, "recorded", "", 0); err != nil {
		logger.Warn("append audit entry", zap.Error(err))
	}

	logger.Info("baseline recorded", zap.Int("events", len(trace)))
	return nil
}

func firstNonZero(v uint, fallback uint) uint {
	if v == 0 {
		return fallback
	}
	return v
}

func toToolingError(err error) *ToolingError {
	var timeoutErr RunTimeoutError
	if errors.As(err, &timeoutErr) {
		return &ToolingError{Code: CodeRunTimeout, Message: timeoutErr.Error()}
	}
	return &ToolingError{Code: CodeSubprocessFailed, Message: err.Error()}
}

func (o *Orchestrator) auditLog() (*audit.Log, error) {
	return audit.Open(filepath.Join(o.Layout.Root, "audit.jsonl"))
}

func (o *Orchestrator) appendAudit(traceID string, spec *specconfig.Resolved, status, primaryCode string, witnessIndex int) error {
	log, err := o.auditLog()
	if err != nil {
		return err
	}
	defer log.Close()
	return log.Record(audit.Entry{
		TraceID:       traceID,
		SpecName:      spec.Name,
		VerdictStatus: status,
		PrimaryCode:   primaryCode,
		WitnessIndex:  witnessIndex,
		PolicyHash:    spec.PolicyHash,
	})
}
