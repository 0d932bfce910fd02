// Package orchestrator drives one spec evaluation end to end: spawn
// the agent subprocess in record or replay mode, capture its emitted
// trajectory, run the refinement/contract/verdict pipeline over it,
// and persist the resulting baseline or report. It owns run/trace id
// generation, the CI-write guard, subprocess timeout and retry, and
// structured logging; it never re-implements pipeline logic that
// internal/refinement, internal/contract, or internal/verdict already
// own.
package orchestrator

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trajectly/trajectly/internal/store"
	"github.com/trajectly/trajectly/internal/telemetry"
)

// TOOLING error codes this package can originate. Every other code a
// report may carry comes from internal/contract, internal/refinement,
// internal/fixture, or internal/replayguard.
const (
	CodeCIBaselineWriteDenied = "CI_BASELINE_WRITE_DENIED"
	CodeRunTimeout            = "RUN_TIMEOUT"
	CodeBaselineMissing       = "BASELINE_MISSING"
	CodeNormalizerMismatch    = "NORMALIZER_VERSION_MISMATCH"
	CodeSubprocessFailed      = "SUBPROCESS_FAILED"
)

// Exit codes the orchestrator's CLI-facing wrapper returns.
const (
	ExitPass    = 0
	ExitFail    = 1
	ExitTooling = 2
)

// Orchestrator holds the shared, process-wide dependencies every spec
// evaluation is run through: the filesystem stores, structured
// logger, and metrics registry. It carries no per-run state — each
// Record/Run call owns its own trace, fixture reader, and replay
// guard, per the isolation the concurrency model requires.
type Orchestrator struct {
	Layout    *store.Layout
	Baselines *store.BaselineStore
	Artifacts *store.ArtifactStore
	Logger    *zap.Logger
	Metrics   *telemetry.Metrics
}

// New builds an Orchestrator rooted at stateDir.
func New(stateDir string, logger *zap.Logger, metrics *telemetry.Metrics) (*Orchestrator, error) {
	layout, err := store.NewLayout(stateDir)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build layout: %w", err)
	}
	artifacts, err := store.NewArtifactStore(stateDir)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build artifact store: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.New(nil)
	}
	return &Orchestrator{
		Layout:    layout,
		Baselines: store.NewBaselineStore(layout),
		Artifacts: artifacts,
		Logger:    logger.Named("orchestrator"),
		Metrics:   metrics,
	}, nil
}

// newTraceID generates a fresh, unique run identifier, one per
// Record or Run call.
func newTraceID() string {
	return uuid.NewString()
}
