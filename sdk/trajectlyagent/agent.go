package trajectlyagent

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trajectly/trajectly/internal/fixture"
	"github.com/trajectly/trajectly/internal/replayguard"
)

// Agent instruments a real agent process: it emits the canonical
// trajectory, and, depending on Config.Mode, either records every
// tool/LLM call into a fixture bundle or replays them against one
// under an installed network guard. It owns the MCP server the
// agent's tools are registered on.
type Agent struct {
	cfg      Config
	emitter  *Emitter
	server   *mcpsdk.Server
	recorder *fixture.Recorder
	player   *fixture.Player
	guard    *replayguard.Guard
}

// New builds an Agent from cfg, opening the fixture recorder (record
// mode) or loading the fixture bundle and installing the replay guard
// (replay mode). name/version identify the MCP server implementation.
func New(cfg Config, name, version string) (*Agent, error) {
	a := &Agent{
		cfg:     cfg,
		emitter: NewEmitter(cfg.RunID),
		server: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    name,
			Version: version,
		}, nil),
	}

	switch cfg.Mode {
	case ModeRecord:
		rec, err := fixture.Create(cfg.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("trajectlyagent: open fixture recorder: %w", err)
		}
		a.recorder = rec
	case ModeReplay:
		bundle, err := fixture.Load(cfg.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("trajectlyagent: load fixture bundle: %w", err)
		}
		a.player = fixture.NewPlayer(bundle, cfg.NormalizerVersion, cfg.StrictSequence)
		a.guard = replayguard.New(cfg.ReplayMode, cfg.AllowDomains)
		if err := a.guard.Install(); err != nil {
			return nil, fmt.Errorf("trajectlyagent: install replay guard: %w", err)
		}
	}
	return a, nil
}

// Emitter exposes the trajectory emitter for callers that report
// run_started/agent_step/run_finished events directly around their
// own control loop.
func (a *Agent) Emitter() *Emitter {
	return a.emitter
}

// Server exposes the underlying MCP server so tools can be registered
// with mcpsdk.AddTool directly, in addition to the instrumented
// RegisterTool helper.
func (a *Agent) Server() *mcpsdk.Server {
	return a.server
}

// Run serves the agent's MCP tools over stdio until ctx is cancelled,
// then closes the recorder or uninstalls the replay guard.
func (a *Agent) Run(ctx context.Context) error {
	defer a.Close()
	return a.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close releases whatever mode-specific resource New opened.
func (a *Agent) Close() error {
	if a.recorder != nil {
		return a.recorder.Close()
	}
	if a.guard != nil {
		a.guard.Uninstall()
	}
	return nil
}

// recordViolation reports a fixture lookup failure as a sideband
// violation anchored at eventIndex, translating it the same way
// internal/orchestrator would if it had in-process access to err.
func (a *Agent) recordViolation(err error, eventIndex int, requestCanon string) error {
	v, ok := fixture.Violation(err, eventIndex, requestCanon)
	if !ok {
		return err
	}
	if emitErr := a.emitter.EmitViolation(string(v.Class), v.Code, v.EventIndex, v.Message, v.Hint, v.Detail); emitErr != nil {
		return emitErr
	}
	return err
}

// recordNetworkViolation reports a replay guard block as a sideband
// violation, for callers making raw network calls outside an
// instrumented tool (an LLM provider client, say) that still want the
// block to surface as a TOOLING violation instead of a bare error.
func (a *Agent) recordNetworkViolation(err error, eventIndex int) error {
	v, ok := replayguard.Violation(err, eventIndex)
	if !ok {
		return err
	}
	if emitErr := a.emitter.EmitViolation(string(v.Class), v.Code, v.EventIndex, v.Message, v.Hint, v.Detail); emitErr != nil {
		return emitErr
	}
	return err
}
