package trajectlyagent

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/trajectly/trajectly/internal/event"
	"github.com/trajectly/trajectly/internal/fixture"
)

// ToolFunc is the shape of an uninstrumented tool implementation:
// decoded input in, decoded output or an error out.
type ToolFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// CallTool instruments one tool invocation: it emits the
// tool_called/tool_returned pair, and, depending on the agent's mode,
// records fn's result into the fixture bundle or answers from the
// bundle without calling fn at all. It is the shared core both
// RegisterTool (MCP-served tools) and a scripted agent calling its own
// tool logic directly build on.
func (a *Agent) CallTool(name string, args map[string]any, fn func() (any, error)) (json.RawMessage, error) {
	calledSeq, err := a.emitter.Emit(event.TypeToolCalled, map[string]any{
		"tool_name": name,
		"input":     args,
	})
	if err != nil {
		return nil, err
	}

	if a.player != nil {
		raw, err := a.replayTool(name, args, calledSeq)
		if err != nil {
			return nil, err
		}
		if _, err := a.emitter.Emit(event.TypeToolReturned, map[string]any{
			"tool_name": name,
			"output":    raw,
		}); err != nil {
			return nil, err
		}
		return raw, nil
	}

	out, callErr := fn()

	payload := map[string]any{"tool_name": name}
	if callErr != nil {
		payload["output"] = map[string]any{}
		payload["error"] = callErr.Error()
	} else {
		payload["output"] = out
	}
	if _, err := a.emitter.Emit(event.TypeToolReturned, payload); err != nil {
		return nil, err
	}
	if callErr != nil {
		return nil, callErr
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("trajectlyagent: marshal tool output: %w", err)
	}
	if a.recorder != nil {
		sig, err := fixture.ToolSignature(name, args)
		if err != nil {
			return nil, fmt.Errorf("trajectlyagent: signature tool call: %w", err)
		}
		if err := a.recorder.RecordTool(sig, out, a.cfg.NormalizerVersion); err != nil {
			return nil, fmt.Errorf("trajectlyagent: record tool call: %w", err)
		}
	}
	return raw, nil
}

// RegisterTool adds tool to a's MCP server, wrapping fn with CallTool
// so every real invocation over the MCP transport is captured the
// same way a directly-called tool would be.
func RegisterTool[In, Out any](a *Agent, tool *mcpsdk.Tool, fn ToolFunc[In, Out]) {
	mcpsdk.AddTool(a.server, tool, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in In) (*mcpsdk.CallToolResult, Out, error) {
		var zero Out

		args, err := toArgs(in)
		if err != nil {
			return nil, zero, fmt.Errorf("trajectlyagent: encode tool args: %w", err)
		}

		raw, err := a.CallTool(tool.Name, args, func() (any, error) {
			return fn(ctx, in)
		})
		if err != nil {
			return nil, zero, err
		}

		var typed Out
		if err := json.Unmarshal(raw, &typed); err != nil {
			return nil, zero, fmt.Errorf("trajectlyagent: decode tool output: %w", err)
		}
		return nil, typed, nil
	})
}

// replayTool resolves name's call against the fixture bundle,
// reporting a lookup failure as a sideband violation before returning
// it, so the orchestrator's verdict resolution sees the same TOOLING
// classification a live in-process lookup would have produced.
func (a *Agent) replayTool(name string, args map[string]any, calledSeq int) (json.RawMessage, error) {
	sig, err := fixture.ToolSignature(name, args)
	if err != nil {
		return nil, fmt.Errorf("trajectlyagent: signature tool call: %w", err)
	}
	out, err := a.player.LookupTool(a.cfg.ToolMatchMode, sig)
	if err != nil {
		return nil, a.recordViolation(err, calledSeq, sig)
	}
	return out, nil
}

// toArgs converts a typed tool input into the map[string]any shape
// both trajectory payloads and fixture.ToolSignature expect, by way of
// its JSON encoding.
func toArgs(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
