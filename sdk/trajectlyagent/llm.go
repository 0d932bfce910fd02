package trajectlyagent

import (
	"encoding/json"
	"fmt"

	"github.com/trajectly/trajectly/internal/event"
	"github.com/trajectly/trajectly/internal/fixture"
)

// LLMFunc invokes a real model provider: req in, decoded response out.
// CallLLM wraps one of these the same way RegisterTool wraps a tool
// implementation, since LLM calls have no MCP tool registration to
// hang instrumentation off of and must be wrapped explicitly by the
// agent's own call site.
type LLMFunc[Out any] func(req fixture.LLMRequest) (Out, error)

// CallLLM emits the llm_called/llm_returned pair around fn, recording
// the response into the fixture bundle in record mode or answering
// from it in replay mode.
func CallLLM[Out any](a *Agent, req fixture.LLMRequest, fn LLMFunc[Out]) (Out, error) {
	var zero Out

	payload := map[string]any{
		"provider": req.Provider,
		"model":    req.Model,
	}
	if req.Messages != nil {
		payload["messages"] = req.Messages
	}
	if req.Prompt != "" {
		payload["prompt"] = req.Prompt
	}
	calledSeq, err := a.emitter.Emit(event.TypeLLMCalled, payload)
	if err != nil {
		return zero, err
	}

	sig, err := fixture.LLMSignature(req)
	if err != nil {
		return zero, fmt.Errorf("trajectlyagent: signature llm call: %w", err)
	}

	if a.player != nil {
		out, err := a.player.LookupLLM(a.cfg.LLMMatchMode, sig)
		if err != nil {
			return zero, a.recordViolation(err, calledSeq, sig)
		}
		var typed Out
		if err := json.Unmarshal(out, &typed); err != nil {
			return zero, fmt.Errorf("trajectlyagent: decode replayed llm output: %w", err)
		}
		if _, err := a.emitter.Emit(event.TypeLLMReturned, map[string]any{
			"provider": req.Provider,
			"model":    req.Model,
			"output":   json.RawMessage(out),
		}); err != nil {
			return zero, err
		}
		return typed, nil
	}

	out, callErr := fn(req)

	returnedPayload := map[string]any{"provider": req.Provider, "model": req.Model}
	if callErr != nil {
		returnedPayload["output"] = map[string]any{}
		returnedPayload["error"] = callErr.Error()
	} else {
		returnedPayload["output"] = out
	}
	if _, err := a.emitter.Emit(event.TypeLLMReturned, returnedPayload); err != nil {
		return zero, err
	}

	if a.recorder != nil && callErr == nil {
		if err := a.recorder.RecordLLM(sig, out, a.cfg.NormalizerVersion); err != nil {
			return zero, fmt.Errorf("trajectlyagent: record llm call: %w", err)
		}
	}
	return out, callErr
}
