package fixture

import (
	"fmt"

	"github.com/trajectly/trajectly/internal/event"
)

// LLMRequest is the subset of an LLM call the by_hash signature is
// computed over: provider, model, the message/prompt content, and any
// caller-declared deterministic parameters. Fields absent from the
// call are simply omitted by the caller before this is encoded.
type LLMRequest struct {
	Provider   string         `json:"provider"`
	Model      string         `json:"model"`
	Messages   any            `json:"messages,omitempty"`
	Prompt     string         `json:"prompt,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// LLMSignature returns the by_hash signature for an LLM request: the
// SHA-256 of its canonical encoding.
func LLMSignature(req LLMRequest) (string, error) {
	form := map[string]any{
		"provider": req.Provider,
		"model":    req.Model,
	}
	if req.Messages != nil {
		form["messages"] = req.Messages
	}
	if req.Prompt != "" {
		form["prompt"] = req.Prompt
	}
	if len(req.Parameters) > 0 {
		form["parameters"] = req.Parameters
	}
	return hashForm(form)
}

// ToolSignature returns the by_hash / args_signature_match signature
// for a tool call: the SHA-256 of the canonical (tool_name, args) pair.
func ToolSignature(toolName string, args map[string]any) (string, error) {
	form := map[string]any{
		"tool_name": toolName,
		"args":      args,
	}
	return hashForm(form)
}

func hashForm(form map[string]any) (string, error) {
	canon, err := event.Encode(form)
	if err != nil {
		return "", fmt.Errorf("fixture: canonicalize signature: %w", err)
	}
	return event.Hash(canon), nil
}
