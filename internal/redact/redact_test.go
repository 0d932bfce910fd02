package redact

import "testing"

func TestRedactKeysMasksTopLevelMatch(t *testing.T) {
	in := map[string]any{"tool_name": "checkout", "password": "hunter2"}
	out := RedactKeys(in, []string{"password"}).(map[string]any)

	if out["password"] != "***" {
		t.Errorf("expected password masked, got %v", out["password"])
	}
	if out["tool_name"] != "checkout" {
		t.Errorf("expected tool_name untouched, got %v", out["tool_name"])
	}
}

func TestRedactKeysRecursesIntoNestedInput(t *testing.T) {
	in := map[string]any{
		"tool_name": "issue_refund",
		"input": map[string]any{
			"kwargs": map[string]any{
				"api_key": "sk-abc123",
				"amount":  12.5,
			},
		},
	}
	out := RedactKeys(in, []string{"api_key"}).(map[string]any)
	kwargs := out["input"].(map[string]any)["kwargs"].(map[string]any)

	if kwargs["api_key"] != "***" {
		t.Errorf("expected nested api_key masked, got %v", kwargs["api_key"])
	}
	if kwargs["amount"] != 12.5 {
		t.Errorf("expected amount preserved, got %v", kwargs["amount"])
	}
}

func TestRedactKeysWalksSlices(t *testing.T) {
	in := map[string]any{
		"messages": []any{
			map[string]any{"role": "user", "secret": "s3cret"},
		},
	}
	out := RedactKeys(in, []string{"secret"}).(map[string]any)
	msg := out["messages"].([]any)[0].(map[string]any)

	if msg["secret"] != "***" {
		t.Errorf("expected secret masked inside slice, got %v", msg["secret"])
	}
}

func TestRedactKeysIsCaseInsensitive(t *testing.T) {
	in := map[string]any{"API_KEY": "sk-abc123"}
	out := RedactKeys(in, []string{"api_key"}).(map[string]any)

	if out["API_KEY"] != "***" {
		t.Errorf("expected case-insensitive key match to mask, got %v", out["API_KEY"])
	}
}

func TestRedactKeysAutoUsesDefaultsPlusExtra(t *testing.T) {
	in := map[string]any{"email": "a@b.com", "internal_id": "x1"}
	out := RedactKeysAuto(in, []string{"internal_id"}).(map[string]any)

	if out["email"] != "***" {
		t.Errorf("expected default key email masked, got %v", out["email"])
	}
	if out["internal_id"] != "***" {
		t.Errorf("expected extra key internal_id masked, got %v", out["internal_id"])
	}
}

func TestMaskValuePreservesNumericAndBool(t *testing.T) {
	if MaskValue(12.5) != 12.5 {
		t.Error("expected float64 preserved")
	}
	if MaskValue(true) != true {
		t.Error("expected bool preserved")
	}
	if MaskValue(nil) != nil {
		t.Error("expected nil preserved")
	}
	if MaskValue("hunter2") != "***" {
		t.Error("expected string masked")
	}
}
