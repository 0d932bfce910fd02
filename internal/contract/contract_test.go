package contract

import (
	"testing"

	"github.com/trajectly/trajectly/internal/event"
	"github.com/trajectly/trajectly/internal/specconfig"
)

func mustEvent(t *testing.T, line string) event.Normalized {
	t.Helper()
	raw, err := event.ParseLine([]byte(line))
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	e, err := event.FromRaw(raw)
	if err != nil {
		t.Fatalf("FromRaw: %v", err)
	}
	n, err := event.Normalize(e, nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return n
}

func resolvedSpec(t *testing.T, s *specconfig.Spec) *specconfig.Resolved {
	t.Helper()
	if s.Refinement.Mode == "" {
		s.Refinement.Mode = specconfig.RefinementNone
	}
	r, err := specconfig.Resolve(s)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return r
}

func TestToolPolicyDenied(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"delete_account","input":{}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{Tools: specconfig.ToolsConfig{Deny: []string{"delete_account"}}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeToolDenied || violations[0].EventIndex != 1 {
		t.Fatalf("expected one CONTRACT_TOOL_DENIED at event 1, got %+v", violations)
	}
}

func TestToolPolicyNotAllowed(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"search","input":{}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{Tools: specconfig.ToolsConfig{Allow: []string{"lookup"}}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeToolNotAllowed {
		t.Fatalf("expected one CONTRACT_TOOL_NOT_ALLOWED, got %+v", violations)
	}
}

func TestToolPolicyDenylistDisabledByDefault(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"fetch","input":{"url":"https://example.com/checkout"}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{})

	violations := New(spec).Evaluate(trace)
	for _, v := range violations {
		if v.Code == CodeResourceDenylisted {
			t.Fatalf("expected no denylist violation when contracts.denylist.enabled is unset, got %+v", violations)
		}
	}
}

func TestToolPolicyDenylistEnabled(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"fetch","input":{"url":"https://example.com/checkout"}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{Denylist: specconfig.DenylistConfig{Enabled: true}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeResourceDenylisted || violations[0].EventIndex != 1 {
		t.Fatalf("expected one CONTRACT_RESOURCE_DENYLISTED at event 1, got %+v", violations)
	}
}

func TestMaxCallsTotalExceeded(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"search","input":{}}}`),
		mustEvent(t, `{"event_type":"tool_called","seq":2,"run_id":"r","payload":{"tool_name":"search","input":{}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{Tools: specconfig.ToolsConfig{MaxCallsTotal: 1}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeMaxCallsTotal {
		t.Fatalf("expected one CONTRACT_MAX_CALLS_TOTAL_EXCEEDED, got %+v", violations)
	}
	if violations[0].EventIndex != 2 {
		t.Fatalf("expected witness at event 2, got %d", violations[0].EventIndex)
	}
}

func TestBudgetToolCallsExceeded(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"search","input":{}}}`),
		mustEvent(t, `{"event_type":"tool_called","seq":2,"run_id":"r","payload":{"tool_name":"search","input":{}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		BudgetThresholds: specconfig.BudgetThresholds{MaxToolCalls: 1},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeBudgetToolCalls {
		t.Fatalf("expected one BUDGET_TOOL_CALLS_EXCEEDED, got %+v", violations)
	}
}

func TestBudgetLatencyExceeded(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"run_finished","seq":1,"run_id":"r","rel_ms":5000,"payload":{"status":"ok"}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		BudgetThresholds: specconfig.BudgetThresholds{MaxLatencyMs: 1000},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeBudgetLatency {
		t.Fatalf("expected one BUDGET_LATENCY_EXCEEDED, got %+v", violations)
	}
}

func TestRequireBeforeViolated(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"fetch_pr","input":{}}}`),
		mustEvent(t, `{"event_type":"tool_called","seq":2,"run_id":"r","payload":{"tool_name":"post_review","input":{}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{Sequence: specconfig.SequenceConfig{
			RequireBefore: []specconfig.PrecedencePair{{Before: "lint_code", After: "post_review"}},
		}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeRequireBefore || violations[0].EventIndex != 2 {
		t.Fatalf("expected one SEQUENCE_REQUIRE_BEFORE at event 2, got %+v", violations)
	}
}

func TestRequireBeforeSatisfiedWhenOrdered(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"fetch_pr","input":{}}}`),
		mustEvent(t, `{"event_type":"tool_called","seq":2,"run_id":"r","payload":{"tool_name":"lint_code","input":{}}}`),
		mustEvent(t, `{"event_type":"tool_called","seq":3,"run_id":"r","payload":{"tool_name":"post_review","input":{}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{Sequence: specconfig.SequenceConfig{
			RequireBefore: []specconfig.PrecedencePair{{Before: "lint_code", After: "post_review"}},
		}},
	})

	if violations := New(spec).Evaluate(trace); len(violations) != 0 {
		t.Fatalf("expected no violations, got %+v", violations)
	}
}

func TestSequenceRequiredMissingAnchoredAtRunFinished(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"fetch_ticket","input":{}}}`),
		mustEvent(t, `{"event_type":"run_finished","seq":2,"run_id":"r","payload":{"status":"ok"}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{Sequence: specconfig.SequenceConfig{Require: []string{"store_triage"}}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeSequenceMissing || violations[0].EventIndex != 2 {
		t.Fatalf("expected one CONTRACT_SEQUENCE_REQUIRED_MISSING at run_finished, got %+v", violations)
	}
}

func TestSequenceForbidViolated(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"unsafe_export","input":{}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{Sequence: specconfig.SequenceConfig{Forbid: []string{"unsafe_export"}}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeSequenceForbid {
		t.Fatalf("expected one CONTRACT_SEQUENCE_NEVER_SEEN, got %+v", violations)
	}
}

func TestSideEffectWriteToolDenied(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"send_email","input":{}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{SideEffects: specconfig.SideEffectsConfig{
			DenyWriteTools: true,
			WriteTools:     []string{"send_email"},
		}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeWriteToolDenied {
		t.Fatalf("expected one CONTRACT_WRITE_TOOL_DENIED, got %+v", violations)
	}
}

func TestNetworkDeniedByDefault(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"fetch","input":{"kwargs":{"url":"https://evil.example.com/x"}}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{Network: specconfig.NetworkConfig{
			Default:      "deny",
			AllowDomains: []string{"api.trusted.com"},
		}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeNetworkDenied {
		t.Fatalf("expected one CONTRACT_NETWORK_DENIED, got %+v", violations)
	}
}

func TestDataLeakPII(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"lookup","input":{"kwargs":{"note":"contact jane.doe@example.com for details"}}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{DataLeak: specconfig.DataLeakConfig{DenyPIIOutbound: true}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeDataLeakPII {
		t.Fatalf("expected one CONTRACT_DATA_LEAK_PII, got %+v", violations)
	}
}

func TestArgRequiredMissing(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"refund","input":{"kwargs":{}}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{Args: map[string]specconfig.ArgSchema{
			"refund": {Required: []string{"order_id"}},
		}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeArgRequired {
		t.Fatalf("expected one CONTRACT_ARG_REQUIRED_MISSING, got %+v", violations)
	}
}

func TestArgTypeMismatch(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"refund","input":{"kwargs":{"order_id":123}}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{Args: map[string]specconfig.ArgSchema{
			"refund": {Type: map[string]string{"order_id": "string"}},
		}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeArgType {
		t.Fatalf("expected one CONTRACT_ARG_TYPE, got %+v", violations)
	}
}

func TestArgRangeViolation(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"refund","input":{"kwargs":{"amount":500}}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{Args: map[string]specconfig.ArgSchema{
			"refund": {Max: map[string]float64{"amount": 100}},
		}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeArgRange {
		t.Fatalf("expected one CONTRACT_ARG_RANGE, got %+v", violations)
	}
}

func TestArgEnumViolation(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"refund","input":{"kwargs":{"reason":"bogus"}}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{Args: map[string]specconfig.ArgSchema{
			"refund": {Enum: map[string][]string{"reason": {"defective", "duplicate"}}},
		}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeArgEnum {
		t.Fatalf("expected one CONTRACT_ARG_ENUM, got %+v", violations)
	}
}

func TestArgRegexViolation(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"refund","input":{"kwargs":{"order_id":"not-an-id"}}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{Args: map[string]specconfig.ArgSchema{
			"refund": {Regex: map[string]string{"order_id": `^ORD-\d+$`}},
		}},
	})

	violations := New(spec).Evaluate(trace)
	if len(violations) != 1 || violations[0].Code != CodeArgRegex {
		t.Fatalf("expected one CONTRACT_ARG_REGEX, got %+v", violations)
	}
}

func TestEvaluatePassesCleanTrace(t *testing.T) {
	trace := []event.Normalized{
		mustEvent(t, `{"event_type":"tool_called","seq":1,"run_id":"r","payload":{"tool_name":"search","input":{"kwargs":{"query":"weather"}}}}`),
		mustEvent(t, `{"event_type":"tool_returned","seq":2,"run_id":"r","payload":{"tool_name":"search","output":{"result":"sunny"}}}`),
	}
	spec := resolvedSpec(t, &specconfig.Spec{
		Contracts: specconfig.ContractsConfig{
			Tools:    specconfig.ToolsConfig{Allow: []string{"search"}, MaxCallsTotal: 10},
			DataLeak: specconfig.DataLeakConfig{DenyPIIOutbound: true},
		},
	})

	if violations := New(spec).Evaluate(trace); len(violations) != 0 {
		t.Fatalf("expected clean trace to pass, got %+v", violations)
	}
}
