package refinement

import (
	"strconv"
	"testing"

	"github.com/trajectly/trajectly/internal/event"
	"github.com/trajectly/trajectly/internal/specconfig"
)

func ev(t *testing.T, line string) event.Normalized {
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

func toolCall(t *testing.T, seq int, tool string) event.Normalized {
	return ev(t, `{"event_type":"tool_called","seq":`+strconv.Itoa(seq)+`,"run_id":"r","payload":{"tool_name":"`+tool+`","input":{"args":[],"kwargs":{}}}}`)
}

func skeletonCfg() specconfig.RefinementConfig {
	return specconfig.RefinementConfig{Mode: specconfig.RefinementSkeleton}
}

func TestCheckEmptyBaselineVacuous(t *testing.T) {
	candidate := []event.Normalized{toolCall(t, 1, "search")}
	r := Check(nil, candidate, skeletonCfg())
	if !r.Vacuous || len(r.Violations) != 0 {
		t.Fatalf("expected empty baseline to be vacuously satisfied, got %+v", r)
	}
}

func TestCheckSkeletonModeAllowsAllowlistedExtraCalls(t *testing.T) {
	baseline := []event.Normalized{toolCall(t, 1, "search")}
	candidate := []event.Normalized{
		toolCall(t, 1, "log_event"),
		toolCall(t, 2, "search"),
	}
	cfg := skeletonCfg()
	cfg.AllowExtraTools = []string{"log_event"}
	r := Check(baseline, candidate, cfg)
	if len(r.Violations) != 0 {
		t.Fatalf("expected allowlisted extra call to be tolerated, got %+v", r.Violations)
	}
}

func TestCheckSkeletonModeFlagsNewNameNotAllowlisted(t *testing.T) {
	baseline := []event.Normalized{toolCall(t, 1, "fetch_ticket"), toolCall(t, 2, "store_triage")}
	candidate := []event.Normalized{toolCall(t, 1, "fetch_ticket"), toolCall(t, 2, "log_event")}
	r := Check(baseline, candidate, skeletonCfg())
	if len(r.Violations) == 0 {
		t.Fatalf("expected an unallowlisted new tool name to violate refinement")
	}
	found := false
	for _, v := range r.Violations {
		if v.Code == CodeNewToolNameForbidden {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected REFINEMENT_NEW_TOOL_NAME_FORBIDDEN among violations, got %+v", r.Violations)
	}
}

func TestCheckDetectsMissingBaselineCall(t *testing.T) {
	baseline := []event.Normalized{toolCall(t, 1, "search"), toolCall(t, 2, "refund")}
	candidate := []event.Normalized{toolCall(t, 1, "search")}
	r := Check(baseline, candidate, skeletonCfg())
	if len(r.Violations) != 1 || r.Violations[0].Code != CodeBaselineCallMissing {
		t.Fatalf("expected one baseline-call-missing violation, got %+v", r.Violations)
	}
}

func TestCheckPreservesOrder(t *testing.T) {
	baseline := []event.Normalized{toolCall(t, 1, "search"), toolCall(t, 2, "refund")}
	candidate := []event.Normalized{toolCall(t, 1, "refund"), toolCall(t, 2, "search")}
	r := Check(baseline, candidate, skeletonCfg())
	if len(r.Violations) == 0 {
		t.Fatal("expected reordering to violate refinement")
	}
}

func TestCheckStrictModeFlagsExtraCalls(t *testing.T) {
	baseline := []event.Normalized{toolCall(t, 1, "search")}
	candidate := []event.Normalized{toolCall(t, 1, "search"), toolCall(t, 2, "search")}
	cfg := specconfig.RefinementConfig{Mode: specconfig.RefinementStrict, AllowNewToolNames: true}
	r := Check(baseline, candidate, cfg)
	if len(r.Violations) != 1 || r.Violations[0].Code != CodeExtraToolCall {
		t.Fatalf("expected one extra-call violation in strict mode, got %+v", r.Violations)
	}
}

func TestCheckAllowNewToolNamesPermitsUnlistedNames(t *testing.T) {
	baseline := []event.Normalized{toolCall(t, 1, "search")}
	candidate := []event.Normalized{toolCall(t, 1, "search"), toolCall(t, 2, "brand_new_tool")}
	cfg := skeletonCfg()
	cfg.AllowNewToolNames = true
	cfg.AllowExtraTools = []string{"brand_new_tool"}
	r := Check(baseline, candidate, cfg)
	if len(r.Violations) != 0 {
		t.Fatalf("expected new-but-allowlisted extra tool to pass, got %+v", r.Violations)
	}
}

func TestCheckNoneModeSkipsEntirely(t *testing.T) {
	baseline := []event.Normalized{toolCall(t, 1, "search"), toolCall(t, 2, "refund")}
	candidate := []event.Normalized{toolCall(t, 1, "unrelated")}
	cfg := specconfig.RefinementConfig{Mode: specconfig.RefinementNone}
	r := Check(baseline, candidate, cfg)
	if len(r.Violations) != 0 || r.Vacuous {
		t.Fatalf("expected mode=none to skip refinement entirely, got %+v", r)
	}
}

func TestCheckIgnoreCallToolsStripsBothSides(t *testing.T) {
	baseline := []event.Normalized{toolCall(t, 1, "log_event"), toolCall(t, 2, "search")}
	candidate := []event.Normalized{toolCall(t, 1, "search"), toolCall(t, 2, "log_event")}
	cfg := skeletonCfg()
	cfg.IgnoreCallTools = []string{"log_event"}
	r := Check(baseline, candidate, cfg)
	if len(r.Violations) != 0 {
		t.Fatalf("expected ignored tool to be stripped before comparison, got %+v", r.Violations)
	}
}
