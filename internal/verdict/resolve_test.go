package verdict

import "testing"

func TestResolveEmptyIsPass(t *testing.T) {
	v := Resolve(nil)
	if v.Status != StatusPass {
		t.Fatalf("expected pass, got %s", v.Status)
	}
	if v.Witness != nil {
		t.Fatal("expected no witness on pass")
	}
}

func TestResolvePicksEarliestWitnessIndex(t *testing.T) {
	v := Resolve([]Violation{
		{Class: ClassContract, Code: "CONTRACT_TOOL_POLICY_VIOLATION", EventIndex: 5},
		{Class: ClassRefinement, Code: "REFINEMENT_EXTRA_CALL", EventIndex: 2},
	})
	if v.WitnessIndex != 2 {
		t.Fatalf("expected witness index 2, got %d", v.WitnessIndex)
	}
	if v.PrimaryCode != "REFINEMENT_EXTRA_CALL" {
		t.Fatalf("expected REFINEMENT_EXTRA_CALL, got %s", v.PrimaryCode)
	}
}

func TestResolveTieBreaksByClassPrecedence(t *testing.T) {
	v := Resolve([]Violation{
		{Class: ClassTooling, Code: "REPLAY_NETWORK_BLOCKED", EventIndex: 3},
		{Class: ClassContract, Code: "CONTRACT_ARGS_SCHEMA_VIOLATION", EventIndex: 3},
		{Class: ClassRefinement, Code: "REFINEMENT_ORDER_VIOLATION", EventIndex: 3},
	})
	if v.PrimaryCode != "REFINEMENT_ORDER_VIOLATION" {
		t.Fatalf("expected refinement class to win the tie, got %s", v.PrimaryCode)
	}
}

func TestResolveTieBreaksByCodeThenEmissionOrder(t *testing.T) {
	v := Resolve([]Violation{
		{Class: ClassContract, Code: "CONTRACT_NETWORK_VIOLATION", EventIndex: 1},
		{Class: ClassContract, Code: "CONTRACT_ARGS_SCHEMA_VIOLATION", EventIndex: 1},
	})
	if v.PrimaryCode != "CONTRACT_ARGS_SCHEMA_VIOLATION" {
		t.Fatalf("expected ASCII-earlier code to win the tie, got %s", v.PrimaryCode)
	}
}

func TestResolveStableEmissionOrderOnFullTie(t *testing.T) {
	v := Resolve([]Violation{
		{Class: ClassContract, Code: "CONTRACT_NETWORK_VIOLATION", EventIndex: 1, Detail: "first"},
		{Class: ClassContract, Code: "CONTRACT_NETWORK_VIOLATION", EventIndex: 1, Detail: "second"},
	})
	if v.Witness.Detail != "first" {
		t.Fatalf("expected emission order to break a full tie, got %s", v.Witness.Detail)
	}
}
