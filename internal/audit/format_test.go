package audit

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFormatTimelineHeaderAndSummary(t *testing.T) {
	path := writeTestLog(t)
	result, err := Replay(path, ReplayFilter{TraceID: "t-aaa"})
	if err != nil {
		t.Fatal(err)
	}

	out := FormatTimeline(result)

	if !strings.Contains(out, "Summary:") {
		t.Error("expected summary line")
	}
	if !strings.Contains(out, "3 pass") {
		t.Errorf("expected '3 pass' in summary, got:\n%s", out)
	}
	if !strings.Contains(out, "2 fail") {
		t.Errorf("expected '2 fail' in summary, got:\n%s", out)
	}
}

func TestFormatTimelineEntryColumns(t *testing.T) {
	path := writeTestLog(t)
	result, err := Replay(path, ReplayFilter{TraceID: "t-aaa"})
	if err != nil {
		t.Fatal(err)
	}

	out := FormatTimeline(result)

	if !strings.Contains(out, "PASS") {
		t.Error("expected PASS status")
	}
	if !strings.Contains(out, "FAIL") {
		t.Error("expected FAIL status")
	}
	if !strings.Contains(out, "triage-agent") {
		t.Error("expected spec name column")
	}
	if !strings.Contains(out, "CONTRACT_TOOL_DENIED") {
		t.Error("expected primary code column")
	}
}

func TestFormatJSONValid(t *testing.T) {
	path := writeTestLog(t)
	result, err := Replay(path, ReplayFilter{TraceID: "t-aaa"})
	if err != nil {
		t.Fatal(err)
	}

	jsonStr, err := FormatJSON(result)
	if err != nil {
		t.Fatal(err)
	}

	var parsed ReplayResult
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		t.Fatalf("JSON output not valid: %v", err)
	}
	if len(parsed.Entries) != 5 {
		t.Errorf("expected 5 entries in JSON, got %d", len(parsed.Entries))
	}
	if parsed.Summary.Total != 5 {
		t.Errorf("expected total 5 in JSON summary, got %d", parsed.Summary.Total)
	}
}

func TestFormatTimelineEmptyEntries(t *testing.T) {
	result := &ReplayResult{}

	out := FormatTimeline(result)
	if !strings.Contains(out, "No entries found") {
		t.Errorf("expected 'No entries found' message, got:\n%s", out)
	}
}
