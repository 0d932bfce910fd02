package audit

import (
	"path/filepath"
	"testing"
	"time"
)

// writeTestLog creates a temp audit log with known entries for testing.
func writeTestLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-audit.jsonl")
	log, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()

	base := time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC)

	entries := []Entry{
		{Timestamp: base.Format(TimestampFormat), TraceID: "t-aaa", SpecName: "triage-agent", VerdictStatus: "pass"},
		{Timestamp: base.Add(2 * time.Second).Format(TimestampFormat), TraceID: "t-aaa", SpecName: "triage-agent", VerdictStatus: "pass"},
		{Timestamp: base.Add(4 * time.Second).Format(TimestampFormat), TraceID: "t-bbb", SpecName: "review-agent", VerdictStatus: "pass"},
		{Timestamp: base.Add(6 * time.Second).Format(TimestampFormat), TraceID: "t-aaa", SpecName: "triage-agent", VerdictStatus: "fail", PrimaryCode: "CONTRACT_TOOL_DENIED", WitnessIndex: 3},
		{Timestamp: base.Add(8 * time.Second).Format(TimestampFormat), TraceID: "t-aaa", SpecName: "triage-agent", VerdictStatus: "pass"},
		{Timestamp: base.Add(10 * time.Second).Format(TimestampFormat), TraceID: "t-aaa", SpecName: "triage-agent", VerdictStatus: "fail", PrimaryCode: "CONTRACT_TOOL_DENIED", WitnessIndex: 5},
	}

	for _, e := range entries {
		if err := log.Record(e); err != nil {
			t.Fatal(err)
		}
	}

	return path
}

func TestReplayFiltersByTraceID(t *testing.T) {
	path := writeTestLog(t)

	result, err := Replay(path, ReplayFilter{TraceID: "t-aaa"})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Entries) != 5 {
		t.Errorf("expected 5 entries for t-aaa, got %d", len(result.Entries))
	}

	for _, e := range result.Entries {
		if e.TraceID != "t-aaa" {
			t.Errorf("unexpected trace ID: %s", e.TraceID)
		}
	}
}

func TestReplayFiltersBySpecName(t *testing.T) {
	path := writeTestLog(t)

	result, err := Replay(path, ReplayFilter{SpecName: "review-agent"})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry for review-agent, got %d", len(result.Entries))
	}
	if result.Entries[0].TraceID != "t-bbb" {
		t.Errorf("expected t-bbb, got %s", result.Entries[0].TraceID)
	}
}

func TestReplayTimeRangeFrom(t *testing.T) {
	path := writeTestLog(t)

	from := time.Date(2025, 1, 15, 14, 0, 5, 0, time.UTC)
	result, err := Replay(path, ReplayFilter{TraceID: "t-aaa", From: from})
	if err != nil {
		t.Fatal(err)
	}

	// Should only include entries at 14:00:06, 14:00:08, 14:00:10
	if len(result.Entries) != 3 {
		t.Errorf("expected 3 entries after from filter, got %d", len(result.Entries))
	}
}

func TestReplayTimeRangeTo(t *testing.T) {
	path := writeTestLog(t)

	to := time.Date(2025, 1, 15, 14, 0, 3, 0, time.UTC)
	result, err := Replay(path, ReplayFilter{TraceID: "t-aaa", To: to})
	if err != nil {
		t.Fatal(err)
	}

	// Should only include entries at 14:00:00, 14:00:02
	if len(result.Entries) != 2 {
		t.Errorf("expected 2 entries before to filter, got %d", len(result.Entries))
	}
}

func TestReplayTimeRangeBoth(t *testing.T) {
	path := writeTestLog(t)

	from := time.Date(2025, 1, 15, 14, 0, 1, 0, time.UTC)
	to := time.Date(2025, 1, 15, 14, 0, 7, 0, time.UTC)
	result, err := Replay(path, ReplayFilter{TraceID: "t-aaa", From: from, To: to})
	if err != nil {
		t.Fatal(err)
	}

	// Should include entries at 14:00:02 and 14:00:06
	if len(result.Entries) != 2 {
		t.Errorf("expected 2 entries in time window, got %d", len(result.Entries))
	}
}

func TestReplayEmptyResult(t *testing.T) {
	path := writeTestLog(t)

	result, err := Replay(path, ReplayFilter{TraceID: "t-nonexistent"})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Entries) != 0 {
		t.Errorf("expected 0 entries for unknown trace, got %d", len(result.Entries))
	}
	if result.Summary.Total != 0 {
		t.Errorf("expected 0 total, got %d", result.Summary.Total)
	}
}

func TestReplaySummaryCountsCorrect(t *testing.T) {
	path := writeTestLog(t)

	result, err := Replay(path, ReplayFilter{TraceID: "t-aaa"})
	if err != nil {
		t.Fatal(err)
	}

	s := result.Summary
	if s.Total != 5 {
		t.Errorf("total: expected 5, got %d", s.Total)
	}
	if s.PassCount != 3 {
		t.Errorf("pass: expected 3, got %d", s.PassCount)
	}
	if s.FailCount != 2 {
		t.Errorf("fail: expected 2, got %d", s.FailCount)
	}
}

func TestReplayPrimaryCodeCountTracked(t *testing.T) {
	path := writeTestLog(t)

	result, err := Replay(path, ReplayFilter{TraceID: "t-aaa"})
	if err != nil {
		t.Fatal(err)
	}

	if got := result.Summary.PrimaryCodeCount["CONTRACT_TOOL_DENIED"]; got != 2 {
		t.Errorf("expected CONTRACT_TOOL_DENIED count 2, got %d", got)
	}

	// t-bbb has no failures at all
	result2, err := Replay(path, ReplayFilter{TraceID: "t-bbb"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result2.Summary.PrimaryCodeCount) != 0 {
		t.Errorf("expected no primary codes for t-bbb, got %v", result2.Summary.PrimaryCodeCount)
	}
}
