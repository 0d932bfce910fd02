package certify

import (
	"strings"
	"testing"
)

func TestSuiteCasesAllPass(t *testing.T) {
	for _, c := range Suite() {
		r, err := runOne(t, c.Name)
		if err != nil {
			t.Fatalf("case %s: %v", c.Name, err)
		}
		if !r.Passed {
			t.Errorf("case %s failed: %s", c.Name, r.Reason)
		}
	}
}

func TestRunIncludesDeterminismCheck(t *testing.T) {
	report, err := Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Determinism.Name == "" {
		t.Fatal("expected determinism result to be populated")
	}
	if !report.Determinism.Passed {
		t.Errorf("expected determinism check to pass, got %s", report.Determinism.Reason)
	}
	if !report.Passed() {
		t.Error("expected the overall report to pass")
	}
}

func TestFormatTextReportsEachCase(t *testing.T) {
	report, err := Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	text := FormatText(report)
	for _, c := range Suite() {
		if !strings.Contains(text, c.Name) {
			t.Errorf("FormatText output missing case name %q", c.Name)
		}
	}
	if !strings.Contains(text, "cases passed") {
		t.Error("FormatText output missing summary line")
	}
}

func TestFormatJSONRoundTripsStatus(t *testing.T) {
	report, err := Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	jsonStr, err := FormatJSON(report)
	if err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}
	if !strings.Contains(jsonStr, `"Status": "fail"`) {
		t.Error("expected at least one fail-status case in JSON output")
	}
}

func runOne(t *testing.T, name string) (result, error) {
	t.Helper()
	report, err := Run()
	if err != nil {
		return result{}, err
	}
	for _, c := range report.Cases {
		if c.Name == name {
			return result{c.Passed, c.Reason}, nil
		}
	}
	t.Fatalf("case %q not found in report", name)
	return result{}, nil
}

type result struct {
	Passed bool
	Reason string
}
