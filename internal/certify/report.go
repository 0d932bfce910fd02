package certify

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders a Report as human-readable text.
func FormatText(r Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Certifying engine behavior against %d built-in case", len(r.Cases))
	if len(r.Cases) != 1 {
		b.WriteString("s")
	}
	b.WriteString("...\n\n")

	passed := 0
	for _, c := range r.Cases {
		status := "PASS"
		if !c.Passed {
			status = "FAIL"
		} else {
			passed++
		}
		fmt.Fprintf(&b, "  %-4s  %-40s status=%-4s primary=%s\n", status, c.Name, c.Verdict.Status, c.Verdict.PrimaryCode)
		if !c.Passed {
			fmt.Fprintf(&b, "        %s\n", c.Reason)
		}
	}

	detStatus := "PASS"
	if !r.Determinism.Passed {
		detStatus = "FAIL"
	}
	fmt.Fprintf(&b, "  %-4s  %-40s\n", detStatus, r.Determinism.Name)
	if !r.Determinism.Passed {
		fmt.Fprintf(&b, "        %s\n", r.Determinism.Reason)
	}

	fmt.Fprintf(&b, "\n%d of %d cases passed", passed, len(r.Cases))
	if r.Passed() {
		b.WriteString(", determinism check passed.\n")
	} else {
		b.WriteString(".\n")
	}

	return b.String()
}

// FormatJSON renders a Report as JSON.
func FormatJSON(r Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("certify: marshal report: %w", err)
	}
	return string(data), nil
}
