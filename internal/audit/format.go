package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReplayResult as a human-readable text
// timeline, one line per run.
func FormatTimeline(result *ReplayResult) string {
	if len(result.Entries) == 0 {
		return "No entries found.\n"
	}

	var b strings.Builder

	first := formatDateRange(result.Summary.FirstTimestamp)
	last := formatTimeOnly(result.Summary.LastTimestamp)
	b.WriteString(fmt.Sprintf("%s–%s UTC\n", first, last))
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		ts := formatTimeOnly(e.Timestamp)
		status := strings.ToUpper(e.VerdictStatus)
		spec := truncate(e.SpecName, 24)
		trace := truncate(e.TraceID, 16)
		code := e.PrimaryCode
		if code == "" {
			code = "-"
		}
		b.WriteString(fmt.Sprintf("%-10s %-4s %-24s %-16s %s\n", ts, status, spec, trace, code))
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))

	return b.String()
}

// FormatJSON renders a ReplayResult as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func formatDateRange(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s ReplaySummary) string {
	return fmt.Sprintf("Summary: %d pass, %d fail (of %d)\n", s.PassCount, s.FailCount, s.Total)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
