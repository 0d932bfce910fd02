package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// TimestampFormat is the layout used in audit entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// ReplayFilter holds filtering criteria for reading back the trail.
// An empty TraceID or SpecName matches every entry.
type ReplayFilter struct {
	TraceID  string
	SpecName string
	From     time.Time // zero value = no lower bound
	To       time.Time // zero value = no upper bound
}

// ReplaySummary holds verdict counts and metadata for the matched
// entries.
type ReplaySummary struct {
	Total            int            `json:"total"`
	PassCount        int            `json:"pass_count"`
	FailCount        int            `json:"fail_count"`
	PrimaryCodeCount map[string]int `json:"primary_code_count,omitempty"`
	FirstTimestamp   string         `json:"first_timestamp"`
	LastTimestamp    string         `json:"last_timestamp"`
}

// ReplayResult holds filtered entries and a summary over them.
type ReplayResult struct {
	Entries []Entry       `json:"entries"`
	Summary ReplaySummary `json:"summary"`
}

// Replay reads the audit trail and returns entries matching filter,
// oldest first, along with a rollup summary.
func Replay(path string, filter ReplayFilter) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	result := &ReplayResult{}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines
		}

		if filter.TraceID != "" && entry.TraceID != filter.TraceID {
			continue
		}
		if filter.SpecName != "" && entry.SpecName != filter.SpecName {
			continue
		}

		if !filter.From.IsZero() || !filter.To.IsZero() {
			ts, err := time.Parse(TimestampFormat, entry.Timestamp)
			if err != nil {
				continue // skip unparseable timestamps
			}
			if !filter.From.IsZero() && ts.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && ts.After(filter.To) {
				continue
			}
		}

		result.Entries = append(result.Entries, entry)
		updateSummary(&result.Summary, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	return result, nil
}

func updateSummary(s *ReplaySummary, entry Entry) {
	s.Total++

	switch entry.VerdictStatus {
	case "pass":
		s.PassCount++
	case "fail":
		s.FailCount++
		if entry.PrimaryCode != "" {
			if s.PrimaryCodeCount == nil {
				s.PrimaryCodeCount = make(map[string]int)
			}
			s.PrimaryCodeCount[entry.PrimaryCode]++
		}
	}

	if s.FirstTimestamp == "" {
		s.FirstTimestamp = entry.Timestamp
	}
	s.LastTimestamp = entry.Timestamp
}
