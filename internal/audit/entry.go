package audit

// Entry is one line in the hash-chained JSONL verdict trail: a
// compact, tamper-evident record of one run's outcome. The full
// verdict (every violation, witness detail) lives in the run's report
// artifact; this trail exists so a run's pass/fail history can still
// be verified even if that fuller artifact is later lost or edited.
// All fields are plain scalars (no map[string]any) to guarantee
// deterministic json.Marshal field order for reproducible hashing.
type Entry struct {
	Timestamp     string `json:"ts"`
	TraceID       string `json:"trace_id"`
	SpecName      string `json:"spec_name"`
	VerdictStatus string `json:"verdict_status"`
	PrimaryCode   string `json:"primary_code,omitempty"`
	WitnessIndex  int    `json:"witness_index,omitempty"`
	PolicyHash    string `json:"policy_hash"`
	PrevHash      string `json:"prev_hash"`
}
