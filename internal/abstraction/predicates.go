package abstraction

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/trajectly/trajectly/internal/event"
	"github.com/trajectly/trajectly/internal/redact"
)

// Predicates is the minimum derived-value set α computes over a
// normalized trace, alongside tokens and the skeleton.
type Predicates struct {
	PII             []redact.Match
	Price           float64
	RefundCount     int
	ToolCallsTotal  int
	ToolCallsByName map[string]int
	Domains         []string
}

// Compute derives Predicates from a normalized trace. It performs no
// I/O and reads no clock; iteration over the trace's tool-call names
// is by seq order, and the resulting Domains set is sorted. Every read
// goes through each event's redacted payload view, never its raw
// Payload, so PII extraction never sees content redaction was meant to
// hide.
func Compute(trace []event.Normalized) Predicates {
	p := Predicates{ToolCallsByName: map[string]int{}}
	domainSet := map[string]bool{}

	for _, ev := range trace {
		payload := redactedView(ev)
		for _, text := range PII(stringLeaves(payload)) {
			p.PII = append(p.PII, text)
		}
		p.Price += sumNumericFields(payload, "price", "amount")

		if ev.Kind != event.KindToolCall {
			continue
		}
		name, _ := payload["tool_name"].(string)
		p.ToolCallsTotal++
		p.ToolCallsByName[name]++
		if strings.Contains(strings.ToLower(name), "refund") {
			p.RefundCount++
		}
		for _, d := range domainsIn(payload) {
			domainSet[d] = true
		}
	}

	for d := range domainSet {
		p.Domains = append(p.Domains, d)
	}
	sort.Strings(p.Domains)
	return p
}

// PII scans a batch of strings for personally-identifying or
// credential-shaped content: emails, key=value credentials,
// bare hostnames, and bearer/provider API key shapes, the same
// outbound-string scanning machinery the data-leak contract check
// needs.
func PII(texts []string) []redact.Match {
	var out []redact.Match
	for _, text := range texts {
		for _, m := range redact.Scan(text) {
			switch m.Type {
			case redact.PatternEmail, redact.PatternCred, redact.PatternHost, redact.PatternAPIKey:
				out = append(out, m)
			}
		}
	}
	return out
}

// redactedView returns ev's redacted payload view if one was computed
// (the case for every event that passed through event.Normalize), and
// falls back to the raw Payload only for events built without going
// through Normalize, such as hand-assembled fixtures in tests. On top
// of event.Normalize's regex-based content redaction it applies a
// structural pass keyed on field name, so a tool-call argument literally
// named "api_key" or "password" is masked even when its value doesn't
// happen to match a credential-shaped regex.
func redactedView(ev event.Normalized) map[string]any {
	payload := ev.Payload
	if ev.RedactedPayload != nil {
		payload = ev.RedactedPayload
	}
	masked, ok := redact.RedactKeysAuto(payload, nil).(map[string]any)
	if !ok {
		return payload
	}
	return masked
}

func stringLeaves(v any) []string {
	var out []string
	switch val := v.(type) {
	case string:
		out = append(out, val)
	case map[string]any:
		for _, vv := range val {
			out = append(out, stringLeaves(vv)...)
		}
	case []any:
		for _, vv := range val {
			out = append(out, stringLeaves(vv)...)
		}
	}
	return out
}

func sumNumericFields(v any, keys ...string) float64 {
	var total float64
	switch val := v.(type) {
	case map[string]any:
		for k, vv := range val {
			for _, key := range keys {
				if k == key {
					if f, ok := asFloat(vv); ok {
						total += f
					}
				}
			}
			total += sumNumericFields(vv, keys...)
		}
	case []any:
		for _, vv := range val {
			total += sumNumericFields(vv, keys...)
		}
	}
	return total
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// DomainsIn extracts every domain named in v's network-shaped fields
// ("url", "domain", "host"). Exported so the contract monitor's
// network stage can locate which event first introduced a domain.
func DomainsIn(v any) []string {
	return domainsIn(v)
}

func domainsIn(v any) []string {
	var out []string
	switch val := v.(type) {
	case map[string]any:
		for k, vv := range val {
			if s, ok := vv.(string); ok {
				switch k {
				case "domain", "host":
					out = append(out, s)
				case "url":
					if d := hostOf(s); d != "" {
						out = append(out, d)
					}
				}
			}
			out = append(out, domainsIn(vv)...)
		}
	case []any:
		for _, vv := range val {
			out = append(out, domainsIn(vv)...)
		}
	}
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
