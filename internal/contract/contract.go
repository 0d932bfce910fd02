// Package contract implements Φ, the contract monitor: a fixed-order
// sequence of independent checks run over a candidate trajectory.
package contract

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/trajectly/trajectly/internal/abstraction"
	"github.com/trajectly/trajectly/internal/event"
	"github.com/trajectly/trajectly/internal/redact"
	"github.com/trajectly/trajectly/internal/specconfig"
	"github.com/trajectly/trajectly/internal/verdict"
)

// Violation codes, one family per group, matching the taxonomy a
// report consumer matches on.
const (
	CodeToolDenied      = "CONTRACT_TOOL_DENIED"
	CodeToolNotAllowed  = "CONTRACT_TOOL_NOT_ALLOWED"
	CodeMaxCallsTotal   = "CONTRACT_MAX_CALLS_TOTAL_EXCEEDED"
	CodeMaxCallsPerTool = "CONTRACT_MAX_CALLS_PER_TOOL_EXCEEDED"
	CodeBudgetLatency   = "BUDGET_LATENCY_EXCEEDED"
	CodeBudgetToolCalls = "BUDGET_TOOL_CALLS_EXCEEDED"
	CodeBudgetTokens    = "BUDGET_TOKENS_EXCEEDED"
	CodeSequenceMissing = "CONTRACT_SEQUENCE_REQUIRED_MISSING"
	CodeSequenceForbid  = "CONTRACT_SEQUENCE_NEVER_SEEN"
	CodeSequenceOnce    = "CONTRACT_SEQUENCE_AT_MOST_ONCE_EXCEEDED"
	CodeRequireBefore   = "SEQUENCE_REQUIRE_BEFORE"
	CodeWriteToolDenied = "CONTRACT_WRITE_TOOL_DENIED"
	CodeNetworkDenied   = "CONTRACT_NETWORK_DENIED"
	CodeDataLeakPII     = "CONTRACT_DATA_LEAK_PII"
	CodeArgRequired     = "CONTRACT_ARG_REQUIRED_MISSING"
	CodeArgType         = "CONTRACT_ARG_TYPE"
	CodeArgRange        = "CONTRACT_ARG_RANGE"
	CodeArgEnum         = "CONTRACT_ARG_ENUM"
	CodeArgRegex        = "CONTRACT_ARG_REGEX"

	// CodeResourceDenylisted is distinct from CodeToolDenied: it fires
	// from contracts.denylist, the opt-in resource-pattern check, never
	// from contracts.tools' name-based deny list.
	CodeResourceDenylisted = "CONTRACT_RESOURCE_DENYLISTED"
)

// Monitor evaluates a resolved spec's contract rules against a
// candidate trajectory.
type Monitor struct {
	spec *specconfig.Resolved
}

// New builds a Monitor bound to spec.
func New(spec *specconfig.Resolved) *Monitor {
	return &Monitor{spec: spec}
}

// stage is one independent check in Φ's fixed evaluation order.
type stage func(trace []event.Normalized, spec *specconfig.Resolved) []verdict.Violation

// order is Φ's fixed evaluation order: tool policy, budgets, sequence,
// side effects, network, data leak, then argument schema. Every
// Evaluate call runs every stage in exactly this order; evaluation
// never short-circuits.
var order = []stage{
	toolPolicyStage,
	budgetsStage,
	sequenceStage,
	sideEffectStage,
	networkStage,
	dataLeakStage,
	argsStage,
}

// Evaluate runs every stage over trace and returns the union of
// violations found, in stage order.
func (m *Monitor) Evaluate(trace []event.Normalized) []verdict.Violation {
	var out []verdict.Violation
	for _, s := range order {
		out = append(out, s(trace, m.spec)...)
	}
	return out
}

func toolCallsInOrder(trace []event.Normalized) []event.Normalized {
	var out []event.Normalized
	for _, ev := range trace {
		if ev.Kind == event.KindToolCall {
			out = append(out, ev)
		}
	}
	return out
}

func toolNameOf(ev event.Normalized) string {
	name, _ := ev.Payload["tool_name"].(string)
	return name
}

// redactedView returns ev's redacted payload view for the two stages
// that scan outbound content (network, data leak) rather than tool
// identity, falling back to the raw Payload for events built without
// going through event.Normalize. It layers redact's structural,
// field-name-keyed masking on top of event.Normalize's regex-based
// content redaction, so a tool-call argument named "api_key" is masked
// even when its value isn't credential-shaped.
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

func runFinishedIndex(trace []event.Normalized) int {
	for _, ev := range trace {
		if ev.EventType == event.TypeRunFinished {
			return ev.Seq
		}
	}
	if len(trace) > 0 {
		return trace[len(trace)-1].Seq
	}
	return 0
}

// toolPolicyStage denies by name (deny/allow-list) and, when
// contracts.denylist.enabled opts in, by the standalone resource
// denylist matched against every call argument. A spec that never
// enables contracts.denylist gets exactly the name-based check.
func toolPolicyStage(trace []event.Normalized, spec *specconfig.Resolved) []verdict.Violation {
	deny := toSet(spec.Contracts.Tools.Deny)
	allow := toSet(spec.Contracts.Tools.Allow)

	var out []verdict.Violation
	for _, ev := range toolCallsInOrder(trace) {
		name := toolNameOf(ev)
		if deny[name] {
			out = append(out, verdict.Violation{
				Class:      verdict.ClassContract,
				Code:       CodeToolDenied,
				EventIndex: ev.Seq,
				Message:    fmt.Sprintf("tool %q is denied", name),
			})
			continue
		}
		if len(allow) > 0 && !allow[name] {
			out = append(out, verdict.Violation{
				Class:      verdict.ClassContract,
				Code:       CodeToolNotAllowed,
				EventIndex: ev.Seq,
				Message:    fmt.Sprintf("tool %q is not on the allowlist", name),
			})
			continue
		}
		if spec.Denylist == nil {
			continue
		}
		for _, resource := range resourcesOf(ev.Payload["input"]) {
			if blocked, reason := spec.Denylist.IsBlocked(resource, name); blocked {
				out = append(out, verdict.Violation{
					Class:      verdict.ClassContract,
					Code:       CodeResourceDenylisted,
					EventIndex: ev.Seq,
					Message:    fmt.Sprintf("tool %q call denied by resource denylist", name),
					Detail:     reason,
				})
				break
			}
		}
	}
	return out
}

// resourcesOf collects the string leaf values of a tool call's input,
// each a candidate resource (URL, path, command) to check against the
// denylist.
func resourcesOf(input any) []string {
	return stringsIn(input)
}

// budgetsStage tracks running tool-call counts against
// contracts.tools' totals, and budget_thresholds independently:
// latency at run_finished, the tool-call count at the event that
// crosses it, and cumulative token spend at the LLM return that
// crosses it.
func budgetsStage(trace []event.Normalized, spec *specconfig.Resolved) []verdict.Violation {
	var out []verdict.Violation
	tools := spec.Contracts.Tools

	total := 0
	perTool := map[string]int{}
	exceededTotal := false
	exceededPerTool := map[string]bool{}
	for _, ev := range toolCallsInOrder(trace) {
		total++
		name := toolNameOf(ev)
		perTool[name]++

		if tools.MaxCallsTotal > 0 && !exceededTotal && total > tools.MaxCallsTotal {
			exceededTotal = true
			out = append(out, verdict.Violation{
				Class:      verdict.ClassContract,
				Code:       CodeMaxCallsTotal,
				EventIndex: ev.Seq,
				Message:    fmt.Sprintf("tool call count %d exceeds max_calls_total %d", total, tools.MaxCallsTotal),
			})
		}
		if limit, ok := tools.MaxCallsPerTool[name]; ok && limit > 0 && !exceededPerTool[name] && perTool[name] > limit {
			exceededPerTool[name] = true
			out = append(out, verdict.Violation{
				Class:      verdict.ClassContract,
				Code:       CodeMaxCallsPerTool,
				EventIndex: ev.Seq,
				Message:    fmt.Sprintf("tool %q call count %d exceeds max_calls_per_tool %d", name, perTool[name], limit),
			})
		}
	}

	bt := spec.BudgetThresholds
	if bt.MaxLatencyMs > 0 {
		for _, ev := range trace {
			if ev.EventType == event.TypeRunFinished && int64(ev.RelMS) > bt.MaxLatencyMs {
				out = append(out, verdict.Violation{
					Class:      verdict.ClassContract,
					Code:       CodeBudgetLatency,
					EventIndex: ev.Seq,
					Message:    fmt.Sprintf("run latency %.0fms exceeds max_latency_ms %d", ev.RelMS, bt.MaxLatencyMs),
				})
			}
		}
	}
	if bt.MaxToolCalls > 0 {
		count := 0
		for _, ev := range toolCallsInOrder(trace) {
			count++
			if count > bt.MaxToolCalls {
				out = append(out, verdict.Violation{
					Class:      verdict.ClassContract,
					Code:       CodeBudgetToolCalls,
					EventIndex: ev.Seq,
					Message:    fmt.Sprintf("tool call count %d exceeds max_tool_calls %d", count, bt.MaxToolCalls),
				})
				break
			}
		}
	}
	if bt.MaxTokens > 0 {
		var tokens int64
		for _, ev := range trace {
			if ev.Kind != event.KindLLMResponse {
				continue
			}
			usage, ok := ev.Payload["usage"].(map[string]any)
			if !ok {
				continue
			}
			tokens += toInt64(usage["prompt_tokens"]) + toInt64(usage["completion_tokens"])
			if tokens > bt.MaxTokens {
				out = append(out, verdict.Violation{
					Class:      verdict.ClassContract,
					Code:       CodeBudgetTokens,
					EventIndex: ev.Seq,
					Message:    fmt.Sprintf("cumulative tokens %d exceeds max_tokens %d", tokens, bt.MaxTokens),
				})
				break
			}
		}
	}

	return out
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case json.Number:
		f, _ := n.Float64()
		return int64(f)
	case float64:
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}

// sequenceStage implements require/eventually, forbid/never,
// require_before and at_most_once over the candidate's tool calls, in
// ascending seq order.
func sequenceStage(trace []event.Normalized, spec *specconfig.Resolved) []verdict.Violation {
	seq := spec.Contracts.Sequence
	calls := toolCallsInOrder(trace)

	var out []verdict.Violation
	seen := map[string]bool{}
	firstSeq := map[string]int{}
	counts := map[string]int{}
	forbidden := toSet(append(append([]string{}, seq.Forbid...), seq.Never...))
	forbiddenHit := map[string]bool{}
	atMostOnce := toSet(seq.AtMostOnce)
	atMostOnceHit := map[string]bool{}

	for _, ev := range calls {
		name := toolNameOf(ev)
		if !seen[name] {
			seen[name] = true
			firstSeq[name] = ev.Seq
		}
		counts[name]++

		if forbidden[name] && !forbiddenHit[name] {
			forbiddenHit[name] = true
			out = append(out, verdict.Violation{
				Class:      verdict.ClassContract,
				Code:       CodeSequenceForbid,
				EventIndex: ev.Seq,
				Message:    fmt.Sprintf("tool %q is forbidden but was called", name),
			})
		}
		if atMostOnce[name] && counts[name] == 2 && !atMostOnceHit[name] {
			atMostOnceHit[name] = true
			out = append(out, verdict.Violation{
				Class:      verdict.ClassContract,
				Code:       CodeSequenceOnce,
				EventIndex: ev.Seq,
				Message:    fmt.Sprintf("tool %q called more than once", name),
			})
		}
	}

	required := toSet(append(append([]string{}, seq.Require...), seq.Eventually...))
	finishedAt := runFinishedIndex(trace)
	var missing []string
	for name := range required {
		if !seen[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	for _, name := range missing {
		out = append(out, verdict.Violation{
			Class:      verdict.ClassContract,
			Code:       CodeSequenceMissing,
			EventIndex: finishedAt,
			Message:    fmt.Sprintf("required tool %q was never called", name),
		})
	}

	for _, pair := range seq.RequireBefore {
		afterSeq, sawAfter := firstSeq[pair.After]
		if !sawAfter {
			continue
		}
		if beforeSeq, sawBefore := firstSeq[pair.Before]; !sawBefore || beforeSeq > afterSeq {
			out = append(out, verdict.Violation{
				Class:      verdict.ClassContract,
				Code:       CodeRequireBefore,
				EventIndex: afterSeq,
				Message:    fmt.Sprintf("%q must precede the first %q", pair.Before, pair.After),
			})
		}
	}

	return out
}

// sideEffectStage denies calls to any tool tagged write_tools when
// deny_write_tools is set.
func sideEffectStage(trace []event.Normalized, spec *specconfig.Resolved) []verdict.Violation {
	if !spec.Contracts.SideEffects.DenyWriteTools {
		return nil
	}
	writeTools := toSet(spec.Contracts.SideEffects.WriteTools)

	var out []verdict.Violation
	for _, ev := range toolCallsInOrder(trace) {
		name := toolNameOf(ev)
		if writeTools[name] {
			out = append(out, verdict.Violation{
				Class:      verdict.ClassContract,
				Code:       CodeWriteToolDenied,
				EventIndex: ev.Seq,
				Message:    fmt.Sprintf("write tool %q is denied", name),
			})
		}
	}
	return out
}

// networkStage denies outbound events naming a domain not in
// allow_domains when default=deny.
func networkStage(trace []event.Normalized, spec *specconfig.Resolved) []verdict.Violation {
	if spec.Contracts.Network.Default != "deny" {
		return nil
	}
	allowed := toSet(spec.Contracts.Network.AllowDomains)

	var out []verdict.Violation
	for _, ev := range trace {
		if ev.Kind != event.KindToolCall && ev.Kind != event.KindLLMRequest {
			continue
		}
		for _, domain := range abstraction.DomainsIn(redactedView(ev)) {
			if !allowed[domain] {
				out = append(out, verdict.Violation{
					Class:      verdict.ClassContract,
					Code:       CodeNetworkDenied,
					EventIndex: ev.Seq,
					Message:    fmt.Sprintf("outbound domain %q is not allowed", domain),
				})
			}
		}
	}
	return out
}

// dataLeakStage scans outbound strings on events in outbound_kinds
// for PII, emitting on the first match.
func dataLeakStage(trace []event.Normalized, spec *specconfig.Resolved) []verdict.Violation {
	dl := spec.Contracts.DataLeak
	if !dl.DenyPIIOutbound {
		return nil
	}
	kinds := toSet(dl.OutboundKinds)
	if len(kinds) == 0 {
		kinds = map[string]bool{string(event.KindToolCall): true, string(event.KindLLMRequest): true}
	}

	for _, ev := range trace {
		if !kinds[string(ev.Kind)] {
			continue
		}
		if matches := abstraction.PII(stringsIn(redactedView(ev))); len(matches) > 0 {
			return []verdict.Violation{{
				Class:      verdict.ClassContract,
				Code:       CodeDataLeakPII,
				EventIndex: ev.Seq,
				Message:    fmt.Sprintf("outbound %s carries PII-shaped content", ev.Kind),
				Detail:     string(matches[0].Type),
			}}
		}
	}
	return nil
}

// argsStage validates each tool call's input against the schema
// declared for its tool name, if any.
func argsStage(trace []event.Normalized, spec *specconfig.Resolved) []verdict.Violation {
	if len(spec.Contracts.Args) == 0 {
		return nil
	}
	var out []verdict.Violation
	for _, ev := range toolCallsInOrder(trace) {
		name := toolNameOf(ev)
		schema, ok := spec.Contracts.Args[name]
		if !ok {
			continue
		}
		out = append(out, validateArgs(ev.Seq, kwargsOf(ev.Payload["input"]), schema)...)
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}

// stringsIn collects every string leaf value in v, for scanning
// outbound tool/LLM content for PII regardless of payload shape.
func stringsIn(v any) []string {
	var out []string
	switch val := v.(type) {
	case string:
		out = append(out, val)
	case map[string]any:
		for _, vv := range val {
			out = append(out, stringsIn(vv)...)
		}
	case []any:
		for _, vv := range val {
			out = append(out, stringsIn(vv)...)
		}
	}
	return out
}
