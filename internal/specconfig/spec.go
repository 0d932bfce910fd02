// Package specconfig loads and resolves a Trajectly spec file: the
// declarative document naming a trajectory's command, allowed tools,
// budgets, refinement mode and contract rules. Parsing/merging spec
// files is ambient wiring around the core, not part of it: once
// resolved, a *Spec is treated by internal/contract and
// internal/refinement as an opaque, fully-resolved object.
package specconfig

import "github.com/trajectly/trajectly/internal/budget"

// RefinementMode names how strictly a candidate trajectory must
// embed the baseline skeleton.
type RefinementMode string

const (
	RefinementNone     RefinementMode = "none"
	RefinementSkeleton RefinementMode = "skeleton"
	RefinementStrict   RefinementMode = "strict"
)

// FixturePolicy names how fixture entries are keyed.
type FixturePolicy string

const (
	FixtureByHash  FixturePolicy = "by_hash"
	FixtureByIndex FixturePolicy = "by_index"
)

// ReplayMode names whether a run replays against recorded fixtures
// with the network blocked, or is allowed to reach live providers.
type ReplayMode string

const (
	ReplayOffline ReplayMode = "offline"
	ReplayOnline  ReplayMode = "online"
)

// MatchMode names how a fixture lookup consumes recorded entries.
type MatchMode string

const (
	MatchSignature     MatchMode = "signature_match"
	MatchArgsSignature MatchMode = "args_signature_match"
	MatchSequence      MatchMode = "sequence_match"
)

// PrecedencePair requires that Before has occurred at least once
// prior to the first occurrence of After.
type PrecedencePair struct {
	Before string `yaml:"before"`
	After  string `yaml:"after"`
}

// ToolsConfig governs which tools may be called and how many times.
type ToolsConfig struct {
	Allow           []string       `yaml:"allow"`
	Deny            []string       `yaml:"deny"`
	MaxCallsTotal   int            `yaml:"max_calls_total"`
	MaxCallsPerTool map[string]int `yaml:"max_calls_per_tool"`
}

// SequenceConfig governs ordering and multiplicity obligations over
// tool names observed anywhere in the candidate trace.
type SequenceConfig struct {
	Require       []string         `yaml:"require"`
	Forbid        []string         `yaml:"forbid"`
	RequireBefore []PrecedencePair `yaml:"require_before"`
	Eventually    []string         `yaml:"eventually"`
	Never         []string         `yaml:"never"`
	AtMostOnce    []string         `yaml:"at_most_once"`
}

// SideEffectsConfig governs write-tagged tool calls. WriteTools names
// the tools this spec considers side-effecting; the write-tool
// predicate is left to the caller, so the resolved spec carries the
// tag list explicitly rather than inferring it from tool names.
type SideEffectsConfig struct {
	DenyWriteTools bool     `yaml:"deny_write_tools"`
	WriteTools     []string `yaml:"write_tools"`
}

// NetworkConfig governs outbound domain access.
type NetworkConfig struct {
	Default      string   `yaml:"default"` // "allow" | "deny"
	AllowDomains []string `yaml:"allow_domains"`
}

// DataLeakConfig governs PII scanning of outbound content.
type DataLeakConfig struct {
	DenyPIIOutbound bool     `yaml:"deny_pii_outbound"`
	OutboundKinds   []string `yaml:"outbound_kinds"` // subset of {TOOL_CALL, LLM_REQUEST}
}

// DenylistConfig opts a spec into the hardcoded resource-pattern
// denylist (internal/denylist): URL/file/command substrings checked
// against every tool call's argument strings, independent of
// contracts.tools' name-based allow/deny lists. Disabled by default —
// a spec that never sets denylist.enabled gets exactly the name-based
// tool_policy check and nothing more.
type DenylistConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ArgSchema is a per-tool argument shape check.
type ArgSchema struct {
	Required []string            `yaml:"required"`
	Type     map[string]string   `yaml:"type"`
	Min      map[string]float64  `yaml:"min"`
	Max      map[string]float64  `yaml:"max"`
	Enum     map[string][]string `yaml:"enum"`
	Regex    map[string]string   `yaml:"regex"`
}

// ContractsConfig groups every declared obligation the contract
// monitor evaluates, in the fixed family order it evaluates them.
type ContractsConfig struct {
	Tools       ToolsConfig          `yaml:"tools"`
	Sequence    SequenceConfig       `yaml:"sequence"`
	SideEffects SideEffectsConfig    `yaml:"side_effects"`
	Network     NetworkConfig        `yaml:"network"`
	DataLeak    DataLeakConfig       `yaml:"data_leak"`
	Args        map[string]ArgSchema `yaml:"args"`
	Denylist    DenylistConfig       `yaml:"denylist"`
}

// BudgetThresholds are checked independently of contracts.tools'
// call-count budgets: they cover wall-clock latency and token spend
// in addition to a second, threshold-flavored tool-call cap.
type BudgetThresholds struct {
	MaxLatencyMs int64 `yaml:"max_latency_ms"`
	MaxToolCalls int   `yaml:"max_tool_calls"`
	MaxTokens    int64 `yaml:"max_tokens"`
}

// RefinementConfig governs the S_b ⊑ S_n check.
type RefinementConfig struct {
	Mode                      RefinementMode `yaml:"mode"`
	AllowExtraLLMSteps        bool           `yaml:"allow_extra_llm_steps"`
	AllowExtraTools           []string       `yaml:"allow_extra_tools"`
	AllowExtraSideEffectTools []string       `yaml:"allow_extra_side_effect_tools"`
	AllowNewToolNames         bool           `yaml:"allow_new_tool_names"`
	IgnoreCallTools           []string       `yaml:"ignore_call_tools"`
}

// ReplayConfig governs how a replay resolves fixtures and whether the
// network is blocked.
type ReplayConfig struct {
	Mode           ReplayMode `yaml:"mode"`
	StrictSequence bool       `yaml:"strict_sequence"`
	LLMMatchMode   MatchMode  `yaml:"llm_match_mode"`
	ToolMatchMode  MatchMode  `yaml:"tool_match_mode"`
}

// Spec is the fully-resolved, immutable spec object the core
// consumes. SchemaVersion is carried opaquely and never interpreted,
// per the Open Question decision recorded in the design ledger.
type Spec struct {
	SchemaVersion string            `yaml:"schema_version"`
	Name          string            `yaml:"name"`
	Command       []string          `yaml:"command"`
	Workdir       string            `yaml:"workdir"`
	Env           map[string]string `yaml:"env"`

	FixturePolicy FixturePolicy `yaml:"fixture_policy"`
	Replay        ReplayConfig  `yaml:"replay"`

	Refinement RefinementConfig `yaml:"refinement"`
	Contracts  ContractsConfig  `yaml:"contracts"`

	BudgetThresholds BudgetThresholds `yaml:"budget_thresholds"`

	// Budget names the spec's default wall-clock ceilings for a
	// record/run subprocess and the shrinker's search loop. The CLI's
	// --timeout/--shrink-seconds/--shrink-iterations flags override
	// these per invocation; a spec that sets none of them runs under
	// the CLI's own hardcoded defaults.
	Budget budget.Config `yaml:"budget"`

	Redact []string `yaml:"redact"`
}
