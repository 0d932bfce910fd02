package specconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a spec file at path. Unlike the operator
// config files in internal/redact and internal/denylist, a spec is a
// required input: a missing or malformed file is always an error,
// never silently defaulted.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("specconfig: read %s: %w", path, err)
	}

	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("specconfig: parse %s: %w", path, err)
	}

	if s.SchemaVersion == "" {
		s.SchemaVersion = "v1"
	}
	if s.FixturePolicy == "" {
		s.FixturePolicy = FixtureByHash
	}
	if s.Replay.Mode == "" {
		s.Replay.Mode = ReplayOffline
	}
	if s.Replay.LLMMatchMode == "" {
		s.Replay.LLMMatchMode = MatchSignature
	}
	if s.Replay.ToolMatchMode == "" {
		s.Replay.ToolMatchMode = MatchArgsSignature
	}
	if s.Refinement.Mode == "" {
		s.Refinement.Mode = RefinementSkeleton
	}
	if s.Contracts.Network.Default == "" {
		s.Contracts.Network.Default = "allow"
	}

	switch s.Refinement.Mode {
	case RefinementNone, RefinementSkeleton, RefinementStrict:
	default:
		return nil, fmt.Errorf("specconfig: %s: unknown refinement.mode %q", path, s.Refinement.Mode)
	}
	switch s.FixturePolicy {
	case FixtureByHash, FixtureByIndex:
	default:
		return nil, fmt.Errorf("specconfig: %s: unknown fixture_policy %q", path, s.FixturePolicy)
	}
	switch s.Replay.Mode {
	case ReplayOffline, ReplayOnline:
	default:
		return nil, fmt.Errorf("specconfig: %s: unknown replay.mode %q", path, s.Replay.Mode)
	}
	switch s.Contracts.Network.Default {
	case "allow", "deny":
	default:
		return nil, fmt.Errorf("specconfig: %s: contracts.network.default must be allow or deny, got %q", path, s.Contracts.Network.Default)
	}

	return &s, nil
}
