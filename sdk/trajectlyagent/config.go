// Package trajectlyagent is the instrumentation sink an agent process
// links against so its trajectory can be captured, replayed, and
// checked. The orchestrator spawns the agent as a subprocess and
// configures it entirely through environment variables, since it has
// no other channel into a separately-exec'd process: this package
// reads that configuration at LoadConfig, then installs its own fixture
// player/recorder and replay guard in-process, because those can only
// meaningfully patch the process that actually makes the network
// calls.
package trajectlyagent

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/trajectly/trajectly/internal/specconfig"
)

const (
	envMode              = "TRAJECTLY_MODE"
	envRunID             = "TRAJECTLY_RUN_ID"
	envSpecName          = "TRAJECTLY_SPEC_NAME"
	envFixturePath       = "TRAJECTLY_FIXTURE_PATH"
	envReplayMode        = "TRAJECTLY_REPLAY_MODE"
	envStrictSequence    = "TRAJECTLY_STRICT_SEQUENCE"
	envLLMMatchMode      = "TRAJECTLY_LLM_MATCH_MODE"
	envToolMatchMode     = "TRAJECTLY_TOOL_MATCH_MODE"
	envAllowDomains      = "TRAJECTLY_ALLOW_DOMAINS"
	envNormalizerVersion = "TRAJECTLY_NORMALIZER_VERSION"

	ModeRecord = "record"
	ModeReplay = "replay"
)

// Config is the subset of a spec's replay policy the orchestrator
// passes down to the subprocess. Its field names mirror
// internal/orchestrator's spawnConfig; the two must stay in lockstep
// since the orchestrator is the only writer of this environment and
// this package is the only reader.
type Config struct {
	Mode              string
	RunID             string
	SpecName          string
	FixturePath       string
	ReplayMode        specconfig.ReplayMode
	StrictSequence    bool
	LLMMatchMode      specconfig.MatchMode
	ToolMatchMode     specconfig.MatchMode
	AllowDomains      []string
	NormalizerVersion string
}

// LoadConfig reads the environment the orchestrator sets on this
// process before spawning it. It fails closed: a missing mode or spec
// name means the binary was not launched by the orchestrator, and
// running uninstrumented would silently defeat the whole point of
// linking this package.
func LoadConfig() (Config, error) {
	cfg := Config{
		Mode:              os.Getenv(envMode),
		RunID:             os.Getenv(envRunID),
		SpecName:          os.Getenv(envSpecName),
		FixturePath:       os.Getenv(envFixturePath),
		ReplayMode:        specconfig.ReplayMode(os.Getenv(envReplayMode)),
		LLMMatchMode:      specconfig.MatchMode(os.Getenv(envLLMMatchMode)),
		ToolMatchMode:     specconfig.MatchMode(os.Getenv(envToolMatchMode)),
		NormalizerVersion: os.Getenv(envNormalizerVersion),
	}
	if cfg.Mode != ModeRecord && cfg.Mode != ModeReplay {
		return Config{}, fmt.Errorf("trajectlyagent: %s must be %q or %q, got %q", envMode, ModeRecord, ModeReplay, cfg.Mode)
	}
	if cfg.SpecName == "" {
		return Config{}, fmt.Errorf("trajectlyagent: %s is required", envSpecName)
	}
	if cfg.FixturePath == "" {
		return Config{}, fmt.Errorf("trajectlyagent: %s is required", envFixturePath)
	}
	if strict := os.Getenv(envStrictSequence); strict != "" {
		b, err := strconv.ParseBool(strict)
		if err != nil {
			return Config{}, fmt.Errorf("trajectlyagent: %s: %w", envStrictSequence, err)
		}
		cfg.StrictSequence = b
	}
	if domains := os.Getenv(envAllowDomains); domains != "" {
		cfg.AllowDomains = strings.Split(domains, ",")
	}
	return cfg, nil
}
