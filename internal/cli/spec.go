package cli

import (
	"fmt"
	"time"

	"github.com/trajectly/trajectly/internal/specconfig"
)

const defaultTimeout = 2 * time.Minute

// resolveTimeout returns flagValue if the user set it explicitly,
// otherwise the spec's own budget.run_timeout, otherwise
// defaultTimeout. A cobra duration flag left unset arrives as zero,
// the same sentinel an unset spec field carries.
func resolveTimeout(flagValue, specValue time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	if specValue > 0 {
		return specValue
	}
	return defaultTimeout
}

const defaultShrinkSeconds = 5

func resolveShrinkSeconds(flagValue float64, specValue time.Duration) float64 {
	if flagValue > 0 {
		return flagValue
	}
	if specValue > 0 {
		return specValue.Seconds()
	}
	return defaultShrinkSeconds
}

const defaultShrinkIterations = 200

func resolveShrinkIterations(flagValue, specValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	if specValue > 0 {
		return specValue
	}
	return defaultShrinkIterations
}

// loadSpec reads and resolves the spec file at path, the first step
// every subcommand that touches a spec (record, run) shares.
func loadSpec(path string) (*specconfig.Resolved, error) {
	s, err := specconfig.Load(path)
	if err != nil {
		return nil, err
	}
	resolved, err := specconfig.Resolve(s)
	if err != nil {
		return nil, fmt.Errorf("cli: resolve %s: %w", path, err)
	}
	return resolved, nil
}
