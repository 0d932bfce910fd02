// Package budget tracks the orchestrator's wall-clock ceilings on a
// subprocess run and on the shrinker's search loop. Per-trace call and
// token thresholds are the contract monitor's own concern
// (internal/contract's budgets stage); this package only covers the
// timeouts the orchestrator enforces around a subprocess it spawns.
package budget

import "time"

// Config names the wall-clock ceilings for one spec evaluation.
type Config struct {
	// RunTimeout bounds the agent subprocess. Zero means unbounded.
	RunTimeout time.Duration `yaml:"run_timeout"`
	// ShrinkMaxSeconds bounds the counterexample shrinker's search.
	// Zero means unbounded.
	ShrinkMaxSeconds time.Duration `yaml:"shrink_max_seconds"`
	// ShrinkMaxIterations bounds the shrinker's reduction attempts.
	// Zero means unbounded.
	ShrinkMaxIterations int `yaml:"shrink_max_iterations"`
}

// HasRunTimeout reports whether the subprocess run is time-bounded.
func (c Config) HasRunTimeout() bool {
	return c.RunTimeout > 0
}
