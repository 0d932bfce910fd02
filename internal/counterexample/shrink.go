package counterexample

import (
	"time"

	"github.com/trajectly/trajectly/internal/event"
	"github.com/trajectly/trajectly/internal/verdict"
)

// Reverify re-derives a verdict for a candidate trace. The shrinker
// treats this as a black box: it only needs the trace re-validated
// end to end, not which stage produced the failure.
type Reverify func(candidate []event.Normalized) verdict.Verdict

// Budget bounds how long the shrinker may keep trying reductions.
type Budget struct {
	MaxSeconds    float64
	MaxIterations int
}

func (b Budget) iterationsAllowed(n int) bool {
	if b.MaxIterations <= 0 {
		return true
	}
	return n < b.MaxIterations
}

// Result is the outcome of a Shrink call.
type Result struct {
	Trace      []event.Normalized
	Iterations int
	Reduced    bool
}

// Shrink runs a bounded ddmin-style delta-debugging pass over trace,
// looking for a smaller subsequence (any events may be dropped, not
// only trailing ones) that still fails with class/primaryCode.
// It never mutates events, only drops them; every candidate it accepts
// is re-validated through reverify before acceptance. If no reduction
// is accepted, the original trace is returned unchanged with
// Reduced=false.
func Shrink(trace []event.Normalized, class verdict.Class, primaryCode string, reverify Reverify, budget Budget) Result {
	current := trace
	deadline := time.Now().Add(time.Duration(budget.MaxSeconds * float64(time.Second)))
	hasDeadline := budget.MaxSeconds > 0
	iterations := 0
	exhausted := false

	fails := func(candidate []event.Normalized) bool {
		if !budget.iterationsAllowed(iterations) || (hasDeadline && time.Now().After(deadline)) {
			exhausted = true
			return false
		}
		iterations++
		v := reverify(candidate)
		return v.Status == verdict.StatusFail && v.Witness != nil &&
			v.Witness.Class == class && v.PrimaryCode == primaryCode
	}

	for !exhausted && len(current) > 1 {
		reduced, ok := ddminStep(current, fails, &exhausted)
		if !ok {
			break
		}
		current = reduced
	}

	return Result{
		Trace:      current,
		Iterations: iterations,
		Reduced:    len(current) < len(trace),
	}
}

// ddminStep attempts one round of halving/subdividing removal against
// trace, returning the first accepted smaller trace it finds. The
// reduction set is scoped to contiguous ranges that exclude
// run_started and every run_finished event: a range overlapping either
// is skipped rather than tried.
func ddminStep(trace []event.Normalized, fails func([]event.Normalized) bool, exhausted *bool) ([]event.Normalized, bool) {
	n := len(trace)
	protected := protectedIndices(trace)
	chunks := 2
	for chunks <= n {
		chunkSize := (n + chunks - 1) / chunks
		for start := 0; start < n; start += chunkSize {
			end := start + chunkSize
			if end > n {
				end = n
			}
			if rangeIsProtected(start, end, protected) {
				continue
			}
			candidate := withoutRange(trace, start, end)
			if len(candidate) == 0 {
				continue
			}
			if fails(candidate) {
				return candidate, true
			}
			if *exhausted {
				return nil, false
			}
		}
		chunks *= 2
	}
	return nil, false
}

// protectedIndices returns the trace indices ddminStep must never drop:
// run_started and run_finished events.
func protectedIndices(trace []event.Normalized) map[int]bool {
	protected := map[int]bool{}
	for i, ev := range trace {
		if ev.EventType == event.TypeRunStarted || ev.EventType == event.TypeRunFinished {
			protected[i] = true
		}
	}
	return protected
}

// rangeIsProtected reports whether [start, end) covers any protected
// index.
func rangeIsProtected(start, end int, protected map[int]bool) bool {
	for i := range protected {
		if i >= start && i < end {
			return true
		}
	}
	return false
}

// withoutRange returns a copy of trace with events [start, end)
// removed, preserving the remaining events' order.
func withoutRange(trace []event.Normalized, start, end int) []event.Normalized {
	out := make([]event.Normalized, 0, len(trace)-(end-start))
	out = append(out, trace[:start]...)
	out = append(out, trace[end:]...)
	return out
}
