// Package telemetry exposes the engine's prometheus metrics: run
// counts, verdict outcomes, shrinker iterations, and evaluation
// latency, all labeled by spec name so a multi-spec deployment can be
// broken down per spec on a dashboard.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter/gauge/histogram the orchestrator and
// httpapi packages emit against.
type Metrics struct {
	RunDuration *prometheus.HistogramVec

	RunsTotal     *prometheus.CounterVec
	VerdictsTotal *prometheus.CounterVec

	ShrinkerIterations *prometheus.HistogramVec
	ShrinkerReductions *prometheus.CounterVec

	FixtureExhaustedTotal *prometheus.CounterVec
	NetworkBlockedTotal   *prometheus.CounterVec
}

// New builds a Metrics registered against reg. A nil reg is the null
// object case: metrics are still recorded against a private registry
// nothing scrapes, so callers never need a nil check before recording.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RunDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trajectly_run_duration_seconds",
			Help:    "Wall-clock duration of one spec evaluation, from subprocess spawn to verdict.",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"spec_name"}),

		RunsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "trajectly_runs_total",
			Help: "Total number of spec evaluations attempted.",
		}, []string{"spec_name", "mode"}),

		VerdictsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "trajectly_verdicts_total",
			Help: "Total number of resolved verdicts by status and primary violation class.",
		}, []string{"spec_name", "status", "class"}),

		ShrinkerIterations: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trajectly_shrinker_iterations",
			Help:    "Number of reverify calls the counterexample shrinker made per FAIL verdict.",
			Buckets: prometheus.LinearBuckets(0, 10, 10),
		}, []string{"spec_name"}),

		ShrinkerReductions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "trajectly_shrinker_reductions_total",
			Help: "Total number of shrinker runs that accepted a smaller counterexample.",
		}, []string{"spec_name"}),

		FixtureExhaustedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "trajectly_fixture_exhausted_total",
			Help: "Total number of FIXTURE_EXHAUSTED violations observed during replay.",
		}, []string{"spec_name"}),

		NetworkBlockedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "trajectly_network_blocked_total",
			Help: "Total number of outbound calls the offline replay guard refused.",
		}, []string{"spec_name", "host"}),
	}
}
