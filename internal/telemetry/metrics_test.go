package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewWithNilRegistererDoesNotPanic(t *testing.T) {
	m := New(nil)
	m.RunsTotal.WithLabelValues("triage-agent", "run").Inc()
}

func TestVerdictsTotalIncrementsByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.VerdictsTotal.WithLabelValues("triage-agent", "fail", "CONTRACT").Inc()
	m.VerdictsTotal.WithLabelValues("triage-agent", "fail", "CONTRACT").Inc()
	m.VerdictsTotal.WithLabelValues("triage-agent", "pass", "").Inc()

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var found *dto.MetricFamily
	for _, mf := range metricFamilies {
		if mf.GetName() == "trajectly_verdicts_total" {
			found = mf
		}
	}
	if found == nil {
		t.Fatal("expected trajectly_verdicts_total to be registered")
	}
	if len(found.Metric) != 2 {
		t.Fatalf("expected 2 label combinations, got %d", len(found.Metric))
	}

	var failCount float64
	for _, metric := range found.Metric {
		for _, l := range metric.Label {
			if l.GetName() == "status" && l.GetValue() == "fail" {
				failCount = metric.Counter.GetValue()
			}
		}
	}
	if failCount != 2 {
		t.Errorf("expected fail count 2, got %v", failCount)
	}
}
