package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestObserveStepRecordsCountAndDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPropagatorCollector(reg)
	if err != nil {
		t.Fatalf("NewPropagatorCollector: %v", err)
	}

	collector.ObserveStep("half_step", 3*time.Millisecond)
	collector.ObserveStep("half_step", 4*time.Millisecond)
	collector.ObserveStep("freeprop", 1*time.Millisecond)

	if got := testutil.ToFloat64(collector.StepsTotal.WithLabelValues("half_step")); got != 2 {
		t.Fatalf("propagation_steps_total{step=half_step} = %v, want 2", got)
	}
	if count := histogramSampleCount(t, reg, "propagation_step_duration_seconds", map[string]string{
		"step": "freeprop",
	}); count != 1 {
		t.Fatalf("propagation_step_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestGaugesTrackSimulationState(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPropagatorCollector(reg)
	if err != nil {
		t.Fatalf("NewPropagatorCollector: %v", err)
	}

	collector.SetSimulationTime(1.25)
	collector.SetParticleNumber(0, 0.998)
	collector.IncSnapshots()
	collector.IncSnapshots()

	if got := testutil.ToFloat64(collector.SimulationTime); got != 1.25 {
		t.Fatalf("simulation_time = %v, want 1.25", got)
	}
	if got := testutil.ToFloat64(collector.ParticleNumber.WithLabelValues("0")); got != 0.998 {
		t.Fatalf("particle_number{component=0} = %v, want 0.998", got)
	}
	if got := testutil.ToFloat64(collector.SnapshotsWritten); got != 2 {
		t.Fatalf("snapshots_written_total = %v, want 2", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *PropagatorCollector
	c.ObserveStep("half_step", time.Millisecond)
	c.SetSimulationTime(1)
	c.SetParticleNumber(0, 1)
	c.IncSnapshots()
	if c.Handler() == nil {
		t.Fatalf("nil collector should still return a handler")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPropagatorCollector(reg)
	if err != nil {
		t.Fatalf("NewPropagatorCollector: %v", err)
	}
	collector.SetSimulationTime(2.5)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "simulation_time 2.5") {
		t.Fatalf("metrics output missing simulation_time gauge:\n%s", body)
	}
}

func TestDuplicateRegistrationReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPropagatorCollector(reg)
	if err != nil {
		t.Fatalf("first NewPropagatorCollector: %v", err)
	}
	second, err := NewPropagatorCollector(reg)
	if err != nil {
		t.Fatalf("second NewPropagatorCollector: %v", err)
	}

	first.ObserveStep("full_step", time.Millisecond)
	second.ObserveStep("full_step", time.Millisecond)

	if got := testutil.ToFloat64(first.StepsTotal.WithLabelValues("full_step")); got != 2 {
		t.Fatalf("shared counter = %v, want 2", got)
	}
}

func histogramSampleCount(t *testing.T, g prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()
	families, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if !matchLabels(m, labels) {
				continue
			}
			return m.GetHistogram().GetSampleCount()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func matchLabels(m *dto.Metric, labels map[string]string) bool {
	got := map[string]string{}
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range labels {
		if got[k] != v {
			return false
		}
	}
	return true
}

