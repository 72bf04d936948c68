package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.PipesSizedTotal == nil {
		t.Error("PipesSizedTotal not initialized")
	}
	if r.ResizeIterations == nil {
		t.Error("ResizeIterations not initialized")
	}
	if r.SizingFailuresTotal == nil {
		t.Error("SizingFailuresTotal not initialized")
	}
	if r.AggregationOutcomes == nil {
		t.Error("AggregationOutcomes not initialized")
	}
	if r.ViolationsTotal == nil {
		t.Error("ViolationsTotal not initialized")
	}
	if r.NetworkComplianceRate == nil {
		t.Error("NetworkComplianceRate not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	// Should return the same instance
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordPipeSized(t *testing.T) {
	r := NewRegistry()

	r.RecordPipeSized("distribution_pipe", true, 2)
	r.RecordPipeSized("distribution_pipe", true, 1)
	r.RecordPipeSized("main_pipe", false, 5)

	counter, err := r.PipesSizedTotal.GetMetricWithLabelValues("distribution_pipe", "converged")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Converged counter = %v, want 2", metric.Counter.GetValue())
	}

	counter, err = r.PipesSizedTotal.GetMetricWithLabelValues("main_pipe", "not_converged")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("Not-converged counter = %v, want 1", metric.Counter.GetValue())
	}
}

func TestRecordViolation(t *testing.T) {
	r := NewRegistry()

	r.RecordViolation("EN 13941", "high")
	r.RecordViolation("EN 13941", "high")
	r.RecordViolation("VDI 2067", "low")

	counter, err := r.ViolationsTotal.GetMetricWithLabelValues("EN 13941", "high")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2 {
		t.Errorf("Violation counter = %v, want 2", metric.Counter.GetValue())
	}
}

func TestRecordRun(t *testing.T) {
	r := NewRegistry()

	r.RecordRun(250*time.Millisecond, 1200.0, 85000.0, 14.5, 42)

	var metric dto.Metric
	if err := r.NetworkLengthM.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 1200.0 {
		t.Errorf("NetworkLengthM = %v, want 1200", metric.Gauge.GetValue())
	}

	if err := r.NetworkPipes.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 42 {
		t.Errorf("NetworkPipes = %v, want 42", metric.Gauge.GetValue())
	}
}

func TestGetPrometheusRegistry(t *testing.T) {
	r := NewRegistry()
	if r.GetPrometheusRegistry() == nil {
		t.Fatal("GetPrometheusRegistry() returned nil")
	}

	// All heatnet metrics are registered and gatherable.
	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather() returned error: %v", err)
	}
	found := false
	for _, fam := range families {
		if fam.GetName() == "heatnet_network_compliance_rate" {
			found = true
		}
	}
	if !found {
		t.Error("heatnet_network_compliance_rate not registered")
	}
}
