package demand

import (
	"errors"
	"math"
	"testing"

	"github.com/fernwaerme/heatnet/pkg/config"
	"github.com/fernwaerme/heatnet/pkg/logging"
)

func testCalculator(t *testing.T) *Calculator {
	t.Helper()
	return NewCalculator(config.DefaultConfig(), logging.NewNopLogger())
}

// series builds an 8-hour demand profile; long enough for these tests,
// the calculator does not insist on full years.
func series(values ...float64) []float64 {
	return values
}

func TestSelectDesignHour(t *testing.T) {
	c := testCalculator(t)

	// Five buildings with distinct demand in hours 0-4 and flat demand
	// afterward. Summed demand peaks at hour 2 (total 260 kW).
	profiles := []Profile{
		{BuildingID: "b1", HourlyKW: series(10, 20, 80, 30, 15, 10, 10, 10)},
		{BuildingID: "b2", HourlyKW: series(20, 35, 60, 25, 10, 10, 10, 10)},
		{BuildingID: "b3", HourlyKW: series(15, 25, 50, 40, 20, 10, 10, 10)},
		{BuildingID: "b4", HourlyKW: series(30, 15, 40, 35, 25, 10, 10, 10)},
		{BuildingID: "b5", HourlyKW: series(25, 30, 30, 20, 45, 10, 10, 10)},
	}

	if got := c.SelectDesignHour(profiles); got != 2 {
		t.Errorf("SelectDesignHour() = %d, want 2", got)
	}
}

func TestSelectDesignHourTieBreak(t *testing.T) {
	c := testCalculator(t)

	// Hours 1 and 3 tie at 50 kW total; the smaller index must win.
	profiles := []Profile{
		{BuildingID: "b1", HourlyKW: series(10, 50, 20, 50, 10)},
	}

	if got := c.SelectDesignHour(profiles); got != 1 {
		t.Errorf("SelectDesignHour() = %d, want 1 (smallest tied index)", got)
	}
}

func TestSelectDesignHourEmpty(t *testing.T) {
	c := testCalculator(t)

	if got := c.SelectDesignHour(nil); got != 0 {
		t.Errorf("SelectDesignHour(nil) = %d, want 0", got)
	}
	if got := c.SelectDesignHour([]Profile{{BuildingID: "b1"}}); got != 0 {
		t.Errorf("SelectDesignHour(no data) = %d, want 0", got)
	}
}

func TestMassFlow(t *testing.T) {
	c := testCalculator(t)

	// 125.7 kW at cp=4190 J/(kg K) and dT=30 K is exactly 1 kg/s.
	flow, err := c.MassFlow(series(10, 125.7, 20), 1)
	if err != nil {
		t.Fatalf("MassFlow() returned error: %v", err)
	}
	if math.Abs(flow-1.0) > 1e-9 {
		t.Errorf("MassFlow() = %f kg/s, want 1.0", flow)
	}
}

func TestMassFlowDesignHourBeyondSeries(t *testing.T) {
	c := testCalculator(t)

	// Design hour 100 exceeds the series; the maximum (125.7 kW) is
	// used instead.
	flow, err := c.MassFlow(series(10, 125.7, 20), 100)
	if err != nil {
		t.Fatalf("MassFlow() returned error: %v", err)
	}
	if math.Abs(flow-1.0) > 1e-9 {
		t.Errorf("MassFlow() fallback = %f kg/s, want 1.0", flow)
	}
}

func TestMassFlowEmptySeries(t *testing.T) {
	c := testCalculator(t)

	_, err := c.MassFlow(nil, 0)
	if !errors.Is(err, ErrEmptySeries) {
		t.Errorf("expected ErrEmptySeries, got %v", err)
	}
}

func TestDesignFlows(t *testing.T) {
	c := testCalculator(t)

	profiles := []Profile{
		{BuildingID: "b1", HourlyKW: series(10, 125.7, 20)},
		{BuildingID: "b2", HourlyKW: series(5, 62.85, 10)},
		{BuildingID: "broken"},
	}

	flows, designHour, skipped := c.DesignFlows(profiles)

	if designHour != 1 {
		t.Errorf("design hour = %d, want 1", designHour)
	}
	if len(flows) != 2 {
		t.Fatalf("got %d flows, want 2", len(flows))
	}
	if len(skipped) != 1 {
		t.Errorf("got %d skipped, want 1", len(skipped))
	}

	if math.Abs(flows["b1"].MassFlowKgS-1.0) > 1e-9 {
		t.Errorf("b1 flow = %f, want 1.0", flows["b1"].MassFlowKgS)
	}
	if math.Abs(flows["b2"].MassFlowKgS-0.5) > 1e-9 {
		t.Errorf("b2 flow = %f, want 0.5", flows["b2"].MassFlowKgS)
	}
	if flows["b1"].PeakPowerW != 125700.0 {
		t.Errorf("b1 peak power = %f W, want 125700", flows["b1"].PeakPowerW)
	}
	if flows["b1"].DesignHour != 1 {
		t.Errorf("b1 design hour = %d, want 1", flows["b1"].DesignHour)
	}
}

func TestDesignFlowsDeterministic(t *testing.T) {
	c := testCalculator(t)

	profiles := []Profile{
		{BuildingID: "b1", HourlyKW: series(10, 30, 20)},
		{BuildingID: "b2", HourlyKW: series(15, 25, 35)},
	}

	first, firstHour, _ := c.DesignFlows(profiles)
	for i := 0; i < 10; i++ {
		again, hour, _ := c.DesignFlows(profiles)
		if hour != firstHour {
			t.Fatalf("design hour changed between runs: %d vs %d", hour, firstHour)
		}
		for id, flow := range first {
			if again[id] != flow {
				t.Fatalf("flow for %s changed between runs: %+v vs %+v", id, again[id], flow)
			}
		}
	}
}
