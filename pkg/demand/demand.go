// Package demand converts per-building heat demand forecasts into design
// mass flows. The design hour is the hour of peak aggregate demand across
// all buildings; each building is then sized for its own demand at that
// hour.
package demand

import (
	"errors"
	"fmt"

	"github.com/fernwaerme/heatnet/pkg/config"
	"github.com/fernwaerme/heatnet/pkg/logging"
)

// ErrEmptySeries is returned when a building carries no demand values.
var ErrEmptySeries = errors.New("empty demand series")

// Profile is one building's annual hourly demand forecast in kW.
// Profiles are immutable inputs; the calculator never writes to them.
type Profile struct {
	BuildingID string
	HourlyKW   []float64
	Metadata   map[string]string
}

// DesignFlow is the sizing-relevant result for one building.
type DesignFlow struct {
	BuildingID  string  `json:"building_id"`
	DesignHour  int     `json:"design_hour"`
	PeakPowerW  float64 `json:"peak_power_w"`
	MassFlowKgS float64 `json:"mass_flow_kg_s"`
}

// Calculator derives design mass flows from demand profiles.
type Calculator struct {
	cpJPerKgK float64
	tempDiffK float64
	log       logging.Logger
}

// NewCalculator builds a calculator from validated configuration.
func NewCalculator(cfg *config.Config, log logging.Logger) *Calculator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Calculator{
		cpJPerKgK: cfg.Water.SpecificHeatJPerKgK,
		tempDiffK: cfg.DesignTempDiffK,
		log:       log.With(logging.Component("demand")),
	}
}

// SelectDesignHour sums demand across all buildings per hour and returns
// the hour of maximum total. Ties resolve to the smallest hour index so
// identical inputs always pick the same hour. An empty input returns
// hour 0 to keep batch pipelines alive.
func (c *Calculator) SelectDesignHour(profiles []Profile) int {
	maxHours := 0
	for _, p := range profiles {
		if len(p.HourlyKW) > maxHours {
			maxHours = len(p.HourlyKW)
		}
	}
	if maxHours == 0 {
		c.log.Warn("no demand data, defaulting design hour to 0")
		return 0
	}

	totals := make([]float64, maxHours)
	for _, p := range profiles {
		for h, kw := range p.HourlyKW {
			totals[h] += kw
		}
	}

	designHour := 0
	for h := 1; h < maxHours; h++ {
		if totals[h] > totals[designHour] {
			designHour = h
		}
	}

	c.log.Debug("design hour selected",
		logging.Int("design_hour", designHour),
		logging.Float64("total_demand_kw", totals[designHour]))
	return designHour
}

// MassFlow converts the design-hour thermal power of a series into a mass
// flow via m = Q / (cp * dT). When the design hour lies beyond the series
// it falls back to the series maximum. The series is in kW; the
// conversion happens in W.
func (c *Calculator) MassFlow(series []float64, designHour int) (float64, error) {
	if len(series) == 0 {
		return 0, ErrEmptySeries
	}

	var powerKW float64
	if designHour >= 0 && designHour < len(series) {
		powerKW = series[designHour]
	} else {
		for _, kw := range series {
			if kw > powerKW {
				powerKW = kw
			}
		}
	}

	powerW := powerKW * 1000.0
	return powerW / (c.cpJPerKgK * c.tempDiffK), nil
}

// DesignFlows computes per-building design flows for the shared design
// hour, returned alongside the flows. Buildings with invalid series are
// skipped and reported; a bad building never aborts the batch.
func (c *Calculator) DesignFlows(profiles []Profile) (map[string]DesignFlow, int, []error) {
	designHour := c.SelectDesignHour(profiles)

	flows := make(map[string]DesignFlow, len(profiles))
	var skipped []error
	for _, p := range profiles {
		flow, err := c.MassFlow(p.HourlyKW, designHour)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("building %s: %w", p.BuildingID, err))
			c.log.Warn("skipping building",
				logging.BuildingID(p.BuildingID),
				logging.Error(err))
			continue
		}

		powerKW := 0.0
		if designHour < len(p.HourlyKW) {
			powerKW = p.HourlyKW[designHour]
		} else {
			for _, kw := range p.HourlyKW {
				if kw > powerKW {
					powerKW = kw
				}
			}
		}

		flows[p.BuildingID] = DesignFlow{
			BuildingID:  p.BuildingID,
			DesignHour:  designHour,
			PeakPowerW:  powerKW * 1000.0,
			MassFlowKgS: flow,
		}
	}

	c.log.Info("design flows computed",
		logging.Int("design_hour", designHour),
		logging.Count(len(flows)),
		logging.Int("skipped", len(skipped)))
	return flows, designHour, skipped
}
