package standards

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fernwaerme/heatnet/pkg/config"
	"github.com/fernwaerme/heatnet/pkg/logging"
	"github.com/fernwaerme/heatnet/pkg/sizing"
)

// ErrUnknownStandard is returned when validation is requested against a
// standard with no configured limit table.
var ErrUnknownStandard = errors.New("standard not configured")

// criticalExceedanceRatio escalates a violation to critical when the
// measured value overshoots its limit by more than 50 percent.
const criticalExceedanceRatio = 1.5

// Validator evaluates pipes against the configured standard tables.
type Validator struct {
	cfg *config.Config
	log logging.Logger
}

// NewValidator builds a validator from validated configuration.
func NewValidator(cfg *config.Config, log logging.Logger) *Validator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Validator{cfg: cfg, log: log.With(logging.Component("standards"))}
}

// Validate evaluates every pipe against one named standard.
func (v *Validator) Validate(pipes []*sizing.PipeSegment, standard string) (*ComplianceResult, error) {
	limits, ok := v.cfg.Standards[standard]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStandard, standard)
	}

	result := &ComplianceResult{
		Standard:   standard,
		Status:     StatusCompliant,
		TotalPipes: len(pipes),
	}

	switch {
	case limits.SiteChecks && limits.MaxVelocityMS == 0 && limits.PerCategory == nil && limits.MaxCostPerM == 0 && limits.MinEfficiency == 0:
		// Site and material suitability checks require survey data this
		// engine does not carry. Reported explicitly instead of
		// pretending to pass.
		result.Status = StatusNotImplemented
		result.Compliant = true
		result.ComplianceRate = 1.0
		result.CompliantPipes = len(pipes)
		result.Notes = "site/material checks not implemented, manual verification required"
		v.log.Warn("standard evaluated as not implemented", logging.Standard(standard))
		return result, nil

	case limits.PerCategory != nil:
		v.validateCategoryLimits(pipes, limits, result)

	case limits.MaxCostPerM > 0 || limits.MinEfficiency > 0:
		v.validateEconomics(pipes, limits, result)

	default:
		v.validateUniformLimits(pipes, limits, result)
	}

	if result.TotalPipes > 0 {
		result.ComplianceRate = float64(result.CompliantPipes) / float64(result.TotalPipes)
	} else {
		result.ComplianceRate = 1.0
	}
	result.Compliant = len(result.Violations) == 0
	if !result.Compliant {
		result.Status = StatusNonCompliant
	}
	result.Recommendations = recommendations(result.Violations)

	v.log.Info("standard validated",
		logging.Standard(standard),
		logging.Int("pipes", result.TotalPipes),
		logging.Int("violations", len(result.Violations)),
		logging.Float64("compliance_rate", result.ComplianceRate))
	return result, nil
}

// validateUniformLimits applies one velocity/pressure-drop limit pair to
// every pipe regardless of category.
func (v *Validator) validateUniformLimits(pipes []*sizing.PipeSegment, limits config.StandardLimits, result *ComplianceResult) {
	for _, p := range pipes {
		violations := checkHydraulicLimits(p, limits.MaxVelocityMS, limits.MaxPressureDropPaPerM)
		if len(violations) == 0 {
			result.CompliantPipes++
		}
		result.Violations = append(result.Violations, violations...)
	}
}

// validateCategoryLimits applies the standard's per-category limit rows.
// Pipes whose category has no row fall back to the globally configured
// category limits.
func (v *Validator) validateCategoryLimits(pipes []*sizing.PipeSegment, limits config.StandardLimits, result *ComplianceResult) {
	for _, p := range pipes {
		row, ok := limits.PerCategory[string(p.Category)]
		if !ok {
			row = v.cfg.Categories[string(p.Category)]
		}
		violations := checkHydraulicLimits(p, row.MaxVelocityMS, row.MaxPressureDropPaPerM)
		if len(violations) == 0 {
			result.CompliantPipes++
		}
		result.Violations = append(result.Violations, violations...)
	}
}

// validateEconomics checks cost per meter and hydraulic utilization.
// Utilization is velocity relative to the category's velocity ceiling;
// heavily oversized pipes waste invested capital.
func (v *Validator) validateEconomics(pipes []*sizing.PipeSegment, limits config.StandardLimits, result *ComplianceResult) {
	for _, p := range pipes {
		var violations []sizing.Violation

		if limits.MaxCostPerM > 0 && p.CostPerM > limits.MaxCostPerM {
			violations = append(violations, sizing.Violation{
				Type:        sizing.ViolationCostExceeded,
				Severity:    severityFor(p.CostPerM, limits.MaxCostPerM, sizing.SeverityMedium),
				Description: fmt.Sprintf("cost %.2f per m exceeds limit %.2f per m", p.CostPerM, limits.MaxCostPerM),
				EntityID:    p.PipeID,
				Value:       p.CostPerM,
				Limit:       limits.MaxCostPerM,
			})
		}

		if limits.MinEfficiency > 0 {
			catLimits, ok := v.cfg.Categories[string(p.Category)]
			if ok && catLimits.MaxVelocityMS > 0 {
				utilization := p.Hydraulics.VelocityMS / catLimits.MaxVelocityMS
				if utilization < limits.MinEfficiency {
					violations = append(violations, sizing.Violation{
						Type:        sizing.ViolationEfficiencyBelowMin,
						Severity:    sizing.SeverityLow,
						Description: fmt.Sprintf("hydraulic utilization %.2f below minimum %.2f, pipe likely oversized", utilization, limits.MinEfficiency),
						EntityID:    p.PipeID,
						Value:       utilization,
						Limit:       limits.MinEfficiency,
					})
				}
			}
		}

		if len(violations) == 0 {
			result.CompliantPipes++
		}
		result.Violations = append(result.Violations, violations...)
	}
}

// checkHydraulicLimits produces velocity and pressure-drop violations
// for one pipe. A zero limit means the standard does not constrain that
// quantity.
func checkHydraulicLimits(p *sizing.PipeSegment, maxVelocityMS, maxPressureDropPaPerM float64) []sizing.Violation {
	var violations []sizing.Violation

	if maxVelocityMS > 0 && p.Hydraulics.VelocityMS > maxVelocityMS {
		violations = append(violations, sizing.Violation{
			Type:        sizing.ViolationVelocityExceeded,
			Severity:    severityFor(p.Hydraulics.VelocityMS, maxVelocityMS, sizing.SeverityHigh),
			Description: fmt.Sprintf("velocity %.2f m/s exceeds limit %.2f m/s", p.Hydraulics.VelocityMS, maxVelocityMS),
			EntityID:    p.PipeID,
			Value:       p.Hydraulics.VelocityMS,
			Limit:       maxVelocityMS,
		})
	}

	if maxPressureDropPaPerM > 0 && p.Hydraulics.PressureDropPaPerM > maxPressureDropPaPerM {
		violations = append(violations, sizing.Violation{
			Type:        sizing.ViolationPressureDropExceeded,
			Severity:    severityFor(p.Hydraulics.PressureDropPaPerM, maxPressureDropPaPerM, sizing.SeverityHigh),
			Description: fmt.Sprintf("pressure drop %.0f Pa/m exceeds limit %.0f Pa/m", p.Hydraulics.PressureDropPaPerM, maxPressureDropPaPerM),
			EntityID:    p.PipeID,
			Value:       p.Hydraulics.PressureDropPaPerM,
			Limit:       maxPressureDropPaPerM,
		})
	}

	return violations
}

// severityFor escalates the base severity to critical when the value
// overshoots the limit by more than criticalExceedanceRatio.
func severityFor(value, limit float64, base sizing.Severity) sizing.Severity {
	if limit > 0 && value > limit*criticalExceedanceRatio {
		return sizing.SeverityCritical
	}
	return base
}

// recommendations derives deduplicated remediation advice from the
// violation list, in deterministic order.
func recommendations(violations []sizing.Violation) []string {
	seen := make(map[string]bool)
	for _, v := range violations {
		switch v.Type {
		case sizing.ViolationVelocityExceeded:
			seen["Increase pipe diameter on segments exceeding velocity limits"] = true
		case sizing.ViolationVelocityBelowMinimum:
			seen["Decrease pipe diameter on segments with stagnant flow"] = true
		case sizing.ViolationPressureDropExceeded:
			seen["Increase pipe diameter or shorten routing to reduce pressure gradient"] = true
		case sizing.ViolationCostExceeded:
			seen["Review routing and material selection on high-cost segments"] = true
		case sizing.ViolationEfficiencyBelowMin:
			seen["Consider a smaller diameter on oversized segments"] = true
		case sizing.ViolationResizeNotConverged:
			seen["Re-examine flow assignment on segments that failed to converge"] = true
		}
	}

	recs := make([]string, 0, len(seen))
	for rec := range seen {
		recs = append(recs, rec)
	}
	sort.Strings(recs)
	return recs
}
