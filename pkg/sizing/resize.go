package sizing

import (
	"fmt"

	"github.com/fernwaerme/heatnet/pkg/config"
	"github.com/fernwaerme/heatnet/pkg/hierarchy"
	"github.com/fernwaerme/heatnet/pkg/logging"
)

// loopState is the auto-resize convergence state. The loop moves
// Sizing -> Validating -> {Converged | Resizing}, with Resizing feeding
// back into Sizing until the iteration cap forces Exhausted.
type loopState int

const (
	stateSizing loopState = iota
	stateValidating
	stateResizing
	stateConverged
	stateExhausted
)

// SizePipe sizes one pipe: required diameter, catalog selection,
// hydraulics, cost, category constraints and the per-standard
// compliance subset. On constraint violations it steps up the catalog
// and re-validates; the iteration cap bounds the loop uncondition-
// ally. Cap exhaustion yields a best-effort segment flagged as
// non-converged rather than an error.
func (e *Engine) SizePipe(pipeID string, flowKgS, lengthM float64, cat hierarchy.Category) (*PipeSegment, error) {
	limits, err := e.classifier.Limits(cat)
	if err != nil {
		return nil, err
	}
	if flowKgS <= 0 {
		return nil, fmt.Errorf("pipe %s: %w: %f kg/s", pipeID, ErrNonPositiveFlow, flowKgS)
	}
	if lengthM <= 0 {
		return nil, fmt.Errorf("pipe %s: %w: %f m", pipeID, ErrNonPositiveLength, lengthM)
	}

	required, err := e.RequiredDiameter(flowKgS, limits.MaxVelocityMS)
	if err != nil {
		return nil, fmt.Errorf("pipe %s: %w", pipeID, err)
	}

	band := e.classifier.Level(flowKgS)
	seg := &PipeSegment{
		PipeID:            pipeID,
		Category:          cat,
		FlowKgS:           flowKgS,
		LengthM:           lengthM,
		RequiredDiameterM: required,
		HierarchyLevel:    band.Level,
		HierarchyName:     band.Name,
	}

	diameter, catErr := e.SelectStandardDiameter(required)

	state := stateValidating
	iterations := 0
	var violations []Violation

	for state != stateConverged && state != stateExhausted {
		switch state {
		case stateSizing:
			next, ok := e.NextStandardDiameter(diameter)
			if !ok {
				state = stateExhausted
				continue
			}
			diameter = next
			state = stateValidating

		case stateValidating:
			iterations++
			seg.DiameterM = diameter
			seg.Hydraulics = e.Hydraulics(diameter, flowKgS, lengthM)

			var compliant bool
			compliant, violations, err = e.ValidateConstraints(seg)
			if err != nil {
				return nil, err
			}
			switch {
			case compliant:
				state = stateConverged
			case iterations >= e.cfg.Resize.MaxIterations:
				state = stateExhausted
			case !resizableViolation(violations):
				// A larger diameter only lowers velocity and pressure
				// drop; it cannot fix a below-minimum violation.
				state = stateExhausted
			default:
				state = stateResizing
			}

		case stateResizing:
			state = stateSizing
		}
	}

	seg.ResizeIterations = iterations
	seg.Converged = state == stateConverged && catErr == nil
	seg.Violations = violations
	if !seg.Converged && len(violations) > 0 {
		seg.Violations = append(seg.Violations, Violation{
			Type:        ViolationResizeNotConverged,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("auto-resize stopped after %d iterations without meeting %s limits", iterations, cat),
			EntityID:    pipeID,
			Value:       float64(iterations),
			Limit:       float64(e.cfg.Resize.MaxIterations),
		})
	}
	seg.Compliant = len(seg.Violations) == 0
	seg.NominalDiameter = NominalLabel(seg.DiameterM)

	seg.CostPerM, seg.CostTotal, err = e.Cost(seg.DiameterM, lengthM, cat)
	if err != nil {
		return nil, err
	}

	seg.Standards = e.standardsSubset(seg, limits)

	e.log.Debug("pipe sized",
		logging.PipeID(pipeID),
		logging.FlowKgS(flowKgS),
		logging.DiameterM(seg.DiameterM),
		logging.VelocityMS(seg.Hydraulics.VelocityMS),
		logging.Iterations(iterations),
		logging.Bool("converged", seg.Converged))
	return seg, nil
}

// resizableViolation reports whether any violation can be fixed by a
// larger diameter.
func resizableViolation(violations []Violation) bool {
	for _, v := range violations {
		if v.Type == ViolationVelocityExceeded || v.Type == ViolationPressureDropExceeded {
			return true
		}
	}
	return false
}

// standardsSubset evaluates the quick per-standard compliance map
// embedded in each segment. The full validators in the standards
// package produce the detailed reports; this subset only answers
// pass/fail per standard. Standards with site checks only are left out
// of the map because their evaluation is not implemented.
func (e *Engine) standardsSubset(seg *PipeSegment, limits config.CategoryLimits) map[string]bool {
	result := make(map[string]bool, len(e.cfg.Standards))
	for name, std := range e.cfg.Standards {
		switch {
		case std.PerCategory != nil:
			catLimits, ok := std.PerCategory[string(seg.Category)]
			if !ok {
				catLimits = limits
			}
			result[name] = seg.Hydraulics.VelocityMS <= catLimits.MaxVelocityMS &&
				seg.Hydraulics.PressureDropPaPerM <= catLimits.MaxPressureDropPaPerM

		case std.MaxVelocityMS > 0 || std.MaxPressureDropPaPerM > 0:
			ok := true
			if std.MaxVelocityMS > 0 && seg.Hydraulics.VelocityMS > std.MaxVelocityMS {
				ok = false
			}
			if std.MaxPressureDropPaPerM > 0 && seg.Hydraulics.PressureDropPaPerM > std.MaxPressureDropPaPerM {
				ok = false
			}
			result[name] = ok

		case std.MaxCostPerM > 0 || std.MinEfficiency > 0:
			ok := true
			if std.MaxCostPerM > 0 && seg.CostPerM > std.MaxCostPerM {
				ok = false
			}
			if std.MinEfficiency > 0 && limits.MaxVelocityMS > 0 &&
				seg.Hydraulics.VelocityMS/limits.MaxVelocityMS < std.MinEfficiency {
				ok = false
			}
			result[name] = ok
		}
	}
	return result
}
