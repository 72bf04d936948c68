package standards

import (
	"sort"
	"time"

	"github.com/fernwaerme/heatnet/pkg/logging"
	"github.com/fernwaerme/heatnet/pkg/sizing"
	"github.com/google/uuid"
)

// ValidateNetwork runs the generic velocity/pressure-drop check over
// every supply and return pipe, independent of any named standard. The
// network is overall compliant only when no critical violation exists
// and the compliance rate reaches the configured minimum; a single
// critical violation overrides any rate.
func (v *Validator) ValidateNetwork(supply, ret []*sizing.PipeSegment) *NetworkValidationResult {
	result := &NetworkValidationResult{
		ViolationsByType:     make(map[string]int),
		ViolationsBySeverity: make(map[string]int),
	}

	var all []sizing.Violation
	pipes := make([]*sizing.PipeSegment, 0, len(supply)+len(ret))
	pipes = append(pipes, supply...)
	pipes = append(pipes, ret...)

	for _, p := range pipes {
		limits, ok := v.cfg.Categories[string(p.Category)]
		if !ok {
			continue
		}
		violations := checkHydraulicLimits(p, limits.MaxVelocityMS, limits.MaxPressureDropPaPerM)
		result.TotalPipes++
		if len(violations) == 0 {
			result.CompliantPipes++
		} else {
			result.NonCompliantPipes++
		}
		all = append(all, violations...)
	}

	for _, viol := range all {
		result.ViolationsByType[string(viol.Type)]++
		result.ViolationsBySeverity[string(viol.Severity)]++
		if viol.Severity == sizing.SeverityCritical {
			result.CriticalViolations = append(result.CriticalViolations, viol)
		}
	}

	if result.TotalPipes > 0 {
		result.ComplianceRate = float64(result.CompliantPipes) / float64(result.TotalPipes)
	} else {
		result.ComplianceRate = 1.0
	}
	result.OverallCompliant = len(result.CriticalViolations) == 0 &&
		result.ComplianceRate >= v.cfg.Validation.MinComplianceRate
	result.Recommendations = recommendations(all)

	v.log.Info("network validated",
		logging.Int("pipes", result.TotalPipes),
		logging.Int("critical_violations", len(result.CriticalViolations)),
		logging.Float64("compliance_rate", result.ComplianceRate),
		logging.Bool("overall_compliant", result.OverallCompliant))
	return result
}

// Report evaluates every configured standard plus the aggregate network
// validation and bundles the results for external consumers. Standards
// are evaluated in sorted name order for reproducible logs.
func (v *Validator) Report(supply, ret []*sizing.PipeSegment) (*ComplianceReport, error) {
	pipes := make([]*sizing.PipeSegment, 0, len(supply)+len(ret))
	pipes = append(pipes, supply...)
	pipes = append(pipes, ret...)

	names := make([]string, 0, len(v.cfg.Standards))
	for name := range v.cfg.Standards {
		names = append(names, name)
	}
	sort.Strings(names)

	report := &ComplianceReport{
		ReportID:    uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Standards:   make(map[string]*ComplianceResult, len(names)),
	}
	for _, name := range names {
		res, err := v.Validate(pipes, name)
		if err != nil {
			return nil, err
		}
		report.Standards[name] = res
	}
	report.Network = v.ValidateNetwork(supply, ret)
	return report, nil
}
