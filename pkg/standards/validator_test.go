package standards

import (
	"errors"
	"testing"

	"github.com/fernwaerme/heatnet/pkg/config"
	"github.com/fernwaerme/heatnet/pkg/hierarchy"
	"github.com/fernwaerme/heatnet/pkg/sizing"
)

// pipe builds a minimal sized segment with the hydraulics under test.
func pipe(id string, cat string, velocityMS, dropPaPerM, costPerM float64) *sizing.PipeSegment {
	return &sizing.PipeSegment{
		PipeID:   id,
		Category: hierarchy.Category(cat),
		Hydraulics: sizing.Hydraulics{
			VelocityMS:         velocityMS,
			PressureDropPaPerM: dropPaPerM,
		},
		CostPerM: costPerM,
	}
}

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	return NewValidator(config.DefaultConfig(), nil)
}

func TestValidateUniformLimits(t *testing.T) {
	v := newTestValidator(t)

	pipes := []*sizing.PipeSegment{
		pipe("ok", config.CategoryDistributionPipe, 2.5, 200, 300),
		pipe("fast", config.CategoryDistributionPipe, 3.5, 200, 300),
	}

	res, err := v.Validate(pipes, config.StandardEN13941)
	if err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	if res.Compliant {
		t.Error("result compliant despite a velocity violation")
	}
	if res.Status != StatusNonCompliant {
		t.Errorf("Status = %s, want non_compliant", res.Status)
	}
	if res.CompliantPipes != 1 || res.TotalPipes != 2 {
		t.Errorf("compliant/total = %d/%d, want 1/2", res.CompliantPipes, res.TotalPipes)
	}
	if res.ComplianceRate != 0.5 {
		t.Errorf("ComplianceRate = %g, want 0.5", res.ComplianceRate)
	}

	if len(res.Violations) != 1 {
		t.Fatalf("got %d violations, want exactly 1: %+v", len(res.Violations), res.Violations)
	}
	viol := res.Violations[0]
	if viol.Type != sizing.ViolationVelocityExceeded {
		t.Errorf("violation type = %s, want velocity_exceeded", viol.Type)
	}
	if viol.Severity != sizing.SeverityHigh {
		t.Errorf("severity = %s, want high (3.5 is within 1.5x of the 3.0 limit)", viol.Severity)
	}
	if viol.EntityID != "fast" {
		t.Errorf("EntityID = %s, want fast", viol.EntityID)
	}
	if len(res.Recommendations) == 0 {
		t.Error("no recommendations for a non-compliant result")
	}
}

func TestValidateCriticalEscalation(t *testing.T) {
	v := newTestValidator(t)

	// 5.0 m/s is more than 1.5x the 3.0 m/s limit.
	pipes := []*sizing.PipeSegment{
		pipe("runaway", config.CategoryDistributionPipe, 5.0, 200, 300),
	}

	res, err := v.Validate(pipes, config.StandardEN13941)
	if err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(res.Violations))
	}
	if res.Violations[0].Severity != sizing.SeverityCritical {
		t.Errorf("severity = %s, want critical for 5.0 m/s against 3.0", res.Violations[0].Severity)
	}
}

func TestValidatePerCategoryLimits(t *testing.T) {
	v := newTestValidator(t)

	// 2.2 m/s breaches the 2.0 m/s service row but not the 2.5 m/s
	// distribution row.
	pipes := []*sizing.PipeSegment{
		pipe("svc", config.CategoryServiceConnection, 2.2, 100, 300),
		pipe("dist", config.CategoryDistributionPipe, 2.2, 100, 300),
	}

	res, err := v.Validate(pipes, config.StandardDIN1988)
	if err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	if res.CompliantPipes != 1 {
		t.Errorf("CompliantPipes = %d, want 1", res.CompliantPipes)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("got %d violations, want 1: %+v", len(res.Violations), res.Violations)
	}
	if res.Violations[0].EntityID != "svc" {
		t.Errorf("violating pipe = %s, want svc", res.Violations[0].EntityID)
	}
}

func TestValidateEconomics(t *testing.T) {
	v := newTestValidator(t)

	pipes := []*sizing.PipeSegment{
		// 1.5 m/s of 2.5 is 0.6 utilization, cost inside the limit.
		pipe("sound", config.CategoryDistributionPipe, 1.5, 100, 800),
		// cost over the 2500 limit but below critical at 1.5x.
		pipe("pricey", config.CategoryDistributionPipe, 1.5, 100, 3000),
		// 0.5 of 2.5 is 0.2 utilization, below the 0.25 minimum.
		pipe("oversized", config.CategoryDistributionPipe, 0.5, 100, 800),
	}

	res, err := v.Validate(pipes, config.StandardVDI2067)
	if err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	if res.CompliantPipes != 1 {
		t.Errorf("CompliantPipes = %d, want 1", res.CompliantPipes)
	}
	byType := make(map[sizing.ViolationType]sizing.Violation)
	for _, viol := range res.Violations {
		byType[viol.Type] = viol
	}

	cost, ok := byType[sizing.ViolationCostExceeded]
	if !ok {
		t.Fatal("missing cost_exceeded violation")
	}
	if cost.Severity != sizing.SeverityMedium {
		t.Errorf("cost severity = %s, want medium", cost.Severity)
	}
	if cost.EntityID != "pricey" {
		t.Errorf("cost violation on %s, want pricey", cost.EntityID)
	}

	eff, ok := byType[sizing.ViolationEfficiencyBelowMin]
	if !ok {
		t.Fatal("missing efficiency_below_minimum violation")
	}
	if eff.Severity != sizing.SeverityLow {
		t.Errorf("efficiency severity = %s, want low", eff.Severity)
	}
	if eff.EntityID != "oversized" {
		t.Errorf("efficiency violation on %s, want oversized", eff.EntityID)
	}
}

func TestValidateEconomicsCriticalCost(t *testing.T) {
	v := newTestValidator(t)

	// 4000 per m is more than 1.5x the 2500 limit.
	pipes := []*sizing.PipeSegment{
		pipe("gold", config.CategoryDistributionPipe, 1.5, 100, 4000),
	}
	res, err := v.Validate(pipes, config.StandardVDI2067)
	if err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Severity != sizing.SeverityCritical {
		t.Errorf("want one critical cost violation, got %+v", res.Violations)
	}
}

func TestValidateSiteChecksNotImplemented(t *testing.T) {
	v := newTestValidator(t)

	pipes := []*sizing.PipeSegment{
		pipe("p1", config.CategoryDistributionPipe, 99.0, 99999, 99999),
	}

	res, err := v.Validate(pipes, config.StandardLocalCodes)
	if err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}

	if res.Status != StatusNotImplemented {
		t.Errorf("Status = %s, want not_implemented", res.Status)
	}
	if !res.Compliant {
		t.Error("not-implemented standard must not flag pipes non-compliant")
	}
	if res.ComplianceRate != 1.0 {
		t.Errorf("ComplianceRate = %g, want 1.0", res.ComplianceRate)
	}
	if res.Notes == "" {
		t.Error("expected a note directing to manual verification")
	}
	if len(res.Violations) != 0 {
		t.Errorf("not-implemented standard produced violations: %+v", res.Violations)
	}
}

func TestValidateUnknownStandard(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate(nil, "ISO 9001")
	if !errors.Is(err, ErrUnknownStandard) {
		t.Errorf("error = %v, want ErrUnknownStandard", err)
	}
}

func TestValidateNoPipes(t *testing.T) {
	v := newTestValidator(t)

	res, err := v.Validate(nil, config.StandardEN13941)
	if err != nil {
		t.Fatalf("Validate() returned error: %v", err)
	}
	if !res.Compliant || res.ComplianceRate != 1.0 {
		t.Errorf("empty input should be vacuously compliant, got rate %g", res.ComplianceRate)
	}
}
