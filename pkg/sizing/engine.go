package sizing

import (
	"fmt"
	"math"
	"sort"

	"github.com/fernwaerme/heatnet/pkg/config"
	"github.com/fernwaerme/heatnet/pkg/hierarchy"
	"github.com/fernwaerme/heatnet/pkg/logging"
)

// Engine sizes individual pipes. It is a stateless pure function of
// (flow, length, category, configuration) and safe for concurrent use.
type Engine struct {
	cfg        *config.Config
	classifier *hierarchy.Classifier
	catalogM   []float64 // catalog in meters, ascending
	log        logging.Logger
}

// NewEngine builds a sizing engine from validated configuration.
func NewEngine(cfg *config.Config, classifier *hierarchy.Classifier, log logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNopLogger()
	}

	catalogM := make([]float64, len(cfg.DiameterCatalogMm))
	for i, mm := range cfg.DiameterCatalogMm {
		catalogM[i] = mm / 1000.0
	}
	sort.Float64s(catalogM)

	return &Engine{
		cfg:        cfg,
		classifier: classifier,
		catalogM:   catalogM,
		log:        log.With(logging.Component("sizing")),
	}
}

// RequiredDiameter computes the theoretical diameter that carries the
// flow at exactly the target velocity: d = sqrt(4*Q / (pi*v)), with Q
// the volumetric flow.
func (e *Engine) RequiredDiameter(flowKgS, targetVelocityMS float64) (float64, error) {
	if flowKgS <= 0 {
		return 0, fmt.Errorf("%w: %f kg/s", ErrNonPositiveFlow, flowKgS)
	}
	volumetricM3S := flowKgS / e.cfg.Water.DensityKgM3
	return math.Sqrt(4.0 * volumetricM3S / (math.Pi * targetVelocityMS)), nil
}

// SelectStandardDiameter returns the smallest catalog diameter that is
// at least the required diameter. The selection is monotonic in its
// input and idempotent. When the requirement exceeds the whole catalog
// the largest diameter is returned together with ErrCatalogExceeded;
// callers keep the best-effort value and report the shortfall.
func (e *Engine) SelectStandardDiameter(requiredM float64) (float64, error) {
	for _, d := range e.catalogM {
		if d >= requiredM {
			return d, nil
		}
	}
	largest := e.catalogM[len(e.catalogM)-1]
	return largest, fmt.Errorf("%w: required %.4f m, largest %.4f m", ErrCatalogExceeded, requiredM, largest)
}

// NextStandardDiameter returns the next larger catalog diameter, or
// false when the current diameter is already the largest.
func (e *Engine) NextStandardDiameter(currentM float64) (float64, bool) {
	for _, d := range e.catalogM {
		if d > currentM {
			return d, true
		}
	}
	return currentM, false
}

// Hydraulics computes velocity, Reynolds number, friction factor and
// Darcy-Weisbach pressure drop for a pipe.
func (e *Engine) Hydraulics(diameterM, flowKgS, lengthM float64) Hydraulics {
	rho := e.cfg.Water.DensityKgM3
	mu := e.cfg.Water.DynamicViscosityPaS

	area := math.Pi * diameterM * diameterM / 4.0
	velocity := (flowKgS / rho) / area
	reynolds := rho * velocity * diameterM / mu

	friction := e.frictionFactor(reynolds, diameterM)
	dropPaPerM := friction * rho * velocity * velocity / (2.0 * diameterM)

	return Hydraulics{
		VelocityMS:         velocity,
		Reynolds:           reynolds,
		FrictionFactor:     friction,
		PressureDropPaPerM: dropPaPerM,
		PressureDropBar:    dropPaPerM * lengthM / 1e5,
	}
}

// frictionFactor selects the flow-regime appropriate correlation:
// laminar 64/Re below Re 2300, Swamee-Jain above.
func (e *Engine) frictionFactor(reynolds, diameterM float64) float64 {
	if reynolds <= 0 {
		return 0
	}
	if reynolds < 2300 {
		return 64.0 / reynolds
	}
	relRoughness := e.cfg.PipeRoughnessM / diameterM
	denom := math.Log10(relRoughness/3.7 + 5.74/math.Pow(reynolds, 0.9))
	return 0.25 / (denom * denom)
}

// ValidateConstraints checks a segment's hydraulics against its
// category limits. It returns the compliance flag and the violations
// found; the segment is not modified.
func (e *Engine) ValidateConstraints(seg *PipeSegment) (bool, []Violation, error) {
	limits, err := e.classifier.Limits(seg.Category)
	if err != nil {
		return false, nil, err
	}

	var violations []Violation
	if seg.Hydraulics.VelocityMS > limits.MaxVelocityMS {
		violations = append(violations, Violation{
			Type:        ViolationVelocityExceeded,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("velocity %.2f m/s exceeds %s limit %.2f m/s", seg.Hydraulics.VelocityMS, seg.Category, limits.MaxVelocityMS),
			EntityID:    seg.PipeID,
			Value:       seg.Hydraulics.VelocityMS,
			Limit:       limits.MaxVelocityMS,
		})
	}
	if seg.Hydraulics.VelocityMS < limits.MinVelocityMS {
		violations = append(violations, Violation{
			Type:        ViolationVelocityBelowMinimum,
			Severity:    SeverityLow,
			Description: fmt.Sprintf("velocity %.2f m/s below %s minimum %.2f m/s", seg.Hydraulics.VelocityMS, seg.Category, limits.MinVelocityMS),
			EntityID:    seg.PipeID,
			Value:       seg.Hydraulics.VelocityMS,
			Limit:       limits.MinVelocityMS,
		})
	}
	if seg.Hydraulics.PressureDropPaPerM > limits.MaxPressureDropPaPerM {
		violations = append(violations, Violation{
			Type:        ViolationPressureDropExceeded,
			Severity:    SeverityHigh,
			Description: fmt.Sprintf("pressure drop %.0f Pa/m exceeds %s limit %.0f Pa/m", seg.Hydraulics.PressureDropPaPerM, seg.Category, limits.MaxPressureDropPaPerM),
			EntityID:    seg.PipeID,
			Value:       seg.Hydraulics.PressureDropPaPerM,
			Limit:       limits.MaxPressureDropPaPerM,
		})
	}

	return len(violations) == 0, violations, nil
}

// Cost computes per-meter and total pipe cost. Per-meter cost scales
// linearly with diameter in mm and with the configured installation,
// material and insulation factors, so cost is strictly increasing in
// diameter and linear in length.
func (e *Engine) Cost(diameterM, lengthM float64, cat hierarchy.Category) (perM, total float64, err error) {
	limits, err := e.classifier.Limits(cat)
	if err != nil {
		return 0, 0, err
	}

	materialFactor, ok := e.cfg.Cost.MaterialFactors[limits.Material]
	if !ok {
		return 0, 0, fmt.Errorf("no cost factor configured for material %q", limits.Material)
	}

	perM = e.cfg.Cost.BaseCostPerMmDiameter * (diameterM * 1000.0) * e.cfg.Cost.InstallationFactor * materialFactor
	if limits.Insulated {
		perM *= e.cfg.Cost.InsulationFactor
	}
	return perM, perM * lengthM, nil
}

// NominalLabel formats a diameter as its DN designation.
func NominalLabel(diameterM float64) string {
	return fmt.Sprintf("DN %d", int(math.Round(diameterM*1000.0)))
}
