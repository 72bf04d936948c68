// Package sizing selects pipe diameters for given flows and computes the
// hydraulic characteristics, cost and constraint compliance of each
// segment. Diameters always come from a fixed ascending catalog, chosen
// through a bounded auto-resize convergence loop.
package sizing

import (
	"errors"

	"github.com/fernwaerme/heatnet/pkg/hierarchy"
)

var (
	// ErrNonPositiveFlow is returned when a pipe carries no flow.
	ErrNonPositiveFlow = errors.New("flow rate must be positive")
	// ErrNonPositiveLength is returned for zero or negative pipe length.
	ErrNonPositiveLength = errors.New("pipe length must be positive")
	// ErrCatalogExceeded is returned when even the largest catalog
	// diameter is below the required diameter.
	ErrCatalogExceeded = errors.New("required diameter exceeds catalog")
)

// Severity grades a violation.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ViolationType names the rule a pipe broke.
type ViolationType string

const (
	ViolationVelocityExceeded     ViolationType = "velocity_exceeded"
	ViolationVelocityBelowMinimum ViolationType = "velocity_below_minimum"
	ViolationPressureDropExceeded ViolationType = "pressure_drop_exceeded"
	ViolationCostExceeded         ViolationType = "cost_exceeded"
	ViolationEfficiencyBelowMin   ViolationType = "efficiency_below_minimum"
	ViolationResizeNotConverged   ViolationType = "resize_not_converged"
)

// Violation is one broken rule with its measured value and the limit it
// broke.
type Violation struct {
	Type        ViolationType `json:"type"`
	Severity    Severity      `json:"severity"`
	Description string        `json:"description"`
	EntityID    string        `json:"entity_id"`
	Value       float64       `json:"value"`
	Limit       float64       `json:"limit"`
}

// Hydraulics holds the flow characteristics of a sized pipe.
type Hydraulics struct {
	VelocityMS         float64 `json:"velocity_m_s"`
	Reynolds           float64 `json:"reynolds"`
	FrictionFactor     float64 `json:"friction_factor"`
	PressureDropPaPerM float64 `json:"pressure_drop_pa_per_m"`
	PressureDropBar    float64 `json:"pressure_drop_bar"`
}

// PipeSegment is a fully sized pipe. It is created by the engine,
// annotated by the validators and never mutated after validation
// completes.
type PipeSegment struct {
	PipeID    string             `json:"pipe_id"`
	StartNode string             `json:"start_node,omitempty"`
	EndNode   string             `json:"end_node,omitempty"`
	Category  hierarchy.Category `json:"category"`

	FlowKgS float64 `json:"flow_kg_s"`
	LengthM float64 `json:"length_m"`

	RequiredDiameterM float64 `json:"required_diameter_m"`
	DiameterM         float64 `json:"diameter_m"`
	NominalDiameter   string  `json:"nominal_diameter"`

	Hydraulics Hydraulics `json:"hydraulics"`

	CostPerM  float64 `json:"cost_per_m"`
	CostTotal float64 `json:"cost_total"`

	HierarchyLevel int    `json:"hierarchy_level"`
	HierarchyName  string `json:"hierarchy_name"`

	Compliant        bool            `json:"compliant"`
	Converged        bool            `json:"converged"`
	ResizeIterations int             `json:"resize_iterations"`
	Standards        map[string]bool `json:"standards_compliance"`
	Violations       []Violation     `json:"violations,omitempty"`
}
