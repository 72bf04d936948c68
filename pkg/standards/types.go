// Package standards validates sized pipe networks against configurable
// engineering standards (EN 13941, DIN 1988, VDI 2067, local codes) and
// aggregates the per-standard results into a network-level verdict.
package standards

import (
	"time"

	"github.com/fernwaerme/heatnet/pkg/sizing"
)

// Status summarizes how a standard was evaluated.
type Status string

const (
	StatusCompliant      Status = "compliant"
	StatusNonCompliant   Status = "non_compliant"
	StatusNotImplemented Status = "not_implemented"
)

// ComplianceResult is one standard's verdict over a set of pipes.
type ComplianceResult struct {
	Standard        string             `json:"standard"`
	Status          Status             `json:"status"`
	Compliant       bool               `json:"compliant"`
	ComplianceRate  float64            `json:"compliance_rate"`
	TotalPipes      int                `json:"total_pipes"`
	CompliantPipes  int                `json:"compliant_pipes"`
	Violations      []sizing.Violation `json:"violations,omitempty"`
	Recommendations []string           `json:"recommendations,omitempty"`
	Notes           string             `json:"notes,omitempty"`
}

// NetworkValidationResult is the aggregate, standard-independent verdict
// over every supply and return pipe.
type NetworkValidationResult struct {
	OverallCompliant     bool               `json:"overall_compliant"`
	TotalPipes           int                `json:"total_pipes"`
	CompliantPipes       int                `json:"compliant_pipes"`
	NonCompliantPipes    int                `json:"non_compliant_pipes"`
	ComplianceRate       float64            `json:"compliance_rate"`
	ViolationsByType     map[string]int     `json:"violations_by_type,omitempty"`
	ViolationsBySeverity map[string]int     `json:"violations_by_severity,omitempty"`
	CriticalViolations   []sizing.Violation `json:"critical_violations,omitempty"`
	Recommendations      []string           `json:"recommendations,omitempty"`
}

// ComplianceReport bundles every configured standard's result with the
// aggregate network validation. It is the interchange record handed to
// external cost analysis and report tooling.
type ComplianceReport struct {
	ReportID    string                       `json:"report_id"`
	GeneratedAt time.Time                    `json:"generated_at"`
	Standards   map[string]*ComplianceResult `json:"standards"`
	Network     *NetworkValidationResult     `json:"network_validation"`
}
