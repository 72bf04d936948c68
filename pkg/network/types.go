// Package network assembles sized supply, return and service pipes into
// a complete network record with statistics, graduated sizing and the
// embedded validation result.
package network

import (
	"github.com/fernwaerme/heatnet/pkg/sizing"
	"github.com/fernwaerme/heatnet/pkg/standards"
)

// ServiceConnection is the sized branch pipe from a street junction into
// one building.
type ServiceConnection struct {
	BuildingID string              `json:"building_id"`
	NodeID     string              `json:"node_id"`
	Pipe       *sizing.PipeSegment `json:"pipe"`
}

// SkippedPipe records a pipe excluded from the build and why. Input
// problems on one pipe never abort the network build.
type SkippedPipe struct {
	PipeID string `json:"pipe_id"`
	Reason string `json:"reason"`
}

// NetworkStatistics aggregates the physical totals of a sized network.
type NetworkStatistics struct {
	TotalLengthM           float64        `json:"total_length_m"`
	TotalCost              float64        `json:"total_cost"`
	TotalFlowKgS           float64        `json:"total_flow_kg_s"`
	PipeCount              int            `json:"pipe_count"`
	DiameterDistribution   map[string]int `json:"diameter_distribution"`
	MeanVelocityMS         float64        `json:"mean_velocity_m_s"`
	MeanPressureDropPaPerM float64        `json:"mean_pressure_drop_pa_per_m"`
}

// SizingSummary aggregates sizing outcomes per category and compliance.
type SizingSummary struct {
	CategoryDistribution  map[string]int `json:"category_distribution"`
	HierarchyDistribution map[string]int `json:"hierarchy_distribution"`
	CompliantPipes        int            `json:"compliant_pipes"`
	NonCompliantPipes     int            `json:"non_compliant_pipes"`
	ConvergedPipes        int            `json:"converged_pipes"`
	NonConvergedPipes     int            `json:"non_converged_pipes"`
	Skipped               []SkippedPipe  `json:"skipped,omitempty"`
}

// GraduatedSizingInfo describes what the graduated sizing pass changed.
type GraduatedSizingInfo struct {
	Applied       bool     `json:"applied"`
	AdjustedPipes []string `json:"adjusted_pipes,omitempty"`
}

// SizedNetwork is the full output of a sizing run.
type SizedNetwork struct {
	RunID      string `json:"run_id"`
	DesignHour int    `json:"design_hour"`

	SupplyPipes        []*sizing.PipeSegment `json:"supply_pipes"`
	ReturnPipes        []*sizing.PipeSegment `json:"return_pipes"`
	ServiceConnections []*ServiceConnection  `json:"service_connections"`

	Statistics      NetworkStatistics                  `json:"network_statistics"`
	Summary         SizingSummary                      `json:"sizing_summary"`
	GraduatedSizing GraduatedSizingInfo                `json:"graduated_sizing"`
	Validation      *standards.NetworkValidationResult `json:"validation_result,omitempty"`
}
