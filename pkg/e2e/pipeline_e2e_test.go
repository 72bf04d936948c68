package e2e

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernwaerme/heatnet/pkg/config"
	"github.com/fernwaerme/heatnet/pkg/demand"
	"github.com/fernwaerme/heatnet/pkg/metrics"
	"github.com/fernwaerme/heatnet/pkg/network"
	"github.com/fernwaerme/heatnet/pkg/standards"
	"github.com/fernwaerme/heatnet/pkg/topology"

	dto "github.com/prometheus/client_model/go"
)

// series builds a 24h demand curve that peaks at hour 8 with peakKW.
func series(peakKW float64) []float64 {
	s := make([]float64, 24)
	for h := range s {
		s[h] = peakKW * 0.3
	}
	s[8] = peakKW
	s[18] = peakKW * 0.7
	return s
}

// TestPipelineEndToEnd walks the full sizing pipeline for a small
// district: demand profiles to design flows, flows through the street
// topology, sized pipes, standards report and export.
func TestPipelineEndToEnd(t *testing.T) {
	cfg := config.DefaultConfig()
	reg := metrics.NewRegistry()

	t.Log("=== E2E Test: District Sizing Pipeline ===")

	// Step 1: design flows from demand forecasts. The kW values are
	// chosen so cp * dT divides them into round mass flows.
	t.Log("Step 1: Computing design flows...")
	profiles := []demand.Profile{
		{BuildingID: "school", HourlyKW: series(502.8)},  // 4.0 kg/s
		{BuildingID: "flats_a", HourlyKW: series(251.4)}, // 2.0 kg/s
		{BuildingID: "flats_b", HourlyKW: series(125.7)}, // 1.0 kg/s
		{BuildingID: "clinic", HourlyKW: series(125.7)},  // 1.0 kg/s
	}
	calc := demand.NewCalculator(cfg, nil)
	flows, designHour, skipped := calc.DesignFlows(profiles)
	require.Empty(t, skipped, "no building should be skipped")
	require.Equal(t, 8, designHour, "aggregate demand peaks at hour 8")
	assert.InDelta(t, 4.0, flows["school"].MassFlowKgS, 1e-9)
	assert.InDelta(t, 1.0, flows["clinic"].MassFlowKgS, 1e-9)
	t.Logf("✓ Design hour %d, %d buildings", designHour, len(flows))

	// Step 2: street topology
	t.Log("Step 2: Building topology...")
	g, err := topology.Build(
		[]topology.Edge{
			{PipeID: "trunk", StartNode: "plant", EndNode: "hub", LengthM: 200},
			{PipeID: "north", StartNode: "hub", EndNode: "north", LengthM: 120},
			{PipeID: "south", StartNode: "hub", EndNode: "south", LengthM: 80},
		},
		map[string]string{
			"school":  "north",
			"flats_a": "north",
			"flats_b": "south",
			"clinic":  "south",
		},
	)
	require.NoError(t, err)
	t.Logf("✓ Topology with %d nodes", g.NodeCount())

	// Step 3: size the network
	t.Log("Step 3: Sizing the network...")
	builder := network.NewBuilder(cfg, reg, nil)
	net, err := builder.Build(flows, designHour, g)
	require.NoError(t, err)

	require.Len(t, net.SupplyPipes, 3)
	require.Len(t, net.ReturnPipes, 3)
	require.Len(t, net.ServiceConnections, 4)
	assert.Empty(t, net.Summary.Skipped)

	byID := make(map[string]float64)
	for _, p := range net.SupplyPipes {
		byID[p.PipeID] = p.FlowKgS
	}
	assert.InDelta(t, 8.0, byID["trunk_supply"], 1e-9, "trunk carries the whole district")
	assert.InDelta(t, 6.0, byID["north_supply"], 1e-9, "north branch carries school and flats_a")
	assert.InDelta(t, 2.0, byID["south_supply"], 1e-9, "south branch carries flats_b and clinic")

	for i, supply := range net.SupplyPipes {
		ret := net.ReturnPipes[i]
		assert.Equal(t, supply.DiameterM, ret.DiameterM, "return mirrors supply diameter")
		assert.Equal(t, supply.StartNode, ret.EndNode, "return runs the opposite way")
	}

	assert.Equal(t, 10, net.Statistics.PipeCount)
	assert.InDelta(t, 8.0, net.Statistics.TotalFlowKgS, 1e-9)
	assert.Equal(t, 10, net.Summary.ConvergedPipes, "every pipe converges on this small district")
	assert.Zero(t, net.Summary.NonConvergedPipes)
	t.Logf("✓ %d pipes sized, total cost %.0f", net.Statistics.PipeCount, net.Statistics.TotalCost)

	// Step 4: aggregate validation came attached to the network
	t.Log("Step 4: Checking network validation...")
	require.NotNil(t, net.Validation)
	assert.True(t, net.Validation.OverallCompliant)
	assert.Empty(t, net.Validation.CriticalViolations)
	assert.InDelta(t, 1.0, net.Validation.ComplianceRate, 1e-9)
	t.Logf("✓ Network compliant at rate %.2f", net.Validation.ComplianceRate)

	// Step 5: standards report
	t.Log("Step 5: Generating compliance report...")
	report, err := builder.Validator().Report(net.SupplyPipes, net.ReturnPipes)
	require.NoError(t, err)
	require.Len(t, report.Standards, 4)
	assert.Equal(t, standards.StatusCompliant, report.Standards[config.StandardEN13941].Status)
	assert.Equal(t, standards.StatusNotImplemented, report.Standards[config.StandardLocalCodes].Status)
	t.Logf("✓ Report %s covers %d standards", report.ReportID, len(report.Standards))

	// Step 6: export round-trips through JSON
	t.Log("Step 6: Exporting report...")
	var buf bytes.Buffer
	require.NoError(t, standards.ExportReport(report, "json", &buf))

	var decoded standards.ComplianceReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.ReportID, decoded.ReportID)
	t.Logf("✓ Exported %d bytes of JSON", buf.Len())

	// Step 7: run metrics reflect the build
	t.Log("Step 7: Checking metrics...")
	var metric dto.Metric
	require.NoError(t, reg.NetworkPipes.Write(&metric))
	assert.Equal(t, 10.0, metric.Gauge.GetValue())
	require.NoError(t, reg.NetworkFlowKgS.Write(&metric))
	assert.InDelta(t, 8.0, metric.Gauge.GetValue(), 1e-9)
	require.NoError(t, reg.NetworkComplianceRate.Write(&metric))
	assert.InDelta(t, 1.0, metric.Gauge.GetValue(), 1e-9)
	t.Log("✓ Metrics recorded")
}

// TestPipelineDegradedInputs exercises the pipeline's tolerance for the
// messy parts of real survey data: broken edges and unknown buildings.
func TestPipelineDegradedInputs(t *testing.T) {
	cfg := config.DefaultConfig()

	profiles := []demand.Profile{
		{BuildingID: "b1", HourlyKW: series(125.7)},
		{BuildingID: "ghost", HourlyKW: nil}, // no data at all
	}
	calc := demand.NewCalculator(cfg, nil)
	flows, designHour, skipped := calc.DesignFlows(profiles)
	require.Len(t, skipped, 1, "the empty series is reported, not fatal")
	require.Contains(t, flows, "b1")

	g, err := topology.Build(
		[]topology.Edge{
			{PipeID: "p1", StartNode: "plant", EndNode: "street", LengthM: 90},
			{PipeID: "broken", StartNode: "", EndNode: "street"},
		},
		map[string]string{"b1": "street"},
	)
	require.NoError(t, err)
	require.Len(t, g.Skipped(), 1)

	builder := network.NewBuilder(cfg, nil, nil)
	net, err := builder.Build(flows, designHour, g)
	require.NoError(t, err)

	assert.Len(t, net.SupplyPipes, 1)
	assert.Len(t, net.ServiceConnections, 1)
	assert.True(t, net.Validation.OverallCompliant)
}
