package network

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fernwaerme/heatnet/pkg/aggregate"
	"github.com/fernwaerme/heatnet/pkg/config"
	"github.com/fernwaerme/heatnet/pkg/demand"
	"github.com/fernwaerme/heatnet/pkg/hierarchy"
	"github.com/fernwaerme/heatnet/pkg/logging"
	"github.com/fernwaerme/heatnet/pkg/metrics"
	"github.com/fernwaerme/heatnet/pkg/sizing"
	"github.com/fernwaerme/heatnet/pkg/standards"
	"github.com/fernwaerme/heatnet/pkg/topology"
	"github.com/google/uuid"
)

// Default lengths for edges without survey data.
const (
	DefaultPipeLengthM    = 50.0
	DefaultServiceLengthM = 10.0
)

// Builder assembles a sized network from design flows and topology.
type Builder struct {
	cfg        *config.Config
	classifier *hierarchy.Classifier
	engine     *sizing.Engine
	aggregator *aggregate.Aggregator
	validator  *standards.Validator
	metrics    *metrics.Registry
	log        logging.Logger
}

// NewBuilder wires the builder from its collaborators. The metrics
// registry may be nil.
func NewBuilder(cfg *config.Config, reg *metrics.Registry, log logging.Logger) *Builder {
	if log == nil {
		log = logging.NewNopLogger()
	}
	classifier := hierarchy.NewClassifier(cfg)
	return &Builder{
		cfg:        cfg,
		classifier: classifier,
		engine:     sizing.NewEngine(cfg, classifier, log),
		aggregator: aggregate.NewAggregator(log),
		validator:  standards.NewValidator(cfg, log),
		metrics:    reg,
		log:        log.With(logging.Component("network")),
	}
}

// Engine exposes the builder's sizing engine for callers that size
// individual pipes outside a full build.
func (b *Builder) Engine() *sizing.Engine {
	return b.engine
}

// Validator exposes the builder's standards validator.
func (b *Builder) Validator() *standards.Validator {
	return b.validator
}

// Build sizes the whole network: aggregates flows, sizes paired supply
// and return pipes per edge plus one service connection per building,
// applies graduated sizing and attaches the aggregate validation
// result. Per-pipe input problems are isolated into the skipped list.
func (b *Builder) Build(flows map[string]demand.DesignFlow, designHour int, g *topology.Graph) (*SizedNetwork, error) {
	if g == nil {
		return nil, topology.ErrEmptyTopology
	}
	started := time.Now()

	net := &SizedNetwork{
		RunID:      uuid.New().String(),
		DesignHour: designHour,
	}
	net.Summary.CategoryDistribution = make(map[string]int)
	net.Summary.HierarchyDistribution = make(map[string]int)

	aggregated := b.aggregator.Aggregate(g, flows)

	for _, edge := range g.Edges() {
		res := aggregated[edge.PipeID]
		if b.metrics != nil {
			b.metrics.AggregationOutcomes.WithLabelValues(res.Outcome.String()).Inc()
		}
		if res.FlowKgS <= 0 {
			b.skip(net, edge.PipeID, "no downstream demand")
			continue
		}

		length := edge.LengthM
		if length <= 0 {
			length = DefaultPipeLengthM
		}
		cat := b.classifier.Classify(res.FlowKgS)

		supply, err := b.engine.SizePipe(edge.PipeID+"_supply", res.FlowKgS, length, cat)
		if err != nil {
			if errors.Is(err, hierarchy.ErrUnknownCategory) {
				return nil, err
			}
			b.skip(net, edge.PipeID, err.Error())
			continue
		}
		supply.StartNode = edge.StartNode
		supply.EndNode = edge.EndNode

		ret, err := b.engine.SizePipe(edge.PipeID+"_return", res.FlowKgS, length, cat)
		if err != nil {
			b.skip(net, edge.PipeID, err.Error())
			continue
		}
		ret.StartNode = edge.EndNode
		ret.EndNode = edge.StartNode

		net.SupplyPipes = append(net.SupplyPipes, supply)
		net.ReturnPipes = append(net.ReturnPipes, ret)
		b.record(net, supply)
		b.record(net, ret)
	}

	for _, buildingID := range sortedBuildings(flows) {
		flow := flows[buildingID]
		if flow.MassFlowKgS <= 0 {
			b.skip(net, buildingID, "building has no design flow")
			continue
		}
		node, ok := g.ConnectionNode(buildingID)
		if !ok {
			b.skip(net, buildingID, "building has no connection node")
			continue
		}

		cat := b.classifier.Classify(flow.MassFlowKgS)
		pipe, err := b.engine.SizePipe(buildingID+"_service", flow.MassFlowKgS, DefaultServiceLengthM, cat)
		if err != nil {
			b.skip(net, buildingID, err.Error())
			continue
		}
		pipe.StartNode = node

		net.ServiceConnections = append(net.ServiceConnections, &ServiceConnection{
			BuildingID: buildingID,
			NodeID:     node,
			Pipe:       pipe,
		})
		b.record(net, pipe)
	}

	if len(net.SupplyPipes) == 0 && len(net.ServiceConnections) == 0 {
		return nil, fmt.Errorf("no pipe could be sized: %d entries skipped", len(net.Summary.Skipped))
	}

	b.ApplyGraduatedSizing(net, g)

	for _, p := range b.allPipes(net) {
		if p.Compliant {
			net.Summary.CompliantPipes++
		} else {
			net.Summary.NonCompliantPipes++
		}
		if p.Converged {
			net.Summary.ConvergedPipes++
		} else {
			net.Summary.NonConvergedPipes++
		}
	}

	net.Statistics = b.statistics(net, flows)
	net.Validation = b.validator.ValidateNetwork(net.SupplyPipes, net.ReturnPipes)

	if b.metrics != nil {
		b.metrics.RecordRun(time.Since(started),
			net.Statistics.TotalLengthM,
			net.Statistics.TotalCost,
			net.Statistics.TotalFlowKgS,
			net.Statistics.PipeCount)
		b.metrics.NetworkComplianceRate.Set(net.Validation.ComplianceRate)
	}

	b.log.Info("network built",
		logging.String("run_id", net.RunID),
		logging.Int("supply_pipes", len(net.SupplyPipes)),
		logging.Int("service_connections", len(net.ServiceConnections)),
		logging.Int("skipped", len(net.Summary.Skipped)),
		logging.Bool("overall_compliant", net.Validation.OverallCompliant))
	return net, nil
}

// skip records one excluded pipe or building.
func (b *Builder) skip(net *SizedNetwork, id, reason string) {
	net.Summary.Skipped = append(net.Summary.Skipped, SkippedPipe{PipeID: id, Reason: reason})
	if b.metrics != nil {
		// Coarse label, the full reason would blow up cardinality.
		label := "invalid_input"
		switch reason {
		case "no downstream demand", "building has no design flow":
			label = "no_demand"
		case "building has no connection node":
			label = "unconnected"
		}
		b.metrics.SizingFailuresTotal.WithLabelValues(label).Inc()
	}
	b.log.Warn("pipe skipped", logging.PipeID(id), logging.String("reason", reason))
}

// record updates the sizing summary for one sized pipe. Compliance
// counts happen later, after graduated sizing had its say.
func (b *Builder) record(net *SizedNetwork, p *sizing.PipeSegment) {
	net.Summary.CategoryDistribution[string(p.Category)]++
	net.Summary.HierarchyDistribution[p.HierarchyName]++
	if b.metrics != nil {
		b.metrics.RecordPipeSized(string(p.Category), p.Converged, p.ResizeIterations)
	}
}

// statistics computes the physical totals over every sized pipe. Total
// flow is the sum of building design flows, not of per-pipe flows,
// which would double count shared trunk capacity.
func (b *Builder) statistics(net *SizedNetwork, flows map[string]demand.DesignFlow) NetworkStatistics {
	stats := NetworkStatistics{
		DiameterDistribution: make(map[string]int),
	}

	var velocitySum, dropSum float64
	for _, p := range b.allPipes(net) {
		stats.PipeCount++
		stats.TotalLengthM += p.LengthM
		stats.TotalCost += p.CostTotal
		stats.DiameterDistribution[p.NominalDiameter]++
		velocitySum += p.Hydraulics.VelocityMS
		dropSum += p.Hydraulics.PressureDropPaPerM
	}
	if stats.PipeCount > 0 {
		stats.MeanVelocityMS = velocitySum / float64(stats.PipeCount)
		stats.MeanPressureDropPaPerM = dropSum / float64(stats.PipeCount)
	}

	for _, buildingID := range sortedBuildings(flows) {
		stats.TotalFlowKgS += flows[buildingID].MassFlowKgS
	}
	return stats
}

// allPipes lists supply, return and service pipes in build order.
func (b *Builder) allPipes(net *SizedNetwork) []*sizing.PipeSegment {
	pipes := make([]*sizing.PipeSegment, 0, len(net.SupplyPipes)+len(net.ReturnPipes)+len(net.ServiceConnections))
	pipes = append(pipes, net.SupplyPipes...)
	pipes = append(pipes, net.ReturnPipes...)
	for _, sc := range net.ServiceConnections {
		pipes = append(pipes, sc.Pipe)
	}
	return pipes
}

// sortedBuildings returns building IDs in deterministic order.
func sortedBuildings(flows map[string]demand.DesignFlow) []string {
	ids := make([]string, 0, len(flows))
	for id := range flows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
