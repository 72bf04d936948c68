// Package aggregate sums building design flows upstream through the
// network graph. Every pipe carries the combined flow of all buildings
// reachable downstream of it.
package aggregate

import (
	"sort"

	"github.com/fernwaerme/heatnet/pkg/demand"
	"github.com/fernwaerme/heatnet/pkg/logging"
	"github.com/fernwaerme/heatnet/pkg/topology"
)

// Outcome describes how a pipe's flow was obtained. Degradation is a
// first-class result, not an error: a disconnected or partially invalid
// topology still yields a usable network.
type Outcome int

const (
	// OutcomeAggregated means the flow is the sum over the full
	// downstream reachable set.
	OutcomeAggregated Outcome = iota
	// OutcomeDegraded means traversal was impossible and the flow is a
	// direct single-hop match of buildings at the pipe's end node.
	OutcomeDegraded
	// OutcomeSkipped means the edge was malformed and carries no flow.
	OutcomeSkipped
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeAggregated:
		return "aggregated"
	case OutcomeDegraded:
		return "degraded"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result is the aggregation result for one pipe.
type Result struct {
	PipeID    string
	FlowKgS   float64
	Outcome   Outcome
	Reason    string
	Buildings []string
}

// Aggregator computes per-pipe flows from a topology graph and
// per-building design flows.
type Aggregator struct {
	log logging.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(log logging.Logger) *Aggregator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Aggregator{log: log.With(logging.Component("aggregate"))}
}

// Aggregate computes the flow for every edge of the graph. Edges skipped
// during graph construction appear in the result with OutcomeSkipped so
// callers see the full picture of their input.
func (a *Aggregator) Aggregate(g *topology.Graph, flows map[string]demand.DesignFlow) map[string]Result {
	results := make(map[string]Result, len(g.Edges())+len(g.Skipped()))

	degraded := 0
	for _, edge := range g.Edges() {
		res := a.AggregateEdge(g, edge, flows)
		if res.Outcome == OutcomeDegraded {
			degraded++
		}
		results[res.PipeID] = res
	}

	for _, sk := range g.Skipped() {
		results[sk.Edge.PipeID] = Result{
			PipeID:  sk.Edge.PipeID,
			Outcome: OutcomeSkipped,
			Reason:  sk.Reason,
		}
	}

	a.log.Info("flow aggregation complete",
		logging.Count(len(results)),
		logging.Int("degraded", degraded),
		logging.Int("skipped", len(g.Skipped())))
	return results
}

// AggregateEdge sums the design flows of all buildings reachable from the
// edge's end node. Buildings are visited in sorted order so the float
// summation order, and therefore the result, is identical across runs.
// Edges referencing nodes the graph never saw cannot be traversed and
// degrade to a direct single-hop match.
func (a *Aggregator) AggregateEdge(g *topology.Graph, edge topology.Edge, flows map[string]demand.DesignFlow) Result {
	buildings, ok := g.ReachableBuildings(edge.EndNode)
	if !ok {
		return a.directMatch(g, edge, flows)
	}

	res := Result{
		PipeID:  edge.PipeID,
		Outcome: OutcomeAggregated,
	}
	for _, b := range buildings {
		flow, ok := flows[b]
		if !ok {
			continue
		}
		res.FlowKgS += flow.MassFlowKgS
		res.Buildings = append(res.Buildings, b)
	}
	return res
}

// directMatch is the degradation path: only buildings connected directly
// at the pipe's end node contribute.
func (a *Aggregator) directMatch(g *topology.Graph, edge topology.Edge, flows map[string]demand.DesignFlow) Result {
	res := Result{
		PipeID:  edge.PipeID,
		Outcome: OutcomeDegraded,
		Reason:  "end node not traversable, matched directly connected buildings",
	}

	buildingIDs := make([]string, 0, len(flows))
	for b := range flows {
		buildingIDs = append(buildingIDs, b)
	}
	sort.Strings(buildingIDs)

	for _, b := range buildingIDs {
		node, ok := g.ConnectionNode(b)
		if !ok || node != edge.EndNode {
			continue
		}
		res.FlowKgS += flows[b].MassFlowKgS
		res.Buildings = append(res.Buildings, b)
	}

	a.log.Warn("aggregation degraded to direct match",
		logging.PipeID(edge.PipeID),
		logging.NodeID(edge.EndNode),
		logging.FlowKgS(res.FlowKgS))
	return res
}
