package network

import (
	"sort"

	"github.com/fernwaerme/heatnet/pkg/logging"
	"github.com/fernwaerme/heatnet/pkg/sizing"
	"github.com/fernwaerme/heatnet/pkg/topology"
)

// ApplyGraduatedSizing enforces non-decreasing diameter moving upstream:
// every pipe must be at least as wide as the widest pipe anywhere
// downstream of it. Upstream pipes below that bound are bumped to it and
// their hydraulics, cost and constraint compliance recomputed; return
// pipes mirror their supply partner.
//
// One pass over full descendant sets is a fixpoint: if r lies downstream
// of q and q downstream of p, then r is also in p's descendant set, so
// p's bound already accounts for r before q is ever adjusted.
func (b *Builder) ApplyGraduatedSizing(net *SizedNetwork, g *topology.Graph) {
	info := GraduatedSizingInfo{Applied: true}

	// Widest service pipe per connection node.
	serviceMax := make(map[string]float64)
	for _, sc := range net.ServiceConnections {
		if sc.Pipe.DiameterM > serviceMax[sc.NodeID] {
			serviceMax[sc.NodeID] = sc.Pipe.DiameterM
		}
	}

	for i, supply := range net.SupplyPipes {
		reachable, ok := g.Descendants(supply.EndNode)
		if !ok {
			continue
		}

		bound := 0.0
		for _, other := range net.SupplyPipes {
			if other == supply {
				continue
			}
			if reachable[other.StartNode] && other.DiameterM > bound {
				bound = other.DiameterM
			}
		}
		for node := range reachable {
			if serviceMax[node] > bound {
				bound = serviceMax[node]
			}
		}

		if bound <= supply.DiameterM {
			continue
		}

		b.regrade(supply, bound)
		if i < len(net.ReturnPipes) {
			b.regrade(net.ReturnPipes[i], bound)
		}
		info.AdjustedPipes = append(info.AdjustedPipes, supply.PipeID)
		if b.metrics != nil {
			b.metrics.GraduatedAdjustedTotal.Inc()
		}
		b.log.Info("graduated sizing adjusted pipe",
			logging.PipeID(supply.PipeID),
			logging.DiameterM(bound))
	}

	sort.Strings(info.AdjustedPipes)
	net.GraduatedSizing = info
}

// regrade sets a new diameter on a sized pipe and recomputes everything
// that depends on it. Convergence bookkeeping from the resize loop is
// left untouched.
func (b *Builder) regrade(p *sizing.PipeSegment, diameterM float64) {
	p.DiameterM = diameterM
	p.NominalDiameter = sizing.NominalLabel(diameterM)
	p.Hydraulics = b.engine.Hydraulics(diameterM, p.FlowKgS, p.LengthM)

	perM, total, err := b.engine.Cost(diameterM, p.LengthM, p.Category)
	if err == nil {
		p.CostPerM = perM
		p.CostTotal = total
	}

	compliant, violations, err := b.engine.ValidateConstraints(p)
	if err == nil {
		p.Compliant = compliant
		p.Violations = violations
	}
}
