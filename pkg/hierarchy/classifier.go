package hierarchy

import (
	"fmt"

	"github.com/fernwaerme/heatnet/pkg/config"
)

// Classifier maps flow rates onto categories and hierarchy levels using
// the configured thresholds. It is stateless apart from read-only
// configuration and safe for concurrent use.
type Classifier struct {
	thresholds config.CategoryThresholds
	categories map[string]config.CategoryLimits
	bands      []config.HierarchyBand
}

// NewClassifier builds a classifier from validated configuration.
func NewClassifier(cfg *config.Config) *Classifier {
	return &Classifier{
		thresholds: cfg.Thresholds,
		categories: cfg.Categories,
		bands:      cfg.Hierarchy,
	}
}

// Classify partitions [0, inf) kg/s into exactly three non-overlapping
// intervals: [0, distribution_min) -> ServiceConnection,
// [distribution_min, main_min) -> DistributionPipe,
// [main_min, inf) -> MainPipe.
func (c *Classifier) Classify(flowKgS float64) Category {
	switch {
	case flowKgS < c.thresholds.DistributionMinKgS:
		return ServiceConnection
	case flowKgS < c.thresholds.MainMinKgS:
		return DistributionPipe
	default:
		return MainPipe
	}
}

// Limits returns the configured engineering limits for a category.
func (c *Classifier) Limits(cat Category) (config.CategoryLimits, error) {
	if _, err := ParseCategory(string(cat)); err != nil {
		return config.CategoryLimits{}, err
	}
	limits, ok := c.categories[string(cat)]
	if !ok {
		return config.CategoryLimits{}, fmt.Errorf("%w: no limits configured for %s", ErrUnknownCategory, cat)
	}
	return limits, nil
}

// Level maps a flow rate into one of the ordered hierarchy bands
// (service connections, street distribution, area distribution, main
// distribution, primary main). The top band is unbounded, so every
// non-negative flow maps to exactly one band.
func (c *Classifier) Level(flowKgS float64) config.HierarchyBand {
	for i, band := range c.bands {
		last := i == len(c.bands)-1
		if last || flowKgS < band.MaxFlowKgS {
			return band
		}
	}
	// Unreachable with a validated config; bands always cover [0, inf).
	return c.bands[len(c.bands)-1]
}

// Bands returns the configured hierarchy bands in ascending order.
func (c *Classifier) Bands() []config.HierarchyBand {
	return c.bands
}
