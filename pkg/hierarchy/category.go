// Package hierarchy classifies pipe segments into the closed set of
// network categories and into ordered distribution hierarchy levels,
// driven purely by flow rate.
package hierarchy

import (
	"errors"
	"fmt"

	"github.com/fernwaerme/heatnet/pkg/config"
)

// ErrUnknownCategory is returned when a category has no configured limits.
var ErrUnknownCategory = errors.New("unknown pipe category")

// Category is the closed enumeration of pipe categories. A pipe belongs
// to exactly one category, derived from its flow rate.
type Category string

const (
	ServiceConnection Category = config.CategoryServiceConnection
	DistributionPipe  Category = config.CategoryDistributionPipe
	MainPipe          Category = config.CategoryMainPipe
)

// Categories returns all valid categories in ascending flow order.
func Categories() []Category {
	return []Category{ServiceConnection, DistributionPipe, MainPipe}
}

// String returns the category's configuration key.
func (c Category) String() string {
	return string(c)
}

// ParseCategory validates a configuration key and converts it into a
// Category.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case ServiceConnection, DistributionPipe, MainPipe:
		return Category(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}
