// Package config defines the explicit configuration for the pipe network
// sizing engine. Every tunable the sizing, classification and standards
// logic depends on lives here; nothing is defaulted inside code paths.
package config

import (
	"fmt"

	"github.com/fernwaerme/heatnet/pkg/validation"
)

// WaterProperties holds the physical properties of the heat carrier at
// design temperature.
type WaterProperties struct {
	DensityKgM3         float64 `yaml:"density_kg_m3" validate:"gt=0"`
	SpecificHeatJPerKgK float64 `yaml:"specific_heat_j_per_kg_k" validate:"gt=0"`
	DynamicViscosityPaS float64 `yaml:"dynamic_viscosity_pa_s" validate:"gt=0"`
}

// CategoryLimits holds per-category engineering limits and material data.
type CategoryLimits struct {
	MinVelocityMS         float64 `yaml:"min_velocity_m_s" validate:"gte=0"`
	MaxVelocityMS         float64 `yaml:"max_velocity_m_s" validate:"gt=0"`
	MaxPressureDropPaPerM float64 `yaml:"max_pressure_drop_pa_per_m" validate:"gt=0"`
	Material              string  `yaml:"material" validate:"required"`
	Insulated             bool    `yaml:"insulated"`
}

// CategoryThresholds partitions [0, inf) kg/s into the three pipe
// categories. Flows below DistributionMinKgS are service connections,
// flows below MainMinKgS are distribution pipes, everything above is a
// main pipe.
type CategoryThresholds struct {
	DistributionMinKgS float64 `yaml:"distribution_min_kg_s" validate:"gt=0"`
	MainMinKgS         float64 `yaml:"main_min_kg_s" validate:"gt=0"`
}

// HierarchyBand is one ordered level of the distribution hierarchy,
// covering flows in [MinFlowKgS, MaxFlowKgS). The top band leaves
// MaxFlowKgS at zero, meaning unbounded.
type HierarchyBand struct {
	Level      int     `yaml:"level" validate:"gt=0"`
	Name       string  `yaml:"name" validate:"required"`
	MinFlowKgS float64 `yaml:"min_flow_kg_s" validate:"gte=0"`
	MaxFlowKgS float64 `yaml:"max_flow_kg_s" validate:"gte=0"`
}

// CostFactors parameterizes the pipe cost model. Per-meter cost is
// base cost per mm of diameter, scaled by installation, material and
// insulation multipliers.
type CostFactors struct {
	BaseCostPerMmDiameter float64            `yaml:"base_cost_per_mm_diameter" validate:"gt=0"`
	InstallationFactor    float64            `yaml:"installation_factor" validate:"gt=0"`
	MaterialFactors       map[string]float64 `yaml:"material_factors" validate:"required"`
	InsulationFactor      float64            `yaml:"insulation_factor" validate:"gt=0"`
}

// StandardLimits holds one engineering standard's rule table. A standard
// either applies uniform limits to every pipe or carries per-category
// overrides; economic standards set cost and efficiency bounds instead.
type StandardLimits struct {
	MaxVelocityMS         float64                   `yaml:"max_velocity_m_s,omitempty"`
	MaxPressureDropPaPerM float64                   `yaml:"max_pressure_drop_pa_per_m,omitempty"`
	PerCategory           map[string]CategoryLimits `yaml:"per_category,omitempty"`
	MaxCostPerM           float64                   `yaml:"max_cost_per_m,omitempty"`
	MinEfficiency         float64                   `yaml:"min_efficiency,omitempty"`
	SiteChecks            bool                      `yaml:"site_checks,omitempty"`
}

// AutoResize bounds the diameter convergence loop.
type AutoResize struct {
	MaxIterations int `yaml:"max_iterations" validate:"gt=0"`
}

// Aggregation holds thresholds for network-level validation.
type Aggregation struct {
	MinComplianceRate float64 `yaml:"min_compliance_rate" validate:"gt=0,lte=1"`
}

// Config is the full engine configuration. Treat values as immutable once
// validated; every component receives the struct by pointer at
// construction and never writes to it.
type Config struct {
	Water             WaterProperties           `yaml:"water"`
	DesignTempDiffK   float64                   `yaml:"design_temp_diff_k" validate:"gt=0"`
	DiameterCatalogMm []float64                 `yaml:"diameter_catalog_mm" validate:"required,min=1"`
	PipeRoughnessM    float64                   `yaml:"pipe_roughness_m" validate:"gt=0"`
	Thresholds        CategoryThresholds        `yaml:"category_thresholds"`
	Categories        map[string]CategoryLimits `yaml:"categories" validate:"required"`
	Hierarchy         []HierarchyBand           `yaml:"hierarchy_levels" validate:"required,min=1"`
	Cost              CostFactors               `yaml:"cost_factors"`
	Standards         map[string]StandardLimits `yaml:"standards" validate:"required"`
	Resize            AutoResize                `yaml:"auto_resize"`
	Validation        Aggregation               `yaml:"validation"`
}

// Category names used as keys in Categories and StandardLimits.PerCategory.
const (
	CategoryServiceConnection = "service_connection"
	CategoryDistributionPipe  = "distribution_pipe"
	CategoryMainPipe          = "main_pipe"
)

// Standard names used as keys in Standards.
const (
	StandardEN13941    = "EN 13941"
	StandardDIN1988    = "DIN 1988"
	StandardVDI2067    = "VDI 2067"
	StandardLocalCodes = "Local Codes"
)

// DefaultConfig returns the documented default configuration.
func DefaultConfig() *Config {
	return &Config{
		Water: WaterProperties{
			DensityKgM3:         971.8, // water at 80 C
			SpecificHeatJPerKgK: 4190.0,
			DynamicViscosityPaS: 0.000355,
		},
		DesignTempDiffK:   30.0, // 80/50 supply/return
		DiameterCatalogMm: []float64{25, 32, 40, 50, 65, 80, 100, 125, 150, 200, 250, 300, 350, 400},
		PipeRoughnessM:    0.0001, // welded steel
		Thresholds: CategoryThresholds{
			DistributionMinKgS: 2.0,
			MainMinKgS:         20.0,
		},
		Categories: map[string]CategoryLimits{
			CategoryServiceConnection: {
				MinVelocityMS:         0.1,
				MaxVelocityMS:         2.0,
				MaxPressureDropPaPerM: 500.0,
				Material:              "steel",
				Insulated:             true,
			},
			CategoryDistributionPipe: {
				MinVelocityMS:         0.3,
				MaxVelocityMS:         2.5,
				MaxPressureDropPaPerM: 300.0,
				Material:              "steel",
				Insulated:             true,
			},
			CategoryMainPipe: {
				MinVelocityMS:         0.5,
				MaxVelocityMS:         3.0,
				MaxPressureDropPaPerM: 150.0,
				Material:              "steel",
				Insulated:             true,
			},
		},
		Hierarchy: []HierarchyBand{
			{Level: 1, Name: "service_connection", MinFlowKgS: 0, MaxFlowKgS: 2},
			{Level: 2, Name: "street_distribution", MinFlowKgS: 2, MaxFlowKgS: 10},
			{Level: 3, Name: "area_distribution", MinFlowKgS: 10, MaxFlowKgS: 50},
			{Level: 4, Name: "main_distribution", MinFlowKgS: 50, MaxFlowKgS: 200},
			{Level: 5, Name: "primary_main", MinFlowKgS: 200, MaxFlowKgS: 0},
		},
		Cost: CostFactors{
			BaseCostPerMmDiameter: 2.5,
			InstallationFactor:    1.8,
			MaterialFactors: map[string]float64{
				"steel": 1.0,
				"pex":   0.85,
			},
			InsulationFactor: 1.25,
		},
		Standards: map[string]StandardLimits{
			StandardEN13941: {
				MaxVelocityMS:         3.0,
				MaxPressureDropPaPerM: 300.0,
			},
			StandardDIN1988: {
				PerCategory: map[string]CategoryLimits{
					CategoryServiceConnection: {MinVelocityMS: 0.1, MaxVelocityMS: 2.0, MaxPressureDropPaPerM: 500.0, Material: "steel"},
					CategoryDistributionPipe:  {MinVelocityMS: 0.3, MaxVelocityMS: 2.5, MaxPressureDropPaPerM: 300.0, Material: "steel"},
					CategoryMainPipe:          {MinVelocityMS: 0.5, MaxVelocityMS: 3.0, MaxPressureDropPaPerM: 150.0, Material: "steel"},
				},
			},
			StandardVDI2067: {
				MaxCostPerM:   2500.0,
				MinEfficiency: 0.25,
			},
			StandardLocalCodes: {
				SiteChecks: true,
			},
		},
		Resize: AutoResize{
			MaxIterations: 5,
		},
		Validation: Aggregation{
			MinComplianceRate: 0.95,
		},
	}
}

// Validate checks the configuration for internal consistency. All
// violations are collected and reported together.
func (c *Config) Validate() error {
	cv := validation.NewConfigValidator("Config")

	cv.PositiveFloat("Water.DensityKgM3", c.Water.DensityKgM3).
		PositiveFloat("Water.SpecificHeatJPerKgK", c.Water.SpecificHeatJPerKgK).
		PositiveFloat("Water.DynamicViscosityPaS", c.Water.DynamicViscosityPaS).
		PositiveFloat("DesignTempDiffK", c.DesignTempDiffK).
		PositiveFloat("PipeRoughnessM", c.PipeRoughnessM).
		StrictlyAscending("DiameterCatalogMm", c.DiameterCatalogMm).
		PositiveFloat("Thresholds.DistributionMinKgS", c.Thresholds.DistributionMinKgS).
		Ordered("Thresholds", c.Thresholds.DistributionMinKgS, c.Thresholds.MainMinKgS).
		PositiveFloat("Cost.BaseCostPerMmDiameter", c.Cost.BaseCostPerMmDiameter).
		PositiveFloat("Cost.InstallationFactor", c.Cost.InstallationFactor).
		PositiveFloat("Cost.InsulationFactor", c.Cost.InsulationFactor).
		Positive("Resize.MaxIterations", c.Resize.MaxIterations).
		RangeFloat("Validation.MinComplianceRate", c.Validation.MinComplianceRate, 0, 1)

	for _, name := range []string{CategoryServiceConnection, CategoryDistributionPipe, CategoryMainPipe} {
		limits, ok := c.Categories[name]
		if !ok {
			cv.Custom("Categories", func() error {
				return fmt.Errorf("missing limits for category %q", name)
			})
			continue
		}
		cv.NonNegativeFloat("Categories."+name+".MinVelocityMS", limits.MinVelocityMS).
			Ordered("Categories."+name+".Velocity", limits.MinVelocityMS, limits.MaxVelocityMS).
			PositiveFloat("Categories."+name+".MaxPressureDropPaPerM", limits.MaxPressureDropPaPerM).
			Required("Categories."+name+".Material", limits.Material)

		if _, ok := c.Cost.MaterialFactors[limits.Material]; !ok {
			cv.Custom("Cost.MaterialFactors", func() error {
				return fmt.Errorf("no cost factor for material %q", limits.Material)
			})
		}
	}

	cv.Custom("Hierarchy", func() error { return validateHierarchy(c.Hierarchy) })

	if len(c.Standards) == 0 {
		cv.Custom("Standards", func() error {
			return fmt.Errorf("at least one standard must be configured")
		})
	}

	return cv.Validate()
}

// validateHierarchy checks that bands are ordered, contiguous and cover
// [0, inf).
func validateHierarchy(bands []HierarchyBand) error {
	if len(bands) == 0 {
		return fmt.Errorf("at least one hierarchy band required")
	}
	if bands[0].MinFlowKgS != 0 {
		return fmt.Errorf("first band must start at 0 kg/s, got %f", bands[0].MinFlowKgS)
	}
	for i := 0; i < len(bands); i++ {
		last := i == len(bands)-1
		if last {
			if bands[i].MaxFlowKgS != 0 {
				return fmt.Errorf("top band %q must be unbounded (max_flow_kg_s = 0)", bands[i].Name)
			}
			continue
		}
		if bands[i].MaxFlowKgS <= bands[i].MinFlowKgS {
			return fmt.Errorf("band %q has empty range [%f, %f)", bands[i].Name, bands[i].MinFlowKgS, bands[i].MaxFlowKgS)
		}
		if bands[i+1].MinFlowKgS != bands[i].MaxFlowKgS {
			return fmt.Errorf("gap between band %q and %q", bands[i].Name, bands[i+1].Name)
		}
		if bands[i+1].Level != bands[i].Level+1 {
			return fmt.Errorf("band levels must be consecutive, got %d after %d", bands[i+1].Level, bands[i].Level)
		}
	}
	return nil
}
