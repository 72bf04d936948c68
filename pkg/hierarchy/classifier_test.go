package hierarchy

import (
	"errors"
	"testing"

	"github.com/fernwaerme/heatnet/pkg/config"
)

func testClassifier(t *testing.T) *Classifier {
	t.Helper()
	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	return NewClassifier(cfg)
}

func TestClassifyPartition(t *testing.T) {
	c := testClassifier(t)

	tests := []struct {
		name    string
		flowKgS float64
		want    Category
	}{
		{"zero flow", 0.0, ServiceConnection},
		{"small service", 0.5, ServiceConnection},
		{"just below distribution", 1.999, ServiceConnection},
		{"distribution boundary inclusive", 2.0, DistributionPipe},
		{"mid distribution", 10.0, DistributionPipe},
		{"just below main", 19.999, DistributionPipe},
		{"main boundary inclusive", 20.0, MainPipe},
		{"large main", 500.0, MainPipe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.flowKgS); got != tt.want {
				t.Errorf("Classify(%f) = %s, want %s", tt.flowKgS, got, tt.want)
			}
		})
	}
}

func TestClassifyExactlyOneCategory(t *testing.T) {
	c := testClassifier(t)

	// Sweep across the thresholds; every flow must map to exactly one
	// of the three categories.
	for flow := 0.0; flow < 30.0; flow += 0.125 {
		got := c.Classify(flow)
		switch got {
		case ServiceConnection, DistributionPipe, MainPipe:
		default:
			t.Fatalf("Classify(%f) returned invalid category %q", flow, got)
		}
	}
}

func TestLimits(t *testing.T) {
	c := testClassifier(t)

	for _, cat := range Categories() {
		limits, err := c.Limits(cat)
		if err != nil {
			t.Fatalf("Limits(%s) returned error: %v", cat, err)
		}
		if limits.MaxVelocityMS <= limits.MinVelocityMS {
			t.Errorf("Limits(%s): velocity range [%f, %f] is empty", cat, limits.MinVelocityMS, limits.MaxVelocityMS)
		}
	}
}

func TestLimitsUnknownCategory(t *testing.T) {
	c := testClassifier(t)

	_, err := c.Limits(Category("garden_hose"))
	if err == nil {
		t.Fatal("expected error for unknown category")
	}
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestParseCategory(t *testing.T) {
	for _, cat := range Categories() {
		parsed, err := ParseCategory(string(cat))
		if err != nil {
			t.Errorf("ParseCategory(%q) returned error: %v", cat, err)
		}
		if parsed != cat {
			t.Errorf("ParseCategory(%q) = %q", cat, parsed)
		}
	}

	if _, err := ParseCategory("bogus"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory for bogus category, got %v", err)
	}
}

func TestHierarchyLevels(t *testing.T) {
	c := testClassifier(t)

	tests := []struct {
		flowKgS   float64
		wantLevel int
		wantName  string
	}{
		{0.5, 1, "service_connection"},
		{2.0, 2, "street_distribution"},
		{9.999, 2, "street_distribution"},
		{10.0, 3, "area_distribution"},
		{50.0, 4, "main_distribution"},
		{200.0, 5, "primary_main"},
		{10000.0, 5, "primary_main"},
	}

	for _, tt := range tests {
		band := c.Level(tt.flowKgS)
		if band.Level != tt.wantLevel || band.Name != tt.wantName {
			t.Errorf("Level(%f) = (%d, %s), want (%d, %s)",
				tt.flowKgS, band.Level, band.Name, tt.wantLevel, tt.wantName)
		}
	}
}
