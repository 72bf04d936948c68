package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fernwaerme/heatnet/pkg/config"
	"github.com/fernwaerme/heatnet/pkg/demand"
	"github.com/fernwaerme/heatnet/pkg/logging"
	"github.com/fernwaerme/heatnet/pkg/metrics"
	"github.com/fernwaerme/heatnet/pkg/network"
	"github.com/fernwaerme/heatnet/pkg/standards"
	"github.com/fernwaerme/heatnet/pkg/topology"
	"github.com/fernwaerme/heatnet/pkg/validation"
)

// demandFile is the YAML input carrying per-building demand forecasts.
type demandFile struct {
	Buildings []validation.DemandProfileRecord `yaml:"buildings"`
}

// topologyFile is the YAML input carrying the street network.
type topologyFile struct {
	Pipes       []validation.PipeEdgeRecord `yaml:"pipes"`
	Connections map[string]string           `yaml:"building_connections"`
}

func main() {
	configPath := flag.String("config", "", "Engine configuration YAML (defaults apply when empty)")
	demandPath := flag.String("demand", "demand.yaml", "Building demand forecasts YAML")
	topologyPath := flag.String("topology", "topology.yaml", "Street network topology YAML")
	networkOut := flag.String("out", "sized_network.json", "Sized network output file")
	reportOut := flag.String("report", "compliance_report.json", "Compliance report output file")
	reportFormat := flag.String("format", "json", "Compliance report format (json or text)")
	flag.Parse()

	logger := logging.NewDefaultLogger()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else if err := cfg.Validate(); err != nil {
		log.Fatalf("Default config invalid: %v", err)
	}

	profiles, err := loadDemand(*demandPath, logger)
	if err != nil {
		log.Fatalf("Failed to load demand: %v", err)
	}

	graph, err := loadTopology(*topologyPath, logger)
	if err != nil {
		log.Fatalf("Failed to load topology: %v", err)
	}

	calc := demand.NewCalculator(cfg, logger)
	flows, designHour, skipped := calc.DesignFlows(profiles)
	for _, err := range skipped {
		logger.Warn("building excluded", logging.Error(err))
	}

	builder := network.NewBuilder(cfg, metrics.DefaultRegistry(), logger)
	net, err := builder.Build(flows, designHour, graph)
	if err != nil {
		log.Fatalf("Network build failed: %v", err)
	}

	if err := writeJSON(*networkOut, net); err != nil {
		log.Fatalf("Failed to write network: %v", err)
	}

	report, err := builder.Validator().Report(net.SupplyPipes, net.ReturnPipes)
	if err != nil {
		log.Fatalf("Compliance report failed: %v", err)
	}
	if err := writeReport(*reportOut, *reportFormat, report); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	fmt.Printf("✅ Sized %d supply pipes, %d service connections (design hour %d)\n",
		len(net.SupplyPipes), len(net.ServiceConnections), net.DesignHour)
	fmt.Printf("📊 Compliance rate %.1f%%, overall compliant: %t\n",
		net.Validation.ComplianceRate*100, net.Validation.OverallCompliant)
	fmt.Printf("📂 Network: %s, report: %s\n", *networkOut, *reportOut)
}

// loadDemand reads and validates building demand records. Invalid
// records are dropped with a warning; an unreadable file is fatal.
func loadDemand(path string, logger logging.Logger) ([]demand.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file demandFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	profiles := make([]demand.Profile, 0, len(file.Buildings))
	for i := range file.Buildings {
		rec := &file.Buildings[i]
		if err := validation.ValidateDemandProfile(rec); err != nil {
			logger.Warn("invalid demand record", logging.Error(err))
			continue
		}
		profiles = append(profiles, demand.Profile{
			BuildingID: rec.BuildingID,
			HourlyKW:   rec.HourlyKW,
			Metadata:   rec.Metadata,
		})
	}
	return profiles, nil
}

// loadTopology reads the street network and builds the immutable graph.
// Record-level problems surface as skipped edges inside the graph.
func loadTopology(path string, logger logging.Logger) (*topology.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file topologyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	edges := make([]topology.Edge, 0, len(file.Pipes))
	for i := range file.Pipes {
		rec := &file.Pipes[i]
		if err := validation.ValidatePipeEdge(rec); err != nil {
			logger.Warn("invalid pipe edge", logging.Error(err))
		}
		edges = append(edges, topology.Edge{
			PipeID:    rec.PipeID,
			StartNode: rec.StartNode,
			EndNode:   rec.EndNode,
			LengthM:   rec.LengthM,
		})
	}
	return topology.Build(edges, file.Connections)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeReport(path, format string, report *standards.ComplianceReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return standards.ExportReport(report, format, f)
}
