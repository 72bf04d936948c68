package standards

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// ExportReport writes the compliance report in the requested format.
// The JSON form is the persisted interchange format; every numeric key
// carries its unit suffix.
func ExportReport(report *ComplianceReport, format string, writer io.Writer) error {
	switch format {
	case "json":
		return exportJSON(report, writer)
	case "text":
		return exportText(report, writer)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func exportJSON(report *ComplianceReport, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func exportText(report *ComplianceReport, writer io.Writer) error {
	fmt.Fprintf(writer, "Network Compliance Report %s\n", report.ReportID)
	fmt.Fprintf(writer, "Generated: %s\n\n", report.GeneratedAt.Format(time.RFC3339))

	names := make([]string, 0, len(report.Standards))
	for name := range report.Standards {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		res := report.Standards[name]
		fmt.Fprintf(writer, "[%s] %s\n", res.Status, name)
		fmt.Fprintf(writer, "  Pipes: %d, Compliant: %d, Rate: %.1f%%\n",
			res.TotalPipes, res.CompliantPipes, res.ComplianceRate*100)
		if len(res.Violations) > 0 {
			fmt.Fprintf(writer, "  Violations: %d\n", len(res.Violations))
		}
		if res.Notes != "" {
			fmt.Fprintf(writer, "  Notes: %s\n", res.Notes)
		}
	}

	if report.Network != nil {
		fmt.Fprintf(writer, "\nNetwork Validation\n")
		fmt.Fprintf(writer, "  Overall Compliant: %t\n", report.Network.OverallCompliant)
		fmt.Fprintf(writer, "  Compliance Rate: %.1f%%\n", report.Network.ComplianceRate*100)
		fmt.Fprintf(writer, "  Critical Violations: %d\n", len(report.Network.CriticalViolations))
		for _, rec := range report.Network.Recommendations {
			fmt.Fprintf(writer, "  - %s\n", rec)
		}
	}

	return nil
}
