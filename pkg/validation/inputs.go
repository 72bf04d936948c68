package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// HoursPerYear is the expected length of an annual hourly demand series
	HoursPerYear = 8760

	idPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
)

func init() {
	validate = validator.New()
}

// DemandProfileRecord represents one building's annual demand series as loaded
// from an external source, before conversion to a domain profile.
type DemandProfileRecord struct {
	BuildingID string            `json:"building_id" yaml:"building_id" validate:"required,min=1,max=100"`
	HourlyKW   []float64         `json:"hourly_demand_kw" yaml:"hourly_demand_kw" validate:"required"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// PipeEdgeRecord represents one directed pipe edge of the street topology.
type PipeEdgeRecord struct {
	PipeID    string  `json:"pipe_id" yaml:"pipe_id" validate:"required,min=1,max=100"`
	StartNode string  `json:"start_node" yaml:"start_node"`
	EndNode   string  `json:"end_node" yaml:"end_node"`
	LengthM   float64 `json:"length_m,omitempty" yaml:"length_m,omitempty" validate:"omitempty,gt=0"`
}

// ValidateDemandProfile validates a building demand record.
// The series must cover a full year of hourly values and contain no
// negative demand.
func ValidateDemandProfile(rec *DemandProfileRecord) error {
	if rec == nil {
		return errors.New("demand profile record cannot be nil")
	}

	if err := validate.Struct(rec); err != nil {
		return formatValidationError(err)
	}

	if !idPattern.MatchString(rec.BuildingID) {
		return fmt.Errorf("BuildingID: %q contains invalid characters (only alphanumeric, underscore, dot and dash allowed)", rec.BuildingID)
	}

	if len(rec.HourlyKW) != HoursPerYear {
		return fmt.Errorf("HourlyKW: expected %d hourly values, got %d", HoursPerYear, len(rec.HourlyKW))
	}

	for i, v := range rec.HourlyKW {
		if v < 0 {
			return fmt.Errorf("HourlyKW: negative demand %f kW at hour %d", v, i)
		}
	}

	return nil
}

// ValidatePipeEdge validates a topology edge record. A missing endpoint is
// reported as an error here; the aggregator treats such edges as skippable
// rather than fatal.
func ValidatePipeEdge(rec *PipeEdgeRecord) error {
	if rec == nil {
		return errors.New("pipe edge record cannot be nil")
	}

	if err := validate.Struct(rec); err != nil {
		return formatValidationError(err)
	}

	if rec.StartNode == "" || rec.EndNode == "" {
		return fmt.Errorf("PipeID %s: edge is missing start or end node", rec.PipeID)
	}
	if rec.StartNode == rec.EndNode {
		return fmt.Errorf("PipeID %s: self-loop edge %s -> %s", rec.PipeID, rec.StartNode, rec.EndNode)
	}

	return nil
}

// formatValidationError converts validator errors into readable messages
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q constraint", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
