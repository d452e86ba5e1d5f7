package entities

import (
	"strings"

	apperrors "github.com/pricegauge/laborrates/pkg/errors"
)

// EducationLevel is a point on the ordered education scale used to compare
// labor rates. The zero value means no education requirement.
type EducationLevel int

const (
	EducationNone EducationLevel = iota
	EducationHighSchool
	EducationAssociates
	EducationBachelors
	EducationMasters
	EducationDoctorate
)

var educationCodes = map[EducationLevel]string{
	EducationNone:       "NONE",
	EducationHighSchool: "HS",
	EducationAssociates: "AA",
	EducationBachelors:  "BA",
	EducationMasters:    "MA",
	EducationDoctorate:  "PHD",
}

var educationNames = map[EducationLevel]string{
	EducationNone:       "None",
	EducationHighSchool: "High School",
	EducationAssociates: "Associates",
	EducationBachelors:  "Bachelors",
	EducationMasters:    "Masters",
	EducationDoctorate:  "Ph.D",
}

// EducationLevels returns all levels in ascending order.
func EducationLevels() []EducationLevel {
	return []EducationLevel{
		EducationNone,
		EducationHighSchool,
		EducationAssociates,
		EducationBachelors,
		EducationMasters,
		EducationDoctorate,
	}
}

// ParseEducationLevel accepts either the short code ("BA") or the display
// name ("Bachelors"), case-insensitively.
func ParseEducationLevel(s string) (EducationLevel, error) {
	needle := strings.TrimSpace(strings.ToLower(s))
	for level, code := range educationCodes {
		if needle == strings.ToLower(code) || needle == strings.ToLower(educationNames[level]) {
			return level, nil
		}
	}
	return EducationNone, apperrors.NewValidationError("unknown education level: " + s)
}

// Code returns the short code used in search criteria and deep links.
func (e EducationLevel) Code() string {
	if code, ok := educationCodes[e]; ok {
		return code
	}
	return "NONE"
}

// String returns the display name.
func (e EducationLevel) String() string {
	if name, ok := educationNames[e]; ok {
		return name
	}
	return "None"
}

// Valid reports whether the level is on the known scale.
func (e EducationLevel) Valid() bool {
	_, ok := educationCodes[e]
	return ok
}

// GTE reports whether the level is at or above other on the ordered scale.
func (e EducationLevel) GTE(other EducationLevel) bool {
	return e >= other
}

// RateRecord is one awarded labor rate from the historical corpus.
// Records are read-only for the duration of an analysis run.
type RateRecord struct {
	ID                 int64          `json:"id"`
	LaborCategory      string         `json:"labor_category"`
	MinYearsExperience int            `json:"min_years_experience"`
	EducationLevel     EducationLevel `json:"education_level"`
	CurrentPrice       float64        `json:"current_price"`
	VendorName         string         `json:"vendor_name"`
	Schedule           string         `json:"schedule"`
}

// ProposedRate is one input row: a proposed labor-rate line item to be
// judged against the historical corpus. Owned by the caller, read-only here.
type ProposedRate struct {
	LaborCategory      string
	MinYearsExperience int
	EducationLevel     EducationLevel
	Price              float64
}

// Validate surfaces input errors before any analysis begins. Invalid
// categorical inputs are rejected, never coerced.
func (p *ProposedRate) Validate() error {
	if strings.TrimSpace(p.LaborCategory) == "" {
		return apperrors.NewValidationError("labor category must not be empty")
	}
	if p.MinYearsExperience < 0 {
		return apperrors.NewValidationError("minimum years of experience must not be negative")
	}
	if !p.EducationLevel.Valid() {
		return apperrors.NewValidationError("unknown education level")
	}
	if p.Price <= 0 {
		return apperrors.NewValidationError("proposed price must be positive")
	}
	return nil
}
