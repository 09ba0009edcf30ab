package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// AnalysisRequest carries every parameter of one bad-year analysis. It is the
// body of POST /v1/analyses and the value of source-topic messages.
type AnalysisRequest struct {
	ID      string   `json:"id,omitempty"`
	Country string   `json:"country" validate:"required"`
	Seasons []string `json:"seasons" validate:"dive,required"`
	Regions []string `json:"regions" validate:"dive,required"`
	Mode    Method   `json:"mode" validate:"required,oneof=threshold frequency"`

	ThresholdMM *float64 `json:"threshold_mm,omitempty" validate:"required_if=Mode threshold"`
	Percentage  *float64 `json:"percentage,omitempty" validate:"required_if=Mode frequency"`

	BaseYear          *int `json:"base_year,omitempty"`
	AnchorCurrentYear bool `json:"anchor_current_year,omitempty"`

	YearFrom int `json:"year_from,omitempty"`
	YearTo   int `json:"year_to,omitempty" validate:"omitempty,gtefield=YearFrom"`
}

// Parameter returns the numeric parameter of the selected mode.
func (r AnalysisRequest) Parameter() float64 {
	switch r.Mode {
	case MethodThreshold:
		if r.ThresholdMM != nil {
			return *r.ThresholdMM
		}
	case MethodFrequency:
		if r.Percentage != nil {
			return *r.Percentage
		}
	}
	return 0
}

// Mapping builds the YearMapping for the request, falling back to defaultBase.
func (r AnalysisRequest) Mapping(defaultBase int) YearMapping {
	m := YearMapping{BaseYear: defaultBase, AnchorToCurrentYear: r.AnchorCurrentYear}
	if r.BaseYear != nil {
		m.BaseYear = *r.BaseYear
	}
	return m
}

// ParseAnalysisRequest decodes a JSON analysis request.
func ParseAnalysisRequest(data []byte) (AnalysisRequest, error) {
	var req AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return AnalysisRequest{}, fmt.Errorf("parse analysis request: %w", err)
	}
	return req, nil
}

// RegionFailure records a selected series that was excluded from a report.
type RegionFailure struct {
	Column string `json:"column"`
	Error  string `json:"error"`
}

// RainfallBounds is the min/max rainfall over every loaded series.
type RainfallBounds struct {
	MinMM float64 `json:"min_mm"`
	MaxMM float64 `json:"max_mm"`
}

// RegionLocation places a region on a map for chart and map feeds.
type RegionLocation struct {
	Region  string  `json:"region"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address,omitempty"`
}

// Report is the structured outcome of an analysis.
type Report struct {
	ID          string           `json:"id"`
	Country     string           `json:"country"`
	Seasons     []string         `json:"seasons"`
	Mode        Method           `json:"mode"`
	Parameter   float64          `json:"parameter"`
	YearFrom    int              `json:"year_from,omitempty"`
	YearTo      int              `json:"year_to,omitempty"`
	Comparison  ComparisonTable  `json:"comparison"`
	BadYears    BadYearsTable    `json:"bad_years"`
	Failures    []RegionFailure  `json:"failures,omitempty"`
	Bounds      RainfallBounds   `json:"bounds"`
	Locations   []RegionLocation `json:"locations,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Stamp sets GeneratedAt from the package clock.
func (r Report) Stamp() Report {
	r.GeneratedAt = clock.Now().UTC()
	return r
}
