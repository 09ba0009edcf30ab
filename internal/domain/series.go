package domain

import "fmt"

// SeriesID identifies one rainfall series in the catalog.
type SeriesID struct {
	Country string `json:"country"`
	Season  string `json:"season"`
	Region  string `json:"region"`
}

// Column is the comparison-table label for the series, e.g. "Kano - JJAS".
func (id SeriesID) Column() string {
	if id.Season == "" {
		return id.Region
	}
	return fmt.Sprintf("%s - %s", id.Region, id.Season)
}

func (id SeriesID) String() string {
	return fmt.Sprintf("%s/%s/%s", id.Country, id.Season, id.Region)
}

// YearRainfall is one observation of a series.
type YearRainfall struct {
	Year       int     `json:"year"`
	RainfallMM float64 `json:"rainfall_mm"`
}

// RainfallSeries is an ordered, gap-free run of yearly rainfall totals for a
// single (country, season, region).
type RainfallSeries struct {
	ID     SeriesID       `json:"id"`
	Points []YearRainfall `json:"points"`
}

// Len returns the number of observed years.
func (s RainfallSeries) Len() int { return len(s.Points) }

// Bounds returns the minimum and maximum rainfall of the series.
// ok is false for an empty series.
func (s RainfallSeries) Bounds() (lo, hi float64, ok bool) {
	if len(s.Points) == 0 {
		return 0, 0, false
	}
	lo, hi = s.Points[0].RainfallMM, s.Points[0].RainfallMM
	for _, p := range s.Points[1:] {
		lo = min(lo, p.RainfallMM)
		hi = max(hi, p.RainfallMM)
	}
	return lo, hi, true
}

// Window returns the observations with from <= year <= to. A zero bound is open.
// The receiver is not modified.
func (s RainfallSeries) Window(from, to int) RainfallSeries {
	out := RainfallSeries{ID: s.ID, Points: make([]YearRainfall, 0, len(s.Points))}
	for _, p := range s.Points {
		if from != 0 && p.Year < from {
			continue
		}
		if to != 0 && p.Year > to {
			continue
		}
		out.Points = append(out.Points, p)
	}
	return out
}

// YearMapping converts a 1-based series index into a calendar year.
//
// With AnchorToCurrentYear set, BaseYear is ignored and the last index of the
// series is mapped onto the current year instead.
type YearMapping struct {
	BaseYear            int  `json:"base_year"`
	AnchorToCurrentYear bool `json:"anchor_current_year"`
}

// Resolve returns the calendar year of index 1 for a series whose highest
// index is maxIndex.
func (m YearMapping) Resolve(maxIndex int) int {
	if m.AnchorToCurrentYear {
		return clock.Now().Year() - maxIndex + 1
	}
	return m.BaseYear
}

// Year maps index (1-based) to a calendar year given the resolved base year.
func Year(baseYear, index int) int {
	return baseYear + index - 1
}
