package domain

import (
	"cmp"
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

// Method names the bad-year policy used for a detection.
type Method string

const (
	MethodThreshold Method = "threshold"
	MethodFrequency Method = "frequency"
)

// Detection is one year of a DetectionResult.
type Detection struct {
	Year       int     `json:"year"`
	RainfallMM float64 `json:"rainfall_mm"`
	Bad        bool    `json:"bad"`
}

// DetectionResult holds a flag for every observation of a series, in series order.
type DetectionResult struct {
	Series    SeriesID    `json:"series"`
	Method    Method      `json:"method"`
	Parameter float64     `json:"parameter"`
	Points    []Detection `json:"points"`
}

// BadYears returns the flagged years in series order.
func (r DetectionResult) BadYears() []int {
	var years []int
	for _, p := range r.Points {
		if p.Bad {
			years = append(years, p.Year)
		}
	}
	return years
}

// DetectThreshold flags every year whose rainfall is at or below thresholdMM.
func DetectThreshold(series RainfallSeries, thresholdMM float64) DetectionResult {
	res := newResult(series, MethodThreshold, thresholdMM)
	for i := range res.Points {
		res.Points[i].Bad = res.Points[i].RainfallMM <= thresholdMM
	}
	return res
}

// ValidatePercentage checks a frequency parameter without a series at hand.
func ValidatePercentage(percentage float64) error {
	if math.IsNaN(percentage) || percentage <= 0 || percentage > 100 {
		return &InvalidPercentageError{Percentage: percentage, SeriesLen: -1}
	}
	return nil
}

// DetectFrequency flags the lowest percentage of years by rainfall.
//
// Years are ranked by rainfall ascending with ties broken by earlier year, and
// the first BadYearCount(percentage, n) ranks are flagged.
func DetectFrequency(series RainfallSeries, percentage float64) (DetectionResult, error) {
	if err := ValidatePercentage(percentage); err != nil {
		return DetectionResult{}, &InvalidPercentageError{Percentage: percentage, SeriesLen: series.Len()}
	}
	if series.Len() == 0 {
		return DetectionResult{}, &InvalidPercentageError{Percentage: percentage, SeriesLen: 0}
	}

	res := newResult(series, MethodFrequency, percentage)

	order := make([]int, len(res.Points))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		pa, pb := res.Points[a], res.Points[b]
		if c := cmp.Compare(pa.RainfallMM, pb.RainfallMM); c != 0 {
			return c
		}
		return cmp.Compare(pa.Year, pb.Year)
	})

	for _, i := range order[:BadYearCount(percentage, len(order))] {
		res.Points[i].Bad = true
	}
	return res, nil
}

// BadYearCount returns round-half-up(percentage/100 * total), clamped to
// [1, total]. It returns 0 when total is 0 or percentage is not positive.
func BadYearCount(percentage float64, total int) int {
	if total <= 0 || !(percentage > 0) {
		return 0
	}
	n := decimal.NewFromFloat(percentage).
		Mul(decimal.NewFromInt(int64(total))).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
	return int(min(max(n, 1), int64(total)))
}

func newResult(series RainfallSeries, method Method, param float64) DetectionResult {
	res := DetectionResult{
		Series:    series.ID,
		Method:    method,
		Parameter: param,
		Points:    make([]Detection, len(series.Points)),
	}
	for i, p := range series.Points {
		res.Points[i] = Detection{Year: p.Year, RainfallMM: p.RainfallMM}
	}
	return res
}
