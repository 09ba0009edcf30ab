package domain

import (
	"fmt"
	"slices"
)

// RegionResult names one column of an aggregation. A slice of RegionResult is
// an ordered mapping from column to detection; column order is slice order.
type RegionResult struct {
	Column string          `json:"column"`
	Result DetectionResult `json:"result"`
}

// Cell is one column value of a table row. A nil RainfallMM is the no-data
// marker: the column's series has no observation for that year.
type Cell struct {
	RainfallMM *float64 `json:"rainfall_mm"`
	Bad        bool     `json:"bad"`
}

// HasData reports whether the cell carries an observation.
func (c Cell) HasData() bool { return c.RainfallMM != nil }

// ComparisonRow is one year of a ComparisonTable. Cells align with Columns.
type ComparisonRow struct {
	Year  int    `json:"year"`
	Cells []Cell `json:"cells"`
}

// ComparisonTable is the outer join of every column's series on year.
type ComparisonTable struct {
	Columns []string        `json:"columns"`
	Rows    []ComparisonRow `json:"rows"`
}

// BadYearRow is a ComparisonRow in which at least one column is flagged.
type BadYearRow struct {
	Year      int      `json:"year"`
	Cells     []Cell   `json:"cells"`
	FlaggedBy []string `json:"flagged_by"`
}

// BadYearsTable is the subset of a ComparisonTable with at least one flag per row.
type BadYearsTable struct {
	Columns []string     `json:"columns"`
	Rows    []BadYearRow `json:"rows"`
}

// Years returns the row years in table order.
func (t BadYearsTable) Years() []int {
	years := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		years[i] = r.Year
	}
	return years
}

// Aggregate joins per-column detection results on year.
//
// Rows are ordered by year ascending and cover the union of all years seen.
// A year missing from a column's series gets a no-data cell in that column.
func Aggregate(results []RegionResult) (ComparisonTable, BadYearsTable, error) {
	if len(results) == 0 {
		return ComparisonTable{}, BadYearsTable{}, ErrEmptySelection
	}

	columns := make([]string, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if _, dup := seen[r.Column]; dup {
			return ComparisonTable{}, BadYearsTable{}, fmt.Errorf("%w: %q", ErrDuplicateColumn, r.Column)
		}
		seen[r.Column] = struct{}{}
		columns = append(columns, r.Column)
	}

	byYear := make(map[int][]Cell)
	for col, r := range results {
		for _, p := range r.Result.Points {
			cells, ok := byYear[p.Year]
			if !ok {
				cells = make([]Cell, len(results))
				byYear[p.Year] = cells
			}
			v := p.RainfallMM
			cells[col] = Cell{RainfallMM: &v, Bad: p.Bad}
		}
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	slices.Sort(years)

	comparison := ComparisonTable{Columns: columns, Rows: make([]ComparisonRow, 0, len(years))}
	bad := BadYearsTable{Columns: slices.Clone(columns)}
	for _, y := range years {
		cells := byYear[y]
		comparison.Rows = append(comparison.Rows, ComparisonRow{Year: y, Cells: cells})

		var flagged []string
		for i, c := range cells {
			if c.Bad {
				flagged = append(flagged, columns[i])
			}
		}
		if len(flagged) > 0 {
			bad.Rows = append(bad.Rows, BadYearRow{Year: y, Cells: slices.Clone(cells), FlaggedBy: flagged})
		}
	}
	return comparison, bad, nil
}
