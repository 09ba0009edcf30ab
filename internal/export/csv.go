// Package export serializes bad-year tables into downloadable artifacts.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/rainfall-badyears/internal/domain"
)

const yearHeader = "Year"

// FormatCSV renders a BadYearsTable as CSV: a "Year" column followed by one
// column per table column in table order. No-data cells are left empty.
func FormatCSV(table domain.BadYearsTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(table.Columns)+1)
	header = append(header, yearHeader)
	header = append(header, table.Columns...)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range table.Rows {
		if len(row.Cells) != len(table.Columns) {
			return nil, fmt.Errorf("row %d has %d cells for %d columns", row.Year, len(row.Cells), len(table.Columns))
		}
		record[0] = strconv.Itoa(row.Year)
		for i, c := range row.Cells {
			record[i+1] = formatRainfall(c)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", row.Year, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseCSV reads a table written by FormatCSV. Flags are not part of the CSV,
// so every parsed cell has Bad unset and rows carry no FlaggedBy.
func ParseCSV(data []byte) (domain.BadYearsTable, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return domain.BadYearsTable{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 || len(records[0]) == 0 || records[0][0] != yearHeader {
		return domain.BadYearsTable{}, errors.New("read csv: missing Year header")
	}

	table := domain.BadYearsTable{Columns: records[0][1:]}
	for n, rec := range records[1:] {
		year, err := strconv.Atoi(rec[0])
		if err != nil {
			return domain.BadYearsTable{}, fmt.Errorf("read csv: line %d: year %q: %w", n+2, rec[0], err)
		}
		row := domain.BadYearRow{Year: year, Cells: make([]domain.Cell, len(table.Columns))}
		for i, v := range rec[1:] {
			if strings.TrimSpace(v) == "" {
				continue
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return domain.BadYearsTable{}, fmt.Errorf("read csv: line %d: value %q: %w", n+2, v, err)
			}
			row.Cells[i].RainfallMM = &f
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func formatRainfall(c domain.Cell) string {
	if !c.HasData() {
		return ""
	}
	return strconv.FormatFloat(*c.RainfallMM, 'f', -1, 64)
}
