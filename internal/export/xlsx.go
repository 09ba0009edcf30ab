package export

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/rainfall-badyears/internal/domain"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written by FormatXLSX.
const SheetName = "Bad Years"

// seasonColors highlights flagged cells by the season suffix of their column.
var seasonColors = map[string]string{
	"JJA":   "ADD8E6", // light blue
	"JAS":   "90EE90", // light green
	"JJAS":  "FFB6C1", // light pink
	"JJASO": "FFD700", // gold
}

const defaultFlagColor = "F4CCCC"

// FormatXLSX renders a BadYearsTable as a single-sheet workbook with the same
// columns as FormatCSV plus a trailing "Flagged By" column. Flagged cells are
// filled with their season colour.
func FormatXLSX(table domain.BadYearsTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory workbook

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	header := make([]string, 0, len(table.Columns)+2)
	header = append(header, yearHeader)
	header = append(header, table.Columns...)
	header = append(header, "Flagged By")
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header %q: %w", h, err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("style header %q: %w", h, err)
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetColWidth(SheetName, "B", lastCol, 18); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	styles := make(map[string]int)
	for r, row := range table.Rows {
		excelRow := r + 2
		cell, _ := excelize.CoordinatesToCellName(1, excelRow)
		if err := f.SetCellValue(SheetName, cell, row.Year); err != nil {
			return nil, fmt.Errorf("write year %d: %w", row.Year, err)
		}

		for c, v := range row.Cells {
			if !v.HasData() {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+2, excelRow)
			if err := f.SetCellValue(SheetName, cell, *v.RainfallMM); err != nil {
				return nil, fmt.Errorf("write %d/%s: %w", row.Year, table.Columns[c], err)
			}
			if !v.Bad {
				continue
			}
			style, err := flagStyle(f, styles, seasonColor(table.Columns[c]))
			if err != nil {
				return nil, err
			}
			if err := f.SetCellStyle(SheetName, cell, cell, style); err != nil {
				return nil, fmt.Errorf("style %d/%s: %w", row.Year, table.Columns[c], err)
			}
		}

		cell, _ = excelize.CoordinatesToCellName(len(header), excelRow)
		if err := f.SetCellValue(SheetName, cell, strings.Join(row.FlaggedBy, "; ")); err != nil {
			return nil, fmt.Errorf("write flagged by %d: %w", row.Year, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// seasonColor picks the fill for a "<region> - <season>" column.
func seasonColor(column string) string {
	i := strings.LastIndex(column, " - ")
	if i < 0 {
		return defaultFlagColor
	}
	if c, ok := seasonColors[strings.ToUpper(strings.TrimSpace(column[i+3:]))]; ok {
		return c
	}
	return defaultFlagColor
}

func flagStyle(f *excelize.File, cache map[string]int, color string) (int, error) {
	if id, ok := cache[color]; ok {
		return id, nil
	}
	id, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "000000"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
	if err != nil {
		return 0, fmt.Errorf("create style %s: %w", color, err)
	}
	cache[color] = id
	return id, nil
}
