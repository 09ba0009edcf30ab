// Package domain models seasonal rainfall series and bad-year detection.
//
// # Data Source
//
// Each series is a headerless two-column CSV exported from a hindcast model run,
// one file per (country, season, region):
//
//	1,612.4
//	2,540.0
//	3,701.9
//
// Column 1 is a 1-based index, column 2 the seasonal rainfall total in mm.
// Seasons are named by the initials of their months, e.g. "JJAS" for
// June–September.
//
// # Year Mapping
//
// Index i maps to year base + i - 1. The base is either configured (1991 by
// default, so index 1 is 1991) or anchored so the last index lands on the current
// year. See [YearMapping].
//
// # Bad Years
//
// Two policies flag bad years:
//
//	Threshold: rainfall <= threshold (inclusive).
//	Frequency: the lowest round-half-up(p/100 * n) years, at least one,
//	           ranked by rainfall then year.
//
// # Comparison
//
// [Aggregate] outer-joins detection results on year. A year a column never
// observed carries a nil rainfall (no data), which is distinct from 0 mm and is
// rendered as an empty CSV cell.
package domain
