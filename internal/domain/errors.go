package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySelection is returned when an analysis names no regions or seasons,
	// or when aggregation is given nothing to join.
	ErrEmptySelection = errors.New("no regions selected")

	// ErrDuplicateColumn is returned by Aggregate when two results share a column.
	ErrDuplicateColumn = errors.New("duplicate comparison column")

	// ErrSeriesNotFound is returned by catalogs that hold no data for a SeriesID.
	ErrSeriesNotFound = errors.New("rainfall series not found")

	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid analysis request")
)

// MalformedSeriesError reports a series source that does not match the
// two-column (index, rainfall) schema.
type MalformedSeriesError struct {
	Series SeriesID
	Row    int // 1-based line in the source, 0 when not row-specific
	Value  string
	Reason string
}

func (e *MalformedSeriesError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("malformed series %s: %s", e.Series, e.Reason)
	}
	return fmt.Sprintf("malformed series %s: row %d: %s (value %q)", e.Series, e.Row, e.Reason, e.Value)
}

// InvalidPercentageError reports a frequency parameter outside (0, 100], or a
// frequency detection over an empty series.
type InvalidPercentageError struct {
	Percentage float64
	SeriesLen  int
}

func (e *InvalidPercentageError) Error() string {
	if e.SeriesLen == 0 && e.Percentage > 0 && e.Percentage <= 100 {
		return fmt.Sprintf("invalid percentage %g: series is empty", e.Percentage)
	}
	return fmt.Sprintf("invalid percentage %g: must be in (0, 100]", e.Percentage)
}
