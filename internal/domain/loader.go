package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const byteOrderMark = "\ufeff"

// LoadSeries reads a headerless two-column (index, rainfall) CSV source and
// maps each 1-based index onto a calendar year using mapping.
//
// Indices must form a contiguous run starting at 1 and every rainfall value must
// be a finite number; otherwise a *MalformedSeriesError is returned and no
// series is produced. An empty source has no index 1 and is malformed too.
// A leading UTF-8 byte-order mark is ignored. Negative rainfall is passed
// through unchanged.
func LoadSeries(r io.Reader, id SeriesID, mapping YearMapping) (RainfallSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // column count is checked below for a typed error
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var values []float64
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return RainfallSeries{}, &MalformedSeriesError{Series: id, Row: perr.Line, Reason: perr.Err.Error()}
			}
			return RainfallSeries{}, fmt.Errorf("read series %s: %w", id, err)
		}

		line, _ := cr.FieldPos(0)
		if len(rec) != 2 {
			return RainfallSeries{}, &MalformedSeriesError{
				Series: id,
				Row:    line,
				Value:  strings.Join(rec, ","),
				Reason: fmt.Sprintf("expected 2 columns, got %d", len(rec)),
			}
		}

		want := len(values) + 1
		if want == 1 {
			rec[0] = strings.TrimPrefix(rec[0], byteOrderMark)
		}
		index, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return RainfallSeries{}, &MalformedSeriesError{Series: id, Row: line, Value: rec[0], Reason: "index is not an integer"}
		}
		if index != want {
			return RainfallSeries{}, &MalformedSeriesError{
				Series: id,
				Row:    line,
				Value:  rec[0],
				Reason: fmt.Sprintf("index not contiguous, expected %d", want),
			}
		}

		v, err := parseRainfall(rec[1])
		if err != nil {
			return RainfallSeries{}, &MalformedSeriesError{Series: id, Row: line, Value: rec[1], Reason: err.Error()}
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return RainfallSeries{}, &MalformedSeriesError{Series: id, Reason: "series is empty"}
	}

	base := mapping.Resolve(len(values))
	series := RainfallSeries{ID: id, Points: make([]YearRainfall, len(values))}
	for i, v := range values {
		series.Points[i] = YearRainfall{Year: Year(base, i+1), RainfallMM: v}
	}
	return series, nil
}

func parseRainfall(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("rainfall is empty")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("rainfall is not a finite number")
	}
	return v, nil
}
