package domain

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleSeries() RainfallSeries {
	return RainfallSeries{ID: testSeriesID, Points: []YearRainfall{
		{Year: 1991, RainfallMM: 50},
		{Year: 1992, RainfallMM: 120},
		{Year: 1993, RainfallMM: 30},
		{Year: 1994, RainfallMM: 80},
	}}
}

func flagged(r DetectionResult) []int {
	years := r.BadYears()
	slices.Sort(years)
	return years
}

func TestDetectThreshold(t *testing.T) {
	t.Run("example scenario", func(t *testing.T) {
		res := DetectThreshold(exampleSeries(), 50)
		assert.Equal(t, []int{1991, 1993}, flagged(res))
		assert.Equal(t, MethodThreshold, res.Method)
		assert.Equal(t, 50.0, res.Parameter)
		assert.Equal(t, testSeriesID, res.Series)
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		res := DetectThreshold(exampleSeries(), 80)
		assert.Equal(t, []int{1991, 1993, 1994}, flagged(res))
	})

	t.Run("negative threshold flags none", func(t *testing.T) {
		assert.Empty(t, DetectThreshold(exampleSeries(), -1).BadYears())
	})

	t.Run("threshold above maximum flags all", func(t *testing.T) {
		assert.Len(t, DetectThreshold(exampleSeries(), 1e9).BadYears(), 4)
	})

	t.Run("flagged and unflagged partition the series", func(t *testing.T) {
		s := exampleSeries()
		for _, threshold := range []float64{0, 30, 49.99, 50, 100, 120, 500} {
			res := DetectThreshold(s, threshold)
			require.Len(t, res.Points, s.Len())
			for i, p := range res.Points {
				assert.Equal(t, s.Points[i].Year, p.Year, "order preserved")
				assert.Equal(t, s.Points[i].RainfallMM, p.RainfallMM)
				assert.Equal(t, p.RainfallMM <= threshold, p.Bad, "year %d at threshold %g", p.Year, threshold)
			}
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		assert.Equal(t, DetectThreshold(exampleSeries(), 75), DetectThreshold(exampleSeries(), 75))
	})
}

func TestDetectFrequency(t *testing.T) {
	t.Run("example scenario", func(t *testing.T) {
		res, err := DetectFrequency(exampleSeries(), 50)
		require.NoError(t, err)
		assert.Equal(t, []int{1991, 1993}, flagged(res))
		assert.Equal(t, MethodFrequency, res.Method)
	})

	t.Run("single year at 100 percent", func(t *testing.T) {
		s := RainfallSeries{Points: []YearRainfall{{Year: 2001, RainfallMM: 400}}}
		res, err := DetectFrequency(s, 100)
		require.NoError(t, err)
		assert.Equal(t, []int{2001}, res.BadYears())
	})

	t.Run("small percentage still flags one year", func(t *testing.T) {
		res, err := DetectFrequency(exampleSeries(), 1)
		require.NoError(t, err)
		assert.Equal(t, []int{1993}, res.BadYears())
	})

	t.Run("ties broken by earlier year", func(t *testing.T) {
		s := RainfallSeries{Points: []YearRainfall{
			{Year: 2002, RainfallMM: 10},
			{Year: 2000, RainfallMM: 10},
			{Year: 2001, RainfallMM: 10},
		}}
		res, err := DetectFrequency(s, 34)
		require.NoError(t, err)
		assert.Equal(t, []int{2000}, res.BadYears())
	})

	t.Run("invariant to input order", func(t *testing.T) {
		base := RainfallSeries{}
		for i := range 35 {
			base.Points = append(base.Points, YearRainfall{Year: 1991 + i, RainfallMM: float64((i * 37) % 11)})
		}
		want, err := DetectFrequency(base, 20)
		require.NoError(t, err)

		r := rand.New(rand.NewPCG(1, 2))
		for range 10 {
			shuffled := RainfallSeries{Points: slices.Clone(base.Points)}
			r.Shuffle(len(shuffled.Points), func(i, j int) {
				shuffled.Points[i], shuffled.Points[j] = shuffled.Points[j], shuffled.Points[i]
			})
			got, err := DetectFrequency(shuffled, 20)
			require.NoError(t, err)
			assert.Equal(t, flagged(want), flagged(got))
		}
	})

	t.Run("flags exactly the lowest years", func(t *testing.T) {
		s := RainfallSeries{}
		for i := range 20 {
			s.Points = append(s.Points, YearRainfall{Year: 2000 + i, RainfallMM: float64(100 - i*3)})
		}
		for _, pct := range []float64{5, 10, 25, 50, 75, 100} {
			res, err := DetectFrequency(s, pct)
			require.NoError(t, err)

			count := BadYearCount(pct, s.Len())
			require.Len(t, res.BadYears(), count)

			var maxBad, minGood = math.Inf(-1), math.Inf(1)
			for _, p := range res.Points {
				if p.Bad {
					maxBad = max(maxBad, p.RainfallMM)
				} else {
					minGood = min(minGood, p.RainfallMM)
				}
			}
			assert.LessOrEqual(t, maxBad, minGood, "percentage %g", pct)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		a, err := DetectFrequency(exampleSeries(), 25)
		require.NoError(t, err)
		b, err := DetectFrequency(exampleSeries(), 25)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestDetectFrequency_InvalidPercentage(t *testing.T) {
	for _, pct := range []float64{0, -5, 100.0001, math.NaN()} {
		_, err := DetectFrequency(exampleSeries(), pct)

		var pErr *InvalidPercentageError
		require.ErrorAs(t, err, &pErr, "percentage %g", pct)
		assert.Equal(t, 4, pErr.SeriesLen)
		assert.Contains(t, err.Error(), "(0, 100]")
	}

	_, err := DetectFrequency(RainfallSeries{}, 50)
	var pErr *InvalidPercentageError
	require.ErrorAs(t, err, &pErr)
	assert.Contains(t, err.Error(), "series is empty")
}

func TestValidatePercentage(t *testing.T) {
	assert.NoError(t, ValidatePercentage(100))
	assert.NoError(t, ValidatePercentage(0.5))
	assert.Error(t, ValidatePercentage(0))
	assert.Error(t, ValidatePercentage(101))
}

func TestBadYearCount(t *testing.T) {
	tests := []struct {
		pct   float64
		total int
		want  int
	}{
		{50, 4, 2},
		{10, 35, 4},  // 3.5 rounds up
		{15, 10, 2},  // 1.5 rounds up
		{5, 10, 1},   // 0.5 rounds up
		{12.5, 4, 1}, // 0.5 rounds up
		{37.5, 4, 2}, // 1.5 rounds up
		{1, 10, 1},   // clamped to one
		{100, 7, 7},
		{30, 10, 3},
		{0, 5, 0},
		{25, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BadYearCount(tt.pct, tt.total), "pct=%g total=%d", tt.pct, tt.total)
	}
}
