// Package chart renders comparison tables as PNG line charts.
package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/couchcryptid/rainfall-badyears/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	badYearColor   = color.RGBA{R: 200, A: 255}
	thresholdColor = color.RGBA{R: 255, A: 255}
)

// Options controls chart rendering.
type Options struct {
	Title       string
	ThresholdMM *float64 // draws a dashed baseline when set
	Width       vg.Length
	Height      vg.Length
}

// RenderPNG draws one line per column of the comparison table, marks flagged
// years with red dots and, when requested, the threshold baseline.
// No-data years are skipped, leaving the line to connect the nearest observations.
func RenderPNG(table domain.ComparisonTable, opts Options) ([]byte, error) {
	if opts.Width == 0 {
		opts.Width = 10 * vg.Inch
	}
	if opts.Height == 0 {
		opts.Height = 5 * vg.Inch
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Year"
	p.Y.Label.Text = "Rainfall (mm)"
	p.X.Tick.Marker = yearTicker{}
	p.Legend.Top = true

	for col, name := range table.Columns {
		var line, bad plotter.XYs
		for _, row := range table.Rows {
			c := row.Cells[col]
			if !c.HasData() {
				continue
			}
			pt := plotter.XY{X: float64(row.Year), Y: *c.RainfallMM}
			line = append(line, pt)
			if c.Bad {
				bad = append(bad, pt)
			}
		}
		if len(line) == 0 {
			continue
		}

		l, s, err := plotter.NewLinePoints(line)
		if err != nil {
			return nil, fmt.Errorf("plot %s: %w", name, err)
		}
		l.Color = plotutil.Color(col)
		s.Color = plotutil.Color(col)
		s.Shape = draw.CircleGlyph{}
		s.Radius = vg.Points(2)
		p.Add(l, s)
		p.Legend.Add(name, l, s)

		if len(bad) > 0 {
			b, err := plotter.NewScatter(bad)
			if err != nil {
				return nil, fmt.Errorf("plot bad years %s: %w", name, err)
			}
			b.Color = badYearColor
			b.Shape = draw.CircleGlyph{}
			b.Radius = vg.Points(4)
			p.Add(b)
		}
	}

	if opts.ThresholdMM != nil && len(table.Rows) > 0 {
		first, last := table.Rows[0].Year, table.Rows[len(table.Rows)-1].Year
		t, err := plotter.NewLine(plotter.XYs{
			{X: float64(first), Y: *opts.ThresholdMM},
			{X: float64(last), Y: *opts.ThresholdMM},
		})
		if err != nil {
			return nil, fmt.Errorf("plot threshold: %w", err)
		}
		t.Color = thresholdColor
		t.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		p.Add(t)
		p.Legend.Add("Rainfall baseline", t)
	}

	w, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

// yearTicker places integer year ticks, labelling every fifth year.
type yearTicker struct{}

func (yearTicker) Ticks(lo, hi float64) []plot.Tick {
	var ticks []plot.Tick
	for y := math.Ceil(lo); y <= hi; y++ {
		label := ""
		if int(y)%5 == 0 {
			label = strconv.Itoa(int(y))
		}
		ticks = append(ticks, plot.Tick{Value: y, Label: label})
	}
	return ticks
}
