// Package chart renders aggregate groups as PNG bar and pie charts.
package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"pennywise/internal/aggregate"
	"pennywise/internal/core"
)

// ErrNoData is returned when there is nothing positive to draw.
var ErrNoData = errors.New("no data to chart")

// Slice is one labelled value of a chart.
type Slice struct {
	Label string
	Value float64
}

// palette is cycled by slice index, so colours follow aggregate order.
var palette = []drawing.Color{
	drawing.ColorFromHex("2563eb"),
	drawing.ColorFromHex("16a34a"),
	drawing.ColorFromHex("f59e0b"),
	drawing.ColorFromHex("dc2626"),
	drawing.ColorFromHex("9333ea"),
	drawing.ColorFromHex("0891b2"),
	drawing.ColorFromHex("db2777"),
	drawing.ColorFromHex("65a30d"),
}

func color(i int) drawing.Color { return palette[i%len(palette)] }

// FromGroups turns aggregate groups into chart slices, keeping their order.
func FromGroups[E core.Amounted](groups []aggregate.Group[E]) []Slice {
	out := make([]Slice, 0, len(groups))
	for _, g := range groups {
		out = append(out, Slice{Label: g.Key, Value: g.Total.Float64()})
	}
	return out
}

func positive(slices []Slice) ([]Slice, float64) {
	var (
		out []Slice
		max float64
	)
	for _, s := range slices {
		if s.Value <= 0 {
			continue
		}
		out = append(out, s)
		if s.Value > max {
			max = s.Value
		}
	}
	return out, max
}

// RenderBar writes a PNG bar chart, one bar per slice.
func RenderBar(w io.Writer, title string, slices []Slice) error {
	bars, max := positive(slices)
	if len(bars) == 0 {
		return ErrNoData
	}

	values := make([]chart.Value, len(bars))
	for i, s := range bars {
		values[i] = chart.Value{
			Label: s.Label,
			Value: s.Value,
			Style: chart.Style{FillColor: color(i), StrokeColor: color(i)},
		}
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    900,
		Height:   450,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: max * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: values,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("chart render failed: %w", err)
	}
	return nil
}

// RenderPie writes a PNG pie chart, one wedge per slice.
func RenderPie(w io.Writer, title string, slices []Slice) error {
	wedges, _ := positive(slices)
	if len(wedges) == 0 {
		return ErrNoData
	}

	values := make([]chart.Value, len(wedges))
	for i, s := range wedges {
		values[i] = chart.Value{
			Label: s.Label,
			Value: s.Value,
			Style: chart.Style{FillColor: color(i), StrokeColor: drawing.ColorWhite, StrokeWidth: 1},
		}
	}

	graph := chart.PieChart{
		Title:  title,
		Width:  600,
		Height: 600,
		Values: values,
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("chart render failed: %w", err)
	}
	return nil
}
