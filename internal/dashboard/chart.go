package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"
)

var (
	chartWidth  = vg.Points(640)
	chartHeight = vg.Points(380)
	barColor    = color.RGBA{R: 0x00, G: 0x96, B: 0x88, A: 0xff}
)

// RenderBarChart draws totals as an SVG bar chart, one bar per item in the
// order given, with x-axis labels rotated 45 degrees. No totals renders
// nothing.
func RenderBarChart(totals []ItemTotal) (template.HTML, error) {
	if len(totals) == 0 {
		return "", nil
	}

	values := make(plotter.Values, len(totals))
	names := make([]string, len(totals))
	for i, t := range totals {
		values[i] = float64(max(t.Quantity, 0))
		names[i] = t.Item
	}

	p := plot.New()
	p.Title.Text = "Waste Per Item"
	p.X.Label.Text = "Item"
	p.Y.Label.Text = "Total Quantity Wasted"
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(values, barWidth(len(totals)))
	if err != nil {
		return "", fmt.Errorf("waste chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	c := vgsvg.New(chartWidth, chartHeight)
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("waste chart: %w", err)
	}

	// drop the XML prolog so the markup can sit inside the page
	out := buf.Bytes()
	if i := bytes.Index(out, []byte("<svg")); i > 0 {
		out = out[i:]
	}
	return template.HTML(out), nil
}

// barWidth shrinks bars as items are added so they keep fitting the plot.
func barWidth(n int) vg.Length {
	w := vg.Points(480 / float64(n) * 0.7)
	return min(w, vg.Points(48))
}
