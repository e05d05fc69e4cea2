// Package chart draws the sales bar chart sent to the shop owner.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"math"

	"github.com/dukaandost/backend/internal/domain/report"
)

// ErrEmptyChart is returned when a chart has no bars
var ErrEmptyChart = errors.New("chart has no bars")

// Layout controls the SVG canvas, in CSS pixels
type Layout struct {
	Width  int
	Height int
	// Margin around the plot area, room for axis labels and the title
	Margin int
	// BarGap is the share of each slot left empty between bars (0..1)
	BarGap float64
	Color  string
}

// DefaultLayout matches a 6x4 inch figure at 100 dpi
func DefaultLayout() Layout {
	return Layout{
		Width:  600,
		Height: 400,
		Margin: 60,
		BarGap: 0.2,
		Color:  "#1f77b4",
	}
}

type svgBar struct {
	X, Y, Width, Height float64
	LabelX              float64
	Label               string
	Value               int
}

type svgTick struct {
	Y     float64
	Value int
}

type svgData struct {
	Layout
	Title, XLabel, YLabel string
	PlotLeft, PlotRight   float64
	PlotTop, PlotBottom   float64
	CenterX, CenterY      float64
	TitleY, TickLabelX    float64
	BarLabelY, XLabelY    float64
	Bars                  []svgBar
	Ticks                 []svgTick
}

var svgTemplate = template.Must(template.New("bar").Parse(`<svg xmlns="http://www.w3.org/2000/svg" id="chart" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}" font-family="DejaVu Sans, Arial, sans-serif">
<rect width="{{.Width}}" height="{{.Height}}" fill="#ffffff"/>
<text x="{{.CenterX}}" y="{{.TitleY}}" text-anchor="middle" font-size="16">{{.Title}}</text>
{{range .Ticks}}<line x1="{{$.PlotLeft}}" x2="{{$.PlotRight}}" y1="{{.Y}}" y2="{{.Y}}" stroke="#e0e0e0"/>
<text x="{{$.TickLabelX}}" y="{{.Y}}" text-anchor="end" dominant-baseline="middle" font-size="11">{{.Value}}</text>
{{end}}{{range .Bars}}<rect class="bar" x="{{.X}}" y="{{.Y}}" width="{{.Width}}" height="{{.Height}}" fill="{{$.Color}}"><title>{{.Label}}: {{.Value}}</title></rect>
<text x="{{.LabelX}}" y="{{$.BarLabelY}}" text-anchor="middle" font-size="12">{{.Label}}</text>
{{end}}<line x1="{{.PlotLeft}}" x2="{{.PlotRight}}" y1="{{.PlotBottom}}" y2="{{.PlotBottom}}" stroke="#000000"/>
<line x1="{{.PlotLeft}}" x2="{{.PlotLeft}}" y1="{{.PlotTop}}" y2="{{.PlotBottom}}" stroke="#000000"/>
<text x="{{.CenterX}}" y="{{.XLabelY}}" text-anchor="middle" font-size="13">{{.XLabel}}</text>
<text x="16" y="{{.CenterY}}" text-anchor="middle" font-size="13" transform="rotate(-90 16 {{.CenterY}})">{{.YLabel}}</text>
</svg>`))

// RenderSVG draws c as a standalone SVG document
func RenderSVG(c report.BarChart, layout Layout) ([]byte, error) {
	if len(c.Bars) == 0 {
		return nil, ErrEmptyChart
	}
	data := layoutBars(c, layout)

	var buf bytes.Buffer
	if err := svgTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

func layoutBars(c report.BarChart, l Layout) svgData {
	m := float64(l.Margin)
	d := svgData{
		Layout:     l,
		Title:      c.Title,
		XLabel:     c.XLabel,
		YLabel:     c.YLabel,
		PlotLeft:   m,
		PlotRight:  float64(l.Width) - m/2,
		PlotTop:    m,
		PlotBottom: float64(l.Height) - m,
	}
	d.CenterX = (d.PlotLeft + d.PlotRight) / 2
	d.CenterY = (d.PlotTop + d.PlotBottom) / 2
	d.TitleY = m / 2
	d.TickLabelX = d.PlotLeft - 6
	d.BarLabelY = d.PlotBottom + 16
	d.XLabelY = float64(l.Height) - 12

	maxValue := 0
	for _, b := range c.Bars {
		maxValue = max(maxValue, b.Value)
	}
	top := niceCeiling(maxValue)
	plotHeight := d.PlotBottom - d.PlotTop
	slot := (d.PlotRight - d.PlotLeft) / float64(len(c.Bars))
	barWidth := slot * (1 - l.BarGap)

	for i, b := range c.Bars {
		h := 0.0
		if top > 0 && b.Value > 0 {
			h = plotHeight * float64(b.Value) / float64(top)
		}
		x := d.PlotLeft + slot*float64(i) + (slot-barWidth)/2
		d.Bars = append(d.Bars, svgBar{
			X:      round1(x),
			Y:      round1(d.PlotBottom - h),
			Width:  round1(barWidth),
			Height: round1(h),
			LabelX: round1(x + barWidth/2),
			Label:  b.Label,
			Value:  b.Value,
		})
	}

	const tickCount = 5
	for i := 0; i <= tickCount; i++ {
		v := top * i / tickCount
		d.Ticks = append(d.Ticks, svgTick{
			Y:     round1(d.PlotBottom - plotHeight*float64(i)/tickCount),
			Value: v,
		})
	}
	return d
}

// niceCeiling rounds v up to a multiple of 5 so five ticks land on integers
func niceCeiling(v int) int {
	if v <= 0 {
		return 5
	}
	return ((v + 4) / 5) * 5
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
