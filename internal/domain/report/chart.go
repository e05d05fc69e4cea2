package report

import "context"

// Bar is one labelled value in a bar chart
type Bar struct {
	Label string
	Value int
}

// BarChart describes a chart to render
type BarChart struct {
	Title  string
	XLabel string
	YLabel string
	Bars   []Bar
}

// ChartRenderer draws a chart to a PNG file and returns its path
type ChartRenderer interface {
	RenderBarChart(ctx context.Context, chart BarChart) (string, error)
}

// ChartArchive keeps a copy of rendered charts and returns where it was stored
type ChartArchive interface {
	Archive(ctx context.Context, localPath string) (string, error)
}
