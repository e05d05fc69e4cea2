package chart

import (
	"context"
	"errors"

	"github.com/dukaandost/backend/internal/domain/report"
)

// ErrRendererDisabled is returned when chart rendering is switched off
var ErrRendererDisabled = errors.New("chart rendering is disabled")

// DisabledRenderer is used when no browser is configured
type DisabledRenderer struct{}

// RenderBarChart always fails with ErrRendererDisabled
func (DisabledRenderer) RenderBarChart(context.Context, report.BarChart) (string, error) {
	return "", ErrRendererDisabled
}

var _ report.ChartRenderer = DisabledRenderer{}
