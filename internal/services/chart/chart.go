// Package chart renders indicator series as PNG line charts
package chart

import (
	"bytes"
	"fmt"
	"image/png"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/stockreport/internal/common"
	"github.com/bobmcallan/stockreport/internal/interfaces"
	"github.com/bobmcallan/stockreport/internal/models"
)

const (
	// 6x3 inches at 200 dpi
	DefaultWidthPx  = 1200
	DefaultHeightPx = 600
	DefaultDPI      = 200

	// Embedded size in the document
	DefaultEmbedWidthInches  = 5.0
	DefaultEmbedHeightInches = 2.5

	// DefaultTickDays is the spacing of x-axis date labels
	DefaultTickDays = 5

	// maxDateLabels caps the labelled ticks; the spacing doubles until it fits
	maxDateLabels = 12

	tickLabelLayout = "2006-01-02"
)

// Renderer renders indicator charts with fixed dimensions
type Renderer struct {
	widthPx  int
	heightPx int
	dpi      float64
	tickDays int
	logger   *common.Logger
}

// NewRenderer creates a renderer with the report's fixed chart size
func NewRenderer(logger *common.Logger) *Renderer {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Renderer{
		widthPx:  DefaultWidthPx,
		heightPx: DefaultHeightPx,
		dpi:      DefaultDPI,
		tickDays: DefaultTickDays,
		logger:   logger,
	}
}

// RenderIndicatorChart renders the SMA series left to right, oldest first.
// An empty series yields no chart and no error.
func (r *Renderer) RenderIndicatorChart(series *models.IndicatorSeries) (*models.ChartImage, error) {
	if series.IsEmpty() {
		return nil, nil
	}

	xValues := make([]time.Time, len(series.Points))
	yValues := make([]float64, len(series.Points))
	for i, p := range series.Points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return nil, fmt.Errorf("non-finite SMA value at %s", p.Raw)
		}
		xValues[i] = p.Timestamp
		yValues[i] = p.Value
	}

	minX, maxX := timeBounds(xValues)
	minY, maxY := valueBounds(yValues)

	smaSeries := chart.TimeSeries{
		Name: "SMA",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("FF9800"),
			StrokeWidth: 2,
		},
		XValues: xValues,
		YValues: yValues,
	}

	grid := chart.Style{
		StrokeColor: drawing.ColorFromHex("EEEEEE"),
		StrokeWidth: 0.5,
	}

	graph := chart.Chart{
		Title:      "Simple Moving Average (SMA)",
		TitleStyle: chart.Style{FontSize: 12},
		Width:      r.widthPx,
		Height:     r.heightPx,
		DPI:        r.dpi,
		Background: chart.Style{
			Padding: chart.Box{Top: 60, Left: 20, Right: 30, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			Style:          chart.Style{TextRotationDegrees: 45},
			Range:          &chart.ContinuousRange{Min: chart.TimeToFloat64(minX), Max: chart.TimeToFloat64(maxX)},
			Ticks:          dateTicks(minX, maxX, r.tickDays),
			GridMajorStyle: grid,
		},
		YAxis: chart.YAxis{
			Name:           "SMA Value",
			Range:          &chart.ContinuousRange{Min: minY, Max: maxY},
			GridMajorStyle: grid,
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{smaSeries},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("chart output is not a PNG: %w", err)
	}

	r.logger.Debug().
		Int("points", len(series.Points)).
		Int("width_px", cfg.Width).
		Int("height_px", cfg.Height).
		Msg("SMA chart rendered")

	return &models.ChartImage{
		PNG:          buf.Bytes(),
		WidthPx:      cfg.Width,
		HeightPx:     cfg.Height,
		WidthInches:  DefaultEmbedWidthInches,
		HeightInches: DefaultEmbedHeightInches,
	}, nil
}

// timeBounds returns the x-range, widening a single instant by a day each side.
func timeBounds(xs []time.Time) (time.Time, time.Time) {
	minX, maxX := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x.Before(minX) {
			minX = x
		}
		if x.After(maxX) {
			maxX = x
		}
	}
	if minX.Equal(maxX) {
		minX = minX.Add(-24 * time.Hour)
		maxX = maxX.Add(24 * time.Hour)
	}
	return minX, maxX
}

// valueBounds returns the y-range padded by 5% of the spread, or by 1 for a flat series.
func valueBounds(ys []float64) (float64, float64) {
	minY, maxY := ys[0], ys[0]
	for _, y := range ys[1:] {
		minY = math.Min(minY, y)
		maxY = math.Max(maxY, y)
	}
	pad := (maxY - minY) * 0.05
	if pad == 0 {
		pad = 1
	}
	return minY - pad, maxY + pad
}

// dateTicks places a label at midnight every `days` days within [minX, maxX],
// doubling the spacing while more than maxDateLabels labels would be drawn.
// go-chart takes the axis range from the first and last tick, so the ticks
// always start at minX and end at maxX; those bounds are unlabelled unless
// minX falls on midnight or no midnight lies inside the range.
func dateTicks(minX, maxX time.Time, days int) []chart.Tick {
	if days <= 0 {
		days = DefaultTickDays
	}
	spanDays := maxX.Sub(minX).Hours() / 24
	for spanDays/float64(days) > maxDateLabels {
		days *= 2
	}

	first := chart.Tick{Value: chart.TimeToFloat64(minX)}
	start := time.Date(minX.Year(), minX.Month(), minX.Day(), 0, 0, 0, 0, minX.Location())
	if start.Equal(minX) {
		first.Label = minX.Format(tickLabelLayout)
		start = start.AddDate(0, 0, days)
	} else {
		start = start.AddDate(0, 0, 1)
	}

	ticks := []chart.Tick{first}
	for t := start; t.Before(maxX); t = t.AddDate(0, 0, days) {
		ticks = append(ticks, chart.Tick{
			Value: chart.TimeToFloat64(t),
			Label: t.Format(tickLabelLayout),
		})
	}

	// Series shorter than a day still gets one label at its start
	if len(ticks) == 1 && first.Label == "" {
		ticks[0].Label = minX.Format(tickLabelLayout)
	}

	return append(ticks, chart.Tick{Value: chart.TimeToFloat64(maxX)})
}

// Ensure Renderer implements ChartRenderer
var _ interfaces.ChartRenderer = (*Renderer)(nil)
