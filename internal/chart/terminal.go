package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/nhatphongdo/stock-agent-sub001/internal/models"
)

var (
	frameStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	axisStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	priceLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// TerminalChart renders a close-price sparkline with overlay series and
// price-line rows into the terminal. It implements the Chart collaborator
// surface consumed by the session. Rows render in insertion order so the
// frame is stable across repaints.
type TerminalChart struct {
	width int

	bars       []models.Bar
	series     []*terminalSeries
	priceLines []*terminalPriceLine
	crosshair  map[int]func(CrosshairEvent)
	nextSubID  int
	removed    bool
}

type terminalSeries struct {
	chart  *TerminalChart
	opts   LineOptions
	points []Point
}

type terminalPriceLine struct {
	chart *TerminalChart
	opts  PriceLineOptions
}

// NewTerminalChart creates a chart rendering at the given column width.
func NewTerminalChart(width int) *TerminalChart {
	if width <= 0 {
		width = 72
	}
	return &TerminalChart{
		width:     width,
		crosshair: make(map[int]func(CrosshairEvent)),
	}
}

func (c *TerminalChart) SetBars(bars []models.Bar) {
	c.bars = bars
}

func (c *TerminalChart) AddLineSeries(opts LineOptions) (Series, error) {
	if c.removed {
		return nil, fmt.Errorf("add series %q: chart has been removed", opts.Title)
	}
	s := &terminalSeries{chart: c, opts: opts}
	c.series = append(c.series, s)
	return s, nil
}

func (c *TerminalChart) RemoveSeries(s Series) error {
	ts, ok := s.(*terminalSeries)
	if !ok || ts.chart != c {
		return fmt.Errorf("remove series: handle does not belong to this chart")
	}
	if c.removed {
		return fmt.Errorf("remove series %q: chart has been removed", ts.opts.Title)
	}
	idx := c.seriesIndex(ts)
	if idx < 0 {
		return fmt.Errorf("remove series %q: stale handle", ts.opts.Title)
	}
	c.series = append(c.series[:idx], c.series[idx+1:]...)
	return nil
}

func (c *TerminalChart) seriesIndex(ts *terminalSeries) int {
	for i, cur := range c.series {
		if cur == ts {
			return i
		}
	}
	return -1
}

func (c *TerminalChart) CreatePriceLine(opts PriceLineOptions) (PriceLine, error) {
	if c.removed {
		return nil, fmt.Errorf("create price line %q: chart has been removed", opts.Title)
	}
	pl := &terminalPriceLine{chart: c, opts: opts}
	c.priceLines = append(c.priceLines, pl)
	return pl, nil
}

func (c *TerminalChart) RemovePriceLine(pl PriceLine) error {
	tpl, ok := pl.(*terminalPriceLine)
	if !ok || tpl.chart != c {
		return fmt.Errorf("remove price line: handle does not belong to this chart")
	}
	if c.removed {
		return fmt.Errorf("remove price line %q: chart has been removed", tpl.opts.Title)
	}
	idx := c.priceLineIndex(tpl)
	if idx < 0 {
		return fmt.Errorf("remove price line %q: stale handle", tpl.opts.Title)
	}
	c.priceLines = append(c.priceLines[:idx], c.priceLines[idx+1:]...)
	return nil
}

func (c *TerminalChart) priceLineIndex(tpl *terminalPriceLine) int {
	for i, cur := range c.priceLines {
		if cur == tpl {
			return i
		}
	}
	return -1
}

func (c *TerminalChart) SubscribeCrosshairMove(fn func(CrosshairEvent)) func() {
	id := c.nextSubID
	c.nextSubID++
	c.crosshair[id] = fn
	return func() {
		delete(c.crosshair, id)
	}
}

// MoveCrosshair notifies subscribers that the cursor points at the bar
// closest to t (whole Unix seconds).
func (c *TerminalChart) MoveCrosshair(t int64) {
	for _, fn := range c.crosshair {
		fn(CrosshairEvent{Time: t})
	}
}

func (c *TerminalChart) Remove() {
	c.removed = true
	c.bars = nil
	c.series = nil
	c.priceLines = nil
	c.crosshair = make(map[int]func(CrosshairEvent))
}

func (s *terminalSeries) SetData(points []Point) error {
	if s.chart.removed {
		return fmt.Errorf("set data on %q: chart has been removed", s.opts.Title)
	}
	if s.chart.seriesIndex(s) < 0 {
		return fmt.Errorf("set data on %q: stale handle", s.opts.Title)
	}
	s.points = points
	return nil
}

// SeriesCount reports the number of live line series, price overlays and
// pane series alike.
func (c *TerminalChart) SeriesCount() int {
	return len(c.series)
}

// PriceLineCount reports the number of live price lines.
func (c *TerminalChart) PriceLineCount() int {
	return len(c.priceLines)
}

// Render draws the whole chart frame: the close-price sparkline, one row per
// overlay series, and the price-line rows.
func (c *TerminalChart) Render() string {
	var rows []string

	if line := sparkline(closeValues(c.bars), c.width); line != "" {
		lo, hi := valueRange(closeValues(c.bars))
		rows = append(rows, line)
		rows = append(rows, axisStyle.Render(fmt.Sprintf("close  %s … %s",
			formatPrice(lo), formatPrice(hi))))
	}

	for _, s := range c.series {
		line := sparkline(pointValues(s.points), c.width)
		if line == "" {
			continue
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.opts.Color))
		rows = append(rows, style.Render(line))
		rows = append(rows, axisStyle.Render(s.opts.Title))
	}

	for _, pl := range c.priceLines {
		marker := "────"
		if pl.opts.Dashed {
			marker = "╌╌╌╌"
		}
		rows = append(rows, priceLineStyle.Render(fmt.Sprintf("%s %s @ %s",
			marker, pl.opts.Title, formatPrice(pl.opts.Price))))
	}

	if len(rows) == 0 {
		return ""
	}
	return frameStyle.Render(strings.Join(rows, "\n"))
}

func closeValues(bars []models.Bar) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		out = append(out, b.Close)
	}
	return out
}

func pointValues(points []Point) []float64 {
	out := make([]float64, 0, len(points))
	for _, p := range points {
		out = append(out, p.Value)
	}
	return out
}

func valueRange(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// sparkline compresses values into at most width block characters.
func sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}
	if len(values) > width {
		values = resample(values, width)
	}
	lo, hi := valueRange(values)
	span := hi - lo
	var sb strings.Builder
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int((v - lo) / span * float64(len(sparkLevels)-1))
		}
		sb.WriteRune(sparkLevels[idx])
	}
	return sb.String()
}

func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	for i := range out {
		out[i] = values[i*len(values)/width]
	}
	return out
}

func formatPrice(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
