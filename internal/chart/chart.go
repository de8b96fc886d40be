package chart

import "github.com/nhatphongdo/stock-agent-sub001/internal/models"

// Point is one series coordinate. Time is in whole Unix seconds.
type Point struct {
	Time  int64
	Value float64
}

// LineOptions style a line series.
type LineOptions struct {
	Title string
	Color string
	Pane  bool
}

// PriceLineOptions style a static horizontal level.
type PriceLineOptions struct {
	Price  float64
	Title  string
	Color  string
	Dashed bool
}

// Series is the handle of one rendered line series. Handles are invalidated
// by chart destruction; operating on a stale handle returns an error.
type Series interface {
	SetData(points []Point) error
}

// PriceLine is the opaque handle of one rendered price line.
type PriceLine interface{}

// CrosshairEvent reports cursor movement over a bar.
type CrosshairEvent struct {
	Time int64
}

// Chart is the external charting collaborator surface consumed by the
// session and the overlay registry. Implementations are not required to be
// safe for concurrent use.
type Chart interface {
	SetBars(bars []models.Bar)
	AddLineSeries(opts LineOptions) (Series, error)
	RemoveSeries(s Series) error
	CreatePriceLine(opts PriceLineOptions) (PriceLine, error)
	RemovePriceLine(pl PriceLine) error
	// SubscribeCrosshairMove registers fn and returns a disposer that
	// unregisters it. Disposers are idempotent.
	SubscribeCrosshairMove(fn func(CrosshairEvent)) (dispose func())
	// Remove destroys the chart. Every handle created on it becomes stale.
	Remove()
}
