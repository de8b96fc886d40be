package models

// Timeframe is the analysis horizon of a TimeframeBlock.
type Timeframe string

const (
	TimeframeShort Timeframe = "short_term"
	TimeframeLong  Timeframe = "long_term"
)

// Bar is a single OHLCV record. Time is a Unix timestamp in milliseconds;
// chart coordinates truncate it to whole seconds.
type Bar struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// ChartTime is the bar's chart coordinate in whole Unix seconds.
func (b Bar) ChartTime() int64 {
	return b.Time / 1000
}

// TimeframeBlock is the complete analysis payload for one horizon. It is
// immutable after receipt; the short-term and long-term instances exist
// concurrently and the UI shows one at a time.
type TimeframeBlock struct {
	Indicators IndicatorValues `json:"indicators"`
	Methods    []Method        `json:"methods"`
	Gauges     GaugeSet        `json:"gauges"`
	OHLCV      []Bar           `json:"ohlcv"`
}

// Method is one named analysis method and its vote.
type Method struct {
	Name       string  `json:"name"`
	Signal     string  `json:"signal"`
	Confidence float64 `json:"confidence"`
}

// Gauge is a buy/sell/neutral vote count with an aggregate signal, in the
// style of a technical-rating gauge.
type Gauge struct {
	Buy     int    `json:"buy"`
	Sell    int    `json:"sell"`
	Neutral int    `json:"neutral"`
	Signal  string `json:"signal"`
}

// GaugeSet groups the three rating gauges of a timeframe.
type GaugeSet struct {
	Oscillators    Gauge `json:"oscillators"`
	MovingAverages Gauge `json:"moving_averages"`
	Summary        Gauge `json:"summary"`
}
