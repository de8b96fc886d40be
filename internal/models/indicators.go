package models

// SeriesPoint is one time-stamped indicator value. Time is a Unix timestamp
// in milliseconds, matching Bar.Time.
type SeriesPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// PriceLevel is a static horizontal level attributed to an indicator.
type PriceLevel struct {
	Price float64 `json:"price"`
	Label string  `json:"label,omitempty"`
}

// IndicatorPayload is the on-demand fetch result for one indicator key.
// A payload with a non-empty Error must be treated as absent. Series holds
// the primary line; Lines holds named sub-series for structured indicators
// (macd: line/signal/histogram, bollinger: upper/middle/lower, stoch: k/d).
type IndicatorPayload struct {
	Error  string                   `json:"error,omitempty"`
	Value  *float64                 `json:"value,omitempty"`
	Series []SeriesPoint            `json:"series,omitempty"`
	Lines  map[string][]SeriesPoint `json:"lines,omitempty"`
	Levels []PriceLevel             `json:"levels,omitempty"`
}

// ScalarValue is an indicator whose latest reading is a single number plus an
// optional history series.
type ScalarValue struct {
	Value  float64       `json:"value"`
	Series []SeriesPoint `json:"series,omitempty"`
}

// StochValue is the stochastic oscillator pair. Missing components stay nil;
// a nil component means "not computed", never zero.
type StochValue struct {
	K *float64 `json:"k,omitempty"`
	D *float64 `json:"d,omitempty"`
}

// MACDValue is the MACD triple with an optional history series per line.
type MACDValue struct {
	Line      float64       `json:"line"`
	Signal    float64       `json:"signal"`
	Histogram float64       `json:"histogram"`
	Series    []SeriesPoint `json:"series,omitempty"`
}

// BollingerValue holds the latest band levels.
type BollingerValue struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// IndicatorValues is the per-timeframe indicator snapshot. Every field is
// optional; a nil field means the server did not compute that indicator for
// this run and must never be read as zero.
type IndicatorValues struct {
	SMA20     *ScalarValue    `json:"sma_20,omitempty"`
	SMA50     *ScalarValue    `json:"sma_50,omitempty"`
	EMA10     *ScalarValue    `json:"ema_10,omitempty"`
	EMA20     *ScalarValue    `json:"ema_20,omitempty"`
	VWMA20    *ScalarValue    `json:"vwma_20,omitempty"`
	Bollinger *BollingerValue `json:"bollinger,omitempty"`
	RSI       *ScalarValue    `json:"rsi,omitempty"`
	Stoch     *StochValue     `json:"stoch,omitempty"`
	MACD      *MACDValue      `json:"macd,omitempty"`
	MFI       *ScalarValue    `json:"mfi,omitempty"`
	ADX       *ScalarValue    `json:"adx,omitempty"`
	ATR       *ScalarValue    `json:"atr,omitempty"`
	OBV       *ScalarValue    `json:"obv,omitempty"`
	VWAP      *ScalarValue    `json:"vwap,omitempty"`
}

// OscillatorZone classifies a bounded oscillator reading.
type OscillatorZone string

const (
	ZoneOverbought OscillatorZone = "overbought"
	ZoneOversold   OscillatorZone = "oversold"
	ZoneNeutral    OscillatorZone = "neutral"
)

// ClassifyOscillator applies the conventional 70/30 bands.
func ClassifyOscillator(value float64) OscillatorZone {
	switch {
	case value > 70:
		return ZoneOverbought
	case value < 30:
		return ZoneOversold
	default:
		return ZoneNeutral
	}
}
