package catalog

import "sort"

// Category groups indicators for display and tooltip ordering.
type Category string

const (
	CategoryMovingAverage Category = "moving_average"
	CategoryBand          Category = "band"
	CategoryOscillator    Category = "oscillator"
	CategoryTrend         Category = "trend"
	CategoryVolume        Category = "volume"
)

// categoryPriority fixes the tooltip composition order. It is independent of
// map iteration order and of the order indicators were added.
var categoryPriority = map[Category]int{
	CategoryMovingAverage: 0,
	CategoryBand:          1,
	CategoryOscillator:    2,
	CategoryTrend:         3,
	CategoryVolume:        4,
}

// Indicator describes one catalog entry: a stable key plus rendering hints.
type Indicator struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Category Category `json:"category"`
	// Colors are applied to the indicator's line series in order; structured
	// indicators (macd, bollinger) consume several.
	Colors []string `json:"colors,omitempty"`
	// Pane is true for indicators rendered in their own pane rather than as
	// a price overlay (oscillators).
	Pane bool `json:"pane,omitempty"`
}

// Catalog is the session-cached registry of available indicators.
type Catalog struct {
	byKey map[string]Indicator
	order []string
}

// New builds a catalog preserving the given listing order for dropdowns.
// Duplicate keys keep the first occurrence.
func New(indicators []Indicator) *Catalog {
	c := &Catalog{byKey: make(map[string]Indicator, len(indicators))}
	for _, ind := range indicators {
		if _, exists := c.byKey[ind.Key]; exists {
			continue
		}
		c.byKey[ind.Key] = ind
		c.order = append(c.order, ind.Key)
	}
	return c
}

// Get looks up one indicator by key.
func (c *Catalog) Get(key string) (Indicator, bool) {
	ind, ok := c.byKey[key]
	return ind, ok
}

// Keys returns the catalog listing order (dropdown order).
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// OrderedKeys returns keys sorted by category priority, then by listing
// order within a category. This is the tooltip composition order.
func (c *Catalog) OrderedKeys() []string {
	out := c.Keys()
	pos := make(map[string]int, len(out))
	for i, k := range out {
		pos[k] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi := categoryPriority[c.byKey[out[i]].Category]
		pj := categoryPriority[c.byKey[out[j]].Category]
		if pi != pj {
			return pi < pj
		}
		return pos[out[i]] < pos[out[j]]
	})
	return out
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Default is the built-in catalog used when the catalog endpoint is
// unreachable. Keys match the server's indicator identifiers.
func Default() *Catalog {
	return New([]Indicator{
		{Key: "sma_20", Label: "SMA 20", Category: CategoryMovingAverage, Colors: []string{"#F59E0B"}},
		{Key: "sma_50", Label: "SMA 50", Category: CategoryMovingAverage, Colors: []string{"#FB923C"}},
		{Key: "ema_10", Label: "EMA 10", Category: CategoryMovingAverage, Colors: []string{"#38BDF8"}},
		{Key: "ema_20", Label: "EMA 20", Category: CategoryMovingAverage, Colors: []string{"#818CF8"}},
		{Key: "vwma_20", Label: "VWMA 20", Category: CategoryMovingAverage, Colors: []string{"#2DD4BF"}},
		{Key: "bollinger", Label: "Bollinger Bands", Category: CategoryBand, Colors: []string{"#A78BFA", "#C4B5FD", "#A78BFA"}},
		{Key: "rsi", Label: "RSI 14", Category: CategoryOscillator, Colors: []string{"#E879F9"}, Pane: true},
		{Key: "stoch", Label: "Stochastic", Category: CategoryOscillator, Colors: []string{"#F472B6", "#FB7185"}, Pane: true},
		{Key: "macd", Label: "MACD", Category: CategoryOscillator, Colors: []string{"#60A5FA", "#F87171", "#9CA3AF"}, Pane: true},
		{Key: "mfi", Label: "MFI 14", Category: CategoryOscillator, Colors: []string{"#34D399"}, Pane: true},
		{Key: "adx", Label: "ADX 14", Category: CategoryTrend, Colors: []string{"#FBBF24"}, Pane: true},
		{Key: "atr", Label: "ATR 14", Category: CategoryTrend, Colors: []string{"#FCA5A5"}, Pane: true},
		{Key: "psar", Label: "Parabolic SAR", Category: CategoryTrend, Colors: []string{"#FDE047"}},
		{Key: "obv", Label: "OBV", Category: CategoryVolume, Colors: []string{"#4ADE80"}, Pane: true},
		{Key: "vwap", Label: "VWAP", Category: CategoryVolume, Colors: []string{"#22D3EE"}},
	})
}
