package overlay

import "github.com/nhatphongdo/stock-agent-sub001/internal/models"

// ValueBundle holds the per-component values of one indicator at one time:
// {"value": 53.1} for a plain line, {"line": ..., "signal": ..., "histogram":
// ...} for structured indicators.
type ValueBundle map[string]float64

// TimeIndex maps a bar's chart time (whole Unix seconds) to the values of
// every merged indicator at that time. It backs tooltip composition.
type TimeIndex struct {
	buckets map[int64]map[string]ValueBundle
}

// NewTimeIndex returns an empty index.
func NewTimeIndex() *TimeIndex {
	return &TimeIndex{buckets: make(map[int64]map[string]ValueBundle)}
}

// Merge folds one indicator's payload into the index under key. The primary
// series lands under the "value" component; named sub-series keep their
// names.
func (ix *TimeIndex) Merge(key string, payload *models.IndicatorPayload) {
	if payload == nil {
		return
	}
	for _, p := range payload.Series {
		ix.put(p.Time/1000, key, "value", p.Value)
	}
	for name, points := range payload.Lines {
		for _, p := range points {
			ix.put(p.Time/1000, key, name, p.Value)
		}
	}
}

func (ix *TimeIndex) put(t int64, key, component string, value float64) {
	bucket, ok := ix.buckets[t]
	if !ok {
		bucket = make(map[string]ValueBundle)
		ix.buckets[t] = bucket
	}
	bundle, ok := bucket[key]
	if !ok {
		bundle = make(ValueBundle)
		bucket[key] = bundle
	}
	bundle[component] = value
}

// DeleteKey removes key's contribution from every time bucket. Emptied
// buckets stay behind as empty maps, never nil.
func (ix *TimeIndex) DeleteKey(key string) {
	for _, bucket := range ix.buckets {
		delete(bucket, key)
	}
}

// Lookup returns the per-indicator bundles at t. The result is never nil;
// an unknown time yields an empty map.
func (ix *TimeIndex) Lookup(t int64) map[string]ValueBundle {
	if bucket, ok := ix.buckets[t]; ok {
		return bucket
	}
	return map[string]ValueBundle{}
}

// Times returns the number of known time buckets, empty ones included.
func (ix *TimeIndex) Times() int {
	return len(ix.buckets)
}

// Reset drops every bucket. Used before a full re-render.
func (ix *TimeIndex) Reset() {
	ix.buckets = make(map[int64]map[string]ValueBundle)
}
