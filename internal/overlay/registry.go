package overlay

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/nhatphongdo/stock-agent-sub001/internal/catalog"
	"github.com/nhatphongdo/stock-agent-sub001/internal/chart"
	"github.com/nhatphongdo/stock-agent-sub001/internal/models"
)

var log = logrus.WithField("component", "overlay")

// ArtifactKind tags a drawable artifact variant.
type ArtifactKind string

const (
	ArtifactSeries    ArtifactKind = "series"
	ArtifactPriceLine ArtifactKind = "priceLine"
)

// Artifact is one drawable object on the chart attributed to an indicator.
type Artifact struct {
	Kind      ArtifactKind
	Series    chart.Series
	PriceLine chart.PriceLine
}

// Entry records the artifacts currently rendered for one indicator key.
// At most one Entry per key exists at any time.
type Entry struct {
	Key       string
	Artifacts []Artifact
}

// FetchFunc obtains the indicator's payload for the active symbol, date
// range and interval. Returning a nil payload (or one carrying an error
// marker) aborts the add silently.
type FetchFunc func(ctx context.Context, key string) (*models.IndicatorPayload, error)

// Registry owns the per-chart-session mapping from indicator key to rendered
// artifacts, and keeps the time index in step with them.
type Registry struct {
	chart   chart.Chart
	index   *TimeIndex
	catalog *catalog.Catalog
	entries map[string]*Entry
}

// NewRegistry binds a registry to one chart instance. Styling and labels are
// resolved through the catalog so indicator lookup stays centralized.
func NewRegistry(c chart.Chart, ix *TimeIndex, cat *catalog.Catalog) *Registry {
	return &Registry{
		chart:   c,
		index:   ix,
		catalog: cat,
		entries: make(map[string]*Entry),
	}
}

// Has reports whether key currently has an entry.
func (r *Registry) Has(key string) bool {
	_, ok := r.entries[key]
	return ok
}

// Len reports the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// AddIndicator renders key onto the chart. Adding an already-present key is
// a no-op. Fetch failures and absent payloads abort silently: the indicator
// is simply not drawn, and the caller never sees an error for them.
func (r *Registry) AddIndicator(ctx context.Context, key string, fetch FetchFunc) error {
	if r.Has(key) {
		return nil
	}

	payload, err := fetch(ctx, key)
	if err != nil {
		log.WithError(err).WithField("indicator", key).Warn("indicator fetch failed, skipping")
		return nil
	}
	if payload == nil || payload.Error != "" {
		log.WithField("indicator", key).Debug("indicator payload absent, skipping")
		return nil
	}

	ind, known := r.catalog.Get(key)
	if !known {
		ind = catalog.Indicator{Key: key, Label: key}
	}

	entry := &Entry{Key: key}
	if err := r.renderPayload(entry, ind, payload); err != nil {
		// Partial renders are rolled back so a failed add leaves no orphans.
		r.removeArtifacts(entry)
		log.WithError(err).WithField("indicator", key).Warn("indicator render failed")
		return nil
	}

	r.entries[key] = entry
	r.index.Merge(key, payload)
	return nil
}

func (r *Registry) renderPayload(entry *Entry, ind catalog.Indicator, payload *models.IndicatorPayload) error {
	colorAt := func(i int) string {
		if i < len(ind.Colors) {
			return ind.Colors[i]
		}
		return "#9CA3AF"
	}

	colorIdx := 0
	addLine := func(title string, points []models.SeriesPoint) error {
		series, err := r.chart.AddLineSeries(chart.LineOptions{
			Title: title,
			Color: colorAt(colorIdx),
			Pane:  ind.Pane,
		})
		if err != nil {
			return err
		}
		colorIdx++
		entry.Artifacts = append(entry.Artifacts, Artifact{Kind: ArtifactSeries, Series: series})
		return series.SetData(toChartPoints(points))
	}

	if len(payload.Series) > 0 {
		if err := addLine(ind.Label, payload.Series); err != nil {
			return err
		}
	}
	for _, name := range sortedLineNames(payload.Lines) {
		if err := addLine(ind.Label+" "+name, payload.Lines[name]); err != nil {
			return err
		}
	}
	for _, level := range payload.Levels {
		title := level.Label
		if title == "" {
			title = ind.Label
		}
		pl, err := r.chart.CreatePriceLine(chart.PriceLineOptions{
			Price:  level.Price,
			Title:  title,
			Color:  colorAt(0),
			Dashed: true,
		})
		if err != nil {
			return err
		}
		entry.Artifacts = append(entry.Artifacts, Artifact{Kind: ArtifactPriceLine, PriceLine: pl})
	}
	return nil
}

// RemoveIndicator undoes AddIndicator. Removing an absent key is a no-op.
// Artifact removal failures (stale handles after an intervening re-render)
// are logged and never propagated; the index and entry are cleaned up
// regardless.
func (r *Registry) RemoveIndicator(key string) {
	entry, ok := r.entries[key]
	if !ok {
		return
	}
	r.removeArtifacts(entry)
	r.index.DeleteKey(key)
	delete(r.entries, key)
}

func (r *Registry) removeArtifacts(entry *Entry) {
	for _, a := range entry.Artifacts {
		var err error
		switch a.Kind {
		case ArtifactSeries:
			err = r.chart.RemoveSeries(a.Series)
		case ArtifactPriceLine:
			err = r.chart.RemovePriceLine(a.PriceLine)
		}
		if err != nil {
			log.WithError(err).WithField("indicator", entry.Key).Warn("artifact removal failed")
		}
	}
}

// Clear forgets every entry without touching the chart. It must be called
// after a full re-render has invalidated the artifact handles; stale handles
// are unsafe to operate on. The session builds a fresh registry per render,
// so Clear serves callers that keep one registry alive across renders.
func (r *Registry) Clear() {
	r.entries = make(map[string]*Entry)
	r.index.Reset()
}

func toChartPoints(points []models.SeriesPoint) []chart.Point {
	out := make([]chart.Point, 0, len(points))
	for _, p := range points {
		out = append(out, chart.Point{Time: p.Time / 1000, Value: p.Value})
	}
	return out
}

func sortedLineNames(lines map[string][]models.SeriesPoint) []string {
	if len(lines) == 0 {
		return nil
	}
	names := make([]string, 0, len(lines))
	for name := range lines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
