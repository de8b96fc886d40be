package overlay

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nhatphongdo/stock-agent-sub001/internal/catalog"
	"github.com/nhatphongdo/stock-agent-sub001/internal/models"
)

// TooltipComposer turns the time-indexed value bundles into display lines.
// Composition order is driven by catalog category priority (moving averages,
// bands, oscillators, trend, volume) and is independent of insertion order.
type TooltipComposer struct {
	catalog *catalog.Catalog
	index   *TimeIndex
}

// NewTooltipComposer binds the composer to the session's catalog and index.
func NewTooltipComposer(cat *catalog.Catalog, ix *TimeIndex) *TooltipComposer {
	return &TooltipComposer{catalog: cat, index: ix}
}

// Compose returns one line per indicator present at t, skipping absent keys
// entirely. The result is empty when nothing is indexed at t.
func (tc *TooltipComposer) Compose(t int64) []string {
	bundles := tc.index.Lookup(t)
	if len(bundles) == 0 {
		return nil
	}

	var lines []string
	seen := make(map[string]bool, len(bundles))
	for _, key := range tc.catalog.OrderedKeys() {
		bundle, ok := bundles[key]
		if !ok || len(bundle) == 0 {
			continue
		}
		seen[key] = true
		ind, _ := tc.catalog.Get(key)
		lines = append(lines, formatBundle(ind, bundle))
	}

	// Keys outside the catalog still show up, after the known categories,
	// in a stable order.
	var extras []string
	for key, bundle := range bundles {
		if !seen[key] && len(bundle) > 0 {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	for _, key := range extras {
		lines = append(lines, formatBundle(catalog.Indicator{Key: key, Label: key}, bundles[key]))
	}
	return lines
}

func formatBundle(ind catalog.Indicator, bundle ValueBundle) string {
	if v, ok := bundle["value"]; ok && len(bundle) == 1 {
		line := fmt.Sprintf("%s: %s", ind.Label, formatValue(v))
		if ind.Category == catalog.CategoryOscillator {
			if zone := models.ClassifyOscillator(v); zone != models.ZoneNeutral {
				line += fmt.Sprintf(" (%s)", zone)
			}
		}
		return line
	}

	components := make([]string, 0, len(bundle))
	for name := range bundle {
		components = append(components, name)
	}
	sort.Strings(components)

	parts := make([]string, 0, len(components))
	for _, name := range components {
		parts = append(parts, fmt.Sprintf("%s %s", name, formatValue(bundle[name])))
	}
	return fmt.Sprintf("%s: %s", ind.Label, strings.Join(parts, ", "))
}

func formatValue(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
