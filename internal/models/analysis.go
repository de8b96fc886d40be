package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// EventType discriminates the variants of a decoded stream event.
type EventType string

const (
	EventContent        EventType = "content"
	EventRecommendation EventType = "recommendation"
	EventData           EventType = "data"
	EventSummary        EventType = "analysis_summary"
	EventError          EventType = "error"
)

// StreamEvent is one decoded line of the server's incremental analysis
// response. Exactly one variant field matching Type is non-nil.
type StreamEvent struct {
	Type           EventType
	Content        *ContentEvent
	Recommendation *RecommendationEvent
	Data           *DataEvent
	Summary        *SummaryEvent
	Error          *ErrorEvent
}

// ContentEvent carries an incremental fragment of the analysis text.
type ContentEvent struct {
	Chunk string `json:"chunk"`
}

// RecommendationEvent updates the recommendation badge.
type RecommendationEvent struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// DataEvent delivers the per-timeframe analysis blocks. Either block may be
// absent when the server has no data for that horizon.
type DataEvent struct {
	ShortTerm *TimeframeBlock `json:"short_term,omitempty"`
	LongTerm  *TimeframeBlock `json:"long_term,omitempty"`
}

// SummaryEvent delivers support/resistance levels and trend summaries.
type SummaryEvent struct {
	Summary AnalysisSummary `json:"summary"`
}

// ErrorEvent is an inline server-side error fragment. It does not terminate
// the stream.
type ErrorEvent struct {
	Message string `json:"message"`
}

// BadgeStyle is the fixed palette for the recommendation badge.
type BadgeStyle string

const (
	BadgeSuccess BadgeStyle = "success"
	BadgeDanger  BadgeStyle = "danger"
	BadgeWarning BadgeStyle = "warning"
	BadgeInfo    BadgeStyle = "info"
	BadgeNeutral BadgeStyle = "neutral"
)

// ParseBadgeStyle maps a wire color category onto the badge palette.
// Unknown categories fall back to the neutral style.
func ParseBadgeStyle(color string) BadgeStyle {
	switch BadgeStyle(strings.ToLower(strings.TrimSpace(color))) {
	case BadgeSuccess, BadgeDanger, BadgeWarning, BadgeInfo:
		return BadgeStyle(strings.ToLower(strings.TrimSpace(color)))
	default:
		return BadgeNeutral
	}
}

// AnalysisSummary holds key levels and trend outlooks delivered by an
// analysis_summary event. Levels drive auxiliary price-line overlays
// independent of the indicator toggles.
type AnalysisSummary struct {
	ShortTerm  *TrendOutlook `json:"short_term,omitempty"`
	LongTerm   *TrendOutlook `json:"long_term,omitempty"`
	Support    []float64     `json:"support,omitempty"`
	Resistance []float64     `json:"resistance,omitempty"`
}

// TrendOutlook is the per-horizon trend summary.
type TrendOutlook struct {
	Trend      string  `json:"trend"`
	Signal     string  `json:"signal"`
	Confidence float64 `json:"confidence"`
}

// TrendDirection classifies a TrendOutlook for display.
type TrendDirection string

const (
	TrendBullish  TrendDirection = "bullish"
	TrendBearish  TrendDirection = "bearish"
	TrendSideways TrendDirection = "sideways"
)

// Direction classifies the trend label. The backend emits Vietnamese labels;
// English ones are accepted as well.
func (t *TrendOutlook) Direction() TrendDirection {
	switch strings.ToLower(strings.TrimSpace(t.Trend)) {
	case "tăng", "up", "uptrend", "bullish":
		return TrendBullish
	case "giảm", "down", "downtrend", "bearish":
		return TrendBearish
	default:
		return TrendSideways
	}
}

// ConfidencePercent renders the 0..1 confidence as a whole percentage.
func (t *TrendOutlook) ConfidencePercent() int {
	if t.Confidence < 0 {
		return 0
	}
	if t.Confidence > 1 {
		return 100
	}
	return int(t.Confidence*100 + 0.5)
}

// rawEvent mirrors the wire layout of a stream line: a type tag next to the
// union of all variant fields.
type rawEvent struct {
	Type      EventType        `json:"type"`
	Chunk     string           `json:"chunk"`
	Label     string           `json:"label"`
	Color     string           `json:"color"`
	ShortTerm *TimeframeBlock  `json:"short_term"`
	LongTerm  *TimeframeBlock  `json:"long_term"`
	Summary   *AnalysisSummary `json:"summary"`
	Message   string           `json:"message"`
}

// UnmarshalJSON decodes the wire form into the tagged union.
func (e *StreamEvent) UnmarshalJSON(data []byte) error {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = StreamEvent{Type: raw.Type}
	switch raw.Type {
	case EventContent:
		e.Content = &ContentEvent{Chunk: raw.Chunk}
	case EventRecommendation:
		e.Recommendation = &RecommendationEvent{Label: raw.Label, Color: raw.Color}
	case EventData:
		e.Data = &DataEvent{ShortTerm: raw.ShortTerm, LongTerm: raw.LongTerm}
	case EventSummary:
		var summary AnalysisSummary
		if raw.Summary != nil {
			summary = *raw.Summary
		}
		e.Summary = &SummaryEvent{Summary: summary}
	case EventError:
		e.Error = &ErrorEvent{Message: raw.Message}
	default:
		return &UnknownEventTypeError{Type: string(raw.Type)}
	}
	return nil
}

// UnknownEventTypeError reports a line whose type tag is not a recognized
// stream event variant.
type UnknownEventTypeError struct {
	Type string
}

func (e *UnknownEventTypeError) Error() string {
	if e.Type == "" {
		return "stream event is missing a type tag"
	}
	return "unrecognized stream event type " + strconv.Quote(e.Type)
}
