package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhatphongdo/stock-agent-sub001/config"
	"github.com/nhatphongdo/stock-agent-sub001/internal/catalog"
	"github.com/nhatphongdo/stock-agent-sub001/internal/chart"
	"github.com/nhatphongdo/stock-agent-sub001/internal/client"
	"github.com/nhatphongdo/stock-agent-sub001/internal/models"
	"github.com/nhatphongdo/stock-agent-sub001/internal/overlay"
	"github.com/nhatphongdo/stock-agent-sub001/internal/stream"
)

var log = logrus.WithField("component", "session")

// errStaleResult marks an indicator fetch that resolved after the governing
// symbol or timeframe changed. Its result must be discarded, never rendered.
var errStaleResult = errors.New("indicator fetch superseded by session change")

// noDataPlaceholder is shown when a stream ends without content or data.
const noDataPlaceholder = "No analysis data available for this symbol."

// State is the session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Callbacks are the UI-update hooks a session dispatches decoded events to.
// Any hook may be nil.
type Callbacks struct {
	// OnContent receives the full accumulated analysis text after every
	// append (content chunks and inline error fragments alike).
	OnContent         func(text string)
	OnRecommendation  func(label string, style models.BadgeStyle)
	OnTimeframeRender func(tf models.Timeframe)
	OnSummary         func(summary models.AnalysisSummary)
	OnTooltip         func(lines []string)
	OnStateChange     func(state State)
}

// NameResolver maps a symbol to its display company name.
// *client.CompanyResolver is the production implementation.
type NameResolver interface {
	Resolve(symbol string) string
}

// Session owns one instrument's analysis lifecycle: the open stream, the
// chart and its overlay registry, the time-indexed value cache, and the
// indicator add/remove protocol. It is not safe for concurrent use; the
// UI loop drives it from a single goroutine.
type Session struct {
	cfg          *config.Config
	client       *client.Client
	resolver     NameResolver
	chartFactory func() chart.Chart
	callbacks    Callbacks

	state     State
	symbol    string
	company   string
	startDate time.Time
	endDate   time.Time
	timeframe models.Timeframe

	catalog  *catalog.Catalog
	chart    chart.Chart
	index    *overlay.TimeIndex
	registry *overlay.Registry
	tooltip  *overlay.TooltipComposer

	enabled map[string]bool
	fetched map[string]bool

	// generation advances whenever the governing symbol or timeframe
	// changes; async work carrying an older generation discards its result.
	generation uint64

	shortTerm *models.TimeframeBlock
	longTerm  *models.TimeframeBlock
	summary   *models.AnalysisSummary

	text          strings.Builder
	contentEvents int
	dataEvents    int

	disposers []func()
}

// New creates an idle session.
func New(cfg *config.Config, cli *client.Client, resolver NameResolver, chartFactory func() chart.Chart, cb Callbacks) *Session {
	return &Session{
		cfg:          cfg,
		client:       cli,
		resolver:     resolver,
		chartFactory: chartFactory,
		callbacks:    cb,
		timeframe:    models.TimeframeShort,
		enabled:      make(map[string]bool),
		fetched:      make(map[string]bool),
	}
}

// State reports the lifecycle state.
func (s *Session) State() State { return s.state }

// Symbol reports the active instrument symbol.
func (s *Session) Symbol() string { return s.symbol }

// CompanyName reports the resolved company name of the active symbol.
func (s *Session) CompanyName() string { return s.company }

// Timeframe reports the currently displayed analysis horizon.
func (s *Session) Timeframe() models.Timeframe { return s.timeframe }

// Text returns the accumulated analysis text.
func (s *Session) Text() string { return s.text.String() }

// Chart exposes the live chart instance, nil before the first data event.
func (s *Session) Chart() chart.Chart { return s.chart }

// EnabledIndicators returns the enabled keys in sorted order.
func (s *Session) EnabledIndicators() []string {
	keys := make([]string, 0, len(s.enabled))
	for k := range s.enabled {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Block returns the received TimeframeBlock for tf, nil when absent.
func (s *Session) Block(tf models.Timeframe) *models.TimeframeBlock {
	if tf == models.TimeframeLong {
		return s.longTerm
	}
	return s.shortTerm
}

// Summary returns the stored analysis summary, nil before the summary event.
func (s *Session) Summary() *models.AnalysisSummary { return s.summary }

// Start runs the analysis stream for symbol to completion, dispatching
// events as they arrive. Triggering the same symbol again while a run is in
// flight (or after one) is suppressed; a new symbol cancels that guard and
// tears down the previous instrument's state. Only transport failures are
// returned; per-line decode failures are surfaced inline and recovered.
func (s *Session) Start(ctx context.Context, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("start session: symbol must not be empty")
	}

	if s.fetched[symbol] {
		log.WithField("symbol", symbol).Debug("analysis already fetched, suppressing re-entry")
		return nil
	}

	if s.symbol != "" && s.symbol != symbol {
		s.teardownInstrument()
	}

	// Recorded optimistically before the stream completes so a second
	// trigger for the same symbol is suppressed while this one runs.
	s.fetched[symbol] = true
	// Each run accumulates from clean text; a caller-driven retry after a
	// failure must not concatenate onto the failed run's fragments.
	s.text.Reset()
	s.contentEvents = 0
	s.dataEvents = 0
	s.symbol = symbol
	s.company = s.resolver.Resolve(symbol)
	s.endDate = time.Now()
	s.startDate = s.endDate.AddDate(0, 0, -s.cfg.HistoryDays)
	s.setState(StateStreaming)

	if s.catalog == nil {
		s.catalog = s.client.FetchCatalog(ctx)
	}

	body, err := s.client.StreamAnalysis(ctx, client.AnalysisRequest{
		Symbol:      symbol,
		CompanyName: s.company,
	})
	if err != nil {
		return s.fail(symbol, err)
	}
	defer body.Close()

	reader := stream.NewEventReader(body)
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var decodeErr *stream.DecodeError
		if errors.As(err, &decodeErr) {
			log.WithError(decodeErr).Warn("skipping malformed stream line")
			s.appendText("\n[received an unreadable fragment, skipped]\n")
			continue
		}
		if err != nil {
			return s.fail(symbol, fmt.Errorf("analysis stream interrupted: %w", err))
		}
		s.dispatch(ctx, event)
	}

	// The placeholder stands in only when there is truly nothing to show;
	// inline error fragments already tell the user what happened.
	if s.contentEvents == 0 && s.dataEvents == 0 && s.text.Len() == 0 {
		s.appendText(noDataPlaceholder)
	}
	s.setState(StateCompleted)
	return nil
}

func (s *Session) fail(symbol string, err error) error {
	// The guard is lifted so a caller-driven retry of the same symbol is
	// possible; the session itself never retries.
	delete(s.fetched, symbol)
	s.setState(StateFailed)
	log.WithError(err).WithField("symbol", symbol).Error("analysis session failed")
	return err
}

func (s *Session) dispatch(ctx context.Context, event *models.StreamEvent) {
	switch event.Type {
	case models.EventContent:
		s.contentEvents++
		s.appendText(event.Content.Chunk)

	case models.EventRecommendation:
		if s.callbacks.OnRecommendation != nil {
			s.callbacks.OnRecommendation(
				event.Recommendation.Label,
				models.ParseBadgeStyle(event.Recommendation.Color),
			)
		}

	case models.EventData:
		s.dataEvents++
		if event.Data.ShortTerm != nil {
			s.shortTerm = event.Data.ShortTerm
		}
		if event.Data.LongTerm != nil {
			s.longTerm = event.Data.LongTerm
		}
		s.renderTimeframe(ctx, s.timeframe)

	case models.EventSummary:
		summary := event.Summary.Summary
		s.summary = &summary
		s.drawSummaryLines()
		if s.callbacks.OnSummary != nil {
			s.callbacks.OnSummary(summary)
		}

	case models.EventError:
		s.appendText("\n⚠ " + event.Error.Message + "\n")
	}
}

func (s *Session) appendText(fragment string) {
	s.text.WriteString(fragment)
	if s.callbacks.OnContent != nil {
		s.callbacks.OnContent(s.text.String())
	}
}

func (s *Session) setState(state State) {
	if s.state == state {
		return
	}
	s.state = state
	if s.callbacks.OnStateChange != nil {
		s.callbacks.OnStateChange(state)
	}
}

// SetTimeframe switches the displayed horizon and re-renders from the
// stored block. Unknown values default to the short-term horizon.
func (s *Session) SetTimeframe(ctx context.Context, tf models.Timeframe) {
	if tf != models.TimeframeLong {
		tf = models.TimeframeShort
	}
	if tf == s.timeframe {
		return
	}
	s.timeframe = tf
	s.renderTimeframe(ctx, tf)
}

// renderTimeframe performs a full chart (re)render for tf: the previous
// chart and every artifact handle on it are invalidated, the registry and
// value index restart from empty, and the enabled indicators are re-applied
// through the add protocol so styling and lookup stay centralized.
func (s *Session) renderTimeframe(ctx context.Context, tf models.Timeframe) {
	block := s.Block(tf)
	if block == nil {
		return
	}

	s.generation++
	s.destroyChart()

	s.chart = s.chartFactory()
	s.index = overlay.NewTimeIndex()
	s.registry = overlay.NewRegistry(s.chart, s.index, s.catalog)
	s.tooltip = overlay.NewTooltipComposer(s.catalog, s.index)

	s.chart.SetBars(block.OHLCV)

	dispose := s.chart.SubscribeCrosshairMove(func(ev chart.CrosshairEvent) {
		if s.callbacks.OnTooltip != nil {
			s.callbacks.OnTooltip(s.tooltip.Compose(ev.Time))
		}
	})
	s.disposers = append(s.disposers, dispose)

	s.drawSummaryLines()

	gen := s.generation
	for _, key := range s.EnabledIndicators() {
		if err := s.registry.AddIndicator(ctx, key, s.indicatorFetch(gen)); err != nil {
			log.WithError(err).WithField("indicator", key).Warn("re-apply indicator failed")
		}
	}

	if s.callbacks.OnTimeframeRender != nil {
		s.callbacks.OnTimeframeRender(tf)
	}
}

// drawSummaryLines renders support/resistance price lines. They belong to
// the summary, not to the indicator toggles, and are redrawn on every full
// re-render.
func (s *Session) drawSummaryLines() {
	if s.summary == nil || s.chart == nil {
		return
	}
	draw := func(levels []float64, title, color string) {
		for _, price := range levels {
			if _, err := s.chart.CreatePriceLine(chart.PriceLineOptions{
				Price:  price,
				Title:  title,
				Color:  color,
				Dashed: true,
			}); err != nil {
				log.WithError(err).Warn("summary price line failed")
			}
		}
	}
	draw(s.summary.Support, "Support", "#10B981")
	draw(s.summary.Resistance, "Resistance", "#EF4444")
}

// EnableIndicator turns an indicator on. Before the first data event the
// key is only recorded; it is applied on the next render. Adding an
// already-enabled key is a no-op at the registry.
func (s *Session) EnableIndicator(ctx context.Context, key string) error {
	s.enabled[key] = true
	if s.registry == nil {
		return nil
	}
	return s.registry.AddIndicator(ctx, key, s.indicatorFetch(s.generation))
}

// DisableIndicator turns an indicator off. Disabling a key that was never
// added (or whose add is still in flight) is a no-op; a stale in-flight add
// discards its own result via the generation check.
func (s *Session) DisableIndicator(key string) {
	delete(s.enabled, key)
	if s.registry != nil {
		s.registry.RemoveIndicator(key)
	}
}

// indicatorFetch builds the registry fetch bound to the session coordinates
// at call time. When the fetch resolves after the governing generation has
// advanced (new symbol, new timeframe, teardown), the result is discarded.
func (s *Session) indicatorFetch(gen uint64) overlay.FetchFunc {
	symbol := s.symbol
	req := client.IndicatorRequest{
		Symbol:    symbol,
		StartDate: s.startDate.Format("2006-01-02"),
		EndDate:   s.endDate.Format("2006-01-02"),
		Interval:  s.cfg.Interval,
	}
	return func(ctx context.Context, key string) (*models.IndicatorPayload, error) {
		req.Keys = []string{key}
		payloads, err := s.client.FetchIndicators(ctx, req)
		if err != nil {
			return nil, err
		}
		if s.generation != gen {
			return nil, fmt.Errorf("%w: %s", errStaleResult, symbol)
		}
		return payloads[key], nil
	}
}

// Teardown fully dismantles the session: chart destroyed, registries
// cleared, caches invalidated, listeners unsubscribed. The session returns
// to Idle and can be started again.
func (s *Session) Teardown() {
	s.teardownInstrument()
	s.setState(StateIdle)
}

// teardownInstrument clears everything tied to the current symbol while
// keeping the session reusable.
func (s *Session) teardownInstrument() {
	s.generation++
	s.destroyChart()

	s.registry = nil
	s.index = nil
	s.tooltip = nil
	s.shortTerm = nil
	s.longTerm = nil
	s.summary = nil
	s.fetched = make(map[string]bool)
	s.text.Reset()
	s.contentEvents = 0
	s.dataEvents = 0
	s.symbol = ""
	s.company = ""
	s.timeframe = models.TimeframeShort
}

func (s *Session) destroyChart() {
	for _, dispose := range s.disposers {
		dispose()
	}
	s.disposers = nil
	if s.chart != nil {
		s.chart.Remove()
		s.chart = nil
	}
}
