package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhatphongdo/stock-agent-sub001/config"
	"github.com/nhatphongdo/stock-agent-sub001/internal/chart"
	"github.com/nhatphongdo/stock-agent-sub001/internal/client"
	"github.com/nhatphongdo/stock-agent-sub001/internal/models"
)

const dataLine = `{"type":"data",` +
	`"short_term":{"indicators":{"rsi":{"value":72.4}},` +
	`"gauges":{"summary":{"buy":5,"sell":2,"neutral":3,"signal":"buy"}},` +
	`"ohlcv":[{"time":1700000000000,"open":100,"high":102,"low":99,"close":101,"volume":10000},` +
	`{"time":1700000060000,"open":101,"high":103,"low":100,"close":102.5,"volume":12000}]},` +
	`"long_term":{"indicators":{"rsi":{"value":48.1}},` +
	`"ohlcv":[{"time":1699990000000,"open":95,"high":101,"low":94,"close":100,"volume":50000}]}}`

const summaryLine = `{"type":"analysis_summary","summary":{` +
	`"short_term":{"trend":"tăng","signal":"mua","confidence":0.8},` +
	`"long_term":{"trend":"giảm","signal":"bán","confidence":0.6},` +
	`"support":[98.5],"resistance":[105]}}`

const rsiPayloadBody = `{"indicators":{"rsi":{"series":[` +
	`{"time":1700000000000,"value":55.2},{"time":1700000060000,"value":72.4}]}}}`

type stubResolver struct{}

func (stubResolver) Resolve(symbol string) string { return symbol + " Corp" }

// harness runs a scripted backend and tracks every chart the session makes.
type harness struct {
	t   *testing.T
	srv *httptest.Server

	streamLines    map[string][]string
	streamCalls    int
	indicatorCalls int
	streamStatus   int

	charts []*chart.TerminalChart
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		t:            t,
		streamLines:  make(map[string][]string),
		streamStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/analysis/stream", func(w http.ResponseWriter, r *http.Request) {
		h.streamCalls++
		if h.streamStatus != http.StatusOK {
			http.Error(w, "backend down", h.streamStatus)
			return
		}
		var req client.AnalysisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for _, line := range h.streamLines[req.Symbol] {
			io.WriteString(w, line+"\n")
		}
	})
	mux.HandleFunc("/api/indicators", func(w http.ResponseWriter, r *http.Request) {
		h.indicatorCalls++
		io.WriteString(w, rsiPayloadBody)
	})
	mux.HandleFunc("/api/indicators/catalog", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not implemented", http.StatusNotFound)
	})

	h.srv = httptest.NewServer(mux)
	t.Cleanup(h.srv.Close)
	return h
}

func (h *harness) newSession(cb Callbacks) *Session {
	cfg := &config.Config{
		APIBaseURL:     h.srv.URL,
		Interval:       "1d",
		HistoryDays:    180,
		RequestTimeout: 5,
	}
	cli := client.New(client.Options{BaseURL: h.srv.URL})
	factory := func() chart.Chart {
		c := chart.NewTerminalChart(40)
		h.charts = append(h.charts, c)
		return c
	}
	return New(cfg, cli, stubResolver{}, factory, cb)
}

func (h *harness) activeChart() *chart.TerminalChart {
	require.NotEmpty(h.t, h.charts)
	return h.charts[len(h.charts)-1]
}

func TestSessionEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.streamLines["VNM"] = []string{dataLine, summaryLine}

	var gotSummary *models.AnalysisSummary
	s := h.newSession(Callbacks{
		OnSummary: func(summary models.AnalysisSummary) { gotSummary = &summary },
	})

	require.NoError(t, s.Start(context.Background(), "vnm"))

	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, "VNM", s.Symbol())
	assert.Equal(t, "VNM Corp", s.CompanyName())

	// RSI snapshot reads 72.4 and classifies as overbought.
	block := s.Block(models.TimeframeShort)
	require.NotNil(t, block)
	require.NotNil(t, block.Indicators.RSI)
	assert.Equal(t, 72.4, block.Indicators.RSI.Value)
	assert.Equal(t, models.ZoneOverbought, models.ClassifyOscillator(block.Indicators.RSI.Value))

	// The short-term trend badge classifies bullish at 80%.
	require.NotNil(t, gotSummary)
	require.NotNil(t, gotSummary.ShortTerm)
	assert.Equal(t, models.TrendBullish, gotSummary.ShortTerm.Direction())
	assert.Equal(t, 80, gotSummary.ShortTerm.ConfidencePercent())

	// Support and resistance became auxiliary price lines.
	assert.Equal(t, 2, h.activeChart().PriceLineCount())
}

func TestSessionContentSurvivesMalformedLine(t *testing.T) {
	h := newHarness(t)
	h.streamLines["VNM"] = []string{
		`this is not valid json`,
		`{"type":"content","chunk":"Khối lượng tăng mạnh."}`,
		`{"type":"error","message":"indicator service timeout"}`,
	}

	s := h.newSession(Callbacks{})
	require.NoError(t, s.Start(context.Background(), "VNM"))

	assert.Equal(t, StateCompleted, s.State())
	text := s.Text()
	assert.Contains(t, text, "Khối lượng tăng mạnh.")
	assert.Contains(t, text, "unreadable fragment")
	assert.Contains(t, text, "indicator service timeout")

	// Fragments keep their arrival order: the decode marker precedes the
	// content that followed it, and content events never wipe it.
	assert.Less(t,
		strings.Index(text, "unreadable fragment"),
		strings.Index(text, "Khối lượng tăng mạnh."))
}

func TestSessionContentAccumulatesInOrder(t *testing.T) {
	h := newHarness(t)
	h.streamLines["VNM"] = []string{
		`{"type":"content","chunk":"Phân tích: "}`,
		`{"type":"content","chunk":"xu hướng tăng."}`,
	}

	s := h.newSession(Callbacks{})
	require.NoError(t, s.Start(context.Background(), "VNM"))

	assert.Equal(t, "Phân tích: xu hướng tăng.", s.Text())
}

func TestSessionNoDataPlaceholder(t *testing.T) {
	h := newHarness(t)
	h.streamLines["VNM"] = nil

	s := h.newSession(Callbacks{})
	require.NoError(t, s.Start(context.Background(), "VNM"))

	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, noDataPlaceholder, s.Text())
}

func TestSessionRecommendationBadge(t *testing.T) {
	h := newHarness(t)
	h.streamLines["VNM"] = []string{
		`{"type":"recommendation","label":"MUA","color":"success"}`,
		`{"type":"recommendation","label":"???","color":"sparkly"}`,
	}

	var labels []string
	var styles []models.BadgeStyle
	s := h.newSession(Callbacks{
		OnRecommendation: func(label string, style models.BadgeStyle) {
			labels = append(labels, label)
			styles = append(styles, style)
		},
	})
	require.NoError(t, s.Start(context.Background(), "VNM"))

	assert.Equal(t, []string{"MUA", "???"}, labels)
	assert.Equal(t, []models.BadgeStyle{models.BadgeSuccess, models.BadgeNeutral}, styles)
}

func TestSessionReentryGuard(t *testing.T) {
	h := newHarness(t)
	h.streamLines["VNM"] = []string{dataLine}

	s := h.newSession(Callbacks{})
	require.NoError(t, s.Start(context.Background(), "VNM"))
	require.NoError(t, s.Start(context.Background(), "VNM"))

	assert.Equal(t, 1, h.streamCalls, "same-symbol re-trigger must be suppressed")
}

func TestSessionTransportFailureLiftsGuard(t *testing.T) {
	h := newHarness(t)
	h.streamStatus = http.StatusBadGateway

	s := h.newSession(Callbacks{})
	err := s.Start(context.Background(), "VNM")
	require.Error(t, err)
	assert.Equal(t, StateFailed, s.State())

	// The core never retries, but a caller-driven retry is not suppressed.
	h.streamStatus = http.StatusOK
	h.streamLines["VNM"] = []string{dataLine}
	require.NoError(t, s.Start(context.Background(), "VNM"))
	assert.Equal(t, 2, h.streamCalls)
	assert.Equal(t, StateCompleted, s.State())
}

func TestSessionIndicatorToggle(t *testing.T) {
	h := newHarness(t)
	h.streamLines["VNM"] = []string{dataLine}

	s := h.newSession(Callbacks{})
	require.NoError(t, s.Start(context.Background(), "VNM"))

	ctx := context.Background()
	require.NoError(t, s.EnableIndicator(ctx, "rsi"))
	assert.True(t, s.registry.Has("rsi"))
	assert.Equal(t, 1, h.activeChart().SeriesCount())

	// Enabling again refetches nothing and duplicates nothing.
	require.NoError(t, s.EnableIndicator(ctx, "rsi"))
	assert.Equal(t, 1, h.indicatorCalls)
	assert.Equal(t, 1, h.activeChart().SeriesCount())

	s.DisableIndicator("rsi")
	assert.False(t, s.registry.Has("rsi"))
	assert.Equal(t, 0, h.activeChart().SeriesCount())
	for _, ts := range []int64{1700000000, 1700000060} {
		assert.NotContains(t, s.index.Lookup(ts), "rsi")
	}

	// Removing an indicator that was never added is a no-op.
	assert.NotPanics(t, func() { s.DisableIndicator("nonexistent") })
}

func TestSessionTooltipComposition(t *testing.T) {
	h := newHarness(t)
	h.streamLines["VNM"] = []string{dataLine}

	var tooltip []string
	s := h.newSession(Callbacks{
		OnTooltip: func(lines []string) { tooltip = lines },
	})
	require.NoError(t, s.Start(context.Background(), "VNM"))
	require.NoError(t, s.EnableIndicator(context.Background(), "rsi"))

	h.activeChart().MoveCrosshair(1700000060)
	require.Len(t, tooltip, 1)
	assert.Equal(t, "RSI 14: 72.4 (overbought)", tooltip[0])

	h.activeChart().MoveCrosshair(42)
	assert.Empty(t, tooltip)
}

func TestSessionStaleFetchDiscarded(t *testing.T) {
	h := newHarness(t)
	h.streamLines["AAA"] = []string{dataLine}
	h.streamLines["BBB"] = []string{dataLine}

	s := h.newSession(Callbacks{})
	require.NoError(t, s.Start(context.Background(), "AAA"))

	// An add begins under AAA's generation...
	fetch := s.indicatorFetch(s.generation)

	// ...then the symbol changes before the fetch resolves.
	require.NoError(t, s.Start(context.Background(), "BBB"))

	require.NoError(t, s.registry.AddIndicator(context.Background(), "rsi", fetch))
	assert.False(t, s.registry.Has("rsi"), "stale add must discard its result")
	assert.Equal(t, 0, h.activeChart().SeriesCount())
	assert.NotContains(t, s.index.Lookup(1700000000), "rsi")
}

func TestSessionTimeframeSwitchReapplies(t *testing.T) {
	h := newHarness(t)
	h.streamLines["VNM"] = []string{dataLine}

	var rendered []models.Timeframe
	s := h.newSession(Callbacks{
		OnTimeframeRender: func(tf models.Timeframe) { rendered = append(rendered, tf) },
	})
	require.NoError(t, s.Start(context.Background(), "VNM"))
	require.NoError(t, s.EnableIndicator(context.Background(), "rsi"))

	chartsBefore := len(h.charts)
	s.SetTimeframe(context.Background(), models.TimeframeLong)

	assert.Equal(t, models.TimeframeLong, s.Timeframe())
	assert.Equal(t, chartsBefore+1, len(h.charts), "timeframe switch forces a full re-render")
	assert.True(t, s.registry.Has("rsi"), "enabled indicators are re-applied")
	assert.Equal(t, 1, h.activeChart().SeriesCount())
	assert.Equal(t, []models.Timeframe{models.TimeframeShort, models.TimeframeLong}, rendered)

	// Switching to the already-active horizon is a no-op.
	s.SetTimeframe(context.Background(), models.TimeframeLong)
	assert.Equal(t, chartsBefore+1, len(h.charts))
}

func TestSessionNewSymbolTearsDownOldState(t *testing.T) {
	h := newHarness(t)
	h.streamLines["AAA"] = []string{
		dataLine,
		`{"type":"content","chunk":"old text"}`,
	}
	h.streamLines["BBB"] = []string{dataLine}

	s := h.newSession(Callbacks{})
	require.NoError(t, s.Start(context.Background(), "AAA"))
	oldChart := h.activeChart()

	require.NoError(t, s.Start(context.Background(), "BBB"))

	assert.Equal(t, "BBB", s.Symbol())
	assert.NotContains(t, s.Text(), "old text")
	assert.NotSame(t, oldChart, h.activeChart())
}

func TestSessionTeardownReturnsToIdle(t *testing.T) {
	h := newHarness(t)
	h.streamLines["VNM"] = []string{dataLine}

	s := h.newSession(Callbacks{})
	require.NoError(t, s.Start(context.Background(), "VNM"))
	require.NotNil(t, s.Chart())

	s.Teardown()

	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.Symbol())
	assert.Nil(t, s.Chart())

	// Teardown also lifts the re-fetch guard.
	require.NoError(t, s.Start(context.Background(), "VNM"))
	assert.Equal(t, 2, h.streamCalls)
}

func TestSessionEmptySymbolRejected(t *testing.T) {
	h := newHarness(t)
	s := h.newSession(Callbacks{})
	err := s.Start(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "symbol"))
}
