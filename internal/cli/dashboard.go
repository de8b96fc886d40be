package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/sirupsen/logrus"

	"github.com/nhatphongdo/stock-agent-sub001/config"
	"github.com/nhatphongdo/stock-agent-sub001/internal/chart"
	"github.com/nhatphongdo/stock-agent-sub001/internal/client"
	"github.com/nhatphongdo/stock-agent-sub001/internal/models"
	"github.com/nhatphongdo/stock-agent-sub001/internal/session"
)

var log = logrus.WithField("component", "cli")

// dashboard wires the config manager, backend client and analysis session
// together and owns the terminal rendering loop.
type dashboard struct {
	manager  *config.Manager
	cfg      config.Config
	client   *client.Client
	resolver *client.CompanyResolver
	session  *session.Session

	badge   string
	tooltip []string

	// While a prompt is open, redraws are deferred and flushed once the
	// prompt closes so the chart does not repaint under the selection UI.
	promptOpen    bool
	redrawPending bool

	cancelWatch context.CancelFunc
}

func newDashboard(mgr *config.Manager) *dashboard {
	d := &dashboard{
		manager: mgr,
		cfg:     mgr.Get(),
	}
	d.client = client.New(clientOptions(d.cfg))
	d.resolver = client.NewCompanyResolver(d.cfg.CompanyPageURL)

	// The factory reads d.cfg at call time so a reloaded chart width
	// applies to the next render.
	chartFactory := func() chart.Chart {
		return chart.NewTerminalChart(d.cfg.ChartWidth)
	}
	d.session = session.New(&d.cfg, d.client, d.resolver, chartFactory, session.Callbacks{
		OnRecommendation: func(label string, style models.BadgeStyle) {
			d.badge = RenderBadge(label, style)
		},
		OnTimeframeRender: func(models.Timeframe) {
			d.tooltip = nil
			d.requestRedraw()
		},
		OnSummary: func(models.AnalysisSummary) {
			d.requestRedraw()
		},
		OnTooltip: func(lines []string) {
			d.tooltip = lines
		},
	})

	watchCtx, cancel := context.WithCancel(context.Background())
	d.cancelWatch = cancel
	if err := mgr.Watch(watchCtx, func(cfg config.Config) {
		log.WithField("path", mgr.Path()).Info("configuration reloaded, applied on the next analysis")
	}); err != nil {
		log.WithError(err).Warn("config watch unavailable")
	}

	return d
}

func clientOptions(cfg config.Config) client.Options {
	return client.Options{
		BaseURL: cfg.APIBaseURL,
		APIKey:  cfg.APIKey,
		Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
	}
}

// refreshConfig picks up a reloaded config file before a new session starts:
// the client is repointed at the current base URL and credentials, and the
// session reads interval, history window and chart width through the shared
// snapshot.
func (d *dashboard) refreshConfig() {
	cfg := d.manager.Get()
	if reflect.DeepEqual(cfg, d.cfg) {
		return
	}
	d.cfg = cfg
	d.client.Configure(clientOptions(cfg))
	d.resolver.SetScrapeURL(cfg.CompanyPageURL)
	log.Info("applying reloaded configuration")
}

// Close releases the dashboard's resources.
func (d *dashboard) Close() {
	d.cancelWatch()
	d.session.Teardown()
}

// requestRedraw repaints immediately unless a prompt is open, in which case
// the repaint is flushed when the prompt closes.
func (d *dashboard) requestRedraw() {
	if d.promptOpen {
		d.redrawPending = true
		return
	}
	d.Redraw()
}

// withPrompt runs fn with redraws deferred, then flushes any repaint the
// session requested while the prompt was open.
func (d *dashboard) withPrompt(fn func() error) error {
	d.promptOpen = true
	err := fn()
	d.promptOpen = false
	if d.redrawPending {
		d.redrawPending = false
		d.Redraw()
	}
	return err
}

// Redraw paints the whole dashboard from the session state.
func (d *dashboard) Redraw() {
	if os.Getenv("STOCK_AGENT_NO_CLEAR") == "" {
		ClearScreen()
	}

	s := d.session
	if s.Symbol() == "" {
		return
	}

	DisplayHeader(s.Symbol(), s.CompanyName(), d.badge, s.Timeframe())

	if tc, ok := s.Chart().(*chart.TerminalChart); ok && tc != nil {
		if frame := tc.Render(); frame != "" {
			fmt.Println(frame)
		}
	}
	DisplayTooltip(d.tooltip)
	DisplayGauges(s.Block(s.Timeframe()))
	DisplaySummaryPanel(s.Summary())
	DisplayAnalysisText(s.Text())
}

// Analyze runs one full analysis for symbol and applies the requested
// indicator overlays and horizon.
func (d *dashboard) Analyze(ctx context.Context, symbol string, indicators []string, timeframe string) error {
	d.refreshConfig()
	d.badge = ""
	d.tooltip = nil

	if err := d.session.Start(ctx, symbol); err != nil {
		return err
	}

	if models.Timeframe(timeframe) == models.TimeframeLong {
		d.session.SetTimeframe(ctx, models.TimeframeLong)
	}

	if len(indicators) == 0 {
		indicators = d.cfg.DefaultIndicators
	}
	for _, key := range indicators {
		if err := d.session.EnableIndicator(ctx, key); err != nil {
			log.WithError(err).WithField("indicator", key).Warn("enable indicator failed")
		}
	}
	return nil
}

// applyIndicators diffs the desired overlay set against the enabled one.
func (d *dashboard) applyIndicators(ctx context.Context, desired []string) {
	desiredSet := make(map[string]bool, len(desired))
	for _, key := range desired {
		desiredSet[key] = true
	}

	for _, key := range d.session.EnabledIndicators() {
		if !desiredSet[key] {
			d.session.DisableIndicator(key)
		}
	}
	for _, key := range desired {
		if err := d.session.EnableIndicator(ctx, key); err != nil {
			log.WithError(err).WithField("indicator", key).Warn("enable indicator failed")
		}
	}
}

// runInteractiveMode starts the interactive dashboard loop
func runInteractiveMode(ctx context.Context, mgr *config.Manager) error {
	DisplayWelcomeBanner()
	fmt.Println()

	dash := newDashboard(mgr)
	defer dash.Close()

	symbol, err := PromptForSymbol()
	if err != nil {
		return promptResult(err)
	}

	if err := dash.Analyze(ctx, symbol, nil, ""); err != nil {
		DisplayError(err)
	}
	dash.Redraw()

	for {
		var action string
		err := dash.withPrompt(func() error {
			var err error
			action, err = PromptForAction()
			return err
		})
		if err != nil {
			return promptResult(err)
		}

		switch action {
		case ActionIndicators:
			err := dash.withPrompt(func() error {
				desired, err := PromptForIndicators(dash.client.FetchCatalog(ctx), dash.session.EnabledIndicators())
				if err != nil {
					return err
				}
				dash.applyIndicators(ctx, desired)
				return nil
			})
			if err != nil {
				return promptResult(err)
			}
			dash.Redraw()

		case ActionTimeframe:
			err := dash.withPrompt(func() error {
				tf, err := PromptForTimeframe(dash.session.Timeframe())
				if err != nil {
					return err
				}
				dash.session.SetTimeframe(ctx, tf)
				return nil
			})
			if err != nil {
				return promptResult(err)
			}
			dash.Redraw()

		case ActionNewSymbol:
			err := dash.withPrompt(func() error {
				next, err := PromptForSymbol()
				if err != nil {
					return err
				}
				if err := dash.Analyze(ctx, next, dash.session.EnabledIndicators(), string(dash.session.Timeframe())); err != nil {
					DisplayError(err)
				}
				return nil
			})
			if err != nil {
				return promptResult(err)
			}
			dash.Redraw()

		case ActionRedraw:
			dash.Redraw()

		case ActionExit:
			fmt.Println("👋 Goodbye!")
			return nil
		}
	}
}

// promptResult maps a Ctrl-C interrupt onto a clean exit.
func promptResult(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		fmt.Println(strings.Repeat("-", 20))
		fmt.Println("👋 Goodbye!")
		return nil
	}
	return err
}
