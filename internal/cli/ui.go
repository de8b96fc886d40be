package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhatphongdo/stock-agent-sub001/internal/models"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2)

	analysisStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#F59E0B")).
			Padding(1, 2).
			Width(80)

	summaryStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#10B981")).
			Padding(1, 2).
			Width(80)

	tooltipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			PaddingLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))
)

// badgeStyles maps the recommendation palette to terminal colors.
var badgeStyles = map[models.BadgeStyle]lipgloss.Style{
	models.BadgeSuccess: lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#10B981")).Padding(0, 1),
	models.BadgeDanger: lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#EF4444")).Padding(0, 1),
	models.BadgeWarning: lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#1F2937")).Background(lipgloss.Color("#F59E0B")).Padding(0, 1),
	models.BadgeInfo: lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3B82F6")).Padding(0, 1),
	models.BadgeNeutral: lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#6B7280")).Padding(0, 1),
}

// RenderBadge renders the recommendation badge.
func RenderBadge(label string, style models.BadgeStyle) string {
	s, ok := badgeStyles[style]
	if !ok {
		s = badgeStyles[models.BadgeNeutral]
	}
	return s.Render(label)
}

// DisplayWelcomeBanner shows the welcome banner
func DisplayWelcomeBanner() {
	banner := `
███████╗████████╗ ██████╗  ██████╗██╗  ██╗     █████╗  ██████╗ ███████╗███╗   ██╗████████╗
██╔════╝╚══██╔══╝██╔═══██╗██╔════╝██║ ██╔╝    ██╔══██╗██╔════╝ ██╔════╝████╗  ██║╚══██╔══╝
███████╗   ██║   ██║   ██║██║     █████╔╝     ███████║██║  ███╗█████╗  ██╔██╗ ██║   ██║
╚════██║   ██║   ██║   ██║██║     ██╔═██╗     ██╔══██║██║   ██║██╔══╝  ██║╚██╗██║   ██║
███████║   ██║   ╚██████╔╝╚██████╗██║  ██╗    ██║  ██║╚██████╔╝███████╗██║ ╚████║   ██║
╚══════╝   ╚═╝    ╚═════╝  ╚═════╝╚═╝  ╚═╝    ╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚═╝  ╚═══╝   ╚═╝
`

	welcomeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7C3AED")).
		Bold(true)

	taglineStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3B82F6")).
		Italic(true).
		MarginBottom(1)

	fmt.Print(welcomeStyle.Render(banner))
	fmt.Println()
	fmt.Println(taglineStyle.Render("  📈 Streaming stock analysis with live indicator overlays"))
}

// ClearScreen clears the terminal screen
func ClearScreen() {
	fmt.Print("\033[2J\033[H")
}

// DisplayHeader shows the symbol header with the recommendation badge.
func DisplayHeader(symbol, company, badge string, tf models.Timeframe) {
	horizon := "Short Term"
	if tf == models.TimeframeLong {
		horizon = "Long Term"
	}
	header := fmt.Sprintf("📊 %s", symbol)
	if company != "" && company != symbol {
		header += fmt.Sprintf(" · %s", company)
	}
	header += fmt.Sprintf(" | 🎯 %s", horizon)
	if badge != "" {
		header += " | " + badge
	}
	fmt.Println(headerStyle.Render(header))
}

// DisplayAnalysisText shows the accumulated analysis text panel.
func DisplayAnalysisText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	fmt.Println(analysisStyle.Render("💬 Analysis\n\n" + text))
}

// DisplaySummaryPanel shows the trend outlooks and key levels.
func DisplaySummaryPanel(summary *models.AnalysisSummary) {
	if summary == nil {
		return
	}

	var content strings.Builder
	content.WriteString("🧭 Outlook\n\n")

	writeOutlook := func(name string, outlook *models.TrendOutlook) {
		if outlook == nil {
			return
		}
		var icon string
		switch outlook.Direction() {
		case models.TrendBullish:
			icon = "📈"
		case models.TrendBearish:
			icon = "📉"
		default:
			icon = "➡️"
		}
		content.WriteString(fmt.Sprintf("%s %-11s %s · signal %s · confidence %d%%\n",
			icon, name+":", outlook.Trend, outlook.Signal, outlook.ConfidencePercent()))
	}
	writeOutlook("Short term", summary.ShortTerm)
	writeOutlook("Long term", summary.LongTerm)

	if len(summary.Support) > 0 {
		content.WriteString(fmt.Sprintf("\n🟢 Support:    %s", joinLevels(summary.Support)))
	}
	if len(summary.Resistance) > 0 {
		content.WriteString(fmt.Sprintf("\n🔴 Resistance: %s", joinLevels(summary.Resistance)))
	}

	fmt.Println(summaryStyle.Render(content.String()))
}

// DisplayGauges shows the per-timeframe rating gauges.
func DisplayGauges(block *models.TimeframeBlock) {
	if block == nil {
		return
	}
	line := fmt.Sprintf("⚖️  Oscillators %s | Moving Averages %s | Summary %s",
		formatGauge(block.Gauges.Oscillators),
		formatGauge(block.Gauges.MovingAverages),
		formatGauge(block.Gauges.Summary))
	fmt.Println(infoStyle.Render(line))
}

// DisplayTooltip shows the crosshair tooltip lines.
func DisplayTooltip(lines []string) {
	for _, line := range lines {
		fmt.Println(tooltipStyle.Render(line))
	}
}

// DisplayError shows an error message
func DisplayError(err error) {
	fmt.Println(errorStyle.Render(fmt.Sprintf("❌ Error: %s", err.Error())))
}

// DisplayInfo shows an info message
func DisplayInfo(message string) {
	fmt.Println(infoStyle.Render("ℹ️  " + message))
}

// DisplaySuccess shows a success message
func DisplaySuccess(message string) {
	fmt.Println(successStyle.Render("✅ " + message))
}

func formatGauge(g models.Gauge) string {
	signal := g.Signal
	if signal == "" {
		signal = "n/a"
	}
	return fmt.Sprintf("%s (%d↑ %d↓ %d·)", signal, g.Buy, g.Sell, g.Neutral)
}

func joinLevels(levels []float64) string {
	parts := make([]string, 0, len(levels))
	for _, level := range levels {
		parts = append(parts, fmt.Sprintf("%.2f", level))
	}
	return strings.Join(parts, ", ")
}
