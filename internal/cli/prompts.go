package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/nhatphongdo/stock-agent-sub001/internal/catalog"
	"github.com/nhatphongdo/stock-agent-sub001/internal/models"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// PromptForSymbol prompts the user to enter a stock symbol
func PromptForSymbol() (string, error) {
	var symbol string
	prompt := &survey.Input{
		Message: "Enter the stock symbol (e.g., VNM, FPT, HPG):",
		Help:    "Please enter a valid stock symbol for analysis",
	}

	err := survey.AskOne(prompt, &symbol, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(strings.ToUpper(val.(string)))
		if len(str) == 0 {
			return fmt.Errorf("symbol cannot be empty")
		}
		if len(str) > 10 {
			return fmt.Errorf("symbol too long (max 10 characters)")
		}
		if !symbolPattern.MatchString(str) {
			return fmt.Errorf("invalid symbol format (use letters, numbers, dots, and hyphens only)")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(strings.ToUpper(symbol)), nil
}

// PromptForIndicators prompts the user to toggle indicator overlays. The
// returned keys are the full desired set; the caller diffs against the
// currently enabled set.
func PromptForIndicators(cat *catalog.Catalog, enabled []string) ([]string, error) {
	keys := cat.OrderedKeys()
	options := make([]string, 0, len(keys))
	byLabel := make(map[string]string, len(keys))
	for _, key := range keys {
		ind, _ := cat.Get(key)
		options = append(options, ind.Label)
		byLabel[ind.Label] = key
	}

	enabledSet := make(map[string]bool, len(enabled))
	for _, key := range enabled {
		enabledSet[key] = true
	}
	var defaults []string
	for _, key := range keys {
		if enabledSet[key] {
			ind, _ := cat.Get(key)
			defaults = append(defaults, ind.Label)
		}
	}

	var selected []string
	prompt := &survey.MultiSelect{
		Message: "Toggle indicator overlays:",
		Options: options,
		Default: defaults,
		Help:    "Use space to toggle, enter to confirm. Deselecting removes the overlay.",
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return nil, err
	}

	result := make([]string, 0, len(selected))
	for _, label := range selected {
		result = append(result, byLabel[label])
	}
	return result, nil
}

// PromptForTimeframe prompts the user to select the analysis horizon
func PromptForTimeframe(current models.Timeframe) (models.Timeframe, error) {
	const (
		shortOption = "Short term - intraday to weeks"
		longOption  = "Long term - months and beyond"
	)

	def := shortOption
	if current == models.TimeframeLong {
		def = longOption
	}

	var selected string
	prompt := &survey.Select{
		Message: "Select analysis horizon:",
		Options: []string{shortOption, longOption},
		Default: def,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return current, err
	}

	if selected == longOption {
		return models.TimeframeLong, nil
	}
	return models.TimeframeShort, nil
}

// Dashboard actions offered between analysis runs.
const (
	ActionIndicators = "Toggle indicators"
	ActionTimeframe  = "Switch timeframe"
	ActionNewSymbol  = "Analyze another symbol"
	ActionRedraw     = "Redraw dashboard"
	ActionExit       = "Exit"
)

// PromptForAction prompts the user for the next dashboard action
func PromptForAction() (string, error) {
	var choice string
	prompt := &survey.Select{
		Message: "What would you like to do next?",
		Options: []string{
			ActionIndicators,
			ActionTimeframe,
			ActionNewSymbol,
			ActionRedraw,
			ActionExit,
		},
		Default: ActionIndicators,
	}
	err := survey.AskOne(prompt, &choice)
	return choice, err
}
