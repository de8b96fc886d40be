package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nhatphongdo/stock-agent-sub001/config"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "stock-agent",
		Short: "Stock Agent - Streaming Stock Analysis Dashboard",
		Long: `Stock Agent is a terminal dashboard for the streaming analysis backend.
It renders the live analysis text, recommendation badge, price chart with
indicator overlays, and the support/resistance summary for a stock symbol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager(configPath)
			if err != nil {
				return err
			}
			return runInteractiveMode(cmd.Context(), mgr)
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(&configPath))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(&configPath))

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			logrus.SetLevel(logrus.DebugLevel)
		}
	}

	return rootCmd
}

func newManager(configPath string) (*config.Manager, error) {
	var opts []config.ManagerOption
	if configPath != "" {
		opts = append(opts, config.WithConfigPath(configPath))
	}
	mgr, err := config.NewManager(opts...)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return mgr, nil
}

// newAnalyzeCmd creates the analyze command
func newAnalyzeCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [SYMBOL]",
		Short: "Run a one-shot analysis for a stock symbol",
		Long: `Stream one analysis run for a stock symbol and print the dashboard once.
Example: stock-agent analyze VNM --indicators=sma_20,rsi --timeframe=long_term`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager(*configPath)
			if err != nil {
				return err
			}

			indicators, _ := cmd.Flags().GetStringSlice("indicators")
			timeframe, _ := cmd.Flags().GetString("timeframe")
			return runAnalyzeCommand(cmd.Context(), mgr, args[0], indicators, timeframe)
		},
	}

	cmd.Flags().StringSlice("indicators", nil, "Indicator keys to overlay (comma separated)")
	cmd.Flags().String("timeframe", "short_term", "Analysis horizon: short_term or long_term")

	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Stock Agent v1.0.0")
			fmt.Println("Streaming Stock Analysis Dashboard")
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(configPath *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Manage the dashboard configuration file",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager(*configPath)
			if err != nil {
				return err
			}
			showConfig(mgr)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager(*configPath)
			if err != nil {
				return err
			}
			cfg := mgr.Get()
			if err := cfg.Validate(); err != nil {
				DisplayError(err)
				return err
			}
			DisplaySuccess("Configuration is valid")
			return nil
		},
	})

	return configCmd
}

// showConfig displays the current configuration
func showConfig(mgr *config.Manager) {
	cfg := mgr.Get()

	fmt.Println("📋 Current Stock Agent Configuration:")
	fmt.Println("═══════════════════════════════════════")
	fmt.Printf("Config File:          %s\n", mgr.Path())
	fmt.Printf("API Base URL:         %s\n", cfg.APIBaseURL)
	if cfg.APIKey != "" {
		fmt.Println("API Key:              ✅ Configured")
	} else {
		fmt.Println("API Key:              ❌ Not configured")
	}
	fmt.Printf("Company Page URL:     %s\n", cfg.CompanyPageURL)
	fmt.Println()
	fmt.Printf("Interval:             %s\n", cfg.Interval)
	fmt.Printf("History Days:         %d\n", cfg.HistoryDays)
	fmt.Printf("Chart Width:          %d\n", cfg.ChartWidth)
	fmt.Printf("Request Timeout:      %ds\n", cfg.RequestTimeout)
	fmt.Printf("Default Indicators:   %s\n", strings.Join(cfg.DefaultIndicators, ", "))
	fmt.Printf("Debug Mode:           %t\n", cfg.Debug)
}

// runAnalyzeCommand executes one non-interactive analysis run
func runAnalyzeCommand(ctx context.Context, mgr *config.Manager, symbol string, indicators []string, timeframe string) error {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	dash := newDashboard(mgr)
	defer dash.Close()

	fmt.Printf("🔄 Starting analysis for %s...\n", symbol)
	started := time.Now()

	if err := dash.Analyze(ctx, symbol, indicators, timeframe); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	dash.Redraw()
	DisplaySuccess(fmt.Sprintf("Analysis completed in %s", time.Since(started).Round(time.Second)))
	return nil
}
