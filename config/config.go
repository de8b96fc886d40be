package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the dashboard settings. Values come from the JSON config
// file, overridden by environment variables (a .env file is honored).
type Config struct {
	APIBaseURL     string `json:"api_base_url"`
	APIKey         string `json:"api_key"`
	CompanyPageURL string `json:"company_page_url"`

	Interval       string `json:"interval"`
	HistoryDays    int    `json:"history_days"`
	ChartWidth     int    `json:"chart_width"`
	RequestTimeout int    `json:"request_timeout_seconds"`

	DefaultIndicators []string `json:"default_indicators"`

	Debug bool `json:"debug"`
}

var validIntervals = map[string]bool{
	"1m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "4h": true, "1d": true, "1w": true,
}

// DefaultConfig returns the built-in defaults with env overrides applied.
func DefaultConfig() *Config {
	cfg := &Config{
		APIBaseURL:        "http://localhost:8080",
		Interval:          "1d",
		HistoryDays:       180,
		ChartWidth:        72,
		RequestTimeout:    30,
		DefaultIndicators: []string{"sma_20", "rsi"},
	}

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()
	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("STOCK_AGENT_API_URL"); val != "" {
		c.APIBaseURL = val
	}
	if val := os.Getenv("STOCK_AGENT_API_KEY"); val != "" {
		c.APIKey = val
	}
	if val := os.Getenv("STOCK_AGENT_COMPANY_PAGE_URL"); val != "" {
		c.CompanyPageURL = val
	}
	if val := os.Getenv("STOCK_AGENT_INTERVAL"); val != "" {
		c.Interval = val
	}
	if val := os.Getenv("STOCK_AGENT_HISTORY_DAYS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.HistoryDays = v
		}
	}
	if val := os.Getenv("STOCK_AGENT_CHART_WIDTH"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.ChartWidth = v
		}
	}
	if val := os.Getenv("STOCK_AGENT_TIMEOUT"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.RequestTimeout = v
		}
	}
	if val := os.Getenv("STOCK_AGENT_INDICATORS"); val != "" {
		var keys []string
		for _, k := range strings.Split(val, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		c.DefaultIndicators = keys
	}
	if val := os.Getenv("STOCK_AGENT_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
}

// Validate rejects configurations the session cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("api_base_url must not be empty")
	}
	if !validIntervals[c.Interval] {
		return fmt.Errorf("interval %q is not supported", c.Interval)
	}
	if c.HistoryDays <= 0 {
		return fmt.Errorf("history_days must be positive, got %d", c.HistoryDays)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeout)
	}
	return nil
}
