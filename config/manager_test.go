package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManagerCreatesAndUpdates(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	path := filepath.Join(dir, "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	cfg := mgr.Get()
	cfg.APIBaseURL = "http://analysis.internal:9090"
	cfg.Interval = "1h"

	data, _ := json.Marshal(cfg)
	if err := mgr.UpdateFromJSON(string(data)); err != nil {
		t.Fatalf("UpdateFromJSON: %v", err)
	}

	updated := mgr.Get()
	if updated.APIBaseURL != cfg.APIBaseURL {
		t.Fatalf("expected base URL %s, got %s", cfg.APIBaseURL, updated.APIBaseURL)
	}
	if updated.Interval != "1h" {
		t.Fatalf("expected interval 1h, got %s", updated.Interval)
	}
}

func TestManagerRejectsInvalidUpdate(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg := mgr.Get()
	cfg.Interval = "7m"
	if err := mgr.Update(cfg); err == nil {
		t.Fatal("expected validation error for unsupported interval")
	}
}

func TestManagerWatchReloads(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir), WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 1)
	if err := mgr.Watch(ctx, func(cfg Config) {
		reloaded <- cfg
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	cfg := mgr.Get()
	cfg.APIBaseURL = "http://changed.example.com"
	data, _ := json.MarshalIndent(cfg, "", "  ")
	if err := os.WriteFile(mgr.Path(), data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	select {
	case got := <-reloaded:
		if got.APIBaseURL != "http://changed.example.com" {
			t.Fatalf("unexpected reloaded base URL %s", got.APIBaseURL)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("config reload not observed")
	}
}
