// ABOUTME: Tests for environment-based configuration
// ABOUTME: Covers defaults, overrides and validation failures
package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.BackendURL != "http://localhost:8000" {
		t.Errorf("unexpected default backend URL: %q", cfg.BackendURL)
	}
	if cfg.PlaybackRate != 1.0 {
		t.Errorf("unexpected default playback rate: %f", cfg.PlaybackRate)
	}
	if cfg.Headless {
		t.Error("expected headless off by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://backend.test:9000")
	t.Setenv("MANAGER_NAME", "Anna")
	t.Setenv("PLAYBACK_RATE", "1.5")
	t.Setenv("HEADLESS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.BackendURL != "http://backend.test:9000" {
		t.Errorf("unexpected backend URL: %q", cfg.BackendURL)
	}
	if cfg.ManagerName != "Anna" {
		t.Errorf("unexpected manager name: %q", cfg.ManagerName)
	}
	if cfg.PlaybackRate != 1.5 {
		t.Errorf("unexpected playback rate: %f", cfg.PlaybackRate)
	}
	if !cfg.Headless {
		t.Error("expected headless on")
	}
}

func TestLoad_InvalidPlaybackRate(t *testing.T) {
	t.Setenv("PLAYBACK_RATE", "fast")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric rate")
	}

	t.Setenv("PLAYBACK_RATE", "0.5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for rate below 1.0")
	}
}

func TestLoad_InvalidHeadless(t *testing.T) {
	t.Setenv("HEADLESS", "maybe")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid headless flag")
	}
}
