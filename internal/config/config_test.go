package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("api base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30 {
		t.Errorf("api timeout = %d", cfg.API.Timeout)
	}
	if cfg.Status.Mode != "sse" {
		t.Errorf("status mode = %q", cfg.Status.Mode)
	}
	if cfg.Status.PollInterval != 2 {
		t.Errorf("poll interval = %d", cfg.Status.PollInterval)
	}
	if cfg.Gateway.Port != "8090" {
		t.Errorf("gateway port = %q", cfg.Gateway.Port)
	}
	if cfg.Metrics.Port != "9099" {
		t.Errorf("metrics port = %q", cfg.Metrics.Port)
	}
}
