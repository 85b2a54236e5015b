package client

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"ECHOGUARD_URL", "POLL_INTERVAL_MS", "REQUEST_TIMEOUT", "SEARCH_DEBOUNCE_MS", "ECHOGUARD_PUSH"} {
		os.Unsetenv(key)
	}

	cfg := LoadConfig()

	if cfg.BaseURL != "http://127.0.0.1:5000" {
		t.Errorf("unexpected base url %s", cfg.BaseURL)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("expected 5s poll interval, got %v", cfg.PollInterval)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.SearchDebounce != 250*time.Millisecond {
		t.Errorf("expected 250ms debounce, got %v", cfg.SearchDebounce)
	}
	if cfg.Push {
		t.Error("push should default to off")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	os.Setenv("ECHOGUARD_URL", "http://guard:8080")
	os.Setenv("POLL_INTERVAL_MS", "1500")
	os.Setenv("SEARCH_DEBOUNCE_MS", "invalid")
	os.Setenv("ECHOGUARD_PUSH", "true")
	defer func() {
		os.Unsetenv("ECHOGUARD_URL")
		os.Unsetenv("POLL_INTERVAL_MS")
		os.Unsetenv("SEARCH_DEBOUNCE_MS")
		os.Unsetenv("ECHOGUARD_PUSH")
	}()

	cfg := LoadConfig()

	if cfg.BaseURL != "http://guard:8080" {
		t.Errorf("unexpected base url %s", cfg.BaseURL)
	}
	if cfg.PollInterval != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %v", cfg.PollInterval)
	}
	if cfg.SearchDebounce != 250*time.Millisecond {
		t.Errorf("invalid value should fall back, got %v", cfg.SearchDebounce)
	}
	if !cfg.Push {
		t.Error("expected push enabled")
	}
}
