package store

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	c := Default()
	c.Universe = []string{"INFY"}
	c.Providers.List = []ProviderConfig{{Name: "kite", Priority: 1, Exchange: "NSE"}}
	return c
}

func TestValidateDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty universe", func(c *Config) { c.Universe = nil }},
		{"no providers", func(c *Config) { c.Providers.List = nil }},
		{"unknown provider", func(c *Config) { c.Providers.List[0].Name = "bloomberg" }},
		{"zero timeout", func(c *Config) { c.Providers.TimeoutSeconds = 0 }},
		{"zero error threshold", func(c *Config) { c.Providers.Cooldown.ErrorThreshold = 0 }},
		{"freshness not increasing", func(c *Config) { c.Freshness.FreshSeconds = c.Freshness.StaleSeconds }},
		{"weights not summing to one", func(c *Config) { c.Factors.Weights["technical"] = 0.5 }},
		{"negative weight", func(c *Config) { c.Factors.Weights["news"] = -0.1 }},
		{"stale penalty out of range", func(c *Config) { c.Factors.StaleConfidencePenalty = 1.5 }},
		{"max position above one", func(c *Config) { c.Sizing.MaxPosition = 1.2 }},
		{"risk blend off", func(c *Config) { c.Risk.VolatilityWeight = 0.9 }},
	}
	for _, tc := range cases {
		c := validConfig()
		tc.mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
poll_seconds: 10
universe: [INFY, TCS]
providers:
  list:
    - name: binance
      priority: 1
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PollSeconds != 10 {
		t.Errorf("poll_seconds = %d, want overlay value 10", cfg.PollSeconds)
	}
	if len(cfg.Universe) != 2 {
		t.Errorf("universe = %v", cfg.Universe)
	}
	// Untouched sections keep their defaults.
	if cfg.Providers.Cooldown.ErrorThreshold != 3 {
		t.Errorf("error_threshold = %d, want default 3", cfg.Providers.Cooldown.ErrorThreshold)
	}
	if cfg.Indicators.RSIPeriod != 14 {
		t.Errorf("rsi_period = %d, want default 14", cfg.Indicators.RSIPeriod)
	}
	if w := cfg.Factors.Weights["technical"]; w != 0.30 {
		t.Errorf("technical weight = %.2f, want default 0.30", w)
	}
}

func TestLoadConfigInvalidFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("universe: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation failure for empty universe")
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
