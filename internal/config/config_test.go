package config

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Environment != EnvDevelopment {
		t.Errorf("Expected development environment, got %s", cfg.API.Environment)
	}
	if cfg.BaseURL() != "http://localhost:8000" {
		t.Errorf("Expected default base URL http://localhost:8000, got %s", cfg.BaseURL())
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.API.Timeout)
	}
	if cfg.History.PageSize != 10 {
		t.Errorf("Expected page size 10, got %d", cfg.History.PageSize)
	}
	if cfg.Update.MessageTTL != 3*time.Second {
		t.Errorf("Expected message TTL 3s, got %v", cfg.Update.MessageTTL)
	}
	if cfg.Router.StrictMatch {
		t.Error("Expected permissive routing by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestBaseURLByEnvironment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.ProductionURL = "https://lotto.example.com"

	cfg.API.Environment = EnvProduction
	if got := cfg.BaseURL(); got != "https://lotto.example.com" {
		t.Errorf("BaseURL() = %s, want production URL", got)
	}

	cfg.SetBaseURL("https://mirror.example.com")
	if cfg.API.ProductionURL != "https://mirror.example.com" {
		t.Errorf("SetBaseURL did not update production URL")
	}
	if cfg.API.DevelopmentURL != "http://localhost:8000" {
		t.Errorf("SetBaseURL must not touch the development URL")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown environment",
			mutate:  func(c *Config) { c.API.Environment = "staging" },
			wantErr: "invalid api environment",
		},
		{
			name:    "production without url",
			mutate:  func(c *Config) { c.API.Environment = EnvProduction },
			wantErr: "production_url must be set",
		},
		{
			name:    "relative url",
			mutate:  func(c *Config) { c.API.DevelopmentURL = "localhost:8000" },
			wantErr: "invalid development_url",
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.History.PageSize = 0 },
			wantErr: "page_size must be between",
		},
		{
			name:    "huge page size",
			mutate:  func(c *Config) { c.History.PageSize = 1000 },
			wantErr: "page_size must be between",
		},
		{
			name:    "zero page window",
			mutate:  func(c *Config) { c.History.PageWindow = 0 },
			wantErr: "page_window",
		},
		{
			name:    "bad output format",
			mutate:  func(c *Config) { c.Output.DefaultFormat = "csv" },
			wantErr: "invalid output format",
		},
		{
			name:    "bad color mode",
			mutate:  func(c *Config) { c.Output.ColorMode = "rainbow" },
			wantErr: "invalid color mode",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.API.Timeout = 0 },
			wantErr: "api timeout",
		},
		{
			name:    "negative ttl",
			mutate:  func(c *Config) { c.Update.MessageTTL = -time.Second },
			wantErr: "message_ttl",
		},
		{
			name:    "metrics addr without port",
			mutate:  func(c *Config) { c.Metrics.Addr = "localhost" },
			wantErr: "invalid metrics addr",
		},
		{
			name:   "metrics addr with port",
			mutate: func(c *Config) { c.Metrics.Addr = ":9090" },
		},
		{
			name: "production with url",
			mutate: func(c *Config) {
				c.API.Environment = EnvProduction
				c.API.ProductionURL = "https://lotto.example.com"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Router.StrictMatch = true

	data, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	if !strings.Contains(string(data), "message_ttl: 3s") {
		t.Errorf("durations should be rendered as strings:\n%s", data)
	}

	var back Config
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if back != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, *cfg)
	}
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	cp := cfg.Clone()
	cp.History.PageSize = 50

	if cfg.History.PageSize != 10 {
		t.Error("Clone must not share state with the original")
	}
}
