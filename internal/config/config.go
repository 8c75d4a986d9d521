package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	MaxPageSize = 100
)

// Config holds the complete application configuration
type Config struct {
	Version string        `yaml:"version" json:"version"`
	API     APIConfig     `yaml:"api" json:"api"`
	History HistoryConfig `yaml:"history" json:"history"`
	Update  UpdateConfig  `yaml:"update" json:"update"`
	Router  RouterConfig  `yaml:"router" json:"router"`
	Output  OutputConfig  `yaml:"output" json:"output"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
}

// APIConfig selects the draw analysis service
type APIConfig struct {
	Environment    string        `yaml:"environment" json:"environment"`         // development|production
	DevelopmentURL string        `yaml:"development_url" json:"development_url"` // used when environment=development
	ProductionURL  string        `yaml:"production_url" json:"production_url"`   // used when environment=production
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`                 // per request
}

// HistoryConfig configures the history browser
type HistoryConfig struct {
	PageSize   int `yaml:"page_size" json:"page_size"`
	PageWindow int `yaml:"page_window" json:"page_window"` // page buttons shown around the current page
}

// UpdateConfig configures the manual update action
type UpdateConfig struct {
	MessageTTL time.Duration `yaml:"message_ttl" json:"message_ttl"`
}

// RouterConfig configures view resolution
type RouterConfig struct {
	// StrictMatch disables the "path contains history" rule
	StrictMatch bool `yaml:"strict_match" json:"strict_match"`
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"` // text|json
	ColorMode     string `yaml:"color_mode" json:"color_mode"`         // auto|always|never
	Verbose       bool   `yaml:"verbose" json:"verbose"`
	NoEmoji       bool   `yaml:"no_emoji" json:"no_emoji"`
}

// LogConfig configures the log sink of the interactive UI
type LogConfig struct {
	File string `yaml:"file" json:"file"`
	JSON bool   `yaml:"json" json:"json"`
}

// MetricsConfig configures the optional Prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"` // empty disables
}

// WatchConfig configures config hot reload in the interactive UI
type WatchConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		API: APIConfig{
			Environment:    EnvDevelopment,
			DevelopmentURL: "http://localhost:8000",
			ProductionURL:  "",
			Timeout:        30 * time.Second,
		},
		History: HistoryConfig{
			PageSize:   10,
			PageWindow: 5,
		},
		Update: UpdateConfig{
			MessageTTL: 3 * time.Second,
		},
		Router: RouterConfig{
			StrictMatch: false,
		},
		Output: OutputConfig{
			DefaultFormat: "text",
			ColorMode:     "auto",
		},
		Log: LogConfig{
			File: "~/.cache/lottoview/lottoview.log",
		},
		Watch: WatchConfig{
			Enabled: true,
		},
	}
}

// BaseURL returns the service URL for the selected environment
func (c *Config) BaseURL() string {
	if c.API.Environment == EnvProduction {
		return c.API.ProductionURL
	}
	return c.API.DevelopmentURL
}

// SetBaseURL overrides the URL of the selected environment
func (c *Config) SetBaseURL(u string) {
	if c.API.Environment == EnvProduction {
		c.API.ProductionURL = u
		return
	}
	c.API.DevelopmentURL = u
}

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// YAML renders the configuration as a config file
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateAPIConfig(); err != nil {
		return err
	}
	if err := c.validateHistoryConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	if err := c.validateTimingConfig(); err != nil {
		return err
	}
	if err := c.validateMetricsConfig(); err != nil {
		return err
	}
	return nil
}

// validateAPIConfig validates service selection
func (c *Config) validateAPIConfig() error {
	validEnvironments := map[string]bool{
		EnvDevelopment: true,
		EnvProduction:  true,
	}
	if !validEnvironments[c.API.Environment] {
		return fmt.Errorf("invalid api environment: %s (must be one of: development, production)", c.API.Environment)
	}

	base := c.BaseURL()
	if base == "" {
		return fmt.Errorf("%s_url must be set when environment is %s", c.API.Environment, c.API.Environment)
	}
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("invalid %s_url: %w", c.API.Environment, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s_url: %s (must be an absolute http or https URL)", c.API.Environment, base)
	}
	return nil
}

// validateHistoryConfig validates pagination settings
func (c *Config) validateHistoryConfig() error {
	if c.History.PageSize < 1 || c.History.PageSize > MaxPageSize {
		return fmt.Errorf("page_size must be between 1 and %d", MaxPageSize)
	}
	if c.History.PageWindow < 1 {
		return fmt.Errorf("page_window must be greater than 0")
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json": true,
			"text": true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	return nil
}

// validateTimingConfig validates timeouts and delays
func (c *Config) validateTimingConfig() error {
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api timeout must be greater than 0")
	}
	if c.Update.MessageTTL <= 0 {
		return fmt.Errorf("message_ttl must be greater than 0")
	}
	return nil
}

func (c *Config) validateMetricsConfig() error {
	if c.Metrics.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
		return fmt.Errorf("invalid metrics addr: %w", err)
	}
	return nil
}
