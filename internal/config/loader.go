package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.lottoview.yaml",               // Project-specific config (highest priority)
	"~/.config/lottoview/config.yaml", // User config
	"/etc/lottoview/config.yaml",      // System config (lowest priority)
}

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
	getenv      func(string) string
	warn        func(format string, args ...interface{})

	sources []string
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
		getenv:      os.Getenv,
		warn: func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
		},
	}
}

// Sources returns the files applied by the last LoadConfig call, lowest
// priority first.
func (l *Loader) Sources() []string {
	return append([]string(nil), l.sources...)
}

// Primary returns the highest-priority file applied by the last LoadConfig
// call, or "" when only defaults were used.
func (l *Loader) Primary() string {
	if len(l.sources) == 0 {
		return ""
	}
	return l.sources[len(l.sources)-1]
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.lottoview.yaml
// 4. ~/.config/lottoview/config.yaml
// 5. /etc/lottoview/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	config := DefaultConfig()
	l.sources = nil

	if customPath != "" {
		expanded := expandPath(customPath)
		if err := validateConfigPath(expanded); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, expanded); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// lowest priority first
		for i := len(l.configPaths) - 1; i >= 0; i-- {
			expandedPath := expandPath(l.configPaths[i])
			if !fileExists(expandedPath) {
				continue
			}
			if err := l.loadFromFile(config, expandedPath); err != nil {
				l.warn("failed to load config from %s: %v", expandedPath, err)
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile decodes a YAML file on top of config. Keys absent from the
// file keep their current values, booleans included.
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() or comes from ConfigPaths
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	merged := config.Clone()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(merged); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	*config = *merged
	l.sources = append(l.sources, path)
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// API Config
		"LOTTOVIEW_API_ENVIRONMENT":     func(v string) error { config.API.Environment = v; return nil },
		"LOTTOVIEW_API_DEVELOPMENT_URL": func(v string) error { config.API.DevelopmentURL = v; return nil },
		"LOTTOVIEW_API_PRODUCTION_URL":  func(v string) error { config.API.ProductionURL = v; return nil },
		"LOTTOVIEW_API_TIMEOUT":         func(v string) error { return parseDuration(v, &config.API.Timeout) },

		// History Config
		"LOTTOVIEW_HISTORY_PAGE_SIZE":   func(v string) error { return parseInt(v, &config.History.PageSize) },
		"LOTTOVIEW_HISTORY_PAGE_WINDOW": func(v string) error { return parseInt(v, &config.History.PageWindow) },

		// Update and Router Config
		"LOTTOVIEW_UPDATE_MESSAGE_TTL":  func(v string) error { return parseDuration(v, &config.Update.MessageTTL) },
		"LOTTOVIEW_ROUTER_STRICT_MATCH": func(v string) error { return parseBool(v, &config.Router.StrictMatch) },

		// Output Config
		"LOTTOVIEW_OUTPUT_DEFAULT_FORMAT": func(v string) error { config.Output.DefaultFormat = v; return nil },
		"LOTTOVIEW_OUTPUT_COLOR_MODE":     func(v string) error { config.Output.ColorMode = v; return nil },
		"LOTTOVIEW_OUTPUT_VERBOSE":        func(v string) error { return parseBool(v, &config.Output.Verbose) },
		"LOTTOVIEW_OUTPUT_NO_EMOJI":       func(v string) error { return parseBool(v, &config.Output.NoEmoji) },

		// Log, Metrics and Watch Config
		"LOTTOVIEW_LOG_FILE":      func(v string) error { config.Log.File = v; return nil },
		"LOTTOVIEW_LOG_JSON":      func(v string) error { return parseBool(v, &config.Log.JSON) },
		"LOTTOVIEW_METRICS_ADDR":  func(v string) error { config.Metrics.Addr = v; return nil },
		"LOTTOVIEW_WATCH_ENABLED": func(v string) error { return parseBool(v, &config.Watch.Enabled) },
	}

	for envVar, setter := range envMappings {
		if value := strings.TrimSpace(l.getenv(envVar)); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// ExpandPath expands a leading ~ to the home directory
func ExpandPath(path string) string {
	return expandPath(path)
}

// Helper functions

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if strings.HasPrefix(absPath, "/proc/") ||
		strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

func expandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
