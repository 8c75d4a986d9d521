package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// newTestLoader searches only the given paths and reads env from vars.
func newTestLoader(paths []string, vars map[string]string) (*Loader, *[]string) {
	var warnings []string
	l := &Loader{
		configPaths: paths,
		getenv:      func(k string) string { return vars[k] },
		warn: func(format string, args ...interface{}) {
			warnings = append(warnings, format)
		},
	}
	return l, &warnings
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader returned nil")
	}
	if len(loader.configPaths) != 3 {
		t.Errorf("Expected 3 config paths, got %d", len(loader.configPaths))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	loader, _ := newTestLoader([]string{filepath.Join(dir, "missing.yaml")}, nil)

	cfg, err := loader.LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	if cfg.History.PageSize != 10 {
		t.Errorf("Expected default page size 10, got %d", cfg.History.PageSize)
	}
	if loader.Primary() != "" {
		t.Errorf("Expected no sources, got %v", loader.Sources())
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "test-config.yaml")
	writeFile(t, configPath, `version: "1.0"
api:
  environment: production
  production_url: https://lotto.example.com
  timeout: 10s
history:
  page_size: 20
update:
  message_ttl: 5s
router:
  strict_match: true
output:
  default_format: json
  verbose: true
`)

	loader, _ := newTestLoader(nil, nil)
	cfg, err := loader.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config from file: %v", err)
	}

	if cfg.BaseURL() != "https://lotto.example.com" {
		t.Errorf("Expected production URL, got %s", cfg.BaseURL())
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("Expected 10s timeout, got %v", cfg.API.Timeout)
	}
	if cfg.History.PageSize != 20 {
		t.Errorf("Expected page size 20, got %d", cfg.History.PageSize)
	}
	if cfg.History.PageWindow != 5 {
		t.Errorf("Expected page window to keep its default, got %d", cfg.History.PageWindow)
	}
	if cfg.Update.MessageTTL != 5*time.Second {
		t.Errorf("Expected message TTL 5s, got %v", cfg.Update.MessageTTL)
	}
	if !cfg.Router.StrictMatch {
		t.Error("Expected strict_match true")
	}
	if !cfg.Output.Verbose {
		t.Error("Expected verbose true")
	}
	if loader.Primary() != configPath {
		t.Errorf("Primary() = %s, want %s", loader.Primary(), configPath)
	}
}

func TestLoadConfigPriority(t *testing.T) {
	dir := t.TempDir()
	project := filepath.Join(dir, "project", ".lottoview.yaml")
	user := filepath.Join(dir, "user", "config.yaml")

	writeFile(t, user, `history:
  page_size: 25
watch:
  enabled: false
`)
	writeFile(t, project, `history:
  page_size: 15
`)

	loader, _ := newTestLoader([]string{project, user}, nil)
	cfg, err := loader.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.History.PageSize != 15 {
		t.Errorf("Project config should win, got page size %d", cfg.History.PageSize)
	}
	if cfg.Watch.Enabled {
		t.Error("A boolean absent from the project file must keep the user file's value")
	}
	want := []string{user, project}
	got := loader.Sources()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Sources() = %v, want %v", got, want)
	}
}

func TestLoadConfigSkipsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.yaml")
	good := filepath.Join(dir, "good.yaml")
	writeFile(t, broken, "history: [not, a, map")
	writeFile(t, good, "history:\n  page_size: 30\n")

	loader, warnings := newTestLoader([]string{broken, good}, nil)
	cfg, err := loader.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.History.PageSize != 30 {
		t.Errorf("Expected page size 30, got %d", cfg.History.PageSize)
	}
	if len(*warnings) != 1 {
		t.Errorf("Expected one warning, got %d", len(*warnings))
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "typo.yaml")
	writeFile(t, configPath, "histroy:\n  page_size: 30\n")

	loader, _ := newTestLoader(nil, nil)
	if _, err := loader.LoadConfig(configPath); err == nil {
		t.Error("Expected an error for an unknown key")
	}
}

func TestEnvOverrides(t *testing.T) {
	loader, _ := newTestLoader(nil, map[string]string{
		"LOTTOVIEW_API_DEVELOPMENT_URL":  "http://127.0.0.1:9000",
		"LOTTOVIEW_API_TIMEOUT":          "5s",
		"LOTTOVIEW_HISTORY_PAGE_SIZE":    "12",
		"LOTTOVIEW_UPDATE_MESSAGE_TTL":   "1500ms",
		"LOTTOVIEW_ROUTER_STRICT_MATCH":  "true",
		"LOTTOVIEW_OUTPUT_DEFAULT_FORMAT": "json",
		"LOTTOVIEW_METRICS_ADDR":         "127.0.0.1:9464",
	})

	cfg, err := loader.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.BaseURL() != "http://127.0.0.1:9000" {
		t.Errorf("BaseURL() = %s", cfg.BaseURL())
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.API.Timeout)
	}
	if cfg.History.PageSize != 12 {
		t.Errorf("PageSize = %d", cfg.History.PageSize)
	}
	if cfg.Update.MessageTTL != 1500*time.Millisecond {
		t.Errorf("MessageTTL = %v", cfg.Update.MessageTTL)
	}
	if !cfg.Router.StrictMatch {
		t.Error("StrictMatch should be true")
	}
	if cfg.Output.DefaultFormat != "json" {
		t.Errorf("DefaultFormat = %s", cfg.Output.DefaultFormat)
	}
	if cfg.Metrics.Addr != "127.0.0.1:9464" {
		t.Errorf("Metrics.Addr = %s", cfg.Metrics.Addr)
	}
}

func TestEnvOverrideInvalid(t *testing.T) {
	loader, _ := newTestLoader(nil, map[string]string{
		"LOTTOVIEW_HISTORY_PAGE_SIZE": "ten",
	})

	_, err := loader.LoadConfig("")
	if err == nil || !strings.Contains(err.Error(), "LOTTOVIEW_HISTORY_PAGE_SIZE") {
		t.Errorf("Expected error naming the variable, got %v", err)
	}
}

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"config.yaml", false},
		{"config.yml", false},
		{"/tmp/lottoview/config.yaml", false},
		{"config.json", true},
		{"../config.yaml", true},
		{"/proc/self/config.yaml", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := validateConfigPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfigPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	t.Setenv("HOME", home)

	if got := ExpandPath("~/.config/lottoview/config.yaml"); got != filepath.Join(home, ".config/lottoview/config.yaml") {
		t.Errorf("ExpandPath = %s", got)
	}
	if got := ExpandPath("/etc/lottoview/config.yaml"); got != "/etc/lottoview/config.yaml" {
		t.Errorf("absolute paths must be unchanged, got %s", got)
	}
}
