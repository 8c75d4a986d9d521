package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yildizm/LottoView/internal/config"
	"github.com/yildizm/LottoView/internal/emoji"
)

const sampleHeader = `# LottoView configuration
#
# Files are merged in this order, later ones winning:
#   /etc/lottoview/config.yaml
#   ~/.config/lottoview/config.yaml
#   ./.lottoview.yaml
# LOTTOVIEW_* environment variables and command line flags override files.
#
# api.environment selects development_url or production_url.
# router.strict_match turns off the "path contains history" rule.
# metrics.addr (e.g. 127.0.0.1:9464) enables the /metrics endpoint.

`

// newConfigCommand creates the config command with subcommands
func newConfigCommand(opts *globalOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage LottoView configuration",
		Long: `Manage LottoView configuration files and settings.

The config command provides subcommands for initializing, viewing,
validating, and locating configuration files.`,
		// subcommands load the configuration themselves so a broken file
		// can still be inspected
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			emoji.SetEmojiDisabled(opts.noEmoji)
			return nil
		},
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(opts))
	configCmd.AddCommand(newConfigValidateCommand(opts))
	configCmd.AddCommand(newConfigPathCommand())

	return configCmd
}

// newConfigInitCommand creates the config init subcommand
func newConfigInitCommand() *cobra.Command {
	var (
		outputPath string
		force      bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new configuration file",
		Long: `Initialize a new LottoView configuration file with default values.`,
		Example: `  # Create config in current directory
  lottoview config init

  # Create user config
  lottoview config init --file ~/.config/lottoview/config.yaml

  # Overwrite existing config
  lottoview config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				outputPath = ".lottoview.yaml"
			}
			outputPath = config.ExpandPath(outputPath)

			if !force && fileExists(outputPath) {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", outputPath)
			}

			dir := filepath.Dir(outputPath)
			if dir != "." && dir != "/" {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}

			data, err := config.DefaultConfig().YAML()
			if err != nil {
				return fmt.Errorf("failed to render default config: %w", err)
			}
			if err := os.WriteFile(outputPath, append([]byte(sampleHeader), data...), 0o600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%sConfiguration file created at: %s\n", emoji.Prefix("success"), outputPath)
			return nil
		},
	}

	initCmd.Flags().StringVar(&outputPath, "file", "", "output path for config file (default: .lottoview.yaml)")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing config file")

	return initCmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand(opts *globalOptions) *cobra.Command {
	var format string

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current effective configuration after loading from all sources.

Shows the merged configuration from all sources including defaults,
config files, and environment variable overrides.`,
		Example: `  # Show config in YAML format
  lottoview config show

  # Show config in JSON format
  lottoview config show --format json

  # Show config from specific file
  lottoview config show --config /path/to/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader().LoadConfig(opts.cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config to JSON: %w", err)
				}
				_, _ = fmt.Fprintln(out, string(data))
			case "yaml":
				data, err := cfg.YAML()
				if err != nil {
					return fmt.Errorf("failed to marshal config to YAML: %w", err)
				}
				_, _ = fmt.Fprint(out, string(data))
			default:
				return fmt.Errorf("unsupported format: %s (use json or yaml)", format)
			}

			return nil
		},
	}

	showCmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (yaml, json)")

	return showCmd
}

// newConfigValidateCommand creates the config validate subcommand
func newConfigValidateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validate LottoView configuration for syntax and semantic errors.

Checks the configuration for:
- Valid YAML syntax and known keys
- A usable http(s) service URL for the selected environment
- Page size, durations and output settings within range`,
		Example: `  # Validate current config
  lottoview config validate

  # Validate specific config file
  lottoview config validate --config /path/to/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			loader := config.NewLoader()
			cfg, err := loader.LoadConfig(opts.cfgFile)
			if err != nil {
				_, _ = fmt.Fprintf(out, "%sConfiguration validation failed:\n", emoji.Prefix("error"))
				_, _ = fmt.Fprintf(out, "   %v\n", err)
				return err
			}

			_, _ = fmt.Fprintf(out, "%sConfiguration is valid\n", emoji.Prefix("success"))
			_, _ = fmt.Fprintf(out, "%sConfiguration summary:\n", emoji.Prefix("statistics"))
			source := loader.Primary()
			if source == "" {
				source = "built-in defaults"
			}
			_, _ = fmt.Fprintf(out, "   Source: %s\n", source)
			_, _ = fmt.Fprintf(out, "   Environment: %s\n", cfg.API.Environment)
			_, _ = fmt.Fprintf(out, "   Service URL: %s\n", cfg.BaseURL())
			_, _ = fmt.Fprintf(out, "   Page Size: %d\n", cfg.History.PageSize)
			_, _ = fmt.Fprintf(out, "   Output Format: %s\n", cfg.Output.DefaultFormat)

			return nil
		},
	}
}

// newConfigPathCommand creates the config path subcommand
func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file search paths",
		Long: `Display the list of paths LottoView searches for configuration files.

Shows the search order and indicates which files exist.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, emoji.Prefix("database")+"Configuration file search paths (in priority order):")
			_, _ = fmt.Fprintln(out)

			priority := []string{"Highest", "Medium", "Lowest"}
			for i, path := range config.GetConfigPaths() {
				exists := " (not found)"
				if fileExists(path) {
					exists = " (exists)"
				}

				_, _ = fmt.Fprintf(out, "  %d. %s%s\n", i+1, path, exists)
				if i < len(priority) {
					_, _ = fmt.Fprintf(out, "     Priority: %s\n", priority[i])
				}
				_, _ = fmt.Fprintln(out)
			}

			if currentConfig, found := config.FindConfigFile(); found {
				_, _ = fmt.Fprintf(out, "Current config file: %s\n", currentConfig)
			} else {
				_, _ = fmt.Fprintln(out, "No config file found, using defaults")
			}

			_, _ = fmt.Fprintln(out)
			_, _ = fmt.Fprintln(out, emoji.Prefix("info")+"Environment variables with LOTTOVIEW_ prefix override file settings")
		},
	}
}

// Helper function to check if file exists
func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
