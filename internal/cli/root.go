package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/yildizm/LottoView/internal/config"
	"github.com/yildizm/LottoView/internal/emoji"
	"github.com/yildizm/LottoView/internal/formatter"
	"github.com/yildizm/LottoView/internal/gateway"
	"github.com/yildizm/LottoView/internal/logger"
	"github.com/yildizm/LottoView/internal/metrics"
)

// annotationLogToFile marks commands that own the terminal; their logs go to
// log.file instead of stderr.
const annotationLogToFile = "log-to-file"

// globalOptions holds the persistent flags and what PersistentPreRunE builds
// from them.
type globalOptions struct {
	cfgFile     string
	verbose     bool
	noColor     bool
	noEmoji     bool
	outputFmt   string
	env         string
	apiURL      string
	metricsAddr string

	loader    *config.Loader
	cfg       *config.Config
	color     bool
	log       *logger.Logger
	collector *metrics.Collector

	cleanup []func() error
}

// Execute builds the root command, runs it and releases what the run opened.
func Execute(ctx context.Context, version, commit, date string) error {
	cmd, opts := newRootCommand(version, commit, date)
	defer opts.close()
	return cmd.ExecuteContext(ctx)
}

// newRootCommand creates the root command and the options its subcommands
// share.
func newRootCommand(version, commit, date string) (*cobra.Command, *globalOptions) {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "lottoview",
		Short: "Lottery draw analysis client",
		Long: `LottoView is a client for the lottery draw analysis service.

Without a subcommand it opens the interactive view with the latest draw and
its recommendations on the home screen and the paginated draw history one key
away. The one-shot commands print the same data as text or JSON.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Auto-disable emojis on Windows if not explicitly set
			if runtime.GOOS == "windows" && !cmd.Flag("no-emoji").Changed {
				opts.noEmoji = true
			}
			return opts.setup(cmd)
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.cfgFile, "config", "c", "", "config file path")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&opts.noEmoji, "no-emoji", false, "disable emoji output (useful for Windows terminals)")
	flags.StringVarP(&opts.outputFmt, "output", "o", "text", "output format (text, json)")
	flags.StringVar(&opts.env, "env", "", "service environment (development, production)")
	flags.StringVar(&opts.apiURL, "api-url", "", "service base URL, overrides the configured one")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	uiCmd := newUICommand(opts)
	rootCmd.RunE = uiCmd.RunE
	rootCmd.Flags().AddFlagSet(uiCmd.Flags())
	rootCmd.Annotations = uiCmd.Annotations

	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(newLatestCommand(opts))
	rootCmd.AddCommand(newHistoryCommand(opts))
	rootCmd.AddCommand(newUpdateCommand(opts))
	rootCmd.AddCommand(newStatsCommand(opts))
	rootCmd.AddCommand(newHealthCommand(opts))
	rootCmd.AddCommand(newStatusCommand(opts))
	rootCmd.AddCommand(newConfigCommand(opts))
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd, opts
}

// setup loads the configuration, applies flags and starts logging and
// metrics.
func (o *globalOptions) setup(cmd *cobra.Command) error {
	o.loader = config.NewLoader()
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}
	o.cfg = cfg

	emoji.SetEmojiDisabled(cfg.Output.NoEmoji)
	o.color = useColor(cfg.Output.ColorMode, cmd.OutOrStdout())
	color.NoColor = !o.color

	logOpts := logger.Options{JSON: cfg.Log.JSON}
	if cmd.Annotations[annotationLogToFile] == "true" && cfg.Log.File != "" {
		logOpts.File = config.ExpandPath(cfg.Log.File)
	}
	closeLog, err := logger.Configure(logOpts)
	if err != nil {
		return err
	}
	o.cleanup = append(o.cleanup, closeLog)
	o.log = logger.NewWithCallback("cli", func() bool { return o.cfg.Output.Verbose })

	o.collector = metrics.NewCollector()
	if cfg.Metrics.Addr != "" {
		if err := o.serveMetrics(cmd.Context(), cfg.Metrics.Addr); err != nil {
			return err
		}
	}
	return nil
}

// loadConfig loads files and environment, then applies the flags the user
// set. The watcher calls it again on every change.
func (o *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := o.loader.LoadConfig(o.cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Output.Verbose = o.verbose
	}
	if flags.Changed("output") {
		cfg.Output.DefaultFormat = o.outputFmt
	}
	if o.noColor {
		cfg.Output.ColorMode = "never"
	}
	if o.noEmoji {
		cfg.Output.NoEmoji = true
	}
	if o.env != "" {
		cfg.API.Environment = o.env
	}
	if o.apiURL != "" {
		cfg.SetBaseURL(o.apiURL)
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Addr = o.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func (o *globalOptions) serveMetrics(ctx context.Context, addr string) error {
	srv, err := o.collector.Listen(addr)
	if err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	o.log.Info("serving metrics on http://%s/metrics", srv.Addr())
	o.cleanup = append(o.cleanup, func() error {
		cancel()
		return <-done
	})
	return nil
}

// close runs cleanups in reverse order
func (o *globalOptions) close() {
	for i := len(o.cleanup) - 1; i >= 0; i-- {
		if err := o.cleanup[i](); err != nil && o.cfg != nil && o.cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "Warning: cleanup failed: %v\n", err)
		}
	}
	o.cleanup = nil
}

// newClient creates a gateway client for cfg
func (o *globalOptions) newClient(cfg *config.Config) (*gateway.Client, error) {
	return gateway.New(
		gateway.Config{BaseURL: cfg.BaseURL(), Timeout: cfg.API.Timeout},
		gateway.WithLogger(o.log.WithComponent("gateway")),
		gateway.WithRecorder(o.collector),
	)
}

func (o *globalOptions) formatter() (formatter.Formatter, error) {
	return formatter.New(o.cfg.Output.DefaultFormat, o.color)
}

// write formats one value with render and prints it
func (o *globalOptions) write(cmd *cobra.Command, render func(formatter.Formatter) ([]byte, error)) error {
	f, err := o.formatter()
	if err != nil {
		return err
	}
	out, err := render(f)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// useColor resolves color_mode against the output stream. auto enables color
// only on terminals that support it and when NO_COLOR is unset.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "never":
		return false
	case "always":
		return true
	}

	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return false
	}
	return termenv.NewOutput(f).ColorProfile() != termenv.Ascii
}

// errUnhealthy is returned by health when the service reports a problem
var errUnhealthy = errors.New("service is not healthy")

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, and runtime information",
		// version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "LottoView %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			_, _ = fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			_, _ = fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
