package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/yildizm/LottoView/internal/config"
	"github.com/yildizm/LottoView/internal/router"
	"github.com/yildizm/LottoView/internal/ui"
)

func newUICommand(opts *globalOptions) *cobra.Command {
	var (
		at    string
		theme string
	)

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive view (default)",
		Long: `Open the interactive view.

The home screen shows the latest draw and recommendations and lets you trigger
an update; the history screen pages through past draws. Navigation keeps a
session history, so back and forward work like in a browser, and "g" opens a
location bar that accepts /, /history or #/history.

While it runs, the loaded config file is watched and changes to the service
URL, timeout, message duration and routing mode apply without a restart.`,
		Example: `  lottoview
  lottoview ui --at /history
  lottoview ui --theme high-contrast --api-url http://10.0.0.5:8000`,
		Annotations: map[string]string{annotationLogToFile: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := ui.ThemeByName(theme)
			if !ok {
				return fmt.Errorf("unknown theme %q (available: %s)", theme, strings.Join(ui.GetAvailableThemes(), ", "))
			}
			return runUI(cmd.Context(), opts, cmd, at, t)
		},
	}

	cmd.Flags().StringVar(&at, "at", router.HomePath, "initial location, e.g. /history or /#/history")
	cmd.Flags().StringVar(&theme, "theme", "default", "color theme ("+strings.Join(ui.GetAvailableThemes(), ", ")+")")

	return cmd
}

func runUI(ctx context.Context, opts *globalOptions, cmd *cobra.Command, at string, theme ui.Theme) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := opts.cfg
	client, err := opts.newClient(cfg)
	if err != nil {
		return err
	}
	if !opts.color {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	appOpts := ui.Options{
		Backend:    client,
		Location:   at,
		PageSize:   cfg.History.PageSize,
		PageWindow: cfg.History.PageWindow,
		MessageTTL: cfg.Update.MessageTTL,
		Policy:     router.Policy{Strict: cfg.Router.StrictMatch},
		Theme:      theme,
		Verbose:    cfg.Output.Verbose,
		Context:    ctx,
		Logger:     opts.log,
		Recorder:   opts.collector,
		Connect: func(c *config.Config) (ui.Backend, error) {
			next, err := opts.newClient(c)
			if err != nil {
				return nil, err
			}
			return next, nil
		},
	}

	if path := opts.loader.Primary(); cfg.Watch.Enabled && path != "" {
		watcher, err := config.NewWatcher(path, func() (*config.Config, error) {
			return opts.loadConfig(cmd)
		})
		if err != nil {
			opts.log.Warn("config watch disabled: %v", err)
		} else {
			defer func() { _ = watcher.Close() }()
			go func() {
				if err := watcher.Run(ctx); err != nil {
					opts.log.Warn("config watcher stopped: %v", err)
				}
			}()
			appOpts.Reloads = watcher.Reloads()
			opts.log.Debug("watching %s", path)
		}
	}

	app := ui.New(appOpts)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive view failed: %w", err)
	}
	return nil
}
