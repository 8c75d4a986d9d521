package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yildizm/LottoView/internal/formatter"
	"github.com/yildizm/LottoView/internal/gateway"
	"github.com/yildizm/LottoView/internal/lottery"
)

func newLatestCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the latest draw and recommendations",
		Long: `Print the latest draw together with the numbers and sets the service
recommends avoiding (and, when provided, the ones likely to appear).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient(opts.cfg)
			if err != nil {
				return err
			}
			analysis, err := client.LatestAnalysis(cmd.Context())
			if err != nil {
				return err
			}
			return opts.write(cmd, func(f formatter.Formatter) ([]byte, error) { return f.Latest(analysis) })
		},
	}
}

func newHistoryCommand(opts *globalOptions) *cobra.Command {
	var (
		page  int
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a page of the draw history",
		Long: `Print one page of past draws, newest first.

The page size defaults to history.page_size from the configuration.`,
		Example: `  lottoview history
  lottoview history --page 3
  lottoview history --limit 50 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return fmt.Errorf("--page must be at least 1, got %d", page)
			}
			if !cmd.Flags().Changed("limit") {
				limit = opts.cfg.History.PageSize
			}

			client, err := opts.newClient(opts.cfg)
			if err != nil {
				return err
			}
			p, err := client.History(cmd.Context(), page, limit)
			if err != nil {
				return err
			}
			return opts.write(cmd, func(f formatter.Formatter) ([]byte, error) { return f.History(p) })
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number, starting at 1")
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "draws per page")

	return cmd
}

func newUpdateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Fetch new draws from the upstream source",
		Long: `Ask the service to pull new draws from its upstream source and print
the outcome. A refusal by the service (for example when nothing is new) is
printed but is not an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient(opts.cfg)
			if err != nil {
				return err
			}
			outcome, err := client.Update(cmd.Context())
			if err != nil {
				opts.collector.ObserveUpdate("failure")
				return err
			}
			if outcome.Success {
				opts.collector.ObserveUpdate("success")
			} else {
				opts.collector.ObserveUpdate("rejected")
			}
			return opts.write(cmd, func(f formatter.Formatter) ([]byte, error) { return f.Outcome(outcome) })
		},
	}
}

func newStatsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "stats",
		Aliases: []string{"statistics"},
		Short:   "Show number frequency statistics",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient(opts.cfg)
			if err != nil {
				return err
			}
			stats, err := client.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			return opts.write(cmd, func(f formatter.Formatter) ([]byte, error) { return f.Statistics(stats) })
		},
	}
}

func newHealthCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the service is reachable and healthy",
		Long: `Query the service health endpoint. Exits non-zero when the service is
unreachable or reports itself unhealthy, so it can be used in scripts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient(opts.cfg)
			if err != nil {
				return err
			}
			health, err := client.Health(cmd.Context())
			if err != nil {
				return err
			}
			if err := opts.write(cmd, func(f formatter.Formatter) ([]byte, error) { return f.Health(health) }); err != nil {
				return err
			}
			if !health.Healthy() {
				return errUnhealthy
			}
			return nil
		},
	}
}

func newStatusCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show service health and the latest draw together",
		Long: `Query health and the latest analysis concurrently. Each half is shown
even when the other fails; the command fails only when both do.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient(opts.cfg)
			if err != nil {
				return err
			}

			status := collectStatus(cmd.Context(), client)
			if err := opts.write(cmd, func(f formatter.Formatter) ([]byte, error) { return f.Status(status) }); err != nil {
				return err
			}
			if status.Health == nil && status.Latest == nil {
				return fmt.Errorf("%s", status.HealthError)
			}
			return nil
		},
	}
}

// statusSource is the part of gateway.Client used by status
type statusSource interface {
	BaseURL() string
	Health(ctx context.Context) (*lottery.Health, error)
	LatestAnalysis(ctx context.Context) (*lottery.LatestAnalysis, error)
}

// collectStatus fetches both halves concurrently. Failures are recorded as
// messages, never returned.
func collectStatus(ctx context.Context, src statusSource) *formatter.Status {
	status := &formatter.Status{BaseURL: src.BaseURL()}

	var g errgroup.Group
	g.Go(func() error {
		h, err := src.Health(ctx)
		if err != nil {
			status.HealthError = gateway.Message(err)
			return nil
		}
		status.Health = h
		return nil
	})
	g.Go(func() error {
		a, err := src.LatestAnalysis(ctx)
		if err != nil {
			status.LatestError = gateway.Message(err)
			return nil
		}
		status.Latest = a
		return nil
	})
	_ = g.Wait()

	return status
}
