package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/tracker-tv/standards-sync/internal/schedule"
)

func newScheduleCommand(a *app) *cobra.Command {
	f := &syncFlags{}
	var spec string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the sync repeatedly on a cron schedule",
		Example: `  standards-sync schedule --org acme --cron "0 3 * * *"
  standards-sync schedule --org acme --cron "@every 6h" --audit-db /var/lib/standards-sync/audit.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.apply(cmd, a)
			if err := a.cfg.RequireGitHub(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			s, err := schedule.New(spec, func(ctx context.Context) error {
				_, err := a.runSync(ctx, f, out)
				if errors.Is(err, ErrRepositoriesFailed) {
					// reported already; the next tick retries them
					a.logger.Warn("run finished with failed repositories", "error", err)
					return nil
				}
				return err
			}, a.logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := s.Start(ctx); err != nil {
				return err
			}
			if next := s.NextRun(); next != nil {
				a.logger.Info("waiting for first run", "next_run", next)
			}
			<-ctx.Done()
			s.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "cron", "", `cron schedule, e.g. "0 3 * * *" or "@every 6h"`)
	_ = cmd.MarkFlagRequired("cron")
	f.register(cmd)
	return cmd
}
