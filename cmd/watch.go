package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/adboard/internal/config"
	"github.com/user/adboard/internal/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch [config.yaml...]",
	Short: "Sync now and then on the configured schedule",
	Long:  "Run one sync cycle immediately, then again on every tick of the schedule setting (default @every 6h) until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		opts := runOptions()
		s, err := scheduler.New(settings.Schedule, func(ctx context.Context) error {
			return syncOnce(ctx, settings, args, opts)
		}, opts.Silent)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := s.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		s.Stop()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
