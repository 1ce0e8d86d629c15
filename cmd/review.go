package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/adboard/internal/config"
	"github.com/user/adboard/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review [config.yaml...]",
	Short: "Browse the cards created by past runs",
	Long:  "Open a terminal browser over the journaled cards. Press o to open a listing and r to run a sync.",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Output would corrupt the screen
		opts := runOptions()
		opts.Silent = true
		opts.Verbose = false

		return tui.Run(settings, func(ctx context.Context) error {
			return syncOnce(ctx, settings, args, opts)
		})
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
