package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/user/adboard/internal/config"
	"github.com/user/adboard/internal/db"
	"github.com/user/adboard/internal/runner"
)

var (
	dryRun  bool
	verbose bool
	silent  bool
)

var rootCmd = &cobra.Command{
	Use:   "adboard [config.yaml...]",
	Short: "Mirror matching classified ads onto a Trello board",
	Long: `Scrape a classifieds search for listings posted since start_date, keep the
ones whose title contains a search term and add each new one as a card to the
board's unreviewed list.

Target files default to config_files in config_dir (config.yaml and
config2.yaml in the current directory).`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return syncOnce(cmd.Context(), settings, args, runOptions())
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (default: ~/.adboard)")
	rootCmd.PersistentFlags().String("config-dir", "", "Directory holding the target files (default: .)")
	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("config_dir", rootCmd.PersistentFlags().Lookup("config-dir"))

	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show which cards would be created without creating them")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show every page fetched and card created")
	rootCmd.PersistentFlags().BoolVarP(&silent, "silent", "s", false, "Suppress progress output")
}

func runOptions() runner.Options {
	return runner.Options{DryRun: dryRun, Verbose: verbose, Silent: silent}
}

// targetPaths returns the files named on the command line, or the
// configured ones.
func targetPaths(settings *config.Settings, args []string) []string {
	if len(args) > 0 {
		return args
	}
	return settings.ConfigPaths()
}

// openStore opens the run journal. A journal that cannot be opened only
// disables journaling.
func openStore(settings *config.Settings, quiet bool) *db.Store {
	if !settings.Journal {
		return nil
	}
	store, err := db.NewStore(settings.DataDir)
	if err != nil {
		if !quiet {
			fmt.Printf("Warning: run journal disabled: %v\n", err)
		}
		return nil
	}
	return store
}

func syncOnce(ctx context.Context, settings *config.Settings, args []string, opts runner.Options) error {
	store := openStore(settings, opts.Silent)
	if store != nil {
		defer store.Close()
	}

	r := runner.New(settings, runner.DefaultDeps(settings, store, opts), opts)
	return r.RunAll(ctx, targetPaths(settings, args))
}
