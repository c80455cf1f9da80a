// ABOUTME: Root Cobra command for formlog CLI.
// ABOUTME: Loads config, sets up logging, and owns the record store lifecycle.
package main

import (
	"fmt"

	"github.com/harperreed/formlog/internal/config"
	"github.com/harperreed/formlog/internal/logging"
	"github.com/harperreed/formlog/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cfg   *config.Config
	store *storage.Store

	backendFlag string
	dataDirFlag string
)

// skipStoreAnnotation marks commands that manage storage themselves or need none.
const skipStoreAnnotation = "formlog/skip-store"

var rootCmd = &cobra.Command{
	Use:   "formlog",
	Short: "Exercise form analysis journal",
	Long: `Formlog keeps a local, append-only journal of exercise form analyses
and turns it into progress stats.

WHAT IT RECORDS:

  Each analysis has an exercise type, a form score (0-100), a fitness level,
  the media analyzed (video, image, url), the written report, and ordered
  lists of recommendations, key points and improvements.

QUICK START:

  $ formlog add squat 82 --level intermediate --rec "sit back more"
  $ formlog list                     # Most recent analyses
  $ formlog list -e squat            # Only squats
  $ formlog show 3                   # Full report for analysis #3
  $ formlog stats                    # Totals, average, streak, improvement
  $ formlog dist                     # Breakdown per exercise

STATS:

  streak        analyses in the last 7 days
  improvement   mean score of the last 30 days minus the mean before that

MCP INTEGRATION:

  Run 'formlog mcp' to start the Model Context Protocol server for use with
  Claude Desktop or other MCP-compatible AI assistants. Add to your Claude
  config:

  {
    "mcpServers": {
      "formlog": { "command": "formlog", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Analyses are stored in BadgerDB at ~/.local/share/formlog/badger by default.
  Set backend: sqlite in ~/.config/formlog/config.yaml (or FORMLOG_BACKEND=sqlite)
  to use ~/.local/share/formlog/formlog.db instead.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if backendFlag != "" {
			cfg.Backend = backendFlag
		}
		if dataDirFlag != "" {
			cfg.DataDir = dataDirFlag
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logging.Init(cfg.LoggingConfig())
		runID := logging.WithRunID()
		cliLog := logging.Component("cli")
		cliLog.Debug().
			Str("command", cmd.CommandPath()).
			Str("backend", cfg.GetBackend()).
			Str("run", runID).
			Msg("starting")

		if cmd.Annotations[skipStoreAnnotation] == "true" {
			return nil
		}

		store, err = cfg.OpenStore()
		if err != nil {
			return fmt.Errorf("failed to configure storage: %w", err)
		}
		if err := store.Open(cmd.Context()); err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeStore()
	},
}

// Execute runs the root command and always releases the store, even when a
// subcommand fails and the post-run hook is skipped.
func Execute() error {
	err := rootCmd.Execute()
	if cerr := closeStore(); err == nil {
		err = cerr
	}
	return err
}

func closeStore() error {
	if store == nil {
		return nil
	}
	err := store.Close()
	store = nil
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend: badger or sqlite (default from config)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (default ~/.local/share/formlog)")
}
