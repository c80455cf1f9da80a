// ABOUTME: CLI command for copying analyses between storage backends.
// ABOUTME: Moves the whole journal from BadgerDB to SQLite or back.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/formlog/internal/config"
	"github.com/harperreed/formlog/internal/storage"
	"github.com/spf13/cobra"
)

var (
	migrateFrom  string
	migrateTo    string
	migrateForce bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy analyses between storage backends",
	Long: `Copy every analysis from one storage backend to the other.

Both stores live under the data directory:

  badger   <data-dir>/badger
  sqlite   <data-dir>/formlog.db

Records are copied oldest first and receive new ids in the destination.
Their created_at timestamps are kept, so stats do not change.

IMPORTANT:

  - The source store is left untouched
  - A destination that already holds analyses is refused unless --force
  - Switch backends afterwards with 'backend: sqlite' in config.yaml

USAGE:

  formlog migrate --from badger --to sqlite
  formlog migrate --from sqlite --to badger --force`,
	Annotations: map[string]string{skipStoreAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateFrom == migrateTo {
			return fmt.Errorf("source and destination are both %s", migrateFrom)
		}

		ctx := cmd.Context()
		dataDir := cfg.GetDataDir()

		src, err := openBackend(cmd, migrateFrom, dataDir)
		if err != nil {
			return fmt.Errorf("failed to open source: %w", err)
		}
		defer src.Close()

		dst, err := openBackend(cmd, migrateTo, dataDir)
		if err != nil {
			return fmt.Errorf("failed to open destination: %w", err)
		}
		defer dst.Close()

		existing, err := dst.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to inspect destination: %w", err)
		}
		if existing > 0 && !migrateForce {
			return fmt.Errorf("destination %s already has %d analyses (use --force to append)", migrateTo, existing)
		}

		summary, err := storage.MigrateData(ctx, src, dst)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, color.GreenString("✓ Migrated %d analyses from %s to %s", summary.Analyses, migrateFrom, migrateTo))
		if cfg.GetBackend() != migrateTo {
			fmt.Fprintf(out, "  Set backend: %s in %s to use it\n", migrateTo, config.GetConfigPath())
		}
		return nil
	},
}

func openBackend(cmd *cobra.Command, backend, dataDir string) (*storage.Store, error) {
	opener, err := config.OpenerFor(backend, dataDir)
	if err != nil {
		return nil, err
	}
	s := storage.New(opener)
	if err := s.Open(cmd.Context()); err != nil {
		return nil, err
	}
	return s, nil
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", config.BackendBadger, "source backend (badger or sqlite)")
	migrateCmd.Flags().StringVar(&migrateTo, "to", config.BackendSQLite, "destination backend (badger or sqlite)")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "append even if the destination is not empty")
	rootCmd.AddCommand(migrateCmd)
}
