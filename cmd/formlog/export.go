// ABOUTME: CLI commands for exporting and importing analyses.
// ABOUTME: Supports JSON, YAML, and Markdown export formats; JSON import.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	exportOutput   string
	exportExercise string
	exportSince    string
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export analyses",
	Long: `Export analyses in various formats.

FORMATS:

  json       Full JSON export (suitable for backup/restore)
  yaml       YAML export grouped by exercise (human-readable)
  markdown   Markdown table (for documentation/sharing)

OPTIONS:

  --output, -o     Write to file instead of stdout
  --exercise, -e   Filter by exercise type (markdown only)
  --since          Only include analyses since this date (YYYY-MM-DD, markdown only)

EXAMPLES:

  formlog export json                        # Export all data as JSON
  formlog export json -o backup.json         # Save to file
  formlog export yaml                        # Export as YAML
  formlog export markdown -e squat           # Export squats as Markdown
  formlog export markdown --since 2025-01-01 # Export analyses from 2025 onward`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]
		ctx := cmd.Context()

		var data []byte
		var err error

		switch format {
		case "json":
			data, err = store.ExportJSON(ctx)
		case "yaml":
			data, err = store.ExportYAML(ctx)
		case "markdown":
			var exercise *string
			if exportExercise != "" {
				exercise = &exportExercise
			}
			var since *time.Time
			if exportSince != "" {
				t, err := time.Parse("2006-01-02", exportSince)
				if err != nil {
					return fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", exportSince)
				}
				since = &t
			}
			md, err := store.ExportMarkdown(ctx, exercise, since)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			data = []byte(md)
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, or markdown)", format)
		}

		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		out := cmd.OutOrStdout()
		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			fmt.Fprintln(out, color.GreenString("✓ Exported to %s", exportOutput))
		} else {
			fmt.Fprintln(out, string(data))
		}

		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import analyses from JSON",
	Long: `Import analyses from a JSON backup file.

Records are appended with new ids; their created_at timestamps are kept.
Importing the same file twice creates duplicates.

EXAMPLES:

  formlog import backup.json               # Import from file`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		n, err := store.ImportJSON(cmd.Context(), data)
		if err != nil {
			return fmt.Errorf("import failed after %d analyses: %w", n, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ Imported %d analyses from %s", n, filename))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVarP(&exportExercise, "exercise", "e", "", "filter by exercise type (markdown only)")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only include analyses since date (YYYY-MM-DD)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
