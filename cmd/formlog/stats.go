// ABOUTME: CLI commands for progress stats and per-exercise distribution.
// ABOUTME: Prints a dashboard or JSON computed fresh from every record.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/harperreed/formlog/internal/models"
	"github.com/harperreed/formlog/internal/stats"
	"github.com/spf13/cobra"
)

var (
	statsJSON bool
	statsAsOf string
	distJSON  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show progress stats",
	Long: `Show totals and trends computed from every recorded analysis.

  total         number of analyses
  average       mean form score
  streak        analyses in the last 7 days
  improvement   mean score of the last 30 days minus the mean of older ones
                (0 until both periods have analyses)

Use --as-of to compute the numbers relative to another moment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		if statsAsOf != "" {
			t, err := parseTime(statsAsOf)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", statsAsOf)
			}
			now = t
		}

		engine := stats.New(store)
		st, err := engine.ComputeStats(cmd.Context(), now)
		if err != nil {
			return fmt.Errorf("failed to compute stats: %w", err)
		}
		summary, err := engine.ComputeScoreSummary(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to compute score summary: %w", err)
		}

		out := cmd.OutOrStdout()
		if statsJSON {
			data, err := json.MarshalIndent(struct {
				Stats  models.DerivedStats `json:"stats"`
				Scores models.ScoreSummary `json:"scores"`
			}{st, summary}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if st.TotalAnalyses == 0 {
			fmt.Fprintln(out, "No analyses yet.")
			return nil
		}

		bold := color.New(color.Bold)
		fmt.Fprintln(out, bold.Sprint("Progress"))
		fmt.Fprintf(out, "  Total analyses   %d\n", st.TotalAnalyses)
		fmt.Fprintf(out, "  Average score    %s\n", scoreColor(st.AverageScore))
		fmt.Fprintf(out, "  7-day streak     %d\n", st.CurrentStreak)
		fmt.Fprintf(out, "  Improvement      %s\n", formatDelta(st.ImprovementRate))
		fmt.Fprintln(out)
		fmt.Fprintln(out, bold.Sprint("Scores"))
		fmt.Fprintf(out, "  Min/Max          %d / %d\n", summary.Min, summary.Max)
		fmt.Fprintf(out, "  Median           %d\n", summary.P50)
		fmt.Fprintf(out, "  90th percentile  %d\n", summary.P90)
		return nil
	},
}

var distCmd = &cobra.Command{
	Use:     "dist",
	Aliases: []string{"distribution"},
	Short:   "Show analyses per exercise",
	RunE: func(cmd *cobra.Command, args []string) error {
		dist, err := stats.New(store).ComputeDistribution(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to compute distribution: %w", err)
		}

		out := cmd.OutOrStdout()
		if distJSON {
			data, err := json.MarshalIndent(dist, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(dist) == 0 {
			fmt.Fprintln(out, "No analyses yet.")
			return nil
		}

		faint := color.New(color.Faint)
		fmt.Fprintln(out, faint.Sprintf("%s %s %s", padRight("EXERCISE", 16), padRight("COUNT", 6), "AVG"))
		for _, d := range dist {
			fmt.Fprintf(out, "%s %s %s\n",
				padRight(d.ExerciseType, 16),
				padRight(fmt.Sprint(d.Count), 6),
				scoreColor(d.AvgScore))
		}
		return nil
	},
}

func formatDelta(d int) string {
	switch {
	case d > 0:
		return color.GreenString("+%d", d)
	case d < 0:
		return color.RedString("%d", d)
	default:
		return "0"
	}
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output JSON")
	statsCmd.Flags().StringVar(&statsAsOf, "as-of", "", "compute relative to this time (YYYY-MM-DD HH:MM)")
	distCmd.Flags().BoolVar(&distJSON, "json", false, "output JSON")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(distCmd)
}
