// ABOUTME: CLI commands for listing and showing analyses.
// ABOUTME: Supports paging and filtering by exercise type or fitness level.
package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/formlog/internal/models"
	"github.com/harperreed/formlog/internal/query"
	"github.com/harperreed/formlog/internal/storage"
	"github.com/spf13/cobra"
)

var (
	listExercise string
	listLevel    string
	listLimit    int
	listOffset   int
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List analyses",
	Long: `List analyses, most recent first.

OUTPUT FORMAT:

  Each line shows: #ID  TIMESTAMP  EXERCISE  SCORE  LEVEL

  Use 'formlog show <id>' for the full report.

FILTERING:

  --exercise/-e matches the stored exercise type exactly (case-sensitive).
  --level filters by fitness level.

EXAMPLES:

  formlog list                     # Last 10 analyses
  formlog list -n 20 --offset 20   # Second page of 20
  formlog list -e squat            # Only squats
  formlog list --level advanced    # Only advanced sessions`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := query.New(store)
		ctx := cmd.Context()

		var analyses []*models.AnalysisRecord
		var err error
		switch {
		case listExercise != "":
			analyses, err = q.ByCategory(ctx, listExercise)
			analyses = pageOf(analyses, listLimit, listOffset)
		case listLevel != "":
			analyses, err = q.ByFitnessLevel(ctx, listLevel)
			analyses = pageOf(analyses, listLimit, listOffset)
		case listOffset == 0:
			analyses, err = q.Recent(ctx, listLimit)
		default:
			analyses, err = q.Page(ctx, listLimit, listOffset)
		}
		if err != nil {
			return fmt.Errorf("failed to list analyses: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(analyses) == 0 {
			fmt.Fprintln(out, "No analyses found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, a := range analyses {
			fmt.Fprintf(out, "%s %s %s %s %s\n",
				faint.Sprint(padRight(fmt.Sprintf("#%d", a.ID), 6)),
				faint.Sprint(formatWhen(a)),
				padRight(a.DisplayExercise(), 16),
				scoreColor(a.FormScore),
				a.FitnessLevel)
		}

		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one analysis in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id: %s", args[0])
		}

		a, err := store.Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get analysis %d: %w", id, err)
		}

		out := cmd.OutOrStdout()
		bold := color.New(color.Bold)
		fmt.Fprintf(out, "%s %s\n", bold.Sprintf("#%d", a.ID), bold.Sprint(a.DisplayExercise()))
		fmt.Fprintf(out, "  Score:   %s/100\n", scoreColor(a.FormScore))
		fmt.Fprintf(out, "  Level:   %s\n", a.FitnessLevel)
		fmt.Fprintf(out, "  Media:   %s\n", a.MediaType)
		fmt.Fprintf(out, "  When:    %s\n", formatWhen(a))
		if a.Goals != nil {
			fmt.Fprintf(out, "  Goals:   %s\n", *a.Goals)
		}
		if a.SpecificConcerns != nil {
			fmt.Fprintf(out, "  Concern: %s\n", *a.SpecificConcerns)
		}
		printList(out, "Recommendations", a.Recommendations)
		printList(out, "Key points", a.KeyPoints)
		printList(out, "Improvements", a.Improvements)
		if a.Analysis != "" {
			fmt.Fprintf(out, "\n%s\n", a.Analysis)
		}
		return nil
	},
}

func printList(out io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", title)
	for i, item := range items {
		fmt.Fprintf(out, "  %d. %s\n", i+1, item)
	}
}

func formatWhen(a *models.AnalysisRecord) string {
	if t, ok := a.CreatedTime(); ok {
		return t.Local().Format("2006-01-02 15:04")
	}
	return truncate(a.CreatedAt, 16)
}

func scoreColor(score int) string {
	s := strconv.Itoa(score)
	switch {
	case score >= 80:
		return color.GreenString(s)
	case score >= 60:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

// pageOf applies limit/offset to an already filtered list.
func pageOf(records []*models.AnalysisRecord, limit, offset int) []*models.AnalysisRecord {
	if limit <= 0 {
		limit = query.DefaultRecentLimit
	}
	return storage.Paginate(records, limit, offset)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	listCmd.Flags().StringVarP(&listExercise, "exercise", "e", "", "filter by exercise type")
	listCmd.Flags().StringVar(&listLevel, "level", "", "filter by fitness level")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", query.DefaultRecentLimit, "max number of results")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "number of results to skip")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}
