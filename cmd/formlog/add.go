// ABOUTME: CLI command for recording a form analysis.
// ABOUTME: Builds the record from flags, validates it, and reports unsaved writes.
package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/formlog/internal/models"
	"github.com/spf13/cobra"
)

var (
	addLevel        string
	addMedia        string
	addGoals        string
	addConcerns     string
	addAnalysis     string
	addRecs         []string
	addPoints       []string
	addImprovements []string
	addAt           string
)

var addCmd = &cobra.Command{
	Use:     "add <exercise> <score>",
	Aliases: []string{"a"},
	Short:   "Record a form analysis",
	Long: `Record a completed exercise form analysis.

The score is an integer from 0 to 100. Repeat --rec, --point and --improve
to add several entries; their order is kept.

Examples:
  formlog add squat 82
  formlog add deadlift 74 --level advanced --media image
  formlog add pushup 65 --rec "tuck elbows" --rec "brace core" --at "2025-06-01 07:30"
  formlog add squat 88 --analysis "$(cat report.txt)"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid score: %s", args[1])
		}

		a := models.NewAnalysis(args[0], score).
			WithFitnessLevel(addLevel).
			WithMediaType(addMedia).
			WithAnalysis(addAnalysis).
			WithRecommendations(addRecs...).
			WithKeyPoints(addPoints...).
			WithImprovements(addImprovements...)

		if addGoals != "" {
			a.WithGoals(addGoals)
		}
		if addConcerns != "" {
			a.WithSpecificConcerns(addConcerns)
		}
		if addAt != "" {
			t, err := parseTime(addAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", addAt)
			}
			a.WithCreatedAtTime(t)
		}

		if err := models.ValidateInput(a); err != nil {
			return err
		}

		res, err := store.Insert(cmd.Context(), a)
		if err != nil {
			return fmt.Errorf("failed to record analysis: %w", err)
		}

		out := cmd.OutOrStdout()
		if !res.Saved {
			fmt.Fprintln(out, color.YellowString("! Analysis for %s was NOT saved", a.DisplayExercise()))
			fmt.Fprintf(out, "  temporary id %d: %v\n", res.ID, res.Err)
			return nil
		}

		fmt.Fprintln(out, color.GreenString("✓ Added %s analysis", a.DisplayExercise()))
		fmt.Fprintf(out, "  %s %d/100 %s\n",
			color.New(color.Faint).Sprintf("#%d", res.ID),
			a.FormScore, a.FitnessLevel)

		return nil
	},
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
		time.RFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

func init() {
	addCmd.Flags().StringVar(&addLevel, "level", models.LevelBeginner, "fitness level (beginner, intermediate, advanced)")
	addCmd.Flags().StringVar(&addMedia, "media", models.MediaVideo, "media analyzed (video, image, url)")
	addCmd.Flags().StringVar(&addGoals, "goals", "", "training goals")
	addCmd.Flags().StringVar(&addConcerns, "concerns", "", "specific concerns")
	addCmd.Flags().StringVar(&addAnalysis, "analysis", "", "full analysis report")
	addCmd.Flags().StringArrayVar(&addRecs, "rec", nil, "recommendation (repeatable)")
	addCmd.Flags().StringArrayVar(&addPoints, "point", nil, "key point (repeatable)")
	addCmd.Flags().StringArrayVar(&addImprovements, "improve", nil, "improvement (repeatable)")
	addCmd.Flags().StringVar(&addAt, "at", "", "timestamp (YYYY-MM-DD HH:MM)")
	rootCmd.AddCommand(addCmd)
}
