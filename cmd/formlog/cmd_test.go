// ABOUTME: Tests for CLI helper functions and command execution.
// ABOUTME: Runs the cobra tree end to end against temporary data directories.
package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/harperreed/formlog/internal/logging"
	"github.com/harperreed/formlog/internal/models"
	"github.com/harperreed/formlog/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag in the tree to its default so one test's
// arguments do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// setupTestCLI points config and data at temp dirs and returns the data dir.
func setupTestCLI(t *testing.T, backend string) string {
	t.Helper()
	color.NoColor = true

	dataDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FORMLOG_CONFIG", "")
	t.Setenv("FORMLOG_DATA_DIR", dataDir)
	t.Setenv("FORMLOG_BACKEND", backend)
	t.Setenv("FORMLOG_LOG_LEVEL", "disabled")
	return dataDir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := Execute()
	return buf.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("formlog %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"date and time with space", "2025-01-31 08:30", time.Date(2025, 1, 31, 8, 30, 0, 0, time.UTC), false},
		{"date and time with T", "2025-01-31T08:30", time.Date(2025, 1, 31, 8, 30, 0, 0, time.UTC), false},
		{"date only", "2025-01-31", time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), false},
		{"RFC3339", "2025-01-31T08:30:00Z", time.Date(2025, 1, 31, 8, 30, 0, 0, time.UTC), false},
		{"invalid format", "31-01-2025", time.Time{}, true},
		{"empty string", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseTime(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTime(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"", 5, ""},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input  string
		length int
		want   string
	}{
		{"abc", 6, "abc   "},
		{"abcdef", 3, "abcdef"},
		{"", 2, "  "},
	}

	for _, tt := range tests {
		if got := padRight(tt.input, tt.length); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.want)
		}
	}
}

func TestPageOf(t *testing.T) {
	records := make([]*models.AnalysisRecord, 5)
	for i := range records {
		records[i] = &models.AnalysisRecord{ID: int64(i + 1)}
	}

	tests := []struct {
		name          string
		limit, offset int
		wantIDs       []int64
	}{
		{"first two", 2, 0, []int64{1, 2}},
		{"middle", 2, 2, []int64{3, 4}},
		{"tail shorter than limit", 3, 4, []int64{5}},
		{"past end", 2, 10, nil},
		{"negative offset clamps", 1, -3, []int64{1}},
		{"zero limit uses default", 0, 0, []int64{1, 2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pageOf(records, tt.limit, tt.offset)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d records, want %d", len(got), len(tt.wantIDs))
			}
			for i, r := range got {
				if r.ID != tt.wantIDs[i] {
					t.Errorf("record %d: id %d, want %d", i, r.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestAddCmdFlags(t *testing.T) {
	for _, name := range []string{"level", "media", "goals", "concerns", "analysis", "rec", "point", "improve", "at"} {
		if addCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected --%s flag on add", name)
		}
	}
	if got := addCmd.Flags().Lookup("level").DefValue; got != models.LevelBeginner {
		t.Errorf("--level default = %q, want %q", got, models.LevelBeginner)
	}
}

func TestExportCmdValidArgs(t *testing.T) {
	want := map[string]bool{"json": true, "yaml": true, "markdown": true}
	if len(exportCmd.ValidArgs) != len(want) {
		t.Fatalf("ValidArgs = %v", exportCmd.ValidArgs)
	}
	for _, a := range exportCmd.ValidArgs {
		if !want[a] {
			t.Errorf("unexpected export format %q", a)
		}
	}
}

func TestSkipStoreAnnotations(t *testing.T) {
	for _, c := range []*cobra.Command{migrateCmd, installSkillCmd} {
		if c.Annotations[skipStoreAnnotation] != "true" {
			t.Errorf("%s should skip the default store", c.Name())
		}
	}
	for _, c := range []*cobra.Command{addCmd, listCmd, statsCmd, exportCmd} {
		if c.Annotations[skipStoreAnnotation] == "true" {
			t.Errorf("%s needs the default store", c.Name())
		}
	}
}

func TestAddAndList(t *testing.T) {
	setupTestCLI(t, "sqlite")

	out := mustRun(t, "add", "squat", "82", "--level", "intermediate", "--at", "2025-06-01 07:30")
	if !strings.Contains(out, "Added squat analysis") {
		t.Errorf("add output = %q", out)
	}
	if !strings.Contains(out, "#1") {
		t.Errorf("expected id #1 in %q", out)
	}
	mustRun(t, "add", "pushup", "64", "--at", "2025-06-02 07:30")

	out = mustRun(t, "list")
	squatAt := strings.Index(out, "squat")
	pushupAt := strings.Index(out, "pushup")
	if squatAt < 0 || pushupAt < 0 {
		t.Fatalf("list output missing records: %q", out)
	}
	if pushupAt > squatAt {
		t.Errorf("expected newest first, got %q", out)
	}

	out = mustRun(t, "list", "-e", "squat")
	if strings.Contains(out, "pushup") || !strings.Contains(out, "squat") {
		t.Errorf("filtered list = %q", out)
	}

	out = mustRun(t, "list", "--level", "advanced")
	if !strings.Contains(out, "No analyses found.") {
		t.Errorf("expected empty level filter, got %q", out)
	}
}

func TestListPaging(t *testing.T) {
	setupTestCLI(t, "sqlite")

	for i, ex := range []string{"a", "b", "c"} {
		mustRun(t, "add", ex, "70", "--at", time.Date(2025, 6, i+1, 9, 0, 0, 0, time.UTC).Format(time.RFC3339))
	}

	out := mustRun(t, "list", "-n", "1", "--offset", "1")
	if !strings.Contains(out, "#2") || strings.Contains(out, "#3") || strings.Contains(out, "#1") {
		t.Errorf("second page = %q", out)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	setupTestCLI(t, "sqlite")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"score above range", []string{"add", "squat", "101"}, "between 0 and 100"},
		{"non numeric score", []string{"add", "squat", "great"}, "invalid score"},
		{"bad media", []string{"add", "squat", "80", "--media", "audio"}, "media type"},
		{"bad timestamp", []string{"add", "squat", "80", "--at", "yesterday"}, "invalid timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}

	out := mustRun(t, "list")
	if !strings.Contains(out, "No analyses found.") {
		t.Errorf("rejected input was stored: %q", out)
	}
}

func TestShow(t *testing.T) {
	setupTestCLI(t, "sqlite")

	mustRun(t, "add", "deadlift", "74",
		"--goals", "pull 200kg",
		"--rec", "hinge first", "--rec", "lock lats",
		"--analysis", "Bar drifts forward off the floor.")

	out := mustRun(t, "show", "#1")
	for _, want := range []string{"deadlift", "74/100", "pull 200kg", "1. hinge first", "2. lock lats", "Bar drifts forward"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	if _, err := runCLI(t, "show", "42"); err == nil {
		t.Error("expected error for missing analysis")
	}
	if _, err := runCLI(t, "show", "abc"); err == nil {
		t.Error("expected error for invalid id")
	}
}

func TestStatsAndDist(t *testing.T) {
	setupTestCLI(t, "sqlite")

	mustRun(t, "add", "squat", "80", "--at", "2025-06-14 10:00")
	mustRun(t, "add", "squat", "90", "--at", "2025-06-10 10:00")
	mustRun(t, "add", "pushup", "60", "--at", "2025-04-01 10:00")

	out := mustRun(t, "stats", "--json", "--as-of", "2025-06-15 12:00")
	var payload struct {
		Stats  models.DerivedStats `json:"stats"`
		Scores models.ScoreSummary `json:"scores"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("stats --json is not JSON: %v\n%s", err, out)
	}
	want := models.DerivedStats{TotalAnalyses: 3, AverageScore: 77, CurrentStreak: 2, ImprovementRate: 25}
	if payload.Stats != want {
		t.Errorf("stats = %+v, want %+v", payload.Stats, want)
	}
	if payload.Scores.Min != 60 || payload.Scores.Max != 90 {
		t.Errorf("scores = %+v", payload.Scores)
	}

	out = mustRun(t, "stats", "--as-of", "2025-06-15 12:00")
	if !strings.Contains(out, "Total analyses   3") || !strings.Contains(out, "+25") {
		t.Errorf("stats dashboard = %q", out)
	}

	out = mustRun(t, "dist", "--json")
	var dist []models.ExerciseDistribution
	if err := json.Unmarshal([]byte(out), &dist); err != nil {
		t.Fatalf("dist --json is not JSON: %v\n%s", err, out)
	}
	if len(dist) != 2 || dist[0].ExerciseType != "squat" || dist[0].Count != 2 || dist[0].AvgScore != 85 {
		t.Errorf("dist = %+v", dist)
	}
}

func TestStatsEmpty(t *testing.T) {
	setupTestCLI(t, "sqlite")

	out := mustRun(t, "stats")
	if !strings.Contains(out, "No analyses yet.") {
		t.Errorf("stats on empty store = %q", out)
	}
	out = mustRun(t, "dist")
	if !strings.Contains(out, "No analyses yet.") {
		t.Errorf("dist on empty store = %q", out)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	setupTestCLI(t, "sqlite")

	mustRun(t, "add", "squat", "80", "--at", "2025-06-01 10:00", "--rec", "knees out")
	mustRun(t, "add", "pushup", "70", "--at", "2025-06-02 10:00")

	backup := filepath.Join(t.TempDir(), "backup.json")
	out := mustRun(t, "export", "json", "-o", backup)
	if !strings.Contains(out, "Exported to") {
		t.Errorf("export output = %q", out)
	}

	md := mustRun(t, "export", "markdown", "-e", "squat")
	if !strings.Contains(md, "## squat") || strings.Contains(md, "pushup") {
		t.Errorf("markdown export = %q", md)
	}

	if _, err := runCLI(t, "export", "csv"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := runCLI(t, "export", "markdown", "--since", "June"); err == nil {
		t.Error("expected error for bad --since")
	}

	// Import into a fresh data dir.
	setupTestCLI(t, "sqlite")
	out = mustRun(t, "import", backup)
	if !strings.Contains(out, "Imported 2 analyses") {
		t.Errorf("import output = %q", out)
	}

	out = mustRun(t, "show", "1")
	if !strings.Contains(out, "squat") || !strings.Contains(out, "knees out") {
		t.Errorf("oldest record should be #1 after import: %q", out)
	}
}

func TestImportMissingFile(t *testing.T) {
	setupTestCLI(t, "sqlite")

	if _, err := runCLI(t, "import", filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMigrate(t *testing.T) {
	dataDir := setupTestCLI(t, "badger")

	mustRun(t, "add", "squat", "80", "--at", "2025-06-01 10:00")
	mustRun(t, "add", "squat", "84", "--at", "2025-06-03 10:00")

	out := mustRun(t, "migrate", "--from", "badger", "--to", "sqlite")
	if !strings.Contains(out, "Migrated 2 analyses") {
		t.Errorf("migrate output = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "formlog.db")); err != nil {
		t.Errorf("expected sqlite database: %v", err)
	}

	// A second run refuses to append without --force.
	if _, err := runCLI(t, "migrate", "--from", "badger", "--to", "sqlite"); err == nil {
		t.Error("expected refusal for non-empty destination")
	}
	mustRun(t, "migrate", "--from", "badger", "--to", "sqlite", "--force")

	t.Setenv("FORMLOG_BACKEND", "sqlite")
	out = mustRun(t, "stats", "--json")
	var payload struct {
		Stats models.DerivedStats `json:"stats"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("stats --json: %v\n%s", err, out)
	}
	if payload.Stats.TotalAnalyses != 4 {
		t.Errorf("sqlite total = %d, want 4", payload.Stats.TotalAnalyses)
	}
}

func TestMigrateSameBackend(t *testing.T) {
	setupTestCLI(t, "sqlite")

	_, err := runCLI(t, "migrate", "--from", "sqlite", "--to", "sqlite")
	if err == nil || !strings.Contains(err.Error(), "both sqlite") {
		t.Errorf("err = %v", err)
	}
}

func TestBackendFlagOverridesConfig(t *testing.T) {
	dataDir := setupTestCLI(t, "badger")

	mustRun(t, "--backend", "sqlite", "add", "squat", "80")
	if _, err := os.Stat(filepath.Join(dataDir, "formlog.db")); err != nil {
		t.Errorf("--backend sqlite should create formlog.db: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "badger")); err == nil {
		t.Error("badger store should not be created")
	}
}

func TestDebugLoggingRun(t *testing.T) {
	setupTestCLI(t, "sqlite")
	t.Setenv("FORMLOG_LOG_LEVEL", "debug")
	t.Setenv("FORMLOG_LOG_FORMAT", "json")
	t.Cleanup(func() { logging.Init(logging.Config{Level: "disabled", Output: io.Discard}) })

	out := mustRun(t, "add", "squat", "80")
	if !strings.Contains(out, "Added squat analysis") {
		t.Errorf("add output = %q", out)
	}
}

func TestInvalidBackendRejected(t *testing.T) {
	setupTestCLI(t, "sqlite")

	if _, err := runCLI(t, "--backend", "postgres", "list"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestStoreClosedAfterFailure(t *testing.T) {
	setupTestCLI(t, "badger")

	if _, err := runCLI(t, "show", "7"); err == nil {
		t.Fatal("expected not-found error")
	}
	if store != nil {
		t.Error("store should be released after a failed command")
	}
	// Badger holds a directory lock; reopening proves it was released.
	mustRun(t, "list")
}

func TestErrNotFoundSurfaces(t *testing.T) {
	setupTestCLI(t, "sqlite")

	_, err := runCLI(t, "show", "3")
	if err == nil || !strings.Contains(err.Error(), storage.ErrNotFound.Error()) {
		t.Errorf("err = %v, want not found", err)
	}
}
