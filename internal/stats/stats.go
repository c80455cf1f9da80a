// ABOUTME: Aggregation engine computing dashboard stats from the full record set.
// ABOUTME: Everything is recomputed on each call; nothing is cached or persisted.
package stats

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/harperreed/formlog/internal/logging"
	"github.com/harperreed/formlog/internal/models"
	"github.com/harperreed/formlog/internal/storage"
	"github.com/rs/zerolog"
)

const (
	streakWindowDays      = 7
	improvementWindowDays = 30
)

// Source supplies the full record set.
type Source interface {
	GetAll(ctx context.Context) ([]*models.AnalysisRecord, error)
}

// Engine derives statistics from a Source.
type Engine struct {
	src Source
	log zerolog.Logger
}

// New creates an Engine reading from src.
func New(src Source) *Engine {
	return &Engine{src: src, log: logging.Component("stats")}
}

// ComputeStats summarizes every record relative to now. A read fault yields
// zero stats and a nil error.
func (e *Engine) ComputeStats(ctx context.Context, now time.Time) (models.DerivedStats, error) {
	records, err := e.load(ctx, "compute_stats")
	if err != nil {
		return models.DerivedStats{}, err
	}
	return Summarize(records, now), nil
}

// ComputeDistribution groups every record by exercise type. A read fault
// yields an empty distribution and a nil error.
func (e *Engine) ComputeDistribution(ctx context.Context) ([]models.ExerciseDistribution, error) {
	records, err := e.load(ctx, "compute_distribution")
	if err != nil {
		return []models.ExerciseDistribution{}, err
	}
	return Distribute(records), nil
}

// ComputeScoreSummary reports the spread of form scores.
func (e *Engine) ComputeScoreSummary(ctx context.Context) (models.ScoreSummary, error) {
	records, err := e.load(ctx, "compute_score_summary")
	if err != nil {
		return models.ScoreSummary{}, err
	}
	return SummarizeScores(records)
}

// load returns the record set, degrading read faults to an empty set.
func (e *Engine) load(ctx context.Context, op string) ([]*models.AnalysisRecord, error) {
	records, err := e.src.GetAll(ctx)
	if err == nil {
		return records, nil
	}
	if errors.Is(err, storage.ErrStorageUnavailable) {
		return nil, err
	}
	e.log.Error().Err(err).Str("op", op).Msg("stats degraded to defaults")
	return nil, nil
}

// Summarize computes DerivedStats for records at time now.
//
// Records whose created_at cannot be parsed count toward the total and the
// average but fall in neither time window.
func Summarize(records []*models.AnalysisRecord, now time.Time) models.DerivedStats {
	var stats models.DerivedStats
	if len(records) == 0 {
		return stats
	}

	streakStart := now.AddDate(0, 0, -streakWindowDays)
	windowStart := now.AddDate(0, 0, -improvementWindowDays)

	var sum, recentSum, olderSum float64
	var recentN, olderN int
	for _, r := range records {
		score := float64(r.FormScore)
		sum += score

		t, ok := r.CreatedTime()
		if !ok {
			continue
		}
		if !t.Before(streakStart) {
			stats.CurrentStreak++
		}
		if !t.Before(windowStart) {
			recentSum += score
			recentN++
		} else {
			olderSum += score
			olderN++
		}
	}

	stats.TotalAnalyses = len(records)
	stats.AverageScore = roundHalfUp(sum / float64(len(records)))
	if recentN > 0 && olderN > 0 {
		stats.ImprovementRate = roundHalfUp(recentSum/float64(recentN) - olderSum/float64(olderN))
	}
	return stats
}

// Distribute groups records by exact exercise type, sorted by count
// descending. Groups with equal counts keep first-seen order.
func Distribute(records []*models.AnalysisRecord) []models.ExerciseDistribution {
	type group struct {
		exercise string
		count    int
		sum      int
	}

	groups := []*group{}
	byExercise := make(map[string]*group)
	for _, r := range records {
		g, ok := byExercise[r.ExerciseType]
		if !ok {
			g = &group{exercise: r.ExerciseType}
			byExercise[r.ExerciseType] = g
			groups = append(groups, g)
		}
		g.count++
		g.sum += r.FormScore
	}

	out := make([]models.ExerciseDistribution, 0, len(groups))
	for _, g := range groups {
		out = append(out, models.ExerciseDistribution{
			ExerciseType: g.exercise,
			Count:        g.count,
			AvgScore:     roundHalfUp(float64(g.sum) / float64(g.count)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// roundHalfUp rounds to the nearest integer with halves toward +Inf.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
