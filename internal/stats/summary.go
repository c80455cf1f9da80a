// ABOUTME: Score spread summary backed by a DDSketch quantile sketch.
// ABOUTME: Min, max and mean are exact; p50 and p90 carry 1% relative error.
package stats

import (
	"fmt"
	"math"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/harperreed/formlog/internal/models"
)

const sketchAccuracy = 0.01

// SummarizeScores computes count, min, max, mean and quantiles over records.
// An empty set yields all zeros. Quantiles are clamped to the observed
// [min, max] range since the sketch estimate can overshoot integer scores.
func SummarizeScores(records []*models.AnalysisRecord) (models.ScoreSummary, error) {
	var summary models.ScoreSummary
	if len(records) == 0 {
		return summary, nil
	}

	sketch, err := ddsketch.NewDefaultDDSketch(sketchAccuracy)
	if err != nil {
		return summary, fmt.Errorf("create score sketch: %w", err)
	}

	minScore, maxScore := math.MaxInt, math.MinInt
	var sum float64
	for _, r := range records {
		if r.FormScore < minScore {
			minScore = r.FormScore
		}
		if r.FormScore > maxScore {
			maxScore = r.FormScore
		}
		sum += float64(r.FormScore)
		if err := sketch.Add(float64(r.FormScore)); err != nil {
			return models.ScoreSummary{}, fmt.Errorf("add score %d: %w", r.FormScore, err)
		}
	}

	summary.Count = len(records)
	summary.Min = minScore
	summary.Max = maxScore
	summary.Mean = roundHalfUp(sum / float64(len(records)))

	if summary.P50, err = quantile(sketch, 0.5, minScore, maxScore); err != nil {
		return models.ScoreSummary{}, err
	}
	if summary.P90, err = quantile(sketch, 0.9, minScore, maxScore); err != nil {
		return models.ScoreSummary{}, err
	}
	return summary, nil
}

// quantile reads q from the sketch, rounded and clamped to [lo, hi].
func quantile(sketch *ddsketch.DDSketch, q float64, lo, hi int) (int, error) {
	v, err := sketch.GetValueAtQuantile(q)
	if err != nil {
		return 0, fmt.Errorf("score quantile %v: %w", q, err)
	}
	return clamp(roundHalfUp(v), lo, hi), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
