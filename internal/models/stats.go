// ABOUTME: Derived statistics types computed on demand from the record log.
// ABOUTME: None of these are persisted.
package models

// DerivedStats is the dashboard summary over all records.
type DerivedStats struct {
	TotalAnalyses   int `json:"total_analyses" yaml:"total_analyses"`
	AverageScore    int `json:"average_score" yaml:"average_score"`
	CurrentStreak   int `json:"current_streak" yaml:"current_streak"`
	ImprovementRate int `json:"improvement_rate" yaml:"improvement_rate"`
}

// ExerciseDistribution is the count and mean score for one exercise type.
type ExerciseDistribution struct {
	ExerciseType string `json:"exercise_type" yaml:"exercise_type"`
	Count        int    `json:"count" yaml:"count"`
	AvgScore     int    `json:"avg_score" yaml:"avg_score"`
}

// ScoreSummary describes the spread of form scores.
type ScoreSummary struct {
	Count int `json:"count" yaml:"count"`
	Min   int `json:"min" yaml:"min"`
	Max   int `json:"max" yaml:"max"`
	Mean  int `json:"mean" yaml:"mean"`
	P50   int `json:"p50" yaml:"p50"`
	P90   int `json:"p90" yaml:"p90"`
}
