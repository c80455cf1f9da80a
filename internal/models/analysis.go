// ABOUTME: AnalysisRecord model for completed exercise-form analyses.
// ABOUTME: Records are append-only; id and created_at are assigned by the store.
package models

import (
	"strings"
	"time"
)

// Conventional fitness levels. The store does not enforce them.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Conventional media types. The store does not enforce them.
const (
	MediaVideo = "video"
	MediaImage = "image"
	MediaURL   = "url"
)

// AnalysisRecord is one completed form analysis.
type AnalysisRecord struct {
	ID               int64    `json:"id,omitempty" yaml:"id,omitempty"`
	ExerciseType     string   `json:"exercise_type" yaml:"exercise_type" validate:"required"`
	FitnessLevel     string   `json:"fitness_level" yaml:"fitness_level"`
	Goals            *string  `json:"goals,omitempty" yaml:"goals,omitempty"`
	SpecificConcerns *string  `json:"specific_concerns,omitempty" yaml:"specific_concerns,omitempty"`
	FormScore        int      `json:"form_score" yaml:"form_score" validate:"gte=0,lte=100"`
	Analysis         string   `json:"analysis" yaml:"analysis"`
	Recommendations  []string `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	KeyPoints        []string `json:"key_points,omitempty" yaml:"key_points,omitempty"`
	Improvements     []string `json:"improvements,omitempty" yaml:"improvements,omitempty"`
	MediaType        string   `json:"media_type" yaml:"media_type" validate:"oneof=video image url"`
	// CreatedAt is an ISO-8601 string. Caller-supplied values are kept verbatim.
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// NewAnalysis creates a record for the given exercise and score.
// ID and CreatedAt are left empty for the store to assign.
func NewAnalysis(exerciseType string, formScore int) *AnalysisRecord {
	return &AnalysisRecord{
		ExerciseType: exerciseType,
		FitnessLevel: LevelBeginner,
		FormScore:    formScore,
		MediaType:    MediaVideo,
	}
}

// WithFitnessLevel sets the fitness level.
func (a *AnalysisRecord) WithFitnessLevel(level string) *AnalysisRecord {
	a.FitnessLevel = level
	return a
}

// WithMediaType sets the media type.
func (a *AnalysisRecord) WithMediaType(mediaType string) *AnalysisRecord {
	a.MediaType = mediaType
	return a
}

// WithGoals sets the goals text.
func (a *AnalysisRecord) WithGoals(goals string) *AnalysisRecord {
	a.Goals = &goals
	return a
}

// WithSpecificConcerns sets the concerns text.
func (a *AnalysisRecord) WithSpecificConcerns(concerns string) *AnalysisRecord {
	a.SpecificConcerns = &concerns
	return a
}

// WithAnalysis sets the generated report text.
func (a *AnalysisRecord) WithAnalysis(text string) *AnalysisRecord {
	a.Analysis = text
	return a
}

// WithRecommendations sets the ordered recommendations.
func (a *AnalysisRecord) WithRecommendations(recs ...string) *AnalysisRecord {
	a.Recommendations = recs
	return a
}

// WithKeyPoints sets the ordered key points.
func (a *AnalysisRecord) WithKeyPoints(points ...string) *AnalysisRecord {
	a.KeyPoints = points
	return a
}

// WithImprovements sets the ordered improvements.
func (a *AnalysisRecord) WithImprovements(improvements ...string) *AnalysisRecord {
	a.Improvements = improvements
	return a
}

// WithCreatedAt sets a caller-supplied timestamp string.
func (a *AnalysisRecord) WithCreatedAt(createdAt string) *AnalysisRecord {
	a.CreatedAt = createdAt
	return a
}

// WithCreatedAtTime formats t the same way the store does.
func (a *AnalysisRecord) WithCreatedAtTime(t time.Time) *AnalysisRecord {
	a.CreatedAt = FormatTimestamp(t)
	return a
}

// Clone returns a deep copy of the record.
func (a *AnalysisRecord) Clone() *AnalysisRecord {
	if a == nil {
		return nil
	}
	c := *a
	if a.Goals != nil {
		g := *a.Goals
		c.Goals = &g
	}
	if a.SpecificConcerns != nil {
		s := *a.SpecificConcerns
		c.SpecificConcerns = &s
	}
	c.Recommendations = cloneStrings(a.Recommendations)
	c.KeyPoints = cloneStrings(a.KeyPoints)
	c.Improvements = cloneStrings(a.Improvements)
	return &c
}

// DisplayExercise returns the exercise type lower-cased for display.
func (a *AnalysisRecord) DisplayExercise() string {
	return strings.ToLower(a.ExerciseType)
}

// CreatedTime parses CreatedAt. ok is false when the value is not a
// recognizable timestamp.
func (a *AnalysisRecord) CreatedTime() (t time.Time, ok bool) {
	return ParseTimestamp(a.CreatedAt)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
