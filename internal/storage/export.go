// ABOUTME: Export and import functionality for the analysis journal.
// ABOUTME: Supports JSON, YAML, and Markdown export formats; JSON import.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/harperreed/formlog/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData is the full export format.
type ExportData struct {
	Version    string                   `json:"version" yaml:"version"`
	ExportedAt time.Time                `json:"exported_at" yaml:"exported_at"`
	Tool       string                   `json:"tool" yaml:"tool"`
	Analyses   []*models.AnalysisRecord `json:"analyses" yaml:"analyses"`
}

// GetAllData collects every record for export. Unlike GetAll, a read fault is
// returned as an error so an export never silently comes out empty.
func (s *Store) GetAllData(ctx context.Context) (*ExportData, error) {
	analyses, err := s.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}

	return &ExportData{
		Version:    "1.0",
		ExportedAt: s.now().UTC(),
		Tool:       "formlog",
		Analyses:   analyses,
	}, nil
}

// ImportData inserts every record in data, oldest first, so new ids follow
// the original chronology. created_at values are kept verbatim. It returns the
// number of records saved before any failure.
//
// A nil export or a null entry is rejected before anything is inserted.
func (s *Store) ImportData(ctx context.Context, data *ExportData) (int, error) {
	if data == nil {
		return 0, fmt.Errorf("%w: no export data", ErrInsertFailed)
	}
	for i, a := range data.Analyses {
		if a == nil {
			return 0, fmt.Errorf("%w: analysis %d is null", ErrInsertFailed, i)
		}
	}

	imported := 0
	for i := len(data.Analyses) - 1; i >= 0; i-- {
		a := data.Analyses[i]
		res, err := s.Insert(ctx, a)
		if err != nil {
			return imported, fmt.Errorf("import analysis: %w", err)
		}
		if !res.Saved {
			return imported, fmt.Errorf("import analysis %s at %s: %w", a.ExerciseType, a.CreatedAt, res.Err)
		}
		imported++
	}
	return imported, nil
}

// ExportJSON exports all data as JSON.
func (s *Store) ExportJSON(ctx context.Context) ([]byte, error) {
	data, err := s.GetAllData(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ImportJSON imports data from JSON bytes.
func (s *Store) ImportJSON(ctx context.Context, raw []byte) (int, error) {
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return 0, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return s.ImportData(ctx, &data)
}

// ExportYAML exports all data as YAML with analyses grouped by exercise type.
func (s *Store) ExportYAML(ctx context.Context) ([]byte, error) {
	data, err := s.GetAllData(ctx)
	if err != nil {
		return nil, err
	}

	yamlData := struct {
		Version    string                    `yaml:"version"`
		ExportedAt string                    `yaml:"exported_at"`
		Tool       string                    `yaml:"tool"`
		Analyses   map[string][]yamlAnalysis `yaml:"analyses"`
	}{
		Version:    data.Version,
		ExportedAt: data.ExportedAt.Format(time.RFC3339),
		Tool:       data.Tool,
		Analyses:   make(map[string][]yamlAnalysis),
	}

	for _, a := range data.Analyses {
		yamlData.Analyses[a.ExerciseType] = append(yamlData.Analyses[a.ExerciseType], yamlAnalysis{
			ID:              a.ID,
			Score:           a.FormScore,
			Level:           a.FitnessLevel,
			Media:           a.MediaType,
			CreatedAt:       a.CreatedAt,
			Recommendations: a.Recommendations,
			KeyPoints:       a.KeyPoints,
			Improvements:    a.Improvements,
		})
	}

	return yaml.Marshal(yamlData)
}

type yamlAnalysis struct {
	ID              int64    `yaml:"id"`
	Score           int      `yaml:"score"`
	Level           string   `yaml:"level"`
	Media           string   `yaml:"media"`
	CreatedAt       string   `yaml:"created_at"`
	Recommendations []string `yaml:"recommendations,omitempty"`
	KeyPoints       []string `yaml:"key_points,omitempty"`
	Improvements    []string `yaml:"improvements,omitempty"`
}

// ExportMarkdown exports analyses as a Markdown table, optionally limited to
// one exercise type and to records created at or after since.
func (s *Store) ExportMarkdown(ctx context.Context, exerciseType *string, since *time.Time) (string, error) {
	var analyses []*models.AnalysisRecord
	var err error
	if exerciseType != nil {
		analyses, err = s.GetByCategory(ctx, *exerciseType)
	} else {
		analyses, err = s.GetAll(ctx)
	}
	if err != nil {
		return "", err
	}

	if since != nil {
		var filtered []*models.AnalysisRecord
		for _, a := range analyses {
			if t, ok := a.CreatedTime(); ok && !t.Before(*since) {
				filtered = append(filtered, a)
			}
		}
		analyses = filtered
	}

	var sb strings.Builder
	now := s.now()

	sb.WriteString(fmt.Sprintf("# Form Analysis Export - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	if exerciseType != nil {
		sb.WriteString(fmt.Sprintf("## %s\n\n", strings.ToLower(*exerciseType)))
	}
	sb.WriteString("| Date | Exercise | Score | Level | Media |\n")
	sb.WriteString("|------|----------|-------|-------|-------|\n")
	for _, a := range analyses {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s |\n",
			displayDate(a), a.DisplayExercise(), a.FormScore, a.FitnessLevel, a.MediaType))
	}

	return sb.String(), nil
}

func displayDate(a *models.AnalysisRecord) string {
	if t, ok := a.CreatedTime(); ok {
		return t.Format("2006-01-02 15:04")
	}
	return a.CreatedAt
}
