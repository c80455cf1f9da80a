// ABOUTME: MCP tool implementations for form analyses.
// ABOUTME: Records analyses and exposes list, lookup, stats and distribution queries.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/formlog/internal/models"
	"github.com/harperreed/formlog/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultListLimit = 20

func (s *Server) registerTools() {
	// record_analysis
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_analysis",
		Description: "Record a completed exercise form analysis",
	}, s.handleRecordAnalysis)

	// list_analyses
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_analyses",
		Description: "List recent analyses, optionally filtered by exercise type or fitness level",
	}, s.handleListAnalyses)

	// get_analysis
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_analysis",
		Description: "Get one analysis with its full report",
	}, s.handleGetAnalysis)

	// get_stats
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_stats",
		Description: "Get total analyses, average score, 7-day streak and 30-day improvement rate",
	}, s.handleGetStats)

	// get_distribution
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_distribution",
		Description: "Get analysis count and average score per exercise type",
	}, s.handleGetDistribution)

	// get_score_summary
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_score_summary",
		Description: "Get min, max, mean, median and 90th percentile form scores",
	}, s.handleGetScoreSummary)
}

// Tool input/output types

type recordAnalysisInput struct {
	ExerciseType     string   `json:"exercise_type" jsonschema:"Exercise analyzed, e.g. squat or pushup"`
	FormScore        int      `json:"form_score" jsonschema:"Form score from 0 to 100"`
	FitnessLevel     string   `json:"fitness_level,omitempty" jsonschema:"beginner, intermediate or advanced (default beginner)"`
	MediaType        string   `json:"media_type,omitempty" jsonschema:"video, image or url (default video)"`
	Goals            string   `json:"goals,omitempty" jsonschema:"Training goals"`
	SpecificConcerns string   `json:"specific_concerns,omitempty" jsonschema:"Concerns raised before the analysis"`
	Analysis         string   `json:"analysis,omitempty" jsonschema:"Full analysis report"`
	Recommendations  []string `json:"recommendations,omitempty" jsonschema:"Ordered recommendations"`
	KeyPoints        []string `json:"key_points,omitempty" jsonschema:"Ordered key points"`
	Improvements     []string `json:"improvements,omitempty" jsonschema:"Ordered improvements"`
	CreatedAt        string   `json:"created_at,omitempty" jsonschema:"Timestamp (ISO 8601), defaults to now"`
}

type recordOutput struct {
	ID      int64  `json:"id"`
	Saved   bool   `json:"saved"`
	Message string `json:"message"`
}

type listAnalysesInput struct {
	ExerciseType string `json:"exercise_type,omitempty" jsonschema:"Filter by exercise type (exact match)"`
	FitnessLevel string `json:"fitness_level,omitempty" jsonschema:"Filter by fitness level"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
	Offset       int    `json:"offset,omitempty" jsonschema:"Results to skip"`
}

type listOutput struct {
	Analyses []*models.AnalysisRecord `json:"analyses"`
	Count    int                      `json:"count"`
	Message  string                   `json:"message,omitempty"`
}

type getAnalysisInput struct {
	ID int64 `json:"id" jsonschema:"Analysis ID"`
}

type analysisOutput struct {
	Analysis *models.AnalysisRecord `json:"analysis"`
}

type statsInput struct {
	AsOf string `json:"as_of,omitempty" jsonschema:"Reference time (ISO 8601), defaults to now"`
}

type distributionInput struct{}

type distributionOutput struct {
	Exercises []models.ExerciseDistribution `json:"exercises"`
}

// Tool handlers

func (s *Server) handleRecordAnalysis(ctx context.Context, req *mcp.CallToolRequest, input recordAnalysisInput) (*mcp.CallToolResult, recordOutput, error) {
	a := models.NewAnalysis(input.ExerciseType, input.FormScore).
		WithRecommendations(input.Recommendations...).
		WithKeyPoints(input.KeyPoints...).
		WithImprovements(input.Improvements...).
		WithAnalysis(input.Analysis).
		WithCreatedAt(input.CreatedAt)
	if input.FitnessLevel != "" {
		a.WithFitnessLevel(input.FitnessLevel)
	}
	if input.MediaType != "" {
		a.WithMediaType(input.MediaType)
	}
	if input.Goals != "" {
		a.WithGoals(input.Goals)
	}
	if input.SpecificConcerns != "" {
		a.WithSpecificConcerns(input.SpecificConcerns)
	}

	if err := models.ValidateInput(a); err != nil {
		return nil, recordOutput{}, err
	}

	res, err := s.store.Insert(ctx, a)
	if err != nil {
		return nil, recordOutput{}, fmt.Errorf("failed to record analysis: %w", err)
	}

	if !res.Saved {
		return nil, recordOutput{
			ID:      res.ID,
			Saved:   false,
			Message: fmt.Sprintf("Analysis for %s was NOT saved (temporary ID: %d): %v", a.DisplayExercise(), res.ID, res.Err),
		}, nil
	}

	return nil, recordOutput{
		ID:      res.ID,
		Saved:   true,
		Message: fmt.Sprintf("Recorded %s analysis with score %d (ID: %d)", a.DisplayExercise(), a.FormScore, res.ID),
	}, nil
}

func (s *Server) handleListAnalyses(ctx context.Context, req *mcp.CallToolRequest, input listAnalysesInput) (*mcp.CallToolResult, listOutput, error) {
	if input.Limit <= 0 {
		input.Limit = defaultListLimit
	}

	var analyses []*models.AnalysisRecord
	var err error
	switch {
	case input.ExerciseType != "":
		analyses, err = s.query.ByCategory(ctx, input.ExerciseType)
		analyses = storage.Paginate(analyses, input.Limit, input.Offset)
	case input.FitnessLevel != "":
		analyses, err = s.query.ByFitnessLevel(ctx, input.FitnessLevel)
		analyses = storage.Paginate(analyses, input.Limit, input.Offset)
	default:
		analyses, err = s.query.Page(ctx, input.Limit, input.Offset)
	}
	if err != nil {
		return nil, listOutput{}, fmt.Errorf("failed to list analyses: %w", err)
	}

	out := listOutput{Analyses: analyses, Count: len(analyses)}
	if len(analyses) == 0 {
		out.Message = "No analyses found."
	}
	return nil, out, nil
}

func (s *Server) handleGetAnalysis(ctx context.Context, req *mcp.CallToolRequest, input getAnalysisInput) (*mcp.CallToolResult, analysisOutput, error) {
	a, err := s.store.Get(ctx, input.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, analysisOutput{}, fmt.Errorf("analysis not found: %d", input.ID)
		}
		return nil, analysisOutput{}, fmt.Errorf("failed to get analysis: %w", err)
	}
	return nil, analysisOutput{Analysis: a}, nil
}

func (s *Server) handleGetStats(ctx context.Context, req *mcp.CallToolRequest, input statsInput) (*mcp.CallToolResult, models.DerivedStats, error) {
	now, ok := asOf(input.AsOf, s.now())
	if !ok {
		return nil, models.DerivedStats{}, fmt.Errorf("invalid as_of timestamp: %s", input.AsOf)
	}

	st, err := s.stats.ComputeStats(ctx, now)
	if err != nil {
		return nil, models.DerivedStats{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	return nil, st, nil
}

func (s *Server) handleGetDistribution(ctx context.Context, req *mcp.CallToolRequest, input distributionInput) (*mcp.CallToolResult, distributionOutput, error) {
	dist, err := s.stats.ComputeDistribution(ctx)
	if err != nil {
		return nil, distributionOutput{}, fmt.Errorf("failed to compute distribution: %w", err)
	}
	return nil, distributionOutput{Exercises: dist}, nil
}

func (s *Server) handleGetScoreSummary(ctx context.Context, req *mcp.CallToolRequest, input distributionInput) (*mcp.CallToolResult, models.ScoreSummary, error) {
	summary, err := s.stats.ComputeScoreSummary(ctx)
	if err != nil {
		return nil, models.ScoreSummary{}, fmt.Errorf("failed to compute score summary: %w", err)
	}
	return nil, summary, nil
}

// asOf parses an optional timestamp, defaulting to now.
func asOf(value string, now time.Time) (time.Time, bool) {
	if value == "" {
		return now, true
	}
	return models.ParseTimestamp(value)
}
