// ABOUTME: MCP resource implementations for the analysis journal.
// ABOUTME: Provides formlog://recent, formlog://stats, and formlog://distribution resources.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	recentURI       = "formlog://recent"
	statsURI        = "formlog://stats"
	distributionURI = "formlog://distribution"

	recentResourceLimit = 10
)

func (s *Server) registerResources() {
	// formlog://recent - Last 10 analyses
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         recentURI,
		Name:        "Recent Analyses",
		Description: "The 10 most recent form analyses",
		MIMEType:    "application/json",
	}, s.handleRecentResource)

	// formlog://stats - Dashboard numbers
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         statsURI,
		Name:        "Progress Dashboard",
		Description: "Totals, average score, 7-day streak, 30-day improvement and score spread",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	// formlog://distribution - Per-exercise breakdown
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         distributionURI,
		Name:        "Exercise Distribution",
		Description: "Analysis count and average score per exercise type",
		MIMEType:    "application/json",
	}, s.handleDistributionResource)
}

// Resource handlers

func (s *Server) handleRecentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	analyses, err := s.query.Recent(ctx, recentResourceLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	return jsonResource(recentURI, map[string]interface{}{
		"analyses": analyses,
		"count":    len(analyses),
	})
}

func (s *Server) handleStatsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	now := s.now()

	st, err := s.stats.ComputeStats(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	summary, err := s.stats.ComputeScoreSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute score summary: %w", err)
	}

	return jsonResource(statsURI, map[string]interface{}{
		"generated_at": now.Format(time.RFC3339),
		"stats":        st,
		"scores":       summary,
	})
}

func (s *Server) handleDistributionResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	dist, err := s.stats.ComputeDistribution(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute distribution: %w", err)
	}

	return jsonResource(distributionURI, map[string]interface{}{
		"exercises": dist,
	})
}

func jsonResource(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
