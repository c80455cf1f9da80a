// ABOUTME: MCP server setup for the formlog analysis journal.
// ABOUTME: Wraps the MCP server with the record store, query layer and stats engine.
package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/harperreed/formlog/internal/logging"
	"github.com/harperreed/formlog/internal/query"
	"github.com/harperreed/formlog/internal/stats"
	"github.com/harperreed/formlog/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// Server wraps the MCP server with storage access.
type Server struct {
	mcpServer *mcp.Server
	store     *storage.Store
	query     *query.Service
	stats     *stats.Engine
	now       func() time.Time
	log       zerolog.Logger
}

// NewServer creates a new MCP server over the given store.
func NewServer(store *storage.Store) (*Server, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "formlog",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		store:     store,
		query:     query.New(store),
		stats:     stats.New(store),
		now:       time.Now,
		log:       logging.Component("mcp"),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info().Msg("serving MCP over stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
