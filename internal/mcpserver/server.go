// Package mcpserver exposes the training store to AI assistants over the
// Model Context Protocol.
package mcpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/db"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "sub5"
	serverVersion = "1.0.0"
)

// ptr returns a pointer to the given value - useful for optional fields in structs
func ptr[T any](v T) *T {
	return &v
}

// Querier is the read side of *db.Queries used by the tools.
type Querier interface {
	ListActivities(ctx context.Context, f db.ActivityFilter) ([]activity.Activity, error)
	CountActivities(ctx context.Context) (int64, error)
	WeekSummary(ctx context.Context, since string) (report.WeekStats, error)
	LastSync(ctx context.Context) (*report.LastSync, error)
	ListWeeklyStats(ctx context.Context, limit int) ([]report.WeeklyStat, error)
	ListSyncLogs(ctx context.Context, limit int) ([]report.SyncLog, error)
}

// Options tunes New. Zero values fall back to time.Local and time.Now.
type Options struct {
	Location *time.Location
	Now      func() time.Time
}

// Server wraps the MCP server and database queries
type Server struct {
	mcp     *mcp.Server
	queries Querier
	loc     *time.Location
	now     func() time.Time
}

// New creates an MCP server with the dashboard tools, resources and prompts
// registered.
func New(queries Querier, opts Options) *Server {
	logging.Info("MCP server initializing", "name", serverName, "version", serverVersion)

	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		}, nil),
		queries: queries,
		loc:     opts.Location,
		now:     opts.Now,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	logging.Info("MCP server initialized", "tools_registered", 4, "resources_registered", 1, "prompts_registered", 1)
	return s
}

// MCPServer returns the underlying MCP server
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves a single client over stdio until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	logging.Info("MCP server starting", "transport", "stdio")
	defer logging.Info("MCP server stopped")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves the MCP streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
}

func (s *Server) today() time.Time {
	return s.now().In(s.loc)
}
