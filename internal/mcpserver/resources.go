package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const summaryURI = "sub5://summary/week/current"

func (s *Server) registerResources() {
	logging.Debug("Registering MCP resources")

	s.mcp.AddResource(&mcp.Resource{
		URI:         summaryURI,
		Name:        "current_summary",
		Description: "Training totals for the last 7 days and the most recent sync",
		MIMEType:    "application/json",
	}, s.readSummary)
}

// readSummary returns the same payload as get_dashboard_summary with defaults.
func (s *Server) readSummary(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	logging.Info("MCP resource read", "resource", "current_summary")

	_, summary, err := s.getDashboardSummary(ctx, nil, DashboardSummaryInput{})
	if err != nil {
		logging.Error("readSummary failed", "error", err)
		return nil, err
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, internalError("failed to marshal summary", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      summaryURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}

func (s *Server) registerPrompts() {
	logging.Debug("Registering MCP prompts")

	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        "weekly_review",
		Description: "Review recent training volume with cycling and running trends",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "weeks",
				Description: "How many weeks to compare, e.g. '4'",
				Required:    false,
			},
		},
	}, s.weeklyReviewPrompt)
}

func (s *Server) weeklyReviewPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	weeks := "4"
	if req.Params.Arguments != nil {
		if w, ok := req.Params.Arguments["weeks"]; ok && w != "" {
			weeks = w
		}
	}

	logging.Info("MCP prompt requested", "prompt", "weekly_review", "weeks", weeks)

	text := fmt.Sprintf(`Please review my training over the last %s weeks.

Use the following tools to gather data:
1. **get_weekly_volume** with weeks=%s for the weekly cycling and running totals
2. **get_dashboard_summary** for the current week and the last sync
3. **find_activities** for any week that stands out

Then provide:
- **Volume**: kilometers and hours per week for cycling and running
- **Trend**: whether load is rising or dropping
- **Recommendations**: what to adjust in the coming week

If the last sync failed or is old, say so before drawing conclusions.`, weeks, weeks)

	return &mcp.GetPromptResult{
		Description: "Weekly training review prompt",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}, nil
}
