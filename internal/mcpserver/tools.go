package mcpserver

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/db"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/format"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const dateLayout = "2006-01-02"

const (
	defaultSummaryDays   = 7
	maxSummaryDays       = 365
	defaultActivityLimit = 20
	maxActivityLimit     = 100
	defaultWeeks         = 12
	maxWeeks             = 52
	defaultSyncLimit     = 10
	maxSyncLimit         = 50
)

func readOnly(title string) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		Title:           title,
		ReadOnlyHint:    true,
		IdempotentHint:  true,
		OpenWorldHint:   ptr(false),
		DestructiveHint: ptr(false),
	}
}

func (s *Server) registerTools() {
	logging.Debug("Registering tool", "name", "get_dashboard_summary")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_dashboard_summary",
		Description: `Get the training summary shown on the dashboard overview: activity count, cycling and running kilometers, total duration, average heart rate and calories, plus the last sync.

Use when:
- User asks "How was my week?" or "How much did I ride lately?"
- User wants to know when data was last synced

Parameters:
- days (integer): Size of the window ending today. Default: 7, Max: 365.

Example: {} or {"days": 30}`,
		Annotations: readOnly("Get Dashboard Summary"),
	}, s.getDashboardSummary)

	logging.Debug("Registering tool", "name", "get_weekly_volume")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_weekly_volume",
		Description: `Get Monday-to-Sunday weekly training volume: cycling and running distance and time, activity count.

Use when:
- User asks "Show my weekly volume" or "Is my mileage going up?"

Parameters:
- weeks (integer): Number of most recent weeks, newest first. Default: 12, Max: 52.

Example: {"weeks": 4}`,
		Annotations: readOnly("Get Weekly Volume"),
	}, s.getWeeklyVolume)

	logging.Debug("Registering tool", "name", "find_activities")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "find_activities",
		Description: `Search stored activities with date and type filters.

Use when:
- User asks "Show me my latest ride" or "What did I do last week?"
- User wants the longest activity of a kind

Parameters:
- query (string): "latest", "oldest" or "longest". Returns a single activity matching the filters.
- type (string): Case-insensitive substring of the activity type, e.g. "cycling" or "running".
- start_date (string): Start date in YYYY-MM-DD format.
- end_date (string): End date in YYYY-MM-DD format.
- limit (integer): Number of activities to return, newest first. Default: 20, Max: 100.

Example: {"query": "latest"} or {"type": "running", "start_date": "2025-01-01", "limit": 10}`,
		Annotations: readOnly("Find Activities"),
	}, s.findActivities)

	logging.Debug("Registering tool", "name", "get_sync_history")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_sync_history",
		Description: `List recent background sync runs with their status and the number of activities imported.

Use when:
- User asks "Is my data up to date?" or "Why are my activities missing?"

Parameters:
- limit (integer): Number of runs, newest first. Default: 10, Max: 50.`,
		Annotations: readOnly("Get Sync History"),
	}, s.getSyncHistory)
}

// DashboardSummaryInput selects the summary window.
type DashboardSummaryInput struct {
	Days int `json:"days,omitempty" jsonschema:"Number of days ending today to summarize. Default: 7, Maximum: 365."`
}

// DashboardSummaryOutput mirrors /api/summary with a few derived fields.
type DashboardSummaryOutput struct {
	Since           string           `json:"since"`
	WeekStats       report.WeekStats `json:"week_stats"`
	TotalDuration   string           `json:"total_duration"`
	LastSync        *report.LastSync `json:"last_sync"`
	LastSyncAgo     string           `json:"last_sync_ago,omitempty"`
	StoredActivities int64            `json:"stored_activities"`
}

func (s *Server) getDashboardSummary(ctx context.Context, req *mcp.CallToolRequest, input DashboardSummaryInput) (*mcp.CallToolResult, DashboardSummaryOutput, error) {
	logging.Info("MCP tool call", "tool", "get_dashboard_summary", "days", input.Days)

	days, err := bounded("days", input.Days, defaultSummaryDays, maxSummaryDays)
	if err != nil {
		return nil, DashboardSummaryOutput{}, err
	}
	now := s.today()
	since := now.AddDate(0, 0, -days).Format(dateLayout)

	stats, err := s.queries.WeekSummary(ctx, since)
	if err != nil {
		return nil, DashboardSummaryOutput{}, databaseError("summary query", err)
	}
	last, err := s.queries.LastSync(ctx)
	if err != nil {
		return nil, DashboardSummaryOutput{}, databaseError("last sync query", err)
	}
	total, err := s.queries.CountActivities(ctx)
	if err != nil {
		return nil, DashboardSummaryOutput{}, databaseError("count", err)
	}

	out := DashboardSummaryOutput{
		Since:           since,
		WeekStats:       stats,
		TotalDuration:   format.DurationOrPlaceholder(stats.TotalDuration),
		LastSync:        last,
		StoredActivities: total,
	}
	if last != nil {
		if t, err := time.Parse(db.TimeLayout, last.Date); err == nil {
			out.LastSyncAgo = format.Ago(t, now)
		}
	}
	return nil, out, nil
}

// WeeklyVolumeInput selects how many weeks to return.
type WeeklyVolumeInput struct {
	Weeks int `json:"weeks,omitempty" jsonschema:"Number of most recent weeks to return. Default: 12, Maximum: 52."`
}

// WeekVolume is one stored week.
type WeekVolume struct {
	WeekStart       string  `json:"week_start"`
	WeekEnd         string  `json:"week_end"`
	CyclingKm       float64 `json:"cycling_km"`
	CyclingTime     string  `json:"cycling_time"`
	RunningKm       float64 `json:"running_km"`
	RunningTime     string  `json:"running_time"`
	TotalActivities int     `json:"total_activities"`
}

// WeeklyVolumeOutput lists weeks newest first.
type WeeklyVolumeOutput struct {
	Weeks          []WeekVolume `json:"weeks"`
	TotalCyclingKm float64      `json:"total_cycling_km"`
	TotalRunningKm float64      `json:"total_running_km"`
}

func (s *Server) getWeeklyVolume(ctx context.Context, req *mcp.CallToolRequest, input WeeklyVolumeInput) (*mcp.CallToolResult, WeeklyVolumeOutput, error) {
	logging.Info("MCP tool call", "tool", "get_weekly_volume", "weeks", input.Weeks)

	limit, err := bounded("weeks", input.Weeks, defaultWeeks, maxWeeks)
	if err != nil {
		return nil, WeeklyVolumeOutput{}, err
	}
	stats, err := s.queries.ListWeeklyStats(ctx, limit)
	if err != nil {
		return nil, WeeklyVolumeOutput{}, databaseError("weekly stats query", err)
	}

	out := WeeklyVolumeOutput{Weeks: make([]WeekVolume, 0, len(stats))}
	for _, w := range stats {
		out.Weeks = append(out.Weeks, WeekVolume{
			WeekStart:       w.WeekStart,
			WeekEnd:         w.WeekEnd,
			CyclingKm:       round(w.TotalCyclingKm, 2),
			CyclingTime:     format.DurationOrPlaceholder(w.TotalCyclingTime),
			RunningKm:       round(w.TotalRunningKm, 2),
			RunningTime:     format.DurationOrPlaceholder(w.TotalRunningTime),
			TotalActivities: w.TotalActivities,
		})
		out.TotalCyclingKm += w.TotalCyclingKm
		out.TotalRunningKm += w.TotalRunningKm
	}
	out.TotalCyclingKm = round(out.TotalCyclingKm, 2)
	out.TotalRunningKm = round(out.TotalRunningKm, 2)
	return nil, out, nil
}

// FindActivitiesInput filters the stored activities.
type FindActivitiesInput struct {
	Query     string `json:"query,omitempty" jsonschema:"Shortcut returning one activity: 'latest', 'oldest' or 'longest' (greatest distance). Filters still apply."`
	Type      string `json:"type,omitempty" jsonschema:"Case-insensitive substring of the activity type, e.g. cycling, running, virtual_cycling."`
	StartDate string `json:"start_date,omitempty" jsonschema:"Include activities on or after this date. Format: YYYY-MM-DD."`
	EndDate   string `json:"end_date,omitempty" jsonschema:"Include activities on or before this date. Format: YYYY-MM-DD."`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of activities to return. Default: 20, Maximum: 100."`
}

// ActivitySummary is the assistant-facing view of an activity.
type ActivitySummary struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Name        string  `json:"name,omitempty"`
	DistanceKm  float64 `json:"distance_km,omitempty"`
	Duration    string  `json:"duration"`
	AvgSpeedKmh float64 `json:"avg_speed_kmh,omitempty"`
	AvgHR       float64 `json:"avg_hr,omitempty"`
	AvgPower    float64 `json:"avg_power,omitempty"`
	TSS         float64 `json:"tss,omitempty"`
	Calories    float64 `json:"calories,omitempty"`
}

// FindActivitiesOutput - output for activity search
type FindActivitiesOutput struct {
	Query         string            `json:"query,omitempty"`
	Activities    []ActivitySummary `json:"activities"`
	TotalMatching int               `json:"total_matching"`
}

func (s *Server) findActivities(ctx context.Context, req *mcp.CallToolRequest, input FindActivitiesInput) (*mcp.CallToolResult, FindActivitiesOutput, error) {
	logging.Info("MCP tool call", "tool", "find_activities", "query", input.Query, "type", input.Type)
	if logging.IsVerbose() {
		logging.Debug("MCP request params", "tool", "find_activities", "input", logging.ToJSON(input))
	}

	limit, err := bounded("limit", input.Limit, defaultActivityLimit, maxActivityLimit)
	if err != nil {
		return nil, FindActivitiesOutput{}, err
	}
	if err := checkRange(input.StartDate, input.EndDate); err != nil {
		return nil, FindActivitiesOutput{}, err
	}

	filter := db.ActivityFilter{
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Type:      input.Type,
		Limit:     limit,
	}
	switch input.Query {
	case "":
	case "latest":
		filter.Limit = 1
	case "oldest", "longest":
		filter.Limit = 0
	default:
		return nil, FindActivitiesOutput{}, invalidInput("unknown query", fmt.Sprintf("query=%q, want latest, oldest or longest", input.Query))
	}

	found, err := s.queries.ListActivities(ctx, filter)
	if err != nil {
		return nil, FindActivitiesOutput{}, databaseError("activity search", err)
	}

	out := FindActivitiesOutput{Query: input.Query, Activities: []ActivitySummary{}, TotalMatching: len(found)}
	switch input.Query {
	case "oldest":
		found = found[max(len(found)-1, 0):]
	case "longest":
		if len(found) > 0 {
			found = []activity.Activity{slices.MaxFunc(found, func(a, b activity.Activity) int {
				return cmp.Compare(a.Distance, b.Distance)
			})}
		}
	}
	for _, a := range found {
		out.Activities = append(out.Activities, convertActivity(a))
	}
	if input.Query == "" {
		out.TotalMatching = len(out.Activities)
	}
	return nil, out, nil
}

// SyncHistoryInput limits the number of runs returned.
type SyncHistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Number of sync runs to return. Default: 10, Maximum: 50."`
}

// SyncRun is one sync log entry.
type SyncRun struct {
	ID               int64  `json:"id"`
	SyncDate         string `json:"sync_date"`
	Status           string `json:"status"`
	ActivitiesSynced int    `json:"activities_synced"`
	ErrorMessage     string `json:"error_message,omitempty"`
}

// SyncHistoryOutput lists sync runs newest first.
type SyncHistoryOutput struct {
	Runs   []SyncRun `json:"runs"`
	Failed int       `json:"failed"`
}

func (s *Server) getSyncHistory(ctx context.Context, req *mcp.CallToolRequest, input SyncHistoryInput) (*mcp.CallToolResult, SyncHistoryOutput, error) {
	logging.Info("MCP tool call", "tool", "get_sync_history", "limit", input.Limit)

	limit, err := bounded("limit", input.Limit, defaultSyncLimit, maxSyncLimit)
	if err != nil {
		return nil, SyncHistoryOutput{}, err
	}
	logs, err := s.queries.ListSyncLogs(ctx, limit)
	if err != nil {
		return nil, SyncHistoryOutput{}, databaseError("sync log query", err)
	}

	out := SyncHistoryOutput{Runs: make([]SyncRun, 0, len(logs))}
	for _, l := range logs {
		out.Runs = append(out.Runs, SyncRun{
			ID:               l.ID,
			SyncDate:         l.SyncDate,
			Status:           l.Status,
			ActivitiesSynced: l.ActivitiesSynced,
			ErrorMessage:     l.ErrorMessage,
		})
		if !l.Succeeded() {
			out.Failed++
		}
	}
	return nil, out, nil
}

func convertActivity(a activity.Activity) ActivitySummary {
	category := "other"
	switch {
	case a.IsCycling():
		category = "cycling"
	case a.IsRunning():
		category = "running"
	}
	return ActivitySummary{
		ID:          a.ID,
		Date:        a.Date,
		Type:        a.Type,
		Category:    category,
		Name:        a.Name,
		DistanceKm:  round(a.Km(), 2),
		Duration:    format.DurationOrPlaceholder(a.Duration),
		AvgSpeedKmh: round(format.SpeedKmh(a.AvgSpeed), 1),
		AvgHR:       a.AvgHR,
		AvgPower:    a.AvgPower,
		TSS:         a.TSS,
		Calories:    a.Calories,
	}
}

// bounded applies the default for zero and rejects values outside 1..limit.
func bounded(name string, v, def, limit int) (int, error) {
	switch {
	case v == 0:
		return def, nil
	case v < 0 || v > limit:
		return 0, invalidInput(fmt.Sprintf("%s out of range", name), fmt.Sprintf("%s=%d, want 1..%d", name, v, limit))
	}
	return v, nil
}

func checkRange(start, end string) error {
	var from, to time.Time
	for _, d := range []struct {
		name  string
		value string
		into  *time.Time
	}{{"start_date", start, &from}, {"end_date", end, &to}} {
		if d.value == "" {
			continue
		}
		t, err := time.Parse(dateLayout, d.value)
		if err != nil {
			return invalidInput("invalid "+d.name, "expected YYYY-MM-DD, got "+d.value)
		}
		*d.into = t
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return invalidInput("end_date is before start_date", start+" > "+end)
	}
	return nil
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
