package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/db"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

// mockQuerier implements Querier for testing
type mockQuerier struct {
	activities []activity.Activity // newest first
	weeks      []report.WeeklyStat
	logs       []report.SyncLog
	stats      report.WeekStats
	err        error

	gotSince  string
	gotFilter db.ActivityFilter
	gotLimit  int
}

func (m *mockQuerier) ListActivities(_ context.Context, f db.ActivityFilter) ([]activity.Activity, error) {
	m.gotFilter = f
	if m.err != nil {
		return nil, m.err
	}
	out := m.activities
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *mockQuerier) CountActivities(context.Context) (int64, error) {
	return int64(len(m.activities)), m.err
}

func (m *mockQuerier) WeekSummary(_ context.Context, since string) (report.WeekStats, error) {
	m.gotSince = since
	return m.stats, m.err
}

func (m *mockQuerier) LastSync(context.Context) (*report.LastSync, error) {
	if len(m.logs) == 0 {
		return nil, m.err
	}
	l := m.logs[0]
	return &report.LastSync{Date: l.SyncDate, Status: l.Status, ActivitiesSynced: l.ActivitiesSynced}, m.err
}

func (m *mockQuerier) ListWeeklyStats(_ context.Context, limit int) ([]report.WeeklyStat, error) {
	m.gotLimit = limit
	return m.weeks, m.err
}

func (m *mockQuerier) ListSyncLogs(_ context.Context, limit int) ([]report.SyncLog, error) {
	m.gotLimit = limit
	return m.logs, m.err
}

func fixture() *mockQuerier {
	return &mockQuerier{
		activities: []activity.Activity{
			{ID: "3", Date: "2025-03-11", Type: "running", Name: "Tempo", Distance: 10000, Duration: 2700, AvgSpeed: 3.7, AvgHR: 158},
			{ID: "2", Date: "2025-03-09", Type: "cycling", Name: "Long ride", Distance: 80500, Duration: 10800, AvgSpeed: 7.45},
			{ID: "1", Date: "2025-03-05", Type: "yoga", Duration: 1800},
		},
		weeks: []report.WeeklyStat{
			{WeekStart: "2025-03-10", WeekEnd: "2025-03-16", TotalRunningKm: 10, TotalRunningTime: 2700, TotalActivities: 1},
			{WeekStart: "2025-03-03", WeekEnd: "2025-03-09", TotalCyclingKm: 80.5, TotalCyclingTime: 10800, TotalActivities: 2},
		},
		logs: []report.SyncLog{
			{ID: 2, SyncDate: "2025-03-12T09:00:00Z", Status: report.StatusSuccess, ActivitiesSynced: 3},
			{ID: 1, SyncDate: "2025-03-11T09:00:00Z", Status: report.StatusError, ErrorMessage: "rate limited"},
		},
		stats: report.WeekStats{TotalActivities: 2, TotalCyclingKm: 80.5, TotalRunningKm: 10, TotalDuration: 13500, AvgHR: 158},
	}
}

func connect(t *testing.T, q Querier) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	srv := New(q, Options{Location: time.UTC, Now: func() time.Time { return fixedNow }})
	serverT, clientT := mcp.NewInMemoryTransports()
	ss, err := srv.MCPServer().Connect(ctx, serverT, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any, out any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	if out != nil && !res.IsError {
		require.NoError(t, json.Unmarshal([]byte(text.Text), out))
	}
	return res
}

func errorText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, res.IsError)
	return res.Content[0].(*mcp.TextContent).Text
}

func TestListTools(t *testing.T) {
	cs := connect(t, fixture())

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		assert.True(t, tool.Annotations.ReadOnlyHint, tool.Name)
	}
	assert.ElementsMatch(t, []string{"get_dashboard_summary", "get_weekly_volume", "find_activities", "get_sync_history"}, names)
}

func TestDashboardSummary(t *testing.T) {
	q := fixture()
	cs := connect(t, q)

	var out DashboardSummaryOutput
	res := call(t, cs, "get_dashboard_summary", nil, &out)
	require.False(t, res.IsError)

	assert.Equal(t, "2025-03-05", q.gotSince)
	assert.Equal(t, "2025-03-05", out.Since)
	assert.Equal(t, 2, out.WeekStats.TotalActivities)
	assert.Equal(t, "3:45:00", out.TotalDuration)
	assert.EqualValues(t, 3, out.StoredActivities)
	require.NotNil(t, out.LastSync)
	assert.Equal(t, report.StatusSuccess, out.LastSync.Status)
	assert.Equal(t, "1 hour ago", out.LastSyncAgo)
}

func TestDashboardSummary_CustomWindowAndNoSync(t *testing.T) {
	q := fixture()
	q.logs = nil
	cs := connect(t, q)

	var out DashboardSummaryOutput
	call(t, cs, "get_dashboard_summary", map[string]any{"days": 30}, &out)

	assert.Equal(t, "2025-02-10", q.gotSince)
	assert.Nil(t, out.LastSync)
	assert.Empty(t, out.LastSyncAgo)
}

func TestDashboardSummary_DatabaseError(t *testing.T) {
	q := fixture()
	q.err = errors.New("disk I/O error")
	cs := connect(t, q)

	res := call(t, cs, "get_dashboard_summary", nil, nil)
	assert.Contains(t, errorText(t, res), "DATABASE_ERROR")
	assert.Contains(t, errorText(t, res), "disk I/O error")
}

func TestWeeklyVolume(t *testing.T) {
	q := fixture()
	cs := connect(t, q)

	var out WeeklyVolumeOutput
	call(t, cs, "get_weekly_volume", map[string]any{"weeks": 2}, &out)

	assert.Equal(t, 2, q.gotLimit)
	require.Len(t, out.Weeks, 2)
	assert.Equal(t, "2025-03-10", out.Weeks[0].WeekStart)
	assert.Equal(t, "45:00", out.Weeks[0].RunningTime)
	assert.Equal(t, "—", out.Weeks[0].CyclingTime)
	assert.Equal(t, "3:00:00", out.Weeks[1].CyclingTime)
	assert.InDelta(t, 80.5, out.TotalCyclingKm, 1e-9)
	assert.InDelta(t, 10, out.TotalRunningKm, 1e-9)
}

func TestWeeklyVolume_DefaultAndEmpty(t *testing.T) {
	q := fixture()
	q.weeks = nil
	cs := connect(t, q)

	var out WeeklyVolumeOutput
	res := call(t, cs, "get_weekly_volume", nil, &out)
	require.False(t, res.IsError)

	assert.Equal(t, defaultWeeks, q.gotLimit)
	assert.NotNil(t, out.Weeks)
	assert.Empty(t, out.Weeks)
}

func TestFindActivities(t *testing.T) {
	tests := []struct {
		name      string
		args      map[string]any
		wantIDs   []string
		wantLimit int
	}{
		{"default", nil, []string{"3", "2", "1"}, defaultActivityLimit},
		{"limit", map[string]any{"limit": 2}, []string{"3", "2"}, 2},
		{"latest", map[string]any{"query": "latest"}, []string{"3"}, 1},
		{"oldest", map[string]any{"query": "oldest"}, []string{"1"}, 0},
		{"longest", map[string]any{"query": "longest"}, []string{"2"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := fixture()
			cs := connect(t, q)

			var out FindActivitiesOutput
			res := call(t, cs, "find_activities", tt.args, &out)
			require.False(t, res.IsError)

			var ids []string
			for _, a := range out.Activities {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantLimit, q.gotFilter.Limit)
		})
	}
}

func TestFindActivities_PassesFilters(t *testing.T) {
	q := fixture()
	cs := connect(t, q)

	var out FindActivitiesOutput
	call(t, cs, "find_activities", map[string]any{
		"type":       "running",
		"start_date": "2025-03-01",
		"end_date":   "2025-03-31",
	}, &out)

	assert.Equal(t, db.ActivityFilter{StartDate: "2025-03-01", EndDate: "2025-03-31", Type: "running", Limit: defaultActivityLimit}, q.gotFilter)
}

func TestFindActivities_Summary(t *testing.T) {
	cs := connect(t, fixture())

	var out FindActivitiesOutput
	call(t, cs, "find_activities", map[string]any{"query": "latest"}, &out)

	require.Len(t, out.Activities, 1)
	a := out.Activities[0]
	assert.Equal(t, "running", a.Category)
	assert.Equal(t, 10.0, a.DistanceKm)
	assert.Equal(t, "45:00", a.Duration)
	assert.InDelta(t, 13.3, a.AvgSpeedKmh, 1e-9)
	assert.Equal(t, 158.0, a.AvgHR)
	assert.Equal(t, 1, out.TotalMatching)
}

func TestFindActivities_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"bad start", map[string]any{"start_date": "03/01/2025"}, "invalid start_date"},
		{"bad end", map[string]any{"end_date": "yesterday"}, "invalid end_date"},
		{"reversed", map[string]any{"start_date": "2025-03-10", "end_date": "2025-03-01"}, "end_date is before start_date"},
		{"limit too big", map[string]any{"limit": 500}, "limit out of range"},
		{"negative limit", map[string]any{"limit": -1}, "limit out of range"},
		{"unknown query", map[string]any{"query": "fastest"}, "unknown query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := connect(t, fixture())
			res := call(t, cs, "find_activities", tt.args, nil)
			text := errorText(t, res)
			assert.Contains(t, text, "INVALID_INPUT")
			assert.Contains(t, text, tt.want)
		})
	}
}

func TestSyncHistory(t *testing.T) {
	q := fixture()
	cs := connect(t, q)

	var out SyncHistoryOutput
	call(t, cs, "get_sync_history", nil, &out)

	assert.Equal(t, defaultSyncLimit, q.gotLimit)
	require.Len(t, out.Runs, 2)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, "rate limited", out.Runs[1].ErrorMessage)
}

func TestReadSummaryResource(t *testing.T) {
	cs := connect(t, fixture())

	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: summaryURI})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	var out DashboardSummaryOutput
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &out))
	assert.Equal(t, 2, out.WeekStats.TotalActivities)
}

func TestWeeklyReviewPrompt(t *testing.T) {
	cs := connect(t, fixture())

	res, err := cs.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "weekly_review",
		Arguments: map[string]string{"weeks": "6"},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text, ok := res.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "last 6 weeks")
	assert.Contains(t, text.Text, "get_weekly_volume")
}

func TestToolError(t *testing.T) {
	err := invalidInput("bad", "x=1")
	assert.Equal(t, "INVALID_INPUT: bad (x=1)", err.Error())
	assert.Equal(t, "INTERNAL_ERROR: boom", (&ToolError{Code: ErrInternalError, Message: "boom"}).Error())
}
