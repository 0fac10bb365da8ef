package sync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/db"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/strava"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/weekly"
)

type fakeSource struct {
	records []activity.Activity
	err     error
	since   time.Time
}

func (f *fakeSource) Activities(_ context.Context, since time.Time) ([]activity.Activity, error) {
	f.since = since
	return f.records, f.err
}

var testNow = time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, src Source) (*Service, *db.Queries) {
	t.Helper()
	sqlDB, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	q := db.New(sqlDB)
	return NewService(q, src, Options{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	}), q
}

func TestServiceRun(t *testing.T) {
	src := &fakeSource{records: []activity.Activity{
		{ID: "1", Date: "2024-03-04", Type: "cycling", Name: "Ride", Duration: 3600, Distance: 30000},
		{ID: "2", Date: "2024-03-05", Type: "running", Name: "Run", Duration: 1800, Distance: 5000},
		{ID: "3", Date: "2024-03-11", Type: "virtual_cycling", Name: "Zwift", Duration: 2700, Distance: 25000},
	}}
	svc, q := newTestService(t, src)
	ctx := context.Background()

	res, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Synced)
	assert.Equal(t, 2, res.Weeks)
	assert.Equal(t, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), src.since)

	stats, err := q.ListWeeklyStats(ctx, 12)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, report.WeeklyStat{
		WeekStart: "2024-03-11", WeekEnd: "2024-03-17",
		TotalCyclingKm: 25, TotalCyclingTime: 2700, TotalActivities: 1,
	}, stats[0])
	assert.Equal(t, "2024-03-04", stats[1].WeekStart)
	assert.Equal(t, 30.0, stats[1].TotalCyclingKm)
	assert.Equal(t, 5.0, stats[1].TotalRunningKm)
	assert.Equal(t, 1800.0, stats[1].TotalRunningTime)

	logs, err := q.ListSyncLogs(ctx, 50)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, report.StatusSuccess, logs[0].Status)
	assert.Equal(t, 3, logs[0].ActivitiesSynced)
	assert.Equal(t, "2024-03-13T12:00:00Z", logs[0].SyncDate)

	var d map[string]any
	require.NoError(t, json.Unmarshal(logs[0].Details, &d))
	assert.Equal(t, res.RunID, d["run_id"])
	assert.EqualValues(t, DefaultDaysToSync, d["days_synced"])
}

func TestServiceRun_Idempotent(t *testing.T) {
	src := &fakeSource{records: []activity.Activity{
		{ID: "1", Date: "2024-03-04", Type: "cycling", Distance: 10000},
	}}
	svc, q := newTestService(t, src)
	ctx := context.Background()

	_, err := svc.Run(ctx)
	require.NoError(t, err)
	_, err = svc.Run(ctx)
	require.NoError(t, err)

	n, err := q.CountActivities(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	stats, err := q.ListWeeklyStats(ctx, 12)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 10.0, stats[0].TotalCyclingKm)
}

func TestServiceRun_SkipsActivitiesThatFailToSave(t *testing.T) {
	src := &fakeSource{records: []activity.Activity{
		{ID: "1", Date: "2024-03-04", Type: "cycling", Distance: 20000},
		{ID: "", Date: "2024-03-05", Type: "running", Name: "no id", Distance: 5000},
		{ID: "3", Date: "2024-03-06", Type: "running", Distance: 8000},
	}}
	svc, q := newTestService(t, src)
	ctx := context.Background()

	res, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Synced)
	assert.Equal(t, 1, res.Failed)

	n, err := q.CountActivities(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	logs, err := q.ListSyncLogs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, report.StatusSuccess, logs[0].Status)
	assert.Equal(t, 2, logs[0].ActivitiesSynced)

	var d map[string]any
	require.NoError(t, json.Unmarshal(logs[0].Details, &d))
	assert.EqualValues(t, 1, d["failed"])
}

func TestServiceRun_SourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("strava unavailable")}
	svc, q := newTestService(t, src)
	ctx := context.Background()

	res, err := svc.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strava unavailable")
	assert.Zero(t, res.Synced)

	last, err := q.LastSync(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, report.StatusError, last.Status)

	logs, err := q.ListSyncLogs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].ErrorMessage, "strava unavailable")
}

func TestServiceRun_CancelledStillLogs(t *testing.T) {
	src := &fakeSource{records: []activity.Activity{{ID: "1", Date: "2024-03-04"}}}
	svc, q := newTestService(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	n, err := q.CountSyncLogs(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRebuildWeeklyStats_RejectsUndated(t *testing.T) {
	svc, q := newTestService(t, &fakeSource{})
	ctx := context.Background()

	require.NoError(t, q.UpsertActivity(ctx, activity.Activity{ID: "ok", Date: "2024-03-12", Type: "running", Distance: 8000}))
	require.NoError(t, q.UpsertActivity(ctx, activity.Activity{ID: "bad", Date: "2024-13-45", Type: "running", Distance: 8000}))

	weeks, rejected, err := svc.RebuildWeeklyStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, weeks)
	assert.Equal(t, 1, rejected)
}

func TestWeeklyStat(t *testing.T) {
	week, err := weekly.ParseWeek("2024-03-06")
	require.NoError(t, err)

	got := WeeklyStat(weekly.Bucket{Week: week, CyclingKm: 1, RunningKm: 2, CyclingSeconds: 3, RunningSeconds: 4, Activities: 5})
	assert.Equal(t, report.WeeklyStat{
		WeekStart:        "2024-03-04",
		WeekEnd:          "2024-03-10",
		TotalCyclingKm:   1,
		TotalCyclingTime: 3,
		TotalRunningKm:   2,
		TotalRunningTime: 4,
		TotalActivities:  5,
	}, got)
}

type staticToken string

func (s staticToken) AccessToken(context.Context) (string, error) { return string(s), nil }

func TestStravaSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"id": 7, "name": "Lunch Run", "sport_type": "TrailRun", "distance": 8000,
			"moving_time": 2400, "start_date_local": "2024-03-12T12:00:00Z"}]`))
	}))
	defer server.Close()

	src := StravaSource{
		Tokens: staticToken("tok"),
		Options: strava.Options{
			BaseURL: server.URL,
			Retry:   strava.RetryConfig{MaxRetries: 1, MinWait: time.Millisecond, MaxWait: time.Millisecond},
		},
	}
	records, err := src.Activities(context.Background(), testNow.AddDate(0, 0, -14))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "7", records[0].ID)
	assert.Equal(t, "trail_running", records[0].Type)
	assert.Equal(t, "2024-03-12", records[0].Date)
}
