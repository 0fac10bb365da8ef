package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestClient(t *testing.T, h http.Handler, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	opts.BaseURL = srv.URL
	c, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, 0, c.httpClient.RetryMax)
	assert.Equal(t, defaultTimeout, c.httpClient.HTTPClient.Timeout)

	c, err = New(Options{BaseURL: "http://example.test:8080/", Retries: 2})
	require.NoError(t, err)
	assert.Equal(t, "http://example.test:8080", c.BaseURL())
	assert.Equal(t, 2, c.httpClient.RetryMax)

	_, err = New(Options{BaseURL: "ftp://example.test"})
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/summary", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		writeJSON(w, http.StatusOK, map[string]any{
			"week_stats": map[string]any{
				"total_cycling_km": 85.5,
				"total_running_km": 21.1,
				"total_activities": 6,
				"total_duration":   36000,
				"avg_hr":           138,
				"total_calories":   4200,
			},
			"last_sync": map[string]any{
				"date":              "2024-01-15T10:00:00Z",
				"status":            "success",
				"activities_synced": 3,
			},
		})
	}), Options{})

	s, err := c.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 85.5, s.WeekStats.TotalCyclingKm)
	assert.Equal(t, 6, s.WeekStats.TotalActivities)
	require.NotNil(t, s.LastSync)
	assert.True(t, s.LastSync.Succeeded())
	assert.Equal(t, 3, s.LastSync.ActivitiesSynced)
}

func TestSummaryWithoutLastSync(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"week_stats": map[string]any{}, "last_sync": nil})
	}), Options{})

	s, err := c.Summary(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s.LastSync)
}

func TestActivitiesQuery(t *testing.T) {
	tests := []struct {
		name  string
		query ActivityQuery
		want  string
	}{
		{"limit only", ActivityQuery{Limit: 50}, "limit=50"},
		{"no filters", ActivityQuery{}, ""},
		{
			"all filters",
			ActivityQuery{Limit: 100, StartDate: "2024-01-01", EndDate: "2024-01-31", Type: "cycling"},
			"end_date=2024-01-31&limit=100&start_date=2024-01-01&type=cycling",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make(chan string, 1)
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got <- r.URL.RawQuery
				writeJSON(w, http.StatusOK, []activity.Activity{
					{ID: "1", Date: "2024-01-15", Type: "Cycling", Distance: 5000},
				})
			}), Options{})

			acts, err := c.Activities(context.Background(), tt.query)
			require.NoError(t, err)
			require.Len(t, acts, 1)
			assert.Equal(t, "Cycling", acts[0].Type)
			assert.Equal(t, tt.want, <-got)
		})
	}
}

func TestWeeklyStatsAndSyncLogs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/weekly-stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []report.WeeklyStat{
			{WeekStart: "2024-01-15", WeekEnd: "2024-01-21", TotalCyclingKm: 100, TotalActivities: 4},
		})
	})
	mux.HandleFunc("/api/sync-logs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []report.SyncLog{
			{ID: 2, SyncDate: "2024-01-15T10:00:00Z", Status: "error", ErrorMessage: "boom"},
			{ID: 1, SyncDate: "2024-01-14T10:00:00Z", Status: "success", ActivitiesSynced: 5},
		})
	})
	c := newTestClient(t, mux, Options{})

	stats, err := c.WeeklyStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "2024-01-15", stats[0].WeekStart)

	logs, err := c.SyncLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.False(t, logs[0].Succeeded())
	assert.Equal(t, "boom", logs[0].ErrorMessage)
}

func TestTriggerSync(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sync", r.URL.Path)
		writeJSON(w, http.StatusOK, report.SyncResponse{Status: report.SyncStarted, Message: "started"})
	}), Options{})

	resp, err := c.TriggerSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.SyncStarted, resp.Status)
}

func TestErrorBodySurfacesMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, report.ErrorResponse{
			Error:   "internal error",
			Message: "database is locked",
		})
	}), Options{})

	_, err := c.Summary(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "/api/summary", apiErr.Path)
	assert.Equal(t, "database is locked", Message(err))
}

func TestErrorWithoutMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, report.ErrorResponse{Error: "Invalid format"})
	}), Options{})

	_, err := c.WeeklyStats(context.Background())
	assert.Equal(t, "Invalid format", Message(err))

	c = newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}), Options{})

	_, err = c.WeeklyStats(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Message)
	assert.Equal(t, err.Error(), Message(err))
}

func TestNoRetriesByDefault(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), Options{})

	_, err := c.SyncLogs(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetriesWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, []report.SyncLog{})
	}), Options{Retries: 2, MinWait: time.Millisecond, MaxWait: 5 * time.Millisecond})

	logs, err := c.SyncLogs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMalformedJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"week_stats":`))
	}), Options{})

	_, err := c.Summary(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestCancelledContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Activities(ctx, ActivityQuery{Limit: 50})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExport(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/export/csv":
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte("id,date\n1,2024-01-15\n"))
		default:
			writeJSON(w, http.StatusBadRequest, report.ErrorResponse{Error: "Invalid format"})
		}
	}), Options{})

	var buf bytes.Buffer
	require.NoError(t, c.Export(context.Background(), "csv", &buf))
	assert.Equal(t, "id,date\n1,2024-01-15\n", buf.String())

	err := c.Export(context.Background(), "xml", &buf)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
}
