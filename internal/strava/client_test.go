package strava

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = RetryConfig{MaxRetries: 2, MinWait: time.Millisecond, MaxWait: 5 * time.Millisecond}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("test-token", Options{})

	assert.Equal(t, "test-token", c.accessToken)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultRetryConfig().MaxRetries, c.http.RetryMax)
}

func TestFetchActivitiesSince_Pages(t *testing.T) {
	full := make([]Activity, perPage)
	for i := range full {
		full[i] = Activity{ID: int64(i + 1), Name: "Ride", SportType: "Ride"}
	}
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, strconv.FormatInt(since.Unix(), 10), r.URL.Query().Get("after"))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-RateLimit-Limit", "100,1000")
		w.Header().Set("X-RateLimit-Usage", "5,50")
		switch r.URL.Query().Get("page") {
		case "1":
			json.NewEncoder(w).Encode(full)
		case "2":
			json.NewEncoder(w).Encode([]Activity{{ID: 999, Name: "Run", SportType: "Run"}})
		default:
			t.Errorf("unexpected page %s", r.URL.Query().Get("page"))
		}
	}))
	defer server.Close()

	c := NewClient("test-token", Options{BaseURL: server.URL, Retry: fastRetry})

	var pages []Page
	items, err := c.FetchActivitiesSince(context.Background(), since, func(p Page) {
		pages = append(pages, p)
	})
	require.NoError(t, err)
	assert.Len(t, items, perPage+1)

	require.Len(t, pages, 2)
	assert.Equal(t, Page{Number: 1, Activities: perPage, TotalFetched: perPage, RateLimit: pages[0].RateLimit}, pages[0])
	assert.Equal(t, perPage+1, pages[1].TotalFetched)
	assert.Equal(t, 100, pages[0].RateLimit.Limit15Min)
	assert.Equal(t, 5, pages[0].RateLimit.Usage15Min)
}

func TestFetchActivitiesSince_ZeroSinceOmitsAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("after"))
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	c := NewClient("test-token", Options{BaseURL: server.URL, Retry: fastRetry})
	items, err := c.FetchActivitiesSince(context.Background(), time.Time{}, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchActivitiesSince_Unauthorized(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient("invalid-token", Options{BaseURL: server.URL, Retry: fastRetry})
	_, err := c.FetchActivitiesSince(context.Background(), time.Time{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.EqualValues(t, 1, calls.Load(), "4xx responses are not retried")
}

func TestFetchActivitiesSince_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"id":1,"sport_type":"Run"}]`))
	}))
	defer server.Close()

	c := NewClient("test-token", Options{BaseURL: server.URL, Retry: fastRetry})
	items, err := c.FetchActivitiesSince(context.Background(), time.Time{}, nil)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.EqualValues(t, 2, calls.Load())
}

func TestFetchActivitiesSince_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.Header().Set("X-RateLimit-Limit", "100,1000")
		w.Header().Set("X-RateLimit-Usage", "100,500")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient("test-token", Options{BaseURL: server.URL, Retry: fastRetry})
	_, err := c.FetchActivitiesSince(context.Background(), time.Time{}, nil)
	require.True(t, errors.Is(err, ErrRateLimited), "got %v", err)

	info := c.RateLimit()
	assert.True(t, info.IsRateLimited)
	assert.Positive(t, info.RecommendedWait)
}

func TestFetchActivitiesSince_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("test-token", Options{BaseURL: server.URL, Retry: fastRetry})
	_, err := c.FetchActivitiesSince(ctx, time.Time{}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWaitForRateLimit_NoWait(t *testing.T) {
	c := NewClient("test-token", Options{})
	require.NoError(t, c.WaitForRateLimit(context.Background()))
}

func TestWaitForRateLimit_Cancelled(t *testing.T) {
	c := NewClient("test-token", Options{})
	h := http.Header{}
	h.Set("X-RateLimit-Limit", "100,1000")
	h.Set("X-RateLimit-Usage", "100,100")
	c.limits.update(h, http.StatusOK, time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, c.WaitForRateLimit(ctx), context.DeadlineExceeded)
}
