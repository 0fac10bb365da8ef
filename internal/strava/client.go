// Package strava fetches athlete activities from the Strava API, the source
// the background sync imports into the local store.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
)

const (
	DefaultBaseURL = "https://www.strava.com/api/v3"
	perPage        = 200
	requestTimeout = 30 * time.Second
)

// ErrRateLimited is returned when Strava still answers 429 after all retries.
var ErrRateLimited = fmt.Errorf("rate limited")

// RetryConfig holds retry/backoff settings
type RetryConfig struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryConfig returns the retry policy used by the background sync.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 5,
		MinWait:    time.Second,
		MaxWait:    5 * time.Minute,
	}
}

// Client is a Strava API client with automatic retry and backoff.
type Client struct {
	http        *retryablehttp.Client
	accessToken string
	baseURL     string
	limits      *limitTracker
}

// Options configure a Client. Zero values select the defaults.
type Options struct {
	BaseURL string
	Retry   RetryConfig
}

// NewClient returns a client for accessToken.
func NewClient(accessToken string, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Retry == (RetryConfig{}) {
		opts.Retry = DefaultRetryConfig()
	}

	c := &Client{
		accessToken: accessToken,
		baseURL:     opts.BaseURL,
		limits:      &limitTracker{},
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = requestTimeout
	rc.RetryMax = opts.Retry.MaxRetries
	rc.RetryWaitMin = opts.Retry.MinWait
	rc.RetryWaitMax = opts.Retry.MaxWait
	rc.Logger = &logging.LeveledLogger{}
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Backoff = backoff
	rc.RequestLogHook = logRequest
	rc.ResponseLogHook = c.logResponse
	c.http = rc

	return c
}

// checkRetry retries connection errors, 429 and 5xx.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, nil
}

// backoff waits for the rate limit window on 429 and backs off exponentially otherwise.
func backoff(min, max time.Duration, attempt int, resp *http.Response) time.Duration {
	log := logging.Logger

	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			wait := time.Duration(secs) * time.Second
			log.Info().Dur("wait", wait).Int("attempt", attempt).Msg("rate limited, honoring Retry-After")
			return wait
		}
		wait := untilNextWindow(time.Now())
		log.Info().Dur("wait", wait).Int("attempt", attempt).Msg("rate limited, waiting for window reset")
		return wait
	}

	wait := min << uint(attempt)
	if wait <= 0 || wait > max {
		wait = max
	}
	log.Info().Dur("wait", wait).Int("attempt", attempt).Msg("backing off before retry")
	return wait
}

func logRequest(_ retryablehttp.Logger, req *http.Request, retry int) {
	log := logging.Logger
	if retry > 0 {
		log.Info().Str("path", req.URL.Path).Int("attempt", retry+1).Msg("retrying strava request")
	}
	if logging.IsTraceEnabled() {
		log.Debug().
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Str("headers", logging.Headers(req.Header)).
			Msg("strava request headers")
	}
}

func (c *Client) logResponse(_ retryablehttp.Logger, resp *http.Response) {
	log := logging.Logger
	limits := c.limits.update(resp.Header, resp.StatusCode, time.Now())

	if logging.IsTraceEnabled() {
		log.Debug().
			Int("status", resp.StatusCode).
			Str("path", resp.Request.URL.Path).
			Str("headers", logging.Headers(resp.Header)).
			Msg("strava response headers")
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		log.Warn().
			Str("15min_usage", fmt.Sprintf("%d/%d", limits.Usage15Min, limits.Limit15Min)).
			Str("daily_usage", fmt.Sprintf("%d/%d", limits.UsageDaily, limits.LimitDaily)).
			Msg("rate limited by strava")
	}
}

// RateLimit returns the limits reported by the latest response.
func (c *Client) RateLimit() RateLimitInfo {
	return c.limits.current(time.Now())
}

// WaitForRateLimit blocks until the reported usage leaves room for more
// requests or ctx is done.
func (c *Client) WaitForRateLimit(ctx context.Context) error {
	info := c.RateLimit()
	if info.RecommendedWait <= 0 {
		return nil
	}

	logging.Logger.Info().
		Dur("wait", info.RecommendedWait).
		Str("15min_usage", fmt.Sprintf("%d/%d", info.Usage15Min, info.Limit15Min)).
		Msg("waiting for strava rate limit window")

	timer := time.NewTimer(info.RecommendedWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Page reports the progress of a multi-page fetch.
type Page struct {
	Number       int
	Activities   int
	TotalFetched int
	RateLimit    RateLimitInfo
}

// ProgressFunc is called after each page is fetched.
type ProgressFunc func(Page)

// FetchActivitiesSince fetches every activity started after since, walking
// pages until Strava returns an empty one. A zero since fetches the full history.
func (c *Client) FetchActivitiesSince(ctx context.Context, since time.Time, progress ProgressFunc) ([]Activity, error) {
	var all []Activity
	for page := 1; ; page++ {
		items, err := c.fetchPage(ctx, page, since)
		if err != nil {
			return all, err
		}
		all = append(all, items...)

		if progress != nil {
			progress(Page{
				Number:       page,
				Activities:   len(items),
				TotalFetched: len(all),
				RateLimit:    c.RateLimit(),
			})
		}
		if len(items) < perPage {
			return all, nil
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, page int, since time.Time) ([]Activity, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	if !since.IsZero() {
		q.Set("after", strconv.FormatInt(since.Unix(), 10))
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/athlete/activities?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching activities page %d: %w", page, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetching activities page %d: unexpected status code %d", page, resp.StatusCode)
	}

	var items []Activity
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding activities page %d: %w", page, err)
	}
	return items, nil
}
