// Package client talks to the dashboard backend's REST endpoints.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
)

const (
	DefaultBaseURL = "http://localhost:5000"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 64 << 10
)

// ErrUnexpectedStatus is wrapped by every APIError.
var ErrUnexpectedStatus = errors.New("unexpected status")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s %d: %s", e.Path, ErrUnexpectedStatus, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s %d", e.Path, ErrUnexpectedStatus, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Message returns the text to show a user for err: the backend's message
// when it sent one, otherwise the error itself.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// Options configures New.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Retries is the number of extra attempts after a connection error or
	// 5xx answer. Zero sends every request once.
	Retries int
	MinWait time.Duration
	MaxWait time.Duration
}

// Client is the backend REST client.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
}

// New returns a client for the backend at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parsing base url: unsupported scheme %q", u.Scheme)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	log := logging.Logger
	hc := retryablehttp.NewClient()
	hc.RetryMax = max(opts.Retries, 0)
	if opts.MinWait > 0 {
		hc.RetryWaitMin = opts.MinWait
	}
	if opts.MaxWait > 0 {
		hc.RetryWaitMax = opts.MaxWait
	}
	hc.HTTPClient.Timeout = timeout
	hc.Logger = &logging.LeveledLogger{}
	// Hand failed responses back so the error body can be read.
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	hc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		if resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented {
			return true, nil
		}
		return false, nil
	}

	hc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, retry int) {
		if retry > 0 {
			log.Info().
				Str("url", req.URL.Path).
				Int("attempt", retry+1).
				Msg("retrying request")
		}
		if logging.IsTraceEnabled() {
			log.Debug().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Str("headers", logging.Headers(req.Header)).
				Msg("request headers")
		}
	}

	hc.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
		if logging.IsTraceEnabled() {
			log.Debug().
				Int("status", resp.StatusCode).
				Str("url", resp.Request.URL.Path).
				Str("headers", logging.Headers(resp.Header)).
				Msg("response headers")
		}
	}

	return &Client{httpClient: hc, baseURL: base}, nil
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close drops idle keep-alive connections.
func (c *Client) Close() {
	c.httpClient.HTTPClient.CloseIdleConnections()
}

// ActivityQuery filters /api/activities. Zero values are not sent.
type ActivityQuery struct {
	Limit     int
	StartDate string
	EndDate   string
	Type      string
}

func (q ActivityQuery) values() url.Values {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.StartDate != "" {
		v.Set("start_date", q.StartDate)
	}
	if q.EndDate != "" {
		v.Set("end_date", q.EndDate)
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	return v
}

// Summary fetches /api/summary.
func (c *Client) Summary(ctx context.Context) (report.Summary, error) {
	var s report.Summary
	if err := c.getJSON(ctx, "/api/summary", nil, &s); err != nil {
		return report.Summary{}, err
	}
	return s, nil
}

// Activities fetches /api/activities, newest first.
func (c *Client) Activities(ctx context.Context, q ActivityQuery) ([]activity.Activity, error) {
	var out []activity.Activity
	if err := c.getJSON(ctx, "/api/activities", q.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WeeklyStats fetches /api/weekly-stats, latest week first.
func (c *Client) WeeklyStats(ctx context.Context) ([]report.WeeklyStat, error) {
	var out []report.WeeklyStat
	if err := c.getJSON(ctx, "/api/weekly-stats", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SyncLogs fetches /api/sync-logs, newest first.
func (c *Client) SyncLogs(ctx context.Context) ([]report.SyncLog, error) {
	var out []report.SyncLog
	if err := c.getJSON(ctx, "/api/sync-logs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TriggerSync asks the backend to start a background sync.
func (c *Client) TriggerSync(ctx context.Context) (report.SyncResponse, error) {
	var out report.SyncResponse
	if err := c.do(ctx, http.MethodPost, "/api/sync", nil, &out); err != nil {
		return report.SyncResponse{}, err
	}
	return out, nil
}

// Export streams /api/export/{format} into w.
func (c *Client) Export(ctx context.Context, format string, w io.Writer) error {
	path := "/api/export/" + url.PathEscape(format)
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("%s: copying body: %w", path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	resp, err := c.send(ctx, method, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", path, err)
	}
	return nil
}

// send performs the request and returns the response when it is 2xx. Any
// other status is turned into an *APIError.
func (c *Client) send(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("%s: executing request: %w", path, err)
	}

	logging.Logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeError(path, resp)
	}
	return resp, nil
}

func decodeError(path string, resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Path: path}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}
	var e report.ErrorResponse
	if json.Unmarshal(body, &e) == nil {
		apiErr.Message = e.Message
		if apiErr.Message == "" {
			apiErr.Message = e.Error
		}
	}
	return apiErr
}
