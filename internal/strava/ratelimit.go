package strava

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// rateLimitBuffer keeps requests clear of the limit boundaries.
const rateLimitBuffer = 5

// RateLimitInfo is the rate limit state Strava reports in response headers.
type RateLimitInfo struct {
	Limit15Min      int
	Usage15Min      int
	LimitDaily      int
	UsageDaily      int
	IsRateLimited   bool
	RecommendedWait time.Duration
}

// Approaching15Min reports whether usage is within the buffer of the 15-minute limit.
func (i RateLimitInfo) Approaching15Min() bool {
	return i.Limit15Min > 0 && i.Usage15Min >= i.Limit15Min-rateLimitBuffer
}

// ApproachingDaily reports whether usage is within the buffer of the daily limit.
func (i RateLimitInfo) ApproachingDaily() bool {
	return i.LimitDaily > 0 && i.UsageDaily >= i.LimitDaily-rateLimitBuffer
}

// withWait fills in IsRateLimited and RecommendedWait for now.
func (i RateLimitInfo) withWait(now time.Time) RateLimitInfo {
	i.RecommendedWait = 0
	switch {
	case i.Limit15Min > 0 && i.Usage15Min >= i.Limit15Min:
		i.IsRateLimited = true
		i.RecommendedWait = untilNextWindow(now)
	case i.LimitDaily > 0 && i.UsageDaily >= i.LimitDaily:
		i.IsRateLimited = true
		i.RecommendedWait = untilMidnightUTC(now)
	case i.Approaching15Min():
		i.RecommendedWait = untilNextWindow(now)
	case i.ApproachingDaily():
		i.RecommendedWait = untilMidnightUTC(now)
	}
	return i
}

type limitTracker struct {
	mu   sync.RWMutex
	last RateLimitInfo
}

func (t *limitTracker) update(h http.Header, status int, now time.Time) RateLimitInfo {
	info := parseRateLimitHeaders(h, now)
	if status == http.StatusTooManyRequests {
		info.IsRateLimited = true
	}
	t.mu.Lock()
	t.last = info
	t.mu.Unlock()
	return info
}

func (t *limitTracker) current(now time.Time) RateLimitInfo {
	t.mu.RLock()
	info := t.last
	t.mu.RUnlock()
	limited := info.IsRateLimited
	info = info.withWait(now)
	info.IsRateLimited = info.IsRateLimited || limited
	return info
}

// untilNextWindow returns the time until the next quarter hour, when the
// 15-minute limit resets, plus two seconds of slack.
func untilNextWindow(now time.Time) time.Duration {
	next := now.Truncate(15 * time.Minute).Add(15 * time.Minute)
	return next.Sub(now) + 2*time.Second
}

// untilMidnightUTC returns the time until the daily limit resets.
func untilMidnightUTC(now time.Time) time.Duration {
	u := now.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day()+1, 0, 0, 0, 0, time.UTC)
	return midnight.Sub(u) + 2*time.Second
}

// parseRateLimitHeaders merges the general X-RateLimit-* and the read
// specific X-ReadRateLimit-* headers, keeping the stricter limit and the
// higher usage of each window. Values are "15min,daily" pairs.
func parseRateLimitHeaders(h http.Header, now time.Time) RateLimitInfo {
	gl15, glDay := pair(h.Get("X-RateLimit-Limit"))
	gu15, guDay := pair(h.Get("X-RateLimit-Usage"))
	rl15, rlDay := pair(h.Get("X-ReadRateLimit-Limit"))
	ru15, ruDay := pair(h.Get("X-ReadRateLimit-Usage"))

	info := RateLimitInfo{
		Limit15Min: minPositive(gl15, rl15),
		LimitDaily: minPositive(glDay, rlDay),
		Usage15Min: max(gu15, ru15),
		UsageDaily: max(guDay, ruDay),
	}
	return info.withWait(now)
}

func pair(v string) (int, int) {
	if v == "" {
		return 0, 0
	}
	first, second, _ := strings.Cut(v, ",")
	a, _ := strconv.Atoi(strings.TrimSpace(first))
	b, _ := strconv.Atoi(strings.TrimSpace(second))
	return a, b
}

// minPositive returns the smaller of a and b, ignoring unset values.
func minPositive(a, b int) int {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	default:
		return min(a, b)
	}
}
