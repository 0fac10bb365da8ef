// Package weekly groups activities into Monday-starting calendar weeks.
package weekly

import (
	"sort"
	"time"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
)

// Bucket holds the totals for every activity dated inside one week.
type Bucket struct {
	Week           Week    `json:"week_start"`
	CyclingKm      float64 `json:"cycling_km"`
	RunningKm      float64 `json:"running_km"`
	TotalKm        float64 `json:"total_km"`
	CyclingSeconds float64 `json:"cycling_seconds"`
	RunningSeconds float64 `json:"running_seconds"`
	Activities     int     `json:"activities"`
}

// Rejected is a record left out of aggregation and the reason why.
type Rejected struct {
	Activity activity.Activity
	Err      error
}

// Aggregate groups records into one bucket per distinct week, sorted by week
// start. Every date is placed in loc (time.Local when nil) before bucketing,
// so timestamps with differing offsets for one instant share a week. Records whose
// date is missing or unparseable are not bucketed and are returned as
// rejected instead.
//
// Buckets are rebuilt from scratch on every call.
func Aggregate(records []activity.Activity, loc *time.Location) ([]Bucket, []Rejected) {
	if loc == nil {
		loc = time.Local
	}
	byWeek := make(map[Week]*Bucket)
	var rejected []Rejected

	for _, rec := range records {
		when, err := rec.Time(loc)
		if err != nil {
			rejected = append(rejected, Rejected{Activity: rec, Err: err})
			continue
		}

		week := WeekOf(when.In(loc))
		b, ok := byWeek[week]
		if !ok {
			b = &Bucket{Week: week}
			byWeek[week] = b
		}

		km := rec.Km()
		b.TotalKm += km
		b.Activities++
		// Both checks run: a label is not assumed to name a single sport.
		if rec.IsCycling() {
			b.CyclingKm += km
			b.CyclingSeconds += rec.Duration
		}
		if rec.IsRunning() {
			b.RunningKm += km
			b.RunningSeconds += rec.Duration
		}
	}

	buckets := make([]Bucket, 0, len(byWeek))
	for _, b := range byWeek {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Week.Compare(buckets[j].Week) < 0
	})

	return buckets, rejected
}
