// Package activity holds the workout record shared by the dashboard client and
// the backend, together with the rules used to classify it.
package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	cyclingMarker = "cycling"
	runningMarker = "running"
)

// ErrMissingDate is returned when a record carries no date at all.
var ErrMissingDate = errors.New("activity has no date")

// dateLayouts are tried in order when parsing the server's date field.
// The backend stores plain dates, older exports carry full timestamps.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Activity is one recorded workout session as served by /api/activities.
// Numeric fields are zero when the source did not report them.
type Activity struct {
	ID              string          `json:"id"`
	Date            string          `json:"date"`
	Type            string          `json:"type"`
	Name            string          `json:"name"`
	Duration        float64         `json:"duration"`
	Distance        float64         `json:"distance"`
	AvgSpeed        float64         `json:"avg_speed"`
	AvgHR           float64         `json:"avg_hr"`
	AvgPower        float64         `json:"avg_power"`
	NormalizedPower float64         `json:"normalized_power"`
	AvgCadence      float64         `json:"avg_cadence"`
	TSS             float64         `json:"tss"`
	Calories        float64         `json:"calories"`
	Data            json.RawMessage `json:"data,omitempty"`
}

// Time parses the activity date. Plain dates are interpreted in loc; timestamps
// carrying an offset keep it.
func (a Activity) Time(loc *time.Location) (time.Time, error) {
	return ParseTime(a.Date, loc)
}

// ParseTime parses the date and timestamp formats the backend emits. Values
// without an offset are interpreted in loc, or time.Local when loc is nil.
func ParseTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrMissingDate
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing date %q: unsupported format", raw)
}

// Km returns the distance in kilometers.
func (a Activity) Km() float64 {
	return a.Distance / 1000
}

// IsCycling reports whether the activity type names a cycling activity.
func (a Activity) IsCycling() bool {
	return IsCycling(a.Type)
}

// IsRunning reports whether the activity type names a running activity.
func (a Activity) IsRunning() bool {
	return IsRunning(a.Type)
}

// IsCycling matches "cycling" anywhere in the type label, ignoring case.
func IsCycling(activityType string) bool {
	return strings.Contains(strings.ToLower(activityType), cyclingMarker)
}

// IsRunning matches "running" anywhere in the type label, ignoring case,
// so "TrailRunning" and "treadmill_running" both count.
func IsRunning(activityType string) bool {
	return strings.Contains(strings.ToLower(activityType), runningMarker)
}
