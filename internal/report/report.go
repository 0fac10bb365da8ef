// Package report defines the JSON documents the backend serves to the
// dashboard, apart from the activity records themselves.
package report

import (
	"encoding/json"
	"time"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
)

// Sync statuses recorded in the sync log.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Sync trigger outcomes returned by POST /api/sync.
const (
	SyncStarted = "started"
	SyncRunning = "running"
)

// Summary is the /api/summary document.
type Summary struct {
	WeekStats WeekStats `json:"week_stats"`
	LastSync  *LastSync `json:"last_sync"`
}

// WeekStats are the totals over the last seven days.
type WeekStats struct {
	TotalActivities int     `json:"total_activities"`
	TotalCyclingKm  float64 `json:"total_cycling_km"`
	TotalRunningKm  float64 `json:"total_running_km"`
	TotalDuration   float64 `json:"total_duration"`
	AvgHR           float64 `json:"avg_hr"`
	TotalCalories   float64 `json:"total_calories"`
}

// LastSync describes the most recent sync attempt.
type LastSync struct {
	Date             string `json:"date"`
	Status           string `json:"status"`
	ActivitiesSynced int    `json:"activities_synced"`
}

// Succeeded reports whether the sync finished without error.
func (l LastSync) Succeeded() bool {
	return l.Status == StatusSuccess
}

// WeeklyStat is one row of /api/weekly-stats.
type WeeklyStat struct {
	WeekStart        string  `json:"week_start"`
	WeekEnd          string  `json:"week_end"`
	TotalCyclingKm   float64 `json:"total_cycling_km"`
	TotalCyclingTime float64 `json:"total_cycling_time"`
	TotalRunningKm   float64 `json:"total_running_km"`
	TotalRunningTime float64 `json:"total_running_time"`
	TotalActivities  int     `json:"total_activities"`
	AvgHRV           float64 `json:"avg_hrv"`
}

// StartTime parses WeekStart in loc.
func (w WeeklyStat) StartTime(loc *time.Location) (time.Time, error) {
	return activity.ParseTime(w.WeekStart, loc)
}

// EndTime parses WeekEnd in loc.
func (w WeeklyStat) EndTime(loc *time.Location) (time.Time, error) {
	return activity.ParseTime(w.WeekEnd, loc)
}

// SyncLog is one row of /api/sync-logs.
type SyncLog struct {
	ID               int64           `json:"id"`
	SyncDate         string          `json:"sync_date"`
	Status           string          `json:"status"`
	ActivitiesSynced int             `json:"activities_synced"`
	ErrorMessage     string          `json:"error_message,omitempty"`
	Details          json.RawMessage `json:"details,omitempty"`
}

// Succeeded reports whether the logged sync finished without error.
func (l SyncLog) Succeeded() bool {
	return l.Status == StatusSuccess
}

// SyncResponse is returned by POST /api/sync.
type SyncResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body of every non-2xx backend answer.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
