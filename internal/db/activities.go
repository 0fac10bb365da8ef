package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
)

const activityColumns = `id, date, type, name, duration, distance, avg_speed, avg_hr,
	avg_power, normalized_power, avg_cadence, tss, calories, data`

const upsertActivity = `INSERT INTO activities (` + activityColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	date = excluded.date,
	type = excluded.type,
	name = excluded.name,
	duration = excluded.duration,
	distance = excluded.distance,
	avg_speed = excluded.avg_speed,
	avg_hr = excluded.avg_hr,
	avg_power = excluded.avg_power,
	normalized_power = excluded.normalized_power,
	avg_cadence = excluded.avg_cadence,
	tss = excluded.tss,
	calories = excluded.calories,
	data = excluded.data,
	updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`

// UpsertActivity inserts a or replaces the stored row with the same ID.
// Zero metrics are stored as NULL.
func (q *Queries) UpsertActivity(ctx context.Context, a activity.Activity) error {
	if a.ID == "" {
		return fmt.Errorf("upserting activity: empty id")
	}
	var data sql.NullString
	if len(a.Data) > 0 {
		data = sql.NullString{String: string(a.Data), Valid: true}
	}
	_, err := q.db.ExecContext(ctx, upsertActivity,
		a.ID, a.Date, a.Type, a.Name,
		nullFloat(a.Duration), nullFloat(a.Distance), nullFloat(a.AvgSpeed), nullFloat(a.AvgHR),
		nullFloat(a.AvgPower), nullFloat(a.NormalizedPower), nullFloat(a.AvgCadence),
		nullFloat(a.TSS), nullFloat(a.Calories), data,
	)
	if err != nil {
		return fmt.Errorf("upserting activity %s: %w", a.ID, err)
	}
	return nil
}

// ActivityFilter narrows ListActivities. Empty fields are not applied and a
// non-positive Limit returns every match.
type ActivityFilter struct {
	StartDate string
	EndDate   string
	Type      string
	Limit     int
}

// ListActivities returns matching activities, newest first. Type matches as
// a case-insensitive substring.
func (q *Queries) ListActivities(ctx context.Context, f ActivityFilter) ([]activity.Activity, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.StartDate != "" {
		where = append(where, "date >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		where = append(where, "date <= ?")
		args = append(args, f.EndDate)
	}
	if f.Type != "" {
		where = append(where, "type LIKE ?")
		args = append(args, "%"+f.Type+"%")
	}

	query := "SELECT " + activityColumns + " FROM activities"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id DESC LIMIT ?"
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	return q.queryActivities(ctx, query, args...)
}

// ActivitiesSince returns activities dated on or after since (YYYY-MM-DD),
// oldest first.
func (q *Queries) ActivitiesSince(ctx context.Context, since string) ([]activity.Activity, error) {
	return q.queryActivities(ctx,
		"SELECT "+activityColumns+" FROM activities WHERE date >= ? ORDER BY date, id", since)
}

func (q *Queries) queryActivities(ctx context.Context, query string, args ...interface{}) ([]activity.Activity, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	items := []activity.Activity{}
	for rows.Next() {
		var (
			a                                 activity.Activity
			duration, distance, speed, hr     sql.NullFloat64
			power, np, cadence, tss, calories sql.NullFloat64
			data                              sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Date, &a.Type, &a.Name,
			&duration, &distance, &speed, &hr,
			&power, &np, &cadence, &tss, &calories, &data); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		a.Duration = duration.Float64
		a.Distance = distance.Float64
		a.AvgSpeed = speed.Float64
		a.AvgHR = hr.Float64
		a.AvgPower = power.Float64
		a.NormalizedPower = np.Float64
		a.AvgCadence = cadence.Float64
		a.TSS = tss.Float64
		a.Calories = calories.Float64
		if data.Valid && data.String != "" {
			a.Data = json.RawMessage(data.String)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}
	return items, nil
}

// CountActivities returns the number of stored activities.
func (q *Queries) CountActivities(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activities").Scan(&n)
	return n, err
}

// LatestActivityDate returns the newest activity date, or "" when the store is empty.
func (q *Queries) LatestActivityDate(ctx context.Context) (string, error) {
	var d sql.NullString
	err := q.db.QueryRowContext(ctx, "SELECT MAX(date) FROM activities").Scan(&d)
	return d.String, err
}

// OldestActivityDate returns the oldest activity date, or "" when the store is empty.
func (q *Queries) OldestActivityDate(ctx context.Context) (string, error) {
	var d sql.NullString
	err := q.db.QueryRowContext(ctx, "SELECT MIN(date) FROM activities").Scan(&d)
	return d.String, err
}

const weekSummary = `SELECT
	COUNT(*),
	COALESCE(SUM(CASE WHEN type LIKE '%cycling%' THEN distance END), 0) / 1000.0,
	COALESCE(SUM(CASE WHEN type LIKE '%running%' THEN distance END), 0) / 1000.0,
	COALESCE(SUM(duration), 0),
	COALESCE(AVG(avg_hr), 0),
	COALESCE(SUM(calories), 0)
FROM activities
WHERE date >= ?`

// WeekSummary totals the activities dated on or after since (YYYY-MM-DD).
func (q *Queries) WeekSummary(ctx context.Context, since string) (report.WeekStats, error) {
	var s report.WeekStats
	err := q.db.QueryRowContext(ctx, weekSummary, since).Scan(
		&s.TotalActivities,
		&s.TotalCyclingKm,
		&s.TotalRunningKm,
		&s.TotalDuration,
		&s.AvgHR,
		&s.TotalCalories,
	)
	if err != nil {
		return report.WeekStats{}, fmt.Errorf("summarizing activities since %s: %w", since, err)
	}
	return s, nil
}

func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v != 0}
}
