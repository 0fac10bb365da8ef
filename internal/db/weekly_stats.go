package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
)

const upsertWeeklyStat = `INSERT INTO weekly_stats (
	week_start, week_end, total_cycling_km, total_cycling_time,
	total_running_km, total_running_time, total_activities, avg_hrv
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (week_start) DO UPDATE SET
	week_end = excluded.week_end,
	total_cycling_km = excluded.total_cycling_km,
	total_cycling_time = excluded.total_cycling_time,
	total_running_km = excluded.total_running_km,
	total_running_time = excluded.total_running_time,
	total_activities = excluded.total_activities,
	avg_hrv = excluded.avg_hrv,
	updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`

// UpsertWeeklyStat stores w, replacing the row for the same week.
func (q *Queries) UpsertWeeklyStat(ctx context.Context, w report.WeeklyStat) error {
	_, err := q.db.ExecContext(ctx, upsertWeeklyStat,
		w.WeekStart, w.WeekEnd,
		w.TotalCyclingKm, w.TotalCyclingTime,
		w.TotalRunningKm, w.TotalRunningTime,
		w.TotalActivities, nullFloat(w.AvgHRV),
	)
	if err != nil {
		return fmt.Errorf("upserting weekly stat %s: %w", w.WeekStart, err)
	}
	return nil
}

// ListWeeklyStats returns up to limit weeks, latest first.
func (q *Queries) ListWeeklyStats(ctx context.Context, limit int) ([]report.WeeklyStat, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT week_start, week_end, total_cycling_km, total_cycling_time,
			total_running_km, total_running_time, total_activities, avg_hrv
		FROM weekly_stats ORDER BY week_start DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying weekly stats: %w", err)
	}
	defer rows.Close()

	items := []report.WeeklyStat{}
	for rows.Next() {
		var (
			w   report.WeeklyStat
			hrv sql.NullFloat64
		)
		if err := rows.Scan(&w.WeekStart, &w.WeekEnd, &w.TotalCyclingKm, &w.TotalCyclingTime,
			&w.TotalRunningKm, &w.TotalRunningTime, &w.TotalActivities, &hrv); err != nil {
			return nil, fmt.Errorf("scanning weekly stat: %w", err)
		}
		w.AvgHRV = hrv.Float64
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating weekly stats: %w", err)
	}
	return items, nil
}
