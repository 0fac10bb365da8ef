package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
)

// TimeLayout is the layout of every timestamp the store writes.
const TimeLayout = "2006-01-02T15:04:05Z"

type InsertSyncLogParams struct {
	SyncDate         time.Time
	Status           string
	ActivitiesSynced int
	ErrorMessage     string
	Details          json.RawMessage
}

// InsertSyncLog records one sync attempt and returns its ID.
func (q *Queries) InsertSyncLog(ctx context.Context, arg InsertSyncLogParams) (int64, error) {
	var errMsg, details sql.NullString
	if arg.ErrorMessage != "" {
		errMsg = sql.NullString{String: arg.ErrorMessage, Valid: true}
	}
	if len(arg.Details) > 0 {
		details = sql.NullString{String: string(arg.Details), Valid: true}
	}

	res, err := q.db.ExecContext(ctx,
		`INSERT INTO sync_logs (sync_date, status, activities_synced, error_message, details)
		VALUES (?, ?, ?, ?, ?)`,
		arg.SyncDate.UTC().Format(TimeLayout), arg.Status, arg.ActivitiesSynced, errMsg, details,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting sync log: %w", err)
	}
	return res.LastInsertId()
}

// ListSyncLogs returns up to limit sync logs, newest first.
func (q *Queries) ListSyncLogs(ctx context.Context, limit int) ([]report.SyncLog, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, sync_date, status, activities_synced, error_message, details
		FROM sync_logs ORDER BY sync_date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync logs: %w", err)
	}
	defer rows.Close()

	items := []report.SyncLog{}
	for rows.Next() {
		var (
			l               report.SyncLog
			errMsg, details sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.SyncDate, &l.Status, &l.ActivitiesSynced, &errMsg, &details); err != nil {
			return nil, fmt.Errorf("scanning sync log: %w", err)
		}
		l.ErrorMessage = errMsg.String
		if details.Valid && details.String != "" {
			l.Details = json.RawMessage(details.String)
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync logs: %w", err)
	}
	return items, nil
}

// LastSync returns the most recent sync attempt, or nil when none was logged.
func (q *Queries) LastSync(ctx context.Context) (*report.LastSync, error) {
	var l report.LastSync
	err := q.db.QueryRowContext(ctx,
		`SELECT sync_date, status, activities_synced
		FROM sync_logs ORDER BY sync_date DESC, id DESC LIMIT 1`,
	).Scan(&l.Date, &l.Status, &l.ActivitiesSynced)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading last sync: %w", err)
	}
	return &l, nil
}

// CountSyncLogs returns the number of logged sync attempts.
func (q *Queries) CountSyncLogs(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sync_logs").Scan(&n)
	return n, err
}
