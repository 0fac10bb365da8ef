// Package sync imports activities into the store, rebuilds the weekly
// statistics and records every run in the sync log.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/db"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/weekly"
)

const (
	DefaultDaysToSync = 14
	DefaultStatsDays  = 84
	dateLayout        = "2006-01-02"
)

// Source yields the activities started on or after since.
type Source interface {
	Activities(ctx context.Context, since time.Time) ([]activity.Activity, error)
}

// Options configure a Service. Zero values select the defaults.
type Options struct {
	DaysToSync int
	StatsDays  int
	Location   *time.Location
	Now        func() time.Time
}

// Result describes one completed run.
type Result struct {
	RunID    string
	Synced   int
	Weeks    int
	Rejected int
	Failed   int
	Duration time.Duration
}

// details is stored with every sync log entry.
type details struct {
	RunID      string `json:"run_id"`
	DaysSynced int    `json:"days_synced"`
	Weeks      int    `json:"weeks,omitempty"`
	Rejected   int    `json:"rejected,omitempty"`
	Failed     int    `json:"failed,omitempty"`
}

// Service runs syncs against a Source.
type Service struct {
	queries *db.Queries
	source  Source
	opts    Options
}

// NewService creates a new sync service
func NewService(queries *db.Queries, source Source, opts Options) *Service {
	if opts.DaysToSync <= 0 {
		opts.DaysToSync = DefaultDaysToSync
	}
	if opts.StatsDays <= 0 {
		opts.StatsDays = DefaultStatsDays
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{queries: queries, source: source, opts: opts}
}

// Run imports the last DaysToSync days, rebuilds the weekly statistics for
// the last StatsDays days and logs the outcome. A failed run is logged with
// status error and its error is returned.
func (s *Service) Run(ctx context.Context) (Result, error) {
	log := logging.Logger
	started := s.opts.Now()
	res := Result{RunID: uuid.NewString()}
	log.Info().Str("run_id", res.RunID).Int("days", s.opts.DaysToSync).Msg("starting sync")

	err := s.run(ctx, started, &res)
	res.Duration = s.opts.Now().Sub(started)

	entry := db.InsertSyncLogParams{
		SyncDate:         started,
		Status:           report.StatusSuccess,
		ActivitiesSynced: res.Synced,
	}
	if err != nil {
		entry.Status = report.StatusError
		entry.ErrorMessage = err.Error()
	}
	entry.Details, _ = json.Marshal(details{
		RunID:      res.RunID,
		DaysSynced: s.opts.DaysToSync,
		Weeks:      res.Weeks,
		Rejected:   res.Rejected,
		Failed:     res.Failed,
	})

	// The outcome is logged even when ctx was cancelled mid-run.
	logCtx := context.WithoutCancel(ctx)
	if _, logErr := s.queries.InsertSyncLog(logCtx, entry); logErr != nil {
		log.Error().Err(logErr).Str("run_id", res.RunID).Msg("failed to record sync log")
		err = errors.Join(err, logErr)
	}

	if err != nil {
		log.Error().Err(err).Str("run_id", res.RunID).Int("synced", res.Synced).Msg("sync failed")
		return res, err
	}
	log.Info().
		Str("run_id", res.RunID).
		Int("synced", res.Synced).
		Int("failed", res.Failed).
		Int("weeks", res.Weeks).
		Dur("took", res.Duration).
		Msg("sync completed")
	return res, nil
}

func (s *Service) run(ctx context.Context, now time.Time, res *Result) error {
	since := startOfDay(now.In(s.opts.Location)).AddDate(0, 0, -s.opts.DaysToSync)

	records, err := s.source.Activities(ctx, since)
	if err != nil {
		return fmt.Errorf("fetching activities: %w", err)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.queries.UpsertActivity(ctx, rec); err != nil {
			res.Failed++
			logging.Logger.Warn().Err(err).Str("id", rec.ID).Str("name", rec.Name).Msg("failed to save activity, skipping")
			continue
		}
		res.Synced++
		logging.Logger.Debug().Str("id", rec.ID).Str("type", rec.Type).Str("date", rec.Date).Msg("saved activity")
	}

	weeks, rejected, err := s.RebuildWeeklyStats(ctx)
	if err != nil {
		return err
	}
	res.Weeks = weeks
	res.Rejected = rejected
	return nil
}

// RebuildWeeklyStats recomputes weekly_stats for every week overlapping the
// last StatsDays days from the stored activities. It returns the number of
// weeks written and of activities left out for lacking a usable date.
func (s *Service) RebuildWeeklyStats(ctx context.Context) (int, int, error) {
	log := logging.Logger
	now := s.opts.Now().In(s.opts.Location)
	from := weekly.WeekOf(now.AddDate(0, 0, -s.opts.StatsDays)).Start()

	records, err := s.queries.ActivitiesSince(ctx, from.Format(dateLayout))
	if err != nil {
		return 0, 0, fmt.Errorf("loading activities for weekly stats: %w", err)
	}

	buckets, rejected := weekly.Aggregate(records, s.opts.Location)
	for _, r := range rejected {
		log.Warn().Str("id", r.Activity.ID).Err(r.Err).Msg("activity left out of weekly stats")
	}

	for _, b := range buckets {
		if err := s.queries.UpsertWeeklyStat(ctx, WeeklyStat(b)); err != nil {
			return 0, len(rejected), err
		}
	}
	log.Debug().Int("weeks", len(buckets)).Str("from", from.Format(dateLayout)).Msg("weekly stats rebuilt")
	return len(buckets), len(rejected), nil
}

// WeeklyStat converts an aggregated bucket to its stored row.
func WeeklyStat(b weekly.Bucket) report.WeeklyStat {
	return report.WeeklyStat{
		WeekStart:        b.Week.Start().Format(dateLayout),
		WeekEnd:          b.Week.End().Format(dateLayout),
		TotalCyclingKm:   b.CyclingKm,
		TotalCyclingTime: b.CyclingSeconds,
		TotalRunningKm:   b.RunningKm,
		TotalRunningTime: b.RunningSeconds,
		TotalActivities:  b.Activities,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
