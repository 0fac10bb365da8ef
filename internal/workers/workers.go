package workers

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/auth"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/db"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/metrics"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
	syncsvc "github.com/Pavlovskyi-Andrii/sub5-project/internal/sync"
)

// refreshWindow is how long before expiry the refresher renews a token.
const refreshWindow = 10 * time.Minute

// TokenStore is the part of auth.Storage the refresher needs.
type TokenStore interface {
	Token(ctx context.Context) (auth.Token, error)
	Refresh(ctx context.Context) (auth.Token, error)
}

// TokenRefresher keeps auth tokens up to date
type TokenRefresher struct {
	store    TokenStore
	interval time.Duration
	metrics  *metrics.Manager
	now      func() time.Time
}

// NewTokenRefresher creates a new token refresher worker
func NewTokenRefresher(store TokenStore, interval time.Duration, m *metrics.Manager) *TokenRefresher {
	return &TokenRefresher{
		store:    store,
		interval: interval,
		metrics:  m,
		now:      time.Now,
	}
}

// Run checks the token immediately and then every interval until ctx is done.
func (t *TokenRefresher) Run(ctx context.Context) {
	log := logging.Logger
	log.Info().Dur("interval", t.interval).Msg("token refresher started")

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.checkAndRefresh(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("token refresher stopped")
			return
		case <-ticker.C:
			t.checkAndRefresh(ctx)
		}
	}
}

func (t *TokenRefresher) checkAndRefresh(ctx context.Context) {
	log := logging.Logger

	tok, err := t.store.Token(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load tokens for refresh check")
		return
	}

	left := time.Unix(tok.ExpiresAt, 0).Sub(t.now())
	if left >= refreshWindow {
		log.Debug().Dur("expires_in", left.Round(time.Second)).Msg("token still valid")
		return
	}

	log.Info().Dur("expires_in", left.Round(time.Second)).Msg("token expiring soon, refreshing")
	fresh, err := t.store.Refresh(ctx)
	if err != nil {
		t.metrics.TokenRefreshFailed()
		log.Error().Err(err).Msg("failed to refresh token")
		return
	}
	log.Info().Time("new_expires_at", time.Unix(fresh.ExpiresAt, 0)).Msg("token refreshed successfully")
}

// Runner performs one sync run. *sync.Service satisfies it.
type Runner interface {
	Run(ctx context.Context) (syncsvc.Result, error)
}

// ActivitySyncer runs a sync every interval and on demand. At most one run
// is in progress or queued at any time.
type ActivitySyncer struct {
	runner     Runner
	interval   time.Duration
	runOnStart bool
	metrics    *metrics.Manager

	trigger chan struct{}
	busy    atomic.Bool
}

// NewActivitySyncer creates a new activity sync worker. With runOnStart the
// first run starts as soon as Run is called.
func NewActivitySyncer(runner Runner, interval time.Duration, runOnStart bool, m *metrics.Manager) *ActivitySyncer {
	return &ActivitySyncer{
		runner:     runner,
		interval:   interval,
		runOnStart: runOnStart,
		metrics:    m,
		trigger:    make(chan struct{}, 1),
	}
}

// Trigger queues a run and answers report.SyncStarted, or report.SyncRunning
// when a run is already in progress or queued.
func (a *ActivitySyncer) Trigger() string {
	result := report.SyncRunning
	if a.busy.CompareAndSwap(false, true) {
		a.trigger <- struct{}{}
		result = report.SyncStarted
	}
	a.metrics.SyncTriggered(result)
	logging.Logger.Debug().Str("result", result).Msg("manual sync requested")
	return result
}

// Busy reports whether a run is in progress or queued.
func (a *ActivitySyncer) Busy() bool {
	return a.busy.Load()
}

// Run starts the activity sync worker
func (a *ActivitySyncer) Run(ctx context.Context) {
	log := logging.Logger
	log.Info().Dur("interval", a.interval).Msg("activity syncer started")

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	if a.runOnStart && a.busy.CompareAndSwap(false, true) {
		a.runOnce(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("activity syncer stopped")
			return
		case <-a.trigger:
			a.runOnce(ctx)
		case <-ticker.C:
			if a.busy.CompareAndSwap(false, true) {
				a.runOnce(ctx)
			} else {
				log.Debug().Msg("sync already queued, skipping tick")
			}
		}
	}
}

// runOnce expects busy to be held by the caller and releases it.
func (a *ActivitySyncer) runOnce(ctx context.Context) {
	defer a.busy.Store(false)

	a.metrics.SyncStarted()
	res, err := a.runner.Run(ctx)
	status := report.StatusSuccess
	if err != nil {
		status = report.StatusError
	}
	a.metrics.SyncFinished(status, res.Synced, res.Duration)
}

// LogDatabaseStats logs current database statistics
func LogDatabaseStats(ctx context.Context, queries *db.Queries) {
	log := logging.Logger

	count, err := queries.CountActivities(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count activities")
		return
	}
	syncs, _ := queries.CountSyncLogs(ctx)

	if count == 0 {
		log.Info().Int64("total_activities", 0).Int64("sync_runs", syncs).Msg("database statistics")
		return
	}

	newest, _ := queries.LatestActivityDate(ctx)
	oldest, _ := queries.OldestActivityDate(ctx)

	ev := log.Info().
		Int64("total_activities", count).
		Str("newest_activity", orUnknown(newest)).
		Str("oldest_activity", orUnknown(oldest)).
		Int64("sync_runs", syncs)
	if last, err := queries.LastSync(ctx); err == nil && last != nil {
		ev = ev.Str("last_sync", last.Date).Str("last_sync_status", last.Status)
	}
	ev.Msg("database statistics")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
