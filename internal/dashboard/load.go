package dashboard

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/client"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
)

// Backend is the part of the REST client the dashboard calls.
type Backend interface {
	Summary(ctx context.Context) (report.Summary, error)
	Activities(ctx context.Context, q client.ActivityQuery) ([]activity.Activity, error)
	WeeklyStats(ctx context.Context) ([]report.WeeklyStat, error)
	SyncLogs(ctx context.Context) ([]report.SyncLog, error)
	TriggerSync(ctx context.Context) (report.SyncResponse, error)
}

type loadKind int

const (
	loadOverview loadKind = iota
	loadActivities
	loadWeekly
	loadLogs
	loadSync
)

func (k loadKind) String() string {
	switch k {
	case loadOverview:
		return "overview"
	case loadActivities:
		return "activities"
	case loadWeekly:
		return "weekly"
	case loadLogs:
		return "logs"
	case loadSync:
		return "sync"
	default:
		return "unknown"
	}
}

// request is the in-flight call for one load path. Only the response
// carrying the latest seq is applied.
type request struct {
	seq    uint64
	cancel context.CancelFunc
}

type overviewMsg struct {
	seq        uint64
	summary    *report.Summary
	activities []activity.Activity
	err        error
}

type activitiesMsg struct {
	seq        uint64
	activities []activity.Activity
	err        error
}

type weeklyMsg struct {
	seq   uint64
	stats []report.WeeklyStat
	err   error
}

type logsMsg struct {
	seq  uint64
	logs []report.SyncLog
	err  error
}

type syncMsg struct {
	seq  uint64
	resp report.SyncResponse
	err  error
}

type refreshMsg time.Time

type syncReloadMsg struct{}

type bannerExpiredMsg struct{ id int }

// loadTracker tracks the in-flight request per load path. It is shared by every
// copy of the Model, so commands built from a stale copy still cancel.
type loadTracker struct {
	seq      uint64
	inflight map[loadKind]request
}

// begin cancels the previous request on kind and registers a new one.
func (m *Model) begin(kind loadKind) (context.Context, uint64) {
	if prev, ok := m.loads.inflight[kind]; ok {
		prev.cancel()
	}
	m.loads.seq++
	ctx, cancel := context.WithCancel(context.Background())
	m.loads.inflight[kind] = request{seq: m.loads.seq, cancel: cancel}
	return ctx, m.loads.seq
}

// finish reports whether seq is the latest request on kind, and releases it
// if so.
func (m *Model) finish(kind loadKind, seq uint64) bool {
	req, ok := m.loads.inflight[kind]
	if !ok || req.seq != seq {
		m.log.Debug().
			Stringer("path", kind).
			Uint64("seq", seq).
			Msg("dropping superseded response")
		return false
	}
	req.cancel()
	delete(m.loads.inflight, kind)
	return true
}

func (m *Model) cancelAll() {
	for kind, req := range m.loads.inflight {
		req.cancel()
		delete(m.loads.inflight, kind)
	}
}

func (m *Model) loading(kind loadKind) bool {
	_, ok := m.loads.inflight[kind]
	return ok
}

func (m *Model) busy() bool {
	return len(m.loads.inflight) > 0
}

func (m *Model) loadOverview() tea.Cmd {
	ctx, seq := m.begin(loadOverview)
	backend, limit := m.backend, m.opts.OverviewLimit
	return func() tea.Msg {
		summary, err := backend.Summary(ctx)
		if err != nil {
			return overviewMsg{seq: seq, err: err}
		}
		acts, err := backend.Activities(ctx, client.ActivityQuery{Limit: limit})
		return overviewMsg{seq: seq, summary: &summary, activities: acts, err: err}
	}
}

func (m *Model) loadActivities() tea.Cmd {
	ctx, seq := m.begin(loadActivities)
	backend := m.backend
	q := m.filters.applied
	q.Limit = m.opts.ActivitiesLimit
	return func() tea.Msg {
		acts, err := backend.Activities(ctx, q)
		return activitiesMsg{seq: seq, activities: acts, err: err}
	}
}

func (m *Model) loadWeekly() tea.Cmd {
	ctx, seq := m.begin(loadWeekly)
	backend := m.backend
	return func() tea.Msg {
		stats, err := backend.WeeklyStats(ctx)
		return weeklyMsg{seq: seq, stats: stats, err: err}
	}
}

func (m *Model) loadLogs() tea.Cmd {
	ctx, seq := m.begin(loadLogs)
	backend := m.backend
	return func() tea.Msg {
		logs, err := backend.SyncLogs(ctx)
		return logsMsg{seq: seq, logs: logs, err: err}
	}
}

func (m *Model) triggerSync() tea.Cmd {
	ctx, seq := m.begin(loadSync)
	backend := m.backend
	return func() tea.Msg {
		resp, err := backend.TriggerSync(ctx)
		return syncMsg{seq: seq, resp: resp, err: err}
	}
}

func (m *Model) loadTab(t Tab) tea.Cmd {
	switch t {
	case TabActivities:
		return m.loadActivities()
	case TabWeekly:
		return m.loadWeekly()
	case TabLogs:
		return m.loadLogs()
	default:
		return m.loadOverview()
	}
}

func scheduleRefresh(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func scheduleSyncReload(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return syncReloadMsg{}
	})
}
