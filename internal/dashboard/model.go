// Package dashboard is the terminal view controller: it wires key presses,
// timers and backend responses to the renderers.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/client"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/render"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/weekly"
)

// Tab is one dashboard page.
type Tab int

const (
	TabOverview Tab = iota
	TabActivities
	TabWeekly
	TabLogs
	tabCount
)

// Options configures New. Zero values take the defaults below.
type Options struct {
	Messages        render.Messages
	RefreshInterval time.Duration
	SyncReloadDelay time.Duration
	NotificationTTL time.Duration
	OverviewLimit   int
	ActivitiesLimit int
	// Location places plain activity dates into weeks. Nil means time.Local.
	Location *time.Location
}

const (
	defaultRefreshInterval = 5 * time.Minute
	defaultSyncReloadDelay = 5 * time.Second
	defaultNotificationTTL = 5 * time.Second
	defaultOverviewLimit   = 50
	defaultActivitiesLimit = 100
	defaultWidth           = 100
)

type banner struct {
	id   int
	kind render.BannerKind
	text string
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	backend Backend
	opts    Options
	msgs    render.Messages
	log     zerolog.Logger

	tab    Tab
	width  int
	height int

	loads   *loadTracker
	syncing bool

	charts     *Charts
	cards      []render.Card
	activities *render.Table
	weekly     *render.Table
	logs       []render.LogEntry
	logsLoaded bool

	banner   *banner
	bannerID int

	filters filterForm
	spinner spinner.Model
}

// New returns a dashboard reading from backend.
func New(backend Backend, opts Options) Model {
	if opts.Messages.Locale == "" {
		opts.Messages = render.Locale("")
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = defaultRefreshInterval
	}
	if opts.SyncReloadDelay <= 0 {
		opts.SyncReloadDelay = defaultSyncReloadDelay
	}
	if opts.NotificationTTL <= 0 {
		opts.NotificationTTL = defaultNotificationTTL
	}
	if opts.OverviewLimit <= 0 {
		opts.OverviewLimit = defaultOverviewLimit
	}
	if opts.ActivitiesLimit <= 0 {
		opts.ActivitiesLimit = defaultActivitiesLimit
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	msgs := opts.Messages
	return Model{
		backend:  backend,
		opts:     opts,
		msgs:     msgs,
		log:      logging.Logger.With().Str("component", "dashboard").Logger(),
		width:    defaultWidth,
		loads:    &loadTracker{inflight: make(map[loadKind]request)},
		charts:   NewCharts(),
		filters:  newFilterForm(msgs.FilterStart, msgs.FilterEnd, msgs.FilterType),
		spinner:  s,
	}
}

// Charts exposes the chart registry.
func (m Model) Charts() *Charts {
	return m.charts
}

// Tab returns the visible tab.
func (m Model) Tab() Tab {
	return m.tab
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadOverview(),
		scheduleRefresh(m.opts.RefreshInterval),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refreshMsg:
		return m, tea.Batch(m.loadOverview(), scheduleRefresh(m.opts.RefreshInterval))

	case syncReloadMsg:
		return m, m.loadOverview()

	case bannerExpiredMsg:
		if m.banner != nil && m.banner.id == msg.id {
			m.banner = nil
		}
		return m, nil

	case overviewMsg:
		return m.applyOverview(msg)

	case activitiesMsg:
		if !m.finish(loadActivities, msg.seq) {
			return m, nil
		}
		if msg.err != nil {
			cmd := m.fail(m.msgs.LoadActivitiesFailed, loadActivities, msg.err)
			return m, cmd
		}
		t := render.ActivityRows(msg.activities, m.msgs)
		m.activities = &t
		return m, nil

	case weeklyMsg:
		if !m.finish(loadWeekly, msg.seq) {
			return m, nil
		}
		if msg.err != nil {
			cmd := m.fail(m.msgs.LoadWeeklyFailed, loadWeekly, msg.err)
			return m, cmd
		}
		t := render.WeeklyStatRows(msg.stats, m.msgs)
		m.weekly = &t
		m.charts.Replace(render.NewBarChart(ChartWeeklyDistance, m.msgs.ChartWeeklyDistance, render.WeeklyDistance(msg.stats, m.msgs)))
		m.charts.Replace(render.NewBarChart(ChartWeeklyTime, m.msgs.ChartWeeklyTime, render.WeeklyTime(msg.stats, m.msgs)))
		return m, nil

	case logsMsg:
		if !m.finish(loadLogs, msg.seq) {
			return m, nil
		}
		if msg.err != nil {
			cmd := m.fail(m.msgs.LoadLogsFailed, loadLogs, msg.err)
			return m, cmd
		}
		m.logs = render.SyncLogEntries(msg.logs, m.msgs)
		m.logsLoaded = true
		return m, nil

	case syncMsg:
		return m.applySync(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filters.editing {
		switch {
		case msg.Type == tea.KeyCtrlC:
			m.cancelAll()
			m.charts.DestroyAll()
			return m, tea.Quit
		case key.Matches(msg, keys.Apply):
			if err := m.filters.apply(); err != nil {
				cmd := m.notify(render.BannerError, m.msgs.LoadActivitiesFailed+": "+err.Error())
				return m, cmd
			}
			m.tab = TabActivities
			return m, m.loadActivities()
		case key.Matches(msg, keys.Cancel):
			m.filters.cancel()
			return m, nil
		case key.Matches(msg, keys.Next):
			cmd := m.filters.move(1)
			return m, cmd
		case key.Matches(msg, keys.Prev):
			cmd := m.filters.move(-1)
			return m, cmd
		}
		cmd := m.filters.update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.cancelAll()
		m.charts.DestroyAll()
		return m, tea.Quit
	case key.Matches(msg, keys.Overview):
		return m.switchTab(TabOverview)
	case key.Matches(msg, keys.Activities):
		return m.switchTab(TabActivities)
	case key.Matches(msg, keys.Weekly):
		return m.switchTab(TabWeekly)
	case key.Matches(msg, keys.Logs):
		return m.switchTab(TabLogs)
	case key.Matches(msg, keys.Next):
		return m.switchTab((m.tab + 1) % tabCount)
	case key.Matches(msg, keys.Prev):
		return m.switchTab((m.tab + tabCount - 1) % tabCount)
	case key.Matches(msg, keys.Reload):
		return m, m.loadTab(m.tab)
	case key.Matches(msg, keys.Sync):
		if m.syncing {
			return m, nil
		}
		m.syncing = true
		return m, m.triggerSync()
	case key.Matches(msg, keys.Filter):
		m.tab = TabActivities
		cmd := m.filters.open()
		return m, cmd
	}
	return m, nil
}

func (m Model) switchTab(t Tab) (tea.Model, tea.Cmd) {
	m.tab = t
	return m, m.loadTab(t)
}

func (m Model) applyOverview(msg overviewMsg) (tea.Model, tea.Cmd) {
	if !m.finish(loadOverview, msg.seq) {
		return m, nil
	}
	if msg.summary != nil {
		m.cards = render.SummaryCards(*msg.summary, m.msgs)
	}
	if msg.err != nil {
		cmd := m.fail(m.msgs.LoadFailed, loadOverview, msg.err)
		return m, cmd
	}

	buckets, rejected := weekly.Aggregate(msg.activities, m.opts.Location)
	for _, r := range rejected {
		m.log.Warn().
			Str("activity_id", r.Activity.ID).
			Str("date", r.Activity.Date).
			Err(r.Err).
			Msg("skipping activity without a usable date")
	}

	m.charts.Replace(render.NewBarChart(ChartWeeklyVolume, m.msgs.ChartWeeklyVolume, render.WeeklyVolume(buckets, m.msgs)))
	m.charts.Replace(render.NewDistributionChart(ChartActivityType, m.msgs.ChartActivityTypes, render.TypeDistribution(msg.activities, m.msgs)))
	return m, nil
}

func (m Model) applySync(msg syncMsg) (tea.Model, tea.Cmd) {
	if !m.finish(loadSync, msg.seq) {
		return m, nil
	}
	m.syncing = false
	if msg.err != nil {
		cmd := m.fail(m.msgs.SyncFailed, loadSync, msg.err)
		return m, cmd
	}

	switch msg.resp.Status {
	case report.SyncStarted:
		cmd := tea.Batch(
			m.notify(render.BannerSuccess, m.msgs.SyncStarted),
			scheduleSyncReload(m.opts.SyncReloadDelay),
		)
		return m, cmd
	case report.SyncRunning:
		cmd := m.notify(render.BannerInfo, m.msgs.SyncAlreadyRunning)
		return m, cmd
	default:
		text := msg.resp.Message
		if text == "" {
			text = msg.resp.Status
		}
		cmd := m.notify(render.BannerInfo, text)
		return m, cmd
	}
}

// fail logs err and shows it as an error banner. Previously rendered data is
// left as it was.
func (m *Model) fail(prefix string, kind loadKind, err error) tea.Cmd {
	m.log.Error().Err(err).Stringer("path", kind).Msg("backend request failed")
	return m.notify(render.BannerError, prefix+": "+client.Message(err))
}

// notify replaces the banner and schedules its removal.
func (m *Model) notify(kind render.BannerKind, text string) tea.Cmd {
	m.bannerID++
	id := m.bannerID
	m.banner = &banner{id: id, kind: kind, text: text}
	return tea.Tick(m.opts.NotificationTTL, func(time.Time) tea.Msg {
		return bannerExpiredMsg{id: id}
	})
}
