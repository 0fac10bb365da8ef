package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/render"
)

var (
	appTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FC4C02")).Padding(0, 1)
	tabStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#8A8A8A"))
	activeTab     = tabStyle.Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Underline(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	sectionStyle  = lipgloss.NewStyle().MarginTop(1)
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteByte('\n')

	if m.banner != nil {
		b.WriteString(render.Banner(m.banner.kind, m.banner.text))
		b.WriteByte('\n')
	}

	switch m.tab {
	case TabActivities:
		b.WriteString(m.activitiesView())
	case TabWeekly:
		b.WriteString(m.weeklyView())
	case TabLogs:
		b.WriteString(m.logsView())
	default:
		b.WriteString(m.overviewView())
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(m.msgs.Help))
	return b.String()
}

func (m Model) header() string {
	names := []string{m.msgs.TabOverview, m.msgs.TabActivities, m.msgs.TabWeekly, m.msgs.TabLogs}
	tabs := make([]string, 0, len(names))
	for i, name := range names {
		style := tabStyle
		if Tab(i) == m.tab {
			style = activeTab
		}
		tabs = append(tabs, style.Render(name))
	}

	status := ""
	switch {
	case m.syncing:
		status = m.spinner.View() + " " + m.msgs.Syncing
	case m.busy():
		status = m.spinner.View() + " " + m.msgs.Loading
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, appTitleStyle.Render("SUB5"), strings.Join(tabs, ""), "  ", status)
}

func (m Model) overviewView() string {
	if m.cards == nil && m.charts.Get(ChartWeeklyVolume) == nil && m.loading(loadOverview) {
		return m.loadingView()
	}
	parts := []string{render.Cards(m.cards)}
	for _, id := range []string{ChartWeeklyVolume, ChartActivityType} {
		if view := m.charts.Get(id).View(m.width, m.msgs.NoActivities); view != "" {
			parts = append(parts, sectionStyle.Render(view))
		}
	}
	return strings.Join(parts, "\n")
}

func (m Model) activitiesView() string {
	var parts []string
	if m.filters.editing || m.filters.active() {
		parts = append(parts, m.filters.view())
	}
	switch {
	case m.activities != nil:
		parts = append(parts, render.RenderTable(*m.activities))
	case m.loading(loadActivities):
		parts = append(parts, m.loadingView())
	default:
		parts = append(parts, render.RenderTable(render.ActivityRows(nil, m.msgs)))
	}
	return strings.Join(parts, "\n")
}

func (m Model) weeklyView() string {
	if m.weekly == nil {
		if m.loading(loadWeekly) {
			return m.loadingView()
		}
		return render.RenderTable(render.WeeklyStatRows(nil, m.msgs))
	}
	parts := []string{render.RenderTable(*m.weekly)}
	for _, id := range []string{ChartWeeklyDistance, ChartWeeklyTime} {
		if view := m.charts.Get(id).View(m.width, m.msgs.NoWeeklyStats); view != "" {
			parts = append(parts, sectionStyle.Render(view))
		}
	}
	return strings.Join(parts, "\n")
}

func (m Model) logsView() string {
	if !m.logsLoaded && m.loading(loadLogs) {
		return m.loadingView()
	}
	return render.SyncLog(m.logs, m.msgs.NoSyncLogs)
}

func (m Model) loadingView() string {
	return m.spinner.View() + " " + m.msgs.Loading
}
