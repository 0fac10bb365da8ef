package render

import "github.com/charmbracelet/lipgloss"

var (
	colorCycling = lipgloss.Color("#36A2EB")
	colorRunning = lipgloss.Color("#FF6384")
	colorTrack   = lipgloss.Color("#3A3A3A")
	colorDim     = lipgloss.Color("#8A8A8A")
	colorSuccess = lipgloss.Color("#4BC07A")
	colorError   = lipgloss.Color("#E5534B")
	colorInfo    = lipgloss.Color("#58A6FF")

	// palette is cycled through for distribution slices.
	palette = []lipgloss.Color{
		colorRunning,
		colorCycling,
		lipgloss.Color("#FFCE56"),
		lipgloss.Color("#4BC0C0"),
		lipgloss.Color("#9966FF"),
	}

	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorInfo)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1).
			MarginRight(1)
	cardValueStyle = lipgloss.NewStyle().Bold(true)

	bannerStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true)
)
