package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	minBarWidth  = 4
	labelWidth   = 12
	valueWidth   = 8
	maxTypeLabel = 18
)

type chartKind int

const (
	barChart chartKind = iota
	distributionChart
)

// Chart is a drawable chart handle. A destroyed chart renders nothing.
type Chart struct {
	ID    string
	Title string

	kind      chartKind
	bars      BarSeries
	dist      Distribution
	destroyed bool
}

// NewBarChart returns a grouped cycling/running bar chart.
func NewBarChart(id, title string, s BarSeries) *Chart {
	return &Chart{ID: id, Title: title, kind: barChart, bars: s}
}

// NewDistributionChart returns a chart of record counts per type.
func NewDistributionChart(id, title string, d Distribution) *Chart {
	return &Chart{ID: id, Title: title, kind: distributionChart, dist: d}
}

// Destroy releases the chart. Further View calls return "".
func (c *Chart) Destroy() {
	c.destroyed = true
	c.bars = BarSeries{}
	c.dist = Distribution{}
}

// Destroyed reports whether Destroy has been called.
func (c *Chart) Destroyed() bool {
	return c.destroyed
}

// View draws the chart to fit width columns.
func (c *Chart) View(width int, noData string) string {
	if c == nil || c.destroyed {
		return ""
	}
	var body string
	switch c.kind {
	case distributionChart:
		body = DistributionChart(c.dist, width, noData)
	default:
		body = BarChart(c.bars, width, noData)
	}
	return titleStyle.Render(c.Title) + "\n" + body
}

// BarChart draws one group of two horizontal bars per label, scaled to the
// largest value in either series.
func BarChart(s BarSeries, width int, noData string) string {
	if s.Len() == 0 {
		return dimStyle.Render("  " + noData)
	}
	barW := width - labelWidth - valueWidth - 4
	if barW < minBarWidth {
		barW = minBarWidth
	}

	maxVal := 0.0
	for i := range s.Labels {
		maxVal = max(maxVal, s.Cycling[i], s.Running[i])
	}
	if maxVal == 0 {
		maxVal = 1
	}

	label := lipgloss.NewStyle().Width(labelWidth)
	var lines []string
	for i, l := range s.Labels {
		lines = append(lines,
			fmt.Sprintf("  %s %s", label.Render(l), bar(s.Cycling[i], maxVal, barW, colorCycling)),
			fmt.Sprintf("  %s %s", label.Render(""), bar(s.Running[i], maxVal, barW, colorRunning)),
		)
	}
	lines = append(lines, "  "+legend(s.CyclingName, colorCycling)+"  "+legend(s.RunningName, colorRunning))
	return strings.Join(lines, "\n")
}

// DistributionChart draws one bar per type with its count and share.
func DistributionChart(d Distribution, width int, noData string) string {
	total := d.Total()
	if total == 0 {
		return dimStyle.Render("  " + noData)
	}
	barW := width - maxTypeLabel - valueWidth - 10
	if barW < minBarWidth {
		barW = minBarWidth
	}

	maxCount := 0
	for _, c := range d.Counts {
		maxCount = max(maxCount, c)
	}

	label := lipgloss.NewStyle().Width(maxTypeLabel)
	lines := make([]string, 0, len(d.Labels))
	for i, l := range d.Labels {
		color := palette[i%len(palette)]
		share := float64(d.Counts[i]) / float64(total) * 100
		lines = append(lines, fmt.Sprintf("  %s %s %d (%.0f%%)",
			label.Render(truncate(l, maxTypeLabel)),
			gauge(float64(d.Counts[i]), float64(maxCount), barW, color),
			d.Counts[i], share))
	}
	return strings.Join(lines, "\n")
}

func bar(v, maxVal float64, w int, color lipgloss.Color) string {
	return gauge(v, maxVal, w, color) + " " + lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%.1f", v))
}

func gauge(v, maxVal float64, w int, color lipgloss.Color) string {
	filled := int(v / maxVal * float64(w))
	if filled < 1 && v > 0 {
		filled = 1
	}
	filled = max(0, min(filled, w))
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(colorTrack).Render(strings.Repeat("░", w-filled))
}

func legend(name string, color lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(color).Render("■") + " " + name
}

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	return string(r[:w-1]) + "…"
}
