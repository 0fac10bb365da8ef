package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const maxCellWidth = 28

// RenderTable draws t with columns sized to their widest cell.
func RenderTable(t Table) string {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			widths[i] = max(widths[i], lipgloss.Width(truncate(cell, maxCellWidth)))
		}
	}

	var b strings.Builder
	b.WriteString(renderRow(t.Headers, widths, headerStyle))
	b.WriteByte('\n')

	total := 0
	for _, w := range widths {
		total += w + 2
	}
	b.WriteString(dimStyle.Render(strings.Repeat("─", total)))

	if t.Empty() {
		b.WriteByte('\n')
		b.WriteString(dimStyle.Render(lipgloss.PlaceHorizontal(total, lipgloss.Center, t.Placeholder)))
		return b.String()
	}
	for _, row := range t.Rows {
		b.WriteByte('\n')
		b.WriteString(renderRow(row, widths, lipgloss.NewStyle()))
	}
	return b.String()
}

func renderRow(cells []string, widths []int, style lipgloss.Style) string {
	parts := make([]string, 0, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = truncate(cells[i], maxCellWidth)
		}
		parts = append(parts, style.Width(w+2).Render(cell))
	}
	return strings.Join(parts, "")
}

// Cards draws the summary tiles side by side.
func Cards(cards []Card) string {
	tiles := make([]string, 0, len(cards))
	for _, c := range cards {
		lines := []string{dimStyle.Render(c.Title), cardValueStyle.Render(c.Value)}
		if c.Detail != "" {
			detail := lipgloss.NewStyle().Foreground(colorSuccess)
			if c.Error {
				detail = detail.Foreground(colorError)
			}
			lines = append(lines, detail.Render(c.Detail))
		}
		tiles = append(tiles, cardStyle.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tiles...)
}

// SyncLog draws the sync log entries, or the placeholder when there are none.
func SyncLog(entries []LogEntry, placeholder string) string {
	if len(entries) == 0 {
		return dimStyle.Render("  " + placeholder)
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		mark := lipgloss.NewStyle().Foreground(colorSuccess).Render("●")
		if !e.OK {
			mark = lipgloss.NewStyle().Foreground(colorError).Render("●")
		}
		line := "  " + mark + " " + e.When + "  " + e.Status + "  " + dimStyle.Render(e.Detail)
		if e.Error != "" {
			line += "\n      " + lipgloss.NewStyle().Foreground(colorError).Render(e.Error)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// BannerKind selects a banner's color.
type BannerKind int

const (
	BannerInfo BannerKind = iota
	BannerSuccess
	BannerError
)

// Banner draws a one-line notification.
func Banner(kind BannerKind, text string) string {
	style := bannerStyle
	switch kind {
	case BannerSuccess:
		style = style.Foreground(colorSuccess)
	case BannerError:
		style = style.Foreground(colorError)
	default:
		style = style.Foreground(colorInfo)
	}
	return style.Render(text)
}
