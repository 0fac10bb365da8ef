package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/client"
)

const filterDateLayout = "2006-01-02"

const (
	fieldStart = iota
	fieldEnd
	fieldType
	fieldCount
)

// filterForm edits the activities query. Edits only take effect on apply.
type filterForm struct {
	inputs  [fieldCount]textinput.Model
	focus   int
	editing bool
	applied client.ActivityQuery
}

func newFilterForm(start, end, typ string) filterForm {
	var f filterForm
	for i, label := range []string{start, end, typ} {
		in := textinput.New()
		in.Prompt = label + ": "
		in.CharLimit = 32
		in.Width = 12
		f.inputs[i] = in
	}
	f.inputs[fieldStart].Placeholder = filterDateLayout
	f.inputs[fieldEnd].Placeholder = filterDateLayout
	return f
}

func (f *filterForm) open() tea.Cmd {
	f.editing = true
	f.focus = fieldStart
	return f.refocus()
}

func (f *filterForm) cancel() {
	f.editing = false
	f.inputs[fieldStart].SetValue(f.applied.StartDate)
	f.inputs[fieldEnd].SetValue(f.applied.EndDate)
	f.inputs[fieldType].SetValue(f.applied.Type)
	f.blurAll()
}

func (f *filterForm) move(delta int) tea.Cmd {
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f.refocus()
}

func (f *filterForm) refocus() tea.Cmd {
	f.blurAll()
	return f.inputs[f.focus].Focus()
}

func (f *filterForm) blurAll() {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
}

// apply validates the form and makes it the active query.
func (f *filterForm) apply() error {
	q := client.ActivityQuery{
		StartDate: strings.TrimSpace(f.inputs[fieldStart].Value()),
		EndDate:   strings.TrimSpace(f.inputs[fieldEnd].Value()),
		Type:      strings.TrimSpace(f.inputs[fieldType].Value()),
	}
	start, err := parseFilterDate(q.StartDate)
	if err != nil {
		return err
	}
	end, err := parseFilterDate(q.EndDate)
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("%s < %s", q.EndDate, q.StartDate)
	}

	f.applied = q
	f.editing = false
	f.blurAll()
	return nil
}

func (f *filterForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *filterForm) view() string {
	parts := make([]string, 0, fieldCount)
	for i := range f.inputs {
		parts = append(parts, f.inputs[i].View())
	}
	return strings.Join(parts, "  ")
}

func (f *filterForm) active() bool {
	return f.applied.StartDate != "" || f.applied.EndDate != "" || f.applied.Type != ""
}

func parseFilterDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(filterDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
