// Package render projects dashboard data into chart series, table rows and
// summary cards, and draws them for the terminal.
package render

import (
	"fmt"
	"time"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/activity"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/format"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/weekly"
)

// BarSeries is a two-series bar chart input. Labels, Cycling and Running are
// parallel and always the same length.
type BarSeries struct {
	Labels      []string
	Cycling     []float64
	Running     []float64
	CyclingName string
	RunningName string
}

// Len returns the number of labelled points.
func (s BarSeries) Len() int {
	return len(s.Labels)
}

// Distribution counts records per raw type label.
type Distribution struct {
	Labels []string
	Counts []int
}

// Total returns the number of records counted.
func (d Distribution) Total() int {
	n := 0
	for _, c := range d.Counts {
		n += c
	}
	return n
}

// Table is a header row plus data rows. Placeholder is shown instead of the
// rows when there are none.
type Table struct {
	Headers     []string
	Rows        [][]string
	Placeholder string
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// LogEntry is one sync log line.
type LogEntry struct {
	When   string
	OK     bool
	Status string
	Detail string
	Error  string
}

// Card is one summary tile.
type Card struct {
	Title  string
	Value  string
	Detail string
	Error  bool
}

// WeeklyVolume turns aggregated buckets into the weekly volume series,
// keeping the bucket order.
func WeeklyVolume(buckets []weekly.Bucket, msgs Messages) BarSeries {
	s := newSeries(len(buckets), msgs.CyclingKm, msgs.RunningKm)
	for _, b := range buckets {
		s.Labels = append(s.Labels, format.Date(b.Week.Start()))
		s.Cycling = append(s.Cycling, b.CyclingKm)
		s.Running = append(s.Running, b.RunningKm)
	}
	return s
}

// WeeklyDistance charts server weekly stats in kilometers, in server order.
func WeeklyDistance(stats []report.WeeklyStat, msgs Messages) BarSeries {
	s := newSeries(len(stats), msgs.CyclingKm, msgs.RunningKm)
	for _, st := range stats {
		s.Labels = append(s.Labels, weekLabel(st))
		s.Cycling = append(s.Cycling, st.TotalCyclingKm)
		s.Running = append(s.Running, st.TotalRunningKm)
	}
	return s
}

// WeeklyTime charts server weekly stats in hours, in server order.
func WeeklyTime(stats []report.WeeklyStat, msgs Messages) BarSeries {
	s := newSeries(len(stats), msgs.CyclingHours, msgs.RunningHours)
	for _, st := range stats {
		s.Labels = append(s.Labels, weekLabel(st))
		s.Cycling = append(s.Cycling, format.Hours(st.TotalCyclingTime))
		s.Running = append(s.Running, format.Hours(st.TotalRunningTime))
	}
	return s
}

func newSeries(n int, cyclingName, runningName string) BarSeries {
	return BarSeries{
		Labels:      make([]string, 0, n),
		Cycling:     make([]float64, 0, n),
		Running:     make([]float64, 0, n),
		CyclingName: cyclingName,
		RunningName: runningName,
	}
}

func weekLabel(st report.WeeklyStat) string {
	t, err := st.StartTime(time.UTC)
	if err != nil {
		return st.WeekStart
	}
	return format.Date(t)
}

// TypeDistribution counts every record once under its raw type. Labels appear
// in the order they are first seen; records without a type are counted under
// the locale's unknown label.
func TypeDistribution(records []activity.Activity, msgs Messages) Distribution {
	var d Distribution
	index := make(map[string]int)
	for _, rec := range records {
		label := rec.Type
		if label == "" {
			label = msgs.Unknown
		}
		i, ok := index[label]
		if !ok {
			i = len(d.Labels)
			index[label] = i
			d.Labels = append(d.Labels, label)
			d.Counts = append(d.Counts, 0)
		}
		d.Counts[i]++
	}
	return d
}

// ActivityRows builds the activities table. Power, normalized power, cadence
// and TSS are only shown for cycling.
func ActivityRows(records []activity.Activity, msgs Messages) Table {
	t := Table{Headers: msgs.ActivityHeaders, Placeholder: msgs.NoActivities}
	for _, rec := range records {
		row := []string{
			displayDate(rec.Date),
			orPlaceholder(rec.Name),
			orPlaceholder(rec.Type),
			format.DurationOrPlaceholder(rec.Duration),
			withUnit(format.Number(rec.Km(), 2), msgs.KmUnit),
			withUnit(format.Number(format.SpeedKmh(rec.AvgSpeed), 1), msgs.SpeedUnit),
			format.Number(rec.AvgHR, 0),
		}
		if rec.IsCycling() {
			row = append(row,
				format.Number(rec.AvgPower, 0),
				format.Number(rec.NormalizedPower, 0),
				format.Number(rec.AvgCadence, 0),
				format.Number(rec.TSS, 0),
			)
		} else {
			row = append(row, format.Placeholder, format.Placeholder, format.Placeholder, format.Placeholder)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// WeeklyStatRows builds the weekly statistics table.
func WeeklyStatRows(stats []report.WeeklyStat, msgs Messages) Table {
	t := Table{Headers: msgs.WeeklyHeaders, Placeholder: msgs.NoWeeklyStats}
	for _, st := range stats {
		hrv := format.Placeholder
		if st.AvgHRV > 0 {
			hrv = fmt.Sprintf("%.0f", st.AvgHRV)
		}
		t.Rows = append(t.Rows, []string{
			displayDate(st.WeekStart) + " - " + displayDate(st.WeekEnd),
			fmt.Sprintf("%.1f", st.TotalCyclingKm),
			totalDuration(st.TotalCyclingTime),
			fmt.Sprintf("%.1f", st.TotalRunningKm),
			totalDuration(st.TotalRunningTime),
			fmt.Sprintf("%d", st.TotalActivities),
			hrv,
		})
	}
	return t
}

// SyncLogEntries builds the sync log list, newest first as served.
func SyncLogEntries(logs []report.SyncLog, msgs Messages) []LogEntry {
	entries := make([]LogEntry, 0, len(logs))
	for _, l := range logs {
		e := LogEntry{
			When:   displayDateTime(l.SyncDate),
			OK:     l.Succeeded(),
			Status: l.Status,
			Detail: fmt.Sprintf(msgs.SyncedActivities, l.ActivitiesSynced),
		}
		if l.ErrorMessage != "" {
			e.Error = msgs.SyncErrorPrefix + ": " + l.ErrorMessage
		}
		entries = append(entries, e)
	}
	return entries
}

// SummaryCards builds the overview tiles from the summary document.
func SummaryCards(s report.Summary, msgs Messages) []Card {
	cards := []Card{
		{Title: msgs.CardCyclingWeek, Value: fmt.Sprintf("%.1f %s", s.WeekStats.TotalCyclingKm, msgs.KmUnit)},
		{Title: msgs.CardRunningWeek, Value: fmt.Sprintf("%.1f %s", s.WeekStats.TotalRunningKm, msgs.KmUnit)},
		{Title: msgs.CardActivities, Value: fmt.Sprintf("%d", s.WeekStats.TotalActivities)},
	}

	last := Card{Title: msgs.CardLastSync, Value: msgs.NeverSynced}
	if s.LastSync != nil {
		last.Value = displayDateTime(s.LastSync.Date)
		if s.LastSync.Succeeded() {
			last.Detail = fmt.Sprintf(msgs.ActivitiesCount, s.LastSync.ActivitiesSynced)
		} else {
			last.Detail = msgs.StatusError
			last.Error = true
		}
	}
	return append(cards, last)
}

func displayDate(raw string) string {
	t, err := activity.ParseTime(raw, time.UTC)
	if err != nil {
		return orPlaceholder(raw)
	}
	return format.Date(t)
}

func displayDateTime(raw string) string {
	t, err := activity.ParseTime(raw, time.UTC)
	if err != nil {
		return orPlaceholder(raw)
	}
	return format.DateTime(t.Local())
}

func totalDuration(seconds float64) string {
	s, err := format.Duration(seconds)
	if err != nil {
		return format.Placeholder
	}
	return s
}

func orPlaceholder(s string) string {
	if s == "" {
		return format.Placeholder
	}
	return s
}

func withUnit(v, unit string) string {
	if v == format.Placeholder {
		return v
	}
	return v + " " + unit
}
