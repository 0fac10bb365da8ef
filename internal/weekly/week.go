package weekly

import (
	"fmt"
	"time"
)

const keyLayout = "2006-01-02"

// Week identifies a Monday-starting calendar week by the date of its Monday.
// The zero value is not a valid week.
type Week struct {
	monday time.Time // midnight UTC of the Monday's calendar date
}

// WeekOf returns the week containing the calendar date of t in t's own
// location. The time of day never affects the result.
func WeekOf(t time.Time) Week {
	y, m, d := t.Date()
	offset := int(t.Weekday()) - 1
	if t.Weekday() == time.Sunday {
		offset = 6
	}
	return Week{monday: time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC)}
}

// ParseWeek parses a YYYY-MM-DD date and returns the week containing it.
func ParseWeek(s string) (Week, error) {
	t, err := time.Parse(keyLayout, s)
	if err != nil {
		return Week{}, fmt.Errorf("parsing week %q: %w", s, err)
	}
	return WeekOf(t), nil
}

// Start returns the Monday as a date at midnight UTC.
func (w Week) Start() time.Time {
	return w.monday
}

// End returns the Sunday closing the week, as a date at midnight UTC.
func (w Week) End() time.Time {
	return w.monday.AddDate(0, 0, 6)
}

// IsZero reports whether w is the zero Week.
func (w Week) IsZero() bool {
	return w.monday.IsZero()
}

// Compare returns -1, 0 or +1 depending on whether w starts before, on or
// after other.
func (w Week) Compare(other Week) int {
	switch {
	case w.monday.Before(other.monday):
		return -1
	case w.monday.After(other.monday):
		return 1
	default:
		return 0
	}
}

// Before reports whether w starts before other.
func (w Week) Before(other Week) bool {
	return w.Compare(other) < 0
}

// Contains reports whether the calendar date of t falls inside w.
func (w Week) Contains(t time.Time) bool {
	return WeekOf(t) == w
}

// Next returns the following week.
func (w Week) Next() Week {
	return Week{monday: w.monday.AddDate(0, 0, 7)}
}

// String formats the Monday as YYYY-MM-DD.
func (w Week) String() string {
	return w.monday.Format(keyLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (w Week) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Week) UnmarshalText(text []byte) error {
	parsed, err := ParseWeek(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
