// Package format turns raw activity numbers and timestamps into display strings.
package format

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// Placeholder is shown in place of a missing or unusable value.
const Placeholder = "—"

const (
	dateLayout     = "02.01.2006"
	dateTimeLayout = "02.01.2006 15:04"
)

// ErrInvalidDuration is returned for negative, non-finite or out of range
// durations.
var ErrInvalidDuration = errors.New("invalid duration")

// Duration formats seconds as H:MM:SS from one hour up and as M:SS below.
// Fractional seconds are truncated.
func Duration(seconds float64) (string, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 || seconds >= math.MaxInt64 {
		return "", fmt.Errorf("%w: %v", ErrInvalidDuration, seconds)
	}

	total := int64(math.Floor(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs), nil
	}
	return fmt.Sprintf("%d:%02d", minutes, secs), nil
}

// DurationOrPlaceholder is Duration for table cells: zero and invalid inputs
// render as the placeholder.
func DurationOrPlaceholder(seconds float64) string {
	if seconds == 0 {
		return Placeholder
	}
	s, err := Duration(seconds)
	if err != nil {
		return Placeholder
	}
	return s
}

// Date formats t as DD.MM.YYYY.
func Date(t time.Time) string {
	return t.Format(dateLayout)
}

// DateTime formats t as DD.MM.YYYY HH:MM.
func DateTime(t time.Time) string {
	return t.Format(dateTimeLayout)
}

// Number formats v with the given number of decimals, or the placeholder
// when v is zero.
func Number(v float64, decimals int) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return Placeholder
	}
	return fmt.Sprintf("%.*f", decimals, v)
}

// Hours converts seconds to fractional hours.
func Hours(seconds float64) float64 {
	return seconds / 3600
}

// SpeedKmh converts meters per second to kilometers per hour.
func SpeedKmh(mps float64) float64 {
	return mps * 3.6
}

// Ago renders a relative time such as "3 minutes ago".
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
