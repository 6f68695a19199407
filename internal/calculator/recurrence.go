package calculator

import (
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/homebase/internal/models"
)

// ErrUnknownFrequency is returned by NextDate for frequencies outside
// weekly/monthly/yearly.
var ErrUnknownFrequency = errors.New("unknown recurrence frequency")

// NextDate advances current by one period of freq.
// Monthly and yearly steps clamp to the last day of the target month
// (Jan 31 -> Feb 28/29, Feb 29 -> Feb 28). An unknown frequency returns
// current unchanged together with ErrUnknownFrequency.
func NextDate(current time.Time, freq models.Frequency) (time.Time, error) {
	switch freq {
	case models.Weekly:
		return current.AddDate(0, 0, 7), nil
	case models.Monthly:
		return addMonths(current, 1), nil
	case models.Yearly:
		return addMonths(current, 12), nil
	default:
		return current, fmt.Errorf("%w: %q", ErrUnknownFrequency, freq)
	}
}

func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	// Normalize via the first of the month so overflow never spills into the next one.
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
