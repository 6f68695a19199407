package calculator

import (
	"errors"
	"testing"
	"time"

	"github.com/mmynk/homebase/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

func TestNextDate(t *testing.T) {
	tests := []struct {
		name    string
		current time.Time
		freq    models.Frequency
		want    time.Time
	}{
		{"weekly", date(2025, 3, 1), models.Weekly, date(2025, 3, 8)},
		{"weekly across month", date(2025, 1, 28), models.Weekly, date(2025, 2, 4)},
		{"monthly", date(2025, 3, 15), models.Monthly, date(2025, 4, 15)},
		{"monthly Jan 31 to Feb 28", date(2025, 1, 31), models.Monthly, date(2025, 2, 28)},
		{"monthly Jan 31 to Feb 29 leap year", date(2024, 1, 31), models.Monthly, date(2024, 2, 29)},
		{"monthly Mar 31 to Apr 30", date(2025, 3, 31), models.Monthly, date(2025, 4, 30)},
		{"monthly Dec to Jan", date(2025, 12, 31), models.Monthly, date(2026, 1, 31)},
		{"yearly", date(2025, 6, 1), models.Yearly, date(2026, 6, 1)},
		{"yearly Feb 29 to Feb 28", date(2024, 2, 29), models.Yearly, date(2025, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextDate(tt.current, tt.freq)
			if err != nil {
				t.Fatalf("NextDate() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextDate(%v, %s) = %v, want %v", tt.current, tt.freq, got, tt.want)
			}
		})
	}
}

func TestNextDateUnknownFrequency(t *testing.T) {
	current := date(2025, 3, 1)
	got, err := NextDate(current, models.Frequency("daily"))
	if !errors.Is(err, ErrUnknownFrequency) {
		t.Errorf("NextDate() error = %v, want ErrUnknownFrequency", err)
	}
	if !got.Equal(current) {
		t.Errorf("NextDate() = %v, want unchanged %v", got, current)
	}
}
