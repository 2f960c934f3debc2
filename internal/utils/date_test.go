package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateOf(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "Midday UTC truncates to midnight",
			input:    time.Date(2024, 3, 15, 13, 45, 30, 0, time.UTC),
			expected: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Already midnight is unchanged",
			input:    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Late evening in UTC-5 rolls into next UTC day",
			input:    time.Date(2024, 3, 15, 23, 30, 0, 0, time.FixedZone("EST", -5*3600)),
			expected: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "Early morning in UTC+9 rolls back to prior UTC day",
			input:    time.Date(2024, 3, 15, 6, 0, 0, 0, time.FixedZone("JST", 9*3600)),
			expected: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DateOf(tt.input))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		a        time.Time
		b        time.Time
		expected int
	}{
		{"Same day", day(10), day(10), 0},
		{"Same day different hours", day(10).Add(2 * time.Hour), day(10).Add(23 * time.Hour), 0},
		{"Consecutive days", day(10), day(11), 1},
		{"Consecutive days across hours", day(10).Add(23 * time.Hour), day(11).Add(1 * time.Hour), 1},
		{"Two day gap", day(10), day(12), 2},
		{"Backwards", day(12), day(10), -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysBetween(tt.a, tt.b))
		})
	}
}
