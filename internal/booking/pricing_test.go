package booking

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFinalAmount(t *testing.T) {
	increment := 15 * time.Minute
	at := func(hh, mm int) time.Time {
		return time.Date(2026, 9, 1, hh, mm, 0, 0, time.UTC)
	}

	testCases := []struct {
		name       string
		start, end time.Time
		rate       string
		expected   string
	}{
		{
			name:  "exact hours bill as booked",
			start: at(10, 0), end: at(12, 0),
			rate: "10", expected: "20",
		},
		{
			name:  "partial increment rounds up",
			start: at(10, 0), end: at(11, 10),
			rate: "10", expected: "12.5",
		},
		{
			name:  "exact increment boundary does not round",
			start: at(10, 0), end: at(11, 15),
			rate: "10", expected: "12.5",
		},
		{
			name:  "one minute bills a full increment",
			start: at(10, 0), end: at(10, 1),
			rate: "10", expected: "2.5",
		},
		{
			name:  "settlement rounds to cents",
			start: at(10, 0), end: at(10, 40),
			rate: "9.99", expected: "7.49",
		},
		{
			name:  "zero elapsed bills nothing",
			start: at(10, 0), end: at(10, 0),
			rate: "10", expected: "0",
		},
		{
			name:  "negative elapsed bills nothing",
			start: at(10, 0), end: at(9, 0),
			rate: "10", expected: "0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rate := decimal.RequireFromString(tc.rate)
			expected := decimal.RequireFromString(tc.expected)
			got := finalAmount(tc.start, tc.end, rate, increment)
			assert.True(t, expected.Equal(got), "expected %s, got %s", expected, got)
		})
	}
}
