package textutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		input    string
		expected float64
	}{
		{input: "$1,234.56 USD", expected: 1234.56},
		{input: "$10", expected: 10},
		{input: "5.00", expected: 5},
		{input: "free!", expected: 0},
		{input: "", expected: 0},
		{input: "donated $25.50", expected: 25.5},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, ParseAmount(test.input), "input: %q", test.input)
	}
}

func TestClockLabel(t *testing.T) {
	at := time.Date(2024, time.August, 26, 15, 4, 33, 0, time.UTC)
	require.Equal(t, "3:04 PM", ClockLabel(at))

	at = time.Date(2024, time.August, 26, 9, 30, 0, 0, time.UTC)
	require.Equal(t, "9:30 AM", ClockLabel(at))
}
