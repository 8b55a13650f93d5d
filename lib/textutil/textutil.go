package textutil

import (
	"regexp"
	"strconv"
	"time"
)

var nonAmountRegex = regexp.MustCompile(`[^0-9.]`)

// recovers a decimal value from a display string like "$1,234.56 USD".
// strings carrying no parseable digits yield 0.
func ParseAmount(s string) float64 {
	cleaned := nonAmountRegex.ReplaceAllString(s, "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

// formats a wall-clock label the way the upstream activity feed renders
// its entries, e.g. "3:04 PM"
func ClockLabel(t time.Time) string {
	return t.Format("3:04 PM")
}
