package filtergraph

import (
	"math"
	"strconv"
)

// Round3 rounds x to millisecond precision.
func Round3(x float64) float64 {
	r := math.Round(x*1000) / 1000
	if r == 0 {
		// normalise -0
		return 0
	}
	return r
}

// Seconds formats a duration in seconds with exactly three decimals.
func Seconds(x float64) string {
	return strconv.FormatFloat(Round3(x), 'f', 3, 64)
}

// Millis converts seconds to whole milliseconds, rounding half away from zero.
func Millis(sec float64) int64 {
	return int64(math.Round(sec * 1000))
}

// Itoa is strconv.Itoa, kept here so planners read uniformly.
func Itoa(n int) string {
	return strconv.Itoa(n)
}
