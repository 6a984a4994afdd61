package util

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// FormatDuration formats a loop length compactly: 2ms, 0.5s, 5s.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Second {
		return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', -1, 64) + "ms"
	}
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}

// FormatCents formats a detune with its sign, rounded to a whole cent.
func FormatCents(c float64) string {
	r := math.Round(c)
	if r == 0 {
		return "0 ct"
	}
	return fmt.Sprintf("%+d ct", int(r))
}
