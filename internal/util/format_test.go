package util

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		time.Millisecond:        "1ms",
		20 * time.Millisecond:   "20ms",
		500 * time.Millisecond:  "500ms",
		time.Second:             "1s",
		2500 * time.Millisecond: "2.5s",
		-time.Second:            "0ms",
	}
	for d, want := range cases {
		if got := FormatDuration(d); got != want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestFormatCents(t *testing.T) {
	cases := map[float64]string{
		0:      "0 ct",
		-0.2:   "0 ct",
		12.4:   "+12 ct",
		-100:   "-100 ct",
		1199.6: "+1200 ct",
	}
	for c, want := range cases {
		if got := FormatCents(c); got != want {
			t.Fatalf("FormatCents(%v) = %q, want %q", c, got, want)
		}
	}
}
