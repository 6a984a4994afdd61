package ui

import (
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/harmonica"
)

const (
	meterFPS       = int(time.Second / tickInterval)
	meterPeakDecay = 0.02
	meterFloorDB   = -40.0
)

// meter is a level bar smoothed by a spring, with a slowly falling peak
// marker.
type meter struct {
	spring harmonica.Spring
	level  float64
	vel    float64
	peak   float64
}

func newMeter() meter {
	return meter{spring: harmonica.NewSpring(harmonica.FPS(meterFPS), 12.0, 0.8)}
}

// update moves the bar toward rms and returns the meter.
func (m meter) update(rms float64) meter {
	m.level, m.vel = m.spring.Update(m.level, m.vel, rmsToLevel(rms))
	m.level = max(0, min(m.level, 1))
	if m.level > m.peak {
		m.peak = m.level
	} else {
		m.peak = max(0, m.peak-meterPeakDecay)
	}
	return m
}

// rmsToLevel maps RMS onto [0, 1] on a dB scale.
func rmsToLevel(rms float64) float64 {
	if rms < 1e-6 {
		return 0
	}
	db := 20 * math.Log10(rms)
	if db < meterFloorDB {
		return 0
	}
	return min((db-meterFloorDB)/-meterFloorDB, 1)
}

func (m meter) view(width int) string {
	width = max(width, 4)
	filled := int(m.level * float64(width))
	peak := min(int(m.peak*float64(width)), width-1)

	var sb strings.Builder
	for i := range width {
		switch {
		case i < filled && i < width*6/10:
			sb.WriteString(meterLow.Render("█"))
		case i < filled && i < width*8/10:
			sb.WriteString(meterMid.Render("█"))
		case i < filled:
			sb.WriteString(meterHigh.Render("█"))
		case i == peak && peak > 0:
			sb.WriteString(meterPeak.Render("│"))
		default:
			sb.WriteString(helpStyle.Render("─"))
		}
	}
	return sb.String()
}
