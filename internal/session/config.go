package session

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/olivier-w/wavesketch/internal/player"
	"github.com/olivier-w/wavesketch/internal/pointer"
)

// Output selects what pulls audio out of the render graph.
type Output int

const (
	// OutputDevice plays through the sound card.
	OutputDevice Output = iota
	// OutputClock renders in real time and throws the audio away.
	OutputClock
	// OutputNone leaves rendering to the caller.
	OutputNone
)

// Config holds the runtime options of a session.
type Config struct {
	SampleRate int
	// Duration is an index into player.Durations.
	Duration int
	Loop     bool
	Mode     pointer.Mode
	Output   Output
	// MonitorFrames sizes the level meter history.
	MonitorFrames int
}

// DefaultConfig plays through the sound card with a 20 ms loop.
func DefaultConfig() Config {
	return Config{
		SampleRate:    player.DefaultSampleRate,
		Duration:      4,
		Loop:          true,
		Mode:          pointer.Continuous,
		Output:        OutputDevice,
		MonitorFrames: 2048,
	}
}

// DurationIndex finds the preset matching d.
func DurationIndex(d time.Duration) (int, error) {
	for i := range player.Durations {
		if Preset(i) == d {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%v is not a loop duration preset (%s)", d, presetList())
}

// Preset returns loop duration preset i.
func Preset(i int) time.Duration {
	return time.Duration(math.Round(player.Durations[i] * float64(time.Second)))
}

func presetList() string {
	names := make([]string, len(player.Durations))
	for i := range player.Durations {
		names[i] = Preset(i).String()
	}
	return strings.Join(names, ", ")
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = def.SampleRate
	}
	if c.Duration < 0 || c.Duration >= len(player.Durations) {
		c.Duration = def.Duration
	}
	if c.MonitorFrames <= 0 {
		c.MonitorFrames = def.MonitorFrames
	}
	return c
}
