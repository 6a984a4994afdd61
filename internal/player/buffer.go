package player

import (
	"math"
	"time"
)

const (
	DefaultSampleRate = 44100
	DefaultChannels   = 2
)

// Durations are the loop length presets in seconds.
var Durations = []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5}

// Buffer is an in-memory planar audio payload. All channels have the same
// number of frames. A Buffer is never modified after it is handed to a
// Source.
type Buffer struct {
	SampleRate int
	Data       [][]float64
}

// NewBuffer allocates a silent buffer.
func NewBuffer(channels, frames, sampleRate int) *Buffer {
	data := make([][]float64, channels)
	for i := range data {
		data[i] = make([]float64, frames)
	}
	return &Buffer{SampleRate: sampleRate, Data: data}
}

func (b *Buffer) Channels() int { return len(b.Data) }

func (b *Buffer) Frames() int {
	if b == nil || len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration is the length of one pass at the buffer's own rate.
func (b *Buffer) Duration() time.Duration {
	if b.Frames() == 0 || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// BufferFromSeries maps sample rows onto audio amplitude. Row 0 is the top
// of the drawing and becomes +1, row height becomes -1. Rows outside that
// range clamp to the nearest edge and absent samples play as silence.
// Channel 1 carries a rising ramp across the loop for scope triggering.
func BufferFromSeries(values []float64, height, sampleRate int) *Buffer {
	b := NewBuffer(2, len(values), sampleRate)
	if len(values) == 0 {
		return b
	}
	wave, trigger := b.Data[0], b.Data[1]
	for i, v := range values {
		wave[i] = amplitude(v, float64(height))
	}
	half := float64(len(values)) / 2
	for i := range trigger {
		trigger[i] = float64(i)/half - 1
	}
	return b
}

func amplitude(v, height float64) float64 {
	if math.IsNaN(v) || height <= 0 {
		return 0
	}
	v = math.Max(0, math.Min(height, v))
	return 1 - 2*v/height
}

// RateForDuration returns the playback rate that makes a loop of frames
// samples last seconds.
func RateForDuration(frames int, seconds float64, sampleRate int) float64 {
	if frames == 0 || seconds <= 0 || sampleRate <= 0 {
		return 1
	}
	return float64(frames) / (seconds * float64(sampleRate))
}

// LoopDuration is how long one pass of b lasts at the given rate and
// detune.
func LoopDuration(b *Buffer, rate, detune float64) time.Duration {
	r := rate * detuneFactor(detune)
	if b.Frames() == 0 || r <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(b.Duration()) / r))
}

func detuneFactor(cents float64) float64 {
	return math.Pow(2, cents/1200)
}
