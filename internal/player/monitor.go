package player

import (
	"encoding/binary"
	"math"
	"sync"
)

// Monitor is a thread-safe circular buffer holding the most recent rendered
// PCM bytes.
type Monitor struct {
	buf      []byte
	size     int
	w        int // write position
	len      int // current fill level
	channels int
	mu       sync.Mutex
}

// NewMonitor keeps the last frames frames of 16-bit audio.
func NewMonitor(frames, channels int) *Monitor {
	size := frames * channels * bitDepth
	return &Monitor{
		buf:      make([]byte, size),
		size:     size,
		channels: channels,
	}
}

// Write appends data, overwriting the oldest bytes when full.
func (m *Monitor) Write(p []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range p {
		m.buf[m.w] = b
		m.w = (m.w + 1) % m.size
	}
	m.len = min(m.len+len(p), m.size)
}

// Read returns up to n most recent bytes.
func (m *Monitor) Read(n int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	n = min(n, m.len)
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	start := (m.w - n + m.size) % m.size
	for i := range n {
		out[i] = m.buf[(start+i)%m.size]
	}
	return out
}

// Level returns the RMS of channel ch over the most recent frames, in
// [0, 1].
func (m *Monitor) Level(ch, frames int) float64 {
	frameSize := m.channels * bitDepth
	data := m.Read(frames * frameSize)
	count := len(data) / frameSize
	if count == 0 || ch < 0 || ch >= m.channels {
		return 0
	}
	var sum float64
	for i := range count {
		off := i*frameSize + ch*bitDepth
		v := float64(int16(binary.LittleEndian.Uint16(data[off:]))) / math.MaxInt16
		sum += v * v
	}
	return math.Sqrt(sum / float64(count))
}

// Clear resets the buffer.
func (m *Monitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.w = 0
	m.len = 0
}
