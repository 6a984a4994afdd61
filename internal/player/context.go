package player

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/olivier-w/wavesketch/internal/logging"
)

// Quantum is the number of frames rendered per graph pass. Sources start,
// stop and hand over only at frame positions decided inside a pass, so a
// chained handoff is sample accurate.
const Quantum = 128

const bitDepth = 2 // 16-bit

// node is anything the graph can pull a quantum from.
type node interface {
	process(q int64) []float64
}

// Context is an audio render graph. All graph state is guarded by a single
// lock that is held for one quantum at a time.
type Context struct {
	mu         sync.Mutex
	sampleRate int
	channels   int
	dest       *Bus
	frame      int64
	monitor    *Monitor
	pcm        []byte
	pending    []byte
	log        logrus.FieldLogger
}

// ContextOption configures a Context.
type ContextOption func(c *Context)

// WithMonitor copies every rendered byte into m.
func WithMonitor(m *Monitor) ContextOption {
	return func(c *Context) {
		c.monitor = m
	}
}

// WithContextLogger sets the logger.
func WithContextLogger(l logrus.FieldLogger) ContextOption {
	return func(c *Context) {
		c.log = l
	}
}

// NewContext creates a graph rendering interleaved frames of the given
// channel count.
func NewContext(sampleRate, channels int, options ...ContextOption) *Context {
	c := &Context{
		sampleRate: sampleRate,
		channels:   channels,
	}
	for _, option := range options {
		option(c)
	}
	c.log = logging.OrDiscard(c.log)
	c.dest = c.newBus()
	c.pcm = make([]byte, Quantum*channels*bitDepth)
	c.log.WithFields(logrus.Fields{"rate": sampleRate, "channels": channels}).Debug("audio context created")
	return c
}

func (c *Context) SampleRate() int { return c.sampleRate }
func (c *Context) Channels() int   { return c.channels }

// Destination is the bus the context renders.
func (c *Context) Destination() *Bus { return c.dest }

// Monitor returns the tap on rendered output, or nil.
func (c *Context) Monitor() *Monitor { return c.monitor }

// Frame returns how many frames have been rendered.
func (c *Context) Frame() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// NewBus creates a mixing bus. Connect it to the destination to hear it.
func (c *Context) NewBus() *Bus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.newBus()
}

func (c *Context) newBus() *Bus {
	return &Bus{
		ctx:  c,
		out:  make([]float64, Quantum*c.channels),
		outQ: -1,
	}
}

// Read renders the destination as signed 16-bit little-endian PCM. It never
// fails and always fills p up to a whole number of frames.
func (c *Context) Read(p []byte) (int, error) {
	frameSize := c.channels * bitDepth
	want := len(p) - len(p)%frameSize
	n := 0
	for n < want {
		if len(c.pending) == 0 {
			c.renderQuantum()
			c.pending = c.pcm
		}
		m := copy(p[n:want], c.pending)
		c.pending = c.pending[m:]
		n += m
	}
	return n, nil
}

// RenderFloat renders frames of interleaved float output.
func (c *Context) RenderFloat(frames int) []float64 {
	out := make([]float64, 0, frames*c.channels)
	for len(out) < frames*c.channels {
		c.mu.Lock()
		mix := c.dest.process(c.frame / Quantum)
		c.frame += Quantum
		out = append(out, mix...)
		c.mu.Unlock()
	}
	return out[:frames*c.channels]
}

func (c *Context) renderQuantum() {
	c.mu.Lock()
	mix := c.dest.process(c.frame / Quantum)
	c.frame += Quantum
	for i, v := range mix {
		binary.LittleEndian.PutUint16(c.pcm[i*bitDepth:], uint16(toInt16(v)))
	}
	c.mu.Unlock()

	if c.monitor != nil {
		c.monitor.Write(c.pcm)
	}
}

func toInt16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * math.MaxInt16))
}

// Bus sums every node connected to it.
type Bus struct {
	ctx      *Context
	inputs   []node
	out      []float64
	outQ     int64
	visiting bool
}

// Connect routes b into to. Buses must not form a cycle; a cycle is broken
// by reading the previous quantum.
func (b *Bus) Connect(to *Bus) {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	to.attach(b)
}

// Disconnect removes every route from b into to.
func (b *Bus) Disconnect(to *Bus) {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	to.detach(b)
}

// Inputs returns how many nodes feed b.
func (b *Bus) Inputs() int {
	b.ctx.mu.Lock()
	defer b.ctx.mu.Unlock()
	return len(b.inputs)
}

func (b *Bus) attach(n node) {
	b.inputs = append(b.inputs, n)
}

func (b *Bus) detach(n node) {
	kept := b.inputs[:0]
	for _, in := range b.inputs {
		if in != n {
			kept = append(kept, in)
		}
	}
	clear(b.inputs[len(kept):])
	b.inputs = kept
}

func (b *Bus) process(q int64) []float64 {
	if b.outQ == q || b.visiting {
		return b.out
	}
	b.visiting = true
	clear(b.out)
	for _, in := range b.inputs {
		for i, v := range in.process(q) {
			b.out[i] += v
		}
	}
	b.visiting = false
	b.outQ = q
	return b.out
}
