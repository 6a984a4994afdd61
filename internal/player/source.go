package player

import (
	"math"
)

// Source plays one Buffer. It is a one-shot handle: it can be started once
// and stopped once, after which a new Source is needed.
type Source struct {
	ctx    *Context
	buffer *Buffer
	loop   bool
	detune float64 // cents
	rate   float64

	pos        float64
	started    bool
	done       bool
	startFrame int64
	ended      chan struct{}

	// next is started at the exact frame s runs out; prev is the source
	// that will start s.
	next *Source
	prev *Source

	outputs []*Bus
	out     []float64
	outQ    int64
}

// NewSource creates an idle source for b.
func (c *Context) NewSource(b *Buffer) *Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.newSource(b)
}

func (c *Context) newSource(b *Buffer) *Source {
	return &Source{
		ctx:    c,
		buffer: b,
		rate:   1,
		ended:  make(chan struct{}),
		out:    make([]float64, Quantum*c.channels),
		outQ:   -1,
	}
}

// Buffer returns the buffer the source plays.
func (s *Source) Buffer() *Buffer { return s.buffer }

// Ended is closed once the source has finished, either by running out of a
// non-looping buffer or by Stop.
func (s *Source) Ended() <-chan struct{} { return s.ended }

// Start begins playback at the next quantum.
func (s *Source) Start() error {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	return s.start()
}

// Stop silences the source from the next quantum on. Stopping an idle or
// finished source is a no-op.
func (s *Source) Stop() {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	s.stop()
}

func (s *Source) SetLoop(loop bool) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	s.loop = loop
}

func (s *Source) SetDetune(cents float64) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	s.detune = cents
}

func (s *Source) SetPlaybackRate(rate float64) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	s.rate = rate
}

// Connect routes the source into b.
func (s *Source) Connect(b *Bus) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	s.connect(b)
}

// Disconnect removes every route from the source into b.
func (s *Source) Disconnect(b *Bus) {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	s.disconnect(b)
}

// Position is the playback position as a fraction of the buffer.
func (s *Source) Position() float64 {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	return s.position()
}

func (s *Source) position() float64 {
	n := s.buffer.Frames()
	if n == 0 {
		return 0
	}
	return math.Max(0, math.Min(1, s.pos/float64(n)))
}

func (s *Source) start() error {
	if s.started {
		return ErrSourceStarted
	}
	s.startAt(s.ctx.frame)
	return nil
}

func (s *Source) startAt(frame int64) {
	s.started = true
	s.startFrame = frame
}

func (s *Source) stop() {
	if !s.started || s.done {
		return
	}
	s.finish()
}

func (s *Source) finish() {
	s.done = true
	close(s.ended)
}

// chain makes next start exactly where s runs out.
func (s *Source) chain(next *Source) {
	if s.next != nil {
		s.next.prev = nil
	}
	s.next = next
	if next != nil {
		next.prev = s
	}
}

// connect is idempotent per bus.
func (s *Source) connect(b *Bus) {
	for _, o := range s.outputs {
		if o == b {
			return
		}
	}
	b.attach(s)
	s.outputs = append(s.outputs, b)
}

func (s *Source) disconnect(b *Bus) {
	b.detach(s)
	kept := s.outputs[:0]
	for _, o := range s.outputs {
		if o != b {
			kept = append(kept, o)
		}
	}
	clear(s.outputs[len(kept):])
	s.outputs = kept
}

func (s *Source) disconnectAll() {
	for _, b := range s.outputs {
		b.detach(s)
	}
	s.outputs = nil
}

func (s *Source) ratio() float64 {
	r := s.rate * detuneFactor(s.detune)
	if s.buffer.SampleRate > 0 && s.ctx.sampleRate > 0 {
		r *= float64(s.buffer.SampleRate) / float64(s.ctx.sampleRate)
	}
	return r
}

func (s *Source) process(q int64) []float64 {
	if s.outQ == q {
		return s.out
	}
	s.outQ = q
	clear(s.out)

	// The predecessor decides whether s starts inside this quantum.
	if s.prev != nil {
		s.prev.process(q)
	}
	if !s.started || s.done {
		return s.out
	}
	base := q * Quantum
	from := 0
	if s.startFrame > base {
		from = int(s.startFrame - base)
	}
	if from < Quantum {
		s.render(base, from)
	}
	return s.out
}

func (s *Source) render(base int64, from int) {
	n := s.buffer.Frames()
	if n == 0 {
		s.end(base + int64(from))
		return
	}
	ch := s.ctx.channels
	ratio := s.ratio()
	for f := from; f < Quantum; f++ {
		if s.pos < 0 || s.pos >= float64(n) {
			if !s.loop {
				s.end(base + int64(f))
				return
			}
			s.pos = math.Mod(s.pos, float64(n))
			if s.pos < 0 {
				s.pos += float64(n)
			}
		}
		s.frame(s.out[f*ch : (f+1)*ch])
		s.pos += ratio
	}
}

func (s *Source) end(frame int64) {
	s.finish()
	if next := s.next; next != nil && !next.started {
		next.startAt(frame)
	}
}

// frame writes one interpolated output frame at the current position.
func (s *Source) frame(out []float64) {
	data := s.buffer.Data
	i := int(math.Floor(s.pos))
	t := s.pos - float64(i)
	for c := range out {
		d := data[min(c, len(data)-1)]
		out[c] = hermite4(t, s.at(d, i-1), s.at(d, i), s.at(d, i+1), s.at(d, i+2))
	}
}

func (s *Source) at(d []float64, i int) float64 {
	n := len(d)
	if s.loop {
		i %= n
		if i < 0 {
			i += n
		}
		return d[i]
	}
	return d[max(0, min(n-1, i))]
}

// hermite4 is 4-point, 3rd-order Hermite interpolation between x0 and x1.
func hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)
	return ((c3*t+c2)*t+c1)*t + c0
}
