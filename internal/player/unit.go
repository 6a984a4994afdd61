package player

import (
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/olivier-w/wavesketch/internal/logging"
)

// State is the lifecycle state of a Unit.
type State int

const (
	Empty State = iota
	Loaded
	Playing
	SwitchPending
	Stopped
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loaded:
		return "loaded"
	case Playing:
		return "playing"
	case SwitchPending:
		return "switch pending"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Unit wraps one-shot sources into a restartable player whose buffer can
// be replaced while it plays without a gap or a click. A replacement
// buffer goes into a pending source that takes over either where the
// current loop iteration ends or when Switch is called.
//
// Lock order is Unit.mu then Context.mu.
type Unit struct {
	mu      sync.Mutex
	ctx     *Context
	current *Source
	pending *Source
	buffer  *Buffer
	loop    bool
	detune  float64
	rate    float64
	playing bool
	stopped bool
	dests   []*Bus

	quit chan struct{} // closes the ended watcher of current
	wg   sync.WaitGroup
	log  logrus.FieldLogger
}

// NewUnit creates an empty unit rendering through ctx.
func NewUnit(ctx *Context, log logrus.FieldLogger) *Unit {
	return &Unit{
		ctx:  ctx,
		rate: 1,
		log:  logging.OrDiscard(log),
	}
}

// State reports where the unit is in its lifecycle.
func (u *Unit) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ctx.mu.Lock()
	u.settle()
	u.ctx.mu.Unlock()
	switch {
	case u.buffer == nil:
		return Empty
	case u.playing && u.pending != nil:
		return SwitchPending
	case u.playing:
		return Playing
	case u.stopped:
		return Stopped
	default:
		return Loaded
	}
}

// Buffer returns the most recently set buffer.
func (u *Unit) Buffer() *Buffer {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.buffer
}

// Playing reports whether Start has been called without a matching Stop.
func (u *Unit) Playing() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.playing
}

// SetBuffer replaces the audio payload. While playing the live source is
// left alone: a pending source is prepared and chained to take over at the
// end of the current iteration. A second call before that happens replaces
// the pending source.
func (u *Unit) SetBuffer(b *Buffer) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ctx.mu.Lock()
	defer u.ctx.mu.Unlock()
	u.settle()
	u.setBuffer(b)
}

// Replace installs b at the given rate and commits it at the next quantum.
// The old buffer never plays at the new rate and the new one never plays at
// the old. A non-finite rate keeps the current one.
func (u *Unit) Replace(b *Buffer, rate float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ctx.mu.Lock()
	defer u.ctx.mu.Unlock()
	u.settle()
	if !math.IsNaN(rate) && !math.IsInf(rate, 0) {
		u.rate = rate
	}
	u.setBuffer(b)
	if u.pending != nil {
		u.commit()
		u.log.Debug("buffer replaced")
	}
}

// setBuffer does the work of SetBuffer. Callers hold both locks.
func (u *Unit) setBuffer(b *Buffer) {
	u.buffer = b
	if u.current == nil {
		u.current = u.newSource(b)
		u.log.WithField("frames", b.Frames()).Debug("buffer loaded")
		return
	}
	if !u.playing {
		fresh := u.newSource(b)
		u.current.disconnectAll()
		u.current = fresh
		return
	}

	if u.pending != nil {
		u.pending.disconnectAll()
	}
	u.pending = u.newSource(b)
	u.current.chain(u.pending)
	u.current.loop = false
	if u.quit == nil {
		u.quit = make(chan struct{})
		u.wg.Add(1)
		go u.watch(u.current, u.quit)
	}
	u.log.WithField("frames", b.Frames()).Debug("buffer switch pending")
}

// Switch commits a pending buffer now. It reports whether there was one.
func (u *Unit) Switch() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ctx.mu.Lock()
	defer u.ctx.mu.Unlock()
	u.settle()
	if u.pending == nil {
		return false
	}
	u.commit()
	return true
}

// Start plays the current source.
func (u *Unit) Start() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.playing {
		return ErrAlreadyPlaying
	}
	if u.current == nil {
		return ErrNoBuffer
	}
	u.ctx.mu.Lock()
	err := u.current.start()
	u.ctx.mu.Unlock()
	if err != nil {
		return fmt.Errorf("start source: %w", err)
	}
	u.playing = true
	u.log.Debug("playback started")
	return nil
}

// Stop silences playback. A pending switch is completed, so the unit is
// left holding the newest buffer in a fresh source ready for Start.
func (u *Unit) Stop() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.playing {
		return ErrNotPlaying
	}
	u.ctx.mu.Lock()
	defer u.ctx.mu.Unlock()
	u.settle()

	u.playing = false
	u.stopped = true
	u.current.stop()
	if u.pending != nil {
		u.pending.stop()
		u.commit()
	}
	if u.current.started {
		fresh := u.newSource(u.current.buffer)
		u.current.disconnectAll()
		u.current = fresh
	}
	u.log.Debug("playback stopped")
	return nil
}

// SetLoop applies to the live source and to every later one. While a
// switch is pending it reaches only the pending source: the live source
// keeps loop off and plays out its last iteration, otherwise the switch
// would never happen.
func (u *Unit) SetLoop(loop bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ctx.mu.Lock()
	defer u.ctx.mu.Unlock()
	u.settle()
	u.loop = loop
	switch {
	case u.pending != nil:
		u.pending.loop = loop
	case u.current != nil:
		u.current.loop = loop
	}
}

// SetDetune sets the detune in cents. Non-finite values are ignored.
func (u *Unit) SetDetune(cents float64) {
	if math.IsNaN(cents) || math.IsInf(cents, 0) {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ctx.mu.Lock()
	defer u.ctx.mu.Unlock()
	u.detune = cents
	u.each(func(s *Source) { s.detune = cents })
}

// SetPlaybackRate sets the rate multiplier. Non-finite values are ignored.
func (u *Unit) SetPlaybackRate(rate float64) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ctx.mu.Lock()
	defer u.ctx.mu.Unlock()
	u.rate = rate
	u.each(func(s *Source) { s.rate = rate })
}

func (u *Unit) Loop() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.loop
}

func (u *Unit) Detune() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.detune
}

func (u *Unit) PlaybackRate() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rate
}

// Position is the playhead of the live source as a fraction of its buffer.
func (u *Unit) Position() float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.current == nil {
		return 0
	}
	u.ctx.mu.Lock()
	defer u.ctx.mu.Unlock()
	u.settle()
	return u.current.position()
}

// Connect adds a destination. The same bus may be connected more than once.
func (u *Unit) Connect(b *Bus) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ctx.mu.Lock()
	defer u.ctx.mu.Unlock()
	u.dests = append(u.dests, b)
	u.each(func(s *Source) { s.connect(b) })
}

// Disconnect removes every connection to b. Unknown buses are ignored.
func (u *Unit) Disconnect(b *Bus) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ctx.mu.Lock()
	defer u.ctx.mu.Unlock()
	kept := u.dests[:0]
	for _, d := range u.dests {
		if d != b {
			kept = append(kept, d)
		}
	}
	clear(u.dests[len(kept):])
	u.dests = kept
	u.each(func(s *Source) { s.disconnect(b) })
}

// DisconnectAll removes every destination.
func (u *Unit) DisconnectAll() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ctx.mu.Lock()
	defer u.ctx.mu.Unlock()
	u.dests = nil
	u.each(func(s *Source) { s.disconnectAll() })
}

// Destinations returns how many connections the unit holds.
func (u *Unit) Destinations() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.dests)
}

// Close stops playback, detaches the unit from the graph and waits for its
// watcher to exit.
func (u *Unit) Close() {
	u.mu.Lock()
	u.ctx.mu.Lock()
	u.each(func(s *Source) {
		s.stop()
		s.disconnectAll()
	})
	u.current, u.pending = nil, nil
	u.playing = false
	u.closeWatcher()
	u.ctx.mu.Unlock()
	u.mu.Unlock()

	u.wg.Wait()
}

// watch commits the pending source once old runs out. The render graph has
// already started the successor at the exact frame; this only does the
// bookkeeping.
func (u *Unit) watch(old *Source, quit <-chan struct{}) {
	defer u.wg.Done()
	select {
	case <-old.Ended():
	case <-quit:
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.current != old || u.pending == nil {
		return
	}
	u.ctx.mu.Lock()
	u.commit()
	u.ctx.mu.Unlock()
	u.log.Debug("buffer switched at loop end")
}

// settle promotes a pending source the graph has already started at the
// end of the current one, so the watcher's bookkeeping cannot lag behind
// what is audible. Callers hold both locks.
func (u *Unit) settle() {
	if u.pending != nil && u.pending.started {
		u.commit()
		u.log.Debug("buffer switched at loop end")
	}
}

// commit promotes the pending source. Callers hold both locks.
func (u *Unit) commit() {
	old, next := u.current, u.pending
	old.chain(nil)
	if u.playing && !next.started && !next.done {
		next.startAt(u.ctx.frame)
	}
	old.stop()
	old.disconnectAll()
	u.current, u.pending = next, nil
	u.closeWatcher()
}

func (u *Unit) closeWatcher() {
	if u.quit != nil {
		close(u.quit)
		u.quit = nil
	}
}

func (u *Unit) newSource(b *Buffer) *Source {
	s := u.ctx.newSource(b)
	s.loop = u.loop
	s.detune = u.detune
	s.rate = u.rate
	for _, d := range u.dests {
		s.connect(d)
	}
	return s
}

func (u *Unit) each(fn func(s *Source)) {
	if u.current != nil {
		fn(u.current)
	}
	if u.pending != nil {
		fn(u.pending)
	}
}
