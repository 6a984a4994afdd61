package player

import (
	"context"
	"time"
)

// Clock drains a Context in real time without a sound card, so loops end
// and pending buffers take over exactly as they would on a device.
type Clock struct {
	ctx  *Context
	tick time.Duration
	done chan struct{}
}

// NewClock returns a clock pulling ctx every tick.
func NewClock(ctx *Context, tick time.Duration) *Clock {
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	return &Clock{ctx: ctx, tick: tick, done: make(chan struct{})}
}

// Done is closed when Run returns.
func (c *Clock) Done() <-chan struct{} { return c.done }

// Run renders until ctx is cancelled.
func (c *Clock) Run(ctx context.Context) {
	defer close(c.done)
	t := time.NewTicker(c.tick)
	defer t.Stop()

	frameSize := c.ctx.Channels() * bitDepth
	rate := float64(c.ctx.SampleRate())
	buf := make([]byte, Quantum*frameSize)
	last := time.Now()
	var owed float64
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			owed += now.Sub(last).Seconds() * rate
			last = now
			frames := int(owed)
			if frames == 0 {
				continue
			}
			owed -= float64(frames)
			for frames > 0 {
				n := min(frames, Quantum)
				_, _ = c.ctx.Read(buf[:n*frameSize])
				frames -= n
			}
		}
	}
}
