package player

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testRate = 1000

func constant(v float64, frames int) *Buffer {
	b := NewBuffer(1, frames, testRate)
	for i := range b.Data[0] {
		b.Data[0][i] = v
	}
	return b
}

func newTestUnit(t *testing.T) (*Context, *Unit) {
	t.Helper()
	ctx := NewContext(testRate, 1)
	u := NewUnit(ctx, nil)
	u.Connect(ctx.Destination())
	t.Cleanup(u.Close)
	return ctx, u
}

func currentBuffer(u *Unit) *Buffer {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.current.buffer
}

func TestStartTwiceFails(t *testing.T) {
	_, u := newTestUnit(t)
	u.SetBuffer(constant(0.5, 100))

	require.NoError(t, u.Start())
	assert.ErrorIs(t, u.Start(), ErrAlreadyPlaying)
	assert.Equal(t, Playing, u.State())
	assert.True(t, u.Playing())
}

func TestStopWhileIdleFails(t *testing.T) {
	_, u := newTestUnit(t)
	assert.ErrorIs(t, u.Stop(), ErrNotPlaying)

	u.SetBuffer(constant(0.5, 100))
	assert.ErrorIs(t, u.Stop(), ErrNotPlaying)
	assert.Equal(t, Loaded, u.State())
}

func TestStartWithoutBuffer(t *testing.T) {
	_, u := newTestUnit(t)
	assert.ErrorIs(t, u.Start(), ErrNoBuffer)
	assert.Equal(t, Empty, u.State())
}

func TestStopThenStartReplays(t *testing.T) {
	ctx, u := newTestUnit(t)
	u.SetLoop(true)
	u.SetBuffer(constant(0.5, 100))

	require.NoError(t, u.Start())
	assert.Equal(t, 0.5, ctx.RenderFloat(Quantum)[10])

	require.NoError(t, u.Stop())
	assert.Equal(t, Stopped, u.State())
	assert.Equal(t, 0.0, ctx.RenderFloat(Quantum)[10])

	require.NoError(t, u.Start())
	assert.Equal(t, 0.5, ctx.RenderFloat(Quantum)[10])
}

func TestSetBufferWhileIdleSwapsImmediately(t *testing.T) {
	_, u := newTestUnit(t)
	a, b := constant(0.5, 100), constant(-0.5, 100)
	u.SetBuffer(a)
	u.SetBuffer(b)

	assert.Same(t, b, currentBuffer(u))
	assert.Equal(t, Loaded, u.State())
}

func TestSetBufferWhilePlayingIsPending(t *testing.T) {
	ctx, u := newTestUnit(t)
	u.SetLoop(true)
	a, b := constant(0.5, 100), constant(-0.25, 100)
	u.SetBuffer(a)
	require.NoError(t, u.Start())
	ctx.RenderFloat(Quantum)

	u.SetBuffer(b)
	assert.Equal(t, SwitchPending, u.State())
	assert.Same(t, a, currentBuffer(u), "live source must not be replaced in place")
	assert.Same(t, b, u.Buffer())

	require.True(t, u.Switch())
	assert.Equal(t, Playing, u.State())
	assert.False(t, u.Switch())

	out := ctx.RenderFloat(Quantum)
	for i, v := range out {
		require.Equal(t, -0.25, v, "frame %d", i)
	}

	require.NoError(t, u.Stop())
	require.NoError(t, u.Start())
	assert.Same(t, b, currentBuffer(u))
	assert.Equal(t, -0.25, ctx.RenderFloat(Quantum)[0])
}

func TestStopCompletesPendingSwitch(t *testing.T) {
	_, u := newTestUnit(t)
	u.SetLoop(true)
	a, b := constant(0.5, 100), constant(-0.25, 100)
	u.SetBuffer(a)
	require.NoError(t, u.Start())
	u.SetBuffer(b)

	require.NoError(t, u.Stop())
	assert.Equal(t, Stopped, u.State())
	assert.Same(t, b, currentBuffer(u))

	u.mu.Lock()
	assert.Nil(t, u.pending)
	assert.False(t, u.current.started)
	assert.True(t, u.current.loop, "replacement keeps the loop setting")
	u.mu.Unlock()

	require.NoError(t, u.Start())
}

func TestSecondSetBufferOverwritesPending(t *testing.T) {
	ctx, u := newTestUnit(t)
	u.SetLoop(true)
	u.SetBuffer(constant(0.5, 100))
	require.NoError(t, u.Start())

	u.SetBuffer(constant(0.1, 100))
	c := constant(0.2, 100)
	u.SetBuffer(c)

	u.mu.Lock()
	assert.Same(t, c, u.pending.buffer)
	u.mu.Unlock()
	assert.Equal(t, 2, ctx.Destination().Inputs(), "only the live and the newest pending source stay connected")
}

func TestLoopEndHandsOverOnTheExactFrame(t *testing.T) {
	ctx, u := newTestUnit(t)
	u.SetLoop(true)
	a, b := constant(0.5, 100), constant(-0.25, 100)
	u.SetBuffer(a)
	require.NoError(t, u.Start())

	// 128 frames of a 100 frame loop leaves the playhead at 28.
	for i, v := range ctx.RenderFloat(Quantum) {
		require.Equal(t, 0.5, v, "frame %d", i)
	}
	u.SetBuffer(b)

	out := ctx.RenderFloat(Quantum)
	for i := range 72 {
		require.Equal(t, 0.5, out[i], "frame %d", i)
	}
	for i := 72; i < Quantum; i++ {
		require.Equal(t, -0.25, out[i], "frame %d", i)
	}

	require.Eventually(t, func() bool { return u.State() == Playing }, time.Second, time.Millisecond)
	assert.Same(t, b, currentBuffer(u))

	u.mu.Lock()
	assert.True(t, u.current.loop, "the new source loops again")
	u.mu.Unlock()
	for i, v := range ctx.RenderFloat(2 * Quantum) {
		require.Equal(t, -0.25, v, "frame %d", i)
	}
}

func TestSetBufferRightAfterLoopEndHandover(t *testing.T) {
	ctx, u := newTestUnit(t)
	u.SetLoop(true)
	u.SetBuffer(constant(0.5, 100))
	require.NoError(t, u.Start())
	ctx.RenderFloat(Quantum)

	b, c := constant(-0.25, 100), constant(0.75, 100)
	u.SetBuffer(b)
	// a ends at frame 72 of this quantum and b plays the remaining 56.
	ctx.RenderFloat(Quantum)
	// c arrives whether or not the watcher has caught up with the handover.
	u.SetBuffer(c)

	out := ctx.RenderFloat(Quantum)
	for i := range 44 {
		require.Equal(t, -0.25, out[i], "frame %d", i)
	}
	for i := 44; i < Quantum; i++ {
		require.Equal(t, 0.75, out[i], "frame %d", i)
	}
	require.Eventually(t, func() bool { return u.State() == Playing }, time.Second, time.Millisecond)
	assert.Same(t, c, currentBuffer(u))
	assert.Equal(t, 1, ctx.Destination().Inputs())
	for i, v := range ctx.RenderFloat(2 * Quantum) {
		require.Equal(t, 0.75, v, "frame %d", i)
	}
}

func TestStateReflectsHandoverBeforeWatcher(t *testing.T) {
	ctx, u := newTestUnit(t)
	u.SetLoop(true)
	u.SetBuffer(constant(0.5, 100))
	require.NoError(t, u.Start())
	ctx.RenderFloat(Quantum)

	b := constant(-0.25, 100)
	u.SetBuffer(b)
	ctx.RenderFloat(Quantum)

	assert.Equal(t, Playing, u.State())
	assert.Same(t, b, currentBuffer(u))
}

func TestReplaceCommitsWithNewRate(t *testing.T) {
	ctx, u := newTestUnit(t)
	u.SetLoop(true)
	u.SetBuffer(constant(0.5, 100))
	require.NoError(t, u.Start())
	ctx.RenderFloat(Quantum)

	b := constant(-0.25, 100)
	u.Replace(b, 2)
	assert.Equal(t, Playing, u.State())
	assert.Equal(t, 2.0, u.PlaybackRate())

	u.mu.Lock()
	assert.Same(t, b, u.current.buffer)
	assert.Equal(t, 2.0, u.current.rate)
	assert.Nil(t, u.pending)
	u.mu.Unlock()

	for i, v := range ctx.RenderFloat(Quantum) {
		require.Equal(t, -0.25, v, "frame %d", i)
	}

	u.Replace(constant(0.1, 100), math.NaN())
	assert.Equal(t, 2.0, u.PlaybackRate())
}

func TestSettersApplyToLiveAndPendingSources(t *testing.T) {
	ctx, u := newTestUnit(t)
	u.SetLoop(true)
	u.SetBuffer(constant(0.5, 100))
	require.NoError(t, u.Start())
	ctx.RenderFloat(Quantum)
	u.SetBuffer(constant(0.1, 100))

	u.SetPlaybackRate(2)
	u.SetDetune(-1200)

	u.mu.Lock()
	for _, s := range []*Source{u.current, u.pending} {
		assert.Equal(t, 2.0, s.rate)
		assert.Equal(t, -1200.0, s.detune)
		assert.InDelta(t, 1.0, s.ratio(), 1e-12)
	}
	assert.False(t, u.current.loop, "live source finishes its iteration")
	u.mu.Unlock()
}

func TestSetLoopWhilePendingReachesOnlyThePendingSource(t *testing.T) {
	ctx, u := newTestUnit(t)
	u.SetLoop(true)
	u.SetBuffer(constant(0.5, 100))
	require.NoError(t, u.Start())
	ctx.RenderFloat(Quantum)
	u.SetBuffer(constant(0.1, 100))

	u.SetLoop(false)
	u.mu.Lock()
	assert.False(t, u.pending.loop)
	assert.False(t, u.current.loop)
	u.mu.Unlock()

	u.SetLoop(true)
	assert.True(t, u.Loop())
	u.mu.Lock()
	assert.True(t, u.pending.loop)
	assert.False(t, u.current.loop, "live source still ends so the switch happens")
	u.mu.Unlock()
}

func TestSetPlaybackRateIgnoresNonNumbers(t *testing.T) {
	_, u := newTestUnit(t)
	u.SetPlaybackRate(2)
	u.SetPlaybackRate(math.NaN())
	u.SetPlaybackRate(math.Inf(1))
	assert.Equal(t, 2.0, u.PlaybackRate())

	u.SetDetune(100)
	u.SetDetune(math.NaN())
	assert.Equal(t, 100.0, u.Detune())
}

func TestDisconnectIsIdempotent(t *testing.T) {
	ctx, u := newTestUnit(t)
	u.SetBuffer(constant(0.5, 100))
	side := ctx.NewBus()

	u.Connect(side)
	u.Connect(side)
	assert.Equal(t, 3, u.Destinations())
	assert.Equal(t, 1, side.Inputs())

	u.Disconnect(side)
	assert.Equal(t, 1, u.Destinations())
	assert.Equal(t, 0, side.Inputs())
	assert.Equal(t, 1, ctx.Destination().Inputs())

	u.Disconnect(side)
	assert.Equal(t, 1, u.Destinations())

	u.DisconnectAll()
	assert.Equal(t, 0, u.Destinations())
	assert.Equal(t, 0, ctx.Destination().Inputs())
}

func TestSourceIsOneShot(t *testing.T) {
	ctx := NewContext(testRate, 1)
	s := ctx.NewSource(constant(0.5, 10))
	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrSourceStarted)

	s.Stop()
	s.Stop()
	select {
	case <-s.Ended():
	default:
		t.Fatal("expected ended after stop")
	}
}

func TestRateConversionAcrossSampleRates(t *testing.T) {
	ctx := NewContext(2*testRate, 1)
	s := ctx.NewSource(constant(0.5, 10))
	s.SetDetune(1200)
	assert.InDelta(t, 1.0, s.ratio(), 1e-12)
}

func TestReadProducesPCMAndFeedsMonitor(t *testing.T) {
	mon := NewMonitor(Quantum, 1)
	ctx := NewContext(testRate, 1, WithMonitor(mon))
	s := ctx.NewSource(constant(0.5, 10))
	s.SetLoop(true)
	s.Connect(ctx.Destination())
	require.NoError(t, s.Start())

	p := make([]byte, 9)
	n, err := ctx.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 8, n, "reads stop at a whole frame")
	assert.Equal(t, []byte{0x00, 0x40}, p[:2])

	assert.InDelta(t, 0.5, mon.Level(0, 64), 1e-3)
	assert.Zero(t, mon.Level(1, 64))
}

func TestBusesMixAndFanOut(t *testing.T) {
	ctx := NewContext(testRate, 1)
	side := ctx.NewBus()
	side.Connect(ctx.Destination())

	a := ctx.NewSource(constant(0.25, 10))
	a.SetLoop(true)
	a.Connect(side)
	a.Connect(ctx.Destination())
	require.NoError(t, a.Start())

	b := ctx.NewSource(constant(0.125, 10))
	b.SetLoop(true)
	b.Connect(side)
	require.NoError(t, b.Start())

	assert.Equal(t, 0.625, ctx.RenderFloat(1)[0])

	side.Disconnect(ctx.Destination())
	assert.Equal(t, 0.25, ctx.RenderFloat(1)[0])
}
