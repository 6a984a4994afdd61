package session_test

import (
	"context"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/olivier-w/wavesketch/internal/player"
	"github.com/olivier-w/wavesketch/internal/pointer"
	"github.com/olivier-w/wavesketch/internal/protocol"
	"github.com/olivier-w/wavesketch/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testRate = 1000

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New(session.Config{
		SampleRate: testRate,
		Duration:   9, // 1s
		Loop:       true,
		Output:     session.OutputNone,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

// diagonal is a w×h drawing whose column x is lit at row step·x.
func diagonal(w, h, step int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, step*x, color.White)
	}
	return img
}

func recv(t *testing.T, s *session.Session) protocol.Notification {
	t.Helper()
	select {
	case n, ok := <-s.Notifications():
		require.True(t, ok, "notifications closed")
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("no notification")
		return nil
	}
}

func load(t *testing.T, s *session.Session, img image.Image) {
	t.Helper()
	require.NoError(t, s.Load(context.Background(), img))
	n := recv(t, s)
	require.IsType(t, protocol.ImageLoaded{}, n)
	require.NoError(t, s.Apply(n))
}

func TestLoadMirrorsSeries(t *testing.T) {
	s := newSession(t)
	assert.Equal(t, player.Empty, s.State())

	load(t, s, diagonal(4, 9, 2))

	assert.Equal(t, []float64{0, 2, 4, 6}, s.Values())
	w, h := s.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 9, h)
	assert.Equal(t, player.Loaded, s.State())
	assert.Equal(t, 3.0, s.Stats().Mean)
	assert.InDelta(t, 0.004, s.PlaybackRate(), 1e-12)
}

func TestEditWaitsForLoopEnd(t *testing.T) {
	s := newSession(t)
	load(t, s, diagonal(4, 9, 2))
	require.NoError(t, s.Play())

	ctx := context.Background()
	require.NoError(t, s.Pointer(ctx, pointer.Event{Kind: pointer.Press, X: 1, Y: 8}))
	require.NoError(t, s.Pointer(ctx, pointer.Event{Kind: pointer.Release}))

	n := recv(t, s)
	edit, ok := n.(protocol.ValueRangeChanged)
	require.True(t, ok, "expected ValueRangeChanged, got %T", n)
	assert.Equal(t, 1, edit.Start)
	assert.Equal(t, []float64{8}, edit.Values)
	require.NoError(t, s.Apply(n))
	assert.Equal(t, []float64{0, 8, 4, 6}, s.Values())
	assert.Equal(t, player.SwitchPending, s.State())

	// One loop is 1000 frames at this rate.
	s.Context().RenderFloat(1200)
	require.Eventually(t, func() bool {
		return s.State() == player.Playing
	}, time.Second, 5*time.Millisecond)
}

func TestReloadSwitchesAtOnce(t *testing.T) {
	s := newSession(t)
	load(t, s, diagonal(4, 9, 2))
	require.NoError(t, s.Play())

	load(t, s, diagonal(8, 9, 1))
	assert.Equal(t, player.Playing, s.State())
	assert.Equal(t, 1, s.Context().Destination().Inputs())
	assert.InDelta(t, 0.008, s.PlaybackRate(), 1e-12)
}

func TestDurationPresets(t *testing.T) {
	s := newSession(t)
	load(t, s, diagonal(4, 9, 2))

	require.NoError(t, s.SetDuration(0))
	assert.Equal(t, time.Millisecond, s.Duration())
	assert.InDelta(t, 4.0, s.PlaybackRate(), 1e-12)

	assert.Error(t, s.SetDuration(len(player.Durations)))
	assert.Equal(t, time.Millisecond, s.Duration())

	i, err := session.DurationIndex(20 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 4, i)
	_, err = session.DurationIndex(3 * time.Second)
	assert.Error(t, err)
}

func TestDetune(t *testing.T) {
	s := newSession(t)
	s.AdjustDetune(50)
	assert.Equal(t, 100.0, s.AdjustDetune(50))
	assert.Equal(t, 100.0, s.AdjustDetune(math.NaN()))
	s.ResetDetune()
	assert.Zero(t, s.Detune())
}

func TestToggles(t *testing.T) {
	s := newSession(t)
	assert.Equal(t, pointer.Discrete, s.ToggleMode())
	assert.Equal(t, pointer.Discrete, s.Mode())
	assert.False(t, s.ToggleLoop())
	assert.True(t, s.ToggleLoop())

	assert.ErrorIs(t, s.TogglePlay(), player.ErrNoBuffer)
	load(t, s, diagonal(4, 9, 2))
	require.NoError(t, s.TogglePlay())
	assert.True(t, s.Playing())
	require.NoError(t, s.TogglePlay())
	assert.Equal(t, player.Stopped, s.State())
}

func TestApplyRejects(t *testing.T) {
	s := newSession(t)
	err := s.Apply(protocol.Failed{Message: protocol.PointEdit{}, Err: protocol.ErrNotInitialized})
	assert.ErrorIs(t, err, protocol.ErrNotInitialized)

	load(t, s, diagonal(4, 9, 2))
	assert.Error(t, s.Apply(protocol.ValueRangeChanged{Start: 3, Values: []float64{1, 2}}))
	assert.Equal(t, []float64{0, 2, 4, 6}, s.Values())
}

func TestExport(t *testing.T) {
	s := newSession(t)
	path := filepath.Join(t.TempDir(), "loop.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ErrorIs(t, s.Export(f, time.Second), session.ErrEmpty)

	load(t, s, diagonal(4, 9, 2))
	require.NoError(t, s.Export(f, 10*time.Millisecond))

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Format.NumChannels)
	assert.Equal(t, testRate, buf.Format.SampleRate)
	// a whole loop of one second
	assert.Len(t, buf.Data, 2*testRate)
	assert.Equal(t, math.MaxInt16, buf.Data[0])
}
