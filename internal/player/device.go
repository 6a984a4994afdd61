package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// deviceLatency bounds how far ahead of the speaker the graph renders, and
// so how late a switch or a settings change is heard.
const deviceLatency = 60 * time.Millisecond

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
	otoFormat    [2]int
)

// oto allows a single context per process; its format is fixed by the
// first caller.
func initOto(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
			otoFormat = [2]int{sampleRate, channels}
		}
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if otoFormat != [2]int{sampleRate, channels} {
		return nil, fmt.Errorf("audio device already open at %d Hz, %d channels", otoFormat[0], otoFormat[1])
	}
	return globalOtoCtx, nil
}

// Device plays a Context on the audio hardware.
type Device struct {
	player *oto.Player
	volume float64
	mu     sync.Mutex
	closed bool
}

// OpenDevice starts pulling ctx into the sound card.
func OpenDevice(ctx *Context) (*Device, error) {
	otoCtx, err := initOto(ctx.SampleRate(), ctx.Channels())
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}

	d := &Device{
		player: otoCtx.NewPlayer(ctx),
		volume: 0.8,
	}
	frameSize := ctx.Channels() * bitDepth
	d.player.SetBufferSize(int(deviceLatency.Seconds()*float64(ctx.SampleRate())) * frameSize)
	d.player.SetVolume(d.volume)
	d.player.Play()
	ctx.log.Debug("audio device opened")
	return d, nil
}

// Volume returns current volume (0.0 to 1.0).
func (d *Device) Volume() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.volume
}

// SetVolume sets volume (clamped to 0.0 - 1.0).
func (d *Device) SetVolume(v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.volume = clampVolume(v)
	d.player.SetVolume(d.volume)
}

// AdjustVolume adjusts volume by delta.
func (d *Device) AdjustVolume(delta float64) {
	d.mu.Lock()
	v := d.volume + delta
	d.mu.Unlock()
	d.SetVolume(v)
}

// Close stops the hardware stream.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.player.Pause()
	return d.player.Close()
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
