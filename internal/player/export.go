package player

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavPCM = 1

// Settings are the playback parameters applied to an exported loop.
type Settings struct {
	Rate   float64
	Detune float64
}

// ExportWAV renders b looping at s for d and writes it as 16-bit PCM. The
// rendering runs on a private context so the live graph is untouched.
func ExportWAV(w io.WriteSeeker, b *Buffer, s Settings, d time.Duration, sampleRate int) error {
	if b.Frames() == 0 {
		return fmt.Errorf("export: %w", ErrNoBuffer)
	}
	channels := b.Channels()
	ctx := NewContext(sampleRate, channels)
	src := ctx.NewSource(b)
	src.SetLoop(true)
	src.SetPlaybackRate(s.Rate)
	src.SetDetune(s.Detune)
	src.Connect(ctx.Destination())
	if err := src.Start(); err != nil {
		return err
	}

	frames := max(1, int(math.Round(d.Seconds()*float64(sampleRate))))
	mix := ctx.RenderFloat(frames)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: 16,
		Data:           make([]int, len(mix)),
	}
	for i, v := range mix {
		buf.Data[i] = int(toInt16(v))
	}

	e := wav.NewEncoder(w, sampleRate, 16, channels, wavPCM)
	if err := e.Write(buf); err != nil {
		return fmt.Errorf("export: write samples: %w", err)
	}
	if err := e.Close(); err != nil {
		return fmt.Errorf("export: finish file: %w", err)
	}
	return nil
}

// ExportLength rounds least up to a whole number of loops.
func ExportLength(loop, least time.Duration) time.Duration {
	if loop <= 0 {
		return least
	}
	n := math.Ceil(float64(least) / float64(loop))
	return time.Duration(max(n, 1) * float64(loop))
}
