package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// pcm is a decoded clip downmixed to mono, samples in [-1, 1].
type pcm struct {
	samples    []float64
	sampleRate int
	limit      time.Duration
}

func (p *pcm) full() bool {
	if p.limit <= 0 {
		return false
	}
	return len(p.samples) >= int(p.limit.Seconds()*float64(p.sampleRate))
}

func (p *pcm) duration() time.Duration {
	if p.sampleRate <= 0 {
		return 0
	}
	return time.Duration(len(p.samples)) * time.Second / time.Duration(p.sampleRate)
}

// push averages one interleaved chunk into mono frames. It reports false
// once the frame limit is reached.
func (p *pcm) push(interleaved []float64, channels int) bool {
	if channels <= 0 {
		return false
	}
	for i := 0; i+channels <= len(interleaved); i += channels {
		if p.full() {
			return false
		}
		var sum float64
		for _, v := range interleaved[i : i+channels] {
			sum += v
		}
		p.samples = append(p.samples, sum/float64(channels))
	}
	return !p.full()
}

// decodeClip detects format by file extension and decodes up to limit of
// audio, or all of it when limit is zero.
func decodeClip(path string, limit time.Duration) (*pcm, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := &pcm{limit: limit}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		err = decodeMP3(f, out)
	case ".wav":
		err = decodeWAV(f, out)
	case ".flac":
		err = decodeFLAC(f, out)
	case ".ogg":
		err = decodeOGG(f, out)
	default:
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
	if err != nil {
		return nil, err
	}
	if len(out.samples) == 0 {
		return nil, fmt.Errorf("decoding %s: no audio", filepath.Base(path))
	}
	return out, nil
}

// --- MP3 ---

// go-mp3 always produces 16-bit stereo.
const mp3FrameSize = 4

func decodeMP3(f *os.File, out *pcm) error {
	startTrim, endTrim, err := readMP3GaplessTrim(f)
	if err != nil {
		return fmt.Errorf("reading MP3 gapless info: %w", err)
	}
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return fmt.Errorf("decoding MP3: %w", err)
	}
	out.sampleRate = dec.SampleRate()

	total := dec.Length() / mp3FrameSize
	last := total - endTrim
	if startTrim > 0 && startTrim < last {
		if _, err := dec.Seek(startTrim*mp3FrameSize, io.SeekStart); err != nil {
			return fmt.Errorf("skipping MP3 encoder delay: %w", err)
		}
	} else {
		startTrim = 0
	}

	raw := make([]byte, 4096*mp3FrameSize)
	chunk := make([]float64, 0, 4096*2)
	frame := startTrim
	for frame < last {
		n, err := io.ReadFull(dec, raw)
		frames := int64(n / mp3FrameSize)
		frames = min(frames, last-frame)
		chunk = chunk[:0]
		for i := range frames * 2 {
			chunk = append(chunk, int16Sample(raw[i*2:]))
		}
		frame += frames
		if !out.push(chunk, 2) {
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("decoding MP3: %w", err)
		}
	}
	return nil
}

// --- WAV ---

func decodeWAV(f *os.File, out *pcm) error {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return fmt.Errorf("invalid WAV file")
	}
	// FwdToPCM positions the reader at the start of PCM data
	if err := dec.FwdToPCM(); err != nil {
		return fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	depth := int(dec.BitDepth)
	out.sampleRate = int(dec.SampleRate)

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: channels, SampleRate: out.sampleRate},
		Data:   make([]int, 4096*channels),
	}
	chunk := make([]float64, 0, len(buf.Data))
	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decoding WAV: %w", err)
		}
		if n == 0 {
			return nil
		}
		chunk = chunk[:0]
		for _, v := range buf.Data[:n] {
			chunk = append(chunk, wavSample(v, depth))
		}
		if !out.push(chunk, channels) {
			return nil
		}
	}
}

func wavSample(v, depth int) float64 {
	switch depth {
	case 8:
		// 8-bit WAV is unsigned
		return float64(v-128) / 128
	case 16, 24, 32:
		return float64(v) / float64(int64(1)<<(depth-1))
	default:
		return 0
	}
}

// --- FLAC ---

func decodeFLAC(f *os.File, out *pcm) error {
	stream, err := flac.New(f)
	if err != nil {
		return fmt.Errorf("decoding FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	scale := float64(int64(1) << (info.BitsPerSample - 1))
	out.sampleRate = int(info.SampleRate)

	var chunk []float64
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decoding FLAC: %w", err)
		}
		nSamples := int(frame.Subframes[0].NSamples)
		chunk = chunk[:0]
		for i := 0; i < nSamples; i++ {
			for ch := 0; ch < channels; ch++ {
				chunk = append(chunk, float64(frame.Subframes[ch].Samples[i])/scale)
			}
		}
		if !out.push(chunk, channels) {
			return nil
		}
	}
}

// --- OGG Vorbis ---

func decodeOGG(f *os.File, out *pcm) error {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return fmt.Errorf("decoding OGG: %w", err)
	}
	channels := reader.Channels()
	out.sampleRate = reader.SampleRate()

	samples := make([]float32, 4096*channels)
	chunk := make([]float64, 0, len(samples))
	for {
		n, err := reader.Read(samples)
		chunk = chunk[:0]
		for _, s := range samples[:n] {
			chunk = append(chunk, float64(max(-1, min(1, s))))
		}
		if !out.push(chunk, channels) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decoding OGG: %w", err)
		}
		if n == 0 {
			return nil
		}
	}
}

func int16Sample(b []byte) float64 {
	return float64(int16(binary.LittleEndian.Uint16(b))) / 32768
}
