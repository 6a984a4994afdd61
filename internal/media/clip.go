package media

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"
)

// ClipOptions controls how an audio clip is turned into a drawing.
type ClipOptions struct {
	// Columns is the most columns the traced curve may have.
	Columns int
	// Height of the traced bitmap; a full-scale sample spans it.
	Height int
	// MaxDuration is how much of the clip is decoded.
	MaxDuration time.Duration
}

// DefaultClipOptions fits a short clip into a drawing comfortable to edit
// in a terminal.
func DefaultClipOptions() ClipOptions {
	return ClipOptions{
		Columns:     1024,
		Height:      256,
		MaxDuration: 2 * time.Second,
	}
}

// Sketch is a bitmap ready to be traced into a sample series.
type Sketch struct {
	Path  string
	Title string
	Image *image.RGBA
	// ClipDuration is the decoded length of an audio clip, zero for images.
	ClipDuration time.Duration
}

// Open loads an image or an audio clip as a sketch.
func Open(path string, opts ClipOptions) (Sketch, error) {
	ext := filepath.Ext(path)
	switch {
	case IsImageExt(ext):
		img, err := DecodeImage(path)
		if err != nil {
			return Sketch{}, err
		}
		return Sketch{Path: path, Title: Title(path), Image: img}, nil

	case IsClipExt(ext):
		clip, err := decodeClip(path, opts.MaxDuration)
		if err != nil {
			return Sketch{}, err
		}
		return Sketch{
			Path:         path,
			Title:        Title(path),
			Image:        TraceClip(clip.samples, opts.Columns, opts.Height),
			ClipDuration: clip.duration(),
		}, nil

	default:
		return Sketch{}, fmt.Errorf("unsupported format: %s (supported: %s)", ext, SupportedExtsList())
	}
}

var (
	traceBackground = color.RGBA{A: 0xff}
	traceInk        = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// TraceClip draws samples as a white curve on black, one pixel per column.
// Each column averages its share of the samples; +1 lands on the top row
// and -1 on the bottom row.
func TraceClip(samples []float64, columns, height int) *image.RGBA {
	n := len(samples)
	if columns <= 0 || columns > n {
		columns = n
	}
	height = max(height, 1)
	img := image.NewRGBA(image.Rect(0, 0, columns, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(traceBackground), image.Point{}, draw.Src)

	for x := range columns {
		lo := x * n / columns
		hi := max((x+1)*n/columns, lo+1)
		var sum float64
		for _, v := range samples[lo:hi] {
			sum += v
		}
		v := math.Max(-1, math.Min(1, sum/float64(hi-lo)))
		y := int(math.Round((1 - v) / 2 * float64(height-1)))
		img.SetRGBA(x, y, traceInk)
	}
	return img
}
