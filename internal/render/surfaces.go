package render

import (
	"image"
	"image/color"
)

var (
	background  = color.RGBA{A: 0xff}
	foreground  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	statsColor  = color.NRGBA{R: 0xff, G: 0xff, A: 0x80}
	transparent = color.RGBA{}
)

// Surfaces are the three pixel canvases the engine draws into. Once handed
// to an Engine they belong to it; other goroutines must not touch them.
type Surfaces struct {
	Waveform   *image.RGBA
	Connectors *image.RGBA
	Overlay    *image.RGBA
}

// NewSurfaces allocates three empty surfaces of the given size.
func NewSurfaces(width, height int) *Surfaces {
	s := &Surfaces{}
	s.resize(width, height)
	return s
}

func (s *Surfaces) resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	r := image.Rect(0, 0, width, height)
	s.Waveform = image.NewRGBA(r)
	s.Connectors = image.NewRGBA(r)
	s.Overlay = image.NewRGBA(r)
}

// Size returns the shared width and height of the surfaces.
func (s *Surfaces) Size() (width, height int) {
	if s == nil || s.Waveform == nil {
		return 0, 0
	}
	b := s.Waveform.Bounds()
	return b.Dx(), b.Dy()
}
