// Package render owns the waveform, connector and statistics surfaces and
// keeps them in step with the sample series, repainting only the columns an
// edit touches.
package render

import (
	"image"

	"github.com/sirupsen/logrus"

	"github.com/olivier-w/wavesketch/internal/logging"
	"github.com/olivier-w/wavesketch/internal/series"
)

const (
	// Discontinuity is the sample difference between adjacent columns at
	// which a connector is drawn. It is also the height of a waveform mark.
	Discontinuity = 3
	// ConnectorReach is the connector stroke width and the number of extra
	// columns repainted on each side of an edit.
	ConnectorReach = 2
)

// Damage lists the rectangle repainted on each surface by one operation.
// An empty rectangle means the surface was left alone.
type Damage struct {
	Waveform   image.Rectangle
	Connectors image.Rectangle
	Overlay    image.Rectangle
}

// Edit is the outcome of a point or line edit.
type Edit struct {
	Patch  series.Patch
	Stats  series.Stats
	Damage Damage
}

// Loaded is the outcome of loading a bitmap.
type Loaded struct {
	Values []float64
	Width  int
	Height int
	Stats  series.Stats
	Damage Damage
}

type anchor struct {
	x, y int
	set  bool
}

// Engine mutates the series and redraws the affected surface regions. It is
// not safe for concurrent use.
type Engine struct {
	surfaces *Surfaces
	series   *series.Series
	height   int
	anchor   anchor
	log      logrus.FieldLogger
}

// NewEngine returns an engine with an empty series and no surfaces.
func NewEngine(log logrus.FieldLogger) *Engine {
	return &Engine{
		series: series.New(),
		log:    logging.OrDiscard(log),
	}
}

// Attach hands the surfaces to the engine.
func (e *Engine) Attach(s *Surfaces) {
	e.surfaces = s
	w, h := s.Size()
	e.log.WithFields(logrus.Fields{"width": w, "height": h}).Debug("surfaces attached")
}

// Attached reports whether surfaces were handed over.
func (e *Engine) Attached() bool { return e.surfaces != nil }

// Series exposes the engine's series for reading.
func (e *Engine) Series() *series.Series { return e.series }

// Height is the vertical scale of the surfaces.
func (e *Engine) Height() int { return e.height }

// LoadImage derives a new series from img and repaints all surfaces.
// The surfaces are resized to the series length by the image height.
func (e *Engine) LoadImage(img image.Image) Loaded {
	b := img.Bounds()
	e.series.Load(Trace(img))
	e.height = b.Dy()
	e.anchor = anchor{}

	n := e.series.Len()
	e.surfaces.resize(n, e.height)

	dmg := Damage{
		Waveform:   e.paintWaveform(0, n),
		Connectors: e.paintConnectors(0, n),
		Overlay:    e.paintOverlay(),
	}
	e.log.WithFields(logrus.Fields{
		"width":   b.Dx(),
		"height":  b.Dy(),
		"columns": n,
	}).Debug("image loaded")

	return Loaded{
		Values: e.series.Values(),
		Width:  b.Dx(),
		Height: e.height,
		Stats:  e.series.Stats(),
		Damage: dmg,
	}
}

// PointEdit sets column x to y. ok is false when x is outside the series.
func (e *Engine) PointEdit(x, y int) (Edit, bool) {
	e.anchor = anchor{x: x, y: y, set: true}
	return e.replace(x, []float64{float64(y)})
}

// LineEdit fills every column between the previous pointer position and
// (x, y), both ends included, with linearly interpolated samples. Without
// horizontal movement it is a point edit.
func (e *Engine) LineEdit(x, y int) (Edit, bool) {
	prev := e.anchor
	if !prev.set || prev.x == x {
		return e.PointEdit(x, y)
	}
	e.anchor = anchor{x: x, y: y, set: true}

	lo, hi := min(prev.x, x), max(prev.x, x)
	if hi < 0 {
		return Edit{}, false
	}
	dx := float64(x - prev.x)
	dy := float64(y - prev.y)
	values := make([]float64, hi-lo+1)
	for i := range values {
		col := lo + i
		values[i] = float64(prev.y) + float64(col-prev.x)*dy/dx
	}
	if lo < 0 {
		values = values[-lo:]
		lo = 0
	}
	return e.replace(lo, values)
}

func (e *Engine) replace(start int, values []float64) (Edit, bool) {
	if e.surfaces == nil {
		return Edit{}, false
	}
	before := e.series.Stats()
	p, ok := e.series.Replace(start, values)
	if !ok {
		return Edit{}, false
	}
	after := e.series.Stats()

	dmg := Damage{
		Waveform:   e.paintWaveform(p.Start, p.End()),
		Connectors: e.paintConnectors(p.Start, p.End()),
	}
	if !before.Equal(after) {
		dmg.Overlay = e.paintOverlay()
	}
	return Edit{Patch: p, Stats: after, Damage: dmg}, true
}

// paintWaveform repaints exactly the columns [start, end).
func (e *Engine) paintWaveform(start, end int) image.Rectangle {
	dst := e.surfaces.Waveform
	r := fill(dst, image.Rect(start, 0, end, e.height), background)
	for x := start; x < end; x++ {
		v := e.series.At(x)
		if !series.Present(v) {
			continue
		}
		y := row(v)
		fill(dst, image.Rect(x, y, x+1, y+Discontinuity), foreground)
	}
	return r
}

// paintConnectors clears [start-reach, end+reach) and redraws every
// connector with pixels in that window.
func (e *Engine) paintConnectors(start, end int) image.Rectangle {
	dst := e.surfaces.Connectors
	n := e.series.Len()
	x0 := max(start-ConnectorReach, 0)
	x1 := min(end+ConnectorReach, n)
	window := fill(dst, image.Rect(x0, 0, x1, e.height), transparent)
	if window.Empty() {
		return window
	}

	// Connector i joins columns i-1 and i and its stroke spans i-1..i+reach-1.
	first := max(x0-ConnectorReach+1, 1)
	last := min(x1, n-1)
	for i := first; i <= last; i++ {
		prev, cur := e.series.At(i-1), e.series.At(i)
		if !series.Present(prev) || !series.Present(cur) {
			continue
		}
		if abs(cur-prev) < Discontinuity {
			continue
		}
		stroke(dst, window, i-1, row(prev), i, row(cur), ConnectorReach, foreground)
	}
	return window
}

// paintOverlay redraws the min, mean and max lines across the full width.
func (e *Engine) paintOverlay() image.Rectangle {
	dst := e.surfaces.Overlay
	r := fill(dst, dst.Bounds(), transparent)
	st := e.series.Stats()
	if st.Count == 0 {
		return r
	}
	w := dst.Bounds().Dx()
	for _, v := range []float64{st.Min, st.Mean, st.Max} {
		y := row(v)
		blend(dst, image.Rect(0, y, w, y+1), statsColor)
	}
	return r
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
