// Package protocol is the message contract between the input side and the
// render worker, and the worker that serves it.
package protocol

import (
	"image"

	"github.com/olivier-w/wavesketch/internal/render"
	"github.com/olivier-w/wavesketch/internal/series"
)

// Message is a request sent to the render worker. Messages are processed
// strictly in the order they were sent.
type Message interface {
	message()
}

// InitSurfaces hands the surfaces to the worker. It must be the first
// message and may only be sent once.
type InitSurfaces struct {
	Surfaces *render.Surfaces
}

// LoadImage derives a new series from a decoded bitmap.
type LoadImage struct {
	Image image.Image
}

// PointEdit sets one column.
type PointEdit struct {
	X, Y int
}

// LineEdit fills the columns between the previous pointer position and
// this one.
type LineEdit struct {
	X, Y int
}

// RenderView asks for a braille rendering of the surfaces. The reply
// channel must have room for one value.
type RenderView struct {
	Cols, Rows int
	Reply      chan<- []string
}

func (InitSurfaces) message() {}
func (LoadImage) message()    {}
func (PointEdit) message()    {}
func (LineEdit) message()     {}
func (RenderView) message()   {}

// Notification is emitted by the worker, in processing order.
type Notification interface {
	notification()
}

// ImageLoaded answers LoadImage with the derived series.
type ImageLoaded struct {
	Values []float64
	Width  int
	Height int
	Stats  series.Stats
}

// ValueRangeChanged carries exactly the patch an edit applied.
type ValueRangeChanged struct {
	Start  int
	Values []float64
	Stats  series.Stats
}

// Failed reports a message the worker refused.
type Failed struct {
	Message Message
	Err     error
}

func (ImageLoaded) notification()       {}
func (ValueRangeChanged) notification() {}
func (Failed) notification()            {}
