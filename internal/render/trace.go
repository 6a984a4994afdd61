package render

import (
	"image"
	"math"
)

// TraceThreshold is the 8-bit red level (after compositing onto black) a
// pixel must reach to be taken as the drawn curve.
const TraceThreshold = 0xff

// Trace scans every column of img top to bottom and returns the row of the
// first pixel at or above TraceThreshold. Columns without such a pixel are
// NaN.
func Trace(img image.Image) []float64 {
	b := img.Bounds()
	values := make([]float64, b.Dx())

	if rgba, ok := img.(*image.RGBA); ok {
		for x := range values {
			values[x] = math.NaN()
			for y := 0; y < b.Dy(); y++ {
				off := rgba.PixOffset(b.Min.X+x, b.Min.Y+y)
				if rgba.Pix[off] >= TraceThreshold {
					values[x] = float64(y)
					break
				}
			}
		}
		return values
	}

	for x := range values {
		values[x] = math.NaN()
		for y := 0; y < b.Dy(); y++ {
			// RGBA is alpha-premultiplied, which is the pixel composited onto black.
			r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			if r>>8 >= TraceThreshold {
				values[x] = float64(y)
				break
			}
		}
	}
	return values
}
