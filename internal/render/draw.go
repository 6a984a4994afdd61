package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// fill paints r (clipped to dst) with c, replacing what was there.
func fill(dst *image.RGBA, r image.Rectangle, c color.Color) image.Rectangle {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return image.Rectangle{}
	}
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
	return r
}

// blend composites c over r.
func blend(dst *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// stroke draws a line width pixels wide from (x0,y0) to (x1,y1). Only
// pixels inside clip are touched.
func stroke(dst *image.RGBA, clip image.Rectangle, x0, y0, x1, y1, width int, c color.RGBA) {
	clip = clip.Intersect(dst.Bounds())
	if clip.Empty() {
		return
	}

	dx := absInt(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -absInt(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy

	for {
		for w := range width {
			p := image.Pt(x0+w, y0)
			if p.In(clip) {
				dst.SetRGBA(p.X, p.Y, c)
			}
		}

		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// row converts a sample to the pixel row it is drawn on.
func row(v float64) int {
	return int(math.Floor(v))
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
