package media

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxImageWidth caps the number of columns a bitmap may contribute. Wider
// images are squeezed horizontally; the height is kept so rows still map
// to the same amplitude.
const MaxImageWidth = 4096

// DecodeImage reads a bitmap and returns it as RGBA with its origin at 0,0.
func DecodeImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("decoding %s image: empty bitmap", format)
	}
	return toRGBA(src, MaxImageWidth), nil
}

// toRGBA copies src into a fresh RGBA. Downscaling uses nearest neighbour
// so traced pixels keep their exact value.
func toRGBA(src image.Image, maxWidth int) *image.RGBA {
	b := src.Bounds()
	w, h := min(b.Dx(), maxWidth), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
