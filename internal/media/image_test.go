package media

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

var white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

func testBitmap(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{A: 0xff}), image.Point{}, draw.Src)
	for x := 0; x < w; x++ {
		img.SetRGBA(x, x%h, white)
	}
	return img
}

func TestDecodeImageFormats(t *testing.T) {
	dir := t.TempDir()
	src := testBitmap(5, 4)

	encoders := map[string]func(f *os.File) error{
		"sketch.png": func(f *os.File) error { return png.Encode(f, src) },
		"sketch.bmp": func(f *os.File) error { return bmp.Encode(f, src) },
	}
	for name, encode := range encoders {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if err := encode(f); err != nil {
			t.Fatalf("encode %s: %v", name, err)
		}
		f.Close()

		got, err := DecodeImage(path)
		if err != nil {
			t.Fatalf("DecodeImage(%s) error = %v", name, err)
		}
		if got.Bounds() != image.Rect(0, 0, 5, 4) {
			t.Fatalf("%s: expected 5x4 bounds, got %v", name, got.Bounds())
		}
		if c := got.RGBAAt(2, 2); c != white {
			t.Fatalf("%s: expected white at (2,2), got %v", name, c)
		}
	}
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := DecodeImage(path); err == nil {
		t.Fatal("expected error for undecodable file")
	}
}

func TestToRGBASqueezesWideImages(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 18, 13))
	for x := 10; x < 18; x++ {
		src.SetRGBA(x, 11, white)
	}

	got := toRGBA(src, 4)
	if got.Bounds() != image.Rect(0, 0, 4, 3) {
		t.Fatalf("expected 4x3 after squeeze, got %v", got.Bounds())
	}
	for x := 0; x < 4; x++ {
		if c := got.RGBAAt(x, 1); c != white {
			t.Fatalf("expected traced row kept at column %d, got %v", x, c)
		}
	}

	same := toRGBA(src, 100)
	if same.Bounds() != image.Rect(0, 0, 8, 3) {
		t.Fatalf("expected origin moved to 0,0, got %v", same.Bounds())
	}
}
