package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	xdraw "golang.org/x/image/draw"
)

func TestPlaceholderImage(t *testing.T) {
	data, err := PlaceholderImage("shop.example.com", 400, 300)
	if err != nil {
		t.Fatalf("PlaceholderImage() error: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("placeholder is not a PNG: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 400 || got.Dy() != 300 {
		t.Errorf("placeholder bounds = %v, want 400x300", got)
	}
}

func TestPlaceholderImageDefaultsSize(t *testing.T) {
	data, err := PlaceholderImage("x", 0, -5)
	if err != nil {
		t.Fatalf("PlaceholderImage() error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("placeholder is not a PNG: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 800 || got.Dy() != 600 {
		t.Errorf("placeholder bounds = %v, want 800x600", got)
	}
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 0x20, G: 0x40, B: 0x80, A: 0xFF}), image.Point{}, xdraw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestScaleToWidthShrinks(t *testing.T) {
	wide := testPNG(t, 1600, 400)

	scaled := ScaleToWidth(wide, 800)
	img, err := png.Decode(bytes.NewReader(scaled))
	if err != nil {
		t.Fatalf("scaled image is not a PNG: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 800 || got.Dy() != 200 {
		t.Errorf("scaled bounds = %v, want 800x200", got)
	}
}

func TestScaleToWidthPassThrough(t *testing.T) {
	small := testPNG(t, 200, 100)
	if got := ScaleToWidth(small, 800); !bytes.Equal(got, small) {
		t.Error("narrow image was re-encoded")
	}

	garbage := []byte("not a png")
	if got := ScaleToWidth(garbage, 800); !bytes.Equal(got, garbage) {
		t.Error("undecodable bytes were not passed through")
	}

	if got := ScaleToWidth(small, 0); !bytes.Equal(got, small) {
		t.Error("maxWidth 0 should disable scaling")
	}
}
