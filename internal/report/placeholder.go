package report

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	placeholderBG     = color.RGBA{R: 0xEE, G: 0xEF, B: 0xF1, A: 0xFF}
	placeholderBorder = color.RGBA{R: 0xC6, G: 0xC9, B: 0xCE, A: 0xFF}
	placeholderText   = color.RGBA{R: 0x55, G: 0x5A, B: 0x60, A: 0xFF}
)

// PlaceholderImage renders a flat gray card with the label centered. It
// stands in for a screenshot when the capture fails, so the slide still
// reads instead of showing a broken frame.
func PlaceholderImage(label string, width, height int) ([]byte, error) {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 600
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(placeholderBorder), image.Point{}, xdraw.Src)
	inner := image.Rect(2, 2, width-2, height-2)
	xdraw.Draw(img, inner, image.NewUniform(placeholderBG), image.Point{}, xdraw.Src)

	face := basicfont.Face7x13
	advance := font.MeasureString(face, label)
	x := (width - advance.Ceil()) / 2
	if x < 4 {
		x = 4
	}
	y := height/2 + face.Metrics().Ascent.Ceil()/2

	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(placeholderText),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(label)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

// ScaleToWidth shrinks a PNG to maxWidth, keeping the aspect ratio.
// Images already narrow enough pass through untouched, as does anything
// that fails to decode (the caller embeds whatever bytes it has).
func ScaleToWidth(data []byte, maxWidth int) []byte {
	if maxWidth <= 0 {
		return data
	}
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	bounds := src.Bounds()
	if bounds.Dx() <= maxWidth {
		return data
	}

	height := bounds.Dy() * maxWidth / bounds.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return data
	}
	return buf.Bytes()
}
