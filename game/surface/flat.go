package surface

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/wricardo/tileview/game/atlas"
	"github.com/wricardo/tileview/game/viewport"
)

// FlatColor fills its drawable rectangle with one color.
type FlatColor struct {
	base
	color color.Color
}

// NewFlatColor creates a flat color surface over vp.
func NewFlatColor(vp *viewport.Viewport, c color.Color) *FlatColor {
	return &FlatColor{base: base{vp: vp}, color: c}
}

func (f *FlatColor) Kind() Kind             { return KindFlatColor }
func (f *FlatColor) Color() color.Color     { return f.color }
func (f *FlatColor) SetColor(c color.Color) { f.color = c }

func (f *FlatColor) Render(dst draw.Image) {
	draw.Draw(dst, f.vp.Bounds(), image.NewUniform(f.color), image.Point{}, draw.Over)
}

// StaticImage draws one image scaled to its drawable rectangle.
type StaticImage struct {
	base
	bitmap *atlas.Bitmap
}

// NewStaticImage creates an image surface over vp. scaler may be nil.
func NewStaticImage(vp *viewport.Viewport, b *atlas.Bitmap, scaler *Scaler) *StaticImage {
	return &StaticImage{base: base{vp: vp, scaler: scaler}, bitmap: b}
}

func (s *StaticImage) Kind() Kind            { return KindStaticImage }
func (s *StaticImage) Bitmap() *atlas.Bitmap { return s.bitmap }

func (s *StaticImage) Render(dst draw.Image) {
	s.scaler.drawScaled(dst, s.vp.Bounds(), s.bitmap)
}
