package surface

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/wricardo/tileview/game/viewport"
)

// Kind names a surface variant.
type Kind string

const (
	KindFlatColor     Kind = "flat"
	KindStaticImage   Kind = "static"
	KindRepeatingGrid Kind = "repeating"
	KindLayeredGrid   Kind = "layered"
)

// Surface is implemented only by the variants in this package.
type Surface interface {
	Kind() Kind
	Viewport() *viewport.Viewport
	ContainsPoint(x, y int) bool
	Render(dst draw.Image)
	DrawBounds(dst draw.Image, c color.Color)

	sealed()
}

// Grid is a surface laid out as columns × rows of cells.
type Grid interface {
	Surface
	Dimensions() (cols, rows int)
	CellSize() (w, h int)
	CellAt(x, y int) (col, row int, ok bool)
	CellRect(col, row int) image.Rectangle
}

// TokenHolder is a surface that may carry a movable token.
type TokenHolder interface {
	Surface
	Token() *Token
}

type base struct {
	vp     *viewport.Viewport
	scaler *Scaler
}

func (b *base) Viewport() *viewport.Viewport { return b.vp }

// ContainsPoint reports whether a screen point is inside the drawable area.
func (b *base) ContainsPoint(x, y int) bool { return b.vp.Contains(x, y) }

// DrawBounds outlines the drawable rectangle.
func (b *base) DrawBounds(dst draw.Image, c color.Color) {
	strokeRect(dst, b.vp.Bounds(), c)
}

func (b *base) sealed() {}

// gridLayout holds the integer cell geometry shared by the grid variants.
type gridLayout struct {
	vp         *viewport.Viewport
	cols, rows int
}

func (g gridLayout) cellSize() (int, int) {
	w, h := g.vp.DrawableSize()
	return w / g.cols, h / g.rows
}

func (g gridLayout) cellRect(col, row int) image.Rectangle {
	cw, ch := g.cellSize()
	ax, ay := g.vp.Anchor()
	x, y := ax+cw*col, ay+ch*row
	return image.Rect(x, y, x+cw, y+ch)
}

func (g gridLayout) cellAt(x, y int) (int, int, bool) {
	cw, ch := g.cellSize()
	if cw <= 0 || ch <= 0 {
		return 0, 0, false
	}
	ax, ay := g.vp.Anchor()
	if x < ax || y < ay {
		return 0, 0, false
	}
	col := int(uint64(x-ax) / uint64(cw))
	row := int(uint64(y-ay) / uint64(ch))
	if col >= g.cols || row >= g.rows || col < 0 || row < 0 {
		return 0, 0, false
	}
	return col, row, true
}

func (g gridLayout) drawLines(dst draw.Image, c color.Color) {
	cw, ch := g.cellSize()
	if cw <= 0 || ch <= 0 {
		return
	}
	ax, ay := g.vp.Anchor()
	w, h := cw*g.cols, ch*g.rows
	src := image.NewUniform(c)
	for i := 1; i < g.cols; i++ {
		x := ax + cw*i
		draw.Draw(dst, image.Rect(x, ay, x+1, ay+h), src, image.Point{}, draw.Over)
	}
	for j := 1; j < g.rows; j++ {
		y := ay + ch*j
		draw.Draw(dst, image.Rect(ax, y, ax+w, y+1), src, image.Point{}, draw.Over)
	}
}

// strokeRect draws a one pixel outline just inside r.
func strokeRect(dst draw.Image, r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), src, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), src, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), src, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), src, image.Point{}, draw.Over)
}

// RenderFrame renders s into a new w×h frame cleared to background. When
// outline is non-nil the surface bounds are drawn on top.
func RenderFrame(s Surface, w, h int, background, outline color.Color) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	if background != nil {
		draw.Draw(frame, frame.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	}
	s.Render(frame)
	if outline != nil {
		s.DrawBounds(frame, outline)
	}
	return frame
}

var (
	_ Surface     = (*FlatColor)(nil)
	_ Surface     = (*StaticImage)(nil)
	_ Grid        = (*RepeatingGrid)(nil)
	_ Grid        = (*LayeredGrid)(nil)
	_ TokenHolder = (*RepeatingGrid)(nil)
	_ TokenHolder = (*LayeredGrid)(nil)
)
