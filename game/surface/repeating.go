package surface

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/wricardo/tileview/game/atlas"
	"github.com/wricardo/tileview/game/grid"
	"github.com/wricardo/tileview/game/viewport"
)

// RepeatingGrid draws the same tile in every cell of a cols × rows grid,
// with an optional token drawn on top.
type RepeatingGrid struct {
	base
	layout gridLayout
	tile   *atlas.Bitmap
	token  *Token
}

// NewRepeatingGrid creates a repeating grid over vp. scaler may be nil.
func NewRepeatingGrid(vp *viewport.Viewport, tile *atlas.Bitmap, cols, rows int, scaler *Scaler) (*RepeatingGrid, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: %d cols, %d rows", grid.ErrInvalidDimensions, cols, rows)
	}
	return &RepeatingGrid{
		base:   base{vp: vp, scaler: scaler},
		layout: gridLayout{vp: vp, cols: cols, rows: rows},
		tile:   tile,
	}, nil
}

func (g *RepeatingGrid) Kind() Kind                        { return KindRepeatingGrid }
func (g *RepeatingGrid) Tile() *atlas.Bitmap               { return g.tile }
func (g *RepeatingGrid) Dimensions() (int, int)            { return g.layout.cols, g.layout.rows }
func (g *RepeatingGrid) CellSize() (int, int)              { return g.layout.cellSize() }
func (g *RepeatingGrid) Token() *Token                     { return g.token }
func (g *RepeatingGrid) CellRect(c, r int) image.Rectangle { return g.layout.cellRect(c, r) }

// CellAt maps a screen point to the cell under it.
func (g *RepeatingGrid) CellAt(x, y int) (int, int, bool) { return g.layout.cellAt(x, y) }

// PlaceToken puts an overlay token at (col, row), replacing any previous one.
func (g *RepeatingGrid) PlaceToken(b *atlas.Bitmap, col, row int, wrap Wrap) (*Token, error) {
	t, err := newToken(b, col, row, g.layout.cols, g.layout.rows, wrap)
	if err != nil {
		return nil, err
	}
	g.token = t
	return t, nil
}

func (g *RepeatingGrid) Render(dst draw.Image) {
	cols, rows := g.Dimensions()
	for col := 0; col < cols; col++ {
		for row := 0; row < rows; row++ {
			g.scaler.drawScaled(dst, g.layout.cellRect(col, row), g.tile)
		}
	}
	if g.token != nil {
		g.scaler.drawScaled(dst, g.layout.cellRect(g.token.col, g.token.row), g.token.bitmap)
	}
}

// DrawBounds outlines the surface and every cell.
func (g *RepeatingGrid) DrawBounds(dst draw.Image, c color.Color) {
	g.base.DrawBounds(dst, c)
	g.layout.drawLines(dst, c)
}
