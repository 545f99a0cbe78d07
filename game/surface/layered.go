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

// LayeredGrid composites a layered store through a viewport.
type LayeredGrid struct {
	base
	layout gridLayout
	store  *grid.Store
	token  *Token
}

// NewLayeredGrid creates a layered grid surface over vp and store. scaler
// may be nil.
func NewLayeredGrid(vp *viewport.Viewport, store *grid.Store, scaler *Scaler) *LayeredGrid {
	return &LayeredGrid{
		base:   base{vp: vp, scaler: scaler},
		layout: gridLayout{vp: vp, cols: store.Columns(), rows: store.Rows()},
		store:  store,
	}
}

func (g *LayeredGrid) Kind() Kind                        { return KindLayeredGrid }
func (g *LayeredGrid) Store() *grid.Store                { return g.store }
func (g *LayeredGrid) Dimensions() (int, int)            { return g.layout.cols, g.layout.rows }
func (g *LayeredGrid) CellSize() (int, int)              { return g.layout.cellSize() }
func (g *LayeredGrid) Token() *Token                     { return g.token }
func (g *LayeredGrid) CellRect(c, r int) image.Rectangle { return g.layout.cellRect(c, r) }

// CellAt maps a screen point to the cell under it. It reports false for
// points outside the grid, including the slack pixels left by integer cell
// sizes.
func (g *LayeredGrid) CellAt(x, y int) (int, int, bool) { return g.layout.cellAt(x, y) }

// TileAt returns the topmost image displayed at a screen point.
func (g *LayeredGrid) TileAt(x, y int) (*atlas.Bitmap, bool) {
	col, row, ok := g.CellAt(x, y)
	if !ok {
		return nil, false
	}
	b, _, err := g.store.TopmostAt(col, row)
	if err != nil || b == nil {
		return nil, false
	}
	return b, true
}

// AddBackground fills layer 0 with the atlas tile at (col, row). With copies
// every cell receives its own copy of the tile.
func (g *LayeredGrid) AddBackground(a *atlas.Atlas, col, row int, copies bool) error {
	tile, err := a.Tile(col, row)
	if err != nil {
		return fmt.Errorf("background tile: %w", err)
	}
	if copies {
		return g.store.FillLayerCopies(0, tile)
	}
	return g.store.FillLayer(0, tile)
}

// PlaceToken writes b into layer at (col, row) and makes it the surface's
// token, replacing any previous token.
func (g *LayeredGrid) PlaceToken(b *atlas.Bitmap, layer, col, row int, wrap Wrap) (*Token, error) {
	t, err := newToken(b, col, row, g.layout.cols, g.layout.rows, wrap)
	if err != nil {
		return nil, err
	}
	if err := g.store.Write(layer, col, row, b); err != nil {
		return nil, err
	}
	if old := g.token; old != nil && old.layer >= 0 && (old.layer != layer || old.col != col || old.row != row) {
		cur, err := g.store.At(old.layer, old.col, old.row)
		if err != nil {
			return nil, err
		}
		if cur == old.bitmap {
			if err := g.store.Clear(old.layer, old.col, old.row); err != nil {
				return nil, err
			}
		}
	}
	t.store = g.store
	t.layer = layer
	g.token = t
	return t, nil
}

// AddCharacter cuts the atlas tile at (col, row), keys out the given color
// and places the result as the token in the cell (0, 0) of the top layer.
func (g *LayeredGrid) AddCharacter(a *atlas.Atlas, col, row int, key color.Color, wrap Wrap) (*Token, error) {
	tile, err := a.Tile(col, row)
	if err != nil {
		return nil, fmt.Errorf("character tile: %w", err)
	}
	if key != nil {
		atlas.ColorKeyTransparent(tile, key)
	}
	return g.PlaceToken(tile, g.store.Layers()-1, 0, 0, wrap)
}

func (g *LayeredGrid) Render(dst draw.Image) {
	g.store.Each(func(_, col, row int, b *atlas.Bitmap) {
		g.scaler.drawScaled(dst, g.layout.cellRect(col, row), b)
	})
}

// DrawBounds outlines the surface and every cell.
func (g *LayeredGrid) DrawBounds(dst draw.Image, c color.Color) {
	g.base.DrawBounds(dst, c)
	g.layout.drawLines(dst, c)
}
