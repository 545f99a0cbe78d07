// Package surface renders tiles through a viewport.
//
// A Surface is one of a closed set of variants:
//
//   - FlatColor fills its drawable rectangle with a single color.
//   - StaticImage draws one image scaled to its drawable rectangle.
//   - RepeatingGrid repeats one tile across a cols × rows grid and may carry
//     an overlay token.
//   - LayeredGrid composites a grid.Store bottom layer first and may carry a
//     token that lives on one of the store's layers.
//
// Every variant owns its viewport exclusively and shares the same capability
// set: Render into a draw.Image, DrawBounds, and ContainsPoint for hit
// testing. Grid variants also map screen points back to cells with CellAt.
//
// Grid cells are laid out with integer division: a cell is drawable width /
// columns wide and drawable height / rows high, and cell (c, r) starts at
// anchor + (c*cellWidth, r*cellHeight). Tiles are scaled to the cell size with
// smooth interpolation; a Scaler caches the scaled images keyed by bitmap
// identity, content version and target size.
//
// Token movement lives here too. A Token steps one cell per directional
// command, wrapping or clamping independently on each axis.
package surface
