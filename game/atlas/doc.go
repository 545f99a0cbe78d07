// Package atlas slices a single source image into equally sized tiles.
//
// An Atlas holds one decoded source image and a cell size. Tile(col, row)
// returns a freshly allocated Bitmap for the cell at that position, so callers
// may mutate it (for example with ColorKeyTransparent) without touching the
// source or any other tile handed out earlier.
//
// Bitmap is the shared image handle used by the rest of the engine. Grid
// cells hold *Bitmap pointers, and the same handle may sit in many cells at
// once. Clone is the explicit deep copy. Every Bitmap carries an identity and
// a content version, which derived caches (scaled renderings) use as keys.
//
// Supported source formats are PNG, JPEG, GIF and BMP. A source that cannot be
// decoded is a fatal configuration error reported as ErrDecode.
//
// Usage:
//
//	a, err := atlas.Load("tile.bmp", 100, 100)
//	if err != nil {
//		log.Fatal(err)
//	}
//	grass, _ := a.Tile(0, 0)
//	hero, _ := a.Tile(1, 0)
//	atlas.ColorKeyTransparent(hero, color.RGBA{255, 174, 200, 255})
package atlas
