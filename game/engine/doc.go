// Package engine builds and drives interactive tile scenes.
//
// A scene is described by a SceneConfig: which surface variant to use, the
// atlas image and cell size, the grid dimensions, the initial viewport
// placement, the background tile and the token. NewEngine validates the
// configuration, loads its images and assembles the surface, its input router
// and a scaled-tile cache.
//
// Core Types:
//
// The Engine interface defines the operations hosts use, implemented by
// SceneEngine. State is a JSON-friendly snapshot of the viewport and token;
// CellInfo describes the contents of one grid cell.
//
// Usage:
//
//	cfg := engine.DefaultSceneConfig()
//	cfg.Image = "tile.bmp"
//
//	eng, err := engine.NewEngine(cfg, ".")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Close()
//
//	if eng.Dispatch(input.KeyDownEvent(input.KeyRight)) {
//		frame := eng.Frame(800, 600)
//		_ = frame
//	}
//
// Concurrency:
//
// The surface packages are single-threaded. SceneEngine serializes every
// dispatch, reset and render behind one mutex so hosts that read input and
// render on different goroutines never observe a half-applied move.
package engine
