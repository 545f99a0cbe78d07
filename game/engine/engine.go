package engine

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"

	"github.com/wricardo/tileview/game/atlas"
	"github.com/wricardo/tileview/game/grid"
	"github.com/wricardo/tileview/game/input"
	"github.com/wricardo/tileview/game/surface"
	"github.com/wricardo/tileview/game/viewport"
)

var ErrNotGrid = errors.New("scene is not a grid")

// Engine provides the main interface for scene operations
type Engine interface {
	// Input
	Dispatch(ev input.Event) bool
	DispatchAll(events []input.Event) int
	MoveToken(dir surface.Direction) (*MoveEntry, error)

	// Rendering
	Frame(width, height int) *image.RGBA
	RenderTo(dst draw.Image)
	FrameSize() (int, int)

	// Inspection
	State() *State
	CellAt(x, y int) (col, row int, ok bool)
	Describe(col, row int) (*CellInfo, error)
	HitTest(x, y int) *HitResult
	History() []MoveEntry

	// Lifecycle
	Config() *SceneConfig
	Reset() (*State, error)
	Close()
}

// SceneEngine implements the Engine interface
type SceneEngine struct {
	mu sync.Mutex

	config  *SceneConfig
	baseDir string
	log     logrus.FieldLogger
	scaler  *surface.Scaler

	surface surface.Surface
	router  *input.Router

	history    []MoveEntry
	totalMoves int
	events     int
	redraws    int

	background color.Color
	outline    color.Color
}

// Option configures a SceneEngine.
type Option func(*engineOptions)

type engineOptions struct {
	log       logrus.FieldLogger
	cacheCost int64
	interp    xdraw.Interpolator
	noCache   bool
}

// WithLogger sets the logger for the engine and its viewport.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *engineOptions) { o.log = log }
}

// WithCacheCost bounds the scaled-tile cache in bytes.
func WithCacheCost(cost int64) Option {
	return func(o *engineOptions) { o.cacheCost = cost }
}

// WithInterpolator selects the scaling kernel.
func WithInterpolator(interp xdraw.Interpolator) Option {
	return func(o *engineOptions) { o.interp = interp }
}

// WithoutCache disables the scaled-tile cache.
func WithoutCache() Option {
	return func(o *engineOptions) { o.noCache = true }
}

// NewEngine validates config and builds its scene. Relative image paths are
// resolved against baseDir.
func NewEngine(config *SceneConfig, baseDir string, opts ...Option) (*SceneEngine, error) {
	if err := ValidateSceneConfig(config); err != nil {
		return nil, err
	}

	o := engineOptions{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logrus.StandardLogger()
	}

	e := &SceneEngine{
		config:     config,
		baseDir:    baseDir,
		log:        o.log.WithField("scene", config.Name),
		background: parseColorOr(config.Frame.Background, color.Black),
		outline:    parseColorOr(config.Frame.Outline, nil),
	}

	if !o.noCache {
		scaler, err := surface.NewScaler(o.cacheCost, o.interp)
		if err != nil {
			return nil, err
		}
		e.scaler = scaler
	}

	if err := e.build(); err != nil {
		e.scaler.Close()
		return nil, err
	}
	return e, nil
}

func parseColorOr(s string, fallback color.Color) color.Color {
	if s == "" {
		return fallback
	}
	c, err := atlas.ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

// build assembles the surface and router from the config.
func (e *SceneEngine) build() error {
	cfg := e.config
	w, h := cfg.LogicalSize()

	vpOpts := []viewport.Option{
		viewport.WithAnchor(cfg.Anchor.X, cfg.Anchor.Y),
		viewport.WithLogger(e.log),
	}
	if cfg.Magnification != 0 {
		vpOpts = append(vpOpts, viewport.WithMagnification(cfg.Magnification))
	}
	vp, err := viewport.New(w, h, vpOpts...)
	if err != nil {
		return err
	}

	var s surface.Surface
	switch cfg.SurfaceKind() {
	case surface.KindFlatColor:
		c, err := atlas.ParseColor(cfg.Color)
		if err != nil {
			return err
		}
		s = surface.NewFlatColor(vp, c)

	case surface.KindStaticImage:
		b, err := atlas.LoadBitmap(ResolvePath(e.baseDir, cfg.Image))
		if err != nil {
			return err
		}
		s = surface.NewStaticImage(vp, b, e.scaler)

	case surface.KindRepeatingGrid:
		s, err = e.buildRepeating(vp)
		if err != nil {
			return err
		}

	default:
		s, err = e.buildLayered(vp)
		if err != nil {
			return err
		}
	}

	e.surface = s
	e.router = input.NewRouter(s,
		input.WithMoveHook(e.recordMove),
		input.WithRouterLogger(e.log),
	)

	e.log.WithFields(logrus.Fields{
		"kind":   s.Kind(),
		"width":  w,
		"height": h,
	}).Info("engine: scene built")
	return nil
}

func (e *SceneEngine) loadAtlas() (*atlas.Atlas, error) {
	return atlas.Load(ResolvePath(e.baseDir, e.config.Image), e.config.CellWidth, e.config.CellHeight)
}

func (e *SceneEngine) buildLayered(vp *viewport.Viewport) (*surface.LayeredGrid, error) {
	cfg := e.config
	a, err := e.loadAtlas()
	if err != nil {
		return nil, err
	}
	store, err := grid.New(cfg.Layers, cfg.Columns, cfg.Rows)
	if err != nil {
		return nil, err
	}
	g := surface.NewLayeredGrid(vp, store, e.scaler)

	if bg := cfg.Background; bg != nil {
		if err := g.AddBackground(a, bg.Col, bg.Row, bg.Copies); err != nil {
			return nil, err
		}
	}

	tok := cfg.Token
	if tok == nil {
		return g, nil
	}
	wrap := surface.Wrap{Horizontal: tok.WrapHorizontal, Vertical: tok.WrapVertical}

	if tok.Image == "" && tok.Layer == nil && tok.StartCol == 0 && tok.StartRow == 0 {
		if _, err := g.AddCharacter(a, tok.Col, tok.Row, colorKey(tok), wrap); err != nil {
			return nil, err
		}
		return g, nil
	}

	b, err := e.tokenBitmap(a)
	if err != nil {
		return nil, err
	}
	if _, err := g.PlaceToken(b, cfg.TokenLayer(), tok.StartCol, tok.StartRow, wrap); err != nil {
		return nil, err
	}
	return g, nil
}

func (e *SceneEngine) buildRepeating(vp *viewport.Viewport) (*surface.RepeatingGrid, error) {
	cfg := e.config
	a, err := e.loadAtlas()
	if err != nil {
		return nil, err
	}
	tile, err := a.Tile(cfg.Background.Col, cfg.Background.Row)
	if err != nil {
		return nil, fmt.Errorf("background tile: %w", err)
	}
	g, err := surface.NewRepeatingGrid(vp, tile, cfg.Columns, cfg.Rows, e.scaler)
	if err != nil {
		return nil, err
	}

	if tok := cfg.Token; tok != nil {
		b, err := e.tokenBitmap(a)
		if err != nil {
			return nil, err
		}
		wrap := surface.Wrap{Horizontal: tok.WrapHorizontal, Vertical: tok.WrapVertical}
		if _, err := g.PlaceToken(b, tok.StartCol, tok.StartRow, wrap); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// tokenBitmap loads the token image from its own file or the atlas and
// applies the color key.
func (e *SceneEngine) tokenBitmap(a *atlas.Atlas) (*atlas.Bitmap, error) {
	tok := e.config.Token
	var (
		b   *atlas.Bitmap
		err error
	)
	if tok.Image != "" {
		b, err = atlas.LoadBitmap(ResolvePath(e.baseDir, tok.Image))
	} else {
		b, err = a.Tile(tok.Col, tok.Row)
	}
	if err != nil {
		return nil, fmt.Errorf("token image: %w", err)
	}
	if key := colorKey(tok); key != nil {
		atlas.ColorKeyTransparent(b, key)
	}
	return b, nil
}

func colorKey(tok *TokenConfig) color.Color {
	if tok.ColorKey == "" {
		return nil
	}
	c, err := atlas.ParseColor(tok.ColorKey)
	if err != nil {
		return nil
	}
	return c
}

// recordMove is called by the router with e.mu held.
func (e *SceneEngine) recordMove(m surface.Move) {
	e.totalMoves++
	e.history = append(e.history, MoveEntry{
		Move:       m,
		MoveNumber: e.totalMoves,
		Timestamp:  time.Now(),
	})
	if len(e.history) > MaxHistory {
		e.history = e.history[len(e.history)-MaxHistory:]
	}
	e.log.WithFields(logrus.Fields{
		"direction": m.Dir,
		"from":      fmt.Sprintf("%d,%d", m.FromCol, m.FromRow),
		"to":        fmt.Sprintf("%d,%d", m.ToCol, m.ToRow),
		"wrapped":   m.Wrapped,
	}).Debug("engine: token moved")
}

// Dispatch routes one input event and reports whether a redraw is needed.
func (e *SceneEngine) Dispatch(ev input.Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dispatchLocked(ev)
}

func (e *SceneEngine) dispatchLocked(ev input.Event) bool {
	e.events++
	redraw := e.router.Dispatch(ev)
	if redraw {
		e.redraws++
	}
	return redraw
}

// DispatchAll routes events in order as one atomic batch and returns how
// many requested a redraw.
func (e *SceneEngine) DispatchAll(events []input.Event) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, ev := range events {
		if e.dispatchLocked(ev) {
			n++
		}
	}
	return n
}

// MoveToken moves the token one step as if the matching arrow key was
// pressed.
func (e *SceneEngine) MoveToken(dir surface.Direction) (*MoveEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	holder, ok := e.surface.(surface.TokenHolder)
	if !ok || holder.Token() == nil {
		return nil, surface.ErrNoToken
	}
	if _, ok := input.KeyFor(dir).Direction(); !ok {
		return nil, fmt.Errorf("%w: %d", surface.ErrInvalidDirection, int(dir))
	}

	before := e.totalMoves
	e.dispatchLocked(input.KeyDownEvent(input.KeyFor(dir)))
	if e.totalMoves == before {
		return nil, fmt.Errorf("token did not move %s", dir)
	}
	last := e.history[len(e.history)-1]
	return &last, nil
}

// Frame renders the scene into a new width × height frame.
func (e *SceneEngine) Frame(width, height int) *image.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	return surface.RenderFrame(e.surface, width, height, e.background, e.outline)
}

// RenderTo draws the scene onto dst without clearing it.
func (e *SceneEngine) RenderTo(dst draw.Image) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface.Render(dst)
	if e.outline != nil {
		e.surface.DrawBounds(dst, e.outline)
	}
}

// FrameSize returns the configured frame size, or one that fits the scene
// at its initial placement with an equal margin on every side.
func (e *SceneEngine) FrameSize() (int, int) {
	cfg := e.config
	w, h := cfg.Frame.Width, cfg.Frame.Height
	lw, lh := cfg.LogicalSize()
	if w == 0 {
		w = lw + 2*max(cfg.Anchor.X, 0)
	}
	if h == 0 {
		h = lh + 2*max(cfg.Anchor.Y, 0)
	}
	return min(max(w, 1), MaxFrameSize), min(max(h, 1), MaxFrameSize)
}

// Config returns the scene configuration.
func (e *SceneEngine) Config() *SceneConfig {
	return e.config
}

// Surface returns the live surface. Callers must not use it concurrently
// with the engine.
func (e *SceneEngine) Surface() surface.Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface
}

// State returns a snapshot of the scene.
func (e *SceneEngine) State() *State {
	e.mu.Lock()
	defer e.mu.Unlock()

	vp := e.surface.Viewport()
	ax, ay := vp.Anchor()
	w, h := vp.LogicalSize()
	dw, dh := vp.DrawableSize()

	st := &State{
		ConfigName:     e.config.Name,
		Kind:           string(e.surface.Kind()),
		Anchor:         Point{X: ax, Y: ay},
		Width:          w,
		Height:         h,
		Magnification:  vp.Magnification(),
		DrawableWidth:  dw,
		DrawableHeight: dh,
		Dragging:       vp.Dragging(),
		Events:         e.events,
		Redraws:        e.redraws,
		TotalMoves:     e.totalMoves,
	}

	if g, ok := e.surface.(surface.Grid); ok {
		st.Columns, st.Rows = g.Dimensions()
		st.CellWidth, st.CellHeight = g.CellSize()
		st.Layers = 1
	}
	if g, ok := e.surface.(*surface.LayeredGrid); ok {
		st.Layers = g.Store().Layers()
	}
	if holder, ok := e.surface.(surface.TokenHolder); ok && holder.Token() != nil {
		tok := holder.Token()
		col, row := tok.Position()
		st.Token = &TokenState{
			Col:            col,
			Row:            row,
			Layer:          tok.Layer(),
			WrapHorizontal: tok.Wrap().Horizontal,
			WrapVertical:   tok.Wrap().Vertical,
		}
	}
	if len(e.history) > 0 {
		last := e.history[len(e.history)-1]
		st.LastMove = &last
	}
	return st
}

// CellAt maps a screen point to a grid cell.
func (e *SceneEngine) CellAt(x, y int) (int, int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.surface.(surface.Grid)
	if !ok {
		return 0, 0, false
	}
	return g.CellAt(x, y)
}

// Describe reports what occupies the cell at (col, row).
func (e *SceneEngine) Describe(col, row int) (*CellInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.describeLocked(col, row)
}

func (e *SceneEngine) describeLocked(col, row int) (*CellInfo, error) {
	g, ok := e.surface.(surface.Grid)
	if !ok {
		return nil, ErrNotGrid
	}
	cols, rows := g.Dimensions()
	if col < 0 || col >= cols || row < 0 || row >= rows {
		return nil, fmt.Errorf("%w: cell (%d, %d) outside %dx%d grid", grid.ErrOutOfBounds, col, row, cols, rows)
	}

	r := g.CellRect(col, row)
	info := &CellInfo{
		Col:          col,
		Row:          row,
		Screen:       Point{X: r.Min.X, Y: r.Min.Y},
		Size:         Point{X: r.Dx(), Y: r.Dy()},
		TopmostLayer: -1,
	}

	var tok *surface.Token
	if holder, ok := e.surface.(surface.TokenHolder); ok {
		tok = holder.Token()
	}
	if tok != nil {
		tc, tr := tok.Position()
		info.HasToken = tc == col && tr == row
	}

	switch s := e.surface.(type) {
	case *surface.LayeredGrid:
		store := s.Store()
		for layer := 0; layer < store.Layers(); layer++ {
			b, err := store.At(layer, col, row)
			if err != nil {
				return nil, err
			}
			li := LayerInfo{Layer: layer, Occupied: b != nil}
			if b != nil {
				li.BitmapID = b.ID()
				li.IsToken = tok != nil && b == tok.Bitmap()
			}
			info.Layers = append(info.Layers, li)
		}
		_, info.TopmostLayer, _ = store.TopmostAt(col, row)
	case *surface.RepeatingGrid:
		li := LayerInfo{Layer: 0, Occupied: s.Tile() != nil}
		if s.Tile() != nil {
			li.BitmapID = s.Tile().ID()
			info.TopmostLayer = 0
		}
		info.Layers = append(info.Layers, li)
	}
	return info, nil
}

// HitTest reports what lies under a screen point.
func (e *SceneEngine) HitTest(x, y int) *HitResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	lx, ly := e.surface.Viewport().ToLocal(x, y)
	res := &HitResult{
		X:      x,
		Y:      y,
		Inside: e.surface.ContainsPoint(x, y),
		LocalX: lx,
		LocalY: ly,
	}
	if g, ok := e.surface.(surface.Grid); ok {
		if col, row, ok := g.CellAt(x, y); ok {
			res.OnCell = true
			res.Cell, _ = e.describeLocked(col, row)
		}
	}
	return res
}

// History returns a copy of the recorded token moves.
func (e *SceneEngine) History() []MoveEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]MoveEntry, len(e.history))
	copy(out, e.history)
	return out
}

// Reset rebuilds the scene from its configuration. Move history and totals
// are preserved across resets.
func (e *SceneEngine) Reset() (*State, error) {
	e.mu.Lock()
	prevSurface, prevRouter := e.surface, e.router
	if err := e.build(); err != nil {
		e.surface, e.router = prevSurface, prevRouter
		e.mu.Unlock()
		return nil, fmt.Errorf("failed to reset scene: %w", err)
	}
	e.mu.Unlock()
	return e.State(), nil
}

// Close releases the scaled-tile cache.
func (e *SceneEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scaler.Close()
}

var _ Engine = (*SceneEngine)(nil)
