// Package desktop hosts a scene in a native window.
package desktop

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/tileview/game/engine"
	"github.com/wricardo/tileview/game/input"
)

// keyBindings maps window keys onto scene keys. WASD doubles the arrows.
var keyBindings = map[ebiten.Key]input.Key{
	ebiten.KeyArrowLeft:  input.KeyLeft,
	ebiten.KeyArrowUp:    input.KeyUp,
	ebiten.KeyArrowRight: input.KeyRight,
	ebiten.KeyArrowDown:  input.KeyDown,
	ebiten.KeyA:          input.KeyLeft,
	ebiten.KeyW:          input.KeyUp,
	ebiten.KeyD:          input.KeyRight,
	ebiten.KeyS:          input.KeyDown,
}

// Game adapts a SceneEngine to ebiten's Update/Draw/Layout loop. The frame
// is re-rendered only when an event asks for a redraw or the window size
// changes.
type Game struct {
	engine  *engine.SceneEngine
	tracker input.Tracker
	log     logrus.FieldLogger

	width, height int
	frame         *ebiten.Image
	dirty         bool
	showHUD       bool
	keys          []ebiten.Key
}

// Option configures a Game.
type Option func(*Game)

// WithLogger sets the window logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(g *Game) {
		if log != nil {
			g.log = log
		}
	}
}

// NewGame creates a window host for eng.
func NewGame(eng *engine.SceneEngine, opts ...Option) *Game {
	g := &Game{
		engine:  eng,
		log:     logrus.StandardLogger(),
		dirty:   true,
		showHUD: true,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.width, g.height = eng.FrameSize()
	return g
}

// Run opens the window and blocks until it is closed.
func (g *Game) Run() error {
	ebiten.SetWindowSize(g.width, g.height)
	ebiten.SetWindowTitle(fmt.Sprintf("tileview - %s", g.engine.Config().Name))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func (g *Game) snapshot() input.Snapshot {
	x, y := ebiten.CursorPosition()
	_, wy := ebiten.Wheel()

	s := input.Snapshot{
		X:      x,
		Y:      y,
		Inside: x >= 0 && y >= 0 && x < g.width && y < g.height,
		Down:   ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		WheelY: wy,
	}

	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	for _, k := range g.keys {
		if mapped, ok := keyBindings[k]; ok {
			s.KeysDown = append(s.KeysDown, mapped)
		}
	}
	g.keys = inpututil.AppendJustReleasedKeys(g.keys[:0])
	for _, k := range g.keys {
		if mapped, ok := keyBindings[k]; ok {
			s.KeysUp = append(s.KeysUp, mapped)
		}
	}
	for _, r := range ebiten.AppendInputChars(nil) {
		s.TypedKeys = append(s.TypedKeys, input.Key(r))
	}
	return s
}

// Update polls input and forwards it to the engine.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.showHUD = !g.showHUD
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if _, err := g.engine.Reset(); err != nil {
			g.log.WithError(err).Warn("desktop: reset failed")
		} else {
			g.dirty = true
		}
	}

	events := g.tracker.Next(g.snapshot())
	if len(events) == 0 {
		return nil
	}
	if redraws := g.engine.DispatchAll(events); redraws > 0 {
		g.dirty = true
		g.log.WithFields(logrus.Fields{
			"events":  len(events),
			"redraws": redraws,
		}).Debug("desktop: input dispatched")
	}
	return nil
}

// Draw copies the last rendered frame to the screen, rendering a new one
// first when needed.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.frame == nil || g.dirty {
		g.render()
	}
	screen.DrawImage(g.frame, nil)

	if g.showHUD {
		ebitenutil.DebugPrint(screen, hudText(g.engine.State()))
	}
}

func (g *Game) render() {
	rgba := g.engine.Frame(g.width, g.height)
	if g.frame == nil || g.frame.Bounds() != rgba.Bounds() {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(g.width, g.height)
	}
	g.frame.WritePixels(rgba.Pix)
	g.dirty = false
}

// Layout follows the window size so the scene is drawn 1:1.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := max(outsideWidth, 1), max(outsideHeight, 1)
	if w != g.width || h != g.height {
		g.width, g.height = w, h
		g.dirty = true
	}
	return w, h
}

func hudText(s *engine.State) string {
	text := fmt.Sprintf("%s  zoom %.2f  anchor (%d,%d)", s.ConfigName, s.Magnification, s.Anchor.X, s.Anchor.Y)
	if s.Token != nil {
		text += fmt.Sprintf("\ntoken (%d,%d)  moves %d", s.Token.Col, s.Token.Row, s.TotalMoves)
	}
	return text + "\ndrag: pan  wheel: zoom  arrows/WASD: move  R: reset  F1: hud  Q: quit"
}
