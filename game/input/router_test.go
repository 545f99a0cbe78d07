package input

import (
	"image/color"
	"math"
	"testing"

	"github.com/wricardo/tileview/game/atlas"
	"github.com/wricardo/tileview/game/grid"
	"github.com/wricardo/tileview/game/surface"
	"github.com/wricardo/tileview/game/viewport"
)

// createTestRouter builds a 2-layer, 3x2 grid of 100x100 cells anchored at
// (500,500) with a token at (0,0) on layer 1 and wrapping on both axes.
func createTestRouter(t *testing.T, opts ...RouterOption) (*Router, *surface.LayeredGrid) {
	t.Helper()
	store, err := grid.New(2, 3, 2)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	vp, err := viewport.New(300, 200, viewport.WithAnchor(500, 500))
	if err != nil {
		t.Fatalf("Failed to create viewport: %v", err)
	}
	g := surface.NewLayeredGrid(vp, store, nil)
	store.FillLayer(0, atlas.NewSolidBitmap(100, 100, color.White))
	if _, err := g.PlaceToken(atlas.NewSolidBitmap(100, 100, color.Black), 1, 0, 0,
		surface.Wrap{Horizontal: true, Vertical: true}); err != nil {
		t.Fatalf("Failed to place token: %v", err)
	}
	return NewRouter(g, opts...), g
}

func TestRouter_DragPans(t *testing.T) {
	r, g := createTestRouter(t)
	vp := g.Viewport()

	if r.Dispatch(Press(510, 510)) {
		t.Error("Expected press not to request a redraw")
	}
	if !vp.Dragging() {
		t.Fatal("Expected drag to start inside bounds")
	}
	if !r.Dispatch(Move(530, 505)) {
		t.Error("Expected drag move to request a redraw")
	}
	if x, y := vp.Anchor(); x != 520 || y != 495 {
		t.Errorf("Expected anchor (520,495), got (%d,%d)", x, y)
	}

	if !r.Dispatch(Move(5000, 5000)) {
		t.Error("Expected drag outside bounds to keep panning")
	}
	if r.Dispatch(Release(5000, 5000)) {
		t.Error("Expected release not to request a redraw")
	}
	if vp.Dragging() {
		t.Error("Expected release outside bounds to end the drag")
	}

	x, y := vp.Anchor()
	if r.Dispatch(Move(10, 10)) {
		t.Error("Expected idle move not to request a redraw")
	}
	if nx, ny := vp.Anchor(); nx != x || ny != y {
		t.Error("Expected idle move to leave the anchor unchanged")
	}
}

func TestRouter_PressOutsideIgnored(t *testing.T) {
	r, g := createTestRouter(t)

	r.Dispatch(Press(499, 499))
	if g.Viewport().Dragging() {
		t.Error("Expected press outside bounds to be ignored")
	}
	if r.Dispatch(Move(600, 600)) {
		t.Error("Expected no redraw without a drag")
	}
	if x, y := g.Viewport().Anchor(); x != 500 || y != 500 {
		t.Errorf("Expected anchor unchanged, got (%d,%d)", x, y)
	}
}

func TestRouter_Wheel(t *testing.T) {
	tests := []struct {
		name     string
		ev       Event
		redraw   bool
		wantMag  float64
	}{
		{"zoom out inside", Scroll(550, 550, 1), true, 0.9},
		{"zoom in inside", Scroll(550, 550, -1), true, 1 / 0.9},
		{"outside", Scroll(100, 100, 1), false, 1},
		{"zero rotation", Scroll(550, 550, 0), false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g := createTestRouter(t)
			if got := r.Dispatch(tt.ev); got != tt.redraw {
				t.Errorf("Expected redraw %v, got %v", tt.redraw, got)
			}
			if m := g.Viewport().Magnification(); math.Abs(m-tt.wantMag) > 1e-9 {
				t.Errorf("Expected magnification %v, got %v", tt.wantMag, m)
			}
		})
	}
}

func TestRouter_TokenWrapScenario(t *testing.T) {
	var moves []surface.Move
	r, g := createTestRouter(t, WithMoveHook(func(m surface.Move) { moves = append(moves, m) }))

	for i, want := range []int{1, 2, 0} {
		if !r.Dispatch(KeyDownEvent(KeyRight)) {
			t.Errorf("Press %d: expected redraw", i)
		}
		col, row := g.Token().Position()
		if col != want || row != 0 {
			t.Errorf("Press %d: expected (%d,0), got (%d,%d)", i, want, col, row)
		}
	}

	if len(moves) != 3 {
		t.Fatalf("Expected 3 recorded moves, got %d", len(moves))
	}
	if !moves[2].Wrapped {
		t.Error("Expected the third move to wrap")
	}
}

func TestRouter_ArrowKeys(t *testing.T) {
	tests := []struct {
		key      Key
		col, row int
	}{
		{KeyLeft, 2, 0},
		{KeyUp, 0, 1},
		{KeyRight, 1, 0},
		{KeyDown, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			r, g := createTestRouter(t)
			r.Dispatch(KeyDownEvent(tt.key))
			if col, row := g.Token().Position(); col != tt.col || row != tt.row {
				t.Errorf("Expected (%d,%d), got (%d,%d)", tt.col, tt.row, col, row)
			}
		})
	}
}

func TestRouter_NoRedrawEvents(t *testing.T) {
	events := []Event{
		KeyDownEvent(Key(65)),
		KeyUpEvent(KeyRight),
		TypedEvent(KeyRight),
		Click(550, 550),
		Enter(550, 550),
		Exit(550, 550),
		{Type: Type(99)},
	}

	r, g := createTestRouter(t)
	for _, ev := range events {
		if r.Dispatch(ev) {
			t.Errorf("Expected %s not to request a redraw", ev)
		}
	}
	if col, row := g.Token().Position(); col != 0 || row != 0 {
		t.Errorf("Expected token unmoved, got (%d,%d)", col, row)
	}
}

func TestRouter_KeysIgnorePointer(t *testing.T) {
	r, g := createTestRouter(t)
	r.Dispatch(Exit(0, 0))
	if !r.Dispatch(Event{Type: KeyPress, Key: KeyDown, X: -1000, Y: -1000}) {
		t.Error("Expected key press to route regardless of pointer position")
	}
	if _, row := g.Token().Position(); row != 1 {
		t.Errorf("Expected token on row 1, got %d", row)
	}
}

func TestRouter_SurfaceWithoutToken(t *testing.T) {
	vp, _ := viewport.New(10, 10)
	r := NewRouter(surface.NewFlatColor(vp, color.White))
	if r.Dispatch(KeyDownEvent(KeyLeft)) {
		t.Error("Expected no redraw for arrow key on a surface without a token")
	}
}

func TestRouter_DispatchAll(t *testing.T) {
	r, g := createTestRouter(t)
	events := append(Drag(550, 550, 10, 0), KeyDownEvent(KeyRight), Scroll(0, 0, 1))

	if n := r.DispatchAll(events); n != 2 {
		t.Errorf("Expected 2 redraws, got %d", n)
	}
	if x, _ := g.Viewport().Anchor(); x != 510 {
		t.Errorf("Expected anchor x 510, got %d", x)
	}
	if g.Viewport().Dragging() {
		t.Error("Expected drag to end")
	}
}
