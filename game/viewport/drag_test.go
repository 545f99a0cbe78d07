package viewport

import "testing"

func TestViewport_DragStateMachine(t *testing.T) {
	v, _ := createTestViewport(t, WithAnchor(0, 0))

	if v.Dragging() {
		t.Fatal("Expected idle viewport")
	}
	if v.DragTo(50, 50) {
		t.Error("Expected DragTo to be ignored while idle")
	}
	if x, y := v.Anchor(); x != 0 || y != 0 {
		t.Errorf("Expected anchor unchanged while idle, got (%d,%d)", x, y)
	}

	v.Press(10, 10)
	if !v.Dragging() {
		t.Fatal("Expected dragging after press")
	}

	steps := []struct {
		x, y       int
		wantAnchor [2]int
	}{
		{15, 13, [2]int{5, 3}},
		{15, 13, [2]int{5, 3}},
		{5, 20, [2]int{-5, 10}},
	}
	for i, s := range steps {
		if !v.DragTo(s.x, s.y) {
			t.Errorf("Step %d: expected DragTo to apply", i)
		}
		if x, y := v.Anchor(); x != s.wantAnchor[0] || y != s.wantAnchor[1] {
			t.Errorf("Step %d: expected anchor %v, got (%d,%d)", i, s.wantAnchor, x, y)
		}
	}

	v.Release()
	if v.Dragging() {
		t.Error("Expected idle after release")
	}
	v.DragTo(100, 100)
	if x, y := v.Anchor(); x != -5 || y != 10 {
		t.Errorf("Expected anchor frozen after release, got (%d,%d)", x, y)
	}
}

func TestViewport_ReleaseWhileIdle(t *testing.T) {
	v, _ := createTestViewport(t)
	v.Release()
	if v.Dragging() {
		t.Error("Expected release on idle viewport to stay idle")
	}
}

func TestViewport_PressRestartsDrag(t *testing.T) {
	v, _ := createTestViewport(t)
	v.Press(0, 0)
	v.DragTo(10, 0)
	v.Press(100, 100)
	v.DragTo(101, 100)
	if x, _ := v.Anchor(); x != 11 {
		t.Errorf("Expected anchor x 11, got %d", x)
	}
}
