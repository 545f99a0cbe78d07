package viewport

// Dragging reports whether a drag is in progress.
func (v *Viewport) Dragging() bool { return v.dragging }

// Press starts a drag at (x, y). Callers decide whether the press hit the
// viewport; Press itself does not hit-test.
func (v *Viewport) Press(x, y int) {
	v.dragging = true
	v.prevX, v.prevY = x, y
}

// DragTo pans by the distance from the previous pointer position to (x, y).
// It does nothing while idle and reports whether a drag was in progress.
func (v *Viewport) DragTo(x, y int) bool {
	if !v.dragging {
		return false
	}
	v.Pan(x-v.prevX, y-v.prevY)
	v.prevX, v.prevY = x, y
	return true
}

// Release ends any drag in progress.
func (v *Viewport) Release() {
	v.dragging = false
}
