// Package viewport maps a surface's logical content onto screen space.
//
// A Viewport has an anchor (the screen position of its top-left corner), a
// fixed logical size and a magnification. The drawable size is the logical
// size scaled by the magnification and truncated to whole pixels. Hit testing
// uses the half-open rectangle [anchor, anchor+drawable).
//
// Panning is a plain anchor shift. Zooming is multiplicative: each wheel step
// multiplies the magnification by 0.9 (positive steps shrink, negative steps
// grow), so opposite steps cancel exactly. The magnification is kept inside
// [MinMagnification, MaxMagnification]; a zoom that would leave that range is
// clamped and logged as a warning.
//
// Dragging is a two-state machine. Press enters the dragging state and
// remembers the pointer; DragTo pans by the pointer delta while dragging and
// does nothing while idle; Release returns to idle from anywhere.
package viewport
