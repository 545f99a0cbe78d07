// Package input turns raw host events into surface operations.
//
// Hosts translate their native events into Event values and hand them to a
// Router. Dispatch applies the event and reports whether the host should
// redraw. The routing rules are:
//
//   - press, click, enter, exit and wheel events only act when the pointer is
//     inside the surface's drawable area;
//   - release always ends a drag, wherever the pointer is;
//   - move pans the viewport while a drag is in progress and is otherwise
//     ignored, so a fast drag that leaves the surface keeps panning;
//   - key events are routed regardless of the pointer position; the four
//     arrow keys move the surface's token when it has one.
//
// A redraw is requested exactly for a move during a drag, a non-zero wheel
// rotation inside the surface, and an arrow key press on a surface with a
// token.
//
// Events have a JSON form used by the network hosts:
//
//	{"type":"press","x":120,"y":80}
//	{"type":"wheel","x":120,"y":80,"rotation":-1}
//	{"type":"key_press","key":"left"}
package input
