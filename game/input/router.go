package input

import (
	"github.com/sirupsen/logrus"

	"github.com/wricardo/tileview/game/surface"
)

// MoveFunc observes token moves made by a Router.
type MoveFunc func(surface.Move)

// Router applies input events to one surface.
type Router struct {
	surface surface.Surface
	onMove  MoveFunc
	log     logrus.FieldLogger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithMoveHook registers fn to be called after every token move.
func WithMoveHook(fn MoveFunc) RouterOption {
	return func(r *Router) { r.onMove = fn }
}

// WithRouterLogger sets the logger used for debug tracing.
func WithRouterLogger(log logrus.FieldLogger) RouterOption {
	return func(r *Router) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRouter creates a router for s.
func NewRouter(s surface.Surface, opts ...RouterOption) *Router {
	r := &Router{surface: s, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Surface returns the routed surface.
func (r *Router) Surface() surface.Surface { return r.surface }

// Dispatch applies ev and reports whether the surface needs a redraw.
func (r *Router) Dispatch(ev Event) bool {
	vp := r.surface.Viewport()
	redraw := false

	switch ev.Type {
	case PointerPress:
		if r.surface.ContainsPoint(ev.X, ev.Y) {
			vp.Press(ev.X, ev.Y)
		}
	case PointerRelease:
		vp.Release()
	case PointerMove:
		redraw = vp.DragTo(ev.X, ev.Y)
	case Wheel:
		if ev.Rotation != 0 && r.surface.ContainsPoint(ev.X, ev.Y) {
			vp.Zoom(ev.Rotation)
			redraw = true
		}
	case KeyPress:
		redraw = r.moveToken(ev.Key)
	case PointerClick, PointerEnter, PointerExit, KeyRelease, KeyTyped:
	}

	r.log.WithFields(logrus.Fields{
		"event":  ev.String(),
		"redraw": redraw,
	}).Debug("input: dispatched")
	return redraw
}

// DispatchAll applies events in order and returns how many asked for a
// redraw.
func (r *Router) DispatchAll(events []Event) int {
	n := 0
	for _, ev := range events {
		if r.Dispatch(ev) {
			n++
		}
	}
	return n
}

func (r *Router) moveToken(k Key) bool {
	dir, ok := k.Direction()
	if !ok {
		return false
	}
	holder, ok := r.surface.(surface.TokenHolder)
	if !ok || holder.Token() == nil {
		return false
	}
	m, err := holder.Token().Move(dir)
	if err != nil {
		r.log.WithError(err).Warn("input: token move failed")
		return false
	}
	if r.onMove != nil {
		r.onMove(m)
	}
	return true
}
