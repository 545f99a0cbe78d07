package viewport

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/sirupsen/logrus"
)

const (
	DefaultMagnification = 1.0
	MinMagnification     = 0.05
	MaxMagnification     = 16.0

	// ZoomFactor is applied once per wheel step.
	ZoomFactor = 0.9
)

var ErrInvalidSize = errors.New("viewport size must be positive")

// Viewport holds the screen placement and scale of one surface.
type Viewport struct {
	anchorX, anchorY int
	width, height    int
	magnification    float64

	dragging     bool
	prevX, prevY int

	log logrus.FieldLogger
}

// Option configures a Viewport at construction.
type Option func(*Viewport)

// WithAnchor sets the initial top-left screen position.
func WithAnchor(x, y int) Option {
	return func(v *Viewport) {
		v.anchorX, v.anchorY = x, y
	}
}

// WithMagnification sets the initial magnification, clamped to the valid range.
func WithMagnification(m float64) Option {
	return func(v *Viewport) {
		v.magnification, _ = clampMagnification(m)
	}
}

// WithLogger routes warnings to log instead of the standard logrus logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(v *Viewport) {
		if log != nil {
			v.log = log
		}
	}
}

// New creates a viewport with the given logical size.
func New(width, height int, opts ...Option) (*Viewport, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	v := &Viewport{
		width:         width,
		height:        height,
		magnification: DefaultMagnification,
		log:           logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Anchor returns the screen position of the top-left corner.
func (v *Viewport) Anchor() (int, int) { return v.anchorX, v.anchorY }

// SetAnchor moves the top-left corner to (x, y).
func (v *Viewport) SetAnchor(x, y int) { v.anchorX, v.anchorY = x, y }

// LogicalSize returns the unscaled content size.
func (v *Viewport) LogicalSize() (int, int) { return v.width, v.height }

func (v *Viewport) Magnification() float64 { return v.magnification }

// SetMagnification replaces the magnification, clamping it to the valid
// range. It reports whether clamping happened.
func (v *Viewport) SetMagnification(m float64) bool {
	var clamped bool
	v.magnification, clamped = clampMagnification(m)
	if clamped {
		v.warnClamp(m)
	}
	return clamped
}

// DrawableSize returns the on-screen size: logical size × magnification,
// truncated toward zero.
func (v *Viewport) DrawableSize() (int, int) {
	return scale(v.width, v.magnification), scale(v.height, v.magnification)
}

func scale(n int, m float64) int {
	f := float64(n) * m
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	if f <= 0 || math.IsNaN(f) {
		return 0
	}
	return int(f)
}

// Bounds returns the drawable rectangle in screen space.
func (v *Viewport) Bounds() image.Rectangle {
	w, h := v.DrawableSize()
	return image.Rect(v.anchorX, v.anchorY, v.anchorX+w, v.anchorY+h)
}

// Contains reports whether (x, y) falls in [anchor, anchor+drawable).
func (v *Viewport) Contains(x, y int) bool {
	w, h := v.DrawableSize()
	if w <= 0 || h <= 0 {
		return false
	}
	if x < v.anchorX || y < v.anchorY {
		return false
	}
	return uint64(x)-uint64(v.anchorX) < uint64(w) && uint64(y)-uint64(v.anchorY) < uint64(h)
}

// Pan shifts the anchor by (dx, dy).
func (v *Viewport) Pan(dx, dy int) {
	v.anchorX += dx
	v.anchorY += dy
}

// Zoom applies steps wheel notches. Positive steps shrink the content.
// The magnification is multiplied by ZoomFactor^steps rather than by
// 1-0.1*steps, so one step out is still ×0.9 but n steps out equal n single
// steps and an opposite event restores the previous value exactly.
// It reports whether the result had to be clamped.
func (v *Viewport) Zoom(steps int) bool {
	if steps == 0 {
		return false
	}
	return v.SetMagnification(v.magnification * math.Pow(ZoomFactor, float64(steps)))
}

// ToLocal converts a screen point into unscaled content coordinates.
func (v *Viewport) ToLocal(x, y int) (float64, float64) {
	return float64(x-v.anchorX) / v.magnification, float64(y-v.anchorY) / v.magnification
}

// ToScreen converts content coordinates into a screen point.
func (v *Viewport) ToScreen(lx, ly float64) (int, int) {
	return v.anchorX + int(math.Floor(lx*v.magnification)), v.anchorY + int(math.Floor(ly*v.magnification))
}

func clampMagnification(m float64) (float64, bool) {
	switch {
	case math.IsNaN(m) || m < MinMagnification:
		return MinMagnification, true
	case m > MaxMagnification:
		return MaxMagnification, true
	}
	return m, false
}

func (v *Viewport) warnClamp(requested float64) {
	v.log.WithFields(logrus.Fields{
		"requested": requested,
		"applied":   v.magnification,
	}).Warn("viewport: magnification clamped")
}
