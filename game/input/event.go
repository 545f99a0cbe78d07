package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wricardo/tileview/game/surface"
)

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrUnknownKey       = errors.New("unknown key")
)

// Type identifies an event variant.
type Type int

const (
	PointerPress Type = iota + 1
	PointerRelease
	PointerMove
	PointerClick
	PointerEnter
	PointerExit
	Wheel
	KeyPress
	KeyRelease
	KeyTyped
)

var typeNames = map[Type]string{
	PointerPress:   "press",
	PointerRelease: "release",
	PointerMove:    "move",
	PointerClick:   "click",
	PointerEnter:   "enter",
	PointerExit:    "exit",
	Wheel:          "wheel",
	KeyPress:       "key_press",
	KeyRelease:     "key_release",
	KeyTyped:       "key_typed",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// IsPointer reports whether the event carries a pointer position.
func (t Type) IsPointer() bool {
	return t >= PointerPress && t <= Wheel
}

// IsKey reports whether the event is a keyboard event.
func (t Type) IsKey() bool {
	return t >= KeyPress && t <= KeyTyped
}

func (t Type) MarshalText() ([]byte, error) {
	name, ok := typeNames[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEventType, int(t))
	}
	return []byte(name), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseType maps an event type name to its Type.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEventType, s)
}

// Key is a keyboard key code. Arrow keys use the classic virtual key codes.
type Key int

const (
	KeyLeft  Key = 37
	KeyUp    Key = 38
	KeyRight Key = 39
	KeyDown  Key = 40
)

var keyNames = map[Key]string{
	KeyLeft:  "left",
	KeyUp:    "up",
	KeyRight: "right",
	KeyDown:  "down",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return strconv.Itoa(int(k))
}

// Direction returns the token direction bound to k, if any.
func (k Key) Direction() (surface.Direction, bool) {
	switch k {
	case KeyLeft:
		return surface.Left, true
	case KeyUp:
		return surface.Up, true
	case KeyRight:
		return surface.Right, true
	case KeyDown:
		return surface.Down, true
	}
	return 0, false
}

// KeyFor returns the arrow key bound to d.
func KeyFor(d surface.Direction) Key {
	return KeyLeft + Key(d)
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey accepts an arrow key name or a numeric key code.
func ParseKey(s string) (Key, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range keyNames {
		if name == s {
			return k, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return Key(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, s)
}

// Event is one host input event. X and Y are screen coordinates for pointer
// events; Rotation is the signed wheel step count; Key is set for key events.
type Event struct {
	Type     Type `json:"type"`
	X        int  `json:"x,omitempty"`
	Y        int  `json:"y,omitempty"`
	Rotation int  `json:"rotation,omitempty"`
	Key      Key  `json:"key,omitempty"`
}

func (e Event) String() string {
	switch {
	case e.Type == Wheel:
		return fmt.Sprintf("%s(%d,%d,%+d)", e.Type, e.X, e.Y, e.Rotation)
	case e.Type.IsPointer():
		return fmt.Sprintf("%s(%d,%d)", e.Type, e.X, e.Y)
	case e.Type.IsKey():
		return fmt.Sprintf("%s(%s)", e.Type, e.Key)
	}
	return e.Type.String()
}

func Press(x, y int) Event   { return Event{Type: PointerPress, X: x, Y: y} }
func Release(x, y int) Event { return Event{Type: PointerRelease, X: x, Y: y} }
func Move(x, y int) Event    { return Event{Type: PointerMove, X: x, Y: y} }
func Click(x, y int) Event   { return Event{Type: PointerClick, X: x, Y: y} }
func Enter(x, y int) Event   { return Event{Type: PointerEnter, X: x, Y: y} }
func Exit(x, y int) Event    { return Event{Type: PointerExit, X: x, Y: y} }

// Scroll is a wheel event; positive rotation zooms out.
func Scroll(x, y, rotation int) Event {
	return Event{Type: Wheel, X: x, Y: y, Rotation: rotation}
}

func KeyDownEvent(k Key) Event { return Event{Type: KeyPress, Key: k} }
func KeyUpEvent(k Key) Event   { return Event{Type: KeyRelease, Key: k} }
func TypedEvent(k Key) Event   { return Event{Type: KeyTyped, Key: k} }

// Drag returns the press, move and release events that pan by (dx, dy)
// starting from (x, y).
func Drag(x, y, dx, dy int) []Event {
	return []Event{Press(x, y), Move(x+dx, y+dy), Release(x+dx, y+dy)}
}
