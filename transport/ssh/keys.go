package ssh

import "github.com/wricardo/tileview/game/surface"

// ActionKind is what a key press asks the terminal host to do.
type ActionKind int

const (
	ActionMove ActionKind = iota + 1
	ActionPan
	ActionZoom
	ActionReset
	ActionHelp
	ActionQuit
)

// Action is one decoded key press.
type Action struct {
	Kind      ActionKind
	Direction surface.Direction // ActionMove
	DX, DY    int               // ActionPan, in pan steps
	Steps     int               // ActionZoom, wheel rotation
}

// ParseKeys decodes a chunk of terminal input. Arrow keys and WASD move the
// token, HJKL pan, + and - zoom, r resets, ? toggles help, q and Ctrl-C
// quit. Unknown bytes are ignored; an escape sequence cut off at the end of
// the chunk is dropped.
func ParseKeys(data []byte) []Action {
	var actions []Action
	for i := 0; i < len(data); i++ {
		c := data[i]

		if c == 0x1b && i+2 < len(data) && (data[i+1] == '[' || data[i+1] == 'O') {
			if dir, ok := arrowDirection(data[i+2]); ok {
				actions = append(actions, Action{Kind: ActionMove, Direction: dir})
			}
			i += 2
			continue
		}

		switch c {
		case 'w', 'W':
			actions = append(actions, Action{Kind: ActionMove, Direction: surface.Up})
		case 'a', 'A':
			actions = append(actions, Action{Kind: ActionMove, Direction: surface.Left})
		case 's', 'S':
			actions = append(actions, Action{Kind: ActionMove, Direction: surface.Down})
		case 'd', 'D':
			actions = append(actions, Action{Kind: ActionMove, Direction: surface.Right})
		case 'h', 'H':
			actions = append(actions, Action{Kind: ActionPan, DX: -1})
		case 'l', 'L':
			actions = append(actions, Action{Kind: ActionPan, DX: 1})
		case 'k', 'K':
			actions = append(actions, Action{Kind: ActionPan, DY: -1})
		case 'j', 'J':
			actions = append(actions, Action{Kind: ActionPan, DY: 1})
		case '+', '=':
			actions = append(actions, Action{Kind: ActionZoom, Steps: -1})
		case '-', '_':
			actions = append(actions, Action{Kind: ActionZoom, Steps: 1})
		case 'r', 'R':
			actions = append(actions, Action{Kind: ActionReset})
		case '?':
			actions = append(actions, Action{Kind: ActionHelp})
		case 'q', 'Q', 0x03, 0x04:
			actions = append(actions, Action{Kind: ActionQuit})
		}
	}
	return actions
}

func arrowDirection(c byte) (surface.Direction, bool) {
	switch c {
	case 'A':
		return surface.Up, true
	case 'B':
		return surface.Down, true
	case 'C':
		return surface.Right, true
	case 'D':
		return surface.Left, true
	}
	return 0, false
}
