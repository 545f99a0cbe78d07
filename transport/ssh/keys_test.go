package ssh

import (
	"reflect"
	"testing"

	"github.com/wricardo/tileview/game/surface"
)

func TestParseKeys(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []Action
	}{
		{"arrow up", "\x1b[A", []Action{{Kind: ActionMove, Direction: surface.Up}}},
		{"application mode arrow", "\x1bOD", []Action{{Kind: ActionMove, Direction: surface.Left}}},
		{"wasd", "wD", []Action{{Kind: ActionMove, Direction: surface.Up}, {Kind: ActionMove, Direction: surface.Right}}},
		{"pan", "hjkl", []Action{
			{Kind: ActionPan, DX: -1},
			{Kind: ActionPan, DY: 1},
			{Kind: ActionPan, DY: -1},
			{Kind: ActionPan, DX: 1},
		}},
		{"zoom", "+-=", []Action{{Kind: ActionZoom, Steps: -1}, {Kind: ActionZoom, Steps: 1}, {Kind: ActionZoom, Steps: -1}}},
		{"reset and help", "r?", []Action{{Kind: ActionReset}, {Kind: ActionHelp}}},
		{"ctrl-c", "\x03", []Action{{Kind: ActionQuit}}},
		{"quit after move", "\x1b[Cq", []Action{{Kind: ActionMove, Direction: surface.Right}, {Kind: ActionQuit}}},
		{"unknown bytes", "xyz\x1b[Z", nil},
		{"truncated escape", "\x1b[", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseKeys([]byte(tt.data))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
