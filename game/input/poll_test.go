package input

import "testing"

func TestTracker_Next(t *testing.T) {
	var tr Tracker

	steps := []struct {
		name string
		snap Snapshot
		want []Event
	}{
		{
			name: "first snapshot inside enters",
			snap: Snapshot{X: 10, Y: 10, Inside: true},
			want: []Event{Enter(10, 10)},
		},
		{
			name: "idle",
			snap: Snapshot{X: 10, Y: 10, Inside: true},
			want: nil,
		},
		{
			name: "press",
			snap: Snapshot{X: 10, Y: 10, Inside: true, Down: true},
			want: []Event{Press(10, 10)},
		},
		{
			name: "drag",
			snap: Snapshot{X: 30, Y: 15, Inside: true, Down: true},
			want: []Event{Move(30, 15)},
		},
		{
			name: "release outside",
			snap: Snapshot{X: -5, Y: 15, Inside: false},
			want: []Event{Exit(-5, 15), Move(-5, 15), Release(-5, 15)},
		},
		{
			name: "partial wheel",
			snap: Snapshot{X: -5, Y: 15, WheelY: 0.5},
			want: nil,
		},
		{
			name: "wheel completes a step",
			snap: Snapshot{X: -5, Y: 15, WheelY: 0.75},
			want: []Event{Scroll(-5, 15, -1)},
		},
		{
			name: "keys",
			snap: Snapshot{X: -5, Y: 15, KeysDown: []Key{KeyRight}, TypedKeys: []Key{Key('d')}, KeysUp: []Key{KeyLeft}},
			want: []Event{KeyDownEvent(KeyRight), TypedEvent(Key('d')), KeyUpEvent(KeyLeft)},
		},
		{
			name: "wheel down zooms out",
			snap: Snapshot{X: 0, Y: 0, Inside: true, WheelY: -2.25},
			want: []Event{Enter(0, 0), Move(0, 0), Scroll(0, 0, 2)},
		},
	}

	for _, step := range steps {
		got := tr.Next(step.snap)
		if len(got) != len(step.want) {
			t.Fatalf("%s: expected %v, got %v", step.name, step.want, got)
		}
		for i := range got {
			if got[i] != step.want[i] {
				t.Errorf("%s: event %d expected %v, got %v", step.name, i, step.want[i], got[i])
			}
		}
	}
}

func TestTracker_FirstSnapshotOutside(t *testing.T) {
	var tr Tracker
	if got := tr.Next(Snapshot{X: -1, Y: -1}); len(got) != 0 {
		t.Errorf("Expected no events, got %v", got)
	}
}
