package input

// Snapshot is the input state a polling host samples once per tick.
type Snapshot struct {
	X, Y      int
	Inside    bool // cursor over the window
	Down      bool // primary button held
	WheelY    float64
	KeysDown  []Key // keys that went down this tick
	KeysUp    []Key // keys that went up this tick
	TypedKeys []Key
}

// Tracker turns successive snapshots into events. The zero value is ready
// to use.
type Tracker struct {
	started bool
	prev    Snapshot
	wheel   float64
}

// Next returns the events implied by the change from the previous snapshot.
// Wheel deltas accumulate until they amount to whole steps; a wheel up (a
// positive delta on most platforms) yields negative rotation, zooming in.
func (t *Tracker) Next(s Snapshot) []Event {
	var events []Event

	if !t.started {
		t.started = true
		if s.Inside {
			events = append(events, Enter(s.X, s.Y))
		}
	} else {
		switch {
		case s.Inside && !t.prev.Inside:
			events = append(events, Enter(s.X, s.Y))
		case !s.Inside && t.prev.Inside:
			events = append(events, Exit(s.X, s.Y))
		}
		if s.X != t.prev.X || s.Y != t.prev.Y {
			events = append(events, Move(s.X, s.Y))
		}
	}

	switch {
	case s.Down && !t.prev.Down:
		events = append(events, Press(s.X, s.Y))
	case !s.Down && t.prev.Down:
		events = append(events, Release(s.X, s.Y))
	}

	t.wheel += s.WheelY
	if steps := int(t.wheel); steps != 0 {
		t.wheel -= float64(steps)
		events = append(events, Scroll(s.X, s.Y, -steps))
	}

	for _, k := range s.KeysDown {
		events = append(events, KeyDownEvent(k))
	}
	for _, k := range s.TypedKeys {
		events = append(events, TypedEvent(k))
	}
	for _, k := range s.KeysUp {
		events = append(events, KeyUpEvent(k))
	}

	t.prev = s
	return events
}
