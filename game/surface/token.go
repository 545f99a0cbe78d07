package surface

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wricardo/tileview/game/atlas"
	"github.com/wricardo/tileview/game/grid"
)

var (
	ErrInvalidDirection = errors.New("invalid direction")
	ErrNoToken          = errors.New("surface has no token")
)

// Direction is one of the four orthogonal moves.
type Direction int

const (
	Left Direction = iota
	Up
	Right
	Down
)

// Directions lists every direction in key-code order.
var Directions = []Direction{Left, Up, Right, Down}

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Delta returns the column and row offset of one step.
func (d Direction) Delta() (int, int) {
	switch d {
	case Left:
		return -1, 0
	case Up:
		return 0, -1
	case Right:
		return 1, 0
	case Down:
		return 0, 1
	}
	return 0, 0
}

// ParseDirection accepts left, up, right and down in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left, nil
	case "up":
		return Up, nil
	case "right":
		return Right, nil
	case "down":
		return Down, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Wrap selects, per axis, whether moves past an edge wrap to the far edge.
type Wrap struct {
	Horizontal bool `json:"horizontal"`
	Vertical   bool `json:"vertical"`
}

// Step applies delta to pos on an axis of the given size. With wrap the
// result is taken modulo size; otherwise it is clamped to [0, size-1].
func Step(pos, delta, size int, wrap bool) int {
	next := pos + delta
	if wrap {
		return ((next % size) + size) % size
	}
	if next < 0 {
		return 0
	}
	if next > size-1 {
		return size - 1
	}
	return next
}

// Move records one token step.
type Move struct {
	Direction Direction `json:"-"`
	Dir       string    `json:"direction"`
	FromCol   int       `json:"from_col"`
	FromRow   int       `json:"from_row"`
	ToCol     int       `json:"to_col"`
	ToRow     int       `json:"to_row"`
	Wrapped   bool      `json:"wrapped"`
	Blocked   bool      `json:"blocked"`
}

// Token is a single movable marker on a grid surface. A token placed on a
// layered grid lives in one layer of the store; otherwise it is drawn as an
// overlay.
type Token struct {
	bitmap     *atlas.Bitmap
	col, row   int
	cols, rows int
	wrap       Wrap

	store *grid.Store
	layer int
}

func newToken(b *atlas.Bitmap, col, row, cols, rows int, wrap Wrap) (*Token, error) {
	if col < 0 || col >= cols || row < 0 || row >= rows {
		return nil, fmt.Errorf("%w: token start (%d, %d) outside %dx%d grid", grid.ErrOutOfBounds, col, row, cols, rows)
	}
	return &Token{bitmap: b, col: col, row: row, cols: cols, rows: rows, wrap: wrap, layer: -1}, nil
}

// Position returns the current cell.
func (t *Token) Position() (col, row int) { return t.col, t.row }

func (t *Token) Bitmap() *atlas.Bitmap { return t.bitmap }
func (t *Token) Wrap() Wrap            { return t.wrap }

// SetWrap changes the edge policy for later moves.
func (t *Token) SetWrap(w Wrap) { t.wrap = w }

// Layer returns the store layer holding the token, or -1 for an overlay.
func (t *Token) Layer() int { return t.layer }

// Move steps the token one cell. On a layered grid the old slot is cleared
// and the new one written in a single store operation.
func (t *Token) Move(d Direction) (Move, error) {
	dx, dy := d.Delta()
	if dx == 0 && dy == 0 {
		return Move{}, fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
	}

	nextCol := Step(t.col, dx, t.cols, t.wrap.Horizontal)
	nextRow := Step(t.row, dy, t.rows, t.wrap.Vertical)

	rawCol, rawRow := t.col+dx, t.row+dy
	outside := rawCol < 0 || rawCol >= t.cols || rawRow < 0 || rawRow >= t.rows
	wraps := dx != 0 && t.wrap.Horizontal || dy != 0 && t.wrap.Vertical

	m := Move{
		Direction: d,
		Dir:       d.String(),
		FromCol:   t.col,
		FromRow:   t.row,
		ToCol:     nextCol,
		ToRow:     nextRow,
		Wrapped:   outside && wraps,
		Blocked:   outside && !wraps,
	}

	if t.store != nil {
		if err := t.store.Move(t.layer, t.col, t.row, nextCol, nextRow); err != nil {
			return Move{}, err
		}
	}
	t.col, t.row = nextCol, nextRow
	return m, nil
}
