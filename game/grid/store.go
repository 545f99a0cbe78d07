package grid

import (
	"errors"
	"fmt"

	"github.com/wricardo/tileview/game/atlas"
)

var (
	ErrOutOfBounds       = errors.New("grid index out of bounds")
	ErrInvalidDimensions = errors.New("grid dimensions must be positive")
)

// Store is a layered grid of optional bitmaps.
type Store struct {
	layers int
	cols   int
	rows   int
	cells  []*atlas.Bitmap
}

// New creates an empty store. All dimensions must be positive.
func New(layers, cols, rows int) (*Store, error) {
	if layers <= 0 || cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: %d layers, %d cols, %d rows", ErrInvalidDimensions, layers, cols, rows)
	}
	return &Store{
		layers: layers,
		cols:   cols,
		rows:   rows,
		cells:  make([]*atlas.Bitmap, layers*cols*rows),
	}, nil
}

func (s *Store) Layers() int  { return s.layers }
func (s *Store) Columns() int { return s.cols }
func (s *Store) Rows() int    { return s.rows }

func (s *Store) index(layer, col, row int) (int, error) {
	if layer < 0 || layer >= s.layers || col < 0 || col >= s.cols || row < 0 || row >= s.rows {
		return 0, fmt.Errorf("%w: layer %d, col %d, row %d (size %dx%dx%d)",
			ErrOutOfBounds, layer, col, row, s.layers, s.cols, s.rows)
	}
	return (layer*s.cols+col)*s.rows + row, nil
}

func (s *Store) checkLayer(layer int) error {
	if layer < 0 || layer >= s.layers {
		return fmt.Errorf("%w: layer %d (have %d)", ErrOutOfBounds, layer, s.layers)
	}
	return nil
}

// At returns the bitmap in a slot, or nil when the slot is empty.
func (s *Store) At(layer, col, row int) (*atlas.Bitmap, error) {
	i, err := s.index(layer, col, row)
	if err != nil {
		return nil, err
	}
	return s.cells[i], nil
}

// Write stores b in a slot. Writing nil empties the slot.
func (s *Store) Write(layer, col, row int, b *atlas.Bitmap) error {
	i, err := s.index(layer, col, row)
	if err != nil {
		return err
	}
	s.cells[i] = b
	return nil
}

// Clear empties a slot.
func (s *Store) Clear(layer, col, row int) error {
	return s.Write(layer, col, row, nil)
}

// Fill places b in every slot of every layer.
func (s *Store) Fill(b *atlas.Bitmap) {
	for i := range s.cells {
		s.cells[i] = b
	}
}

// FillLayer places the shared handle b in every slot of one layer.
func (s *Store) FillLayer(layer int, b *atlas.Bitmap) error {
	if err := s.checkLayer(layer); err != nil {
		return err
	}
	start := layer * s.cols * s.rows
	for i := start; i < start+s.cols*s.rows; i++ {
		s.cells[i] = b
	}
	return nil
}

// FillLayerCopies places an independent copy of b in every slot of one layer.
func (s *Store) FillLayerCopies(layer int, b *atlas.Bitmap) error {
	if err := s.checkLayer(layer); err != nil {
		return err
	}
	start := layer * s.cols * s.rows
	for i := start; i < start+s.cols*s.rows; i++ {
		s.cells[i] = atlas.DeepCopy(b)
	}
	return nil
}

// TopmostAt returns the highest occupied slot at (col, row) and its layer.
// It returns nil and -1 when every layer is empty there.
func (s *Store) TopmostAt(col, row int) (*atlas.Bitmap, int, error) {
	if _, err := s.index(0, col, row); err != nil {
		return nil, -1, err
	}
	for layer := s.layers - 1; layer >= 0; layer-- {
		if b := s.cells[(layer*s.cols+col)*s.rows+row]; b != nil {
			return b, layer, nil
		}
	}
	return nil, -1, nil
}

// Move relocates the content of one slot to another slot on the same layer.
// Both positions are validated before anything changes.
func (s *Store) Move(layer, fromCol, fromRow, toCol, toRow int) error {
	from, err := s.index(layer, fromCol, fromRow)
	if err != nil {
		return err
	}
	to, err := s.index(layer, toCol, toRow)
	if err != nil {
		return err
	}
	b := s.cells[from]
	s.cells[from] = nil
	s.cells[to] = b
	return nil
}

// Each calls fn for every occupied slot, layer by layer from the bottom,
// then column by column, then row by row.
func (s *Store) Each(fn func(layer, col, row int, b *atlas.Bitmap)) {
	for layer := 0; layer < s.layers; layer++ {
		for col := 0; col < s.cols; col++ {
			for row := 0; row < s.rows; row++ {
				if b := s.cells[(layer*s.cols+col)*s.rows+row]; b != nil {
					fn(layer, col, row, b)
				}
			}
		}
	}
}

// Count returns the number of occupied slots on a layer.
func (s *Store) Count(layer int) (int, error) {
	if err := s.checkLayer(layer); err != nil {
		return 0, err
	}
	n := 0
	start := layer * s.cols * s.rows
	for _, b := range s.cells[start : start+s.cols*s.rows] {
		if b != nil {
			n++
		}
	}
	return n, nil
}
