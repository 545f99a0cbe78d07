package atlas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
)

var (
	ErrDecode          = errors.New("cannot decode image")
	ErrOutOfBounds     = errors.New("tile index out of bounds")
	ErrInvalidCellSize = errors.New("cell size must be positive")
	ErrInvalidColor    = errors.New("invalid color")
)

// Atlas is an immutable source image divided into equal cells.
type Atlas struct {
	src        *Bitmap
	cellWidth  int
	cellHeight int
}

// New builds an atlas over img with the given cell size.
func New(img image.Image, cellWidth, cellHeight int) (*Atlas, error) {
	if cellWidth <= 0 || cellHeight <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidCellSize, cellWidth, cellHeight)
	}
	return &Atlas{
		src:        NewBitmap(img),
		cellWidth:  cellWidth,
		cellHeight: cellHeight,
	}, nil
}

// Decode reads an encoded image from r and builds an atlas over it.
func Decode(r io.Reader, cellWidth, cellHeight int) (*Atlas, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return New(img, cellWidth, cellHeight)
}

// Load decodes the image file at path and builds an atlas over it.
func Load(path string, cellWidth, cellHeight int) (*Atlas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	defer f.Close()

	a, err := Decode(f, cellWidth, cellHeight)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// LoadBitmap decodes a whole image file into a Bitmap.
func LoadBitmap(path string) (*Bitmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return NewBitmap(img), nil
}

// CellSize returns the width and height of one cell.
func (a *Atlas) CellSize() (int, int) { return a.cellWidth, a.cellHeight }

// Columns is the number of whole cells across the source.
func (a *Atlas) Columns() int { return a.src.Width() / a.cellWidth }

// Rows is the number of whole cells down the source.
func (a *Atlas) Rows() int { return a.src.Height() / a.cellHeight }

// Source returns the whole source bitmap. It must not be mutated.
func (a *Atlas) Source() *Bitmap { return a.src }

// Tile returns a new bitmap holding a copy of the cell at (col, row).
func (a *Atlas) Tile(col, row int) (*Bitmap, error) {
	if col < 0 || row < 0 || col >= a.Columns() || row >= a.Rows() {
		return nil, fmt.Errorf("%w: (%d, %d) outside %dx%d atlas", ErrOutOfBounds, col, row, a.Columns(), a.Rows())
	}
	x, y := col*a.cellWidth, row*a.cellHeight
	sub := a.src.img.SubImage(image.Rect(x, y, x+a.cellWidth, y+a.cellHeight))
	return NewBitmap(sub), nil
}

// ParseColor parses "#rrggbb", "#rrggbbaa" or "r,g,b" into an opaque or
// explicit-alpha color.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 && len(parts) != 4 {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		vals := [4]uint8{0, 0, 0, 255}
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 || n > 255 {
				return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
			}
			vals[i] = uint8(n)
		}
		return color.NRGBA{R: vals[0], G: vals[1], B: vals[2], A: vals[3]}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
