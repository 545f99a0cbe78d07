package engine

import (
	"time"

	"github.com/wricardo/tileview/game/surface"
)

const (
	// Validation limits
	MinGridSize   = 1
	MaxGridSize   = 256
	MaxLayers     = 16
	MaxCellSize   = 4096
	MaxFrameSize  = 8192
	MaxHistory    = 1000
	MaxBulkEvents = 500

	// Defaults matching the classic demo scene
	DefaultLayers     = 2
	DefaultRows       = 2
	DefaultColumns    = 3
	DefaultCellSize   = 100
	DefaultAnchor     = 500
	DefaultColorKey   = "#ffaec8"
	DefaultFrameColor = "#000000"
)

// Point is a screen position.
type Point struct {
	X int `json:"x" mapstructure:"x"`
	Y int `json:"y" mapstructure:"y"`
}

// BackgroundConfig selects the atlas tile filling layer 0.
type BackgroundConfig struct {
	Col    int  `json:"col" mapstructure:"col"`
	Row    int  `json:"row" mapstructure:"row"`
	Copies bool `json:"copies,omitempty" mapstructure:"copies"`
}

// TokenConfig selects the token image and its movement rules. The image is
// either the atlas tile at (Col, Row) or, when Image is set, a whole file.
type TokenConfig struct {
	Col            int    `json:"col" mapstructure:"col"`
	Row            int    `json:"row" mapstructure:"row"`
	Image          string `json:"image,omitempty" mapstructure:"image"`
	Layer          *int   `json:"layer,omitempty" mapstructure:"layer"`
	StartCol       int    `json:"start_col" mapstructure:"start_col"`
	StartRow       int    `json:"start_row" mapstructure:"start_row"`
	WrapHorizontal bool   `json:"wrap_horizontal" mapstructure:"wrap_horizontal"`
	WrapVertical   bool   `json:"wrap_vertical" mapstructure:"wrap_vertical"`
	ColorKey       string `json:"color_key,omitempty" mapstructure:"color_key"`
}

// FrameConfig describes the frame hosts render into.
type FrameConfig struct {
	Width      int    `json:"width,omitempty" mapstructure:"width"`
	Height     int    `json:"height,omitempty" mapstructure:"height"`
	Background string `json:"background,omitempty" mapstructure:"background"`
	Outline    string `json:"outline,omitempty" mapstructure:"outline"`
}

// SceneConfig represents a scene definition loaded from a config file.
type SceneConfig struct {
	Name          string            `json:"name" mapstructure:"name"`
	Description   string            `json:"description" mapstructure:"description"`
	Kind          string            `json:"kind,omitempty" mapstructure:"kind"`
	Image         string            `json:"image,omitempty" mapstructure:"image"`
	CellWidth     int               `json:"cell_width,omitempty" mapstructure:"cell_width"`
	CellHeight    int               `json:"cell_height,omitempty" mapstructure:"cell_height"`
	Layers        int               `json:"layers,omitempty" mapstructure:"layers"`
	Rows          int               `json:"rows,omitempty" mapstructure:"rows"`
	Columns       int               `json:"columns,omitempty" mapstructure:"columns"`
	Width         int               `json:"width,omitempty" mapstructure:"width"`
	Height        int               `json:"height,omitempty" mapstructure:"height"`
	Anchor        Point             `json:"anchor" mapstructure:"anchor"`
	Magnification float64           `json:"magnification,omitempty" mapstructure:"magnification"`
	Color         string            `json:"color,omitempty" mapstructure:"color"`
	Background    *BackgroundConfig `json:"background,omitempty" mapstructure:"background"`
	Token         *TokenConfig      `json:"token,omitempty" mapstructure:"token"`
	Frame         FrameConfig       `json:"frame,omitempty" mapstructure:"frame"`
}

// SurfaceKind returns the configured variant, defaulting to a layered grid.
func (c *SceneConfig) SurfaceKind() surface.Kind {
	if c.Kind == "" {
		return surface.KindLayeredGrid
	}
	return surface.Kind(c.Kind)
}

// IsGrid reports whether the scene is laid out in cells.
func (c *SceneConfig) IsGrid() bool {
	k := c.SurfaceKind()
	return k == surface.KindLayeredGrid || k == surface.KindRepeatingGrid
}

// LogicalSize returns the unscaled surface size. Grid scenes derive it from
// the cell size and dimensions.
func (c *SceneConfig) LogicalSize() (int, int) {
	if c.IsGrid() {
		return c.CellWidth * c.Columns, c.CellHeight * c.Rows
	}
	return c.Width, c.Height
}

// TokenLayer returns the store layer for the token: the configured layer or
// the top layer.
func (c *SceneConfig) TokenLayer() int {
	if c.Token != nil && c.Token.Layer != nil {
		return *c.Token.Layer
	}
	if c.Layers > 0 {
		return c.Layers - 1
	}
	return 0
}

// TokenState is the token part of a State snapshot.
type TokenState struct {
	Col            int  `json:"col"`
	Row            int  `json:"row"`
	Layer          int  `json:"layer"`
	WrapHorizontal bool `json:"wrap_horizontal"`
	WrapVertical   bool `json:"wrap_vertical"`
}

// State is a snapshot of a scene.
type State struct {
	ConfigName     string      `json:"config_name"`
	Kind           string      `json:"kind"`
	Anchor         Point       `json:"anchor"`
	Width          int         `json:"width"`
	Height         int         `json:"height"`
	Magnification  float64     `json:"magnification"`
	DrawableWidth  int         `json:"drawable_width"`
	DrawableHeight int         `json:"drawable_height"`
	Dragging       bool        `json:"dragging"`
	Columns        int         `json:"columns,omitempty"`
	Rows           int         `json:"rows,omitempty"`
	Layers         int         `json:"layers,omitempty"`
	CellWidth      int         `json:"cell_width,omitempty"`
	CellHeight     int         `json:"cell_height,omitempty"`
	Token          *TokenState `json:"token,omitempty"`
	Events         int         `json:"events"`
	Redraws        int         `json:"redraws"`
	TotalMoves     int         `json:"total_moves"`
	LastMove       *MoveEntry  `json:"last_move,omitempty"`
}

// MoveEntry records one token move.
type MoveEntry struct {
	surface.Move
	MoveNumber int       `json:"move_number"`
	Timestamp  time.Time `json:"timestamp"`
}

// LayerInfo describes one layer of a cell.
type LayerInfo struct {
	Layer    int    `json:"layer"`
	Occupied bool   `json:"occupied"`
	BitmapID uint64 `json:"bitmap_id,omitempty"`
	IsToken  bool   `json:"is_token,omitempty"`
}

// CellInfo describes the contents of one grid cell.
type CellInfo struct {
	Col          int         `json:"col"`
	Row          int         `json:"row"`
	Screen       Point       `json:"screen"`
	Size         Point       `json:"size"`
	TopmostLayer int         `json:"topmost_layer"`
	HasToken     bool        `json:"has_token"`
	Layers       []LayerInfo `json:"layers,omitempty"`
}

// HitResult is the answer to a screen-space hit test.
type HitResult struct {
	X      int       `json:"x"`
	Y      int       `json:"y"`
	Inside bool      `json:"inside"`
	OnCell bool      `json:"on_cell"`
	Cell   *CellInfo `json:"cell,omitempty"`
	LocalX float64   `json:"local_x"`
	LocalY float64   `json:"local_y"`
}
