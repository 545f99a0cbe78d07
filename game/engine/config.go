package engine

import (
	"fmt"
	"path/filepath"

	"github.com/wricardo/tileview/game/atlas"
	"github.com/wricardo/tileview/game/surface"
	"github.com/wricardo/tileview/game/viewport"
)

// DefaultSceneConfig returns the classic demo scene: a 3x2 grid of 100x100
// cells on two layers at (500,500), background tile (0,0) and a token cut
// from tile (1,0) keyed on pink, wrapping on both axes. Image is left empty
// for the caller to fill in.
func DefaultSceneConfig() *SceneConfig {
	return &SceneConfig{
		Name:        "default",
		Description: "Two-layer 3x2 grid with a wrapping token",
		Kind:        string(surface.KindLayeredGrid),
		CellWidth:   DefaultCellSize,
		CellHeight:  DefaultCellSize,
		Layers:      DefaultLayers,
		Rows:        DefaultRows,
		Columns:     DefaultColumns,
		Anchor:      Point{X: DefaultAnchor, Y: DefaultAnchor},
		Background:  &BackgroundConfig{Col: 0, Row: 0},
		Token: &TokenConfig{
			Col:            1,
			Row:            0,
			WrapHorizontal: true,
			WrapVertical:   true,
			ColorKey:       DefaultColorKey,
		},
	}
}

// ValidateSceneConfig checks a scene configuration for consistency. It does
// not touch the filesystem; see CheckAssets.
func ValidateSceneConfig(config *SceneConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	kind := config.SurfaceKind()
	switch kind {
	case surface.KindLayeredGrid, surface.KindRepeatingGrid, surface.KindStaticImage, surface.KindFlatColor:
	default:
		return fmt.Errorf("config validation: kind must be one of layered, repeating, static, flat, got %q", config.Kind)
	}

	if config.Magnification != 0 &&
		(config.Magnification < viewport.MinMagnification || config.Magnification > viewport.MaxMagnification) {
		return fmt.Errorf("config validation: magnification must be between %v and %v, got %v",
			viewport.MinMagnification, viewport.MaxMagnification, config.Magnification)
	}

	if err := validateFrame(&config.Frame); err != nil {
		return err
	}

	switch kind {
	case surface.KindFlatColor:
		if err := validateSize(config); err != nil {
			return err
		}
		if config.Color == "" {
			return fmt.Errorf("config validation: color is required for flat scenes")
		}
		if _, err := atlas.ParseColor(config.Color); err != nil {
			return fmt.Errorf("config validation: color: %v", err)
		}
		if config.Token != nil {
			return fmt.Errorf("config validation: flat scenes cannot carry a token")
		}
		return nil

	case surface.KindStaticImage:
		if config.Image == "" {
			return fmt.Errorf("config validation: image is required for static scenes")
		}
		if config.Token != nil {
			return fmt.Errorf("config validation: static scenes cannot carry a token")
		}
		return validateSize(config)
	}

	return validateGrid(config)
}

func validateSize(config *SceneConfig) error {
	if config.Width <= 0 || config.Height <= 0 {
		return fmt.Errorf("config validation: width and height must be positive, got %dx%d", config.Width, config.Height)
	}
	return nil
}

func validateFrame(frame *FrameConfig) error {
	if frame.Width < 0 || frame.Height < 0 || frame.Width > MaxFrameSize || frame.Height > MaxFrameSize {
		return fmt.Errorf("config validation: frame size must be between 0 and %d, got %dx%d", MaxFrameSize, frame.Width, frame.Height)
	}
	for name, value := range map[string]string{"frame.background": frame.Background, "frame.outline": frame.Outline} {
		if value == "" {
			continue
		}
		if _, err := atlas.ParseColor(value); err != nil {
			return fmt.Errorf("config validation: %s: %v", name, err)
		}
	}
	return nil
}

func validateGrid(config *SceneConfig) error {
	if config.Image == "" {
		return fmt.Errorf("config validation: image is required for grid scenes")
	}
	if config.CellWidth <= 0 || config.CellHeight <= 0 || config.CellWidth > MaxCellSize || config.CellHeight > MaxCellSize {
		return fmt.Errorf("config validation: cell size must be between 1 and %d, got %dx%d",
			MaxCellSize, config.CellWidth, config.CellHeight)
	}
	if config.Rows < MinGridSize || config.Rows > MaxGridSize {
		return fmt.Errorf("config validation: rows must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Rows)
	}
	if config.Columns < MinGridSize || config.Columns > MaxGridSize {
		return fmt.Errorf("config validation: columns must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Columns)
	}

	layered := config.SurfaceKind() == surface.KindLayeredGrid
	if layered && (config.Layers < 1 || config.Layers > MaxLayers) {
		return fmt.Errorf("config validation: layers must be between 1 and %d, got %d", MaxLayers, config.Layers)
	}

	if bg := config.Background; bg != nil && (bg.Col < 0 || bg.Row < 0) {
		return fmt.Errorf("config validation: background tile (%d, %d) must not be negative", bg.Col, bg.Row)
	}
	if !layered && config.Background == nil {
		return fmt.Errorf("config validation: repeating scenes require a background tile")
	}

	tok := config.Token
	if tok == nil {
		return nil
	}
	if tok.Image == "" && (tok.Col < 0 || tok.Row < 0) {
		return fmt.Errorf("config validation: token tile (%d, %d) must not be negative", tok.Col, tok.Row)
	}
	if tok.StartCol < 0 || tok.StartCol >= config.Columns || tok.StartRow < 0 || tok.StartRow >= config.Rows {
		return fmt.Errorf("config validation: token start (%d, %d) is outside the %dx%d grid",
			tok.StartCol, tok.StartRow, config.Columns, config.Rows)
	}
	if layered {
		if layer := config.TokenLayer(); layer < 0 || layer >= config.Layers {
			return fmt.Errorf("config validation: token layer must be between 0 and %d, got %d", config.Layers-1, layer)
		}
		if config.Background != nil && config.TokenLayer() == 0 {
			return fmt.Errorf("config validation: token layer 0 holds the background; use at least 2 layers and a token layer above 0")
		}
	} else if tok.Layer != nil {
		return fmt.Errorf("config validation: token layer is only valid for layered scenes")
	}
	if tok.ColorKey != "" {
		if _, err := atlas.ParseColor(tok.ColorKey); err != nil {
			return fmt.Errorf("config validation: token.color_key: %v", err)
		}
	}
	return nil
}

// ResolvePath resolves a config-relative asset path against baseDir.
func ResolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// CheckAssets loads the scene's images and verifies every referenced atlas
// tile exists.
func CheckAssets(config *SceneConfig, baseDir string) error {
	if config.Image == "" {
		return nil
	}
	if !config.IsGrid() {
		_, err := atlas.LoadBitmap(ResolvePath(baseDir, config.Image))
		return err
	}

	a, err := atlas.Load(ResolvePath(baseDir, config.Image), config.CellWidth, config.CellHeight)
	if err != nil {
		return err
	}
	if bg := config.Background; bg != nil {
		if _, err := a.Tile(bg.Col, bg.Row); err != nil {
			return fmt.Errorf("background: %w", err)
		}
	}
	if tok := config.Token; tok != nil {
		if tok.Image != "" {
			if _, err := atlas.LoadBitmap(ResolvePath(baseDir, tok.Image)); err != nil {
				return fmt.Errorf("token: %w", err)
			}
		} else if _, err := a.Tile(tok.Col, tok.Row); err != nil {
			return fmt.Errorf("token: %w", err)
		}
	}
	return nil
}
