package engine

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateSceneConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*SceneConfig)
		wantErr string
	}{
		{
			name:   "default demo scene",
			modify: func(c *SceneConfig) {},
		},
		{
			name:    "missing name",
			modify:  func(c *SceneConfig) { c.Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "unknown kind",
			modify:  func(c *SceneConfig) { c.Kind = "hexagonal" },
			wantErr: "kind must be one of",
		},
		{
			name:    "magnification too large",
			modify:  func(c *SceneConfig) { c.Magnification = 100 },
			wantErr: "magnification must be between",
		},
		{
			name:    "missing image",
			modify:  func(c *SceneConfig) { c.Image = "" },
			wantErr: "image is required",
		},
		{
			name:    "zero cell size",
			modify:  func(c *SceneConfig) { c.CellWidth = 0 },
			wantErr: "cell size must be between",
		},
		{
			name:    "too many rows",
			modify:  func(c *SceneConfig) { c.Rows = MaxGridSize + 1 },
			wantErr: "rows must be between",
		},
		{
			name:    "zero columns",
			modify:  func(c *SceneConfig) { c.Columns = 0 },
			wantErr: "columns must be between",
		},
		{
			name:    "zero layers",
			modify:  func(c *SceneConfig) { c.Layers = 0 },
			wantErr: "layers must be between",
		},
		{
			name:    "negative background tile",
			modify:  func(c *SceneConfig) { c.Background.Col = -1 },
			wantErr: "background tile",
		},
		{
			name: "repeating without background",
			modify: func(c *SceneConfig) {
				c.Kind = "repeating"
				c.Background = nil
			},
			wantErr: "require a background tile",
		},
		{
			name:    "token outside grid",
			modify:  func(c *SceneConfig) { c.Token.StartCol = 3 },
			wantErr: "token start",
		},
		{
			name: "token layer out of range",
			modify: func(c *SceneConfig) {
				layer := 2
				c.Token.Layer = &layer
			},
			wantErr: "token layer must be between",
		},
		{
			name:    "single layer with background and token",
			modify:  func(c *SceneConfig) { c.Layers = 1 },
			wantErr: "token layer 0 holds the background",
		},
		{
			name: "token on background layer",
			modify: func(c *SceneConfig) {
				layer := 0
				c.Token.Layer = &layer
			},
			wantErr: "token layer 0 holds the background",
		},
		{
			name: "token on layer 0 without background",
			modify: func(c *SceneConfig) {
				layer := 0
				c.Token.Layer = &layer
				c.Background = nil
			},
		},
		{
			name: "token layer on repeating grid",
			modify: func(c *SceneConfig) {
				layer := 0
				c.Kind = "repeating"
				c.Token.Layer = &layer
			},
			wantErr: "only valid for layered scenes",
		},
		{
			name:    "bad color key",
			modify:  func(c *SceneConfig) { c.Token.ColorKey = "pinkish" },
			wantErr: "token.color_key",
		},
		{
			name:    "bad frame outline",
			modify:  func(c *SceneConfig) { c.Frame.Outline = "#12" },
			wantErr: "frame.outline",
		},
		{
			name:    "frame too large",
			modify:  func(c *SceneConfig) { c.Frame.Width = MaxFrameSize + 1 },
			wantErr: "frame size",
		},
		{
			name: "flat scene",
			modify: func(c *SceneConfig) {
				*c = SceneConfig{Name: "flat", Kind: "flat", Width: 10, Height: 10, Color: "0,0,255"}
			},
		},
		{
			name: "flat scene without color",
			modify: func(c *SceneConfig) {
				*c = SceneConfig{Name: "flat", Kind: "flat", Width: 10, Height: 10}
			},
			wantErr: "color is required",
		},
		{
			name: "flat scene with token",
			modify: func(c *SceneConfig) {
				c.Kind = "flat"
				c.Width, c.Height = 10, 10
				c.Color = "#ffffff"
			},
			wantErr: "cannot carry a token",
		},
		{
			name: "static scene without size",
			modify: func(c *SceneConfig) {
				c.Kind = "static"
				c.Token = nil
			},
			wantErr: "width and height must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestSceneConfig()
			tt.modify(cfg)
			err := ValidateSceneConfig(cfg)

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateSceneConfig_Nil(t *testing.T) {
	if err := ValidateSceneConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestSceneConfig_Defaults(t *testing.T) {
	cfg := DefaultSceneConfig()

	if cfg.SurfaceKind() != "layered" || !cfg.IsGrid() {
		t.Errorf("Expected layered grid, got %q", cfg.SurfaceKind())
	}
	if w, h := cfg.LogicalSize(); w != 300 || h != 200 {
		t.Errorf("Expected 300x200, got %dx%d", w, h)
	}
	if cfg.TokenLayer() != 1 {
		t.Errorf("Expected token on top layer, got %d", cfg.TokenLayer())
	}
	if cfg.Anchor != (Point{500, 500}) {
		t.Errorf("Expected anchor (500,500), got %+v", cfg.Anchor)
	}

	flat := &SceneConfig{Kind: "flat", Width: 7, Height: 9}
	if w, h := flat.LogicalSize(); w != 7 || h != 9 {
		t.Errorf("Expected 7x9, got %dx%d", w, h)
	}
}

func TestResolvePath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "a.png")
	tests := []struct {
		base, path, want string
	}{
		{"configs", "tile.png", filepath.Join("configs", "tile.png")},
		{"configs", abs, abs},
		{"", "tile.png", "tile.png"},
		{"configs", "", ""},
	}
	for _, tt := range tests {
		if got := ResolvePath(tt.base, tt.path); got != tt.want {
			t.Errorf("ResolvePath(%q, %q): expected %q, got %q", tt.base, tt.path, tt.want, got)
		}
	}
}

func TestCheckAssets(t *testing.T) {
	dir := t.TempDir()
	writeTestAtlas(t, dir, "tile.png")

	cfg := createTestSceneConfig()
	if err := CheckAssets(cfg, dir); err != nil {
		t.Errorf("Expected assets to check out, got %v", err)
	}

	cfg.Background.Col = 5
	if err := CheckAssets(cfg, dir); err == nil || !strings.Contains(err.Error(), "background") {
		t.Errorf("Expected background error, got %v", err)
	}

	cfg = createTestSceneConfig()
	cfg.Token.Row = 1
	if err := CheckAssets(cfg, dir); err == nil || !strings.Contains(err.Error(), "token") {
		t.Errorf("Expected token error, got %v", err)
	}

	cfg = createTestSceneConfig()
	cfg.Token.Image = "missing.png"
	if err := CheckAssets(cfg, dir); err == nil {
		t.Error("Expected error for missing token image")
	}

	cfg = createTestSceneConfig()
	cfg.Image = "nope.png"
	if err := CheckAssets(cfg, dir); err == nil {
		t.Error("Expected error for missing atlas")
	}
}
