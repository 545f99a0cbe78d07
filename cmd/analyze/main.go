// Command analyze prints quick, human-readable heuristics about the scene
// configs in a config directory. It summarizes surface kind and dimensions,
// atlas usage, frame fit and how much of the token the color key clears.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/tileview/game/atlas"
	"github.com/wricardo/tileview/game/config"
	"github.com/wricardo/tileview/game/engine"
	"github.com/wricardo/tileview/game/surface"
)

// Summary holds what analyze reports for one scene config.
type Summary struct {
	Name          string
	Kind          string
	Columns       int
	Rows          int
	Layers        int
	LogicalWidth  int
	LogicalHeight int
	FrameWidth    int
	FrameHeight   int
	AtlasColumns  int
	AtlasRows     int
	TokenPixels   int
	KeyedPixels   int
	Warnings      []string
}

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	} else if env := os.Getenv("CONFIG_DIR"); env != "" {
		dir = env
	}

	files, err := configFiles(dir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No scene configs found in %s\n", dir)
		return
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		analyzeConfig(os.Stdout, file)
	}
}

// configFiles lists every scene config in dir, sorted by name.
func configFiles(dir string) ([]string, error) {
	var files []string
	for _, ext := range config.Extensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

func analyzeConfig(w io.Writer, path string) {
	cfg, err := config.ReadFile(path)
	if err != nil {
		fmt.Fprintf(w, "Error reading file: %v\n", err)
		return
	}

	s, err := summarize(cfg, filepath.Dir(path))
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(w, "Name: %s\n", s.Name)
	fmt.Fprintf(w, "Kind: %s\n", s.Kind)
	if s.Columns > 0 {
		fmt.Fprintf(w, "Grid: %d x %d cells, %d layers\n", s.Columns, s.Rows, s.Layers)
	}
	fmt.Fprintf(w, "Logical Size: %d x %d\n", s.LogicalWidth, s.LogicalHeight)
	fmt.Fprintf(w, "Frame Size: %d x %d\n", s.FrameWidth, s.FrameHeight)
	if s.AtlasColumns > 0 {
		fmt.Fprintf(w, "Atlas: %d x %d tiles\n", s.AtlasColumns, s.AtlasRows)
	}
	if s.TokenPixels > 0 {
		fmt.Fprintf(w, "Token: %d of %d pixels keyed transparent\n", s.KeyedPixels, s.TokenPixels)
	}

	if len(s.Warnings) == 0 {
		fmt.Fprintf(w, "✅ No issues found\n")
		return
	}
	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "⚠️  WARNING: %s\n", warning)
	}
}

// summarize validates cfg, builds its scene once and collects the
// statistics and warnings analyze prints.
func summarize(cfg *engine.SceneConfig, baseDir string) (*Summary, error) {
	if err := engine.ValidateSceneConfig(cfg); err != nil {
		return nil, err
	}

	eng, err := engine.NewEngine(cfg, baseDir, engine.WithoutCache())
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	s := &Summary{
		Name: cfg.Name,
		Kind: string(cfg.SurfaceKind()),
	}
	s.LogicalWidth, s.LogicalHeight = cfg.LogicalSize()
	s.FrameWidth, s.FrameHeight = eng.FrameSize()

	mag := cfg.Magnification
	if mag == 0 {
		mag = 1
	}
	if right, bottom := cfg.Anchor.X+int(float64(s.LogicalWidth)*mag), cfg.Anchor.Y+int(float64(s.LogicalHeight)*mag); right > s.FrameWidth || bottom > s.FrameHeight {
		s.Warnings = append(s.Warnings, fmt.Sprintf("surface extends past the %dx%d frame at magnification %.2f", s.FrameWidth, s.FrameHeight, mag))
	}
	if cfg.Anchor.X < 0 || cfg.Anchor.Y < 0 {
		s.Warnings = append(s.Warnings, fmt.Sprintf("anchor (%d, %d) starts partly off screen", cfg.Anchor.X, cfg.Anchor.Y))
	}

	if !cfg.IsGrid() {
		return s, nil
	}

	s.Columns, s.Rows = cfg.Columns, cfg.Rows
	s.Layers = 1
	if cfg.SurfaceKind() == surface.KindLayeredGrid {
		s.Layers = cfg.Layers
	}

	a, err := atlas.Load(engine.ResolvePath(baseDir, cfg.Image), cfg.CellWidth, cfg.CellHeight)
	if err != nil {
		return nil, err
	}
	s.AtlasColumns, s.AtlasRows = a.Columns(), a.Rows()
	if a.Source().Width()%cfg.CellWidth != 0 || a.Source().Height()%cfg.CellHeight != 0 {
		s.Warnings = append(s.Warnings, fmt.Sprintf("atlas %dx%d is not a multiple of the %dx%d cell size; the remainder is ignored",
			a.Source().Width(), a.Source().Height(), cfg.CellWidth, cfg.CellHeight))
	}
	if cfg.Background == nil {
		s.Warnings = append(s.Warnings, "no background tile; empty cells show the frame background")
	}

	if tok := cfg.Token; tok != nil {
		var b *atlas.Bitmap
		if tok.Image != "" {
			b, err = atlas.LoadBitmap(engine.ResolvePath(baseDir, tok.Image))
		} else {
			b, err = a.Tile(tok.Col, tok.Row)
		}
		if err != nil {
			return nil, fmt.Errorf("token: %w", err)
		}
		s.TokenPixels = b.Width() * b.Height()
		if tok.ColorKey != "" {
			key, err := atlas.ParseColor(tok.ColorKey)
			if err != nil {
				return nil, err
			}
			s.KeyedPixels = atlas.ColorKeyTransparent(b, key)
		}
		switch {
		case tok.ColorKey != "" && s.KeyedPixels == 0:
			s.Warnings = append(s.Warnings, fmt.Sprintf("color key %s matches no token pixels; the token is drawn opaque", tok.ColorKey))
		case s.KeyedPixels == s.TokenPixels:
			s.Warnings = append(s.Warnings, "token is fully transparent after color keying")
		}
	}

	return s, nil
}
