// Command validate provides a small CLI that validates the scene configs in a
// config directory (../configs by default, or the first argument). It checks:
//   - the file parses as JSON, YAML or TOML
//   - the scene passes engine validation (kind, sizes, token placement, colors)
//   - the atlas and token images load and hold every referenced tile
//   - the initial viewport is visible inside the frame
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/tileview/game/config"
	"github.com/wricardo/tileview/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single scene config file. Relative
// image paths resolve against the file's directory.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	cfg, err := config.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	if err := engine.ValidateSceneConfig(cfg); err != nil {
		result.fail("%v", err)
		return result
	}

	if err := engine.CheckAssets(cfg, filepath.Dir(filePath)); err != nil {
		result.fail("Assets: %v", err)
	}

	placement := validatePlacement(cfg)
	if !placement.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, placement.Errors...)

	// Add informational data
	if result.Valid {
		lw, lh := cfg.LogicalSize()
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", cfg.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Kind: %s", cfg.SurfaceKind()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Size: %dx%d", lw, lh))
		if cfg.IsGrid() {
			result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d cells of %dx%d", cfg.Columns, cfg.Rows, cfg.CellWidth, cfg.CellHeight))
		}
		if tok := cfg.Token; tok != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("✓ Token: starts at (%d,%d), wrap h=%t v=%t",
				tok.StartCol, tok.StartRow, tok.WrapHorizontal, tok.WrapVertical))
		}
	}

	return result
}

// frameSize mirrors the engine's frame rule: the configured size, or the
// logical size plus the anchor as a margin on both sides.
func frameSize(cfg *engine.SceneConfig) (int, int) {
	lw, lh := cfg.LogicalSize()
	w, h := cfg.Frame.Width, cfg.Frame.Height
	if w == 0 {
		w = lw + 2*max(cfg.Anchor.X, 0)
	}
	if h == 0 {
		h = lh + 2*max(cfg.Anchor.Y, 0)
	}
	return w, h
}

// validatePlacement ensures the surface at its initial anchor and
// magnification overlaps the frame, and reports how much of it is visible.
func validatePlacement(cfg *engine.SceneConfig) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	mag := cfg.Magnification
	if mag == 0 {
		mag = 1
	}
	lw, lh := cfg.LogicalSize()
	sw, sh := int(float64(lw)*mag), int(float64(lh)*mag)
	fw, fh := frameSize(cfg)

	left, top := max(cfg.Anchor.X, 0), max(cfg.Anchor.Y, 0)
	right, bottom := min(cfg.Anchor.X+sw, fw), min(cfg.Anchor.Y+sh, fh)
	if right <= left || bottom <= top {
		result.fail("Placement failure: surface at (%d,%d) size %dx%d is outside the %dx%d frame",
			cfg.Anchor.X, cfg.Anchor.Y, sw, sh, fw, fh)
		return result
	}

	visible := (right - left) * (bottom - top)
	if total := sw * sh; visible < total {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Placement: %d%% of the surface visible in the %dx%d frame", visible*100/total, fw, fh))
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Placement: surface fully visible in the %dx%d frame", fw, fh))
	}
	return result
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

// main validates every scene config in the directory, printing a concise
// report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	files, err := configFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
