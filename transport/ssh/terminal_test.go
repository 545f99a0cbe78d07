package ssh

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gssh "github.com/gliderlabs/ssh"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/wricardo/tileview/game/engine"
	"github.com/wricardo/tileview/game/service"
	"github.com/wricardo/tileview/game/session"
)

// stubConfigs serves a single demo grid scene.
type stubConfigs struct {
	config *engine.SceneConfig
}

func (c *stubConfigs) LoadConfig(name string) (*engine.SceneConfig, error) {
	if name != "demo" {
		return nil, fmt.Errorf("configuration not found: %s", name)
	}
	return c.config, nil
}

func (c *stubConfigs) ListConfigs() ([]*service.ConfigInfo, error) {
	return []*service.ConfigInfo{{ConfigID: "demo", Name: c.config.Name}}, nil
}

func (c *stubConfigs) GetDefault() *engine.SceneConfig { return c.config }

func (c *stubConfigs) SaveConfig(name string, config *engine.SceneConfig) error { return nil }

func setupService(t *testing.T) service.SceneService {
	t.Helper()
	dir := t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			c := color.NRGBA{200, 0, 0, 255}
			if x >= 4 {
				c = color.NRGBA{0, 0, 200, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(filepath.Join(dir, "tile.png"))
	if err != nil {
		t.Fatalf("Failed to create atlas: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode atlas: %v", err)
	}

	cfg := engine.DefaultSceneConfig()
	cfg.Image = "tile.png"
	cfg.CellWidth, cfg.CellHeight = 4, 4
	cfg.Anchor = engine.Point{X: 4, Y: 4}

	logger, _ := test.NewNullLogger()
	sessions := session.NewManager(dir, engine.WithLogger(logger))
	t.Cleanup(sessions.Close)
	return service.NewSceneService(sessions, &stubConfigs{config: cfg}, service.WithLogger(logger))
}

func runTerminal(t *testing.T, term *Terminal, keys ...string) string {
	t.Helper()
	pr, pw := io.Pipe()
	var out bytes.Buffer
	done := make(chan error, 1)

	go func() {
		done <- term.Run(context.Background(), pr, &out, nil)
	}()

	for _, k := range keys {
		if _, err := pw.Write([]byte(k)); err != nil {
			t.Fatalf("Failed to write keys: %v", err)
		}
	}
	pw.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	return out.String()
}

func TestTerminal_MoveAndQuit(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	info, err := svc.CreateSession(ctx, "demo")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	var changes int
	hook := func(id string, st *engine.State) {
		if id == info.ID {
			changes++
		}
	}
	logger, _ := test.NewNullLogger()
	term := NewTerminal(svc, info.ID, gssh.Window{Width: 80, Height: 8}, hook, logger)

	out := runTerminal(t, term, "d", "q", "d")

	st, _ := svc.GetState(ctx, info.ID)
	if st.Token.Col != 1 {
		t.Errorf("Expected token at column 1 after one move, got %d", st.Token.Col)
	}
	if changes != 1 {
		t.Errorf("Expected 1 state change, got %d", changes)
	}
	if !strings.Contains(out, "token (1,0)") {
		t.Errorf("Expected status line with token position, got %q", out)
	}
	if !strings.Contains(out, upperHalfBlock) || !strings.HasPrefix(out, altScreenOn) {
		t.Error("Expected a half-block frame on the alternate screen")
	}
	if !strings.HasSuffix(out, altScreenOff) {
		t.Error("Expected terminal to be restored on exit")
	}
}

func TestTerminal_PanZoomReset(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	info, _ := svc.CreateSession(ctx, "demo")

	logger, _ := test.NewNullLogger()
	term := NewTerminal(svc, info.ID, gssh.Window{Width: 80, Height: 8}, nil, logger)

	runTerminal(t, term, "l", "l")
	st, _ := svc.GetState(ctx, info.ID)
	// Default frame is 20x16, so one pan step is 2 pixels
	if st.Anchor.X != 8 || st.Anchor.Y != 4 {
		t.Errorf("Expected anchor (8,4), got (%d,%d)", st.Anchor.X, st.Anchor.Y)
	}

	runTerminal(t, term, "-")
	st, _ = svc.GetState(ctx, info.ID)
	if st.Magnification != 0.9 {
		t.Errorf("Expected magnification 0.9, got %v", st.Magnification)
	}

	runTerminal(t, term, "dr")
	st, _ = svc.GetState(ctx, info.ID)
	if st.Token.Col != 0 || st.Anchor.X != 4 || st.Magnification != 1 {
		t.Errorf("Expected reset scene, got token %d anchor %d mag %v", st.Token.Col, st.Anchor.X, st.Magnification)
	}
}

func TestTerminal_StatusShowsErrors(t *testing.T) {
	svc := setupService(t)
	info, _ := svc.CreateSession(context.Background(), "demo")

	logger, _ := test.NewNullLogger()
	term := NewTerminal(svc, info.ID, gssh.Window{Width: 200, Height: 8}, nil, logger)
	svc.DeleteSession(context.Background(), info.ID)

	quit, changed := term.apply(context.Background(), []Action{{Kind: ActionReset}})
	if quit || !changed {
		t.Errorf("Expected a redraw request, got quit=%t changed=%t", quit, changed)
	}
	if !strings.Contains(term.status, "not found") {
		t.Errorf("Expected not found status, got %q", term.status)
	}
}

func TestTerminal_HelpToggle(t *testing.T) {
	term := &Terminal{}
	term.resize(gssh.Window{Width: 10, Height: 1})
	if term.rows != 2 {
		t.Errorf("Expected at least 2 rows, got %d", term.rows)
	}

	term.apply(context.Background(), []Action{{Kind: ActionHelp}})
	line := term.statusLine(&engine.State{ConfigName: "x"})
	if line != helpText {
		t.Errorf("Expected help text, got %q", line)
	}
	if got := truncate(line, 10); got != helpText[:10] {
		t.Errorf("Expected truncated help, got %q", got)
	}
}
