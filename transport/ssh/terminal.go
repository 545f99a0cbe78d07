package ssh

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"strings"
	"unicode/utf8"

	gssh "github.com/gliderlabs/ssh"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/tileview/game/engine"
	"github.com/wricardo/tileview/game/service"
)

const helpText = "arrows/wasd move  hjkl pan  +/- zoom  r reset  ? help  q quit"

// StateHook is told about every change a terminal makes to its session.
type StateHook func(sessionID string, state *engine.State)

// Terminal drives one scene session from a raw terminal: it decodes key
// presses into service calls and redraws the frame as half blocks.
type Terminal struct {
	service   service.SceneService
	sessionID string
	onChange  StateHook
	log       logrus.FieldLogger

	cols, rows     int
	frameW, frameH int
	status         string
	help           bool
}

// NewTerminal creates a terminal for an existing session.
func NewTerminal(svc service.SceneService, sessionID string, win gssh.Window, onChange StateHook, log logrus.FieldLogger) *Terminal {
	if log == nil {
		log = logrus.StandardLogger()
	}
	t := &Terminal{
		service:   svc,
		sessionID: sessionID,
		onChange:  onChange,
		log:       log,
	}
	t.resize(win)
	return t
}

func (t *Terminal) resize(win gssh.Window) {
	t.cols, t.rows = max(win.Width, 1), max(win.Height, 2)
}

// Run draws the scene and handles input from r until the reader ends, ctx
// is done or the user quits.
func (t *Terminal) Run(ctx context.Context, r io.Reader, w io.Writer, winCh <-chan gssh.Window) error {
	input := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				data := append([]byte(nil), buf[:n]...)
				select {
				case input <- data:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	io.WriteString(w, altScreenOn+hideCursor+clearScreen)
	defer io.WriteString(w, resetStyle+showCursor+altScreenOff)

	if err := t.draw(ctx, w); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err

		case win, ok := <-winCh:
			if !ok {
				winCh = nil
				continue
			}
			t.resize(win)
			io.WriteString(w, clearScreen)
			if err := t.draw(ctx, w); err != nil {
				return err
			}

		case data := <-input:
			quit, changed := t.apply(ctx, ParseKeys(data))
			if quit {
				return nil
			}
			if changed {
				if err := t.draw(ctx, w); err != nil {
					return err
				}
			}
		}
	}
}

// apply runs the actions in order. It reports whether the user quit and
// whether anything needs redrawing.
func (t *Terminal) apply(ctx context.Context, actions []Action) (quit, changed bool) {
	for _, a := range actions {
		var (
			state *engine.State
			err   error
		)

		switch a.Kind {
		case ActionQuit:
			return true, changed

		case ActionHelp:
			t.help = !t.help
			changed = true
			continue

		case ActionMove:
			var res *service.MoveResult
			res, err = t.service.Move(ctx, t.sessionID, a.Direction.String())
			if err == nil {
				state = res.State
				t.status = res.Message
			}

		case ActionPan:
			stepX, stepY := max(t.frameW/10, 1), max(t.frameH/10, 1)
			var res *service.DispatchResult
			res, err = t.service.Pan(ctx, t.sessionID, a.DX*stepX, a.DY*stepY)
			if err == nil {
				state = res.State
				t.status = ""
			}

		case ActionZoom:
			var res *service.DispatchResult
			res, err = t.service.Zoom(ctx, t.sessionID, a.Steps)
			if err == nil {
				state = res.State
				t.status = ""
			}

		case ActionReset:
			state, err = t.service.Reset(ctx, t.sessionID)
			if err == nil {
				t.status = "scene reset"
			}
		}

		if err != nil {
			t.status = err.Error()
			t.log.WithError(err).WithField("session", t.sessionID).Debug("ssh: action failed")
		} else if t.onChange != nil && state != nil {
			t.onChange(t.sessionID, state)
		}
		changed = true
	}
	return false, changed
}

func (t *Terminal) draw(ctx context.Context, w io.Writer) error {
	frame, err := t.service.RenderFrame(ctx, t.sessionID, 0, 0)
	if err != nil {
		return err
	}
	t.frameW, t.frameH = frame.Bounds().Dx(), frame.Bounds().Dy()

	state, err := t.service.GetState(ctx, t.sessionID)
	if err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(cursorHome)
	sb.WriteString(RenderANSI(Fit(frame, t.cols, t.rows-1, color.Black)))
	sb.WriteString(clearLine)
	sb.WriteString(truncate(t.statusLine(state), t.cols))

	_, err = io.WriteString(w, sb.String())
	return err
}

func (t *Terminal) statusLine(s *engine.State) string {
	if t.help {
		return helpText
	}
	line := fmt.Sprintf("%s  zoom %.2f", s.ConfigName, s.Magnification)
	if s.Token != nil {
		line += fmt.Sprintf("  token (%d,%d)", s.Token.Col, s.Token.Row)
	}
	if t.status != "" {
		line += "  " + t.status
	} else {
		line += "  ? for help"
	}
	return line
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	return string([]rune(s)[:width])
}
