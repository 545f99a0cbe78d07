package ssh

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	xdraw "golang.org/x/image/draw"
)

const (
	upperHalfBlock = "▀"
	resetStyle     = "\x1b[0m"
	cursorHome     = "\x1b[H"
	clearScreen    = "\x1b[2J"
	hideCursor     = "\x1b[?25l"
	altScreenOn    = "\x1b[?1049h"
	altScreenOff   = "\x1b[?1049l"
	clearLine      = "\x1b[2K"
	showCursor     = "\x1b[?25h"
)

// Fit scales src into a cols × 2*rows image, keeping the aspect ratio and
// centering the result. Each terminal cell shows two stacked pixels.
func Fit(src image.Image, cols, rows int, bg color.Color) *image.RGBA {
	w, h := max(cols, 1), max(rows*2, 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, xdraw.Src)

	sb := src.Bounds()
	if sb.Empty() {
		return dst
	}
	scale := min(float64(w)/float64(sb.Dx()), float64(h)/float64(sb.Dy()))
	tw := max(int(float64(sb.Dx())*scale), 1)
	th := max(int(float64(sb.Dy())*scale), 1)
	ox, oy := (w-tw)/2, (h-th)/2

	xdraw.ApproxBiLinear.Scale(dst, image.Rect(ox, oy, ox+tw, oy+th), src, sb, xdraw.Over, nil)
	return dst
}

// RenderANSI encodes img as rows of 24-bit colored upper half blocks: the
// foreground is the top pixel and the background the bottom one. Lines end
// with CRLF because PTYs in raw mode do not translate newlines.
func RenderANSI(img *image.RGBA) string {
	b := img.Bounds()
	var sb strings.Builder
	sb.Grow(b.Dx() * b.Dy() * 20)

	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		var fg, bg color.RGBA
		first := true
		for x := b.Min.X; x < b.Max.X; x++ {
			top := img.RGBAAt(x, y)
			bottom := top
			if y+1 < b.Max.Y {
				bottom = img.RGBAAt(x, y+1)
			}
			if first || top != fg {
				fmt.Fprintf(&sb, "\x1b[38;2;%d;%d;%dm", top.R, top.G, top.B)
				fg = top
			}
			if first || bottom != bg {
				fmt.Fprintf(&sb, "\x1b[48;2;%d;%d;%dm", bottom.R, bottom.G, bottom.B)
				bg = bottom
			}
			first = false
			sb.WriteString(upperHalfBlock)
		}
		sb.WriteString(resetStyle)
		sb.WriteString("\r\n")
	}
	return sb.String()
}
