package ssh

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func fill(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestFit_KeepsAspectRatio(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	black := color.RGBA{0, 0, 0, 255}

	fitted := Fit(fill(4, 2, red), 8, 1, black)

	if b := fitted.Bounds(); b.Dx() != 8 || b.Dy() != 2 {
		t.Fatalf("Expected 8x2 image, got %v", b)
	}
	for x := 0; x < 8; x++ {
		want := black
		if x >= 2 && x < 6 {
			want = red
		}
		if got := fitted.RGBAAt(x, 0); got != want {
			t.Errorf("Pixel %d: expected %v, got %v", x, want, got)
		}
	}
}

func TestFit_EmptySource(t *testing.T) {
	bg := color.RGBA{1, 2, 3, 255}
	fitted := Fit(image.NewRGBA(image.Rect(0, 0, 0, 0)), 3, 2, bg)
	if fitted.RGBAAt(2, 3) != bg {
		t.Errorf("Expected background fill, got %v", fitted.RGBAAt(2, 3))
	}
}

func TestRenderANSI(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	img.SetRGBA(0, 0, red)
	img.SetRGBA(1, 0, red)
	img.SetRGBA(0, 1, blue)
	img.SetRGBA(1, 1, blue)

	got := RenderANSI(img)
	want := "\x1b[38;2;255;0;0m\x1b[48;2;0;0;255m▀▀\x1b[0m\r\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestRenderANSI_OddHeight(t *testing.T) {
	green := color.RGBA{0, 255, 0, 255}
	got := RenderANSI(fill(1, 3, green))

	lines := strings.Split(strings.TrimSuffix(got, "\r\n"), "\r\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), got)
	}
	if !strings.Contains(lines[1], "\x1b[48;2;0;255;0m") {
		t.Errorf("Expected last row to repeat the top pixel as background, got %q", lines[1])
	}
}
