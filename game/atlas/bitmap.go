package atlas

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync/atomic"
)

var nextBitmapID atomic.Uint64

// Bitmap is a shared handle to decoded pixel data.
type Bitmap struct {
	id      uint64
	version uint64
	img     *image.NRGBA
}

// NewBitmap copies img into a new Bitmap whose bounds start at the origin.
func NewBitmap(img image.Image) *Bitmap {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return wrap(dst)
}

// NewSolidBitmap returns a w×h bitmap filled with c.
func NewSolidBitmap(w, h int, c color.Color) *Bitmap {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return wrap(dst)
}

func wrap(img *image.NRGBA) *Bitmap {
	return &Bitmap{id: nextBitmapID.Add(1), img: img}
}

// ID returns the process-unique identity of the handle.
func (b *Bitmap) ID() uint64 { return b.id }

// Version changes every time the pixels are mutated in place.
func (b *Bitmap) Version() uint64 { return b.version }

// Key identifies this exact pixel content; it changes after mutation.
func (b *Bitmap) Key() string { return fmt.Sprintf("%d.%d", b.id, b.version) }

// Image exposes the underlying pixels. Callers that write to it must call
// Touch afterwards.
func (b *Bitmap) Image() *image.NRGBA { return b.img }

// Bounds returns the pixel bounds, always anchored at the origin.
func (b *Bitmap) Bounds() image.Rectangle { return b.img.Bounds() }

func (b *Bitmap) Width() int  { return b.img.Rect.Dx() }
func (b *Bitmap) Height() int { return b.img.Rect.Dy() }

// Touch marks the pixels as modified.
func (b *Bitmap) Touch() { b.version++ }

// Clone returns an independent deep copy with a new identity.
func (b *Bitmap) Clone() *Bitmap {
	dst := image.NewNRGBA(b.img.Rect)
	copy(dst.Pix, b.img.Pix)
	return wrap(dst)
}

// DeepCopy returns an independent copy of b, or nil when b is nil.
func DeepCopy(b *Bitmap) *Bitmap {
	if b == nil {
		return nil
	}
	return b.Clone()
}

// ColorKeyTransparent replaces every opaque pixel exactly matching key with a
// fully transparent pixel and returns the number of pixels replaced.
func ColorKeyTransparent(b *Bitmap, key color.Color) int {
	if b == nil {
		return 0
	}
	k := color.NRGBAModel.Convert(key).(color.NRGBA)
	pix := b.img.Pix
	replaced := 0
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i] == k.R && pix[i+1] == k.G && pix[i+2] == k.B && pix[i+3] == k.A {
			pix[i], pix[i+1], pix[i+2], pix[i+3] = 0, 0, 0, 0
			replaced++
		}
	}
	if replaced > 0 {
		b.Touch()
	}
	return replaced
}
