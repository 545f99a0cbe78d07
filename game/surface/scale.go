package surface

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/dgraph-io/ristretto/v2"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/wricardo/tileview/game/atlas"
)

// DefaultScaleCacheCost bounds the cached scaled pixels, in bytes.
const DefaultScaleCacheCost = 64 << 20

// MaxScaledPixels bounds the scaled bitmaps that are built whole and cached.
// Larger targets are drawn straight into the visible part of the destination.
const MaxScaledPixels = 1 << 22

// Scaler resizes bitmaps for drawing and caches the results. A nil *Scaler
// is valid and scales without caching.
type Scaler struct {
	interp xdraw.Interpolator
	cache  *ristretto.Cache[string, *image.NRGBA]
}

// NewScaler creates a caching scaler holding up to maxCost bytes of scaled
// pixels. A nil interpolator selects Catmull-Rom.
func NewScaler(maxCost int64, interp xdraw.Interpolator) (*Scaler, error) {
	if maxCost <= 0 {
		maxCost = DefaultScaleCacheCost
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, *image.NRGBA]{
		NumCounters: 10_000,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create scale cache: %w", err)
	}
	if interp == nil {
		interp = xdraw.CatmullRom
	}
	return &Scaler{interp: interp, cache: cache}, nil
}

// Scaled returns b resized to w×h. The result must not be modified.
func (s *Scaler) Scaled(b *atlas.Bitmap, w, h int) image.Image {
	if b.Width() == w && b.Height() == h {
		return b.Image()
	}

	var key string
	if s != nil && s.cache != nil {
		key = fmt.Sprintf("%s/%dx%d", b.Key(), w, h)
		if img, ok := s.cache.Get(key); ok {
			return img
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	s.interpolator().Scale(dst, dst.Bounds(), b.Image(), b.Bounds(), xdraw.Src, nil)

	if key != "" {
		s.cache.Set(key, dst, int64(len(dst.Pix)))
	}
	return dst
}

func (s *Scaler) interpolator() xdraw.Interpolator {
	if s != nil && s.interp != nil {
		return s.interp
	}
	return xdraw.CatmullRom
}

// Close releases the cache. The scaler keeps working without caching.
func (s *Scaler) Close() {
	if s == nil || s.cache == nil {
		return
	}
	s.cache.Close()
	s.cache = nil
}

// drawScaled draws b scaled into r on dst, blending over what is there.
func (s *Scaler) drawScaled(dst draw.Image, r image.Rectangle, b *atlas.Bitmap) {
	if b == nil || r.Dx() <= 0 || r.Dy() <= 0 {
		return
	}
	if !r.Overlaps(dst.Bounds()) {
		return
	}
	if int64(r.Dx())*int64(r.Dy()) > MaxScaledPixels {
		s.drawClipped(dst, r, b)
		return
	}
	draw.Draw(dst, r, s.Scaled(b, r.Dx(), r.Dy()), image.Point{}, draw.Over)
}

// drawClipped maps b onto r with an affine transform. Only the pixels of r
// inside dst are computed and nothing the size of r is allocated.
func (s *Scaler) drawClipped(dst draw.Image, r image.Rectangle, b *atlas.Bitmap) {
	sr := b.Bounds()
	sx := float64(r.Dx()) / float64(sr.Dx())
	sy := float64(r.Dy()) / float64(sr.Dy())
	m := f64.Aff3{
		sx, 0, float64(r.Min.X) - float64(sr.Min.X)*sx,
		0, sy, float64(r.Min.Y) - float64(sr.Min.Y)*sy,
	}
	s.interpolator().Transform(dst, m, b.Image(), sr, xdraw.Over, nil)
}
