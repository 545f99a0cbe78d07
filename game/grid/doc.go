// Package grid stores tile images in a fixed layer × column × row lattice.
//
// Each slot holds an optional *atlas.Bitmap. Slots share handles freely: Fill
// places the same handle everywhere, while FillLayerCopies gives every slot
// its own deep copy. Layer 0 is the bottom of the stack; TopmostAt scans from
// the highest layer down and returns the first occupied slot.
//
// Every index is bounds-checked and violations are reported as
// ErrOutOfBounds. Dimensions are fixed at construction.
package grid
