package common

import (
	"fmt"

	"github.com/chewxy/math32"
	"gorgonia.org/tensor"
)

// BoundingBox is an axis-aligned box in (x, y, width, height) form.
//
// Width and height are not forced positive: a box clipped entirely outside an
// image keeps its non-positive extent so that callers can reject it.
type BoundingBox struct {
	X, Y, W, H float32
}

// NewBoundingBox builds a box from the first four values of an xywh slice.
//
// Arguments:
// - xywh: At least four values; anything after the fourth is ignored.
//
// Returns:
// - The box and true, or the zero box and false if fewer than four values were given.
func NewBoundingBox(xywh []float32) (BoundingBox, bool) {
	if len(xywh) < 4 {
		return BoundingBox{}, false
	}
	return BoundingBox{X: xywh[0], Y: xywh[1], W: xywh[2], H: xywh[3]}, true
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("Box (%f, %f) %fx%f", b.X, b.Y, b.W, b.H)
}

// Corners returns the top-left and bottom-right corners.
func (b BoundingBox) Corners() (x1, y1, x2, y2 float32) {
	return b.X, b.Y, b.X + b.W, b.Y + b.H
}

// Clip clamps both corners into [0, width-1] x [0, height-1] and re-derives the
// extent from the clipped corners.
//
// Arguments:
// - width: Image width in pixels.
// - height: Image height in pixels.
//
// Returns:
// - The clipped box. Its W or H is zero or negative when the source box lay
// outside the image or was degenerate.
//
// @example
// box := BoundingBox{X: 990, Y: 10, W: 50, H: 50}
// clipped := box.Clip(1000, 800) // {990, 10, 9, 50}
func (b BoundingBox) Clip(width, height int) BoundingBox {
	x1, y1, x2, y2 := b.Corners()
	maxX := float32(width - 1)
	maxY := float32(height - 1)

	x1 = clamp(x1, 0, maxX)
	y1 = clamp(y1, 0, maxY)
	x2 = clamp(x2, 0, maxX)
	y2 = clamp(y2, 0, maxY)

	return BoundingBox{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// IsEmpty reports whether the box has no positive area.
func (b BoundingBox) IsEmpty() bool {
	return b.W <= 0 || b.H <= 0
}

// Area returns W*H, or zero for an empty box.
func (b BoundingBox) Area() float32 {
	if b.IsEmpty() {
		return 0
	}
	return b.W * b.H
}

// Slice returns the box as [x, y, w, h].
func (b BoundingBox) Slice() []float32 {
	return []float32{b.X, b.Y, b.W, b.H}
}

// Tensor returns the box as a 1x4 float32 tensor.
func (b BoundingBox) Tensor() *tensor.Dense {
	return tensor.New(tensor.WithShape(1, 4), tensor.WithBacking(b.Slice()))
}

// clamp mirrors numpy.clip: lo wins if lo > hi.
func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(v, hi))
}
