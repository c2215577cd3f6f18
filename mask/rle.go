// Package mask - run-length encoded binary masks compatible with the COCO mask API.
//
// Masks are stored column-major: runs are counted down each column before moving
// right, and the first run always counts zeros (it may be zero-length).
package mask

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrSizeMismatch is returned when masks of different resolutions are combined.
var ErrSizeMismatch = errors.New("mask sizes differ")

// RLE is a run-length encoded binary mask of Height x Width pixels.
type RLE struct {
	Height int
	Width  int
	Counts []uint32
}

// Empty returns an all-zero mask of the given size.
func Empty(height, width int) RLE {
	return RLE{Height: height, Width: width, Counts: []uint32{uint32(height * width)}}
}

func (r RLE) String() string {
	return fmt.Sprintf("RLE %dx%d (%d runs, area %d)", r.Height, r.Width, len(r.Counts), r.Area())
}

// Area returns the number of foreground pixels.
func (r RLE) Area() int {
	area := 0
	for i := 1; i < len(r.Counts); i += 2 {
		area += int(r.Counts[i])
	}
	return area
}

// Encode run-length encodes a column-major bitmap. Any non-zero byte is foreground.
//
// Arguments:
// - bitmap: Height*Width bytes in column-major order.
// - height: Mask height.
// - width: Mask width.
//
// Returns:
// - The encoded mask.
// - error: If the bitmap length does not match height*width.
func Encode(bitmap []uint8, height, width int) (RLE, error) {
	if len(bitmap) != height*width {
		return RLE{}, errors.Wrapf(ErrSizeMismatch, "bitmap has %d pixels, want %dx%d", len(bitmap), height, width)
	}

	counts := make([]uint32, 0, 8)
	var prev uint8
	var run uint32
	for _, px := range bitmap {
		if px != 0 {
			px = 1
		}
		if px != prev {
			counts = append(counts, run)
			run = 0
			prev = px
		}
		run++
	}
	counts = append(counts, run)

	return RLE{Height: height, Width: width, Counts: counts}, nil
}

// Decode expands the mask into a column-major bitmap of 0/1 bytes.
func (r RLE) Decode() []uint8 {
	bitmap := make([]uint8, r.Height*r.Width)
	pos := 0
	var v uint8
	for _, c := range r.Counts {
		end := pos + int(c)
		if end > len(bitmap) {
			end = len(bitmap)
		}
		if v == 1 {
			for i := pos; i < end; i++ {
				bitmap[i] = 1
			}
		}
		pos = end
		v ^= 1
	}
	return bitmap
}

// Merge combines masks of identical size by union, or by intersection when
// intersect is set.
//
// Arguments:
// - rles: Masks to combine. All must share the same resolution.
// - intersect: Use intersection instead of union.
//
// Returns:
// - The combined mask. Merging zero masks yields the zero-size mask.
// - error: ErrSizeMismatch if resolutions differ.
//
// @example
// merged, err := mask.Merge([]mask.RLE{a, b}, false)
func Merge(rles []RLE, intersect bool) (RLE, error) {
	switch len(rles) {
	case 0:
		return RLE{}, nil
	case 1:
		return RLE{Height: rles[0].Height, Width: rles[0].Width, Counts: append([]uint32(nil), rles[0].Counts...)}, nil
	}

	h, w := rles[0].Height, rles[0].Width
	acc := append([]uint32(nil), rles[0].Counts...)

	for _, b := range rles[1:] {
		if b.Height != h || b.Width != w {
			return RLE{}, errors.Wrapf(ErrSizeMismatch, "%dx%d vs %dx%d", h, w, b.Height, b.Width)
		}
		acc = mergePair(acc, b.Counts, intersect)
	}

	return RLE{Height: h, Width: w, Counts: acc}, nil
}

// mergePair walks both run lists in lockstep, emitting a run boundary whenever
// the combined value flips.
func mergePair(a, b []uint32, intersect bool) []uint32 {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	out := make([]uint32, 0, len(a)+len(b))
	ca, cb := a[0], b[0]
	ia, ib := 1, 1
	va, vb, v := false, false, false
	var cc uint32

	for more := true; more; {
		c := ca
		if cb < c {
			c = cb
		}
		cc += c

		var remaining uint32
		ca -= c
		if ca == 0 && ia < len(a) {
			ca = a[ia]
			ia++
			va = !va
		}
		remaining += ca
		cb -= c
		if cb == 0 && ib < len(b) {
			cb = b[ib]
			ib++
			vb = !vb
		}
		remaining += cb

		prev := v
		if intersect {
			v = va && vb
		} else {
			v = va || vb
		}
		more = remaining > 0
		if v != prev || !more {
			out = append(out, cc)
			cc = 0
		}
	}

	return out
}
