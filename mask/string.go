package mask

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrInvalidCounts is returned when compressed counts cannot be decoded.
var ErrInvalidCounts = errors.New("invalid compressed rle counts")

// CompressedString encodes the counts in the COCO compressed text form: each
// count (after the third, as a delta to the count two places back) is written
// as 5-bit groups with a continuation bit, offset into printable ASCII.
func (r RLE) CompressedString() string {
	out := make([]byte, 0, len(r.Counts)*2)
	for i, c := range r.Counts {
		x := int64(c)
		if i > 2 {
			x -= int64(r.Counts[i-2])
		}
		for more := true; more; {
			b := byte(x & 0x1f)
			x >>= 5
			if b&0x10 != 0 {
				more = x != -1
			} else {
				more = x != 0
			}
			if more {
				b |= 0x20
			}
			out = append(out, b+48)
		}
	}
	return string(out)
}

// FromCompressedString decodes counts produced by CompressedString.
//
// Arguments:
// - s: Compressed counts.
// - height: Mask height.
// - width: Mask width.
//
// Returns:
// - The decoded mask.
// - error: ErrInvalidCounts if s is truncated or contains bytes outside the alphabet.
func FromCompressedString(s string, height, width int) (RLE, error) {
	counts := make([]uint32, 0, len(s))
	for p := 0; p < len(s); {
		var x int64
		k := 0
		for more := true; more; {
			if p >= len(s) {
				return RLE{}, errors.Wrap(ErrInvalidCounts, "truncated count")
			}
			if s[p] < 48 || s[p] > 48+0x3f {
				return RLE{}, errors.Wrapf(ErrInvalidCounts, "byte %q at %d", s[p], p)
			}
			c := int64(s[p]) - 48
			x |= (c & 0x1f) << uint(5*k)
			more = c&0x20 != 0
			p++
			k++
			if !more && c&0x10 != 0 {
				x |= -1 << uint(5*k)
			}
		}
		if m := len(counts); m > 2 {
			x += int64(counts[m-2])
		}
		counts = append(counts, uint32(x))
	}
	return RLE{Height: height, Width: width, Counts: counts}, nil
}

// FromCounts wraps already-expanded counts as a mask.
func FromCounts(counts []uint32, height, width int) RLE {
	return RLE{Height: height, Width: width, Counts: append([]uint32(nil), counts...)}
}

type rleJSON struct {
	Size   [2]int `json:"size"`
	Counts string `json:"counts"`
}

// MarshalJSON writes the mask as {"size": [h, w], "counts": "<compressed>"}.
func (r RLE) MarshalJSON() ([]byte, error) {
	return json.Marshal(rleJSON{Size: [2]int{r.Height, r.Width}, Counts: r.CompressedString()})
}

// UnmarshalJSON reads the form written by MarshalJSON.
func (r *RLE) UnmarshalJSON(data []byte) error {
	var raw rleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decode rle")
	}
	decoded, err := FromCompressedString(raw.Counts, raw.Size[0], raw.Size[1])
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}
