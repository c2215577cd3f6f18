package mask

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// ErrInvalidPolygon is returned for polygons without a single vertex.
var ErrInvalidPolygon = errors.New("polygon has no vertices")

// polygonUpsample is the sub-pixel factor used when tracing polygon edges.
const polygonUpsample = 5.0

// FromPolygon rasterises a closed polygon given as flat [x0, y0, x1, y1, ...]
// coordinates. Pixel membership follows the COCO mask API exactly so that
// areas agree with masks produced by other COCO tooling.
//
// Arguments:
// - xy: Flat vertex coordinates. A trailing odd value is ignored. Polygons with
// fewer than three vertices trace a line and usually cover no pixel.
// - height: Mask height.
// - width: Mask width.
//
// Returns:
// - The encoded mask.
// - error: ErrInvalidPolygon if there is no vertex.
func FromPolygon(xy []float64, height, width int) (RLE, error) {
	k := len(xy) / 2
	if k == 0 {
		return RLE{}, errors.Wrapf(ErrInvalidPolygon, "got %d coordinates", len(xy))
	}

	// Upsample vertices onto an integer grid and close the ring.
	x := make([]int, k+1)
	y := make([]int, k+1)
	for j := 0; j < k; j++ {
		x[j] = int(polygonUpsample*xy[2*j] + .5)
		y[j] = int(polygonUpsample*xy[2*j+1] + .5)
	}
	x[k], y[k] = x[0], y[0]

	// Trace every edge densely along its major axis.
	var u, v []int
	for j := 0; j < k; j++ {
		xs, xe, ys, ye := x[j], x[j+1], y[j], y[j+1]
		dx, dy := absInt(xe-xs), absInt(ys-ye)
		flip := (dx >= dy && xs > xe) || (dx < dy && ys > ye)
		if flip {
			xs, xe = xe, xs
			ys, ye = ye, ys
		}

		if dx >= dy {
			var s float64
			if dx != 0 {
				s = float64(ye-ys) / float64(dx)
			}
			for d := 0; d <= dx; d++ {
				t := d
				if flip {
					t = dx - d
				}
				u = append(u, t+xs)
				v = append(v, int(float64(ys)+s*float64(t)+.5))
			}
		} else {
			s := float64(xe-xs) / float64(dy)
			for d := 0; d <= dy; d++ {
				t := d
				if flip {
					t = dy - d
				}
				v = append(v, t+ys)
				u = append(u, int(float64(xs)+s*float64(t)+.5))
			}
		}
	}

	// Keep the points where the trace crosses a pixel column and downsample them.
	bounds := make([]uint32, 0, len(u)+1)
	for j := 1; j < len(u); j++ {
		if u[j] == u[j-1] {
			continue
		}
		xd := float64(u[j])
		if u[j] >= u[j-1] {
			xd = float64(u[j] - 1)
		}
		xd = (xd+.5)/polygonUpsample - .5
		if math.Floor(xd) != xd || xd < 0 || xd > float64(width-1) {
			continue
		}

		yd := float64(v[j-1])
		if v[j] < v[j-1] {
			yd = float64(v[j])
		}
		yd = (yd+.5)/polygonUpsample - .5
		if yd < 0 {
			yd = 0
		} else if yd > float64(height) {
			yd = float64(height)
		}
		yd = math.Ceil(yd)

		bounds = append(bounds, uint32(int(xd)*height+int(yd)))
	}
	bounds = append(bounds, uint32(height*width))

	// Column-major boundary offsets become alternating run lengths.
	sort.Slice(bounds, func(i, j int) bool { return bounds[i] < bounds[j] })
	var p uint32
	for j, t := range bounds {
		bounds[j] = t - p
		p = t
	}

	counts := make([]uint32, 0, len(bounds))
	counts = append(counts, bounds[0])
	for j := 1; j < len(bounds); {
		if bounds[j] > 0 {
			counts = append(counts, bounds[j])
			j++
			continue
		}
		j++
		if j < len(bounds) {
			counts[len(counts)-1] += bounds[j]
			j++
		}
	}

	return RLE{Height: height, Width: width, Counts: counts}, nil
}

// FromBBox rasterises an (x, y, w, h) box by tracing it as a polygon.
func FromBBox(x, y, w, h float64, height, width int) (RLE, error) {
	return FromPolygon([]float64{x, y, x, y + h, x + w, y + h, x + w, y}, height, width)
}

// FromPolygons rasterises each polygon into its own mask.
func FromPolygons(polygons [][]float64, height, width int) ([]RLE, error) {
	rles := make([]RLE, 0, len(polygons))
	for i, poly := range polygons {
		rle, err := FromPolygon(poly, height, width)
		if err != nil {
			return nil, errors.Wrapf(err, "polygon %d", i)
		}
		rles = append(rles, rle)
	}
	return rles, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
