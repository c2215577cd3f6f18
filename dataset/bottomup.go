package dataset

import (
	"github.com/nvr-ai/go-pose/coco"
	"github.com/nvr-ai/go-pose/mask"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// RegionEncoder turns segmentation descriptors into run-length masks and
// unions them.
type RegionEncoder interface {
	// Encode returns one mask per region part of seg.
	Encode(seg *coco.Segmentation, height, width int) ([]mask.RLE, error)
	// Merge returns the union of rles.
	Merge(rles []mask.RLE) (mask.RLE, error)
}

// COCORegions encodes segmentations with the mask package.
type COCORegions struct{}

// Encode rasterises every polygon of seg separately. An RLE descriptor yields
// a single mask at its own recorded size.
func (COCORegions) Encode(seg *coco.Segmentation, height, width int) ([]mask.RLE, error) {
	if seg.IsEmpty() {
		return nil, nil
	}
	if seg.RLE == nil {
		return mask.FromPolygons(seg.Polygons, height, width)
	}

	h, w := seg.RLE.Size[0], seg.RLE.Size[1]
	if seg.RLE.Counts != nil {
		return []mask.RLE{mask.FromCounts(seg.RLE.Counts, h, w)}, nil
	}
	rle, err := mask.FromCompressedString(seg.RLE.CompressedCounts, h, w)
	if err != nil {
		return nil, err
	}
	return []mask.RLE{rle}, nil
}

// Merge unions rles.
func (COCORegions) Merge(rles []mask.RLE) (mask.RLE, error) {
	return mask.Merge(rles, false)
}

// imageGroup is the run of records sharing one image id.
type imageGroup struct {
	imageID int64
	records []InstanceRecord
}

// groupByImage partitions records by image id, keeping the order in which
// images first appear and the order of records within each image.
func groupByImage(records []InstanceRecord) []imageGroup {
	var groups []imageGroup
	pos := make(map[int64]int)
	for _, r := range records {
		i, ok := pos[r.ImageID]
		if !ok {
			i = len(groups)
			pos[r.ImageID] = i
			groups = append(groups, imageGroup{imageID: r.ImageID})
		}
		groups[i].records = append(groups[i].records, r)
	}
	return groups
}

// BottomupRecords aggregates instances into one record per image.
//
// Records are grouped by image id regardless of input order. Images without a
// valid instance are dropped. Per-instance fields of the valid instances are
// stacked along the first axis; crowd regions and regions of instances without
// keypoints are unioned into MaskInvalid.
//
// Arguments:
// - records: Normalized instances, in any order.
// - regions: Segmentation encoder used for the invalid-region mask.
//
// Returns:
// - []ImageRecord: One record per image with at least one valid instance.
// - error: Error if a segmentation cannot be encoded or merged.
func BottomupRecords(records []InstanceRecord, regions RegionEncoder) ([]ImageRecord, error) {
	var out []ImageRecord

	for _, group := range groupByImage(records) {
		var valid, invalid []InstanceRecord
		for _, r := range group.records {
			if IsValidInstance(r) {
				valid = append(valid, r)
			} else {
				invalid = append(invalid, r)
			}
		}
		if len(valid) == 0 {
			continue
		}

		rec, err := aggregate(group.imageID, valid)
		if err != nil {
			return nil, errors.Wrapf(err, "image %d", group.imageID)
		}

		rec.MaskInvalid, err = invalidMask(invalid, rec.ImageShape, regions)
		if err != nil {
			return nil, errors.Wrapf(err, "image %d", group.imageID)
		}

		out = append(out, rec)
	}

	return out, nil
}

// aggregate stacks the fields of valid instances. Image-level fields come from
// the first one.
func aggregate(imageID int64, valid []InstanceRecord) (ImageRecord, error) {
	first := valid[0]
	n := len(valid)

	rec := ImageRecord{
		ImageID:      imageID,
		ImageFile:    first.ImageFile,
		ImageShape:   first.ImageShape,
		Sigmas:       first.Sigmas,
		BBoxScore:    make([]float32, 0, n),
		NumKeypoints: make([]int, 0, n),
		IsCrowd:      make([]bool, 0, n),
		Segmentation: make([]*coco.Segmentation, 0, n),
		ID:           make([]int64, 0, n),
	}

	boxes := make([]float32, 0, 4*n)
	keypoints := make([]*tensor.Dense, 0, n)
	visible := make([]*tensor.Dense, 0, n)
	for _, r := range valid {
		boxes = append(boxes, r.BBox.Slice()...)
		rec.BBoxScore = append(rec.BBoxScore, r.BBoxScore)
		rec.NumKeypoints = append(rec.NumKeypoints, r.NumKeypoints)
		rec.IsCrowd = append(rec.IsCrowd, r.IsCrowd)
		rec.Segmentation = append(rec.Segmentation, r.Segmentation)
		rec.ID = append(rec.ID, r.ID)
		keypoints = append(keypoints, r.Keypoints)
		visible = append(visible, r.KeypointsVisible)
	}
	rec.BBox = tensor.New(tensor.WithShape(n, 4), tensor.WithBacking(boxes))

	var err error
	if rec.Keypoints, err = concatInstances(keypoints); err != nil {
		return ImageRecord{}, errors.Wrap(err, "concat keypoints")
	}
	if rec.KeypointsVisible, err = concatInstances(visible); err != nil {
		return ImageRecord{}, errors.Wrap(err, "concat keypoint visibility")
	}

	return rec, nil
}

// concatInstances joins tensors along the instance axis into a new tensor.
func concatInstances(ts []*tensor.Dense) (*tensor.Dense, error) {
	if len(ts) == 1 {
		return ts[0].Clone().(*tensor.Dense), nil
	}
	return ts[0].Concat(0, ts[1:]...)
}

// invalidMask unions the regions that must not be penalised: crowd regions
// (merged into one unit first) and every part of instances that have no
// annotated keypoints. Instances invalid only because of their box add nothing.
// With nothing to add the result is an all-zero mask at image resolution.
func invalidMask(invalid []InstanceRecord, shape ImageShape, regions RegionEncoder) (mask.RLE, error) {
	h, w := shape.Height(), shape.Width()

	var rles []mask.RLE
	for _, r := range invalid {
		if r.Segmentation.IsEmpty() {
			continue
		}

		switch {
		case r.IsCrowd:
			parts, err := regions.Encode(r.Segmentation, h, w)
			if err != nil {
				return mask.RLE{}, errors.Wrapf(err, "crowd instance %d", r.ID)
			}
			unit, err := regions.Merge(parts)
			if err != nil {
				return mask.RLE{}, errors.Wrapf(err, "crowd instance %d", r.ID)
			}
			rles = append(rles, unit)
		case r.NumKeypoints == 0:
			parts, err := regions.Encode(r.Segmentation, h, w)
			if err != nil {
				return mask.RLE{}, errors.Wrapf(err, "instance %d", r.ID)
			}
			rles = append(rles, parts...)
		}
	}

	if len(rles) == 0 {
		return mask.Empty(h, w), nil
	}
	merged, err := regions.Merge(rles)
	if err != nil {
		return mask.RLE{}, errors.Wrap(err, "merge invalid regions")
	}
	return merged, nil
}
