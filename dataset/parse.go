package dataset

import (
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-pose/coco"
	"github.com/nvr-ai/go-pose/common"
	"gorgonia.org/tensor"
)

// imageChannels is the channel count reported in every ImageShape.
const imageChannels = 3

// ParseInstance normalizes one raw annotation into an InstanceRecord.
//
// The box is clipped into the image and its extent re-derived from the clipped
// corners, so boxes outside the image end up with a non-positive width or
// height; rejecting them is left to IsValidInstance. Keypoint triples are split
// into coordinates and visibility, with visibility capped at 1.
//
// Arguments:
// - ann: The raw annotation. len(ann.Keypoints) must be 3*K.
// - img: The image the annotation belongs to.
// - imgPrefix: Directory joined onto img.FileName.
// - meta: Dataset meta information supplying the sigmas.
//
// Returns:
// - The normalized record.
//
// @example
// rec := ParseInstance(ann, img, "data/coco/val2017", COCOMetaInfo())
// fmt.Println(rec.BBox, rec.NumKeypoints)
func ParseInstance(ann coco.Annotation, img coco.Image, imgPrefix string, meta MetaInfo) InstanceRecord {
	box, _ := common.NewBoundingBox(ann.BBox)

	k := len(ann.Keypoints) / 3
	xy := make([]float32, 0, 2*k)
	vis := make([]float32, 0, k)
	annotated := 0
	for i := 0; i < k; i++ {
		x, y, v := ann.Keypoints[3*i], ann.Keypoints[3*i+1], ann.Keypoints[3*i+2]
		xy = append(xy, x, y)
		vis = append(vis, math32.Min(1, v))
		if math32.Max(x, y) != 0 {
			annotated++
		}
	}

	numKeypoints := annotated
	if ann.NumKeypoints != nil {
		numKeypoints = *ann.NumKeypoints
	}

	var seg *coco.Segmentation
	if ann.Segmentation != nil {
		s := *ann.Segmentation
		seg = &s
	}

	return InstanceRecord{
		ImageID:          ann.ImageID,
		ImageFile:        filepath.Join(imgPrefix, img.FileName),
		ImageShape:       ImageShape{img.Height, img.Width, imageChannels},
		BBox:             box.Clip(img.Width, img.Height),
		BBoxScore:        1,
		NumKeypoints:     numKeypoints,
		Keypoints:        tensor.New(tensor.WithShape(1, k, 2), tensor.WithBacking(xy)),
		KeypointsVisible: tensor.New(tensor.WithShape(1, k, 1), tensor.WithBacking(vis)),
		IsCrowd:          ann.Crowd(),
		Segmentation:     seg,
		ID:               ann.ID,
		Sigmas:           meta.Sigmas,
	}
}
