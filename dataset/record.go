package dataset

import (
	"encoding/json"

	"github.com/nvr-ai/go-pose/coco"
	"github.com/nvr-ai/go-pose/common"
	"github.com/nvr-ai/go-pose/mask"
	"gorgonia.org/tensor"
)

// ImageShape is (height, width, channels).
type ImageShape [3]int

// Height returns the image height.
func (s ImageShape) Height() int { return s[0] }

// Width returns the image width.
func (s ImageShape) Width() int { return s[1] }

// InstanceRecord is one annotated or detected object instance.
//
// Records are built once per load and never modified afterwards.
type InstanceRecord struct {
	ImageID    int64
	ImageFile  string
	ImageShape ImageShape
	// BBox is clipped to the image for ground truth, raw for detections.
	BBox      common.BoundingBox
	BBoxScore float32
	// NumKeypoints counts the annotated keypoint slots.
	NumKeypoints int
	// Keypoints is a 1xKx2 float32 tensor of (x, y).
	Keypoints *tensor.Dense
	// KeypointsVisible is a 1xKx1 float32 tensor of visibility weights <= 1.
	KeypointsVisible *tensor.Dense
	IsCrowd          bool
	Segmentation     *coco.Segmentation
	ID               int64
	Sigmas           []float32
}

// ImageRecord aggregates every valid instance of one image.
type ImageRecord struct {
	ImageID    int64
	ImageFile  string
	ImageShape ImageShape
	Sigmas     []float32

	// Per-instance fields, N valid instances along the first axis.
	BBox             *tensor.Dense // Nx4
	BBoxScore        []float32
	NumKeypoints     []int
	Keypoints        *tensor.Dense // NxKx2
	KeypointsVisible *tensor.Dense // NxKx1
	IsCrowd          []bool
	Segmentation     []*coco.Segmentation
	ID               []int64

	// MaskInvalid covers crowd regions and instances without keypoints.
	MaskInvalid mask.RLE
}

// NumInstances returns N.
func (r ImageRecord) NumInstances() int {
	return len(r.ID)
}

type instanceJSON struct {
	ImageID          int64              `json:"image_id"`
	ImageFile        string             `json:"image_file"`
	ImageShape       ImageShape         `json:"image_shape"`
	BBox             [][]float32        `json:"bbox"`
	BBoxScore        []float32          `json:"bbox_score"`
	NumKeypoints     int                `json:"num_keypoints"`
	Keypoints        [][][]float32      `json:"keypoints"`
	KeypointsVisible [][]float32        `json:"keypoints_visible"`
	IsCrowd          bool               `json:"iscrowd"`
	Segmentation     *coco.Segmentation `json:"segmentation,omitempty"`
	ID               int64              `json:"id"`
	Sigmas           []float32          `json:"sigmas"`
}

// MarshalJSON flattens tensors into nested lists.
func (r InstanceRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(instanceJSON{
		ImageID:          r.ImageID,
		ImageFile:        r.ImageFile,
		ImageShape:       r.ImageShape,
		BBox:             [][]float32{r.BBox.Slice()},
		BBoxScore:        []float32{r.BBoxScore},
		NumKeypoints:     r.NumKeypoints,
		Keypoints:        nested3(r.Keypoints),
		KeypointsVisible: nested2(r.KeypointsVisible),
		IsCrowd:          r.IsCrowd,
		Segmentation:     r.Segmentation,
		ID:               r.ID,
		Sigmas:           r.Sigmas,
	})
}

type imageJSON struct {
	ImageID          int64                `json:"image_id"`
	ImageFile        string               `json:"image_file"`
	ImageShape       ImageShape           `json:"image_shape"`
	Sigmas           []float32            `json:"sigmas"`
	BBox             [][]float32          `json:"bbox"`
	BBoxScore        []float32            `json:"bbox_score"`
	NumKeypoints     []int                `json:"num_keypoints"`
	Keypoints        [][][]float32        `json:"keypoints"`
	KeypointsVisible [][]float32          `json:"keypoints_visible"`
	IsCrowd          []bool               `json:"iscrowd"`
	Segmentation     []*coco.Segmentation `json:"segmentation"`
	ID               []int64              `json:"id"`
	MaskInvalidRLE   mask.RLE             `json:"mask_invalid_rle"`
}

// MarshalJSON flattens tensors into nested lists and compresses the mask.
func (r ImageRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(imageJSON{
		ImageID:          r.ImageID,
		ImageFile:        r.ImageFile,
		ImageShape:       r.ImageShape,
		Sigmas:           r.Sigmas,
		BBox:             nested2(r.BBox),
		BBoxScore:        r.BBoxScore,
		NumKeypoints:     r.NumKeypoints,
		Keypoints:        nested3(r.Keypoints),
		KeypointsVisible: nested2(r.KeypointsVisible),
		IsCrowd:          r.IsCrowd,
		Segmentation:     r.Segmentation,
		ID:               r.ID,
		MaskInvalidRLE:   r.MaskInvalid,
	})
}

func float32s(t *tensor.Dense) []float32 {
	if t == nil {
		return nil
	}
	return t.Data().([]float32)
}

// nested2 splits an AxB tensor into rows. An AxBx1 tensor has the same layout
// and comes out squeezed.
func nested2(t *tensor.Dense) [][]float32 {
	data := float32s(t)
	if data == nil {
		return nil
	}
	shape := t.Shape()
	out := make([][]float32, shape[0])
	for i := range out {
		out[i] = data[i*shape[1] : (i+1)*shape[1]]
	}
	return out
}

// nested3 splits an AxBxC tensor into nested rows.
func nested3(t *tensor.Dense) [][][]float32 {
	data := float32s(t)
	if data == nil {
		return nil
	}
	shape := t.Shape()
	out := make([][][]float32, shape[0])
	for i := range out {
		out[i] = make([][]float32, shape[1])
		for j := range out[i] {
			off := (i*shape[1] + j) * shape[2]
			out[i][j] = data[off : off+shape[2]]
		}
	}
	return out
}
