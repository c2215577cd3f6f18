package dataset

import (
	"path/filepath"

	"github.com/nvr-ai/go-pose/coco"
	"github.com/nvr-ai/go-pose/common"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ImageLookup resolves image metadata by id.
type ImageLookup interface {
	LoadImages(ids ...int64) ([]coco.Image, error)
}

// DetectionRecords turns person detections into topdown records with
// placeholder keypoints: all-zero coordinates and all-one visibility. Boxes are
// used as given, without clipping. Detections of any class other than person
// are skipped. Record ids are assigned sequentially from 0 in emission order.
//
// Arguments:
// - dets: Detection results.
// - images: Image metadata lookup; ground-truth annotations are never consulted.
// - imgPrefix: Directory joined onto image file names.
// - meta: Dataset meta information supplying K and the sigmas.
//
// Returns:
// - []InstanceRecord: One record per person detection.
// - error: Error if a detection references an unknown image.
//
// @example
// dets, _ := coco.LoadDetections("person_detection_results/val2017.json")
// idx, _ := coco.Load("annotations/person_keypoints_val2017.json")
// records, err := DetectionRecords(dets, idx, "val2017", COCOMetaInfo())
func DetectionRecords(dets []coco.Detection, images ImageLookup, imgPrefix string, meta MetaInfo) ([]InstanceRecord, error) {
	k := meta.NumKeypoints()
	records := make([]InstanceRecord, 0, len(dets))

	var nextID int64
	for i, det := range dets {
		if det.CategoryID != coco.PersonCategoryID {
			continue
		}

		imgs, err := images.LoadImages(det.ImageID)
		if err != nil {
			return nil, errors.Wrapf(err, "detection %d", i)
		}
		img := imgs[0]

		box, ok := common.NewBoundingBox(det.BBox)
		if !ok {
			return nil, errors.Wrapf(coco.ErrMalformedDetections, "detection %d has %d bbox values", i, len(det.BBox))
		}

		records = append(records, InstanceRecord{
			ImageID:          det.ImageID,
			ImageFile:        filepath.Join(imgPrefix, img.FileName),
			ImageShape:       ImageShape{img.Height, img.Width, imageChannels},
			BBox:             box,
			BBoxScore:        det.Score,
			Keypoints:        tensor.New(tensor.Of(tensor.Float32), tensor.WithShape(1, k, 2)),
			KeypointsVisible: tensor.Ones(tensor.Float32, 1, k, 1),
			ID:               nextID,
			Sigmas:           meta.Sigmas,
		})
		nextID++
	}

	return records, nil
}
