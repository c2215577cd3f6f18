package coco

import (
	"github.com/nvr-ai/go-pose/util"
	"github.com/pkg/errors"
)

// ErrMalformedDetections is returned when a detection file is not a list of
// mapping objects with usable boxes.
var ErrMalformedDetections = errors.New("detection results must be a list of objects")

// Detection is one externally produced detection in COCO results format.
type Detection struct {
	ImageID    int64 `json:"image_id" yaml:"image_id"`
	CategoryID int   `json:"category_id" yaml:"category_id"`
	// BBox holds at least x, y, w, h; extra values are ignored.
	BBox  []float32 `json:"bbox" yaml:"bbox"`
	Score float32   `json:"score" yaml:"score"`
}

// LoadDetections reads a JSON or YAML detection result file.
//
// Arguments:
// - path: Path to the result file.
//
// Returns:
// - []Detection: Detections in file order.
// - error: util.ErrFileNotFound if the file is missing; ErrMalformedDetections if
// the content is not a list of objects or a box has fewer than four values.
//
// @example
// dets, err := coco.LoadDetections("person_detection_results/val2017.json")
func LoadDetections(path string) ([]Detection, error) {
	if err := util.CheckFileExist(path); err != nil {
		return nil, errors.Wrap(err, "load detection file")
	}

	var raw []*Detection
	if err := util.Load(path, &raw); err != nil {
		if errors.Is(err, util.ErrUnsupportedFormat) {
			return nil, err
		}
		return nil, errors.Wrapf(ErrMalformedDetections, "%q: %v", path, err)
	}

	dets := make([]Detection, 0, len(raw))
	for i, det := range raw {
		if det == nil {
			return nil, errors.Wrapf(ErrMalformedDetections, "%q: entry %d is null", path, i)
		}
		if len(det.BBox) < 4 {
			return nil, errors.Wrapf(ErrMalformedDetections, "%q: entry %d has %d bbox values", path, i, len(det.BBox))
		}
		dets = append(dets, *det)
	}

	return dets, nil
}
