// Package coco - COCO keypoint annotation files and detection result files.
package coco

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Image is one entry of the "images" section.
type Image struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Annotation is one entry of the "annotations" section of a keypoint file.
type Annotation struct {
	ID         int64     `json:"id"`
	ImageID    int64     `json:"image_id"`
	CategoryID int       `json:"category_id"`
	BBox       []float32 `json:"bbox"`
	// Keypoints holds K (x, y, v) triples, flattened.
	Keypoints []float32 `json:"keypoints"`
	// NumKeypoints is nil when the file omits the field.
	NumKeypoints *int          `json:"num_keypoints,omitempty"`
	IsCrowd      int           `json:"iscrowd"`
	Area         float64       `json:"area,omitempty"`
	Segmentation *Segmentation `json:"segmentation,omitempty"`
}

// Crowd reports whether the annotation marks a crowd region.
func (a Annotation) Crowd() bool {
	return a.IsCrowd != 0
}

// Category is one entry of the "categories" section.
type Category struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Supercategory string   `json:"supercategory,omitempty"`
	Keypoints     []string `json:"keypoints,omitempty"`
	Skeleton      [][2]int `json:"skeleton,omitempty"`
}

// File is the top-level layout of an annotation file.
type File struct {
	Images      []Image      `json:"images"`
	Annotations []Annotation `json:"annotations"`
	Categories  []Category   `json:"categories"`
}

// RLEObject is the mapping form of a segmentation. Exactly one of Counts and
// CompressedCounts is set: the file stores either a list of run lengths or the
// compressed string form.
type RLEObject struct {
	// Size is [height, width].
	Size             [2]int
	Counts           []uint32
	CompressedCounts string
}

// Segmentation is the region descriptor of an annotation: either a list of
// polygons or a single run-length encoded mask.
type Segmentation struct {
	Polygons [][]float64
	RLE      *RLEObject
}

// IsEmpty reports whether the descriptor carries no region at all.
func (s *Segmentation) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.RLE == nil && len(s.Polygons) == 0
}

// UnmarshalJSON accepts a polygon list or an RLE mapping.
func (s *Segmentation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = Segmentation{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var polys [][]float64
		if err := json.Unmarshal(data, &polys); err != nil {
			return errors.Wrap(err, "decode polygon segmentation")
		}
		*s = Segmentation{Polygons: polys}
		return nil
	case len(data) > 0 && data[0] == '{':
		var raw struct {
			Size   [2]int          `json:"size"`
			Counts json.RawMessage `json:"counts"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return errors.Wrap(err, "decode rle segmentation")
		}
		obj := &RLEObject{Size: raw.Size}
		counts := bytes.TrimSpace(raw.Counts)
		if len(counts) > 0 && counts[0] == '"' {
			if err := json.Unmarshal(counts, &obj.CompressedCounts); err != nil {
				return errors.Wrap(err, "decode compressed counts")
			}
		} else if err := json.Unmarshal(counts, &obj.Counts); err != nil {
			return errors.Wrap(err, "decode counts")
		}
		*s = Segmentation{RLE: obj}
		return nil
	default:
		return errors.Errorf("unsupported segmentation %q", string(data))
	}
}

// MarshalJSON writes the form the descriptor was read from.
func (s Segmentation) MarshalJSON() ([]byte, error) {
	if s.RLE == nil {
		if s.Polygons == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(s.Polygons)
	}
	out := struct {
		Size   [2]int      `json:"size"`
		Counts interface{} `json:"counts"`
	}{Size: s.RLE.Size}
	if s.RLE.Counts != nil {
		out.Counts = s.RLE.Counts
	} else {
		out.Counts = s.RLE.CompressedCounts
	}
	return json.Marshal(out)
}
