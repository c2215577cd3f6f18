package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-pose/coco"
	"github.com/stretchr/testify/require"
)

// twoPointMeta is a minimal topology so that fixtures stay short.
func twoPointMeta() MetaInfo {
	return MetaInfo{
		DatasetName: "two-point",
		Keypoints:   []KeypointInfo{{Name: "head"}, {Name: "tail"}},
		Sigmas:      []float32{0.1, 0.2},
	}
}

func intPtr(v int) *int { return &v }

func float32Ptr(v float32) *float32 { return &v }

func polygons(polys ...[]float64) *coco.Segmentation {
	return &coco.Segmentation{Polygons: polys}
}

func squarePoly(x0, y0, x1, y1 float64) []float64 {
	return []float64{x0, y0, x1, y0, x1, y1, x0, y1}
}

// validAnn is a non-crowd instance with both keypoints annotated.
func validAnn(id, imageID int64) coco.Annotation {
	return coco.Annotation{
		ID:           id,
		ImageID:      imageID,
		CategoryID:   coco.PersonCategoryID,
		BBox:         []float32{10, 10, 50, 50},
		Keypoints:    []float32{20, 20, 2, 30, 30, 1},
		NumKeypoints: intPtr(2),
	}
}

// crowdAnn is a crowd region with the given segmentation.
func crowdAnn(id, imageID int64, seg *coco.Segmentation) coco.Annotation {
	return coco.Annotation{
		ID:           id,
		ImageID:      imageID,
		CategoryID:   coco.PersonCategoryID,
		BBox:         []float32{0, 0, 10, 10},
		Keypoints:    []float32{0, 0, 0, 0, 0, 0},
		NumKeypoints: intPtr(0),
		IsCrowd:      1,
		Segmentation: seg,
	}
}

// unlabeledAnn is a non-crowd instance without any keypoint.
func unlabeledAnn(id, imageID int64, seg *coco.Segmentation) coco.Annotation {
	return coco.Annotation{
		ID:           id,
		ImageID:      imageID,
		CategoryID:   coco.PersonCategoryID,
		BBox:         []float32{20, 20, 40, 40},
		Keypoints:    []float32{0, 0, 0, 0, 0, 0},
		NumKeypoints: intPtr(0),
		Segmentation: seg,
	}
}

func testImages() []coco.Image {
	return []coco.Image{
		{ID: 1, FileName: "000001.jpg", Width: 100, Height: 100},
		{ID: 2, FileName: "000002.jpg", Width: 100, Height: 80},
		{ID: 3, FileName: "000003.jpg", Width: 64, Height: 64},
	}
}

func imageByID(id int64) coco.Image {
	for _, img := range testImages() {
		if img.ID == id {
			return img
		}
	}
	panic("unknown test image")
}

// parseAll normalizes annotations against testImages.
func parseAll(meta MetaInfo, anns ...coco.Annotation) []InstanceRecord {
	records := make([]InstanceRecord, 0, len(anns))
	for _, ann := range anns {
		records = append(records, ParseInstance(ann, imageByID(ann.ImageID), "images", meta))
	}
	return records
}

func writeJSON(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func float32Data(t *testing.T, v interface{ Data() interface{} }) []float32 {
	t.Helper()
	data, ok := v.Data().([]float32)
	require.True(t, ok)
	return data
}
