package coco

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-pose/util"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const annotationFixture = `{
  "images": [
    {"id": 7, "file_name": "000007.jpg", "width": 640, "height": 480},
    {"id": 3, "file_name": "000003.jpg", "width": 320, "height": 240}
  ],
  "annotations": [
    {"id": 100, "image_id": 7, "category_id": 1, "bbox": [1, 2, 3, 4],
     "keypoints": [1, 1, 2, 0, 0, 0], "num_keypoints": 1, "iscrowd": 0,
     "segmentation": [[0, 0, 5, 0, 5, 5]]},
    {"id": 101, "image_id": 3, "category_id": 1, "bbox": [0, 0, 10, 10],
     "keypoints": [0, 0, 0, 0, 0, 0], "iscrowd": 1,
     "segmentation": {"size": [240, 320], "counts": [10, 5, 76785]}},
    {"id": 102, "image_id": 7, "category_id": 1, "bbox": [5, 5, 5, 5],
     "keypoints": [3, 3, 1, 4, 4, 1], "iscrowd": 1,
     "segmentation": {"size": [480, 640], "counts": "0::0X6"}}
  ],
  "categories": [{"id": 1, "name": "person", "keypoints": ["a", "b"]}]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Index(t *testing.T) {
	idx, err := Load(writeFile(t, "ann.json", annotationFixture))
	require.NoError(t, err)

	assert.Equal(t, []int64{7, 3}, idx.ImageIDs())

	imgs, err := idx.LoadImages(3)
	require.NoError(t, err)
	assert.Equal(t, Image{ID: 3, FileName: "000003.jpg", Width: 320, Height: 240}, imgs[0])

	_, err = idx.LoadImages(99)
	assert.True(t, errors.Is(err, ErrImageNotFound))

	assert.Equal(t, []int64{100, 102}, idx.AnnIDs(7, nil))
	yes, no := true, false
	assert.Equal(t, []int64{102}, idx.AnnIDs(7, &yes))
	assert.Equal(t, []int64{100}, idx.AnnIDs(7, &no))
	assert.Empty(t, idx.AnnIDs(42, nil))

	anns, err := idx.LoadAnns(100, 101)
	require.NoError(t, err)
	require.Len(t, anns, 2)
	require.NotNil(t, anns[0].NumKeypoints)
	assert.Equal(t, 1, *anns[0].NumKeypoints)
	assert.Nil(t, anns[1].NumKeypoints)
	assert.True(t, anns[1].Crowd())
	assert.False(t, anns[0].Crowd())

	_, err = idx.LoadAnns(5)
	assert.True(t, errors.Is(err, ErrAnnotationNotFound))

	cat, ok := idx.Category(PersonCategoryID)
	require.True(t, ok)
	assert.Equal(t, "person", cat.Name)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, errors.Is(err, util.ErrFileNotFound))
}

func TestSegmentation_JSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Segmentation
		empty    bool
	}{
		{
			name:     "Polygons",
			input:    `[[0, 0, 5, 0, 5, 5], [1, 1, 2, 1, 2, 2]]`,
			expected: Segmentation{Polygons: [][]float64{{0, 0, 5, 0, 5, 5}, {1, 1, 2, 1, 2, 2}}},
		},
		{
			name:     "Uncompressed RLE",
			input:    `{"size": [4, 5], "counts": [3, 2, 15]}`,
			expected: Segmentation{RLE: &RLEObject{Size: [2]int{4, 5}, Counts: []uint32{3, 2, 15}}},
		},
		{
			name:     "Compressed RLE",
			input:    `{"size": [20, 20], "counts": "0::0X6"}`,
			expected: Segmentation{RLE: &RLEObject{Size: [2]int{20, 20}, CompressedCounts: "0::0X6"}},
		},
		{
			name:     "Empty list",
			input:    `[]`,
			expected: Segmentation{Polygons: [][]float64{}},
			empty:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seg Segmentation
			require.NoError(t, json.Unmarshal([]byte(tt.input), &seg))
			assert.Equal(t, tt.expected, seg)
			assert.Equal(t, tt.empty, seg.IsEmpty())

			out, err := json.Marshal(seg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.input, string(out))
		})
	}

	var seg Segmentation
	assert.Error(t, json.Unmarshal([]byte(`42`), &seg))

	var nilSeg *Segmentation
	assert.True(t, nilSeg.IsEmpty())
}

func TestLoadDetections(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		expected []Detection
		wantErr  error
	}{
		{
			name: "JSON results",
			file: "dets.json",
			content: `[{"image_id": 7, "category_id": 1, "bbox": [1, 2, 3, 4, 0.5], "score": 0.9},
			           {"image_id": 7, "category_id": 2, "bbox": [5, 6, 7, 8], "score": 0.4}]`,
			expected: []Detection{
				{ImageID: 7, CategoryID: 1, BBox: []float32{1, 2, 3, 4, 0.5}, Score: 0.9},
				{ImageID: 7, CategoryID: 2, BBox: []float32{5, 6, 7, 8}, Score: 0.4},
			},
		},
		{
			name:    "YAML results",
			file:    "dets.yaml",
			content: "- image_id: 3\n  category_id: 1\n  bbox: [0, 0, 10, 20]\n  score: 0.75\n",
			expected: []Detection{
				{ImageID: 3, CategoryID: 1, BBox: []float32{0, 0, 10, 20}, Score: 0.75},
			},
		},
		{
			name:    "Top-level mapping",
			file:    "dets.json",
			content: `{"image_id": 7}`,
			wantErr: ErrMalformedDetections,
		},
		{
			name:    "List of numbers",
			file:    "dets.json",
			content: `[1, 2, 3]`,
			wantErr: ErrMalformedDetections,
		},
		{
			name:    "Null entry",
			file:    "dets.json",
			content: `[null]`,
			wantErr: ErrMalformedDetections,
		},
		{
			name:    "Short bbox",
			file:    "dets.json",
			content: `[{"image_id": 7, "category_id": 1, "bbox": [1, 2, 3], "score": 0.9}]`,
			wantErr: ErrMalformedDetections,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dets, err := LoadDetections(writeFile(t, tt.file, tt.content))
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, dets)
		})
	}

	_, err := LoadDetections(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, util.ErrFileNotFound))
}

func TestCategoryName(t *testing.T) {
	assert.Equal(t, "person", CategoryName(PersonCategoryID))
	assert.Equal(t, "toothbrush", CategoryName(90))
	assert.Equal(t, "", CategoryName(12))
	assert.Len(t, CategoryNames, 80)
}
