package dataset

import (
	"encoding/json"
	"testing"

	"github.com/nvr-ai/go-pose/mask"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceRecord_MarshalJSON(t *testing.T) {
	rec := parseAll(twoPointMeta(), validAnn(5, 1))[0]

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var out struct {
		ImageID          int64         `json:"image_id"`
		ImageFile        string        `json:"image_file"`
		ImageShape       []int         `json:"image_shape"`
		BBox             [][]float32   `json:"bbox"`
		BBoxScore        []float32     `json:"bbox_score"`
		NumKeypoints     int           `json:"num_keypoints"`
		Keypoints        [][][]float32 `json:"keypoints"`
		KeypointsVisible [][]float32   `json:"keypoints_visible"`
		IsCrowd          bool          `json:"iscrowd"`
		ID               int64         `json:"id"`
		Sigmas           []float32     `json:"sigmas"`
	}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, int64(1), out.ImageID)
	assert.Equal(t, "images/000001.jpg", out.ImageFile)
	assert.Equal(t, []int{100, 100, 3}, out.ImageShape)
	assert.Equal(t, [][]float32{{10, 10, 50, 50}}, out.BBox)
	assert.Equal(t, []float32{1}, out.BBoxScore)
	assert.Equal(t, 2, out.NumKeypoints)
	assert.Equal(t, [][][]float32{{{20, 20}, {30, 30}}}, out.Keypoints)
	assert.Equal(t, [][]float32{{1, 1}}, out.KeypointsVisible)
	assert.False(t, out.IsCrowd)
	assert.Equal(t, int64(5), out.ID)
	assert.Equal(t, []float32{0.1, 0.2}, out.Sigmas)
	assert.NotContains(t, string(data), `"segmentation"`)
}

func TestImageRecord_MarshalJSON(t *testing.T) {
	records := parseAll(twoPointMeta(),
		validAnn(1, 1),
		crowdAnn(2, 1, polygons(squarePoly(0, 0, 10, 10))),
		validAnn(3, 1),
	)
	images, err := BottomupRecords(records, COCORegions{})
	require.NoError(t, err)
	require.Len(t, images, 1)

	data, err := json.Marshal(images[0])
	require.NoError(t, err)

	var out struct {
		ID               []int64       `json:"id"`
		BBox             [][]float32   `json:"bbox"`
		Keypoints        [][][]float32 `json:"keypoints"`
		KeypointsVisible [][]float32   `json:"keypoints_visible"`
		IsCrowd          []bool        `json:"iscrowd"`
		MaskInvalid      mask.RLE      `json:"mask_invalid_rle"`
	}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, []int64{1, 3}, out.ID)
	assert.Equal(t, [][]float32{{10, 10, 50, 50}, {10, 10, 50, 50}}, out.BBox)
	assert.Len(t, out.Keypoints, 2)
	assert.Equal(t, [][]float32{{1, 1}, {1, 1}}, out.KeypointsVisible)
	assert.Equal(t, []bool{false, false}, out.IsCrowd)
	assert.Equal(t, images[0].MaskInvalid, out.MaskInvalid)
	assert.Equal(t, 100, out.MaskInvalid.Area())
}
