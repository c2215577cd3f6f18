package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBoundingBox_Clip validates clipping against known image bounds.
func TestBoundingBox_Clip(t *testing.T) {
	tests := []struct {
		name     string
		box      BoundingBox
		width    int
		height   int
		expected BoundingBox
	}{
		{
			name:     "Inside image",
			box:      BoundingBox{10, 10, 50, 50},
			width:    1000,
			height:   800,
			expected: BoundingBox{10, 10, 50, 50},
		},
		{
			name:     "Crosses right edge",
			box:      BoundingBox{990, 10, 50, 50},
			width:    1000,
			height:   800,
			expected: BoundingBox{990, 10, 9, 50},
		},
		{
			name:     "Negative origin",
			box:      BoundingBox{-20, -5, 40, 30},
			width:    100,
			height:   100,
			expected: BoundingBox{0, 0, 20, 25},
		},
		{
			name:     "Fully right of image",
			box:      BoundingBox{200, 10, 30, 30},
			width:    100,
			height:   100,
			expected: BoundingBox{99, 10, 0, 30},
		},
		{
			name:     "Fully above image",
			box:      BoundingBox{10, -50, 30, 20},
			width:    100,
			height:   100,
			expected: BoundingBox{10, 0, 30, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.box.Clip(tt.width, tt.height))
		})
	}
}

func TestBoundingBox_Empty(t *testing.T) {
	assert.True(t, BoundingBox{0, 0, 0, 10}.IsEmpty())
	assert.True(t, BoundingBox{0, 0, 10, -1}.IsEmpty())
	assert.False(t, BoundingBox{0, 0, 1, 1}.IsEmpty())

	assert.Equal(t, float32(0), BoundingBox{0, 0, -3, 10}.Area())
	assert.Equal(t, float32(200), BoundingBox{5, 5, 10, 20}.Area())
}

func TestNewBoundingBox(t *testing.T) {
	box, ok := NewBoundingBox([]float32{1, 2, 3, 4, 0.9})
	require.True(t, ok)
	assert.Equal(t, BoundingBox{1, 2, 3, 4}, box)

	_, ok = NewBoundingBox([]float32{1, 2, 3})
	assert.False(t, ok)
}

func TestBoundingBox_Tensor(t *testing.T) {
	dense := BoundingBox{1, 2, 3, 4}.Tensor()
	assert.Equal(t, []int{1, 4}, []int(dense.Shape()))
	assert.Equal(t, []float32{1, 2, 3, 4}, dense.Data().([]float32))
}
