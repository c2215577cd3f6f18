package dataset

import (
	"github.com/nvr-ai/go-pose/util"
	"github.com/pkg/errors"
)

// KeypointInfo names one keypoint slot and its horizontal mirror.
type KeypointInfo struct {
	Name string `json:"name" yaml:"name"`
	// Swap is the name of the keypoint this one becomes under a horizontal
	// flip. Empty for keypoints on the symmetry axis.
	Swap string `json:"swap,omitempty" yaml:"swap,omitempty"`
}

// MetaInfo is the keypoint topology of a dataset. It is constant for the
// lifetime of a Dataset and shared by every record.
type MetaInfo struct {
	DatasetName  string         `json:"dataset_name" yaml:"dataset_name"`
	Keypoints    []KeypointInfo `json:"keypoints" yaml:"keypoints"`
	Skeleton     [][2]string    `json:"skeleton,omitempty" yaml:"skeleton,omitempty"`
	JointWeights []float32      `json:"joint_weights,omitempty" yaml:"joint_weights,omitempty"`
	// Sigmas are the per-keypoint OKS tolerances.
	Sigmas []float32 `json:"sigmas" yaml:"sigmas"`
}

// NumKeypoints returns K, the number of keypoint slots per instance.
func (m MetaInfo) NumKeypoints() int {
	return len(m.Keypoints)
}

// FlipIndices returns, for every slot, the slot it maps to under a horizontal flip.
func (m MetaInfo) FlipIndices() ([]int, error) {
	byName := make(map[string]int, len(m.Keypoints))
	for i, kp := range m.Keypoints {
		byName[kp.Name] = i
	}

	flip := make([]int, len(m.Keypoints))
	for i, kp := range m.Keypoints {
		if kp.Swap == "" {
			flip[i] = i
			continue
		}
		j, ok := byName[kp.Swap]
		if !ok {
			return nil, errors.Wrapf(ErrInvalidMetaInfo, "keypoint %q swaps with unknown %q", kp.Name, kp.Swap)
		}
		flip[i] = j
	}
	return flip, nil
}

// Validate checks that the per-keypoint tables agree with K.
func (m MetaInfo) Validate() error {
	k := m.NumKeypoints()
	if k == 0 {
		return errors.Wrap(ErrInvalidMetaInfo, "no keypoints")
	}
	if len(m.Sigmas) != k {
		return errors.Wrapf(ErrInvalidMetaInfo, "%d sigmas for %d keypoints", len(m.Sigmas), k)
	}
	if len(m.JointWeights) != 0 && len(m.JointWeights) != k {
		return errors.Wrapf(ErrInvalidMetaInfo, "%d joint weights for %d keypoints", len(m.JointWeights), k)
	}
	if _, err := m.FlipIndices(); err != nil {
		return err
	}
	return nil
}

// LoadMetaInfo reads meta information from a JSON or YAML file and validates it.
func LoadMetaInfo(path string) (MetaInfo, error) {
	var m MetaInfo
	if err := util.Load(path, &m); err != nil {
		return MetaInfo{}, errors.Wrap(err, "load meta information")
	}
	if err := m.Validate(); err != nil {
		return MetaInfo{}, err
	}
	return m, nil
}

// COCOMetaInfo returns the 17-keypoint COCO person topology.
func COCOMetaInfo() MetaInfo {
	return MetaInfo{
		DatasetName: "coco",
		Keypoints: []KeypointInfo{
			{Name: "nose"},
			{Name: "left_eye", Swap: "right_eye"},
			{Name: "right_eye", Swap: "left_eye"},
			{Name: "left_ear", Swap: "right_ear"},
			{Name: "right_ear", Swap: "left_ear"},
			{Name: "left_shoulder", Swap: "right_shoulder"},
			{Name: "right_shoulder", Swap: "left_shoulder"},
			{Name: "left_elbow", Swap: "right_elbow"},
			{Name: "right_elbow", Swap: "left_elbow"},
			{Name: "left_wrist", Swap: "right_wrist"},
			{Name: "right_wrist", Swap: "left_wrist"},
			{Name: "left_hip", Swap: "right_hip"},
			{Name: "right_hip", Swap: "left_hip"},
			{Name: "left_knee", Swap: "right_knee"},
			{Name: "right_knee", Swap: "left_knee"},
			{Name: "left_ankle", Swap: "right_ankle"},
			{Name: "right_ankle", Swap: "left_ankle"},
		},
		Skeleton: [][2]string{
			{"left_ankle", "left_knee"}, {"left_knee", "left_hip"},
			{"right_ankle", "right_knee"}, {"right_knee", "right_hip"},
			{"left_hip", "right_hip"}, {"left_shoulder", "left_hip"},
			{"right_shoulder", "right_hip"}, {"left_shoulder", "right_shoulder"},
			{"left_shoulder", "left_elbow"}, {"right_shoulder", "right_elbow"},
			{"left_elbow", "left_wrist"}, {"right_elbow", "right_wrist"},
			{"left_eye", "right_eye"}, {"nose", "left_eye"}, {"nose", "right_eye"},
			{"left_eye", "left_ear"}, {"right_eye", "right_ear"},
			{"left_ear", "left_shoulder"}, {"right_ear", "right_shoulder"},
		},
		JointWeights: []float32{1, 1, 1, 1, 1, 1, 1, 1.2, 1.2, 1.5, 1.5, 1, 1, 1.2, 1.2, 1.5, 1.5},
		Sigmas: []float32{
			0.026, 0.025, 0.025, 0.035, 0.035, 0.079, 0.079, 0.072, 0.072,
			0.062, 0.062, 0.107, 0.107, 0.087, 0.087, 0.089, 0.089,
		},
	}
}
