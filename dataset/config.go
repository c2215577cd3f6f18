// Package dataset - COCO keypoint annotations turned into pose estimation samples.
//
// A Dataset reads a COCO keypoint annotation file (or a person detection result
// file at evaluation time) and exposes either one record per person instance
// (topdown) or one record per image with every valid instance and a mask of the
// regions that must be ignored (bottomup).
package dataset

import (
	"github.com/nvr-ai/go-pose/util"
	"github.com/pkg/errors"
)

// Mode selects the shape of the produced samples.
type Mode string

const (
	// ModeTopdown produces one sample per instance.
	ModeTopdown Mode = "topdown"
	// ModeBottomup produces one sample per image holding all of its instances.
	ModeBottomup Mode = "bottomup"
)

// DataPrefix holds path prefixes for sample data.
type DataPrefix struct {
	// Img is prepended to every image file name.
	Img string `json:"img" yaml:"img"`
}

// FilterConfig holds optional post-load filters.
type FilterConfig struct {
	// BBoxScoreThr drops topdown records whose bbox score is below it.
	BBoxScoreThr *float32 `json:"bbox_score_thr,omitempty" yaml:"bbox_score_thr,omitempty"`
}

// Config describes where a dataset comes from and how samples are shaped.
type Config struct {
	// AnnFile is the COCO keypoint annotation file.
	AnnFile string `json:"ann_file" yaml:"ann_file"`
	// BBoxFile is an optional person detection result file. When set, detected
	// boxes replace ground-truth instances (evaluation only).
	BBoxFile string `json:"bbox_file,omitempty" yaml:"bbox_file,omitempty"`
	// DataMode is topdown or bottomup.
	DataMode Mode `json:"data_mode" yaml:"data_mode"`
	// DataRoot is joined onto relative AnnFile, BBoxFile and DataPrefix.Img.
	DataRoot string `json:"data_root,omitempty" yaml:"data_root,omitempty"`
	// DataPrefix holds sample path prefixes.
	DataPrefix DataPrefix `json:"data_prefix" yaml:"data_prefix"`
	// FilterCfg enables post-load filtering.
	FilterCfg *FilterConfig `json:"filter_cfg,omitempty" yaml:"filter_cfg,omitempty"`
	// Indices keeps only the samples at these positions, in this order.
	Indices []int `json:"indices,omitempty" yaml:"indices,omitempty"`
	// NumSamples keeps only the first NumSamples samples when positive.
	NumSamples int `json:"num_samples,omitempty" yaml:"num_samples,omitempty"`
	// TestMode marks an evaluation dataset.
	TestMode bool `json:"test_mode" yaml:"test_mode"`
	// LazyInit defers loading until FullInit is called.
	LazyInit bool `json:"lazy_init" yaml:"lazy_init"`
	// Debug prints load statistics.
	Debug bool `json:"debug" yaml:"debug"`
}

// DefaultConfig returns a topdown training configuration with no files set.
func DefaultConfig() Config {
	return Config{
		DataMode: ModeTopdown,
	}
}

// LoadConfig reads a JSON or YAML configuration file on top of DefaultConfig.
//
// Arguments:
// - path: Path to the configuration file.
//
// Returns:
// - Config: The decoded configuration. It is not validated.
// - error: Error if the file is missing or cannot be decoded.
//
// @example
// cfg, err := dataset.LoadConfig("configs/coco_val.yaml")
//
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := util.Load(path, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "load dataset config")
	}
	return cfg, nil
}

// ScoreThreshold returns the configured bbox score threshold, if any.
func (c Config) ScoreThreshold() *float32 {
	if c.FilterCfg == nil {
		return nil
	}
	return c.FilterCfg.BBoxScoreThr
}

// Validate checks option combinations. It never touches the file system.
func (c Config) Validate() error {
	if c.DataMode != ModeTopdown && c.DataMode != ModeBottomup {
		return errors.Wrapf(ErrInvalidDataMode, "got %q", c.DataMode)
	}

	if c.BBoxFile != "" {
		if c.DataMode != ModeTopdown {
			return errors.Wrapf(ErrBBoxFileMode, "data_mode is %q", c.DataMode)
		}
		if !c.TestMode {
			return ErrBBoxFileTestMode
		}
	}

	if c.ScoreThreshold() != nil && c.DataMode != ModeTopdown {
		return errors.Wrapf(ErrScoreThrMode, "data_mode is %q", c.DataMode)
	}

	if len(c.Indices) > 0 && c.NumSamples > 0 {
		return ErrConflictingIndices
	}

	return nil
}

// resolved returns a copy with DataRoot joined onto every relative path.
func (c Config) resolved() Config {
	c.AnnFile = util.JoinPrefix(c.DataRoot, c.AnnFile)
	c.BBoxFile = util.JoinPrefix(c.DataRoot, c.BBoxFile)
	c.DataPrefix.Img = util.JoinPrefix(c.DataRoot, c.DataPrefix.Img)
	if c.DataPrefix.Img == "" {
		c.DataPrefix.Img = c.DataRoot
	}
	return c
}
