package dataset

import (
	"fmt"

	"github.com/nvr-ai/go-pose/coco"
	"github.com/nvr-ai/go-pose/profiler"
	"github.com/pkg/errors"
)

// AnnotationIndex is the lookup a Dataset needs from an annotation file.
type AnnotationIndex interface {
	ImageIDs() []int64
	LoadImages(ids ...int64) ([]coco.Image, error)
	AnnIDs(imgID int64, crowd *bool) []int64
	LoadAnns(ids ...int64) ([]coco.Annotation, error)
}

// IndexLoader builds an AnnotationIndex from a file path.
type IndexLoader func(path string) (AnnotationIndex, error)

// DetectionLoader reads detection results from a file path.
type DetectionLoader func(path string) ([]coco.Detection, error)

// Option customises a Dataset.
type Option func(*Dataset)

// WithIndexLoader replaces the COCO annotation file loader.
func WithIndexLoader(loader IndexLoader) Option {
	return func(d *Dataset) { d.loadIndex = loader }
}

// WithDetectionLoader replaces the detection result file loader.
func WithDetectionLoader(loader DetectionLoader) Option {
	return func(d *Dataset) { d.loadDetections = loader }
}

// WithRegionEncoder replaces the segmentation mask encoder.
func WithRegionEncoder(regions RegionEncoder) Option {
	return func(d *Dataset) { d.regions = regions }
}

// Dataset holds the samples of one annotation file in topdown or bottomup form.
//
// A Dataset is not safe for concurrent initialisation. Once initialised its
// records are read-only; workers loading in parallel should each build their own.
type Dataset struct {
	config Config
	meta   MetaInfo

	loadIndex      IndexLoader
	loadDetections DetectionLoader
	regions        RegionEncoder
	profile        *profiler.LoadProfiler

	instances   []InstanceRecord
	images      []ImageRecord
	initialized bool
}

// New validates the configuration and, unless LazyInit is set, loads the samples.
//
// Arguments:
// - config: Dataset configuration. Relative paths are resolved against DataRoot.
// - meta: Keypoint topology shared by every record.
// - opts: Optional loader replacements.
//
// Returns:
// - *Dataset: The dataset.
// - error: A configuration error, or a load error when loading eagerly.
//
// @example
// cfg := dataset.DefaultConfig()
// cfg.AnnFile = "annotations/person_keypoints_val2017.json"
// cfg.DataRoot = "data/coco"
// cfg.DataPrefix.Img = "val2017"
// ds, err := dataset.New(cfg, dataset.COCOMetaInfo())
//
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// fmt.Println(ds.Len())
func New(config Config, meta MetaInfo, opts ...Option) (*Dataset, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	d := &Dataset{
		config: config.resolved(),
		meta:   meta,
		loadIndex: func(path string) (AnnotationIndex, error) {
			return coco.Load(path)
		},
		loadDetections: coco.LoadDetections,
		regions:        COCORegions{},
		profile:        profiler.NewLoadProfiler(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if !config.LazyInit {
		if err := d.FullInit(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// FullInit loads, filters and subsets the samples. Calling it again is a no-op.
func (d *Dataset) FullInit() error {
	if d.initialized {
		return nil
	}

	if err := d.loadDataList(); err != nil {
		return err
	}
	if err := d.filterData(); err != nil {
		return err
	}
	if err := d.applyIndices(); err != nil {
		return err
	}

	d.initialized = true
	d.profile.SetCount("samples", d.Len())
	d.debugf("initialized %s dataset with %d samples", d.config.DataMode, d.Len())
	return nil
}

// Initialized reports whether the samples are loaded.
func (d *Dataset) Initialized() bool {
	return d.initialized
}

// Config returns the resolved configuration.
func (d *Dataset) Config() Config {
	return d.config
}

// MetaInfo returns the keypoint topology.
func (d *Dataset) MetaInfo() MetaInfo {
	return d.meta
}

// Profile returns the load stage timings and counters.
func (d *Dataset) Profile() *profiler.LoadProfiler {
	return d.profile
}

// Mode returns the data mode.
func (d *Dataset) Mode() Mode {
	return d.config.DataMode
}

// Len returns the number of samples, or 0 before initialisation.
func (d *Dataset) Len() int {
	if d.config.DataMode == ModeBottomup {
		return len(d.images)
	}
	return len(d.instances)
}

// Instance returns the i-th topdown sample.
func (d *Dataset) Instance(i int) (InstanceRecord, error) {
	if err := d.checkAccess(i, ModeTopdown); err != nil {
		return InstanceRecord{}, err
	}
	return d.instances[i], nil
}

// Image returns the i-th bottomup sample.
func (d *Dataset) Image(i int) (ImageRecord, error) {
	if err := d.checkAccess(i, ModeBottomup); err != nil {
		return ImageRecord{}, err
	}
	return d.images[i], nil
}

// Instances returns every topdown sample. The slice is a copy.
func (d *Dataset) Instances() []InstanceRecord {
	return append([]InstanceRecord(nil), d.instances...)
}

// Images returns every bottomup sample. The slice is a copy.
func (d *Dataset) Images() []ImageRecord {
	return append([]ImageRecord(nil), d.images...)
}

func (d *Dataset) checkAccess(i int, mode Mode) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if d.config.DataMode != mode {
		return errors.Wrapf(ErrWrongMode, "dataset is %s, requested %s", d.config.DataMode, mode)
	}
	if i < 0 || i >= d.Len() {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d, length %d", i, d.Len())
	}
	return nil
}

func (d *Dataset) loadDataList() error {
	if d.config.BBoxFile != "" {
		records, err := d.loadDetectionResults()
		if err != nil {
			return err
		}
		d.instances = records
		return nil
	}

	records, err := d.loadAnnotations()
	if err != nil {
		return err
	}

	defer d.profile.StartStage("assemble")()
	if d.config.DataMode == ModeTopdown {
		d.instances = TopdownRecords(records)
		d.debugf("kept %d of %d instances", len(d.instances), len(records))
		return nil
	}

	d.images, err = BottomupRecords(records, d.regions)
	if err != nil {
		return errors.Wrap(err, "assemble bottomup samples")
	}
	d.debugf("aggregated %d instances into %d images", len(records), len(d.images))
	return nil
}

// loadAnnotations normalizes every annotation, crowd regions included, in
// image order.
func (d *Dataset) loadAnnotations() ([]InstanceRecord, error) {
	done := d.profile.StartStage("load_index")
	index, err := d.loadIndex(d.config.AnnFile)
	done()
	if err != nil {
		return nil, err
	}

	defer d.profile.StartStage("parse")()

	var records []InstanceRecord
	for _, imgID := range index.ImageIDs() {
		imgs, err := index.LoadImages(imgID)
		if err != nil {
			return nil, err
		}
		anns, err := index.LoadAnns(index.AnnIDs(imgID, nil)...)
		if err != nil {
			return nil, err
		}
		for _, ann := range anns {
			records = append(records, ParseInstance(ann, imgs[0], d.config.DataPrefix.Img, d.meta))
		}
	}

	d.profile.SetCount("annotations", len(records))
	d.debugf("parsed %d annotations from %s", len(records), d.config.AnnFile)
	return records, nil
}

func (d *Dataset) loadDetectionResults() ([]InstanceRecord, error) {
	// Only image metadata is taken from the annotation file.
	done := d.profile.StartStage("load_index")
	index, err := d.loadIndex(d.config.AnnFile)
	done()
	if err != nil {
		return nil, err
	}

	done = d.profile.StartStage("load_detections")
	dets, err := d.loadDetections(d.config.BBoxFile)
	done()
	if err != nil {
		return nil, err
	}
	d.profile.SetCount("detections", len(dets))

	defer d.profile.StartStage("parse")()

	records, err := DetectionRecords(dets, index, d.config.DataPrefix.Img, d.meta)
	if err != nil {
		return nil, errors.Wrap(err, "convert detection results")
	}
	d.debugf("converted %d of %d detections from %s", len(records), len(dets), d.config.BBoxFile)
	return records, nil
}

func (d *Dataset) filterData() error {
	thr := d.config.ScoreThreshold()
	if thr == nil {
		return nil
	}
	if d.config.DataMode != ModeTopdown {
		return errors.Wrapf(ErrScoreThrMode, "data_mode is %q", d.config.DataMode)
	}

	before := len(d.instances)
	done := d.profile.StartStage("filter")
	d.instances = FilterByScore(d.instances, thr)
	done()
	d.debugf("bbox_score_thr %.3f kept %d of %d samples", *thr, len(d.instances), before)
	return nil
}

// applyIndices keeps the configured subset of samples.
func (d *Dataset) applyIndices() error {
	var keep []int
	switch {
	case len(d.config.Indices) > 0:
		keep = d.config.Indices
	case d.config.NumSamples > 0:
		n := d.config.NumSamples
		if n > d.Len() {
			n = d.Len()
		}
		keep = make([]int, n)
		for i := range keep {
			keep[i] = i
		}
	default:
		return nil
	}

	total := d.Len()
	for _, i := range keep {
		if i < 0 || i >= total {
			return errors.Wrapf(ErrIndexOutOfRange, "indices entry %d, length %d", i, total)
		}
	}

	if d.config.DataMode == ModeBottomup {
		subset := make([]ImageRecord, 0, len(keep))
		for _, i := range keep {
			subset = append(subset, d.images[i])
		}
		d.images = subset
		return nil
	}

	subset := make([]InstanceRecord, 0, len(keep))
	for _, i := range keep {
		subset = append(subset, d.instances[i])
	}
	d.instances = subset
	return nil
}

func (d *Dataset) debugf(format string, args ...interface{}) {
	if d.config.Debug {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}
