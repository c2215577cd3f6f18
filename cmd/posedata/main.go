package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvr-ai/go-pose/dataset"
	"github.com/pkg/errors"
)

const (
	// DefaultMode is the data mode used when neither -config nor -mode set one.
	DefaultMode = "topdown"
	// previewCount is the number of samples printed in the summary.
	previewCount = 3
)

// Options holds the command line overrides.
type Options struct {
	ConfigPath string
	AnnFile    string
	BBoxFile   string
	Mode       string
	DataRoot   string
	ImgPrefix  string
	MetaInfo   string
	ScoreThr   float64
	NumSamples int
	TestMode   bool
	Debug      bool
	OutPath    string
}

func main() {
	var opts Options
	flag.StringVar(&opts.ConfigPath, "config", "", "Path to a dataset config file (.yaml, .yml, .json)")
	flag.StringVar(&opts.AnnFile, "ann-file", "", "COCO keypoint annotation file")
	flag.StringVar(&opts.BBoxFile, "bbox-file", "", "Person detection result file (requires -test-mode)")
	flag.StringVar(&opts.Mode, "mode", "", "Data mode: topdown or bottomup")
	flag.StringVar(&opts.DataRoot, "data-root", "", "Directory relative paths are resolved against")
	flag.StringVar(&opts.ImgPrefix, "img-prefix", "", "Image directory, relative to -data-root")
	flag.StringVar(&opts.MetaInfo, "metainfo", "", "Keypoint meta information file (defaults to COCO 17 keypoints)")
	flag.Float64Var(&opts.ScoreThr, "score-thr", -1, "Drop topdown samples with a bbox score below this value (negative disables)")
	flag.IntVar(&opts.NumSamples, "num-samples", 0, "Keep only the first N samples (0 keeps all)")
	flag.BoolVar(&opts.TestMode, "test-mode", false, "Build an evaluation dataset")
	flag.BoolVar(&opts.Debug, "debug", false, "Print load statistics")
	flag.StringVar(&opts.OutPath, "out", "", "Write every sample as JSON to this file")
	flag.Parse()

	cfg, err := buildConfig(opts)
	if err != nil {
		log.Fatal(err)
	}

	meta := dataset.COCOMetaInfo()
	if opts.MetaInfo != "" {
		if meta, err = dataset.LoadMetaInfo(opts.MetaInfo); err != nil {
			log.Fatal(err)
		}
	}

	start := time.Now()
	ds, err := dataset.New(cfg, meta)
	if err != nil {
		log.Fatalf("Error loading dataset: %v", err)
	}

	printSummary(ds, time.Since(start))
	if cfg.Debug {
		ds.Profile().Report(os.Stdout)
	}

	if opts.OutPath != "" {
		if err := writeSamples(ds, opts.OutPath); err != nil {
			log.Fatalf("Error writing samples: %v", err)
		}
		fmt.Printf("Samples written to %s\n", opts.OutPath)
	}
}

// buildConfig layers command line overrides on top of the config file.
func buildConfig(opts Options) (dataset.Config, error) {
	cfg := dataset.DefaultConfig()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = dataset.LoadConfig(opts.ConfigPath); err != nil {
			return dataset.Config{}, err
		}
	}

	if opts.AnnFile != "" {
		cfg.AnnFile = opts.AnnFile
	}
	if opts.BBoxFile != "" {
		cfg.BBoxFile = opts.BBoxFile
	}
	if opts.Mode != "" {
		cfg.DataMode = dataset.Mode(strings.ToLower(opts.Mode))
	}
	if cfg.DataMode == "" {
		cfg.DataMode = DefaultMode
	}
	if opts.DataRoot != "" {
		cfg.DataRoot = opts.DataRoot
	}
	if opts.ImgPrefix != "" {
		cfg.DataPrefix.Img = opts.ImgPrefix
	}
	if opts.ScoreThr >= 0 {
		thr := float32(opts.ScoreThr)
		cfg.FilterCfg = &dataset.FilterConfig{BBoxScoreThr: &thr}
	}
	if opts.NumSamples > 0 {
		cfg.NumSamples = opts.NumSamples
	}
	cfg.TestMode = cfg.TestMode || opts.TestMode
	cfg.Debug = cfg.Debug || opts.Debug

	if cfg.AnnFile == "" {
		return dataset.Config{}, errors.New("no annotation file, set -ann-file or ann_file in -config")
	}
	return cfg, cfg.Validate()
}

func printSummary(ds *dataset.Dataset, elapsed time.Duration) {
	cfg := ds.Config()

	fmt.Printf("\n📦 Pose Dataset\n")
	fmt.Printf("=====================================\n")
	fmt.Printf("   📄 Annotations: %s\n", cfg.AnnFile)
	if cfg.BBoxFile != "" {
		fmt.Printf("   🎯 Detections: %s\n", cfg.BBoxFile)
	}
	fmt.Printf("   🖼️  Images: %s\n", cfg.DataPrefix.Img)
	fmt.Printf("   ⚙️  Mode: %s (test mode: %t)\n", cfg.DataMode, cfg.TestMode)
	if thr := cfg.ScoreThreshold(); thr != nil {
		fmt.Printf("   📊 Score threshold: %.2f\n", *thr)
	}
	fmt.Printf("   🦴 Keypoints: %d (%s)\n", ds.MetaInfo().NumKeypoints(), ds.MetaInfo().DatasetName)
	fmt.Printf("   🔢 Samples: %d\n", ds.Len())
	fmt.Printf("   ⏱️  Loaded in: %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("=====================================\n\n")

	n := ds.Len()
	if n > previewCount {
		n = previewCount
	}
	for i := 0; i < n; i++ {
		switch ds.Mode() {
		case dataset.ModeBottomup:
			rec, err := ds.Image(i)
			if err != nil {
				log.Printf("sample %d: %v", i, err)
				continue
			}
			fmt.Printf("[%d] image %d %s | instances: %d | ignored area: %d px\n",
				i, rec.ImageID, filepath.Base(rec.ImageFile), rec.NumInstances(), rec.MaskInvalid.Area())
		default:
			rec, err := ds.Instance(i)
			if err != nil {
				log.Printf("sample %d: %v", i, err)
				continue
			}
			fmt.Printf("[%d] image %d %s | bbox: %s | score: %.3f | keypoints: %d\n",
				i, rec.ImageID, filepath.Base(rec.ImageFile), rec.BBox, rec.BBoxScore, rec.NumKeypoints)
		}
	}
}

// writeSamples dumps every sample of ds as a JSON array.
func writeSamples(ds *dataset.Dataset, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %q", dir)
		}
	}

	var samples interface{} = ds.Instances()
	if ds.Mode() == dataset.ModeBottomup {
		samples = ds.Images()
	}

	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode samples")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %q", path)
	}
	return nil
}
