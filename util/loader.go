// Package util - file helpers shared by the annotation and dataset loaders.
package util

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrFileNotFound is returned when a required input file does not exist.
var ErrFileNotFound = errors.New("file does not exist")

// ErrUnsupportedFormat is returned when a structured file has an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// CheckFileExist verifies that path names an existing regular file.
//
// Arguments:
// - path: The file path to check.
//
// Returns:
// - error: ErrFileNotFound (wrapped with the path) if the file is missing or is a directory.
func CheckFileExist(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrFileNotFound, "%q", path)
		}
		return errors.Wrapf(err, "stat %q", path)
	}
	if info.IsDir() {
		return errors.Wrapf(ErrFileNotFound, "%q is a directory", path)
	}
	return nil
}

// Load decodes a JSON or YAML file into v, dispatching on the file extension.
//
// Arguments:
// - path: Path to a .json, .yaml or .yml file.
// - v: Pointer to the destination value.
//
// Returns:
// - error: Error if the file is missing, the extension is unknown or decoding fails.
//
// @example
// var dets []coco.Detection
// err := util.Load("dets.json", &dets)
func Load(path string, v interface{}) error {
	if err := CheckFileExist(path); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %q", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return errors.Wrapf(err, "decode json %q", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return errors.Wrapf(err, "decode yaml %q", path)
		}
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%q (extension %q)", path, ext)
	}

	return nil
}

// LoadJSON decodes a JSON file into v regardless of its extension.
func LoadJSON(path string, v interface{}) error {
	if err := CheckFileExist(path); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %q", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decode json %q", path)
	}
	return nil
}

// JoinPrefix joins prefix onto path unless path is empty or already absolute.
func JoinPrefix(prefix, path string) string {
	if path == "" || prefix == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(prefix, path)
}
