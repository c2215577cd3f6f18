package dataset

import "github.com/pkg/errors"

// Configuration errors, raised by Config.Validate before anything is loaded.
var (
	ErrInvalidDataMode    = errors.New(`invalid data_mode, should be "topdown" or "bottomup"`)
	ErrBBoxFileMode       = errors.New(`"bbox_file" is only supported in topdown mode`)
	ErrBBoxFileTestMode   = errors.New(`"bbox_file" is only supported when test_mode is true`)
	ErrScoreThrMode       = errors.New(`"bbox_score_thr" is only supported in topdown mode`)
	ErrConflictingIndices = errors.New(`"indices" and "num_samples" are mutually exclusive`)
	ErrInvalidMetaInfo    = errors.New("invalid dataset meta information")
)

// Access errors.
var (
	ErrNotInitialized  = errors.New("dataset is not initialized, call FullInit first")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrWrongMode       = errors.New("record type does not match data_mode")
)
