package coco

import (
	"github.com/nvr-ai/go-pose/util"
	"github.com/pkg/errors"
)

// ErrImageNotFound is returned when an image id is not in the index.
var ErrImageNotFound = errors.New("image not found")

// ErrAnnotationNotFound is returned when an annotation id is not in the index.
var ErrAnnotationNotFound = errors.New("annotation not found")

// Index is an in-memory lookup over an annotation file. Image and annotation
// order follow the file.
type Index struct {
	imageIDs   []int64
	images     map[int64]Image
	anns       map[int64]Annotation
	imgToAnns  map[int64][]int64
	categories map[int]Category
}

// Load reads an annotation file and builds its index.
//
// Arguments:
// - path: Path to a COCO JSON annotation file.
//
// Returns:
// - *Index: The index.
// - error: util.ErrFileNotFound if the file is missing, or a decode error.
//
// @example
// idx, err := coco.Load("annotations/person_keypoints_val2017.json")
//
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// fmt.Println(len(idx.ImageIDs()))
func Load(path string) (*Index, error) {
	var f File
	if err := util.LoadJSON(path, &f); err != nil {
		return nil, errors.Wrap(err, "load annotation file")
	}
	return NewIndex(f), nil
}

// NewIndex indexes an already-decoded annotation file.
func NewIndex(f File) *Index {
	idx := &Index{
		imageIDs:   make([]int64, 0, len(f.Images)),
		images:     make(map[int64]Image, len(f.Images)),
		anns:       make(map[int64]Annotation, len(f.Annotations)),
		imgToAnns:  make(map[int64][]int64, len(f.Images)),
		categories: make(map[int]Category, len(f.Categories)),
	}

	for _, img := range f.Images {
		if _, dup := idx.images[img.ID]; !dup {
			idx.imageIDs = append(idx.imageIDs, img.ID)
		}
		idx.images[img.ID] = img
	}
	for _, ann := range f.Annotations {
		if _, dup := idx.anns[ann.ID]; !dup {
			idx.imgToAnns[ann.ImageID] = append(idx.imgToAnns[ann.ImageID], ann.ID)
		}
		idx.anns[ann.ID] = ann
	}
	for _, cat := range f.Categories {
		idx.categories[cat.ID] = cat
	}

	return idx
}

// ImageIDs returns every image id in file order.
func (idx *Index) ImageIDs() []int64 {
	return append([]int64(nil), idx.imageIDs...)
}

// LoadImages returns the images for the given ids.
func (idx *Index) LoadImages(ids ...int64) ([]Image, error) {
	out := make([]Image, 0, len(ids))
	for _, id := range ids {
		img, ok := idx.images[id]
		if !ok {
			return nil, errors.Wrapf(ErrImageNotFound, "image id %d", id)
		}
		out = append(out, img)
	}
	return out, nil
}

// AnnIDs returns the ids of annotations belonging to imgID. A nil crowd filter
// returns all of them; otherwise only annotations whose crowd flag matches.
func (idx *Index) AnnIDs(imgID int64, crowd *bool) []int64 {
	ids := idx.imgToAnns[imgID]
	if crowd == nil {
		return append([]int64(nil), ids...)
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if idx.anns[id].Crowd() == *crowd {
			out = append(out, id)
		}
	}
	return out
}

// LoadAnns returns the annotations for the given ids.
func (idx *Index) LoadAnns(ids ...int64) ([]Annotation, error) {
	out := make([]Annotation, 0, len(ids))
	for _, id := range ids {
		ann, ok := idx.anns[id]
		if !ok {
			return nil, errors.Wrapf(ErrAnnotationNotFound, "annotation id %d", id)
		}
		out = append(out, ann)
	}
	return out, nil
}

// Category returns the category with the given id.
func (idx *Index) Category(id int) (Category, bool) {
	cat, ok := idx.categories[id]
	return cat, ok
}
