package fileset

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FileSet is an ordered mapping from relative file path to full file
// content. Keys are unique; iteration follows payload order.
type FileSet struct {
	entries *orderedmap.OrderedMap[string, string]
}

// New returns an empty FileSet.
func New() *FileSet {
	return &FileSet{entries: orderedmap.New[string, string]()}
}

// Len returns the number of entries.
func (fs *FileSet) Len() int {
	return fs.entries.Len()
}

// Get returns the content for a path.
func (fs *FileSet) Get(path string) (string, bool) {
	return fs.entries.Get(path)
}

// Paths returns the relative paths in insertion order.
func (fs *FileSet) Paths() []string {
	paths := make([]string, 0, fs.entries.Len())
	for pair := fs.entries.Oldest(); pair != nil; pair = pair.Next() {
		paths = append(paths, pair.Key)
	}
	return paths
}

// Each calls fn for every entry in insertion order.
func (fs *FileSet) Each(fn func(path, content string)) {
	for pair := fs.entries.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// add records an entry, failing on a duplicate path.
func (fs *FileSet) add(path, content string) error {
	if _, exists := fs.entries.Get(path); exists {
		return &DuplicateKeyError{Key: path}
	}
	fs.entries.Set(path, content)
	return nil
}
