package source

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// FileID identifies an input file within a FileSet.
type FileID uint32

// NoFileID marks the absence of a file.
const NoFileID FileID = 0

// File captures metadata and content of a single input file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	Hash    [32]byte
}

// FileSet owns every input file of one analysis session.
type FileSet struct {
	mu    sync.RWMutex
	files []*File // index 0 reserved for NoFileID
	paths map[string]FileID
}

func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]*File, 1, 8),
		paths: make(map[string]FileID),
	}
}

// Add registers content under path. Adding the same path twice replaces the
// content but keeps the ID.
func (fs *FileSet) Add(path string, content []byte) FileID {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if id, ok := fs.paths[path]; ok {
		f := fs.files[id]
		f.Content = content
		f.Hash = sha256.Sum256(content)
		return id
	}
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	id := FileID(n)
	fs.files = append(fs.files, &File{
		ID:      id,
		Path:    path,
		Content: content,
		Hash:    sha256.Sum256(content),
	})
	fs.paths[path] = id
	return id
}

// Lookup returns the ID registered for path.
func (fs *FileSet) Lookup(path string) (FileID, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	id, ok := fs.paths[path]
	return id, ok
}

// Get returns the file for id or nil.
func (fs *FileSet) Get(id FileID) *File {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if id == NoFileID || int(id) >= len(fs.files) {
		return nil
	}
	return fs.files[id]
}

// Path returns the registered path of id, or "" if unknown.
func (fs *FileSet) Path(id FileID) string {
	if f := fs.Get(id); f != nil {
		return f.Path
	}
	return ""
}

// Len reports the number of files, excluding the sentinel.
func (fs *FileSet) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.files) - 1
}

// Format renders sp as "path#item".
func (fs *FileSet) Format(sp Span) string {
	if sp.IsZero() {
		return sp.String()
	}
	path := fs.Path(sp.File)
	if path == "" {
		return sp.String()
	}
	if sp.Item == 0 {
		return path
	}
	return fmt.Sprintf("%s#%d", path, sp.Item)
}
