package models

import (
	"time"
)

// FileEntry represents a file discovered while walking a tree
type FileEntry struct {
	// RelativePath is the slash-separated path relative to the walked root
	RelativePath string

	// AbsolutePath is the full path on the filesystem
	AbsolutePath string

	// Size in bytes
	Size int64

	// ModTime is the last modification time
	ModTime time.Time

	// IsDir indicates if this is a directory
	IsDir bool
}

// FilePair is a source metadata file and its resolved counterpart in the
// target tree
type FilePair struct {
	// RelativePath is shared by both sides
	RelativePath string

	// Source is the file in the source tree
	Source *FileEntry

	// TargetPath is the expected location of the counterpart
	TargetPath string

	// Target is nil when the counterpart does not exist
	Target *FileEntry
}

// HasTarget reports whether the counterpart exists
func (p *FilePair) HasTarget() bool {
	return p.Target != nil
}
