package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"time"
)

// ErrExists is returned by Create when the file is already present
var ErrExists = fs.ErrExist

// ErrNotFound is matched by errors returned for missing files
var ErrNotFound = fs.ErrNotExist

// SkipDir, returned from a WalkFunc for a directory, skips its contents
var SkipDir = fs.SkipDir

// FileInfo represents metadata about a file
type FileInfo struct {
	// Path is the absolute filesystem path
	Path string
	// RelativePath is slash-separated and relative to the backend root
	RelativePath string
	Size         int64
	ModTime      time.Time
	IsDir        bool
}

// WalkFunc is called for every entry below the walked root, in lexical order
type WalkFunc func(info FileInfo) error

// Backend defines the storage operations the comparison needs from a
// metadata tree. Paths are relative to the backend root.
type Backend interface {
	// Root returns the absolute root path
	Root() string

	// Abs returns the absolute path of a relative path
	Abs(path string) string

	// Walk visits every file and directory under the root
	Walk(ctx context.Context, fn WalkFunc) error

	// Read opens a file for reading
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Create opens a new file for writing, creating parent directories.
	// It fails with ErrExists rather than overwrite an existing file.
	Create(ctx context.Context, path string) (io.WriteCloser, error)

	// Exists checks if a file or directory exists
	Exists(ctx context.Context, path string) (bool, error)

	// Stat returns file metadata
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// MkdirAll creates a directory and all necessary parents
	MkdirAll(ctx context.Context, path string) error

	// Close releases any resources held by the backend
	Close() error
}

// ReadAll reads a whole file from a backend
func ReadAll(ctx context.Context, b Backend, path string) ([]byte, error) {
	rc, err := b.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(rc)
	closeErr := rc.Close()
	if err != nil {
		return nil, err
	}
	return data, closeErr
}

// IsNotFound reports whether err means the file does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
