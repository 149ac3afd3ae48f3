package exclude

import (
	"path/filepath"

	"github.com/sdejongh/imdidiff/internal/platform"
	"github.com/sdejongh/imdidiff/pkg/models"
)

// Registry answers suppression queries. It is immutable once built and safe
// for concurrent use.
type Registry struct {
	entries map[string][]Entry
	base    string
	count   int
}

// NewRegistry indexes entries by path. A relative entry path is indexed as
// written and resolved against the working directory, the way the operator
// typed it on the command line. base is the source root used to resolve
// relative lookup keys; it may be empty.
func NewRegistry(entries []Entry, base string) *Registry {
	r := &Registry{entries: make(map[string][]Entry, len(entries)), base: base, count: len(entries)}
	for _, e := range entries {
		for _, key := range entryKeys(e.FilePath()) {
			r.entries[key] = append(r.entries[key], e)
		}
	}
	return r
}

func entryKeys(path string) []string {
	key := platform.Key(path)
	if key == "" || platform.IsAbsolute(path) {
		return []string{key}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return []string{key}
	}
	if absKey := platform.Key(abs); absKey != key {
		return []string{key, absKey}
	}
	return []string{key}
}

// Len returns the number of entries
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return r.count
}

func (r *Registry) lookup(path string) []Entry {
	if r == nil || len(r.entries) == 0 {
		return nil
	}
	var out []Entry
	for _, key := range platform.Keys(path, r.base) {
		out = append(out, r.entries[key]...)
	}
	return out
}

// ShouldSkipFile reports whether an entire-file entry exists for path
func (r *Registry) ShouldSkipFile(path string) bool {
	for _, e := range r.lookup(path) {
		if _, ok := e.(SkipEntireFile); ok {
			return true
		}
	}
	return false
}

// ShouldSkipDirectory reports whether a directory is excluded with all its
// contents
func (r *Registry) ShouldSkipDirectory(path string) bool {
	return r.ShouldSkipFile(path)
}

// ShouldSuppress reports whether difference d of the source file at path is
// excluded by an operator rule
func (r *Registry) ShouldSuppress(path string, d models.Difference) bool {
	return r.Match(path, d) != nil
}

// Match returns the entry suppressing d, or nil
func (r *Registry) Match(path string, d models.Difference) Entry {
	for _, e := range r.lookup(path) {
		switch v := e.(type) {
		case SkipEntireFile:
			return v
		case SkipLocation:
			if v.Matches(d) {
				return v
			}
		}
	}
	return nil
}
