// Package exclude holds the operator suppression registry: per-file and
// per-location exclusions loaded from an exclude list.
package exclude

import (
	"regexp"

	"github.com/sdejongh/imdidiff/pkg/models"
)

// Wildcard is the pattern matching every locator
const Wildcard = "*"

// Entry is one exclusion rule. It is either a SkipEntireFile or a
// SkipLocation.
type Entry interface {
	// FilePath returns the file (or directory) path the entry applies to
	FilePath() string
	isEntry()
}

// SkipEntireFile excludes a file, or every file below a directory, from
// comparison
type SkipEntireFile struct {
	Path string
}

// FilePath returns the excluded path
func (e SkipEntireFile) FilePath() string { return e.Path }

func (SkipEntireFile) isEntry() {}

// SkipLocation suppresses differences of one file whose source or target
// locator matches Pattern. A zero Code matches every difference kind.
type SkipLocation struct {
	Path    string
	Pattern string
	Code    models.DifferenceKind

	re *regexp.Regexp
}

// NewSkipLocation builds a location entry. Patterns that do not compile as
// regular expressions match literally only.
func NewSkipLocation(path, pattern string, code models.DifferenceKind) SkipLocation {
	e := SkipLocation{Path: path, Pattern: pattern, Code: code}
	if pattern != Wildcard {
		if re, err := regexp.Compile("^(?:" + pattern + ")$"); err == nil {
			e.re = re
		}
	}
	return e
}

// FilePath returns the file the entry applies to
func (e SkipLocation) FilePath() string { return e.Path }

func (SkipLocation) isEntry() {}

// MatchesLocator reports whether the pattern matches a locator. The empty
// locator of an absent node never matches.
func (e SkipLocation) MatchesLocator(locator string) bool {
	if locator == "" {
		return false
	}
	if e.Pattern == Wildcard || e.Pattern == locator {
		return true
	}
	return e.re != nil && e.re.MatchString(locator)
}

// Matches reports whether the entry suppresses d
func (e SkipLocation) Matches(d models.Difference) bool {
	if e.Code != 0 && e.Code != d.Kind {
		return false
	}
	return e.MatchesLocator(d.SourceLocator) || e.MatchesLocator(d.TargetLocator)
}
