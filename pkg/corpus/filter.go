package corpus

import (
	"path/filepath"
	"strings"
)

// DefaultExtensions are the metadata file extensions compared when none are
// configured
var DefaultExtensions = []string{".imdi"}

// hasExtension reports whether name ends with one of the extensions,
// ignoring case. Extensions may be given with or without the leading dot.
func hasExtension(name string, extensions []string) bool {
	ext := filepath.Ext(name)
	if ext == "" {
		return false
	}
	for _, want := range extensions {
		if want == "" {
			continue
		}
		if !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// shouldExclude checks if a path should be excluded based on the given patterns
// Patterns support:
//   - Simple glob patterns: *.tmp, *.bak
//   - Directory patterns: .git/, backup/
//   - Path patterns: drafts/*, **/old/*
func shouldExclude(relativePath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	normalizedPath := filepath.ToSlash(relativePath)
	baseName := filepath.Base(relativePath)

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		normalizedPattern := filepath.ToSlash(pattern)

		// Directory pattern: the path is the directory or lies below it
		if strings.HasSuffix(normalizedPattern, "/") {
			dirPattern := strings.TrimSuffix(normalizedPattern, "/")
			if strings.HasPrefix(normalizedPath, dirPattern+"/") ||
				normalizedPath == dirPattern ||
				strings.Contains(normalizedPath, "/"+dirPattern+"/") ||
				strings.HasSuffix(normalizedPath, "/"+dirPattern) {
				return true
			}
			continue
		}

		// **/pattern matches at any depth
		if strings.Contains(normalizedPattern, "**") {
			parts := strings.Split(normalizedPattern, "**/")
			if len(parts) == 2 && parts[0] == "" {
				suffix := parts[1]
				if matchGlob(baseName, suffix) ||
					strings.HasSuffix(normalizedPath, "/"+suffix) || normalizedPath == suffix ||
					matchGlobSuffix(normalizedPath, suffix) {
					return true
				}
			}
			continue
		}

		if strings.Contains(normalizedPattern, "/") {
			// Pattern applies to the full relative path
			if matched, _ := filepath.Match(normalizedPattern, normalizedPath); matched {
				return true
			}
		} else if matchGlob(baseName, normalizedPattern) {
			// Pattern applies to basename only
			return true
		}
	}

	return false
}

// matchGlob performs simple glob matching on a single path component
func matchGlob(name, pattern string) bool {
	matched, _ := filepath.Match(pattern, name)
	return matched
}

// matchGlobSuffix checks whether the trailing components of path match a
// multi-component pattern such as old/*
func matchGlobSuffix(path, pattern string) bool {
	want := strings.Count(pattern, "/") + 1
	parts := strings.Split(path, "/")
	if len(parts) < want {
		return false
	}
	matched, _ := filepath.Match(pattern, strings.Join(parts[len(parts)-want:], "/"))
	return matched
}
