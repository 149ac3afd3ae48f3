package exclude

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sdejongh/imdidiff/pkg/models"
)

// ParseError reports a malformed exclude list line
type ParseError struct {
	File    string
	Line    int
	Content string
	Msg     string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s: %q", e.File, e.Line, e.Msg, e.Content)
	}
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Content)
}

// LoadFile reads an exclude list from disk. Read failures are returned
// wrapped; malformed content is returned as *ParseError.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not read exclude list %q: %w", path, err)
	}
	defer f.Close()

	entries, err := Parse(f)
	if perr, ok := err.(*ParseError); ok {
		perr.File = path
	}
	return entries, err
}

// Parse reads exclude list lines:
//
//	path                  skip the file or directory entirely
//	path *                same as above
//	path pattern          suppress differences at locators matching pattern
//	path ID<n>:pattern    same, restricted to difference code n
//
// Blank lines and lines starting with # are ignored.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch len(fields) {
		case 1:
			entries = append(entries, SkipEntireFile{Path: fields[0]})
		case 2:
			entry, msg := parseRule(fields[0], fields[1])
			if msg != "" {
				return nil, &ParseError{Line: lineNo, Content: line, Msg: msg}
			}
			entries = append(entries, entry)
		default:
			return nil, &ParseError{Line: lineNo, Content: line, Msg: "expected a path and at most one rule"}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read exclude list: %w", err)
	}
	return entries, nil
}

func parseRule(path, rule string) (Entry, string) {
	if rule == Wildcard {
		return SkipEntireFile{Path: path}, ""
	}

	parts := strings.Split(rule, ":")
	switch len(parts) {
	case 1:
		return NewSkipLocation(path, rule, 0), ""
	case 2:
		code, err := models.ParseKindCode(parts[0])
		if err != nil || code == 0 {
			return nil, fmt.Sprintf("invalid difference code %q", parts[0])
		}
		if parts[1] == "" {
			return nil, "missing locator pattern after code"
		}
		return NewSkipLocation(path, parts[1], code), ""
	default:
		return nil, "more than one ':' in rule"
	}
}
