package exclude

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/imdidiff/pkg/models"
)

func attrDiff(kind models.DifferenceKind, loc string) models.Difference {
	return models.Difference{Kind: kind, SourceLocator: loc, TargetLocator: loc}
}

func TestParse(t *testing.T) {
	input := `# known differences after the 2014 migration

corpus/a/r.imdi
corpus/b *
corpus/c.imdi /ROOT/X[1]/@v
corpus/d.imdi ID3:/A/B
corpus/e.imdi 14:/A/C/text\(\)\[1\]
`
	entries, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 5)

	assert.Equal(t, SkipEntireFile{Path: "corpus/a/r.imdi"}, entries[0])
	assert.Equal(t, SkipEntireFile{Path: "corpus/b"}, entries[1])

	loc, ok := entries[2].(SkipLocation)
	require.True(t, ok)
	assert.Equal(t, "/ROOT/X[1]/@v", loc.Pattern)
	assert.Equal(t, models.DifferenceKind(0), loc.Code)

	coded, ok := entries[3].(SkipLocation)
	require.True(t, ok)
	assert.Equal(t, "/A/B", coded.Pattern)
	assert.Equal(t, models.AttributeValueDiffers, coded.Code)

	bare, ok := entries[4].(SkipLocation)
	require.True(t, ok)
	assert.Equal(t, models.TextValueDiffers, bare.Code)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"TooManyFields", "a.imdi /A/B extra", 1},
		{"TooManyColons", "ok.imdi\nb.imdi ID3:/A:/B", 2},
		{"BadCode", "c.imdi IDx:/A", 1},
		{"ZeroCode", "c.imdi ID0:/A", 1},
		{"EmptyPattern", "\n\nc.imdi ID3:", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			var perr *ParseError
			require.True(t, errors.As(err, &perr), "want *ParseError, got %v", err)
			assert.Equal(t, tt.line, perr.Line)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("Valid", func(t *testing.T) {
		path := filepath.Join(dir, "exclude.txt")
		require.NoError(t, os.WriteFile(path, []byte("a/r.imdi *\n"), 0644))
		entries, err := LoadFile(path)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("Unreadable", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "missing.txt"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("Malformed", func(t *testing.T) {
		path := filepath.Join(dir, "bad.txt")
		require.NoError(t, os.WriteFile(path, []byte("a b c\n"), 0644))
		_, err := LoadFile(path)
		var perr *ParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, path, perr.File)
		assert.Contains(t, err.Error(), path+":1:")
	})
}

func TestRegistryWildcardSuppressesEverything(t *testing.T) {
	base := t.TempDir()
	r := NewRegistry([]Entry{SkipEntireFile{Path: "a/r.imdi"}}, base)
	file := filepath.Join(base, "a", "r.imdi")

	assert.True(t, r.ShouldSkipFile(file))
	for _, kind := range models.Kinds() {
		assert.True(t, r.ShouldSuppress(file, attrDiff(kind, "/ROOT/X[1]")), "kind %s", kind)
	}
	assert.False(t, r.ShouldSkipFile(filepath.Join(base, "a", "other.imdi")))
}

func TestRegistryCodedEntry(t *testing.T) {
	r := NewRegistry([]Entry{NewSkipLocation("f.imdi", "/A/B", models.AttributeValueDiffers)}, "")

	assert.True(t, r.ShouldSuppress("f.imdi", attrDiff(models.AttributeValueDiffers, "/A/B")))
	assert.False(t, r.ShouldSuppress("f.imdi", attrDiff(models.TextValueDiffers, "/A/B")), "other code")
	assert.False(t, r.ShouldSuppress("f.imdi", attrDiff(models.AttributeValueDiffers, "/A/C")), "other locator")
	assert.False(t, r.ShouldSuppress("g.imdi", attrDiff(models.AttributeValueDiffers, "/A/B")), "other file")
	assert.False(t, r.ShouldSkipFile("f.imdi"), "location entries never skip the file")
}

func TestRegistryUncodedEntryMatchesAnyKind(t *testing.T) {
	base := t.TempDir()
	r := NewRegistry([]Entry{NewSkipLocation("a/r.imdi", "/ROOT/X[1]/@v", 0)}, base)
	file := filepath.Join(base, "a", "r.imdi")

	assert.True(t, r.ShouldSuppress(file, attrDiff(models.AttributeValueDiffers, "/ROOT/X[1]/@v")))
	assert.True(t, r.ShouldSuppress(file, attrDiff(models.AttributeMissing, "/ROOT/X[1]/@v")))
}

func TestRegistryEitherSide(t *testing.T) {
	r := NewRegistry([]Entry{NewSkipLocation("f.imdi", "/ROOT/New[1]", 0)}, "")

	targetOnly := models.Difference{Kind: models.ElementMissing, TargetLocator: "/ROOT/New[1]"}
	assert.True(t, r.ShouldSuppress("f.imdi", targetOnly))

	sourceOnly := models.Difference{Kind: models.ElementMissing, SourceLocator: "/ROOT/New[1]"}
	assert.True(t, r.ShouldSuppress("f.imdi", sourceOnly))
}

func TestSkipLocationPatterns(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		locator string
		want    bool
	}{
		{"Literal", "/ROOT/X[1]/@v", "/ROOT/X[1]/@v", true},
		{"LiteralWithRegexMeta", "/ROOT/X[1]/@v", "/ROOT/X1/@v", true},
		{"Regex", `/ROOT/X\[\d+\]/@v`, "/ROOT/X[7]/@v", true},
		{"RegexIsAnchored", `/ROOT/X\[1\]`, "/ROOT/X[1]/@v", false},
		{"NoSubstring", "X", "/ROOT/X[1]", false},
		{"InvalidRegexLiteralOnly", "/ROOT/X[1/@v", "/ROOT/X[1/@v", true},
		{"InvalidRegexNoMatch", "/ROOT/X[1/@v", "/ROOT/X[2/@v", false},
		{"Wildcard", "*", "/anything", true},
		{"EmptyLocatorNeverMatches", "*", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewSkipLocation("f", tt.pattern, 0)
			assert.Equal(t, tt.want, e.MatchesLocator(tt.locator))
		})
	}
}

func TestRegistryDirectoryAndLen(t *testing.T) {
	base := t.TempDir()
	r := NewRegistry([]Entry{SkipEntireFile{Path: "old"}, NewSkipLocation("x.imdi", "*", 0)}, base)

	assert.Equal(t, 2, r.Len())
	assert.True(t, r.ShouldSkipDirectory(filepath.Join(base, "old")))
	assert.False(t, r.ShouldSkipDirectory(filepath.Join(base, "new")))

	var empty *Registry
	assert.Equal(t, 0, empty.Len())
	assert.False(t, empty.ShouldSkipFile("x"))
	assert.False(t, empty.ShouldSuppress("x", attrDiff(models.TextValueDiffers, "/A")))
}

func TestRegistryAbsoluteEntry(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "a", "r.imdi")
	r := NewRegistry([]Entry{SkipEntireFile{Path: file}}, "")

	assert.True(t, r.ShouldSkipFile(file))
	match := r.Match(file, attrDiff(models.TextValueDiffers, "/A"))
	assert.Equal(t, SkipEntireFile{Path: file}, match)
}

func TestRegistryWorkingDirectoryRelativeEntry(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	base, err := filepath.Abs("source")
	require.NoError(t, err)

	r := NewRegistry([]Entry{
		NewSkipLocation("source/a/r.imdi", "/ROOT/X[1]/@v", 0),
		SkipEntireFile{Path: "source/b"},
	}, base)

	file := filepath.Join(base, "a", "r.imdi")
	assert.True(t, r.ShouldSuppress(file, attrDiff(models.AttributeValueDiffers, "/ROOT/X[1]/@v")))
	assert.False(t, r.ShouldSuppress(file, attrDiff(models.AttributeValueDiffers, "/ROOT/X[2]/@v")))
	assert.True(t, r.ShouldSkipDirectory(filepath.Join(base, "b")))
	assert.False(t, r.ShouldSkipDirectory(filepath.Join(base, "a")))

	// the path as given still matches
	assert.True(t, r.ShouldSkipFile("source/b"))
}
