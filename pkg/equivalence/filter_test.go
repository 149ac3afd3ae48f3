package equivalence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/imdidiff/pkg/models"
)

func newDefaultFilter(t *testing.T) *Filter {
	t.Helper()
	f, err := New(DefaultConfig())
	require.NoError(t, err)
	return f
}

func text(parent, value string) *models.NodeSnapshot {
	return &models.NodeSnapshot{Type: models.NodeText, Parent: parent, Value: value}
}

func attr(parent, name, value string) *models.NodeSnapshot {
	return &models.NodeSnapshot{Type: models.NodeAttribute, Parent: parent, Name: name, Value: value, Empty: value == ""}
}

func TestClassify(t *testing.T) {
	f := newDefaultFilter(t)

	tests := []struct {
		name string
		diff models.Difference
		want models.Classification
		rule string
	}{
		{
			name: "PlainAttributeValue",
			diff: models.Difference{
				Kind:          models.AttributeValueDiffers,
				SourceLocator: "/ROOT/X[1]/@v", TargetLocator: "/ROOT/X[1]/@v",
				Source: attr("X", "v", "1"), Target: attr("X", "v", "2"),
			},
			want: models.Divergent,
		},
		{
			name: "LinkFinalSegment",
			diff: models.Difference{
				Kind:          models.TextValueDiffers,
				SourceLocator: "/METATRANSCRIPT/Session[1]/Resources[1]/MediaFile[1]/ResourceLink[1]/text()[1]",
				TargetLocator: "/METATRANSCRIPT/Session[1]/Resources[1]/MediaFile[1]/ResourceLink[1]/text()[1]",
				Source:        text("ResourceLink", "../../corpus/data/file.imdi"),
				Target:        text("ResourceLink", "data/file.imdi"),
			},
			want: models.Recoverable,
			rule: RuleLink,
		},
		{
			name: "LinkBackslashes",
			diff: models.Difference{
				Kind:   models.TextValueDiffers,
				Source: text("MediaResourceLink", `C:\media\rec.wav`),
				Target: text("MediaResourceLink", "https://archive.example/media/rec.wav"),
			},
			want: models.Recoverable,
			rule: RuleLink,
		},
		{
			name: "LinkDifferentFile",
			diff: models.Difference{
				Kind:   models.TextValueDiffers,
				Source: text("ResourceLink", "data/a.imdi"),
				Target: text("ResourceLink", "data/b.imdi"),
			},
			want: models.Divergent,
		},
		{
			name: "LinkOutsideLinkElement",
			diff: models.Difference{
				Kind:   models.TextValueDiffers,
				Source: text("Description", "x/file.imdi"),
				Target: text("Description", "file.imdi"),
			},
			want: models.Divergent,
		},
		{
			name: "VocabularyMigration",
			diff: models.Difference{
				Kind:          models.AttributeValueDiffers,
				SourceLocator: "/METATRANSCRIPT/Session[1]/Name[1]/@LanguageId",
				TargetLocator: "/METATRANSCRIPT/Session[1]/Name[1]/@LanguageId",
				Source:        attr("Name", "LanguageId", "ISO639-2:eng"),
				Target:        attr("Name", "LanguageId", "ISO639-3:eng"),
			},
			want: models.Recoverable,
			rule: RuleVocabulary,
		},
		{
			name: "VocabularyDifferentCode",
			diff: models.Difference{
				Kind:          models.AttributeValueDiffers,
				SourceLocator: "/METATRANSCRIPT/Session[1]/Name[1]/@LanguageId",
				TargetLocator: "/METATRANSCRIPT/Session[1]/Name[1]/@LanguageId",
				Source:        attr("Name", "LanguageId", "ISO639-2:eng"),
				Target:        attr("Name", "LanguageId", "ISO639-3:deu"),
			},
			want: models.Divergent,
		},
		{
			name: "IdentifierSuffix",
			diff: models.Difference{
				Kind:          models.AttributeValueDiffers,
				SourceLocator: "/METATRANSCRIPT/@ArchiveHandle", TargetLocator: "/METATRANSCRIPT/@ArchiveHandle",
				Source: attr("METATRANSCRIPT", "ArchiveHandle", "hdl:1839/00-0000-0000-0001-2345-6"),
				Target: attr("METATRANSCRIPT", "ArchiveHandle", "hdl:1839/00-0000-0000-0001-2345-6@format=imdi"),
			},
			want: models.Recoverable,
			rule: RuleIdentifierSuffix,
		},
		{
			name: "IdentifierChanged",
			diff: models.Difference{
				Kind:          models.AttributeValueDiffers,
				SourceLocator: "/METATRANSCRIPT/@ArchiveHandle", TargetLocator: "/METATRANSCRIPT/@ArchiveHandle",
				Source: attr("METATRANSCRIPT", "ArchiveHandle", "hdl:1839/A"),
				Target: attr("METATRANSCRIPT", "ArchiveHandle", "hdl:1839/B@format=imdi"),
			},
			want: models.Divergent,
		},
		{
			name: "IgnoredLocation",
			diff: models.Difference{
				Kind:          models.AttributeValueDiffers,
				SourceLocator: "/METATRANSCRIPT/Session[1]/Keys[1]/Key[1]/@Type",
				TargetLocator: "/METATRANSCRIPT/Session[1]/Keys[1]/Key[1]/@Type",
				Source:        attr("Key", "Type", "OpenVocabulary"),
				Target:        attr("Key", "Type", "ClosedVocabulary"),
			},
			want: models.Recoverable,
			rule: RuleIgnoredLocation,
		},
		{
			name: "IgnoredLocationIsAnchored",
			diff: models.Difference{
				Kind:          models.AttributeValueDiffers,
				SourceLocator: "/METATRANSCRIPT/@VersionNote",
				TargetLocator: "/METATRANSCRIPT/@VersionNote",
				Source:        attr("METATRANSCRIPT", "VersionNote", "a"),
				Target:        attr("METATRANSCRIPT", "VersionNote", "b"),
			},
			want: models.Divergent,
		},
		{
			name: "EmptyAttributeVersusAbsent",
			diff: models.Difference{
				Kind:          models.AttributeMissing,
				SourceLocator: "/ROOT/X[1]/@note",
				Source:        attr("X", "note", ""),
			},
			want: models.Recoverable,
			rule: RuleEmptyValue,
		},
		{
			name: "AbsentVersusEmptyElement",
			diff: models.Difference{
				Kind:          models.ElementMissing,
				TargetLocator: "/ROOT/Description[1]",
				Target:        &models.NodeSnapshot{Type: models.NodeElement, Name: "Description", Parent: "ROOT", Empty: true},
			},
			want: models.Recoverable,
			rule: RuleEmptyValue,
		},
		{
			name: "MissingElementWithContent",
			diff: models.Difference{
				Kind:          models.ElementMissing,
				SourceLocator: "/ROOT/Description[1]",
				Source:        &models.NodeSnapshot{Type: models.NodeElement, Name: "Description", Parent: "ROOT", Value: "text"},
			},
			want: models.Divergent,
		},
		{
			name: "TextAdded",
			diff: models.Difference{
				Kind:          models.TextValueDiffers,
				TargetLocator: "/ROOT/Title[1]/text()[1]",
				Target:        text("Title", "new"),
			},
			want: models.Divergent,
		},
		{
			name: "RelocatedSameElement",
			diff: models.Difference{
				Kind:          models.TextValueDiffers,
				SourceLocator: "/ROOT/A[1]/Name[1]/text()[1]",
				TargetLocator: "/ROOT/B[1]/Name[2]/text()[1]",
				Source:        text("Name", "x"),
				Target:        text("Name", "y"),
			},
			want: models.Recoverable,
			rule: RuleRelocated,
		},
		{
			name: "SpecificRuleNamedBeforeRelocation",
			diff: models.Difference{
				Kind:          models.TextValueDiffers,
				SourceLocator: "/METATRANSCRIPT/Session[1]/Resources[1]/MediaFile[1]/ResourceLink[1]/text()[1]",
				TargetLocator: "/METATRANSCRIPT/Session[1]/Resources[1]/MediaFile[2]/ResourceLink[1]/text()[1]",
				Source:        text("ResourceLink", "../media/a.wav"),
				Target:        text("ResourceLink", "a.wav"),
			},
			want: models.Recoverable,
			rule: RuleLink,
		},
		{
			name: "RelocatedDifferentElement",
			diff: models.Difference{
				Kind:          models.TextValueDiffers,
				SourceLocator: "/ROOT/A[1]/Name[1]/text()[1]",
				TargetLocator: "/ROOT/A[1]/Title[1]/text()[1]",
				Source:        text("Name", "x"),
				Target:        text("Title", "y"),
			},
			want: models.Divergent,
		},
		{
			name: "RelocatedDifferentStepKind",
			diff: models.Difference{
				Kind:          models.NodeTypeDiffers,
				SourceLocator: "/ROOT/A[1]/text()[1]",
				TargetLocator: "/ROOT/A[1]",
				Source:        text("A", "x"),
				Target:        &models.NodeSnapshot{Type: models.NodeElement, Name: "A"},
			},
			want: models.Divergent,
		},
		{
			name: "ChildCountDefault",
			diff: models.Difference{
				Kind:          models.ChildCountDiffers,
				SourceLocator: "/ROOT", TargetLocator: "/ROOT",
			},
			want: models.Recoverable,
			rule: RuleKindDefault,
		},
		{
			name: "ElementNameAtRoot",
			diff: models.Difference{
				Kind:          models.ElementNameDiffers,
				SourceLocator: "/METATRANSCRIPT", TargetLocator: "/CMD",
			},
			want: models.Divergent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Classify(tt.diff))
			assert.Equal(t, tt.rule, f.Explain(tt.diff))
		})
	}
}

func TestRelocatedDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RelocatedRecoverable = false
	f, err := New(cfg)
	require.NoError(t, err)

	d := models.Difference{
		Kind:          models.TextValueDiffers,
		SourceLocator: "/ROOT/A[1]/Name[1]/text()[1]",
		TargetLocator: "/ROOT/B[1]/Name[2]/text()[1]",
		Source:        text("Name", "x"),
		Target:        text("Name", "y"),
	}
	assert.Equal(t, models.Divergent, f.Classify(d))
}

func TestKindOverrides(t *testing.T) {
	cfg := Config{KindOverrides: map[string]bool{"ID2": true, "ID19": false}}
	f, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, models.Recoverable, f.Classify(models.Difference{Kind: models.AttributeMissing}))
	assert.Equal(t, models.Divergent, f.Classify(models.Difference{Kind: models.ChildCountDiffers}))
	assert.Equal(t, models.Recoverable, f.Classify(models.Difference{Kind: models.AttributeCountDiffers}))
}

func TestEmptyConfigUsesKindDefaults(t *testing.T) {
	f, err := New(Config{})
	require.NoError(t, err)

	link := models.Difference{
		Kind:   models.TextValueDiffers,
		Source: text("ResourceLink", "a/file.imdi"),
		Target: text("ResourceLink", "file.imdi"),
	}
	assert.Equal(t, models.Divergent, f.Classify(link))
}

func TestLinkAttributes(t *testing.T) {
	cfg := Config{Link: LinkConfig{Enabled: true, Attributes: []string{"href"}}}
	f, err := New(cfg)
	require.NoError(t, err)

	d := models.Difference{
		Kind:   models.AttributeValueDiffers,
		Source: attr("CorpusLink", "href", "../sub/child.imdi"),
		Target: attr("CorpusLink", "href", "child.imdi"),
	}
	assert.Equal(t, models.Recoverable, f.Classify(d))

	d.Source = attr("CorpusLink", "Name", "../sub/child.imdi")
	d.Target = attr("CorpusLink", "Name", "child.imdi")
	assert.Equal(t, models.Divergent, f.Classify(d))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Run("BadPattern", func(t *testing.T) {
		_, err := New(Config{IgnoredLocations: []string{"(unclosed"}})
		assert.Error(t, err)
	})

	t.Run("BadCode", func(t *testing.T) {
		_, err := New(Config{KindOverrides: map[string]bool{"IDx": true}})
		assert.Error(t, err)
	})

	t.Run("UnknownCode", func(t *testing.T) {
		_, err := New(Config{KindOverrides: map[string]bool{"ID99": true}})
		assert.Error(t, err)
	})
}
