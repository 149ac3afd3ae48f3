package equivalence

// Config holds the parameters of the equivalence rules
type Config struct {
	// RelocatedRecoverable enables the relocation rule
	RelocatedRecoverable bool `yaml:"relocated_recoverable"`

	// IgnoredLocations are full-match regular expressions over locators
	IgnoredLocations []string `yaml:"ignored_locations"`

	IdentifierSuffixes []IdentifierSuffix `yaml:"identifier_suffixes"`

	Link LinkConfig `yaml:"link"`

	// EmptyValue enables the empty versus absent rule
	EmptyValue bool `yaml:"empty_value"`

	Vocabularies []Vocabulary `yaml:"vocabularies"`

	// KindOverrides replaces the default recoverability of a difference
	// code, e.g. {"ID2": true}
	KindOverrides map[string]bool `yaml:"kind_overrides,omitempty"`
}

// IdentifierSuffix accepts a target value equal to the source value plus
// Suffix at Locator (written without occurrence indices)
type IdentifierSuffix struct {
	Locator string `yaml:"locator"`
	Suffix  string `yaml:"suffix"`
}

// LinkConfig compares path-like values by their final segment
type LinkConfig struct {
	Enabled bool `yaml:"enabled"`
	// Parents restricts text comparisons to these elements when non-empty
	Parents []string `yaml:"parents"`
	// Attributes holding links
	Attributes []string `yaml:"attributes"`
}

// Vocabulary accepts a value moving from one coding scheme to another when
// the code itself is unchanged, e.g. ISO639-2:eng to ISO639-3:eng
type Vocabulary struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Attribute string `yaml:"attribute,omitempty"`
	Element   string `yaml:"element,omitempty"`
}

// DefaultConfig returns the rules for the IMDI 3.0 corpus migration
func DefaultConfig() Config {
	return Config{
		RelocatedRecoverable: true,
		IgnoredLocations: []string{
			`.*/@Type`,
			`.*/@Link`,
			`/METATRANSCRIPT/@Originator`,
			`/METATRANSCRIPT/@Version`,
		},
		IdentifierSuffixes: []IdentifierSuffix{
			{Locator: "/METATRANSCRIPT/@ArchiveHandle", Suffix: "@format=imdi"},
		},
		Link: LinkConfig{
			Enabled: true,
			Parents: []string{"ResourceLink", "MediaResourceLink"},
		},
		EmptyValue: true,
		Vocabularies: []Vocabulary{
			{From: "ISO639-2:", To: "ISO639-3:", Attribute: "LanguageId"},
		},
	}
}
