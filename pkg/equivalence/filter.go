// Package equivalence decides whether a raw difference is semantically
// harmless. Rules are pure functions of the difference; operator exclusions
// live in package exclude.
package equivalence

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sdejongh/imdidiff/pkg/models"
	"github.com/sdejongh/imdidiff/pkg/xmltree"
)

// Rule names reported by Explain
const (
	RuleRelocated        = "relocated"
	RuleIgnoredLocation  = "ignored-location"
	RuleIdentifierSuffix = "identifier-suffix"
	RuleLink             = "link"
	RuleEmptyValue       = "empty-value"
	RuleVocabulary       = "vocabulary"
	RuleKindDefault      = "kind-default"
)

type predicate struct {
	name  string
	match func(d models.Difference) bool
}

// Filter classifies differences as Recoverable or Divergent. The first
// matching rule marks a difference Recoverable; otherwise the recoverability
// of its kind applies.
type Filter struct {
	cfg        Config
	predicates []predicate
	ignored    []*regexp.Regexp
	kinds      map[models.DifferenceKind]bool
}

// New compiles a filter from configuration
func New(cfg Config) (*Filter, error) {
	f := &Filter{cfg: cfg, kinds: map[models.DifferenceKind]bool{}}

	for _, pattern := range cfg.IgnoredLocations {
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err != nil {
			return nil, fmt.Errorf("invalid ignored location %q: %w", pattern, err)
		}
		f.ignored = append(f.ignored, re)
	}

	for code, recoverable := range cfg.KindOverrides {
		kind, err := models.ParseKindCode(code)
		if err != nil {
			return nil, err
		}
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown difference code %q", code)
		}
		f.kinds[kind] = recoverable
	}

	if len(f.ignored) > 0 {
		f.predicates = append(f.predicates, predicate{RuleIgnoredLocation, f.ignoredLocation})
	}
	if len(cfg.IdentifierSuffixes) > 0 {
		f.predicates = append(f.predicates, predicate{RuleIdentifierSuffix, f.identifierSuffix})
	}
	if cfg.Link.Enabled {
		f.predicates = append(f.predicates, predicate{RuleLink, f.link})
	}
	if cfg.EmptyValue {
		f.predicates = append(f.predicates, predicate{RuleEmptyValue, emptyValue})
	}
	if len(cfg.Vocabularies) > 0 {
		f.predicates = append(f.predicates, predicate{RuleVocabulary, f.vocabulary})
	}
	// relocation is the catch-all, so the specific rules are named first
	if cfg.RelocatedRecoverable {
		f.predicates = append(f.predicates, predicate{RuleRelocated, relocated})
	}
	return f, nil
}

// Classify returns Recoverable or Divergent for a raw difference
func (f *Filter) Classify(d models.Difference) models.Classification {
	if f.Explain(d) != "" {
		return models.Recoverable
	}
	return models.Divergent
}

// Explain names the rule that makes d recoverable, or returns "" when d is
// divergent
func (f *Filter) Explain(d models.Difference) string {
	for _, p := range f.predicates {
		if p.match(d) {
			return p.name
		}
	}
	if f.kindRecoverable(d.Kind) {
		return RuleKindDefault
	}
	return ""
}

func (f *Filter) kindRecoverable(k models.DifferenceKind) bool {
	if v, ok := f.kinds[k]; ok {
		return v
	}
	return k.DefaultRecoverable()
}

// relocated treats a difference reported at two different locations as a
// relocation unless the locations disagree on the element or the kind of
// node addressed
func relocated(d models.Difference) bool {
	if d.SourceLocator == "" || d.TargetLocator == "" || d.SourceLocator == d.TargetLocator {
		return false
	}
	if xmltree.FinalStepKind(d.SourceLocator) != xmltree.FinalStepKind(d.TargetLocator) {
		return false
	}
	return xmltree.LastElementName(d.SourceLocator) == xmltree.LastElementName(d.TargetLocator)
}

func (f *Filter) ignoredLocation(d models.Difference) bool {
	for _, re := range f.ignored {
		if d.SourceLocator != "" && re.MatchString(d.SourceLocator) {
			return true
		}
		if d.TargetLocator != "" && re.MatchString(d.TargetLocator) {
			return true
		}
	}
	return false
}

func (f *Filter) identifierSuffix(d models.Difference) bool {
	if d.Source == nil || d.Target == nil {
		return false
	}
	if d.Kind != models.AttributeValueDiffers && d.Kind != models.TextValueDiffers {
		return false
	}
	for _, rule := range f.cfg.IdentifierSuffixes {
		if xmltree.StripIndices(d.SourceLocator) != rule.Locator {
			continue
		}
		if d.Target.Value == d.Source.Value+rule.Suffix {
			return true
		}
	}
	return false
}

func (f *Filter) link(d models.Difference) bool {
	s, t := d.Source, d.Target
	if s == nil || t == nil || s.Type != t.Type {
		return false
	}
	switch s.Type {
	case models.NodeText:
		if len(f.cfg.Link.Parents) > 0 && (!contains(f.cfg.Link.Parents, s.Parent) || !contains(f.cfg.Link.Parents, t.Parent)) {
			return false
		}
	case models.NodeAttribute:
		if !contains(f.cfg.Link.Attributes, s.Name) || s.Name != t.Name {
			return false
		}
	default:
		return false
	}
	a, b := lastSegment(s.Value), lastSegment(t.Value)
	return a != "" && a == b
}

// emptyValue accepts a node that is present but empty on one side and
// absent on the other
func emptyValue(d models.Difference) bool {
	switch {
	case d.Source == nil && d.Target != nil:
		return isEmpty(d.Target)
	case d.Target == nil && d.Source != nil:
		return isEmpty(d.Source)
	default:
		return false
	}
}

func isEmpty(s *models.NodeSnapshot) bool {
	switch s.Type {
	case models.NodeElement:
		return s.Empty
	default:
		return strings.TrimSpace(s.Value) == ""
	}
}

func (f *Filter) vocabulary(d models.Difference) bool {
	s, t := d.Source, d.Target
	if s == nil || t == nil || s.Type != t.Type {
		return false
	}
	for _, v := range f.cfg.Vocabularies {
		if !v.appliesTo(s) || !v.appliesTo(t) {
			continue
		}
		if !strings.HasPrefix(s.Value, v.From) || !strings.HasPrefix(t.Value, v.To) {
			continue
		}
		code := strings.TrimPrefix(s.Value, v.From)
		if code != "" && code == strings.TrimPrefix(t.Value, v.To) {
			return true
		}
	}
	return false
}

func (v Vocabulary) appliesTo(s *models.NodeSnapshot) bool {
	switch s.Type {
	case models.NodeAttribute:
		return v.Attribute != "" && s.Name == v.Attribute
	case models.NodeText:
		return v.Element != "" && s.Parent == v.Element
	default:
		return false
	}
}

// lastSegment returns the part of a path-like value after the last / or \
func lastSegment(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.LastIndexAny(v, `/\`); i >= 0 {
		return v[i+1:]
	}
	return v
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
