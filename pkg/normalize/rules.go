package normalize

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sdejongh/imdidiff/pkg/xmltree"
)

//go:embed imdi_rules.yaml
var builtinIMDIRules []byte

// RuleSet is a declarative list of structural rewrites applied after parsing
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Rule applies to every element whose name path matches Path. Path segments
// are element local names; "*" matches any single element.
type Rule struct {
	Path           string     `yaml:"path"`
	SortChildren   []SortSpec `yaml:"sort_children,omitempty"`
	DropAttributes []string   `yaml:"drop_attributes,omitempty"`
	DropElements   []string   `yaml:"drop_elements,omitempty"`

	segments []string
}

// SortSpec reorders the repeatable children named Element. Key is either a
// child element name (its text is the key) or "@attr". Children without the
// key, and ties, are ordered by their canonical serialization.
type SortSpec struct {
	Element string `yaml:"element"`
	Key     string `yaml:"key,omitempty"`
}

// BuiltinIMDIRules returns the embedded rule set for IMDI session and
// corpus records
func BuiltinIMDIRules() *RuleSet {
	rs, err := ParseRules(builtinIMDIRules)
	if err != nil {
		panic(fmt.Sprintf("embedded IMDI rules are invalid: %v", err))
	}
	return rs
}

// LoadRules reads a rule set from a YAML file
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	rs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// ParseRules decodes and validates a YAML rule set
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	for i := range rs.Rules {
		r := &rs.Rules[i]
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("rule %d: path %q must be absolute", i+1, r.Path)
		}
		for _, s := range r.SortChildren {
			if s.Element == "" {
				return nil, fmt.Errorf("rule %d: sort_children entry without element", i+1)
			}
		}
		r.segments = strings.Split(strings.TrimPrefix(r.Path, "/"), "/")
	}
	return &rs, nil
}

func (r *Rule) matches(segments []string) bool {
	if len(segments) != len(r.segments) {
		return false
	}
	for i, s := range r.segments {
		if s != "*" && s != segments[i] {
			return false
		}
	}
	return true
}

// Apply rewrites the document in place. Children are processed before their
// parent so sort keys see already normalized subtrees.
func (rs *RuleSet) Apply(doc *xmltree.Document) {
	if rs == nil || len(rs.Rules) == 0 || doc == nil || doc.Root == nil {
		return
	}
	rs.apply(doc.Root, nil)
}

func (rs *RuleSet) apply(el *xmltree.Element, parent []string) {
	segments := append(parent[:len(parent):len(parent)], el.Name)

	for i := range rs.Rules {
		r := &rs.Rules[i]
		if !r.matches(segments) {
			continue
		}
		for _, name := range r.DropAttributes {
			el.RemoveAttr(name)
		}
		for _, name := range r.DropElements {
			el.RemoveChildren(name)
		}
	}

	for _, c := range el.Children {
		rs.apply(c, segments)
	}

	for i := range rs.Rules {
		r := &rs.Rules[i]
		if !r.matches(segments) {
			continue
		}
		for _, spec := range r.SortChildren {
			sortChildren(el, spec)
		}
	}
}

type keyed struct {
	el        *xmltree.Element
	hasKey    bool
	key       string
	canonical string
}

// sortChildren reorders the children named spec.Element among the positions
// they already occupy; other children keep their place
func sortChildren(el *xmltree.Element, spec SortSpec) {
	var (
		positions []int
		items     []keyed
	)
	for i, c := range el.Children {
		if c.Name != spec.Element {
			continue
		}
		positions = append(positions, i)
		k := keyed{el: c, canonical: c.Canonical()}
		k.key, k.hasKey = sortKey(c, spec.Key)
		items = append(items, k)
	}
	if len(items) < 2 {
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.hasKey != b.hasKey {
			return a.hasKey
		}
		if a.key != b.key {
			return a.key < b.key
		}
		return a.canonical < b.canonical
	})
	for i, pos := range positions {
		el.Children[pos] = items[i].el
	}
}

func sortKey(el *xmltree.Element, key string) (string, bool) {
	switch {
	case key == "":
		return "", false
	case strings.HasPrefix(key, "@"):
		return el.Attr(key[1:])
	default:
		child := el.Child(key)
		if child == nil {
			return "", false
		}
		return xmltree.CollapseWhitespace(child.Text), true
	}
}
