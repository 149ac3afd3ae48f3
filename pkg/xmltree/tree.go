// Package xmltree holds the in-memory document model shared by the
// normalizer and the differ: an element tree with unordered attributes,
// per-element text and ordered children.
package xmltree

import (
	"sort"
	"strings"
)

// Attr is an attribute of an element. Space holds the resolved namespace URI.
type Attr struct {
	Space string
	Name  string
	Value string
}

// QualifiedName returns the attribute name as it appears in locators: the
// local name, prefixed for namespaced attributes. xml and xsi keep their
// conventional prefixes; other namespaces use the last segment of their URI.
func (a Attr) QualifiedName() string {
	if a.Space == "" {
		return a.Name
	}
	return namespacePrefix(a.Space) + ":" + a.Name
}

func namespacePrefix(space string) string {
	switch space {
	case xmlNamespace:
		return "xml"
	case xsiNamespace:
		return "xsi"
	}
	seg := strings.TrimRight(space, "/#:")
	if i := strings.LastIndexAny(seg, "/#:"); i >= 0 {
		seg = seg[i+1:]
	}
	if seg == "" {
		return "ns"
	}
	return seg
}

// Element is a node of the document tree
type Element struct {
	Space    string
	Name     string
	Attrs    []Attr
	Text     string
	Comments []string
	Children []*Element
}

// Document is a parsed XML document
type Document struct {
	Root *Element
}

// Attr returns the value of the named attribute
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// RemoveAttr drops every attribute with the given local name
func (e *Element) RemoveAttr(name string) {
	kept := e.Attrs[:0]
	for _, a := range e.Attrs {
		if a.Name != name {
			kept = append(kept, a)
		}
	}
	e.Attrs = kept
}

// Child returns the first child element with the given name
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// RemoveChildren drops every child element with the given name
func (e *Element) RemoveChildren(name string) {
	kept := e.Children[:0]
	for _, c := range e.Children {
		if c.Name != name {
			kept = append(kept, c)
		}
	}
	e.Children = kept
}

// HasText reports whether the element carries non-whitespace text
func (e *Element) HasText() bool {
	return strings.TrimSpace(e.Text) != ""
}

// IsEmpty reports whether the element has no text, no children and no
// attribute with a non-empty value
func (e *Element) IsEmpty() bool {
	if e.HasText() || len(e.Children) > 0 {
		return false
	}
	for _, a := range e.Attrs {
		if a.Value != "" {
			return false
		}
	}
	return true
}

// SortAttrs orders attributes by local name, then namespace
func (e *Element) SortAttrs() {
	sort.SliceStable(e.Attrs, func(i, j int) bool {
		if e.Attrs[i].Name != e.Attrs[j].Name {
			return e.Attrs[i].Name < e.Attrs[j].Name
		}
		return e.Attrs[i].Space < e.Attrs[j].Space
	})
}

// Walk calls fn for e and every descendant in document order, passing the
// slash-separated element name path from the root
func (e *Element) Walk(fn func(path string, el *Element)) {
	e.walk("", fn)
}

func (e *Element) walk(prefix string, fn func(string, *Element)) {
	path := prefix + "/" + e.Name
	fn(path, e)
	for _, c := range e.Children {
		c.walk(path, fn)
	}
}

// CollapseWhitespace replaces runs of whitespace with a single space and
// trims the result
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
