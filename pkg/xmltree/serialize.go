package xmltree

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

const (
	xmlNamespace = "http://www.w3.org/XML/1998/namespace"
	xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"
	indentUnit   = "  "
)

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")

// Serialize writes the canonical form of a document: a fixed XML declaration,
// attributes sorted by name, two-space indentation, one element per line,
// escaped text. Serializing a parsed canonical form reproduces it byte for byte.
func Serialize(doc *Document) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	if doc == nil || doc.Root == nil {
		return buf.Bytes()
	}
	w := &writer{buf: &buf, prefixes: attrPrefixes(doc.Root)}
	w.element(doc.Root, 0, "", true)
	return buf.Bytes()
}

// Canonical returns the canonical serialization of a single subtree without
// namespace declarations. It is used as a stable sort key.
func (e *Element) Canonical() string {
	var buf bytes.Buffer
	w := &writer{buf: &buf, prefixes: attrPrefixes(e), bare: true}
	w.element(e, 0, e.Space, false)
	return buf.String()
}

type writer struct {
	buf      *bytes.Buffer
	prefixes map[string]string
	// bare suppresses namespace declarations
	bare bool
}

func (w *writer) element(e *Element, depth int, parentSpace string, root bool) {
	indent := strings.Repeat(indentUnit, depth)
	w.buf.WriteString(indent)
	w.buf.WriteByte('<')
	w.buf.WriteString(e.Name)

	if !w.bare {
		if e.Space != parentSpace {
			w.attr("xmlns", e.Space)
		}
		if root {
			w.declarePrefixes()
		}
	}

	attrs := append([]Attr(nil), e.Attrs...)
	sort.SliceStable(attrs, func(i, j int) bool {
		if attrs[i].Name != attrs[j].Name {
			return attrs[i].Name < attrs[j].Name
		}
		return attrs[i].Space < attrs[j].Space
	})
	for _, a := range attrs {
		name := a.Name
		if a.Space != "" {
			name = w.prefixes[a.Space] + ":" + a.Name
		}
		w.attr(name, a.Value)
	}

	structured := len(e.Children) > 0 || len(e.Comments) > 0
	switch {
	case !structured && e.Text == "":
		w.buf.WriteString("/>\n")
		return
	case !structured:
		w.buf.WriteByte('>')
		w.buf.WriteString(textEscaper.Replace(e.Text))
	default:
		w.buf.WriteString(">\n")
		inner := indent + indentUnit
		for _, c := range e.Comments {
			fmt.Fprintf(w.buf, "%s<!-- %s -->\n", inner, c)
		}
		if e.Text != "" {
			w.buf.WriteString(inner)
			w.buf.WriteString(textEscaper.Replace(e.Text))
			w.buf.WriteByte('\n')
		}
		for _, c := range e.Children {
			w.element(c, depth+1, e.Space, false)
		}
		w.buf.WriteString(indent)
	}
	w.buf.WriteString("</")
	w.buf.WriteString(e.Name)
	w.buf.WriteString(">\n")
}

func (w *writer) attr(name, value string) {
	w.buf.WriteByte(' ')
	w.buf.WriteString(name)
	w.buf.WriteString(`="`)
	_ = xml.EscapeText(w.buf, []byte(value))
	w.buf.WriteByte('"')
}

func (w *writer) declarePrefixes() {
	spaces := make([]string, 0, len(w.prefixes))
	for space := range w.prefixes {
		if space != xmlNamespace {
			spaces = append(spaces, space)
		}
	}
	sort.Slice(spaces, func(i, j int) bool { return w.prefixes[spaces[i]] < w.prefixes[spaces[j]] })
	for _, space := range spaces {
		w.attr("xmlns:"+w.prefixes[space], space)
	}
}

// attrPrefixes assigns a deterministic prefix to every attribute namespace
// used below e
func attrPrefixes(e *Element) map[string]string {
	seen := map[string]bool{}
	e.Walk(func(_ string, el *Element) {
		for _, a := range el.Attrs {
			if a.Space != "" {
				seen[a.Space] = true
			}
		}
	})

	spaces := make([]string, 0, len(seen))
	for space := range seen {
		spaces = append(spaces, space)
	}
	sort.Strings(spaces)

	prefixes := make(map[string]string, len(spaces))
	n := 0
	for _, space := range spaces {
		switch space {
		case xmlNamespace:
			prefixes[space] = "xml"
		case xsiNamespace:
			prefixes[space] = "xsi"
		default:
			n++
			prefixes[space] = fmt.Sprintf("ns%d", n)
		}
	}
	return prefixes
}
