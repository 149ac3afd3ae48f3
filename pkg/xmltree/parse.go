package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ParseOptions controls how character data and comments enter the tree
type ParseOptions struct {
	// IgnoreComments drops comments instead of keeping them on their element
	IgnoreComments bool
	// IgnoreWhitespace drops whitespace-only text of leaf elements
	IgnoreWhitespace bool
	// NormalizeWhitespace collapses whitespace runs in text to a single space
	NormalizeWhitespace bool
}

// ErrNoRoot is returned for input without a root element
var ErrNoRoot = errors.New("document has no root element")

// Parse reads an XML document into the tree model. Syntax errors are returned
// wrapped around *xml.SyntaxError so callers can recover the line number.
func Parse(r io.Reader, opts ParseOptions) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var (
		doc   Document
		stack []*Element
		texts []*strings.Builder
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && doc.Root != nil {
				line, _ := dec.InputPos()
				return nil, fmt.Errorf("parse: %w", &xml.SyntaxError{Msg: "multiple root elements", Line: line})
			}
			el := &Element{Space: t.Name.Space, Name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				el.Attrs = append(el.Attrs, Attr{Space: a.Name.Space, Name: a.Name.Local, Value: a.Value})
			}
			el.SortAttrs()
			if len(stack) == 0 {
				doc.Root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
			texts = append(texts, &strings.Builder{})

		case xml.EndElement:
			el := stack[len(stack)-1]
			el.Text = finishText(el, texts[len(texts)-1].String(), opts)
			stack = stack[:len(stack)-1]
			texts = texts[:len(texts)-1]

		case xml.CharData:
			if len(texts) > 0 {
				texts[len(texts)-1].Write(t)
			}

		case xml.Comment:
			if !opts.IgnoreComments && len(stack) > 0 {
				el := stack[len(stack)-1]
				el.Comments = append(el.Comments, strings.TrimSpace(string(t)))
			}
		}
	}

	if doc.Root == nil {
		return nil, ErrNoRoot
	}
	return &doc, nil
}

// ParseBytes is Parse over an in-memory document
func ParseBytes(data []byte, opts ParseOptions) (*Document, error) {
	return Parse(bytes.NewReader(data), opts)
}

// finishText decides the stored text of a closed element. Text mixed with
// child elements or comments is always trimmed, since the canonical layout
// puts it on its own indented line.
func finishText(el *Element, raw string, opts ParseOptions) string {
	structured := len(el.Children) > 0 || len(el.Comments) > 0
	if strings.TrimSpace(raw) == "" {
		if structured || opts.IgnoreWhitespace {
			return ""
		}
		return raw
	}
	if opts.NormalizeWhitespace {
		return CollapseWhitespace(raw)
	}
	if structured {
		return strings.TrimSpace(raw)
	}
	return raw
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return input, nil
	case "iso-8859-1", "latin1", "latin-1", "windows-1252":
		return &latin1Reader{r: input}, nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}

// latin1Reader transcodes ISO-8859-1 bytes to UTF-8
type latin1Reader struct {
	r       io.Reader
	pending []byte
}

func (l *latin1Reader) Read(p []byte) (int, error) {
	if len(l.pending) == 0 {
		buf := make([]byte, len(p)/2+1)
		n, err := l.r.Read(buf)
		for _, b := range buf[:n] {
			l.pending = utf8.AppendRune(l.pending, rune(b))
		}
		if n == 0 {
			return 0, err
		}
	}
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}
