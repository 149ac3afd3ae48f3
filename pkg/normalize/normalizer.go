// Package normalize turns raw metadata records into a canonical document
// form: optional external transformation, parsing, declarative structural
// rules and canonical serialization.
package normalize

import (
	"bytes"
	"context"

	"github.com/sdejongh/imdidiff/pkg/xmltree"
)

// Options controls parsing. The zero value keeps comments and whitespace.
type Options struct {
	IgnoreComments      bool `yaml:"ignore_comments"`
	IgnoreWhitespace    bool `yaml:"ignore_whitespace"`
	NormalizeWhitespace bool `yaml:"normalize_whitespace"`
}

// DefaultOptions drops comments and whitespace-only text and collapses
// whitespace runs
func DefaultOptions() Options {
	return Options{IgnoreComments: true, IgnoreWhitespace: true, NormalizeWhitespace: true}
}

func (o Options) parseOptions() xmltree.ParseOptions {
	return xmltree.ParseOptions{
		IgnoreComments:      o.IgnoreComments,
		IgnoreWhitespace:    o.IgnoreWhitespace,
		NormalizeWhitespace: o.NormalizeWhitespace,
	}
}

// Normalizer produces the canonical form of a document. It holds no mutable
// state and may be shared.
type Normalizer struct {
	opts        Options
	rules       *RuleSet
	transformer Transformer
}

// New creates a normalizer. rules and transformer may be nil.
func New(opts Options, rules *RuleSet, transformer Transformer) *Normalizer {
	return &Normalizer{opts: opts, rules: rules, transformer: transformer}
}

// Normalize canonicalizes raw, returning the document and its canonical
// serialization. name identifies the input in errors and log entries.
func (n *Normalizer) Normalize(ctx context.Context, name string, raw []byte) (*xmltree.Document, []byte, error) {
	input := raw
	if n.transformer != nil {
		out, err := n.transformer.Transform(ctx, name, raw)
		if err != nil {
			return nil, nil, newError(name, StageTransform, err)
		}
		input = out
	}

	doc, err := xmltree.Parse(bytes.NewReader(input), n.opts.parseOptions())
	if err != nil {
		return nil, nil, newError(name, StageParse, err)
	}

	n.rules.Apply(doc)
	return doc, xmltree.Serialize(doc), nil
}
