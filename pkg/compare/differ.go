package compare

import (
	"sort"
	"strconv"

	"github.com/sdejongh/imdidiff/pkg/models"
	"github.com/sdejongh/imdidiff/pkg/xmltree"
)

// Differ performs a structural comparison of two canonical documents.
// Element children are aligned by name and occurrence index; attributes are
// compared as a name to value mapping.
type Differ struct{}

// NewDiffer creates a tree differ
func NewDiffer() *Differ {
	return &Differ{}
}

// Diff returns every raw difference between source and target in a
// deterministic order. Identical documents produce an empty slice.
func (d *Differ) Diff(source, target *xmltree.Document) []models.Difference {
	var out []models.Difference
	if source == nil || target == nil || source.Root == nil || target.Root == nil {
		return out
	}

	src, tgt := source.Root, target.Root
	srcLoc, tgtLoc := xmltree.RootLocator(src.Name), xmltree.RootLocator(tgt.Name)
	if src.Name != tgt.Name {
		return append(out, models.Difference{
			Kind:          models.ElementNameDiffers,
			SourceLocator: srcLoc,
			TargetLocator: tgtLoc,
			Source:        elementSnapshot(src, ""),
			Target:        elementSnapshot(tgt, ""),
		})
	}

	w := &diffWalk{}
	w.element(src, tgt, srcLoc, tgtLoc, "")
	return w.out
}

type diffWalk struct {
	out []models.Difference
}

func (w *diffWalk) add(kind models.DifferenceKind, srcLoc, tgtLoc string, src, tgt *models.NodeSnapshot) {
	w.out = append(w.out, models.Difference{
		Kind:          kind,
		SourceLocator: srcLoc,
		TargetLocator: tgtLoc,
		Source:        src,
		Target:        tgt,
	})
}

func (w *diffWalk) element(a, b *xmltree.Element, locA, locB, parent string) {
	if a.Space != b.Space {
		sa, sb := elementSnapshot(a, parent), elementSnapshot(b, parent)
		sa.Value, sb.Value = a.Space, b.Space
		w.add(models.NamespaceURIDiffers, locA, locB, sa, sb)
	}

	w.attributes(a, b, locA, locB)
	w.content(a, b, locA, locB, parent)
	w.children(a, b, locA, locB)
}

func (w *diffWalk) attributes(a, b *xmltree.Element, locA, locB string) {
	if len(a.Attrs) != len(b.Attrs) {
		sa, sb := elementSnapshot(a, ""), elementSnapshot(b, "")
		sa.Value, sb.Value = strconv.Itoa(len(a.Attrs)), strconv.Itoa(len(b.Attrs))
		w.add(models.AttributeCountDiffers, locA, locB, sa, sb)
	}

	attrsA, attrsB := attrMap(a), attrMap(b)
	keys := make([]string, 0, len(attrsA)+len(attrsB))
	for key := range attrsA {
		keys = append(keys, key)
	}
	for key := range attrsB {
		if _, ok := attrsA[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		aa, inA := attrsA[key]
		ab, inB := attrsB[key]
		switch {
		case inA && !inB:
			name := aa.QualifiedName()
			w.add(models.AttributeMissing, xmltree.AttrLocator(locA, name), "", attrSnapshot(a, name, aa.Value), nil)
		case !inA && inB:
			name := ab.QualifiedName()
			w.add(models.AttributeMissing, "", xmltree.AttrLocator(locB, name), nil, attrSnapshot(b, name, ab.Value))
		case aa.Value != ab.Value:
			name := aa.QualifiedName()
			w.add(models.AttributeValueDiffers,
				xmltree.AttrLocator(locA, name), xmltree.AttrLocator(locB, name),
				attrSnapshot(a, name, aa.Value), attrSnapshot(b, name, ab.Value))
		}
	}
}

// content compares the text of two aligned elements
func (w *diffWalk) content(a, b *xmltree.Element, locA, locB, parent string) {
	textA, textB := xmltree.CollapseWhitespace(a.Text), xmltree.CollapseWhitespace(b.Text)

	textOnlyA := textA != "" && len(a.Children) == 0
	textOnlyB := textB != "" && len(b.Children) == 0
	childrenOnlyA := textA == "" && len(a.Children) > 0
	childrenOnlyB := textB == "" && len(b.Children) > 0
	if (textOnlyA && childrenOnlyB) || (childrenOnlyA && textOnlyB) {
		sa, sb := contentSnapshot(a, textA, parent), contentSnapshot(b, textB, parent)
		w.add(models.NodeTypeDiffers, locA, locB, sa, sb)
		return
	}

	if textA == textB {
		return
	}
	var (
		sa, sb       *models.NodeSnapshot
		tLocA, tLocB string
	)
	if textA != "" {
		sa = &models.NodeSnapshot{Type: models.NodeText, Parent: a.Name, Value: textA}
		tLocA = xmltree.TextLocator(locA)
	}
	if textB != "" {
		sb = &models.NodeSnapshot{Type: models.NodeText, Parent: b.Name, Value: textB}
		tLocB = xmltree.TextLocator(locB)
	}
	w.add(models.TextValueDiffers, tLocA, tLocB, sa, sb)
}

func (w *diffWalk) children(a, b *xmltree.Element, locA, locB string) {
	if len(a.Children) != len(b.Children) {
		sa, sb := elementSnapshot(a, ""), elementSnapshot(b, "")
		sa.Value, sb.Value = strconv.Itoa(len(a.Children)), strconv.Itoa(len(b.Children))
		w.add(models.ChildCountDiffers, locA, locB, sa, sb)
	}

	indexB := occurrences(b)
	seenA := map[string]int{}
	for _, ca := range a.Children {
		seenA[ca.Name]++
		k := seenA[ca.Name]
		childLocA := xmltree.ChildLocator(locA, ca.Name, k)

		matches := indexB[ca.Name]
		if k > len(matches) {
			w.add(models.ElementMissing, childLocA, "", elementSnapshot(ca, a.Name), nil)
			continue
		}
		w.element(ca, matches[k-1], childLocA, xmltree.ChildLocator(locB, ca.Name, k), a.Name)
	}

	seenB := map[string]int{}
	for _, cb := range b.Children {
		seenB[cb.Name]++
		k := seenB[cb.Name]
		if k > seenA[cb.Name] {
			w.add(models.ElementMissing, "", xmltree.ChildLocator(locB, cb.Name, k), nil, elementSnapshot(cb, b.Name))
		}
	}
}

func occurrences(e *xmltree.Element) map[string][]*xmltree.Element {
	idx := make(map[string][]*xmltree.Element, len(e.Children))
	for _, c := range e.Children {
		idx[c.Name] = append(idx[c.Name], c)
	}
	return idx
}

// attrMap indexes attributes by namespace and local name
func attrMap(e *xmltree.Element) map[string]xmltree.Attr {
	m := make(map[string]xmltree.Attr, len(e.Attrs))
	for _, a := range e.Attrs {
		m[a.Space+" "+a.Name] = a
	}
	return m
}

func elementSnapshot(e *xmltree.Element, parent string) *models.NodeSnapshot {
	return &models.NodeSnapshot{
		Type:   models.NodeElement,
		Name:   e.Name,
		Parent: parent,
		Value:  xmltree.CollapseWhitespace(e.Text),
		Empty:  e.IsEmpty(),
	}
}

func attrSnapshot(owner *xmltree.Element, name, value string) *models.NodeSnapshot {
	return &models.NodeSnapshot{
		Type:   models.NodeAttribute,
		Name:   name,
		Parent: owner.Name,
		Value:  value,
		Empty:  value == "",
	}
}

func contentSnapshot(e *xmltree.Element, text, parent string) *models.NodeSnapshot {
	if text != "" {
		return &models.NodeSnapshot{Type: models.NodeText, Parent: e.Name, Value: text}
	}
	return elementSnapshot(e, parent)
}
