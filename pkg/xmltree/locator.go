package xmltree

import (
	"strconv"
	"strings"
)

// StepKind is the kind of the final step of a locator
type StepKind int

const (
	// StepNone is returned for the empty locator
	StepNone StepKind = iota
	// StepElement addresses an element
	StepElement
	// StepAttribute addresses an attribute (@name)
	StepAttribute
	// StepText addresses the text content (text()[1])
	StepText
)

// TextStep is the locator step addressing an element's text content
const TextStep = "text()[1]"

// RootLocator returns the locator of a root element. The root is unique so
// its step carries no occurrence index.
func RootLocator(name string) string {
	return "/" + name
}

// ChildLocator returns the locator of the index-th (1-based) same-named child
func ChildLocator(parent, name string, index int) string {
	return parent + "/" + name + "[" + strconv.Itoa(index) + "]"
}

// AttrLocator returns the locator of an attribute of the element at parent
func AttrLocator(parent, name string) string {
	return parent + "/@" + name
}

// TextLocator returns the locator of the text of the element at parent
func TextLocator(parent string) string {
	return parent + "/" + TextStep
}

// Steps splits a locator into its steps
func Steps(loc string) []string {
	trimmed := strings.TrimPrefix(loc, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// FinalStepKind reports the kind of the last step of a locator
func FinalStepKind(loc string) StepKind {
	steps := Steps(loc)
	if len(steps) == 0 {
		return StepNone
	}
	last := steps[len(steps)-1]
	switch {
	case strings.HasPrefix(last, "@"):
		return StepAttribute
	case last == TextStep:
		return StepText
	default:
		return StepElement
	}
}

// LastElementName returns the name of the deepest element step of a locator,
// without its occurrence index
func LastElementName(loc string) string {
	steps := Steps(loc)
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		if strings.HasPrefix(s, "@") || s == TextStep {
			continue
		}
		if idx := strings.IndexByte(s, '['); idx >= 0 {
			return s[:idx]
		}
		return s
	}
	return ""
}

// StripIndices removes occurrence indices from every step, giving the
// element name path used by normalization rules
func StripIndices(loc string) string {
	steps := Steps(loc)
	for i, s := range steps {
		if s == TextStep {
			continue
		}
		if idx := strings.IndexByte(s, '['); idx >= 0 {
			steps[i] = s[:idx]
		}
	}
	if len(steps) == 0 {
		return ""
	}
	return "/" + strings.Join(steps, "/")
}
