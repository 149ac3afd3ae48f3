package models

import (
	"fmt"
	"strconv"
	"strings"
)

// DifferenceKind categorizes a structural difference between two documents.
// The numeric value is the difference code operators use in exclude lists
// (written as ID<code>).
type DifferenceKind int

const (
	// AttributeMissing indicates an attribute present on one side only
	AttributeMissing DifferenceKind = 2
	// AttributeValueDiffers indicates an attribute with different values
	AttributeValueDiffers DifferenceKind = 3
	// ElementNameDiffers indicates differently named root elements
	ElementNameDiffers DifferenceKind = 10
	// AttributeCountDiffers indicates a different number of attributes
	AttributeCountDiffers DifferenceKind = 11
	// TextValueDiffers indicates different text content
	TextValueDiffers DifferenceKind = 14
	// NamespaceURIDiffers indicates elements in different namespaces
	NamespaceURIDiffers DifferenceKind = 16
	// NodeTypeDiffers indicates text content on one side, child elements on the other
	NodeTypeDiffers DifferenceKind = 17
	// ChildCountDiffers indicates a different number of child elements
	ChildCountDiffers DifferenceKind = 19
	// ElementMissing indicates a child element present on one side only
	ElementMissing DifferenceKind = 22
)

var kindNames = map[DifferenceKind]string{
	AttributeMissing:      "AttributeMissing",
	AttributeValueDiffers: "AttributeValueDiffers",
	ElementNameDiffers:    "ElementNameDiffers",
	AttributeCountDiffers: "AttributeCountDiffers",
	TextValueDiffers:      "TextValueDiffers",
	NamespaceURIDiffers:   "NamespaceURIDiffers",
	NodeTypeDiffers:       "NodeTypeDiffers",
	ChildCountDiffers:     "ChildCountDiffers",
	ElementMissing:        "ElementMissing",
}

// Kinds returns all known difference kinds ordered by code
func Kinds() []DifferenceKind {
	return []DifferenceKind{
		AttributeMissing,
		AttributeValueDiffers,
		ElementNameDiffers,
		AttributeCountDiffers,
		TextValueDiffers,
		NamespaceURIDiffers,
		NodeTypeDiffers,
		ChildCountDiffers,
		ElementMissing,
	}
}

// String returns the kind name
func (k DifferenceKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Code returns the difference code as written in reports and exclude lists
func (k DifferenceKind) Code() string {
	return fmt.Sprintf("ID%d", int(k))
}

// Valid reports whether k is one of the known kinds
func (k DifferenceKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// DefaultRecoverable returns the recoverability of the kind when no
// equivalence rule applies. Count differences are informational: the
// attributes and children that caused them are reported on their own.
func (k DifferenceKind) DefaultRecoverable() bool {
	switch k {
	case AttributeCountDiffers, ChildCountDiffers:
		return true
	default:
		return false
	}
}

// ParseKindCode parses a difference code in the form "ID3" or "3"
func ParseKindCode(s string) (DifferenceKind, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "ID"), "id")
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid difference code %q", s)
	}
	return DifferenceKind(n), nil
}

// NodeType identifies the type of a node captured in a snapshot
type NodeType string

const (
	// NodeElement is an element node
	NodeElement NodeType = "element"
	// NodeAttribute is an attribute node
	NodeAttribute NodeType = "attribute"
	// NodeText is the text content of an element
	NodeText NodeType = "text"
)

// NodeSnapshot captures the parts of a node the equivalence rules look at
type NodeSnapshot struct {
	Type NodeType `json:"type"`
	// Name is the element or attribute local name; empty for text nodes
	Name string `json:"name,omitempty"`
	// Parent is the local name of the owning element
	Parent string `json:"parent,omitempty"`
	// Value is the attribute value or normalized text
	Value string `json:"value,omitempty"`
	// Empty is set for elements without text, children or non-empty attributes
	Empty bool `json:"empty,omitempty"`
}

// Difference is a single structural difference between a source and a target
// document. A locator is empty when the node does not exist on that side.
type Difference struct {
	Kind          DifferenceKind `json:"kind"`
	SourceLocator string         `json:"source_locator,omitempty"`
	TargetLocator string         `json:"target_locator,omitempty"`
	Source        *NodeSnapshot  `json:"source,omitempty"`
	Target        *NodeSnapshot  `json:"target,omitempty"`
}

// Code returns the difference code of the kind
func (d Difference) Code() string {
	return d.Kind.Code()
}

// String formats the difference for log and report lines
func (d Difference) String() string {
	return fmt.Sprintf("%s %s: %s -> %s (%s -> %s)",
		d.Code(), d.Kind,
		locatorOrNone(d.SourceLocator), locatorOrNone(d.TargetLocator),
		snapshotValue(d.Source), snapshotValue(d.Target))
}

func locatorOrNone(loc string) string {
	if loc == "" {
		return "<none>"
	}
	return loc
}

func snapshotValue(s *NodeSnapshot) string {
	if s == nil {
		return "absent"
	}
	if s.Type == NodeElement && s.Value == "" {
		return "<" + s.Name + ">"
	}
	return strconv.Quote(s.Value)
}

// Classification is the outcome of evaluating a difference
type Classification string

const (
	// Divergent differences are reported to the operator
	Divergent Classification = "divergent"
	// Recoverable differences are semantically harmless
	Recoverable Classification = "recoverable"
	// Suppressed differences matched an operator exclusion rule
	Suppressed Classification = "suppressed"
)

// ClassifiedDifference is a difference together with its classification
type ClassifiedDifference struct {
	Difference
	Classification Classification `json:"classification"`
	// Rule names the equivalence predicate or exclusion that applied
	Rule string `json:"rule,omitempty"`
}
