package ets

import (
	"fmt"
	"regexp"

	"github.com/beevik/etree"
)

// schemaNamespace extracts the version segment from the KNX project
// namespace, e.g. "http://knx.org/xml/project/21" -> "21".
var schemaNamespace = regexp.MustCompile(`http://knx\.org/xml/project/([0-9.]+)`)

// Document wraps a parsed project document together with its dialect.
type Document struct {
	root    *etree.Element
	dialect Dialect

	// SchemaVersion is the version string recovered from the root
	// namespace, e.g. "21".
	SchemaVersion string
}

// LoadDocument parses an installation or metadata document and detects the
// schema dialect from the root namespace.
func LoadDocument(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedDocument)
	}
	version := rootNamespaceVersion(root)
	return &Document{
		root:          root,
		dialect:       dialectForSchemaVersion(version),
		SchemaVersion: version,
	}, nil
}

// Root returns the document's root element.
func (d *Document) Root() *etree.Element {
	return d.root
}

// Dialect returns the schema dialect detected at load time.
func (d *Document) Dialect() Dialect {
	return d.dialect
}

// Installation returns the first installation element, following
// KNX/Project/Installations/Installation.
func (d *Document) Installation() (*etree.Element, error) {
	el := firstByPath(d.root, "Project", "Installations", "Installation")
	if el == nil {
		return nil, fmt.Errorf("%w: no Installation element", ErrMalformedDocument)
	}
	return el, nil
}

// rootNamespaceVersion recovers the schema version from the namespace
// declaration on the root element. Both default and prefixed declarations
// occur in the wild.
func rootNamespaceVersion(root *etree.Element) string {
	attr := "xmlns"
	if root.Space != "" {
		attr = "xmlns:" + root.Space
	}
	m := schemaNamespace.FindStringSubmatch(root.SelectAttrValue(attr, ""))
	if m == nil {
		return ""
	}
	return m[1]
}

// childrenByTag returns the direct children whose local tag name matches,
// in document order. Namespace prefixes are ignored.
func childrenByTag(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}

// childByTag returns the first direct child with the given local tag name,
// or nil.
func childByTag(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

// descendantsByTag returns every descendant with the given local tag name,
// in document order.
func descendantsByTag(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, child := range e.ChildElements() {
			if child.Tag == tag {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(el)
	return out
}

// firstByPath descends through the given local tag names, taking the first
// match at every level.
func firstByPath(el *etree.Element, tags ...string) *etree.Element {
	cur := el
	for _, tag := range tags {
		cur = childByTag(cur, tag)
		if cur == nil {
			return nil
		}
	}
	return cur
}
