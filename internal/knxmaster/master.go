// Package knxmaster loads the enumerated master data tables shipped with
// every export (knx_master.xml): display names for function types, space
// usages, medium types and manufacturers. The resolver consults it to
// attach human-readable text to otherwise opaque codes.
package knxmaster

import (
	"fmt"

	"github.com/beevik/etree"
)

// mediumTypeNames maps the well-known medium type identifiers to their
// short names. Used when the master data document carries no Name for an
// entry (older exports list fewer attributes).
var mediumTypeNames = map[string]string{
	"MT-0": "TP",
	"MT-1": "PL",
	"MT-2": "RF",
	"MT-5": "IP",
}

// MasterData is the loaded lookup table set. All lookups are read-only and
// return empty strings for unknown codes; medium types fall back to
// "Unknown" to keep the output self-describing.
type MasterData struct {
	functionTypes map[string]string
	spaceUsages   map[string]string
	manufacturers map[string]string
	mediumTypes   map[string]string
}

// Load parses a master data document.
func Load(data []byte) (*MasterData, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parsing master data: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("parsing master data: no root element")
	}

	m := &MasterData{
		functionTypes: make(map[string]string),
		spaceUsages:   make(map[string]string),
		manufacturers: make(map[string]string),
		mediumTypes:   make(map[string]string),
	}
	for id, name := range mediumTypeNames {
		m.mediumTypes[id] = name
	}

	walk(root, func(el *etree.Element) {
		id := el.SelectAttrValue("Id", "")
		if id == "" {
			return
		}
		switch el.Tag {
		case "FunctionType":
			m.functionTypes[id] = displayText(el)
		case "SpaceUsage":
			m.spaceUsages[id] = displayText(el)
		case "Manufacturer":
			m.manufacturers[id] = el.SelectAttrValue("Name", "")
		case "MediumType":
			if name := el.SelectAttrValue("Name", ""); name != "" {
				m.mediumTypes[id] = name
			}
		}
	})
	return m, nil
}

// FunctionTypeName returns the display name of a function type code, or
// empty when unknown.
func (m *MasterData) FunctionTypeName(id string) string {
	return m.functionTypes[id]
}

// SpaceUsageName returns the display name of a space usage code, or empty
// when unknown.
func (m *MasterData) SpaceUsageName(id string) string {
	return m.spaceUsages[id]
}

// ManufacturerName returns the name of a manufacturer code, or empty when
// unknown.
func (m *MasterData) ManufacturerName(id string) string {
	return m.manufacturers[id]
}

// MediumTypeName returns the short medium name (TP, PL, RF, IP) of a
// medium type reference, or "Unknown".
func (m *MasterData) MediumTypeName(id string) string {
	if name, ok := m.mediumTypes[id]; ok {
		return name
	}
	return "Unknown"
}

// displayText prefers the Text attribute and falls back to Name.
func displayText(el *etree.Element) string {
	if text := el.SelectAttrValue("Text", ""); text != "" {
		return text
	}
	return el.SelectAttrValue("Name", "")
}

func walk(el *etree.Element, visit func(*etree.Element)) {
	for _, child := range el.ChildElements() {
		visit(child)
		walk(child, visit)
	}
}
