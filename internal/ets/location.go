package ets

import (
	"strings"

	"github.com/beevik/etree"
)

// Known space type tags. The set is closed per schema version but has
// grown over time, so unknown tags pass through rather than failing.
const (
	SpaceTypeBuilding          = "Building"
	SpaceTypeBuildingPart      = "BuildingPart"
	SpaceTypeFloor             = "Floor"
	SpaceTypeRoom              = "Room"
	SpaceTypeCorridor          = "Corridor"
	SpaceTypeStairway          = "Stairway"
	SpaceTypeDistributionBoard = "DistributionBoard"
)

// LoadLocations recursively parses the spatial hierarchy. deviceIndex maps
// device identifiers to individual addresses and must come from the
// already-built topology; device references that do not resolve are
// dropped. Discovered functions are collected into the returned flat list,
// each tagged with its owning space identifier.
func LoadLocations(doc *Document, deviceIndex map[string]string) ([]*Space, []*Function, error) {
	installation, err := doc.Installation()
	if err != nil {
		return nil, nil, err
	}

	loader := &locationLoader{
		spaceTag: doc.Dialect().SpaceTag(),
		devices:  deviceIndex,
	}
	var spaces []*Space
	for _, section := range childrenByTag(installation, doc.Dialect().LocationsTag()) {
		for _, el := range childrenByTag(section, loader.spaceTag) {
			spaces = append(spaces, loader.parseSpace(el))
		}
	}
	return spaces, loader.functions, nil
}

type locationLoader struct {
	spaceTag  string
	devices   map[string]string
	functions []*Function
}

// parseSpace builds one spatial node. Nesting depth is unbounded in the
// schema; children are classified by tag suffix because the dialects nest
// them differently.
func (l *locationLoader) parseSpace(el *etree.Element) *Space {
	space := &Space{
		ID:          el.SelectAttrValue("Id", ""),
		Name:        el.SelectAttrValue("Name", ""),
		Type:        el.SelectAttrValue("Type", ""),
		UsageID:     el.SelectAttrValue("Usage", ""),
		Number:      el.SelectAttrValue("Number", ""),
		Description: el.SelectAttrValue("Description", ""),
		ProjectUID:  parseProjectUID(el.SelectAttrValue("Puid", "")),
	}

	for _, sub := range el.ChildElements() {
		switch {
		case strings.HasSuffix(sub.Tag, l.spaceTag):
			space.Spaces = append(space.Spaces, l.parseSpace(sub))
		case strings.HasSuffix(sub.Tag, "DeviceInstanceRef"):
			if address, ok := l.devices[sub.SelectAttrValue("RefId", "")]; ok {
				space.Devices = append(space.Devices, address)
			}
		case strings.HasSuffix(sub.Tag, "Function"):
			function := parseFunction(sub)
			function.SpaceID = space.ID
			l.functions = append(l.functions, function)
			space.Functions = append(space.Functions, function.ID)
		}
	}
	return space
}

// parseFunction builds one function declaration. Function identifiers and
// their group-address reference ids both carry a project id prefix that is
// stripped here; the resolved address strings are backfilled later by the
// resolver.
func parseFunction(el *etree.Element) *Function {
	function := &Function{
		ID:           stripProjectPrefix(el.SelectAttrValue("Id", "")),
		Name:         el.SelectAttrValue("Name", ""),
		FunctionType: el.SelectAttrValue("Type", ""),
		ProjectUID:   parseProjectUID(el.SelectAttrValue("Puid", "")),
	}
	for _, sub := range el.ChildElements() {
		if !strings.HasSuffix(sub.Tag, "GroupAddressRef") {
			continue
		}
		function.GroupAddresses = append(function.GroupAddresses, &GroupAddressRef{
			ID:         sub.SelectAttrValue("Id", ""),
			RefID:      stripProjectPrefix(sub.SelectAttrValue("RefId", "")),
			Name:       sub.SelectAttrValue("Name", ""),
			Role:       sub.SelectAttrValue("Role", ""),
			ProjectUID: parseProjectUID(sub.SelectAttrValue("Puid", "")),
		})
	}
	return function
}
