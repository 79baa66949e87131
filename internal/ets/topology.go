package ets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// LoadTopology parses the area/line/device hierarchy of the installation
// document into an owned tree. Devices without an address attribute denote
// non-addressable hardware (power supplies and the like) and are skipped.
func LoadTopology(doc *Document) ([]*Area, error) {
	installation, err := doc.Installation()
	if err != nil {
		return nil, err
	}

	var areas []*Area
	for _, topology := range childrenByTag(installation, "Topology") {
		for _, areaEl := range childrenByTag(topology, "Area") {
			area, err := loadArea(areaEl, doc.Dialect())
			if err != nil {
				return nil, err
			}
			areas = append(areas, area)
		}
	}
	return areas, nil
}

// Devices flattens a topology into its device list, in document order.
func Devices(areas []*Area) []*DeviceInstance {
	var devices []*DeviceInstance
	for _, area := range areas {
		for _, line := range area.Lines {
			devices = append(devices, line.Devices...)
		}
	}
	return devices
}

// DeviceIndex maps device identifiers to individual addresses, as needed
// by the location builder.
func DeviceIndex(areas []*Area) map[string]string {
	index := make(map[string]string)
	for _, device := range Devices(areas) {
		index[device.ID] = device.IndividualAddress
	}
	return index
}

func loadArea(el *etree.Element, dialect Dialect) (*Area, error) {
	address, err := requiredIntAttr(el, "Address")
	if err != nil {
		return nil, err
	}
	area := &Area{
		Address:     address,
		Name:        el.SelectAttrValue("Name", ""),
		Description: el.SelectAttrValue("Description", ""),
	}
	for _, lineEl := range childrenByTag(el, "Line") {
		line, err := loadLine(lineEl, area, dialect)
		if err != nil {
			return nil, err
		}
		area.Lines = append(area.Lines, line)
	}
	return area, nil
}

func loadLine(el *etree.Element, area *Area, dialect Dialect) (*Line, error) {
	address, err := requiredIntAttr(el, "Address")
	if err != nil {
		return nil, err
	}

	// Newer exports introduce a Segment grouping between line and devices;
	// it has no semantic effect beyond holding the medium type.
	mediumType := el.SelectAttrValue("MediumTypeRefId", "")
	if segment := childByTag(el, "Segment"); segment != nil {
		mediumType = segment.SelectAttrValue("MediumTypeRefId", "")
	}

	line := &Line{
		Address:     address,
		Name:        el.SelectAttrValue("Name", ""),
		Description: el.SelectAttrValue("Description", ""),
		MediumType:  mediumType,
		Area:        area,
	}

	// Descendant search tolerates the Segment grouping.
	for _, deviceEl := range descendantsByTag(el, "DeviceInstance") {
		if device := loadDevice(deviceEl, line, dialect); device != nil {
			line.Devices = append(line.Devices, device)
		}
	}
	return line, nil
}

func loadDevice(el *etree.Element, line *Line, dialect Dialect) *DeviceInstance {
	addr := el.SelectAttr("Address")
	if addr == nil {
		return nil
	}

	productRef := el.SelectAttrValue("ProductRefId", "")
	manufacturer, _, _ := strings.Cut(productRef, "_")
	device := &DeviceInstance{
		ID:                 el.SelectAttrValue("Id", ""),
		Address:            addr.Value,
		IndividualAddress:  fmt.Sprintf("%d.%d.%s", line.Area.Address, line.Address, addr.Value),
		ProjectUID:         parseProjectUID(el.SelectAttrValue("Puid", "")),
		Name:               el.SelectAttrValue("Name", ""),
		Description:        el.SelectAttrValue("Description", ""),
		LastModified:       el.SelectAttrValue("LastModified", ""),
		ProductRef:         productRef,
		HardwareProgramRef: el.SelectAttrValue("Hardware2ProgramRefId", ""),
		Manufacturer:       manufacturer,
		Line:               line,
	}

	// The same logical children sit under differently nested parents
	// across dialects, so classification goes by tag suffix in document
	// order.
	for _, sub := range el.ChildElements() {
		switch {
		case strings.HasSuffix(sub.Tag, "AdditionalAddresses"):
			for _, addressEl := range sub.ChildElements() {
				if a := addressEl.SelectAttrValue("Address", ""); a != "" {
					device.AdditionalAddresses = append(device.AdditionalAddresses, a)
				}
			}
		case strings.HasSuffix(sub.Tag, "ComObjectInstanceRefs"):
			for _, comEl := range sub.ChildElements() {
				if instance := loadComObjectInstance(comEl, dialect); instance != nil {
					device.ComObjectInstances = append(device.ComObjectInstances, instance)
				}
			}
		}
	}
	return device
}

// loadComObjectInstance parses one com-object instance reference. An
// instance without resolvable links cannot participate in the reverse index
// and is discarded entirely.
func loadComObjectInstance(el *etree.Element, dialect Dialect) *ComObjectInstance {
	links := dialect.comObjectLinks(el)
	if len(links) == 0 {
		return nil
	}
	return &ComObjectInstance{
		ID:                el.SelectAttrValue("Id", ""),
		RefID:             el.SelectAttrValue("RefId", ""),
		Text:              el.SelectAttrValue("Text", ""),
		FunctionText:      el.SelectAttrValue("FunctionText", ""),
		Description:       el.SelectAttrValue("Description", ""),
		ReadFlag:          parseFlag(el.SelectAttrValue("ReadFlag", "")),
		WriteFlag:         parseFlag(el.SelectAttrValue("WriteFlag", "")),
		CommunicationFlag: parseFlag(el.SelectAttrValue("CommunicationFlag", "")),
		TransmitFlag:      parseFlag(el.SelectAttrValue("TransmitFlag", "")),
		UpdateFlag:        parseFlag(el.SelectAttrValue("UpdateFlag", "")),
		ReadOnInitFlag:    parseFlag(el.SelectAttrValue("ReadOnInitFlag", "")),
		DatapointTypes:    ParseDPTs(el.SelectAttrValue("DatapointType", "")),
		Links:             links,
	}
}

func requiredIntAttr(el *etree.Element, name string) (int, error) {
	attr := el.SelectAttr(name)
	if attr == nil {
		return 0, fmt.Errorf("%w: <%s> missing %s attribute", ErrMalformedDocument, el.Tag, name)
	}
	value, err := strconv.Atoi(attr.Value)
	if err != nil {
		return 0, fmt.Errorf("%w: <%s> %s=%q is not numeric", ErrMalformedDocument, el.Tag, name, attr.Value)
	}
	return value, nil
}
