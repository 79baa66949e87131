package ets

// LoadGroupAddresses collects every group address of the installation
// document into a flat list. Range nesting only groups addresses for
// display; traversal ignores it and collects leaf elements wherever they
// sit.
func LoadGroupAddresses(doc *Document) ([]*GroupAddress, error) {
	installation, err := doc.Installation()
	if err != nil {
		return nil, err
	}

	var addresses []*GroupAddress
	for _, section := range childrenByTag(installation, "GroupAddresses") {
		for _, el := range descendantsByTag(section, "GroupAddress") {
			raw, err := requiredIntAttr(el, "Address")
			if err != nil {
				return nil, err
			}
			addresses = append(addresses, &GroupAddress{
				ID:          stripProjectPrefix(el.SelectAttrValue("Id", "")),
				Name:        el.SelectAttrValue("Name", ""),
				RawAddress:  raw,
				Address:     FormatGroupAddress(raw),
				ProjectUID:  parseProjectUID(el.SelectAttrValue("Puid", "")),
				DPT:         FirstDPT(el.SelectAttrValue("DatapointType", "")),
				Description: el.SelectAttrValue("Description", ""),
			})
		}
	}
	return addresses, nil
}
