package ets

// LoadProjectInformation parses the project metadata document. Exports
// without a Project or ProjectInformation node still yield the
// root-attribute metadata (authoring tool and schema version).
func LoadProjectInformation(data []byte) (*ProjectInformation, error) {
	doc, err := LoadDocument(data)
	if err != nil {
		return nil, err
	}
	root := doc.Root()

	info := &ProjectInformation{
		CreatedBy:     root.SelectAttrValue("CreatedBy", ""),
		ToolVersion:   root.SelectAttrValue("ToolVersion", ""),
		SchemaVersion: doc.SchemaVersion,
	}

	project := childByTag(root, "Project")
	if project == nil {
		return info, nil
	}
	info.ProjectID = project.SelectAttrValue("Id", "")

	details := childByTag(project, "ProjectInformation")
	if details == nil {
		return info, nil
	}
	info.Name = details.SelectAttrValue("Name", "")
	info.LastModified = details.SelectAttrValue("LastModified", "")
	info.GroupAddressStyle = details.SelectAttrValue("GroupAddressStyle", "")
	info.GUID = details.SelectAttrValue("Guid", "")
	return info, nil
}
