package ets

// Intermediate entities built from the installation document. They are
// produced in one parse pass and cross-referenced into the output model by
// the resolver; only the documented enrichment fields are written after
// construction.

// Area is one node of the physical topology. It owns its lines.
type Area struct {
	Address     int
	Name        string
	Description string
	Lines       []*Line
}

// Line is one bus line within an area. It owns its devices and holds a
// non-owning back-reference to its area for context lookups.
type Line struct {
	Address     int
	Name        string
	Description string
	MediumType  string
	Devices     []*DeviceInstance
	Area        *Area
}

// DeviceInstance is one addressable device on a line.
//
// ProductName, HardwareName and ApplicationProgramRef start empty and are
// filled by the hardware collaborator; a device without matching hardware
// data keeps them empty.
type DeviceInstance struct {
	ID                  string
	Address             string
	IndividualAddress   string
	ProjectUID          *int
	Name                string
	Description         string
	LastModified        string
	ProductRef          string
	HardwareProgramRef  string
	Manufacturer        string
	AdditionalAddresses []string
	ComObjectInstances  []*ComObjectInstance
	Line                *Line

	ApplicationProgramRef string
	ProductName           string
	HardwareName          string
}

// ComObjectInstance is a device's reference into an application-program
// com-object template, carrying per-instance overrides. Flag fields are
// tri-state: nil means unset, to be inherited from the template.
//
// Instances without any group-address link carry no communication semantics
// and are never constructed.
type ComObjectInstance struct {
	ID           string
	RefID        string
	Text         string
	FunctionText string
	Description  string

	ReadFlag          *bool
	WriteFlag         *bool
	CommunicationFlag *bool
	TransmitFlag      *bool
	UpdateFlag        *bool
	ReadOnInitFlag    *bool

	DatapointTypes []DPT
	Links          []string

	// ComObjectRefID is the template identifier within the device's
	// application program, derived during enrichment from RefID.
	ComObjectRefID string
}

// GroupAddress is one entry of the flat group-address table.
type GroupAddress struct {
	ID          string
	Name        string
	RawAddress  int
	Address     string
	ProjectUID  *int
	DPT         *DPT
	Description string
}

// Space is one node of the spatial hierarchy. It owns its child spaces
// outright; the tree is built top-down and cannot alias, so no cycle is
// representable.
type Space struct {
	ID          string
	Name        string
	Type        string
	UsageID     string
	Number      string
	Description string
	ProjectUID  *int
	Spaces      []*Space
	Devices     []string
	Functions   []string
}

// Function is one controllable feature located in a space. Address fields
// of its group-address references stay empty until the resolver backfills
// them.
type Function struct {
	ID             string
	Name           string
	FunctionType   string
	ProjectUID     *int
	SpaceID        string
	GroupAddresses []*GroupAddressRef
}

// GroupAddressRef is a function's symbolic reference to one group address.
type GroupAddressRef struct {
	ID         string
	RefID      string
	Name       string
	Role       string
	ProjectUID *int

	// Address is backfilled by the resolver; resolution failure is fatal,
	// so after a successful parse it is never empty.
	Address string
}

// ProjectInformation is the metadata header of the export.
type ProjectInformation struct {
	ProjectID         string
	Name              string
	LastModified      string
	GroupAddressStyle string
	GUID              string
	CreatedBy         string
	ToolVersion       string
	SchemaVersion     string
}
