package knxproj

// Project is the fully cross-referenced, read-only model of one export.
// All maps and slices are built once during parsing and must not be
// mutated afterwards.
type Project struct {
	// Info carries the project metadata header.
	Info ProjectInfo `json:"info"`

	// Topology holds the physical area tree, keyed by area address.
	Topology map[string]Area `json:"topology"`

	// Devices holds every addressable device, keyed by individual address.
	Devices map[string]Device `json:"devices"`

	// CommunicationObjects holds every retained com-object, keyed by
	// "<device-address>/<com-object-ref>".
	CommunicationObjects map[string]CommunicationObject `json:"communication_objects"`

	// GroupAddresses holds the flat group-address table, keyed by
	// identifier.
	GroupAddresses map[string]GroupAddress `json:"group_addresses"`

	// Locations holds the spatial hierarchy, keyed by space name.
	Locations map[string]Space `json:"locations"`

	// Functions holds every function, keyed by identifier. Spaces
	// reference into this table.
	Functions map[string]Function `json:"functions"`
}

// ProjectInfo is the metadata header of the export.
type ProjectInfo struct {
	ProjectID         string `json:"project_id"`
	Name              string `json:"name"`
	LastModified      string `json:"last_modified,omitempty"`
	GroupAddressStyle string `json:"group_address_style,omitempty"`
	GUID              string `json:"guid,omitempty"`
	CreatedBy         string `json:"created_by,omitempty"`
	ToolVersion       string `json:"tool_version,omitempty"`

	// SchemaVersion is recovered from the document namespace, e.g. "21".
	SchemaVersion string `json:"schema_version,omitempty"`
}

// Area is one node of the physical topology.
type Area struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Lines       map[string]Line `json:"lines"`
}

// Line is one bus line, keyed within its area by line address.
type Line struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MediumType  string   `json:"medium_type"`
	Devices     []string `json:"devices"`
}

// Device is one addressable device. Enrichment fields stay empty when the
// hardware data carries no match for the device.
type Device struct {
	Name                   string   `json:"name"`
	IndividualAddress      string   `json:"individual_address"`
	AdditionalAddresses    []string `json:"additional_addresses,omitempty"`
	Description            string   `json:"description,omitempty"`
	LastModified           string   `json:"last_modified,omitempty"`
	ProductName            string   `json:"product_name,omitempty"`
	HardwareName           string   `json:"hardware_name,omitempty"`
	ManufacturerName       string   `json:"manufacturer_name,omitempty"`
	CommunicationObjectIDs []string `json:"communication_object_ids"`
}

// DPT is a datapoint type; Sub is zero for main-profile-only types.
type DPT struct {
	Main int `json:"main"`
	Sub  int `json:"sub"`
}

// Flags are a com-object's access flags. Values left unset in the project
// document are inherited from the application program template; anything
// still unset after enrichment reads as false.
type Flags struct {
	Read          bool `json:"read"`
	Write         bool `json:"write"`
	Communication bool `json:"communication"`
	Transmit      bool `json:"transmit"`
	Update        bool `json:"update"`
	ReadOnInit    bool `json:"read_on_init"`
}

// CommunicationObject is one retained com-object instance.
type CommunicationObject struct {
	Name              string   `json:"name"`
	FunctionText      string   `json:"function_text,omitempty"`
	DeviceAddress     string   `json:"device_address"`
	DatapointType     *DPT     `json:"dpt_type,omitempty"`
	Flags             Flags    `json:"flags"`
	GroupAddressLinks []string `json:"group_address_links"`
}

// GroupAddress is one entry of the group-address table.
type GroupAddress struct {
	Identifier  string `json:"identifier"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	RawAddress  int    `json:"raw_address"`
	ProjectUID  *int   `json:"project_uid,omitempty"`
	DPTType     *DPT   `json:"dpt_type,omitempty"`
	Description string `json:"description,omitempty"`

	// CommunicationObjectIDs lists every com-object whose link list
	// contains this address (the reverse index).
	CommunicationObjectIDs []string `json:"communication_object_ids"`
}

// Space is one node of the spatial hierarchy. Child spaces are keyed by
// name; Devices lists individual addresses located here and Functions
// references the project-level function table.
type Space struct {
	Type        string           `json:"type"`
	Usage       string           `json:"usage,omitempty"`
	Number      string           `json:"number,omitempty"`
	Description string           `json:"description,omitempty"`
	Spaces      map[string]Space `json:"spaces"`
	Devices     []string         `json:"devices"`
	Functions   []string         `json:"functions"`
}

// Function is one controllable feature located in a space.
type Function struct {
	Name           string            `json:"name"`
	FunctionType   string            `json:"function_type"`
	Usage          string            `json:"usage,omitempty"`
	SpaceID        string            `json:"space_id"`
	GroupAddresses []GroupAddressRef `json:"group_addresses"`
}

// GroupAddressRef is a function's resolved reference to a group address.
type GroupAddressRef struct {
	RefID   string `json:"ref_id"`
	Name    string `json:"name,omitempty"`
	Role    string `json:"role,omitempty"`
	Address string `json:"address"`
}
