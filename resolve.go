package knxproj

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/nerrad567/knxproj/internal/ets"
)

// builderOutput is everything the document builders produce, handed to the
// resolver as one unit.
type builderOutput struct {
	info           *ets.ProjectInformation
	areas          []*ets.Area
	devices        []*ets.DeviceInstance
	groupAddresses []*ets.GroupAddress
	spaces         []*ets.Space
	functions      []*ets.Function
}

// masterLookup is the master-data collaborator: display names for
// enumerated codes.
type masterLookup interface {
	FunctionTypeName(id string) string
	SpaceUsageName(id string) string
	MediumTypeName(id string) string
	ManufacturerName(id string) string
}

// deviceEnricher is the hardware collaborator: product names and
// application-program template completion.
type deviceEnricher interface {
	EnrichDevices(devices []*ets.DeviceInstance) error
}

// resolve joins the builder output into the final model. It only adds
// derived data (resolved addresses, usage text, enrichment, the reverse
// index); entities built earlier are never removed or renumbered, and
// running it twice over the same input yields identical output.
func resolve(b *builderOutput, master masterLookup, enricher deviceEnricher, log *slog.Logger) (*Project, error) {
	gaByID := make(map[string]*ets.GroupAddress, len(b.groupAddresses))
	for _, ga := range b.groupAddresses {
		gaByID[ga.ID] = ga
	}

	// Backfill function group-address references. The id spaces are
	// generated together, so a miss is corruption, not a degraded export.
	for _, function := range b.functions {
		for _, ref := range function.GroupAddresses {
			ga, ok := gaByID[ref.RefID]
			if !ok {
				return nil, fmt.Errorf("%w: function %s references %s",
					ErrUnresolvedReference, function.ID, ref.RefID)
			}
			ref.Address = ga.Address
		}
	}

	// Hardware enrichment completes com-object flags and datapoint types,
	// so it runs before the com-object table is built. Misses inside are
	// logged and non-fatal.
	if err := enricher.EnrichDevices(b.devices); err != nil {
		return nil, err
	}

	// Com-object table plus per-device id lists, in document order so the
	// reverse index below is deterministic.
	comObjects := make(map[string]CommunicationObject)
	var comObjectOrder []string
	deviceComIDs := make(map[string][]string)
	for _, device := range b.devices {
		for _, instance := range device.ComObjectInstances {
			key := device.IndividualAddress + "/" + instance.RefID
			comObjects[key] = CommunicationObject{
				Name:              instance.Text,
				FunctionText:      instance.FunctionText,
				DeviceAddress:     device.IndividualAddress,
				DatapointType:     convertDPT(firstDPT(instance.DatapointTypes)),
				Flags:             convertFlags(instance),
				GroupAddressLinks: instance.Links,
			}
			comObjectOrder = append(comObjectOrder, key)
			deviceComIDs[device.IndividualAddress] = append(deviceComIDs[device.IndividualAddress], key)
		}
	}

	devices := make(map[string]Device, len(b.devices))
	for _, device := range b.devices {
		name := device.Name
		if name == "" {
			name = device.ProductName
		}
		devices[device.IndividualAddress] = Device{
			Name:                   name,
			IndividualAddress:      device.IndividualAddress,
			AdditionalAddresses:    device.AdditionalAddresses,
			Description:            device.Description,
			LastModified:           device.LastModified,
			ProductName:            device.ProductName,
			HardwareName:           device.HardwareName,
			ManufacturerName:       master.ManufacturerName(device.Manufacturer),
			CommunicationObjectIDs: deviceComIDs[device.IndividualAddress],
		}
	}

	topology := make(map[string]Area, len(b.areas))
	for _, area := range b.areas {
		lines := make(map[string]Line, len(area.Lines))
		for _, line := range area.Lines {
			addresses := make([]string, 0, len(line.Devices))
			for _, device := range line.Devices {
				addresses = append(addresses, device.IndividualAddress)
			}
			lines[strconv.Itoa(line.Address)] = Line{
				Name:        line.Name,
				Description: line.Description,
				MediumType:  master.MediumTypeName(line.MediumType),
				Devices:     addresses,
			}
		}
		topology[strconv.Itoa(area.Address)] = Area{
			Name:        area.Name,
			Description: area.Description,
			Lines:       lines,
		}
	}

	groupAddresses := make(map[string]GroupAddress, len(b.groupAddresses))
	for _, ga := range b.groupAddresses {
		var comIDs []string
		for _, key := range comObjectOrder {
			if containsString(comObjects[key].GroupAddressLinks, ga.ID) {
				comIDs = append(comIDs, key)
			}
		}
		groupAddresses[ga.ID] = GroupAddress{
			Identifier:             ga.ID,
			Name:                   ga.Name,
			Address:                ga.Address,
			RawAddress:             ga.RawAddress,
			ProjectUID:             ga.ProjectUID,
			DPTType:                convertDPT(ga.DPT),
			Description:            ga.Description,
			CommunicationObjectIDs: comIDs,
		}
	}

	locations := make(map[string]Space, len(b.spaces))
	for _, space := range b.spaces {
		locations[space.Name] = convertSpace(space, master)
	}

	functions := make(map[string]Function, len(b.functions))
	for _, function := range b.functions {
		refs := make([]GroupAddressRef, 0, len(function.GroupAddresses))
		for _, ref := range function.GroupAddresses {
			refs = append(refs, GroupAddressRef{
				RefID:   ref.RefID,
				Name:    ref.Name,
				Role:    ref.Role,
				Address: ref.Address,
			})
		}
		usage := ""
		if function.FunctionType != "" {
			usage = master.FunctionTypeName(function.FunctionType)
		}
		functions[function.ID] = Function{
			Name:           function.Name,
			FunctionType:   function.FunctionType,
			Usage:          usage,
			SpaceID:        function.SpaceID,
			GroupAddresses: refs,
		}
	}

	project := &Project{
		Info:                 convertInfo(b.info),
		Topology:             topology,
		Devices:              devices,
		CommunicationObjects: comObjects,
		GroupAddresses:       groupAddresses,
		Locations:            locations,
		Functions:            functions,
	}
	log.Debug("project resolved",
		"devices", len(devices),
		"group_addresses", len(groupAddresses),
		"communication_objects", len(comObjects),
		"functions", len(functions))
	return project, nil
}

// convertSpace flattens one spatial node into the output form, carrying
// device address sets and function lists unchanged.
func convertSpace(space *ets.Space, master masterLookup) Space {
	children := make(map[string]Space, len(space.Spaces))
	for _, child := range space.Spaces {
		children[child.Name] = convertSpace(child, master)
	}
	usage := ""
	if space.UsageID != "" {
		usage = master.SpaceUsageName(space.UsageID)
	}
	return Space{
		Type:        space.Type,
		Usage:       usage,
		Number:      space.Number,
		Description: space.Description,
		Spaces:      children,
		Devices:     space.Devices,
		Functions:   space.Functions,
	}
}

func convertInfo(info *ets.ProjectInformation) ProjectInfo {
	if info == nil {
		return ProjectInfo{}
	}
	return ProjectInfo{
		ProjectID:         info.ProjectID,
		Name:              info.Name,
		LastModified:      info.LastModified,
		GroupAddressStyle: info.GroupAddressStyle,
		GUID:              info.GUID,
		CreatedBy:         info.CreatedBy,
		ToolVersion:       info.ToolVersion,
		SchemaVersion:     info.SchemaVersion,
	}
}

func convertFlags(instance *ets.ComObjectInstance) Flags {
	return Flags{
		Read:          boolValue(instance.ReadFlag),
		Write:         boolValue(instance.WriteFlag),
		Communication: boolValue(instance.CommunicationFlag),
		Transmit:      boolValue(instance.TransmitFlag),
		Update:        boolValue(instance.UpdateFlag),
		ReadOnInit:    boolValue(instance.ReadOnInitFlag),
	}
}

func convertDPT(dpt *ets.DPT) *DPT {
	if dpt == nil {
		return nil
	}
	return &DPT{Main: dpt.Main, Sub: dpt.Sub}
}

func firstDPT(dpts []ets.DPT) *ets.DPT {
	if len(dpts) == 0 {
		return nil
	}
	return &dpts[0]
}

func boolValue(b *bool) bool {
	return b != nil && *b
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
