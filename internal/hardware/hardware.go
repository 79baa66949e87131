// Package hardware resolves device hardware references: product display
// names from the manufacturer catalogues (M-*/Hardware.xml) and com-object
// template data from application program documents.
//
// Enrichment is best-effort by design. A device whose product or program
// mapping is missing keeps empty enrichment fields; the miss is logged and
// the rest of the pass continues.
package hardware

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/beevik/etree"

	"github.com/nerrad567/knxproj/internal/ets"
)

// Product is one catalogue entry.
type Product struct {
	ID           string
	Text         string
	HardwareName string
}

// Resolver owns the loaded catalogues and lazily loads application program
// documents through the open callback (each distinct program is loaded at
// most once, regardless of how many devices reference it).
type Resolver struct {
	products map[string]Product
	programs map[string]string

	open     func(name string) ([]byte, error)
	language string
	log      *slog.Logger
}

// NewResolver parses every hardware catalogue document. open reads an
// archive entry by name; language optionally selects a translation set for
// com-object texts.
func NewResolver(hardwareDocs map[string][]byte, open func(string) ([]byte, error), language string, log *slog.Logger) (*Resolver, error) {
	r := &Resolver{
		products: make(map[string]Product),
		programs: make(map[string]string),
		open:     open,
		language: language,
		log:      log,
	}
	for name, data := range hardwareDocs {
		if err := r.loadCatalogue(data); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
	}
	return r, nil
}

// Product looks up a product reference.
func (r *Resolver) Product(ref string) (Product, bool) {
	p, ok := r.products[ref]
	return p, ok
}

// ApplicationProgramRef maps a hardware-to-program reference to its
// application program reference.
func (r *Resolver) ApplicationProgramRef(hardwareProgramRef string) (string, bool) {
	ref, ok := r.programs[hardwareProgramRef]
	return ref, ok
}

// EnrichDevices fills product names, application program references and
// com-object template data on every device. Misses are logged as warnings
// and never abort the pass.
func (r *Resolver) EnrichDevices(devices []*ets.DeviceInstance) error {
	// Devices sharing an application program are completed from one load
	// of its document.
	byProgram := make(map[string][]*ets.DeviceInstance)
	var programOrder []string

	for _, device := range devices {
		product, ok := r.products[device.ProductRef]
		if !ok {
			r.log.Warn("no hardware product for device",
				"individual_address", device.IndividualAddress,
				"product_ref", device.ProductRef)
			continue
		}
		device.ProductName = product.Text
		device.HardwareName = product.HardwareName

		programRef, ok := r.programs[device.HardwareProgramRef]
		if !ok {
			r.log.Warn("no application program for device",
				"individual_address", device.IndividualAddress,
				"hardware_program_ref", device.HardwareProgramRef)
			continue
		}
		device.ApplicationProgramRef = programRef
		for _, instance := range device.ComObjectInstances {
			instance.ComObjectRefID = programRef + "_" + instance.RefID
		}

		if _, seen := byProgram[programRef]; !seen {
			programOrder = append(programOrder, programRef)
		}
		byProgram[programRef] = append(byProgram[programRef], device)
	}

	for _, programRef := range programOrder {
		group := byProgram[programRef]
		data, err := r.open(programDocumentName(programRef))
		if err != nil {
			r.log.Warn("application program document unavailable",
				"application_program_ref", programRef, "error", err)
			continue
		}
		program, err := loadApplicationProgram(data, usedRefIDs(group), r.language)
		if err != nil {
			return fmt.Errorf("parsing application program %s: %w", programRef, err)
		}
		for _, device := range group {
			for _, instance := range device.ComObjectInstances {
				program.complete(instance, r.log)
			}
		}
	}
	return nil
}

// loadCatalogue parses one Hardware.xml document into the product and
// program tables.
func (r *Resolver) loadCatalogue(data []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return err
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("no root element")
	}

	var walk func(el *etree.Element, hardwareName string)
	walk = func(el *etree.Element, hardwareName string) {
		for _, child := range el.ChildElements() {
			switch child.Tag {
			case "Hardware":
				// Outer <Hardware> is a section wrapper; inner ones
				// carry the Name attribute products inherit.
				walk(child, child.SelectAttrValue("Name", hardwareName))
				continue
			case "Product":
				id := child.SelectAttrValue("Id", "")
				if id != "" {
					r.products[id] = Product{
						ID:           id,
						Text:         child.SelectAttrValue("Text", ""),
						HardwareName: hardwareName,
					}
				}
			case "Hardware2Program":
				id := child.SelectAttrValue("Id", "")
				if ref := applicationProgramRef(child); id != "" && ref != "" {
					r.programs[id] = ref
				}
			}
			walk(child, hardwareName)
		}
	}
	walk(root, "")
	return nil
}

func applicationProgramRef(hardware2program *etree.Element) string {
	for _, child := range hardware2program.ChildElements() {
		if child.Tag == "ApplicationProgramRef" {
			return child.SelectAttrValue("RefId", "")
		}
	}
	return ""
}

// programDocumentName maps an application program reference to its archive
// entry, e.g. "M-0083_A-0041" -> "M-0083/M-0083_A-0041.xml".
func programDocumentName(programRef string) string {
	manufacturer, _, _ := strings.Cut(programRef, "_")
	return manufacturer + "/" + programRef + ".xml"
}

func usedRefIDs(devices []*ets.DeviceInstance) map[string]bool {
	used := make(map[string]bool)
	for _, device := range devices {
		for _, instance := range device.ComObjectInstances {
			if instance.ComObjectRefID != "" {
				used[instance.ComObjectRefID] = true
			}
		}
	}
	return used
}
