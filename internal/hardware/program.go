package hardware

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nerrad567/knxproj/internal/ets"
)

// comObjectTemplate holds the template fields a com-object instance can
// inherit. Nil flags mean the template leaves the field open (refs override
// selectively; base com-objects always carry explicit values).
type comObjectTemplate struct {
	refID        string
	text         string
	functionText string

	read          *bool
	write         *bool
	communication *bool
	transmit      *bool
	update        *bool
	readOnInit    *bool

	datapointTypes []ets.DPT
}

// applicationProgram is one parsed program document: the full com-object
// table and the referenced subset of the ref table.
type applicationProgram struct {
	comObjects map[string]*comObjectTemplate
	refs       map[string]*comObjectTemplate
}

// loadApplicationProgram streams one program document. The documents run
// to tens of megabytes, so this is a token pass rather than a DOM load:
// every ComObject is kept (references to them are only known afterwards),
// ComObjectRefs are filtered to the used set, and the optional translation
// section is applied for the requested language.
func loadApplicationProgram(data []byte, usedRefIDs map[string]bool, language string) (*applicationProgram, error) {
	program := &applicationProgram{
		comObjects: make(map[string]*comObjectTemplate),
		refs:       make(map[string]*comObjectTemplate),
	}

	translations := make(map[string]map[string]string)
	inLanguage := false
	languageDone := false
	var currentTranslation map[string]string

	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading program document: %w", err)
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "ComObject":
			t, id := parseTemplate(start, true)
			if id != "" {
				program.comObjects[id] = t
			}
		case "ComObjectRef":
			t, id := parseTemplate(start, false)
			if id != "" && usedRefIDs[id] {
				program.refs[id] = t
			}
		case "Language":
			if language == "" {
				break
			}
			if languageDone {
				// The wanted section was already consumed; a new Language
				// element ends it.
				inLanguage = false
				break
			}
			inLanguage = localAttr(start, "Identifier") == language
			if inLanguage {
				languageDone = true
			}
		case "TranslationElement":
			if inLanguage {
				currentTranslation = make(map[string]string)
				translations[localAttr(start, "RefId")] = currentTranslation
			}
		case "Translation":
			if inLanguage && currentTranslation != nil {
				currentTranslation[localAttr(start, "AttributeName")] = localAttr(start, "Text")
			}
		}
	}

	for id, translation := range translations {
		applyTranslation(program.comObjects[id], translation)
		applyTranslation(program.refs[id], translation)
	}
	return program, nil
}

// complete merges template data into one instance: the ref template first,
// then the base com-object for anything still unset. Only unset fields are
// written, so completing twice is a no-op.
func (p *applicationProgram) complete(instance *ets.ComObjectInstance, log *slog.Logger) {
	if instance.ComObjectRefID == "" {
		return
	}
	ref, ok := p.refs[instance.ComObjectRefID]
	if !ok {
		log.Warn("com-object template not found in application program",
			"com_object_ref_id", instance.ComObjectRefID)
		return
	}
	mergeTemplate(instance, ref)
	if base, ok := p.comObjects[ref.refID]; ok {
		mergeTemplate(instance, base)
	}
}

func mergeTemplate(instance *ets.ComObjectInstance, t *comObjectTemplate) {
	if instance.Text == "" {
		instance.Text = t.text
	}
	if instance.FunctionText == "" {
		instance.FunctionText = t.functionText
	}
	if instance.ReadFlag == nil {
		instance.ReadFlag = t.read
	}
	if instance.WriteFlag == nil {
		instance.WriteFlag = t.write
	}
	if instance.CommunicationFlag == nil {
		instance.CommunicationFlag = t.communication
	}
	if instance.TransmitFlag == nil {
		instance.TransmitFlag = t.transmit
	}
	if instance.UpdateFlag == nil {
		instance.UpdateFlag = t.update
	}
	if instance.ReadOnInitFlag == nil {
		instance.ReadOnInitFlag = t.readOnInit
	}
	if len(instance.DatapointTypes) == 0 {
		instance.DatapointTypes = t.datapointTypes
	}
}

// parseTemplate reads one ComObject or ComObjectRef element. Base
// com-objects default unset flags to false (the schema default); refs keep
// them open so the base value shows through.
func parseTemplate(start xml.StartElement, flagDefaults bool) (*comObjectTemplate, string) {
	t := &comObjectTemplate{}
	id := ""
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "Id":
			id = attr.Value
		case "RefId":
			t.refID = attr.Value
		case "Text":
			t.text = attr.Value
		case "FunctionText":
			t.functionText = attr.Value
		case "ReadFlag":
			t.read = parseTemplateFlag(attr.Value)
		case "WriteFlag":
			t.write = parseTemplateFlag(attr.Value)
		case "CommunicationFlag":
			t.communication = parseTemplateFlag(attr.Value)
		case "TransmitFlag":
			t.transmit = parseTemplateFlag(attr.Value)
		case "UpdateFlag":
			t.update = parseTemplateFlag(attr.Value)
		case "ReadOnInitFlag":
			t.readOnInit = parseTemplateFlag(attr.Value)
		case "DatapointType":
			t.datapointTypes = ets.ParseDPTs(attr.Value)
		}
	}
	if flagDefaults {
		f := false
		for _, flag := range []**bool{&t.read, &t.write, &t.communication, &t.transmit, &t.update, &t.readOnInit} {
			if *flag == nil {
				v := f
				*flag = &v
			}
		}
	}
	return t, id
}

func parseTemplateFlag(value string) *bool {
	switch value {
	case "Enabled":
		v := true
		return &v
	case "Disabled":
		v := false
		return &v
	default:
		return nil
	}
}

func applyTranslation(t *comObjectTemplate, translation map[string]string) {
	if t == nil {
		return
	}
	if text, ok := translation["Text"]; ok && text != "" {
		t.text = text
	}
	if text, ok := translation["FunctionText"]; ok && text != "" {
		t.functionText = text
	}
}

func localAttr(start xml.StartElement, name string) string {
	for _, attr := range start.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}
