package knxproj

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/yeka/zip"

	"github.com/nerrad567/knxproj/internal/container"
)

const testInstallationXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/20">
  <Project Id="P-05F8">
    <Installations>
      <Installation>
        <Topology>
          <Area Id="P-05F8-0_A-2" Address="1" Name="Backbone">
            <Line Id="P-05F8-0_L-3" Address="1" Name="Line 1" MediumTypeRefId="MT-0">
              <DeviceInstance Id="P-05F8-0_DI-1" Address="5"
                  ProductRefId="M-0083_H-1-P" Hardware2ProgramRefId="M-0083_H-1_HP-1">
                <ComObjectInstanceRefs>
                  <ComObjectInstanceRef RefId="O-3_R-2" Links="GA-1 GA-2"/>
                </ComObjectInstanceRefs>
              </DeviceInstance>
            </Line>
          </Area>
        </Topology>
        <GroupAddresses>
          <GroupRanges>
            <GroupRange Name="Lighting">
              <GroupAddress Id="P-05F8-0_GA-1" Address="2305" Name="Light switch"
                  DatapointType="DPST-1-1"/>
              <GroupAddress Id="P-05F8-0_GA-2" Address="2306" Name="Light status"/>
            </GroupRange>
          </GroupRanges>
        </GroupAddresses>
        <Locations>
          <Space Id="P-05F8-0_S-1" Name="Main building" Type="Building">
            <Space Id="P-05F8-0_S-2" Name="First floor" Type="Floor">
              <Space Id="P-05F8-0_S-3" Name="Room 101" Type="Room" Usage="SU-7">
                <DeviceInstanceRef RefId="P-05F8-0_DI-1"/>
                <Function Id="P-05F8-0_F-11" Name="Ceiling light" Type="FT-1">
                  <GroupAddressRef Id="P-05F8-0_GAR-1" RefId="P-05F8-0_GA-1"
                      Role="SwitchOnOff"/>
                </Function>
              </Space>
            </Space>
          </Space>
        </Locations>
      </Installation>
    </Installations>
  </Project>
</KNX>`

const testMetaXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/20" CreatedBy="ETS5" ToolVersion="5.7.3">
  <Project Id="P-05F8">
    <ProjectInformation Name="Demo House" GroupAddressStyle="ThreeLevel"/>
  </Project>
</KNX>`

const testMasterXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/20">
  <MasterData>
    <FunctionTypes>
      <FunctionType Id="FT-1" Text="Switchable Light"/>
    </FunctionTypes>
    <SpaceUsages>
      <SpaceUsage Id="SU-7" Text="Living Room"/>
    </SpaceUsages>
    <Manufacturers>
      <Manufacturer Id="M-0083" Name="MDT technologies"/>
    </Manufacturers>
  </MasterData>
</KNX>`

const testHardwareXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/20">
  <ManufacturerData>
    <Manufacturer RefId="M-0083">
      <Hardware>
        <Hardware Id="M-0083_H-1" Name="AKD-0401.02">
          <Products>
            <Product Id="M-0083_H-1-P" Text="Universal dimmer 4-fold"/>
          </Products>
          <Hardware2Programs>
            <Hardware2Program Id="M-0083_H-1_HP-1">
              <ApplicationProgramRef RefId="M-0083_A-0041"/>
            </Hardware2Program>
          </Hardware2Programs>
        </Hardware>
      </Hardware>
    </Manufacturer>
  </ManufacturerData>
</KNX>`

const testProgramXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/20">
  <ManufacturerData>
    <Manufacturer RefId="M-0083">
      <ApplicationPrograms>
        <ApplicationProgram Id="M-0083_A-0041">
          <Static>
            <ComObjectTable>
              <ComObject Id="M-0083_A-0041_O-3" Text="Channel A"
                  FunctionText="Switching" ReadFlag="Enabled"
                  DatapointType="DPST-1-1"/>
            </ComObjectTable>
            <ComObjectRefs>
              <ComObjectRef Id="M-0083_A-0041_O-3_R-2" RefId="M-0083_A-0041_O-3"
                  WriteFlag="Enabled"/>
            </ComObjectRefs>
          </Static>
        </ApplicationProgram>
      </ApplicationPrograms>
    </Manufacturer>
  </ManufacturerData>
</KNX>`

type archiveEntry struct {
	name     string
	data     string
	password string
	method   zip.EncryptionMethod
}

func buildTestArchive(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		var (
			dst io.Writer
			err error
		)
		if e.password != "" {
			dst, err = w.Encrypt(e.name, e.password, e.method)
		} else {
			dst, err = w.Create(e.name)
		}
		if err != nil {
			t.Fatalf("creating %s: %v", e.name, err)
		}
		if _, err := dst.Write([]byte(e.data)); err != nil {
			t.Fatalf("writing %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	return buf.Bytes()
}

func writeTestProject(t *testing.T, entries []archiveEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.knxproj")
	if err := os.WriteFile(path, buildTestArchive(t, entries), 0o644); err != nil {
		t.Fatalf("writing project file: %v", err)
	}
	return path
}

func unprotectedProject(t *testing.T) string {
	t.Helper()
	return writeTestProject(t, []archiveEntry{
		{name: "P-05F8.signature", data: "sig"},
		{name: "P-05F8/0.xml", data: testInstallationXML},
		{name: "P-05F8/project.xml", data: testMetaXML},
		{name: "knx_master.xml", data: testMasterXML},
		{name: "M-0083/Hardware.xml", data: testHardwareXML},
		{name: "M-0083/M-0083_A-0041.xml", data: testProgramXML},
	})
}

func TestParseFile(t *testing.T) {
	project, err := ParseFile(unprotectedProject(t))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if project.Info.ProjectID != "P-05F8" || project.Info.Name != "Demo House" {
		t.Errorf("info = %+v", project.Info)
	}

	line, ok := project.Topology["1"].Lines["1"]
	if !ok {
		t.Fatalf("missing line 1.1: %+v", project.Topology)
	}
	if line.MediumType != "TP" {
		t.Errorf("medium type = %q, want TP", line.MediumType)
	}

	device, ok := project.Devices["1.1.5"]
	if !ok {
		t.Fatal("missing device 1.1.5")
	}
	// The device carries no name of its own, so the product text wins.
	if device.Name != "Universal dimmer 4-fold" {
		t.Errorf("device name = %q", device.Name)
	}
	if device.HardwareName != "AKD-0401.02" {
		t.Errorf("hardware name = %q", device.HardwareName)
	}
	if device.ManufacturerName != "MDT technologies" {
		t.Errorf("manufacturer = %q", device.ManufacturerName)
	}

	com, ok := project.CommunicationObjects["1.1.5/O-3_R-2"]
	if !ok {
		t.Fatalf("missing com object: %v", project.CommunicationObjects)
	}
	if com.Name != "Channel A" || com.FunctionText != "Switching" {
		t.Errorf("com object texts = %q %q", com.Name, com.FunctionText)
	}
	if !com.Flags.Read || !com.Flags.Write || com.Flags.Transmit {
		t.Errorf("flags = %+v, want read+write from templates", com.Flags)
	}
	if com.DatapointType == nil || com.DatapointType.Main != 1 || com.DatapointType.Sub != 1 {
		t.Errorf("dpt = %v, want 1.001", com.DatapointType)
	}

	ga, ok := project.GroupAddresses["GA-1"]
	if !ok {
		t.Fatal("missing group address GA-1")
	}
	if ga.Address != "1/1/1" {
		t.Errorf("address = %q, want 1/1/1", ga.Address)
	}
	if len(ga.CommunicationObjectIDs) != 1 || ga.CommunicationObjectIDs[0] != "1.1.5/O-3_R-2" {
		t.Errorf("reverse index = %v", ga.CommunicationObjectIDs)
	}

	room, ok := project.Locations["Main building"].Spaces["First floor"].Spaces["Room 101"]
	if !ok {
		t.Fatalf("missing room: %+v", project.Locations)
	}
	if room.Usage != "Living Room" {
		t.Errorf("room usage = %q", room.Usage)
	}
	if len(room.Devices) != 1 || room.Devices[0] != "1.1.5" {
		t.Errorf("room devices = %v", room.Devices)
	}
	if len(room.Functions) != 1 || room.Functions[0] != "F-11" {
		t.Errorf("room functions = %v", room.Functions)
	}

	fn, ok := project.Functions["F-11"]
	if !ok {
		t.Fatal("missing function F-11")
	}
	if fn.Usage != "Switchable Light" {
		t.Errorf("function usage = %q", fn.Usage)
	}
	if len(fn.GroupAddresses) != 1 || fn.GroupAddresses[0].Address != "1/1/1" {
		t.Errorf("function refs = %+v", fn.GroupAddresses)
	}
}

func TestParseFileProtected(t *testing.T) {
	const password = "Secret123"
	derived, err := container.DeriveDocumentPassword(password)
	if err != nil {
		t.Fatalf("DeriveDocumentPassword() error = %v", err)
	}

	nested := buildTestArchive(t, []archiveEntry{
		{name: "0.xml", data: testInstallationXML, password: derived, method: zip.AES256Encryption},
		{name: "project.xml", data: testMetaXML, password: derived, method: zip.AES256Encryption},
	})
	// Schema 21 master marker selects the derived-key scheme.
	master := `<?xml version="1.0" encoding="utf-8"?>` + "\n" +
		`<KNX xmlns="http://knx.org/xml/project/21">` + "\n" +
		`<MasterData><Manufacturers><Manufacturer Id="M-0083" Name="MDT technologies"/></Manufacturers></MasterData></KNX>`

	path := writeTestProject(t, []archiveEntry{
		{name: "P-05F8.signature", data: "sig"},
		{name: "P-05F8.zip", data: string(nested)},
		{name: "knx_master.xml", data: master},
		{name: "M-0083/Hardware.xml", data: testHardwareXML},
		{name: "M-0083/M-0083_A-0041.xml", data: testProgramXML},
	})

	project, err := ParseFile(path, WithPassword(password))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if _, ok := project.Devices["1.1.5"]; !ok {
		t.Errorf("missing device 1.1.5: %v", project.Devices)
	}

	if _, err := ParseFile(path, WithPassword("wrong")); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("ParseFile(wrong password) error = %v, want ErrInvalidPassword", err)
	}
	if _, err := ParseFile(path); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("ParseFile(no password) error = %v, want ErrInvalidPassword", err)
	}
}
