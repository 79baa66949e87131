package container

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yeka/zip"
)

const (
	installationXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/20"><Project Id="P-05F8"/></KNX>`
	metaXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/20"><Project Id="P-05F8"/></KNX>`
	hardwareXML = `<?xml version="1.0" encoding="utf-8"?>
<KNX xmlns="http://knx.org/xml/project/20"><ManufacturerData/></KNX>`

	// The scheme marker sits in the namespace on the second line.
	masterLegacyXML = "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n" +
		"<KNX xmlns=\"http://knx.org/xml/project/20\">\n</KNX>"
	masterModernXML = "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n" +
		"<KNX xmlns=\"http://knx.org/xml/project/23\">\n</KNX>"
)

type entry struct {
	name     string
	data     string
	password string
	method   zip.EncryptionMethod
}

func buildArchive(t *testing.T, entries []entry) []byte {
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
		if _, err := io.Copy(dst, strings.NewReader(e.data)); err != nil {
			t.Fatalf("writing %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	return buf.Bytes()
}

func writeArchive(t *testing.T, entries []entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.knxproj")
	if err := os.WriteFile(path, buildArchive(t, entries), 0o644); err != nil {
		t.Fatalf("writing archive: %v", err)
	}
	return path
}

// protectedArchive builds a protected export: the project documents live in
// a nested zip whose entries are encrypted, the nested zip itself is stored
// as plain "<project-id>.zip".
func protectedArchive(t *testing.T, masterXML, entryPassword string, method zip.EncryptionMethod) string {
	t.Helper()
	nested := buildArchive(t, []entry{
		{name: InstallationDocument, data: installationXML, password: entryPassword, method: method},
		{name: ProjectMetaDocument, data: metaXML, password: entryPassword, method: method},
	})
	return writeArchive(t, []entry{
		{name: "P-05F8.signature", data: "sig"},
		{name: "P-05F8.zip", data: string(nested)},
		{name: MasterDocument, data: masterXML},
	})
}

func TestOpenUnprotected(t *testing.T) {
	path := writeArchive(t, []entry{
		{name: "P-05F8.signature", data: "sig"},
		{name: "P-05F8/0.xml", data: installationXML},
		{name: "P-05F8/project.xml", data: metaXML},
		{name: MasterDocument, data: masterLegacyXML},
		{name: "M-0083/Hardware.xml", data: hardwareXML},
		{name: "M-0083/M-0083_A-0041.xml", data: hardwareXML},
		{name: "M-0083/Baggages.xml", data: "not hardware"},
	})

	c, err := Open(path, "")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()

	if c.ProjectID() != "P-05F8" {
		t.Errorf("ProjectID() = %q, want P-05F8", c.ProjectID())
	}

	data, err := c.InstallationDocument()
	if err != nil {
		t.Fatalf("InstallationDocument() error = %v", err)
	}
	if string(data) != installationXML {
		t.Errorf("installation document mismatch: %q", data)
	}

	if _, err := c.ProjectMetaDocument(); err != nil {
		t.Errorf("ProjectMetaDocument() error = %v", err)
	}
	if _, err := c.MasterDocument(); err != nil {
		t.Errorf("MasterDocument() error = %v", err)
	}

	docs, err := c.HardwareDocuments()
	if err != nil {
		t.Fatalf("HardwareDocuments() error = %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("got %d hardware documents, want 1: %v", len(docs), docs)
	}
	if _, ok := docs["M-0083/Hardware.xml"]; !ok {
		t.Errorf("missing catalogue entry: %v", docs)
	}

	if _, err := c.RootDocument("M-0083/M-0083_A-0041.xml"); err != nil {
		t.Errorf("RootDocument() error = %v", err)
	}
	if _, err := c.RootDocument("M-0083/missing.xml"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("RootDocument(missing) error = %v, want ErrDocumentNotFound", err)
	}
}

func TestOpenNoSignature(t *testing.T) {
	path := writeArchive(t, []entry{
		{name: "0.xml", data: installationXML},
	})
	if _, err := Open(path, ""); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("Open() error = %v, want ErrProjectNotFound", err)
	}
}

func TestOpenNotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.knxproj")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, ""); !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("Open() error = %v, want ErrCorruptArchive", err)
	}
}

func TestOpenProtectedLegacy(t *testing.T) {
	// Pre-21 schema: entries are ZipCrypto, keyed by the password itself.
	path := protectedArchive(t, masterLegacyXML, "Secret123", zip.StandardEncryption)

	c, err := Open(path, "Secret123")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()

	data, err := c.InstallationDocument()
	if err != nil {
		t.Fatalf("InstallationDocument() error = %v", err)
	}
	if string(data) != installationXML {
		t.Errorf("installation document mismatch: %q", data)
	}
}

func TestOpenProtectedDerivedKey(t *testing.T) {
	// Schema 21 and later: entries are AES, keyed by the derived password.
	derived, err := DeriveDocumentPassword("Secret123")
	if err != nil {
		t.Fatalf("DeriveDocumentPassword() error = %v", err)
	}
	path := protectedArchive(t, masterModernXML, derived, zip.AES256Encryption)

	c, err := Open(path, "Secret123")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()

	data, err := c.ProjectMetaDocument()
	if err != nil {
		t.Fatalf("ProjectMetaDocument() error = %v", err)
	}
	if string(data) != metaXML {
		t.Errorf("meta document mismatch: %q", data)
	}
}

func TestOpenProtectedPasswordRejected(t *testing.T) {
	derived, err := DeriveDocumentPassword("Secret123")
	if err != nil {
		t.Fatalf("DeriveDocumentPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		master   string
		entryPW  string
		method   zip.EncryptionMethod
		password string
	}{
		{"missing password", masterModernXML, derived, zip.AES256Encryption, ""},
		{"wrong password derived key", masterModernXML, derived, zip.AES256Encryption, "nope"},
		{"wrong password legacy", masterLegacyXML, "Secret123", zip.StandardEncryption, "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := protectedArchive(t, tt.master, tt.entryPW, tt.method)
			_, err := Open(path, tt.password)
			if !errors.Is(err, ErrInvalidPassword) {
				t.Fatalf("Open() error = %v, want ErrInvalidPassword", err)
			}
		})
	}
}

func TestDeriveDocumentPassword(t *testing.T) {
	tests := []struct {
		password string
		expected string
	}{
		{"password", "SOxqBoHje05OwMf59o3x6RvdFg/AJ2V2rDC4yFC20Lo="},
		{"a", "+FAwP4iI7/Pu4WB3HdIHbbFmteLahPAVkjJShKeozAA="},
		{"Hello-World123", "1chUVA660weaniOo/gVPS4ojFPtUroM9nOM3VwcRd0I="},
	}

	for _, tt := range tests {
		got, err := DeriveDocumentPassword(tt.password)
		if err != nil {
			t.Fatalf("DeriveDocumentPassword(%q) error = %v", tt.password, err)
		}
		if got != tt.expected {
			t.Errorf("DeriveDocumentPassword(%q) = %q, want %q", tt.password, got, tt.expected)
		}
	}
}

func TestProjectDocumentNotFound(t *testing.T) {
	path := writeArchive(t, []entry{
		{name: "P-05F8.signature", data: "sig"},
		{name: "P-05F8/0.xml", data: installationXML},
	})
	c, err := Open(path, "")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()

	if _, err := c.ProjectMetaDocument(); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("ProjectMetaDocument() error = %v, want ErrDocumentNotFound", err)
	}
}
