// Package container decodes the outer .knxproj archive: it locates the
// project by its signature entry, detects password protection and the
// encryption scheme in use, derives the entry password where required, and
// hands byte streams of the inner documents to the parser.
//
// Two encryption schemes exist. Projects exported before the schema 21
// namespace use legacy per-entry ZipCrypto keyed directly by the UTF-8
// password. Later exports encrypt entries with WinZip AES, keyed by a
// base64-encoded PBKDF2 derivation of the UTF-16LE password. Which scheme
// applies is decided solely by the version marker in knx_master.xml,
// never by trial decryption.
package container

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/yeka/zip"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/encoding/unicode"
)

const (
	signaturePrefix = "P-"
	signatureSuffix = ".signature"

	// InstallationDocument holds topology, group addresses and locations.
	InstallationDocument = "0.xml"

	// ProjectMetaDocument holds the project information header.
	ProjectMetaDocument = "project.xml"

	// MasterDocument holds the enumerated master data tables. It also
	// carries the schema namespace used to detect the encryption scheme.
	MasterDocument = "knx_master.xml"

	// derivedKeySalt is the fixed, publicly known salt used by the
	// derived-key scheme.
	derivedKeySalt = "21.project.ets.knx.org"

	derivedKeyIterations = 65536
	derivedKeyLength     = 32

	// derivedKeyMinVersion is the first schema version whose exports use
	// the derived-key scheme.
	derivedKeyMinVersion = 21

	// maxDocumentSize caps single inner documents to keep a corrupt
	// archive from exhausting memory.
	maxDocumentSize = 256 * 1024 * 1024
)

// schemaNamespace matches the versioned KNX schema namespace in document
// headers.
var schemaNamespace = regexp.MustCompile(`http://knx\.org/xml/project/(\d+)`)

// Contents is a decoder session over one .knxproj archive. It owns the
// underlying file handle; Close releases it. All document reads decode the
// full entry before returning, so no partially decrypted data escapes.
type Contents struct {
	projectID string
	root      *zip.ReadCloser

	// project holds the entries carrying the project documents: the outer
	// archive itself when unprotected, the nested archive when protected.
	project []*zip.File

	// prefix is the entry-name prefix of project documents ("<id>/" in
	// unprotected archives, empty in the nested archive).
	prefix string

	// password decrypts protected project entries; empty when the project
	// is unprotected.
	password  string
	protected bool
}

// Open decodes the archive at path. password may be empty; it is required
// only for protected projects. The returned session must be closed.
//
// Returns ErrProjectNotFound when no signature entry exists and
// ErrInvalidPassword when the project is protected and the password is
// absent or rejected.
func Open(path string, password string) (*Contents, error) {
	root, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	c := &Contents{root: root}
	ok := false
	defer func() {
		if !ok {
			root.Close()
		}
	}()

	if c.projectID, err = findProjectID(root.File); err != nil {
		return nil, err
	}

	inner := findEntry(root.File, c.projectID+".zip")
	if inner == nil {
		// Unprotected: documents live directly under "<project-id>/".
		c.project = root.File
		c.prefix = c.projectID + "/"
		ok = true
		return c, nil
	}

	if password == "" {
		return nil, ErrInvalidPassword
	}
	entryPassword := password
	derived, err := usesDerivedKey(root.File)
	if err != nil {
		return nil, err
	}
	if derived {
		if entryPassword, err = DeriveDocumentPassword(password); err != nil {
			return nil, err
		}
	}

	// The nested archive itself is stored unencrypted; its entries carry
	// the encryption.
	buf, err := readEntry(inner, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, inner.Name, err)
	}
	nested, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, inner.Name, err)
	}

	c.project = nested.File
	c.password = entryPassword
	c.protected = true

	// Decrypt the installation document once up front so a wrong password
	// fails here and never surfaces garbled output to the parser.
	if _, err := c.InstallationDocument(); err != nil {
		return nil, err
	}

	ok = true
	return c, nil
}

// ProjectID returns the project identifier recovered from the signature
// entry, e.g. "P-05F8".
func (c *Contents) ProjectID() string {
	return c.projectID
}

// InstallationDocument returns the decoded installation document (0.xml).
func (c *Contents) InstallationDocument() ([]byte, error) {
	return c.projectDocument(InstallationDocument)
}

// ProjectMetaDocument returns the decoded project metadata (project.xml).
func (c *Contents) ProjectMetaDocument() ([]byte, error) {
	return c.projectDocument(ProjectMetaDocument)
}

// MasterDocument returns the master data document from the outer archive.
// It is never encrypted, even in protected projects.
func (c *Contents) MasterDocument() ([]byte, error) {
	return c.rootDocument(MasterDocument)
}

// HardwareDocuments returns every manufacturer Hardware.xml in the outer
// archive, keyed by entry name (e.g. "M-0083/Hardware.xml").
func (c *Contents) HardwareDocuments() (map[string][]byte, error) {
	docs := make(map[string][]byte)
	for _, f := range c.root.File {
		dir, rest, found := strings.Cut(f.Name, "/")
		if !found || rest != "Hardware.xml" || !strings.HasPrefix(dir, "M-") {
			continue
		}
		data, err := readEntry(f, "")
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, f.Name, err)
		}
		docs[f.Name] = data
	}
	return docs, nil
}

// RootDocument returns an arbitrary entry of the outer archive by name,
// used for manufacturer application program documents.
func (c *Contents) RootDocument(name string) ([]byte, error) {
	return c.rootDocument(name)
}

// Close releases the archive handle. Document slices returned earlier stay
// valid; they are copies.
func (c *Contents) Close() error {
	return c.root.Close()
}

func (c *Contents) projectDocument(name string) ([]byte, error) {
	f := findEntry(c.project, c.prefix+name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	data, err := readEntry(f, c.password)
	if err != nil {
		if c.protected && f.IsEncrypted() {
			// The archive layer rejected the key material.
			return nil, fmt.Errorf("%w: %v", ErrInvalidPassword, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, name, err)
	}
	return data, nil
}

func (c *Contents) rootDocument(name string) ([]byte, error) {
	f := findEntry(c.root.File, name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	data, err := readEntry(f, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, name, err)
	}
	return data, nil
}

// DeriveDocumentPassword derives the archive password for AES-encrypted
// entries: PBKDF2 with HMAC-SHA256 over the UTF-16LE encoded password,
// base64-encoded.
func DeriveDocumentPassword(password string) (string, error) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).
		NewEncoder().Bytes([]byte(password))
	if err != nil {
		return "", fmt.Errorf("encoding password: %w", err)
	}
	key := pbkdf2.Key(encoded, []byte(derivedKeySalt), derivedKeyIterations, derivedKeyLength, sha256.New)
	return base64.StdEncoding.EncodeToString(key), nil
}

// findProjectID scans the entry list for the "P-<id>.signature" entry.
func findProjectID(files []*zip.File) (string, error) {
	for _, f := range files {
		if strings.HasPrefix(f.Name, signaturePrefix) && strings.HasSuffix(f.Name, signatureSuffix) {
			return strings.TrimSuffix(f.Name, signatureSuffix), nil
		}
	}
	return "", ErrProjectNotFound
}

// usesDerivedKey reports whether the export uses the derived-key scheme.
// The decision reads the first two lines of the master data document and
// looks for a schema namespace of version 21 or later.
func usesDerivedKey(files []*zip.File) (bool, error) {
	master := findEntry(files, MasterDocument)
	if master == nil {
		// Exports without master data predate the derived-key scheme.
		return false, nil
	}
	rc, err := master.Open()
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, MasterDocument, err)
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	for i := 0; i < 2 && scanner.Scan(); i++ {
		m := schemaNamespace.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		version, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return version >= derivedKeyMinVersion, nil
	}
	return false, nil
}

func findEntry(files []*zip.File, name string) *zip.File {
	for _, f := range files {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func readEntry(f *zip.File, password string) ([]byte, error) {
	if password != "" && f.IsEncrypted() {
		f.SetPassword(password)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxDocumentSize))
	if err != nil {
		return nil, err
	}
	return data, nil
}
