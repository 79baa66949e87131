package knxproj

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/nerrad567/knxproj/internal/container"
	"github.com/nerrad567/knxproj/internal/ets"
	"github.com/nerrad567/knxproj/internal/hardware"
	"github.com/nerrad567/knxproj/internal/knxmaster"
)

// options collects the optional parse parameters.
type options struct {
	password string
	language string
	log      *slog.Logger
}

// Option configures a parse run.
type Option func(*options)

// WithPassword supplies the password of a protected project. Ignored for
// unprotected projects.
func WithPassword(password string) Option {
	return func(o *options) { o.password = password }
}

// WithLanguage selects a translation set for com-object texts, e.g.
// "de-DE". Without it the primary texts are used.
func WithLanguage(code string) Option {
	return func(o *options) { o.language = code }
}

// WithLogger sets the logger for enrichment warnings and progress. The
// default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// ParseFile decodes and parses the export at path into one immutable
// project model. The pipeline runs to completion or fails atomically: no
// partial project is ever returned.
func ParseFile(path string, opts ...Option) (*Project, error) {
	o := options{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	contents, err := container.Open(path, o.password)
	if err != nil {
		return nil, err
	}
	defer contents.Close()

	// Everything the parse needs is decoded up front; a decode failure is
	// fatal before any document is interpreted.
	installationDoc, err := contents.InstallationDocument()
	if err != nil {
		return nil, err
	}
	metaDoc, err := contents.ProjectMetaDocument()
	if err != nil {
		return nil, err
	}
	masterDoc, err := contents.MasterDocument()
	if err != nil {
		return nil, err
	}
	hardwareDocs, err := contents.HardwareDocuments()
	if err != nil {
		return nil, err
	}

	builders, err := runBuilders(installationDoc, metaDoc)
	if err != nil {
		return nil, err
	}

	master, err := knxmaster.Load(masterDoc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	enricher, err := hardware.NewResolver(hardwareDocs, contents.RootDocument, o.language, o.log)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	return resolve(builders, master, enricher, o.log)
}

// runBuilders executes the three document builders in dependency order:
// topology first, since the location builder resolves device references
// against the device table.
func runBuilders(installationDoc, metaDoc []byte) (*builderOutput, error) {
	doc, err := ets.LoadDocument(installationDoc)
	if err != nil {
		return nil, err
	}

	areas, err := ets.LoadTopology(doc)
	if err != nil {
		return nil, err
	}
	groupAddresses, err := ets.LoadGroupAddresses(doc)
	if err != nil {
		return nil, err
	}
	spaces, functions, err := ets.LoadLocations(doc, ets.DeviceIndex(areas))
	if err != nil {
		return nil, err
	}
	info, err := ets.LoadProjectInformation(metaDoc)
	if err != nil {
		return nil, err
	}

	return &builderOutput{
		info:           info,
		areas:          areas,
		devices:        ets.Devices(areas),
		groupAddresses: groupAddresses,
		spaces:         spaces,
		functions:      functions,
	}, nil
}
