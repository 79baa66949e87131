package knxproj

import (
	"errors"

	"github.com/nerrad567/knxproj/internal/container"
	"github.com/nerrad567/knxproj/internal/ets"
)

// Error taxonomy of the parse pipeline. Container and document errors are
// fatal and abort the whole parse; enrichment misses are logged warnings
// and never surface as errors.
var (
	// ErrProjectNotFound indicates the archive carries no project
	// signature entry.
	ErrProjectNotFound = container.ErrProjectNotFound

	// ErrInvalidPassword indicates a required password was absent or
	// rejected.
	ErrInvalidPassword = container.ErrInvalidPassword

	// ErrMalformedDocument indicates a required element or attribute is
	// missing from a project document.
	ErrMalformedDocument = ets.ErrMalformedDocument

	// ErrUnresolvedReference indicates a function references a group
	// address that does not exist. The identifiers are generated from the
	// same source, so divergence means the export is corrupt.
	ErrUnresolvedReference = errors.New("unresolved group address reference")
)
