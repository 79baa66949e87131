package container

import "errors"

// Sentinel errors for container decoding.
var (
	// ErrProjectNotFound indicates the archive carries no project
	// signature entry and is therefore not an ETS export.
	ErrProjectNotFound = errors.New("no project found in archive")

	// ErrInvalidPassword indicates the project is password protected and
	// the password was absent or rejected by the archive layer.
	ErrInvalidPassword = errors.New("invalid project password")

	// ErrCorruptArchive indicates the ZIP container is unreadable.
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrDocumentNotFound indicates a required inner document is missing.
	ErrDocumentNotFound = errors.New("document not found in archive")
)
