package ets

import "errors"

// Sentinel errors for document parsing.
var (
	// ErrMalformedDocument indicates a required element or attribute is
	// absent where no default is defined.
	ErrMalformedDocument = errors.New("malformed project document")
)
