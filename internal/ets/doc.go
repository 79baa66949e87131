// Package ets parses the project description documents of an ETS export.
//
// The same logical model has been serialised under three schema dialects
// over the tool's history: element names, nesting and link encodings all
// differ. The dialect is detected once from the installation document's
// namespace and threaded into every builder that branches on it.
//
// The package produces intermediate entities (areas, lines, devices, group
// addresses, spaces, functions). Cross-referencing into the final output
// model happens one level up, after the collaborator tables are available.
//
// All element lookups match on the local tag name only and ignore namespace
// prefixes; the documents appear both with and without explicit prefixes in
// the wild.
package ets
