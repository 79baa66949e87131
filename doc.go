// Package knxproj parses ETS project exports (.knxproj) into one fully
// cross-referenced, read-only model: physical topology, devices with their
// communication objects, the group-address table with its reverse index,
// and the spatial hierarchy with its functions.
//
// The container may be password protected under either of two encryption
// schemes, depending on the authoring tool's generation; both are handled
// transparently. Three schema dialects of the project documents are
// supported.
//
// # Usage
//
//	project, err := knxproj.ParseFile("site.knxproj",
//	    knxproj.WithPassword("secret"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for address, device := range project.Devices {
//	    fmt.Println(address, device.Name)
//	}
//
// Parsing is a single-threaded batch pipeline; it either completes or
// fails atomically with one of the sentinel errors in this package. The
// returned model is safe for concurrent reads.
//
// The package never writes: it does not reconstruct or re-encrypt
// containers, and it is not a general archive or XML library.
package knxproj
