package ets

import (
	"fmt"
	"strconv"
	"strings"
)

// DPT is a datapoint type. Sub is zero when only the main profile is
// given ("DPT-1" as opposed to "DPST-1-1").
type DPT struct {
	Main int `json:"main"`
	Sub  int `json:"sub"`
}

// String renders the conventional dotted form, e.g. "1.001" or "14".
func (d DPT) String() string {
	if d.Sub == 0 {
		return strconv.Itoa(d.Main)
	}
	return fmt.Sprintf("%d.%03d", d.Main, d.Sub)
}

// ParseDPTs parses a space-separated datapoint type attribute
// ("DPST-1-1 DPT-5") into its candidates. Malformed tokens degrade to
// absent entries rather than failing; an attribute with no parseable token
// yields nil.
func ParseDPTs(attr string) []DPT {
	var out []DPT
	for _, token := range strings.Fields(attr) {
		if dpt, ok := parseDPT(token); ok {
			out = append(out, dpt)
		}
	}
	return out
}

// FirstDPT parses a datapoint type attribute and returns the first
// candidate, or nil when none parses.
func FirstDPT(attr string) *DPT {
	dpts := ParseDPTs(attr)
	if len(dpts) == 0 {
		return nil
	}
	return &dpts[0]
}

func parseDPT(token string) (DPT, bool) {
	switch {
	case strings.HasPrefix(token, "DPST-"):
		parts := strings.Split(token[len("DPST-"):], "-")
		if len(parts) != 2 {
			return DPT{}, false
		}
		main, err1 := strconv.Atoi(parts[0])
		sub, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return DPT{}, false
		}
		return DPT{Main: main, Sub: sub}, true
	case strings.HasPrefix(token, "DPT-"):
		main, err := strconv.Atoi(token[len("DPT-"):])
		if err != nil {
			return DPT{}, false
		}
		return DPT{Main: main}, true
	default:
		return DPT{}, false
	}
}

// parseFlag parses a tri-state flag attribute: "Enabled" and "Disabled"
// map to explicit values, anything else (including absence) stays unset.
func parseFlag(attr string) *bool {
	switch attr {
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

// FormatGroupAddress renders a raw group address in three-level notation
// (5-bit main, 3-bit middle, 8-bit sub).
func FormatGroupAddress(raw int) string {
	return fmt.Sprintf("%d/%d/%d", (raw>>11)&0x1F, (raw>>8)&0x07, raw&0xFF)
}

// stripProjectPrefix removes the leading project id segment from an
// identifier, e.g. "P-05F8-0_GA-3" -> "GA-3". Identifiers without a
// project segment pass through unchanged.
func stripProjectPrefix(id string) string {
	if _, rest, found := strings.Cut(id, "_"); found {
		return rest
	}
	return id
}

// parseProjectUID parses an optional Puid attribute.
func parseProjectUID(attr string) *int {
	if attr == "" {
		return nil
	}
	uid, err := strconv.Atoi(attr)
	if err != nil {
		return nil
	}
	return &uid
}
