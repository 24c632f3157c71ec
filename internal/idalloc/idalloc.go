// Package idalloc derives collision-free, human-readable identifiers for
// devices and connections from the current graph contents.
//
// Allocation is a pure function of the graph: the next id for a prefix is
// the maximum numeric suffix currently in use plus one. There is no
// persistent counter, so numbers freed by deletion may be reused.
package idalloc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"patchbay/internal/domain"
)

// prefixes maps lower-cased device-type strings to short id prefixes.
// The type list mirrors the equipment catalog.
var prefixes = map[string]string{
	"camera":              "CAM",
	"router":              "RTR",
	"vision mixer":        "VMX",
	"server":              "SRV",
	"camera control unit": "CCU",
	"embedder":            "EMB",
	"embeder":             "EMB",
	"encoder":             "ENC",
	"replay system":       "RPL",
	"monitor":             "MON",
	"monitors":            "MON",
}

// DefaultPrefix is used for device types with no catalog mapping.
const DefaultPrefix = "DEV"

var connPattern = regexp.MustCompile(`(?i)^CONN-(\d+)$`)

// Prefix returns the id prefix for a device type.
func Prefix(deviceType string) string {
	if p, ok := prefixes[strings.ToLower(strings.TrimSpace(deviceType))]; ok {
		return p
	}
	return DefaultPrefix
}

// NextDeviceID returns the next free id for the given device type,
// e.g. "CAM.03" when CAM.01 and CAM.02 exist.
func NextDeviceID(g *domain.GraphState, deviceType string) string {
	prefix := Prefix(deviceType)
	pattern := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(prefix) + `\.(\d+)$`)

	max := 0
	for _, dev := range g.Devices {
		m := pattern.FindStringSubmatch(dev.ID)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}

	return fmt.Sprintf("%s.%02d", prefix, max+1)
}

// NextConnectionID returns the next free connection id, e.g. "CONN-0004".
func NextConnectionID(g *domain.GraphState) string {
	max := 0
	for _, conn := range g.Connections {
		m := connPattern.FindStringSubmatch(conn.ID)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}

	return fmt.Sprintf("CONN-%04d", max+1)
}

// NewPortID returns a fresh opaque port id. Port ids are not sequential
// and carry no type information; they only need to be unique.
func NewPortID() string {
	return uuid.NewString()
}
