package service

import (
	"patchbay/internal/domain"
	"patchbay/internal/idalloc"
	"patchbay/internal/mutate"
)

// CatalogEntry describes one device type the UI palette offers.
type CatalogEntry struct {
	Type         string            `json:"type"`
	Label        string            `json:"label"`
	Prefix       string            `json:"prefix"`
	Color        string            `json:"color"`
	DefaultPorts []mutate.PortSpec `json:"defaultPorts"`
}

// CatalogService serves the broadcast-equipment palette.
type CatalogService struct {
	entries []CatalogEntry
}

// NewCatalogService builds the standard palette.
func NewCatalogService() *CatalogService {
	mk := func(devType, label, color string, ports []mutate.PortSpec) CatalogEntry {
		return CatalogEntry{
			Type:         devType,
			Label:        label,
			Prefix:       idalloc.Prefix(devType),
			Color:        color,
			DefaultPorts: ports,
		}
	}

	sdi := func(out, in int) []mutate.PortSpec {
		specs := make([]mutate.PortSpec, 0, out+in)
		for i := 0; i < in; i++ {
			specs = append(specs, mutate.PortSpec{Type: "SDI", Direction: domain.DirectionIn})
		}
		for i := 0; i < out; i++ {
			specs = append(specs, mutate.PortSpec{Type: "SDI", Direction: domain.DirectionOut})
		}
		return specs
	}

	return &CatalogService{entries: []CatalogEntry{
		mk("camera", "Camera", "#4caf50", sdi(1, 0)),
		mk("camera control unit", "Camera Control Unit", "#8bc34a", sdi(2, 2)),
		mk("router", "Router", "#2196f3", sdi(8, 8)),
		mk("vision mixer", "Vision Mixer", "#9c27b0", sdi(2, 8)),
		mk("server", "Server", "#607d8b", sdi(2, 2)),
		mk("embeder", "Embeder", "#ff9800", sdi(1, 2)),
		mk("encoder", "Encoder", "#795548", sdi(0, 1)),
		mk("replay system", "Replay System", "#f44336", sdi(2, 4)),
		mk("monitors", "Monitors", "#00bcd4", sdi(0, 1)),
	}}
}

// List returns the palette entries.
func (c *CatalogService) List() []CatalogEntry {
	return c.entries
}

// Lookup finds a palette entry by device type.
func (c *CatalogService) Lookup(devType string) (CatalogEntry, bool) {
	for _, e := range c.entries {
		if e.Type == devType {
			return e, true
		}
	}
	return CatalogEntry{}, false
}
