package domain

// Device represents a piece of equipment in the diagram.
//
// ID is globally unique and human-meaningful (category-prefixed,
// sequential, e.g. "CAM.01"). X/Y position the device in world space;
// W/H are the rendered box size. Ports is an ordered sequence owned
// exclusively by the device.
type Device struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	W            float64 `json:"w"`
	H            float64 `json:"h"`
	Color        string  `json:"color,omitempty"`
	CustomName   string  `json:"customName,omitempty"`
	Manufacturer string  `json:"manufacturer,omitempty"`
	Model        string  `json:"model,omitempty"`
	Ports        []Port  `json:"ports"`
}

// Clone returns a deep copy of the device.
func (d Device) Clone() Device {
	out := d
	out.Ports = make([]Port, len(d.Ports))
	copy(out.Ports, d.Ports)
	return out
}

// Port returns the port with the given id, if present.
func (d *Device) Port(portID string) (*Port, bool) {
	for i := range d.Ports {
		if d.Ports[i].ID == portID {
			return &d.Ports[i], true
		}
	}
	return nil, false
}

// PortsByDirection returns the device's ports with the given direction,
// preserving their order.
func (d *Device) PortsByDirection(dir Direction) []Port {
	var out []Port
	for _, p := range d.Ports {
		if p.Direction == dir {
			out = append(out, p)
		}
	}
	return out
}

// Label returns the operator-facing name: the custom name when set,
// otherwise the device id.
func (d *Device) Label() string {
	if d.CustomName != "" {
		return d.CustomName
	}
	return d.ID
}
