package domain

// ConnectionEnd is a non-owning reference to a port on a device.
type ConnectionEnd struct {
	DeviceID string `json:"deviceId"`
	PortID   string `json:"portId"`
}

// Connection represents a signal path between two ports.
//
// From must resolve to an OUT port and To to an IN port; the mutation
// engine enforces this orientation regardless of which end a link-draw
// gesture started from.
type Connection struct {
	ID   string        `json:"id"`
	From ConnectionEnd `json:"from"`
	To   ConnectionEnd `json:"to"`
}

// Touches reports whether either end of the connection references the
// given device.
func (c Connection) Touches(deviceID string) bool {
	return c.From.DeviceID == deviceID || c.To.DeviceID == deviceID
}

// SameEndpoints reports whether two connections reference exactly the same
// (from, to) port pair.
func (c Connection) SameEndpoints(other Connection) bool {
	return c.From == other.From && c.To == other.To
}
