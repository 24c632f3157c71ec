package domain

import "fmt"

// GraphState is the complete diagram: devices and the connections among
// them. It is the unit of snapshotting for undo/redo, clipboard, and
// persistence.
type GraphState struct {
	Devices     []Device     `json:"devices"`
	Connections []Connection `json:"connections"`
}

// NewGraphState creates an empty graph with initialized collections.
func NewGraphState() *GraphState {
	return &GraphState{
		Devices:     make([]Device, 0),
		Connections: make([]Connection, 0),
	}
}

// Clone returns a deep copy of the graph. Snapshots handed to history,
// clipboard, or read-side consumers must never alias the live state.
func (g *GraphState) Clone() *GraphState {
	out := &GraphState{
		Devices:     make([]Device, 0, len(g.Devices)),
		Connections: make([]Connection, len(g.Connections)),
	}
	for _, d := range g.Devices {
		out.Devices = append(out.Devices, d.Clone())
	}
	copy(out.Connections, g.Connections)
	return out
}

// Device returns the device with the given id, if present.
func (g *GraphState) Device(id string) (*Device, bool) {
	for i := range g.Devices {
		if g.Devices[i].ID == id {
			return &g.Devices[i], true
		}
	}
	return nil, false
}

// Connection returns the connection with the given id, if present.
func (g *GraphState) Connection(id string) (*Connection, bool) {
	for i := range g.Connections {
		if g.Connections[i].ID == id {
			return &g.Connections[i], true
		}
	}
	return nil, false
}

// ResolveEnd resolves a connection end to its device and port.
func (g *GraphState) ResolveEnd(end ConnectionEnd) (*Device, *Port, bool) {
	dev, ok := g.Device(end.DeviceID)
	if !ok {
		return nil, nil, false
	}
	port, ok := dev.Port(end.PortID)
	if !ok {
		return nil, nil, false
	}
	return dev, port, true
}

// OutPortInUse reports whether any connection already originates from the
// given OUT port.
func (g *GraphState) OutPortInUse(deviceID, portID string) bool {
	for _, c := range g.Connections {
		if c.From.DeviceID == deviceID && c.From.PortID == portID {
			return true
		}
	}
	return false
}

// InPortInUse reports whether any connection already terminates at the
// given IN port.
func (g *GraphState) InPortInUse(deviceID, portID string) bool {
	for _, c := range g.Connections {
		if c.To.DeviceID == deviceID && c.To.PortID == portID {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants every mutation must preserve.
// A failure here indicates a bug in the mutation engine or a malformed
// imported document, never routine user input.
func (g *GraphState) Validate() error {
	deviceIDs := make(map[string]struct{}, len(g.Devices))
	for _, d := range g.Devices {
		if d.ID == "" {
			return fmt.Errorf("device with empty id")
		}
		if _, dup := deviceIDs[d.ID]; dup {
			return fmt.Errorf("duplicate device id %q", d.ID)
		}
		deviceIDs[d.ID] = struct{}{}

		portIDs := make(map[string]struct{}, len(d.Ports))
		for _, p := range d.Ports {
			if p.ID == "" {
				return fmt.Errorf("device %s: port with empty id", d.ID)
			}
			if _, dup := portIDs[p.ID]; dup {
				return fmt.Errorf("device %s: duplicate port id %q", d.ID, p.ID)
			}
			if !p.Direction.Valid() {
				return fmt.Errorf("device %s: port %s has invalid direction %q", d.ID, p.ID, p.Direction)
			}
			portIDs[p.ID] = struct{}{}
		}
	}

	seenPairs := make(map[[4]string]struct{}, len(g.Connections))
	seenFrom := make(map[ConnectionEnd]struct{}, len(g.Connections))
	connIDs := make(map[string]struct{}, len(g.Connections))
	for _, c := range g.Connections {
		if c.ID == "" {
			return fmt.Errorf("connection with empty id")
		}
		if _, dup := connIDs[c.ID]; dup {
			return fmt.Errorf("duplicate connection id %q", c.ID)
		}
		connIDs[c.ID] = struct{}{}

		_, fromPort, ok := g.ResolveEnd(c.From)
		if !ok {
			return fmt.Errorf("connection %s: from end %v does not resolve", c.ID, c.From)
		}
		_, toPort, ok := g.ResolveEnd(c.To)
		if !ok {
			return fmt.Errorf("connection %s: to end %v does not resolve", c.ID, c.To)
		}
		if fromPort.Direction != DirectionOut {
			return fmt.Errorf("connection %s: from port %s is not OUT", c.ID, fromPort.ID)
		}
		if toPort.Direction != DirectionIn {
			return fmt.Errorf("connection %s: to port %s is not IN", c.ID, toPort.ID)
		}

		pair := [4]string{c.From.DeviceID, c.From.PortID, c.To.DeviceID, c.To.PortID}
		if _, dup := seenPairs[pair]; dup {
			return fmt.Errorf("connection %s: duplicate endpoints %v -> %v", c.ID, c.From, c.To)
		}
		seenPairs[pair] = struct{}{}

		if _, used := seenFrom[c.From]; used {
			return fmt.Errorf("connection %s: fan-out from %v", c.ID, c.From)
		}
		seenFrom[c.From] = struct{}{}
	}

	return nil
}
