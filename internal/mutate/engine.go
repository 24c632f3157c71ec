package mutate

import (
	"fmt"
	"strings"

	"patchbay/internal/domain"
	"patchbay/internal/idalloc"
)

// addStep is the diagonal offset applied between successive devices
// created in one AddDevice call so they do not stack.
const addStepX, addStepY = 24, 24

// Engine applies invariant-preserving mutations to a GraphState.
type Engine struct {
	policy Policy
	sizing Sizing
}

// NewEngine creates an engine with the given connection policy and box
// geometry.
func NewEngine(policy Policy, sizing Sizing) *Engine {
	return &Engine{policy: policy, sizing: sizing}
}

// Sizing returns the engine's box geometry, shared with hit testing.
func (e *Engine) Sizing() Sizing {
	return e.sizing
}

// PortSpec describes a port to create on a new device. Name may be empty,
// in which case a name is synthesized from the type, direction, and the
// port's per-direction index.
type PortSpec struct {
	Name      string
	Type      string
	Direction domain.Direction
}

// AddDeviceRequest describes an AddDevice operation.
type AddDeviceRequest struct {
	Type  string
	Count int
	X, Y  float64
	// W/H force an explicit box size when > 0; otherwise the size is
	// computed from the port layout.
	W, H         float64
	Ports        []PortSpec
	Color        string
	CustomName   string
	Manufacturer string
	Model        string
}

// AddDevice creates Count devices of the requested type and appends them
// to the graph. It returns the created devices. Requests with no valid
// type are absorbed as no-ops.
func (e *Engine) AddDevice(g *domain.GraphState, req AddDeviceRequest) []domain.Device {
	if strings.TrimSpace(req.Type) == "" {
		return nil
	}
	count := req.Count
	if count < 1 {
		count = 1
	}

	created := make([]domain.Device, 0, count)
	for i := 0; i < count; i++ {
		dev := domain.Device{
			ID:           idalloc.NextDeviceID(g, req.Type),
			Type:         req.Type,
			X:            req.X + float64(i)*addStepX,
			Y:            req.Y + float64(i)*addStepY,
			Color:        req.Color,
			CustomName:   req.CustomName,
			Manufacturer: req.Manufacturer,
			Model:        req.Model,
			Ports:        buildPorts(req.Ports),
		}

		if req.W > 0 && req.H > 0 {
			dev.W, dev.H = req.W, req.H
		} else {
			dev.W, dev.H = e.sizing.BoxSize(dev.Ports)
		}

		g.Devices = append(g.Devices, dev)
		created = append(created, dev.Clone())
	}
	return created
}

// buildPorts materializes port specs: every port gets a fresh id, and
// unnamed ports get a synthesized TYPE_DIRECTION_index name.
func buildPorts(specs []PortSpec) []domain.Port {
	ports := make([]domain.Port, 0, len(specs))
	perDir := map[domain.Direction]int{}
	for _, spec := range specs {
		dir := spec.Direction
		if !dir.Valid() {
			dir = domain.DirectionIn
		}
		perDir[dir]++

		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("%s_%s_%d", strings.ToUpper(spec.Type), dir, perDir[dir])
		}

		ports = append(ports, domain.Port{
			ID:        idalloc.NewPortID(),
			Name:      name,
			Type:      spec.Type,
			Direction: dir,
		})
	}
	return ports
}

// DeleteDevices removes the devices whose ids are in the given set and
// cascades into removal of every connection touching them. It returns the
// number of devices removed.
func (e *Engine) DeleteDevices(g *domain.GraphState, ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	doomed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		doomed[id] = struct{}{}
	}

	kept := g.Devices[:0]
	removed := 0
	for _, dev := range g.Devices {
		if _, gone := doomed[dev.ID]; gone {
			removed++
			continue
		}
		kept = append(kept, dev)
	}
	if removed == 0 {
		return 0
	}
	g.Devices = kept

	keptConns := g.Connections[:0]
	for _, conn := range g.Connections {
		if _, gone := doomed[conn.From.DeviceID]; gone {
			continue
		}
		if _, gone := doomed[conn.To.DeviceID]; gone {
			continue
		}
		keptConns = append(keptConns, conn)
	}
	g.Connections = keptConns

	return removed
}

// CopyDevices returns clipboard snapshots of the selected devices with
// every port re-issued a fresh id. The snapshots are not inserted into the
// graph; re-issuing ids here breaks the aliasing that would otherwise let
// a pasted device share port identity with its source.
func (e *Engine) CopyDevices(g *domain.GraphState, ids []string) []domain.Device {
	var clipboard []domain.Device
	for _, id := range ids {
		dev, ok := g.Device(id)
		if !ok {
			continue
		}
		copied := dev.Clone()
		for i := range copied.Ports {
			copied.Ports[i].ID = idalloc.NewPortID()
		}
		clipboard = append(clipboard, copied)
	}
	return clipboard
}

// PasteDevices inserts clipboard devices into the graph. Each pasted
// device gets a freshly allocated type-based id, another round of fresh
// port ids, and a position offset scaled by its paste index so repeated
// pastes fan out rather than stack.
func (e *Engine) PasteDevices(g *domain.GraphState, clipboard []domain.Device, offsetX, offsetY float64) []domain.Device {
	pasted := make([]domain.Device, 0, len(clipboard))
	for i, src := range clipboard {
		dev := src.Clone()
		dev.ID = idalloc.NextDeviceID(g, dev.Type)
		for j := range dev.Ports {
			dev.Ports[j].ID = idalloc.NewPortID()
		}
		dev.X = src.X + offsetX*float64(i+1)
		dev.Y = src.Y + offsetY*float64(i+1)

		g.Devices = append(g.Devices, dev)
		pasted = append(pasted, dev.Clone())
	}
	return pasted
}

// AddConnection connects two ports. The gesture may supply its origin and
// destination in either order; the engine resolves which end is OUT and
// which is IN. Invalid requests (unresolvable ends, two ports of the same
// direction, duplicates, policy violations) are absorbed as no-ops. A
// device may feed itself: an OUT and an IN on the same device are
// distinct ports and connect like any other pair.
func (e *Engine) AddConnection(g *domain.GraphState, a, b domain.ConnectionEnd) (domain.Connection, bool) {
	_, portA, okA := g.ResolveEnd(a)
	_, portB, okB := g.ResolveEnd(b)
	if !okA || !okB {
		return domain.Connection{}, false
	}

	// Exactly one OUT and one IN among the two ends.
	var from, to domain.ConnectionEnd
	switch {
	case portA.Direction == domain.DirectionOut && portB.Direction == domain.DirectionIn:
		from, to = a, b
	case portA.Direction == domain.DirectionIn && portB.Direction == domain.DirectionOut:
		from, to = b, a
	default:
		return domain.Connection{}, false
	}

	candidate := domain.Connection{From: from, To: to}
	for _, existing := range g.Connections {
		if existing.SameEndpoints(candidate) {
			return domain.Connection{}, false
		}
	}

	if e.policy.ForbidFanOut && g.OutPortInUse(from.DeviceID, from.PortID) {
		return domain.Connection{}, false
	}
	if e.policy.ForbidFanIn && g.InPortInUse(to.DeviceID, to.PortID) {
		return domain.Connection{}, false
	}

	candidate.ID = idalloc.NextConnectionID(g)
	g.Connections = append(g.Connections, candidate)
	return candidate, true
}

// DeleteConnection removes a single connection by id.
func (e *Engine) DeleteConnection(g *domain.GraphState, id string) bool {
	for i, conn := range g.Connections {
		if conn.ID == id {
			g.Connections = append(g.Connections[:i], g.Connections[i+1:]...)
			return true
		}
	}
	return false
}

// DeviceUpdate carries the mutable device fields a UI edit can change.
// Nil pointers leave the field untouched.
type DeviceUpdate struct {
	X, Y         *float64
	W, H         *float64
	Color        *string
	CustomName   *string
	Manufacturer *string
	Model        *string
	// AddPorts appends new ports built from specs; RemovePortIDs removes
	// ports (cascading into removal of connections referencing them).
	AddPorts      []PortSpec
	RemovePortIDs []string
}

// UpdateDevice applies an in-place edit to a device. Unknown ids are
// absorbed as no-ops.
func (e *Engine) UpdateDevice(g *domain.GraphState, id string, upd DeviceUpdate) bool {
	dev, ok := g.Device(id)
	if !ok {
		return false
	}

	if upd.X != nil {
		dev.X = *upd.X
	}
	if upd.Y != nil {
		dev.Y = *upd.Y
	}
	if upd.W != nil {
		dev.W = *upd.W
	}
	if upd.H != nil {
		dev.H = *upd.H
	}
	if upd.Color != nil {
		dev.Color = *upd.Color
	}
	if upd.CustomName != nil {
		dev.CustomName = *upd.CustomName
	}
	if upd.Manufacturer != nil {
		dev.Manufacturer = *upd.Manufacturer
	}
	if upd.Model != nil {
		dev.Model = *upd.Model
	}

	if len(upd.AddPorts) > 0 {
		dev.Ports = append(dev.Ports, buildPorts(upd.AddPorts)...)
	}

	if len(upd.RemovePortIDs) > 0 {
		doomed := make(map[string]struct{}, len(upd.RemovePortIDs))
		for _, pid := range upd.RemovePortIDs {
			doomed[pid] = struct{}{}
		}

		kept := dev.Ports[:0]
		for _, p := range dev.Ports {
			if _, gone := doomed[p.ID]; gone {
				continue
			}
			kept = append(kept, p)
		}
		dev.Ports = kept

		keptConns := g.Connections[:0]
		for _, conn := range g.Connections {
			_, fromGone := doomed[conn.From.PortID]
			_, toGone := doomed[conn.To.PortID]
			if (fromGone && conn.From.DeviceID == id) || (toGone && conn.To.DeviceID == id) {
				continue
			}
			keptConns = append(keptConns, conn)
		}
		g.Connections = keptConns
	}

	return true
}

// MoveDevice sets a device's position, clamping it non-negative. Used by
// the drag gesture on every pointer move.
func (e *Engine) MoveDevice(g *domain.GraphState, id string, x, y float64) bool {
	dev, ok := g.Device(id)
	if !ok {
		return false
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	dev.X, dev.Y = x, y
	return true
}
