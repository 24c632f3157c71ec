package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"patchbay/internal/adapter"
	"patchbay/internal/codec"
	"patchbay/internal/domain"
	"patchbay/internal/editor"
	"patchbay/internal/mutate"
	"patchbay/internal/repository/sqlite"
)

// Paste offset applied per clipboard slot so repeated pastes fan out.
const pasteOffsetX, pasteOffsetY = 24, 24

// Stagger applied to adapter fragment devices that arrive without a
// position.
const fragmentStepX, fragmentStepY = 200, 40

// DiagramService provides the diagram operations the HTTP surface and
// the adapters drive. It owns the clipboard and the adapter registry.
type DiagramService struct {
	ed       *editor.Editor
	repo     *sqlite.Repository
	eventBus *EventBus
	gen      *adapter.GenerationAdapter
	registry *adapter.Registry

	mu        sync.Mutex
	clipboard []domain.Device
}

// NewDiagramService creates a diagram service. The generation adapter
// may be nil when no generation endpoint is configured.
func NewDiagramService(ed *editor.Editor, repo *sqlite.Repository, eventBus *EventBus, gen *adapter.GenerationAdapter) *DiagramService {
	s := &DiagramService{
		ed:       ed,
		repo:     repo,
		eventBus: eventBus,
		gen:      gen,
	}
	s.registry = adapter.NewRegistry(s.applyFragment)
	return s
}

// Registry exposes the adapter registry for registration and lifecycle.
func (s *DiagramService) Registry() *adapter.Registry {
	return s.registry
}

// Graph returns a snapshot of the current graph.
func (s *DiagramService) Graph() *domain.GraphState {
	return s.ed.Snapshot()
}

// AddDevices creates devices from the request.
func (s *DiagramService) AddDevices(req mutate.AddDeviceRequest) ([]domain.Device, error) {
	created := s.ed.AddDevice(req)
	if len(created) == 0 {
		return nil, fmt.Errorf("device type is required")
	}

	s.eventBus.Publish(Event{
		Type:    EventDevicesAdded,
		Payload: map[string]interface{}{"count": len(created), "type": req.Type},
	})
	return created, nil
}

// UpdateDevice applies an edit to one device.
func (s *DiagramService) UpdateDevice(id string, upd mutate.DeviceUpdate) error {
	if !s.ed.UpdateDevice(id, upd) {
		return fmt.Errorf("device %s not found", id)
	}

	s.eventBus.Publish(Event{
		Type:    EventDeviceUpdated,
		Payload: map[string]string{"device_id": id},
	})
	return nil
}

// DeleteDevices removes the selected devices and returns how many went.
func (s *DiagramService) DeleteDevices(ids []string) int {
	removed := s.ed.DeleteDevices(ids)
	if removed > 0 {
		s.eventBus.Publish(Event{
			Type:    EventDevicesDeleted,
			Payload: map[string]int{"count": removed},
		})
	}
	return removed
}

// Copy snapshots the selected devices onto the service clipboard and
// returns how many were captured. Copying does not mutate the graph.
func (s *DiagramService) Copy(ids []string) int {
	copied := s.ed.CopyDevices(ids)

	s.mu.Lock()
	s.clipboard = copied
	s.mu.Unlock()

	return len(copied)
}

// Paste inserts the clipboard contents with fresh ids and a fan-out
// offset. An empty clipboard pastes nothing.
func (s *DiagramService) Paste() []domain.Device {
	s.mu.Lock()
	clipboard := s.clipboard
	s.mu.Unlock()

	pasted := s.ed.PasteDevices(clipboard, pasteOffsetX, pasteOffsetY)
	if len(pasted) > 0 {
		s.eventBus.Publish(Event{
			Type:    EventDevicesPasted,
			Payload: map[string]int{"count": len(pasted)},
		})
	}
	return pasted
}

// Connect links two ports. The ends may arrive in either order. A
// rejected link (bad ends, duplicate, policy violation) reports ok=false
// with no error: the attempt is absorbed, not failed.
func (s *DiagramService) Connect(a, b domain.ConnectionEnd) (domain.Connection, bool) {
	conn, ok := s.ed.Connect(a, b)
	if ok {
		s.eventBus.Publish(Event{
			Type:    EventConnectionAdded,
			Payload: map[string]string{"connection_id": conn.ID},
		})
	}
	return conn, ok
}

// DeleteConnection removes one connection.
func (s *DiagramService) DeleteConnection(id string) bool {
	if !s.ed.DeleteConnection(id) {
		return false
	}

	s.eventBus.Publish(Event{
		Type:    EventConnectionDeleted,
		Payload: map[string]string{"connection_id": id},
	})
	return true
}

// Undo restores the previous checkpoint.
func (s *DiagramService) Undo() bool {
	if !s.ed.Undo() {
		return false
	}
	s.eventBus.Publish(Event{Type: EventHistoryChanged, Payload: map[string]string{"action": "undo"}})
	return true
}

// Redo restores the most recently undone state.
func (s *DiagramService) Redo() bool {
	if !s.ed.Redo() {
		return false
	}
	s.eventBus.Publish(Event{Type: EventHistoryChanged, Payload: map[string]string{"action": "redo"}})
	return true
}

// Generate asks the generation service for a device fragment and applies
// it to the graph.
func (s *DiagramService) Generate(ctx context.Context, prompt string) (*adapter.Fragment, error) {
	if s.gen == nil {
		return nil, fmt.Errorf("generation adapter not configured")
	}

	frag, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if err := s.applyFragment(ctx, s.gen.Name(), frag); err != nil {
		return nil, err
	}
	return frag, nil
}

// ImportInventory triggers a one-shot sync of the inventory adapter.
func (s *DiagramService) ImportInventory(ctx context.Context) error {
	return s.registry.TriggerSync(ctx, "inventory")
}

// applyFragment places adapter devices onto the graph and then links the
// fragment's connections. Devices without a position are staggered so a
// batch import does not stack. Connections name their ends by source
// reference; each resolved pair still goes through the engine, so an
// adapter cannot link what a user gesture could not.
func (s *DiagramService) applyFragment(ctx context.Context, source string, frag *adapter.Fragment) error {
	if frag.Empty() {
		return nil
	}

	placed := 0
	byRef := make(map[string]domain.Device, len(frag.Devices))
	for i, fd := range frag.Devices {
		req := fd.Request
		if req.X == 0 && req.Y == 0 {
			req.X = 40 + float64(i%4)*fragmentStepX
			req.Y = 40 + float64(i/4)*(fragmentStepY+100)
		}
		created := s.ed.AddDevice(req)
		placed += len(created)
		if fd.Ref != "" && len(created) > 0 {
			byRef[fd.Ref] = created[0]
		}
	}

	linked := 0
	for _, fc := range frag.Connections {
		from, okFrom := resolveFragmentEnd(byRef, fc.From)
		to, okTo := resolveFragmentEnd(byRef, fc.To)
		if !okFrom || !okTo {
			continue
		}
		if _, ok := s.ed.Connect(from, to); ok {
			linked++
		}
	}

	s.eventBus.Publish(Event{
		Type:    EventGraphUpdated,
		Payload: map[string]interface{}{"source": source, "devices": placed, "connections": linked},
	})
	return nil
}

// resolveFragmentEnd maps a source-referenced end onto the ids the engine
// allocated for it. Port references match the port name, which is where
// parseLoose stores a loose port id.
func resolveFragmentEnd(byRef map[string]domain.Device, end adapter.FragmentEnd) (domain.ConnectionEnd, bool) {
	dev, ok := byRef[end.DeviceRef]
	if !ok {
		return domain.ConnectionEnd{}, false
	}
	for _, p := range dev.Ports {
		if p.Name == end.PortRef {
			return domain.ConnectionEnd{DeviceID: dev.ID, PortID: p.ID}, true
		}
	}
	return domain.ConnectionEnd{}, false
}

// ImportJSON replaces the graph with a parsed JSON document.
func (s *DiagramService) ImportJSON(data []byte) error {
	return s.importWith(codec.NewJSONCodec(), data)
}

// ImportYAML replaces the graph with a parsed YAML document.
func (s *DiagramService) ImportYAML(data []byte) error {
	return s.importWith(codec.NewYAMLCodec(), data)
}

func (s *DiagramService) importWith(imp codec.Importer, data []byte) error {
	g, err := imp.Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if err := s.ed.Load(g); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventGraphLoaded,
		Payload: map[string]string{"format": imp.Format()},
	})
	return nil
}

// ExportJSON writes the current graph as JSON.
func (s *DiagramService) ExportJSON(w io.Writer) error {
	return codec.NewJSONCodec().Export(s.ed.Snapshot(), w)
}

// ExportYAML writes the current graph as YAML.
func (s *DiagramService) ExportYAML(w io.Writer) error {
	return codec.NewYAMLCodec().Export(s.ed.Snapshot(), w)
}

// Persist saves the current graph snapshot to the repository.
func (s *DiagramService) Persist(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	return s.repo.SaveGraph(ctx, s.ed.Snapshot())
}

// Restore loads the stored snapshot into the editor. An empty database
// leaves the editor on an empty graph.
func (s *DiagramService) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	g, err := s.repo.LoadGraph(ctx)
	if err != nil {
		return err
	}
	if err := s.ed.Load(g); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventGraphLoaded,
		Payload: map[string]string{"format": "sqlite"},
	})
	return nil
}
