// Package editor owns the canonical graph state. It is the only writer:
// every mutation flows through a single dispatch path that takes a
// pre-mutation snapshot for the undo history, applies the engine
// operation, and reports whether anything changed. Consumers read through
// deep-copied snapshots and can never alias the live state.
package editor

import (
	"fmt"
	"sync"

	"patchbay/internal/domain"
	"patchbay/internal/history"
	"patchbay/internal/mutate"
)

// Editor wraps a GraphState with the mutation engine and undo history.
//
// The core interaction model is single-threaded, but the state is also
// reachable from HTTP handlers and adapter callbacks, so the editor
// serializes access with a mutex. All mutation paths still run through
// dispatch.
type Editor struct {
	mu       sync.Mutex
	state    *domain.GraphState
	hist     *history.History
	engine   *mutate.Engine
	histSize int
}

// New creates an editor over an empty graph.
func New(engine *mutate.Engine, histCapacity int) *Editor {
	return &Editor{
		state:    domain.NewGraphState(),
		hist:     history.New(histCapacity),
		engine:   engine,
		histSize: histCapacity,
	}
}

// Engine exposes the mutation engine's read-side helpers (sizing).
func (e *Editor) Engine() *mutate.Engine { return e.engine }

// Snapshot returns a deep copy of the current graph.
func (e *Editor) Snapshot() *domain.GraphState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Load replaces the graph with a validated snapshot and drops the
// history. A snapshot that fails validation leaves the current state
// untouched.
func (e *Editor) Load(snapshot *domain.GraphState) error {
	if snapshot == nil {
		return fmt.Errorf("nil snapshot")
	}
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = snapshot.Clone()
	e.hist = history.New(e.histSize)
	return nil
}

// dispatch is the single mutation entry point: it snapshots the
// pre-mutation state, applies op, and checkpoints only when the operation
// actually changed something. Rejected operations leave both the state
// and the history untouched.
func (e *Editor) dispatch(op func(*domain.GraphState) bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	pre := e.state.Clone()
	if !op(e.state) {
		return false
	}
	e.hist.CheckpointSnapshot(pre)
	return true
}

// AddDevice creates devices via the engine; see mutate.AddDeviceRequest.
func (e *Editor) AddDevice(req mutate.AddDeviceRequest) []domain.Device {
	var created []domain.Device
	e.dispatch(func(g *domain.GraphState) bool {
		created = e.engine.AddDevice(g, req)
		return len(created) > 0
	})
	return created
}

// DeleteDevices removes devices and their touching connections.
func (e *Editor) DeleteDevices(ids []string) int {
	removed := 0
	e.dispatch(func(g *domain.GraphState) bool {
		removed = e.engine.DeleteDevices(g, ids)
		return removed > 0
	})
	return removed
}

// CopyDevices returns a clipboard snapshot; it never mutates the graph
// and therefore never touches the history.
func (e *Editor) CopyDevices(ids []string) []domain.Device {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.CopyDevices(e.state, ids)
}

// PasteDevices inserts clipboard devices with fresh ids.
func (e *Editor) PasteDevices(clipboard []domain.Device, offsetX, offsetY float64) []domain.Device {
	var pasted []domain.Device
	e.dispatch(func(g *domain.GraphState) bool {
		pasted = e.engine.PasteDevices(g, clipboard, offsetX, offsetY)
		return len(pasted) > 0
	})
	return pasted
}

// Connect adds a connection between two ports, in either gesture order.
func (e *Editor) Connect(a, b domain.ConnectionEnd) (domain.Connection, bool) {
	var conn domain.Connection
	ok := e.dispatch(func(g *domain.GraphState) bool {
		var applied bool
		conn, applied = e.engine.AddConnection(g, a, b)
		return applied
	})
	return conn, ok
}

// DeleteConnection removes a single connection.
func (e *Editor) DeleteConnection(id string) bool {
	return e.dispatch(func(g *domain.GraphState) bool {
		return e.engine.DeleteConnection(g, id)
	})
}

// UpdateDevice applies a UI-driven device edit.
func (e *Editor) UpdateDevice(id string, upd mutate.DeviceUpdate) bool {
	return e.dispatch(func(g *domain.GraphState) bool {
		return e.engine.UpdateDevice(g, id, upd)
	})
}

// MoveDeviceTransient sets a device position without recording history.
// Drag gestures call it on every pointer move; the gesture commits a
// single checkpoint on release via CommitCheckpoint.
func (e *Editor) MoveDeviceTransient(id string, x, y float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engine.MoveDevice(e.state, id, x, y)
}

// CommitCheckpoint records pre (a snapshot taken before a transient
// sequence began) as the undo point for that sequence.
func (e *Editor) CommitCheckpoint(pre *domain.GraphState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hist.CheckpointSnapshot(pre.Clone())
}

// Undo restores the most recent checkpoint. Returns false when there is
// nothing to undo.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	restored := e.hist.Undo(e.state)
	if restored == nil {
		return false
	}
	e.state = restored
	return true
}

// Redo restores the most recently undone state.
func (e *Editor) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	restored := e.hist.Redo(e.state)
	if restored == nil {
		return false
	}
	e.state = restored
	return true
}

// CanUndo reports whether an undo checkpoint exists.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.CanUndo()
}

// CanRedo reports whether a redo entry exists.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.CanRedo()
}
