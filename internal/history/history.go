// Package history provides snapshot-based undo/redo over graph states.
//
// Two bounded stacks of deep-copied snapshots: undo grows on every
// checkpoint (discarding the oldest entry past capacity) and redo holds
// states undone since the last fresh mutation. Recording runs exclusively
// through the editor's single dispatch entry point so UI mutations and
// history bookkeeping cannot diverge.
package history

import "patchbay/internal/domain"

// DefaultCapacity bounds the undo stack when the config does not override
// it.
const DefaultCapacity = 100

// History holds the undo and redo stacks.
type History struct {
	undo     []*domain.GraphState
	redo     []*domain.GraphState
	capacity int
}

// New creates a history with the given undo capacity.
func New(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &History{capacity: capacity}
}

// Checkpoint records the pre-mutation state and clears the redo stack.
// Call it immediately before applying a mutation.
func (h *History) Checkpoint(pre *domain.GraphState) {
	h.CheckpointSnapshot(pre.Clone())
}

// CheckpointSnapshot is Checkpoint for callers that already hold a private
// deep copy; it takes ownership of pre without copying it again.
func (h *History) CheckpointSnapshot(pre *domain.GraphState) {
	h.undo = append(h.undo, pre)
	if len(h.undo) > h.capacity {
		h.undo = h.undo[1:]
	}
	h.redo = h.redo[:0]
}

// Undo pops the most recent checkpoint, pushes the current state onto the
// redo stack, and returns the restored state. Returns nil when there is
// nothing to undo.
func (h *History) Undo(current *domain.GraphState) *domain.GraphState {
	if len(h.undo) == 0 {
		return nil
	}
	last := len(h.undo) - 1
	restored := h.undo[last]
	h.undo = h.undo[:last]
	h.redo = append(h.redo, current.Clone())
	return restored
}

// Redo is the mirror of Undo.
func (h *History) Redo(current *domain.GraphState) *domain.GraphState {
	if len(h.redo) == 0 {
		return nil
	}
	last := len(h.redo) - 1
	restored := h.redo[last]
	h.redo = h.redo[:last]
	h.undo = append(h.undo, current.Clone())
	return restored
}

// CanUndo reports whether the undo stack is non-empty.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the current undo stack depth.
func (h *History) Depth() int { return len(h.undo) }
