// Package domain defines the core domain types for the Patchbay equipment
// topology editor.
//
// This package contains the entities and value objects that represent a
// diagram of broadcast equipment: devices with typed directional ports,
// and the connections between them.
//
// # Core Types
//
// Device represents a piece of equipment (camera, router, vision mixer, ...)
// with a position, a box size, optional catalog metadata, and an ordered
// list of ports.
//
// Port represents a signal connector on a device. Its ID is a stable
// surrogate independent of its display name, so renaming a port never
// breaks a connection reference.
//
// Connection represents a signal path from an OUT port on one device to an
// IN port on another.
//
// GraphState is the complete diagram: the devices and the connections among
// them. It is the unit of snapshotting for undo/redo, clipboard, and
// persistence.
//
// # Invariants
//
// GraphState.Validate checks the structural invariants every mutation must
// preserve: unique device ids, per-device unique port ids, resolvable
// connection endpoints with OUT→IN orientation, no duplicate connections,
// and no fan-out from an OUT port.
//
// # Design Principles
//
//   - Value semantics: snapshots are deep copies, never aliased
//   - No database or external dependencies
//   - Pure domain logic without infrastructure concerns
package domain
