// Package service orchestrates the diagram core: it fronts the editor
// for HTTP handlers, publishes change events, applies adapter fragments,
// and moves snapshots between the editor and the persistence layer.
package service
