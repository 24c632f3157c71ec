// Package mutate implements the mutation engine: every write to the graph
// goes through an Engine operation that preserves the domain invariants.
//
// Operations are total: routine invalid input (bad endpoints, fan-out
// violations, unknown ids) is absorbed as a no-op that leaves the graph
// untouched, because mutation attempts originate from pointer gestures
// where try-and-see is the expected interaction model. Operations report
// whether they applied so callers can skip history checkpoints for no-ops.
package mutate
