// Package codec serializes graph snapshots for persistence and file
// import/export.
//
// Every importer validates the decoded graph before handing it to the
// caller, so a malformed document surfaces as a load error and can never
// reach the editor as partially-typed data.
package codec

import (
	"io"

	"patchbay/internal/domain"
)

// Importer parses graph data from an external representation.
type Importer interface {
	Parse(r io.Reader) (*domain.GraphState, error)
	Format() string
}

// Exporter writes graph data to an external representation.
type Exporter interface {
	Export(g *domain.GraphState, w io.Writer) error
	Format() string
}
