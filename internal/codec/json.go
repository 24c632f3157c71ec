package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"patchbay/internal/domain"
)

// JSONCodec reads and writes the persisted GraphState wire shape. This is
// the load/save contract with the persistence adapter and the file
// import/export surface.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier.
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse decodes and validates a graph document.
func (c *JSONCodec) Parse(r io.Reader) (*domain.GraphState, error) {
	var g domain.GraphState
	dec := json.NewDecoder(r)
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	normalize(&g)
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph document: %w", err)
	}
	return &g, nil
}

// Export writes the graph as indented JSON.
func (c *JSONCodec) Export(g *domain.GraphState, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// normalize fills collections a sparse document may omit.
func normalize(g *domain.GraphState) {
	if g.Devices == nil {
		g.Devices = make([]domain.Device, 0)
	}
	if g.Connections == nil {
		g.Connections = make([]domain.Connection, 0)
	}
	for i := range g.Devices {
		if g.Devices[i].Ports == nil {
			g.Devices[i].Ports = make([]domain.Port, 0)
		}
	}
}
