package codec

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"patchbay/internal/domain"
)

// MsgpackCodec is the compact binary representation the persistence layer
// uses for autosave blobs. Not intended for hand editing.
type MsgpackCodec struct{}

// NewMsgpackCodec creates a new msgpack codec.
func NewMsgpackCodec() *MsgpackCodec {
	return &MsgpackCodec{}
}

// Format returns the codec format identifier.
func (c *MsgpackCodec) Format() string {
	return "msgpack"
}

// Parse decodes and validates a msgpack graph blob.
func (c *MsgpackCodec) Parse(r io.Reader) (*domain.GraphState, error) {
	var g domain.GraphState
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("failed to parse msgpack: %w", err)
	}

	normalize(&g)
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph blob: %w", err)
	}
	return &g, nil
}

// Export writes the graph as a msgpack blob.
func (c *MsgpackCodec) Export(g *domain.GraphState, w io.Writer) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("failed to encode msgpack: %w", err)
	}
	return nil
}
