package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"patchbay/internal/domain"
)

// YAMLCodec handles human-editable YAML import/export of graph documents.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier.
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlGraph mirrors the wire shape with explicit YAML field names.
type yamlGraph struct {
	Devices     []yamlDevice     `yaml:"devices"`
	Connections []yamlConnection `yaml:"connections"`
}

type yamlDevice struct {
	ID           string     `yaml:"id"`
	Type         string     `yaml:"type"`
	X            float64    `yaml:"x"`
	Y            float64    `yaml:"y"`
	W            float64    `yaml:"w"`
	H            float64    `yaml:"h"`
	Color        string     `yaml:"color,omitempty"`
	CustomName   string     `yaml:"custom_name,omitempty"`
	Manufacturer string     `yaml:"manufacturer,omitempty"`
	Model        string     `yaml:"model,omitempty"`
	Ports        []yamlPort `yaml:"ports"`
}

type yamlPort struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Direction string `yaml:"direction"`
}

type yamlConnection struct {
	ID   string  `yaml:"id"`
	From yamlEnd `yaml:"from"`
	To   yamlEnd `yaml:"to"`
}

type yamlEnd struct {
	DeviceID string `yaml:"device_id"`
	PortID   string `yaml:"port_id"`
}

// Parse decodes and validates a YAML graph document.
func (c *YAMLCodec) Parse(r io.Reader) (*domain.GraphState, error) {
	var yg yamlGraph
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	g := domain.NewGraphState()
	for _, yd := range yg.Devices {
		dev := domain.Device{
			ID:           yd.ID,
			Type:         yd.Type,
			X:            yd.X,
			Y:            yd.Y,
			W:            yd.W,
			H:            yd.H,
			Color:        yd.Color,
			CustomName:   yd.CustomName,
			Manufacturer: yd.Manufacturer,
			Model:        yd.Model,
			Ports:        make([]domain.Port, 0, len(yd.Ports)),
		}
		for _, yp := range yd.Ports {
			dev.Ports = append(dev.Ports, domain.Port{
				ID:        yp.ID,
				Name:      yp.Name,
				Type:      yp.Type,
				Direction: domain.Direction(yp.Direction),
			})
		}
		g.Devices = append(g.Devices, dev)
	}
	for _, yc := range yg.Connections {
		g.Connections = append(g.Connections, domain.Connection{
			ID:   yc.ID,
			From: domain.ConnectionEnd{DeviceID: yc.From.DeviceID, PortID: yc.From.PortID},
			To:   domain.ConnectionEnd{DeviceID: yc.To.DeviceID, PortID: yc.To.PortID},
		})
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph document: %w", err)
	}
	return g, nil
}

// Export writes the graph as YAML.
func (c *YAMLCodec) Export(g *domain.GraphState, w io.Writer) error {
	yg := yamlGraph{
		Devices:     make([]yamlDevice, 0, len(g.Devices)),
		Connections: make([]yamlConnection, 0, len(g.Connections)),
	}

	for _, dev := range g.Devices {
		yd := yamlDevice{
			ID:           dev.ID,
			Type:         dev.Type,
			X:            dev.X,
			Y:            dev.Y,
			W:            dev.W,
			H:            dev.H,
			Color:        dev.Color,
			CustomName:   dev.CustomName,
			Manufacturer: dev.Manufacturer,
			Model:        dev.Model,
			Ports:        make([]yamlPort, 0, len(dev.Ports)),
		}
		for _, p := range dev.Ports {
			yd.Ports = append(yd.Ports, yamlPort{
				ID:        p.ID,
				Name:      p.Name,
				Type:      p.Type,
				Direction: string(p.Direction),
			})
		}
		yg.Devices = append(yg.Devices, yd)
	}
	for _, conn := range g.Connections {
		yg.Connections = append(yg.Connections, yamlConnection{
			ID:   conn.ID,
			From: yamlEnd{DeviceID: conn.From.DeviceID, PortID: conn.From.PortID},
			To:   yamlEnd{DeviceID: conn.To.DeviceID, PortID: conn.To.PortID},
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yg); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}
