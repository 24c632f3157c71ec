package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"patchbay/internal/domain"
	"patchbay/internal/mutate"
)

// Default box size for generated devices that arrive without dimensions.
const (
	generatedDefaultW = 120
	generatedDefaultH = 64
)

// GenerationAdapter turns a natural-language prompt into a device
// fragment by calling an external generation service. The service's
// response is loosely typed; parseLoose applies defaults and produces a
// strictly typed fragment before anything reaches the core.
type GenerationAdapter struct {
	endpoint string
	client   *http.Client
}

// NewGenerationAdapter creates an adapter targeting the given endpoint.
// A nil client gets a default with a 30s timeout.
func NewGenerationAdapter(endpoint string, client *http.Client) *GenerationAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GenerationAdapter{endpoint: endpoint, client: client}
}

// Name returns the adapter identifier.
func (g *GenerationAdapter) Name() string {
	return "generation"
}

// Generate sends the prompt to the generation service and parses the
// response into a fragment.
func (g *GenerationAdapter) Generate(ctx context.Context, prompt string) (*Fragment, error) {
	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prompt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation service returned %s", resp.Status)
	}

	return parseLoose(resp.Body)
}

// looseDocument is the wire shape the generation service replies with.
// Nearly every field is optional.
type looseDocument struct {
	Devices     []looseDevice     `json:"devices"`
	Connections []looseConnection `json:"connections"`
}

type looseDevice struct {
	ID         string      `json:"id"`
	Role       string      `json:"role"`
	Type       string      `json:"type"`
	Count      int         `json:"count"`
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	W          float64     `json:"w"`
	H          float64     `json:"h"`
	Color      string      `json:"color"`
	CustomName string      `json:"customName"`
	Ports      []loosePort `json:"ports"`
}

type loosePort struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Family    string `json:"family"`
	Type      string `json:"type"`
	Direction string `json:"direction"`
}

type looseConnection struct {
	From looseEnd `json:"from"`
	To   looseEnd `json:"to"`
}

// looseEnd accepts both the device/port and deviceId/portId spellings.
type looseEnd struct {
	Device   string `json:"device"`
	DeviceID string `json:"deviceId"`
	Port     string `json:"port"`
	PortID   string `json:"portId"`
}

func (e looseEnd) toFragmentEnd() FragmentEnd {
	dev := e.Device
	if dev == "" {
		dev = e.DeviceID
	}
	port := e.Port
	if port == "" {
		port = e.PortID
	}
	return FragmentEnd{DeviceRef: dev, PortRef: port}
}

// looseDirection folds the spellings generation services use ("out",
// "Output", "IN") onto the two domain directions. Anything else passes
// through upper-cased and is caught by validation downstream.
func looseDirection(s string) domain.Direction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OUT", "OUTPUT":
		return domain.DirectionOut
	case "IN", "INPUT":
		return domain.DirectionIn
	default:
		return domain.Direction(strings.ToUpper(s))
	}
}

// parseLoose converts the loose response into a typed fragment. Unset
// numerics stay 0, unset dimensions fall back to the default box, unset
// ports stay empty, and "role" is accepted as a synonym for "type".
// Device ids and port ids from the response are kept only as references
// for the fragment's connections; the engine allocates the real ids.
func parseLoose(r io.Reader) (*Fragment, error) {
	var doc looseDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse generation response: %w", err)
	}

	frag := &Fragment{Source: "generation"}
	for _, ld := range doc.Devices {
		devType := strings.TrimSpace(ld.Type)
		if devType == "" {
			devType = strings.TrimSpace(ld.Role)
		}
		if devType == "" {
			continue
		}

		req := mutate.AddDeviceRequest{
			Type:       devType,
			Count:      ld.Count,
			X:          ld.X,
			Y:          ld.Y,
			W:          ld.W,
			H:          ld.H,
			Color:      ld.Color,
			CustomName: ld.CustomName,
		}
		if req.W <= 0 || req.H <= 0 {
			req.W, req.H = generatedDefaultW, generatedDefaultH
		}

		for _, lp := range ld.Ports {
			portType := lp.Type
			if portType == "" {
				portType = lp.Family
			}
			name := lp.Name
			if name == "" {
				name = lp.ID
			}
			req.Ports = append(req.Ports, mutate.PortSpec{
				Name:      name,
				Type:      portType,
				Direction: looseDirection(lp.Direction),
			})
		}

		frag.Devices = append(frag.Devices, FragmentDevice{
			Ref:     strings.TrimSpace(ld.ID),
			Request: req,
		})
	}

	for _, lc := range doc.Connections {
		from, to := lc.From.toFragmentEnd(), lc.To.toFragmentEnd()
		if from.DeviceRef == "" || from.PortRef == "" || to.DeviceRef == "" || to.PortRef == "" {
			continue
		}
		frag.Connections = append(frag.Connections, FragmentConnection{From: from, To: to})
	}

	return frag, nil
}
