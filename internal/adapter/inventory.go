package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode"

	"patchbay/internal/domain"
	"patchbay/internal/mutate"
)

// InventoryAdapter imports equipment records from an inventory service.
// Each record becomes one device request. Port enrichment is best-effort:
// if the port lookup for a record fails, that device is imported as a
// shell with zero ports and the remaining records continue.
type InventoryAdapter struct {
	baseURL string
	client  *http.Client
}

// NewInventoryAdapter creates an adapter for the inventory API rooted at
// baseURL. A nil client gets a default with a 30s timeout.
func NewInventoryAdapter(baseURL string, client *http.Client) *InventoryAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &InventoryAdapter{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Name returns the adapter identifier.
func (a *InventoryAdapter) Name() string {
	return "inventory"
}

// Type returns the adapter type.
func (a *InventoryAdapter) Type() Type {
	return TypeOneShot
}

// Start initializes the adapter.
func (a *InventoryAdapter) Start(ctx context.Context) error {
	return nil
}

// Stop shuts the adapter down.
func (a *InventoryAdapter) Stop() error {
	return nil
}

type inventoryRecord struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
}

type inventoryPort struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Sync pulls the full device listing and enriches each record with its
// ports.
func (a *InventoryAdapter) Sync(ctx context.Context) (*Fragment, error) {
	var records []inventoryRecord
	if err := a.getJSON(ctx, a.baseURL+"/devices", &records); err != nil {
		return nil, fmt.Errorf("failed to list inventory devices: %w", err)
	}

	frag := &Fragment{Source: "inventory"}
	for _, rec := range records {
		if strings.TrimSpace(rec.Type) == "" {
			continue
		}

		// Unnamed records keep the external record id as their name so
		// re-imports stay traceable to the inventory system.
		name := rec.Name
		if strings.TrimSpace(name) == "" {
			name = rec.ID
		}
		req := mutate.AddDeviceRequest{
			Type:         rec.Type,
			CustomName:   name,
			Manufacturer: rec.Manufacturer,
			Model:        rec.Model,
		}

		ports, err := a.fetchPorts(ctx, rec.ID)
		if err != nil {
			log.Printf("Inventory enrichment failed for %s, importing as shell: %v", rec.ID, err)
			ports = nil
		}
		for _, p := range ports {
			req.Ports = append(req.Ports, mutate.PortSpec{
				Name:      p.Name,
				Type:      p.Type,
				Direction: GuessDirection(p.Name, p.Description),
			})
		}

		frag.Devices = append(frag.Devices, FragmentDevice{Ref: rec.ID, Request: req})
	}

	return frag, nil
}

func (a *InventoryAdapter) fetchPorts(ctx context.Context, recordID string) ([]inventoryPort, error) {
	var ports []inventoryPort
	if err := a.getJSON(ctx, a.baseURL+"/devices/"+recordID+"/ports", &ports); err != nil {
		return nil, err
	}
	return ports, nil
}

func (a *InventoryAdapter) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("inventory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inventory service returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode inventory response: %w", err)
	}
	return nil
}

// GuessDirection infers a port direction from its name and description.
// A port whose tokens contain "in" but not "out" is an input; everything
// else defaults to output. Tokens are split on any non-alphanumeric rune
// so "SDI_IN_1" and "SDI IN 1" read the same.
func GuessDirection(name, description string) domain.Direction {
	hasIn, hasOut := false, false
	tokens := strings.FieldsFunc(name+" "+description, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		switch strings.ToLower(tok) {
		case "in", "input":
			hasIn = true
		case "out", "output":
			hasOut = true
		}
	}
	if hasIn && !hasOut {
		return domain.DirectionIn
	}
	return domain.DirectionOut
}
