// Package handler implements the HTTP layer of the diagram API: device
// and connection mutations, clipboard, undo/redo, generation and
// inventory triggers, and import/export.
package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"patchbay/internal/domain"
	"patchbay/internal/mutate"
	"patchbay/internal/service"
)

// DiagramHandler handles diagram API requests.
type DiagramHandler struct {
	svc     *service.DiagramService
	catalog *service.CatalogService
}

// NewDiagramHandler creates a new diagram handler.
func NewDiagramHandler(svc *service.DiagramService, catalog *service.CatalogService) *DiagramHandler {
	return &DiagramHandler{svc: svc, catalog: catalog}
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Register wires the API routes onto mux.
func (h *DiagramHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/catalog", h.GetCatalog)
	mux.HandleFunc("GET /api/graph", h.GetGraph)

	mux.HandleFunc("POST /api/devices", h.CreateDevices)
	mux.HandleFunc("PATCH /api/devices/{id}", h.UpdateDevice)
	mux.HandleFunc("DELETE /api/devices", h.DeleteDevices)

	mux.HandleFunc("POST /api/clipboard/copy", h.Copy)
	mux.HandleFunc("POST /api/clipboard/paste", h.Paste)

	mux.HandleFunc("POST /api/connections", h.CreateConnection)
	mux.HandleFunc("DELETE /api/connections/{id}", h.DeleteConnection)

	mux.HandleFunc("POST /api/undo", h.Undo)
	mux.HandleFunc("POST /api/redo", h.Redo)

	mux.HandleFunc("POST /api/generate", h.Generate)
	mux.HandleFunc("POST /api/import/inventory", h.ImportInventory)

	mux.HandleFunc("POST /api/import/json", h.ImportJSON)
	mux.HandleFunc("POST /api/import/yaml", h.ImportYAML)
	mux.HandleFunc("GET /api/export/json", h.ExportJSON)
	mux.HandleFunc("GET /api/export/yaml", h.ExportYAML)
}

// Health reports server liveness.
func (h *DiagramHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// GetCatalog returns the device type palette.
func (h *DiagramHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.catalog.List(), http.StatusOK)
}

// GetGraph returns the current graph snapshot.
func (h *DiagramHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Graph(), http.StatusOK)
}

type portSpecRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Direction string `json:"direction"`
}

func (p portSpecRequest) toSpec() mutate.PortSpec {
	return mutate.PortSpec{
		Name:      p.Name,
		Type:      p.Type,
		Direction: domain.Direction(strings.ToUpper(p.Direction)),
	}
}

type createDevicesRequest struct {
	Type         string            `json:"type"`
	Count        int               `json:"count"`
	X            float64           `json:"x"`
	Y            float64           `json:"y"`
	W            float64           `json:"w"`
	H            float64           `json:"h"`
	Color        string            `json:"color"`
	CustomName   string            `json:"customName"`
	Manufacturer string            `json:"manufacturer"`
	Model        string            `json:"model"`
	Ports        []portSpecRequest `json:"ports"`
}

// CreateDevices adds devices to the graph.
func (h *DiagramHandler) CreateDevices(w http.ResponseWriter, r *http.Request) {
	var req createDevicesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	add := mutate.AddDeviceRequest{
		Type:         req.Type,
		Count:        req.Count,
		X:            req.X,
		Y:            req.Y,
		W:            req.W,
		H:            req.H,
		Color:        req.Color,
		CustomName:   req.CustomName,
		Manufacturer: req.Manufacturer,
		Model:        req.Model,
	}
	for _, p := range req.Ports {
		add.Ports = append(add.Ports, p.toSpec())
	}

	created, err := h.svc.AddDevices(add)
	if err != nil {
		h.writeError(w, "Failed to create devices", err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, created, http.StatusCreated)
}

type updateDeviceRequest struct {
	X             *float64          `json:"x"`
	Y             *float64          `json:"y"`
	W             *float64          `json:"w"`
	H             *float64          `json:"h"`
	Color         *string           `json:"color"`
	CustomName    *string           `json:"customName"`
	Manufacturer  *string           `json:"manufacturer"`
	Model         *string           `json:"model"`
	AddPorts      []portSpecRequest `json:"addPorts"`
	RemovePortIDs []string          `json:"removePortIds"`
}

// UpdateDevice applies an edit to one device and returns its new state.
func (h *DiagramHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	upd := mutate.DeviceUpdate{
		X: req.X, Y: req.Y, W: req.W, H: req.H,
		Color:         req.Color,
		CustomName:    req.CustomName,
		Manufacturer:  req.Manufacturer,
		Model:         req.Model,
		RemovePortIDs: req.RemovePortIDs,
	}
	for _, p := range req.AddPorts {
		upd.AddPorts = append(upd.AddPorts, p.toSpec())
	}

	if err := h.svc.UpdateDevice(id, upd); err != nil {
		h.writeError(w, "Not found", err.Error(), http.StatusNotFound)
		return
	}

	dev, ok := h.svc.Graph().Device(id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, dev, http.StatusOK)
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

// DeleteDevices removes the selected devices.
func (h *DiagramHandler) DeleteDevices(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, map[string]int{"deleted": h.svc.DeleteDevices(req.IDs)}, http.StatusOK)
}

// Copy snapshots the selected devices onto the clipboard.
func (h *DiagramHandler) Copy(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, map[string]int{"copied": h.svc.Copy(req.IDs)}, http.StatusOK)
}

// Paste inserts the clipboard contents.
func (h *DiagramHandler) Paste(w http.ResponseWriter, r *http.Request) {
	pasted := h.svc.Paste()
	if pasted == nil {
		pasted = []domain.Device{}
	}
	h.writeJSON(w, pasted, http.StatusOK)
}

type createConnectionRequest struct {
	From domain.ConnectionEnd `json:"from"`
	To   domain.ConnectionEnd `json:"to"`
}

// CreateConnection links two ports. A rejected link returns 422: the
// core absorbed the attempt without changing anything.
func (h *DiagramHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var req createConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	conn, ok := h.svc.Connect(req.From, req.To)
	if !ok {
		h.writeError(w, "Connection rejected", "the link is invalid, duplicate, or violates the connection policy", http.StatusUnprocessableEntity)
		return
	}

	h.writeJSON(w, conn, http.StatusCreated)
}

// DeleteConnection removes one connection.
func (h *DiagramHandler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	if !h.svc.DeleteConnection(r.PathValue("id")) {
		h.writeError(w, "Not found", "no such connection", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Undo restores the previous checkpoint.
func (h *DiagramHandler) Undo(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]bool{"applied": h.svc.Undo()}, http.StatusOK)
}

// Redo restores the most recently undone state.
func (h *DiagramHandler) Redo(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]bool{"applied": h.svc.Redo()}, http.StatusOK)
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// Generate asks the generation service for devices matching the prompt.
func (h *DiagramHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		h.writeError(w, "Prompt required", "provide a description of the setup to generate", http.StatusBadRequest)
		return
	}

	frag, err := h.svc.Generate(r.Context(), req.Prompt)
	if err != nil {
		log.Printf("Generation failed: %v", err)
		h.writeError(w, "Generation failed", err.Error(), http.StatusBadGateway)
		return
	}

	h.writeJSON(w, map[string]int{
		"devices":     len(frag.Devices),
		"connections": len(frag.Connections),
	}, http.StatusOK)
}

// ImportInventory triggers a one-shot inventory sync.
func (h *DiagramHandler) ImportInventory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ImportInventory(r.Context()); err != nil {
		log.Printf("Inventory import failed: %v", err)
		h.writeError(w, "Inventory import failed", err.Error(), http.StatusBadGateway)
		return
	}
	h.writeJSON(w, map[string]string{"status": "imported"}, http.StatusOK)
}

// ImportJSON replaces the graph with the posted JSON document.
func (h *DiagramHandler) ImportJSON(w http.ResponseWriter, r *http.Request) {
	h.importWith(w, r, h.svc.ImportJSON)
}

// ImportYAML replaces the graph with the posted YAML document.
func (h *DiagramHandler) ImportYAML(w http.ResponseWriter, r *http.Request) {
	h.importWith(w, r, h.svc.ImportYAML)
}

func (h *DiagramHandler) importWith(w http.ResponseWriter, r *http.Request, load func([]byte) error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
		return
	}

	if err := load(data); err != nil {
		h.writeError(w, "Import failed", err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, map[string]string{"status": "loaded"}, http.StatusOK)
}

// ExportJSON downloads the graph as JSON.
func (h *DiagramHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=diagram.json")
	if err := h.svc.ExportJSON(w); err != nil {
		log.Printf("Failed to export JSON: %v", err)
	}
}

// ExportYAML downloads the graph as YAML.
func (h *DiagramHandler) ExportYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", "attachment; filename=diagram.yml")
	if err := h.svc.ExportYAML(w); err != nil {
		log.Printf("Failed to export YAML: %v", err)
	}
}

func (h *DiagramHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *DiagramHandler) writeError(w http.ResponseWriter, msg, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Details: details}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
