package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchbay/internal/adapter"
	"patchbay/internal/domain"
	"patchbay/internal/editor"
	"patchbay/internal/history"
	"patchbay/internal/mutate"
	"patchbay/internal/repository/sqlite"
	"patchbay/internal/service"
)

func newTestServer(t *testing.T, gen *adapter.GenerationAdapter) (*httptest.Server, *service.DiagramService) {
	t.Helper()

	repo, err := sqlite.New(filepath.Join(t.TempDir(), "patchbay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ed := editor.New(mutate.NewEngine(mutate.DefaultPolicy(), mutate.DefaultSizing()), history.DefaultCapacity)
	svc := service.NewDiagramService(ed, repo, service.NewEventBus(), gen)

	mux := http.NewServeMux()
	NewDiagramHandler(svc, service.NewCatalogService()).Register(mux)

	srv := httptest.NewServer(Chain(mux, Recover, CORS))
	t.Cleanup(srv.Close)
	return srv, svc
}

func doJSON(t *testing.T, method, url string, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func addCamera(t *testing.T, srv *httptest.Server) domain.Device {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/devices",
		`{"type":"camera","x":40,"y":40,"ports":[{"type":"SDI","direction":"OUT"}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created []domain.Device
	require.NoError(t, json.Unmarshal(body, &created))
	require.Len(t, created, 1)
	return created[0]
}

func addRouter(t *testing.T, srv *httptest.Server) domain.Device {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/devices",
		`{"type":"router","x":300,"y":40,"ports":[{"type":"SDI","direction":"IN"}]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created []domain.Device
	require.NoError(t, json.Unmarshal(body, &created))
	return created[0]
}

func TestHealthAndCatalog(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/catalog", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []service.CatalogEntry
	require.NoError(t, json.Unmarshal(body, &entries))
	assert.Len(t, entries, 9)
}

func TestDeviceLifecycle(t *testing.T) {
	srv, svc := newTestServer(t, nil)

	cam := addCamera(t, srv)
	assert.Equal(t, "CAM.01", cam.ID)

	// Graph reflects the creation.
	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/graph", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var g domain.GraphState
	require.NoError(t, json.Unmarshal(body, &g))
	require.Len(t, g.Devices, 1)

	// Patch position and name.
	resp, body = doJSON(t, http.MethodPatch, srv.URL+"/api/devices/CAM.01",
		`{"x":120,"customName":"Main Cam"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var dev domain.Device
	require.NoError(t, json.Unmarshal(body, &dev))
	assert.Equal(t, 120.0, dev.X)
	assert.Equal(t, "Main Cam", dev.CustomName)

	resp, _ = doJSON(t, http.MethodPatch, srv.URL+"/api/devices/CAM.99", `{"x":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Delete.
	resp, body = doJSON(t, http.MethodDelete, srv.URL+"/api/devices", `{"ids":["CAM.01"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"deleted":1}`, string(body))
	assert.Empty(t, svc.Graph().Devices)
}

func TestCreateDeviceValidation(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/devices", `{"type":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/devices", `{"type":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClipboardEndpoints(t *testing.T) {
	srv, svc := newTestServer(t, nil)
	addCamera(t, srv)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/clipboard/copy", `{"ids":["CAM.01"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"copied":1}`, string(body))

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/clipboard/paste", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pasted []domain.Device
	require.NoError(t, json.Unmarshal(body, &pasted))
	require.Len(t, pasted, 1)
	assert.Equal(t, "CAM.02", pasted[0].ID)
	assert.Len(t, svc.Graph().Devices, 2)
}

func TestConnectionEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	cam := addCamera(t, srv)
	rtr := addRouter(t, srv)

	link := `{"from":{"deviceId":"` + rtr.ID + `","portId":"` + rtr.Ports[0].ID + `"},` +
		`"to":{"deviceId":"` + cam.ID + `","portId":"` + cam.Ports[0].ID + `"}}`

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/connections", link)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var conn domain.Connection
	require.NoError(t, json.Unmarshal(body, &conn))
	assert.Equal(t, "CAM.01", conn.From.DeviceID, "ends are oriented regardless of gesture order")

	// Duplicate is absorbed.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/connections", link)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/connections/"+conn.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/connections/"+conn.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUndoRedoEndpoints(t *testing.T) {
	srv, svc := newTestServer(t, nil)
	addCamera(t, srv)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/undo", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"applied":true}`, string(body))
	assert.Empty(t, svc.Graph().Devices)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/redo", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"applied":true}`, string(body))
	assert.Len(t, svc.Graph().Devices, 1)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/redo", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"applied":false}`, string(body))
}

func TestGenerateEndpoint(t *testing.T) {
	genSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"devices":[
			{"id":"cam1","role":"camera","ports":[{"id":"SDI Output 1","family":"SDI","direction":"Output"}]},
			{"id":"mon1","role":"monitors","ports":[{"id":"SDI Input 1","family":"SDI","direction":"Input"}]}
		],
		"connections":[
			{"from":{"device":"cam1","port":"SDI Output 1"},"to":{"device":"mon1","port":"SDI Input 1"}}
		]}`))
	}))
	defer genSrv.Close()

	srv, svc := newTestServer(t, adapter.NewGenerationAdapter(genSrv.URL, genSrv.Client()))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/generate", `{"prompt":"a camera feeding a monitor"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"devices":2,"connections":1}`, string(body))
	assert.Len(t, svc.Graph().Devices, 2)
	require.Len(t, svc.Graph().Connections, 1, "generated topologies arrive linked")
	assert.Equal(t, "CAM.01", svc.Graph().Connections[0].From.DeviceID)
	assert.Equal(t, "MON.01", svc.Graph().Connections[0].To.DeviceID)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/generate", `{"prompt":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateUnconfigured(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/generate", `{"prompt":"anything"}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestInventoryEndpoint(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /devices", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"inv-1","type":"server"}]`))
	})
	mux.HandleFunc("GET /devices/inv-1/ports", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	invSrv := httptest.NewServer(mux)
	defer invSrv.Close()

	srv, svc := newTestServer(t, nil)
	require.NoError(t, svc.Registry().Register(
		adapter.NewInventoryAdapter(invSrv.URL, invSrv.Client()),
		adapter.Config{Enabled: true},
	))

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/import/inventory", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.Len(t, svc.Graph().Devices, 1)
	assert.Equal(t, "SRV.01", svc.Graph().Devices[0].ID)
}

func TestImportExport(t *testing.T) {
	srv, svc := newTestServer(t, nil)
	addCamera(t, srv)

	resp, exported := doJSON(t, http.MethodGet, srv.URL+"/api/export/json", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "diagram.json")

	srv2, svc2 := newTestServer(t, nil)
	resp, _ = doJSON(t, http.MethodPost, srv2.URL+"/api/import/json", string(exported))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, svc.Graph(), svc2.Graph())

	resp, _ = doJSON(t, http.MethodPost, srv2.URL+"/api/import/json", `{"devices":[`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Len(t, svc2.Graph().Devices, 1, "failed import leaves the graph untouched")

	var yamlBuf bytes.Buffer
	require.NoError(t, svc.ExportYAML(&yamlBuf))
	resp, _ = doJSON(t, http.MethodPost, srv2.URL+"/api/import/yaml", yamlBuf.String())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/graph", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRecoverMiddleware(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	srv := httptest.NewServer(Chain(panicky, Recover))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
