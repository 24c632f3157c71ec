package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchbay/internal/domain"
)

func TestGenerationAdapter(t *testing.T) {
	t.Run("prompt round trip", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"devices": [
					{"id": "camera1", "role": "camera", "count": 2,
					 "ports": [{"id": "SDI Output 1", "family": "SDI", "direction": "Output"}]},
					{"id": "router1", "type": "router", "x": 300, "w": 160, "h": 100,
					 "ports": [{"name": "SDI_IN_1", "type": "SDI", "direction": "IN"}]}
				],
				"connections": [
					{"from": {"device": "camera1", "port": "SDI Output 1"},
					 "to": {"deviceId": "router1", "portId": "SDI_IN_1"}}
				]
			}`))
		}))
		defer srv.Close()

		ga := NewGenerationAdapter(srv.URL, srv.Client())
		frag, err := ga.Generate(context.Background(), "two cameras into a router")
		require.NoError(t, err)
		require.Len(t, frag.Devices, 2)

		cam := frag.Devices[0]
		assert.Equal(t, "camera1", cam.Ref, "source id is kept as the reference")
		assert.Equal(t, "camera", cam.Request.Type, "role is accepted as type")
		assert.Equal(t, 2, cam.Request.Count)
		assert.Equal(t, 120.0, cam.Request.W, "unset dims default to the standard box")
		assert.Equal(t, 64.0, cam.Request.H)
		require.Len(t, cam.Request.Ports, 1)
		assert.Equal(t, "SDI", cam.Request.Ports[0].Type, "family is accepted as port type")
		assert.Equal(t, "SDI Output 1", cam.Request.Ports[0].Name, "loose port id doubles as name")
		assert.Equal(t, domain.DirectionOut, cam.Request.Ports[0].Direction, `"Output" folds to OUT`)

		rtr := frag.Devices[1]
		assert.Equal(t, 160.0, rtr.Request.W, "explicit dims are kept")
		assert.Equal(t, 0.0, rtr.Request.Y, "unset numerics stay zero")

		require.Len(t, frag.Connections, 1, "declared connections survive the parse")
		assert.Equal(t, FragmentEnd{DeviceRef: "camera1", PortRef: "SDI Output 1"}, frag.Connections[0].From)
		assert.Equal(t, FragmentEnd{DeviceRef: "router1", PortRef: "SDI_IN_1"}, frag.Connections[0].To,
			"deviceId/portId spellings are accepted")
	})

	t.Run("devices without a type or role are dropped", func(t *testing.T) {
		frag, err := parseLoose(strings.NewReader(`{"devices": [{"x": 10}, {"type": "server"}]}`))
		require.NoError(t, err)
		require.Len(t, frag.Devices, 1)
		assert.Equal(t, "server", frag.Devices[0].Request.Type)
	})

	t.Run("connections missing an end reference are dropped", func(t *testing.T) {
		frag, err := parseLoose(strings.NewReader(`{
			"devices": [{"id": "d1", "type": "server"}],
			"connections": [
				{"from": {"device": "d1"}, "to": {"device": "d1", "port": "p"}},
				{"from": {"port": "p"}, "to": {"device": "d1", "port": "p"}}
			]
		}`))
		require.NoError(t, err)
		assert.Empty(t, frag.Connections)
	})

	t.Run("malformed response is an error", func(t *testing.T) {
		_, err := parseLoose(strings.NewReader(`{"devices": [`))
		assert.Error(t, err)
	})

	t.Run("service failure is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		ga := NewGenerationAdapter(srv.URL, srv.Client())
		_, err := ga.Generate(context.Background(), "anything")
		assert.Error(t, err)
	})
}

func TestGuessDirection(t *testing.T) {
	cases := []struct {
		name, desc string
		want       domain.Direction
	}{
		{"SDI IN 1", "", domain.DirectionIn},
		{"SDI_IN_1", "", domain.DirectionIn},
		{"Program Out", "", domain.DirectionOut},
		{"SDI 1", "camera input feed", domain.DirectionIn},
		{"Loop", "in and out", domain.DirectionOut},
		{"HDMI", "", domain.DirectionOut},
		{"Mix Minus", "return in, program out", domain.DirectionOut},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GuessDirection(tc.name, tc.desc))
		})
	}
}

func TestInventoryAdapter(t *testing.T) {
	t.Run("records become device requests with enriched ports", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /devices", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[
				{"id": "inv-1", "type": "camera", "name": "Cam A", "manufacturer": "Sony", "model": "HDC-3500"},
				{"id": "inv-2", "type": "router"}
			]`))
		})
		mux.HandleFunc("GET /devices/inv-1/ports", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"name": "SDI OUT 1", "type": "SDI"}]`))
		})
		mux.HandleFunc("GET /devices/inv-2/ports", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"name": "SDI IN 1", "type": "SDI"}, {"name": "SDI IN 2", "type": "SDI"}]`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		ia := NewInventoryAdapter(srv.URL, srv.Client())
		frag, err := ia.Sync(context.Background())
		require.NoError(t, err)
		require.Len(t, frag.Devices, 2)

		cam := frag.Devices[0]
		assert.Equal(t, "inv-1", cam.Ref, "the external record id is the fragment reference")
		assert.Equal(t, "camera", cam.Request.Type)
		assert.Equal(t, "Cam A", cam.Request.CustomName)
		assert.Equal(t, "Sony", cam.Request.Manufacturer)
		require.Len(t, cam.Request.Ports, 1)
		assert.Equal(t, domain.DirectionOut, cam.Request.Ports[0].Direction)

		rtr := frag.Devices[1]
		assert.Equal(t, "inv-2", rtr.Request.CustomName,
			"an unnamed record keeps its external id as the name")
		require.Len(t, rtr.Request.Ports, 2)
		assert.Equal(t, domain.DirectionIn, rtr.Request.Ports[0].Direction)
	})

	t.Run("port lookup failure degrades to a shell device", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /devices", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[
				{"id": "inv-1", "type": "camera"},
				{"id": "inv-2", "type": "router"}
			]`))
		})
		mux.HandleFunc("GET /devices/inv-1/ports", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "inventory offline", http.StatusBadGateway)
		})
		mux.HandleFunc("GET /devices/inv-2/ports", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"name": "SDI IN 1", "type": "SDI"}]`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		ia := NewInventoryAdapter(srv.URL, srv.Client())
		frag, err := ia.Sync(context.Background())
		require.NoError(t, err)
		require.Len(t, frag.Devices, 2, "one failed enrichment must not sink the batch")

		assert.Empty(t, frag.Devices[0].Request.Ports, "failed record imports as a shell")
		assert.Len(t, frag.Devices[1].Request.Ports, 1)
	})

	t.Run("listing failure is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		ia := NewInventoryAdapter(srv.URL, srv.Client())
		_, err := ia.Sync(context.Background())
		assert.Error(t, err)
	})
}

func TestRegistry(t *testing.T) {
	t.Run("duplicate registration is rejected", func(t *testing.T) {
		reg := NewRegistry(func(ctx context.Context, source string, f *Fragment) error { return nil })
		ia := NewInventoryAdapter("http://example.invalid", nil)

		require.NoError(t, reg.Register(ia, Config{Enabled: true}))
		assert.Error(t, reg.Register(ia, Config{Enabled: true}))
	})

	t.Run("trigger hands the fragment to apply", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /devices", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id": "inv-1", "type": "camera"}]`))
		})
		mux.HandleFunc("GET /devices/inv-1/ports", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		var got *Fragment
		reg := NewRegistry(func(ctx context.Context, source string, f *Fragment) error {
			got = f
			return nil
		})
		require.NoError(t, reg.Register(NewInventoryAdapter(srv.URL, srv.Client()), Config{Enabled: true}))

		require.NoError(t, reg.TriggerSync(context.Background(), "inventory"))
		require.NotNil(t, got)
		assert.Equal(t, "inventory", got.Source)
		assert.Len(t, got.Devices, 1)
	})

	t.Run("disabled and unknown adapters cannot be triggered", func(t *testing.T) {
		reg := NewRegistry(func(ctx context.Context, source string, f *Fragment) error { return nil })
		require.NoError(t, reg.Register(NewInventoryAdapter("http://example.invalid", nil), Config{Enabled: false}))

		assert.Error(t, reg.TriggerSync(context.Background(), "inventory"))
		assert.Error(t, reg.TriggerSync(context.Background(), "missing"))
	})
}
