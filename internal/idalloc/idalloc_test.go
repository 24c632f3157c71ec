package idalloc

import (
	"testing"

	"patchbay/internal/domain"
)

func TestPrefix(t *testing.T) {
	cases := map[string]string{
		"camera":              "CAM",
		"Camera":              "CAM",
		"  vision mixer ":     "VMX",
		"camera control unit": "CCU",
		"replay system":       "RPL",
		"toaster":             "DEV",
		"":                    "DEV",
	}
	for in, want := range cases {
		if got := Prefix(in); got != want {
			t.Errorf("Prefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNextDeviceID(t *testing.T) {
	t.Run("empty graph starts at 01", func(t *testing.T) {
		g := domain.NewGraphState()
		if got := NextDeviceID(g, "camera"); got != "CAM.01" {
			t.Errorf("got %s, want CAM.01", got)
		}
	})

	t.Run("scan-max-then-increment", func(t *testing.T) {
		g := &domain.GraphState{Devices: []domain.Device{
			{ID: "CAM.01", Type: "camera"},
			{ID: "CAM.07", Type: "camera"},
			{ID: "RTR.02", Type: "router"},
		}}
		if got := NextDeviceID(g, "camera"); got != "CAM.08" {
			t.Errorf("got %s, want CAM.08", got)
		}
		if got := NextDeviceID(g, "router"); got != "RTR.03" {
			t.Errorf("got %s, want RTR.03", got)
		}
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		g := &domain.GraphState{Devices: []domain.Device{{ID: "cam.04", Type: "camera"}}}
		if got := NextDeviceID(g, "camera"); got != "CAM.05" {
			t.Errorf("got %s, want CAM.05", got)
		}
	})

	t.Run("foreign ids are ignored", func(t *testing.T) {
		g := &domain.GraphState{Devices: []domain.Device{
			{ID: "CAM.xx", Type: "camera"},
			{ID: "CAMERA-9", Type: "camera"},
			{ID: "imported-device", Type: "camera"},
		}}
		if got := NextDeviceID(g, "camera"); got != "CAM.01" {
			t.Errorf("got %s, want CAM.01", got)
		}
	})

	t.Run("deleted numbers may be reused", func(t *testing.T) {
		g := &domain.GraphState{Devices: []domain.Device{{ID: "CAM.02", Type: "camera"}}}
		// CAM.01 was deleted; next is still max+1.
		if got := NextDeviceID(g, "camera"); got != "CAM.03" {
			t.Errorf("got %s, want CAM.03", got)
		}
	})
}

func TestNextConnectionID(t *testing.T) {
	g := domain.NewGraphState()
	if got := NextConnectionID(g); got != "CONN-0001" {
		t.Errorf("got %s, want CONN-0001", got)
	}

	g.Connections = []domain.Connection{{ID: "CONN-0041"}, {ID: "CONN-0003"}, {ID: "weird"}}
	if got := NextConnectionID(g); got != "CONN-0042" {
		t.Errorf("got %s, want CONN-0042", got)
	}
}

func TestNewPortID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewPortID()
		if id == "" {
			t.Fatal("expected non-empty port id")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate port id %s", id)
		}
		seen[id] = struct{}{}
	}
}
