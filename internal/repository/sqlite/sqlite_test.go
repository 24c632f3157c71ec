package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchbay/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "patchbay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testGraph() *domain.GraphState {
	return &domain.GraphState{
		Devices: []domain.Device{
			{
				ID: "CAM.01", Type: "camera", X: 40, Y: 40, W: 120, H: 64,
				Color: "#4caf50", Manufacturer: "Sony",
				Ports: []domain.Port{
					{ID: "p-out", Name: "SDI_OUT_1", Type: "SDI", Direction: domain.DirectionOut},
				},
			},
			{
				ID: "RTR.01", Type: "router", X: 300, Y: 40, W: 160, H: 100,
				Ports: []domain.Port{
					{ID: "p-in", Name: "SDI_IN_1", Type: "SDI", Direction: domain.DirectionIn},
				},
			},
		},
		Connections: []domain.Connection{
			{
				ID:   "CONN-0001",
				From: domain.ConnectionEnd{DeviceID: "CAM.01", PortID: "p-out"},
				To:   domain.ConnectionEnd{DeviceID: "RTR.01", PortID: "p-in"},
			},
		},
	}
}

func TestSaveAndLoadGraph(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveGraph(ctx, testGraph()))

	got, err := repo.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Equal(t, testGraph(), got)
}

func TestLoadEmptyDatabase(t *testing.T) {
	repo := openTestRepo(t)

	got, err := repo.LoadGraph(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Devices)
	assert.Empty(t, got.Connections)
}

func TestSaveReplacesSnapshot(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveGraph(ctx, testGraph()))

	smaller := &domain.GraphState{
		Devices: []domain.Device{
			{ID: "SRV.01", Type: "server", X: 0, Y: 0, W: 120, H: 64, Ports: []domain.Port{}},
		},
		Connections: []domain.Connection{},
	}
	require.NoError(t, repo.SaveGraph(ctx, smaller))

	got, err := repo.LoadGraph(ctx)
	require.NoError(t, err)
	require.Len(t, got.Devices, 1)
	assert.Equal(t, "SRV.01", got.Devices[0].ID)
	assert.Empty(t, got.Connections)
}

func TestLastSaved(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	ts, err := repo.LastSaved(ctx)
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	require.NoError(t, repo.SaveGraph(ctx, testGraph()))

	ts, err = repo.LastSaved(ctx)
	require.NoError(t, err)
	assert.False(t, ts.IsZero())
}
