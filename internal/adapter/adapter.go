package adapter

import (
	"context"

	"patchbay/internal/mutate"
)

// Type defines how an adapter interacts with its data source.
type Type string

const (
	// TypePolling pulls data on a schedule.
	TypePolling Type = "polling"
	// TypeOneShot runs only when triggered.
	TypeOneShot Type = "oneshot"
)

// Config holds per-adapter settings.
type Config struct {
	Enabled bool `json:"enabled"`
	// PollInterval for polling adapters (e.g. "30s", "5m").
	PollInterval string `json:"poll_interval,omitempty"`
}

// Fragment is a batch of typed device requests an adapter produced,
// plus the connections the source declared among them. Real device and
// port ids are allocated by the engine when the fragment is applied,
// never by the adapter; fragment connections name their ends through
// source references instead.
type Fragment struct {
	Source      string
	Devices     []FragmentDevice
	Connections []FragmentConnection
}

// FragmentDevice pairs a device request with the source's own id for the
// record, so fragment connections can name it before the engine has
// allocated a real id.
type FragmentDevice struct {
	Ref     string
	Request mutate.AddDeviceRequest
}

// FragmentConnection links two fragment devices by source reference.
type FragmentConnection struct {
	From FragmentEnd
	To   FragmentEnd
}

// FragmentEnd names a connection end: the device's source reference and
// the port's name within it.
type FragmentEnd struct {
	DeviceRef string
	PortRef   string
}

// Empty reports whether the fragment carries nothing to apply.
func (f *Fragment) Empty() bool {
	return f == nil || (len(f.Devices) == 0 && len(f.Connections) == 0)
}

// Adapter is a data source integration that can be registered and
// triggered through the Registry.
type Adapter interface {
	// Name returns the unique identifier for this adapter.
	Name() string

	// Type returns how this adapter interacts with its source.
	Type() Type

	// Start initializes the adapter, called once on startup.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the adapter.
	Stop() error

	// Sync pulls data from the source and returns a fragment.
	Sync(ctx context.Context) (*Fragment, error)
}
