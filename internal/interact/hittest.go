package interact

import (
	"patchbay/internal/domain"
	"patchbay/internal/mutate"
	"patchbay/internal/viewport"
)

// PinHitRadius is the world-space radius around a port pin that counts as
// a hit. Pins are small; a forgiving radius keeps link drawing usable at
// low zoom.
const PinHitRadius = 8.0

// HitKind classifies what a world-space point landed on.
type HitKind int

const (
	HitNothing HitKind = iota
	HitDeviceBody
	HitPortPin
)

// Hit is the result of a hit test.
type Hit struct {
	Kind     HitKind
	DeviceID string
	PortID   string
}

// HitTest finds the topmost element under the given world point. Devices
// later in the sequence render on top, so the scan runs back to front.
// Port pins win over the device body they sit on.
func HitTest(g *domain.GraphState, p viewport.Point, sizing mutate.Sizing) Hit {
	for i := len(g.Devices) - 1; i >= 0; i-- {
		dev := &g.Devices[i]

		if pin, ok := hitPin(dev, p, sizing); ok {
			return Hit{Kind: HitPortPin, DeviceID: dev.ID, PortID: pin}
		}

		if p.X >= dev.X && p.X <= dev.X+dev.W && p.Y >= dev.Y && p.Y <= dev.Y+dev.H {
			return Hit{Kind: HitDeviceBody, DeviceID: dev.ID}
		}
	}
	return Hit{Kind: HitNothing}
}

func hitPin(dev *domain.Device, p viewport.Point, sizing mutate.Sizing) (string, bool) {
	for _, port := range dev.Ports {
		x, y, ok := sizing.PinPoint(dev, port.ID)
		if !ok {
			continue
		}
		dx, dy := p.X-x, p.Y-y
		if dx*dx+dy*dy <= PinHitRadius*PinHitRadius {
			return port.ID, true
		}
	}
	return "", false
}
