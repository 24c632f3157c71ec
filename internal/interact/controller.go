package interact

import (
	"patchbay/internal/domain"
	"patchbay/internal/editor"
	"patchbay/internal/viewport"
)

// Button identifies which pointer button an event carries.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
)

// PointerEvent is a pointer-down/move/up sample in screen coordinates.
type PointerEvent struct {
	Screen viewport.Point
	Button Button
}

// State is the controller's gesture state.
type State int

const (
	Idle State = iota
	DraggingDevice
	Panning
	LinkDrawing
)

func (s State) String() string {
	switch s {
	case DraggingDevice:
		return "dragging-device"
	case Panning:
		return "panning"
	case LinkDrawing:
		return "link-drawing"
	default:
		return "idle"
	}
}

// gesture carries the hooks scoped to one active gesture. end always runs
// exactly once, on clean release and on cancellation alike, so a gesture
// can never leak its hooks past its lifetime.
type gesture struct {
	move   func(PointerEvent)
	finish func(PointerEvent)
	cancel func()
}

// RubberBand is the live link-draw preview: a line from the origin pin to
// the current cursor position, both in world space.
type RubberBand struct {
	Origin viewport.Point
	Cursor viewport.Point
}

// Controller drives device dragging, canvas panning, wheel zoom, and link
// drawing against the editor and viewport.
type Controller struct {
	ed *editor.Editor
	vp *viewport.Viewport

	state  State
	active *gesture

	band    RubberBand
	banding bool
}

// NewController creates an idle controller.
func NewController(ed *editor.Editor, vp *viewport.Viewport) *Controller {
	return &Controller{ed: ed, vp: vp}
}

// State returns the current gesture state.
func (c *Controller) State() State { return c.state }

// Band returns the link-draw preview line while a LinkDrawing gesture is
// active.
func (c *Controller) Band() (RubberBand, bool) { return c.band, c.banding }

// Wheel applies one wheel-zoom step. Negative deltas zoom out.
func (c *Controller) Wheel(delta float64) float64 {
	if delta < 0 {
		return c.vp.ZoomBy(viewport.WheelZoomOut)
	}
	return c.vp.ZoomBy(viewport.WheelZoomIn)
}

// PointerDown starts a gesture when the event's source matches one of the
// start conditions. Events arriving while a gesture is already active are
// ignored: a second gesture cannot start until the first releases.
func (c *Controller) PointerDown(ev PointerEvent) {
	if c.state != Idle {
		return
	}

	snap := c.ed.Snapshot()
	world := c.vp.ScreenToWorld(ev.Screen)
	hit := HitTest(snap, world, c.ed.Engine().Sizing())

	switch {
	case hit.Kind == HitPortPin:
		c.startLinkDraw(snap, hit)
	case hit.Kind == HitDeviceBody && ev.Button == ButtonLeft:
		c.startDeviceDrag(snap, hit.DeviceID, ev)
	case hit.Kind == HitNothing && ev.Button == ButtonRight:
		c.startPan(ev)
	}
}

// PointerMove routes a move event to the active gesture.
func (c *Controller) PointerMove(ev PointerEvent) {
	if c.active != nil {
		c.active.move(ev)
	}
}

// PointerUp finishes the active gesture and detaches its hooks.
func (c *Controller) PointerUp(ev PointerEvent) {
	if c.active == nil {
		return
	}
	finish := c.active.finish
	c.end()
	finish(ev)
}

// Cancel aborts the active gesture (pointer capture loss, window blur),
// rolling back any transient effect and detaching the hooks.
func (c *Controller) Cancel() {
	if c.active == nil {
		return
	}
	cancel := c.active.cancel
	c.end()
	if cancel != nil {
		cancel()
	}
}

// end detaches the gesture hooks and returns the machine to Idle. Every
// exit path funnels through here.
func (c *Controller) end() {
	c.active = nil
	c.state = Idle
	c.banding = false
}

func (c *Controller) startDeviceDrag(pre *domain.GraphState, deviceID string, down PointerEvent) {
	dev, ok := pre.Device(deviceID)
	if !ok {
		return
	}
	origX, origY := dev.X, dev.Y
	startScreen := down.Screen
	moved := false

	c.state = DraggingDevice
	c.active = &gesture{
		move: func(ev PointerEvent) {
			zoom := c.vp.Zoom()
			dx := (ev.Screen.X - startScreen.X) / zoom
			dy := (ev.Screen.Y - startScreen.Y) / zoom
			if c.ed.MoveDeviceTransient(deviceID, origX+dx, origY+dy) {
				moved = true
			}
		},
		finish: func(PointerEvent) {
			if moved {
				c.ed.CommitCheckpoint(pre)
			}
		},
		cancel: func() {
			if moved {
				c.ed.MoveDeviceTransient(deviceID, origX, origY)
			}
		},
	}
}

func (c *Controller) startPan(down PointerEvent) {
	origPan := c.vp.Pan()
	startScreen := down.Screen

	c.state = Panning
	c.active = &gesture{
		move: func(ev PointerEvent) {
			c.vp.SetPan(viewport.Point{
				X: origPan.X + (ev.Screen.X - startScreen.X),
				Y: origPan.Y + (ev.Screen.Y - startScreen.Y),
			})
		},
		finish: func(PointerEvent) {},
		cancel: func() {
			c.vp.SetPan(origPan)
		},
	}
}

func (c *Controller) startLinkDraw(snap *domain.GraphState, hit Hit) {
	dev, ok := snap.Device(hit.DeviceID)
	if !ok {
		return
	}
	pinX, pinY, ok := c.ed.Engine().Sizing().PinPoint(dev, hit.PortID)
	if !ok {
		return
	}

	origin := domain.ConnectionEnd{DeviceID: hit.DeviceID, PortID: hit.PortID}
	originPin := viewport.Point{X: pinX, Y: pinY}

	c.state = LinkDrawing
	c.band = RubberBand{Origin: originPin, Cursor: originPin}
	c.banding = true
	c.active = &gesture{
		move: func(ev PointerEvent) {
			c.band.Cursor = c.vp.ScreenToWorld(ev.Screen)
		},
		finish: func(ev PointerEvent) {
			world := c.vp.ScreenToWorld(ev.Screen)
			snap := c.ed.Snapshot()
			target := HitTest(snap, world, c.ed.Engine().Sizing())
			if target.Kind != HitPortPin {
				// Released over empty space: abandon with no mutation.
				return
			}
			// Legality (direction pairing, fan-out, duplicates) is
			// resolved inside the engine; either port may have been the
			// drag origin.
			c.ed.Connect(origin, domain.ConnectionEnd{
				DeviceID: target.DeviceID,
				PortID:   target.PortID,
			})
		},
	}
}
