// Package viewport maintains the pan offset and zoom factor of the canvas
// and converts between screen and world coordinates. It is independent of
// graph contents.
package viewport

// Point is a 2D coordinate, in either screen or world space depending on
// context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Wheel zoom factors: repeated scrolling approaches the clamp bounds
// asymptotically but cannot cross them.
const (
	WheelZoomOut = 0.9
	WheelZoomIn  = 1.1
)

// Viewport holds the current zoom and pan. Pan is in screen units; the
// origin offset is the on-screen position of the canvas surface's top-left
// corner.
type Viewport struct {
	zoom       float64
	zoomMin    float64
	zoomMax    float64
	pan        Point
	originOffs Point
}

// New creates a viewport with zoom 1 and the given clamp bounds.
func New(zoomMin, zoomMax float64) *Viewport {
	return &Viewport{zoom: 1, zoomMin: zoomMin, zoomMax: zoomMax}
}

// Default clamp bounds.
const (
	DefaultZoomMin = 0.25
	DefaultZoomMax = 2.5
)

// NewDefault creates a viewport with the default clamp bounds.
func NewDefault() *Viewport {
	return New(DefaultZoomMin, DefaultZoomMax)
}

// Zoom returns the current zoom factor.
func (v *Viewport) Zoom() float64 { return v.zoom }

// Pan returns the current pan offset in screen units.
func (v *Viewport) Pan() Point { return v.pan }

// SetPan sets the pan offset. Pan is not zoom-scaled because it is itself
// a screen-space quantity.
func (v *Viewport) SetPan(p Point) { v.pan = p }

// SetOriginOffset records the on-screen position of the canvas surface's
// top-left corner, which participates in coordinate conversion.
func (v *Viewport) SetOriginOffset(p Point) { v.originOffs = p }

// OriginOffset returns the canvas surface origin in screen coordinates.
func (v *Viewport) OriginOffset() Point { return v.originOffs }

// ZoomBy multiplies the zoom by factor, clamped into [min, max].
func (v *Viewport) ZoomBy(factor float64) float64 {
	z := v.zoom * factor
	if z < v.zoomMin {
		z = v.zoomMin
	}
	if z > v.zoomMax {
		z = v.zoomMax
	}
	v.zoom = z
	return z
}

// ScreenToWorld converts a screen point to world space. The conversion is
// exact (no rounding): port hit-testing and link-preview rendering depend
// on it matching the rendering transform bit-for-bit.
func (v *Viewport) ScreenToWorld(p Point) Point {
	return Point{
		X: (p.X - v.originOffs.X - v.pan.X) / v.zoom,
		Y: (p.Y - v.originOffs.Y - v.pan.Y) / v.zoom,
	}
}

// WorldToScreen converts a world point to screen space.
func (v *Viewport) WorldToScreen(p Point) Point {
	return Point{
		X: p.X*v.zoom + v.pan.X + v.originOffs.X,
		Y: p.Y*v.zoom + v.pan.Y + v.originOffs.Y,
	}
}
