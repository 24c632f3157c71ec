package domain

// Direction indicates which way a signal flows through a port.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Valid reports whether the direction is one of the two known values.
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Port represents a signal connector on a device.
//
// ID is a stable surrogate generated at creation time; Name is the
// operator-facing label and may change freely. Type is a free-form signal
// family string such as "SDI" or "HDMI".
type Port struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Direction Direction `json:"direction"`
}
