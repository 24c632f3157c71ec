package mutate

import "patchbay/internal/domain"

// Sizing holds the box geometry constants used to compute default device
// sizes and port pin positions. Pin layout puts IN ports down the left
// edge and OUT ports down the right edge, spaced by MinPortSpacing
// starting below the header.
type Sizing struct {
	HeaderHeight   float64 `yaml:"header_height"`
	TopPad         float64 `yaml:"top_pad"`
	BottomPad      float64 `yaml:"bottom_pad"`
	MinPortSpacing float64 `yaml:"min_port_spacing"`
	MinHeight      float64 `yaml:"min_height"`
	PinInset       float64 `yaml:"pin_inset"`
	GlyphWidth     float64 `yaml:"glyph_width"`
	MiddleGap      float64 `yaml:"middle_gap"`
	FontSize       float64 `yaml:"font_size"`
	MinWidth       float64 `yaml:"min_width"`
}

// DefaultSizing returns the geometry used when the config does not
// override it.
func DefaultSizing() Sizing {
	return Sizing{
		HeaderHeight:   28,
		TopPad:         14,
		BottomPad:      14,
		MinPortSpacing: 22,
		MinHeight:      64,
		PinInset:       6,
		GlyphWidth:     8,
		MiddleGap:      24,
		FontSize:       12,
		MinWidth:       120,
	}
}

// charWidth is a fixed-font estimate derived from the font size; the
// renderer uses the same estimate so label truncation stays consistent.
func (s Sizing) charWidth() float64 {
	return 0.6 * s.FontSize
}

// BoxSize computes the default device box for the given ports.
func (s Sizing) BoxSize(ports []domain.Port) (w, h float64) {
	var ins, outs int
	var leftChars, rightChars int
	for _, p := range ports {
		switch p.Direction {
		case domain.DirectionIn:
			ins++
			if n := len(p.Name); n > leftChars {
				leftChars = n
			}
		case domain.DirectionOut:
			outs++
			if n := len(p.Name); n > rightChars {
				rightChars = n
			}
		}
	}

	maxSide := ins
	if outs > maxSide {
		maxSide = outs
	}

	h = s.HeaderHeight + s.TopPad + s.BottomPad
	if maxSide > 1 {
		h += float64(maxSide-1) * s.MinPortSpacing
	}
	if h < s.MinHeight {
		h = s.MinHeight
	}

	w = 2*(s.PinInset+s.GlyphWidth) +
		float64(leftChars)*s.charWidth() +
		float64(rightChars)*s.charWidth() +
		s.MiddleGap
	if w < s.MinWidth {
		w = s.MinWidth
	}

	return w, h
}

// PinPoint returns the world-space coordinate of a port's pin on its
// device. IN pins sit on the left edge, OUT pins on the right; rows are
// counted per side in port order.
func (s Sizing) PinPoint(dev *domain.Device, portID string) (x, y float64, ok bool) {
	port, found := dev.Port(portID)
	if !found {
		return 0, 0, false
	}

	row := 0
	for _, p := range dev.Ports {
		if p.ID == portID {
			break
		}
		if p.Direction == port.Direction {
			row++
		}
	}

	y = dev.Y + s.HeaderHeight + s.TopPad + float64(row)*s.MinPortSpacing
	if port.Direction == domain.DirectionIn {
		x = dev.X
	} else {
		x = dev.X + dev.W
	}
	return x, y, true
}
