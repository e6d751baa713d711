// Package colormap maps scalar grid values to RGBA colors via a
// piecewise-linear ramp of evenly spaced color stops.
package colormap

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Transparent is the sentinel for "no data": masked cells and non-finite
// values always map to it, never to a visible color.
var Transparent = color.NRGBA{}

// Range holds the [min, max] value bounds used to normalize raw values.
// A degenerate range (max <= min) normalizes every value to 0.
type Range struct {
	Min float64
	Max float64
}

// Normalize maps v into [0, 1] within the range, clamped.
func (r Range) Normalize(v float64) float64 {
	if r.Max <= r.Min {
		return 0
	}
	t := (v - r.Min) / (r.Max - r.Min)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// ParseHexColors converts a list of hex color strings ("#rrggbb" or
// "#rrggbbaa", leading '#' optional) into color stops. Stop i sits at
// normalized position i/(n-1).
func ParseHexColors(hexes []string) ([]color.NRGBA, error) {
	if len(hexes) == 0 {
		return nil, fmt.Errorf("at least one color is required")
	}
	stops := make([]color.NRGBA, len(hexes))
	for i, h := range hexes {
		c, err := parseHex(h)
		if err != nil {
			return nil, fmt.Errorf("color %d: %w", i, err)
		}
		stops[i] = c
	}
	return stops, nil
}

func parseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	if len(s) == 6 {
		return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Mapper is the pure value → color function for one render pass.
type Mapper struct {
	stops []color.NRGBA
	rng   Range
}

// NewMapper builds a mapper over the given stops and value range.
func NewMapper(stops []color.NRGBA, rng Range) (*Mapper, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("at least one color stop is required")
	}
	return &Mapper{stops: stops, rng: rng}, nil
}

// At maps a value to its ramp color. NaN and ±Inf yield Transparent.
func (m *Mapper) At(v float64) color.NRGBA {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Transparent
	}
	if len(m.stops) == 1 {
		return m.stops[0]
	}

	t := m.rng.Normalize(v)
	pos := t * float64(len(m.stops)-1)
	i := int(pos)
	if i >= len(m.stops)-1 {
		return m.stops[len(m.stops)-1]
	}
	frac := pos - float64(i)
	a, b := m.stops[i], m.stops[i+1]
	return color.NRGBA{
		R: lerpChannel(a.R, b.R, frac),
		G: lerpChannel(a.G, b.G, frac),
		B: lerpChannel(a.B, b.B, frac),
		A: lerpChannel(a.A, b.A, frac),
	}
}

func lerpChannel(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}
