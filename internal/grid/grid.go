// Package grid holds the immutable 2D lat/lon grid model used by the
// rasterizer, plus cell-edge derivation and bracket search over its axes.
package grid

import (
	"fmt"
	"math"
)

// Grid is one rasterization request's input: ordered latitude and longitude
// sample centers, a flat row-major value buffer (latitude-major), and an
// optional validity mask. A Grid is never mutated after construction.
type Grid struct {
	Lats   []float64
	Lons   []float64
	Values []float32
	Mask   []uint8 // optional; 0 means "no data"
}

// New validates the axis/buffer lengths and wraps them into a Grid.
// mask may be nil.
func New(lats, lons []float64, values []float32, mask []uint8) (*Grid, error) {
	if len(lats) == 0 || len(lons) == 0 {
		return nil, fmt.Errorf("empty axis: %d lats, %d lons", len(lats), len(lons))
	}
	if len(values) != len(lats)*len(lons) {
		return nil, fmt.Errorf("value buffer length %d does not match %d x %d grid",
			len(values), len(lats), len(lons))
	}
	if mask != nil && len(mask) != len(values) {
		return nil, fmt.Errorf("mask length %d does not match value buffer length %d",
			len(mask), len(values))
	}
	return &Grid{Lats: lats, Lons: lons, Values: values, Mask: mask}, nil
}

// At returns the value at latitude index i, longitude index j.
func (g *Grid) At(i, j int) float64 {
	return float64(g.Values[i*len(g.Lons)+j])
}

// Valid reports whether the cell at (i, j) carries data. A nil mask means
// every cell is valid; non-finite values are still invalid.
func (g *Grid) Valid(i, j int) bool {
	idx := i*len(g.Lons) + j
	if g.Mask != nil && g.Mask[idx] == 0 {
		return false
	}
	v := float64(g.Values[idx])
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// LonSpan returns the longitudinal extent covered by the sample centers,
// in degrees, independent of axis direction.
func (g *Grid) LonSpan() float64 {
	return math.Abs(g.Lons[len(g.Lons)-1] - g.Lons[0])
}

// Global reports whether the grid covers (nearly) the full circle of
// longitude, in which case wrap-around sampling and an explicit seam
// column are permitted.
func (g *Grid) Global() bool {
	return g.LonSpan() > 300
}

// LonMode classifies which wrap convention the grid's longitudes use.
// Sampling normalizes projected longitudes into the same convention
// before range checks and bracket search.
type LonMode int

const (
	// Lon360 means longitudes live in [0, 360).
	Lon360 LonMode = iota
	// Lon180 means longitudes live in (-180, 180].
	Lon180
	// LonCentered means neither convention fits; longitudes are
	// recentered on the view's rotation center.
	LonCentered
)

// LonConvention picks the wrap convention for this grid's longitude axis.
func (g *Grid) LonConvention() LonMode {
	min, max := g.Lons[0], g.Lons[0]
	for _, l := range g.Lons {
		if l < min {
			min = l
		}
		if l > max {
			max = l
		}
	}
	switch {
	case min >= 0 && max > 180:
		return Lon360
	case min < 0 && max <= 180:
		return Lon180
	default:
		return LonCentered
	}
}

// NormalizeLon maps lon into the given wrap convention. center is only
// consulted for LonCentered, where the result lands within ±180 of it.
func NormalizeLon(lon float64, mode LonMode, center float64) float64 {
	switch mode {
	case Lon360:
		lon = math.Mod(lon, 360)
		if lon < 0 {
			lon += 360
		}
		return lon
	case Lon180:
		lon = math.Mod(lon+180, 360)
		if lon < 0 {
			lon += 360
		}
		if lon == 0 {
			// 180 (and -180) belong to the interval's closed end.
			lon = 360
		}
		return lon - 180
	default:
		for lon-center > 180 {
			lon -= 360
		}
		for lon-center < -180 {
			lon += 360
		}
		return lon
	}
}

// Bracket binary-searches an ordered axis (ascending or descending) for the
// pair of indices whose centers bracket v. It returns the lower index i such
// that v lies between axis[i] and axis[i+1], and the fractional position of v
// within that interval. ok is false when v falls outside the axis.
func Bracket(axis []float64, v float64) (i int, frac float64, ok bool) {
	n := len(axis)
	if n < 2 {
		return 0, 0, false
	}
	asc := axis[n-1] >= axis[0]

	lo, hi := 0, n-1
	if asc {
		if v < axis[0] || v > axis[n-1] {
			return 0, 0, false
		}
		for hi-lo > 1 {
			mid := (lo + hi) / 2
			if axis[mid] <= v {
				lo = mid
			} else {
				hi = mid
			}
		}
	} else {
		if v > axis[0] || v < axis[n-1] {
			return 0, 0, false
		}
		for hi-lo > 1 {
			mid := (lo + hi) / 2
			if axis[mid] >= v {
				lo = mid
			} else {
				hi = mid
			}
		}
	}

	span := axis[hi] - axis[lo]
	if span == 0 {
		return lo, 0, true
	}
	return lo, (v - axis[lo]) / span, true
}
