package grid

// Cell-edge derivation: N sample centers become N+1 cell boundaries.
// Interior edges are midpoints of adjacent centers; the two outer edges
// mirror the adjacent spacing so the first and last cells have the same
// width as their only neighbor.

// Edges derives cell boundaries for a plain (non-wrapping) axis.
// A single-center axis gets edges 0.5 units either side of the center.
func Edges(centers []float64) []float64 {
	n := len(centers)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []float64{centers[0] - 0.5, centers[0] + 0.5}
	}

	edges := make([]float64, n+1)
	for i := 1; i < n; i++ {
		edges[i] = (centers[i-1] + centers[i]) / 2
	}
	edges[0] = centers[0] - (edges[1] - centers[0])
	edges[n] = centers[n-1] + (centers[n-1] - edges[n-1])
	return edges
}

// LatEdges derives latitude cell boundaries, clamped into [-90, 90].
func LatEdges(centers []float64) []float64 {
	edges := Edges(centers)
	for i, e := range edges {
		if e > 90 {
			edges[i] = 90
		} else if e < -90 {
			edges[i] = -90
		}
	}
	return edges
}

// LonEdges derives longitude cell boundaries. The centers are unwrapped
// first so a 359° → 1° seam step does not produce a spurious 358°-wide
// edge. Edges are deliberately left unclamped and may exceed ±180;
// consumers normalize when they need to.
func LonEdges(centers []float64) []float64 {
	return Edges(UnwrapLons(centers))
}

// UnwrapLons shifts each longitude by whole turns so that consecutive
// steps never exceed ±180°, making the sequence locally monotonic across
// the dateline. The first value is kept as-is.
func UnwrapLons(lons []float64) []float64 {
	if len(lons) == 0 {
		return nil
	}
	out := make([]float64, len(lons))
	out[0] = lons[0]
	offset := 0.0
	for i := 1; i < len(lons); i++ {
		step := lons[i] - lons[i-1]
		if step > 180 {
			offset -= 360
		} else if step < -180 {
			offset += 360
		}
		out[i] = lons[i] + offset
	}
	return out
}
