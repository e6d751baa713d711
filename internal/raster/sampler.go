package raster

import (
	"math"

	"github.com/MeKo-Tech/globegrid/internal/grid"
)

// sampler resolves geographic points against one payload's grid: it
// normalizes longitudes into the grid's own wrap convention, bracket-searches
// both axes, and bilinearly interpolates the four surrounding samples.
type sampler struct {
	g        *grid.Grid
	ulons    []float64 // unwrapped, locally monotonic longitudes
	mode     grid.LonMode
	center   float64 // view rotation center, for LonCentered grids
	latLo    float64
	latHi    float64
	global   bool
	hideZero bool
}

func newSampler(p *Payload, centerLon float64) *sampler {
	g := p.Grid
	lo, hi := g.Lats[0], g.Lats[len(g.Lats)-1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return &sampler{
		g:        g,
		ulons:    grid.UnwrapLons(g.Lons),
		mode:     g.LonConvention(),
		center:   centerLon,
		latLo:    lo,
		latHi:    hi,
		global:   g.Global(),
		hideZero: p.HideZeroValues,
	}
}

// sample returns the interpolated value at (lon, lat) in degrees. ok is
// false outside the grid's coverage or where all bracketing samples carry
// no data. Interpolation never crosses a fully masked cell; partially
// masked cells renormalize the weights over the valid corners.
func (s *sampler) sample(lon, lat float64) (float64, bool) {
	if lat < s.latLo || lat > s.latHi {
		return 0, false
	}
	li, lf, ok := grid.Bracket(s.g.Lats, lat)
	if !ok {
		return 0, false
	}

	lon = grid.NormalizeLon(lon, s.mode, s.center)
	j0, j1, jf, ok := s.lonBracket(lon)
	if !ok {
		return 0, false
	}

	var sum, wsum float64
	corners := [4]struct {
		i, j int
		w    float64
	}{
		{li, j0, (1 - lf) * (1 - jf)},
		{li, j1, (1 - lf) * jf},
		{li + 1, j0, lf * (1 - jf)},
		{li + 1, j1, lf * jf},
	}
	for _, c := range corners {
		if !s.cornerValid(c.i, c.j) {
			continue
		}
		sum += s.g.At(c.i, c.j) * c.w
		wsum += c.w
	}
	if wsum == 0 {
		return 0, false
	}
	return sum / wsum, true
}

func (s *sampler) cornerValid(i, j int) bool {
	if !s.g.Valid(i, j) {
		return false
	}
	return !(s.hideZero && s.g.At(i, j) == 0)
}

// lonBracket finds the bracketing longitude indices for a normalized
// longitude, trying whole-turn shifts so the wrap convention and the
// unwrapped axis agree. For global grids the seam gap between the last and
// first columns is a valid interpolation interval.
func (s *sampler) lonBracket(lon float64) (j0, j1 int, frac float64, ok bool) {
	candidates := [5]float64{lon, lon - 360, lon + 360, lon - 720, lon + 720}
	for _, cand := range candidates {
		if j, f, ok := grid.Bracket(s.ulons, cand); ok {
			return j, j + 1, f, true
		}
	}
	if !s.global {
		return 0, 0, 0, false
	}

	n := len(s.ulons)
	first, last := s.ulons[0], s.ulons[n-1]
	asc := last >= first
	var lo, hi float64
	if asc {
		lo, hi = last, first+360
	} else {
		lo, hi = first-360, last
	}
	if hi <= lo {
		return 0, 0, 0, false
	}
	for _, cand := range candidates {
		if cand < lo || cand > hi {
			continue
		}
		if asc {
			frac = (cand - lo) / (hi - lo)
		} else {
			frac = (hi - cand) / (hi - lo)
		}
		return n - 1, 0, frac, true
	}
	return 0, 0, 0, false
}

// usableValue reports whether v is a drawable cell value under the
// payload's visibility flags.
func usableValue(v float64, hideZero bool) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return !(hideZero && v == 0)
}
