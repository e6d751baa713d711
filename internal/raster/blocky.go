package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/globegrid/internal/colormap"
	"github.com/MeKo-Tech/globegrid/internal/grid"
	"github.com/MeKo-Tech/globegrid/internal/projection"
)

const (
	// maxBlockyRows and maxBlockyCols bound the number of cells actually
	// drawn per pass; denser grids are decimated by a stride.
	maxBlockyRows = 60
	maxBlockyCols = 120

	// maxQuadFraction skips quads wider/taller than this fraction of the
	// canvas. Such quads are projection-seam artifacts, not data. Tunable.
	maxQuadFraction = 0.75

	// minCellPx is the footprint below which a cell is drawn as a
	// fixed-size dot so fine data stays visible at low zoom.
	minCellPx = 3
)

// renderBlocky is the cost-first strategy: each (possibly decimated) grid
// cell is forward-projected and filled as a screen-space quad.
func (r *Renderer) renderBlocky(dst *image.NRGBA, p *Payload, proj *projection.Projection, mapper *colormap.Mapper, cancelled func() bool) error {
	g := p.Grid
	latEdges := grid.LatEdges(g.Lats)
	lonEdges := grid.LonEdges(g.Lons)
	nLat, nLon := len(g.Lats), len(g.Lons)

	latStride := (nLat + maxBlockyRows - 1) / maxBlockyRows
	lonStride := (nLon + maxBlockyCols - 1) / maxBlockyCols
	if latStride < 1 {
		latStride = 1
	}
	if lonStride < 1 {
		lonStride = 1
	}

	for i := 0; i < nLat; i += latStride {
		if cancelled() {
			return ErrCanceled
		}
		i2 := i + latStride
		if i2 > nLat {
			i2 = nLat
		}
		for j := 0; j < nLon; j += lonStride {
			j2 := j + lonStride
			if j2 > nLon {
				j2 = nLon
			}
			r.drawCell(dst, p, proj, mapper,
				latEdges[i], latEdges[i2], lonEdges[j], lonEdges[j2], i, j)
		}
	}

	// Explicit wrap-around column for global grids: connect the last
	// column's outer edge back to the first column's across the seam.
	if g.Global() {
		if cancelled() {
			return ErrCanceled
		}
		shift := 360.0
		if lonEdges[nLon] < lonEdges[0] {
			shift = -360.0
		}
		lon0 := lonEdges[nLon]
		lon1 := lonEdges[0] + shift
		for i := 0; i < nLat; i += latStride {
			i2 := i + latStride
			if i2 > nLat {
				i2 = nLat
			}
			r.drawCell(dst, p, proj, mapper, latEdges[i], latEdges[i2], lon0, lon1, i, 0)
		}
	}
	return nil
}

// drawCell projects one cell's corners and fills it. Cells are skipped
// outright, never drawn transparently, when masked or hidden so content
// already on the canvas shows through.
func (r *Renderer) drawCell(dst *image.NRGBA, p *Payload, proj *projection.Projection, mapper *colormap.Mapper, lat0, lat1, lon0, lon1 float64, i, j int) {
	if !p.Grid.Valid(i, j) {
		return
	}
	v := p.Grid.At(i, j)
	if !usableValue(v, p.HideZeroValues) {
		return
	}
	c := applyOpacity(mapper.At(v), p.Opacity)
	if c.A == 0 {
		return
	}

	quad := make(orb.Ring, 0, 4)
	for _, corner := range [4][2]float64{
		{lon0, lat0}, {lon1, lat0}, {lon1, lat1}, {lon0, lat1},
	} {
		x, y, ok := proj.Forward(corner[0], corner[1])
		if !ok {
			return
		}
		quad = append(quad, orb.Point{x, y})
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range quad {
		minX = math.Min(minX, pt[0])
		minY = math.Min(minY, pt[1])
		maxX = math.Max(maxX, pt[0])
		maxY = math.Max(maxY, pt[1])
	}
	bw, bh := maxX-minX, maxY-minY

	if bw > maxQuadFraction*float64(p.Width) || bh > maxQuadFraction*float64(p.Height) {
		return // quad straddles a projection discontinuity
	}

	if bw < minCellPx && bh < minCellPx {
		r.drawCellDot(dst, quad, c)
		return
	}
	fillQuad(dst, quad, c)
}

func (r *Renderer) drawCellDot(dst *image.NRGBA, quad orb.Ring, c color.NRGBA) {
	var cx, cy float64
	for _, pt := range quad {
		cx += pt[0]
		cy += pt[1]
	}
	cx /= float64(len(quad))
	cy /= float64(len(quad))
	fillDot(dst, cx, cy, minCellPx, c)
}
