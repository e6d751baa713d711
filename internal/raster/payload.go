// Package raster renders a lat/lon value grid onto a pixel canvas through a
// map projection, with a quality-first smooth strategy and a cost-first
// blocky strategy.
package raster

import (
	"fmt"
	"image/color"

	"github.com/MeKo-Tech/globegrid/internal/colormap"
	"github.com/MeKo-Tech/globegrid/internal/grid"
)

// DefaultDownsample is the linear downsample factor of the smooth
// strategy's internal working canvas. Half resolution trades sampling cost
// against quality; callers may override it per payload.
const DefaultDownsample = 2

// Payload is the full, validated parameter set for one rasterization pass.
// The grid is treated as read-only for the duration of the pass.
type Payload struct {
	Width  int
	Height int

	Grid  *grid.Grid
	Stops []color.NRGBA
	Range colormap.Range

	HideZeroValues bool
	Smooth         bool
	Opacity        float64

	Rotate    [3]float64
	Scale     float64
	Translate [2]float64

	// Downsample overrides DefaultDownsample when > 0.
	Downsample int
}

// Validate checks the payload is renderable.
func (p *Payload) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", p.Width, p.Height)
	}
	if p.Grid == nil {
		return fmt.Errorf("missing grid")
	}
	if len(p.Stops) == 0 {
		return fmt.Errorf("missing color stops")
	}
	if p.Opacity < 0 || p.Opacity > 1 {
		return fmt.Errorf("opacity %g out of [0,1]", p.Opacity)
	}
	return nil
}

func (p *Payload) downsample() int {
	if p.Downsample > 0 {
		return p.Downsample
	}
	return DefaultDownsample
}
