package raster

import (
	"image"
	"image/draw"

	"github.com/disintegration/gift"

	"github.com/MeKo-Tech/globegrid/internal/colormap"
	"github.com/MeKo-Tech/globegrid/internal/projection"
)

// renderSmooth is the quality-first strategy: every pixel of a downsampled
// working canvas is inverse-projected to geographic coordinates, bilinearly
// interpolated against the grid, and colored; the working buffer is then
// upscaled with linear resampling onto the destination, clipped to the
// projection's sphere outline.
func (r *Renderer) renderSmooth(dst *image.NRGBA, p *Payload, proj *projection.Projection, mapper *colormap.Mapper, cancelled func() bool) error {
	ds := p.downsample()
	ww := (p.Width + ds - 1) / ds
	wh := (p.Height + ds - 1) / ds
	if ww < 1 {
		ww = 1
	}
	if wh < 1 {
		wh = 1
	}
	working := image.NewNRGBA(image.Rect(0, 0, ww, wh))

	centerLon, _ := proj.Center()
	smp := newSampler(p, centerLon)

	sx := float64(p.Width) / float64(ww)
	sy := float64(p.Height) / float64(wh)

	for y := 0; y < wh; y++ {
		if cancelled() {
			return ErrCanceled
		}
		py := (float64(y) + 0.5) * sy
		for x := 0; x < ww; x++ {
			lon, lat, ok := proj.Inverse((float64(x)+0.5)*sx, py)
			if !ok {
				continue // outside the globe outline
			}
			v, ok := smp.sample(lon, lat)
			if !ok {
				continue
			}
			c := applyOpacity(mapper.At(v), p.Opacity)
			if c.A == 0 {
				continue
			}
			working.SetNRGBA(x, y, c)
		}
	}
	if cancelled() {
		return ErrCanceled
	}

	// Upscale with smoothing, then composite over dst clipped to the
	// sphere outline so nothing bleeds outside the globe shape.
	up := working
	if ww != p.Width || wh != p.Height {
		filter := gift.New(gift.Resize(p.Width, p.Height, gift.LinearResampling))
		scaled := image.NewNRGBA(filter.Bounds(working.Bounds()))
		filter.Draw(scaled, working)
		up = scaled
	}
	mask := outlineMask(proj.Outline(180), p.Width, p.Height)
	draw.DrawMask(dst, dst.Bounds(), up, image.Point{}, mask, image.Point{}, draw.Over)
	return nil
}
