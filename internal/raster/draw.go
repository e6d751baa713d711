package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/paulmach/orb"
	"golang.org/x/image/vector"
)

// fillQuad fills a 4-point screen-space polygon with a uniform color,
// antialiased. The rasterizer is sized to the quad's bounding box so the
// per-cell cost stays proportional to the cell, not the canvas.
func fillQuad(dst *image.NRGBA, quad orb.Ring, c color.NRGBA) {
	if len(quad) < 3 || c.A == 0 {
		return
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range quad {
		minX = math.Min(minX, pt[0])
		minY = math.Min(minY, pt[1])
		maxX = math.Max(maxX, pt[0])
		maxY = math.Max(maxY, pt[1])
	}

	rect := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}

	ras := vector.NewRasterizer(rect.Dx(), rect.Dy())
	ox, oy := float32(rect.Min.X), float32(rect.Min.Y)
	ras.MoveTo(float32(quad[0][0])-ox, float32(quad[0][1])-oy)
	for _, pt := range quad[1:] {
		ras.LineTo(float32(pt[0])-ox, float32(pt[1])-oy)
	}
	ras.ClosePath()
	ras.Draw(dst, rect, image.NewUniform(c), image.Point{})
}

// fillDot draws a fixed-size opaque-alpha square centered on (cx, cy).
// Used for cells whose projected footprint would otherwise vanish.
func fillDot(dst *image.NRGBA, cx, cy float64, size int, c color.NRGBA) {
	if c.A == 0 {
		return
	}
	half := float64(size) / 2
	minX := int(math.Floor(cx - half))
	minY := int(math.Floor(cy - half))

	b := dst.Bounds()
	for y := minY; y < minY+size; y++ {
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for x := minX; x < minX+size; x++ {
			if x < b.Min.X || x >= b.Max.X {
				continue
			}
			dst.SetNRGBA(x, y, c)
		}
	}
}

// outlineMask rasterizes a closed screen-space ring into an alpha mask.
func outlineMask(ring orb.Ring, width, height int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, width, height))
	if len(ring) < 3 {
		return mask
	}
	ras := vector.NewRasterizer(width, height)
	ras.MoveTo(float32(ring[0][0]), float32(ring[0][1]))
	for _, pt := range ring[1:] {
		ras.LineTo(float32(pt[0]), float32(pt[1]))
	}
	ras.ClosePath()
	ras.Draw(mask, mask.Bounds(), image.NewUniform(color.Alpha{A: 255}), image.Point{})
	return mask
}

func applyOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	if opacity >= 1 {
		return c
	}
	c.A = uint8(math.Round(float64(c.A) * opacity))
	return c
}
