// Package projection wraps a Winkel Tripel map projection with spherical
// rotation, canvas fitting, and a zoom-preserving orientation model.
package projection

import (
	"math"

	"github.com/paulmach/orb"
)

// Raw Winkel Tripel constants. The raw projection maps lon ∈ [-π, π],
// lat ∈ [-π/2, π/2] into x ∈ [-(π/2+1), π/2+1], y ∈ [-π/2, π/2],
// independent of rotation (rotation happens on the sphere first).
const (
	cosPhi1      = 2 / math.Pi // standard parallel acos(2/π)
	rawHalfWidth = math.Pi/2 + 1
	rawHalfHeigh = math.Pi / 2
)

// Orientation captures a view's rotation and zoom. Scale is expressed
// together with the BaseScale it was captured against, so the zoom factor
// Scale/BaseScale survives canvas resizes.
type Orientation struct {
	Rotate    [3]float64 // [lon, lat, roll] in degrees
	Scale     float64
	BaseScale float64
}

// Projection is a Winkel Tripel projection fitted to a pixel canvas.
// The zero value is not usable; construct with New.
type Projection struct {
	rotate    [3]float64
	scale     float64 // pixels per raw projection unit
	baseScale float64 // scale that exactly fits the sphere outline
	translate [2]float64
	width     int
	height    int
}

// New returns a projection fitted to the given canvas size.
func New(width, height int) *Projection {
	p := &Projection{}
	p.FitToSize(width, height)
	return p
}

// FitToSize sets scale and translate so the full sphere outline exactly
// fits the canvas, and records the resulting scale as the base scale.
func (p *Projection) FitToSize(width, height int) {
	p.width = width
	p.height = height
	p.baseScale = math.Min(float64(width)/(2*rawHalfWidth), float64(height)/(2*rawHalfHeigh))
	p.scale = p.baseScale
	p.translate = [2]float64{float64(width) / 2, float64(height) / 2}
}

// Resize refits the projection to a new canvas size. Unless resetScale is
// set, the current zoom factor (scale/baseScale) is preserved across the
// resize by rescaling proportionally.
func (p *Projection) Resize(width, height int, resetScale bool) {
	zoom := 1.0
	if !resetScale && p.baseScale > 0 {
		zoom = p.scale / p.baseScale
	}
	p.FitToSize(width, height)
	p.scale = p.baseScale * zoom
}

// Orientation returns the current rotation and zoom state.
func (p *Projection) Orientation() Orientation {
	return Orientation{Rotate: p.rotate, Scale: p.scale, BaseScale: p.baseScale}
}

// SetOrientation restores a saved orientation. The stored scale is
// reinterpreted against the current base scale so the visual zoom level is
// preserved even when the canvas size changed since the capture.
func (p *Projection) SetOrientation(o Orientation) {
	p.rotate = o.Rotate
	if o.BaseScale > 0 {
		p.scale = o.Scale / o.BaseScale * p.baseScale
	} else if o.Scale > 0 {
		p.scale = o.Scale
	}
}

// SetRotate sets the spherical rotation [lon, lat, roll] in degrees.
func (p *Projection) SetRotate(rotate [3]float64) { p.rotate = rotate }

// SetScale overrides the pixel scale directly.
func (p *Projection) SetScale(scale float64) {
	if scale > 0 {
		p.scale = scale
	}
}

// SetTranslate overrides the canvas translation.
func (p *Projection) SetTranslate(translate [2]float64) { p.translate = translate }

// Scale returns the current pixel scale.
func (p *Projection) Scale() float64 { return p.scale }

// BaseScale returns the scale that fits the full sphere into the canvas.
func (p *Projection) BaseScale() float64 { return p.baseScale }

// Center returns the geographic point currently at the view center.
func (p *Projection) Center() (lon, lat float64) {
	return -p.rotate[0], -p.rotate[1]
}

// Forward projects geographic degrees to pixel coordinates. ok is false
// when the point cannot be represented.
func (p *Projection) Forward(lon, lat float64) (x, y float64, ok bool) {
	λ, φ := p.rotateForward(toRad(lon), toRad(lat))
	rx, ry := winkelRaw(λ, φ)
	if math.IsNaN(rx) || math.IsNaN(ry) {
		return 0, 0, false
	}
	return p.translate[0] + p.scale*rx, p.translate[1] - p.scale*ry, true
}

// Inverse maps pixel coordinates back to geographic degrees. ok is false
// outside the projection's valid region.
func (p *Projection) Inverse(x, y float64) (lon, lat float64, ok bool) {
	rx := (x - p.translate[0]) / p.scale
	ry := (p.translate[1] - y) / p.scale
	if math.Abs(rx) > rawHalfWidth+1e-6 || math.Abs(ry) > rawHalfHeigh+1e-6 {
		return 0, 0, false
	}

	λ, φ, ok := winkelRawInverse(rx, ry)
	if !ok {
		return 0, 0, false
	}
	λ, φ = p.rotateInverse(λ, φ)

	lon = normLon(toDeg(λ))
	lat = toDeg(φ)
	return lon, lat, true
}

// Outline samples the sphere boundary (lon = ±180 in rotated space) as a
// closed ring of pixel coordinates, for clipping blits to the globe shape.
func (p *Projection) Outline(steps int) orb.Ring {
	if steps < 8 {
		steps = 8
	}
	ring := make(orb.Ring, 0, 2*steps+1)
	for i := 0; i <= steps; i++ { // east edge, north to south
		φ := math.Pi/2 - math.Pi*float64(i)/float64(steps)
		rx, ry := winkelRaw(math.Pi, φ)
		ring = append(ring, orb.Point{p.translate[0] + p.scale*rx, p.translate[1] - p.scale*ry})
	}
	for i := 0; i <= steps; i++ { // west edge, south to north
		φ := -math.Pi/2 + math.Pi*float64(i)/float64(steps)
		rx, ry := winkelRaw(-math.Pi, φ)
		ring = append(ring, orb.Point{p.translate[0] + p.scale*rx, p.translate[1] - p.scale*ry})
	}
	return ring
}

// winkelRaw is the unrotated Winkel Tripel forward transform in radians.
func winkelRaw(λ, φ float64) (x, y float64) {
	α := math.Acos(math.Cos(φ) * math.Cos(λ/2))
	sincα := 1.0
	if α != 0 {
		sincα = math.Sin(α) / α
	}
	x = 0.5 * (λ*cosPhi1 + 2*math.Cos(φ)*math.Sin(λ/2)/sincα)
	y = 0.5 * (φ + math.Sin(φ)/sincα)
	return x, y
}

// winkelRawInverse solves the forward transform numerically. Winkel Tripel
// has no closed-form inverse; a damped 2D Newton iteration with a numeric
// Jacobian converges in a handful of steps everywhere on the map face.
func winkelRawInverse(x, y float64) (λ, φ float64, ok bool) {
	const (
		tol   = 1e-10
		delta = 1e-6
		steps = 40
	)

	// y = φ exactly on the central meridian, and ∂x/∂λ at λ=0 is
	// (cosφ1+cosφ)/2, which makes a good starting point.
	φ = clamp(y, -math.Pi/2, math.Pi/2)
	λ = clamp(x/(0.5*(cosPhi1+math.Cos(φ))), -math.Pi, math.Pi)

	for i := 0; i < steps; i++ {
		fx, fy := winkelRaw(λ, φ)
		dx, dy := fx-x, fy-y
		if math.Abs(dx) < tol && math.Abs(dy) < tol {
			break
		}

		fxλ, fyλ := winkelRaw(λ+delta, φ)
		fxφ, fyφ := winkelRaw(λ, φ+delta)
		j00 := (fxλ - fx) / delta
		j10 := (fyλ - fy) / delta
		j01 := (fxφ - fx) / delta
		j11 := (fyφ - fy) / delta

		det := j00*j11 - j01*j10
		if det == 0 {
			return 0, 0, false
		}
		λ -= (dx*j11 - dy*j01) / det
		φ -= (dy*j00 - dx*j10) / det
		λ = clamp(λ, -math.Pi-0.1, math.Pi+0.1)
		φ = clamp(φ, -math.Pi/2-0.1, math.Pi/2+0.1)
	}

	if math.Abs(λ) > math.Pi+1e-6 || math.Abs(φ) > math.Pi/2+1e-6 {
		return 0, 0, false
	}
	fx, fy := winkelRaw(λ, φ)
	if math.Abs(fx-x) > 1e-6 || math.Abs(fy-y) > 1e-6 {
		return 0, 0, false
	}
	return clamp(λ, -math.Pi, math.Pi), clamp(φ, -math.Pi/2, math.Pi/2), true
}

// rotateForward applies the view rotation to a geographic point, in radians.
func (p *Projection) rotateForward(λ, φ float64) (float64, float64) {
	δλ := toRad(p.rotate[0])
	δφ := toRad(p.rotate[1])
	δγ := toRad(p.rotate[2])

	λ += δλ
	if p.rotate[1] == 0 && p.rotate[2] == 0 {
		return wrapRad(λ), φ
	}

	cosφ := math.Cos(φ)
	a := cosφ * math.Cos(λ)
	b := cosφ * math.Sin(λ)
	c := math.Sin(φ)

	cosδφ, sinδφ := math.Cos(δφ), math.Sin(δφ)
	cosδγ, sinδγ := math.Cos(δγ), math.Sin(δγ)

	k := c*cosδφ + a*sinδφ
	λ2 := math.Atan2(b*cosδγ-k*sinδγ, a*cosδφ-c*sinδφ)
	φ2 := math.Asin(clamp(k*cosδγ+b*sinδγ, -1, 1))
	return λ2, φ2
}

// rotateInverse undoes rotateForward.
func (p *Projection) rotateInverse(λ, φ float64) (float64, float64) {
	δλ := toRad(p.rotate[0])
	δφ := toRad(p.rotate[1])
	δγ := toRad(p.rotate[2])

	if p.rotate[1] == 0 && p.rotate[2] == 0 {
		return wrapRad(λ - δλ), φ
	}

	cosφ := math.Cos(φ)
	a2 := cosφ * math.Cos(λ)
	b2 := cosφ * math.Sin(λ)
	c2 := math.Sin(φ)

	cosδφ, sinδφ := math.Cos(δφ), math.Sin(δφ)
	cosδγ, sinδγ := math.Cos(δγ), math.Sin(δγ)

	b := b2*cosδγ + c2*sinδγ
	k := c2*cosδγ - b2*sinδγ
	a := a2*cosδφ + k*sinδφ
	c := k*cosδφ - a2*sinδφ

	λ0 := math.Atan2(b, a) - δλ
	φ0 := math.Asin(clamp(c, -1, 1))
	return wrapRad(λ0), φ0
}

func toRad(d float64) float64 { return d * math.Pi / 180 }
func toDeg(r float64) float64 { return r * 180 / math.Pi }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wrapRad(λ float64) float64 {
	for λ > math.Pi {
		λ -= 2 * math.Pi
	}
	for λ < -math.Pi {
		λ += 2 * math.Pi
	}
	return λ
}

func normLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
