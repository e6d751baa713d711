package raster

import (
	"image"
	"image/draw"
)

// Surface is a drawing target owned by exactly one background host. It
// wraps the pixel buffer so the host can resize and blank it between
// renders without handing the raw image around.
type Surface struct {
	img *image.NRGBA
}

// NewSurface allocates a surface of the given pixel size.
func NewSurface(width, height int) *Surface {
	return &Surface{img: image.NewNRGBA(image.Rect(0, 0, width, height))}
}

// Image exposes the backing pixel buffer for rendering and compositing.
func (s *Surface) Image() *image.NRGBA { return s.img }

// Size returns the surface dimensions in pixels.
func (s *Surface) Size() (width, height int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resize reallocates the buffer at a new size, carrying over the previous
// content where it overlaps. Render state is not reset.
func (s *Surface) Resize(width, height int) {
	old := s.img
	s.img = image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(s.img, s.img.Bounds(), old, image.Point{}, draw.Src)
}

// Clear blanks the surface to fully transparent.
func (s *Surface) Clear() {
	for i := range s.img.Pix {
		s.img.Pix[i] = 0
	}
}
