package raster

import (
	"errors"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/globegrid/internal/colormap"
	"github.com/MeKo-Tech/globegrid/internal/projection"
)

// ErrCanceled is returned when a render pass is abandoned because a newer
// request or a clear superseded it mid-flight.
var ErrCanceled = errors.New("render canceled")

// Renderer runs one rasterization pass per call. It holds no per-pass
// state; the same renderer serves successive payloads.
type Renderer struct {
	logger *slog.Logger
}

// New creates a renderer. logger may be nil.
func New(logger *slog.Logger) *Renderer {
	return &Renderer{logger: logger}
}

func (r *Renderer) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// Render rasterizes the payload onto dst using the strategy the payload
// selects. Pixels outside the rendered cells are left untouched; the
// caller owns any clearing. cancelled, when non-nil, is polled between
// row/cell iterations so superseded passes stop early.
func (r *Renderer) Render(dst *image.NRGBA, p *Payload, cancelled func() bool) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if cancelled == nil {
		cancelled = func() bool { return false }
	}

	mapper, err := colormap.NewMapper(p.Stops, p.Range)
	if err != nil {
		return err
	}

	proj := projection.New(p.Width, p.Height)
	proj.SetRotate(p.Rotate)
	if p.Scale > 0 {
		proj.SetScale(p.Scale)
	}
	if p.Translate != [2]float64{} {
		proj.SetTranslate(p.Translate)
	}

	if p.Smooth {
		return r.renderSmooth(dst, p, proj, mapper, cancelled)
	}
	return r.renderBlocky(dst, p, proj, mapper, cancelled)
}
