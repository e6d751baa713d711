// Package server exposes on-demand globe snapshot rendering over HTTP.
package server

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/globegrid/internal/dataset"
	"github.com/MeKo-Tech/globegrid/internal/gridsource"
	"github.com/MeKo-Tech/globegrid/internal/host"
	"github.com/MeKo-Tech/globegrid/internal/imgenc"
	"github.com/MeKo-Tech/globegrid/internal/raster"
)

// RenderConfig configures the snapshot handler.
type RenderConfig struct {
	// Fetcher supplies grid documents (HTTP source, synthetic, or cached).
	Fetcher gridsource.Fetcher
	// SourceURL is the upstream grid API base; dataset and time are
	// appended as query parameters. Empty for synthetic sources.
	SourceURL string

	MaxWidth      int
	MaxHeight     int
	MaxConcurrent int
	RenderTimeout time.Duration
	CacheControl  string
}

// RenderHandler renders globe snapshots on demand. Each request gets its
// own background host; concurrency is bounded by a semaphore.
type RenderHandler struct {
	cfg    RenderConfig
	sem    chan struct{}
	logger *slog.Logger
}

// NewRenderHandler validates the config and builds a handler.
func NewRenderHandler(cfg RenderConfig, logger *slog.Logger) (*RenderHandler, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = 4096
	}
	if cfg.MaxHeight <= 0 {
		cfg.MaxHeight = 4096
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = time.Minute
	}
	return &RenderHandler{
		cfg:    cfg,
		sem:    make(chan struct{}, cfg.MaxConcurrent),
		logger: logger,
	}, nil
}

func (h *RenderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	default:
		http.Error(w, "too many concurrent renders", http.StatusServiceUnavailable)
		return
	}

	params, err := h.parseParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	g, rng, err := gridsource.Load(r.Context(), h.cfg.Fetcher, params.source)
	if err != nil {
		h.log().Error("grid load failed", "url", params.source.URL, "error", err)
		http.Error(w, "failed to load grid", http.StatusBadGateway)
		return
	}

	req := &host.Request{
		Width:               params.width,
		Height:              params.height,
		Lat:                 g.Lats,
		Lon:                 g.Lons,
		Values:              g.Values,
		Mask:                g.Mask,
		Min:                 rng.Min,
		Max:                 rng.Max,
		Colors:              params.source.Category.DefaultColors(),
		HideZeroValues:      params.source.Category.HideZeroDefault(),
		SmoothGridBoxValues: params.smooth,
		Opacity:             params.opacity,
		Rotate:              params.rotate,
		Scale:               params.scale,
	}

	bg := host.New(h.logger)
	defer bg.Close()

	surface := raster.NewSurface(params.width, params.height)
	bg.Init(surface)
	gen := bg.Render(req)

	if err := h.await(bg, gen); err != nil {
		h.log().Error("render failed", "dataset", params.source.Category.String(), "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := imgenc.Encode(&buf, surface.Image(), params.format); err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", imgenc.ContentType(params.format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if h.cfg.CacheControl != "" {
		w.Header().Set("Cache-Control", h.cfg.CacheControl)
	}
	_, _ = w.Write(buf.Bytes())

	h.log().Info("snapshot rendered",
		"dataset", params.source.Category.String(),
		"size", fmt.Sprintf("%dx%d", params.width, params.height),
		"smooth", params.smooth,
		"elapsed", time.Since(start),
	)
}

type renderParams struct {
	source  gridsource.Request
	width   int
	height  int
	rotate  [3]float64
	scale   float64
	smooth  bool
	opacity float64
	format  string
}

func (h *RenderHandler) parseParams(r *http.Request) (renderParams, error) {
	q := r.URL.Query()
	p := renderParams{
		width:   min(1024, h.cfg.MaxWidth),
		height:  min(512, h.cfg.MaxHeight),
		smooth:  true,
		opacity: 1.0,
		format:  imgenc.FormatPNG,
	}

	category, err := dataset.Parse(firstOr(q, "dataset", "temperature"))
	if err != nil {
		return p, err
	}
	p.source = gridsource.Request{
		URL:      h.documentURL(category, q.Get("time")),
		Category: category,
		TimeStep: q.Get("time"),
	}

	if v := q.Get("width"); v != "" {
		if p.width, err = strconv.Atoi(v); err != nil {
			return p, fmt.Errorf("invalid width %q", v)
		}
	}
	if v := q.Get("height"); v != "" {
		if p.height, err = strconv.Atoi(v); err != nil {
			return p, fmt.Errorf("invalid height %q", v)
		}
	}
	if p.width <= 0 || p.height <= 0 || p.width > h.cfg.MaxWidth || p.height > h.cfg.MaxHeight {
		return p, fmt.Errorf("canvas size %dx%d out of bounds", p.width, p.height)
	}

	if v := q.Get("rotate"); v != "" {
		parts := strings.Split(v, ",")
		if len(parts) > 3 {
			return p, fmt.Errorf("invalid rotate %q", v)
		}
		for i, part := range parts {
			if p.rotate[i], err = strconv.ParseFloat(strings.TrimSpace(part), 64); err != nil {
				return p, fmt.Errorf("invalid rotate %q", v)
			}
		}
	}
	if v := q.Get("scale"); v != "" {
		if p.scale, err = strconv.ParseFloat(v, 64); err != nil || p.scale < 0 {
			return p, fmt.Errorf("invalid scale %q", v)
		}
	}
	if v := q.Get("smooth"); v != "" {
		if p.smooth, err = strconv.ParseBool(v); err != nil {
			return p, fmt.Errorf("invalid smooth %q", v)
		}
	}
	if v := q.Get("opacity"); v != "" {
		if p.opacity, err = strconv.ParseFloat(v, 64); err != nil || p.opacity < 0 || p.opacity > 1 {
			return p, fmt.Errorf("invalid opacity %q", v)
		}
	}
	if v := q.Get("format"); v != "" {
		if v != imgenc.FormatPNG && v != imgenc.FormatWebP {
			return p, fmt.Errorf("unsupported format %q", v)
		}
		p.format = v
	}
	return p, nil
}

// documentURL derives the upstream document URL for a dataset/time pair.
func (h *RenderHandler) documentURL(category dataset.Category, timeStep string) string {
	if h.cfg.SourceURL == "" {
		return ""
	}
	v := url.Values{}
	v.Set("dataset", category.String())
	if timeStep != "" {
		v.Set("time", timeStep)
	}
	return h.cfg.SourceURL + "?" + v.Encode()
}

func (h *RenderHandler) await(bg *host.Host, gen uint64) error {
	deadline := time.After(h.cfg.RenderTimeout)
	for {
		select {
		case ev := <-bg.Events():
			switch e := ev.(type) {
			case host.Rendered:
				if e.Generation == gen {
					return nil
				}
			case host.Debug:
				if errMsg, ok := e.Context["error"]; ok {
					return fmt.Errorf("%s: %v", e.Stage, errMsg)
				}
			}
		case <-deadline:
			return fmt.Errorf("render did not complete within %s", h.cfg.RenderTimeout)
		}
	}
}

func firstOr(q url.Values, key, fallback string) string {
	if v := q.Get(key); v != "" {
		return v
	}
	return fallback
}

func (h *RenderHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
