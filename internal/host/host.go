// Package host runs the rasterization pipeline on a dedicated background
// goroutine per globe view. The interactive caller only posts messages and
// drains events; the host exclusively owns the drawing surface.
package host

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MeKo-Tech/globegrid/internal/colormap"
	"github.com/MeKo-Tech/globegrid/internal/grid"
	"github.com/MeKo-Tech/globegrid/internal/raster"
)

// Request is the wire shape of one render message, mirroring the upstream
// payload: raw axis arrays, flat value buffer, hex colors, and view
// parameters. The host validates it and builds the internal payload.
type Request struct {
	Width  int
	Height int

	Lat    []float64
	Lon    []float64
	Values []float32
	Mask   []uint8

	Min    float64
	Max    float64
	Colors []string

	HideZeroValues      bool
	SmoothGridBoxValues bool
	Opacity             float64

	Rotate    [3]float64
	Scale     float64
	Translate [2]float64
}

func (req *Request) payload() (*raster.Payload, error) {
	g, err := grid.New(req.Lat, req.Lon, req.Values, req.Mask)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	stops, err := colormap.ParseHexColors(req.Colors)
	if err != nil {
		return nil, fmt.Errorf("colors: %w", err)
	}
	p := &raster.Payload{
		Width:          req.Width,
		Height:         req.Height,
		Grid:           g,
		Stops:          stops,
		Range:          colormap.Range{Min: req.Min, Max: req.Max},
		HideZeroValues: req.HideZeroValues,
		Smooth:         req.SmoothGridBoxValues,
		Opacity:        req.Opacity,
		Rotate:         req.Rotate,
		Scale:          req.Scale,
		Translate:      req.Translate,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Event is a host → caller message.
type Event interface{ event() }

// Rendered signals completion of one render pass. It is the only event
// callers should treat as a functional contract; they compare Generation
// against the id returned by Render to discard stale completions.
type Rendered struct {
	Generation uint64
}

// Debug is a diagnostic echo. Non-contractual.
type Debug struct {
	Stage   string
	Context map[string]any
}

func (Rendered) event() {}
func (Debug) event()    {}

type message struct {
	kind    string
	surface *raster.Surface
	width   int
	height  int
	request *Request
	gen     uint64
	token   string
}

// Host is the background execution actor. Messages are processed strictly
// in the order posted; a render posted while another is mid-flight
// supersedes it via the generation counter.
type Host struct {
	renderer *raster.Renderer
	logger   *slog.Logger

	mailbox chan message
	events  chan Event

	surface *raster.Surface

	latest   atomic.Uint64 // generation of the most recently posted render
	clearing atomic.Bool   // set by Clear until the blank is applied

	closeOnce sync.Once
	done      chan struct{}
}

// New starts a host with its own goroutine. Close releases it.
func New(logger *slog.Logger) *Host {
	h := &Host{
		renderer: raster.New(logger),
		logger:   logger,
		mailbox:  make(chan message, 128),
		events:   make(chan Event, 128),
		done:     make(chan struct{}),
	}
	go h.loop()
	return h
}

// Events returns the host → caller event stream. The caller should drain
// it; the host drops events rather than block when the buffer is full.
func (h *Host) Events() <-chan Event { return h.events }

// Init binds the primary drawing surface.
func (h *Host) Init(surface *raster.Surface) {
	h.post(message{kind: "init", surface: surface})
}

// Resize resizes the bound surface without clearing render state.
func (h *Host) Resize(width, height int) {
	h.post(message{kind: "resize", width: width, height: height})
}

// Render queues one rasterization pass and returns its generation id.
// A later Render supersedes any in-flight pass.
func (h *Host) Render(req *Request) uint64 {
	gen := h.latest.Add(1)
	h.post(message{kind: "render", request: req, gen: gen})
	return gen
}

// Clear blanks the primary surface. It also acts as the advisory
// cancellation primitive: any in-flight pass short-circuits.
func (h *Host) Clear() {
	h.clearing.Store(true)
	h.post(message{kind: "clear"})
}

// Ping requests a debug echo carrying the token back.
func (h *Host) Ping(token string) {
	h.post(message{kind: "ping", token: token})
}

// Close shuts the host down. No further messages may be posted.
func (h *Host) Close() {
	h.closeOnce.Do(func() {
		close(h.mailbox)
		<-h.done
	})
}

func (h *Host) post(m message) {
	h.mailbox <- m
}

func (h *Host) loop() {
	defer close(h.done)
	for m := range h.mailbox {
		h.handle(m)
	}
}

// handle dispatches one message. Nothing here may take the host down: all
// failures degrade to a debug event so the actor stays available.
func (h *Host) handle(m message) {
	defer func() {
		if r := recover(); r != nil {
			h.log().Error("host recovered from panic", "kind", m.kind, "panic", r)
			h.emit(Debug{Stage: "panic", Context: map[string]any{"kind": m.kind, "panic": fmt.Sprint(r)}})
		}
	}()

	switch m.kind {
	case "init":
		h.surface = m.surface
		h.emit(Debug{Stage: "init"})
	case "resize":
		if h.surface == nil {
			h.emit(Debug{Stage: "resize", Context: map[string]any{"error": "surface not initialized"}})
			return
		}
		h.surface.Resize(m.width, m.height)
		h.emit(Debug{Stage: "resize", Context: map[string]any{"width": m.width, "height": m.height}})
	case "render":
		h.render(m)
	case "clear":
		if h.surface != nil {
			h.surface.Clear()
		}
		h.clearing.Store(false)
		h.emit(Debug{Stage: "clear"})
	case "ping":
		h.emit(Debug{Stage: "pong", Context: map[string]any{"token": m.token}})
	default:
		h.emit(Debug{Stage: "unrecognized", Context: map[string]any{"kind": m.kind}})
	}
}

func (h *Host) render(m message) {
	if h.surface == nil {
		h.emit(Debug{Stage: "render", Context: map[string]any{"error": "surface not initialized"}})
		return
	}
	if m.request == nil {
		h.emit(Debug{Stage: "render", Context: map[string]any{"error": "missing payload"}})
		return
	}

	p, err := m.request.payload()
	if err != nil {
		h.log().Warn("refusing malformed render payload", "error", err)
		h.emit(Debug{Stage: "render", Context: map[string]any{"error": err.Error()}})
		return
	}

	cancelled := func() bool {
		return h.clearing.Load() || m.gen != h.latest.Load()
	}
	switch err := h.renderer.Render(h.surface.Image(), p, cancelled); err {
	case nil:
		h.emit(Rendered{Generation: m.gen})
	case raster.ErrCanceled:
		h.emit(Debug{Stage: "render", Context: map[string]any{"superseded": m.gen}})
	default:
		h.emit(Debug{Stage: "render", Context: map[string]any{"error": err.Error()}})
	}
}

// emit never blocks; a slow caller loses diagnostics, not the host.
func (h *Host) emit(ev Event) {
	select {
	case h.events <- ev:
	default:
		h.log().Debug("dropping event; caller not draining", "event", fmt.Sprintf("%T", ev))
	}
}

func (h *Host) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
