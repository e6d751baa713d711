//go:build js && wasm
// +build js,wasm

package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/MeKo-Tech/globegrid/internal/gridsource"
	"github.com/MeKo-Tech/globegrid/internal/host"
	"github.com/MeKo-Tech/globegrid/internal/raster"
)

// The wasm build runs the rasterization host inside a browser worker. The
// JS side posts the same message shapes the native host understands and
// reads pixels back with globegridPixels after each "rendered" event.

var (
	bg      *host.Host
	surface *raster.Surface
)

// renderRequest is the JSON shape posted from JS: the upstream grid
// document embedded alongside the view parameters.
type renderRequest struct {
	gridsource.Document

	Width               int        `json:"width"`
	Height              int        `json:"height"`
	Colors              []string   `json:"colors"`
	Min                 *float64   `json:"min,omitempty"`
	Max                 *float64   `json:"max,omitempty"`
	HideZeroValues      bool       `json:"hideZeroValues"`
	SmoothGridBoxValues bool       `json:"smoothGridBoxValues"`
	Opacity             float64    `json:"opacity"`
	Rotate              [3]float64 `json:"rotate"`
	Scale               float64    `json:"scale"`
}

func initHost(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "init requires width and height"}
	}
	width, height := args[0].Int(), args[1].Int()
	surface = raster.NewSurface(width, height)
	bg.Init(surface)
	return nil
}

func resize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "resize requires width and height"}
	}
	bg.Resize(args[0].Int(), args[1].Int())
	return nil
}

func render(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "render requires a payload"}
	}
	var req renderRequest
	if err := json.Unmarshal([]byte(args[0].String()), &req); err != nil {
		return map[string]interface{}{"error": fmt.Sprintf("failed to parse payload: %v", err)}
	}

	g, rng, err := req.Document.Decode()
	if err != nil {
		return map[string]interface{}{"error": fmt.Sprintf("invalid grid: %v", err)}
	}
	if req.Min != nil && req.Max != nil {
		rng.Min, rng.Max = *req.Min, *req.Max
	}

	gen := bg.Render(&host.Request{
		Width:               req.Width,
		Height:              req.Height,
		Lat:                 g.Lats,
		Lon:                 g.Lons,
		Values:              g.Values,
		Mask:                g.Mask,
		Min:                 rng.Min,
		Max:                 rng.Max,
		Colors:              req.Colors,
		HideZeroValues:      req.HideZeroValues,
		SmoothGridBoxValues: req.SmoothGridBoxValues,
		Opacity:             req.Opacity,
		Rotate:              req.Rotate,
		Scale:               req.Scale,
	})
	return map[string]interface{}{"generation": gen}
}

func clear(this js.Value, args []js.Value) interface{} {
	bg.Clear()
	return nil
}

func ping(this js.Value, args []js.Value) interface{} {
	token := ""
	if len(args) > 0 {
		token = args[0].String()
	}
	bg.Ping(token)
	return nil
}

// pixels copies the surface's RGBA bytes into the provided Uint8Array.
func pixels(this js.Value, args []js.Value) interface{} {
	if surface == nil || len(args) < 1 {
		return 0
	}
	return js.CopyBytesToJS(args[0], surface.Image().Pix)
}

// onEvent registers a JS callback receiving host events as plain objects.
func onEvent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "onEvent requires a callback"}
	}
	cb := args[0]
	go func() {
		for ev := range bg.Events() {
			switch e := ev.(type) {
			case host.Rendered:
				cb.Invoke(map[string]interface{}{"type": "rendered", "generation": e.Generation})
			case host.Debug:
				ctx := make(map[string]interface{}, len(e.Context))
				for k, v := range e.Context {
					ctx[k] = fmt.Sprint(v)
				}
				cb.Invoke(map[string]interface{}{"type": "debug", "stage": e.Stage, "context": ctx})
			}
		}
	}()
	return nil
}

func main() {
	bg = host.New(nil)

	js.Global().Set("globegridInit", js.FuncOf(initHost))
	js.Global().Set("globegridResize", js.FuncOf(resize))
	js.Global().Set("globegridRender", js.FuncOf(render))
	js.Global().Set("globegridClear", js.FuncOf(clear))
	js.Global().Set("globegridPing", js.FuncOf(ping))
	js.Global().Set("globegridPixels", js.FuncOf(pixels))
	js.Global().Set("globegridOnEvent", js.FuncOf(onEvent))

	select {} // keep the module alive for the worker
}
