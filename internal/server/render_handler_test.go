package server

import (
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/globegrid/internal/gridsource"
)

func newTestHandler(t *testing.T) *RenderHandler {
	t.Helper()
	h, err := NewRenderHandler(RenderConfig{
		Fetcher:       &gridsource.Synthetic{Rows: 18, Cols: 36, Seed: 1},
		MaxWidth:      512,
		MaxHeight:     256,
		MaxConcurrent: 2,
		RenderTimeout: 30 * time.Second,
		CacheControl:  "max-age=60",
	}, nil)
	require.NoError(t, err)
	return h
}

func TestRenderHandlerServesPNG(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/render?dataset=temperature&width=128&height=64", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, "max-age=60", rec.Header().Get("Cache-Control"))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	require.Equal(t, 128, img.Bounds().Dx())
	require.Equal(t, 64, img.Bounds().Dy())
}

// A parameterless request must succeed even when the configured maxima sit
// below the built-in default canvas size; the defaults clamp to the limits.
func TestRenderHandlerDefaultSizeRespectsLimits(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/render", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	require.Equal(t, 512, img.Bounds().Dx())
	require.Equal(t, 256, img.Bounds().Dy())
}

func TestRenderHandlerRejectsBadParams(t *testing.T) {
	h := newTestHandler(t)

	for name, query := range map[string]string{
		"unknown dataset": "dataset=ozone",
		"oversized":       "width=9999",
		"zero height":     "height=0",
		"bad rotate":      "rotate=a,b",
		"bad opacity":     "opacity=2",
		"bad format":      "format=gif",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/render?"+query, nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRenderHandlerAppliesViewParams(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet,
		"/render?dataset=wind&width=64&height=32&rotate=-120,23,0&smooth=false&opacity=0.5&format=webp", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
	require.NotZero(t, rec.Body.Len())
}

// A saturated semaphore answers 503 instead of queueing.
func TestRenderHandlerShedsLoad(t *testing.T) {
	h := newTestHandler(t)
	h.sem <- struct{}{}
	h.sem <- struct{}{}

	req := httptest.NewRequest(http.MethodGet, "/render", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRenderHandlerRequiresFetcher(t *testing.T) {
	_, err := NewRenderHandler(RenderConfig{}, nil)
	require.Error(t, err)
}

// errFetcher always fails upstream.
type errFetcher struct{}

func (errFetcher) Fetch(context.Context, gridsource.Request) ([]byte, error) {
	return nil, context.DeadlineExceeded
}

func TestRenderHandlerBadGatewayOnUpstreamFailure(t *testing.T) {
	h, err := NewRenderHandler(RenderConfig{Fetcher: errFetcher{}}, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/render", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDocumentURL(t *testing.T) {
	h, err := NewRenderHandler(RenderConfig{
		Fetcher:   &gridsource.Synthetic{},
		SourceURL: "https://api.example.com/grids",
	}, nil)
	require.NoError(t, err)

	params, err := h.parseParams(httptest.NewRequest(http.MethodGet, "/render?dataset=pressure&time=12", nil))
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com/grids?dataset=pressure&time=12", params.source.URL)

	// Synthetic deployments carry no upstream; the URL stays empty.
	h2 := newTestHandler(t)
	params, err = h2.parseParams(httptest.NewRequest(http.MethodGet, "/render", nil))
	require.NoError(t, err)
	require.Empty(t, params.source.URL)
}
