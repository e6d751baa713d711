package gridsource

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/globegrid/internal/colormap"
	"github.com/MeKo-Tech/globegrid/internal/dataset"
	"github.com/MeKo-Tech/globegrid/internal/grid"
)

// Request identifies one grid to fetch.
type Request struct {
	URL      string
	Category dataset.Category
	TimeStep string // opaque upstream time identifier
}

// Fingerprint returns a stable cache key for the request.
func (r Request) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s", r.URL, r.Category, r.TimeStep)
	return hex.EncodeToString(h.Sum(nil))
}

// Fetcher produces the raw document bytes for a request. Implementations:
// the HTTP source, the synthetic source, and the cache wrapping either.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// Load fetches and decodes a grid in one step. Decoding happens exactly
// once per call; the returned buffers must be treated as read-only.
func Load(ctx context.Context, f Fetcher, req Request) (*grid.Grid, colormap.Range, error) {
	raw, err := f.Fetch(ctx, req)
	if err != nil {
		return nil, colormap.Range{}, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, colormap.Range{}, fmt.Errorf("failed to parse grid document: %w", err)
	}
	return doc.Decode()
}

const (
	defaultFetchTimeout = 30 * time.Second
	maxDocumentBytes    = 256 << 20
)

// HTTPSource fetches grid documents from the upstream raster API.
type HTTPSource struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTTPSource creates an HTTP source. client may be nil, in which case a
// client with the default fetch timeout is used.
func NewHTTPSource(client *http.Client, logger *slog.Logger) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &HTTPSource{client: client, logger: logger}
}

// Fetch performs the GET and returns the raw document bytes.
func (s *HTTPSource) Fetch(ctx context.Context, req Request) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("grid fetch failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("grid fetch returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read grid document: %w", err)
	}

	s.log().Debug("fetched grid document",
		"url", req.URL,
		"category", req.Category.String(),
		"bytes", len(raw),
		"elapsed", time.Since(start),
	)
	return raw, nil
}

func (s *HTTPSource) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
