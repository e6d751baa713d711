// Package gridcache is an explicit, fingerprint-keyed cache for raw grid
// documents with an injectable backing store. It replaces the pattern of a
// bare module-level map; the cache's lifetime is tied to the process that
// constructs it.
package gridcache

import (
	"context"
	"log/slog"

	"github.com/MeKo-Tech/globegrid/internal/gridsource"
)

// Store persists raw documents under their request fingerprint.
type Store interface {
	Get(fingerprint string) ([]byte, bool, error)
	Put(fingerprint string, payload []byte) error
	Close() error
}

// Cache wraps a Fetcher with a Store. It implements gridsource.Fetcher so
// callers are oblivious to whether a document came from upstream or cache.
type Cache struct {
	store  Store
	next   gridsource.Fetcher
	logger *slog.Logger
}

// New builds a cache in front of next.
func New(store Store, next gridsource.Fetcher, logger *slog.Logger) *Cache {
	return &Cache{store: store, next: next, logger: logger}
}

// Fetch returns the cached document when present, otherwise fetches from
// upstream and stores the result. Store failures degrade to fetch-through.
func (c *Cache) Fetch(ctx context.Context, req gridsource.Request) ([]byte, error) {
	fp := req.Fingerprint()

	if raw, ok, err := c.store.Get(fp); err != nil {
		c.log().Warn("cache read failed", "fingerprint", fp, "error", err)
	} else if ok {
		c.log().Debug("cache hit", "fingerprint", fp, "bytes", len(raw))
		return raw, nil
	}

	raw, err := c.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(fp, raw); err != nil {
		c.log().Warn("cache write failed", "fingerprint", fp, "error", err)
	}
	return raw, nil
}

func (c *Cache) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}
