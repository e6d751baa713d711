package gridcache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/globegrid/internal/gridsource"
)

// countingFetcher returns a distinct payload per call and counts calls.
type countingFetcher struct {
	calls int
	err   error
}

func (f *countingFetcher) Fetch(_ context.Context, _ gridsource.Request) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte(fmt.Sprintf("payload-%d", f.calls)), nil
}

// failingStore errors on every operation.
type failingStore struct{}

func (failingStore) Get(string) ([]byte, bool, error) { return nil, false, errors.New("store down") }
func (failingStore) Put(string, []byte) error         { return errors.New("store down") }
func (failingStore) Close() error                     { return nil }

func TestCacheHitSkipsUpstream(t *testing.T) {
	up := &countingFetcher{}
	c := New(NewMemoryStore(), up, nil)
	req := gridsource.Request{URL: "https://api/grid", TimeStep: "0"}

	first, err := c.Fetch(context.Background(), req)
	require.NoError(t, err)
	second, err := c.Fetch(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, first, second, "second fetch must come from cache")
	require.Equal(t, 1, up.calls, "upstream consulted exactly once")
}

func TestCacheKeysByFingerprint(t *testing.T) {
	up := &countingFetcher{}
	c := New(NewMemoryStore(), up, nil)

	_, err := c.Fetch(context.Background(), gridsource.Request{URL: "https://api/grid", TimeStep: "0"})
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), gridsource.Request{URL: "https://api/grid", TimeStep: "1"})
	require.NoError(t, err)

	require.Equal(t, 2, up.calls, "different time steps are distinct cache entries")
}

func TestCacheDegradesToFetchThroughOnStoreFailure(t *testing.T) {
	up := &countingFetcher{}
	c := New(failingStore{}, up, nil)
	req := gridsource.Request{URL: "https://api/grid"}

	raw, err := c.Fetch(context.Background(), req)
	require.NoError(t, err, "store failures must not fail the fetch")
	require.Equal(t, []byte("payload-1"), raw)

	_, err = c.Fetch(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 2, up.calls, "broken store means every fetch goes upstream")
}

func TestCachePropagatesUpstreamError(t *testing.T) {
	up := &countingFetcher{err: errors.New("upstream down")}
	c := New(NewMemoryStore(), up, nil)

	_, err := c.Fetch(context.Background(), gridsource.Request{URL: "https://api/grid"})
	require.ErrorContains(t, err, "upstream down")
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close() // nolint:errcheck

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Put("fp", []byte("doc")))
	raw, ok, err := s.Get("fp")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("doc"), raw)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Put("fp", []byte("doc-v1")))
	require.NoError(t, s.Put("fp", []byte("doc-v2")), "replace is an upsert")

	raw, ok, err := s.Get("fp")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("doc-v2"), raw)
	require.NoError(t, s.Close())

	// Entries survive reopening the file.
	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close() // nolint:errcheck

	raw, ok, err = s.Get("fp")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("doc-v2"), raw)
}
