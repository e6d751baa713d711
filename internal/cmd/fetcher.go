package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/MeKo-Tech/globegrid/internal/gridcache"
	"github.com/MeKo-Tech/globegrid/internal/gridsource"
)

// newFetcher builds the document pipeline from the shared flags: an HTTP
// source when --source is set, synthetic demo grids otherwise, and a cache
// in front (SQLite when --cache-db is set, in-memory otherwise).
func newFetcher(seed int64) (gridsource.Fetcher, func() error, error) {
	var upstream gridsource.Fetcher
	if viper.GetString("source") != "" {
		upstream = gridsource.NewHTTPSource(nil, logger)
	} else {
		upstream = &gridsource.Synthetic{Seed: seed}
	}

	var store gridcache.Store
	if path := viper.GetString("cache-db"); path != "" {
		s, err := gridcache.NewSQLiteStore(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open grid cache: %w", err)
		}
		store = s
	} else {
		store = gridcache.NewMemoryStore()
	}

	return gridcache.New(store, upstream, logger), store.Close, nil
}

// parseRotate parses "lon,lat,roll" (degrees); missing components are zero.
func parseRotate(s string) ([3]float64, error) {
	var rotate [3]float64
	if s == "" {
		return rotate, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) > 3 {
		return rotate, fmt.Errorf("rotate %q: expected up to 3 components", s)
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return rotate, fmt.Errorf("rotate %q: %w", s, err)
		}
		rotate[i] = v
	}
	return rotate, nil
}
