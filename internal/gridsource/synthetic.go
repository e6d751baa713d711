package gridsource

import (
	"context"
	"encoding/json"
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/MeKo-Tech/globegrid/internal/dataset"
)

// Synthetic generates plausible demo fields from Perlin noise, shaped by a
// latitudinal gradient so temperature-like fields look like weather, not
// static. It implements Fetcher so it can stand in for the upstream API
// (and sit behind the cache) in demos and tests.
type Synthetic struct {
	Rows int
	Cols int
	Seed int64
}

const (
	perlinAlpha  = 2.0
	perlinBeta   = 2.0
	perlinDepth  = 3
	perlinPeriod = 6.0 // noise cycles across the globe
)

// Fetch generates a document for the request's category. The URL is
// ignored; rows/cols default to a 2° global grid.
func (s *Synthetic) Fetch(_ context.Context, req Request) ([]byte, error) {
	rows, cols := s.Rows, s.Cols
	if rows <= 0 {
		rows = 90
	}
	if cols <= 0 {
		cols = 180
	}

	lat := make([]float64, rows)
	for i := range lat {
		lat[i] = -90 + (float64(i)+0.5)*180/float64(rows)
	}
	lon := make([]float64, cols)
	for j := range lon {
		lon[j] = (float64(j) + 0.5) * 360 / float64(cols)
	}

	rng := req.Category.DefaultRange()
	noise := perlin.NewPerlin(perlinAlpha, perlinBeta, perlinDepth, s.Seed)

	values := make([]float32, rows*cols)
	for i := 0; i < rows; i++ {
		// Latitudinal shape: warm equator, cold poles.
		shape := math.Cos(lat[i] * math.Pi / 180)
		for j := 0; j < cols; j++ {
			n := noise.Noise2D(
				perlinPeriod*float64(j)/float64(cols),
				perlinPeriod*float64(i)/float64(rows),
			)
			if req.Category == dataset.Precipitation && n < 0 {
				// Dry cells are exact zeros so hide-zero rendering
				// has something to hide.
				values[i*cols+j] = 0
				continue
			}
			t := 0.5 + 0.35*shape + 0.5*n // roughly [0,1]
			values[i*cols+j] = float32(rng.Min + t*(rng.Max-rng.Min))
		}
	}

	doc := Document{
		Shape:      [2]int{rows, cols},
		Values:     EncodeFloat32s(values),
		Lat:        lat,
		Lon:        lon,
		ValueRange: &[2]float64{rng.Min, rng.Max},
	}
	return json.Marshal(&doc)
}
