// Package gridsource fetches and decodes upstream grid documents into the
// internal grid model. A document is decoded exactly once per request and
// the decoded buffers are never mutated afterwards.
package gridsource

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/MeKo-Tech/globegrid/internal/colormap"
	"github.com/MeKo-Tech/globegrid/internal/grid"
)

// Document is the upstream JSON payload: row/col shape, base64-encoded
// little-endian float32 values, an optional base64 per-cell mask, the axis
// arrays, and a value range used as a fallback colorbar.
type Document struct {
	Shape       [2]int      `json:"shape"` // [rows, cols] = [len(lat), len(lon)]
	Values      string      `json:"values"`
	Mask        string      `json:"mask,omitempty"`
	Lat         []float64   `json:"lat"`
	Lon         []float64   `json:"lon"`
	ValueRange  *[2]float64 `json:"valueRange,omitempty"`
	ActualRange *[2]float64 `json:"actualRange,omitempty"`
}

// Decode validates the document and converts it into a Grid plus the value
// range to color against. When the document carries no range, the finite
// values' min/max is used.
func (d *Document) Decode() (*grid.Grid, colormap.Range, error) {
	rows, cols := d.Shape[0], d.Shape[1]
	if rows != len(d.Lat) || cols != len(d.Lon) {
		return nil, colormap.Range{}, fmt.Errorf("shape [%d %d] does not match %d lats, %d lons",
			rows, cols, len(d.Lat), len(d.Lon))
	}

	values, err := decodeFloat32s(d.Values)
	if err != nil {
		return nil, colormap.Range{}, fmt.Errorf("values: %w", err)
	}

	var mask []uint8
	if d.Mask != "" {
		mask, err = base64.StdEncoding.DecodeString(d.Mask)
		if err != nil {
			return nil, colormap.Range{}, fmt.Errorf("mask: %w", err)
		}
	}

	g, err := grid.New(d.Lat, d.Lon, values, mask)
	if err != nil {
		return nil, colormap.Range{}, err
	}

	var rng colormap.Range
	switch {
	case d.ValueRange != nil:
		rng = colormap.Range{Min: d.ValueRange[0], Max: d.ValueRange[1]}
	case d.ActualRange != nil:
		rng = colormap.Range{Min: d.ActualRange[0], Max: d.ActualRange[1]}
	default:
		rng = scanRange(values)
	}
	return g, rng, nil
}

func decodeFloat32s(b64 string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("byte length %d is not a multiple of 4", len(raw))
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

// EncodeFloat32s is the inverse of the values decoding, used by the
// synthetic source and tests to produce documents.
func EncodeFloat32s(values []float32) string {
	raw := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func scanRange(values []float32) colormap.Range {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
	}
	if min > max {
		return colormap.Range{}
	}
	return colormap.Range{Min: min, Max: max}
}
