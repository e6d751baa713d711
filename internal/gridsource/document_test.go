package gridsource

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/globegrid/internal/dataset"
)

func testDocument() *Document {
	return &Document{
		Shape:      [2]int{2, 3},
		Values:     EncodeFloat32s([]float32{1, 2, 3, 4, 5, 6}),
		Lat:        []float64{-10, 10},
		Lon:        []float64{0, 120, 240},
		ValueRange: &[2]float64{0, 10},
	}
}

func TestDocumentDecode(t *testing.T) {
	g, rng, err := testDocument().Decode()
	require.NoError(t, err)
	require.Equal(t, []float64{-10, 10}, g.Lats)
	require.Equal(t, []float64{0, 120, 240}, g.Lons)
	require.InDelta(t, 5.0, g.At(1, 1), 1e-9)
	require.Equal(t, 0.0, rng.Min)
	require.Equal(t, 10.0, rng.Max)
}

func TestDocumentDecodeMask(t *testing.T) {
	doc := testDocument()
	doc.Mask = base64.StdEncoding.EncodeToString([]byte{1, 1, 0, 1, 1, 1})

	g, _, err := doc.Decode()
	require.NoError(t, err)
	require.False(t, g.Valid(0, 2), "mask byte 0 marks no-data")
	require.True(t, g.Valid(0, 1))
}

func TestDocumentDecodeRejectsBadShape(t *testing.T) {
	doc := testDocument()
	doc.Shape = [2]int{3, 2}
	if _, _, err := doc.Decode(); err == nil {
		t.Error("mismatched shape must be rejected")
	}
}

func TestDocumentDecodeRejectsBadValues(t *testing.T) {
	for name, values := range map[string]string{
		"not base64":     "not*base64!",
		"truncated word": base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
	} {
		t.Run(name, func(t *testing.T) {
			doc := testDocument()
			doc.Values = values
			if _, _, err := doc.Decode(); err == nil {
				t.Error("malformed value buffer must be rejected")
			}
		})
	}
}

func TestDocumentRangeFallbacks(t *testing.T) {
	doc := testDocument()
	doc.ValueRange = nil
	doc.ActualRange = &[2]float64{2, 8}
	_, rng, err := doc.Decode()
	require.NoError(t, err)
	require.Equal(t, 2.0, rng.Min)
	require.Equal(t, 8.0, rng.Max)

	// Without either range the finite values are scanned; non-finite
	// entries are ignored.
	doc.ActualRange = nil
	doc.Values = EncodeFloat32s([]float32{3, float32(math.NaN()), 7, 5, float32(math.Inf(1)), 4})
	_, rng, err = doc.Decode()
	require.NoError(t, err)
	require.Equal(t, 3.0, rng.Min)
	require.Equal(t, 7.0, rng.Max)
}

func TestLoadViaHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		require.NoError(t, json.NewEncoder(w).Encode(testDocument()))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.Client(), nil)
	g, rng, err := Load(context.Background(), src, Request{URL: srv.URL})
	require.NoError(t, err)
	require.Len(t, g.Values, 6)
	require.Equal(t, 10.0, rng.Max)
}

func TestHTTPSourceRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.Client(), nil).Fetch(context.Background(), Request{URL: srv.URL})
	require.ErrorContains(t, err, "status 502")
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, _, err := Load(context.Background(), NewHTTPSource(srv.Client(), nil), Request{URL: srv.URL})
	require.ErrorContains(t, err, "parse grid document")
}

func TestRequestFingerprint(t *testing.T) {
	a := Request{URL: "https://api/x", Category: dataset.Temperature, TimeStep: "0"}
	b := a
	require.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.TimeStep = "1"
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	require.Len(t, a.Fingerprint(), 64)
}

func TestSyntheticProducesDecodableGlobalGrid(t *testing.T) {
	s := &Synthetic{Rows: 30, Cols: 60, Seed: 7}
	g, rng, err := Load(context.Background(), s, Request{Category: dataset.Temperature})
	require.NoError(t, err)

	require.Len(t, g.Lats, 30)
	require.Len(t, g.Lons, 60)
	require.True(t, g.Global(), "synthetic grids cover the full circle of longitude")
	require.Less(t, rng.Min, rng.Max)

	for i := range g.Lats {
		for j := range g.Lons {
			if !g.Valid(i, j) {
				t.Fatalf("synthetic cell (%d,%d) not finite", i, j)
			}
		}
	}
}

func TestSyntheticDeterministicPerSeed(t *testing.T) {
	req := Request{Category: dataset.Wind}
	a, err := (&Synthetic{Seed: 3}).Fetch(context.Background(), req)
	require.NoError(t, err)
	b, err := (&Synthetic{Seed: 3}).Fetch(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := (&Synthetic{Seed: 4}).Fetch(context.Background(), req)
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestSyntheticPrecipitationHasDryCells(t *testing.T) {
	g, _, err := Load(context.Background(), &Synthetic{Seed: 1}, Request{Category: dataset.Precipitation})
	require.NoError(t, err)

	zeros := 0
	for _, v := range g.Values {
		if v == 0 {
			zeros++
		}
	}
	require.Positive(t, zeros, "precipitation fields carry exact-zero dry cells")
}
