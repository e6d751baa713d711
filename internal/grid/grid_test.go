package grid

import (
	"math"
	"testing"
)

func TestNewValidatesLengths(t *testing.T) {
	tests := []struct {
		name    string
		lats    []float64
		lons    []float64
		values  []float32
		mask    []uint8
		wantErr bool
	}{
		{"valid", []float64{0, 10}, []float64{0, 10}, make([]float32, 4), nil, false},
		{"valid with mask", []float64{0, 10}, []float64{0, 10}, make([]float32, 4), make([]uint8, 4), false},
		{"empty lats", nil, []float64{0, 10}, nil, nil, true},
		{"short values", []float64{0, 10}, []float64{0, 10}, make([]float32, 3), nil, true},
		{"short mask", []float64{0, 10}, []float64{0, 10}, make([]float32, 4), make([]uint8, 3), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.lats, tt.lons, tt.values, tt.mask)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValid(t *testing.T) {
	g, err := New(
		[]float64{0, 10},
		[]float64{0, 10},
		[]float32{1, float32(math.NaN()), 3, 4},
		[]uint8{1, 1, 0, 1},
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if !g.Valid(0, 0) {
		t.Error("cell (0,0) should be valid")
	}
	if g.Valid(0, 1) {
		t.Error("NaN cell (0,1) should be invalid")
	}
	if g.Valid(1, 0) {
		t.Error("masked cell (1,0) should be invalid")
	}
}

func TestBracket(t *testing.T) {
	asc := []float64{0, 10, 20, 30}
	desc := []float64{30, 20, 10, 0}

	tests := []struct {
		name     string
		axis     []float64
		v        float64
		wantIdx  int
		wantFrac float64
		wantOK   bool
	}{
		{"asc interior", asc, 15, 1, 0.5, true},
		{"asc exact center", asc, 10, 1, 0, true},
		{"asc first", asc, 0, 0, 0, true},
		{"asc last", asc, 30, 2, 1, true},
		{"asc below", asc, -1, 0, 0, false},
		{"asc above", asc, 31, 0, 0, false},
		{"desc interior", desc, 15, 1, 0.5, true},
		{"desc below", desc, -1, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, frac, ok := Bracket(tt.axis, tt.v)
			if ok != tt.wantOK {
				t.Fatalf("Bracket(%v) ok = %v, want %v", tt.v, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if i != tt.wantIdx {
				t.Errorf("Bracket(%v) index = %d, want %d", tt.v, i, tt.wantIdx)
			}
			if math.Abs(frac-tt.wantFrac) > 1e-12 {
				t.Errorf("Bracket(%v) frac = %g, want %g", tt.v, frac, tt.wantFrac)
			}
		})
	}
}

func TestLonConvention(t *testing.T) {
	tests := []struct {
		name string
		lons []float64
		want LonMode
	}{
		{"0..360 grid", []float64{0, 90, 180, 270, 359}, Lon360},
		{"-180..180 grid", []float64{-179, -90, 0, 90, 179}, Lon180},
		{"narrow positive", []float64{0, 5, 10}, LonCentered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Grid{Lons: tt.lons}
			if got := g.LonConvention(); got != tt.want {
				t.Errorf("LonConvention() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeLon(t *testing.T) {
	tests := []struct {
		lon    float64
		mode   LonMode
		center float64
		want   float64
	}{
		{-90, Lon360, 0, 270},
		{370, Lon360, 0, 10},
		{270, Lon180, 0, -90},
		{180, Lon180, 0, 180},
		{-180, Lon180, 0, 180},
		{540, Lon180, 0, 180},
		{-90, Lon180, 0, -90},
		{190, LonCentered, 0, -170},
		{-170, LonCentered, 180, 190},
	}

	for _, tt := range tests {
		got := NormalizeLon(tt.lon, tt.mode, tt.center)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("NormalizeLon(%g, %v, %g) = %g, want %g", tt.lon, tt.mode, tt.center, got, tt.want)
		}
	}
}

func TestGlobal(t *testing.T) {
	global := &Grid{Lons: []float64{0, 359}}
	if !global.Global() {
		t.Error("359-degree span should be global")
	}
	regional := &Grid{Lons: []float64{0, 40}}
	if regional.Global() {
		t.Error("40-degree span should not be global")
	}
}
