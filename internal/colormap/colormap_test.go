package colormap

import (
	"image/color"
	"math"
	"testing"
)

func mustMapper(t *testing.T, hexes []string, rng Range) *Mapper {
	t.Helper()
	stops, err := ParseHexColors(hexes)
	if err != nil {
		t.Fatalf("ParseHexColors(%v) error: %v", hexes, err)
	}
	m, err := NewMapper(stops, rng)
	if err != nil {
		t.Fatalf("NewMapper error: %v", err)
	}
	return m
}

func TestParseHexColors(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#ff0000", color.NRGBA{R: 255, A: 255}, false},
		{"00ff00", color.NRGBA{G: 255, A: 255}, false},
		{"#0000ff80", color.NRGBA{B: 255, A: 128}, false},
		{"#abc", color.NRGBA{}, true},
		{"#gggggg", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHex(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseHex(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := ParseHexColors(nil); err == nil {
		t.Error("ParseHexColors(nil) should fail")
	}
}

func TestTwoStopRampEndpointsAndMidpoint(t *testing.T) {
	m := mustMapper(t, []string{"#0000ff", "#ff0000"}, Range{Min: 10, Max: 20})

	if got := m.At(10); got != (color.NRGBA{B: 255, A: 255}) {
		t.Errorf("At(min) = %v, want pure blue", got)
	}
	if got := m.At(20); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("At(max) = %v, want pure red", got)
	}

	// Channel-wise average of the two stops, rounded to nearest.
	want := color.NRGBA{R: 128, G: 0, B: 128, A: 255}
	if got := m.At(15); got != want {
		t.Errorf("At(mid) = %v, want %v", got, want)
	}
}

func TestClampOutsideRange(t *testing.T) {
	m := mustMapper(t, []string{"#000000", "#ffffff"}, Range{Min: 0, Max: 1})
	if got := m.At(-5); got != (color.NRGBA{A: 255}) {
		t.Errorf("At(below min) = %v, want first stop", got)
	}
	if got := m.At(5); got != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("At(above max) = %v, want last stop", got)
	}
}

func TestDegenerateRange(t *testing.T) {
	m := mustMapper(t, []string{"#112233", "#ffffff"}, Range{Min: 7, Max: 7})
	want := color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 255}
	for _, v := range []float64{-100, 0, 7, 100} {
		if got := m.At(v); got != want {
			t.Errorf("At(%g) with degenerate range = %v, want first stop %v", v, got, want)
		}
	}
}

func TestNonFiniteIsTransparent(t *testing.T) {
	m := mustMapper(t, []string{"#ff0000", "#00ff00"}, Range{Min: 0, Max: 1})
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := m.At(v); got.A != 0 {
			t.Errorf("At(%g) alpha = %d, want 0", v, got.A)
		}
	}
}

func TestSingleStop(t *testing.T) {
	m := mustMapper(t, []string{"#123456"}, Range{Min: 0, Max: 100})
	want := color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 255}
	for _, v := range []float64{0, 50, 100} {
		if got := m.At(v); got != want {
			t.Errorf("At(%g) = %v, want the single stop %v", v, got, want)
		}
	}
}

func TestThreeStopMidpoint(t *testing.T) {
	m := mustMapper(t, []string{"#0000ff", "#ffffff", "#ff0000"}, Range{Min: 0, Max: 30})
	want := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if got := m.At(15); got != want {
		t.Errorf("At(15) = %v, want exact middle stop %v", got, want)
	}
}
