// Package dataset defines the closed set of dataset categories the engine
// renders, each carrying its own color-scale defaults. Callers select a
// category explicitly instead of string-matching dataset names at runtime.
package dataset

import (
	"fmt"

	"github.com/MeKo-Tech/globegrid/internal/colormap"
)

// Category identifies one kind of scientific field.
type Category int

const (
	Temperature Category = iota
	Precipitation
	Wind
	Pressure
	Humidity
)

var names = map[Category]string{
	Temperature:   "temperature",
	Precipitation: "precipitation",
	Wind:          "wind",
	Pressure:      "pressure",
	Humidity:      "humidity",
}

func (c Category) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Parse maps a category name to its Category.
func Parse(name string) (Category, error) {
	for c, n := range names {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown dataset category %q", name)
}

// DefaultColors returns the category's default color ramp as hex strings,
// low value first.
func (c Category) DefaultColors() []string {
	switch c {
	case Temperature:
		return []string{"#313695", "#74add1", "#ffffff", "#f46d43", "#a50026"}
	case Precipitation:
		return []string{"#f7fbff", "#9ecae1", "#2171b5", "#08306b"}
	case Wind:
		return []string{"#f7fcf5", "#a1d99b", "#238b45", "#00441b"}
	case Pressure:
		return []string{"#40004b", "#c2a5cf", "#f7f7f7", "#a6dba0", "#00441b"}
	case Humidity:
		return []string{"#8c510a", "#f6e8c3", "#c7eae5", "#01665e"}
	default:
		return []string{"#000000", "#ffffff"}
	}
}

// DefaultRange returns the category's fallback value range, used when the
// upstream document carries no explicit one.
func (c Category) DefaultRange() colormap.Range {
	switch c {
	case Temperature:
		return colormap.Range{Min: -40, Max: 40} // °C
	case Precipitation:
		return colormap.Range{Min: 0, Max: 20} // mm/day
	case Wind:
		return colormap.Range{Min: 0, Max: 30} // m/s
	case Pressure:
		return colormap.Range{Min: 950, Max: 1050} // hPa
	case Humidity:
		return colormap.Range{Min: 0, Max: 100} // %
	default:
		return colormap.Range{Min: 0, Max: 1}
	}
}

// HideZeroDefault reports whether exact-zero values should be hidden by
// default. Zero precipitation is valid data but would visually dominate.
func (c Category) HideZeroDefault() bool {
	return c == Precipitation
}
