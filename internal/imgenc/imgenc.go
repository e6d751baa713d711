// Package imgenc encodes rendered surfaces as PNG or WebP.
package imgenc

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/chai2010/webp"
)

// Format names accepted by Encode.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	if format == FormatWebP {
		return "image/webp"
	}
	return "image/png"
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatPNG, "":
		return png.Encode(w, img)
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Lossless: true})
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
}
