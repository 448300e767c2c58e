package labelmask

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"log/slog"
)

// EncodeMask serializes a mask as base64-encoded grayscale PNG. The PNG
// codec is lossless, so decode restores the raster byte for byte.
func EncodeMask(m *IndexMask) (string, error) {
	gray := image.NewGray(m.Bounds())
	for y := 0; y < m.Height(); y++ {
		src := m.Data()[y*m.Stride() : y*m.Stride()+m.Width()]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+m.Width()]
		copy(dst, src)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return "", fmt.Errorf("labelmask: encode mask: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeMask parses a base64 PNG back into a mask of the given dimensions.
//
// Any failure (bad base64, bad PNG, or a dimension mismatch against the
// current image) degrades to a blank mask instead of an error, so a
// corrupt mask never fails the surrounding project load. The degradation
// is logged at Warn.
func DecodeMask(encoded string, width, height int) *IndexMask {
	m := NewIndexMask(width, height)
	if encoded == "" {
		return m
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		Logger().Warn("mask decode failed, starting blank", "err", err)
		return m
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		Logger().Warn("mask decode failed, starting blank", "err", err)
		return m
	}

	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		Logger().Warn("mask dimensions mismatch, starting blank",
			slog.Int("have_w", b.Dx()), slog.Int("have_h", b.Dy()),
			slog.Int("want_w", width), slog.Int("want_h", height))
		return m
	}

	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < height; y++ {
			src := gray.Pix[y*gray.Stride : y*gray.Stride+width]
			dst := m.Data()[y*m.Stride() : y*m.Stride()+width]
			copy(dst, src)
		}
		return m
	}

	// Non-gray PNG (e.g. written by a foreign tool): take the red channel,
	// which equals the gray value for the files this engine writes.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			m.Set(x, y, uint8(r>>8))
		}
	}
	return m
}
