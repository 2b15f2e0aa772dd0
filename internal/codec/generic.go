// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package codec

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/go-fiv/fiv/internal/exifmeta"
	"github.com/go-fiv/fiv/internal/numeric"
)

// genericCodec covers every format with a registered stdlib or
// golang.org/x/image decoder (PNG, GIF, WEBP, BMP, TIFF) via the standard
// image.Decode registry, imported here purely for its registration
// side-effects.
type genericCodec struct{}

func (genericCodec) Metadata(data []byte) (Metadata, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Metadata{}, fmt.Errorf("codec: generic metadata: %w", err)
	}
	return Metadata{
		Dimensions:  numeric.DimensionsU32{Width: numeric.Xu32(cfg.Width), Height: numeric.Yu32(cfg.Height)},
		Orientation: orientationTable[exifmeta.OrientationNormal],
	}, nil
}

func (genericCodec) Primary(data []byte, meta Metadata) (PixelBuffer, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return PixelBuffer{}, fmt.Errorf("codec: generic decode: %w", err)
	}

	bounds := img.Bounds()
	dims := numeric.DimensionsU32{Width: numeric.Xu32(bounds.Dx()), Height: numeric.Yu32(bounds.Dy())}
	if dims != meta.Dimensions {
		return PixelBuffer{}, fmt.Errorf("%w: %v != %v", ErrDimensionsChanged, dims, meta.Dimensions)
	}

	stride := bounds.Dx() * 4
	pixels := make([]byte, stride*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := pixels[(y-bounds.Min.Y)*stride:]
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			off := (x - bounds.Min.X) * 4
			packRGB(row[off:off+4], uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}

	return PixelBuffer{Pixels: pixels, Dimensions: dims, Stride: stride}, nil
}
