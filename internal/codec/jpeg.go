// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package codec

import (
	"bytes"
	"fmt"

	"gopkg.in/gographics/imagick.v3/imagick"

	"github.com/go-fiv/fiv/internal/exifmeta"
	"github.com/go-fiv/fiv/internal/numeric"
)

type jpegCodec struct{}

func (jpegCodec) Metadata(data []byte) (Metadata, error) {
	res, err := exifmeta.Decode(bytes.NewReader(data))
	if err != nil {
		return Metadata{}, fmt.Errorf("codec: jpeg metadata: %w", err)
	}
	if !res.HasDimensions {
		return Metadata{}, fmt.Errorf("codec: jpeg metadata: no SOF marker found")
	}

	return Metadata{
		Dimensions:  res.Dimensions,
		Orientation: orientationFromExif(res.Orientation, res.HasOrientation),
		AFPoints:    afPointsFromEXIF(res),
	}, nil
}

func (jpegCodec) Primary(data []byte, meta Metadata) (PixelBuffer, error) {
	return decodeViaImagick(data, meta)
}

// decodeViaImagick decodes data to a packed pixel buffer using MagickWand,
// the pack's only native pixel-decode library (standing in for the
// original's turbojpeg/libheif). Shared by jpegCodec and heifCodec, both of
// which need nothing more than "decode to interleaved RGB, then pack".
func decodeViaImagick(data []byte, meta Metadata) (PixelBuffer, error) {
	imagickInit()

	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImageBlob(data); err != nil {
		return PixelBuffer{}, fmt.Errorf("codec: imagick read: %w", err)
	}

	width := mw.GetImageWidth()
	height := mw.GetImageHeight()
	dims := numeric.DimensionsU32{Width: numeric.Xu32(width), Height: numeric.Yu32(height)}
	if dims != meta.Dimensions {
		return PixelBuffer{}, fmt.Errorf("%w: %v != %v", ErrDimensionsChanged, dims, meta.Dimensions)
	}

	rgb, err := mw.ExportImagePixels(0, 0, width, height, "RGB", imagick.PIXEL_CHAR)
	if err != nil {
		return PixelBuffer{}, fmt.Errorf("codec: imagick export: %w", err)
	}
	rgbBytes, ok := rgb.([]byte)
	if !ok {
		return PixelBuffer{}, fmt.Errorf("codec: imagick export: unexpected pixel type %T", rgb)
	}

	stride := int(width) * 4
	pixels := make([]byte, stride*int(height))
	for i := 0; i < int(width*height); i++ {
		packRGB(pixels[i*4:i*4+4], rgbBytes[i*3], rgbBytes[i*3+1], rgbBytes[i*3+2])
	}

	return PixelBuffer{Pixels: pixels, Dimensions: dims, Stride: stride}, nil
}
