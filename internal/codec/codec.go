// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package codec binds a raw image byte slice to the right format-specific
// decoder, exposing two pure operations over it: header-only metadata
// extraction and a full decode to a packed pixel buffer.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"unsafe"

	"github.com/go-fiv/fiv/internal/afpoints"
	"github.com/go-fiv/fiv/internal/byteorder"
	"github.com/go-fiv/fiv/internal/exifmeta"
	"github.com/go-fiv/fiv/internal/numeric"
)

// Orientation is a composed rotate/flip pair, decoupled from the raw EXIF
// tag value so that navigation-level composition (internal/nav) never has
// to know about the tag's 8-way encoding.
type Orientation struct {
	// Rotate is one of 0, 90, 180, 270 degrees clockwise.
	Rotate int
	// Flip is horizontal mirroring, applied before rotation.
	Flip bool
}

// orientationTable maps an EXIF orientation tag value (1-8) to its
// (rotate, flip) pair, exactly spec.md's 8-row table.
var orientationTable = [9]Orientation{
	1: {Rotate: 0, Flip: false},
	2: {Rotate: 0, Flip: true},
	3: {Rotate: 180, Flip: false},
	4: {Rotate: 180, Flip: true},
	5: {Rotate: 270, Flip: true},
	6: {Rotate: 90, Flip: false},
	7: {Rotate: 90, Flip: true},
	8: {Rotate: 270, Flip: false},
}

func orientationFromExif(o exifmeta.Orientation, has bool) Orientation {
	if !has || o < 1 || int(o) >= len(orientationTable) {
		return orientationTable[exifmeta.OrientationNormal]
	}
	return orientationTable[o]
}

// Compose returns the group product of applying delta on top of o: rotation
// adds mod 360, flip XORs. This is the group operation spec.md's
// orientation composition requires; internal/nav calls it on every
// compose_orientation request.
func (o Orientation) Compose(delta Orientation) Orientation {
	return Orientation{
		Rotate: (o.Rotate + delta.Rotate) % 360,
		Flip:   o.Flip != delta.Flip,
	}
}

// Metadata is everything a codec can recover without decoding pixels.
type Metadata struct {
	Dimensions  numeric.DimensionsU32
	Orientation Orientation
	AFPoints    []afpoints.Point
}

// PixelBuffer is a decoded primary image: 32-bit packed XBGR (little-endian
// host) or XRGB (big-endian host), row-major, stride bytes per row.
type PixelBuffer struct {
	Pixels     []byte
	Dimensions numeric.DimensionsU32
	Stride     int
}

// ErrDimensionsChanged is returned by Primary when the freshly read
// dimensions disagree with the metadata passed in — e.g. the file was
// modified between Metadata and Primary.
var ErrDimensionsChanged = errors.New("codec: dimensions changed")

// ErrUnsupportedType is returned by Dispatch when the byte slice doesn't
// match any known image format.
var ErrUnsupportedType = errors.New("codec: unsupported type")

// Codec binds format-specific metadata and pixel decode, both pure with
// respect to the input byte slice.
type Codec interface {
	Metadata(data []byte) (Metadata, error)
	Primary(data []byte, meta Metadata) (PixelBuffer, error)
}

// Dispatch sniffs data's format and returns the matching Codec.
func Dispatch(data []byte) (Codec, error) {
	switch {
	case len(data) >= 2 && data[0] == 0xff && data[1] == 0xd8:
		return jpegCodec{}, nil
	case isHEIFContainer(data):
		return heifCodec{}, nil
	case looksLikeImage(data):
		return genericCodec{}, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// nativeEndian is the host's byte order, used to pick between packing
// decoded pixels as XBGR or XRGB so no post-decode channel swizzle is
// needed beyond the initial RGB->packed conversion.
var nativeEndian = func() binary.ByteOrder {
	var x uint16 = 1
	b := (*[2]byte)(unsafe.Pointer(&x))
	if b[0] == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}()

// packRGB writes one packed 32-bit pixel (XBGR on little-endian hosts, XRGB
// on big-endian hosts) for the given 8-bit channel values.
func packRGB(dst []byte, r, g, b uint8) {
	if nativeEndian == binary.LittleEndian {
		dst[0], dst[1], dst[2], dst[3] = b, g, r, 0
	} else {
		dst[0], dst[1], dst[2], dst[3] = 0, r, g, b
	}
}

// afPointsFromEXIF resolves Canon AF points from a decoded exifmeta.Result,
// returning nil (not an error) whenever AFInfo wasn't present or the probe
// or parse fails — an AF overlay is a bonus, not a requirement for
// displaying an image.
func afPointsFromEXIF(res exifmeta.Result) []afpoints.Point {
	if !res.HasCanonAFInfo {
		return nil
	}
	bo, err := byteorder.Of(res.MakerNoteByteOrder)
	if err != nil {
		return nil
	}
	pts, err := afpoints.Parse(res.CanonAFInfoRaw, bo, res.Dimensions)
	if err != nil {
		return nil
	}
	return pts
}

func looksLikeImage(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return true
	case bytes.HasPrefix(data, []byte("GIF8")):
		return true
	case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && bytes.Equal(data[8:12], []byte("WEBP")):
		return true
	case bytes.HasPrefix(data, []byte("BM")):
		return true
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return true
	default:
		return false
	}
}
