// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package exifmeta decodes the narrow slice of EXIF/TIFF metadata fiv's
// codecs need: codestream dimensions, the EXIF orientation tag, and Canon's
// private AFInfo/AFInfo2 MakerNote array. Standard tag decoding (Orientation,
// Make) is delegated to github.com/rwcarlsen/goexif/exif; the raw
// Canon MakerNote walk has no library equivalent and is hand-rolled.
package exifmeta

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"

	"github.com/go-fiv/fiv/internal/numeric"
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// Orientation is the raw EXIF orientation tag value (1-8). Zero means no
// orientation tag was present, which callers should treat the same as 1
// (normal, no transform).
type Orientation int

const (
	OrientationNormal         Orientation = 1
	OrientationFlipHorizontal Orientation = 2
	OrientationRotate180      Orientation = 3
	OrientationFlipVertical   Orientation = 4
	OrientationTranspose      Orientation = 5
	OrientationRotate90CW     Orientation = 6
	OrientationTransverse     Orientation = 7
	OrientationRotate270CW    Orientation = 8
)

// Result is everything exifmeta recovers from one image file.
type Result struct {
	Dimensions    numeric.DimensionsU32
	HasDimensions bool

	Orientation    Orientation
	HasOrientation bool

	// MakerNoteByteOrder is "II" (little-endian) or "MM" (big-endian),
	// matching the file's own declared TIFF byte order. Empty if no EXIF
	// was present.
	MakerNoteByteOrder string

	// CanonAFInfoRaw is the raw Canon AFInfo/AFInfo2 tag value, always
	// re-serialized as big-endian uint16 values regardless of the file's
	// declared byte order — see reserializeBigEndianU16.
	CanonAFInfoRaw []byte
	HasCanonAFInfo bool
}

// Decode reads image dimensions and EXIF/MakerNote metadata from r, which
// must contain a JPEG or raw TIFF stream.
func Decode(r io.ReadSeeker) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, err
	}

	if len(data) >= 2 && data[0] == 0xff && data[1] == 0xd8 {
		return decodeJPEG(data)
	}
	if len(data) >= 4 {
		bo16 := binary.BigEndian.Uint16(data[:2])
		if bo16 == tiffMarker.byteOrderBE || bo16 == tiffMarker.byteOrderLE {
			return decodeTIFF(data)
		}
	}

	return Result{}, newInvalidFormatErrorf("unrecognized image stream (not JPEG or TIFF)")
}

func decodeJPEG(data []byte) (Result, error) {
	var res Result

	sr := newStreamReader(bytes.NewReader(data), binary.BigEndian)
	scan, err := scanJPEG(sr)
	if err != nil {
		return res, err
	}
	res.Dimensions = scan.dimensions
	res.HasDimensions = scan.hasDimensions

	if !scan.hasEXIF {
		return res, nil
	}

	make_ := decodeCommonTags(bytes.NewReader(scan.exifBlob), &res)
	decodeMakerNote(newStreamReader(bytes.NewReader(scan.exifBlob), binary.BigEndian), make_, &res)

	return res, nil
}

func decodeTIFF(data []byte) (Result, error) {
	var res Result

	sr := newStreamReader(bytes.NewReader(data), binary.BigEndian)
	_, ifdOffset, err := tiffHeader(sr)
	if err != nil {
		return res, err
	}
	sr.seek(int64(ifdOffset))
	if dims, ok := dimensionsFromTIFFIFD(sr); ok {
		res.Dimensions = dims
		res.HasDimensions = true
	}

	make_ := decodeCommonTags(bytes.NewReader(data), &res)
	decodeMakerNote(newStreamReader(bytes.NewReader(data), binary.BigEndian), make_, &res)

	return res, nil
}

// decodeCommonTags uses goexif for the well-defined public tags: EXIF
// orientation, and the camera make (needed only to decide whether a
// MakerNote is Canon's before attempting the private AFInfo walk). A file
// with no usable EXIF is not a fiv-level error: dimensions alone are still
// useful, and AFInfo simply won't be found.
func decodeCommonTags(r io.Reader, res *Result) (make_ string) {
	x, err := exif.Decode(r)
	if err != nil {
		return ""
	}

	if tag, terr := x.Get(exif.Orientation); terr == nil {
		if v, ierr := tag.Int(0); ierr == nil {
			res.Orientation = Orientation(v)
			res.HasOrientation = true
		}
	}

	if tag, terr := x.Get(exif.Make); terr == nil {
		if v, serr := tag.StringVal(); serr == nil {
			make_ = v
		}
	}
	return make_
}

// decodeMakerNote walks the TIFF structure directly (goexif does not expose
// a MakerNote's raw, undecoded bytes through a stable public API) to recover
// Canon's private AFInfo array.
func decodeMakerNote(sr *streamReader, make_ string, res *Result) {
	bo, ifdOffset, err := tiffHeader(sr)
	if err != nil {
		return
	}
	res.MakerNoteByteOrder = byteOrderTagString(bo)

	raw, found := locateCanonAFInfo(sr, bo, ifdOffset, make_)
	if !found {
		return
	}
	res.CanonAFInfoRaw = reserializeBigEndianU16(raw, bo)
	res.HasCanonAFInfo = true
}
