// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifmeta

import (
	"encoding/binary"

	"github.com/go-fiv/fiv/internal/numeric"
)

var jpegMarker = struct {
	soi      uint16
	sos      uint16
	app1EXIF uint16
	sof0     uint16
	sof1     uint16
	sof2     uint16
}{
	soi:      0xffd8,
	sos:      0xffda,
	app1EXIF: 0xffe1,
	sof0:     0xffc0,
	sof1:     0xffc1,
	sof2:     0xffc2,
}

var exifHeader = [6]byte{'E', 'x', 'i', 'f', 0, 0}

// jpegScanResult is what scanJPEG can recover without delegating to a
// general-purpose EXIF parser: the codestream dimensions (from the SOF
// marker, never from EXIF, since a thumbnail or a stale EXIF PixelXDimension
// tag must never be mistaken for the actual decoded size) and the raw bytes
// of the first APP1 EXIF segment, if any.
type jpegScanResult struct {
	dimensions    numeric.DimensionsU32
	hasDimensions bool
	exifBlob      []byte
	hasEXIF       bool
}

// scanJPEG walks JPEG markers looking for the SOF dimensions and the first
// APP1 EXIF segment. It stops at the first SOS (start of scan), since actual
// pixel data follows and nothing of interest to metadata remains.
func scanJPEG(sr *streamReader) (res jpegScanResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok && rerr != errStop {
				err = rerr
			}
		}
	}()

	sr.byteOrder = binary.BigEndian

	soi, serr := sr.read2E()
	if serr != nil {
		return res, nil
	}
	if soi != jpegMarker.soi {
		return res, newInvalidFormatErrorf("not a JPEG stream")
	}

	for {
		marker := sr.read2()
		if sr.isEOF {
			return res, nil
		}
		if marker == 0 {
			continue
		}
		if marker == jpegMarker.sos {
			return res, nil
		}

		length := sr.read2()
		if length < 2 {
			return res, newInvalidFormatErrorf("jpeg segment length %d too small", length)
		}
		length -= 2

		if marker == jpegMarker.app1EXIF && !res.hasEXIF {
			header := sr.readBytesVolatile(6)
			if string(header) == string(exifHeader[:]) {
				blob := make([]byte, int(length)-6)
				if err := sr.readBytes(blob); err != nil {
					return res, err
				}
				res.exifBlob = blob
				res.hasEXIF = true
				continue
			}
			sr.skip(int64(length) - 6)
			continue
		}

		if !res.hasDimensions && (marker == jpegMarker.sof0 || marker == jpegMarker.sof1 || marker == jpegMarker.sof2) {
			sr.skip(1) // Precision.
			height := sr.read2()
			width := sr.read2()
			res.dimensions = numeric.DimensionsU32{Width: numeric.Xu32(width), Height: numeric.Yu32(height)}
			res.hasDimensions = true
			sr.skip(int64(length) - 5)
			continue
		}

		sr.skip(int64(length))
	}
}
