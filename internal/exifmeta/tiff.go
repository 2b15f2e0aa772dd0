// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifmeta

import (
	"encoding/binary"

	"github.com/go-fiv/fiv/internal/numeric"
)

var tiffMarker = struct {
	byteOrderBE uint16
	byteOrderLE uint16
	magic       uint16
}{
	byteOrderBE: 0x4d4d, // "MM"
	byteOrderLE: 0x4949, // "II"
	magic:       42,
}

// tiffHeader reads the 8-byte TIFF header at the current position, returning
// the detected byte order and the offset of IFD0 relative to base.
func tiffHeader(sr *streamReader) (binary.ByteOrder, uint32, error) {
	sr.byteOrder = binary.BigEndian
	boTag, err := sr.read2E()
	if err != nil {
		return nil, 0, err
	}

	var bo binary.ByteOrder
	switch boTag {
	case tiffMarker.byteOrderBE:
		bo = binary.BigEndian
	case tiffMarker.byteOrderLE:
		bo = binary.LittleEndian
	default:
		return nil, 0, newInvalidFormatErrorf("unrecognized TIFF byte order marker %#x", boTag)
	}
	sr.byteOrder = bo

	if magic, err := sr.read2E(); err != nil || magic != tiffMarker.magic {
		return nil, 0, newInvalidFormatErrorf("bad TIFF magic")
	}

	ifdOffset, err := sr.read4E()
	if err != nil {
		return nil, 0, err
	}

	return bo, ifdOffset, nil
}

// dimensionsFromTIFFIFD scans one IFD for ImageWidth/ImageLength (tags
// 0x100/0x101). sr must be positioned at the start of the IFD (the 2-byte
// tag count). Returns false if both tags were not found.
func dimensionsFromTIFFIFD(sr *streamReader) (numeric.DimensionsU32, bool) {
	const (
		tagImageWidth  = 0x0100
		tagImageHeight = 0x0101
	)

	numTags := sr.read2()
	var width, height uint32
	for range int(numTags) {
		tagID := sr.read2()
		dataType := sr.read2()
		sr.skip(4) // Count, always 1 for these tags.
		if tagID == tagImageWidth || tagID == tagImageHeight {
			var value uint32
			if dataType == 3 { // SHORT
				value = uint32(sr.read2())
				sr.skip(2) // Padding to fill the 4-byte value slot.
			} else { // LONG
				value = sr.read4()
			}
			if tagID == tagImageWidth {
				width = value
			} else {
				height = value
			}
		} else {
			sr.skip(4)
		}
		if width > 0 && height > 0 {
			break
		}
	}

	if width == 0 || height == 0 {
		return numeric.DimensionsU32{}, false
	}
	return numeric.DimensionsU32{Width: numeric.Xu32(width), Height: numeric.Yu32(height)}, true
}
