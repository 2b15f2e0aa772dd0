// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package exifmeta

import (
	"encoding/binary"
	"strings"
)

const (
	tagExifIFD   = 0x8769
	tagMakerNote = 0x927c
	// tagCanonAFInfo is Canon's AFInfo/AFInfo2 tag (the newer AFInfo2 layout
	// reuses the same tag number and is distinguished by its AFInfoSize).
	tagCanonAFInfo   = 0x0026
	maxWalkedEntries = 256
)

// ifdEntry is one raw 12-byte TIFF directory entry.
type ifdEntry struct {
	tag      uint16
	dataType uint16
	count    uint32
	rawValue [4]byte // The value, or an offset to it if it doesn't fit.
}

func valueFits(dataType uint16, count uint32) bool {
	var size uint32
	switch dataType {
	case 1, 2, 6, 7: // BYTE, ASCII, SBYTE, UNDEFINED
		size = 1
	case 3, 8: // SHORT, SSHORT
		size = 2
	case 4, 9, 11: // LONG, SLONG, FLOAT
		size = 4
	default:
		size = 8
	}
	return size*count <= 4
}

// readIFDEntries reads the tag count followed by that many 12-byte entries,
// leaving sr positioned just after the trailing next-IFD offset.
func readIFDEntries(sr *streamReader) []ifdEntry {
	n := int(sr.read2())
	if n > maxWalkedEntries {
		n = maxWalkedEntries
	}
	entries := make([]ifdEntry, 0, n)
	for range n {
		var e ifdEntry
		e.tag = sr.read2()
		e.dataType = sr.read2()
		e.count = sr.read4()
		raw := sr.readBytesVolatile(4)
		copy(e.rawValue[:], raw)
		entries = append(entries, e)
	}
	return entries
}

// entryUint32 interprets a LONG entry's inline value (also usable as an
// offset for any entry whose value doesn't fit inline).
func (e ifdEntry) entryUint32(bo binary.ByteOrder) uint32 {
	return bo.Uint32(e.rawValue[:4])
}

// readEntryBytes returns the raw value bytes for entry e, following the
// offset if the value doesn't fit in the 4 inline bytes. base is the TIFF
// header position that offsets are relative to.
func readEntryBytes(sr *streamReader, base int64, e ifdEntry) []byte {
	length := int(e.count)
	switch e.dataType {
	case 3, 8:
		length *= 2
	case 4, 9, 11:
		length *= 4
	case 5, 10, 12:
		length *= 8
	}

	if valueFits(e.dataType, e.count) {
		b := make([]byte, length)
		copy(b, e.rawValue[:length])
		return b
	}

	offset := e.entryUint32(sr.byteOrder)
	pos := sr.pos()
	sr.seek(base + int64(offset))
	b := make([]byte, length)
	sr.readBytes(b)
	sr.seek(pos)
	return b
}

// locateCanonAFInfo walks IFD0 to find the Exif SubIFD, then the Exif SubIFD
// to find the MakerNote, then — if make indicates a Canon body — the nested
// Canon MakerNote IFD to find the raw AFInfo/AFInfo2 array.
//
// This cannot be delegated to a general-purpose EXIF library: the AFInfo
// array is a manufacturer-private binary layout with no public schema, and
// extracting its raw bytes (rather than a library's best-effort decoding of
// them) is the whole point of the byte-order quirk fiv works around.
func locateCanonAFInfo(sr *streamReader, bo binary.ByteOrder, ifdOffset uint32, make_ string) (raw []byte, found bool) {
	const base = int64(0)

	sr.seek(base + int64(ifdOffset))

	var exifIFDOffset uint32
	for _, e := range readIFDEntries(sr) {
		if e.tag == tagExifIFD {
			exifIFDOffset = e.entryUint32(bo)
		}
	}
	if exifIFDOffset == 0 {
		return nil, false
	}

	sr.seek(base + int64(exifIFDOffset))
	var makerNoteEntry ifdEntry
	var haveMakerNote bool
	for _, e := range readIFDEntries(sr) {
		if e.tag == tagMakerNote {
			makerNoteEntry = e
			haveMakerNote = true
		}
	}

	if !haveMakerNote || !strings.Contains(strings.ToLower(make_), "canon") {
		return nil, false
	}

	sr.seek(base + int64(makerNoteEntry.entryUint32(bo)))

	for _, e := range readIFDEntries(sr) {
		if e.tag != tagCanonAFInfo {
			continue
		}
		return readEntryBytes(sr, base, e), true
	}

	return nil, false
}

// reserializeBigEndianU16 re-encodes a slice of native-order uint16 values
// as big-endian, regardless of bo. This mirrors a real, documented behavior
// of the Exiv2/gexiv2 raw-tag accessor that fiv's byte-order probe exists to
// detect: asking the library for a tag's raw bytes returns them serialized
// in the library's own fixed internal order, not the file's declared order.
func reserializeBigEndianU16(raw []byte, bo binary.ByteOrder) []byte {
	out := make([]byte, len(raw))
	for i := 0; i+1 < len(raw); i += 2 {
		v := bo.Uint16(raw[i : i+2])
		binary.BigEndian.PutUint16(out[i:i+2], v)
	}
	return out
}

func byteOrderTagString(bo binary.ByteOrder) string {
	if bo == binary.LittleEndian {
		return "II"
	}
	return "MM"
}
