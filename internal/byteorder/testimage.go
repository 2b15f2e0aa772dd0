// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package byteorder

import "encoding/binary"

// buf is a tiny append-and-backpatch byte buffer, the same shape of helper
// the original implementation's TestVecExt trait provides, minus the
// generic Offset/Size bookkeeping — here we just remember the handful of
// positions we need to patch and do it by hand once their target lengths
// and offsets are known.
type buf struct {
	data []byte
	bo   binary.ByteOrder
}

func (b *buf) raw(v []byte)    { b.data = append(b.data, v...) }
func (b *buf) bytes(v ...byte) { b.data = append(b.data, v...) }

func (b *buf) u16(v uint16) {
	var tmp [2]byte
	b.bo.PutUint16(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

func (b *buf) u32(v uint32) {
	var tmp [4]byte
	b.bo.PutUint32(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

func (b *buf) ascii(s string, nullTerminate bool) {
	b.raw([]byte(s))
	if nullTerminate {
		b.data = append(b.data, 0)
	}
}

// reserve2/reserve4 append a zero placeholder and return its position so it
// can be patched once the real value is known.
func (b *buf) reserve2() int {
	pos := len(b.data)
	b.u16(0)
	return pos
}

func (b *buf) reserve4() int {
	pos := len(b.data)
	b.u32(0)
	return pos
}

func (b *buf) patch2(pos int, v uint16) { b.bo.PutUint16(b.data[pos:pos+2], v) }
func (b *buf) patch4(pos int, v uint32) { b.bo.PutUint32(b.data[pos:pos+4], v) }

// pos returns the current write position, i.e. the length of the data
// written so far.
func (b *buf) pos() int { return len(b.data) }

// ifdEntryOut reserves a 12-byte IFD entry (tag, type, count placeholder,
// value/offset placeholder) and returns the positions of the count and
// value/offset fields for later patching, once the value's length and
// location are known.
func (b *buf) ifdEntryOut(tag, typ uint16) (countPos, valuePos int) {
	b.u16(tag)
	b.u16(typ)
	countPos = b.reserve4()
	valuePos = b.reserve4()
	return
}

func (b *buf) tiffHeader(bo binary.ByteOrder) {
	if bo == binary.BigEndian {
		b.ascii("MM", false)
	} else {
		b.ascii("II", false)
	}
	b.u16(42)
}

// buildTestImage synthesizes a minimal JPEG carrying an APP1 EXIF segment
// with an IFD0 (Make/Model/Exif SubIFD pointer), an empty IFD1, an Exif
// SubIFD (ExifVersion + MakerNote pointer), and a Canon MakerNote IFD
// holding a single AFInfo2 tag (0x0026) — just enough structure for
// internal/exifmeta to walk down to the AFInfo raw bytes.
//
// The AFInfo's second value (AFAreaMode) is deliberately 0x4D49, which
// spells "MI"/"IM" depending on how it's serialized: byte index 2 of the
// resulting array is 'M' if big-endian, 'I' if little-endian. That's the
// exact probe used by probe.
func buildTestImage(bo binary.ByteOrder) []byte {
	b := &buf{bo: bo}

	b.bytes(0xff, 0xd8) // SOI

	b.bytes(0xff, 0xe1) // APP1
	lenPos := b.reserve2()
	segStart := b.pos()

	b.raw([]byte("Exif\x00\x00"))
	tiffStart := b.pos()

	b.tiffHeader(bo)
	ifd0OffsetPos := b.reserve4()
	b.patch4(ifd0OffsetPos, uint32(b.pos()-tiffStart))

	// IFD0: Make, Model, Exif SubIFD pointer.
	b.u16(3)
	makeCountPos, makeValuePos := b.ifdEntryOut(0x010f, 2)
	modelCountPos, modelValuePos := b.ifdEntryOut(0x0110, 2)
	exifIFDCountPos, exifIFDValuePos := b.ifdEntryOut(0x8769, 4)
	b.patch4(exifIFDCountPos, 1)
	ifd1OffsetPos := b.reserve4()

	makeStart := b.pos()
	b.ascii("Canon", true)
	b.patch4(makeCountPos, uint32(b.pos()-makeStart))
	b.patch4(makeValuePos, uint32(makeStart-tiffStart))

	modelStart := b.pos()
	b.ascii("Canon EOS", true)
	b.patch4(modelCountPos, uint32(b.pos()-modelStart))
	b.patch4(modelValuePos, uint32(modelStart-tiffStart))

	// IFD1: empty.
	b.patch4(ifd1OffsetPos, uint32(b.pos()-tiffStart))
	b.u16(0)
	b.u32(0) // Next IFD offset.

	// Exif SubIFD.
	exifSubStart := b.pos()
	b.patch4(exifIFDValuePos, uint32(exifSubStart-tiffStart))

	b.u16(2) // ExifVersion, MakerNote.
	b.u16(0x9000)
	b.u16(7) // UNDEFINED
	b.u32(4)
	b.raw([]byte("0230"))
	makerNoteCountPos, makerNoteValuePos := b.ifdEntryOut(0x927c, 7)
	b.u32(0) // Next IFD offset.

	makerNoteStart := b.pos()

	// Canon MakerNote IFD: one entry, AFInfo2.
	b.u16(1)
	afInfoCountPos, afInfoValuePos := b.ifdEntryOut(0x0026, 3)
	b.u32(0) // Next IFD offset.

	afInfoStart := b.pos()
	afInfoValuesStart := b.pos()
	b.u16(0)      // AFInfoSize, patched below.
	b.u16(0x4d49) // AFAreaMode — the probe value.
	b.u16(1)      // NumAFPoints
	b.u16(0)      // ValidAFPoints
	b.u16(1)      // CanonImageWidth
	b.u16(1)      // CanonImageHeight
	b.u16(1)      // AFImageWidth
	b.u16(1)      // AFImageHeight
	b.u16(0)      // AFAreaWidths
	b.u16(0)      // AFAreaHeights
	b.u16(0)      // AFAreaXPositions
	b.u16(0)      // AFAreaYPositions
	b.u16(0)      // AFPointsInFocus
	b.u16(0)      // AFPointsSelected
	afInfoByteLen := b.pos() - afInfoValuesStart
	b.patch2(afInfoValuesStart, uint16(afInfoByteLen/2))

	makerNoteLen := b.pos() - makerNoteStart

	b.patch4(afInfoCountPos, uint32(afInfoByteLen/2)) // Count is in SHORTs, not bytes.
	b.patch4(afInfoValuePos, uint32(afInfoStart-tiffStart))
	b.patch4(makerNoteCountPos, uint32(makerNoteLen))
	b.patch4(makerNoteValuePos, uint32(makerNoteStart-tiffStart))

	segLen := b.pos() - segStart + 2 // +2 for the length field itself.
	b.patch2(lenPos, uint16(segLen))

	b.bytes(0xff, 0xd9) // EOI

	return b.data
}
