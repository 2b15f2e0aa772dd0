// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-fiv/fiv/internal/exifmeta"
	"github.com/go-fiv/fiv/internal/numeric"
)

// ISOBMFF box types used by HEIF/AVIF containers.
type fourCC [4]byte

var (
	fccFtyp = fourCC{'f', 't', 'y', 'p'}
	fccMeta = fourCC{'m', 'e', 't', 'a'}
	fccIinf = fourCC{'i', 'i', 'n', 'f'}
	fccInfe = fourCC{'i', 'n', 'f', 'e'}
	fccIloc = fourCC{'i', 'l', 'o', 'c'}
	fccIprp = fourCC{'i', 'p', 'r', 'p'}
	fccIpco = fourCC{'i', 'p', 'c', 'o'}
	fccIpma = fourCC{'i', 'p', 'm', 'a'}
	fccIspe = fourCC{'i', 's', 'p', 'e'}
	fccIrot = fourCC{'i', 'r', 'o', 't'}
	fccPitm = fourCC{'p', 'i', 't', 'm'}
	fccExif = fourCC{'E', 'x', 'i', 'f'}
)

var heifBrands = [][4]byte{
	{'h', 'e', 'i', 'c'}, {'h', 'e', 'i', 'x'}, {'h', 'e', 'i', 'f'},
	{'m', 'i', 'f', '1'}, {'m', 's', 'f', '1'}, {'a', 'v', 'i', 'f'},
}

// isHEIFContainer reports whether data opens with an ISOBMFF ftyp box
// naming a HEIF/AVIF major or compatible brand.
func isHEIFContainer(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	boxSize := binary.BigEndian.Uint32(data[0:4])
	end := int(boxSize)
	if end == 0 || end > len(data) {
		end = len(data)
	}
	for off := 8; off+4 <= end; off += 4 {
		var brand [4]byte
		copy(brand[:], data[off:off+4])
		for _, b := range heifBrands {
			if brand == b {
				return true
			}
		}
	}
	return false
}

type heifCodec struct{}

type heifBoxReader struct {
	data []byte
	pos  int
}

func (r *heifBoxReader) eof() bool { return r.pos >= len(r.data) }

func (r *heifBoxReader) u8() uint8 {
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *heifBoxReader) u16() uint16 {
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *heifBoxReader) u32() uint32 {
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *heifBoxReader) u64() uint64 {
	v := binary.BigEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v
}

func (r *heifBoxReader) varUint(n int) uint64 {
	switch n {
	case 0:
		return 0
	case 2:
		return uint64(r.u16())
	case 4:
		return uint64(r.u32())
	case 8:
		return r.u64()
	default:
		return 0
	}
}

// box reads one ISOBMFF box header, returning the start offset, the total
// box size (0 if it extends to EOF) and its type.
func (r *heifBoxReader) box() (start int, size uint64, typ fourCC) {
	start = r.pos
	if r.pos+8 > len(r.data) {
		r.pos = len(r.data)
		return start, 0, fourCC{}
	}
	sz := r.u32()
	copy(typ[:], r.data[r.pos:r.pos+4])
	r.pos += 4
	size = uint64(sz)
	if sz == 1 {
		size = r.u64()
	}
	return start, size, typ
}

// Metadata recovers dimensions and rotation from a HEIF/AVIF container's
// ispe/irot item properties, and — if an Exif item is present — reuses
// internal/exifmeta on its embedded TIFF payload to recover orientation and
// Canon AFInfo the same way the JPEG path does.
func (heifCodec) Metadata(data []byte) (Metadata, error) {
	r := &heifBoxReader{data: data}

	_, ftypSize, ftypType := r.box()
	if ftypType != fccFtyp {
		return Metadata{}, fmt.Errorf("codec: heif metadata: missing ftyp box")
	}
	if ftypSize > 0 {
		r.pos = int(ftypSize)
	}

	var metaStart int
	var metaSize uint64
	for {
		s, size, typ := r.box()
		if r.eof() {
			return Metadata{}, fmt.Errorf("codec: heif metadata: no meta box found")
		}
		if typ == fccMeta {
			metaStart, metaSize = s, size
			break
		}
		if size == 0 {
			return Metadata{}, fmt.Errorf("codec: heif metadata: no meta box found")
		}
		r.pos = s + int(size)
	}

	r.pos += 4 // meta FullBox version+flags

	metaEnd := len(data)
	if metaSize != 0 && int(metaSize) < math.MaxInt32 {
		metaEnd = metaStart + int(metaSize)
	}

	type ilocEntry struct{ offset, length uint64 }
	ilocEntries := map[uint32]ilocEntry{}
	var exifItemID, primaryItemID uint32

	type ipcoProp struct {
		isIspe        bool
		isIrot        bool
		width, height uint32
		angle         uint8
	}
	var ipcoProps []ipcoProp
	var primaryPropIndices []int

	for r.pos+8 <= metaEnd {
		innerStart, innerSize, innerType := r.box()
		if r.eof() || innerSize == 0 {
			break
		}
		innerEnd := innerStart + int(innerSize)

		switch innerType {
		case fccPitm:
			vf := r.u32()
			if vf>>24 == 0 {
				primaryItemID = uint32(r.u16())
			} else {
				primaryItemID = r.u32()
			}

		case fccIinf:
			vf := r.u32()
			var count uint32
			if vf>>24 == 0 {
				count = uint32(r.u16())
			} else {
				count = r.u32()
			}
			for range count {
				infeStart, infeSize, infeType := r.box()
				if r.eof() || infeSize == 0 {
					break
				}
				infeEnd := infeStart + int(infeSize)
				if infeType == fccInfe {
					vf2 := r.u32()
					if vf2>>24 >= 2 {
						var itemID uint32
						if vf2>>24 == 2 {
							itemID = uint32(r.u16())
						} else {
							itemID = r.u32()
						}
						r.pos += 2 // protection index
						var itemType fourCC
						copy(itemType[:], r.data[r.pos:r.pos+4])
						r.pos += 4
						if itemType == fccExif {
							exifItemID = itemID
						}
					}
				}
				r.pos = infeEnd
			}

		case fccIloc:
			vf := r.u32()
			version := uint8(vf >> 24)
			b1 := r.u8()
			offsetSize, lengthSize := int(b1>>4), int(b1&0xf)
			b2 := r.u8()
			baseOffsetSize, indexSize := int(b2>>4), int(b2&0xf)
			var count uint32
			if version < 2 {
				count = uint32(r.u16())
			} else {
				count = r.u32()
			}
			for range count {
				var itemID uint32
				if version < 2 {
					itemID = uint32(r.u16())
				} else {
					itemID = r.u32()
				}
				var constructionMethod uint16
				if version >= 1 {
					constructionMethod = r.u16()
				}
				r.pos += 2 // data reference index
				baseOffset := r.varUint(baseOffsetSize)
				extentCount := r.u16()
				var firstOffset, firstLength uint64
				for j := range extentCount {
					if version >= 1 && indexSize > 0 {
						r.varUint(indexSize)
					}
					off := r.varUint(offsetSize)
					length := r.varUint(lengthSize)
					if j == 0 {
						firstOffset, firstLength = baseOffset+off, length
					}
				}
				if constructionMethod == 0 {
					ilocEntries[itemID] = ilocEntry{firstOffset, firstLength}
				}
			}

		case fccIprp:
			for r.pos+8 <= innerEnd {
				childStart, childSize, childType := r.box()
				if r.eof() || childSize == 0 {
					break
				}
				childEnd := childStart + int(childSize)
				switch childType {
				case fccIpco:
					for r.pos+8 <= childEnd {
						propStart, propSize, propType := r.box()
						if r.eof() || propSize == 0 {
							break
						}
						propEnd := propStart + int(propSize)
						var prop ipcoProp
						switch propType {
						case fccIspe:
							r.pos += 4
							prop = ipcoProp{isIspe: true, width: r.u32(), height: r.u32()}
						case fccIrot:
							prop = ipcoProp{isIrot: true, angle: r.u8()}
						}
						ipcoProps = append(ipcoProps, prop)
						r.pos = propEnd
					}
				case fccIpma:
					vf := r.u32()
					version, flags := uint8(vf>>24), vf&0xffffff
					entryCount := r.u32()
					for range entryCount {
						var itemID uint32
						if version < 1 {
							itemID = uint32(r.u16())
						} else {
							itemID = r.u32()
						}
						assocCount := r.u8()
						for range assocCount {
							var idx int
							if flags&1 != 0 {
								idx = int(r.u16() & 0x7fff)
							} else {
								idx = int(r.u8() & 0x7f)
							}
							if itemID == primaryItemID && primaryItemID != 0 {
								primaryPropIndices = append(primaryPropIndices, idx)
							}
						}
					}
				}
				r.pos = childEnd
			}
		}

		r.pos = innerEnd
	}

	var width, height uint32
	var rotate bool
	for _, idx := range primaryPropIndices {
		if idx < 1 || idx > len(ipcoProps) {
			continue
		}
		p := ipcoProps[idx-1]
		if p.isIspe && p.width > 0 && p.height > 0 {
			width, height = p.width, p.height
		}
		if p.isIrot && (p.angle == 1 || p.angle == 3) {
			rotate = true
		}
	}
	if width == 0 || height == 0 {
		for _, p := range ipcoProps {
			if p.isIspe && p.width > 0 && p.height > 0 && uint64(p.width)*uint64(p.height) > uint64(width)*uint64(height) {
				width, height = p.width, p.height
			}
		}
	}
	if width == 0 || height == 0 {
		return Metadata{}, fmt.Errorf("codec: heif metadata: no ispe dimensions found")
	}
	if rotate {
		width, height = height, width
	}

	meta := Metadata{
		Dimensions:  numeric.DimensionsU32{Width: numeric.Xu32(width), Height: numeric.Yu32(height)},
		Orientation: orientationTable[exifmeta.OrientationNormal],
	}

	if loc, ok := ilocEntries[exifItemID]; ok && exifItemID != 0 && loc.length > 4 {
		if res, ok := decodeHEIFExif(data, loc.offset, loc.length); ok {
			meta.Orientation = orientationFromExif(res.Orientation, res.HasOrientation)
			meta.AFPoints = afPointsFromEXIF(res)
		}
	}

	return meta, nil
}

// decodeHEIFExif extracts the TIFF payload of a HEIF Exif item — prefixed
// by a 4-byte big-endian offset to the actual TIFF header, per the ISOBMFF
// Exif item spec — and decodes it with the same exifmeta used for
// JPEG/TIFF files.
func decodeHEIFExif(data []byte, offset, length uint64) (exifmeta.Result, bool) {
	if offset+4 > uint64(len(data)) {
		return exifmeta.Result{}, false
	}
	hdrOffset := binary.BigEndian.Uint32(data[offset : offset+4])
	tiffStart := offset + 4 + uint64(hdrOffset)
	tiffEnd := offset + length
	if tiffStart >= tiffEnd || tiffEnd > uint64(len(data)) {
		return exifmeta.Result{}, false
	}
	res, err := exifmeta.Decode(bytes.NewReader(data[tiffStart:tiffEnd]))
	if err != nil {
		return exifmeta.Result{}, false
	}
	return res, true
}

func (heifCodec) Primary(data []byte, meta Metadata) (PixelBuffer, error) {
	return decodeViaImagick(data, meta)
}
