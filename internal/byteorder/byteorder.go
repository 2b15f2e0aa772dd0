// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package byteorder determines, at runtime, what byte order fiv's EXIF
// metadata layer actually emits for a raw array tag's bytes — which may not
// match the file's own declared TIFF byte order. This mirrors a real,
// documented quirk in Exiv2/gexiv2: the raw-tag accessor always re-serializes
// array values as big-endian regardless of the source file's endianness,
// because the underlying code path never checks the byte order before
// calling a big-endian-only conversion. A metadata library could fix this at
// any time, so fiv probes its own behavior instead of hard-coding a belief
// about it.
package byteorder

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/go-fiv/fiv/internal/exifmeta"
)

// ByteOrder is the byte order a raw AFInfo-style array tag actually comes
// back in.
type ByteOrder int

const (
	// BigEndian is Exiv2/gexiv2's historical, buggy raw-tag behavior.
	BigEndian ByteOrder = iota
	// LittleEndian would be the behavior of a library with no such bug.
	LittleEndian
)

func (bo ByteOrder) String() string {
	if bo == LittleEndian {
		return "LE"
	}
	return "BE"
}

var (
	probeBE = sync.OnceValues(func() (ByteOrder, error) { return probe(binary.BigEndian) })
	probeLE = sync.OnceValues(func() (ByteOrder, error) { return probe(binary.LittleEndian) })
)

// probe builds a synthetic image whose TIFF header declares nativeOrder,
// decodes it through exifmeta exactly like a real file, and inspects byte
// index 2 of the returned Canon AFInfo array to see which order it came
// back in.
func probe(nativeOrder binary.ByteOrder) (ByteOrder, error) {
	img := buildTestImage(nativeOrder)

	res, err := exifmeta.Decode(bytes.NewReader(img))
	if err != nil {
		return 0, fmt.Errorf("byteorder: decoding %v test image: %w", nativeOrder, err)
	}
	if !res.HasCanonAFInfo || len(res.CanonAFInfoRaw) < 3 {
		return 0, errors.New("byteorder: test image produced no Canon AFInfo array")
	}

	switch res.CanonAFInfoRaw[2] {
	case 'I':
		return LittleEndian, nil
	case 'M':
		return BigEndian, nil
	default:
		return 0, fmt.Errorf("byteorder: unexpected AFInfo byte %#x at index 2", res.CanonAFInfoRaw[2])
	}
}

// Of returns the byte order of raw array tags for an image whose own
// MakerNote byte order (as reported by exifmeta.Result.MakerNoteByteOrder,
// "II" or "MM") is mnByteOrder. It runs (and caches) the relevant probe on
// first use.
func Of(mnByteOrder string) (ByteOrder, error) {
	switch mnByteOrder {
	case "II":
		return probeLE()
	case "MM":
		return probeBE()
	default:
		return 0, fmt.Errorf("byteorder: invalid MakerNote byte order %q", mnByteOrder)
	}
}
