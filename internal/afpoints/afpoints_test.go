// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package afpoints

import (
	"encoding/binary"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-fiv/fiv/internal/byteorder"
	"github.com/go-fiv/fiv/internal/numeric"
)

// buildAFInfo assembles a minimal big-endian AFInfo array with a single AF
// point, matching the value layout Parse expects.
func buildAFInfo(values ...uint16) []byte {
	out := make([]byte, len(values)*2)
	for i, v := range values {
		binary.BigEndian.PutUint16(out[2*i:2*i+2], v)
	}
	return out
}

func TestParseSinglePoint(t *testing.T) {
	c := qt.New(t)

	const numAFPoints = 1
	const validAFPoints = 1

	raw := buildAFInfo(
		14,   // AFInfoSize (14 values total)
		0,    // AFAreaMode
		numAFPoints,
		validAFPoints,
		100, 200, // CanonImageWidth/Height
		100, 200, // AFImageWidth/Height (same scale as image => sx=sy=1)
		10,                // AFAreaWidths[0]
		20,                // AFAreaHeights[0]
		5,                 // AFAreaXPositions[0]
		uint16(int16(-5)), // AFAreaYPositions[0]
		0b1,               // AFPointsInFocus bitfield (bit 0 set)
		0b1,               // AFPointsSelected bitfield (bit 0 set)
	)

	points, err := Parse(raw, byteorder.BigEndian, numeric.DimensionsU32{Width: 100, Height: 200})
	c.Assert(err, qt.IsNil)
	c.Assert(points, qt.HasLen, 1)

	p := points[0]
	c.Assert(p.Active, qt.IsTrue)
	c.Assert(p.Selected, qt.IsTrue)
	c.Assert(float64(p.Dimensions.Width), qt.Equals, 10.0)
	c.Assert(float64(p.Dimensions.Height), qt.Equals, 20.0)
	// Position = (5, -(-5)) + centre(50,100) = (55, 105).
	c.Assert(float64(p.Position.X), qt.Equals, 55.0)
	c.Assert(float64(p.Position.Y), qt.Equals, 105.0)
}

func TestParseRejectsDimensionMismatch(t *testing.T) {
	c := qt.New(t)

	raw := buildAFInfo(
		14, 0, 1, 1,
		100, 200,
		100, 200,
		10, 20, 5, uint16(int16(-5)),
		0b1, 0b1,
	)

	_, err := Parse(raw, byteorder.BigEndian, numeric.DimensionsU32{Width: 999, Height: 999})
	c.Assert(err, qt.IsNotNil)
}

func TestParseRejectsBadSize(t *testing.T) {
	c := qt.New(t)

	raw := buildAFInfo(999, 0, 1, 1, 100, 200, 100, 200, 10, 20, 5, 5, 0, 0)
	_, err := Parse(raw, byteorder.BigEndian, numeric.DimensionsU32{Width: 100, Height: 200})
	c.Assert(err, qt.IsNotNil)
}
