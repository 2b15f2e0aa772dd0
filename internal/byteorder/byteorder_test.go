// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package byteorder

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestOfMatchesExifmetaQuirk(t *testing.T) {
	c := qt.New(t)

	// exifmeta always re-serializes raw arrays as big-endian, regardless of
	// the file's own declared byte order, so both probes must agree.
	beGot, err := Of("MM")
	c.Assert(err, qt.IsNil)
	c.Assert(beGot, qt.Equals, BigEndian)

	leGot, err := Of("II")
	c.Assert(err, qt.IsNil)
	c.Assert(leGot, qt.Equals, BigEndian)
}

func TestOfInvalidByteOrder(t *testing.T) {
	c := qt.New(t)

	_, err := Of("XX")
	c.Assert(err, qt.IsNotNil)
}

func TestOfIsCached(t *testing.T) {
	c := qt.New(t)

	a, err := Of("MM")
	c.Assert(err, qt.IsNil)
	b, err := Of("MM")
	c.Assert(err, qt.IsNil)
	c.Assert(a, qt.Equals, b)
}

func TestByteOrderString(t *testing.T) {
	c := qt.New(t)

	c.Assert(BigEndian.String(), qt.Equals, "BE")
	c.Assert(LittleEndian.String(), qt.Equals, "LE")
}
