package numeric

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestXYConversions(t *testing.T) {
	c := qt.New(t)

	xu, ok := Xi32(42).AsXu32()
	c.Assert(ok, qt.IsTrue)
	c.Assert(xu, qt.Equals, Xu32(42))

	_, ok = Xi32(-1).AsXu32()
	c.Assert(ok, qt.IsFalse)

	xi, ok := Xu32(7).AsXi32()
	c.Assert(ok, qt.IsTrue)
	c.Assert(xi, qt.Equals, Xi32(7))
}

func TestXf64Validation(t *testing.T) {
	c := qt.New(t)

	v, err := NewXf64(3.5)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, Xf64(3.5))

	_, err = NewXf64(math.NaN())
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestPointArithmetic(t *testing.T) {
	c := qt.New(t)

	a := PointI32{X: 10, Y: 20}
	b := PointI32{X: 3, Y: 4}

	c.Assert(a.Add(b), qt.Equals, PointI32{X: 13, Y: 24})
	c.Assert(a.Sub(b), qt.Equals, PointI32{X: 7, Y: 16})
}

func TestDimensionsRotate90(t *testing.T) {
	c := qt.New(t)

	d := DimensionsU32{Width: 1920, Height: 1080}
	r := d.Rotate90()

	c.Assert(r, qt.Equals, DimensionsU32{Width: 1080, Height: 1920})
	c.Assert(r.Rotate90(), qt.Equals, d)
}

func TestDimensionsF64Centre(t *testing.T) {
	c := qt.New(t)

	d := DimensionsF64OfDimensionsU32(DimensionsU32{Width: 100, Height: 50})
	c.Assert(d.Centre(), qt.Equals, PointF64{X: 50, Y: 25})
}

func TestDimensionsF64PartialOrder(t *testing.T) {
	c := qt.New(t)

	small := DimensionsF64{Width: 10, Height: 10}
	big := DimensionsF64{Width: 20, Height: 20}
	mixed := DimensionsF64{Width: 20, Height: 5}

	c.Assert(small.Less(big), qt.IsTrue)
	c.Assert(big.Greater(small), qt.IsTrue)
	c.Assert(small.Less(mixed), qt.IsFalse)
	c.Assert(mixed.Less(small), qt.IsFalse)
	c.Assert(mixed.Greater(small), qt.IsFalse)
}
