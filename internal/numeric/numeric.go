// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package numeric provides small, validated value types for image
// coordinates and dimensions so that pixel-space and axis confusion
// (x vs. y, signed vs. unsigned) is caught at the type level rather
// than at a crash site deep in the preload engine.
package numeric

import (
	"fmt"
	"math"
)

// Xi32 is a signed horizontal coordinate, e.g. a viewport offset.
type Xi32 int32

// Yi32 is a signed vertical coordinate.
type Yi32 int32

// Xu32 is an unsigned horizontal coordinate or extent.
type Xu32 uint32

// Yu32 is an unsigned vertical coordinate or extent.
type Yu32 uint32

// AsXu32 converts an Xi32 to Xu32, reporting false if the value is negative.
func (x Xi32) AsXu32() (Xu32, bool) {
	if x < 0 {
		return 0, false
	}
	return Xu32(x), true
}

// AsYu32 converts a Yi32 to Yu32, reporting false if the value is negative.
func (y Yi32) AsYu32() (Yu32, bool) {
	if y < 0 {
		return 0, false
	}
	return Yu32(y), true
}

// AsXi32 converts an Xu32 to Xi32, reporting false on overflow.
func (x Xu32) AsXi32() (Xi32, bool) {
	if x > math.MaxInt32 {
		return 0, false
	}
	return Xi32(x), true
}

// AsYi32 converts a Yu32 to Yi32, reporting false on overflow.
func (y Yu32) AsYi32() (Yi32, bool) {
	if y > math.MaxInt32 {
		return 0, false
	}
	return Yi32(y), true
}

func (x Xu32) Float64() float64 { return float64(x) }
func (y Yu32) Float64() float64 { return float64(y) }

// Xf64 is a validated (finite, non-NaN) horizontal coordinate in float space.
type Xf64 float64

// Yf64 is a validated (finite, non-NaN) vertical coordinate in float space.
type Yf64 float64

// NewXf64 validates v and returns an error if it is NaN or infinite.
func NewXf64(v float64) (Xf64, error) {
	if !isFinite(v) {
		return 0, fmt.Errorf("numeric: Xf64 value %v is not finite", v)
	}
	return Xf64(v), nil
}

// NewYf64 validates v and returns an error if it is NaN or infinite.
func NewYf64(v float64) (Yf64, error) {
	if !isFinite(v) {
		return 0, fmt.Errorf("numeric: Yf64 value %v is not finite", v)
	}
	return Yf64(v), nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (x Xf64) String() string { return fmt.Sprintf("%.2f", float64(x)) }
func (y Yf64) String() string { return fmt.Sprintf("%.2f", float64(y)) }

// XOfXi32 converts a signed integer coordinate to float space.
func XOfXi32(x Xi32) Xf64 { return Xf64(x) }

// YOfYi32 converts a signed integer coordinate to float space.
func YOfYi32(y Yi32) Yf64 { return Yf64(y) }

// XOfXu32 converts an unsigned integer coordinate to float space.
func XOfXu32(x Xu32) Xf64 { return Xf64(x) }

// YOfYu32 converts an unsigned integer coordinate to float space.
func YOfYu32(y Yu32) Yf64 { return Yf64(y) }

// Sf64 is a dimensionless scale factor, e.g. zoom level.
type Sf64 float64

// ActualSize is the scale factor representing 1:1 (unscaled) display.
func ActualSize() Sf64 { return Sf64(1.0) }

// RatioOfXf64 returns the scale factor num/denom for two X values.
func RatioOfXf64(num, denom Xf64) Sf64 {
	if denom == 0 {
		return 0
	}
	return Sf64(float64(num) / float64(denom))
}

// RatioOfYf64 returns the scale factor num/denom for two Y values.
func RatioOfYf64(num, denom Yf64) Sf64 {
	if denom == 0 {
		return 0
	}
	return Sf64(float64(num) / float64(denom))
}

// PointI32 is an integer-space point, typically a widget-local pixel offset.
type PointI32 struct {
	X Xi32
	Y Yi32
}

// Add returns the component-wise sum of p and other.
func (p PointI32) Add(other PointI32) PointI32 {
	return PointI32{p.X + other.X, p.Y + other.Y}
}

// Sub returns the component-wise difference of p and other.
func (p PointI32) Sub(other PointI32) PointI32 {
	return PointI32{p.X - other.X, p.Y - other.Y}
}

func (p PointI32) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// PointF64 is a float-space point, typically image-local coordinates
// after orientation and zoom have been applied.
type PointF64 struct {
	X Xf64
	Y Yf64
}

// Add returns the component-wise sum of p and other.
func (p PointF64) Add(other PointF64) PointF64 {
	return PointF64{p.X + other.X, p.Y + other.Y}
}

// Sub returns the component-wise difference of p and other.
func (p PointF64) Sub(other PointF64) PointF64 {
	return PointF64{p.X - other.X, p.Y - other.Y}
}

// Scale multiplies both components of p by s.
func (p PointF64) Scale(s Sf64) PointF64 {
	return PointF64{Xf64(float64(p.X) * float64(s)), Yf64(float64(p.Y) * float64(s))}
}

// ScaleXY multiplies p's components by independent per-axis factors, as
// needed when X and Y were derived from differently-scaled sources.
func (p PointF64) ScaleXY(sx, sy Sf64) PointF64 {
	return PointF64{Xf64(float64(p.X) * float64(sx)), Yf64(float64(p.Y) * float64(sy))}
}

// PointF64OfPointI32 converts an integer point to float space.
func PointF64OfPointI32(p PointI32) PointF64 {
	return PointF64{XOfXi32(p.X), YOfYi32(p.Y)}
}

func (p PointF64) String() string {
	return fmt.Sprintf("%.2f,%.2f", float64(p.X), float64(p.Y))
}

// DimensionsU32 is an image's pixel width and height, as reported by its
// codec before any EXIF orientation is applied.
type DimensionsU32 struct {
	Width  Xu32
	Height Yu32
}

// Rotate90 swaps width and height, as required for EXIF orientations 5-8.
func (d DimensionsU32) Rotate90() DimensionsU32 {
	return DimensionsU32{Width: Xu32(d.Height), Height: Yu32(d.Width)}
}

func (d DimensionsU32) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// NonZero reports whether both dimensions are non-zero.
func (d DimensionsU32) NonZero() bool {
	return d.Width != 0 && d.Height != 0
}

// DimensionsF64 is a float-space width/height pair, used for viewport and
// scaled-image geometry.
type DimensionsF64 struct {
	Width  Xf64
	Height Yf64
}

// DimensionsF64OfDimensionsU32 converts pixel dimensions to float space.
func DimensionsF64OfDimensionsU32(d DimensionsU32) DimensionsF64 {
	return DimensionsF64{XOfXu32(d.Width), YOfYu32(d.Height)}
}

// Centre returns the point at the middle of the rectangle [0,0]-[Width,Height].
func (d DimensionsF64) Centre() PointF64 {
	return PointF64{d.Width / 2, d.Height / 2}
}

// Scale multiplies both dimensions by s.
func (d DimensionsF64) Scale(s Sf64) DimensionsF64 {
	return DimensionsF64{Xf64(float64(d.Width) * float64(s)), Yf64(float64(d.Height) * float64(s))}
}

// ScaleXY multiplies d's components by independent per-axis factors.
func (d DimensionsF64) ScaleXY(sx, sy Sf64) DimensionsF64 {
	return DimensionsF64{Xf64(float64(d.Width) * float64(sx)), Yf64(float64(d.Height) * float64(sy))}
}

func (d DimensionsF64) String() string {
	return fmt.Sprintf("%.2fx%.2f", float64(d.Width), float64(d.Height))
}

// Less reports whether d is strictly smaller than other in both dimensions.
// Unlike a total order, two dimensions where one axis grows and the other
// shrinks are incomparable; Less and Greater both return false for those.
func (d DimensionsF64) Less(other DimensionsF64) bool {
	return d.Width < other.Width && d.Height < other.Height
}

// Greater reports whether d is strictly larger than other in both dimensions.
func (d DimensionsF64) Greater(other DimensionsF64) bool {
	return d.Width > other.Width && d.Height > other.Height
}
