// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package afpoints decodes Canon's private AFInfo/AFInfo2 MakerNote array
// into a list of autofocus points in image coordinates. The array has no
// public schema; this is a direct translation of Canon's known binary
// layout, not something a general-purpose EXIF library can parse for us.
package afpoints

import (
	"fmt"

	"github.com/go-fiv/fiv/internal/byteorder"
	"github.com/go-fiv/fiv/internal/numeric"
)

// Point is one Canon autofocus point, already transformed into image
// pixel coordinates with a top-left, Y-down origin.
type Point struct {
	Dimensions numeric.DimensionsF64
	Position   numeric.PointF64
	Selected   bool
	Active     bool
}

// afVec is Canon's AFInfo array: a flat sequence of big-endian-or-not
// uint16 values (see package byteorder for why the "or not" needs probing
// at all) addressed by logical index rather than byte offset.
type afVec struct {
	data []byte
	bo   byteorder.ByteOrder
}

func (v afVec) len() int { return len(v.data) }

func (v afVec) at(index int, field string) ([2]byte, error) {
	lo := 2 * index
	if lo+1 >= len(v.data) {
		return [2]byte{}, fmt.Errorf("afpoints: missing %s at index %d", field, index)
	}
	return [2]byte{v.data[lo], v.data[lo+1]}, nil
}

func (v afVec) u16(index int, field string) (uint16, error) {
	b, err := v.at(index, field)
	if err != nil {
		return 0, err
	}
	if v.bo == byteorder.BigEndian {
		return uint16(b[0])<<8 | uint16(b[1]), nil
	}
	return uint16(b[1])<<8 | uint16(b[0]), nil
}

func (v afVec) i16(index int, field string) (int16, error) {
	u, err := v.u16(index, field)
	return int16(u), err
}

func (v afVec) usize(index int, field string) (int, error) {
	u, err := v.u16(index, field)
	return int(u), err
}

func (v afVec) u32(index int, field string) (uint32, error) {
	u, err := v.u16(index, field)
	return uint32(u), err
}

func (v afVec) dimensionsU32(xIndex int, xField string, yIndex int, yField string) (numeric.DimensionsU32, error) {
	x, err := v.u32(xIndex, xField)
	if err != nil {
		return numeric.DimensionsU32{}, err
	}
	y, err := v.u32(yIndex, yField)
	if err != nil {
		return numeric.DimensionsU32{}, err
	}
	return numeric.DimensionsU32{Width: numeric.Xu32(x), Height: numeric.Yu32(y)}, nil
}

func (v afVec) dimensionsF64(xIndex int, xField string, yIndex int, yField string) (numeric.DimensionsF64, error) {
	d, err := v.dimensionsU32(xIndex, xField, yIndex, yField)
	if err != nil {
		return numeric.DimensionsF64{}, err
	}
	return numeric.DimensionsF64OfDimensionsU32(d), nil
}

func (v afVec) pointF64(xIndex int, xField string, yIndex int, yField string) (numeric.PointF64, error) {
	x, err := v.i16(xIndex, xField)
	if err != nil {
		return numeric.PointF64{}, err
	}
	y, err := v.i16(yIndex, yField)
	if err != nil {
		return numeric.PointF64{}, err
	}
	xf, err := numeric.NewXf64(float64(x))
	if err != nil {
		return numeric.PointF64{}, err
	}
	yf, err := numeric.NewYf64(0 - float64(y))
	if err != nil {
		return numeric.PointF64{}, err
	}
	return numeric.PointF64{X: xf, Y: yf}, nil
}

// bit reports the value of logical bit bitInWord, counted from the start of
// the bitfield beginning at byte offset 2*index. Big-endian AFInfo arrays store
// each bitfield's two bytes in the opposite order to little-endian, which
// this formula accounts for rather than assuming either.
func (v afVec) bit(index, bitInWord int, field string) (bool, error) {
	var byteIndex int
	if v.bo == byteorder.LittleEndian {
		// [0-7, 8-15, 16-23, 24-31, ...]
		byteIndex = 2*index + bitInWord/8
	} else {
		// [8-15, 0-7, 24-31, 16-23, ...]
		byteIndex = 2*index + 2*(bitInWord/16) + (((bitInWord / 8) & 1) ^ 1)
	}
	if byteIndex >= len(v.data) {
		return false, fmt.Errorf("afpoints: missing %s bit %d", field, bitInWord)
	}
	return v.data[byteIndex]&(1<<uint(bitInWord%8)) != 0, nil
}

// Parse decodes raw (a Canon AFInfo/AFInfo2 tag value, already re-serialized
// per bo) into AF points in image coordinates, validating it against the
// image's own decoded dimensions.
func Parse(raw []byte, bo byteorder.ByteOrder, imageDimensions numeric.DimensionsU32) ([]Point, error) {
	v := afVec{data: raw, bo: bo}

	count, err := v.usize(0, "AFInfoSize")
	if err != nil {
		return nil, err
	}
	if count*2 != v.len() {
		return nil, fmt.Errorf("afpoints: AFInfoSize %d*2 != data length %d", count, v.len())
	}

	numAFPoints, err := v.usize(2, "NumAFPoints")
	if err != nil {
		return nil, err
	}
	numAFBitfields := (numAFPoints + 15) / 16

	validAFPoints, err := v.usize(3, "ValidAFPoints")
	if err != nil {
		return nil, err
	}

	imgDimensions, err := v.dimensionsU32(4, "CanonImageWidth", 5, "CanonImageHeight")
	if err != nil {
		return nil, err
	}
	if imgDimensions != imageDimensions {
		return nil, fmt.Errorf("afpoints: image dimensions don't match: %v != %v", imgDimensions, imageDimensions)
	}
	if !imgDimensions.NonZero() {
		return nil, fmt.Errorf("afpoints: image dimensions are zero: %v", imgDimensions)
	}

	afImgDimensions, err := v.dimensionsF64(6, "AFImageWidth", 7, "AFImageHeight")
	if err != nil {
		return nil, err
	}

	imgDimensionsF := numeric.DimensionsF64OfDimensionsU32(imgDimensions)
	afImgCentre := afImgDimensions.Centre()
	sx := numeric.RatioOfXf64(afImgDimensions.Width, imgDimensionsF.Width)
	sy := numeric.RatioOfYf64(afImgDimensions.Height, imgDimensionsF.Height)

	widthOffset := 8
	heightOffset := widthOffset + numAFPoints
	xPosOffset := heightOffset + numAFPoints
	yPosOffset := xPosOffset + numAFPoints
	activeOffset := yPosOffset + numAFPoints
	selectedOffset := activeOffset + numAFBitfields

	points := make([]Point, 0, validAFPoints)
	for i := range validAFPoints {
		dims, err := v.dimensionsF64(
			widthOffset+i, fmt.Sprintf("AFAreaWidth[%d]", i),
			heightOffset+i, fmt.Sprintf("AFAreaHeight[%d]", i),
		)
		if err != nil {
			return nil, err
		}

		pos, err := v.pointF64(
			xPosOffset+i, fmt.Sprintf("AFAreaXPositions[%d]", i),
			yPosOffset+i, fmt.Sprintf("AFAreaYPositions[%d]", i),
		)
		if err != nil {
			return nil, err
		}
		pos = pos.Add(afImgCentre)

		selected, err := v.bit(selectedOffset, i, fmt.Sprintf("AFPointsSelected[%d]", i/16))
		if err != nil {
			return nil, err
		}
		active, err := v.bit(activeOffset, i, fmt.Sprintf("AFPointsInFocus[%d]", i/16))
		if err != nil {
			return nil, err
		}

		points = append(points, Point{
			Dimensions: dims.ScaleXY(sx, sy),
			Position:   pos.ScaleXY(sx, sy),
			Selected:   selected,
			Active:     active,
		})
	}

	return points, nil
}
