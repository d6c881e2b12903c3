// Copyright 2024 The gcode-canon Authors
// This file is part of gcode-canon.
//
// gcode-canon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gcode-canon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with gcode-canon. If not, see <http://www.gnu.org/licenses/>.

package gcodemath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentOrLast(t *testing.T) {
	assert.Equal(t, 5.0, CurrentOrLast(math.NaN(), 5))
	assert.Equal(t, 3.0, CurrentOrLast(3, 5))
}

func TestCurrentOrZero(t *testing.T) {
	assert.Equal(t, 7.0, CurrentOrZero(0, 7, true, true), "absent word in absolute mode holds position")
	assert.Equal(t, 0.0, CurrentOrZero(0, 7, false, true), "absent word in incremental mode contributes no displacement")
	assert.Equal(t, 3.0, CurrentOrZero(3, 7, true, false))
}

func TestRelativeAbsoluteVsIncremental(t *testing.T) {
	assert.Equal(t, 10.0, Relative(10, 4, true))
	assert.Equal(t, 14.0, Relative(10, 4, false))
}

func TestSystemAddsOriginAndOffset(t *testing.T) {
	assert.Equal(t, 16.0, System(10, false, 5, 1))
	assert.Equal(t, 10.0, System(10, true, 5, 1), "machine coordinate system bypasses WCS and offset")
}

func TestLengthComp(t *testing.T) {
	assert.Equal(t, 10.0, LengthComp(10, LengthCompOff, 2))
	assert.Equal(t, 12.0, LengthComp(10, LengthCompPositive, 2))
	assert.Equal(t, 8.0, LengthComp(10, LengthCompNegative, 2))
}

func TestInchConvertsOnlyWhenImperial(t *testing.T) {
	assert.InDelta(t, 25.4, Inch(1, true), 1e-9)
	assert.Equal(t, 1.0, Inch(1, false))
}

func TestPolarQuadrant(t *testing.T) {
	x, y := Polar(10, 0)
	assert.InDelta(t, 10, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)

	x, y = Polar(10, 90)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 10, y, 1e-9)
}

func TestRotation90Degrees(t *testing.T) {
	x, y := Rotation(1, 0, 90, 0, 0)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 1, y, 1e-9)
}

func TestScalingAboutOrigin(t *testing.T) {
	assert.Equal(t, 15.0, Scaling(10, 5, 2))
}

func TestMirrorTracksIncrementalDisplacement(t *testing.T) {
	original := 0.0
	assert.Equal(t, 10.0, Mirror(10, 0, &original, false), "not mirrored: previous is just input")

	original = 0.0
	got := Mirror(3, 10, &original, true)
	assert.Equal(t, 7.0, got) // previous(10) - (input(3) - original(0))
	assert.Equal(t, 3.0, original)
}

func TestVectorSideSign(t *testing.T) {
	left := VectorSide(0, 0, 10, 0, 5, 5)
	right := VectorSide(0, 0, 10, 0, 5, -5)
	assert.Greater(t, left, 0.0)
	assert.Less(t, right, 0.0)
}

func TestArcFromRadiusRoundTripsWithRadiusFromIJ(t *testing.T) {
	i, j, k := ArcFromRadius(10, 0, 0, 0, 10, false)
	assert.Equal(t, 0.0, k)
	r := RadiusFromIJ(i, j)
	assert.InDelta(t, 10, r, 1e-9)
}
