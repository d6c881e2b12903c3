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

package gcodestate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	s := New()
	assert.Equal(t, PlaneXY, s.Plane)
	assert.Equal(t, UnitsMetric, s.Units)
	assert.Equal(t, PositionAbsolute, s.Position)
	assert.Equal(t, PathContinuous, s.Path)
	assert.Equal(t, 0, s.CurrentWCS)
	assert.True(t, math.IsNaN(s.I))
	assert.True(t, math.IsNaN(s.J))
	assert.True(t, math.IsNaN(s.K))
	assert.True(t, math.IsNaN(s.R))
	assert.Equal(t, 1.0, s.ScalingFactorX)
	assert.Equal(t, 1.0, s.ScalingFactorY)
	assert.Equal(t, 1.0, s.ScalingFactorZ)
	assert.Equal(t, 0.0, s.CX)
	assert.Equal(t, 0.0, s.GX)
}

func TestResetArcCenter(t *testing.T) {
	s := New()
	s.I, s.J, s.K, s.R = 1, 2, 3, 4
	s.ResetArcCenter()
	assert.True(t, math.IsNaN(s.I))
	assert.True(t, math.IsNaN(s.J))
	assert.True(t, math.IsNaN(s.K))
	assert.True(t, math.IsNaN(s.R))
}

func TestAbsoluteAndImperial(t *testing.T) {
	s := New()
	assert.True(t, s.Absolute())
	assert.False(t, s.Imperial())

	s.Position = PositionIncremental
	s.Units = UnitsInch
	assert.False(t, s.Absolute())
	assert.True(t, s.Imperial())
}
