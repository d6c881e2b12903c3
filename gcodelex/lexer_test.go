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

package gcodelex

import (
	"math"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"

	"github.com/canonical-gcode/gcode-canon/gcodeparam"
)

func TestHasWordPresence(t *testing.T) {
	lx := New("G1X10Y20", gcodeparam.New(nil))
	assert.Equal(t, 1, lx.HasWord('G'))
	assert.Equal(t, NoMatch, lx.HasWord('Z'))
}

func TestHasWordCandidateMatch(t *testing.T) {
	lx := New("G1X10", gcodeparam.New(nil))
	assert.Equal(t, 1, lx.HasWord('G', 0, 1, 2, 3))
}

func TestHasWordZeroMatchDisambiguation(t *testing.T) {
	lx := New("G0X10", gcodeparam.New(nil))
	assert.Equal(t, ZeroMatch, lx.HasWord('G', 0, 1, 2, 3))
}

func TestGetRealAbsent(t *testing.T) {
	lx := New("G1X10", gcodeparam.New(nil))
	assert.True(t, math.IsNaN(lx.GetReal('Z')))
}

func TestGetRealDefault(t *testing.T) {
	lx := New("G1X10", gcodeparam.New(nil))
	assert.Equal(t, 5.0, lx.GetRealDefault('Z', 5))
	assert.Equal(t, 10.0, lx.GetRealDefault('X', 5))
}

func TestGetIntegerAbsentSentinel(t *testing.T) {
	lx := New("G1X10", gcodeparam.New(nil))
	assert.Equal(t, uint32(math.MaxUint32), lx.GetInteger('Z'))
}

func TestParameterIndirection(t *testing.T) {
	params := gcodeparam.New(nil)
	_ = params.Set(12, 3)
	_ = params.Set(3, -7.5)

	lx := New("X#12", params)
	assert.Equal(t, 3.0, lx.GetReal('X'))

	lx2 := New("X##12", params)
	assert.Equal(t, -7.5, lx2.GetReal('X'))
}

func TestNegativeAndDecimalParsing(t *testing.T) {
	lx := New("X-10.5Y+2.25", gcodeparam.New(nil))
	assert.Equal(t, -10.5, lx.GetReal('X'))
	assert.Equal(t, 2.25, lx.GetReal('Y'))
}

func TestValidateBlockRejectsOverlong(t *testing.T) {
	block := make([]byte, 256)
	for i := range block {
		block[i] = 'X'
	}
	assert.Error(t, ValidateBlock(string(block)))
	assert.NoError(t, ValidateBlock("G1X10"))
}

// TestRealNeverPanicsOnMalformedTail feeds GetReal random numeric tails
// drawn from signs, dots, digits and '#' (stray signs, runs of dots,
// parameter references) to confirm the bounded-buffer parse never panics.
func TestRealNeverPanicsOnMalformedTail(t *testing.T) {
	f := fuzz.New().NilChance(0).Funcs(func(s *string, c fuzz.Continue) {
		alphabet := "+-.0123456789#"
		n := c.Intn(12)
		b := make([]byte, n)
		for i := range b {
			b[i] = alphabet[c.Intn(len(alphabet))]
		}
		*s = string(b)
	})

	params := gcodeparam.New(nil)
	for i := 0; i < 200; i++ {
		var tail string
		f.Fuzz(&tail)
		assert.NotPanics(t, func() {
			lx := New("X"+tail, params)
			_ = lx.GetReal('X')
			_ = lx.GetInteger('X')
		})
	}
}
