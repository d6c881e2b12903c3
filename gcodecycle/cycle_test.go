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

package gcodecycle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateDrillFeedsToBottomAndRetractsToR(t *testing.T) {
	blocks := Generate(Params{
		Cycle: Drill,
		X:     10, Y: 20, Z: -5,
		R: 2, LastZ: 10,
		Feed: 100,
	})

	assert.Equal(t, []string{
		"G00 X10 Y20",
		"G00 Z2",
		"G01 Z-5 F100",
		"G00 Z2",
	}, blocks)
}

func TestGenerateDrillRetractsToLastZWhenRetractAll(t *testing.T) {
	blocks := Generate(Params{
		Cycle: Drill,
		X:     0, Y: 0, Z: -1,
		R: 2, LastZ: 10,
		Feed: 50, RetractAll: true,
	})
	assert.Equal(t, "G00 Z10", blocks[len(blocks)-1])
}

func TestGenerateDrillDwellEmitsDwellOnlyWhenPositive(t *testing.T) {
	withDwell := Generate(Params{Cycle: DrillDwell, Z: -3, R: 2, LastZ: 5, Feed: 80, P: 1.5})
	assert.Contains(t, withDwell, "G04 P1.5")
	assert.Equal(t, "G00 Z5", withDwell[len(withDwell)-1], "DrillDwell always retracts to LastZ")

	withoutDwell := Generate(Params{Cycle: DrillDwell, Z: -3, R: 2, LastZ: 5, Feed: 80, P: 0})
	for _, b := range withoutDwell {
		assert.NotContains(t, b, "G04")
	}
}

func TestGeneratePeckStepsDownByQIncrement(t *testing.T) {
	blocks := Generate(Params{
		Cycle: Peck,
		Z:     -10, R: 0, LastZ: 5,
		Q: 3, Feed: 60,
	})

	peckFeeds := 0
	for _, b := range blocks {
		if strings.HasPrefix(b, "G01 Z") {
			peckFeeds++
		}
	}
	assert.Greater(t, peckFeeds, 1, "peck cycle makes more than one feed pass toward the bottom")
	assert.Equal(t, "G01 Z-10 F60", blocks[len(blocks)-2], "final feed pass reaches the programmed bottom")
}

func TestGeneratePeckDefaultsStepToFullDepthWhenQMissing(t *testing.T) {
	blocks := Generate(Params{Cycle: Peck, Z: -5, R: 0, LastZ: 1, Q: 0, Feed: 60})
	feedPasses := 0
	for _, b := range blocks {
		if strings.HasPrefix(b, "G01 Z") {
			feedPasses++
		}
	}
	assert.Equal(t, 1, feedPasses, "with no peck step the cycle goes straight to the bottom in one pass")
}

func TestGenerateTapReversesSpindleAroundTheFeed(t *testing.T) {
	blocks := Generate(Params{Cycle: Tap, Z: -8, R: 2, LastZ: 5, Feed: 100})
	assert.Equal(t, "M03", blocks[2])
	assert.Equal(t, "G01 Z-8 F100", blocks[3])
	assert.Equal(t, "M04", blocks[4])
	assert.Equal(t, blocks[len(blocks)-1], "M03", "tap ends by restoring forward spindle rotation")
}

func TestGenerateBoreFeedsOutRatherThanRapid(t *testing.T) {
	blocks := Generate(Params{Cycle: Bore, Z: -4, R: 2, LastZ: 5, Feed: 40})
	for _, b := range blocks[2:] {
		assert.NotContains(t, b, "G00 Z", "bore retracts on a feed move, not a rapid")
	}
	assert.Equal(t, "G01 Z2 F40", blocks[len(blocks)-1])
}

func TestGenerateBoreShiftOffsetsBeforeRetract(t *testing.T) {
	blocks := Generate(Params{Cycle: BoreShift, X: 10, Y: 10, Z: -4, R: 2, LastZ: 5, K: 1, Feed: 40})
	assert.Contains(t, blocks, "G00 X11 Y10")
	assert.Equal(t, "G00 X10 Y10", blocks[len(blocks)-1], "returns to the hole center after the back-bore shift")
}

func TestGenerateBoreManualInsertsProgramStop(t *testing.T) {
	blocks := Generate(Params{Cycle: BoreManual, Z: -4, R: 2, LastZ: 5, Feed: 40})
	assert.Contains(t, blocks, "M00")
}

func TestStringJoinsBlocksWithTrailingNewline(t *testing.T) {
	out := String([]string{"G00 X0 Y0", "G01 Z-1 F10"})
	assert.Equal(t, "G00 X0 Y0\nG01 Z-1 F10\n", out)
}
