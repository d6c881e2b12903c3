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

package gcodeinterp

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/canonical-gcode/gcode-canon/gcodeio"
	"github.com/canonical-gcode/gcode-canon/gcodeparam"
	"github.com/canonical-gcode/gcode-canon/gcodestate"
	"github.com/canonical-gcode/gcode-canon/gcodetool"
)

func newTestInterpreter(program string) (*Interpreter, *gcodeio.TracingMachine) {
	params := gcodeparam.New(nil)
	tools := gcodetool.New(params)
	machine := gcodeio.NewTracingMachine()
	input := gcodeio.NewFileInput(strings.NewReader(program), nil)
	return New(params, tools, input, machine), machine
}

func TestLinearMoveAbsoluteThenIncremental(t *testing.T) {
	ip, m := newTestInterpreter("")
	assert.NoError(t, ip.ProcessBlock("G1 X10 Y5"))
	assert.Equal(t, 10.0, ip.State.X)
	assert.Equal(t, 5.0, ip.State.Y)

	assert.NoError(t, ip.ProcessBlock("G91 X2"))
	assert.Equal(t, 12.0, ip.State.X, "incremental move adds to the last transformed position")
	assert.Equal(t, 5.0, ip.State.Y, "axis word absent in incremental mode contributes no displacement")

	assert.Len(t, m.Commands, 2)
}

func TestHeldPositionWhenAxisWordAbsentInAbsoluteMode(t *testing.T) {
	ip, _ := newTestInterpreter("")
	assert.NoError(t, ip.ProcessBlock("G1 X10 Y20"))
	assert.NoError(t, ip.ProcessBlock("G1 X15"))
	assert.Equal(t, 15.0, ip.State.X)
	assert.Equal(t, 20.0, ip.State.Y, "Y held its last absolute position")
}

func TestWCSOffsetAppliedToMove(t *testing.T) {
	ip, _ := newTestInterpreter("")
	_ = ip.Params.Update(gcodeparam.WCSOrigin(0, gcodeparam.AxisX), 100)
	_ = ip.Params.Commit()

	assert.NoError(t, ip.ProcessBlock("G1 X10"))
	assert.Equal(t, 110.0, ip.State.X, "WCS1 origin shifts the programmed position")
}

// G92, in absolute positioning mode, folds its word through system_math but
// not through relative_math's "add the last position" branch — the original
// do_G_coordinate_math only adds previous in incremental mode, so an
// absolute-mode G92 sets the local offset to wcsOrigin+oldOffset+programmed
// regardless of where the tool currently sits.
func TestG92SetsLocalOffsetAndShiftsSubsequentMoves(t *testing.T) {
	ip, _ := newTestInterpreter("")
	assert.NoError(t, ip.ProcessBlock("G1 X10"))
	assert.NoError(t, ip.ProcessBlock("G92 X7"))
	assert.NoError(t, ip.ProcessBlock("G1 X5"))
	assert.Equal(t, 12.0, ip.State.X)

	offset := ip.Params.Fetch(uint16(gcodeparam.FirstLocal + gcodeparam.AxisX))
	assert.Equal(t, 7.0, offset)
}

func TestCannedCycleSplicesExpansionBlocks(t *testing.T) {
	ip, m := newTestInterpreter("")
	assert.NoError(t, ip.ProcessBlock("G0 Z10"))
	assert.NoError(t, ip.ProcessBlock("G81 X10 Y10 Z-5 R2 F100"))
	assert.NoError(t, ip.Run())

	foundDrillDepth := false
	for _, c := range m.Commands {
		if strings.Contains(c, "Z-5") {
			foundDrillDepth = true
		}
	}
	assert.True(t, foundDrillDepth, "cycle expansion should command a move to the programmed depth")
}

func TestMacroCallReturnRestoresLocals(t *testing.T) {
	program := "M98 P100\nG1 X#1\nM2\n"
	ip, _ := newTestInterpreter(program)

	resolveCalled := false
	ip.input = gcodeio.NewFileInput(strings.NewReader(program), func(n uint32) (string, error) {
		resolveCalled = n == 100
		return "#1=42\nM99\n", nil
	})

	assert.NoError(t, ip.Run())
	assert.True(t, resolveCalled)
	assert.Equal(t, 0.0, ip.State.X, "M99 restores #1 to its value before the M98 call")
}

func TestG65MacroCallBindsArgumentsToLocals(t *testing.T) {
	ip, _ := newTestInterpreter("")
	assert.NoError(t, ip.ProcessBlock("#1=1"))
	depthBefore := ip.snapStack.Depth()

	assert.NoError(t, ip.ProcessBlock("G65 A1 B2 X10 Z-5"))

	assert.Equal(t, gcodestate.MotionMacro, ip.State.Motion)
	assert.Equal(t, depthBefore+1, ip.snapStack.Depth(), "G65 pushes a parameter snapshot")
	assert.Equal(t, 1.0, ip.Params.Fetch(1), "A binds to #1")
	assert.Equal(t, 2.0, ip.Params.Fetch(2), "B binds to #2")
	assert.Equal(t, 10.0, ip.Params.Fetch(24), "X binds to #24")
	assert.Equal(t, -5.0, ip.Params.Fetch(26), "Z binds to #26")
	assert.True(t, math.IsNaN(ip.Params.Fetch(16)), "P is absent so #16 takes the unset sentinel")
}

func TestCannedCycleModalRepeatReentersCycleAfterSplice(t *testing.T) {
	ip, m := newTestInterpreter("")
	assert.NoError(t, ip.ProcessBlock("G0 Z10"))
	assert.NoError(t, ip.ProcessBlock("G81 X10 Y10 Z-5 R2 F100"))
	assert.NoError(t, ip.Run())

	m.Commands = nil
	assert.NoError(t, ip.ProcessBlock("X20 Y20"))
	assert.NoError(t, ip.Run())

	foundRepeatDepth := false
	for _, c := range m.Commands {
		if strings.HasPrefix(c, "LINEAR") && strings.Contains(c, "Z-5") {
			foundRepeatDepth = true
		}
	}
	assert.True(t, foundRepeatDepth, "a bare axis-only block after the cycle's splice drains should re-enter CYCLE dispatch, not fall through to a plain move")
}

func TestProgramEndStopsRun(t *testing.T) {
	ip, _ := newTestInterpreter("G1 X1\nM2\nG1 X99\n")
	assert.NoError(t, ip.Run())
	assert.Equal(t, 1.0, ip.State.X, "M2 ends the program before the trailing block runs")
}
