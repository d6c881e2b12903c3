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

// Package gcodeinterp wires the parameter store, tool table, lexer, math
// pipeline, stacks and cycle generator into the state machine (component
// C7): the single ordered per-block dispatch that is the heart of the
// interpreter.
//
// The stage ordering and the fall-through semantics of the M-word stop
// codes are grounded directly on update_gcode_state in
// _examples/original_source/gcode-state.c; this file keeps that function's
// structure but splits it into named stages for readability, the way
// probe-lang/lang/vm/vm.go's execute() dispatches one opcode at a time
// from a single loop while keeping each case small.
package gcodeinterp

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/canonical-gcode/gcode-canon/gclog"
	"github.com/canonical-gcode/gcode-canon/gcodecycle"
	"github.com/canonical-gcode/gcode-canon/gcodeerr"
	"github.com/canonical-gcode/gcode-canon/gcodeio"
	"github.com/canonical-gcode/gcode-canon/gcodelex"
	"github.com/canonical-gcode/gcode-canon/gcodemath"
	"github.com/canonical-gcode/gcode-canon/gcodeparam"
	"github.com/canonical-gcode/gcode-canon/gcodestack"
	"github.com/canonical-gcode/gcode-canon/gcodestate"
	"github.com/canonical-gcode/gcode-canon/gcodetool"
)

// Interpreter is the assembled interpreter core: state machine (C7) plus
// every component it owns or collaborates with (C1-C6, C8-C9).
type Interpreter struct {
	Params *gcodeparam.Store
	Tools  *gcodetool.Store
	State  *gcodestate.State

	progStack *gcodestack.ProgramStack
	snapStack *gcodestack.SnapshotStack

	input   gcodeio.Input
	machine gcodeio.Machine

	log gclog.Logger

	// cycleRestore, while active, holds what to restore once the current
	// canned cycle's spliced expansion blocks finish draining: the hole
	// position (cX/cY/cZ, as committed by the cycle's own axis words) and
	// the Z to retract to under G98. Mirrors the static cX/cY/cZ/lastZ
	// locals and the end_of_spliced_input() handling in
	// _examples/original_source/gcode-state.c.
	cycleRestore spliceRestore
}

// spliceRestore is the cycle-splice bookkeeping described on
// Interpreter.cycleRestore.
type spliceRestore struct {
	active     bool
	cx, cy, cz float64
	lastZ      float64
}

// New assembles an Interpreter from its collaborators. params and tools
// should already hold whatever boot-time/persisted values apply.
func New(params *gcodeparam.Store, tools *gcodetool.Store, input gcodeio.Input, machine gcodeio.Machine) *Interpreter {
	return &Interpreter{
		Params:    params,
		Tools:     tools,
		State:     gcodestate.New(),
		progStack: gcodestack.NewProgramStack(),
		snapStack: gcodestack.NewSnapshotStack(),
		input:     input,
		machine:   machine,
		log:       gclog.New().With("component", "interp"),
	}
}

// Run drives blocks from the input collaborator until the machine stops
// running, the program ends, or the input is exhausted — mirroring
// gcode-canon.c's top-level while loop.
func (ip *Interpreter) Run() error {
	for ip.machine.Running() && ip.State.Run == gcodestate.RunRunning {
		line, err := ip.input.FetchLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := ip.ProcessBlock(line); err != nil {
			return err
		}
	}
	return nil
}

// ProcessBlock runs one block through the full dispatch pipeline.
func (ip *Interpreter) ProcessBlock(raw string) error {
	block := stripWhitespace(raw)
	if block == "" {
		return nil
	}
	if err := gcodelex.ValidateBlock(block); err != nil {
		return err
	}
	lx := gcodelex.New(block, ip.Params)

	ip.stageFeedAndSpeed(lx)
	if err := ip.stageTool(lx); err != nil {
		return err
	}
	ip.stageProbeAndSpindle(lx)
	ip.stageCoolant(lx)
	ip.stageOverrides(lx)
	if err := ip.stageDwell(lx); err != nil {
		return err
	}
	ip.stagePlaneAndUnits(lx)
	if err := ip.stageCompensation(lx); err != nil {
		return err
	}
	wasNonModalPath := ip.stagePathMode(lx)
	ip.stagePositionAndPolar(lx)
	oldWCS, wasMCS := ip.stageWCSSelect(lx)
	ip.stageMirror(lx)
	ip.stageRotation(lx)
	ip.stageScaling(lx)
	ip.stageRetract(lx)
	if err := ip.stageHome(lx); err != nil {
		return err
	}
	ip.stageDataInput(lx)
	if err := ip.stageOffsetSet(lx); err != nil {
		return err
	}
	ip.stageMotionMode(lx)
	ip.stageCycleSelect(lx)
	ip.stageAux(lx)

	if err := ip.stageAxisWordsAndDispatch(lx); err != nil {
		return err
	}

	if wasNonModalPath {
		ip.State.Path = gcodestate.PathContinuous
	}
	if wasMCS {
		ip.State.CurrentWCS = oldWCS
	}
	if err := ip.stageParameterAssignment(block); err != nil {
		return err
	}
	if err := ip.stageProgramControl(lx); err != nil {
		return err
	}
	if ip.input.EndOfSpliced() && ip.cycleRestore.active {
		if err := ip.restoreAfterCycleSplice(); err != nil {
			return err
		}
	}
	return nil
}

// restoreAfterCycleSplice runs once a canned cycle's spliced expansion
// blocks have all been consumed and the input has fallen back to the
// program that called it: motion mode returns to CYCLE (a cycle is always
// what the input was spliced for), a G98 (retract-to-initial) cycle gets
// its mandatory retract to lastZ, and cX/cY/cZ are restored to what they
// were going into the cycle so the next block's CurrentOrLast substitution
// sees the cycle's hole position rather than wherever the expansion's own
// rapids/feeds last left them. Grounded on the end_of_spliced_input()
// block in _examples/original_source/gcode-state.c.
func (ip *Interpreter) restoreAfterCycleSplice() error {
	r := ip.cycleRestore
	ip.cycleRestore = spliceRestore{}
	ip.State.Motion = gcodestate.MotionCycle

	if ip.State.Retract == gcodestate.RetractInitial {
		x, y, z := ip.move(math.NaN(), math.NaN(), r.lastZ)
		ip.commitPose(x, y, z)
		if err := ip.machine.Rapid(x, y, z); err != nil {
			return gcodeerr.ErrMachineFault
		}
		ip.State.X, ip.State.Y, ip.State.Z = x, y, z
	}

	ip.State.CX, ip.State.CY, ip.State.CZ = r.cx, r.cy, r.cz
	return nil
}

func stripWhitespace(s string) string {
	var b strings.Builder
	inComment := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '(':
			inComment = true
		case c == ')':
			inComment = false
		case inComment:
			// skip
		case c == ' ' || c == '\t':
			// skip
		default:
			b.WriteByte(upper(c))
		}
	}
	return b.String()
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func (ip *Interpreter) stageFeedAndSpeed(lx *gcodelex.Lexer) {
	if lx.HasWord('F') > 0 {
		ip.State.Feed = lx.GetReal('F')
	}
	if lx.HasWord('S') > 0 {
		ip.State.Speed = lx.GetReal('S')
	}
}

func (ip *Interpreter) stageTool(lx *gcodelex.Lexer) error {
	if lx.HasWord('T') > 0 {
		ip.State.PendingTool = uint16(lx.GetInteger('T'))
	}
	if lx.HasWord('M', 6) > 0 {
		ip.State.CurrentTool = ip.State.PendingTool
		if err := ip.machine.ToolChange(ip.State.CurrentTool); err != nil {
			return gcodeerr.ErrMachineFault
		}
	}
	if lx.HasWord('M', 52) > 0 {
		ip.State.CurrentTool = 0
	}
	return nil
}

func (ip *Interpreter) stageProbeAndSpindle(lx *gcodelex.Lexer) {
	switch {
	case lx.HasWord('M', 3) > 0:
		ip.State.Spindle = gcodestate.SpindleCW
		ip.machine.Spindle(true, ip.State.Speed)
	case lx.HasWord('M', 4) > 0:
		ip.State.Spindle = gcodestate.SpindleCCW
		ip.machine.Spindle(false, ip.State.Speed)
	case lx.HasWord('M', 5) > 0:
		ip.State.Spindle = gcodestate.SpindleOff
		ip.machine.SpindleStop()
	}
}

func (ip *Interpreter) stageCoolant(lx *gcodelex.Lexer) {
	changed := false
	switch lx.HasWord('M', 7, 8, 9) {
	case 7:
		ip.State.Coolant |= gcodestate.CoolantMist
		changed = true
	case 8:
		ip.State.Coolant |= gcodestate.CoolantFlood
		changed = true
	case 9:
		ip.State.Coolant = gcodestate.CoolantNone
		changed = true
	}
	if changed {
		ip.machine.Coolant(ip.State.Coolant&gcodestate.CoolantMist != 0, ip.State.Coolant&gcodestate.CoolantFlood != 0)
	}
}

func (ip *Interpreter) stageOverrides(lx *gcodelex.Lexer) {
	switch lx.HasWord('M', 48, 49) {
	case 48:
		ip.State.OverridesOn = true
	case 49:
		ip.State.OverridesOn = false
	}
}

func (ip *Interpreter) stageDwell(lx *gcodelex.Lexer) error {
	if lx.HasWord('G', 4) > 0 {
		ip.State.Dwell = lx.GetRealDefault('P', 0)
		if err := ip.machine.Dwell(ip.State.Dwell); err != nil {
			return gcodeerr.ErrMachineFault
		}
	}
	return nil
}

func (ip *Interpreter) stagePlaneAndUnits(lx *gcodelex.Lexer) {
	switch lx.HasWord('G', 17, 18, 19) {
	case 17:
		ip.State.Plane = gcodestate.PlaneXY
	case 18:
		ip.State.Plane = gcodestate.PlaneXZ
	case 19:
		ip.State.Plane = gcodestate.PlaneYZ
	}
	switch lx.HasWord('G', 20, 21) {
	case 20:
		ip.State.Units = gcodestate.UnitsInch
	case 21:
		ip.State.Units = gcodestate.UnitsMetric
	}
}

func (ip *Interpreter) stageCompensation(lx *gcodelex.Lexer) error {
	switch lx.HasWord('G', 40, 41, 42) {
	case 40:
		ip.State.Comp = gcodestate.CompOff
	case 41, 42:
		if lx.HasWord('G', 41) > 0 {
			ip.State.Comp = gcodestate.CompLeft
		} else {
			ip.State.Comp = gcodestate.CompRight
		}
		// Default tool is the T-word preselect register, not the loaded
		// tool, matching radiusof_tool(currentGCodeState.T) in the
		// original. A D-word names an explicit tool instead. Either way
		// the radius is fetched and frozen now, not at dispatch time, so
		// it belongs in its own state field rather than PendingTool
		// (which must keep holding the preselected tool for the next M6).
		tool := ip.State.PendingTool
		if lx.HasWord('D') > 0 {
			tool = uint16(lx.GetInteger('D'))
		}
		ip.State.CompRadius = ip.Tools.RadiusOf(tool)
	}

	switch lx.HasWord('G', 43, 44, 49) {
	case 49:
		ip.State.LengthComp = gcodestate.LengthCompOff
	case 43, 44:
		// Same default-to-preselect-register rule as G41/G42 above,
		// mirroring lengthof_tool(currentGCodeState.T).
		tool := ip.State.PendingTool
		if lx.HasWord('H') > 0 {
			tool = uint16(lx.GetInteger('H'))
		}
		length := ip.Tools.LengthOf(tool)
		if lx.HasWord('G', 44) > 0 {
			ip.State.LengthComp = gcodestate.LengthCompNegative
			length = -length
		} else {
			ip.State.LengthComp = gcodestate.LengthCompPositive
		}
		if err := ip.Params.Update(gcodeparam.FirstOffset+gcodeparam.AxisZ, length); err != nil {
			return err
		}
	}
	return nil
}

func (ip *Interpreter) stagePathMode(lx *gcodelex.Lexer) (wasNonModal bool) {
	switch lx.HasWord('G', 61, 64, 9) {
	case 61:
		ip.State.Path = gcodestate.PathExact
	case 64:
		ip.State.Path = gcodestate.PathContinuous
	case 9:
		wasNonModal = ip.State.Path != gcodestate.PathExactNonModal
		ip.State.Path = gcodestate.PathExactNonModal
	}
	return wasNonModal
}

func (ip *Interpreter) stagePositionAndPolar(lx *gcodelex.Lexer) {
	switch lx.HasWord('G', 90, 91) {
	case 90:
		ip.State.Position = gcodestate.PositionAbsolute
	case 91:
		ip.State.Position = gcodestate.PositionIncremental
	}
	switch lx.HasWord('G', 15, 16) {
	case 15:
		ip.State.Polar = gcodestate.PolarOff
	case 16:
		ip.State.Polar = gcodestate.PolarOn
	}
}

func (ip *Interpreter) stageWCSSelect(lx *gcodelex.Lexer) (oldWCS int, wasMCS bool) {
	switch lx.HasWord('G', 53, 54, 55, 56, 57, 58, 59) {
	case 53:
		oldWCS = ip.State.CurrentWCS
		wasMCS = true
		ip.State.CurrentWCS = -1 // machine coordinate system: no WCS origin applied
	case 54:
		ip.State.CurrentWCS = 0
	case 55:
		ip.State.CurrentWCS = 1
	case 56:
		ip.State.CurrentWCS = 2
	case 57:
		ip.State.CurrentWCS = 3
	case 58:
		ip.State.CurrentWCS = 4
	case 59:
		ip.State.CurrentWCS = 5
	}
	return oldWCS, wasMCS
}

func (ip *Interpreter) stageMirror(lx *gcodelex.Lexer) {
	switch lx.HasWord('M', 21, 22, 23) {
	case 21:
		ip.State.MirrorX = true
	case 22:
		ip.State.MirrorY = true
	case 23:
		ip.State.MirrorX, ip.State.MirrorY, ip.State.MirrorZ = false, false, false
	}
}

func (ip *Interpreter) stageRotation(lx *gcodelex.Lexer) {
	switch lx.HasWord('G', 68, 69) {
	case 68:
		ip.State.RotationOn = true
		ip.State.RotationOriginX = lx.GetRealDefault('X', ip.State.X)
		ip.State.RotationOriginY = lx.GetRealDefault('Y', ip.State.Y)
		ip.State.RotationAngle = lx.GetRealDefault('R', 0)
	case 69:
		ip.State.RotationOn = false
	}
}

func (ip *Interpreter) stageScaling(lx *gcodelex.Lexer) {
	switch lx.HasWord('G', 51, 50) {
	case 51:
		ip.State.ScalingOn = true
		ip.State.ScalingOriginX = lx.GetRealDefault('X', ip.State.X)
		ip.State.ScalingOriginY = lx.GetRealDefault('Y', ip.State.Y)
		ip.State.ScalingOriginZ = lx.GetRealDefault('Z', ip.State.Z)
		if lx.HasWord('P') > 0 {
			f := lx.GetReal('P')
			ip.State.ScalingFactorX, ip.State.ScalingFactorY, ip.State.ScalingFactorZ = f, f, f
		} else {
			ip.State.ScalingFactorX = lx.GetRealDefault('I', 1.0)
			ip.State.ScalingFactorY = lx.GetRealDefault('J', 1.0)
			ip.State.ScalingFactorZ = lx.GetRealDefault('K', 1.0)
		}
	case 50:
		ip.State.ScalingOn = false
	}
}

func (ip *Interpreter) stageRetract(lx *gcodelex.Lexer) {
	switch lx.HasWord('G', 98, 99) {
	case 98:
		ip.State.Retract = gcodestate.RetractInitial
	case 99:
		ip.State.Retract = gcodestate.RetractRPlane
	}
}

func (ip *Interpreter) stageHome(lx *gcodelex.Lexer) error {
	switch lx.HasWord('G', 28, 29, 30, 80) {
	case 28, 29, 30:
		x, y, z := ip.move(lx.GetReal('X'), lx.GetReal('Y'), lx.GetReal('Z'))
		ip.State.Motion = gcodestate.MotionOff
		if err := ip.machine.Home(x, y, z); err != nil {
			return gcodeerr.ErrMachineFault
		}
		ip.State.X, ip.State.Y, ip.State.Z = x, y, z
	case 80:
		ip.State.Motion = gcodestate.MotionOff
	}
	return nil
}

func (ip *Interpreter) stageDataInput(lx *gcodelex.Lexer) {
	switch lx.HasWord('G', 10, 11) {
	case 10:
		ip.State.DataInput = gcodestate.DataInputOn
		ip.State.Motion = gcodestate.MotionStore
	case 11:
		ip.State.DataInput = gcodestate.DataInputOff
	}
}

// stageOffsetSet handles G52/G92: both fold the programmed word through the
// same system/relative/inch cascade a move uses, but write the result into
// the axis's local (G92/G52) offset parameter instead of commanding motion.
// Grounded on the have_gcode_word('G', 2, 52, 92) block in
// _examples/original_source/gcode-state.c, which calls do_G_coordinate_math
// unconditionally for all three axes — an absent word still overwrites the
// offset, using the axis's last transformed (g) position as input.
func (ip *Interpreter) stageOffsetSet(lx *gcodelex.Lexer) error {
	if lx.HasWord('G', 52) == 0 && lx.HasWord('G', 92) == 0 {
		return nil
	}
	axes := [3]struct {
		axis   int
		letter byte
		g      float64
	}{
		{gcodeparam.AxisX, 'X', ip.State.GX},
		{gcodeparam.AxisY, 'Y', ip.State.GY},
		{gcodeparam.AxisZ, 'Z', ip.State.GZ},
	}
	for _, a := range axes {
		oldOffset := ip.Params.Fetch(uint16(gcodeparam.FirstLocal + a.axis))
		v := ip.coordinateMath(lx.GetReal(a.letter), oldOffset, a.g, a.axis)
		if err := ip.Params.Update(uint16(gcodeparam.FirstLocal+a.axis), v); err != nil {
			return err
		}
	}
	return ip.Params.Commit()
}

func (ip *Interpreter) stageMotionMode(lx *gcodelex.Lexer) {
	switch lx.HasWord('G', 0, 1, 2, 3) {
	case gcodelex.ZeroMatch:
		ip.State.Motion = gcodestate.MotionRapid
	case 1:
		ip.State.Motion = gcodestate.MotionLinear
	case 2:
		ip.State.Motion = gcodestate.MotionArcCW
		ip.State.ResetArcCenter()
	case 3:
		ip.State.Motion = gcodestate.MotionArcCCW
		ip.State.ResetArcCenter()
	}
}

func (ip *Interpreter) stageCycleSelect(lx *gcodelex.Lexer) {
	cycles := []int{81, 82, 83, 84, 85, 86, 87, 88, 89, 73, 74, 76, 77}
	if lx.HasWord('G', cycles...) > 0 {
		ip.State.Motion = gcodestate.MotionCycle
	}
}

func (ip *Interpreter) stageAux(lx *gcodelex.Lexer) {
	if lx.HasWord('M', 19) > 0 {
		ip.machine.Aux(19)
	}
	if lx.HasWord('G', 65) > 0 {
		ip.State.Motion = gcodestate.MotionMacro
	}
}

// wcsOriginOf fetches the active work-coordinate-system's stored origin for
// axis, or 0 when the machine coordinate system (G53) is selected.
func (ip *Interpreter) wcsOriginOf(axis int) float64 {
	if ip.State.CurrentWCS < 0 {
		return 0
	}
	return ip.Params.Fetch(gcodeparam.WCSOrigin(ip.State.CurrentWCS, axis))
}

// localOffsetOf fetches the G92/G52 local offset parameter for axis.
func (ip *Interpreter) localOffsetOf(axis int) float64 {
	return ip.Params.Fetch(uint16(gcodeparam.FirstLocal + axis))
}

// coordinateMath mirrors do_G_coordinate_math: it is used when a block sets
// an offset or origin (G52/G92/G10 L2) rather than commanding motion, so it
// skips length compensation and rotation/scaling/mirroring entirely. An
// absent word (raw is NaN) returns previous unchanged.
func (ip *Interpreter) coordinateMath(raw, offset, previous float64, axis int) float64 {
	if math.IsNaN(raw) {
		return previous
	}
	mcs := ip.State.CurrentWCS < 0
	v := gcodemath.System(raw, mcs, offset, ip.wcsOriginOf(axis))
	v = gcodemath.Relative(v, previous, ip.State.Absolute())
	return gcodemath.Inch(v, ip.State.Imperial())
}

// transformAxis threads one axis word through the system/relative/inch
// cascade without touching the interpreter's cX/cY/cZ or gX/gY/gZ state,
// for values that share a move's coordinate system but are not a commanded
// axis position themselves (the R-plane word of a canned cycle).
func (ip *Interpreter) transformAxis(raw, last float64, axis int) float64 {
	absolute := ip.State.Absolute()
	c := gcodemath.CurrentOrLast(raw, last)
	newc := gcodemath.CurrentOrZero(c, c, absolute, math.IsNaN(raw))

	var origin float64
	switch axis {
	case gcodeparam.AxisX:
		origin = ip.State.GX
	case gcodeparam.AxisY:
		origin = ip.State.GY
	default:
		origin = ip.State.GZ
	}
	g := gcodemath.Relative(newc, origin, absolute)
	g = gcodemath.System(g, ip.State.CurrentWCS < 0, ip.localOffsetOf(axis), ip.wcsOriginOf(axis))
	if axis == gcodeparam.AxisZ {
		g = gcodemath.LengthComp(g, ip.State.LengthComp, ip.Params.Fetch(gcodeparam.FirstOffset+gcodeparam.AxisZ))
	}
	return gcodemath.Inch(g, ip.State.Imperial())
}

// move threads a block's raw X/Y/Z words through the full coordinate
// pipeline: current-or-last substitution, polar-to-cartesian conversion,
// incremental accumulation against the last transformed position,
// WCS/local-offset/length-compensation, unit conversion, then plane-aware
// rotation, scaling and per-axis mirroring. Grounded signature-for-signature
// on move_math in _examples/original_source/gcode-math.c; mirroring_math is
// deliberately applied here as a final stage even though move_math never
// calls it, since nothing else in the original ever invokes it either and a
// mirrored machine still needs its mirrored axes applied somewhere.
func (ip *Interpreter) move(rawX, rawY, rawZ float64) (x, y, z float64) {
	absolute := ip.State.Absolute()

	ip.State.CX = gcodemath.CurrentOrLast(rawX, ip.State.CX)
	ip.State.CY = gcodemath.CurrentOrLast(rawY, ip.State.CY)
	ip.State.CZ = gcodemath.CurrentOrLast(rawZ, ip.State.CZ)

	var newcX, newcY float64
	relAbsolute := absolute
	if ip.State.Polar == gcodestate.PolarOn {
		newcX, newcY = gcodemath.Polar(ip.State.CX, ip.State.CY)
		relAbsolute = false // polar coordinates always work incrementally
	} else {
		newcX = gcodemath.CurrentOrZero(ip.State.CX, ip.State.CX, absolute, math.IsNaN(rawX))
		newcY = gcodemath.CurrentOrZero(ip.State.CY, ip.State.CY, absolute, math.IsNaN(rawY))
	}
	newcZ := gcodemath.CurrentOrZero(ip.State.CZ, ip.State.CZ, absolute, math.IsNaN(rawZ))

	gX := gcodemath.Relative(newcX, ip.State.GX, relAbsolute)
	gY := gcodemath.Relative(newcY, ip.State.GY, relAbsolute)
	gZ := gcodemath.Relative(newcZ, ip.State.GZ, absolute)

	mcs := ip.State.CurrentWCS < 0
	gX = gcodemath.System(gX, mcs, ip.localOffsetOf(gcodeparam.AxisX), ip.wcsOriginOf(gcodeparam.AxisX))
	gY = gcodemath.System(gY, mcs, ip.localOffsetOf(gcodeparam.AxisY), ip.wcsOriginOf(gcodeparam.AxisY))
	gZ = gcodemath.System(gZ, mcs, ip.localOffsetOf(gcodeparam.AxisZ), ip.wcsOriginOf(gcodeparam.AxisZ))

	gZ = gcodemath.LengthComp(gZ, ip.State.LengthComp, ip.Params.Fetch(gcodeparam.FirstOffset+gcodeparam.AxisZ))

	ip.State.GX, ip.State.GY, ip.State.GZ = gX, gY, gZ

	imperial := ip.State.Imperial()
	x = gcodemath.Inch(gX, imperial)
	y = gcodemath.Inch(gY, imperial)
	z = gcodemath.Inch(gZ, imperial)

	if ip.State.RotationOn {
		switch ip.State.Plane {
		case gcodestate.PlaneXY:
			x, y = gcodemath.Rotation(x, y, ip.State.RotationAngle, ip.State.RotationOriginX, ip.State.RotationOriginY)
		case gcodestate.PlaneYZ:
			y, z = gcodemath.Rotation(y, z, ip.State.RotationAngle, ip.State.RotationOriginY, ip.State.RotationOriginZ)
		case gcodestate.PlaneXZ:
			z, x = gcodemath.Rotation(z, x, ip.State.RotationAngle, ip.State.RotationOriginZ, ip.State.RotationOriginX)
		}
	}

	if ip.State.ScalingOn {
		x = gcodemath.Scaling(x, ip.State.ScalingOriginX, ip.State.ScalingFactorX)
		y = gcodemath.Scaling(y, ip.State.ScalingOriginY, ip.State.ScalingFactorY)
		z = gcodemath.Scaling(z, ip.State.ScalingOriginZ, ip.State.ScalingFactorZ)
	}

	x = gcodemath.Mirror(x, ip.State.X, &ip.State.MirrorOriginX, ip.State.MirrorX)
	y = gcodemath.Mirror(y, ip.State.Y, &ip.State.MirrorOriginY, ip.State.MirrorY)
	z = gcodemath.Mirror(z, ip.State.Z, &ip.State.MirrorOriginZ, ip.State.MirrorZ)

	return x, y, z
}

func (ip *Interpreter) stageAxisWordsAndDispatch(lx *gcodelex.Lexer) error {
	nullMove := lx.HasWord('X') == 0 && lx.HasWord('Y') == 0 && lx.HasWord('Z') == 0

	switch ip.State.Motion {
	case gcodestate.MotionCycle:
		return ip.dispatchCycle(lx)
	case gcodestate.MotionStore:
		return ip.dispatchStore(lx)
	case gcodestate.MotionMacro:
		return ip.dispatchMacro(lx)
	}

	if nullMove {
		return nil
	}

	x, y, z := ip.move(lx.GetReal('X'), lx.GetReal('Y'), lx.GetReal('Z'))

	var i, j, k float64
	if ip.State.Motion == gcodestate.MotionArcCW || ip.State.Motion == gcodestate.MotionArcCCW {
		i = lx.GetRealDefault('I', ip.State.I)
		j = lx.GetRealDefault('J', ip.State.J)
		k = lx.GetRealDefault('K', ip.State.K)
		if lx.HasWord('R') > 0 {
			i, j, k = gcodemath.ArcFromRadius(x, y, ip.State.X, ip.State.Y, lx.GetReal('R'), ip.State.Motion == gcodestate.MotionArcCW)
		}
		ip.State.I, ip.State.J, ip.State.K = i, j, k
	}

	if ip.State.Comp != gcodestate.CompOff {
		radius := ip.State.CompRadius
		left := ip.State.Comp == gcodestate.CompLeft
		switch ip.State.Motion {
		case gcodestate.MotionLinear, gcodestate.MotionRapid:
			_, _, x, y = gcodemath.OffsetLinear(ip.State.X, ip.State.Y, x, y, radius, left)
		case gcodestate.MotionArcCW, gcodestate.MotionArcCCW:
			cx, cy := ip.State.X+i, ip.State.Y+j
			_, _, x, y = gcodemath.OffsetArc(ip.State.X, ip.State.Y, cx, cy, x, y, radius, left, ip.State.Motion == gcodestate.MotionArcCCW)
		}
	}

	ip.commitPose(x, y, z)

	switch ip.State.Motion {
	case gcodestate.MotionRapid:
		if err := ip.machine.Rapid(x, y, z); err != nil {
			return gcodeerr.ErrMachineFault
		}
	case gcodestate.MotionLinear:
		if err := ip.machine.Linear(x, y, z, ip.State.Feed); err != nil {
			return gcodeerr.ErrMachineFault
		}
	case gcodestate.MotionArcCW, gcodestate.MotionArcCCW:
		if err := ip.machine.Arc(x, y, z, i, j, k, ip.State.Feed, ip.State.Motion == gcodestate.MotionArcCW); err != nil {
			return gcodeerr.ErrMachineFault
		}
	}

	ip.State.X, ip.State.Y, ip.State.Z = x, y, z
	return nil
}

func (ip *Interpreter) commitPose(x, y, z float64) {
	ip.Params.Update(gcodeparam.FirstCEOB+gcodeparam.AxisX, x)
	ip.Params.Update(gcodeparam.FirstCEOB+gcodeparam.AxisY, y)
	ip.Params.Update(gcodeparam.FirstCEOB+gcodeparam.AxisZ, z)
	ip.Params.Commit()
}

func (ip *Interpreter) dispatchCycle(lx *gcodelex.Lexer) error {
	id := gcodecycle.ID(currentCycleID(lx))
	x, y, z := ip.move(lx.GetReal('X'), lx.GetReal('Y'), lx.GetReal('Z'))

	// R is modal: a repeat block with no R word reuses the retract plane
	// from the cycle that established it, per the CYCLE case's
	// get_gcode_word_real_default('R', ...) in gcode-state.c.
	ip.State.R = lx.GetRealDefault('R', ip.State.R)
	r := ip.transformAxis(ip.State.R, ip.State.CZ, gcodeparam.AxisZ)

	lastZ := ip.State.Z
	repeats := lx.GetIntegerDefault('L', 1)

	p := gcodecycle.Params{
		Cycle:      id,
		X:          x,
		Y:          y,
		Z:          z,
		R:          r,
		LastZ:      lastZ,
		Q:          lx.GetRealDefault('Q', 0),
		P:          lx.GetRealDefault('P', 0),
		K:          lx.GetRealDefault('K', 0),
		I:          lx.GetRealDefault('I', 0),
		J:          lx.GetRealDefault('J', 0),
		Feed:       ip.State.Feed,
		RetractAll: ip.State.Retract == gcodestate.RetractInitial,
		Repeats:    repeats,
	}

	ip.cycleRestore = spliceRestore{
		active: true,
		cx:     ip.State.CX, cy: ip.State.CY, cz: ip.State.CZ,
		lastZ: lastZ,
	}

	blocks := gcodecycle.Generate(p)
	ip.input.Splice(gcodecycle.String(blocks))
	ip.State.X, ip.State.Y, ip.State.Z = x, y, r
	return nil
}

func currentCycleID(lx *gcodelex.Lexer) int {
	cycles := []int{81, 82, 83, 84, 85, 86, 87, 88, 89, 73, 74, 76, 77}
	return lx.HasWord('G', cycles...)
}

func (ip *Interpreter) dispatchStore(lx *gcodelex.Lexer) error {
	l := lx.GetIntegerDefault('L', 0)
	switch l {
	case 1: // tool diameter, R is a radius in the programmed units
		if lx.HasWord('P') > 0 && lx.HasWord('R') > 0 {
			tool := ip.Tools.Fetch(uint16(lx.GetInteger('P')))
			r := lx.GetReal('R')
			if ip.State.Imperial() {
				r *= 25.4
			}
			tool.Diameter = r * 2
			return ip.Tools.Update(tool)
		}
	case 2: // WCS origin
		if lx.HasWord('P') > 0 {
			wcs := int(lx.GetInteger('P')) - 1
			axes := [3]struct {
				axis   int
				letter byte
				g      float64
			}{
				{gcodeparam.AxisX, 'X', ip.State.GX},
				{gcodeparam.AxisY, 'Y', ip.State.GY},
				{gcodeparam.AxisZ, 'Z', ip.State.GZ},
			}
			for _, a := range axes {
				// Mirrors the original: the new WCS origin is computed
				// through the currently active WCS's own origin, not the
				// target WCS being written (GCODE_PARM_FIRST_WCS + wcs).
				v := ip.coordinateMath(lx.GetReal(a.letter), 0, a.g, a.axis)
				if err := ip.Params.Update(gcodeparam.WCSOrigin(wcs, a.axis), v); err != nil {
					return err
				}
			}
			return ip.Params.Commit()
		}
	case 3: // tool length/diameter from H or D
		if lx.HasWord('P') > 0 {
			tool := ip.Tools.Fetch(uint16(lx.GetInteger('P')))
			if lx.HasWord('H') > 0 {
				tool.Length = lx.GetReal('H')
			}
			if lx.HasWord('D') > 0 {
				tool.Diameter = lx.GetReal('D')
			}
			return ip.Tools.Update(tool)
		}
	}
	return nil
}

// macroArgLocals binds each argument letter a G65 call recognizes to its
// macro-local parameter number. Grounded verbatim on the MACRO case's
// explicit update_parameter(n, get_gcode_word_real(letter)) sequence in
// _examples/original_source/gcode-state.c (A/B/C/I/J/K/D/H/L/P/Q/R/U/V/W/X/Y/Z
// map to #1-26, not the plain alphabetical order the letters are written
// in).
var macroArgLocals = map[byte]uint16{
	'A': 1, 'B': 2, 'C': 3,
	'I': 4, 'J': 5, 'K': 6,
	'D': 7,
	'H': 11, 'L': 12,
	'P': 16, 'Q': 17, 'R': 18,
	'U': 21, 'V': 22, 'W': 23,
	'X': 24, 'Y': 25, 'Z': 26,
}

func (ip *Interpreter) dispatchMacro(lx *gcodelex.Lexer) error {
	ip.snapStack.Push(ip.Params.SnapshotLocals())
	for letter, local := range macroArgLocals {
		if err := ip.Params.Update(local, lx.GetReal(letter)); err != nil {
			return err
		}
	}
	return ip.Params.Commit()
}

func (ip *Interpreter) stageParameterAssignment(block string) error {
	for i := 0; i < len(block); i++ {
		if block[i] != '#' {
			continue
		}
		rest := block[i+1:]
		eq := strings.IndexByte(rest, '=')
		if eq < 0 {
			continue
		}
		numStr := rest[:eq]
		valStr := rest[eq+1:]
		n, okNum := parseParamNumber(numStr)
		v, okVal := parseParamValue(valStr)
		if !okNum || !okVal {
			continue
		}
		if err := ip.Params.Update(n, v); err != nil {
			return err
		}
	}
	return ip.Params.Commit()
}

func parseParamNumber(s string) (uint16, bool) {
	var n int
	if len(s) == 0 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return uint16(n), true
}

func parseParamValue(s string) (float64, bool) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	return v, err == nil
}

func (ip *Interpreter) stageProgramControl(lx *gcodelex.Lexer) error {
	if lx.HasWord('M', 47) > 0 {
		return ip.input.SeekTo(0)
	}

	if lx.HasWord('M', 98) > 0 {
		return ip.callMacro(lx)
	}
	if lx.HasWord('M', 99) > 0 {
		return ip.returnMacro()
	}

	switch lx.HasWord('M', 0, 1, 2, 30, 60, 112, 17, 18, 61, 62, 63) {
	case gcodelex.ZeroMatch: // M00: compulsory stop
		ip.State.Run = gcodestate.RunCompulsoryStop
	case 1: // M01: optional stop
		ip.State.Run = gcodestate.RunOptionalStop
	case 2, 30: // M02/M30: program end
		ip.State.Run = gcodestate.RunEnd
	case 60: // M60: pallet-change stop, treated like a compulsory stop
		ip.State.Run = gcodestate.RunCompulsoryStop
	case 112: // M112: emergency stop
		ip.State.Run = gcodestate.RunReset
	case 17, 18, 61, 62, 63:
		ip.State.Run = gcodestate.RunEnd
	}
	return nil
}

func (ip *Interpreter) callMacro(lx *gcodelex.Lexer) error {
	offset := ip.input.Offset()
	repeats := lx.GetIntegerDefault('L', 1)
	if lx.HasWord('P') > 0 {
		text, err := ip.input.ResolveProgram(lx.GetInteger('P'))
		if err != nil {
			return err
		}
		ip.snapStack.Push(ip.Params.SnapshotLocals())
		ip.progStack.Push(gcodestack.Frame{Offset: offset, MacroCall: true, RepeatCount: repeats})
		ip.input.Splice(text)
		return nil
	}
	ip.progStack.Push(gcodestack.Frame{Offset: offset, MacroCall: false, RepeatCount: repeats})
	return nil
}

func (ip *Interpreter) returnMacro() error {
	frame, err := ip.progStack.Pop()
	if err != nil {
		return err
	}
	if frame.RepeatCount > 1 {
		frame.RepeatCount--
		ip.progStack.Push(frame)
		return ip.input.SeekTo(frame.Offset)
	}
	if frame.MacroCall {
		if snap, err := ip.snapStack.Pop(); err == nil {
			ip.Params.RestoreLocals(snap)
		}
	}
	return nil
}
