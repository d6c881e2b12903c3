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

import "github.com/canonical-gcode/gcode-canon/gcodemath"

// Plane is the active working plane (G17/G18/G19), closed alphabet
// modeled as a named integer the way
// probe-lang/lang/vm/opcodes.go models its opcode space.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneYZ
)

// Units is the active linear unit system (G20/G21).
type Units int

const (
	UnitsMetric Units = iota
	UnitsInch
)

// MotionMode is the active group-1 modal motion mode.
type MotionMode int

const (
	MotionOff MotionMode = iota
	MotionRapid
	MotionLinear
	MotionArcCW
	MotionArcCCW
	MotionCycle
	MotionStore
	MotionMacro
)

// CompMode is the active cutter compensation mode (G40/G41/G42).
type CompMode int

const (
	CompOff CompMode = iota
	CompLeft
	CompRight
)

// LengthCompMode is the active tool length compensation mode
// (G43/G44/G49), shared with the math pipeline's LengthComp stage.
type LengthCompMode = gcodemath.LengthCompMode

const (
	LengthCompOff      = gcodemath.LengthCompOff
	LengthCompPositive = gcodemath.LengthCompPositive
	LengthCompNegative = gcodemath.LengthCompNegative
)

// RetractMode selects where G98/G99 cycles retract to between repeats.
type RetractMode int

const (
	RetractInitial RetractMode = iota
	RetractRPlane
)

// PathMode is the exact-stop-check modal/non-modal state (G61/G64/G09).
type PathMode int

const (
	PathContinuous PathMode = iota
	PathExact
	PathExactNonModal
)

// PositionMode selects absolute (G90) vs incremental (G91) programming.
type PositionMode int

const (
	PositionAbsolute PositionMode = iota
	PositionIncremental
)

// PolarMode selects cartesian (G15) vs polar (G16) axis-word
// interpretation.
type PolarMode int

const (
	PolarOff PolarMode = iota
	PolarOn
)

// DataInputMode distinguishes plain motion blocks from G10/G11 data-set
// blocks.
type DataInputMode int

const (
	DataInputOff DataInputMode = iota
	DataInputOn
)

// SpindleState is the active spindle command (M03/M04/M05).
type SpindleState int

const (
	SpindleOff SpindleState = iota
	SpindleCW
	SpindleCCW
)

// CoolantState is the active coolant command, a bitfield since M07 (mist)
// and M08 (flood) add to each other, so both can be active at once; M09
// clears both. There is no combined coolant-and-spindle M-word.
type CoolantState uint8

const (
	CoolantNone  CoolantState = 0
	CoolantMist  CoolantState = 1 << 0
	CoolantFlood CoolantState = 1 << 1
)

// RunState tracks whether the interpreter should keep consuming blocks.
type RunState int

const (
	RunRunning RunState = iota
	RunOptionalStop
	RunCompulsoryStop
	RunEnd
	RunReset
)

// WCS is one work-coordinate-system origin (G54-G59, G54.1 Pn).
type WCS struct {
	X, Y, Z float64
}
