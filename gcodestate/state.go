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

// Package gcodestate holds the modal G-Code State record (component of the
// data model in spec §3) together with the closed-alphabet types it is
// built from, including the RunState that the interpreter's run loop
// (gcodeinterp.Interpreter.Run) checks.
//
// The struct's field layout and its initial defaults are grounded on the
// static currentGCodeState record and init_gcode_state in
// _examples/original_source/gcode-state.c.
package gcodestate

import "math"

// State is the interpreter's modal G-Code State (C7 data): everything a
// block's interpretation can depend on besides the block's own words.
type State struct {
	Plane          Plane
	Units          Units
	Motion         MotionMode
	Comp           CompMode
	LengthComp     LengthCompMode
	Retract        RetractMode
	Path           PathMode
	Position       PositionMode
	Polar          PolarMode
	DataInput      DataInputMode
	Spindle        SpindleState
	Coolant        CoolantState
	Run            RunState
	OverridesOn    bool
	MirrorX        bool
	MirrorY        bool
	MirrorZ        bool
	RotationOn     bool
	RotationAngle  float64
	RotationOriginX, RotationOriginY, RotationOriginZ float64
	ScalingOn      bool
	ScalingFactorX, ScalingFactorY, ScalingFactorZ float64
	ScalingOriginX, ScalingOriginY, ScalingOriginZ float64

	CurrentWCS int // 0-based index into WCS1..WCS6, -1 selects the MCS (G53)
	CurrentTool uint16
	PendingTool uint16

	// CompRadius is the cutter-compensation radius offset, frozen at
	// G41/G42 time from whichever tool the D-word (or the pending T-word
	// preselect, absent a D-word) names — mirrors radComp.offset being
	// set once from radiusof_tool() in the original rather than looked
	// up again at dispatch time, so a later T-word can't retroactively
	// change which tool's radius a compensated move uses.
	CompRadius float64

	// X, Y, Z are the machine's last commanded position, in machine
	// coordinates, used as the start point for arcs, cutter compensation
	// and mirroring. Missing axis words are filled from CX/CY/CZ instead.
	X, Y, Z float64

	// CX, CY, CZ track each axis word's last seen value independent of
	// any transform (the cX/cY/cZ fields in the original).
	CX, CY, CZ float64

	// GX, GY, GZ are each axis's last WCS/offset/length-comp-transformed
	// position, used as the incremental-mode accumulation origin (the
	// gX/gY/gZ fields in the original).
	GX, GY, GZ float64

	// MirrorOriginX/Y/Z are the per-axis reference points the
	// incremental mirroring transform tracks between blocks.
	MirrorOriginX, MirrorOriginY, MirrorOriginZ float64

	// I, J, K, R are the current arc/cycle parameters, reset to their
	// "unset" sentinel on every block that carries a G02 or G03 word.
	I, J, K, R float64

	Feed  float64
	Speed float64

	// Dwell is the last G04 P value, forwarded to the machine but not
	// itself a modal quantity.
	Dwell float64

	InverseFeedMode bool // G93 vs G94/G95
}

// New returns a State with the boot-time defaults from init_gcode_state:
// metric units, the XY plane, absolute positioning, WCS1 selected, and an
// unset arc center (NaN) so the first arc word seen is never mistaken for
// an explicit zero.
func New() *State {
	return &State{
		Plane:    PlaneXY,
		Units:    UnitsMetric,
		Motion:   MotionOff,
		Position: PositionAbsolute,
		Path:     PathContinuous,
		CurrentWCS: 0,
		I: math.NaN(), J: math.NaN(), K: math.NaN(), R: math.NaN(),
		ScalingFactorX: 1, ScalingFactorY: 1, ScalingFactorZ: 1,
	}
}

// ResetArcCenter clears I/J/K/R back to their unset sentinel. The state
// machine calls it on every block that carries a G02 or G03 word, whether
// or not the motion mode was already an arc.
func (s *State) ResetArcCenter() {
	s.I, s.J, s.K, s.R = math.NaN(), math.NaN(), math.NaN(), math.NaN()
}

// Absolute reports whether the position mode is G90.
func (s *State) Absolute() bool { return s.Position == PositionAbsolute }

// Imperial reports whether the unit mode is G20.
func (s *State) Imperial() bool { return s.Units == UnitsInch }
