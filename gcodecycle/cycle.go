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

// Package gcodecycle is the cycle generator (component C6): it expands one
// canned-cycle invocation (G73/G74, G76/G77, G81-G89) into the literal
// G-Code blocks that perform it, for splicing back into the input stream
// above the calling block. Each generated block is itself ordinary G-Code,
// so the state machine interprets the expansion without any special-cased
// motion mode.
//
// Grounded on the CYCLE-finalize fetch logic (per-cycle-id L/R/K/P/Q/I/J
// handling) in _examples/original_source/gcode-state.c, translated from
// "accumulate into the machine queue directly" to "emit text", in the
// spirit of the IR-to-bytecode textual emission in
// _examples/ProbeChain-go-probe/go-probe-master/probe-lang/lang/codegen/codegen.go.
package gcodecycle

import (
	"fmt"
	"math"
	"strings"
)

// ID identifies a canned cycle by its calling G-code number.
type ID int

const (
	Drill        ID = 81 // G81: straight drill
	DrillDwell   ID = 82 // G82: drill, dwell at bottom
	Peck         ID = 83 // G83: deep-hole peck drill
	ChipBreak    ID = 73 // G73: high-speed peck drill
	Tap          ID = 84 // G84: right-hand tap
	ReverseTap   ID = 74 // G74: left-hand tap
	Bore         ID = 85 // G85: bore, feed out
	BoreDwell    ID = 86 // G86: bore, spindle stop, rapid out
	BoreShift    ID = 87 // G87: back bore
	BoreManual   ID = 88 // G88: bore, manual retract
	BoreDwellOut ID = 89 // G89: bore, dwell, feed out
	RigidTap     ID = 77 // G77: rigid tap variant
)

// Params is one cycle invocation's axis and cycle-specific arguments, as
// fetched by the state machine's CYCLE-finalize block.
type Params struct {
	Cycle ID

	// X, Y are the hole location in the current plane; Z is the
	// programmed bottom in the current coordinate system.
	X, Y, Z float64

	// R is the retract plane, LastZ is the Z the cycle starts from
	// (the machine's position before the first repeat).
	R, LastZ float64

	// Q is the peck increment (G73/G83), P is a dwell in seconds
	// (G82/G86/G88/G89), K is the shift amount (G87), I/J are unused by
	// the generator but threaded through for completeness.
	Q, P, K, I, J float64

	Feed       float64
	RetractAll bool // true selects G98 (retract to LastZ), false G99 (retract to R)
	Repeats    uint32
}

// Generate expands params into the literal G-Code blocks that implement
// one repeat of the cycle at the given hole location, in the order the
// machine should execute them: rapid to R, feed/peck to Z per the cycle's
// characteristic motion, any cycle-specific dwell or spindle action, then
// retract.
//
// Repeats is not read: Generate always emits a single repeat, and the state
// machine calls it once per cycle block, so an L word greater than 1 does
// not repeat the cycle.
func Generate(p Params) []string {
	var b []string
	emit := func(format string, args ...interface{}) {
		b = append(b, fmt.Sprintf(format, args...))
	}

	emit("G00 X%g Y%g", p.X, p.Y)
	emit("G00 Z%g", p.R)

	switch p.Cycle {
	case Peck, ChipBreak:
		generatePeck(emit, p)
	case Tap, ReverseTap, RigidTap:
		generateTap(emit, p)
	case DrillDwell, BoreDwell, BoreDwellOut:
		emit("G01 Z%g F%g", p.Z, p.Feed)
		if p.P > 0 {
			emit("G04 P%g", p.P)
		}
		switch p.Cycle {
		case BoreDwell:
			emit("M05")
			retract(emit, p, false)
			emit("M03")
		case BoreDwellOut:
			emit("G01 Z%g F%g", retractTarget(p), p.Feed)
		default:
			retract(emit, p, true)
		}
	case Bore:
		emit("G01 Z%g F%g", p.Z, p.Feed)
		emit("G01 Z%g F%g", retractTarget(p), p.Feed)
	case BoreShift:
		emit("G01 Z%g F%g", p.Z, p.Feed)
		emit("G00 X%g Y%g", p.X+p.K, p.Y)
		emit("G00 Z%g", retractTarget(p))
		emit("G00 X%g Y%g", p.X, p.Y)
	case BoreManual:
		emit("G01 Z%g F%g", p.Z, p.Feed)
		if p.P > 0 {
			emit("G04 P%g", p.P)
		}
		emit("M00")
		retract(emit, p, false)
	default: // Drill and anything else: plain feed to bottom, rapid out
		emit("G01 Z%g F%g", p.Z, p.Feed)
		retract(emit, p, false)
	}

	return b
}

func generatePeck(emit func(string, ...interface{}), p Params) {
	step := p.Q
	if step <= 0 {
		step = math.Abs(p.R - p.Z)
	}
	depth := p.R
	for depth-step > p.Z {
		depth -= step
		emit("G01 Z%g F%g", depth, p.Feed)
		emit("G00 Z%g", p.R)
		emit("G00 Z%g", depth+step*0.5)
	}
	emit("G01 Z%g F%g", p.Z, p.Feed)
	retract(emit, p, false)
}

func generateTap(emit func(string, ...interface{}), p Params) {
	emit("M03")
	emit("G01 Z%g F%g", p.Z, p.Feed)
	emit("M04")
	retract(emit, p, false)
	emit("M03")
}

func retract(emit func(string, ...interface{}), p Params, forceAll bool) {
	if forceAll || p.RetractAll {
		emit("G00 Z%g", p.LastZ)
		return
	}
	emit("G00 Z%g", p.R)
}

func retractTarget(p Params) float64 {
	if p.RetractAll {
		return p.LastZ
	}
	return p.R
}

// String renders the generated blocks as a splice-ready sub-program,
// separated by newlines, in the shape the Input collaborator's Splice
// method expects.
func String(blocks []string) string {
	return strings.Join(blocks, "\n") + "\n"
}
