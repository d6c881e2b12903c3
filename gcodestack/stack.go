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

// Package gcodestack implements the two stacks the interpreter needs for
// macro call/return (component C5): a program-pointer stack recording
// where to resume and how many more times to loop, and a parameter
// snapshot stack preserving macro-local state across nested M98 calls.
//
// Grounded on the frame/callStack shape in
// _examples/ProbeChain-go-probe/go-probe-master/probe-lang/lang/vm/vm.go
// and on the M98/M99 push/pop sequence in
// _examples/original_source/gcode-state.c.
package gcodestack

import "github.com/canonical-gcode/gcode-canon/gcodeerr"

// Frame is one entry on the program-pointer stack: where to resume input
// from, whether this frame represents a genuine macro call (as opposed to
// a bare repeat loop), and how many repeats remain.
type Frame struct {
	Offset      int64
	MacroCall   bool
	RepeatCount uint32
}

// ProgramStack is a LIFO of Frames, used by M98 (call) and M99 (return).
type ProgramStack struct {
	frames []Frame
}

// NewProgramStack returns an empty ProgramStack.
func NewProgramStack() *ProgramStack { return &ProgramStack{} }

// Push records a new Frame.
func (s *ProgramStack) Push(f Frame) {
	s.frames = append(s.frames, f)
}

// Pop removes and returns the top Frame, or ErrStackUnderflow if empty.
func (s *ProgramStack) Pop() (Frame, error) {
	if len(s.frames) == 0 {
		return Frame{}, gcodeerr.ErrStackUnderflow
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, nil
}

// Peek returns the top Frame without removing it, or ErrStackUnderflow if
// empty.
func (s *ProgramStack) Peek() (Frame, error) {
	if len(s.frames) == 0 {
		return Frame{}, gcodeerr.ErrStackUnderflow
	}
	return s.frames[len(s.frames)-1], nil
}

// Depth reports how many frames are on the stack.
func (s *ProgramStack) Depth() int { return len(s.frames) }

// Empty reports whether the stack has no frames.
func (s *ProgramStack) Empty() bool { return len(s.frames) == 0 }

// ParameterSnapshot preserves a macro's local-parameter view (#1-#33)
// across a nested M98 call.
type ParameterSnapshot map[uint16]float64

// SnapshotStack is a LIFO of ParameterSnapshots, pushed on M98 macro entry
// and popped on the matching M99 return.
type SnapshotStack struct {
	snaps []ParameterSnapshot
}

// NewSnapshotStack returns an empty SnapshotStack.
func NewSnapshotStack() *SnapshotStack { return &SnapshotStack{} }

// Push records a new ParameterSnapshot.
func (s *SnapshotStack) Push(p ParameterSnapshot) {
	s.snaps = append(s.snaps, p)
}

// Pop removes and returns the top ParameterSnapshot, or ErrStackUnderflow
// if empty.
func (s *SnapshotStack) Pop() (ParameterSnapshot, error) {
	if len(s.snaps) == 0 {
		return nil, gcodeerr.ErrStackUnderflow
	}
	p := s.snaps[len(s.snaps)-1]
	s.snaps = s.snaps[:len(s.snaps)-1]
	return p, nil
}

// Depth reports how many snapshots are on the stack.
func (s *SnapshotStack) Depth() int { return len(s.snaps) }
