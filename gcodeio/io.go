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

// Package gcodeio defines the two external collaborator interfaces
// (components C8 and C9) and ships a default implementation of each: a
// file-backed Input that supports in-memory splicing for cycle expansion
// and macro calls, and a tracing Machine that logs every motion command it
// receives instead of driving real hardware.
package gcodeio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/canonical-gcode/gcode-canon/gcodeerr"
	"github.com/canonical-gcode/gcode-canon/gclog"
)

// Input is the input collaborator (C8): the source of G-Code blocks. The
// interpreter core never reads a file directly, so tests can feed it
// canned blocks and the cycle generator can splice synthetic
// sub-programs above the current source without the core knowing the
// difference.
type Input interface {
	// FetchLine returns the next block, or io.EOF when no source remains.
	FetchLine() (string, error)

	// Splice pushes text as a new top-of-stack source: FetchLine will
	// drain it before returning to whatever was spliced below.
	Splice(text string)

	// Offset returns a resumable position in the current (bottom, file)
	// source, used by M98/M99 to save and restore a call site.
	Offset() int64

	// SeekTo restores a position previously returned by Offset.
	SeekTo(offset int64) error

	// ResolveProgram maps an M98 Pk program number to spliceable text,
	// used when the called program is not simply "continue reading the
	// same file at a saved offset" (an external subroutine library).
	ResolveProgram(number uint32) (string, error)

	// EndOfSpliced reports, once, whether the most recent FetchLine call
	// drained the last spliced source and fell back to the source beneath
	// it. It is a one-shot signal: the next call returns false until
	// another splice drains. Mirrors end_of_spliced_input() in the
	// original, which the state machine polls after a block finishes to
	// decide whether a canned cycle's spliced expansion just finished.
	EndOfSpliced() bool
}

// source is one entry in FileInput's splice stack.
type source struct {
	reader *bufio.Reader
	text   string // non-empty when this source is an in-memory splice
	offset int64  // bytes consumed so far; advanced only for spliced sources
}

// FileInput is the default Input: a file at the bottom of the stack, with
// in-memory sub-programs (cycle expansions, macro bodies resolved by
// number) spliced above it. Only the bottom source's Offset is
// externally meaningful, matching the original's single fseek-based
// M98/M99 implementation.
type FileInput struct {
	file    io.ReadSeeker
	stack   []*source
	resolve func(uint32) (string, error)

	wasSpliced  bool // the stack has held more than one source since the last drain
	justDrained bool // the stack popped back down to the file source; one-shot
}

// NewFileInput wraps file as the bottom of the splice stack. Every M98 Pk
// is resolved through resolve; program numbers are not looked up inside
// the file itself. With a nil resolve, any M98 Pk fails with
// ErrUnknownProgram.
func NewFileInput(file io.ReadSeeker, resolve func(uint32) (string, error)) *FileInput {
	fi := &FileInput{file: file, resolve: resolve}
	fi.stack = []*source{{reader: bufio.NewReader(file)}}
	return fi
}

// FetchLine implements Input.
//
// A spliced source is popped the moment its last line is returned (detected
// by peeking one byte past it), not on the following call. That way the
// block which just consumed the final spliced line is itself the one
// end_of_spliced_input() reports true for, matching the original: a canned
// cycle's retract move (the last line of its expansion) is the block whose
// post-cleanup restores modal CYCLE mode, so the very next real block from
// the calling program sees it already restored.
func (f *FileInput) FetchLine() (string, error) {
	for len(f.stack) > 0 {
		spliced := len(f.stack) > 1
		if spliced {
			f.wasSpliced = true
		}
		top := f.stack[len(f.stack)-1]
		line, err := top.reader.ReadString('\n')
		if len(top.text) > 0 {
			top.offset += int64(len(line))
		}
		line = strings.TrimRight(line, "\r\n")
		if err != nil {
			if len(line) > 0 {
				if spliced {
					f.popDrained()
				}
				return line, nil
			}
			if len(f.stack) == 1 {
				return "", io.EOF
			}
			f.stack = f.stack[:len(f.stack)-1]
			continue
		}
		if spliced {
			if _, peekErr := top.reader.Peek(1); peekErr != nil {
				f.popDrained()
			}
		}
		return line, nil
	}
	return "", io.EOF
}

// popDrained pops the top (spliced) source and, if that brings the stack
// back down to just the file source, arms the one-shot EndOfSpliced signal.
func (f *FileInput) popDrained() {
	f.stack = f.stack[:len(f.stack)-1]
	if len(f.stack) == 1 && f.wasSpliced {
		f.justDrained = true
		f.wasSpliced = false
	}
}

// EndOfSpliced implements Input.
func (f *FileInput) EndOfSpliced() bool {
	v := f.justDrained
	f.justDrained = false
	return v
}

// Splice implements Input.
func (f *FileInput) Splice(text string) {
	f.stack = append(f.stack, &source{reader: bufio.NewReader(strings.NewReader(text)), text: text})
}

// Offset implements Input, reporting the bottom (file) source's position.
func (f *FileInput) Offset() int64 {
	seeker, ok := f.file.(io.Seeker)
	if !ok {
		return 0
	}
	pos, _ := seeker.Seek(0, io.SeekCurrent)
	// Subtract whatever the bufio.Reader has buffered but not consumed.
	return pos - int64(f.stack[0].reader.Buffered())
}

// SeekTo implements Input.
func (f *FileInput) SeekTo(offset int64) error {
	seeker, ok := f.file.(io.Seeker)
	if !ok {
		return gcodeerr.ErrUnknownProgram
	}
	if _, err := seeker.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	f.stack = f.stack[:1]
	f.stack[0].reader = bufio.NewReader(f.file)
	return nil
}

// ResolveProgram implements Input.
func (f *FileInput) ResolveProgram(number uint32) (string, error) {
	if f.resolve == nil {
		return "", gcodeerr.ErrUnknownProgram
	}
	return f.resolve(number)
}

// Machine is the machine collaborator (C9): the downstream consumer of
// completed motion commands. The interpreter core calls these methods from
// the dispatch stage that owns each action (tool change, spindle, coolant,
// dwell, homing, motion, auxiliary words); a Machine backed by a queued
// transport (see package queue) returns as soon as the command is queued.
type Machine interface {
	Rapid(x, y, z float64) error
	Linear(x, y, z, feed float64) error
	Arc(x, y, z, i, j, k, feed float64, clockwise bool) error
	Home(x, y, z float64) error
	Dwell(seconds float64) error
	Spindle(cw bool, speed float64) error
	SpindleStop() error
	Coolant(mist, flood bool) error
	ToolChange(index uint16) error
	Aux(mWord uint32) error
	Running() bool
}

// TracingMachine is the default Machine: it logs every command through
// gclog instead of driving hardware, and keeps "running" true forever
// unless Stop is called, suitable for dry-run CLI use and for tests that
// want to assert on emitted commands by swapping gclog's output.
type TracingMachine struct {
	running bool
	Commands []string
}

// NewTracingMachine returns a running TracingMachine.
func NewTracingMachine() *TracingMachine {
	return &TracingMachine{running: true}
}

func (m *TracingMachine) record(format string, args ...interface{}) error {
	line := fmt.Sprintf(format, args...)
	m.Commands = append(m.Commands, line)
	gclog.Debug("machine", "cmd", line)
	return nil
}

func (m *TracingMachine) Rapid(x, y, z float64) error { return m.record("RAPID X%g Y%g Z%g", x, y, z) }
func (m *TracingMachine) Linear(x, y, z, feed float64) error {
	return m.record("LINEAR X%g Y%g Z%g F%g", x, y, z, feed)
}
func (m *TracingMachine) Arc(x, y, z, i, j, k, feed float64, clockwise bool) error {
	dir := "CCW"
	if clockwise {
		dir = "CW"
	}
	return m.record("ARC%s X%g Y%g Z%g I%g J%g K%g F%g", dir, x, y, z, i, j, k, feed)
}
func (m *TracingMachine) Home(x, y, z float64) error { return m.record("HOME X%g Y%g Z%g", x, y, z) }
func (m *TracingMachine) Dwell(seconds float64) error { return m.record("DWELL P%g", seconds) }
func (m *TracingMachine) Spindle(cw bool, speed float64) error {
	dir := "CCW"
	if cw {
		dir = "CW"
	}
	return m.record("SPINDLE%s S%g", dir, speed)
}
func (m *TracingMachine) SpindleStop() error { return m.record("SPINDLESTOP") }
func (m *TracingMachine) Coolant(mist, flood bool) error {
	return m.record("COOLANT mist=%v flood=%v", mist, flood)
}
func (m *TracingMachine) ToolChange(index uint16) error { return m.record("TOOLCHANGE T%d", index) }
func (m *TracingMachine) Aux(mWord uint32) error        { return m.record("AUX M%d", mWord) }
func (m *TracingMachine) Running() bool                 { return m.running }

// Stop marks the machine as no longer running, matching the original's
// machine_running() gate in the top-level loop.
func (m *TracingMachine) Stop() { m.running = false }
