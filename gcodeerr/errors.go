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

// Package gcodeerr defines the sentinel error kinds shared by every
// interpreter component, so callers can test failure classes with
// errors.Is regardless of which component raised them.
package gcodeerr

import "errors"

var (
	// ErrParamOutOfRange is returned by the parameter store when a
	// parameter number falls outside the addressable range.
	ErrParamOutOfRange = errors.New("gcode: parameter number out of range")

	// ErrStackUnderflow is returned when a pop is attempted on an empty
	// program-pointer or parameter-snapshot stack.
	ErrStackUnderflow = errors.New("gcode: stack underflow")

	// ErrBlockTooLong is returned when an input line exceeds the 255-byte
	// block limit.
	ErrBlockTooLong = errors.New("gcode: block exceeds 255 bytes")

	// ErrMalformedNumber names a word's numeric argument that cannot be
	// parsed as a G-Code number. Nothing in this module returns it: the
	// lexer yields NaN for such an argument and reports no error.
	ErrMalformedNumber = errors.New("gcode: malformed number")

	// ErrUnknownProgram is returned when M98 Pk references a program
	// number the input collaborator cannot resolve.
	ErrUnknownProgram = errors.New("gcode: unknown program number")

	// ErrMachineFault is returned in place of an error surfaced by the
	// Machine collaborator; the original error is not kept.
	ErrMachineFault = errors.New("gcode: machine fault")
)
