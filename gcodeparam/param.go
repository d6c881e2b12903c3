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

// Package gcodeparam implements the numbered real-valued parameter store
// (component C1): a mapping from 16-bit parameter number to real, with a
// staged-write/commit-barrier protocol. Reads observe committed ∪ staged;
// writes made with Update are not durable until Commit runs.
//
// Layout of the well-known, persistent ranges is grounded on
// _examples/original_source/gcode-state.c and gcode-tools.c:
//
//	0            global scaling flag (nothing in this module sets it; reads 0 at boot)
//	1..33        macro locals (#1-#33), transient — never persisted
//	40..42       G92/G52 local offset X,Y,Z
//	45..47       length-comp offset mirror (Z cell is the one actually used)
//	50..52       end-of-block machine pose X,Y,Z
//	60           current WCS id
//	61           bitfield flags (absolute, imperial, ...)
//	100..117     six WCS origins × (X,Y,Z), 3 cells per system
//	200..231     tool table: type
//	300..331     tool table: diameter
//	400..431     tool table: length
package gcodeparam

import "github.com/canonical-gcode/gcode-canon/gcodeerr"

// Axis indices used when addressing per-axis parameter cells.
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// Well-known parameter addresses, see package doc for the full layout.
const (
	ScalingFlag = 0

	MacroLocalFirst = 1
	MacroLocalLast  = 33

	FirstLocal  = 40 // G92/G52 offset base (3 cells)
	FirstOffset = 45 // length-comp offset base (3 cells, Z is load-bearing)
	FirstCEOB   = 50 // end-of-block machine pose base (3 cells)

	CurrentWCS = 60
	Bitfield2  = 61

	FirstWCS = 100
	WCSSize  = 3 // cells per WCS system

	ToolTypeBase = 200
	ToolDiamBase = 300
	ToolLenBase  = 400
	ToolCount    = 32

	paramMax = 500 // exclusive upper bound of the addressable space
)

// Bitfield2 flag bits, mirroring GCODE_STATE_PF_* in the original source.
const (
	FlagAbsolute uint8 = 1 << 0
	FlagImperial uint8 = 1 << 1
)

// Persistor is the external parameter-file collaborator: Commit calls Sync
// once per persistent parameter that changed, so the implementation can
// batch or fsync as it sees fit. A nil Persistor makes Store purely
// in-memory (used by tests and by sub-interpreter snapshots).
type Persistor interface {
	Sync(n uint16, v float64) error
}

// Store is the parameter store (C1). The zero value is not usable; use New.
type Store struct {
	committed map[uint16]float64
	staged    map[uint16]float64
	persist   Persistor
}

// New creates an empty Store. persist may be nil.
func New(persist Persistor) *Store {
	return &Store{
		committed: make(map[uint16]float64),
		staged:    make(map[uint16]float64),
		persist:   persist,
	}
}

// InRange reports whether n is an addressable parameter number.
func InRange(n uint16) bool { return n < paramMax }

// Persistent reports whether n belongs to a well-known range that survives
// across program invocations (everything except the macro-local range).
func Persistent(n uint16) bool {
	return n < MacroLocalFirst || n > MacroLocalLast
}

// Fetch returns the (committed ∪ staged) value of parameter n, or 0.0 if it
// was never set.
func (s *Store) Fetch(n uint16) float64 {
	if v, ok := s.staged[n]; ok {
		return v
	}
	return s.committed[n]
}

// Set writes n directly into both committed and staged state, bypassing the
// commit barrier. Used for boot-time defaults and for loading persisted
// values.
func (s *Store) Set(n uint16, v float64) error {
	if !InRange(n) {
		return gcodeerr.ErrParamOutOfRange
	}
	s.committed[n] = v
	s.staged[n] = v
	return nil
}

// Update stages a write to parameter n. It is not visible to fetches from a
// separate Store sharing the same backing file until Commit runs, but is
// immediately visible to Fetch on this Store.
func (s *Store) Update(n uint16, v float64) error {
	if !InRange(n) {
		return gcodeerr.ErrParamOutOfRange
	}
	s.staged[n] = v
	return nil
}

// Commit atomically transfers staged writes into committed state and, for
// every persistent parameter whose value changed, calls the Persistor.
func (s *Store) Commit() error {
	for n, v := range s.staged {
		if s.committed[n] == v {
			continue
		}
		s.committed[n] = v
		if s.persist != nil && Persistent(n) {
			if err := s.persist.Sync(n, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// SnapshotLocals returns a copy of parameters MacroLocalFirst..MacroLocalLast
// for the parameter-snapshot stack (C5).
func (s *Store) SnapshotLocals() map[uint16]float64 {
	snap := make(map[uint16]float64, MacroLocalLast-MacroLocalFirst+1)
	for n := uint16(MacroLocalFirst); n <= MacroLocalLast; n++ {
		snap[n] = s.Fetch(n)
	}
	return snap
}

// RestoreLocals writes back a snapshot taken by SnapshotLocals, bypassing
// the commit barrier (macro locals are never persisted).
func (s *Store) RestoreLocals(snap map[uint16]float64) {
	for n, v := range snap {
		s.committed[n] = v
		s.staged[n] = v
	}
}

// WCSOrigin returns the parameter address of the given 0-based axis of the
// (0-based) WCS system index (0 = WCS1 .. 5 = WCS6).
func WCSOrigin(wcsIndex int, axis int) uint16 {
	return uint16(FirstWCS + wcsIndex*WCSSize + axis)
}
