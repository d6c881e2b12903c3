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

// Package gcodetool implements the tool table (component C2): indexed tool
// records backed by the parameter store, grounded on
// _examples/original_source/gcode-tools.c. Tool attributes route through
// gcodeparam.Store.Set so they share its out-of-range error semantics.
package gcodetool

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/canonical-gcode/gcode-canon/gcodeparam"
)

// Tool is an indexed tool-table record.
type Tool struct {
	Index    uint16
	Type     float64
	Diameter float64
	Length   float64
}

// cacheSize generalizes the original's single-entry "current tool" cache
// into a small LRU, since sub-programs frequently alternate between a
// handful of tools (drill, then back to the finishing tool, ...).
const cacheSize = 8

// Store is the tool table (C2), backed by a gcodeparam.Store.
type Store struct {
	params *gcodeparam.Store
	cache  *lru.Cache
}

// New creates a Store backed by params.
func New(params *gcodeparam.Store) *Store {
	c, err := lru.New(cacheSize)
	if err != nil {
		// Only fails for a non-positive size, which cacheSize never is.
		panic(err)
	}
	return &Store{params: params, cache: c}
}

// Fetch returns the tool record at index i, consulting the cache first.
func (s *Store) Fetch(i uint16) Tool {
	if v, ok := s.cache.Get(i); ok {
		return v.(Tool)
	}
	t := Tool{
		Index:    i,
		Type:     s.params.Fetch(gcodeparam.ToolTypeBase + i),
		Diameter: s.params.Fetch(gcodeparam.ToolDiamBase + i),
		Length:   s.params.Fetch(gcodeparam.ToolLenBase + i),
	}
	s.cache.Add(i, t)
	return t
}

// Update writes t's attributes through to the parameter store and refreshes
// the cache entry.
func (s *Store) Update(t Tool) error {
	if err := s.params.Set(gcodeparam.ToolTypeBase+t.Index, t.Type); err != nil {
		return err
	}
	if err := s.params.Set(gcodeparam.ToolDiamBase+t.Index, t.Diameter); err != nil {
		return err
	}
	if err := s.params.Set(gcodeparam.ToolLenBase+t.Index, t.Length); err != nil {
		return err
	}
	s.cache.Add(t.Index, t)
	return nil
}

// RadiusOf returns half the diameter of tool i, or 0 for the no-tool index.
func (s *Store) RadiusOf(i uint16) float64 {
	if i == 0 {
		return 0
	}
	return s.Fetch(i).Diameter / 2.0
}

// LengthOf returns the length of tool i, or 0 for the no-tool index.
func (s *Store) LengthOf(i uint16) float64 {
	if i == 0 {
		return 0
	}
	return s.Fetch(i).Length
}

// Installed scans the tool type range and reports how many consecutive
// tools starting at index 1 have a non-zero type, reproducing the boot-time
// diagnostic scan in gcode-tools.c's init_tools.
func (s *Store) Installed() int {
	n := 0
	for i := uint16(1); i <= gcodeparam.ToolCount; i++ {
		if s.params.Fetch(gcodeparam.ToolTypeBase+i) == 0 {
			break
		}
		n++
	}
	return n
}
