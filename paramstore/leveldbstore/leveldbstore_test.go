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

package leveldbstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical-gcode/gcode-canon/gcodeparam"
)

func TestSyncPersistsAcrossLoad(t *testing.T) {
	s, err := OpenMemory()
	require.NoError(t, err)
	defer s.Close()

	store := gcodeparam.New(s)
	require.NoError(t, store.Update(gcodeparam.WCSOrigin(0, gcodeparam.AxisX), 12.5))
	require.NoError(t, store.Commit())

	fresh := gcodeparam.New(nil)
	require.NoError(t, s.Load(fresh))
	assert.Equal(t, 12.5, fresh.Fetch(gcodeparam.WCSOrigin(0, gcodeparam.AxisX)))
}

func TestSyncSkipsMacroLocalParameters(t *testing.T) {
	s, err := OpenMemory()
	require.NoError(t, err)
	defer s.Close()

	const macroLocal = uint16(gcodeparam.MacroLocalFirst + 1) // #2, well inside the macro-local range

	store := gcodeparam.New(s)
	require.NoError(t, store.Update(macroLocal, 99))
	require.NoError(t, store.Commit())

	fresh := gcodeparam.New(nil)
	require.NoError(t, s.Load(fresh))
	assert.Equal(t, 0.0, fresh.Fetch(macroLocal), "macro-local parameters are not persisted")
}

func TestLoadPopulatesMultipleEntries(t *testing.T) {
	s, err := OpenMemory()
	require.NoError(t, err)
	defer s.Close()

	store := gcodeparam.New(s)
	require.NoError(t, store.Update(gcodeparam.WCSOrigin(0, gcodeparam.AxisX), 1))
	require.NoError(t, store.Update(gcodeparam.WCSOrigin(0, gcodeparam.AxisY), 2))
	require.NoError(t, store.Commit())

	fresh := gcodeparam.New(nil)
	require.NoError(t, s.Load(fresh))
	assert.Equal(t, 1.0, fresh.Fetch(gcodeparam.WCSOrigin(0, gcodeparam.AxisX)))
	assert.Equal(t, 2.0, fresh.Fetch(gcodeparam.WCSOrigin(0, gcodeparam.AxisY)))
}
