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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	assert.NoError(t, err)
	assert.Equal(t, Defaults, cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gcode-canon.toml")
	err := os.WriteFile(path, []byte("QueueDepth = 8\nLogLevel = \"debug\"\n"), 0o644)
	assert.NoError(t, err)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, 8, cfg.QueueDepth)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, Defaults.ParamFile, cfg.ParamFile, "fields absent from the file keep their default")
}
